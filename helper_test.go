package analyzer

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ratesFeed is a daily-rates document the way the source publishes it:
// windows-1251 declared, comma decimals. All test dates get the same
// rates.
const ratesFeed = `<?xml version="1.0" encoding="windows-1251"?>
<ValCurs Date="02.03.2024" name="Foreign Currency Market">
  <Valute ID="R01235"><NumCode>840</NumCode><CharCode>USD</CharCode><Nominal>1</Nominal><Name>US Dollar</Name><Value>90,50</Value></Valute>
  <Valute ID="R01239"><NumCode>978</NumCode><CharCode>EUR</CharCode><Nominal>1</Nominal><Value>100,00</Value></Valute>
  <Valute ID="R01820"><NumCode>392</NumCode><CharCode>JPY</CharCode><Nominal>100</Nominal><Value>60,00</Value></Valute>
</ValCurs>`

// newTestManager builds a ready manager over a fresh archive in a temp
// dir, with the exchange gateway pointed at a local fake feed.
func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("date_req") == "" {
			http.Error(w, "missing date_req", http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, ratesFeed)
	}))
	t.Cleanup(srv.Close)

	m := NewManager()
	m.Repository().StartupDir = dir
	m.Gateway().BaseURL = srv.URL
	if !m.Initialize(filepath.Join(dir, "test.zip"), true) {
		t.Fatalf("cannot initialize test archive:\n%s", strings.Join(m.Log.Lines(), "\n"))
	}
	if m.Phase() != Ready {
		t.Fatalf("phase after initializing an empty archive = %v, want Ready", m.Phase())
	}
	return m, dir
}

// addTestBroker registers the standard test broker "alpha".
func addTestBroker(t *testing.T, m *Manager) {
	t.Helper()
	b := Broker{Name: "alpha", StateFormat: "broker-xml", OperationsFormat: "broker-ops-xml"}
	if err := m.AddBroker(b); err != nil {
		t.Fatalf("AddBroker: %v", err)
	}
}

// writeReport writes a report file into dir and returns its path.
func writeReport(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writeReport: %v", err)
	}
	return path
}

func stateReportXML(date string, positions ...string) string {
	return fmt.Sprintf("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<report date=%q>%s</report>", date, strings.Join(positions, ""))
}

func position(isin, name, currency, count, total, price string) string {
	return fmt.Sprintf(`<position isin=%q name=%q currency=%q count=%q total=%q price=%q/>`, isin, name, currency, count, total, price)
}

func opsReportXML(date string, operations ...string) string {
	return fmt.Sprintf("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<operations date=%q>%s</operations>", date, strings.Join(operations, ""))
}

func operation(kind, currency, volume string) string {
	return fmt.Sprintf(`<operation kind=%q currency=%q volume=%q/>`, kind, currency, volume)
}
