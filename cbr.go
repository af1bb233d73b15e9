package analyzer

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// DefaultRatesURL is the central bank daily-rates endpoint. The feed is
// windows-1251 encoded XML with comma decimal separators:
//
//	<ValCurs Date="13.01.2023" name="Foreign Currency Market">
//	  <Valute ID="R01235">
//	    <NumCode>840</NumCode>
//	    <CharCode>USD</CharCode>
//	    <Nominal>1</Nominal>
//	    <Name>Доллар США</Name>
//	    <Value>67,5744</Value>
//	  </Valute>
//	</ValCurs>
const DefaultRatesURL = "http://www.cbr.ru/scripts/XML_daily.asp"

// ExchangeGateway fetches date-specific currency rates from the daily
// rates source. Calls block until completion; there is no retry, the
// caller must treat the enclosing import as failed on error.
type ExchangeGateway struct {
	// BaseURL of the rates source, overridable for tests.
	BaseURL string
	Client  *http.Client
	logger  *Logger
}

// NewExchangeGateway creates a gateway against the default source.
func NewExchangeGateway(logger *Logger) *ExchangeGateway {
	return &ExchangeGateway{BaseURL: DefaultRatesURL, Client: http.DefaultClient, logger: logger}
}

type valCurs struct {
	Valutes []valute `xml:"Valute"`
}

type valute struct {
	CharCode string `xml:"CharCode"`
	Nominal  string `xml:"Nominal"`
	Value    string `xml:"Value"`
}

// GetExchanges fetches all rates published for the given date. It
// skips individually malformed entries rather than failing the whole
// batch, and returns an empty set if the source has no data for that
// date. Network and HTTP failures are hard errors.
func (g *ExchangeGateway) GetExchanges(on Date) ([]ExchangeRate, error) {
	addr := fmt.Sprintf("%s?date_req=%s", g.BaseURL, on.Key())
	g.logger.Printf("read exchanges from %q", addr)

	resp, err := g.Client.Get(addr)
	if err != nil {
		return nil, fmt.Errorf("cannot fetch exchanges for %s: %w", on, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cannot fetch exchanges for %s: %s", on, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("cannot read exchanges response for %s: %w", on, err)
	}

	var doc valCurs
	dec := xml.NewDecoder(strings.NewReader(string(body)))
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		switch strings.ToLower(charset) {
		case "windows-1251", "cp1251":
			return transform.NewReader(input, charmap.Windows1251.NewDecoder()), nil
		}
		return input, nil
	}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("cannot parse exchanges response for %s: %w", on, err)
	}

	rates := make([]ExchangeRate, 0, len(doc.Valutes))
	for _, v := range doc.Valutes {
		if v.CharCode == "" {
			continue
		}
		nominal, err := parseFeedDecimal(v.Nominal)
		if err != nil {
			g.logger.Printf("skip %s rate on %s: invalid nominal %q", v.CharCode, on, v.Nominal)
			continue
		}
		value, err := parseFeedDecimal(v.Value)
		if err != nil {
			g.logger.Printf("skip %s rate on %s: invalid value %q", v.CharCode, on, v.Value)
			continue
		}
		rates = append(rates, ExchangeRate{
			Date:         on.Key(),
			CurrencyCode: v.CharCode,
			Nominal:      nominal,
			Value:        value,
		})
	}
	g.logger.Printf("%d exchanges found for %s", len(rates), on)
	return rates, nil
}

// parseFeedDecimal parses the feed's locale-specific decimals ("67,5744").
func parseFeedDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty number")
	}
	return decimal.NewFromString(s)
}
