package analyzer

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestManagerLifecycle(t *testing.T) {
	m, dir := newTestManager(t)
	addTestBroker(t, m)

	state := writeReport(t, dir, "2024-03-31.xml", stateReportXML("2024-03-31",
		position("US1", "Apple", "USD", "10", "1 000,5", "100,05"),
		position("RU1", "Bonds", "RUB", "5", "500", "100"),
	))
	if !m.ImportPortfolioPeriods("alpha", []string{state}) {
		t.Fatalf("import failed:\n%s", strings.Join(m.Log.Lines(), "\n"))
	}
	ops := writeReport(t, dir, "2024-03-ops.xml", opsReportXML("2024-03-31",
		operation("In", "RUB", "10000"),
		operation("Out", "RUB", "-2000"),
		operation("Ignored", "RUB", "999"),
	))
	if !m.ImportOperationPeriods("alpha", []string{ops}) {
		t.Fatalf("ops import failed:\n%s", strings.Join(m.Log.Lines(), "\n"))
	}

	if got := m.State.Portfolios(); len(got) != 1 || got[0].ReportName != "2024-03-31.xml" {
		t.Errorf("portfolios = %+v", got)
	}
	if got := m.State.Entries(); len(got) != 2 || !got[0].TotalPrice.Equal(decimal.RequireFromString("1000.5")) {
		t.Errorf("entries = %+v", got)
	}
	// Ignored rows are dropped at ingestion.
	if got := m.State.Operations(); len(got) != 2 {
		t.Errorf("operations = %+v", got)
	}
	if got := m.State.Periods(); len(got) != 1 || got[0] != NewDate(2024, time.March, 31) {
		t.Errorf("periods = %v", got)
	}

	// The USD rate was resolved at import time and cached.
	converted, err := m.ConvertedPrice("USD", decimal.NewFromInt(2), NewDate(2024, time.March, 31))
	if err != nil {
		t.Fatalf("ConvertedPrice: %v", err)
	}
	if !converted.Equal(decimal.RequireFromString("181")) {
		t.Errorf("ConvertedPrice = %s, want 181", converted)
	}

	// Reopen the same archive with a fresh manager: the whole state
	// must come back from the manifest without talking to the feed.
	m2 := NewManager()
	m2.Repository().StartupDir = dir
	m2.Gateway().BaseURL = "http://127.0.0.1:1" // unreachable on purpose
	if !m2.TryInitialize() {
		t.Fatalf("reopen failed:\n%s", strings.Join(m2.Log.Lines(), "\n"))
	}
	if m2.Phase() != Ready {
		t.Fatalf("phase after reopen = %v", m2.Phase())
	}
	if got := m2.State.Entries(); len(got) != 2 {
		t.Errorf("entries after reopen = %+v", got)
	}
	if got := m2.State.Operations(); len(got) != 2 {
		t.Errorf("operations after reopen = %+v", got)
	}
	if _, err := m2.ConvertedPrice("USD", decimal.NewFromInt(1), NewDate(2024, time.March, 31)); err != nil {
		t.Errorf("rate lost across restart: %v", err)
	}
}

func TestManagerImportRollback(t *testing.T) {
	m, dir := newTestManager(t)
	addTestBroker(t, m)

	// XXX is not published by the feed, so the import cannot resolve
	// the rate and must roll back completely.
	bad := writeReport(t, dir, "bad.xml", stateReportXML("2024-03-31",
		position("XX1", "Exotic", "XXX", "1", "100", "100"),
	))
	if m.ImportPortfolioPeriods("alpha", []string{bad}) {
		t.Fatal("import of an unresolvable currency succeeded")
	}
	if got := m.State.Portfolios(); len(got) != 0 {
		t.Errorf("rollback left a snapshot: %+v", got)
	}
	if _, ok, _ := m.Repository().TryLoadEntry("Reports/alpha/bad.xml"); ok {
		t.Error("rollback left the report in the archive")
	}

	// A fresh manager over the same archive must know nothing of it.
	m2 := NewManager()
	m2.Repository().StartupDir = dir
	m2.Gateway().BaseURL = m.Gateway().BaseURL
	if !m2.TryInitialize() {
		t.Fatalf("reopen failed:\n%s", strings.Join(m2.Log.Lines(), "\n"))
	}
	if got := m2.State.Portfolios(); len(got) != 0 {
		t.Errorf("rolled back import resurfaced after reopen: %+v", got)
	}

	// The same file imports fine once its currency is resolvable.
	good := writeReport(t, dir, "good.xml", stateReportXML("2024-03-31",
		position("US1", "Apple", "USD", "1", "100", "100"),
	))
	if !m.ImportPortfolioPeriods("alpha", []string{good}) {
		t.Fatalf("follow-up import failed:\n%s", strings.Join(m.Log.Lines(), "\n"))
	}
}

func TestManagerImportRollbackOnGatewayFailure(t *testing.T) {
	m, dir := newTestManager(t)
	addTestBroker(t, m)
	m.Gateway().BaseURL = "http://127.0.0.1:1" // unreachable

	report := writeReport(t, dir, "eur.xml", stateReportXML("2024-03-31",
		position("DE1", "Siemens", "EUR", "1", "100", "100"),
	))
	if m.ImportPortfolioPeriods("alpha", []string{report}) {
		t.Fatal("import succeeded with an unreachable rate source")
	}
	if got := m.State.Portfolios(); len(got) != 0 {
		t.Errorf("rollback left a snapshot: %+v", got)
	}
	if _, ok, _ := m.Repository().TryLoadEntry("Reports/alpha/eur.xml"); ok {
		t.Error("rollback left the report in the archive")
	}
}

func TestManagerDuplicatePeriods(t *testing.T) {
	m, dir := newTestManager(t)
	addTestBroker(t, m)

	report := writeReport(t, dir, "2024-03-31.xml", stateReportXML("2024-03-31",
		position("RU1", "Bonds", "RUB", "5", "500", "100"),
	))
	if !m.ImportPortfolioPeriods("alpha", []string{report}) {
		t.Fatalf("import failed:\n%s", strings.Join(m.Log.Lines(), "\n"))
	}

	// Same file name again.
	if m.ImportPortfolioPeriods("alpha", []string{report}) {
		t.Error("importing the same report twice succeeded")
	}
	// Different file, same reporting date.
	other := writeReport(t, dir, "other.xml", stateReportXML("2024-03-31",
		position("RU2", "More bonds", "RUB", "1", "100", "100"),
	))
	if m.ImportPortfolioPeriods("alpha", []string{other}) {
		t.Error("importing a second snapshot for the same date succeeded")
	}
	if _, ok, _ := m.Repository().TryLoadEntry("Reports/alpha/other.xml"); ok {
		t.Error("rejected duplicate left its report in the archive")
	}
	if got := m.State.Entries(); len(got) != 1 {
		t.Errorf("entries = %+v", got)
	}
}

func TestManagerImportSharedReportName(t *testing.T) {
	m, dir := newTestManager(t)
	addTestBroker(t, m)

	ops := writeReport(t, dir, "2024-03.xml", opsReportXML("2024-03-31",
		operation("In", "RUB", "1000"),
	))
	if !m.ImportOperationPeriods("alpha", []string{ops}) {
		t.Fatalf("ops import failed:\n%s", strings.Join(m.Log.Lines(), "\n"))
	}

	// A state report with the same filename targets the same archive
	// path. It must be refused before touching the archive, even when
	// its own ingestion would fail and roll back afterwards.
	state := writeReport(t, t.TempDir(), "2024-03.xml", stateReportXML("2024-03-31",
		position("XX1", "Unknown", "XXX", "1", "100", "100"),
	))
	if m.ImportPortfolioPeriods("alpha", []string{state}) {
		t.Fatal("importing a state report over a registered operations report succeeded")
	}

	data, ok, err := m.Repository().TryLoadEntry("Reports/alpha/2024-03.xml")
	if err != nil || !ok {
		t.Fatalf("operations report entry gone: ok=%v err=%v", ok, err)
	}
	if !strings.Contains(string(data), "<operations") {
		t.Errorf("operations report bytes were overwritten:\n%s", data)
	}
	if got := m.State.Operations(); len(got) != 1 {
		t.Errorf("operations = %+v", got)
	}
}

func TestManagerRemoveBrokerCascades(t *testing.T) {
	m, dir := newTestManager(t)
	addTestBroker(t, m)

	state := writeReport(t, dir, "2024-03-31.xml", stateReportXML("2024-03-31",
		position("RU1", "Bonds", "RUB", "5", "500", "100"),
	))
	ops := writeReport(t, dir, "2024-03-ops.xml", opsReportXML("2024-03-31",
		operation("In", "RUB", "10000"),
	))
	if !m.ImportPortfolioPeriods("alpha", []string{state}) || !m.ImportOperationPeriods("alpha", []string{ops}) {
		t.Fatalf("import failed:\n%s", strings.Join(m.Log.Lines(), "\n"))
	}

	if err := m.RemoveBroker("alpha"); err != nil {
		t.Fatalf("RemoveBroker: %v", err)
	}
	if got := m.State.Brokers(); len(got) != 0 {
		t.Errorf("brokers = %+v", got)
	}
	if got := m.State.Entries(); len(got) != 0 {
		t.Errorf("entries = %+v", got)
	}
	if got := m.State.Operations(); len(got) != 0 {
		t.Errorf("operations = %+v", got)
	}
	if got := m.State.Periods(); len(got) != 0 {
		t.Errorf("periods = %v", got)
	}
	if _, ok, _ := m.Repository().TryLoadEntry("Reports/alpha/2024-03-31.xml"); ok {
		t.Error("broker removal left a report in the archive")
	}
}

func TestManagerRemoveBrokerSweepsSkippedReports(t *testing.T) {
	m, dir := newTestManager(t)
	addTestBroker(t, m)
	good := writeReport(t, dir, "good.xml", stateReportXML("2024-03-31",
		position("RU1", "Bonds", "RUB", "1", "100", "100"),
	))
	bad := writeReport(t, dir, "bad.xml", stateReportXML("2024-04-30",
		position("RU1", "Bonds", "RUB", "1", "100", "100"),
	))
	if !m.ImportPortfolioPeriods("alpha", []string{good, bad}) {
		t.Fatalf("import failed:\n%s", strings.Join(m.Log.Lines(), "\n"))
	}

	// Damage one archived report so the reopen skips it. The skipped
	// report stays registered in the manifest but never reaches state.
	broken := writeReport(t, dir, "broken.xml", "not xml")
	if err := m.Repository().AddEntry(broken, "Reports/alpha/bad.xml"); err != nil {
		t.Fatal(err)
	}
	if err := m.Repository().DeleteEntry(cacheEntryName); err != nil {
		t.Fatal(err)
	}

	m2 := NewManager()
	m2.Repository().StartupDir = dir
	m2.Gateway().BaseURL = m.Gateway().BaseURL
	if !m2.TryInitialize() {
		t.Fatalf("reopen failed:\n%s", strings.Join(m2.Log.Lines(), "\n"))
	}
	if err := m2.RemoveBroker("alpha"); err != nil {
		t.Fatalf("RemoveBroker: %v", err)
	}
	for _, entry := range []string{"Reports/alpha/good.xml", "Reports/alpha/bad.xml"} {
		if _, ok, _ := m2.Repository().TryLoadEntry(entry); ok {
			t.Errorf("archive entry %q survived the broker removal", entry)
		}
	}
	manifest, err := m2.Repository().LoadOrCreateManifest()
	if err != nil {
		t.Fatalf("LoadOrCreateManifest: %v", err)
	}
	if len(manifest.Brokers) != 0 {
		t.Errorf("brokers in manifest = %+v", manifest.Brokers)
	}
}

func TestManagerRemovePeriodKeepsSharedDate(t *testing.T) {
	m, dir := newTestManager(t)
	addTestBroker(t, m)
	if err := m.AddBroker(Broker{Name: "beta", StateFormat: "broker-xml", OperationsFormat: "broker-ops-xml"}); err != nil {
		t.Fatalf("AddBroker: %v", err)
	}

	a := writeReport(t, dir, "a.xml", stateReportXML("2024-03-31", position("RU1", "Bonds", "RUB", "1", "100", "100")))
	b := writeReport(t, dir, "b.xml", stateReportXML("2024-03-31", position("RU2", "Notes", "RUB", "1", "100", "100")))
	if !m.ImportPortfolioPeriods("alpha", []string{a}) || !m.ImportPortfolioPeriods("beta", []string{b}) {
		t.Fatalf("import failed:\n%s", strings.Join(m.Log.Lines(), "\n"))
	}

	on := NewDate(2024, time.March, 31)
	if err := m.RemovePortfolioPeriod("alpha", on); err != nil {
		t.Fatalf("RemovePortfolioPeriod: %v", err)
	}
	// beta still reports on that date, so the date must survive.
	if got := m.State.Periods(); len(got) != 1 || got[0] != on {
		t.Errorf("periods = %v, want [%v]", got, on)
	}
	if err := m.RemovePortfolioPeriod("beta", on); err != nil {
		t.Fatalf("RemovePortfolioPeriod: %v", err)
	}
	if got := m.State.Periods(); len(got) != 0 {
		t.Errorf("periods = %v, want none", got)
	}
}

func TestManagerTagsAndGroups(t *testing.T) {
	m, _ := newTestManager(t)

	if err := m.AddTag("stock"); err != nil {
		t.Fatalf("AddTag: %v", err)
	}
	if err := m.AddTag("stock"); err != nil {
		t.Fatalf("second AddTag: %v", err)
	}
	if got := m.State.Tags(); len(got) != 1 {
		t.Errorf("tags = %v", got)
	}

	if err := m.AddGroup("core"); err != nil {
		t.Fatalf("AddGroup: %v", err)
	}
	if err := m.AddGroupEntry("core", "stock", decimal.NewFromInt(60)); err != nil {
		t.Fatalf("AddGroupEntry: %v", err)
	}
	// Adding again keeps the original target.
	if err := m.AddGroupEntry("core", "stock", decimal.NewFromInt(99)); err != nil {
		t.Fatalf("second AddGroupEntry: %v", err)
	}
	if got := m.State.GroupEntries(); len(got) != 1 || !got[0].Target.Equal(decimal.NewFromInt(60)) {
		t.Errorf("group entries = %+v", got)
	}
	if err := m.SetGroupEntryTarget("core", "stock", decimal.NewFromInt(70)); err != nil {
		t.Fatalf("SetGroupEntryTarget: %v", err)
	}
	if got := m.State.GroupEntries(); !got[0].Target.Equal(decimal.NewFromInt(70)) {
		t.Errorf("target after set = %s", got[0].Target)
	}
	if err := m.SetGroupEntryTarget("core", "bond", decimal.NewFromInt(30)); err == nil {
		t.Error("SetGroupEntryTarget on a missing entry succeeded")
	}
	if err := m.AddGroupEntry("nope", "stock", decimal.NewFromInt(1)); err == nil {
		t.Error("AddGroupEntry on a missing group succeeded")
	}

	if err := m.RemoveGroup("core"); err != nil {
		t.Fatalf("RemoveGroup: %v", err)
	}
	if got := m.State.GroupEntries(); len(got) != 0 {
		t.Errorf("entries survived their group: %+v", got)
	}
}

func TestManagerAssetTags(t *testing.T) {
	m, dir := newTestManager(t)
	addTestBroker(t, m)

	report := writeReport(t, dir, "r.xml", stateReportXML("2024-03-31",
		position("RU1", "Bonds", "RUB", "1", "100", "100"),
	))
	if !m.ImportPortfolioPeriods("alpha", []string{report}) {
		t.Fatalf("import failed:\n%s", strings.Join(m.Log.Lines(), "\n"))
	}

	if err := m.AddAssetTag("RU1", "bond"); err != nil {
		t.Fatalf("AddAssetTag: %v", err)
	}
	if got := m.State.AssetTags(); len(got["RU1"]) != 1 || got["RU1"][0] != "bond" {
		t.Errorf("asset tags = %v", got)
	}
	// Assignments persist even for instruments not currently held.
	if err := m.AddAssetTag("US9", "stock"); err != nil {
		t.Fatalf("AddAssetTag unseen isin: %v", err)
	}
	if got := m.State.AssetTags(); len(got["US9"]) != 0 {
		t.Errorf("index lists an instrument with no entries: %v", got)
	}

	if err := m.RemoveAssetTag("RU1", "bond"); err != nil {
		t.Fatalf("RemoveAssetTag: %v", err)
	}
	if got := m.State.AssetTags(); len(got["RU1"]) != 0 {
		t.Errorf("asset tags after removal = %v", got)
	}
}

func TestManagerConvertedPrice(t *testing.T) {
	m, _ := newTestManager(t)
	on := NewDate(2024, time.March, 31)

	// Home currency passes through even with nothing cached.
	got, err := m.ConvertedPrice("RUB", decimal.RequireFromString("12.34"), on)
	if err != nil || !got.Equal(decimal.RequireFromString("12.34")) {
		t.Errorf("RUB passthrough = %s, %v", got, err)
	}

	if _, err := m.ConvertedPrice("USD", decimal.NewFromInt(1), on); !errors.Is(err, ErrNoRate) {
		t.Errorf("missing rate error = %v, want ErrNoRate", err)
	}

	uninitialized := NewManager()
	if _, err := uninitialized.ConvertedPrice("USD", decimal.NewFromInt(1), on); !errors.Is(err, ErrNotReady) {
		t.Errorf("uninitialized error = %v, want ErrNotReady", err)
	}
}

func TestManagerInitializeFreshArchive(t *testing.T) {
	m, _ := newTestManager(t)
	if got := m.State.Brokers(); len(got) != 0 {
		t.Errorf("brokers = %+v", got)
	}
	manifest, err := m.Repository().LoadOrCreateManifest()
	if err != nil {
		t.Fatalf("LoadOrCreateManifest: %v", err)
	}
	if len(manifest.Brokers) != 0 || len(manifest.Tags) != 0 {
		t.Errorf("manifest not empty: %+v", manifest)
	}
}

func TestManagerInitializeMissingArchive(t *testing.T) {
	dir := t.TempDir()
	m := NewManager()
	m.Repository().StartupDir = dir
	if m.Initialize(filepath.Join(dir, "absent.zip"), false) {
		t.Fatal("initializing over a missing archive succeeded")
	}
	if m.Phase() != Failed {
		t.Errorf("phase = %v, want Failed", m.Phase())
	}
}

func TestManagerSkipsCorruptReportOnInit(t *testing.T) {
	m, dir := newTestManager(t)
	addTestBroker(t, m)
	good := writeReport(t, dir, "good.xml", stateReportXML("2024-03-31",
		position("RU1", "Bonds", "RUB", "1", "100", "100"),
	))
	if !m.ImportPortfolioPeriods("alpha", []string{good}) {
		t.Fatalf("import failed:\n%s", strings.Join(m.Log.Lines(), "\n"))
	}

	// Damage the archived report and the cache, then reopen: the bad
	// report is skipped, the archive still opens.
	bad := writeReport(t, dir, "broken.xml", "not xml")
	if err := m.Repository().AddEntry(bad, "Reports/alpha/good.xml"); err != nil {
		t.Fatal(err)
	}
	if err := m.Repository().DeleteEntry(cacheEntryName); err != nil {
		t.Fatal(err)
	}

	m2 := NewManager()
	m2.Repository().StartupDir = dir
	m2.Gateway().BaseURL = m.Gateway().BaseURL
	if !m2.TryInitialize() {
		t.Fatalf("reopen failed:\n%s", strings.Join(m2.Log.Lines(), "\n"))
	}
	if m2.Phase() != Ready {
		t.Errorf("phase = %v, want Ready", m2.Phase())
	}
	if got := m2.State.Entries(); len(got) != 0 {
		t.Errorf("corrupt report produced entries: %+v", got)
	}
}
