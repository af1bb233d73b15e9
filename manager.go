package analyzer

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/grebnev/analyzer/importer"
	"github.com/shopspring/decimal"
)

// Phase is the initialization state of the manager.
type Phase int

const (
	Uninitialized Phase = iota
	LoadingManifest
	ImportingReports
	Ready
	Failed
)

func (p Phase) String() string {
	switch p {
	case Uninitialized:
		return "uninitialized"
	case LoadingManifest:
		return "loading-manifest"
	case ImportingReports:
		return "importing-reports"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

var (
	// ErrNoRate is returned when a valuation needs an exchange rate that
	// was never cached. Unreachable if ingestion ordering was respected.
	ErrNoRate = errors.New("no exchange rate cached")
	// ErrNotReady is returned by operations that need a loaded manifest.
	ErrNotReady = errors.New("no manifest previously loaded")
)

// DefaultHomeCurrency is the reference currency of the daily-rates
// source: values in it pass through conversion unchanged.
const DefaultHomeCurrency = "RUB"

// Manager is the single orchestrator of the application state. It owns
// the in-memory State, drives initialization, mediates currency
// conversion and persists the manifest after every mutation, so the
// in-memory state and the durable state never diverge within a session.
//
// Mutating methods are not safe for concurrent invocation: callers must
// serialize them.
type Manager struct {
	// State is the in-memory view, fully rebuilt on every Initialize.
	State *State
	// Log receives every operational and error line.
	Log *Logger
	// HomeCurrency is the currency all valuations are normalized to.
	HomeCurrency string

	repo    *Repository
	cache   *ReportCache
	gateway *ExchangeGateway

	startup  *Startup
	manifest *Manifest
	phase    Phase
}

// NewManager is the composition root: it constructs the logger, the
// repository, the report cache and the exchange gateway, and wires them
// together.
func NewManager() *Manager {
	logger := NewLogger()
	repo := NewRepository(logger)
	return &Manager{
		State:        NewState(),
		Log:          logger,
		HomeCurrency: DefaultHomeCurrency,
		repo:         repo,
		cache:        NewReportCache(repo, logger),
		gateway:      NewExchangeGateway(logger),
	}
}

// Phase returns the current initialization phase.
func (m *Manager) Phase() Phase { return m.phase }

// Repository exposes the archive repository, e.g. to relocate the
// startup config.
func (m *Manager) Repository() *Repository { return m.repo }

// Gateway exposes the exchange-rate gateway, e.g. to point it at a
// different source.
func (m *Manager) Gateway() *ExchangeGateway { return m.gateway }

// LoadStartup loads the startup config recording the last-used archive.
func (m *Manager) LoadStartup() {
	m.startup = m.repo.LoadOrCreateStartup()
}

// LastArchivePath returns the archive path recorded in the startup
// config, or "".
func (m *Manager) LastArchivePath() string {
	if m.startup == nil {
		m.LoadStartup()
	}
	return m.startup.FilePath
}

// TryInitialize initializes from the last-used archive path. It returns
// false when no previous path is recorded.
func (m *Manager) TryInitialize() bool {
	if m.startup == nil {
		m.LoadStartup()
	}
	if m.startup.FilePath == "" {
		m.Log.Printf("no previously opened archive")
		return false
	}
	return m.Initialize(m.startup.FilePath, false)
}

// Initialize pins the archive path, loads the manifest and rebuilds the
// whole in-memory state from it. A single report's parse failure is
// logged and skipped; only a manifest load failure fails the whole
// initialization.
func (m *Manager) Initialize(path string, allowCreate bool) bool {
	if m.startup == nil {
		m.LoadStartup()
	}
	m.phase = LoadingManifest
	m.startup.FilePath = path
	m.repo.FilePath = path
	m.cache.reset()

	if allowCreate {
		if err := m.repo.CreateArchive(); err != nil {
			m.Log.Printf("cannot create archive %q: %v", path, err)
			m.phase = Failed
			return false
		}
	}
	manifest, err := m.repo.LoadOrCreateManifest()
	if err != nil {
		m.Log.Printf("cannot load manifest from %q: %v", path, err)
		m.phase = Failed
		return false
	}
	m.manifest = manifest

	m.phase = ImportingReports
	m.State.Reset()
	for _, bm := range m.manifest.Brokers {
		broker := Broker{Name: bm.Name, StateFormat: bm.StateFormat, OperationsFormat: bm.OperationsFormat}
		m.State.addBroker(broker)
		for _, name := range sortedKeys(bm.Reports) {
			m.restoreStateReport(broker, name, bm.Reports[name])
		}
		for _, name := range sortedKeys(bm.OperationReports) {
			m.restoreOperationReport(broker, name, bm.OperationReports[name])
		}
	}
	for _, tag := range m.manifest.Tags {
		m.State.addTag(tag)
	}
	for _, group := range sortedKeys(m.manifest.Groups) {
		m.State.addGroup(group)
		for _, tag := range sortedKeys(m.manifest.Groups[group]) {
			m.State.setGroupEntry(GroupEntry{Group: group, Tag: tag, Target: m.manifest.Groups[group][tag]})
		}
	}
	m.RebuildAssetTags()

	if !m.repo.SaveManifest(m.manifest) {
		m.Log.Printf("cannot persist manifest after initialization")
	}
	if err := m.repo.SaveStartup(m.startup); err != nil {
		m.Log.Printf("%v", err)
	}
	m.phase = Ready
	return true
}

// restoreStateReport rebuilds one portfolio snapshot from an archived
// report during initialization. Failures skip only this report.
func (m *Manager) restoreStateReport(broker Broker, reportName, reportPath string) {
	m.Log.Printf("importing state %q for broker %q", reportName, broker.Name)
	result, err := m.cache.GetOrImportState(reportPath, broker.StateFormat)
	if err != nil {
		m.Log.Printf("failed to load state report %q for broker %q: %v", reportName, broker.Name, err)
		return
	}
	if !result.Success {
		m.Log.Printf("failed to load state report %q for broker %q: %s", reportName, broker.Name, strings.Join(result.Errors, "; "))
		return
	}
	on := NewDate(result.Date.Date())
	if _, exists := m.State.Portfolio(broker.Name, on); exists {
		m.Log.Printf("skip state report %q for broker %q: a snapshot for %s already exists", reportName, broker.Name, on)
		return
	}
	entries := toPortfolioEntries(broker.Name, on, result.Entries)
	m.State.addPortfolio(PortfolioSnapshot{Broker: broker.Name, Date: on, ReportName: reportName}, entries)
	if err := m.ensureRequiredExchanges(on, entryCurrencies(entries)); err != nil {
		m.Log.Printf("missing exchanges for state report %q of broker %q: %v", reportName, broker.Name, err)
	}
	m.Log.Printf("import state %q for broker %q finished", reportName, broker.Name)
}

// restoreOperationReport rebuilds one operation snapshot during
// initialization.
func (m *Manager) restoreOperationReport(broker Broker, reportName, reportPath string) {
	m.Log.Printf("importing operations %q for broker %q", reportName, broker.Name)
	result, err := m.cache.GetOrImportOperations(reportPath, broker.OperationsFormat)
	if err != nil {
		m.Log.Printf("failed to load operations report %q for broker %q: %v", reportName, broker.Name, err)
		return
	}
	if !result.Success {
		m.Log.Printf("failed to load operations report %q for broker %q: %s", reportName, broker.Name, strings.Join(result.Errors, "; "))
		return
	}
	on := NewDate(result.Date.Date())
	if _, exists := m.State.OperationState(broker.Name, on); exists {
		m.Log.Printf("skip operations report %q for broker %q: a snapshot for %s already exists", reportName, broker.Name, on)
		return
	}
	rows := toOperationEntries(broker.Name, on, result.Entries)
	m.State.addOperations(OperationSnapshot{Broker: broker.Name, Date: on, ReportName: reportName}, rows)
	if err := m.ensureRequiredExchanges(on, operationCurrencies(rows)); err != nil {
		m.Log.Printf("missing exchanges for operations report %q of broker %q: %v", reportName, broker.Name, err)
	}
	m.Log.Printf("import operations %q for broker %q finished", reportName, broker.Name)
}

func (m *Manager) assertManifest() error {
	if m.manifest == nil {
		return ErrNotReady
	}
	return nil
}

// persist writes the manifest back to the archive.
func (m *Manager) persist() error {
	if !m.repo.SaveManifest(m.manifest) {
		return fmt.Errorf("cannot persist manifest")
	}
	return nil
}

// AddBroker registers a broker. Adding an already known broker is a
// no-op.
func (m *Manager) AddBroker(broker Broker) error {
	if err := m.assertManifest(); err != nil {
		return err
	}
	if m.manifest.Broker(broker.Name) != nil {
		return nil
	}
	m.State.addBroker(broker)
	m.manifest.Brokers = append(m.manifest.Brokers, &BrokerManifest{
		Name:             broker.Name,
		StateFormat:      broker.StateFormat,
		OperationsFormat: broker.OperationsFormat,
		Reports:          make(map[string]string),
		OperationReports: make(map[string]string),
	})
	return m.persist()
}

// RemoveBroker removes a broker and cascades over every one of its
// periods, deleting each referenced archive entry.
func (m *Manager) RemoveBroker(name string) error {
	if err := m.assertManifest(); err != nil {
		return err
	}
	bm := m.manifest.Broker(name)
	_, known := m.State.Broker(name)
	if bm == nil && !known {
		return nil
	}
	for _, p := range m.State.Portfolios() {
		if p.Broker != name {
			continue
		}
		if err := m.RemovePortfolioPeriod(name, p.Date); err != nil {
			return err
		}
	}
	for _, o := range m.State.OperationStates() {
		if o.Broker != name {
			continue
		}
		if err := m.RemoveOperationPeriod(name, o.Date); err != nil {
			return err
		}
	}
	// Reports that never made it into state, such as ones skipped as
	// corrupt on load, still hold archive entries.
	if bm != nil {
		for _, reportPath := range bm.Reports {
			if err := m.repo.DeleteEntry(reportPath); err != nil {
				m.Log.Printf("cannot delete archive entry %q: %v", reportPath, err)
			}
		}
		for _, reportPath := range bm.OperationReports {
			if err := m.repo.DeleteEntry(reportPath); err != nil {
				m.Log.Printf("cannot delete archive entry %q: %v", reportPath, err)
			}
		}
	}
	m.State.removeBroker(name)
	m.manifest.RemoveBroker(name)
	return m.persist()
}

// ImportPortfolioPeriods copies each file into the archive and ingests
// it as a portfolio snapshot. It returns true only when every path was
// imported. A failed path is rolled back (the copied archive entry is
// deleted, the manifest left untouched) without affecting the others.
func (m *Manager) ImportPortfolioPeriods(brokerName string, paths []string) bool {
	broker, bm, err := m.brokerFor(brokerName)
	if err != nil {
		m.Log.Printf("%v", err)
		return false
	}
	ok := true
	for _, path := range paths {
		if !m.importStatePeriod(broker, bm, path) {
			ok = false
		}
	}
	m.RebuildAssetTags()
	return ok
}

// ImportOperationPeriods is the cash-flow counterpart of
// ImportPortfolioPeriods.
func (m *Manager) ImportOperationPeriods(brokerName string, paths []string) bool {
	broker, bm, err := m.brokerFor(brokerName)
	if err != nil {
		m.Log.Printf("%v", err)
		return false
	}
	ok := true
	for _, path := range paths {
		if !m.importOperationPeriod(broker, bm, path) {
			ok = false
		}
	}
	return ok
}

func (m *Manager) brokerFor(name string) (Broker, *BrokerManifest, error) {
	if err := m.assertManifest(); err != nil {
		return Broker{}, nil, err
	}
	broker, ok := m.State.Broker(name)
	bm := m.manifest.Broker(name)
	if !ok || bm == nil {
		return Broker{}, nil, fmt.Errorf("unknown broker %q", name)
	}
	return broker, bm, nil
}

func (m *Manager) importStatePeriod(broker Broker, bm *BrokerManifest, path string) bool {
	reportName := filepath.Base(path)
	reportPath := reportEntryPath(broker.Name, reportName)
	rollback := func(reason string) bool {
		m.Log.Printf("failed to import state %q for broker %q: %s", reportName, broker.Name, reason)
		if err := m.repo.DeleteEntry(reportPath); err != nil {
			m.Log.Printf("cannot roll back archive entry %q: %v", reportPath, err)
		}
		return false
	}

	if bm.HasReport(reportName) {
		m.Log.Printf("report %q is already registered for broker %q", reportName, broker.Name)
		return false
	}
	if err := m.repo.AddEntry(path, reportPath); err != nil {
		m.Log.Printf("cannot copy %q into the archive: %v", path, err)
		return false
	}
	m.Log.Printf("importing state %q for broker %q", reportName, broker.Name)

	result, err := m.cache.GetOrImportState(reportPath, broker.StateFormat)
	if err != nil {
		return rollback(err.Error())
	}
	if !result.Success {
		return rollback(strings.Join(result.Errors, "; "))
	}
	on := NewDate(result.Date.Date())
	if _, exists := m.State.Portfolio(broker.Name, on); exists {
		return rollback(fmt.Sprintf("a portfolio snapshot for %s already exists", on))
	}
	entries := toPortfolioEntries(broker.Name, on, result.Entries)
	if err := m.ensureRequiredExchanges(on, entryCurrencies(entries)); err != nil {
		return rollback(err.Error())
	}

	m.State.addPortfolio(PortfolioSnapshot{Broker: broker.Name, Date: on, ReportName: reportName}, entries)
	bm.Reports[reportName] = reportPath
	if err := m.persist(); err != nil {
		m.Log.Printf("%v", err)
		return false
	}
	m.Log.Printf("import state %q for broker %q finished", reportName, broker.Name)
	return true
}

func (m *Manager) importOperationPeriod(broker Broker, bm *BrokerManifest, path string) bool {
	reportName := filepath.Base(path)
	reportPath := reportEntryPath(broker.Name, reportName)
	rollback := func(reason string) bool {
		m.Log.Printf("failed to import operations %q for broker %q: %s", reportName, broker.Name, reason)
		if err := m.repo.DeleteEntry(reportPath); err != nil {
			m.Log.Printf("cannot roll back archive entry %q: %v", reportPath, err)
		}
		return false
	}

	if bm.HasReport(reportName) {
		m.Log.Printf("report %q is already registered for broker %q", reportName, broker.Name)
		return false
	}
	if err := m.repo.AddEntry(path, reportPath); err != nil {
		m.Log.Printf("cannot copy %q into the archive: %v", path, err)
		return false
	}
	m.Log.Printf("importing operations %q for broker %q", reportName, broker.Name)

	result, err := m.cache.GetOrImportOperations(reportPath, broker.OperationsFormat)
	if err != nil {
		return rollback(err.Error())
	}
	if !result.Success {
		return rollback(strings.Join(result.Errors, "; "))
	}
	on := NewDate(result.Date.Date())
	if _, exists := m.State.OperationState(broker.Name, on); exists {
		return rollback(fmt.Sprintf("an operation snapshot for %s already exists", on))
	}
	rows := toOperationEntries(broker.Name, on, result.Entries)
	if err := m.ensureRequiredExchanges(on, operationCurrencies(rows)); err != nil {
		return rollback(err.Error())
	}

	m.State.addOperations(OperationSnapshot{Broker: broker.Name, Date: on, ReportName: reportName}, rows)
	bm.OperationReports[reportName] = reportPath
	if err := m.persist(); err != nil {
		m.Log.Printf("%v", err)
		return false
	}
	m.Log.Printf("import operations %q for broker %q finished", reportName, broker.Name)
	return true
}

// RemovePortfolioPeriod removes the (broker, date) portfolio snapshot,
// its entries, the manifest report reference and the archive entry.
// Removing an unknown period is a no-op.
func (m *Manager) RemovePortfolioPeriod(brokerName string, on Date) error {
	if err := m.assertManifest(); err != nil {
		return err
	}
	snapshot, ok := m.State.Portfolio(brokerName, on)
	bm := m.manifest.Broker(brokerName)
	if !ok || bm == nil {
		return nil
	}
	reportPath, referenced := bm.Reports[snapshot.ReportName]
	m.State.removePortfolio(brokerName, on)
	delete(bm.Reports, snapshot.ReportName)
	if referenced {
		if err := m.repo.DeleteEntry(reportPath); err != nil {
			m.Log.Printf("cannot delete archive entry %q: %v", reportPath, err)
		}
	}
	m.RebuildAssetTags()
	return m.persist()
}

// RemoveOperationPeriod removes the (broker, date) operation snapshot
// and its durable traces.
func (m *Manager) RemoveOperationPeriod(brokerName string, on Date) error {
	if err := m.assertManifest(); err != nil {
		return err
	}
	snapshot, ok := m.State.OperationState(brokerName, on)
	bm := m.manifest.Broker(brokerName)
	if !ok || bm == nil {
		return nil
	}
	reportPath, referenced := bm.OperationReports[snapshot.ReportName]
	m.State.removeOperations(brokerName, on)
	delete(bm.OperationReports, snapshot.ReportName)
	if referenced {
		if err := m.repo.DeleteEntry(reportPath); err != nil {
			m.Log.Printf("cannot delete archive entry %q: %v", reportPath, err)
		}
	}
	return m.persist()
}

// AddTag adds a tag to the global set, once.
func (m *Manager) AddTag(tag string) error {
	if err := m.assertManifest(); err != nil {
		return err
	}
	m.State.addTag(tag)
	m.manifest.AddTag(tag)
	return m.persist()
}

// RemoveTag removes a tag from the global set. Assets keep carrying it.
func (m *Manager) RemoveTag(tag string) error {
	if err := m.assertManifest(); err != nil {
		return err
	}
	m.State.removeTag(tag)
	m.manifest.RemoveTag(tag)
	return m.persist()
}

// AddAssetTag associates an instrument with a tag.
func (m *Manager) AddAssetTag(isin, tag string) error {
	if err := m.assertManifest(); err != nil {
		return err
	}
	m.manifest.AddAssetTag(isin, tag)
	m.RebuildAssetTags()
	return m.persist()
}

// RemoveAssetTag removes one instrument-tag association.
func (m *Manager) RemoveAssetTag(isin, tag string) error {
	if err := m.assertManifest(); err != nil {
		return err
	}
	m.manifest.RemoveAssetTag(isin, tag)
	m.RebuildAssetTags()
	return m.persist()
}

// AddGroup creates an empty target-allocation group, once.
func (m *Manager) AddGroup(name string) error {
	if err := m.assertManifest(); err != nil {
		return err
	}
	if _, ok := m.manifest.Groups[name]; !ok {
		m.manifest.Groups[name] = make(map[string]decimal.Decimal)
	}
	m.State.addGroup(name)
	return m.persist()
}

// RemoveGroup removes a group and cascades over all its entries.
func (m *Manager) RemoveGroup(name string) error {
	if err := m.assertManifest(); err != nil {
		return err
	}
	delete(m.manifest.Groups, name)
	m.State.removeGroup(name)
	return m.persist()
}

// AddGroupEntry maps a tag to a target percentage within a group.
// Adding an already mapped tag is a no-op; use SetGroupEntryTarget to
// change the target.
func (m *Manager) AddGroupEntry(group, tag string, target decimal.Decimal) error {
	if err := m.assertManifest(); err != nil {
		return err
	}
	entries, ok := m.manifest.Groups[group]
	if !ok {
		return fmt.Errorf("unknown group %q", group)
	}
	if _, ok := entries[tag]; ok {
		return nil
	}
	entries[tag] = target
	m.State.setGroupEntry(GroupEntry{Group: group, Tag: tag, Target: target})
	return m.persist()
}

// SetGroupEntryTarget updates the target percentage of a group entry.
func (m *Manager) SetGroupEntryTarget(group, tag string, target decimal.Decimal) error {
	if err := m.assertManifest(); err != nil {
		return err
	}
	entries, ok := m.manifest.Groups[group]
	if !ok {
		return fmt.Errorf("unknown group %q", group)
	}
	if _, ok := entries[tag]; !ok {
		return fmt.Errorf("group %q has no entry for tag %q", group, tag)
	}
	entries[tag] = target
	m.State.setGroupEntry(GroupEntry{Group: group, Tag: tag, Target: target})
	return m.persist()
}

// RemoveGroupEntry removes one tag mapping from a group.
func (m *Manager) RemoveGroupEntry(group, tag string) error {
	if err := m.assertManifest(); err != nil {
		return err
	}
	if entries, ok := m.manifest.Groups[group]; ok {
		delete(entries, tag)
	}
	m.State.removeGroupEntry(group, tag)
	return m.persist()
}

// ConvertedPrice normalizes an amount into the home currency using the
// cached exchange rate for that exact date. The home currency passes
// through unchanged. A missing rate is an error for this call: callers
// must guarantee the rate was resolved at ingestion time.
func (m *Manager) ConvertedPrice(currency string, amount decimal.Decimal, on Date) (decimal.Decimal, error) {
	if currency == m.HomeCurrency {
		return amount, nil
	}
	if err := m.assertManifest(); err != nil {
		return decimal.Zero, err
	}
	rate, ok := m.manifest.FindExchange(on.Key(), currency)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w for %s on %s", ErrNoRate, currency, on)
	}
	return amount.Mul(rate.Value).Div(rate.Nominal), nil
}

// ensureRequiredExchanges makes sure a rate is cached for every given
// currency on the given date, fetching from the gateway only when some
// rate is missing. Rates that could be fetched are cached even when the
// call fails as a whole.
func (m *Manager) ensureRequiredExchanges(on Date, currencies []string) error {
	var missing []string
	for _, code := range currencies {
		if code == m.HomeCurrency || slices.Contains(missing, code) {
			continue
		}
		if !m.manifest.HasExchange(on.Key(), code) {
			missing = append(missing, code)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	rates, err := m.gateway.GetExchanges(on)
	if err != nil {
		return err
	}
	var unresolved []string
	added := false
	for _, code := range missing {
		found := false
		for _, rate := range rates {
			if rate.CurrencyCode == code {
				m.manifest.Exchanges = append(m.manifest.Exchanges, rate)
				found, added = true, true
				break
			}
		}
		if !found {
			unresolved = append(unresolved, code)
		}
	}
	if added {
		if err := m.persist(); err != nil {
			return err
		}
	}
	if len(unresolved) > 0 {
		return fmt.Errorf("no exchange rate published for %s on %s", strings.Join(unresolved, ", "), on)
	}
	return nil
}

// RebuildAssetTags recomputes the deterministic ISIN to tags index from
// the current entry set and the persisted assignments. Call it whenever
// the entry set changes.
func (m *Manager) RebuildAssetTags() {
	if m.manifest == nil {
		return
	}
	index := make(map[string][]string)
	for _, e := range m.State.entries {
		if _, ok := index[e.ISIN]; ok {
			continue
		}
		tags := slices.Clone(m.manifest.AssetTags[e.ISIN])
		slices.Sort(tags)
		index[e.ISIN] = tags
	}
	m.State.assetTags = index
	m.State.notify(EventTags)
}

// ManifestDocument returns the manifest as a generic JSON document,
// suitable for structural queries.
func (m *Manager) ManifestDocument() (any, error) {
	if err := m.assertManifest(); err != nil {
		return nil, err
	}
	return documentOf(m.manifest)
}

// helpers

func reportEntryPath(broker, reportName string) string {
	return fmt.Sprintf("Reports/%s/%s", broker, reportName)
}

func toPortfolioEntries(broker string, on Date, rows []importer.StateEntry) []PortfolioEntry {
	entries := make([]PortfolioEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, PortfolioEntry{
			Date:         on,
			Broker:       broker,
			ISIN:         r.ISIN,
			Name:         r.Name,
			Currency:     r.Currency,
			Quantity:     r.Count,
			TotalPrice:   r.TotalPrice,
			PricePerUnit: r.PricePerUnit,
		})
	}
	return entries
}

func toOperationEntries(broker string, on Date, rows []importer.OperationEntry) []OperationEntry {
	entries := make([]OperationEntry, 0, len(rows))
	for _, r := range rows {
		if r.Kind == importer.KindIgnored {
			continue
		}
		entries = append(entries, OperationEntry{
			Date:     on,
			Broker:   broker,
			Kind:     r.Kind,
			Currency: r.Currency,
			Volume:   r.Volume,
		})
	}
	return entries
}

func entryCurrencies(entries []PortfolioEntry) []string {
	var codes []string
	for _, e := range entries {
		if !slices.Contains(codes, e.Currency) {
			codes = append(codes, e.Currency)
		}
	}
	return codes
}

func operationCurrencies(rows []OperationEntry) []string {
	var codes []string
	for _, e := range rows {
		if !slices.Contains(codes, e.Currency) {
			codes = append(codes, e.Currency)
		}
	}
	return codes
}

// documentOf round-trips a value through JSON into the generic
// map/slice representation.
func documentOf(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := slices.Collect(maps.Keys(m))
	slices.Sort(keys)
	return keys
}
