package analyzer

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Manifest is the durable source of truth persisted as `state.json`
// inside the archive. The in-memory State is rebuilt from it on every
// open; every mutation writes it back immediately.
type Manifest struct {
	Brokers   []*BrokerManifest                     `json:"brokers"`
	Exchanges []ExchangeRate                        `json:"exchanges"`
	Tags      []string                              `json:"tags"`
	AssetTags map[string][]string                   `json:"assetTags"`
	Groups    map[string]map[string]decimal.Decimal `json:"groups"`
}

// BrokerManifest records one broker and the archive paths of its reports.
type BrokerManifest struct {
	Name             string            `json:"name"`
	StateFormat      string            `json:"stateFormat"`
	OperationsFormat string            `json:"operationsFormat"`
	Reports          map[string]string `json:"reports"`
	OperationReports map[string]string `json:"operationReports"`
}

// HasReport reports whether name is registered as a state or an
// operations report. Both kinds share the broker's archive folder, so
// a filename can be registered only once.
func (b *BrokerManifest) HasReport(name string) bool {
	_, state := b.Reports[name]
	_, ops := b.OperationReports[name]
	return state || ops
}

// ExchangeRate is one cached daily rate relative to the home currency.
// Date is keyed in the daily-rates source format (see KeyFormat).
type ExchangeRate struct {
	Date         string          `json:"date"`
	CurrencyCode string          `json:"currencyCode"`
	Nominal      decimal.Decimal `json:"nominal"`
	Value        decimal.Decimal `json:"value"`
}

// NewManifest creates an empty manifest with all containers allocated.
func NewManifest() *Manifest {
	return &Manifest{
		AssetTags: make(map[string][]string),
		Groups:    make(map[string]map[string]decimal.Decimal),
	}
}

// normalize allocates containers a hand-edited or older manifest may
// have left null.
func (m *Manifest) normalize() {
	if m.AssetTags == nil {
		m.AssetTags = make(map[string][]string)
	}
	if m.Groups == nil {
		m.Groups = make(map[string]map[string]decimal.Decimal)
	}
	for _, b := range m.Brokers {
		if b.Reports == nil {
			b.Reports = make(map[string]string)
		}
		if b.OperationReports == nil {
			b.OperationReports = make(map[string]string)
		}
	}
}

// Broker returns the broker manifest with this name, or nil if unknown.
func (m *Manifest) Broker(name string) *BrokerManifest {
	for _, b := range m.Brokers {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// RemoveBroker drops the broker manifest with this name if present.
func (m *Manifest) RemoveBroker(name string) {
	m.Brokers = slices.DeleteFunc(m.Brokers, func(b *BrokerManifest) bool { return b.Name == name })
}

// FindExchange returns the cached rate for an exact (date key, currency)
// match.
func (m *Manifest) FindExchange(dateKey, currencyCode string) (ExchangeRate, bool) {
	for _, e := range m.Exchanges {
		if e.Date == dateKey && e.CurrencyCode == currencyCode {
			return e, true
		}
	}
	return ExchangeRate{}, false
}

// HasExchange reports whether a rate is cached for (date key, currency).
func (m *Manifest) HasExchange(dateKey, currencyCode string) bool {
	_, ok := m.FindExchange(dateKey, currencyCode)
	return ok
}

// AddTag appends the tag unless already present.
func (m *Manifest) AddTag(tag string) {
	if !slices.Contains(m.Tags, tag) {
		m.Tags = append(m.Tags, tag)
	}
}

// RemoveTag drops the tag from the global set. Asset assignments keep
// carrying it: removing a tag is not retroactive.
func (m *Manifest) RemoveTag(tag string) {
	m.Tags = slices.DeleteFunc(m.Tags, func(t string) bool { return t == tag })
}

// AddAssetTag associates an instrument with a tag, once.
func (m *Manifest) AddAssetTag(isin, tag string) {
	if !slices.Contains(m.AssetTags[isin], tag) {
		m.AssetTags[isin] = append(m.AssetTags[isin], tag)
	}
}

// RemoveAssetTag drops one association.
func (m *Manifest) RemoveAssetTag(isin, tag string) {
	tags := slices.DeleteFunc(m.AssetTags[isin], func(t string) bool { return t == tag })
	if len(tags) == 0 {
		delete(m.AssetTags, isin)
		return
	}
	m.AssetTags[isin] = tags
}
