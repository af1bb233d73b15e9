package analyzer

import (
	"slices"
	"sort"

	"github.com/shopspring/decimal"
)

// Broker identifies a report source and the formats of its reports.
type Broker struct {
	Name             string
	StateFormat      string
	OperationsFormat string
}

// PortfolioSnapshot is a dated capture of a broker's holdings, sourced
// from one imported report. At most one exists per (broker, date).
type PortfolioSnapshot struct {
	Broker     string
	Date       Date
	ReportName string
}

// OperationSnapshot is a dated capture of a broker's cash-flow
// operations. At most one exists per (broker, date).
type OperationSnapshot struct {
	Broker     string
	Date       Date
	ReportName string
}

// PortfolioEntry is one holding row of a portfolio snapshot.
type PortfolioEntry struct {
	Date         Date
	Broker       string
	ISIN         string
	Name         string
	Currency     string
	Quantity     decimal.Decimal
	TotalPrice   decimal.Decimal
	PricePerUnit decimal.Decimal
}

// OperationEntry is one cash-flow row of an operation snapshot.
type OperationEntry struct {
	Date     Date
	Broker   string
	Kind     string
	Currency string
	Volume   decimal.Decimal
}

// GroupEntry maps one tag to a target percentage within a group.
type GroupEntry struct {
	Group  string
	Tag    string
	Target decimal.Decimal
}

// Operation kinds tracked as external contributions.
const (
	OperationIn  = "In"
	OperationOut = "Out"
)

// Event names the part of the state that changed.
type Event string

const (
	EventBrokers    Event = "brokers"
	EventPeriods    Event = "periods"
	EventEntries    Event = "entries"
	EventOperations Event = "operations"
	EventTags       Event = "tags"
	EventGroups     Event = "groups"
)

// State is the in-memory view of the portfolio. It is a pure derived
// cache: cleared and fully rebuilt from the manifest plus parsed reports
// on every initialization, never itself persisted.
//
// Collections are plain slices and maps operated on synchronously; the
// event channel exists only so external consumers can refresh.
type State struct {
	brokers    []Broker
	periods    []Date
	portfolios []PortfolioSnapshot
	operations []OperationSnapshot

	entries         []PortfolioEntry
	operationRows   []OperationEntry

	tags         []string
	assetTags    map[string][]string // isin -> sorted tags, rebuilt explicitly
	groups       []string
	groupEntries []GroupEntry

	events chan Event
}

// NewState creates an empty state.
func NewState() *State {
	return &State{
		assetTags: make(map[string][]string),
		events:    make(chan Event, 64),
	}
}

// Reset clears every collection before a rebuild.
func (s *State) Reset() {
	s.brokers = nil
	s.periods = nil
	s.portfolios = nil
	s.operations = nil
	s.entries = nil
	s.operationRows = nil
	s.tags = nil
	s.assetTags = make(map[string][]string)
	s.groups = nil
	s.groupEntries = nil
}

// Events exposes change notifications. Events are dropped for consumers
// that do not keep up; the state itself never depends on them.
func (s *State) Events() <-chan Event { return s.events }

func (s *State) notify(e Event) {
	select {
	case s.events <- e:
	default:
	}
}

// accessors return copies so callers can iterate without aliasing the
// live collections.

func (s *State) Brokers() []Broker {
	return slices.Clone(s.brokers)
}

func (s *State) Broker(name string) (Broker, bool) {
	for _, b := range s.brokers {
		if b.Name == name {
			return b, true
		}
	}
	return Broker{}, false
}

func (s *State) Periods() []Date {
	out := slices.Clone(s.periods)
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func (s *State) Portfolios() []PortfolioSnapshot      { return slices.Clone(s.portfolios) }
func (s *State) OperationStates() []OperationSnapshot { return slices.Clone(s.operations) }
func (s *State) Entries() []PortfolioEntry            { return slices.Clone(s.entries) }
func (s *State) Operations() []OperationEntry         { return slices.Clone(s.operationRows) }
func (s *State) Tags() []string                       { return slices.Clone(s.tags) }
func (s *State) Groups() []string                     { return slices.Clone(s.groups) }
func (s *State) GroupEntries() []GroupEntry           { return slices.Clone(s.groupEntries) }

// AssetTags returns the ISIN to tags index.
func (s *State) AssetTags() map[string][]string {
	out := make(map[string][]string, len(s.assetTags))
	for isin, tags := range s.assetTags {
		out[isin] = slices.Clone(tags)
	}
	return out
}

// Portfolio returns the portfolio snapshot for (broker, date) if any.
func (s *State) Portfolio(broker string, on Date) (PortfolioSnapshot, bool) {
	for _, p := range s.portfolios {
		if p.Broker == broker && p.Date == on {
			return p, true
		}
	}
	return PortfolioSnapshot{}, false
}

// OperationState returns the operation snapshot for (broker, date) if any.
func (s *State) OperationState(broker string, on Date) (OperationSnapshot, bool) {
	for _, o := range s.operations {
		if o.Broker == broker && o.Date == on {
			return o, true
		}
	}
	return OperationSnapshot{}, false
}

// mutators. They maintain the state invariants but never persist
// anything: persistence is the manager's job.

func (s *State) addBroker(b Broker) {
	s.brokers = append(s.brokers, b)
	s.notify(EventBrokers)
}

func (s *State) removeBroker(name string) {
	s.brokers = slices.DeleteFunc(s.brokers, func(b Broker) bool { return b.Name == name })
	s.notify(EventBrokers)
}

func (s *State) addPeriod(on Date) {
	if !slices.Contains(s.periods, on) {
		s.periods = append(s.periods, on)
		s.notify(EventPeriods)
	}
}

// prunePeriod drops the date when no snapshot references it anymore.
func (s *State) prunePeriod(on Date) {
	for _, p := range s.portfolios {
		if p.Date == on {
			return
		}
	}
	for _, o := range s.operations {
		if o.Date == on {
			return
		}
	}
	s.periods = slices.DeleteFunc(s.periods, func(d Date) bool { return d == on })
	s.notify(EventPeriods)
}

func (s *State) addPortfolio(p PortfolioSnapshot, entries []PortfolioEntry) {
	s.portfolios = append(s.portfolios, p)
	s.entries = append(s.entries, entries...)
	s.addPeriod(p.Date)
	s.notify(EventEntries)
}

func (s *State) removePortfolio(broker string, on Date) {
	s.portfolios = slices.DeleteFunc(s.portfolios, func(p PortfolioSnapshot) bool {
		return p.Broker == broker && p.Date == on
	})
	s.entries = slices.DeleteFunc(s.entries, func(e PortfolioEntry) bool {
		return e.Broker == broker && e.Date == on
	})
	s.prunePeriod(on)
	s.notify(EventEntries)
}

func (s *State) addOperations(o OperationSnapshot, rows []OperationEntry) {
	s.operations = append(s.operations, o)
	s.operationRows = append(s.operationRows, rows...)
	s.addPeriod(o.Date)
	s.notify(EventOperations)
}

func (s *State) removeOperations(broker string, on Date) {
	s.operations = slices.DeleteFunc(s.operations, func(o OperationSnapshot) bool {
		return o.Broker == broker && o.Date == on
	})
	s.operationRows = slices.DeleteFunc(s.operationRows, func(e OperationEntry) bool {
		return e.Broker == broker && e.Date == on
	})
	s.prunePeriod(on)
	s.notify(EventOperations)
}

func (s *State) addTag(tag string) {
	if !slices.Contains(s.tags, tag) {
		s.tags = append(s.tags, tag)
		s.notify(EventTags)
	}
}

func (s *State) removeTag(tag string) {
	s.tags = slices.DeleteFunc(s.tags, func(t string) bool { return t == tag })
	s.notify(EventTags)
}

func (s *State) addGroup(name string) {
	if !slices.Contains(s.groups, name) {
		s.groups = append(s.groups, name)
		s.notify(EventGroups)
	}
}

func (s *State) removeGroup(name string) {
	s.groups = slices.DeleteFunc(s.groups, func(g string) bool { return g == name })
	// Removing a group cascades to its entries.
	s.groupEntries = slices.DeleteFunc(s.groupEntries, func(e GroupEntry) bool { return e.Group == name })
	s.notify(EventGroups)
}

func (s *State) setGroupEntry(e GroupEntry) {
	for i, existing := range s.groupEntries {
		if existing.Group == e.Group && existing.Tag == e.Tag {
			s.groupEntries[i] = e
			s.notify(EventGroups)
			return
		}
	}
	s.groupEntries = append(s.groupEntries, e)
	s.notify(EventGroups)
}

func (s *State) removeGroupEntry(group, tag string) {
	s.groupEntries = slices.DeleteFunc(s.groupEntries, func(e GroupEntry) bool {
		return e.Group == group && e.Tag == tag
	})
	s.notify(EventGroups)
}
