package analyzer

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// AssetPriceMeasurement is the portfolio worth at one reporting date
// next to the funds moved in and out up to that date, both in the home
// currency.
type AssetPriceMeasurement struct {
	Date            Date
	TotalPrice      decimal.Decimal
	CumulativeFunds decimal.Decimal
}

// AssetPriceMeasurements computes one measurement per reporting date,
// in chronological order. Entries are valued at the rate of their own
// date, and the funds series accumulates every In and Out operation
// dated at or before the measurement date.
func (m *Manager) AssetPriceMeasurements() ([]AssetPriceMeasurement, error) {
	if err := m.assertManifest(); err != nil {
		return nil, err
	}
	totals := make(map[Date]decimal.Decimal)
	for _, e := range m.State.entries {
		converted, err := m.ConvertedPrice(e.Currency, e.TotalPrice, e.Date)
		if err != nil {
			return nil, err
		}
		totals[e.Date] = totals[e.Date].Add(converted)
	}

	dates := make([]Date, 0, len(totals))
	for d := range totals {
		dates = append(dates, d)
	}
	slices.SortFunc(dates, func(a, b Date) int {
		if a.Before(b) {
			return -1
		}
		if b.Before(a) {
			return 1
		}
		return 0
	})

	measurements := make([]AssetPriceMeasurement, 0, len(dates))
	for _, d := range dates {
		funds := decimal.Zero
		for _, o := range m.State.operationRows {
			if o.Date.After(d) {
				continue
			}
			switch o.Kind {
			case OperationIn, OperationOut:
			default:
				continue
			}
			converted, err := m.ConvertedPrice(o.Currency, o.Volume, o.Date)
			if err != nil {
				return nil, err
			}
			funds = funds.Add(converted)
		}
		measurements = append(measurements, AssetPriceMeasurement{
			Date:            d,
			TotalPrice:      totals[d],
			CumulativeFunds: funds,
		})
	}
	return measurements, nil
}

// LatestPortfolio is the aggregate of each broker's most recent
// snapshot, with its total worth in the home currency.
type LatestPortfolio struct {
	Entries []PortfolioEntry
	Total   decimal.Decimal
}

// LatestPortfolio collects, per broker, the entries of its latest
// reporting date. Brokers report on different dates, so the aggregate
// mixes dates on purpose; each entry is valued at the rate of its own
// date.
func (m *Manager) LatestPortfolio() (LatestPortfolio, error) {
	if err := m.assertManifest(); err != nil {
		return LatestPortfolio{}, err
	}
	latest := make(map[string]Date)
	for _, p := range m.State.portfolios {
		if d, ok := latest[p.Broker]; !ok || d.Before(p.Date) {
			latest[p.Broker] = p.Date
		}
	}
	var result LatestPortfolio
	for _, e := range m.State.entries {
		if latest[e.Broker] != e.Date {
			continue
		}
		converted, err := m.ConvertedPrice(e.Currency, e.TotalPrice, e.Date)
		if err != nil {
			return LatestPortfolio{}, err
		}
		result.Entries = append(result.Entries, e)
		result.Total = result.Total.Add(converted)
	}
	return result, nil
}

// GroupAllocationLine compares one tag's actual share of the latest
// portfolio against its target share, both in percent.
type GroupAllocationLine struct {
	Tag       string
	Target    decimal.Decimal
	Value     decimal.Decimal
	Actual    decimal.Decimal
	Deviation decimal.Decimal
	Assets    int
}

// GroupAllocation values every tag of a group against the latest
// portfolio. Actual shares are rounded to two decimal places and the
// deviation is actual minus target, so a positive deviation reads as
// overweight.
func (m *Manager) GroupAllocation(group string) ([]GroupAllocationLine, error) {
	if err := m.assertManifest(); err != nil {
		return nil, err
	}
	if !slices.Contains(m.State.groups, group) {
		return nil, fmt.Errorf("unknown group %q", group)
	}
	latest, err := m.LatestPortfolio()
	if err != nil {
		return nil, err
	}

	var lines []GroupAllocationLine
	for _, ge := range m.State.groupEntries {
		if ge.Group != group {
			continue
		}
		line := GroupAllocationLine{Tag: ge.Tag, Target: ge.Target}
		for _, e := range latest.Entries {
			if !slices.Contains(m.State.assetTags[e.ISIN], ge.Tag) {
				continue
			}
			converted, err := m.ConvertedPrice(e.Currency, e.TotalPrice, e.Date)
			if err != nil {
				return nil, err
			}
			line.Value = line.Value.Add(converted)
			line.Assets++
		}
		if latest.Total.IsPositive() {
			line.Actual = line.Value.Div(latest.Total).Mul(decimal.NewFromInt(100)).Round(2)
		}
		line.Deviation = line.Actual.Sub(line.Target)
		lines = append(lines, line)
	}
	slices.SortFunc(lines, func(a, b GroupAllocationLine) int {
		return strings.Compare(a.Tag, b.Tag)
	})
	return lines, nil
}
