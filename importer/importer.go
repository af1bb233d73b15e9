// Package importer decodes broker-specific report files into normalized
// entries. Decoders are registered per format id; callers select a
// format by the id configured on the broker.
package importer

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StateEntry is one normalized holding row of a state report.
type StateEntry struct {
	ISIN         string          `json:"isin"`
	Name         string          `json:"name"`
	Currency     string          `json:"currency"`
	Count        decimal.Decimal `json:"count"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
	PricePerUnit decimal.Decimal `json:"pricePerUnit"`
}

// OperationEntry is one normalized cash-flow row of an operations report.
type OperationEntry struct {
	Kind     string          `json:"kind"`
	Currency string          `json:"currency"`
	Volume   decimal.Decimal `json:"volume"`
}

// KindIgnored marks rows that carry no cash-flow information; they are
// dropped at ingestion.
const KindIgnored = "Ignored"

// StateResult is the outcome of decoding one state report.
type StateResult struct {
	Success bool         `json:"success"`
	Errors  []string     `json:"errors,omitempty"`
	Date    time.Time    `json:"date"`
	Entries []StateEntry `json:"entries,omitempty"`
}

// OperationsResult is the outcome of decoding one operations report.
type OperationsResult struct {
	Success bool             `json:"success"`
	Errors  []string         `json:"errors,omitempty"`
	Date    time.Time        `json:"date"`
	Entries []OperationEntry `json:"entries,omitempty"`
}

type stateDecoder func(data []byte) StateResult
type operationsDecoder func(data []byte) OperationsResult

var stateFormats = map[string]stateDecoder{
	"broker-xml": decodeStateXML,
}

var operationsFormats = map[string]operationsDecoder{
	"broker-ops-xml": decodeOperationsXML,
	"statement-pdf":  decodeOperationsPDF,
}

// StateFormats lists the known state report format ids.
func StateFormats() []string { return formatIDs(stateFormats) }

// OperationsFormats lists the known operations report format ids.
func OperationsFormats() []string { return formatIDs(operationsFormats) }

func formatIDs[T any](m map[string]T) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LoadStateByFormat decodes a state report with the decoder registered
// for the format id. An unknown format is a failed result, not a panic.
func LoadStateByFormat(data []byte, format string) StateResult {
	decode, ok := stateFormats[format]
	if !ok {
		return StateResult{Errors: []string{fmt.Sprintf("unknown state format %q", format)}}
	}
	return decode(data)
}

// LoadOperationsByFormat decodes an operations report with the decoder
// registered for the format id.
func LoadOperationsByFormat(data []byte, format string) OperationsResult {
	decode, ok := operationsFormats[format]
	if !ok {
		return OperationsResult{Errors: []string{fmt.Sprintf("unknown operations format %q", format)}}
	}
	return decode(data)
}

// parseDecimal parses a decimal tolerating locale separators: comma as
// decimal separator and spaces or non-breaking spaces as thousand
// separators.
func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty number")
	}
	return decimal.NewFromString(s)
}
