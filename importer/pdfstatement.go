package importer

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

// decodeOperationsPDF extracts cash-flow rows from a text-based broker
// statement PDF. Expected line shape, one operation per line:
//
//	02/01/2023  In   RUB  150 000,00
//
// The statement date is the latest operation date found. Scanned PDFs
// carry no text layer and fail as a whole; lines that do not match the
// row shape (headers, totals, footers) are skipped.
var statementLineRe = regexp.MustCompile(
	`^(\d{2}/\d{2}/\d{4})\s+(\S+)\s+([A-Z]{3})\s+(-?[\d\s ]+(?:[.,]\d+)?)\s*$`)

func decodeOperationsPDF(data []byte) (result OperationsResult) {
	// the pdf library panics on some malformed documents
	defer func() {
		if r := recover(); r != nil {
			result = OperationsResult{Errors: []string{fmt.Sprintf("cannot parse pdf: %v", r)}}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("cannot open pdf: %v", err))
		return result
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("cannot extract pdf text: %v", err))
		return result
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("cannot read pdf text: %v", err))
		return result
	}

	var latest time.Time
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		matches := statementLineRe.FindStringSubmatch(line)
		if matches == nil {
			continue
		}
		date, err := time.Parse("02/01/2006", matches[1])
		if err != nil {
			continue
		}
		volume, err := parseDecimal(matches[4])
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("line %q: invalid volume", line))
			continue
		}
		if date.After(latest) {
			latest = date
		}
		result.Entries = append(result.Entries, OperationEntry{
			Kind:     matches[2],
			Currency: matches[3],
			Volume:   volume,
		})
	}
	if latest.IsZero() {
		result.Errors = append(result.Errors, "no operation rows found in statement")
		return result
	}
	result.Date = latest
	result.Success = true
	return result
}
