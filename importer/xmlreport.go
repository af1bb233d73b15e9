package importer

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// The normalized XML report formats. A state report:
//
//	<report date="2023-01-01">
//	  <position isin="US0378331005" name="Apple" currency="USD"
//	            count="10" total="1 234,5" price="123,45"/>
//	</report>
//
// and an operations report:
//
//	<operations date="2023-01-01">
//	  <operation kind="In" currency="RUB" volume="1000"/>
//	</operations>
//
// Numbers tolerate locale decimal separators. A malformed row is
// recorded as an error and skipped; only an unreadable document or a
// missing date fails the whole report.

const reportDateFormat = "2006-01-02"

type xmlStateReport struct {
	Date      string `xml:"date,attr"`
	Positions []struct {
		ISIN     string `xml:"isin,attr"`
		Name     string `xml:"name,attr"`
		Currency string `xml:"currency,attr"`
		Count    string `xml:"count,attr"`
		Total    string `xml:"total,attr"`
		Price    string `xml:"price,attr"`
	} `xml:"position"`
}

type xmlOperationsReport struct {
	Date       string `xml:"date,attr"`
	Operations []struct {
		Kind     string `xml:"kind,attr"`
		Currency string `xml:"currency,attr"`
		Volume   string `xml:"volume,attr"`
	} `xml:"operation"`
}

// newXMLDecoder builds a decoder tolerant of the single-byte encodings
// broker exports actually use.
func newXMLDecoder(data []byte) *xml.Decoder {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		switch strings.ToLower(charset) {
		case "windows-1251", "cp1251":
			return transform.NewReader(input, charmap.Windows1251.NewDecoder()), nil
		case "utf-8", "":
			return input, nil
		}
		return nil, fmt.Errorf("unsupported charset %q", charset)
	}
	return dec
}

func decodeStateXML(data []byte) (result StateResult) {
	var report xmlStateReport
	if err := newXMLDecoder(data).Decode(&report); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("cannot parse report: %v", err))
		return result
	}
	date, err := time.Parse(reportDateFormat, report.Date)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("invalid report date %q: %v", report.Date, err))
		return result
	}
	result.Date = date
	for i, p := range report.Positions {
		if p.ISIN == "" || p.Currency == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("position %d: missing isin or currency", i+1))
			continue
		}
		count, err := parseDecimal(p.Count)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("position %d (%s): invalid count %q", i+1, p.ISIN, p.Count))
			continue
		}
		total, err := parseDecimal(p.Total)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("position %d (%s): invalid total %q", i+1, p.ISIN, p.Total))
			continue
		}
		price, err := parseDecimal(p.Price)
		if err != nil {
			// price per unit is derivable, do not drop the row for it
			if !count.IsZero() {
				price = total.Div(count)
			}
		}
		result.Entries = append(result.Entries, StateEntry{
			ISIN:         p.ISIN,
			Name:         p.Name,
			Currency:     p.Currency,
			Count:        count,
			TotalPrice:   total,
			PricePerUnit: price,
		})
	}
	result.Success = true
	return result
}

func decodeOperationsXML(data []byte) (result OperationsResult) {
	var report xmlOperationsReport
	if err := newXMLDecoder(data).Decode(&report); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("cannot parse report: %v", err))
		return result
	}
	date, err := time.Parse(reportDateFormat, report.Date)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("invalid report date %q: %v", report.Date, err))
		return result
	}
	result.Date = date
	for i, o := range report.Operations {
		if o.Kind == "" || o.Currency == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("operation %d: missing kind or currency", i+1))
			continue
		}
		volume, err := parseDecimal(o.Volume)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("operation %d (%s): invalid volume %q", i+1, o.Kind, o.Volume))
			continue
		}
		result.Entries = append(result.Entries, OperationEntry{
			Kind:     o.Kind,
			Currency: o.Currency,
			Volume:   volume,
		})
	}
	result.Success = true
	return result
}
