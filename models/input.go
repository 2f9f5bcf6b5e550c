package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DecimalInput holds an amount exactly as the client sent it, either as a JSON
// number or a JSON string, so that parsing errors surface as field
// validation failures instead of body decode failures.
type DecimalInput string

// UnmarshalJSON implements json.Unmarshaler.
func (d *DecimalInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = DecimalInput(s)
		return nil
	}
	*d = DecimalInput(data)
	return nil
}

// Amount limits shared by transactions, events and budget lines.
const (
	MaxAmountPlaces = 4
	// maxDecimalInputLen bounds the text handed to the parser.
	maxDecimalInputLen = 32
)

// MaxAmount is the largest accepted amount.
var MaxAmount = decimal.New(1, 12)

// Decimal parses the input as a plain decimal. Empty input, exponent notation
// and overly long input are errors.
func (d DecimalInput) Decimal() (decimal.Decimal, error) {
	s := strings.TrimSpace(string(d))
	if s == "" {
		return decimal.Zero, errors.New("missing")
	}
	if len(s) > maxDecimalInputLen {
		return decimal.Zero, errors.New("too long")
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, errors.New("exponent notation is not accepted")
	}
	return decimal.NewFromString(s)
}

var dateTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// NormalizeDate accepts a calendar date (YYYY-MM-DD) or a date-time and returns
// its canonical form: YYYY-MM-DD for dates, RFC3339 for date-times. Date-times
// without an offset are taken as UTC.
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.New("missing")
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.Format("2006-01-02"), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format(time.RFC3339), nil
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(time.RFC3339), nil
		}
	}
	return "", errors.New("unrecognized date format")
}
