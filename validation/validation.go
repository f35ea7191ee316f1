package validation

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Add records msg for field unless the field already has a violation.
func (v Violations) Add(field, msg string) {
	if _, ok := v[field]; !ok {
		v[field] = msg
	}
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "required")
	}
}

func MaxLen(field, value string, maxLen int, v Violations) {
	if utf8.RuneCountInString(value) > maxLen {
		v.Add(field, "too_long")
	}
}

func Email(field, value string, v Violations) {
	if value == "" {
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		v.Add(field, "invalid_email")
	}
}

func MinInt(field string, val, minVal int64, v Violations) {
	if val < minVal {
		v.Add(field, "out_of_range")
	}
}

// MaxPrice is the largest amount a decimal(6,2) column holds.
var MaxPrice = decimal.RequireFromString("9999.99")

// Price checks 0 <= val <= MaxPrice with at most two decimal places.
func Price(field string, val decimal.Decimal, v Violations) {
	if val.IsNegative() {
		v.Add(field, "must_not_be_negative")
		return
	}
	if val.GreaterThan(MaxPrice) {
		v.Add(field, "out_of_range")
		return
	}
	if !val.Equal(val.Truncate(2)) {
		v.Add(field, "too_many_decimals")
	}
}
