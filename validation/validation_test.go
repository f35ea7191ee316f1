package validation_test

import (
	"strings"
	"testing"

	"github.com/diewo77/go-marketplace/validation"
	"github.com/shopspring/decimal"
)

func TestRequired(t *testing.T) {
	v := make(validation.Violations)
	validation.Required("name", "  ", v)
	validation.Required("email", "a@b.co", v)
	if v["name"] != "required" {
		t.Errorf("expected name required, got %q", v["name"])
	}
	if _, ok := v["email"]; ok {
		t.Error("email should be valid")
	}
}

func TestAddKeepsFirstViolation(t *testing.T) {
	v := make(validation.Violations)
	validation.Required("name", "", v)
	validation.MaxLen("name", "", 1, v)
	v.Add("name", "other")
	if v["name"] != "required" {
		t.Errorf("expected first violation kept, got %q", v["name"])
	}
}

func TestMaxLen(t *testing.T) {
	v := make(validation.Violations)
	validation.MaxLen("phone_number", strings.Repeat("1", 11), 10, v)
	validation.MaxLen("address", "ñandú", 5, v)
	if v["phone_number"] != "too_long" {
		t.Errorf("expected too_long, got %q", v["phone_number"])
	}
	if _, ok := v["address"]; ok {
		t.Error("multi-byte runes should count once")
	}
}

func TestEmail(t *testing.T) {
	v := make(validation.Violations)
	validation.Email("a", "guest@example.com", v)
	validation.Email("b", "not-an-email", v)
	validation.Email("c", "Guest <guest@example.com>", v)
	validation.Email("d", "", v)
	if _, ok := v["a"]; ok {
		t.Error("plain address should be valid")
	}
	if v["b"] != "invalid_email" || v["c"] != "invalid_email" {
		t.Errorf("unexpected violations %v", v)
	}
	if _, ok := v["d"]; ok {
		t.Error("empty value is left to Required")
	}
}

func TestPrice(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", ""},
		{"12.50", ""},
		{"9999.99", ""},
		{"-0.01", "must_not_be_negative"},
		{"10000", "out_of_range"},
		{"1.999", "too_many_decimals"},
	}
	for _, tt := range tests {
		v := make(validation.Violations)
		validation.Price("price", decimal.RequireFromString(tt.in), v)
		if v["price"] != tt.want {
			t.Errorf("Price(%s) = %q, want %q", tt.in, v["price"], tt.want)
		}
	}
}

func TestMinInt(t *testing.T) {
	v := make(validation.Violations)
	validation.MinInt("quantity", 0, 1, v)
	if v["quantity"] != "out_of_range" {
		t.Errorf("expected out_of_range, got %q", v["quantity"])
	}
	if v.Empty() {
		t.Error("expected violations")
	}
}
