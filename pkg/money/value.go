package money

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Value is a number-like amount as the backend sends it: a JSON number, a
// numeric string, an empty string, null or garbage. Anything that is not a
// number reads as zero.
type Value struct {
	raw   string
	num   decimal.Decimal
	valid bool
}

// Parse builds a Value from an arbitrary Go value.
func Parse(x interface{}) Value {
	switch t := x.(type) {
	case nil:
		return Value{}
	case Value:
		return t
	case decimal.Decimal:
		return FromDecimal(t)
	case string:
		return parseString(t)
	case float64:
		return FromDecimal(decimal.NewFromFloat(t))
	case float32:
		return FromDecimal(decimal.NewFromFloat32(t))
	case int:
		return FromDecimal(decimal.NewFromInt(int64(t)))
	case int64:
		return FromDecimal(decimal.NewFromInt(t))
	case json.Number:
		return parseString(t.String())
	default:
		return Value{}
	}
}

// FromDecimal wraps an exact decimal.
func FromDecimal(d decimal.Decimal) Value {
	return Value{raw: d.String(), num: d, valid: true}
}

func parseString(s string) Value {
	trimmed := strings.TrimSpace(s)
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return Value{raw: s}
	}
	return Value{raw: s, num: d, valid: true}
}

// Decimal returns the parsed amount, zero when the input was not numeric.
func (v Value) Decimal() decimal.Decimal {
	if !v.valid {
		return decimal.Zero
	}
	return v.num
}

// Valid reports whether the raw input parsed as a number.
func (v Value) Valid() bool {
	return v.valid
}

// Raw returns the input as received.
func (v Value) Raw() string {
	return v.raw
}

func (v Value) String() string {
	return v.Decimal().String()
}

// UnmarshalJSON never fails: malformed amounts become zero.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*v = Value{}
	case data[0] == '"':
		s, err := strconv.Unquote(string(data))
		if err != nil {
			*v = Value{raw: string(data)}
			return nil
		}
		*v = parseString(s)
	default:
		*v = parseString(string(data))
	}
	return nil
}

// MarshalJSON writes the amount as a bare JSON number, or null when it never parsed.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.valid {
		return []byte("null"), nil
	}
	return []byte(v.num.String()), nil
}
