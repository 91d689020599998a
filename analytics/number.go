package analytics

import (
	"bytes"

	"github.com/shopspring/decimal"
)

// =============================================================================
// NUMBER - A decimal that may be undefined
// =============================================================================

// Number is either a defined decimal or Undefined ("not computable from the
// available data"). Undefined is distinct from zero and must never be summed
// as zero. The zero value is Undefined.
type Number struct {
	value   decimal.Decimal
	defined bool
}

// Undefined is the "insufficient data" sentinel.
var Undefined = Number{}

func Defined(d decimal.Decimal) Number {
	return Number{value: d, defined: true}
}

func (n Number) IsDefined() bool { return n.defined }

// Decimal returns the value and whether it is defined.
func (n Number) Decimal() (decimal.Decimal, bool) {
	return n.value, n.defined
}

// Equal reports whether both are undefined, or both defined with equal values.
func (n Number) Equal(other Number) bool {
	if n.defined != other.defined {
		return false
	}
	return !n.defined || n.value.Equal(other.value)
}

func (n Number) String() string {
	if !n.defined {
		return "undefined"
	}
	return n.value.String()
}

// StringFixed rounds to places decimals; Undefined renders as "—".
func (n Number) StringFixed(places int32) string {
	if !n.defined {
		return "—"
	}
	return n.value.StringFixed(places)
}

// MarshalJSON encodes Undefined as null.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.defined {
		return []byte("null"), nil
	}
	return n.value.MarshalJSON()
}

func (n *Number) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*n = Undefined
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	*n = Defined(d)
	return nil
}

// divide returns num / den, Undefined when den is not positive.
func divide(num, den decimal.Decimal) Number {
	if !den.IsPositive() {
		return Undefined
	}
	return Defined(num.Div(den))
}

// average returns the mean of values, Undefined for an empty slice.
func average(values []decimal.Decimal) Number {
	if len(values) == 0 {
		return Undefined
	}
	return Defined(decimal.Sum(decimal.Zero, values...).Div(decimal.NewFromInt(int64(len(values)))))
}
