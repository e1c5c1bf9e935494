package types

import (
	"fmt"

	"github.com/holiman/uint256"
)

// DecPrecision is the number of fractional digits of Dec.
const DecPrecision uint8 = 12

var decScale = pow10(DecPrecision)

// Dec is a non-negative fixed point decimal number with DecPrecision fractional digits.
type Dec struct {
	v uint256.Int
}

func ParseDec(s string) (Dec, error) {
	var d Dec
	if err := d.UnmarshalText([]byte(s)); err != nil {
		return d, err
	}
	return d, nil
}

// MustParseDec is like ParseDec but panics on invalid input. For constants and tests.
func MustParseDec(s string) Dec {
	d, err := ParseDec(s)
	if err != nil {
		panic(err)
	}
	return d
}

// OneDec returns Dec with value 1.
func OneDec() Dec {
	var d Dec
	d.v.Set(decScale)
	return d
}

func (d Dec) Cmp(other Dec) int {
	return d.v.Cmp(&other.v)
}

func (d Dec) IsZero() bool {
	return d.v.IsZero()
}

/*
MulFloor returns floor(a * d) as an integer amount.
*/
func (d Dec) MulFloor(a Amount) (Amount, error) {
	var r Amount
	if _, overflow := r.v.MulOverflow(&a.v, &d.v); overflow {
		return Amount{}, fmt.Errorf("%w: %s * %s", ErrOverflow, a, d)
	}
	r.v.Div(&r.v, decScale)
	return r, nil
}

func (d Dec) String() string {
	s := formatDecimal(&d.v, DecPrecision)
	// trim insignificant zeros of the fraction
	i := len(s)
	for s[i-1] == '0' {
		i--
	}
	if s[i-1] == '.' {
		i--
	}
	return s[:i]
}

func (d Dec) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Dec) UnmarshalText(text []byte) error {
	m, decimals, err := parseDecimal(string(text))
	if err != nil {
		return err
	}
	if decimals > DecPrecision {
		return fmt.Errorf("%w %q: more than %d decimal places", ErrInvalidAmount, text, DecPrecision)
	}
	if _, overflow := d.v.MulOverflow(m, pow10(DecPrecision-decimals)); overflow {
		return fmt.Errorf("%w %q: %w", ErrInvalidAmount, text, ErrOverflow)
	}
	return nil
}

func (d Dec) MarshalCBOR() ([]byte, error) {
	return Cbor.Marshal(d.v.Bytes())
}

func (d *Dec) UnmarshalCBOR(data []byte) error {
	var b []byte
	if err := Cbor.Unmarshal(data, &b); err != nil {
		return err
	}
	if len(b) > 32 {
		return fmt.Errorf("%w: decimal is %d bytes", ErrOverflow, len(b))
	}
	d.v.SetBytes(b)
	return nil
}
