package types

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// NativeMaxDecimalPlaces is the precision of the native token amounts.
const NativeMaxDecimalPlaces uint8 = 6

var (
	ErrOverflow      = errors.New("arithmetic overflow")
	ErrUnderflow     = errors.New("arithmetic underflow")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrDenomination  = errors.New("invalid denomination")
)

// Amount is a non-negative integer amount of token's smallest units.
type Amount struct {
	v uint256.Int
}

func NewAmount(v uint64) Amount {
	var a Amount
	a.v.SetUint64(v)
	return a
}

func ParseAmount(s string) (Amount, error) {
	var a Amount
	if err := a.UnmarshalText([]byte(s)); err != nil {
		return a, err
	}
	return a, nil
}

func (a Amount) Add(b Amount) (Amount, error) {
	var r Amount
	if _, overflow := r.v.AddOverflow(&a.v, &b.v); overflow {
		return Amount{}, fmt.Errorf("%w: %s + %s", ErrOverflow, a, b)
	}
	return r, nil
}

func (a Amount) Sub(b Amount) (Amount, error) {
	var r Amount
	if _, underflow := r.v.SubOverflow(&a.v, &b.v); underflow {
		return Amount{}, fmt.Errorf("%w: %s - %s", ErrUnderflow, a, b)
	}
	return r, nil
}

func (a Amount) Cmp(b Amount) int {
	return a.v.Cmp(&b.v)
}

func (a Amount) IsZero() bool {
	return a.v.IsZero()
}

// Uint256 returns copy of the underlying integer.
func (a Amount) Uint256() *uint256.Int {
	return new(uint256.Int).Set(&a.v)
}

func (a Amount) String() string {
	return a.v.ToBig().String()
}

func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Amount) UnmarshalText(text []byte) error {
	m, d, err := parseDecimal(string(text))
	if err != nil {
		return err
	}
	if d != 0 {
		return fmt.Errorf("%w %q: integer expected", ErrInvalidAmount, text)
	}
	a.v = *m
	return nil
}

func (a Amount) MarshalCBOR() ([]byte, error) {
	return Cbor.Marshal(a.v.Bytes())
}

func (a *Amount) UnmarshalCBOR(data []byte) error {
	var b []byte
	if err := Cbor.Unmarshal(data, &b); err != nil {
		return err
	}
	if len(b) > 32 {
		return fmt.Errorf("%w: amount is %d bytes", ErrOverflow, len(b))
	}
	a.v.SetBytes(b)
	return nil
}

/*
DenominatedAmount is an integer amount together with the number of decimal
places it is denominated in, ie "12.345" is stored as (12345, 3).
*/
type DenominatedAmount struct {
	amount uint256.Int
	denom  uint8
}

type denominatedAmountCBOR struct {
	_      struct{} `cbor:",toarray"`
	Amount []byte
	Denom  uint8
}

func NewDenominatedAmount(amount Amount, denom uint8) DenominatedAmount {
	return DenominatedAmount{amount: amount.v, denom: denom}
}

func ParseDenominatedAmount(s string) (DenominatedAmount, error) {
	var da DenominatedAmount
	if err := da.UnmarshalText([]byte(s)); err != nil {
		return da, err
	}
	return da, nil
}

// Amount returns the integer amount without denomination.
func (da DenominatedAmount) Amount() Amount {
	return Amount{v: da.amount}
}

func (da DenominatedAmount) Denom() uint8 {
	return da.denom
}

func (da DenominatedAmount) IsZero() bool {
	return da.amount.IsZero()
}

/*
IncreasePrecision converts the amount to be denominated in "denom" decimal
places. Fails when the amount already has more decimal places than requested
or when the conversion overflows.
*/
func (da DenominatedAmount) IncreasePrecision(denom uint8) (DenominatedAmount, error) {
	if denom < da.denom {
		return DenominatedAmount{}, fmt.Errorf("%w: amount %s has more than %d decimal places", ErrDenomination, da, denom)
	}
	var r DenominatedAmount
	if _, overflow := r.amount.MulOverflow(&da.amount, pow10(denom-da.denom)); overflow {
		return DenominatedAmount{}, fmt.Errorf("%w: %s with %d decimal places: %w", ErrDenomination, da, denom, ErrOverflow)
	}
	r.denom = denom
	return r, nil
}

func (da DenominatedAmount) String() string {
	return formatDecimal(&da.amount, da.denom)
}

func (da DenominatedAmount) MarshalText() ([]byte, error) {
	return []byte(da.String()), nil
}

func (da *DenominatedAmount) UnmarshalText(text []byte) error {
	m, d, err := parseDecimal(string(text))
	if err != nil {
		return err
	}
	da.amount = *m
	da.denom = d
	return nil
}

func (da DenominatedAmount) MarshalCBOR() ([]byte, error) {
	return Cbor.Marshal(denominatedAmountCBOR{Amount: da.amount.Bytes(), Denom: da.denom})
}

func (da *DenominatedAmount) UnmarshalCBOR(data []byte) error {
	var v denominatedAmountCBOR
	if err := Cbor.Unmarshal(data, &v); err != nil {
		return err
	}
	if len(v.Amount) > 32 {
		return fmt.Errorf("%w: amount is %d bytes", ErrOverflow, len(v.Amount))
	}
	da.amount.SetBytes(v.Amount)
	da.denom = v.Denom
	return nil
}

func pow10(n uint8) *uint256.Int {
	return new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(n)))
}

/*
parseDecimal parses non-negative decimal number "s" and returns it as integer
mantissa together with the number of fractional digits.
*/
func parseDecimal(s string) (*uint256.Int, uint8, error) {
	s = strings.TrimSpace(s)
	intPart, fracPart, hasDot := strings.Cut(s, ".")
	if intPart == "" || (hasDot && fracPart == "") {
		return nil, 0, fmt.Errorf("%w %q", ErrInvalidAmount, s)
	}
	digits := intPart + fracPart
	for _, c := range digits {
		if c < '0' || c > '9' {
			return nil, 0, fmt.Errorf("%w %q: unexpected character %q", ErrInvalidAmount, s, c)
		}
	}
	if len(fracPart) > 255 {
		return nil, 0, fmt.Errorf("%w %q: too many decimal places", ErrInvalidAmount, s)
	}
	b, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, 0, fmt.Errorf("%w %q", ErrInvalidAmount, s)
	}
	m, overflow := uint256.FromBig(b)
	if overflow {
		return nil, 0, fmt.Errorf("%w %q: %w", ErrInvalidAmount, s, ErrOverflow)
	}
	return m, uint8(len(fracPart)), nil
}

func formatDecimal(m *uint256.Int, decimals uint8) string {
	s := m.ToBig().String()
	if decimals == 0 {
		return s
	}
	if n := int(decimals) + 1 - len(s); n > 0 {
		s = strings.Repeat("0", n) + s
	}
	return s[:len(s)-int(decimals)] + "." + s[len(s)-int(decimals):]
}
