package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDenominatedAmount_Parse(t *testing.T) {
	tests := []struct {
		in      string
		amount  uint64
		denom   uint8
		str     string
		wantErr string
	}{
		{in: "12.345", amount: 12345, denom: 3, str: "12.345"},
		{in: "100", amount: 100, denom: 0, str: "100"},
		{in: "0.5", amount: 5, denom: 1, str: "0.5"},
		{in: "0.000001", amount: 1, denom: 6, str: "0.000001"},
		{in: "1.50", amount: 150, denom: 2, str: "1.50"},
		{in: "", wantErr: "invalid amount"},
		{in: "1.", wantErr: "invalid amount"},
		{in: ".5", wantErr: "invalid amount"},
		{in: "-1", wantErr: "unexpected character"},
		{in: "1e5", wantErr: "unexpected character"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			da, err := ParseDenominatedAmount(tc.in)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, NewAmount(tc.amount), da.Amount())
			require.Equal(t, tc.denom, da.Denom())
			require.Equal(t, tc.str, da.String())
		})
	}
}

func TestDenominatedAmount_IncreasePrecision(t *testing.T) {
	da, err := ParseDenominatedAmount("12.345")
	require.NoError(t, err)

	native, err := da.IncreasePrecision(NativeMaxDecimalPlaces)
	require.NoError(t, err)
	require.Equal(t, NewAmount(12345000), native.Amount())
	require.Equal(t, NativeMaxDecimalPlaces, native.Denom())

	tooPrecise, err := ParseDenominatedAmount("0.0000001")
	require.NoError(t, err)
	_, err = tooPrecise.IncreasePrecision(NativeMaxDecimalPlaces)
	require.ErrorIs(t, err, ErrDenomination)

	huge, err := ParseDenominatedAmount("115792089237316195423570985008687907853269984665640564039457584007913129639935")
	require.NoError(t, err)
	_, err = huge.IncreasePrecision(1)
	require.ErrorIs(t, err, ErrDenomination)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestAmount_Arithmetic(t *testing.T) {
	a := NewAmount(10)
	b := NewAmount(3)

	sum, err := a.Add(b)
	require.NoError(t, err)
	require.Equal(t, NewAmount(13), sum)

	diff, err := a.Sub(b)
	require.NoError(t, err)
	require.Equal(t, NewAmount(7), diff)

	_, err = b.Sub(a)
	require.ErrorIs(t, err, ErrUnderflow)

	require.Equal(t, 1, a.Cmp(b))
	require.Equal(t, 0, a.Cmp(NewAmount(10)))
	require.True(t, Amount{}.IsZero())
}

func TestAmount_CBOR(t *testing.T) {
	a := NewAmount(1_000_000)
	b, err := Cbor.Marshal(a)
	require.NoError(t, err)
	var back Amount
	require.NoError(t, Cbor.Unmarshal(b, &back))
	require.Equal(t, a, back)

	da, err := ParseDenominatedAmount("1.5")
	require.NoError(t, err)
	b, err = Cbor.Marshal(da)
	require.NoError(t, err)
	var daBack DenominatedAmount
	require.NoError(t, Cbor.Unmarshal(b, &daBack))
	require.Equal(t, da, daBack)
}

func TestDec(t *testing.T) {
	tests := []struct {
		in      string
		str     string
		wantErr string
	}{
		{in: "0.05", str: "0.05"},
		{in: "1", str: "1"},
		{in: "10.500", str: "10.5"},
		{in: "0", str: "0"},
		{in: "0.0000000000001", wantErr: "more than 12 decimal places"},
		{in: "abc", wantErr: "invalid amount"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			d, err := ParseDec(tc.in)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.str, d.String())
		})
	}

	require.Equal(t, 1, MustParseDec("1.01").Cmp(OneDec()))
	require.Equal(t, 0, MustParseDec("1.0").Cmp(OneDec()))
}

func TestDec_MulFloor(t *testing.T) {
	tests := []struct {
		dec    string
		amount uint64
		want   uint64
	}{
		{dec: "1", amount: 100, want: 100},
		{dec: "0.1", amount: 15, want: 1},
		{dec: "0.1", amount: 9, want: 0},
		{dec: "0.000001", amount: 2_000_000, want: 2},
		{dec: "0", amount: 1000, want: 0},
	}
	for _, tc := range tests {
		r, err := MustParseDec(tc.dec).MulFloor(NewAmount(tc.amount))
		require.NoError(t, err)
		require.Equal(t, NewAmount(tc.want), r, "%s * %d", tc.dec, tc.amount)
	}
}

func TestSocketAddr(t *testing.T) {
	sa, err := ParseSocketAddr("127.0.0.1:26656")
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:26656", sa.String())

	b, err := Cbor.Marshal(sa)
	require.NoError(t, err)
	var back SocketAddr
	require.NoError(t, Cbor.Unmarshal(b, &back))
	require.Equal(t, sa, back)

	_, err = ParseSocketAddr("localhost")
	require.ErrorContains(t, err, "invalid net address")
}
