package types

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

const (
	// AddressLength is the length of the established account address in bytes.
	AddressLength = 20
	// EstablishedAddressHRP is the human readable part of the bech32 encoded
	// established address.
	EstablishedAddressHRP = "est"
)

var ErrInvalidAddress = errors.New("invalid address")

// EstablishedAddress identifies account which has been declared by an
// established account transaction.
type EstablishedAddress [AddressLength]byte

func ParseEstablishedAddress(s string) (EstablishedAddress, error) {
	var addr EstablishedAddress
	hrp, data, err := bech32.Decode(s)
	if err != nil {
		return addr, fmt.Errorf("%w %q: %w", ErrInvalidAddress, s, err)
	}
	if hrp != EstablishedAddressHRP {
		return addr, fmt.Errorf("%w %q: expected prefix %q, got %q", ErrInvalidAddress, s, EstablishedAddressHRP, hrp)
	}
	b, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return addr, fmt.Errorf("%w %q: %w", ErrInvalidAddress, s, err)
	}
	if len(b) != AddressLength {
		return addr, fmt.Errorf("%w %q: expected %d bytes, got %d", ErrInvalidAddress, s, AddressLength, len(b))
	}
	copy(addr[:], b)
	return addr, nil
}

func (a EstablishedAddress) String() string {
	data, err := bech32.ConvertBits(a[:], 8, 5, true)
	if err != nil {
		return fmt.Sprintf("%X", a[:])
	}
	s, err := bech32.Encode(EstablishedAddressHRP, data)
	if err != nil {
		return fmt.Sprintf("%X", a[:])
	}
	return s
}

func (a EstablishedAddress) Compare(b EstablishedAddress) int {
	return bytes.Compare(a[:], b[:])
}

func (a EstablishedAddress) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *EstablishedAddress) UnmarshalText(text []byte) error {
	addr, err := ParseEstablishedAddress(string(text))
	if err != nil {
		return err
	}
	*a = addr
	return nil
}
