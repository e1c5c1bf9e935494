package types

import (
	"bytes"
	"fmt"
)

const (
	// PublicKeyLength is the length of the compressed secp256k1 public key.
	PublicKeyLength = 33
	// SignatureLength is the length of the recoverable secp256k1 signature (R || S || V).
	SignatureLength = 65
)

type (
	// PublicKey is compressed secp256k1 public key.
	PublicKey [PublicKeyLength]byte

	Signature []byte
)

func NewPublicKey(b []byte) (PublicKey, error) {
	var pk PublicKey
	if len(b) != PublicKeyLength {
		return pk, fmt.Errorf("invalid public key length: expected %d bytes, got %d", PublicKeyLength, len(b))
	}
	copy(pk[:], b)
	return pk, nil
}

func ParsePublicKey(s string) (PublicKey, error) {
	var pk PublicKey
	if err := pk.UnmarshalText([]byte(s)); err != nil {
		return pk, err
	}
	return pk, nil
}

func (pk PublicKey) Bytes() []byte {
	return pk[:]
}

func (pk PublicKey) Compare(other PublicKey) int {
	return bytes.Compare(pk[:], other[:])
}

func (pk PublicKey) String() string {
	return string(toHex(pk[:]))
}

func (pk PublicKey) MarshalText() ([]byte, error) {
	return toHex(pk[:]), nil
}

func (pk *PublicKey) UnmarshalText(text []byte) error {
	if err := fixedFromHex(pk[:], text); err != nil {
		return fmt.Errorf("invalid public key %q: %w", text, err)
	}
	return nil
}

func (s Signature) MarshalText() ([]byte, error) {
	return toHex(s), nil
}

func (s *Signature) UnmarshalText(text []byte) error {
	b, err := fromHex(text)
	if err != nil {
		return fmt.Errorf("invalid signature: %w", err)
	}
	*s = b
	return nil
}

func (s Signature) String() string {
	return string(toHex(s))
}
