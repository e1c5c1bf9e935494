package types

import (
	"encoding/hex"
	"fmt"
)

// Bytes is a byte slice which is marshaled to text as 0x prefixed hex string.
type Bytes []byte

func (b Bytes) MarshalText() ([]byte, error) {
	return toHex(b), nil
}

func (b *Bytes) UnmarshalText(src []byte) error {
	res, err := fromHex(src)
	if err == nil {
		*b = res
	}
	return err
}

func (b Bytes) String() string {
	return string(toHex(b))
}

func toHex(src []byte) []byte {
	if len(src) == 0 {
		return nil
	}
	dst := make([]byte, len(src)*2+2)
	copy(dst, `0x`)
	hex.Encode(dst[2:], src)
	return dst
}

func fromHex(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return nil, nil
	}
	if len(src) >= 2 && src[0] == '0' && (src[1] == 'x' || src[1] == 'X') {
		src = src[2:]
	}
	dst := make([]byte, hex.DecodedLen(len(src)))
	if _, err := hex.Decode(dst, src); err != nil {
		return nil, fmt.Errorf("decoding hex string: %w", err)
	}
	return dst, nil
}

// fixedFromHex decodes hex string into dst which must be exactly len(dst) bytes.
func fixedFromHex(dst []byte, src []byte) error {
	b, err := fromHex(src)
	if err != nil {
		return err
	}
	if len(b) != len(dst) {
		return fmt.Errorf("expected %d bytes, got %d", len(dst), len(b))
	}
	copy(dst, b)
	return nil
}
