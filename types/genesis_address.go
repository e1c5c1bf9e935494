package types

import (
	"fmt"
	"strings"
)

type genesisAddressKind uint8

const (
	kindNone genesisAddressKind = iota
	kindEstablished
	kindPublicKey
)

/*
GenesisAddress is the source address of a genesis bond. It is either an
address of an established account declared in the same genesis batch or
an implicit account identified by its public key.

Zero value is not a valid address. The type is comparable and can be used
as a map key.
*/
type GenesisAddress struct {
	kind        genesisAddressKind
	established EstablishedAddress
	pk          PublicKey
}

type genesisAddressCBOR struct {
	_    struct{} `cbor:",toarray"`
	Kind uint8
	Data []byte
}

func EstablishedGenesisAddress(addr EstablishedAddress) GenesisAddress {
	return GenesisAddress{kind: kindEstablished, established: addr}
}

func PublicKeyGenesisAddress(pk PublicKey) GenesisAddress {
	return GenesisAddress{kind: kindPublicKey, pk: pk}
}

/*
ParseGenesisAddress parses bech32 encoded established address or hex encoded
public key.
*/
func ParseGenesisAddress(s string) (GenesisAddress, error) {
	if strings.HasPrefix(s, EstablishedAddressHRP+"1") {
		addr, err := ParseEstablishedAddress(s)
		if err != nil {
			return GenesisAddress{}, err
		}
		return EstablishedGenesisAddress(addr), nil
	}
	pk, err := ParsePublicKey(s)
	if err != nil {
		return GenesisAddress{}, fmt.Errorf("%w %q: neither established address nor public key", ErrInvalidAddress, s)
	}
	return PublicKeyGenesisAddress(pk), nil
}

// EstablishedAddress returns the address and true when "a" is established address.
func (a GenesisAddress) EstablishedAddress() (EstablishedAddress, bool) {
	return a.established, a.kind == kindEstablished
}

// PublicKey returns the key and true when "a" is implicit (public key) address.
func (a GenesisAddress) PublicKey() (PublicKey, bool) {
	return a.pk, a.kind == kindPublicKey
}

func (a GenesisAddress) IsZero() bool {
	return a.kind == kindNone
}

func (a GenesisAddress) String() string {
	switch a.kind {
	case kindEstablished:
		return a.established.String()
	case kindPublicKey:
		return a.pk.String()
	default:
		return "<nil>"
	}
}

func (a GenesisAddress) MarshalText() ([]byte, error) {
	if a.kind == kindNone {
		return nil, fmt.Errorf("%w: empty genesis address", ErrInvalidAddress)
	}
	return []byte(a.String()), nil
}

func (a *GenesisAddress) UnmarshalText(text []byte) error {
	addr, err := ParseGenesisAddress(string(text))
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

func (a GenesisAddress) MarshalCBOR() ([]byte, error) {
	v := genesisAddressCBOR{Kind: uint8(a.kind)}
	switch a.kind {
	case kindEstablished:
		v.Data = a.established[:]
	case kindPublicKey:
		v.Data = a.pk[:]
	default:
		return nil, fmt.Errorf("%w: empty genesis address", ErrInvalidAddress)
	}
	return Cbor.Marshal(v)
}

func (a *GenesisAddress) UnmarshalCBOR(data []byte) error {
	var v genesisAddressCBOR
	if err := Cbor.Unmarshal(data, &v); err != nil {
		return err
	}
	switch genesisAddressKind(v.Kind) {
	case kindEstablished:
		if len(v.Data) != AddressLength {
			return fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidAddress, AddressLength, len(v.Data))
		}
		var addr EstablishedAddress
		copy(addr[:], v.Data)
		*a = EstablishedGenesisAddress(addr)
	case kindPublicKey:
		pk, err := NewPublicKey(v.Data)
		if err != nil {
			return err
		}
		*a = PublicKeyGenesisAddress(pk)
	default:
		return fmt.Errorf("%w: unknown genesis address kind %d", ErrInvalidAddress, v.Kind)
	}
	return nil
}
