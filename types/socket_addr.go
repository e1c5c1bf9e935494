package types

import (
	"fmt"
	"net/netip"
)

// SocketAddr is IP address and port of a validator node.
type SocketAddr struct {
	netip.AddrPort
}

func ParseSocketAddr(s string) (SocketAddr, error) {
	ap, err := netip.ParseAddrPort(s)
	if err != nil {
		return SocketAddr{}, fmt.Errorf("invalid net address %q: %w", s, err)
	}
	return SocketAddr{AddrPort: ap}, nil
}

func (sa SocketAddr) MarshalCBOR() ([]byte, error) {
	return Cbor.Marshal(sa.String())
}

func (sa *SocketAddr) UnmarshalCBOR(data []byte) error {
	var s string
	if err := Cbor.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseSocketAddr(s)
	if err != nil {
		return err
	}
	*sa = v
	return nil
}
