package network

import (
	"fmt"
	"net"

	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"

	"github.com/alphabill-org/pregenesis/types"
)

// NodeID returns the libp2p identity of the validator node with given node key.
func NodeID(pk types.PublicKey) (peer.ID, error) {
	pub, err := crypto.UnmarshalSecp256k1PublicKey(pk.Bytes())
	if err != nil {
		return "", fmt.Errorf("invalid node key: %w", err)
	}
	id, err := peer.IDFromPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("deriving node ID: %w", err)
	}
	return id, nil
}

// Multiaddr converts socket address to the libp2p multiaddress format (ie "/ip4/127.0.0.1/tcp/26656").
func Multiaddr(addr types.SocketAddr) (ma.Multiaddr, error) {
	if !addr.IsValid() {
		return nil, fmt.Errorf("invalid net address %q", addr)
	}
	m, err := manet.FromNetAddr(net.TCPAddrFromAddrPort(addr.AddrPort))
	if err != nil {
		return nil, fmt.Errorf("converting %s to multiaddress: %w", addr, err)
	}
	return m, nil
}

/*
AddrInfo returns the address info peers use to dial the validator node: the
node ID derived from the node key and the net address of the validator.
*/
func AddrInfo(nodeKey types.PublicKey, addr types.SocketAddr) (*peer.AddrInfo, error) {
	id, err := NodeID(nodeKey)
	if err != nil {
		return nil, err
	}
	m, err := Multiaddr(addr)
	if err != nil {
		return nil, err
	}
	return &peer.AddrInfo{ID: id, Addrs: []ma.Multiaddr{m}}, nil
}

// P2PAddr returns the address of the node with the node ID component (ie "/ip4/127.0.0.1/tcp/26656/p2p/16Uiu2...").
func P2PAddr(nodeKey types.PublicKey, addr types.SocketAddr) (ma.Multiaddr, error) {
	info, err := AddrInfo(nodeKey, addr)
	if err != nil {
		return nil, err
	}
	addrs, err := peer.AddrInfoToP2pAddrs(info)
	if err != nil {
		return nil, err
	}
	return addrs[0], nil
}
