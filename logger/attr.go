package logger

import (
	"fmt"
	"log/slog"

	"github.com/libp2p/go-libp2p/core/peer"
)

// Keys of the attributes shared by packages. Use the constructor functions
// below rather than the keys directly.
const (
	NodeIDKey  = "node_id"
	ErrorKey   = "err"
	DataKey    = "data"
	SectionKey = "section"
	IndexKey   = "index"
	AddressKey = "address"
	AmountKey  = "amount"
)

// NodeID of the validator node the record is about.
func NodeID(id peer.ID) slog.Attr {
	return slog.Any(NodeIDKey, id)
}

/*
Error adds error to the log

	if err := validate(tx); err != nil {
		log.Debug("invalid transaction", logger.Error(err))
	}
*/
func Error(err error) slog.Attr {
	return slog.Any(ErrorKey, err)
}

/*
Data adds a value of arbitrary type to the record. In text formats the value
is rendered as JSON, in ECS format it is namespaced by its type name so avoid
anonymous struct types.
*/
func Data(d any) slog.Attr {
	return slog.Any(DataKey, d)
}

// Section of the genesis transactions (established_account, validator_account or bond).
func Section(name string) slog.Attr {
	return slog.String(SectionKey, name)
}

// Index of the transaction inside its section.
func Index(idx int) slog.Attr {
	return slog.Int(IndexKey, idx)
}

// Address of an account, in its text form.
func Address(addr fmt.Stringer) slog.Attr {
	return slog.String(AddressKey, addr.String())
}

func Amount(amount fmt.Stringer) slog.Attr {
	return slog.String(AmountKey, amount.String())
}
