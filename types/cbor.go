package types

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

type cborHandler struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

/*
Cbor is the canonical CBOR codec. Everything which is hashed or signed
must be encoded with it so that all participants produce identical bytes.
*/
var Cbor = newCborHandler()

func newCborHandler() cborHandler {
	enc, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Errorf("creating canonical CBOR encoder: %w", err))
	}
	dec, err := cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		panic(fmt.Errorf("creating CBOR decoder: %w", err))
	}
	return cborHandler{enc: enc, dec: dec}
}

func (c cborHandler) Marshal(v any) ([]byte, error) {
	return c.enc.Marshal(v)
}

func (c cborHandler) Unmarshal(data []byte, v any) error {
	return c.dec.Unmarshal(data, v)
}
