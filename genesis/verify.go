package genesis

import (
	"github.com/alphabill-org/pregenesis/crypto"
	"github.com/alphabill-org/pregenesis/types"
)

/*
VerifyThreshold checks that at least "threshold" distinct keys have a valid
signature over "data" in "sigs". Every key is counted at most once no matter
how many valid signatures it has or how many times it is listed in "keys".
*/
func VerifyThreshold(data []byte, sigs []types.Signature, keys []types.PublicKey, threshold uint8) error {
	if len(keys) > MaxPublicKeys {
		return ErrTooManyKeys
	}
	var valid uint8
	seen := make(map[types.PublicKey]struct{}, len(keys))
	for _, pk := range keys {
		if _, ok := seen[pk]; ok {
			continue
		}
		seen[pk] = struct{}{}
		if !anySignatureValid(data, pk, sigs) {
			continue
		}
		if valid++; valid >= threshold {
			break
		}
	}
	if valid < threshold {
		return &ThresholdNotMetError{Required: threshold, Actual: valid}
	}
	return nil
}

// VerifySignatures checks the bond's signatures against the source account's keys.
func (tx *SignedBondTx) VerifySignatures(keys []types.PublicKey, threshold uint8) error {
	data, err := tx.BondTx.Bytes()
	if err != nil {
		return err
	}
	return VerifyThreshold(data, tx.Signatures, keys, threshold)
}

func anySignatureValid(data []byte, pk types.PublicKey, sigs []types.Signature) bool {
	verifier, err := crypto.NewVerifierSecp256k1(pk.Bytes())
	if err != nil {
		return false
	}
	for _, sig := range sigs {
		if verifier.VerifyBytes(sig, data) == nil {
			return true
		}
	}
	return false
}

func verifySignature(data []byte, pk types.PublicKey, sig types.Signature) error {
	verifier, err := crypto.NewVerifierSecp256k1(pk.Bytes())
	if err != nil {
		return err
	}
	return verifier.VerifyBytes(sig, data)
}
