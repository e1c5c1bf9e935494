package genesis

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/alphabill-org/pregenesis/crypto"
	"github.com/alphabill-org/pregenesis/types"
)

type (
	// KeyStore gives access to the secret keys held by the signer.
	KeyStore interface {
		// FindKeyByPublicKey returns signer for the public key or ErrKeyNotFound
		// when the store doesn't hold the corresponding secret key.
		FindKeyByPublicKey(pk types.PublicKey) (crypto.Signer, error)
	}

	// ValidatorKeys are the secret keys of the validator, one per key role.
	ValidatorKeys struct {
		Consensus      crypto.Signer
		Protocol       crypto.Signer
		TendermintNode crypto.Signer
		EthHot         crypto.Signer
		EthCold        crypto.Signer
	}
)

/*
SignPayload signs canonical serialization of the payload. The signature is
standalone, ie it isn't wrapped into any envelope.
*/
func SignPayload(payload any, signer crypto.Signer) (types.Signature, error) {
	data, err := types.Cbor.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}
	return signer.SignBytes(data)
}

/*
SignTxs signs all the transactions of the unsigned batch. Bonds are signed with
the keys found in "keys", validator accounts with "validatorKeys" which must
not be nil when there are validator account transactions in the batch.

Failure to find signer for a bond is fatal, in that case no transactions are
returned.
*/
func SignTxs(unsigned *UnsignedTransactions, keys KeyStore, validatorKeys *ValidatorKeys) (*Transactions, error) {
	txs := &Transactions{
		EstablishedAccount: unsigned.EstablishedAccount,
	}
	for i := range unsigned.Bond {
		signed, err := SignBondTx(&unsigned.Bond[i], keys, unsigned.EstablishedAccount)
		if err != nil {
			return nil, fmt.Errorf("signing bond %d: %w", i, err)
		}
		txs.Bond = append(txs.Bond, *signed)
	}
	if len(unsigned.ValidatorAccount) > 0 && validatorKeys == nil {
		return nil, ErrValidatorKeysNeeded
	}
	for i := range unsigned.ValidatorAccount {
		signed, err := SignValidatorAccountTx(&unsigned.ValidatorAccount[i], validatorKeys)
		if err != nil {
			return nil, fmt.Errorf("signing validator account %d: %w", i, err)
		}
		txs.ValidatorAccount = append(txs.ValidatorAccount, *signed)
	}
	return txs, nil
}

/*
SignBonds adds signatures of the keys held in "keys" to all the bonds of the
batch. Used to collect multisig signatures of already signed batch.
*/
func (txs *Transactions) SignBonds(keys KeyStore) error {
	for i := range txs.Bond {
		signers, err := LookUpSigningKeys(txs.Bond[i].Source, keys, txs.EstablishedAccount)
		if err != nil {
			return fmt.Errorf("signing bond %d: %w", i, err)
		}
		if err := txs.Bond[i].Sign(signers...); err != nil {
			return fmt.Errorf("signing bond %d: %w", i, err)
		}
	}
	return nil
}

/*
SignValidatorAccountTx authorizes the validator account with every role key,
each key signs the unsigned transaction independently.
*/
func SignValidatorAccountTx(tx *UnsignedValidatorAccountTx, keys *ValidatorKeys) (*SignedValidatorAccountTx, error) {
	if keys == nil {
		return nil, ErrValidatorKeysNeeded
	}
	sign := func(role string, pk types.PublicKey, signer crypto.Signer) (SignedPublicKey, error) {
		if signer == nil {
			return SignedPublicKey{}, fmt.Errorf("%s: %w", role, ErrValidatorKeysNeeded)
		}
		if err := matchKey(pk, signer); err != nil {
			return SignedPublicKey{}, fmt.Errorf("%s: %w", role, err)
		}
		sig, err := SignPayload(tx, signer)
		if err != nil {
			return SignedPublicKey{}, fmt.Errorf("%s: %w", role, err)
		}
		return SignedPublicKey{PK: pk, Authorization: sig}, nil
	}

	signed := &SignedValidatorAccountTx{
		Address:                 tx.Address,
		Vp:                      tx.Vp,
		CommissionRate:          tx.CommissionRate,
		MaxCommissionRateChange: tx.MaxCommissionRateChange,
		NetAddress:              tx.NetAddress,
		Metadata:                tx.Metadata,
	}
	var errs []error
	var e error
	signed.ConsensusKey, e = sign(roleConsensusKey, tx.ConsensusKey, keys.Consensus)
	errs = append(errs, e)
	signed.ProtocolKey, e = sign(roleProtocolKey, tx.ProtocolKey, keys.Protocol)
	errs = append(errs, e)
	signed.TendermintNodeKey, e = sign(roleTendermintNodeKey, tx.TendermintNodeKey, keys.TendermintNode)
	errs = append(errs, e)
	signed.EthHotKey, e = sign(roleEthHotKey, tx.EthHotKey, keys.EthHot)
	errs = append(errs, e)
	signed.EthColdKey, e = sign(roleEthColdKey, tx.EthColdKey, keys.EthCold)
	errs = append(errs, e)
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return signed, nil
}

/*
SignBondTx resolves the keys which must sign the bond and signs it with the
ones found in the key store.
*/
func SignBondTx(tx *BondTx, keys KeyStore, established []EstablishedAccountTx) (*SignedBondTx, error) {
	signers, err := LookUpSigningKeys(tx.Source, keys, established)
	if err != nil {
		return nil, err
	}
	signed := &SignedBondTx{BondTx: *tx}
	if err := signed.Sign(signers...); err != nil {
		return nil, err
	}
	return signed, nil
}

// Sign appends signatures of the signers to the bond.
func (tx *SignedBondTx) Sign(signers ...crypto.Signer) error {
	for _, s := range signers {
		sig, err := SignPayload(&tx.BondTx, s)
		if err != nil {
			return fmt.Errorf("signing bond: %w", err)
		}
		tx.Signatures = append(tx.Signatures, sig)
	}
	return nil
}

/*
LookUpSigningKeys resolves the secret keys which can sign on behalf of "source".

Implicit (public key) source must be held by the key store. For established
account source the account is looked up from "established" by re-deriving the
addresses and the keys of the account the store holds are returned.

ErrSignerNotFound is returned when the source can't be resolved. Implicit
source missing from the key store is fatal even when there are established
accounts, those are not searched for a public key source.
*/
func LookUpSigningKeys(source types.GenesisAddress, keys KeyStore, established []EstablishedAccountTx) ([]crypto.Signer, error) {
	if pk, ok := source.PublicKey(); ok {
		signer, err := keys.FindKeyByPublicKey(pk)
		switch {
		case err == nil:
			return []crypto.Signer{signer}, nil
		case errors.Is(err, ErrKeyNotFound):
			return nil, fmt.Errorf("%w: %s not found in the wallet", ErrSignerNotFound, source)
		default:
			return nil, fmt.Errorf("looking up key %s: %w", pk, err)
		}
	}

	addr, _ := source.EstablishedAddress()
	if len(established) == 0 {
		return nil, fmt.Errorf("%w: %s not found in the wallet and there are no established accounts", ErrSignerNotFound, source)
	}
	for i := range established {
		derived, err := established[i].DeriveAddress()
		if err != nil {
			return nil, fmt.Errorf("deriving address of established account %d: %w", i, err)
		}
		if derived != addr {
			continue
		}
		var signers []crypto.Signer
		for _, pk := range established[i].PublicKeys {
			signer, err := keys.FindKeyByPublicKey(pk)
			if err != nil {
				if errors.Is(err, ErrKeyNotFound) {
					continue
				}
				return nil, fmt.Errorf("looking up key %s: %w", pk, err)
			}
			signers = append(signers, signer)
		}
		return signers, nil
	}
	return nil, fmt.Errorf("%w: %s not found in the wallet or in the established accounts", ErrSignerNotFound, source)
}

func matchKey(pk types.PublicKey, signer crypto.Signer) error {
	verifier, err := signer.Verifier()
	if err != nil {
		return err
	}
	pub, err := verifier.MarshalPublicKey()
	if err != nil {
		return err
	}
	if !bytes.Equal(pub, pk.Bytes()) {
		return ErrKeyMismatch
	}
	return nil
}
