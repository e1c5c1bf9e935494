package genesis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alphabill-org/pregenesis/crypto"
	testsig "github.com/alphabill-org/pregenesis/internal/testutils/sig"
	"github.com/alphabill-org/pregenesis/types"
)

func TestSignPayload(t *testing.T) {
	signer, verifier := testsig.CreateSignerAndVerifier(t)
	payload := &BondTx{
		Source:    types.EstablishedGenesisAddress(types.EstablishedAddress{1}),
		Validator: types.EstablishedAddress{2},
		Amount:    mustAmount(t, "10"),
	}
	sig, err := SignPayload(payload, signer)
	require.NoError(t, err)
	require.Len(t, sig, types.SignatureLength)

	data, err := payload.Bytes()
	require.NoError(t, err)
	require.NoError(t, verifier.VerifyBytes(sig, data))
}

func TestSignValidatorAccountTx(t *testing.T) {
	keys, pks := newValidatorKeys(t)
	unsigned := InitValidator(&ValidatorData{
		Address:        types.EstablishedAddress{9},
		CommissionRate: types.MustParseDec("0.1"),
		NetAddress:     mustSocketAddr(t, "10.0.0.1:26656"),
	}, pks)
	require.Len(t, unsigned.ValidatorAccount, 1)
	require.Empty(t, unsigned.Bond, "zero self bond must not create bond")
	tx := &unsigned.ValidatorAccount[0]

	t.Run("success", func(t *testing.T) {
		signed, err := SignValidatorAccountTx(tx, keys)
		require.NoError(t, err)
		require.Equal(t, tx, UnsignedValidatorAccount(signed))
		for i, err := range verifyAuthorizations(signed) {
			require.NoError(t, err, validatorRoles[i])
		}
		// authorization is the standalone signature of the unsigned tx
		sig, err := SignPayload(tx, keys.EthHot)
		require.NoError(t, err)
		require.Equal(t, sig, signed.EthHotKey.Authorization)
	})

	t.Run("keys not given", func(t *testing.T) {
		signed, err := SignValidatorAccountTx(tx, nil)
		require.ErrorIs(t, err, ErrValidatorKeysNeeded)
		require.Nil(t, signed)
	})

	t.Run("role key missing", func(t *testing.T) {
		k := *keys
		k.EthCold = nil
		signed, err := SignValidatorAccountTx(tx, &k)
		require.ErrorIs(t, err, ErrValidatorKeysNeeded)
		require.ErrorContains(t, err, roleEthColdKey)
		require.Nil(t, signed)
	})

	t.Run("wrong key for the role", func(t *testing.T) {
		k := *keys
		k.Protocol, k.Consensus = keys.Consensus, keys.Protocol
		signed, err := SignValidatorAccountTx(tx, &k)
		require.ErrorIs(t, err, ErrKeyMismatch)
		require.ErrorContains(t, err, roleConsensusKey)
		require.ErrorContains(t, err, roleProtocolKey)
		require.Nil(t, signed)
	})

	t.Run("authorization covers all the fields", func(t *testing.T) {
		signed, err := SignValidatorAccountTx(tx, keys)
		require.NoError(t, err)
		signed.Metadata.Avatar = "https://example.com/avatar.png"
		for i, err := range verifyAuthorizations(signed) {
			require.ErrorIs(t, err, crypto.ErrVerificationFailed, validatorRoles[i])
		}
	})
}

func TestSignBondTx(t *testing.T) {
	signers, pks := testsig.NewSigners(t, 3)
	ks := newKeyStore(signers, pks)
	validator := types.EstablishedAddress{7}

	multisig := EstablishedAccountTx{Vp: testVP, Threshold: 2, PublicKeys: pks}
	multisigAddr, err := multisig.DeriveAddress()
	require.NoError(t, err)
	established := []EstablishedAccountTx{
		{Vp: testVP, Threshold: 1, PublicKeys: fakePublicKeys(1)},
		multisig,
	}

	t.Run("public key source", func(t *testing.T) {
		tx := &BondTx{Source: types.PublicKeyGenesisAddress(pks[1]), Validator: validator, Amount: mustAmount(t, "1")}
		signed, err := SignBondTx(tx, ks, nil)
		require.NoError(t, err)
		require.Len(t, signed.Signatures, 1)
		require.NoError(t, signed.VerifySignatures(pks[1:2], 1))

		sig, err := SignPayload(tx, signers[1])
		require.NoError(t, err)
		require.Equal(t, sig, signed.Signatures[0])
	})

	t.Run("public key not in the wallet", func(t *testing.T) {
		_, pk := testsig.NewSigner(t)
		tx := &BondTx{Source: types.PublicKeyGenesisAddress(pk), Validator: validator, Amount: mustAmount(t, "1")}
		signed, err := SignBondTx(tx, ks, established)
		require.ErrorIs(t, err, ErrSignerNotFound)
		require.Nil(t, signed)
	})

	t.Run("established account source", func(t *testing.T) {
		tx := &BondTx{Source: types.EstablishedGenesisAddress(multisigAddr), Validator: validator, Amount: mustAmount(t, "1")}
		signed, err := SignBondTx(tx, ks, established)
		require.NoError(t, err)
		require.Len(t, signed.Signatures, 3)
		require.NoError(t, signed.VerifySignatures(pks, 3))
	})

	t.Run("multisig signatures are collected from several wallets", func(t *testing.T) {
		tx := &BondTx{Source: types.EstablishedGenesisAddress(multisigAddr), Validator: validator, Amount: mustAmount(t, "1")}
		signed, err := SignBondTx(tx, memKeyStore{pks[0]: signers[0]}, established)
		require.NoError(t, err)
		require.Len(t, signed.Signatures, 1)
		var tnm *ThresholdNotMetError
		require.ErrorAs(t, signed.VerifySignatures(pks, multisig.Threshold), &tnm)

		txs := &Transactions{EstablishedAccount: established, Bond: []SignedBondTx{*signed}}
		require.NoError(t, txs.SignBonds(memKeyStore{pks[2]: signers[2]}))
		require.Len(t, txs.Bond[0].Signatures, 2)
		require.NoError(t, txs.Bond[0].VerifySignatures(pks, multisig.Threshold))
	})

	t.Run("wallet holds none of the account's keys", func(t *testing.T) {
		tx := &BondTx{Source: types.EstablishedGenesisAddress(multisigAddr), Validator: validator, Amount: mustAmount(t, "1")}
		signed, err := SignBondTx(tx, memKeyStore{}, established)
		require.NoError(t, err)
		require.Empty(t, signed.Signatures)
	})

	t.Run("established account not in the batch", func(t *testing.T) {
		tx := &BondTx{Source: types.EstablishedGenesisAddress(types.EstablishedAddress{1, 1}), Validator: validator, Amount: mustAmount(t, "1")}
		signed, err := SignBondTx(tx, ks, established)
		require.ErrorIs(t, err, ErrSignerNotFound)
		require.Nil(t, signed)
	})

	t.Run("no established accounts", func(t *testing.T) {
		tx := &BondTx{Source: types.EstablishedGenesisAddress(multisigAddr), Validator: validator, Amount: mustAmount(t, "1")}
		signed, err := SignBondTx(tx, ks, nil)
		require.ErrorIs(t, err, ErrSignerNotFound)
		require.Nil(t, signed)
	})
}

func TestSignTxs(t *testing.T) {
	t.Run("validator keys required", func(t *testing.T) {
		_, pks := newValidatorKeys(t)
		unsigned := InitValidator(&ValidatorData{Address: types.EstablishedAddress{1}}, pks)
		txs, err := SignTxs(unsigned, memKeyStore{}, nil)
		require.ErrorIs(t, err, ErrValidatorKeysNeeded)
		require.Nil(t, txs)
	})

	t.Run("missing signer is fatal", func(t *testing.T) {
		keys, pks := newValidatorKeys(t)
		_, owner := testsig.NewSigner(t)
		unsigned := InitValidator(&ValidatorData{Address: types.EstablishedAddress{1}, SelfBondAmount: mustAmount(t, "5")}, pks)
		unsigned.Bond[0].Source = types.PublicKeyGenesisAddress(owner)
		txs, err := SignTxs(unsigned, memKeyStore{}, keys)
		require.ErrorIs(t, err, ErrSignerNotFound)
		require.ErrorContains(t, err, "signing bond 0")
		require.Nil(t, txs)
	})

	t.Run("all sections", func(t *testing.T) {
		tb := newTestBatch(t, "10", "10")
		require.Len(t, tb.txs.EstablishedAccount, 1)
		require.Len(t, tb.txs.ValidatorAccount, 1)
		require.Len(t, tb.txs.Bond, 1)
		require.Len(t, tb.txs.Bond[0].Signatures, 1)
		require.NoError(t, tb.txs.Bond[0].VerifySignatures([]types.PublicKey{tb.ownerPK}, 1))
	})
}

func TestTransactions_Merge(t *testing.T) {
	a := newTestBatch(t, "1", "1").txs
	b := newTestBatch(t, "1", "1").txs

	merged := &Transactions{}
	merged.Merge(a)
	merged.Merge(nil)
	merged.Merge(b)
	require.Equal(t, []EstablishedAccountTx{a.EstablishedAccount[0], b.EstablishedAccount[0]}, merged.EstablishedAccount)
	require.Equal(t, []SignedValidatorAccountTx{a.ValidatorAccount[0], b.ValidatorAccount[0]}, merged.ValidatorAccount)
	require.Equal(t, []SignedBondTx{a.Bond[0], b.Bond[0]}, merged.Bond)

	u := &UnsignedTransactions{}
	u.Merge(&UnsignedTransactions{Bond: []BondTx{a.Bond[0].BondTx}})
	u.Merge(&UnsignedTransactions{Bond: []BondTx{b.Bond[0].BondTx}})
	require.Equal(t, []BondTx{a.Bond[0].BondTx, b.Bond[0].BondTx}, u.Bond)
}
