package testsig

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alphabill-org/pregenesis/crypto"
	"github.com/alphabill-org/pregenesis/types"
)

func SignBytes(t *testing.T, sigData []byte) (types.Signature, types.PublicKey) {
	t.Helper()
	signer, pk := NewSigner(t)
	sig, err := signer.SignBytes(sigData)
	require.NoError(t, err)
	return sig, pk
}

func CreateSignerAndVerifier(t *testing.T) (crypto.Signer, crypto.Verifier) {
	t.Helper()
	signer, err := crypto.NewInMemorySecp256K1Signer()
	require.NoError(t, err)

	verifier, err := signer.Verifier()
	require.NoError(t, err)
	return signer, verifier
}

// NewSigner generates new secp256k1 key and returns it together with its public key.
func NewSigner(t *testing.T) (crypto.Signer, types.PublicKey) {
	t.Helper()
	signer, verifier := CreateSignerAndVerifier(t)
	return signer, PublicKey(t, verifier)
}

// NewSigners generates "count" keys, see NewSigner.
func NewSigners(t *testing.T, count int) ([]crypto.Signer, []types.PublicKey) {
	t.Helper()
	signers := make([]crypto.Signer, count)
	pks := make([]types.PublicKey, count)
	for i := range signers {
		signers[i], pks[i] = NewSigner(t)
	}
	return signers, pks
}

func PublicKey(t *testing.T, verifier crypto.Verifier) types.PublicKey {
	t.Helper()
	b, err := verifier.MarshalPublicKey()
	require.NoError(t, err)
	pk, err := types.NewPublicKey(b)
	require.NoError(t, err)
	return pk
}
