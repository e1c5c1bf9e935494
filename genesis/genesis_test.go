package genesis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alphabill-org/pregenesis/crypto"
	"github.com/alphabill-org/pregenesis/genesis/templates"
	testsig "github.com/alphabill-org/pregenesis/internal/testutils/sig"
	"github.com/alphabill-org/pregenesis/types"
)

const (
	testVP          = "vp_user"
	testNativeToken = "NAM"
)

type memKeyStore map[types.PublicKey]crypto.Signer

func (ks memKeyStore) FindKeyByPublicKey(pk types.PublicKey) (crypto.Signer, error) {
	if s, ok := ks[pk]; ok {
		return s, nil
	}
	return nil, ErrKeyNotFound
}

type vpSet map[string]struct{}

func (vps vpSet) Contains(name string) bool {
	_, ok := vps[name]
	return ok
}

var testVPs = vpSet{testVP: {}}

func testParams() *templates.Parameters {
	return &templates.Parameters{Parameters: templates.ChainParameters{NativeToken: testNativeToken}}
}

func newKeyStore(signers []crypto.Signer, pks []types.PublicKey) memKeyStore {
	ks := make(memKeyStore, len(signers))
	for i := range signers {
		ks[pks[i]] = signers[i]
	}
	return ks
}

func newValidatorKeys(t *testing.T) (*ValidatorKeys, *ValidatorPublicKeys) {
	t.Helper()
	signers, pks := testsig.NewSigners(t, validatorKeyRoles)
	keys := &ValidatorKeys{
		Consensus:      signers[0],
		Protocol:       signers[1],
		TendermintNode: signers[2],
		EthHot:         signers[3],
		EthCold:        signers[4],
	}
	public := &ValidatorPublicKeys{
		Consensus:      pks[0],
		Protocol:       pks[1],
		TendermintNode: pks[2],
		EthHot:         pks[3],
		EthCold:        pks[4],
	}
	return keys, public
}

// fakePublicKeys returns distinct values which are not necessarily valid curve points.
func fakePublicKeys(n int) []types.PublicKey {
	pks := make([]types.PublicKey, n)
	for i := range pks {
		pks[i][0] = 0x02
		pks[i][1] = byte(i >> 8)
		pks[i][2] = byte(i)
	}
	return pks
}

func mustAmount(t *testing.T, s string) types.DenominatedAmount {
	t.Helper()
	a, err := types.ParseDenominatedAmount(s)
	require.NoError(t, err)
	return a
}

func mustSocketAddr(t *testing.T, s string) types.SocketAddr {
	t.Helper()
	sa, err := types.ParseSocketAddr(s)
	require.NoError(t, err)
	return sa
}

/*
testBatch is a signed batch of single established account (threshold 1,
one key) which is also a validator bonding to itself.
*/
type testBatch struct {
	txs      *Transactions
	account  types.EstablishedAddress
	owner    crypto.Signer
	ownerPK  types.PublicKey
	keys     memKeyStore
	balances *templates.DenominatedBalances
}

func newTestBatch(t *testing.T, balance, bond string) *testBatch {
	t.Helper()
	return newTestBatchWithValidator(t, balance, bond, nil)
}

/*
newTestBatchWithValidator is like newTestBatch but when "validator" is not nil
it's used as the address of the validator account (and the self bond target)
instead of the established account.
*/
func newTestBatchWithValidator(t *testing.T, balance, bond string, validator *types.EstablishedAddress) *testBatch {
	t.Helper()
	signers, pks := testsig.NewSigners(t, 1)
	addr, established, err := InitEstablishedAccount(testVP, pks, 1)
	require.NoError(t, err)

	validatorAddr := addr
	if validator != nil {
		validatorAddr = *validator
	}
	vkeys, vpks := newValidatorKeys(t)
	unsigned := InitValidator(&ValidatorData{
		Address:                 validatorAddr,
		CommissionRate:          types.MustParseDec("0.05"),
		MaxCommissionRateChange: types.MustParseDec("0.01"),
		NetAddress:              mustSocketAddr(t, "127.0.0.1:26656"),
		SelfBondAmount:          mustAmount(t, bond),
		Metadata:                ValidatorMetadata{Email: "validator@example.com", Website: "https://example.com"},
	}, vpks)
	require.Len(t, unsigned.Bond, 1)
	unsigned.Bond[0].Source = types.EstablishedGenesisAddress(addr)
	unsigned.EstablishedAccount = established.EstablishedAccount

	ks := newKeyStore(signers, pks)
	txs, err := SignTxs(unsigned, ks, vkeys)
	require.NoError(t, err)

	return &testBatch{
		txs:     txs,
		account: addr,
		owner:   signers[0],
		ownerPK: pks[0],
		keys:    ks,
		balances: &templates.DenominatedBalances{
			Token: map[string]templates.TokenBalances{
				testNativeToken: {types.EstablishedGenesisAddress(addr): mustAmount(t, balance)},
			},
		},
	}
}

func (tb *testBatch) validate(t *testing.T, opts ...ValidateOption) (*ValidatedTransactions, error) {
	t.Helper()
	opts = append([]ValidateOption{
		WithValidityPredicates(testVPs),
		WithBalances(tb.balances),
		WithParameters(testParams()),
	}, opts...)
	return Validate(context.Background(), tb.txs, opts...)
}

// txErrors returns the per transaction diagnostics contained in err.
func txErrors(err error) []*TxError {
	var res []*TxError
	var errs []error
	if je, ok := err.(interface{ Unwrap() []error }); ok {
		errs = je.Unwrap()
	} else if err != nil {
		errs = []error{err}
	}
	for _, e := range errs {
		var te *TxError
		if errors.As(e, &te) {
			res = append(res, te)
		}
	}
	return res
}
