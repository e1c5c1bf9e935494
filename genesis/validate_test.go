package genesis

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alphabill-org/pregenesis/genesis/templates"
	testlogger "github.com/alphabill-org/pregenesis/internal/testutils/logger"
	"github.com/alphabill-org/pregenesis/types"
)

func TestValidate_endToEnd(t *testing.T) {
	t.Run("valid batch", func(t *testing.T) {
		tb := newTestBatch(t, "1000", "100")
		vtxs, err := tb.validate(t, WithLogger(testlogger.New(t)))
		require.NoError(t, err)
		require.NotNil(t, vtxs)
		require.True(t, vtxs.HasAtLeastOneValidator())
		require.Equal(t, tb.txs.EstablishedAccount, vtxs.EstablishedAccount)
		require.Equal(t, tb.txs.ValidatorAccount, vtxs.ValidatorAccount)
		require.Len(t, vtxs.Bond, 1)
		require.Equal(t, types.EstablishedGenesisAddress(tb.account), vtxs.Bond[0].Source)
		require.Equal(t, tb.account, vtxs.Bond[0].Validator)
		require.Equal(t, "100000000", vtxs.Bond[0].Amount.String())

		// remaining balance is in native precision
		left := vtxs.Balances[testNativeToken][types.EstablishedGenesisAddress(tb.account)]
		require.Equal(t, "900.000000", left.String())
		// input balances are not modified
		require.Equal(t, "1000", tb.balances.Token[testNativeToken][types.EstablishedGenesisAddress(tb.account)].String())
	})

	t.Run("bond amount exceeds balance", func(t *testing.T) {
		tb := newTestBatch(t, "99.999999", "100")
		vtxs, err := tb.validate(t)
		require.ErrorIs(t, err, ErrInsufficientBalance)
		require.Nil(t, vtxs)

		errs := txErrors(err)
		require.Len(t, errs, 1)
		require.Equal(t, SectionBond, errs[0].Section)
		require.Equal(t, 0, errs[0].Index)
	})

	t.Run("validator of unknown established account", func(t *testing.T) {
		unknown := types.EstablishedAddress{0xAA, 0xBB}
		tb := newTestBatchWithValidator(t, "1000", "100", &unknown)
		vtxs, err := tb.validate(t)
		require.ErrorIs(t, err, ErrUnknownAccount)
		require.Nil(t, vtxs)

		errs := txErrors(err)
		require.Len(t, errs, 1)
		require.Equal(t, SectionValidatorAccount, errs[0].Section)
	})
}

func TestValidate_establishedAccount(t *testing.T) {
	validate := func(t *testing.T, txs ...EstablishedAccountTx) error {
		_, err := Validate(context.Background(), &Transactions{EstablishedAccount: txs}, WithValidityPredicates(testVPs))
		return err
	}

	t.Run("valid key count and threshold combinations", func(t *testing.T) {
		for _, n := range []int{1, 2, 3, 17, 128, MaxPublicKeys} {
			for _, th := range []int{1, n/2 + 1, n} {
				tx := EstablishedAccountTx{Vp: testVP, Threshold: uint8(th), PublicKeys: fakePublicKeys(n)}
				require.NoError(t, validate(t, tx), "threshold %d of %d keys", th, n)
			}
		}
	})

	var testCases = []struct {
		name string
		tx   EstablishedAccountTx
		errs []error
	}{
		{
			name: "zero threshold",
			tx:   EstablishedAccountTx{Vp: testVP, Threshold: 0, PublicKeys: fakePublicKeys(2)},
			errs: []error{ErrZeroThreshold},
		},
		{
			name: "threshold above key count",
			tx:   EstablishedAccountTx{Vp: testVP, Threshold: 3, PublicKeys: fakePublicKeys(2)},
			errs: []error{ErrThresholdAboveKeyCount},
		},
		{
			name: "too many keys",
			tx:   EstablishedAccountTx{Vp: testVP, Threshold: 1, PublicKeys: fakePublicKeys(MaxPublicKeys + 1)},
			errs: []error{ErrTooManyKeys},
		},
		{
			name: "repeated public key",
			tx:   EstablishedAccountTx{Vp: testVP, Threshold: 2, PublicKeys: append(fakePublicKeys(1), fakePublicKeys(1)...)},
			errs: []error{ErrDuplicatePublicKey},
		},
		{
			name: "repeated public key among others",
			tx:   EstablishedAccountTx{Vp: testVP, Threshold: 1, PublicKeys: append(fakePublicKeys(3), fakePublicKeys(2)[1])},
			errs: []error{ErrDuplicatePublicKey},
		},
		{
			name: "unknown validity predicate",
			tx:   EstablishedAccountTx{Vp: "vp_unknown", Threshold: 1, PublicKeys: fakePublicKeys(1)},
			errs: []error{ErrUnknownVP},
		},
		{
			name: "no public keys",
			tx:   EstablishedAccountTx{Vp: testVP, Threshold: 1},
			errs: []error{ErrThresholdAboveKeyCount, ErrNoPublicKeys},
		},
		{
			name: "everything wrong",
			tx:   EstablishedAccountTx{Vp: "", Threshold: 0},
			errs: []error{ErrZeroThreshold, ErrUnknownVP, ErrNoPublicKeys},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validate(t, tc.tx)
			errs := txErrors(err)
			require.Len(t, errs, len(tc.errs), "got %v", err)
			for i, e := range tc.errs {
				require.ErrorIs(t, errs[i], e)
				require.Equal(t, SectionEstablishedAccount, errs[i].Section)
			}
		})
	}

	t.Run("duplicate address", func(t *testing.T) {
		tx := EstablishedAccountTx{Vp: testVP, Threshold: 1, PublicKeys: fakePublicKeys(1)}
		err := validate(t, tx, tx)
		errs := txErrors(err)
		require.Len(t, errs, 1)
		require.ErrorIs(t, errs[0], ErrDuplicateAddress)
		require.Equal(t, 1, errs[0].Index)
	})

	t.Run("registry of validity predicates is required", func(t *testing.T) {
		tx := EstablishedAccountTx{Vp: testVP, Threshold: 1, PublicKeys: fakePublicKeys(1)}
		_, err := Validate(context.Background(), &Transactions{EstablishedAccount: []EstablishedAccountTx{tx}})
		require.ErrorIs(t, err, ErrUnknownVP)

		// typed nil registry contains nothing
		var vps *templates.ValidityPredicates
		_, err = Validate(context.Background(), &Transactions{EstablishedAccount: []EstablishedAccountTx{tx}}, WithValidityPredicates(vps))
		require.ErrorIs(t, err, ErrUnknownVP)
	})
}

func TestValidate_validatorAccount(t *testing.T) {
	t.Run("tampered transaction", func(t *testing.T) {
		tb := newTestBatch(t, "1000", "100")
		tb.txs.ValidatorAccount[0].CommissionRate = types.MustParseDec("0.06")
		vtxs, err := tb.validate(t)
		require.Nil(t, vtxs)
		errs := txErrors(err)
		// every role key is reported
		require.Len(t, errs, validatorKeyRoles)
		for i, e := range errs {
			require.ErrorIs(t, e, ErrInvalidAuthorization)
			require.ErrorContains(t, e, validatorRoles[i])
		}
	})

	t.Run("single invalid authorization", func(t *testing.T) {
		tb := newTestBatch(t, "1000", "100")
		auth := tb.txs.ValidatorAccount[0].EthHotKey.Authorization
		auth[10] ^= 0xFF
		_, err := tb.validate(t)
		errs := txErrors(err)
		require.Len(t, errs, 1)
		require.ErrorIs(t, errs[0], ErrInvalidAuthorization)
		require.ErrorContains(t, errs[0], roleEthHotKey)
	})

	t.Run("duplicate validator", func(t *testing.T) {
		tb := newTestBatch(t, "1000", "100")
		tb.txs.ValidatorAccount = append(tb.txs.ValidatorAccount, tb.txs.ValidatorAccount[0])
		_, err := tb.validate(t)
		errs := txErrors(err)
		require.Len(t, errs, 1)
		require.ErrorIs(t, errs[0], ErrDuplicateValidator)
		require.Equal(t, 1, errs[0].Index)
	})

	t.Run("unknown validity predicate", func(t *testing.T) {
		tb := newTestBatch(t, "1000", "100")
		_, err := tb.validate(t, WithValidityPredicates(vpSet{}))
		errs := txErrors(err)
		require.Len(t, errs, 2)
		require.Equal(t, SectionEstablishedAccount, errs[0].Section)
		require.ErrorIs(t, errs[0], ErrUnknownVP)
		require.Equal(t, SectionValidatorAccount, errs[1].Section)
		require.ErrorIs(t, errs[1], ErrUnknownVP)
	})

	t.Run("commission rate above one", func(t *testing.T) {
		keys, pks := newValidatorKeys(t)
		established := EstablishedAccountTx{Vp: testVP, Threshold: 1, PublicKeys: fakePublicKeys(1)}
		addr, err := established.DeriveAddress()
		require.NoError(t, err)
		unsigned := InitValidator(&ValidatorData{
			Address:                 addr,
			CommissionRate:          types.MustParseDec("1.01"),
			MaxCommissionRateChange: types.MustParseDec("2"),
			NetAddress:              mustSocketAddr(t, "127.0.0.1:26656"),
		}, pks)
		unsigned.EstablishedAccount = []EstablishedAccountTx{established}
		txs, err := SignTxs(unsigned, memKeyStore{}, keys)
		require.NoError(t, err)

		_, err = Validate(context.Background(), txs, WithValidityPredicates(testVPs))
		errs := txErrors(err)
		require.Len(t, errs, 2)
		require.ErrorIs(t, errs[0], ErrInvalidCommissionRate)
		require.ErrorIs(t, errs[1], ErrInvalidCommissionRate)
	})
}

func TestValidate_bond(t *testing.T) {
	t.Run("parameters are required", func(t *testing.T) {
		tb := newTestBatch(t, "1000", "100")
		vtxs, err := Validate(context.Background(), tb.txs, WithValidityPredicates(testVPs), WithBalances(tb.balances))
		require.ErrorIs(t, err, ErrParametersRequired)
		require.Nil(t, vtxs)
		errs := txErrors(err)
		require.Len(t, errs, 1)
		require.Equal(t, SectionBond, errs[0].Section)
		require.Equal(t, -1, errs[0].Index)
	})

	t.Run("missing parameters reported along with other problems", func(t *testing.T) {
		tb := newTestBatch(t, "1000", "100")
		tb.txs.EstablishedAccount = append(tb.txs.EstablishedAccount, EstablishedAccountTx{Vp: "vp_unknown", Threshold: 1, PublicKeys: fakePublicKeys(1)})
		_, err := Validate(context.Background(), tb.txs, WithValidityPredicates(testVPs), WithBalances(tb.balances))
		errs := txErrors(err)
		require.Len(t, errs, 2, "got %v", err)
		require.ErrorIs(t, errs[0], ErrUnknownVP)
		require.Equal(t, SectionEstablishedAccount, errs[0].Section)
		require.Equal(t, 1, errs[0].Index)
		require.ErrorIs(t, errs[1], ErrParametersRequired)
		require.Equal(t, SectionBond, errs[1].Section)
		require.Equal(t, -1, errs[1].Index)
	})

	t.Run("parameters are not required without bonds", func(t *testing.T) {
		tb := newTestBatch(t, "1000", "100")
		tb.txs.Bond = nil
		vtxs, err := Validate(context.Background(), tb.txs, WithValidityPredicates(testVPs))
		require.NoError(t, err)
		require.True(t, vtxs.HasAtLeastOneValidator())
		require.Empty(t, vtxs.Bond)
	})

	t.Run("tampered amount", func(t *testing.T) {
		tb := newTestBatch(t, "1000", "100")
		tb.txs.Bond[0].Amount = mustAmount(t, "10")
		vtxs, err := tb.validate(t)
		require.Nil(t, vtxs)
		errs := txErrors(err)
		require.Len(t, errs, 1)
		require.ErrorIs(t, errs[0], ErrInvalidBondSignature)
		var tnm *ThresholdNotMetError
		require.ErrorAs(t, errs[0], &tnm)
		require.EqualValues(t, 1, tnm.Required)
		require.EqualValues(t, 0, tnm.Actual)
	})

	t.Run("unsigned bond", func(t *testing.T) {
		tb := newTestBatch(t, "1000", "100")
		tb.txs.Bond[0].Signatures = nil
		_, err := tb.validate(t)
		require.ErrorIs(t, err, ErrInvalidBondSignature)
	})

	t.Run("source keys not found", func(t *testing.T) {
		tb := newTestBatch(t, "1000", "100")
		other := types.EstablishedGenesisAddress(types.EstablishedAddress{3})
		tb.txs.Bond[0].Source = other
		tb.balances.Token[testNativeToken][other] = mustAmount(t, "1000")
		_, err := tb.validate(t)
		errs := txErrors(err)
		require.Len(t, errs, 1)
		require.ErrorIs(t, errs[0], ErrInvalidBondSignature)
		require.ErrorIs(t, errs[0], ErrSourceKeysNotFound)
	})

	t.Run("implicit account source", func(t *testing.T) {
		tb := newTestBatch(t, "1000", "100")
		source := types.PublicKeyGenesisAddress(tb.ownerPK)
		tb.txs.Bond[0] = SignedBondTx{BondTx: BondTx{Source: source, Validator: tb.account, Amount: mustAmount(t, "0.5")}}
		require.NoError(t, tb.txs.SignBonds(tb.keys))
		tb.balances.Token[testNativeToken][source] = mustAmount(t, "0.5")

		vtxs, err := tb.validate(t)
		require.NoError(t, err)
		require.Equal(t, "500000", vtxs.Bond[0].Amount.String())
		// exact debit removes the entry
		require.NotContains(t, vtxs.Balances[testNativeToken], source)
		require.Contains(t, vtxs.Balances[testNativeToken], types.EstablishedGenesisAddress(tb.account))
	})

	t.Run("unknown validator", func(t *testing.T) {
		tb := newTestBatch(t, "1000", "100")
		tb.txs.Bond[0] = SignedBondTx{BondTx: BondTx{
			Source:    types.EstablishedGenesisAddress(tb.account),
			Validator: types.EstablishedAddress{5},
			Amount:    mustAmount(t, "100"),
		}}
		require.NoError(t, tb.txs.SignBonds(tb.keys))
		_, err := tb.validate(t)
		errs := txErrors(err)
		require.Len(t, errs, 1)
		require.ErrorIs(t, errs[0], ErrUnknownValidator)
	})

	t.Run("too many decimal places", func(t *testing.T) {
		tb := newTestBatch(t, "1000", "0.0000001")
		_, err := tb.validate(t)
		errs := txErrors(err)
		require.Len(t, errs, 1)
		require.ErrorIs(t, errs[0], types.ErrDenomination)
	})

	t.Run("native token has no balances", func(t *testing.T) {
		tb := newTestBatch(t, "1000", "100")
		params := testParams()
		params.Parameters.NativeToken = "BTC"
		_, err := tb.validate(t, WithParameters(params))
		require.ErrorIs(t, err, ErrTokenNotFound)
	})

	t.Run("source has no balance", func(t *testing.T) {
		tb := newTestBatch(t, "1000", "100")
		_, err := tb.validate(t, WithBalances(nil))
		require.ErrorIs(t, err, ErrTokenNotFound)

		tb.balances.Token[testNativeToken] = templates.TokenBalances{}
		_, err = tb.validate(t)
		require.ErrorIs(t, err, ErrNoBalance)
	})

	t.Run("balance conservation", func(t *testing.T) {
		tb := newTestBatch(t, "1000", "100")
		bond := tb.txs.Bond[0]
		for _, amount := range []string{"250.5", "0.000001", "49.499999"} {
			b := SignedBondTx{BondTx: BondTx{Source: bond.Source, Validator: bond.Validator, Amount: mustAmount(t, amount)}}
			require.NoError(t, b.Sign(tb.owner))
			tb.txs.Bond = append(tb.txs.Bond, b)
		}

		vtxs, err := tb.validate(t)
		require.NoError(t, err)
		require.Len(t, vtxs.Bond, 4)

		total := types.NewAmount(0)
		for _, b := range vtxs.Bond {
			total, err = total.Add(b.Amount)
			require.NoError(t, err)
		}
		require.Equal(t, "400000000", total.String())
		left := vtxs.Balances[testNativeToken][types.EstablishedGenesisAddress(tb.account)]
		require.Equal(t, "600.000000", left.String())
	})

	t.Run("all bonds must be valid", func(t *testing.T) {
		tb := newTestBatch(t, "150", "100")
		bond := tb.txs.Bond[0]
		// second bond overdraws the balance
		tb.txs.Bond = append(tb.txs.Bond, bond)
		vtxs, err := tb.validate(t)
		require.Nil(t, vtxs)
		errs := txErrors(err)
		require.Len(t, errs, 1)
		require.Equal(t, 1, errs[0].Index)
		require.ErrorIs(t, errs[0], ErrInsufficientBalance)
	})
}

func TestValidate_parallelism(t *testing.T) {
	tb := newTestBatch(t, "1000", "100")
	for i := 0; i < 10; i++ {
		b := SignedBondTx{BondTx: tb.txs.Bond[0].BondTx}
		if i%3 != 0 {
			require.NoError(t, b.Sign(tb.owner))
		}
		tb.txs.Bond = append(tb.txs.Bond, b)
	}
	tb.txs.ValidatorAccount[0].EthColdKey.Authorization = nil

	var results []string
	for _, n := range []int{0, 1, 4, 16} {
		_, err := tb.validate(t, WithParallelism(n))
		require.Error(t, err)
		results = append(results, err.Error())
	}
	for i := 1; i < len(results); i++ {
		require.Equal(t, results[0], results[i])
	}
}

func TestValidate_contextCancelled(t *testing.T) {
	tb := newTestBatch(t, "1000", "100")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	vtxs, err := Validate(ctx, tb.txs, WithValidityPredicates(testVPs), WithBalances(tb.balances), WithParameters(testParams()))
	require.ErrorIs(t, err, context.Canceled)
	require.Nil(t, vtxs)
}

func TestValidationState_debit(t *testing.T) {
	source := types.EstablishedGenesisAddress(types.EstablishedAddress{1})
	newState := func(balance string) *validationState {
		return &validationState{balances: map[string]templates.TokenBalances{
			testNativeToken: {source: mustAmount(t, balance)},
		}}
	}
	native := func(s string) types.Amount {
		da := mustAmount(t, s)
		da, err := da.IncreasePrecision(types.NativeMaxDecimalPlaces)
		require.NoError(t, err)
		return da.Amount()
	}

	var testCases = []struct {
		balance string
		amount  string
		left    string // empty when entry is removed
		err     error
	}{
		{balance: "10", amount: "1", left: "9.000000"},
		{balance: "10", amount: "10", left: ""},
		{balance: "10.000001", amount: "10", left: "0.000001"},
		{balance: "10", amount: "10.000001", left: "10", err: ErrInsufficientBalance},
		{balance: "0.1234567", amount: "0.1", left: "0.1234567", err: types.ErrDenomination},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%s-%s", tc.balance, tc.amount), func(t *testing.T) {
			s := newState(tc.balance)
			err := s.debit(testNativeToken, source, native(tc.amount))
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
			} else {
				require.NoError(t, err)
			}
			balance, ok := s.balances[testNativeToken][source]
			if tc.left == "" {
				require.False(t, ok)
				return
			}
			require.True(t, ok)
			require.Equal(t, tc.left, balance.String())
		})
	}

	s := newState("1")
	require.ErrorIs(t, s.debit("BTC", source, native("1")), ErrTokenNotFound)
	require.ErrorIs(t, s.debit(testNativeToken, types.EstablishedGenesisAddress(types.EstablishedAddress{2}), native("1")), ErrNoBalance)
}
