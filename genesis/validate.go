package genesis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/alphabill-org/pregenesis/genesis/templates"
	"github.com/alphabill-org/pregenesis/logger"
	"github.com/alphabill-org/pregenesis/types"
)

const (
	roleConsensusKey      = "consensus_key"
	roleProtocolKey       = "protocol_key"
	roleTendermintNodeKey = "tendermint_node_key"
	roleEthHotKey         = "eth_hot_key"
	roleEthColdKey        = "eth_cold_key"

	validatorKeyRoles = 5
)

type (
	// ValidityPredicates is the registry of known validity predicate names.
	ValidityPredicates interface {
		Contains(name string) bool
	}

	ValidateOption func(c *validateConf)

	validateConf struct {
		vps         ValidityPredicates
		balances    *templates.DenominatedBalances
		params      *templates.Parameters
		log         *slog.Logger
		parallelism int
	}

	accountKeys struct {
		keys      []types.PublicKey
		threshold uint8
	}

	/*
	validationState is the accumulator of a single Validate call, it is passed
	through all the validation passes.
	*/
	validationState struct {
		usedAddresses       map[types.EstablishedAddress]struct{}
		establishedAccounts map[types.EstablishedAddress]accountKeys
		validators          map[types.EstablishedAddress]struct{}
		balances            map[string]templates.TokenBalances
		errs                []error
		log                 *slog.Logger
	}

	// results of the signature checks, indexes match the transaction indexes in the batch
	signatureChecks struct {
		validators [][validatorKeyRoles]error
		bonds      []error
	}
)

func WithValidityPredicates(vps ValidityPredicates) ValidateOption {
	return func(c *validateConf) {
		c.vps = vps
	}
}

func WithBalances(balances *templates.DenominatedBalances) ValidateOption {
	return func(c *validateConf) {
		c.balances = balances
	}
}

func WithParameters(params *templates.Parameters) ValidateOption {
	return func(c *validateConf) {
		c.params = params
	}
}

func WithLogger(log *slog.Logger) ValidateOption {
	return func(c *validateConf) {
		c.log = log
	}
}

// WithParallelism sets the max number of goroutines used to verify signatures.
func WithParallelism(n int) ValidateOption {
	return func(c *validateConf) {
		c.parallelism = n
	}
}

/*
Validate checks the genesis transactions batch. All the transactions are checked
and every problem found is logged and returned (joined into single error). The
validated batch is returned only when no problems were found.

Established accounts are checked first, then validator accounts and last bonds
(which are debited from the balances).
*/
func Validate(ctx context.Context, txs *Transactions, opts ...ValidateOption) (*ValidatedTransactions, error) {
	conf := &validateConf{
		parallelism: runtime.NumCPU(),
	}
	for _, o := range opts {
		o(conf)
	}
	if conf.log == nil {
		conf.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if conf.parallelism < 1 {
		conf.parallelism = 1
	}

	s := &validationState{
		usedAddresses:       make(map[types.EstablishedAddress]struct{}),
		establishedAccounts: make(map[types.EstablishedAddress]accountKeys),
		validators:          make(map[types.EstablishedAddress]struct{}),
		balances:            conf.balances.Clone(),
		log:                 conf.log,
	}

	for i := range txs.EstablishedAccount {
		s.validateEstablishedAccount(i, &txs.EstablishedAccount[i], conf.vps)
	}

	sigs, err := s.verifySignatures(ctx, txs, conf.parallelism)
	if err != nil {
		return nil, fmt.Errorf("verifying signatures: %w", err)
	}

	for i := range txs.ValidatorAccount {
		s.validateValidatorAccount(i, &txs.ValidatorAccount[i], conf.vps, sigs.validators[i])
	}

	bonds := s.validateBonds(txs.Bond, conf.params, sigs.bonds)

	if len(s.errs) != 0 {
		return nil, errors.Join(s.errs...)
	}
	return &ValidatedTransactions{
		EstablishedAccount: txs.EstablishedAccount,
		ValidatorAccount:   txs.ValidatorAccount,
		Bond:               bonds,
		Balances:           s.balances,
	}, nil
}

func (s *validationState) reject(section Section, idx int, err error) {
	txErr := &TxError{Section: section, Index: idx, Err: err}
	s.log.Warn("invalid genesis transaction", logger.Section(string(section)), logger.Index(idx), logger.Error(err))
	s.errs = append(s.errs, txErr)
}

func (s *validationState) validateEstablishedAccount(idx int, tx *EstablishedAccountTx, vps ValidityPredicates) {
	reject := func(err error) { s.reject(SectionEstablishedAccount, idx, err) }

	addr, err := tx.DeriveAddress()
	if err != nil {
		reject(err)
		return
	}
	if tx.Threshold == 0 {
		reject(ErrZeroThreshold)
	}
	if int(tx.Threshold) > len(tx.PublicKeys) {
		reject(fmt.Errorf("%w: threshold %d, public keys %d", ErrThresholdAboveKeyCount, tx.Threshold, len(tx.PublicKeys)))
	}
	if len(tx.PublicKeys) > MaxPublicKeys {
		reject(fmt.Errorf("%w: %d, max allowed %d", ErrTooManyKeys, len(tx.PublicKeys), MaxPublicKeys))
	}
	if pk, ok := duplicateKey(tx.PublicKeys); ok {
		reject(fmt.Errorf("%w %s", ErrDuplicatePublicKey, pk))
	}
	// registered even when invalid so that the following passes can refer to it
	s.establishedAccounts[addr] = accountKeys{keys: tx.PublicKeys, threshold: tx.Threshold}

	if _, ok := s.usedAddresses[addr]; ok {
		reject(fmt.Errorf("%w %s", ErrDuplicateAddress, addr))
	} else {
		s.usedAddresses[addr] = struct{}{}
	}
	if vps == nil || !vps.Contains(tx.Vp) {
		reject(fmt.Errorf("%w: %q", ErrUnknownVP, tx.Vp))
	}
	if len(tx.PublicKeys) == 0 {
		reject(ErrNoPublicKeys)
	}
}

func duplicateKey(keys []types.PublicKey) (types.PublicKey, bool) {
	seen := make(map[types.PublicKey]struct{}, len(keys))
	for _, pk := range keys {
		if _, ok := seen[pk]; ok {
			return pk, true
		}
		seen[pk] = struct{}{}
	}
	return types.PublicKey{}, false
}

func (s *validationState) validateValidatorAccount(idx int, tx *SignedValidatorAccountTx, vps ValidityPredicates, authErrs [validatorKeyRoles]error) {
	reject := func(err error) { s.reject(SectionValidatorAccount, idx, err) }

	if _, ok := s.usedAddresses[tx.Address]; !ok {
		reject(fmt.Errorf("%w: %s", ErrUnknownAccount, tx.Address))
	}
	if _, ok := s.validators[tx.Address]; ok {
		reject(fmt.Errorf("%w %s", ErrDuplicateValidator, tx.Address))
	} else {
		s.validators[tx.Address] = struct{}{}
	}
	if vps == nil || !vps.Contains(tx.Vp) {
		reject(fmt.Errorf("%w: %q", ErrUnknownVP, tx.Vp))
	}
	if tx.CommissionRate.Cmp(types.OneDec()) > 0 {
		reject(fmt.Errorf("%w: commission rate %s is greater than 1", ErrInvalidCommissionRate, tx.CommissionRate))
	}
	if tx.MaxCommissionRateChange.Cmp(types.OneDec()) > 0 {
		reject(fmt.Errorf("%w: max commission rate change %s is greater than 1", ErrInvalidCommissionRate, tx.MaxCommissionRateChange))
	}
	for i, role := range validatorRoles {
		if authErrs[i] != nil {
			reject(fmt.Errorf("%w: %s of validator %s: %w", ErrInvalidAuthorization, role, tx.Address, authErrs[i]))
		}
	}
}

/*
validateBonds returns validated bonds only when all the bonds are valid.
*/
func (s *validationState) validateBonds(bonds []SignedBondTx, params *templates.Parameters, sigErrs []error) []ValidatedBondTx {
	if len(bonds) == 0 {
		return nil
	}
	if params == nil {
		// not an error of any particular bond, reported for the whole section
		s.reject(SectionBond, -1, ErrParametersRequired)
		return nil
	}
	validated := make([]ValidatedBondTx, 0, len(bonds))
	for i := range bonds {
		if vb := s.validateBond(i, &bonds[i], params.Parameters.NativeToken, sigErrs[i]); vb != nil {
			validated = append(validated, *vb)
		}
	}
	if len(validated) != len(bonds) {
		return nil
	}
	return validated
}

func (s *validationState) validateBond(idx int, tx *SignedBondTx, nativeToken string, sigErr error) *ValidatedBondTx {
	valid := true
	reject := func(err error) {
		s.reject(SectionBond, idx, err)
		valid = false
	}

	if sigErr != nil {
		reject(fmt.Errorf("%w: %w", ErrInvalidBondSignature, sigErr))
	}
	bond, err := tx.Denominate()
	if err != nil {
		reject(err)
		return nil
	}
	if _, ok := s.validators[bond.Validator]; !ok {
		reject(fmt.Errorf("%w: %s", ErrUnknownValidator, bond.Validator))
	}
	if err := s.debit(nativeToken, bond.Source, bond.Amount); err != nil {
		reject(err)
	}
	if !valid {
		return nil
	}
	s.log.Debug("bond is valid", logger.Address(bond.Source), logger.Amount(types.NewDenominatedAmount(bond.Amount, types.NativeMaxDecimalPlaces)))
	return bond
}

/*
debit subtracts the amount from the balance of the source. The balance entry
is removed when it becomes zero.
*/
func (s *validationState) debit(token string, source types.GenesisAddress, amount types.Amount) error {
	balances, ok := s.balances[token]
	if !ok {
		return fmt.Errorf("%w: %q", ErrTokenNotFound, token)
	}
	balance, ok := balances[source]
	if !ok {
		return fmt.Errorf("%w of token %q: %s", ErrNoBalance, token, source)
	}
	native, err := balance.IncreasePrecision(types.NativeMaxDecimalPlaces)
	if err != nil {
		return fmt.Errorf("balance of %s: %w", source, err)
	}
	switch native.Amount().Cmp(amount) {
	case -1:
		return fmt.Errorf("%w: %s has %s of token %q, bond amount is %s", ErrInsufficientBalance, source, balance, token,
			types.NewDenominatedAmount(amount, types.NativeMaxDecimalPlaces))
	case 0:
		delete(balances, source)
	default:
		left, err := native.Amount().Sub(amount)
		if err != nil {
			return err
		}
		balances[source] = types.NewDenominatedAmount(left, types.NativeMaxDecimalPlaces)
	}
	return nil
}

/*
verifySignatures checks the validator key authorizations and bond signatures.
Checks are independent of each other so they are run in parallel.
*/
func (s *validationState) verifySignatures(ctx context.Context, txs *Transactions, parallelism int) (*signatureChecks, error) {
	res := &signatureChecks{
		validators: make([][validatorKeyRoles]error, len(txs.ValidatorAccount)),
		bonds:      make([]error, len(txs.Bond)),
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for i := range txs.ValidatorAccount {
		i, tx := i, &txs.ValidatorAccount[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res.validators[i] = verifyAuthorizations(tx)
			return nil
		})
	}

	for i := range txs.Bond {
		i, tx := i, &txs.Bond[i]
		keys, threshold, ok := s.bondSigners(tx.Source)
		if !ok {
			res.bonds[i] = fmt.Errorf("%w: %s", ErrSourceKeysNotFound, tx.Source)
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res.bonds[i] = tx.VerifySignatures(keys, threshold)
			return nil
		})
	}
	return res, g.Wait()
}

// bondSigners returns the keys which are authorized to sign on behalf of the source.
func (s *validationState) bondSigners(source types.GenesisAddress) ([]types.PublicKey, uint8, bool) {
	if pk, ok := source.PublicKey(); ok {
		return []types.PublicKey{pk}, 1, true
	}
	addr, _ := source.EstablishedAddress()
	acc, ok := s.establishedAccounts[addr]
	return acc.keys, acc.threshold, ok
}

var validatorRoles = [validatorKeyRoles]string{roleConsensusKey, roleProtocolKey, roleTendermintNodeKey, roleEthHotKey, roleEthColdKey}

func verifyAuthorizations(tx *SignedValidatorAccountTx) (errs [validatorKeyRoles]error) {
	data, err := UnsignedValidatorAccount(tx).Bytes()
	if err != nil {
		for i := range errs {
			errs[i] = err
		}
		return errs
	}
	for i, k := range []*SignedPublicKey{&tx.ConsensusKey, &tx.ProtocolKey, &tx.TendermintNodeKey, &tx.EthHotKey, &tx.EthColdKey} {
		errs[i] = verifySignature(data, k.PK, k.Authorization)
	}
	return errs
}
