package genesis

import (
	"errors"
	"fmt"
)

var (
	ErrTooManyKeys         = errors.New("too many public keys")
	ErrKeyNotFound         = errors.New("key not found")
	ErrSignerNotFound      = errors.New("signer not found")
	ErrKeyMismatch         = errors.New("signing key does not match the public key of the transaction")
	ErrValidatorKeysNeeded = errors.New("validator keys are required to sign validator account transactions")

	ErrZeroThreshold          = errors.New("threshold must be greater than zero")
	ErrThresholdAboveKeyCount = errors.New("threshold is greater than the number of public keys")
	ErrNoPublicKeys           = errors.New("no public keys")
	ErrDuplicatePublicKey     = errors.New("duplicate public key")
	ErrDuplicateAddress       = errors.New("duplicate established address")
	ErrUnknownVP              = errors.New("validity predicate not found")
	ErrUnknownAccount         = errors.New("established account not found")
	ErrDuplicateValidator     = errors.New("duplicate validator")
	ErrInvalidCommissionRate  = errors.New("invalid commission rate")
	ErrInvalidAuthorization   = errors.New("invalid key authorization")
	ErrParametersRequired     = errors.New("chain parameters are required to validate bonds")
	ErrInvalidBondSignature   = errors.New("invalid bond signature")
	ErrSourceKeysNotFound     = errors.New("public keys of the bond source not found")
	ErrUnknownValidator       = errors.New("validator not found")
	ErrTokenNotFound          = errors.New("token not found in balances")
	ErrNoBalance              = errors.New("source has no balance")
	ErrInsufficientBalance    = errors.New("insufficient balance")
)

/*
ThresholdNotMetError is returned when there is not enough valid signatures
of distinct keys.
*/
type ThresholdNotMetError struct {
	Required uint8
	Actual   uint8
}

func (e *ThresholdNotMetError) Error() string {
	return fmt.Sprintf("signature threshold not met: required %d, got %d", e.Required, e.Actual)
}

// Section identifies the transaction list in the genesis batch.
type Section string

const (
	SectionEstablishedAccount Section = "established_account"
	SectionValidatorAccount   Section = "validator_account"
	SectionBond               Section = "bond"
)

/*
TxError describes why a transaction of the genesis batch is invalid. One
transaction might have several TxErrors as all the checks are always
performed.
*/
type TxError struct {
	Section Section
	Index   int
	Err     error
}

func (e *TxError) Error() string {
	return fmt.Sprintf("%s[%d]: %v", e.Section, e.Index, e.Err)
}

func (e *TxError) Unwrap() error {
	return e.Err
}
