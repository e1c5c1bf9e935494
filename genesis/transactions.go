package genesis

import (
	"fmt"

	"github.com/alphabill-org/pregenesis/genesis/templates"
	"github.com/alphabill-org/pregenesis/types"
)

// MaxPublicKeys is the maximum number of public keys of an established account.
const MaxPublicKeys = 255

// DefaultThreshold is used when threshold is omitted in the established account document.
const DefaultThreshold uint8 = 1

type (
	/*
	UnsignedTransactions is the batch of genesis transactions before the
	validator account and bond transactions have been signed.
	*/
	UnsignedTransactions struct {
		EstablishedAccount []EstablishedAccountTx        `toml:"established_account,omitempty"`
		ValidatorAccount   []UnsignedValidatorAccountTx `toml:"validator_account,omitempty"`
		Bond               []BondTx                     `toml:"bond,omitempty"`
	}

	// Transactions is the signed batch of genesis transactions.
	Transactions struct {
		EstablishedAccount []EstablishedAccountTx      `toml:"established_account,omitempty"`
		ValidatorAccount   []SignedValidatorAccountTx `toml:"validator_account,omitempty"`
		Bond               []SignedBondTx             `toml:"bond,omitempty"`
	}

	/*
	ValidatedTransactions is the outcome of successful validation, it is
	consumed to seed the initial ledger state.
	*/
	ValidatedTransactions struct {
		EstablishedAccount []EstablishedAccountTx
		ValidatorAccount   []SignedValidatorAccountTx
		Bond               []ValidatedBondTx
		// balances left after the bonded amounts have been debited
		Balances map[string]templates.TokenBalances
	}

	// EstablishedAccountTx declares a threshold multisig account.
	EstablishedAccountTx struct {
		_          struct{}          `cbor:",toarray"`
		Vp         string            `toml:"vp"`
		Threshold  uint8             `toml:"threshold"`
		PublicKeys []types.PublicKey `toml:"public_keys"`
	}

	ValidatorMetadata struct {
		_             struct{} `cbor:",toarray"`
		Email         string   `toml:"email"`
		Description   string   `toml:"description,omitempty"`
		Website       string   `toml:"website,omitempty"`
		DiscordHandle string   `toml:"discord_handle,omitempty"`
		Avatar        string   `toml:"avatar,omitempty"`
	}

	/*
	ValidatorAccountTx registers an established account as a genesis validator.

	The K type parameter is the representation of the validator's keys: in the
	unsigned form it is the bare public key, in the signed form it's the key
	together with the key holder's authorization of the (unsigned) transaction.
	*/
	ValidatorAccountTx[K any] struct {
		_                       struct{}                 `cbor:",toarray"`
		Address                 types.EstablishedAddress `toml:"address"`
		Vp                      string                   `toml:"vp"`
		CommissionRate          types.Dec                `toml:"commission_rate"`
		MaxCommissionRateChange types.Dec                `toml:"max_commission_rate_change"`
		NetAddress              types.SocketAddr         `toml:"net_address"`
		ConsensusKey            K                        `toml:"consensus_key"`
		ProtocolKey             K                        `toml:"protocol_key"`
		TendermintNodeKey       K                        `toml:"tendermint_node_key"`
		EthHotKey               K                        `toml:"eth_hot_key"`
		EthColdKey              K                        `toml:"eth_cold_key"`
		Metadata                ValidatorMetadata        `toml:"metadata"`
	}

	UnsignedValidatorAccountTx = ValidatorAccountTx[types.PublicKey]
	SignedValidatorAccountTx   = ValidatorAccountTx[SignedPublicKey]

	// SignedPublicKey is a public key with the signature of its owner over the
	// unsigned validator account transaction.
	SignedPublicKey struct {
		PK            types.PublicKey `toml:"pk"`
		Authorization types.Signature `toml:"authorization"`
	}

	// BondTx is a bond with the amount as it was written by the user.
	BondTx struct {
		_         struct{}                 `cbor:",toarray"`
		Source    types.GenesisAddress     `toml:"source"`
		Validator types.EstablishedAddress `toml:"validator"`
		Amount    types.DenominatedAmount  `toml:"amount"`
	}

	// ValidatedBondTx is a bond with the amount in native token precision.
	ValidatedBondTx struct {
		Source    types.GenesisAddress
		Validator types.EstablishedAddress
		Amount    types.Amount
	}

	/*
	SignedBondTx is a bond together with the signatures of the source account's
	key holders. Signatures accumulate, ie different key holders of a multisig
	account may sign the bond independently.
	*/
	SignedBondTx struct {
		BondTx
		Signatures []types.Signature `toml:"signatures"`
	}
)

/*
Merge appends transactions of "other" to "txs" section by section.
*/
func (txs *Transactions) Merge(other *Transactions) {
	if other == nil {
		return
	}
	txs.EstablishedAccount = append(txs.EstablishedAccount, other.EstablishedAccount...)
	txs.ValidatorAccount = append(txs.ValidatorAccount, other.ValidatorAccount...)
	txs.Bond = append(txs.Bond, other.Bond...)
}

func (txs *UnsignedTransactions) Merge(other *UnsignedTransactions) {
	if other == nil {
		return
	}
	txs.EstablishedAccount = append(txs.EstablishedAccount, other.EstablishedAccount...)
	txs.ValidatorAccount = append(txs.ValidatorAccount, other.ValidatorAccount...)
	txs.Bond = append(txs.Bond, other.Bond...)
}

// UnsignedValidatorAccount returns the validator account transaction with authorizations stripped.
func UnsignedValidatorAccount(tx *SignedValidatorAccountTx) *UnsignedValidatorAccountTx {
	return &UnsignedValidatorAccountTx{
		Address:                 tx.Address,
		Vp:                      tx.Vp,
		CommissionRate:          tx.CommissionRate,
		MaxCommissionRateChange: tx.MaxCommissionRateChange,
		NetAddress:              tx.NetAddress,
		ConsensusKey:            tx.ConsensusKey.PK,
		ProtocolKey:             tx.ProtocolKey.PK,
		TendermintNodeKey:       tx.TendermintNodeKey.PK,
		EthHotKey:               tx.EthHotKey.PK,
		EthColdKey:              tx.EthColdKey.PK,
		Metadata:                tx.Metadata,
	}
}

// Bytes returns the canonical serialization of the transaction. Bytes of
// the unsigned form is what the role keys sign.
func (tx *ValidatorAccountTx[K]) Bytes() ([]byte, error) {
	return types.Cbor.Marshal(tx)
}

// Bytes returns the signable data of the bond.
func (tx *BondTx) Bytes() ([]byte, error) {
	return types.Cbor.Marshal(tx)
}

// Denominate converts the amount of the bond into native token precision.
func (tx *BondTx) Denominate() (*ValidatedBondTx, error) {
	amount, err := tx.Amount.IncreasePrecision(types.NativeMaxDecimalPlaces)
	if err != nil {
		return nil, fmt.Errorf("bond amount %s: %w", tx.Amount, err)
	}
	return &ValidatedBondTx{
		Source:    tx.Source,
		Validator: tx.Validator,
		Amount:    amount.Amount(),
	}, nil
}

// HasAtLeastOneValidator returns true when the batch contains a validator account.
func (txs *ValidatedTransactions) HasAtLeastOneValidator() bool {
	return len(txs.ValidatorAccount) > 0
}
