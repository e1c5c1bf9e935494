package genesis

import (
	"fmt"

	"github.com/alphabill-org/pregenesis/types"
)

// DefaultValidatorVP is the validity predicate of the genesis validator accounts.
const DefaultValidatorVP = "vp_user"

type (
	// ValidatorData is the input of the genesis validator initialization.
	ValidatorData struct {
		Address                 types.EstablishedAddress
		CommissionRate          types.Dec
		MaxCommissionRateChange types.Dec
		NetAddress              types.SocketAddr
		SelfBondAmount          types.DenominatedAmount
		Metadata                ValidatorMetadata
	}

	// ValidatorPublicKeys are the public keys of the validator's key roles.
	ValidatorPublicKeys struct {
		Consensus      types.PublicKey
		Protocol       types.PublicKey
		TendermintNode types.PublicKey
		EthHot         types.PublicKey
		EthCold        types.PublicKey
	}
)

/*
InitEstablishedAccount creates transactions declaring an established account
and returns the address of the account.
*/
func InitEstablishedAccount(vp string, publicKeys []types.PublicKey, threshold uint8) (types.EstablishedAddress, *Transactions, error) {
	tx := EstablishedAccountTx{
		Vp:         vp,
		Threshold:  threshold,
		PublicKeys: publicKeys,
	}
	addr, err := tx.DeriveAddress()
	if err != nil {
		return addr, nil, fmt.Errorf("deriving address: %w", err)
	}
	return addr, &Transactions{EstablishedAccount: []EstablishedAccountTx{tx}}, nil
}

/*
InitValidator creates unsigned validator account transaction and, when self
bond amount is not zero, the self bond transaction of the validator.
*/
func InitValidator(data *ValidatorData, keys *ValidatorPublicKeys) *UnsignedTransactions {
	txs := &UnsignedTransactions{
		ValidatorAccount: []UnsignedValidatorAccountTx{{
			Address:                 data.Address,
			Vp:                      DefaultValidatorVP,
			CommissionRate:          data.CommissionRate,
			MaxCommissionRateChange: data.MaxCommissionRateChange,
			NetAddress:              data.NetAddress,
			ConsensusKey:            keys.Consensus,
			ProtocolKey:             keys.Protocol,
			TendermintNodeKey:       keys.TendermintNode,
			EthHotKey:               keys.EthHot,
			EthColdKey:              keys.EthCold,
			Metadata:                data.Metadata,
		}},
	}
	if !data.SelfBondAmount.IsZero() {
		txs.Bond = []BondTx{{
			Source:    types.EstablishedGenesisAddress(data.Address),
			Validator: data.Address,
			Amount:    data.SelfBondAmount,
		}}
	}
	return txs
}
