package templates

import (
	"errors"
	"fmt"

	"github.com/alphabill-org/pregenesis/pos"
	"github.com/alphabill-org/pregenesis/types"
	"github.com/alphabill-org/pregenesis/util"
)

const ParametersFileName = "parameters.toml"

type (
	Parameters struct {
		Parameters ChainParameters `toml:"parameters"`
		PosParams  pos.Params      `toml:"pos_params"`
	}

	// ChainParameters are the chain wide constants set at genesis.
	ChainParameters struct {
		// NativeToken is the alias of the staking token in the balances.
		NativeToken                 string                             `toml:"native_token"`
		IsNativeTokenTransferable   bool                               `toml:"is_native_token_transferable"`
		MaxTxBytes                  uint32                             `toml:"max_tx_bytes"`
		MaxProposalBytes            uint64                             `toml:"max_proposal_bytes"`
		MaxBlockGas                 uint64                             `toml:"max_block_gas"`
		VpAllowlist                 []string                           `toml:"vp_allowlist,omitempty"`
		TxAllowlist                 []string                           `toml:"tx_allowlist,omitempty"`
		EpochsPerYear               uint64                             `toml:"epochs_per_year"`
		MaspEpochMultiplier         uint64                             `toml:"masp_epoch_multiplier"`
		MaxSignaturesPerTransaction uint8                              `toml:"max_signatures_per_transaction"`
		FeeUnshieldingGasLimit      uint64                             `toml:"fee_unshielding_gas_limit"`
		MinimumGasPrice             map[string]types.DenominatedAmount `toml:"minimum_gas_price,omitempty"`
	}
)

func LoadParameters(path string) (*Parameters, error) {
	p, err := util.ReadTomlFile(path, &Parameters{})
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters in %s: %w", path, err)
	}
	return p, nil
}

func (p *Parameters) Validate() error {
	var errs []error
	if p.Parameters.NativeToken == "" {
		errs = append(errs, errors.New("native_token is not set"))
	}
	if p.Parameters.EpochsPerYear == 0 {
		errs = append(errs, errors.New("epochs_per_year must be greater than zero"))
	}
	if p.Parameters.MaxSignaturesPerTransaction == 0 {
		errs = append(errs, errors.New("max_signatures_per_transaction must be greater than zero"))
	}
	if err := p.PosParams.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("pos_params: %w", err))
	}
	return errors.Join(errs...)
}

// CheckTokens verifies that all the tokens referred by the parameters are present in the balances.
func (p *Parameters) CheckTokens(balances *DenominatedBalances) error {
	if balances == nil {
		return errors.New("balances are not set")
	}
	var errs []error
	if _, ok := balances.Token[p.Parameters.NativeToken]; !ok {
		errs = append(errs, fmt.Errorf("native token %q not found in balances", p.Parameters.NativeToken))
	}
	for token := range p.Parameters.MinimumGasPrice {
		if _, ok := balances.Token[token]; !ok {
			errs = append(errs, fmt.Errorf("minimum gas price token %q not found in balances", token))
		}
	}
	return errors.Join(errs...)
}
