package genesis

import (
	"fmt"

	"github.com/alphabill-org/pregenesis/pos"
	"github.com/alphabill-org/pregenesis/types"
)

// ValidatorStakes returns the sum of bonded amounts per validator.
func (txs *ValidatedTransactions) ValidatorStakes() (map[types.EstablishedAddress]types.Amount, error) {
	stakes := make(map[types.EstablishedAddress]types.Amount)
	for _, bond := range txs.Bond {
		stake, err := stakes[bond.Validator].Add(bond.Amount)
		if err != nil {
			return nil, fmt.Errorf("stake of validator %s: %w", bond.Validator, err)
		}
		stakes[bond.Validator] = stake
	}
	return stakes, nil
}

/*
HasValidatorWithPositiveVotingPower returns true when the stake of at least one
validator converts into positive consensus voting power. Chain where all the
validators have zero voting power can't produce blocks.
*/
func (txs *ValidatedTransactions) HasValidatorWithPositiveVotingPower(votesPerToken types.Dec) (bool, error) {
	stakes, err := txs.ValidatorStakes()
	if err != nil {
		return false, err
	}
	for addr, stake := range stakes {
		power, err := pos.IntoVotingPower(votesPerToken, stake)
		if err != nil {
			return false, fmt.Errorf("voting power of validator %s: %w", addr, err)
		}
		if power > 0 {
			return true, nil
		}
	}
	return false, nil
}
