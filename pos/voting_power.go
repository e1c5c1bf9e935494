package pos

import (
	"errors"
	"fmt"
	"math"

	"github.com/alphabill-org/pregenesis/types"
)

var ErrVotingPowerOverflow = errors.New("voting power overflow")

// Params are the proof-of-stake parameters relevant for the genesis.
type Params struct {
	// TmVotesPerToken is the number of consensus engine votes per one
	// smallest unit of the native token.
	TmVotesPerToken types.Dec `toml:"tm_votes_per_token"`
	// MaxValidatorSlots is the maximum number of active validators.
	MaxValidatorSlots uint64 `toml:"max_validator_slots"`
}

/*
IntoVotingPower converts the stake into the voting power of the consensus
engine: floor(stake * votesPerToken).
*/
func IntoVotingPower(votesPerToken types.Dec, stake types.Amount) (int64, error) {
	power, err := votesPerToken.MulFloor(stake)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrVotingPowerOverflow, err)
	}
	if power.Cmp(types.NewAmount(math.MaxInt64)) > 0 {
		return 0, fmt.Errorf("%w: %s", ErrVotingPowerOverflow, power)
	}
	return int64(power.Uint256().Uint64()), nil
}

func (p *Params) Validate() error {
	if p.TmVotesPerToken.IsZero() {
		return errors.New("tm_votes_per_token must be greater than zero")
	}
	if p.MaxValidatorSlots == 0 {
		return errors.New("max_validator_slots must be greater than zero")
	}
	return nil
}
