package templates

import (
	"fmt"

	"github.com/alphabill-org/pregenesis/types"
	"github.com/alphabill-org/pregenesis/util"
)

const BalancesFileName = "balances.toml"

type (
	// TokenBalances maps account to its balance of a token.
	TokenBalances map[types.GenesisAddress]types.DenominatedAmount

	// DenominatedBalances are the genesis balances of all tokens, keyed by token alias.
	DenominatedBalances struct {
		Token map[string]TokenBalances
	}

	balancesDoc struct {
		Token map[string]map[string]string `toml:"token"`
	}
)

func LoadBalances(path string) (*DenominatedBalances, error) {
	doc, err := util.ReadTomlFile(path, &balancesDoc{})
	if err != nil {
		return nil, err
	}
	return doc.balances()
}

func ParseBalances(data []byte) (*DenominatedBalances, error) {
	doc := &balancesDoc{}
	if err := util.DecodeToml(data, doc); err != nil {
		return nil, err
	}
	return doc.balances()
}

func (doc *balancesDoc) balances() (*DenominatedBalances, error) {
	res := &DenominatedBalances{Token: make(map[string]TokenBalances, len(doc.Token))}
	for token, accounts := range doc.Token {
		tb := make(TokenBalances, len(accounts))
		for addrStr, amountStr := range accounts {
			addr, err := types.ParseGenesisAddress(addrStr)
			if err != nil {
				return nil, fmt.Errorf("token %q: %w", token, err)
			}
			amount, err := types.ParseDenominatedAmount(amountStr)
			if err != nil {
				return nil, fmt.Errorf("token %q balance of %s: %w", token, addrStr, err)
			}
			tb[addr] = amount
		}
		res.Token[token] = tb
	}
	return res, nil
}

// Clone returns deep copy of the balances.
func (b *DenominatedBalances) Clone() map[string]TokenBalances {
	res := make(map[string]TokenBalances)
	if b == nil {
		return res
	}
	for token, balances := range b.Token {
		tb := make(TokenBalances, len(balances))
		for addr, amount := range balances {
			tb[addr] = amount
		}
		res[token] = tb
	}
	return res
}
