package genesis

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/alphabill-org/pregenesis/types"
	"github.com/alphabill-org/pregenesis/util"
)

type (
	// threshold is optional in the document, DefaultThreshold is used when it is omitted
	establishedAccountDoc struct {
		Vp         string            `toml:"vp"`
		Threshold  *uint8            `toml:"threshold"`
		PublicKeys []types.PublicKey `toml:"public_keys"`
	}

	unsignedDoc struct {
		EstablishedAccount []establishedAccountDoc      `toml:"established_account"`
		ValidatorAccount   []UnsignedValidatorAccountTx `toml:"validator_account"`
		Bond               []BondTx                     `toml:"bond"`
	}

	signedDoc struct {
		EstablishedAccount []establishedAccountDoc    `toml:"established_account"`
		ValidatorAccount   []SignedValidatorAccountTx `toml:"validator_account"`
		Bond               []SignedBondTx             `toml:"bond"`
	}
)

// ParseUnsigned decodes TOML document of unsigned genesis transactions.
func ParseUnsigned(data []byte) (*UnsignedTransactions, error) {
	doc := &unsignedDoc{}
	if err := util.DecodeToml(data, doc); err != nil {
		return nil, fmt.Errorf("parsing unsigned transactions: %w", err)
	}
	return &UnsignedTransactions{
		EstablishedAccount: establishedAccounts(doc.EstablishedAccount),
		ValidatorAccount:   doc.ValidatorAccount,
		Bond:               doc.Bond,
	}, nil
}

// ParseTransactions decodes TOML document of signed genesis transactions.
func ParseTransactions(data []byte) (*Transactions, error) {
	doc := &signedDoc{}
	if err := util.DecodeToml(data, doc); err != nil {
		return nil, fmt.Errorf("parsing transactions: %w", err)
	}
	return &Transactions{
		EstablishedAccount: establishedAccounts(doc.EstablishedAccount),
		ValidatorAccount:   doc.ValidatorAccount,
		Bond:               doc.Bond,
	}, nil
}

func LoadUnsigned(path string) (*UnsignedTransactions, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	txs, err := ParseUnsigned(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return txs, nil
}

func LoadTransactions(path string) (*Transactions, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	txs, err := ParseTransactions(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return txs, nil
}

// Encode returns the transactions as TOML document.
func (txs *UnsignedTransactions) Encode() ([]byte, error) {
	return toml.Marshal(txs)
}

func (txs *Transactions) Encode() ([]byte, error) {
	return toml.Marshal(txs)
}

func establishedAccounts(docs []establishedAccountDoc) []EstablishedAccountTx {
	if len(docs) == 0 {
		return nil
	}
	txs := make([]EstablishedAccountTx, len(docs))
	for i, d := range docs {
		txs[i] = EstablishedAccountTx{
			Vp:         d.Vp,
			Threshold:  DefaultThreshold,
			PublicKeys: d.PublicKeys,
		}
		if d.Threshold != nil {
			txs[i].Threshold = *d.Threshold
		}
	}
	return txs
}
