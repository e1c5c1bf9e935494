package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alphabill-org/pregenesis/genesis"
	"github.com/alphabill-org/pregenesis/wallet"
)

type signTxsConfig struct {
	Base       *baseConfiguration
	InputFiles []string
	OutputFile string
}

func newSignGenesisTxsCmd(baseConfig *baseConfiguration) *cobra.Command {
	config := &signTxsConfig{Base: baseConfig}
	var cmd = &cobra.Command{
		Use:   "sign-genesis-txs",
		Short: "signs the genesis transactions with the keys of the wallet",
		Long: `Signs the genesis transactions with the keys of the wallet. Input can be unsigned
transactions or already signed transactions, in the latter case signatures of the
wallet's keys are added to the bonds (multisig accounts). When multiple files are
given their transactions are merged into single output file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return signGenesisTxs(cmd, config)
		},
	}
	addWalletFlags(cmd.Flags())
	cmd.Flags().StringSliceVar(&config.InputFiles, pathCmdName, nil, "path to the transactions file(s) (TOML)")
	cmd.Flags().StringVarP(&config.OutputFile, outputCmdName, "o", "", "file to write the signed transactions into, defaults to the input file when there is single input file")
	_ = cmd.MarkFlagRequired(pathCmdName)
	return cmd
}

func signGenesisTxs(cmd *cobra.Command, config *signTxsConfig) error {
	output := config.OutputFile
	if output == "" {
		if len(config.InputFiles) != 1 {
			return fmt.Errorf("output file must be set when signing multiple files")
		}
		output = config.InputFiles[0]
	}
	docs := make([][]byte, len(config.InputFiles))
	for i, f := range config.InputFiles {
		// #nosec G304
		data, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("reading transactions: %w", err)
		}
		docs[i] = data
	}

	w, err := loadWallet(cmd, config.Base)
	if err != nil {
		return err
	}
	defer w.Close()

	var signed *genesis.Transactions
	if unsigned, uerr := parseUnsigned(docs); uerr == nil {
		if signed, err = signUnsigned(unsigned, w); err != nil {
			return err
		}
	} else {
		if signed, err = parseSigned(docs); err != nil {
			return errors.Join(uerr, err)
		}
		if err := signed.SignBonds(w); err != nil {
			return fmt.Errorf("signing bonds: %w", err)
		}
	}

	if err := writeDocument(output, signed); err != nil {
		return err
	}
	consoleWriter.Println(fmt.Sprintf("Signed transactions written to %s", output))
	return nil
}

func parseUnsigned(docs [][]byte) (*genesis.UnsignedTransactions, error) {
	res := &genesis.UnsignedTransactions{}
	for _, data := range docs {
		txs, err := genesis.ParseUnsigned(data)
		if err != nil {
			return nil, err
		}
		res.Merge(txs)
	}
	return res, nil
}

func parseSigned(docs [][]byte) (*genesis.Transactions, error) {
	res := &genesis.Transactions{}
	for _, data := range docs {
		txs, err := genesis.ParseTransactions(data)
		if err != nil {
			return nil, err
		}
		res.Merge(txs)
	}
	return res, nil
}

func signUnsigned(unsigned *genesis.UnsignedTransactions, w *wallet.Wallet) (*genesis.Transactions, error) {
	var validatorKeys *genesis.ValidatorKeys
	if len(unsigned.ValidatorAccount) > 0 {
		var err error
		if validatorKeys, _, err = w.ValidatorKeys(); err != nil {
			return nil, fmt.Errorf("loading validator keys: %w", err)
		}
	}
	signed, err := genesis.SignTxs(unsigned, w, validatorKeys)
	if err != nil {
		return nil, fmt.Errorf("signing transactions: %w", err)
	}
	return signed, nil
}
