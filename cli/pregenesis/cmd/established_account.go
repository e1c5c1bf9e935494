package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alphabill-org/pregenesis/genesis"
	"github.com/alphabill-org/pregenesis/logger"
	"github.com/alphabill-org/pregenesis/types"
)

const (
	vpCmdName         = "vp"
	thresholdCmdName  = "threshold"
	publicKeysCmdName = "public-keys"
	outputCmdName     = "output"
	pathCmdName       = "path"

	defaultAccountVP = "vp_user"
)

type establishedAccountConfig struct {
	Base       *baseConfiguration
	VP         string
	Threshold  uint8
	PublicKeys []string
	OutputFile string
}

func newInitEstablishedAccountCmd(baseConfig *baseConfiguration) *cobra.Command {
	config := &establishedAccountConfig{Base: baseConfig}
	var cmd = &cobra.Command{
		Use:   "init-established-account",
		Short: "creates the unsigned transaction declaring an established account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initEstablishedAccount(config)
		},
	}
	cmd.Flags().StringVar(&config.VP, vpCmdName, defaultAccountVP, "name of the validity predicate of the account")
	cmd.Flags().Uint8Var(&config.Threshold, thresholdCmdName, genesis.DefaultThreshold, "number of signatures required to authorize transactions of the account")
	cmd.Flags().StringSliceVar(&config.PublicKeys, publicKeysCmdName, nil, "public keys (hex) of the account")
	cmd.Flags().StringVarP(&config.OutputFile, outputCmdName, "o", "", "file to write the transaction into (TOML)")
	_ = cmd.MarkFlagRequired(publicKeysCmdName)
	_ = cmd.MarkFlagRequired(outputCmdName)
	return cmd
}

func initEstablishedAccount(config *establishedAccountConfig) error {
	pks := make([]types.PublicKey, len(config.PublicKeys))
	for i, s := range config.PublicKeys {
		pk, err := types.ParsePublicKey(s)
		if err != nil {
			return err
		}
		pks[i] = pk
	}
	if int(config.Threshold) > len(pks) || config.Threshold == 0 {
		return fmt.Errorf("invalid threshold %d for %d public keys", config.Threshold, len(pks))
	}

	addr, txs, err := genesis.InitEstablishedAccount(config.VP, pks, config.Threshold)
	if err != nil {
		return err
	}
	unsigned := &genesis.UnsignedTransactions{EstablishedAccount: txs.EstablishedAccount}
	if err := writeDocument(config.OutputFile, unsigned); err != nil {
		return err
	}
	config.Base.logger.Debug("established account transaction created", logger.Address(addr))
	consoleWriter.Println(fmt.Sprintf("Established account address: %s", addr))
	consoleWriter.Println(fmt.Sprintf("Transaction written to %s", config.OutputFile))
	return nil
}
