package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alphabill-org/pregenesis/genesis"
)

func newDeriveAddressCmd(baseConfig *baseConfiguration) *cobra.Command {
	var path string
	var cmd = &cobra.Command{
		Use:   "derive-address",
		Short: "prints the addresses of the established accounts in the transactions file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return deriveAddresses(path)
		},
	}
	cmd.Flags().StringVar(&path, pathCmdName, "", "path to the transactions file (signed or unsigned)")
	_ = cmd.MarkFlagRequired(pathCmdName)
	return cmd
}

func deriveAddresses(path string) error {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading transactions: %w", err)
	}
	var accounts []genesis.EstablishedAccountTx
	if unsigned, err := genesis.ParseUnsigned(data); err == nil {
		accounts = unsigned.EstablishedAccount
	} else {
		signed, serr := genesis.ParseTransactions(data)
		if serr != nil {
			return serr
		}
		accounts = signed.EstablishedAccount
	}
	if len(accounts) == 0 {
		consoleWriter.Println("No established accounts found")
		return nil
	}
	for i := range accounts {
		addr, err := accounts[i].DeriveAddress()
		if err != nil {
			return fmt.Errorf("established account %d: %w", i, err)
		}
		consoleWriter.Println(fmt.Sprintf("%d: %s", i, addr))
	}
	return nil
}
