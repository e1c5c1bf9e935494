package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/alphabill-org/pregenesis/genesis"
	"github.com/alphabill-org/pregenesis/network"
	"github.com/alphabill-org/pregenesis/types"
	"github.com/alphabill-org/pregenesis/util"
	"github.com/alphabill-org/pregenesis/wallet"
)

const (
	walletDirCmdName = "wallet-dir"
	passwordCmdName  = "password"
	mnemonicCmdName  = "mnemonic"
)

func newWalletCmd(config *baseConfiguration) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "wallet",
		Short: "manage the pre-genesis wallet",
	}
	addWalletFlags(cmd.PersistentFlags())
	cmd.AddCommand(newWalletInitCmd(config))
	cmd.AddCommand(newWalletAddKeyCmd(config))
	cmd.AddCommand(newWalletListCmd(config))
	cmd.AddCommand(newWalletGenValidatorKeysCmd(config))
	return cmd
}

func addWalletFlags(flags *pflag.FlagSet) {
	flags.StringP(walletDirCmdName, "w", "", fmt.Sprintf("wallet directory (default is $PG_HOME/%s)", defaultWalletDir))
	flags.StringP(passwordCmdName, "p", "", "wallet password, prompted when not set")
}

func newWalletInitCmd(config *baseConfiguration) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "init",
		Short: "creates new wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			return walletInit(cmd, config)
		},
	}
	cmd.Flags().StringP(mnemonicCmdName, "m", "", "mnemonic to restore the wallet from, new mnemonic is generated when not set")
	return cmd
}

func walletInit(cmd *cobra.Command, config *baseConfiguration) error {
	dir, err := walletDir(cmd, config)
	if err != nil {
		return err
	}
	if util.FileExists(filepath.Join(dir, wallet.FileName)) {
		return fmt.Errorf("%w in %s", wallet.ErrWalletExists, dir)
	}
	mnemonic, err := cmd.Flags().GetString(mnemonicCmdName)
	if err != nil {
		return err
	}
	password, err := createPassphrase(cmd)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating wallet directory: %w", err)
	}
	db, err := wallet.OpenDB(dir)
	if err != nil {
		return fmt.Errorf("opening wallet database: %w", err)
	}
	w, err := wallet.Create(db, password, mnemonic, config.logger)
	if err != nil {
		return errors.Join(fmt.Errorf("creating wallet: %w", err), db.Close(), os.Remove(filepath.Join(dir, wallet.FileName)))
	}
	defer w.Close()

	if mnemonic == "" {
		if mnemonic, err = w.Mnemonic(); err != nil {
			return err
		}
		consoleWriter.Println("The following mnemonic key can be used to recover your wallet. Please write it down now, and keep it in a safe, offline place.")
		consoleWriter.Println("mnemonic key: " + mnemonic)
	}
	keys, err := w.Keys()
	if err != nil {
		return err
	}
	consoleWriter.Println(fmt.Sprintf("Wallet created in %s", dir))
	printKey(keys[0])
	return nil
}

func newWalletAddKeyCmd(config *baseConfiguration) *cobra.Command {
	return &cobra.Command{
		Use:   "add-key",
		Short: "derives the next key of the wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := loadWallet(cmd, config)
			if err != nil {
				return err
			}
			defer w.Close()

			key, err := w.AddKey()
			if err != nil {
				return fmt.Errorf("adding key: %w", err)
			}
			printKey(key)
			return nil
		},
	}
}

func newWalletListCmd(config *baseConfiguration) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "lists the public keys of the wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := loadWallet(cmd, config)
			if err != nil {
				return err
			}
			defer w.Close()

			keys, err := w.Keys()
			if err != nil {
				return err
			}
			for _, k := range keys {
				printKey(k)
			}
			return nil
		},
	}
}

func newWalletGenValidatorKeysCmd(config *baseConfiguration) *cobra.Command {
	return &cobra.Command{
		Use:   "gen-validator-keys",
		Short: "generates the consensus, protocol, node and ethereum bridge keys of the validator",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := loadWallet(cmd, config)
			if err != nil {
				return err
			}
			defer w.Close()

			_, pks, err := w.GenerateValidatorKeys()
			if err != nil {
				return fmt.Errorf("generating validator keys: %w", err)
			}
			return printValidatorKeys(pks)
		},
	}
}

func printKey(key *wallet.AccountKey) {
	consoleWriter.Println(fmt.Sprintf("#%d %s (%s)", key.Index, key.PubKey, key.DerivationPath))
}

func printValidatorKeys(pks *genesis.ValidatorPublicKeys) error {
	nodeID, err := network.NodeID(pks.TendermintNode)
	if err != nil {
		return err
	}
	for _, k := range []struct {
		role string
		pk   types.PublicKey
	}{
		{"consensus key", pks.Consensus},
		{"protocol key", pks.Protocol},
		{"tendermint node key", pks.TendermintNode},
		{"eth hot key", pks.EthHot},
		{"eth cold key", pks.EthCold},
	} {
		consoleWriter.Println(fmt.Sprintf("%s: %s", k.role, k.pk))
	}
	consoleWriter.Println(fmt.Sprintf("node ID: %s", nodeID))
	return nil
}

func walletDir(cmd *cobra.Command, config *baseConfiguration) (string, error) {
	dir, err := cmd.Flags().GetString(walletDirCmdName)
	if err != nil {
		return "", err
	}
	if dir == "" {
		return config.defaultWalletDir(), nil
	}
	return dir, nil
}

// loadWallet opens existing wallet, the caller must close it.
func loadWallet(cmd *cobra.Command, config *baseConfiguration) (*wallet.Wallet, error) {
	dir, err := walletDir(cmd, config)
	if err != nil {
		return nil, err
	}
	if !util.FileExists(filepath.Join(dir, wallet.FileName)) {
		return nil, fmt.Errorf("%w in %s, create it with the 'wallet init' command", wallet.ErrWalletNotFound, dir)
	}
	password, err := getPassphrase(cmd, "Enter wallet password: ")
	if err != nil {
		return nil, err
	}
	db, err := wallet.OpenDB(dir)
	if err != nil {
		return nil, fmt.Errorf("opening wallet database: %w", err)
	}
	w, err := wallet.Open(db, password, config.logger)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("opening wallet: %w", err), db.Close())
	}
	return w, nil
}

func createPassphrase(cmd *cobra.Command) (string, error) {
	password, err := cmd.Flags().GetString(passwordCmdName)
	if err != nil {
		return "", err
	}
	if password != "" {
		return password, nil
	}
	p1, err := readPassword("Create new password: ")
	if err != nil {
		return "", err
	}
	p2, err := readPassword("Confirm password: ")
	if err != nil {
		return "", err
	}
	if p1 != p2 {
		return "", errors.New("passwords do not match")
	}
	return p1, nil
}

func getPassphrase(cmd *cobra.Command, promptMessage string) (string, error) {
	password, err := cmd.Flags().GetString(passwordCmdName)
	if err != nil {
		return "", err
	}
	if password != "" {
		return password, nil
	}
	return readPassword(promptMessage)
}

func readPassword(promptMessage string) (string, error) {
	consoleWriter.Print(promptMessage)
	passwordBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	consoleWriter.Println("") // line break after reading password
	return string(passwordBytes), nil
}
