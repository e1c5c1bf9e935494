package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alphabill-org/pregenesis/genesis"
	"github.com/alphabill-org/pregenesis/logger"
	"github.com/alphabill-org/pregenesis/network"
	"github.com/alphabill-org/pregenesis/types"
	"github.com/alphabill-org/pregenesis/wallet"
)

const (
	addressCmdName                 = "address"
	commissionRateCmdName          = "commission-rate"
	maxCommissionRateChangeCmdName = "max-commission-rate-change"
	netAddressCmdName              = "net-address"
	selfBondAmountCmdName          = "self-bond-amount"
)

type genesisValidatorConfig struct {
	Base                    *baseConfiguration
	Address                 string
	CommissionRate          string
	MaxCommissionRateChange string
	NetAddress              string
	SelfBondAmount          string
	Metadata                genesis.ValidatorMetadata
	OutputFile              string
}

func newInitGenesisValidatorCmd(baseConfig *baseConfiguration) *cobra.Command {
	config := &genesisValidatorConfig{Base: baseConfig}
	var cmd = &cobra.Command{
		Use:   "init-genesis-validator",
		Short: "creates the unsigned validator account transaction (and the self bond) using the validator keys of the wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initGenesisValidator(cmd, config)
		},
	}
	addWalletFlags(cmd.Flags())
	cmd.Flags().StringVar(&config.Address, addressCmdName, "", "established address of the validator")
	cmd.Flags().StringVar(&config.CommissionRate, commissionRateCmdName, "", "commission rate charged on the rewards of the delegators, decimal in range [0..1]")
	cmd.Flags().StringVar(&config.MaxCommissionRateChange, maxCommissionRateChangeCmdName, "", "max change of the commission rate per epoch, decimal in range [0..1]")
	cmd.Flags().StringVar(&config.NetAddress, netAddressCmdName, "", "IP address and port of the validator node")
	cmd.Flags().StringVar(&config.SelfBondAmount, selfBondAmountCmdName, "0", "amount of native tokens the validator bonds from its own account")
	cmd.Flags().StringVar(&config.Metadata.Email, "email", "", "validator's email")
	cmd.Flags().StringVar(&config.Metadata.Description, "description", "", "validator's description")
	cmd.Flags().StringVar(&config.Metadata.Website, "website", "", "validator's website")
	cmd.Flags().StringVar(&config.Metadata.DiscordHandle, "discord-handle", "", "validator's discord handle")
	cmd.Flags().StringVar(&config.Metadata.Avatar, "avatar", "", "URL of the validator's avatar")
	cmd.Flags().StringVarP(&config.OutputFile, outputCmdName, "o", "", "file to write the transactions into (TOML)")
	for _, name := range []string{addressCmdName, commissionRateCmdName, maxCommissionRateChangeCmdName, netAddressCmdName, "email", outputCmdName} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (c *genesisValidatorConfig) validatorData() (*genesis.ValidatorData, error) {
	var errs []error
	addr, err := types.ParseEstablishedAddress(c.Address)
	if err != nil {
		errs = append(errs, err)
	}
	rate, err := types.ParseDec(c.CommissionRate)
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid commission rate: %w", err))
	}
	maxChange, err := types.ParseDec(c.MaxCommissionRateChange)
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid max commission rate change: %w", err))
	}
	netAddr, err := types.ParseSocketAddr(c.NetAddress)
	if err != nil {
		errs = append(errs, err)
	}
	bond, err := types.ParseDenominatedAmount(c.SelfBondAmount)
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid self bond amount: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &genesis.ValidatorData{
		Address:                 addr,
		CommissionRate:          rate,
		MaxCommissionRateChange: maxChange,
		NetAddress:              netAddr,
		SelfBondAmount:          bond,
		Metadata:                c.Metadata,
	}, nil
}

func initGenesisValidator(cmd *cobra.Command, config *genesisValidatorConfig) error {
	data, err := config.validatorData()
	if err != nil {
		return err
	}

	w, err := loadWallet(cmd, config.Base)
	if err != nil {
		return err
	}
	defer w.Close()

	_, pks, err := w.ValidatorKeys()
	if errors.Is(err, wallet.ErrNoValidatorKeys) {
		config.Base.logger.Info("generating validator keys")
		_, pks, err = w.GenerateValidatorKeys()
	}
	if err != nil {
		return fmt.Errorf("loading validator keys: %w", err)
	}

	unsigned := genesis.InitValidator(data, pks)
	if err := writeDocument(config.OutputFile, unsigned); err != nil {
		return err
	}

	p2pAddr, err := network.P2PAddr(pks.TendermintNode, data.NetAddress)
	if err != nil {
		return err
	}
	config.Base.logger.Debug("validator account transaction created", logger.Address(data.Address))
	if err := printValidatorKeys(pks); err != nil {
		return err
	}
	consoleWriter.Println(fmt.Sprintf("node address: %s", p2pAddr))
	consoleWriter.Println(fmt.Sprintf("Transactions written to %s", config.OutputFile))
	return nil
}
