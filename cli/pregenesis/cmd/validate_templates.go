package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/alphabill-org/pregenesis/genesis"
	"github.com/alphabill-org/pregenesis/genesis/templates"
	"github.com/alphabill-org/pregenesis/logger"
	"github.com/alphabill-org/pregenesis/network"
	"github.com/alphabill-org/pregenesis/pos"
	"github.com/alphabill-org/pregenesis/types"
)

const (
	templatesDirCmdName = "templates-dir"
	vpsCmdName          = "vps"
	balancesCmdName     = "balances"
	parametersCmdName   = "parameters"
	vpWasmDirCmdName    = "vp-wasm-dir"
)

var errInvalidGenesis = errors.New("genesis transactions are invalid")

type validateTemplatesConfig struct {
	Base           *baseConfiguration
	TxFiles        []string
	TemplatesDir   string
	VPsFile        string
	BalancesFile   string
	ParametersFile string
	VPWasmDir      string
}

func newValidateGenesisTemplatesCmd(baseConfig *baseConfiguration) *cobra.Command {
	config := &validateTemplatesConfig{Base: baseConfig}
	var cmd = &cobra.Command{
		Use:   "validate-genesis-templates",
		Short: "validates the signed genesis transactions against the genesis templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateGenesisTemplates(cmd.Context(), config)
		},
	}
	cmd.Flags().StringSliceVar(&config.TxFiles, pathCmdName, nil, "signed transactions file(s), transactions of all the files are merged")
	cmd.Flags().StringVar(&config.TemplatesDir, templatesDirCmdName, ".", "directory of the template files")
	cmd.Flags().StringVar(&config.VPsFile, vpsCmdName, "", fmt.Sprintf("validity predicates file (default is %s in the templates dir)", templates.ValidityPredicatesFileName))
	cmd.Flags().StringVar(&config.BalancesFile, balancesCmdName, "", fmt.Sprintf("balances file (default is %s in the templates dir)", templates.BalancesFileName))
	cmd.Flags().StringVar(&config.ParametersFile, parametersCmdName, "", fmt.Sprintf("chain parameters file (default is %s in the templates dir)", templates.ParametersFileName))
	cmd.Flags().StringVar(&config.VPWasmDir, vpWasmDirCmdName, "", "when set the wasm code of the validity predicates is loaded from the directory and verified")
	_ = cmd.MarkFlagRequired(pathCmdName)
	return cmd
}

func (c *validateTemplatesConfig) templateFile(flagValue, name string) string {
	if flagValue != "" {
		return flagValue
	}
	return filepath.Join(c.TemplatesDir, name)
}

func (c *validateTemplatesConfig) loadTemplates(ctx context.Context) (*templates.All, error) {
	vps, err := templates.LoadValidityPredicates(c.templateFile(c.VPsFile, templates.ValidityPredicatesFileName))
	if err != nil {
		return nil, fmt.Errorf("loading validity predicates: %w", err)
	}
	balances, err := templates.LoadBalances(c.templateFile(c.BalancesFile, templates.BalancesFileName))
	if err != nil {
		return nil, fmt.Errorf("loading balances: %w", err)
	}
	params, err := templates.LoadParameters(c.templateFile(c.ParametersFile, templates.ParametersFileName))
	if err != nil {
		return nil, fmt.Errorf("loading parameters: %w", err)
	}
	all := &templates.All{ValidityPredicates: vps, Balances: balances, Parameters: params}
	if err := all.Validate(); err != nil {
		return nil, fmt.Errorf("invalid templates: %w", err)
	}
	if c.VPWasmDir != "" {
		if err := vps.VerifyCode(ctx, c.VPWasmDir); err != nil {
			return nil, fmt.Errorf("verifying validity predicates code: %w", err)
		}
	}
	return all, nil
}

func (c *validateTemplatesConfig) loadTransactions() (*genesis.Transactions, error) {
	txs := &genesis.Transactions{}
	for _, f := range c.TxFiles {
		t, err := genesis.LoadTransactions(f)
		if err != nil {
			return nil, fmt.Errorf("loading transactions: %w", err)
		}
		txs.Merge(t)
	}
	return txs, nil
}

func validateGenesisTemplates(ctx context.Context, config *validateTemplatesConfig) error {
	log := config.Base.logger
	all, err := config.loadTemplates(ctx)
	if err != nil {
		return err
	}
	txs, err := config.loadTransactions()
	if err != nil {
		return err
	}
	log.Debug(fmt.Sprintf("validating %d established accounts, %d validator accounts and %d bonds",
		len(txs.EstablishedAccount), len(txs.ValidatorAccount), len(txs.Bond)))

	validated, err := genesis.Validate(ctx, txs,
		genesis.WithValidityPredicates(all.ValidityPredicates),
		genesis.WithBalances(all.Balances),
		genesis.WithParameters(all.Parameters),
		genesis.WithLogger(log),
	)
	if err != nil {
		txErrs := txErrors(err)
		if len(txErrs) == 0 {
			return err
		}
		if err := printTxErrors(txErrs); err != nil {
			return err
		}
		return fmt.Errorf("%w: %d problem(s) found", errInvalidGenesis, len(txErrs))
	}

	if !validated.HasAtLeastOneValidator() {
		return fmt.Errorf("%w: there are no validator accounts", errInvalidGenesis)
	}
	ok, err := validated.HasValidatorWithPositiveVotingPower(all.Parameters.PosParams.TmVotesPerToken)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: no validator has positive voting power", errInvalidGenesis)
	}
	if err := printValidators(validated, all.Parameters.PosParams); err != nil {
		return err
	}
	log.Debug("balances after bonds", logger.Data(validated.Balances))
	consoleWriter.Println("Genesis transactions are valid")
	return nil
}

// txErrors extracts the transaction diagnostics from the error returned by genesis.Validate.
func txErrors(err error) []*genesis.TxError {
	var errs []error
	if je, ok := err.(interface{ Unwrap() []error }); ok {
		errs = je.Unwrap()
	} else {
		errs = []error{err}
	}
	var res []*genesis.TxError
	for _, e := range errs {
		var txErr *genesis.TxError
		if errors.As(e, &txErr) {
			res = append(res, txErr)
		}
	}
	return res
}

func printTxErrors(txErrs []*genesis.TxError) error {
	sb := &strings.Builder{}
	table := tablewriter.NewWriter(sb)
	table.Header("Section", "Index", "Problem")
	for _, e := range txErrs {
		idx := strconv.Itoa(e.Index)
		if e.Index < 0 {
			// problem of the whole section
			idx = "-"
		}
		if err := table.Append([]string{string(e.Section), idx, e.Err.Error()}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	consoleWriter.Print(sb.String())
	return nil
}

func printValidators(txs *genesis.ValidatedTransactions, params pos.Params) error {
	stakes, err := txs.ValidatorStakes()
	if err != nil {
		return err
	}
	sb := &strings.Builder{}
	table := tablewriter.NewWriter(sb)
	table.Header("Address", "Stake", "Voting power", "Node ID")
	for _, v := range txs.ValidatorAccount {
		stake := stakes[v.Address]
		power, err := pos.IntoVotingPower(params.TmVotesPerToken, stake)
		if err != nil {
			return err
		}
		nodeID, err := network.NodeID(v.TendermintNodeKey.PK)
		if err != nil {
			return err
		}
		if err := table.Append([]string{v.Address.String(), types.NewDenominatedAmount(stake, types.NativeMaxDecimalPlaces).String(), strconv.FormatInt(power, 10), nodeID.String()}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	consoleWriter.Print(sb.String())
	return nil
}
