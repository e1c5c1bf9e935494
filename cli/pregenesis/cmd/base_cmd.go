package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type pregenesisApp struct {
	baseCmd    *cobra.Command
	baseConfig *baseConfiguration
}

// New creates the pre-genesis CLI application.
func New(logF LoggerFactory) *pregenesisApp {
	baseCmd, baseConfig := newBaseCmd(logF)
	return &pregenesisApp{baseCmd, baseConfig}
}

// Execute adds all child commands and runs the application
func (a *pregenesisApp) Execute(ctx context.Context) error {
	return a.addAndExecuteCommand(ctx)
}

func (a *pregenesisApp) addAndExecuteCommand(ctx context.Context) error {
	a.baseCmd.AddCommand(newWalletCmd(a.baseConfig))
	a.baseCmd.AddCommand(newInitEstablishedAccountCmd(a.baseConfig))
	a.baseCmd.AddCommand(newInitGenesisValidatorCmd(a.baseConfig))
	a.baseCmd.AddCommand(newSignGenesisTxsCmd(a.baseConfig))
	a.baseCmd.AddCommand(newValidateGenesisTemplatesCmd(a.baseConfig))
	a.baseCmd.AddCommand(newDeriveAddressCmd(a.baseConfig))
	return a.baseCmd.ExecuteContext(ctx)
}

func newBaseCmd(logF LoggerFactory) (*cobra.Command, *baseConfiguration) {
	config := &baseConfiguration{loggerBuilder: logF}
	var baseCmd = &cobra.Command{
		Use:           "pregenesis",
		Short:         "The pre-genesis CLI",
		Long:          `The pre-genesis CLI includes commands to create, sign and validate the genesis transactions of the chain.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// If subcommand does not define PersistentPreRunE, the one from base cmd is used.
			if err := initializeConfig(cmd, config); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}
			return nil
		},
	}
	config.addConfigurationFlags(baseCmd)

	return baseCmd, config
}

func initializeConfig(cmd *cobra.Command, config *baseConfiguration) error {
	var errs []error

	if err := config.initializeConfig(cmd); err != nil {
		errs = append(errs, fmt.Errorf("reading configuration: %w", err))
	}

	if err := config.initLogger(cmd); err != nil {
		errs = append(errs, fmt.Errorf("initializing logger: %w", err))
	}

	return errors.Join(errs...)
}

// initializeConfig reads in config file and ENV variables if set.
func (config *baseConfiguration) initializeConfig(cmd *cobra.Command) error {
	v := viper.New()

	config.initConfigFileLocation()

	if config.configFileExists() {
		v.SetConfigFile(config.CfgFile)
		v.SetConfigType("props")
	}

	if err := v.ReadInConfig(); err != nil {
		// It's okay if there isn't a config file
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	// flag like --log-level binds to the environment variable PG_LOG_LEVEL
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if err := bindFlags(cmd, v); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	return nil
}

// Bind each cobra flag to its associated viper configuration (config file and environment variable)
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var bindFlagErr []error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Name == keyHome || f.Name == keyConfig {
			// "home" and "config" are special configuration values, handled separately.
			return
		}

		// Environment variables can't have dashes in them
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name, fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				bindFlagErr = append(bindFlagErr, fmt.Errorf("binding env to flag %q: %w", f.Name, err))
				return
			}
		}

		// Apply the viper config value to the flag when the flag is not set and viper has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				bindFlagErr = append(bindFlagErr, fmt.Errorf("setting flag %q value: %w", f.Name, err))
				return
			}
		}
	})

	return errors.Join(bindFlagErr...)
}
