// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/browserctl/internal/browser"
	"github.com/xkilldash9x/browserctl/internal/config"
	"github.com/xkilldash9x/browserctl/internal/observability"
)

type contextKey string

const configKey contextKey = "config"

var (
	cfgFile string
	// Allows mocking os.Exit in tests.
	osExit = os.Exit
	// Allows feeding evaluate code in tests.
	stdin io.Reader = os.Stdin
)

// errUsage marks a call without the required arguments. Usage has already
// been printed, so no error line follows.
var errUsage = errors.New("usage")

// NewRootCommand returns a fully wired root command.
func NewRootCommand() *cobra.Command {
	return newRootCmd()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browserctl",
		Short: "Drive an already running Chrome over the DevTools protocol.",
		Long: `browserctl drives a Chrome instance with remote debugging enabled.

Each subcommand connects, acts on the active tab and exits. Results go to
stdout; failures print {"error": "..."} to stderr and exit 1.`,
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.SetDefaults(v)

			if err := initializeConfig(cmd, v); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				return err
			}

			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Debug("Configuration loaded.", zap.String("version", Version))

			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./browserctl.yaml or ~/.config/browserctl/browserctl.yaml)")
	cmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	// Help goes to stderr so stdout only ever carries results.
	defaultHelp := cmd.HelpFunc()
	cmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		c.SetOut(c.ErrOrStderr())
		defaultHelp(c, args)
	})

	cmd.AddCommand(
		newStartCmd(),
		newNavigateCmd(),
		newClickCmd(),
		newTypeCmd(),
		newUploadCmd(),
		newEvaluateCmd(),
		newScreenshotCmd(),
		newCookiesCmd(),
		newContentCmd(),
		newSearchCmd(),
		newPickCmd(),
	)
	return cmd
}

// Execute runs the root command. Failures are written to stderr as a single
// JSON line and returned so main can pick the exit code.
func Execute(ctx context.Context) error {
	return execute(ctx, nil, os.Stdout, os.Stderr)
}

// execute runs args, or the process arguments when args is nil.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCmd()
	root.SetOut(stdout)
	root.SetErr(stderr)
	if args != nil {
		root.SetArgs(args)
	}
	err := root.ExecuteContext(ctx)
	defer observability.Sync()
	if err == nil {
		return nil
	}
	if !errors.Is(err, errUsage) {
		writeError(stderr, err.Error())
		observability.GetLogger().Debug("Exiting with error.",
			zap.String("error_kind", browser.Kind(err)),
			zap.Error(err))
	}
	return err
}

// initializeConfig reads in config file and ENV variables if set.
func initializeConfig(cmd *cobra.Command, v *viper.Viper) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "browserctl"))
		}
		v.SetConfigName("browserctl")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("BROWSERCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars
	}
	return nil
}

// getConfig returns the configuration loaded by the root command, or the
// defaults when the pre-run hook did not run.
func getConfig(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok && cfg != nil {
		return cfg
	}
	return config.NewDefaultConfig()
}

// requireArgs prints usage to stderr and fails when fewer than n positional
// arguments are given.
func requireArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < n {
			fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
			return errUsage
		}
		return nil
	}
}

// noArgs rejects positional arguments for subcommands that take none.
func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return browser.InvalidArgument("Unknown argument: %s", args[0])
	}
	return nil
}
