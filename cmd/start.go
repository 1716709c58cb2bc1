// File: cmd/start.go
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/browserctl/internal/browser"
	"github.com/xkilldash9x/browserctl/internal/launcher"
)

// autoProfile is the --profile value when no name is given.
const autoProfile = "\x00auto"

func newStartCmd() *cobra.Command {
	var (
		profile string
		force   bool
	)
	cmd := &cobra.Command{
		Use:   "start [--profile [name]] [--force]",
		Short: "Launch Chrome with remote debugging, or reuse a running one",
		Long: `Launch Chrome with remote debugging enabled. A running instance started by
browserctl in the same mode is reused. Only that instance is ever restarted;
your everyday browser is left alone.`,
		Example: `  browserctl start                    # Clean session (or reuse existing)
  browserctl start --profile          # Use your Chrome profile (cookies, logins)
  browserctl start --profile "Work"   # Use a specific profile by name
  browserctl start --force            # Force restart`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := startOptions(cmd.Flags().Changed("profile"), profile, force, args)
			if err != nil {
				return err
			}
			inv := begin(cmd, nil)
			return inv.end(runStart(inv, cmd.OutOrStdout(), opts))
		},
	}
	cmd.Flags().StringVar(&profile, "profile", "", "Use your Chrome profile (auto-detects if no name given)")
	cmd.Flags().Lookup("profile").NoOptDefVal = autoProfile
	cmd.Flags().BoolVar(&force, "force", false, "Kill the existing browserctl Chrome and start fresh")
	return cmd
}

// startOptions turns flags into launch options. The profile name may follow
// --profile as a separate argument.
func startOptions(profileSet bool, profile string, force bool, args []string) (launcher.Options, error) {
	opts := launcher.Options{Profile: profileSet, Force: force}
	if profileSet && profile != autoProfile {
		opts.ProfileName = profile
	}
	for _, arg := range args {
		if profileSet && opts.ProfileName == "" {
			opts.ProfileName = arg
			continue
		}
		return launcher.Options{}, browser.InvalidArgument("Unknown option: %s", arg)
	}
	return opts, nil
}

func runStart(inv *invocation, out io.Writer, opts launcher.Options) error {
	outcome, err := launcher.New(inv.cfg, inv.logger).Launch(inv.ctx, opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, outcome.String())
	return nil
}
