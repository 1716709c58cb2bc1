// File: cmd/pick.go
package cmd

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/browserctl/internal/picker"
)

func newPickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   `pick "<message>"`,
		Short: "Let the user pick elements in the active tab",
		Long: `Interactive element picker. Click to select, Cmd/Ctrl+click for multi-select,
Enter to finish, ESC to cancel. Prints the selected elements as JSON.`,
		Example: `  browserctl pick "Click the submit button"
  browserctl pick "Select the product cards"`,
		Args: requireArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv := begin(cmd, pickBudget)
			return inv.end(runPick(inv, cmd.OutOrStdout(), strings.Join(args, " ")))
		},
	}
}

func runPick(inv *invocation, out io.Writer, message string) error {
	client, page, err := inv.activePage()
	if err != nil {
		return err
	}
	defer client.Disconnect()

	host, err := picker.NewPageHost(page, inv.logger)
	if err != nil {
		return failed("Pick failed", err)
	}
	return printPick(inv.ctx, picker.New(host, inv.logger), inv.logger, out, message)
}

// printPick runs one session and prints its selections: [] when cancelled,
// otherwise the ordered list.
func printPick(ctx context.Context, p *picker.Picker, logger *zap.Logger, out io.Writer, message string) error {
	res, err := p.Pick(ctx, message)
	if err != nil {
		return failed("Pick failed", err)
	}
	logger.Info("Pick finished.", zap.Int("selections", len(res.Selections)))
	return writeJSON(out, res.List())
}
