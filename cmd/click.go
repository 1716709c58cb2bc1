// File: cmd/click.go
package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/browserctl/internal/probe"
)

func newClickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "click <selector>",
		Short: "Click an element by CSS selector",
		Long: `Click an element by CSS selector. Auto-waits for the element to be:
- Present in DOM
- Visible (not hidden)
- Enabled (not disabled)`,
		Example: `  browserctl click "#submit"
  browserctl click "button.login"
  browserctl click "[data-testid='save']"`,
		Args: requireArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv := begin(cmd, actionBudget)
			return inv.end(runClick(inv, cmd.OutOrStdout(), strings.Join(args, " ")))
		},
	}
}

func runClick(inv *invocation, out io.Writer, selector string) error {
	client, page, err := inv.activePage()
	if err != nil {
		return err
	}
	defer client.Disconnect()

	el, err := page.WaitForElement(inv.ctx, probeSpec(inv, selector))
	if err != nil {
		return failed("Click failed", err)
	}
	if err := el.Click(inv.ctx); err != nil {
		return failed("Click failed", err)
	}
	fmt.Fprintf(out, "Clicked: %s\n", selector)
	return nil
}

// probeSpec is the default visible-and-enabled wait with configured timing.
func probeSpec(inv *invocation, selector string) probe.WaitSpec {
	spec := probe.DefaultSpec(selector)
	spec.Timeout = inv.cfg.Probe.Timeout
	spec.PollInterval = inv.cfg.Probe.PollInterval
	return spec
}
