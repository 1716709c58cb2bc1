// File: cmd/navigate.go
package cmd

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/browserctl/internal/browser"
)

func newNavigateCmd() *cobra.Command {
	var newTab bool
	cmd := &cobra.Command{
		Use:   "navigate <url>",
		Short: "Navigate the active tab, or a new tab, to a URL",
		Example: `  browserctl navigate https://example.com        # Navigate current tab
  browserctl navigate https://example.com --new  # Open in new tab`,
		Args: requireArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := args[0]
			if err := validateURL(target); err != nil {
				return err
			}
			inv := begin(cmd, actionBudget)
			return inv.end(runNavigate(inv, cmd.OutOrStdout(), target, newTab))
		},
	}
	cmd.Flags().BoolVar(&newTab, "new", false, "Open URL in a new tab instead of current tab")
	return cmd
}

// validateURL accepts any absolute URL.
func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return browser.InvalidArgument("Invalid URL: %s", raw)
	}
	return nil
}

func runNavigate(inv *invocation, out io.Writer, target string, newTab bool) error {
	client, err := inv.connect()
	if err != nil {
		return err
	}
	defer client.Disconnect()

	var page *browser.Page
	if newTab {
		page, err = client.NewPage(inv.ctx)
	} else {
		page, err = client.ActivePage(inv.ctx)
	}
	if err != nil {
		return err
	}

	navCtx, cancel := context.WithTimeout(inv.ctx, inv.cfg.Timeouts.Navigation)
	defer cancel()
	if err := page.Navigate(navCtx, target); err != nil {
		return failed("Navigation failed", err)
	}

	if newTab {
		fmt.Fprintf(out, "Opened: %s\n", target)
	} else {
		fmt.Fprintf(out, "Navigated to: %s\n", target)
	}
	return nil
}
