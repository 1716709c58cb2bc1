// File: cmd/cookies.go
package cmd

import (
	"io"

	"github.com/spf13/cobra"
)

func newCookiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "cookies",
		Short:   "Print all cookies for the current tab, including httpOnly cookies",
		Example: "  browserctl cookies",
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv := begin(cmd, actionBudget)
			return inv.end(runCookies(inv, cmd.OutOrStdout()))
		},
	}
}

func runCookies(inv *invocation, out io.Writer) error {
	client, page, err := inv.activePage()
	if err != nil {
		return err
	}
	defer client.Disconnect()

	cookies, err := page.Cookies(inv.ctx)
	if err != nil {
		return failed("Failed to get cookies", err)
	}
	return writeJSON(out, cookies)
}
