// File: cmd/type.go
package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newTypeCmd() *cobra.Command {
	var clear bool
	cmd := &cobra.Command{
		Use:   "type <selector> <text>",
		Short: "Type text into an input element",
		Long: `Type text into an input element. Auto-waits for the element.
Works with framework-controlled inputs.`,
		Example: `  browserctl type "#email" "user@example.com"
  browserctl type "textarea.description" "Long text here"
  browserctl type "#search" "query" --clear`,
		Args: requireArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv := begin(cmd, actionBudget)
			return inv.end(runType(inv, cmd.OutOrStdout(), args[0], strings.Join(args[1:], " "), clear))
		},
	}
	cmd.Flags().BoolVar(&clear, "clear", false, "Clear existing value before typing")
	return cmd
}

func runType(inv *invocation, out io.Writer, selector, text string, clear bool) error {
	client, page, err := inv.activePage()
	if err != nil {
		return err
	}
	defer client.Disconnect()

	el, err := page.WaitForElement(inv.ctx, probeSpec(inv, selector))
	if err != nil {
		return failed("Type failed", err)
	}
	if err := el.Type(inv.ctx, text, clear); err != nil {
		return failed("Type failed", err)
	}
	fmt.Fprintf(out, "Typed into: %s\n", selector)
	return nil
}
