// File: cmd/search.go
package cmd

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/browserctl/internal/browser"
	"github.com/xkilldash9x/browserctl/internal/extract"
	"github.com/xkilldash9x/browserctl/internal/search"
)

func newSearchCmd() *cobra.Command {
	var (
		num         int
		withContent bool
	)
	cmd := &cobra.Command{
		Use:   `search "<query>"`,
		Short: "Search Google and print the results as JSON",
		Example: `  browserctl search "rust programming"
  browserctl search "climate change" -n 10
  browserctl search "machine learning" -n 3 --content`,
		Args: requireArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return browser.InvalidArgument("Search query is required")
			}
			inv := begin(cmd, searchBudget)
			if !cmd.Flags().Changed("num") {
				num = inv.cfg.Search.DefaultResults
			}
			if num < 1 {
				return inv.end(browser.InvalidArgument("Invalid number of results"))
			}
			return inv.end(runSearch(inv, cmd.OutOrStdout(), query, num, withContent))
		},
	}
	cmd.Flags().IntVarP(&num, "num", "n", 5, "Number of results")
	cmd.Flags().BoolVar(&withContent, "content", false, "Fetch readable content from each result")
	return cmd
}

func runSearch(inv *invocation, out io.Writer, query string, num int, withContent bool) error {
	client, page, err := inv.activePage()
	if err != nil {
		return err
	}
	defer client.Disconnect()

	s := search.New(page, extract.New(inv.logger), inv.cfg.Search, inv.logger)
	return printSearch(inv.ctx, s, out, query, num, withContent)
}

// printSearch runs the search and prints the result list.
func printSearch(ctx context.Context, s *search.Searcher, out io.Writer, query string, num int, withContent bool) error {
	results, err := s.Search(ctx, query, num, withContent)
	if err != nil {
		return failed("Search failed", err)
	}
	return writeJSON(out, results)
}
