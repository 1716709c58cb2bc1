// File: cmd/content.go
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/browserctl/internal/extract"
)

func newContentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "content <url>",
		Short: "Navigate to a URL and print its readable content as Markdown",
		Example: `  browserctl content https://example.com
  browserctl content "https://en.wikipedia.org/wiki/Rust_(programming_language)"`,
		Args: requireArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateURL(args[0]); err != nil {
				return err
			}
			inv := begin(cmd, actionBudget)
			return inv.end(runContent(inv, cmd.OutOrStdout(), args[0]))
		},
	}
}

func runContent(inv *invocation, out io.Writer, target string) error {
	client, page, err := inv.activePage()
	if err != nil {
		return err
	}
	defer client.Disconnect()

	// A slow page is read as far as it got.
	loadCtx, cancel := context.WithTimeout(inv.ctx, inv.cfg.Timeouts.ContentLoad)
	if err := page.Navigate(loadCtx, target); err != nil {
		inv.logger.Debug("Page did not finish loading.", zap.Error(err))
	}
	cancel()

	html, err := page.DocumentHTML(inv.ctx)
	if err != nil {
		return failed("Content extraction failed", err)
	}
	finalURL, err := page.URL(inv.ctx)
	if err != nil {
		return failed("Content extraction failed", err)
	}

	article, err := extract.New(inv.logger).Content(html, finalURL)
	if err != nil {
		return failed("Content extraction failed", err)
	}
	writeArticle(out, article)
	return nil
}

func writeArticle(out io.Writer, a extract.Article) {
	fmt.Fprintf(out, "URL: %s\n", a.URL)
	if a.Title != "" {
		fmt.Fprintf(out, "Title: %s\n", a.Title)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, a.Markdown)
}
