// File: cmd/screenshot.go
package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newScreenshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "screenshot",
		Short:   "Capture the current viewport and print the file path",
		Example: "  browserctl screenshot",
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv := begin(cmd, actionBudget)
			return inv.end(runScreenshot(inv, cmd.OutOrStdout(), time.Now()))
		},
	}
}

// screenshotPath names the capture after now in the temp directory, with the
// separators of the ISO timestamp made filename safe.
func screenshotPath(now time.Time) string {
	stamp := now.UTC().Format("2006-01-02T15:04:05.000Z")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return filepath.Join(os.TempDir(), "screenshot-"+stamp+".png")
}

func runScreenshot(inv *invocation, out io.Writer, now time.Time) error {
	client, page, err := inv.activePage()
	if err != nil {
		return err
	}
	defer client.Disconnect()

	buf, err := page.Screenshot(inv.ctx)
	if err != nil {
		return failed("Screenshot failed", err)
	}
	path := screenshotPath(now)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return failed("Screenshot failed", err)
	}
	fmt.Fprintln(out, path)
	return nil
}
