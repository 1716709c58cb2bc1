// File: cmd/upload.go
package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/browserctl/internal/browser"
)

const defaultFileInput = `input[type="file"]`

func newUploadCmd() *cobra.Command {
	var selector string
	cmd := &cobra.Command{
		Use:   "upload <file> [file2...]",
		Short: "Upload files to a file input element",
		Long:  "Upload files to a file input element. Auto-waits for the input, which may be hidden.",
		Example: `  browserctl upload ~/document.pdf
  browserctl upload ~/doc.pdf --selector "input#resume"
  browserctl upload file1.pdf file2.pdf`,
		Args: requireArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if selector == "" {
				return browser.InvalidArgument("Missing selector after --selector flag")
			}
			paths, err := resolveUploadPaths(args)
			if err != nil {
				return err
			}
			inv := begin(cmd, actionBudget)
			return inv.end(runUpload(inv, cmd.OutOrStdout(), selector, paths))
		},
	}
	cmd.Flags().StringVar(&selector, "selector", defaultFileInput, "Target a specific file input")
	return cmd
}

// resolveUploadPaths expands ~, makes each path absolute, follows symlinks
// and checks that the file exists.
func resolveUploadPaths(args []string) ([]string, error) {
	resolved := make([]string, 0, len(args))
	for _, arg := range args {
		p, err := homedir.Expand(arg)
		if err != nil {
			return nil, browser.InvalidArgument("File not found: %s", arg)
		}
		if p, err = filepath.Abs(p); err != nil {
			return nil, browser.InvalidArgument("File not found: %s", arg)
		}
		if _, err := os.Stat(p); err != nil {
			return nil, browser.InvalidArgument("File not found: %s", arg)
		}
		if p, err = filepath.EvalSymlinks(p); err != nil {
			return nil, browser.InvalidArgument("File not found: %s", arg)
		}
		resolved = append(resolved, p)
	}
	return resolved, nil
}

func runUpload(inv *invocation, out io.Writer, selector string, paths []string) error {
	client, page, err := inv.activePage()
	if err != nil {
		return err
	}
	defer client.Disconnect()

	spec := probeSpec(inv, selector)
	spec.RequireVisible = false
	el, err := page.WaitForElement(inv.ctx, spec)
	if err != nil {
		return failed("Upload failed", err)
	}
	if err := el.SetFiles(inv.ctx, paths); err != nil {
		return failed("Upload failed", err)
	}

	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	fmt.Fprintf(out, "Uploaded: %s\n", strings.Join(names, ", "))
	return nil
}
