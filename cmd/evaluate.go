// File: cmd/evaluate.go
package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chromedp/cdproto/runtime"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/browserctl/internal/browser"
)

func newEvaluateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "evaluate '<code>'",
		Short: "Execute JavaScript in the active tab",
		Long: `Execute JavaScript in the active tab. Code runs as the body of an async
function, so await is allowed. Code can also come from a file or stdin.`,
		Example: `  browserctl evaluate 'document.title'
  browserctl evaluate -f ./scrape.js
  echo 'document.querySelectorAll("a").length' | browserctl evaluate`,
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := readCode(cmd, args, file)
			if err != nil {
				return err
			}
			inv := begin(cmd, actionBudget)
			return inv.end(runEvaluate(inv, cmd.OutOrStdout(), code))
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read code from file (avoids shell escaping issues)")
	return cmd
}

// readCode picks the code source: --file, then arguments, then piped stdin.
// With none of them it prints usage.
func readCode(cmd *cobra.Command, args []string, file string) (string, error) {
	switch {
	case cmd.Flags().Changed("file"):
		if file == "" {
			return "", browser.InvalidArgument("Missing file path after -f flag")
		}
		b, err := os.ReadFile(file)
		if err != nil {
			return "", browser.InvalidArgument("File not found: %s", file)
		}
		return string(b), nil
	case len(args) > 0:
		return strings.Join(args, " "), nil
	}

	if f, ok := stdin.(*os.File); ok {
		if info, err := f.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
			fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
			return "", errUsage
		}
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	code := strings.TrimSpace(string(b))
	if code == "" {
		return "", browser.InvalidArgument("No code provided via stdin")
	}
	return code, nil
}

// asyncBody wraps code as the returned expression of an async function.
func asyncBody(code string) string {
	return "(async function() { return (" + code + "\n); })()"
}

func runEvaluate(inv *invocation, out io.Writer, code string) error {
	client, page, err := inv.activePage()
	if err != nil {
		return err
	}
	defer client.Disconnect()

	obj, err := page.Evaluate(inv.ctx, asyncBody(code))
	if err != nil {
		return failed("Evaluation failed", err)
	}
	text, err := formatResult(obj)
	if err != nil {
		return failed("Evaluation failed", err)
	}
	fmt.Fprintln(out, text)
	return nil
}

// formatResult renders an evaluation result the way it is printed: undefined
// and null by name, objects as indented JSON in their own key order, and
// everything else in string form.
func formatResult(obj *runtime.RemoteObject) (string, error) {
	if obj == nil || obj.Type == runtime.TypeUndefined {
		return "undefined", nil
	}
	if obj.Subtype == runtime.SubtypeNull {
		return "null", nil
	}
	if obj.UnserializableValue != "" {
		// NaN, Infinity, -0 and BigInt literals.
		v := string(obj.UnserializableValue)
		if obj.Type == runtime.TypeBigint {
			v = strings.TrimSuffix(v, "n")
		}
		return v, nil
	}
	if len(obj.Value) == 0 {
		return "undefined", nil
	}

	switch obj.Type {
	case runtime.TypeObject:
		var buf bytes.Buffer
		if err := json.Indent(&buf, obj.Value, "", "  "); err != nil {
			return "", fmt.Errorf("formatting result: %w", err)
		}
		return buf.String(), nil
	case runtime.TypeString:
		var s string
		if err := json.Unmarshal(obj.Value, &s); err != nil {
			return "", fmt.Errorf("decoding result: %w", err)
		}
		return s, nil
	default:
		return string(obj.Value), nil
	}
}
