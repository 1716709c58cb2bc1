// File: cmd/output.go
package cmd

import (
	"fmt"
	"io"
	"strconv"
	"time"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/browserctl/internal/observability"
)

// stdoutJSON leaves <, > and & unescaped, as browsers' JSON.stringify does.
var stdoutJSON = json.Config{EscapeHTML: false}.Froze()

// errorLine is the single-line JSON error written to stderr.
type errorLine struct {
	Error string `json:"error"`
}

// writeError writes {"error": msg} to w.
func writeError(w io.Writer, msg string) {
	b, err := stdoutJSON.Marshal(errorLine{Error: msg})
	if err != nil {
		b = []byte(`{"error":"internal error"}`)
	}
	fmt.Fprintln(w, string(b))
}

// writeJSON writes v to w indented by two spaces.
func writeJSON(w io.Writer, v any) error {
	b, err := stdoutJSON.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// failed prefixes err's message with the subcommand's failure label.
func failed(label string, err error) error {
	if err == nil {
		return nil
	}
	return &labeledError{label: label, err: err}
}

type labeledError struct {
	label string
	err   error
}

func (e *labeledError) Error() string { return e.label + ": " + e.err.Error() }

func (e *labeledError) Unwrap() error { return e.err }

// formatSeconds renders d as whole or fractional seconds, e.g. "30s".
func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64) + "s"
}

// startDeadline terminates the process with a timeout error once d elapses,
// whatever the subcommand is doing. The returned stop disarms it.
func startDeadline(w io.Writer, d time.Duration) (stop func()) {
	t := time.AfterFunc(d, func() {
		writeError(w, "Timeout after "+formatSeconds(d))
		observability.Sync()
		osExit(1)
	})
	return func() { t.Stop() }
}
