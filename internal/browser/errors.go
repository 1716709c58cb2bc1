// internal/browser/errors.go
package browser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/runtime"
	json "github.com/json-iterator/go"
)

// Error taxonomy shared by every subcommand. Failures are wrapped with %w so
// callers can classify them with errors.Is.
var (
	ErrConnection      = errors.New("connection error")
	ErrNoActivePage    = errors.New("No active tab found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrTimeout         = errors.New("timeout")
	ErrExtraction      = errors.New("extraction failed")
	ErrUpload          = errors.New("upload failed")
	ErrNavigation      = errors.New("navigation failed")
	ErrEvaluation      = errors.New("evaluation failed")
)

// ConnectHint is appended to connection failures.
const ConnectHint = "Could not connect to browser. Run: browserctl start"

// connectionError keeps the user-facing hint as the message while still
// matching ErrConnection and exposing the transport cause.
type connectionError struct {
	cause error
}

func (e *connectionError) Error() string { return ConnectHint }

func (e *connectionError) Unwrap() []error { return []error{ErrConnection, e.cause} }

// ExceptionError is a JavaScript exception thrown while evaluating in the page.
type ExceptionError struct {
	Text string
	Line int64
	Col  int64
}

func (e *ExceptionError) Error() string { return e.Text }

func (e *ExceptionError) Unwrap() error { return ErrEvaluation }

// exceptionError converts CDP exception details into an error. Thrown Error
// objects report their message without the class prefix; thrown primitives
// report their value.
func exceptionError(details *runtime.ExceptionDetails) error {
	if details == nil {
		return nil
	}
	text := details.Text
	if exc := details.Exception; exc != nil {
		switch {
		case exc.Description != "":
			text = exc.Description
			// Descriptions include the stack; keep the first line.
			if i := strings.IndexByte(text, '\n'); i >= 0 {
				text = text[:i]
			}
			if exc.ClassName != "" {
				text = strings.TrimPrefix(text, exc.ClassName+": ")
			}
		case len(exc.Value) > 0:
			var s string
			if err := json.Unmarshal(exc.Value, &s); err == nil {
				text = s
			} else {
				text = string(exc.Value)
			}
		}
	}
	if text == "" {
		text = "Uncaught exception"
	}
	return &ExceptionError{Text: text, Line: details.LineNumber, Col: details.ColumnNumber}
}

// Kind names the taxonomy bucket of err for log fields.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConnection):
		return "connection"
	case errors.Is(err, ErrNoActivePage):
		return "no_active_page"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrExtraction):
		return "extraction"
	case errors.Is(err, ErrUpload):
		return "upload"
	case errors.Is(err, ErrNavigation):
		return "navigation"
	case errors.Is(err, ErrEvaluation):
		return "evaluation"
	default:
		return "internal"
	}
}

// InvalidArgument builds an ErrInvalidArgument whose message is exactly msg.
func InvalidArgument(format string, args ...any) error {
	return &plainError{msg: fmt.Sprintf(format, args...), kind: ErrInvalidArgument}
}

// plainError carries a user-facing message without the sentinel's prefix.
type plainError struct {
	msg  string
	kind error
}

func (e *plainError) Error() string { return e.msg }

func (e *plainError) Unwrap() error { return e.kind }

// Wrap tags err with kind while keeping err's message untouched.
func Wrap(kind, err error) error {
	if err == nil {
		return nil
	}
	return &wrappedError{kind: kind, cause: err}
}

type wrappedError struct {
	kind  error
	cause error
}

func (e *wrappedError) Error() string { return e.cause.Error() }

func (e *wrappedError) Unwrap() []error { return []error{e.kind, e.cause} }
