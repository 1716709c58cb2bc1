// internal/browser/browsertest/chrome.go
package browsertest

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"strconv"
	"testing"

	"github.com/chromedp/chromedp"
)

// ChromeEnv overrides the Chrome binary used by browser tests.
const ChromeEnv = "BROWSERCTL_TEST_CHROME"

// StartChrome launches a headless Chrome with remote debugging on a free port
// and returns its http://127.0.0.1:PORT endpoint. The test is skipped when no
// Chrome binary can be found or in -short mode. Chrome is stopped on cleanup.
func StartChrome(t testing.TB) string {
	t.Helper()
	if testing.Short() {
		t.Skip("browser tests are skipped in -short mode")
	}

	port := freePort(t)
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("remote-debugging-port", strconv.Itoa(port)),
		chromedp.NoSandbox,
		chromedp.UserDataDir(t.TempDir()),
	)
	if path := os.Getenv(ChromeEnv); path != "" {
		opts = append(opts, chromedp.ExecPath(path))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	// The first Run starts the process; it must not carry a deadline.
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		cancelAlloc()
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			t.Skipf("Chrome not available (set %s to point at a binary): %v", ChromeEnv, err)
		}
		t.Fatalf("Failed to start Chrome: %v", err)
	}

	t.Cleanup(func() {
		cancel()
		cancelAlloc()
	})
	return "http://127.0.0.1:" + strconv.Itoa(port)
}

// Serve starts an HTTP server answering every request with page.
func Serve(t testing.TB, page string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func freePort(t testing.TB) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to reserve a port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}
