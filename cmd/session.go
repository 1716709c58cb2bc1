// File: cmd/session.go
package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/browserctl/internal/browser"
	"github.com/xkilldash9x/browserctl/internal/config"
	"github.com/xkilldash9x/browserctl/internal/observability"
)

// invocation carries what every browser subcommand needs.
type invocation struct {
	ctx    context.Context
	cfg    *config.Config
	logger *zap.Logger
	stop   func()
}

// begin loads config, arms the process deadline and returns a logger tagged
// with the subcommand name and a fresh invocation id.
func begin(cmd *cobra.Command, budget func(config.TimeoutsConfig) time.Duration) *invocation {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := getConfig(ctx)
	inv := &invocation{
		ctx:    ctx,
		cfg:    cfg,
		logger: observability.ForInvocation(cmd.Name()),
		stop:   func() {},
	}
	if budget != nil {
		inv.stop = startDeadline(cmd.ErrOrStderr(), budget(cfg.Timeouts))
	}
	inv.logger.Info("Command started.")
	return inv
}

// end disarms the deadline and logs the outcome.
func (inv *invocation) end(err error) error {
	inv.stop()
	if err != nil {
		inv.logger.Warn("Command failed.", zap.String("error_kind", browser.Kind(err)), zap.Error(err))
	} else {
		inv.logger.Info("Command finished.")
	}
	return err
}

// connect attaches to the configured browser.
func (inv *invocation) connect() (*browser.Client, error) {
	return browser.Connect(inv.ctx, inv.cfg.Browser.URL, inv.cfg.Browser.ConnectTimeout, inv.logger)
}

// activePage connects and attaches to the active tab. The caller must call
// Disconnect on the returned client.
func (inv *invocation) activePage() (*browser.Client, *browser.Page, error) {
	client, err := inv.connect()
	if err != nil {
		return nil, nil, err
	}
	page, err := client.ActivePage(inv.ctx)
	if err != nil {
		client.Disconnect()
		return nil, nil, err
	}
	return client, page, nil
}

func actionBudget(t config.TimeoutsConfig) time.Duration { return t.Action }
func searchBudget(t config.TimeoutsConfig) time.Duration { return t.Search }
func pickBudget(t config.TimeoutsConfig) time.Duration   { return t.Pick }
