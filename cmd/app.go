package cmd

import (
	"context"
	"errors"

	"github.com/Tiliavir/ghosttrack/internal/outbox"
	"github.com/Tiliavir/ghosttrack/internal/remote"
	"github.com/Tiliavir/ghosttrack/internal/storage"
	"github.com/Tiliavir/ghosttrack/internal/tracker"
)

var errNoRemote = errors.New("remote sync is disabled: set remote.base_url in config.yaml")

// app is the wired stack one command invocation works with.
type app struct {
	local   *storage.Local
	client  *remote.Client
	outbox  *outbox.Outbox
	tracker *tracker.Tracker
}

// openApp opens the configured store and, when a base URL is set, the
// remote client and the outbox that feeds it.
func openApp(ctx context.Context) (*app, error) {
	backend, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Dir)
	if err != nil {
		return nil, err
	}
	a := &app{local: storage.NewLocal(backend, logger)}
	opts := tracker.Options{
		Local:        a.local,
		Logger:       logger,
		TickInterval: cfg.Tracker.TickInterval,
	}

	if cfg.Remote.BaseURL != "" {
		a.client = remote.NewClient(ctx, cfg.Remote.BaseURL, remote.Options{
			Token:   cfg.Remote.Token,
			Timeout: cfg.Remote.Timeout,
		})
		a.outbox = outbox.New(a.local, a.client, logger)
		opts.Remote = a.client
		opts.Outbox = a.outbox
	}

	a.tracker, err = tracker.New(ctx, opts)
	if err != nil {
		_ = a.local.Close()
		return nil, err
	}
	return a, nil
}

// Close waits for background pushes and releases the store.
func (a *app) Close() {
	a.tracker.Close()
	if err := a.local.Close(); err != nil {
		logger.Warn("closing store", "err", err)
	}
}

// withApp runs fn against a freshly opened stack.
func withApp(ctx context.Context, fn func(a *app) error) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
