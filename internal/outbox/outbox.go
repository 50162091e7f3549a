// Package outbox queues remote writes that failed and replays them in order.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Tiliavir/ghosttrack/internal/model"
	"github.com/Tiliavir/ghosttrack/internal/remote"
)

// Store persists the queue.
type Store interface {
	Outbox(ctx context.Context) ([]model.OutboxItem, error)
	SetOutbox(ctx context.Context, items []model.OutboxItem) error
}

// Sender delivers one queued payload.
type Sender interface {
	PostPayload(ctx context.Context, payload json.RawMessage) error
}

// Result summarizes one flush.
type Result struct {
	Sent      int
	Dropped   int
	Remaining int
}

// Outbox is a durable FIFO of pending remote writes.
type Outbox struct {
	// mu guards read-modify-write of the stored queue.
	mu sync.Mutex
	// flushMu keeps flushes from overlapping so no item is sent twice.
	flushMu sync.Mutex

	store  Store
	sender Sender
	log    *slog.Logger
	now    func() time.Time
}

// New returns an outbox over store that delivers through sender.
func New(store Store, sender Sender, logger *slog.Logger) *Outbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Outbox{store: store, sender: sender, log: logger, now: time.Now}
}

// Items returns the queued items in order.
func (o *Outbox) Items(ctx context.Context) ([]model.OutboxItem, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.store.Outbox(ctx)
}

// Enqueue queues payload under id. An item already queued under id is
// replaced in place and keeps its position.
func (o *Outbox) Enqueue(ctx context.Context, id string, payload json.RawMessage) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	items, err := o.store.Outbox(ctx)
	if err != nil {
		return err
	}
	item := model.OutboxItem{ID: id, Type: model.OutboxType, Payload: payload, TS: o.now().UnixMilli()}
	for i := range items {
		if items[i].ID == id {
			items[i] = item
			return o.store.SetOutbox(ctx, items)
		}
	}
	return o.store.SetOutbox(ctx, append(items, item))
}

// Flush sends queued items oldest first. Delivered items are removed,
// items rejected with a client error are dropped, and the first retryable
// failure stops the flush and is returned with the item left queued.
func (o *Outbox) Flush(ctx context.Context) (Result, error) {
	o.flushMu.Lock()
	defer o.flushMu.Unlock()

	var res Result
	for {
		head, ok, err := o.head(ctx)
		if err != nil {
			return res, err
		}
		if !ok {
			return res, nil
		}

		sendErr := o.sender.PostPayload(ctx, head.Payload)
		switch {
		case sendErr == nil:
			res.Sent++
		case remote.IsPermanent(sendErr):
			res.Dropped++
			o.log.Warn("dropping rejected outbox item", "id", head.ID, "err", sendErr)
		default:
			res.Remaining, err = o.count(ctx)
			if err != nil {
				return res, err
			}
			return res, fmt.Errorf("outbox item %s: %w", head.ID, sendErr)
		}

		if err := o.remove(ctx, head); err != nil {
			return res, err
		}
	}
}

func (o *Outbox) head(ctx context.Context) (model.OutboxItem, bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	items, err := o.store.Outbox(ctx)
	if err != nil || len(items) == 0 {
		return model.OutboxItem{}, false, err
	}
	return items[0], true, nil
}

func (o *Outbox) count(ctx context.Context) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	items, err := o.store.Outbox(ctx)
	return len(items), err
}

// remove deletes sent unless it was replaced by a newer enqueue while in
// flight; the newer payload then stays queued.
func (o *Outbox) remove(ctx context.Context, sent model.OutboxItem) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	items, err := o.store.Outbox(ctx)
	if err != nil {
		return err
	}
	for i, it := range items {
		if it.ID == sent.ID && it.TS == sent.TS {
			return o.store.SetOutbox(ctx, append(items[:i], items[i+1:]...))
		}
	}
	return nil
}

// Run flushes whenever a trigger fires until ctx is cancelled. Fires that
// arrive during a flush collapse into one follow-up flush.
func (o *Outbox) Run(ctx context.Context, triggers ...Trigger) error {
	kick := make(chan struct{}, 1)
	fire := func() {
		select {
		case kick <- struct{}{}:
		default:
		}
	}

	var wg sync.WaitGroup
	for _, tr := range triggers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := tr.Watch(ctx, fire); err != nil && ctx.Err() == nil {
				o.log.Warn("outbox trigger stopped", "trigger", fmt.Sprint(tr), "err", err)
			}
		}()
	}
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-kick:
			res, err := o.Flush(ctx)
			if err != nil {
				o.log.Info("outbox flush halted", "sent", res.Sent, "dropped", res.Dropped, "remaining", res.Remaining, "err", err)
				continue
			}
			if res.Sent > 0 || res.Dropped > 0 {
				o.log.Info("outbox flushed", "sent", res.Sent, "dropped", res.Dropped)
			}
		}
	}
}
