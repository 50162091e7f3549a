package outbox

import (
	"context"
	"time"
)

// Trigger decides when the outbox should be flushed. Watch calls fire for
// every flush opportunity and returns when ctx is done or the trigger can
// no longer observe its event source.
type Trigger interface {
	Watch(ctx context.Context, fire func()) error
}

// Every fires once immediately and then every d.
func Every(d time.Duration) Trigger {
	return every(d)
}

type every time.Duration

func (e every) Watch(ctx context.Context, fire func()) error {
	fire()
	ticker := time.NewTicker(time.Duration(e))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			fire()
		}
	}
}

func (e every) String() string { return "every " + time.Duration(e).String() }

// Manual fires whenever Fire is called.
type Manual struct {
	ch chan struct{}
}

// NewManual returns a trigger driven by Fire.
func NewManual() *Manual {
	return &Manual{ch: make(chan struct{}, 1)}
}

// Fire requests a flush. It never blocks.
func (m *Manual) Fire() {
	select {
	case m.ch <- struct{}{}:
	default:
	}
}

func (m *Manual) Watch(ctx context.Context, fire func()) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.ch:
			fire()
		}
	}
}

func (m *Manual) String() string { return "manual" }
