package workflow

import (
	"context"
	"fmt"
	"time"
)

// Update is one polling result. Exactly one of Workflow and Err is set.
type Update struct {
	Workflow *Workflow
	Err      error
	At       time.Time
}

// Poller refetches a workflow on a fixed interval for as long as it is
// active.
type Poller struct {
	Fetcher  Fetcher
	Interval time.Duration

	// now is replaced in tests.
	now func() time.Time
}

// NewPoller returns a poller fetching through f every interval.
func NewPoller(f Fetcher, interval time.Duration) *Poller {
	return &Poller{Fetcher: f, Interval: interval, now: time.Now}
}

// Run fetches the workflow immediately and then once per interval, handing
// every result to fn. It returns nil after delivering a workflow in a
// terminal state, or ctx.Err() when ctx is done. Fetch errors are delivered
// to fn and polling continues.
func (p *Poller) Run(ctx context.Context, name string, fn func(Update)) error {
	now := p.now
	if now == nil {
		now = time.Now
	}

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		w, err := p.Fetcher.Get(ctx, name)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil && w == nil {
			err = fmt.Errorf("%s: %w", name, ErrEmptyResponse)
		}
		fn(Update{Workflow: w, Err: err, At: now()})
		if err == nil && !w.Active() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
