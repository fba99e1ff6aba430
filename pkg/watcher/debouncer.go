package watcher

import (
	"context"
	"time"

	"github.com/ritzau/archmodel/pkg/logging"
)

// Debouncer folds bursts of change events into one. An event is emitted
// once the input has been quiet for quietPeriod, or at the latest maxWait
// after the first event of the burst.
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 4),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

// Output returns the channel of debounced events. It is closed when the
// input closes or the context is done.
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}

func (d *Debouncer) run(ctx context.Context) {
	defer close(d.output)

	quiet := time.NewTimer(d.quietPeriod)
	quiet.Stop()
	deadline := time.NewTimer(d.maxWait)
	deadline.Stop()
	defer quiet.Stop()
	defer deadline.Stop()

	var pending *ChangeEvent

	flush := func() {
		quiet.Stop()
		deadline.Stop()
		if pending == nil {
			return
		}
		logging.Debug("flushing accumulated events", "count", pending.Count)
		select {
		case d.output <- *pending:
		case <-ctx.Done():
		}
		pending = nil
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				return
			}

			if pending == nil {
				first := event
				pending = &first
				deadline.Reset(d.maxWait)
			} else {
				pending.Op |= event.Op
				pending.Count += event.Count
				pending.Timestamp = event.Timestamp
			}
			quiet.Reset(d.quietPeriod)

		case <-quiet.C:
			flush()

		case <-deadline.C:
			flush()
		}
	}
}
