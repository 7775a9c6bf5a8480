package schedule

import (
	"errors"
	"sync"
	"time"

	"github.com/raulk/clock"
)

// ErrInvalidInterval is returned for non-positive intervals.
var ErrInvalidInterval = errors.New("interval must be positive")

// Task is a handle to a running periodic function.
type Task struct {
	ticker *clock.Ticker
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

// Every starts fn at offset 0 and then every interval on clk.
func Every(clk clock.Clock, interval time.Duration, fn func()) (*Task, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}
	if clk == nil {
		clk = clock.New()
	}

	// The ticker is registered before the goroutine starts so that a mock
	// clock advanced right after Every returns cannot miss the first tick.
	t := &Task{
		ticker: clk.Ticker(interval),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	go t.run(fn)

	return t, nil
}

// Cancel stops future runs. A run in progress completes. Safe to call more
// than once.
func (t *Task) Cancel() {
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.stop)
	})
}

// Done is closed once the task goroutine has exited.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

func (t *Task) run(fn func()) {
	defer close(t.done)

	fn()

	for {
		select {
		case <-t.stop:
			return
		case <-t.ticker.C:
			select {
			case <-t.stop:
				return
			default:
			}
			fn()
		}
	}
}
