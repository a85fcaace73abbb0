//go:build linux

package watch

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/autorun-labs/autorun/pkg/logger"
)

// TriggerFunc is invoked synchronously once per decoded record. path is the
// full path the record resolved to (parent joined with the in-directory
// name when present). The loop does not interpret any error the trigger may
// produce; the trigger owns command execution and its outcome.
type TriggerFunc func(ctx context.Context, path string, ev Event)

// Loop is the single-threaded dispatch loop. It blocks on readiness of the
// event source, drains one read's worth of records, repairs the watch set
// per record and fires the trigger once per record. A single read may carry
// many records; each one triggers independently.
type Loop struct {
	table   *Table
	src     EventSource
	trigger TriggerFunc
	logger  logger.Logger
	buf     []byte
}

// NewLoop creates a dispatch loop over an armed table and its source.
func NewLoop(table *Table, src EventSource, trigger TriggerFunc, log logger.Logger) *Loop {
	return &Loop{
		table:   table,
		src:     src,
		trigger: trigger,
		logger:  log,
		buf:     make([]byte, eventBufferSize),
	}
}

// Run blocks dispatching events until the wait or read on the event source
// fails. An interrupted wait is retried unless ctx was cancelled, which is
// the one orderly way out: cancellation returns nil so teardown can run.
// Unreadable event-source data is unrecoverable and returns the error.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if err := l.src.Wait(); err != nil {
			if errors.Is(err, unix.EINTR) {
				if ctx.Err() != nil {
					return nil
				}
				continue
			}
			return fmt.Errorf("wait for events: %w", err)
		}

		if ctx.Err() != nil {
			return nil
		}

		n, err := l.src.Read(l.buf)
		if err != nil {
			return fmt.Errorf("drain events: %w", err)
		}

		for _, ev := range decodeEvents(l.buf[:n]) {
			l.dispatch(ctx, ev)
		}
	}
}

// dispatch handles one record: watch-set repair first, then the trigger, so
// a directory created by this record is already armed when the command runs.
func (l *Loop) dispatch(ctx context.Context, ev Event) {
	Rewatch(l.table, ev, l.logger)

	path, ok := l.table.Resolve(ev.Wd)
	if !ok {
		// Overflow records carry no watch descriptor.
		l.logger.Warn("event on unknown watch", "wd", ev.Wd, "mask", ev.String())
	} else if ev.Name != "" {
		path = path + "/" + ev.Name
	}

	l.logger.Debug("event", "path", path, "mask", ev.String())
	l.trigger(ctx, path, ev)
}
