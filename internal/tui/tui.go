// Package tui is the interactive workflow inspector: a live DAG pane over
// a workflow, group and task drill-down, fed by polling or file watching.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/papapumpkin/flowlane/internal/workflow"
)

// Program is an alias for tea.Program, exposed so callers don't need
// to import bubbletea directly.
type Program = tea.Program

// Feed produces messages for a running program until ctx is done. It
// returns nil when there is nothing more to deliver.
type Feed func(ctx context.Context, send func(tea.Msg)) error

// NewProgram creates a program for m on the alternate screen.
func NewProgram(m AppModel, opts ...tea.ProgramOption) *Program {
	allOpts := []tea.ProgramOption{
		tea.WithAltScreen(),
	}
	allOpts = append(allOpts, opts...)
	return tea.NewProgram(m, allOpts...)
}

// Run starts the program and the feed, blocking until the user quits. The
// feed is stopped when the program exits.
func Run(ctx context.Context, m AppModel, feed Feed, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := NewProgram(m, opts...)
	if feed != nil {
		go func() {
			err := feed(ctx, p.Send)
			if ctx.Err() != nil {
				return
			}
			p.Send(MsgFeedDone{Err: err})
		}()
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// PollFeed delivers every poll of name as a MsgWorkflow.
func PollFeed(p *workflow.Poller, name string) Feed {
	return func(ctx context.Context, send func(tea.Msg)) error {
		return p.Run(ctx, name, func(u workflow.Update) {
			send(MsgWorkflow{Update: u})
		})
	}
}

// FileFeed loads path once and again after every change reported by the
// watcher. A removed file is reported as an error and watching continues.
func FileFeed(w *workflow.Watcher, load func() (*workflow.Workflow, error), now func() time.Time) Feed {
	return func(ctx context.Context, send func(tea.Msg)) error {
		deliver := func() {
			wf, err := load()
			send(MsgWorkflow{Update: workflow.Update{Workflow: wf, Err: err, At: now()}})
		}
		deliver()
		for {
			select {
			case <-ctx.Done():
				return nil
			case c, ok := <-w.Changes:
				if !ok {
					return nil
				}
				if c.Removed {
					send(MsgWorkflow{Update: workflow.Update{Err: errFileRemoved, At: now()}})
					continue
				}
				deliver()
			}
		}
	}
}

var errFileRemoved = errors.New("workflow file removed")

// WithOutput returns a program option that directs output to w.
func WithOutput(w io.Writer) tea.ProgramOption {
	return tea.WithOutput(w)
}
