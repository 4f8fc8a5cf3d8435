package tui

import (
	"time"

	"github.com/papapumpkin/flowlane/internal/workflow"
)

// MsgWorkflow delivers one fetch or poll result to the model.
type MsgWorkflow struct {
	Update workflow.Update
}

// MsgStale delivers a stored snapshot shown while live data is unavailable.
type MsgStale struct {
	Workflow  *workflow.Workflow
	FetchedAt time.Time
}

// MsgFeedDone reports that the update feed stopped. Err is nil when the
// workflow reached a terminal state.
type MsgFeedDone struct {
	Err error
}
