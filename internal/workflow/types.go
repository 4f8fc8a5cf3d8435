// Package workflow models the workflow-query API: workflows made of groups
// of tasks, where each group names the groups downstream of it. It decodes
// workflows from the API or from local JSON, YAML and TOML files, polls
// active workflows, and watches local files for edits.
package workflow

import (
	"strings"
	"time"

	"github.com/papapumpkin/flowlane/internal/dag"
)

// Status is the lifecycle state reported for workflows, groups and tasks.
type Status string

// Statuses reported by the workflow-query API.
const (
	StatusPending      Status = "PENDING"
	StatusSubmitting   Status = "SUBMITTING"
	StatusWaiting      Status = "WAITING"
	StatusProcessing   Status = "PROCESSING"
	StatusScheduling   Status = "SCHEDULING"
	StatusInitializing Status = "INITIALIZING"
	StatusRunning      Status = "RUNNING"
	StatusRescheduled  Status = "RESCHEDULED"
	StatusCompleted    Status = "COMPLETED"

	StatusFailed             Status = "FAILED"
	StatusFailedCanceled     Status = "FAILED_CANCELED"
	StatusFailedServerError  Status = "FAILED_SERVER_ERROR"
	StatusFailedBackendError Status = "FAILED_BACKEND_ERROR"
	StatusFailedExecTimeout  Status = "FAILED_EXEC_TIMEOUT"
	StatusFailedQueueTimeout Status = "FAILED_QUEUE_TIMEOUT"
	StatusFailedImagePull    Status = "FAILED_IMAGE_PULL"
	StatusFailedUpstream     Status = "FAILED_UPSTREAM"
	StatusFailedEvicted      Status = "FAILED_EVICTED"
	StatusFailedPreempted    Status = "FAILED_PREEMPTED"
)

// Failed reports whether s is any FAILED* status.
func (s Status) Failed() bool {
	return s == StatusFailed || strings.HasPrefix(string(s), string(StatusFailed)+"_")
}

// Terminal reports whether s will not change again.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s.Failed()
}

// Active reports whether a workflow or group in state s can still make
// progress. Unknown and empty statuses count as active so callers keep
// polling until the API says otherwise.
func (s Status) Active() bool {
	return !s.Terminal()
}

// Task is a single pod-level unit of work inside a group.
type Task struct {
	Name           string     `json:"name" yaml:"name" toml:"name"`
	RetryID        int        `json:"retry_id,omitempty" yaml:"retry_id,omitempty" toml:"retry_id,omitempty"`
	Status         Status     `json:"status" yaml:"status" toml:"status"`
	Node           string     `json:"node_name,omitempty" yaml:"node_name,omitempty" toml:"node_name,omitempty"`
	GPUs           int        `json:"gpus,omitempty" yaml:"gpus,omitempty" toml:"gpus,omitempty"`
	StartTime      *time.Time `json:"start_time,omitempty" yaml:"start_time,omitempty" toml:"start_time,omitempty"`
	EndTime        *time.Time `json:"end_time,omitempty" yaml:"end_time,omitempty" toml:"end_time,omitempty"`
	ExitCode       *int       `json:"exit_code,omitempty" yaml:"exit_code,omitempty" toml:"exit_code,omitempty"`
	FailureMessage string     `json:"failure_message,omitempty" yaml:"failure_message,omitempty" toml:"failure_message,omitempty"`
}

// Duration returns how long the task ran. A task that has started but not
// finished is measured up to now; an unstarted task reports zero.
func (t Task) Duration(now time.Time) time.Duration {
	return span(t.StartTime, t.EndTime, now)
}

// Group is a stage of a workflow. It implements dag.Node so workflows can be
// laid out directly.
type Group struct {
	Name             string     `json:"name" yaml:"name" toml:"name"`
	Status           Status     `json:"status" yaml:"status" toml:"status"`
	DownstreamGroups []string   `json:"downstream_groups,omitempty" yaml:"downstream_groups,omitempty" toml:"downstream_groups,omitempty"`
	Tasks            []Task     `json:"tasks,omitempty" yaml:"tasks,omitempty" toml:"tasks,omitempty"`
	StartTime        *time.Time `json:"start_time,omitempty" yaml:"start_time,omitempty" toml:"start_time,omitempty"`
	EndTime          *time.Time `json:"end_time,omitempty" yaml:"end_time,omitempty" toml:"end_time,omitempty"`
	FailureMessage   string     `json:"failure_message,omitempty" yaml:"failure_message,omitempty" toml:"failure_message,omitempty"`
}

// GroupName returns the group's name.
func (g Group) GroupName() string { return g.Name }

// Downstream returns the names of the groups that wait on this one.
func (g Group) Downstream() []string { return g.DownstreamGroups }

// GPUs returns the total GPU count requested by the group's tasks.
func (g Group) GPUs() int {
	n := 0
	for _, t := range g.Tasks {
		n += t.GPUs
	}
	return n
}

// Duration returns how long the group ran, measured like Task.Duration.
func (g Group) Duration(now time.Time) time.Duration {
	return span(g.StartTime, g.EndTime, now)
}

// Workflow is one submitted workflow as returned by the query API.
type Workflow struct {
	Name       string     `json:"name" yaml:"name" toml:"name"`
	UUID       string     `json:"uuid,omitempty" yaml:"uuid,omitempty" toml:"uuid,omitempty"`
	Status     Status     `json:"status" yaml:"status" toml:"status"`
	User       string     `json:"submitted_by,omitempty" yaml:"submitted_by,omitempty" toml:"submitted_by,omitempty"`
	Pool       string     `json:"pool,omitempty" yaml:"pool,omitempty" toml:"pool,omitempty"`
	SubmitTime *time.Time `json:"submit_time,omitempty" yaml:"submit_time,omitempty" toml:"submit_time,omitempty"`
	StartTime  *time.Time `json:"start_time,omitempty" yaml:"start_time,omitempty" toml:"start_time,omitempty"`
	EndTime    *time.Time `json:"end_time,omitempty" yaml:"end_time,omitempty" toml:"end_time,omitempty"`
	Groups     []Group    `json:"groups" yaml:"groups" toml:"groups"`
}

// Active reports whether the workflow may still change.
func (w *Workflow) Active() bool { return w.Status.Active() }

// Duration returns how long the workflow has run, measured like
// Task.Duration.
func (w *Workflow) Duration(now time.Time) time.Duration {
	return span(w.StartTime, w.EndTime, now)
}

// Group returns the group with the given name.
func (w *Workflow) Group(name string) (Group, bool) {
	for _, g := range w.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return Group{}, false
}

// TaskCount returns the number of tasks across all groups.
func (w *Workflow) TaskCount() int {
	n := 0
	for _, g := range w.Groups {
		n += len(g.Tasks)
	}
	return n
}

// StatusCounts tallies groups by status.
func (w *Workflow) StatusCounts() map[Status]int {
	counts := make(map[Status]int)
	for _, g := range w.Groups {
		counts[g.Status]++
	}
	return counts
}

// Layout computes the level/lane layout of the workflow's groups.
func (w *Workflow) Layout(opts ...dag.Option) []dag.Placement[Group] {
	return dag.Transform(w.Groups, opts...)
}

// Signature identifies the shape of the group graph: names and downstream
// edges in input order. Two workflows with equal signatures have identical
// layouts, so callers can skip recomputation when only statuses changed.
func (w *Workflow) Signature() string {
	var n int
	for _, g := range w.Groups {
		n += len(g.Name) + 2
		for _, d := range g.DownstreamGroups {
			n += len(d) + 1
		}
	}
	buf := make([]byte, 0, n)
	for _, g := range w.Groups {
		buf = append(buf, g.Name...)
		buf = append(buf, 0)
		for _, d := range g.DownstreamGroups {
			buf = append(buf, d...)
			buf = append(buf, 1)
		}
		buf = append(buf, 2)
	}
	return string(buf)
}

func span(start, end *time.Time, now time.Time) time.Duration {
	if start == nil {
		return 0
	}
	if end == nil {
		return now.Sub(*start)
	}
	return end.Sub(*start)
}
