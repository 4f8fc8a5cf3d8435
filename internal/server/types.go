package server

import (
	"time"

	"github.com/papapumpkin/flowlane/internal/dag"
	"github.com/papapumpkin/flowlane/internal/workflow"
)

// LayoutRequest is the body of POST /v1/layout. Groups accept every field
// of a workflow group; only name and downstream_groups affect the layout.
type LayoutRequest struct {
	Groups []workflow.Group `json:"groups"`
}

// PlacedGroup is one group of a layout response: the input fields plus
// the computed position.
type PlacedGroup struct {
	Name             string          `json:"name"`
	Status           workflow.Status `json:"status,omitempty"`
	DownstreamGroups []string        `json:"downstream_groups"`
	Tasks            []workflow.Task `json:"tasks,omitempty"`
	StartTime        *time.Time      `json:"start_time,omitempty"`
	EndTime          *time.Time      `json:"end_time,omitempty"`
	FailureMessage   string          `json:"failure_message,omitempty"`
	ID               string          `json:"id"`
	Level            int             `json:"level"`
	Lane             int             `json:"lane"`
}

// LayoutResponse is returned by both layout endpoints.
type LayoutResponse struct {
	Workflow     string           `json:"workflow,omitempty"`
	Status       workflow.Status  `json:"status,omitempty"`
	Groups       []PlacedGroup    `json:"groups"`
	MaxLevel     int              `json:"max_level"`
	Roots        []string         `json:"roots"`
	Leaves       []string         `json:"leaves"`
	CriticalPath []string         `json:"critical_path"`
	Edges        []dag.Edge       `json:"edges"`
	Diagnostics  []dag.Diagnostic `json:"diagnostics"`
	Stale        bool             `json:"stale,omitempty"`
	FetchedAt    *time.Time       `json:"fetched_at,omitempty"`
}

// NewLayoutResponse builds the JSON body for placements. Slices are never
// nil so clients always see arrays.
func NewLayoutResponse(name string, placements []dag.Placement[workflow.Group], diags []dag.Diagnostic) LayoutResponse {
	resp := LayoutResponse{
		Workflow:     name,
		Groups:       make([]PlacedGroup, len(placements)),
		MaxLevel:     dag.MaxLevel(placements),
		Roots:        ids(dag.Roots(placements)),
		Leaves:       ids(dag.Leaves(placements)),
		CriticalPath: dag.CriticalPath(placements),
		Edges:        dag.Edges(placements),
	}
	for i, p := range placements {
		down := p.Group.DownstreamGroups
		if down == nil {
			down = []string{}
		}
		resp.Groups[i] = PlacedGroup{
			Name:             p.Group.Name,
			Status:           p.Group.Status,
			DownstreamGroups: down,
			Tasks:            p.Group.Tasks,
			StartTime:        p.Group.StartTime,
			EndTime:          p.Group.EndTime,
			FailureMessage:   p.Group.FailureMessage,
			ID:               p.ID,
			Level:            p.Level,
			Lane:             p.Lane,
		}
	}
	if resp.CriticalPath == nil {
		resp.CriticalPath = []string{}
	}
	if resp.Edges == nil {
		resp.Edges = []dag.Edge{}
	}
	resp.Diagnostics = diags
	if resp.Diagnostics == nil {
		resp.Diagnostics = []dag.Diagnostic{}
	}
	return resp
}

func ids(placements []dag.Placement[workflow.Group]) []string {
	out := make([]string, 0, len(placements))
	for _, p := range placements {
		out = append(out, p.ID)
	}
	return out
}
