// Package dag lays out workflow group graphs for display. Groups declare
// their downstream dependents; the package inverts that relation, assigns
// every group a level (longest path from a root) and a lane (its position
// among the groups sharing that level), and answers structural queries
// over the result.
//
// Layout is best effort: dangling references and cycles never fail a
// computation. They are reported through a Reporter and otherwise treated
// as "no further upstream constraint".
package dag

// Node is a group in a dependency graph. Downstream lists the names of the
// groups that may only start after this one completes.
type Node interface {
	GroupName() string
	Downstream() []string
}

// Group is the minimal Node: a name and its downstream dependents.
type Group struct {
	Name             string   `json:"name" yaml:"name" toml:"name"`
	DownstreamGroups []string `json:"downstream_groups,omitempty" yaml:"downstream_groups,omitempty" toml:"downstream_groups,omitempty"`
}

// GroupName returns the group's unique name.
func (g Group) GroupName() string { return g.Name }

// Downstream returns the declared downstream group names.
func (g Group) Downstream() []string { return g.DownstreamGroups }

// Placement is a group augmented with its computed layout. The wrapped
// group is carried through untouched so callers keep their domain fields.
type Placement[N Node] struct {
	Group N
	ID    string // equal to Group.GroupName()
	Level int    // longest-path distance from a root
	Lane  int    // position among groups at the same level, by name
}
