package dag

import "sort"

// MaxLevel returns the highest level in placements, or 0 when empty.
func MaxLevel[N Node](placements []Placement[N]) int {
	highest := 0
	for _, p := range placements {
		if p.Level > highest {
			highest = p.Level
		}
	}
	return highest
}

// ByLevel buckets placements by level. Input order is preserved inside
// each bucket.
func ByLevel[N Node](placements []Placement[N]) map[int][]Placement[N] {
	buckets := make(map[int][]Placement[N])
	for _, p := range placements {
		buckets[p.Level] = append(buckets[p.Level], p)
	}
	return buckets
}

// Roots returns the placements at level 0, in input order.
func Roots[N Node](placements []Placement[N]) []Placement[N] {
	var roots []Placement[N]
	for _, p := range placements {
		if p.Level == 0 {
			roots = append(roots, p)
		}
	}
	return roots
}

// Leaves returns the placements whose group declares no downstream
// groups. This is a structural property and need not match the deepest
// level.
func Leaves[N Node](placements []Placement[N]) []Placement[N] {
	var leaves []Placement[N]
	for _, p := range placements {
		if len(p.Group.Downstream()) == 0 {
			leaves = append(leaves, p)
		}
	}
	return leaves
}

// Levels returns one row per level from 0 to MaxLevel, each sorted by lane.
// A level can be empty when a cycle pushed every group past it.
func Levels[N Node](placements []Placement[N]) [][]Placement[N] {
	if len(placements) == 0 {
		return nil
	}
	rows := make([][]Placement[N], MaxLevel(placements)+1)
	seen := make(map[string]bool, len(placements))
	for _, p := range placements {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		rows[p.Level] = append(rows[p.Level], p)
	}
	for _, row := range rows {
		sort.Slice(row, func(i, j int) bool { return row[i].Lane < row[j].Lane })
	}
	return rows
}

// Edge is a dependency between two present groups: From must complete
// before To may start.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Edges lists every dependency whose endpoints are both present, in input
// order. Repeated declarations of the same edge are reported once.
func Edges[N Node](placements []Placement[N]) []Edge {
	present := make(map[string]bool, len(placements))
	for _, p := range placements {
		present[p.ID] = true
	}
	seen := make(map[Edge]bool)
	var edges []Edge
	for _, p := range placements {
		for _, down := range p.Group.Downstream() {
			e := Edge{From: p.ID, To: down}
			if !present[down] || seen[e] {
				continue
			}
			seen[e] = true
			edges = append(edges, e)
		}
	}
	return edges
}

// Index answers neighbourhood queries over a laid-out graph.
type Index[N Node] struct {
	byID       map[string]Placement[N]
	upstream   map[string][]string
	downstream map[string][]string
}

// NewIndex builds an Index over placements. When a name is duplicated the
// first placement wins.
func NewIndex[N Node](placements []Placement[N]) *Index[N] {
	idx := &Index[N]{
		byID:       make(map[string]Placement[N], len(placements)),
		upstream:   make(map[string][]string, len(placements)),
		downstream: make(map[string][]string, len(placements)),
	}
	for _, p := range placements {
		if _, ok := idx.byID[p.ID]; !ok {
			idx.byID[p.ID] = p
		}
	}
	for _, e := range Edges(placements) {
		idx.downstream[e.From] = append(idx.downstream[e.From], e.To)
		idx.upstream[e.To] = append(idx.upstream[e.To], e.From)
	}
	return idx
}

// Get returns the placement for id.
func (idx *Index[N]) Get(id string) (Placement[N], bool) {
	p, ok := idx.byID[id]
	return p, ok
}

// Upstream returns the present groups id depends on, in declaration order.
func (idx *Index[N]) Upstream(id string) []string { return idx.upstream[id] }

// Downstream returns the present groups that depend on id, in declaration
// order.
func (idx *Index[N]) Downstream(id string) []string { return idx.downstream[id] }

// CriticalPath returns the longest chain of groups ending at the deepest
// level, ordered root first. Ties prefer the alphabetically smaller name.
// Each step moves to a strictly lower level, so cycles cannot trap it.
func CriticalPath[N Node](placements []Placement[N]) []string {
	if len(placements) == 0 {
		return nil
	}
	idx := NewIndex(placements)

	end := placements[0]
	for _, p := range placements[1:] {
		if p.Level > end.Level || (p.Level == end.Level && p.ID < end.ID) {
			end = p
		}
	}

	path := []string{end.ID}
	cur := end
	for cur.Level > 0 {
		var next Placement[N]
		found := false
		for _, up := range idx.Upstream(cur.ID) {
			p, _ := idx.Get(up)
			if p.Level >= cur.Level {
				continue
			}
			if !found || p.Level > next.Level || (p.Level == next.Level && p.ID < next.ID) {
				next = p
				found = true
			}
		}
		if !found {
			break
		}
		path = append(path, next.ID)
		cur = next
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
