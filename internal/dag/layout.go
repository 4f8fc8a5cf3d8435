package dag

import "sort"

// options configures Transform.
type options struct {
	warn     bool
	reporter Reporter
}

// Option customizes a Transform call.
type Option func(*options)

// WithWarnings enables or disables diagnostic reporting. Warnings are on by
// default. Disabling them never changes the computed layout.
func WithWarnings(on bool) Option {
	return func(o *options) { o.warn = on }
}

// WithReporter routes diagnostics to r instead of stderr. A nil r restores
// the default.
func WithReporter(r Reporter) Option {
	return func(o *options) { o.reporter = r }
}

// report returns the diagnostic sink implied by o.
func (o options) report() func(Diagnostic) {
	if !o.warn {
		return func(Diagnostic) {}
	}
	r := o.reporter
	if r == nil {
		r = stderrReporter
	}
	return r.Report
}

// Transform assigns a level and a lane to every group.
//
// The level of a group is 0 when nothing upstream of it is present in the
// input, and otherwise one more than the highest level among its present
// upstream groups. Lanes number the groups of one level 0..k-1 in ascending
// name order, so they depend only on the set of names at that level.
//
// The result has one Placement per input group, in input order. Transform
// is a pure function of its input apart from diagnostics: dangling
// downstream references are ignored, and a group re-entered while its own
// level is being computed contributes level 0 at the point of re-entry.
func Transform[N Node](groups []N, opts ...Option) []Placement[N] {
	if len(groups) == 0 {
		return []Placement[N]{}
	}

	o := options{warn: true}
	for _, opt := range opts {
		opt(&o)
	}
	report := o.report()

	upstream := buildUpstream(groups, func(group, ref string) {
		report(Diagnostic{Kind: KindMissingRef, Group: group, Ref: ref})
	})

	present := make(map[string]bool, len(groups))
	for _, g := range groups {
		name := g.GroupName()
		if present[name] {
			report(Diagnostic{Kind: KindDuplicate, Group: name})
		}
		present[name] = true
	}

	lc := &levelComputer{
		upstream: upstream,
		memo:     make(map[string]int, len(groups)),
		onPath:   make(map[string]bool),
		report:   report,
	}
	for _, g := range groups {
		lc.level(g.GroupName())
	}

	lanes := assignLanes(groups, lc.memo)

	out := make([]Placement[N], len(groups))
	for i, g := range groups {
		name := g.GroupName()
		out[i] = Placement[N]{
			Group: g,
			ID:    name,
			Level: lc.memo[name],
			Lane:  lanes[name],
		}
	}
	return out
}

// levelComputer memoizes longest-path levels across the whole computation
// while tracking the current recursion path separately. The path is
// unwound on return, so sibling branches that reach a shared ancestor do
// not see each other's entries and are not mistaken for cycles.
type levelComputer struct {
	upstream map[string][]string // only names present in the input
	memo     map[string]int
	onPath   map[string]bool
	path     []string
	report   func(Diagnostic)
}

func (lc *levelComputer) level(name string) int {
	if l, ok := lc.memo[name]; ok {
		return l
	}
	if lc.onPath[name] {
		// Not memoized: the entry point finishes its own computation.
		lc.report(Diagnostic{
			Kind:  KindCycle,
			Group: name,
			Path:  append([]string(nil), lc.path...),
		})
		return 0
	}

	ups := lc.upstream[name]
	if len(ups) == 0 {
		lc.memo[name] = 0
		return 0
	}

	lc.onPath[name] = true
	lc.path = append(lc.path, name)

	highest := -1
	for _, up := range ups {
		if l := lc.level(up); l > highest {
			highest = l
		}
	}

	delete(lc.onPath, name)
	lc.path = lc.path[:len(lc.path)-1]

	lc.memo[name] = highest + 1
	return highest + 1
}

// assignLanes buckets names by level and numbers each bucket in ascending
// name order. Duplicate names occupy a single lane.
func assignLanes[N Node](groups []N, levels map[string]int) map[string]int {
	buckets := make(map[int][]string)
	seen := make(map[string]bool, len(groups))
	for _, g := range groups {
		name := g.GroupName()
		if seen[name] {
			continue
		}
		seen[name] = true
		l := levels[name]
		buckets[l] = append(buckets[l], name)
	}

	lanes := make(map[string]int, len(seen))
	for _, names := range buckets {
		sort.Strings(names)
		for i, name := range names {
			lanes[name] = i
		}
	}
	return lanes
}
