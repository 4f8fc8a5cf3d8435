package dag

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func ids[N Node](placements []Placement[N]) []string {
	out := make([]string, 0, len(placements))
	for _, p := range placements {
		out = append(out, p.ID)
	}
	return out
}

func diamond() []Placement[Group] {
	return Transform([]Group{
		g("root", "mid2", "mid1"),
		g("mid2", "leaf"),
		g("mid1", "leaf"),
		g("leaf"),
		g("lone"),
	}, quiet)
}

func TestMaxLevel(t *testing.T) {
	t.Parallel()

	if got := MaxLevel[Group](nil); got != 0 {
		t.Errorf("MaxLevel(nil) = %d, want 0", got)
	}
	if got := MaxLevel(Transform([]Group{})); got != 0 {
		t.Errorf("MaxLevel(empty) = %d, want 0", got)
	}
	if got := MaxLevel(diamond()); got != 2 {
		t.Errorf("MaxLevel(diamond) = %d, want 2", got)
	}
}

func TestByLevel(t *testing.T) {
	t.Parallel()

	buckets := ByLevel(diamond())
	want := map[int][]string{
		0: {"root", "lone"},
		1: {"mid2", "mid1"}, // input order, not lane order
		2: {"leaf"},
	}
	if len(buckets) != len(want) {
		t.Fatalf("got %d buckets, want %d", len(buckets), len(want))
	}
	for level, names := range want {
		if got := ids(buckets[level]); !reflect.DeepEqual(got, names) {
			t.Errorf("level %d = %v, want %v", level, got, names)
		}
	}
}

func TestRootsAndLeaves(t *testing.T) {
	t.Parallel()

	p := diamond()
	if got := ids(Roots(p)); !reflect.DeepEqual(got, []string{"root", "lone"}) {
		t.Errorf("Roots = %v", got)
	}
	if got := ids(Leaves(p)); !reflect.DeepEqual(got, []string{"leaf", "lone"}) {
		t.Errorf("Leaves = %v", got)
	}
}

func TestLeaves_DanglingDownstreamIsNotALeaf(t *testing.T) {
	t.Parallel()

	p := Transform([]Group{g("a", "ghost")}, quiet)
	if got := Leaves(p); len(got) != 0 {
		t.Errorf("Leaves = %v, want none (a still declares downstream)", ids(got))
	}
}

func TestLevels(t *testing.T) {
	t.Parallel()

	rows := Levels(diamond())
	want := [][]string{{"lone", "root"}, {"mid1", "mid2"}, {"leaf"}}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(rows), len(want))
	}
	for i := range want {
		if got := ids(rows[i]); !reflect.DeepEqual(got, want[i]) {
			t.Errorf("row %d = %v, want %v", i, got, want[i])
		}
	}

	cyclic := Levels(Transform([]Group{g("A", "B"), g("B", "A")}, quiet))
	if len(cyclic) != 3 || len(cyclic[0]) != 0 {
		t.Errorf("cyclic rows = %v, want empty level 0 and three rows", cyclic)
	}
}

func TestEdges(t *testing.T) {
	t.Parallel()

	p := Transform([]Group{g("a", "b", "ghost", "b"), g("b", "c"), g("c")}, quiet)
	want := []Edge{{From: "a", To: "b"}, {From: "b", To: "c"}}
	if got := Edges(p); !reflect.DeepEqual(got, want) {
		t.Errorf("Edges = %v, want %v", got, want)
	}
}

func TestIndex(t *testing.T) {
	t.Parallel()

	idx := NewIndex(diamond())
	if got := idx.Upstream("leaf"); !reflect.DeepEqual(got, []string{"mid2", "mid1"}) {
		t.Errorf("Upstream(leaf) = %v", got)
	}
	if got := idx.Downstream("root"); !reflect.DeepEqual(got, []string{"mid2", "mid1"}) {
		t.Errorf("Downstream(root) = %v", got)
	}
	if _, ok := idx.Get("nope"); ok {
		t.Error("Get(nope) found a placement")
	}
	if p, ok := idx.Get("mid2"); !ok || p.Lane != 1 {
		t.Errorf("Get(mid2) = %+v, %v", p, ok)
	}
}

func TestCriticalPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		groups []Group
		want   []string
	}{
		{"empty", nil, nil},
		{"single", []Group{g("a")}, []string{"a"}},
		{"diamond prefers smaller name", []Group{
			g("root", "mid2", "mid1"), g("mid2", "leaf"), g("mid1", "leaf"), g("leaf"),
		}, []string{"root", "mid1", "leaf"}},
		{"shortcut ignored", []Group{
			g("a", "b", "d"), g("b", "c"), g("c", "d"), g("d"),
		}, []string{"a", "b", "c", "d"}},
		{"cycle terminates", []Group{g("A", "B"), g("B", "A")}, []string{"B", "A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := CriticalPath(Transform(tt.groups, quiet))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CriticalPath = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWriterReporter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	Transform([]Group{g("A", "B"), g("B", "A", "Z")}, WithReporter(NewWriterReporter(&buf)))

	out := buf.String()
	if !strings.Contains(out, `"B" lists unknown downstream group "Z"`) {
		t.Errorf("missing-ref warning absent:\n%s", out)
	}
	if !strings.Contains(out, "cycle detected at group \"A\": A → B → A") {
		t.Errorf("cycle warning absent:\n%s", out)
	}
	if n := strings.Count(out, "dag: warning: "); n != 2 {
		t.Errorf("got %d warning lines, want 2:\n%s", n, out)
	}
}

func TestMultiReporter(t *testing.T) {
	t.Parallel()

	var a, b Collector
	var calls int
	r := MultiReporter{&a, nil, &b, ReporterFunc(func(Diagnostic) { calls++ })}
	r.Report(Diagnostic{Kind: KindDuplicate, Group: "x"})

	if len(a.Diagnostics()) != 1 || len(b.Diagnostics()) != 1 || calls != 1 {
		t.Errorf("fan-out incomplete: a=%d b=%d func=%d", len(a.Diagnostics()), len(b.Diagnostics()), calls)
	}
}
