package digraph

import (
	"errors"
	"slices"
	"testing"
)

func build(t *testing.T, ids []string, edges [][2]string) *Graph {
	t.Helper()
	g := New(nil)
	for _, id := range ids {
		if err := g.AddNode(Node{ID: id}); err != nil {
			t.Fatalf("AddNode(%q) error: %v", id, err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(Edge{From: e[0], To: e[1]}); err != nil {
			t.Fatalf("AddEdge(%v) error: %v", e, err)
		}
	}
	return g
}

func TestAddNodeErrors(t *testing.T) {
	g := New(nil)
	if err := g.AddNode(Node{}); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("AddNode(empty) = %v, want ErrInvalidNodeID", err)
	}
	_ = g.AddNode(Node{ID: "a"})
	if err := g.AddNode(Node{ID: "a"}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("AddNode(dup) = %v, want ErrDuplicateNodeID", err)
	}
	if n, _ := g.Node("a"); n.Meta == nil {
		t.Error("Meta should be initialized")
	}
}

func TestAddEdgeErrors(t *testing.T) {
	g := build(t, []string{"a"}, nil)
	if err := g.AddEdge(Edge{From: "x", To: "a"}); !errors.Is(err, ErrUnknownSourceNode) {
		t.Errorf("AddEdge(unknown from) = %v, want ErrUnknownSourceNode", err)
	}
	if err := g.AddEdge(Edge{From: "a", To: "x"}); !errors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("AddEdge(unknown to) = %v, want ErrUnknownTargetNode", err)
	}
	if g.EdgeCount() != 0 {
		t.Errorf("EdgeCount() = %d, want 0", g.EdgeCount())
	}
}

func TestInsertionOrder(t *testing.T) {
	ids := []string{"z", "b", "m", "a"}
	g := build(t, ids, [][2]string{{"m", "a"}, {"m", "z"}, {"b", "z"}})

	if got := NodeIDs(g.Nodes()); !slices.Equal(got, ids) {
		t.Errorf("Nodes() = %v, want %v", got, ids)
	}
	if got := g.Children("m"); !slices.Equal(got, []string{"a", "z"}) {
		t.Errorf("Children(m) = %v, want [a z]", got)
	}
	if got := g.Parents("z"); !slices.Equal(got, []string{"m", "b"}) {
		t.Errorf("Parents(z) = %v, want [m b]", got)
	}
	if got := NodeIDs(g.Sources()); !slices.Equal(got, []string{"b", "m"}) {
		t.Errorf("Sources() = %v, want [b m]", got)
	}
	if got := NodeIDs(g.Sinks()); !slices.Equal(got, []string{"z", "a"}) {
		t.Errorf("Sinks() = %v, want [z a]", got)
	}
	if g.Index("m") != 2 || g.Index("missing") != -1 {
		t.Errorf("Index(m) = %d, Index(missing) = %d", g.Index("m"), g.Index("missing"))
	}
}

func TestRemoveEdge(t *testing.T) {
	g := build(t, []string{"a", "b"}, [][2]string{{"a", "b"}, {"a", "b"}})
	g.RemoveEdge("a", "b")

	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
	if g.OutDegree("a") != 1 || g.InDegree("b") != 1 {
		t.Errorf("OutDegree(a) = %d, InDegree(b) = %d, want 1, 1", g.OutDegree("a"), g.InDegree("b"))
	}
	g.RemoveEdge("b", "a")
	if g.EdgeCount() != 1 {
		t.Errorf("RemoveEdge of missing edge changed EdgeCount to %d", g.EdgeCount())
	}
}

func TestHasCycle(t *testing.T) {
	tests := []struct {
		name  string
		ids   []string
		edges [][2]string
		want  bool
		back  int
	}{
		{"empty", nil, nil, false, 0},
		{"chain", []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}}, false, 0},
		{"diamond", []string{"a", "b", "c", "d"}, [][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}}, false, 0},
		{"self loop", []string{"a"}, [][2]string{{"a", "a"}}, true, 1},
		{"two cycle", []string{"a", "b"}, [][2]string{{"a", "b"}, {"b", "a"}}, true, 1},
		{"triangle", []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}}, true, 1},
		{"two components", []string{"a", "b", "c", "d"}, [][2]string{{"a", "b"}, {"b", "a"}, {"c", "d"}, {"d", "c"}}, true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, tt.ids, tt.edges)
			if got := g.HasCycle(); got != tt.want {
				t.Errorf("HasCycle() = %v, want %v", got, tt.want)
			}
			if got := len(g.BackEdges()); got != tt.back {
				t.Errorf("len(BackEdges()) = %d, want %d", got, tt.back)
			}
		})
	}
}

func TestBackEdgesStartFromSources(t *testing.T) {
	// root → a → b → a: the DFS from the source must report b→a, not a→b.
	g := build(t, []string{"b", "a", "root"}, [][2]string{{"b", "a"}, {"a", "b"}, {"root", "a"}})

	back := g.BackEdges()
	if len(back) != 1 || back[0].From != "b" || back[0].To != "a" {
		t.Errorf("BackEdges() = %v, want [b→a]", back)
	}
}
