package layout

import (
	"slices"
	"strings"
	"testing"

	"github.com/superrelativity/relgraph/pkg/graph"
)

func nodes(specs ...string) []graph.Node {
	// s is "id" or "id:Type"
	out := make([]graph.Node, len(specs))
	for i, s := range specs {
		id, typ, _ := strings.Cut(s, ":")
		out[i] = graph.Node{ID: id, NodeType: typ}
	}
	return out
}

func edges(pairs ...string) []graph.Edge {
	out := make([]graph.Edge, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, graph.Edge{Source: pairs[i], Target: pairs[i+1]})
	}
	return out
}

func TestAssignLevels(t *testing.T) {
	tests := []struct {
		name    string
		nodes   []graph.Node
		edges   []graph.Edge
		want    map[string]int
		reverse []string
		roots   []string
	}{
		{
			name:  "chain",
			nodes: nodes("A", "B", "C"),
			edges: edges("A", "B", "B", "C"),
			want:  map[string]int{"A": 0, "B": 1, "C": 2},
			roots: []string{"A"},
		},
		{
			name:  "two cycle falls back to outdegree",
			nodes: nodes("A", "B"),
			edges: edges("A", "B", "B", "A"),
			want:  map[string]int{"A": 0, "B": 0},
			roots: []string{"A", "B"},
		},
		{
			name:    "reverse business function",
			nodes:   nodes("A:Application", "B:DataObject", "R:BusinessFunction"),
			edges:   edges("A", "B", "R", "B"),
			want:    map[string]int{"A": 0, "B": 1, "R": 2},
			reverse: []string{"R"},
			roots:   []string{"A"},
		},
		{
			name:    "reverse capability label",
			nodes:   nodes("bc-1:BusinessCapability", "do-1:DataObject", "bc-2:BusinessCapability"),
			edges:   edges("bc-1", "do-1", "bc-2", "do-1"),
			want:    map[string]int{"bc-1": 0, "do-1": 1, "bc-2": 2},
			reverse: []string{"bc-2"},
			roots:   []string{"bc-1"},
		},
		{
			name:    "reverse resolved from id",
			nodes:   nodes("APP-1", "DATA-1", "BF-1"),
			edges:   edges("APP-1", "DATA-1", "BF-1", "DATA-1"),
			want:    map[string]int{"APP-1": 0, "DATA-1": 1, "BF-1": 2},
			reverse: []string{"BF-1"},
			roots:   []string{"APP-1"},
		},
		{
			name:    "reverse with incoming edge",
			nodes:   nodes("A:Application", "B:Component", "C:DataObject", "R:BusinessFunction", "S:Component"),
			edges:   edges("A", "B", "B", "C", "R", "C", "S", "R", "R", "S"),
			want:    map[string]int{"A": 0, "B": 1, "C": 2, "R": 3, "S": 4},
			reverse: []string{"R"},
			roots:   []string{"A"},
		},
		{
			name:    "reverse root subtree continues after it",
			nodes:   nodes("A:Application", "B:DataObject", "R:BusinessFunction", "C:Component", "D:Component"),
			edges:   edges("A", "B", "R", "B", "R", "C", "C", "D"),
			want:    map[string]int{"A": 0, "B": 1, "R": 2, "C": 3, "D": 4},
			reverse: []string{"R"},
			roots:   []string{"A"},
		},
		{
			name:  "deferred root that points nowhere visited",
			nodes: nodes("A:Application", "B:API", "Q:BusinessFunction", "X:DataObject"),
			edges: edges("A", "B", "Q", "X"),
			want:  map[string]int{"A": 0, "B": 1, "Q": 0, "X": 1},
			roots: []string{"A", "Q"},
		},
		{
			name:  "unreached cycle stays at zero",
			nodes: nodes("A", "B", "C", "D"),
			edges: edges("A", "B", "C", "D", "D", "C"),
			want:  map[string]int{"A": 0, "B": 1, "C": 0, "D": 0},
			roots: []string{"A"},
		},
		{
			name:  "unreached non business function is not reverse",
			nodes: nodes("A:Application", "B:API", "C:Component", "D:Component"),
			edges: edges("A", "B", "C", "B", "C", "D", "D", "C"),
			want:  map[string]int{"A": 0, "B": 1, "C": 0, "D": 0},
			roots: []string{"A"},
		},
		{
			name:  "multi source first discovery",
			nodes: nodes("A", "B", "X", "Y"),
			edges: edges("A", "X", "X", "Y", "B", "Y"),
			want:  map[string]int{"A": 0, "B": 0, "X": 1, "Y": 1},
			roots: []string{"A", "B"},
		},
		{
			name:  "self loop",
			nodes: nodes("A", "B"),
			edges: edges("A", "B", "B", "B"),
			want:  map[string]int{"A": 0, "B": 1},
			roots: []string{"A"},
		},
		{
			name:  "empty",
			want:  map[string]int{},
			roots: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lv := AssignLevels(tt.nodes, tt.edges)
			for id, want := range tt.want {
				if got := lv.Level[id]; got != want {
					t.Errorf("Level[%s] = %d, want %d", id, got, want)
				}
			}
			if len(lv.Level) != len(tt.want) {
				t.Errorf("len(Level) = %d, want %d", len(lv.Level), len(tt.want))
			}
			var rev []string
			for _, n := range tt.nodes {
				if lv.Reverse[n.ID] {
					rev = append(rev, n.ID)
				}
			}
			if !slices.Equal(rev, tt.reverse) {
				t.Errorf("reverse = %v, want %v", rev, tt.reverse)
			}
			if !slices.Equal(lv.Roots, tt.roots) {
				t.Errorf("Roots = %v, want %v", lv.Roots, tt.roots)
			}
		})
	}
}

func TestAssignLevelsFallbackTopN(t *testing.T) {
	// Every node has an incoming edge. Outdegrees: A=1, B=3, C=2, D=2, E=1.
	ns := nodes("A", "B", "C", "D", "E")
	es := edges(
		"A", "B",
		"B", "C", "B", "D", "B", "E",
		"C", "A", "C", "D",
		"D", "E", "D", "C",
		"E", "A",
	)

	lv := AssignLevels(ns, es)
	if want := []string{"B", "C", "D"}; !slices.Equal(lv.Roots, want) {
		t.Errorf("Roots = %v, want %v", lv.Roots, want)
	}
	if !lv.Cyclic {
		t.Error("Cyclic = false, want true")
	}
	if lv.Level["A"] != 1 || lv.Level["E"] != 1 {
		t.Errorf("Level[A] = %d, Level[E] = %d, want 1, 1", lv.Level["A"], lv.Level["E"])
	}

	lv = AssignLevelsWith(ns, es, 1)
	if want := []string{"B"}; !slices.Equal(lv.Roots, want) {
		t.Errorf("Roots with fallback 1 = %v, want %v", lv.Roots, want)
	}
	if lv.Level["A"] != 2 {
		t.Errorf("Level[A] with fallback 1 = %d, want 2", lv.Level["A"])
	}
}

func TestAssignLevelsDangling(t *testing.T) {
	lv := AssignLevels(nodes("A", "B"), edges("A", "B", "A", "GHOST", "GHOST", "B"))

	if len(lv.Dangling) != 2 {
		t.Fatalf("len(Dangling) = %d, want 2", len(lv.Dangling))
	}
	if lv.Level["B"] != 1 {
		t.Errorf("Level[B] = %d, want 1", lv.Level["B"])
	}
	if _, ok := lv.Level["GHOST"]; ok {
		t.Error("dangling endpoint should not be leveled")
	}
	if lv.Cyclic {
		t.Error("Cyclic = true, want false")
	}
}

func TestAssignLevelsDuplicateNodes(t *testing.T) {
	lv := AssignLevels(nodes("A", "B", "A"), edges("A", "B"))
	if lv.Graph.NodeCount() != 2 {
		t.Errorf("NodeCount() = %d, want 2", lv.Graph.NodeCount())
	}
	if lv.MaxLevel() != 1 {
		t.Errorf("MaxLevel() = %d, want 1", lv.MaxLevel())
	}
}

func TestAssignLevelsDeterministic(t *testing.T) {
	ns := nodes("A:Application", "B:API", "C:Component", "R:BusinessFunction", "D:DataObject")
	es := edges("A", "B", "A", "C", "C", "D", "R", "D", "B", "D")
	first := AssignLevels(ns, es)
	for range 20 {
		lv := AssignLevels(ns, es)
		for id, want := range first.Level {
			if lv.Level[id] != want {
				t.Fatalf("Level[%s] = %d, want %d", id, lv.Level[id], want)
			}
		}
		if !slices.Equal(lv.Roots, first.Roots) {
			t.Fatalf("Roots = %v, want %v", lv.Roots, first.Roots)
		}
	}
}
