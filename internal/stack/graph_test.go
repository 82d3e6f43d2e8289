package stack

import (
	"errors"
	"reflect"
	"testing"
)

func newTestGraph(t *testing.T, edges Edges) *Graph {
	t.Helper()
	store := NewMemoryStore()
	if err := store.SaveEdges("proj", edges); err != nil {
		t.Fatalf("SaveEdges() error = %v", err)
	}
	return NewGraph("proj", store)
}

func TestSetEdgeGetParentRoundTrip(t *testing.T) {
	g := newTestGraph(t, nil)

	if err := g.SetEdge("child", "parent", "feature/parent"); err != nil {
		t.Fatalf("SetEdge() error = %v", err)
	}
	p, ok, err := g.GetParent("child")
	if err != nil {
		t.Fatalf("GetParent() error = %v", err)
	}
	if !ok {
		t.Fatal("expected child to have a parent")
	}
	if p.Workspace != "parent" || p.Branch != "feature/parent" {
		t.Errorf("GetParent() = %+v, want parent/feature/parent", p)
	}

	if err := g.RemoveEdge("child"); err != nil {
		t.Fatalf("RemoveEdge() error = %v", err)
	}
	if _, ok, _ := g.GetParent("child"); ok {
		t.Error("expected no parent after RemoveEdge")
	}
}

func TestSetEdgeOverwrites(t *testing.T) {
	g := newTestGraph(t, Edges{"c": {BasedOn: "b", BaseBranch: "b"}})

	if err := g.SetEdge("c", "a", "main-a"); err != nil {
		t.Fatalf("SetEdge() error = %v", err)
	}
	p, _, _ := g.GetParent("c")
	if p.Workspace != "a" || p.Branch != "main-a" {
		t.Errorf("GetParent() = %+v, want a/main-a", p)
	}
}

func TestSetEdgeRequiresNames(t *testing.T) {
	g := newTestGraph(t, nil)
	if err := g.SetEdge("", "p", "b"); err == nil {
		t.Error("expected error for empty child")
	}
	if err := g.SetEdge("c", "", "b"); err == nil {
		t.Error("expected error for empty parent")
	}
}

func TestRemoveEdgeMissingIsNoop(t *testing.T) {
	g := newTestGraph(t, Edges{"b": {BasedOn: "a", BaseBranch: "a"}})
	if err := g.RemoveEdge("nope"); err != nil {
		t.Fatalf("RemoveEdge() on missing edge error = %v", err)
	}
	edges, _ := g.Edges()
	if len(edges) != 1 {
		t.Errorf("expected edges untouched, got %v", edges)
	}
}

func TestGetChildren(t *testing.T) {
	g := newTestGraph(t, Edges{
		"c2": {BasedOn: "p", BaseBranch: "p"},
		"c1": {BasedOn: "p", BaseBranch: "p"},
		"x":  {BasedOn: "other", BaseBranch: "other"},
	})

	children, err := g.GetChildren("p")
	if err != nil {
		t.Fatalf("GetChildren() error = %v", err)
	}
	if !reflect.DeepEqual(children, []string{"c1", "c2"}) {
		t.Errorf("GetChildren() = %v, want [c1 c2]", children)
	}

	children, _ = g.GetChildren("leaf")
	if len(children) != 0 {
		t.Errorf("GetChildren(leaf) = %v, want none", children)
	}
}

func TestDetectCircularDependency(t *testing.T) {
	// C is based on B, B is based on A.
	edges := Edges{
		"B": {BasedOn: "A", BaseBranch: "a"},
		"C": {BasedOn: "B", BaseBranch: "b"},
	}

	tests := []struct {
		name            string
		edges           Edges
		candidateParent string
		proposedChild   string
		want            bool
	}{
		{"ancestor below descendant", edges, "C", "A", true},
		{"root parent", edges, "A", "C", false},
		{"self", edges, "B", "B", true},
		{"unrelated new workspace", edges, "C", "D", false},
		{"middle of chain", edges, "C", "B", true},
		{"existing loop is detected", Edges{
			"x": {BasedOn: "y"},
			"y": {BasedOn: "x"},
		}, "x", "new", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGraph(t, tt.edges)
			got, err := g.DetectCircularDependency(tt.candidateParent, tt.proposedChild)
			if err != nil {
				t.Fatalf("DetectCircularDependency() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DetectCircularDependency(%q, %q) = %v, want %v", tt.candidateParent, tt.proposedChild, got, tt.want)
			}
		})
	}
}

func TestStackRejectsCycle(t *testing.T) {
	g := newTestGraph(t, Edges{
		"B": {BasedOn: "A", BaseBranch: "a"},
		"C": {BasedOn: "B", BaseBranch: "b"},
	})

	err := g.Stack("A", "C", "c")
	if !errors.Is(err, ErrCircularDependency) {
		t.Fatalf("Stack() error = %v, want ErrCircularDependency", err)
	}
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) || cycleErr.Child != "A" || cycleErr.Parent != "C" {
		t.Errorf("expected CycleError{A, C}, got %v", err)
	}
	if _, ok, _ := g.GetParent("A"); ok {
		t.Error("rejected edge must not be stored")
	}

	if err := g.Stack("D", "C", "c"); err != nil {
		t.Fatalf("Stack(D on C) error = %v", err)
	}
	if p, ok, _ := g.GetParent("D"); !ok || p.Workspace != "C" {
		t.Errorf("expected D stacked on C, got %+v (ok=%v)", p, ok)
	}
}

type failingStore struct{ err error }

func (f failingStore) LoadEdges(string) (Edges, error) { return nil, f.err }
func (f failingStore) SaveEdges(string, Edges) error { return f.err }

func TestGraphSurfacesStoreErrors(t *testing.T) {
	boom := errors.New("disk full")
	g := NewGraph("proj", failingStore{err: boom})

	if err := g.SetEdge("a", "b", "b"); !errors.Is(err, boom) {
		t.Errorf("SetEdge() error = %v, want wrapped %v", err, boom)
	}
	if _, _, err := g.GetParent("a"); !errors.Is(err, boom) {
		t.Errorf("GetParent() error = %v, want wrapped %v", err, boom)
	}
}

func TestMemoryStoreIsolatesCopies(t *testing.T) {
	store := NewMemoryStore()
	edges := Edges{"a": {BasedOn: "b"}}
	if err := store.SaveEdges("p", edges); err != nil {
		t.Fatal(err)
	}
	edges["z"] = Edge{BasedOn: "y"}

	loaded, _ := store.LoadEdges("p")
	if _, ok := loaded["z"]; ok {
		t.Error("store must not alias the saved map")
	}
	loaded["q"] = Edge{}
	again, _ := store.LoadEdges("p")
	if _, ok := again["q"]; ok {
		t.Error("store must not alias the loaded map")
	}
}
