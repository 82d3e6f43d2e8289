package rebase

import (
	"context"
	"errors"
	"testing"

	"github.com/sergeknystautas/canopy/internal/stack"
)

type fakeLocator struct {
	live     map[string]bool
	branches map[string]string // keyed by path
}

func (f *fakeLocator) Exists(project, name string) bool { return f.live[name] }

func (f *fakeLocator) Path(project, name string) string { return "/ws/" + name }

func (f *fakeLocator) Branch(ctx context.Context, dir string) (string, error) {
	b, ok := f.branches[dir]
	if !ok {
		return "", errors.New("no branch")
	}
	return b, nil
}

var baseTarget = Target{Branch: "main", SourcePath: "/repo"}

func TestPlanRemovalOfStackedWorkspace(t *testing.T) {
	g := newGraph(t, stack.Edges{
		"mid":   {BasedOn: "top", BaseBranch: "top-old"},
		"leaf1": {BasedOn: "mid", BaseBranch: "mid"},
		"leaf2": {BasedOn: "mid", BaseBranch: "mid"},
		"ghost": {BasedOn: "mid", BaseBranch: "mid"},
	})
	loc := &fakeLocator{
		live:     map[string]bool{"top": true, "mid": true, "leaf1": true, "leaf2": true},
		branches: map[string]string{"/ws/top": "top-renamed"},
	}
	o := New(newFakeVCS(), g, nil)

	plan, err := o.PlanRemoval(context.Background(), loc, "mid", baseTarget)
	if err != nil {
		t.Fatalf("PlanRemoval() error = %v", err)
	}
	if len(plan.Children) != 2 || plan.Children[0].Name != "leaf1" || plan.Children[1].Name != "leaf2" {
		t.Errorf("Children = %+v", plan.Children)
	}
	if len(plan.Stale) != 1 || plan.Stale[0] != "ghost" {
		t.Errorf("Stale = %v", plan.Stale)
	}
	want := Target{Parent: "top", Branch: "top-renamed", SourcePath: "/ws/top"}
	if plan.Target != want {
		t.Errorf("Target = %+v, want %+v", plan.Target, want)
	}
}

func TestPlanRemovalFallsBackToEdgeBranch(t *testing.T) {
	g := newGraph(t, stack.Edges{"mid": {BasedOn: "top", BaseBranch: "top-old"}})
	loc := &fakeLocator{live: map[string]bool{"top": true, "mid": true}}
	o := New(newFakeVCS(), g, nil)

	plan, err := o.PlanRemoval(context.Background(), loc, "mid", baseTarget)
	if err != nil {
		t.Fatalf("PlanRemoval() error = %v", err)
	}
	if plan.Target.Branch != "top-old" {
		t.Errorf("Target.Branch = %q, want the recorded top-old", plan.Target.Branch)
	}
}

func TestPlanRemovalOfRootTargetsBase(t *testing.T) {
	g := newGraph(t, stack.Edges{"child": {BasedOn: "root", BaseBranch: "root"}})
	loc := &fakeLocator{live: map[string]bool{"root": true, "child": true}}
	o := New(newFakeVCS(), g, nil)

	plan, err := o.PlanRemoval(context.Background(), loc, "root", baseTarget)
	if err != nil {
		t.Fatalf("PlanRemoval() error = %v", err)
	}
	if plan.Target != baseTarget {
		t.Errorf("Target = %+v, want base", plan.Target)
	}
}

func TestPlanRemovalParentGoneTargetsBase(t *testing.T) {
	g := newGraph(t, stack.Edges{"mid": {BasedOn: "vanished", BaseBranch: "v"}})
	loc := &fakeLocator{live: map[string]bool{"mid": true}}
	o := New(newFakeVCS(), g, nil)

	plan, err := o.PlanRemoval(context.Background(), loc, "mid", baseTarget)
	if err != nil {
		t.Fatalf("PlanRemoval() error = %v", err)
	}
	if plan.Target != baseTarget {
		t.Errorf("Target = %+v, want base", plan.Target)
	}
}

func TestApplyRemovalPolicy(t *testing.T) {
	edges := func() stack.Edges {
		return stack.Edges{
			"leaf1": {BasedOn: "mid", BaseBranch: "mid"},
			"leaf2": {BasedOn: "mid", BaseBranch: "mid"},
			"ghost": {BasedOn: "mid", BaseBranch: "mid"},
		}
	}
	plan := RemovalPlan{
		Workspace: ws("mid"),
		Children:  []Workspace{ws("leaf1"), ws("leaf2")},
		Stale:     []string{"ghost"},
		Target:    Target{Parent: "top", Branch: "top", SourcePath: "/ws/top"},
	}

	t.Run("cancel", func(t *testing.T) {
		g := newGraph(t, edges())
		o := New(newFakeVCS(), g, nil)
		_, err := o.ApplyRemovalPolicy(context.Background(), plan, PolicyCancel)
		if !errors.Is(err, ErrRemovalCancelled) {
			t.Fatalf("error = %v, want ErrRemovalCancelled", err)
		}
		got, _ := g.Edges()
		if len(got) != 3 {
			t.Errorf("cancel must not touch edges: %+v", got)
		}
	})

	t.Run("rebase", func(t *testing.T) {
		vcs := newFakeVCS()
		vcs.clean("/ws/leaf1", "/ws/leaf2")
		g := newGraph(t, edges())
		o := New(vcs, g, nil)
		outcomes, err := o.ApplyRemovalPolicy(context.Background(), plan, PolicyRebase)
		if err != nil {
			t.Fatalf("error = %v", err)
		}
		if len(outcomes) != 2 || Failures(outcomes) != 0 {
			t.Fatalf("outcomes = %+v", outcomes)
		}
		got, _ := g.Edges()
		if got["leaf1"].BasedOn != "top" || got["leaf2"].BasedOn != "top" {
			t.Errorf("children should be re-parented onto top: %+v", got)
		}
		if _, ok := got["ghost"]; ok {
			t.Error("stale edge should be removed")
		}
	})

	t.Run("orphan", func(t *testing.T) {
		vcs := newFakeVCS()
		g := newGraph(t, edges())
		o := New(vcs, g, nil)
		outcomes, err := o.ApplyRemovalPolicy(context.Background(), plan, PolicyOrphan)
		if err != nil {
			t.Fatalf("error = %v", err)
		}
		if outcomes != nil {
			t.Errorf("orphan should not rebase: %+v", outcomes)
		}
		if len(vcs.rebased) != 0 {
			t.Error("orphan must not run git rebase")
		}
		got, _ := g.Edges()
		if len(got) != 0 {
			t.Errorf("every child should be a root: %+v", got)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		o := New(newFakeVCS(), newGraph(t, edges()), nil)
		if _, err := o.ApplyRemovalPolicy(context.Background(), plan, Policy("delete-all")); err == nil {
			t.Fatal("unknown policy should fail")
		}
	})
}

func TestPolicyFlagValue(t *testing.T) {
	var p Policy
	if err := p.Set("orphan"); err != nil || p != PolicyOrphan {
		t.Fatalf("Set(orphan) = %v, policy %q", err, p)
	}
	if p.String() != "orphan" || p.Type() != "policy" {
		t.Errorf("String/Type = %q/%q", p.String(), p.Type())
	}
	if err := p.Set("explode"); err == nil {
		t.Error("Set should reject unknown policies")
	}
	if p != PolicyOrphan {
		t.Error("a rejected Set must not change the value")
	}
}
