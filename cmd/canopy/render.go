package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss/tree"
	"gopkg.in/yaml.v3"

	"github.com/sergeknystautas/canopy/internal/rebase"
	"github.com/sergeknystautas/canopy/internal/stack"
	"github.com/sergeknystautas/canopy/internal/state"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func validateFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	}
	return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
}

// writeFormatted encodes v as indented JSON or YAML.
func writeFormatted(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return validateFormat(format)
}

// renderTree draws the stack forest, one tree per root.
func renderTree(t *termStyle, roots []*stack.TreeNode) string {
	if len(roots) == 0 {
		return ""
	}
	var b strings.Builder
	for _, root := range roots {
		b.WriteString(subtree(t, root).String())
		b.WriteString("\n")
	}
	return b.String()
}

func subtree(t *termStyle, n *stack.TreeNode) *tree.Tree {
	st := tree.Root(nodeLabel(t, n)).Enumerator(tree.RoundedEnumerator)
	for _, c := range n.Children {
		if len(c.Children) == 0 {
			st.Child(nodeLabel(t, c))
		} else {
			st.Child(subtree(t, c))
		}
	}
	return st
}

func nodeLabel(t *termStyle, n *stack.TreeNode) string {
	branch := n.Branch
	if branch == "" {
		branch = "?"
	}
	return t.Bold(n.WorkspaceName) + " " + t.Dim("["+branch+"]")
}

// printOutcomes summarises a cascade, one line per child.
func printOutcomes(t *termStyle, outcomes []rebase.ChildOutcome, target rebase.Target) {
	onto := target.Branch
	if target.Parent != "" {
		onto = fmt.Sprintf("%s (%s)", target.Parent, target.Branch)
	}
	for _, o := range outcomes {
		switch o.Result {
		case rebase.Success:
			t.Success(fmt.Sprintf("%s rebased onto %s", o.Workspace.Name, onto))
		case rebase.ConflictFailure:
			t.Error(fmt.Sprintf("%s has conflicts rebasing onto %s", o.Workspace.Name, onto))
			for _, f := range o.ConflictedFiles {
				t.Bullet(f)
			}
			t.Code("cd "+o.Workspace.Path, "git rebase --continue")
		default:
			t.Error(fmt.Sprintf("%s was not rebased: %s", o.Workspace.Name, o.Detail))
		}
	}
}

// printRuns lists cascade runs, newest first.
func printRuns(w io.Writer, t *termStyle, runs []state.Run) {
	for _, r := range runs {
		status := t.Green("ok")
		if n := r.Failed(); n > 0 {
			status = t.Red(fmt.Sprintf("%d failed", n))
		}
		fmt.Fprintf(w, "%s  %s  %-6s  %s onto %s  %d child(ren)  %s\n",
			t.Dim(shortID(r.ID)),
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Trigger,
			r.Target,
			r.TargetBranch,
			len(r.Outcomes),
			status,
		)
	}
}

// printRun shows one run with every outcome.
func printRun(t *termStyle, r state.Run) {
	t.KeyValue("run", r.ID)
	t.KeyValue("project", r.Project)
	t.KeyValue("trigger", string(r.Trigger))
	t.KeyValue("target", fmt.Sprintf("%s (%s)", r.Target, r.TargetBranch))
	t.KeyValue("started", r.StartedAt.Local().Format("2006-01-02 15:04:05"))
	for _, o := range r.Outcomes {
		line := fmt.Sprintf("%s: %s", o.Workspace, o.Result)
		if o.Detail != "" {
			line += " " + t.Dim(o.Detail)
		}
		t.Bullet(line)
		for _, f := range o.ConflictedFiles {
			fmt.Fprintf(t.out, "      %s\n", t.Yellow(f))
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
