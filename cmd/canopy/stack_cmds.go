package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sergeknystautas/canopy/internal/config"
	"github.com/sergeknystautas/canopy/internal/rebase"
	"github.com/sergeknystautas/canopy/internal/stack"
	"github.com/sergeknystautas/canopy/internal/state"
)

var (
	treeFormat string
	runsFormat string
)

var stackCmd = &cobra.Command{
	Use:   "stack",
	Short: "Inspect and maintain stacked workspaces",
}

var stackTreeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Show the stack forest of the project",
	Args:  cobra.NoArgs,
	RunE:  runStackTree,
}

var stackRebaseCmd = &cobra.Command{
	Use:   "rebase <workspace>",
	Short: "Rebase the workspaces stacked on a workspace onto its current branch",
	Args:  cobra.ExactArgs(1),
	RunE:  runStackRebase,
}

var stackOrphanCmd = &cobra.Command{
	Use:   "orphan <workspace>",
	Short: "Detach a workspace from its parent, making it a root",
	Args:  cobra.ExactArgs(1),
	RunE:  runStackOrphan,
}

var stackRunsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "Show recent cascade rebases",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStackRuns,
}

func init() {
	stackTreeCmd.Flags().StringVar(&treeFormat, "format", formatText, "output format: text, json or yaml")
	stackRunsCmd.Flags().StringVar(&runsFormat, "format", formatText, "output format: text, json or yaml")

	stackCmd.AddCommand(stackTreeCmd, stackRebaseCmd, stackOrphanCmd, stackRunsCmd)
	stackCmd.GroupID = groupStacks
	rootCmd.AddCommand(stackCmd)
}

func runStackTree(cmd *cobra.Command, args []string) error {
	if err := validateFormat(treeFormat); err != nil {
		return err
	}
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	roots, err := a.graph.BuildTree(cmd.Context(), a.workspaces)
	if err != nil {
		return err
	}
	if treeFormat != formatText {
		return writeFormatted(cmd.OutOrStdout(), treeFormat, roots)
	}
	if len(roots) == 0 {
		a.style.Info(fmt.Sprintf("no workspaces in %s yet", a.project.Name))
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), renderTree(a.style, roots))

	live, err := a.workspaces.List(a.project.Name)
	if err != nil {
		return err
	}
	if hidden := unreachable(roots, live); len(hidden) > 0 {
		a.style.Warn("not in any stack (parent missing or circular): " + strings.Join(hidden, ", "))
		a.style.Info("fix with: canopy stack orphan <workspace>")
	}
	return nil
}

// unreachable returns the live workspaces that the forest does not show.
func unreachable(roots []*stack.TreeNode, live []string) []string {
	shown := make(map[string]bool, len(live))
	stack.Walk(roots, func(n *stack.TreeNode) { shown[n.WorkspaceName] = true })
	var hidden []string
	for _, name := range live {
		if !shown[name] {
			hidden = append(hidden, name)
		}
	}
	return hidden
}

func runStackRebase(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	res, err := a.resolveWorkspace(cmd, args[0], false)
	if err != nil {
		return err
	}
	if res.Cancelled() {
		return exitCancelled(cmd)
	}
	parent := res.Workspace

	children, err := a.graph.GetChildren(parent.Name)
	if err != nil {
		return err
	}
	var live []rebase.Workspace
	for _, name := range children {
		if a.workspaces.Exists(a.project.Name, name) {
			live = append(live, rebase.Workspace{Name: name, Path: a.workspaces.Path(a.project.Name, name)})
		}
	}
	if len(live) == 0 {
		a.style.Info(fmt.Sprintf("nothing is stacked on %s", parent.Name))
		return nil
	}

	branch, err := parentBranch(ctx, a.workspaces, parent.Name, parent.Path)
	if err != nil {
		return err
	}
	target := rebase.Target{Parent: parent.Name, Branch: branch, SourcePath: parent.Path}

	run := state.NewRun(a.project.Name, state.TriggerRebase, parent.Name, branch)
	outcomes := a.rebaser.CascadeRebase(ctx, live, target)
	printOutcomes(a.style, outcomes, target)
	a.recordRun(run, outcomes)

	if n := rebase.Failures(outcomes); n > 0 {
		return fmt.Errorf("%d of %d stacked workspace(s) need attention", n, len(outcomes))
	}
	return nil
}

func runStackOrphan(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.resolveWorkspace(cmd, args[0], false)
	if err != nil {
		return err
	}
	if res.Cancelled() {
		return exitCancelled(cmd)
	}

	parent, ok, err := a.graph.GetParent(res.Workspace.Name)
	if err != nil {
		return err
	}
	if !ok {
		a.style.Info(fmt.Sprintf("%s is already a root", res.Workspace.Name))
		return nil
	}
	if err := a.rebaser.Orphan([]rebase.Workspace{{Name: res.Workspace.Name, Path: res.Workspace.Path}}); err != nil {
		return err
	}
	a.style.Success(fmt.Sprintf("%s is no longer stacked on %s", res.Workspace.Name, parent.Workspace))
	return nil
}

func runStackRuns(cmd *cobra.Command, args []string) error {
	if err := validateFormat(runsFormat); err != nil {
		return err
	}
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	path, err := config.StatePath()
	if err != nil {
		return err
	}
	st, err := state.Load(path)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		run, ok := st.GetRun(args[0])
		if !ok || run.Project != a.project.Name {
			return fmt.Errorf("no run matching %q in %s", args[0], a.project.Name)
		}
		if runsFormat != formatText {
			return writeFormatted(cmd.OutOrStdout(), runsFormat, run)
		}
		printRun(a.style, run)
		return nil
	}

	runs := st.GetRuns(a.project.Name)
	if runsFormat != formatText {
		return writeFormatted(cmd.OutOrStdout(), runsFormat, runs)
	}
	if len(runs) == 0 {
		a.style.Info("no cascade runs recorded")
		return nil
	}
	printRuns(cmd.OutOrStdout(), a.style, runs)
	return nil
}
