package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sergeknystautas/canopy/internal/rebase"
	"github.com/sergeknystautas/canopy/internal/resolve"
	"github.com/sergeknystautas/canopy/internal/stack"
	"github.com/sergeknystautas/canopy/internal/state"
	"github.com/sergeknystautas/canopy/internal/tmux"
)

var (
	createBranch    string
	createOn        string
	createNoSession bool

	switchForce bool

	removeForce  bool
	removePolicy rebase.Policy
	removeYes    bool

	listFormat string
)

var _ pflag.Value = (*rebase.Policy)(nil)

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a workspace, optionally stacked on another",
	Long: `Create a git worktree for a new branch. With --on the branch starts from
the parent workspace's branch and the new workspace is stacked on it.`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

var switchCmd = &cobra.Command{
	Use:     "switch <query>",
	Aliases: []string{"sw"},
	Short:   "Open the session of a workspace, fuzzy matching its name",
	Args:    cobra.ExactArgs(1),
	RunE:    runSwitch,
}

var removeCmd = &cobra.Command{
	Use:     "remove <query>",
	Aliases: []string{"rm"},
	Short:   "Remove a workspace and handle the workspaces stacked on it",
	Args:    cobra.ExactArgs(1),
	RunE:    runRemove,
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List workspaces with their git status",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

func init() {
	createCmd.Flags().StringVarP(&createBranch, "branch", "b", "", "branch name (default: the workspace name)")
	createCmd.Flags().StringVar(&createOn, "on", "", "stack the workspace on this parent workspace")
	createCmd.Flags().BoolVar(&createNoSession, "no-session", false, "do not open a tmux session")

	switchCmd.Flags().BoolVarP(&switchForce, "force", "f", false, "take the best match without asking")

	removeCmd.Flags().BoolVarP(&removeForce, "force", "f", false, "take the best match without asking")
	removeCmd.Flags().Var(&removePolicy, "policy", "what to do with stacked workspaces: rebase, orphan or cancel")
	removeCmd.Flags().BoolVarP(&removeYes, "yes", "y", false, "do not ask for confirmation")

	listCmd.Flags().StringVar(&listFormat, "format", formatText, "output format: text, json or yaml")

	for _, c := range []*cobra.Command{createCmd, switchCmd, removeCmd, listCmd} {
		c.GroupID = groupWorkspaces
		rootCmd.AddCommand(c)
	}
}

func runCreate(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	name := args[0]
	branch := createBranch
	if branch == "" {
		branch = name
	}

	startPoint := ""
	onBranch := ""
	if createOn != "" {
		if !a.workspaces.Exists(a.project.Name, createOn) {
			return fmt.Errorf("parent workspace %s does not exist", createOn)
		}
		cycle, err := a.graph.DetectCircularDependency(createOn, name)
		if err != nil {
			return err
		}
		if cycle {
			return &stack.CycleError{Child: name, Parent: createOn}
		}
		onBranch, err = parentBranch(ctx, a.workspaces, createOn, a.workspaces.Path(a.project.Name, createOn))
		if err != nil {
			return err
		}
		startPoint = onBranch
	}

	path, err := a.workspaces.Create(ctx, a.project.Name, name, branch, startPoint)
	if err != nil {
		return err
	}

	if createOn != "" {
		if err := a.graph.Stack(name, createOn, onBranch); err != nil {
			if rmErr := a.workspaces.Remove(ctx, a.project.Name, name); rmErr != nil {
				a.style.Warn(fmt.Sprintf("could not clean up %s: %v", path, rmErr))
			}
			return err
		}
		a.style.Success(fmt.Sprintf("created %s on %s (stacked on %s)", name, branch, createOn))
	} else {
		// a previous workspace of the same name may have left an edge behind
		if err := a.graph.RemoveEdge(name); err != nil {
			return err
		}
		a.style.Success(fmt.Sprintf("created %s on %s", name, branch))
	}
	a.style.KeyValue("path", a.style.Cyan(path))

	if createNoSession {
		return nil
	}
	if err := tmux.TmuxChecker.Check(); err != nil {
		a.style.Warn(fmt.Sprintf("not opening a session: %v", err))
		return nil
	}
	return a.openSession(cmd, name, path)
}

func runSwitch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.resolveWorkspace(cmd, args[0], switchForce)
	if err != nil {
		return err
	}
	if res.Cancelled() {
		return exitCancelled(cmd)
	}
	if err := tmux.TmuxChecker.Check(); err != nil {
		return err
	}
	return a.openSession(cmd, res.Workspace.Name, res.Workspace.Path)
}

// openSession moves the terminal to the workspace's session. Without a
// terminal to attach, the session is only created and the attach command
// printed.
func (a *app) openSession(cmd *cobra.Command, name, path string) error {
	ctx := cmd.Context()
	if tmux.InsideTmux() || stdinIsTerminal() {
		return a.sessions.Open(ctx, a.project.Name, name, path)
	}
	if err := a.sessions.Ensure(ctx, a.project.Name, name, path); err != nil {
		return err
	}
	a.style.Info("attach with:")
	a.style.Code(tmux.GetAttachCommand(a.sessions.Name(a.project.Name, name)))
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	res, err := a.resolveWorkspace(cmd, args[0], removeForce)
	if err != nil {
		return err
	}
	if res.Cancelled() {
		return exitCancelled(cmd)
	}
	name := res.Workspace.Name

	plan, err := a.rebaser.PlanRemoval(ctx, a.workspaces, name, a.baseTarget())
	if err != nil {
		return err
	}

	policy, err := choosePolicy(name, plan)
	if err != nil {
		return err
	}
	if len(plan.Children) == 0 && !removeYes {
		if !stdinIsTerminal() {
			return errors.New("refusing to remove without confirmation; pass --yes")
		}
		ok, err := confirm(fmt.Sprintf("Remove workspace %s?", name))
		if err != nil {
			return err
		}
		if !ok {
			return exitCancelled(cmd)
		}
	}

	run := state.NewRun(a.project.Name, state.TriggerRemove, name, plan.Target.Branch)
	outcomes, err := a.rebaser.ApplyRemovalPolicy(ctx, plan, policy)
	if errors.Is(err, rebase.ErrRemovalCancelled) {
		return exitCancelled(cmd)
	}
	if err != nil {
		return err
	}
	if policy == rebase.PolicyRebase && len(outcomes) > 0 {
		printOutcomes(a.style, outcomes, plan.Target)
		a.recordRun(run, outcomes)
		a.retarget(cmd, outcomes, plan.Target.Branch)
	}
	if policy == rebase.PolicyOrphan {
		for _, c := range plan.Children {
			a.style.Info(fmt.Sprintf("%s is now a root", c.Name))
		}
	}

	if a.sessions.Exists(ctx, a.project.Name, name) {
		if err := a.sessions.Close(ctx, a.project.Name, name); err != nil {
			a.style.Warn(fmt.Sprintf("could not close session: %v", err))
		}
	}
	if err := a.workspaces.Remove(ctx, a.project.Name, name); err != nil {
		return err
	}
	if err := a.graph.RemoveEdge(name); err != nil {
		return err
	}
	a.style.Success(fmt.Sprintf("removed %s", name))

	if n := rebase.Failures(outcomes); n > 0 {
		return fmt.Errorf("%d stacked workspace(s) need attention", n)
	}
	return nil
}

// choosePolicy returns the --policy flag, or asks when the workspace has
// children and no policy was given.
func choosePolicy(name string, plan rebase.RemovalPlan) (rebase.Policy, error) {
	if removePolicy != "" {
		return removePolicy, nil
	}
	if len(plan.Children) == 0 {
		return rebase.PolicyOrphan, nil
	}
	if !stdinIsTerminal() {
		return "", fmt.Errorf("%s has stacked workspaces (%s); pass --policy", name, childNames(plan.Children))
	}
	return promptPolicy(name, plan.Children)
}

// listEntry is one row of the list command.
type listEntry struct {
	resolve.Candidate `yaml:",inline"`
	Parent            string `json:"parent,omitempty" yaml:"parent,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	if err := validateFormat(listFormat); err != nil {
		return err
	}
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	live, err := a.workspaces.List(a.project.Name)
	if err != nil {
		return err
	}
	candidates := a.resolver().Candidates(cmd.Context(), a.project.Name, live)

	entries := make([]listEntry, 0, len(candidates))
	for _, c := range candidates {
		parent, _, err := a.graph.GetParent(c.Name)
		if err != nil {
			return err
		}
		entries = append(entries, listEntry{Candidate: c, Parent: parent.Workspace})
	}

	if listFormat != formatText {
		return writeFormatted(cmd.OutOrStdout(), listFormat, entries)
	}
	if len(entries) == 0 {
		a.style.Info(fmt.Sprintf("no workspaces in %s yet; create one with: canopy create <name>", a.project.Name))
		return nil
	}
	for _, e := range entries {
		line := resolve.Label(e.Candidate)
		if e.LastCommitSubject != "" {
			line += "  " + a.style.Dim(truncate(e.LastCommitSubject, 50))
		}
		if e.Parent != "" {
			line += "  " + a.style.Dim("on "+e.Parent)
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
