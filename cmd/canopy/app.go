package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sergeknystautas/canopy/internal/config"
	"github.com/sergeknystautas/canopy/internal/github"
	"github.com/sergeknystautas/canopy/internal/rebase"
	"github.com/sergeknystautas/canopy/internal/resolve"
	"github.com/sergeknystautas/canopy/internal/session"
	"github.com/sergeknystautas/canopy/internal/stack"
	"github.com/sergeknystautas/canopy/internal/state"
	"github.com/sergeknystautas/canopy/internal/tmux"
	"github.com/sergeknystautas/canopy/internal/workspace"
)

// projectEnv selects the project when --project is not given.
const projectEnv = "CANOPY_PROJECT"

// errNoConfig is returned when the user declines to create a config.
var errNoConfig = errors.New("no config; run canopy again to create one")

// app holds the components one command invocation works with.
type app struct {
	cfg      *config.Config
	project  *config.Project
	logOut   io.Writer
	closeLog func()
	style    *termStyle

	workspaces *workspace.Manager
	sessions   *session.Manager
	graph      *stack.Graph
	rebaser    *rebase.Orchestrator
	gh         *github.CLI
}

// loadConfig makes sure a config exists, offering to create one when stdin
// is a terminal, and loads it.
func loadConfig() (*config.Config, error) {
	if !config.ConfigExists() {
		if !stdinIsTerminal() {
			path, _ := config.ConfigPath()
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, path)
		}
		ok, err := config.EnsureExists()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errNoConfig
		}
	}
	path, err := config.ConfigPath()
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

// openLog opens the log file for appending. With verbose set the output is
// also copied to stderr.
func openLog(verbose bool) (io.Writer, func()) {
	var sinks []io.Writer
	closeFn := func() {}

	if path, err := config.LogPath(); err == nil {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err == nil {
			if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
				sinks = append(sinks, f)
				closeFn = func() { f.Close() }
			}
		}
	}
	if verbose {
		sinks = append(sinks, os.Stderr)
	}

	switch len(sinks) {
	case 0:
		return io.Discard, closeFn
	case 1:
		return sinks[0], closeFn
	}
	return io.MultiWriter(sinks...), closeFn
}

// selectProject picks the project named by flag, then $CANOPY_PROJECT, then
// the only configured project.
func selectProject(cfg *config.Config, flag string) (*config.Project, error) {
	name := flag
	if name == "" {
		name = os.Getenv(projectEnv)
	}
	if name != "" {
		p, ok := cfg.FindProject(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", config.ErrProjectNotFound, name)
		}
		return p, nil
	}

	if p, ok := cfg.DefaultProject(); ok {
		return p, nil
	}
	names := cfg.ProjectNames()
	if len(names) == 0 {
		return nil, errors.New("no projects configured; add one with: canopy project add <repo-path>")
	}
	return nil, fmt.Errorf("several projects configured, pick one with --project (%s)", strings.Join(names, ", "))
}

// newApp loads config and wires the components for the selected project.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	project, err := selectProject(cfg, flagProject)
	if err != nil {
		return nil, err
	}

	logOut, closeLog := openLog(flagVerbose)
	graph := stack.NewGraph(project.Name, config.NewEdgeStore(cfg))
	workspaces := workspace.New(cfg, logOut)

	return &app{
		cfg:        cfg,
		project:    project,
		logOut:     logOut,
		closeLog:   closeLog,
		style:      newTermStyle(cmd.OutOrStdout()),
		workspaces: workspaces,
		sessions:   session.New(cfg.GetSessionPrefix(), tmux.NewTmuxService(), logOut),
		graph:      graph,
		rebaser:    rebase.New(workspaces, graph, logOut),
		gh:         github.NewCLI(project.RepoURL),
	}, nil
}

func (a *app) Close() {
	a.closeLog()
}

// resolver returns a resolver that prompts only when stdin is a terminal.
func (a *app) resolver() *resolve.Resolver {
	var chooser resolve.Chooser
	if stdinIsTerminal() {
		chooser = &huhChooser{style: a.style}
	}
	return resolve.New(a.workspaces, a.sessions, chooser)
}

// resolveWorkspace resolves query against the project's live workspaces.
func (a *app) resolveWorkspace(cmd *cobra.Command, query string, force bool) (resolve.Result, error) {
	live, err := a.workspaces.List(a.project.Name)
	if err != nil {
		return resolve.Result{}, err
	}
	return resolveAndReport(cmd.Context(), a.resolver(), a.style, a.project.Name, query, live, force)
}

// resolveAndReport resolves query and tells the user which workspace was
// used when it is not the name they typed.
func resolveAndReport(ctx context.Context, r *resolve.Resolver, style *termStyle, project, query string, live []string, force bool) (resolve.Result, error) {
	res, err := r.Resolve(ctx, project, query, live, force)
	if err != nil || !res.Substituted() {
		return res, err
	}

	name := res.Workspace.Name
	if res.Outcome == resolve.OutcomeChosen {
		style.Info(fmt.Sprintf("using %s", name))
		return res, nil
	}
	for _, ranked := range res.Ranked {
		if ranked.Candidate.Name == name {
			name = style.Highlight(name, ranked.MatchedIndices)
			break
		}
	}
	style.Info(fmt.Sprintf("using %s for %q", name, query))
	return res, nil
}

// errDetachedHead is returned when a parent workspace has no branch checked
// out, so there is nothing to stack on or rebase onto.
var errDetachedHead = errors.New("workspace is in detached HEAD state")

// branchReader reads the checked-out branch of a working tree.
type branchReader interface {
	Branch(ctx context.Context, dir string) (string, error)
}

// parentBranch returns the branch checked out in the parent workspace,
// rejecting a detached HEAD.
func parentBranch(ctx context.Context, br branchReader, name, path string) (string, error) {
	branch, err := br.Branch(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to read branch of %s: %w", name, err)
	}
	if branch == "" || branch == "HEAD" {
		return "", fmt.Errorf("%w: check out a branch in %s first", errDetachedHead, name)
	}
	return branch, nil
}

// baseTarget is where roots of the project are rebased onto.
func (a *app) baseTarget() rebase.Target {
	return rebase.Target{Branch: a.project.GetBaseBranch(), SourcePath: a.project.RepoPath}
}

// recordRun saves a cascade run to the state file. Failures are logged and
// never fail the command.
func (a *app) recordRun(run state.Run, outcomes []rebase.ChildOutcome) {
	path, err := config.StatePath()
	if err != nil {
		a.style.Warn(fmt.Sprintf("could not record run: %v", err))
		return
	}
	st, err := state.Load(path)
	if err != nil {
		a.style.Warn(fmt.Sprintf("could not record run: %v", err))
		return
	}
	run.Outcomes = runOutcomes(outcomes)
	run.FinishedAt = time.Now()
	if err := st.AddRun(run); err != nil {
		a.style.Warn(fmt.Sprintf("could not record run: %v", err))
		return
	}
	if err := st.Save(); err != nil {
		a.style.Warn(fmt.Sprintf("could not record run: %v", err))
	}
}

// retarget points the pull requests of re-parented children at their new
// base. Failures are warnings.
func (a *app) retarget(cmd *cobra.Command, outcomes []rebase.ChildOutcome, base string) {
	if !a.project.RetargetPRs {
		return
	}
	for _, o := range outcomes {
		if o.Failed() || o.Branch == "" {
			continue
		}
		if err := a.gh.RetargetPR(cmd.Context(), o.Workspace.Path, o.Branch, base); err != nil {
			a.style.Warn(fmt.Sprintf("could not retarget PR for %s: %v", o.Workspace.Name, err))
			continue
		}
		a.style.Success(fmt.Sprintf("retargeted PR for %s to %s", o.Branch, base))
	}
}

func runOutcomes(outcomes []rebase.ChildOutcome) []state.RunOutcome {
	out := make([]state.RunOutcome, 0, len(outcomes))
	for _, o := range outcomes {
		out = append(out, state.RunOutcome{
			Workspace:       o.Workspace.Name,
			Result:          o.Result.String(),
			Detail:          o.Detail,
			ConflictedFiles: o.ConflictedFiles,
		})
	}
	return out
}
