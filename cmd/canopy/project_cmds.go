package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sergeknystautas/canopy/internal/config"
	"github.com/sergeknystautas/canopy/internal/github"
	"github.com/sergeknystautas/canopy/internal/state"
)

var (
	projectName        string
	projectBase        string
	projectURL         string
	projectRetargetPRs bool
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage the repositories canopy creates workspaces for",
}

var projectAddCmd = &cobra.Command{
	Use:   "add <repo-path>",
	Short: "Register a git repository as a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectAdd,
}

var projectListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List configured projects",
	Args:    cobra.NoArgs,
	RunE:    runProjectList,
}

var projectRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Forget a project (its workspaces are left on disk)",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectRemove,
}

func init() {
	projectAddCmd.Flags().StringVar(&projectName, "name", "", "project name (default: derived from --url or the repository directory)")
	projectAddCmd.Flags().StringVar(&projectBase, "base", config.DefaultBaseBranch, "base branch that root workspaces start from")
	projectAddCmd.Flags().StringVar(&projectURL, "url", "", "remote URL of the repository")
	projectAddCmd.Flags().BoolVar(&projectRetargetPRs, "retarget-prs", false, "retarget GitHub pull requests when stacked workspaces move")

	projectCmd.AddCommand(projectAddCmd, projectListCmd, projectRemoveCmd)
	projectCmd.GroupID = groupProjects
	rootCmd.AddCommand(projectCmd)
}

// defaultProjectName derives a project name from the remote URL, falling
// back to the repository directory name.
func defaultProjectName(repoPath, url string) string {
	if url != "" {
		if name := github.RepoName(url); name != "" {
			return name
		}
	}
	return filepath.Base(filepath.Clean(repoPath))
}

func runProjectAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	style := newTermStyle(cmd.OutOrStdout())

	repoPath, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	if _, err := os.Stat(filepath.Join(repoPath, ".git")); err != nil {
		return fmt.Errorf("%s is not a git repository", repoPath)
	}

	p := config.Project{
		Name:        projectName,
		RepoPath:    repoPath,
		RepoURL:     projectURL,
		BaseBranch:  projectBase,
		RetargetPRs: projectRetargetPRs,
	}
	if p.Name == "" {
		p.Name = defaultProjectName(repoPath, projectURL)
	}
	if p.RetargetPRs && !github.IsGitHubURL(p.RepoURL) {
		style.Warn("--retarget-prs needs a GitHub --url; pull requests will not be retargeted")
		p.RetargetPRs = false
	}

	if err := cfg.AddProject(p); err != nil {
		return err
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	style.Success(fmt.Sprintf("added project %s", p.Name))
	style.KeyValue("repository", style.Cyan(repoPath))
	style.KeyValue("base branch", p.GetBaseBranch())
	return nil
}

func runProjectList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	style := newTermStyle(cmd.OutOrStdout())

	if len(cfg.Projects) == 0 {
		style.Info("no projects configured; add one with: canopy project add <repo-path>")
		return nil
	}
	for _, p := range cfg.Projects {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n", style.Bold(p.Name), style.Cyan(p.RepoPath), style.Dim("base "+p.GetBaseBranch()))
	}
	return nil
}

func runProjectRemove(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	style := newTermStyle(cmd.OutOrStdout())

	if err := cfg.RemoveProject(args[0]); err != nil {
		return err
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	if path, err := config.StatePath(); err == nil {
		if st, err := state.Load(path); err == nil {
			st.RemoveRuns(args[0])
			if err := st.Save(); err != nil {
				style.Warn(fmt.Sprintf("could not clear runs: %v", err))
			}
		}
	}
	style.Success(fmt.Sprintf("removed project %s", args[0]))
	return nil
}
