package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sergeknystautas/canopy/internal/version"
)

const (
	groupWorkspaces = "workspaces"
	groupStacks     = "stacks"
	groupProjects   = "projects"
	groupTooling    = "tooling"
)

var (
	flagProject string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "canopy",
	Short: "canopy - stacked git worktrees with tmux sessions",
	Long: `canopy keeps one git worktree per branch ("workspaces"), grouped by project,
each with its own tmux session. Workspaces can be stacked on top of each other;
removing or rebasing a parent cascades to its children.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "canopy %s\n", version.Version)
	},
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: groupWorkspaces, Title: "Workspaces:"},
		&cobra.Group{ID: groupStacks, Title: "Stacks:"},
		&cobra.Group{ID: groupProjects, Title: "Projects:"},
		&cobra.Group{ID: groupTooling, Title: "Tooling:"},
	)

	rootCmd.PersistentFlags().StringVarP(&flagProject, "project", "p", "", "project to operate on (default $CANOPY_PROJECT, or the only configured project)")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "copy log output to stderr")

	versionCmd.GroupID = groupTooling
	rootCmd.AddCommand(versionCmd)
	rootCmd.SetHelpCommandGroupID(groupTooling)
}

// Execute runs the root command. SIGINT and SIGTERM cancel running git
// and tmux commands.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// exitCancelled reports a cancelled selection. Cancelling is not an error.
func exitCancelled(cmd *cobra.Command) error {
	fmt.Fprintln(cmd.OutOrStdout(), "cancelled")
	return nil
}

func stdinIsTerminal() bool {
	return isTerminal(os.Stdin)
}
