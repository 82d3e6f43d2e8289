package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/sergeknystautas/canopy/internal/rebase"
	"github.com/sergeknystautas/canopy/internal/resolve"
)

// huhChooser asks the user to pick between ranked workspaces.
type huhChooser struct {
	style *termStyle
}

var _ resolve.Chooser = (*huhChooser)(nil)

func (c *huhChooser) Choose(ctx context.Context, query string, ranked []resolve.RankedWorkspace) (int, bool, error) {
	options := make([]huh.Option[int], len(ranked))
	for i, r := range ranked {
		options[i] = huh.NewOption(resolve.Label(r.Candidate), i)
	}

	choice := 0
	err := huh.NewSelect[int]().
		Title(fmt.Sprintf("Several workspaces match %q", query)).
		Options(options...).
		Value(&choice).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return choice, true, nil
}

// promptPolicy asks what to do with the children of a workspace being
// removed.
func promptPolicy(workspace string, children []rebase.Workspace) (rebase.Policy, error) {
	descriptions := map[rebase.Policy]string{
		rebase.PolicyRebase: "rebase them onto its parent",
		rebase.PolicyOrphan: "leave them in place as roots",
		rebase.PolicyCancel: "keep " + workspace,
	}
	options := make([]huh.Option[rebase.Policy], 0, len(rebase.Policies))
	for _, p := range rebase.Policies {
		options = append(options, huh.NewOption(fmt.Sprintf("%s: %s", p, descriptions[p]), p))
	}

	policy := rebase.PolicyRebase
	err := huh.NewSelect[rebase.Policy]().
		Title(fmt.Sprintf("%s has %d stacked workspace(s)", workspace, len(children))).
		Description(childNames(children)).
		Options(options...).
		Value(&policy).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return rebase.PolicyCancel, nil
	}
	if err != nil {
		return "", err
	}
	return policy, nil
}

// confirm asks a yes/no question, treating an abort as no.
func confirm(title string) (bool, error) {
	ok := false
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}

func childNames(children []rebase.Workspace) string {
	s := ""
	for i, c := range children {
		if i > 0 {
			s += ", "
		}
		s += c.Name
	}
	return s
}
