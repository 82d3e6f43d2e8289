package tmux

import (
	"errors"
	"os/exec"
	"strings"
)

// Checker verifies that tmux can be run.
type Checker interface {
	Check() error
}

// TmuxChecker is the checker used by the CLI before opening sessions.
var TmuxChecker Checker = &defaultChecker{}

type defaultChecker struct{}

func (c *defaultChecker) Check() error {
	output, err := exec.Command("tmux", "-V").CombinedOutput()
	if err != nil {
		return errors.New("tmux is not installed or not accessible")
	}
	if strings.TrimSpace(string(output)) == "" {
		return errors.New("tmux command produced no output")
	}
	return nil
}
