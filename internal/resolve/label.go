package resolve

import (
	"fmt"
	"strings"
)

// Label renders a candidate on one line:
//
//	name  [branch +A -B]  status  (active)
func Label(c Candidate) string {
	var b strings.Builder
	b.WriteString(c.Name)

	branch := c.Branch
	if branch == "" {
		branch = "?"
	}
	fmt.Fprintf(&b, "  [%s +%d -%d]", branch, c.Ahead, c.Behind)

	b.WriteString("  ")
	b.WriteString(StatusText(c))

	if c.HasActiveSession {
		b.WriteString("  (active)")
	}
	return b.String()
}

// StatusText summarizes the working tree and the last commit age.
func StatusText(c Candidate) string {
	status := "clean"
	if c.UncommittedChanges > 0 {
		status = fmt.Sprintf("%d uncommitted", c.UncommittedChanges)
	}
	if c.LastCommit != "" {
		status += ", " + c.LastCommit
	}
	return status
}
