// pkg/execute/helpers.go

package execute

import (
	"strings"
	"time"
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Long-running installs (package managers, content downloads) override
// this per call.
func defaultTimeout(t time.Duration) time.Duration {
	if t > 0 {
		return t
	}
	return 3 * time.Minute
}

func buildCommandString(command string, args ...string) string {
	if len(args) == 0 {
		return command
	}
	return command + " " + strings.Join(args, " ")
}
