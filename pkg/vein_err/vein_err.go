// pkg/vein_err/vein_err.go

// Package vein_err separates expected operator-facing failures (declined
// confirmations, precondition gates, unsupported hosts) from genuine system
// errors so the CLI can report the former without a stack trace. Every fatal
// condition still exits non-zero.
package vein_err

import (
	"context"
	"strings"

	cerr "github.com/cockroachdb/errors"
)

// userError marks an error as an expected, operator-correctable condition.
type userError struct {
	err error
}

func (e *userError) Error() string { return e.err.Error() }
func (e *userError) Unwrap() error { return e.err }

// NewExpectedError wraps err so IsExpectedUserError reports true for it.
// The context parameter keeps call sites uniform with the rest of the
// codebase; it is currently unused.
func NewExpectedError(_ context.Context, err error) error {
	if err == nil {
		return nil
	}
	return &userError{err: err}
}

// IsExpectedUserError reports whether err (or anything it wraps) was marked
// as an expected operator error.
func IsExpectedUserError(err error) bool {
	var ue *userError
	return cerr.As(err, &ue)
}

// ExtractSummary returns the last n non-empty lines of command output, for
// compact error reporting when a native tool fails.
func ExtractSummary(output string, n int) string {
	if n <= 0 {
		n = 1
	}
	var lines []string
	for _, line := range strings.Split(output, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "; ")
}
