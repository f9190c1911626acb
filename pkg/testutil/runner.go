// pkg/testutil/runner.go

// Package testutil provides fakes shared by the package tests. Nothing
// here touches the host.
package testutil

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/execute"
)

// FakeRunner records every command line it receives and answers from a
// scripted table.
type FakeRunner struct {
	mu sync.Mutex

	// Commands holds each invocation joined as "cmd arg1 arg2 ...".
	Commands []string

	// Stdins holds the stdin content of each invocation, "" when none.
	Stdins []string

	// Responses maps a command-line prefix to its scripted result. The
	// longest matching prefix wins. Unmatched commands succeed with
	// empty output.
	Responses map[string]FakeResult

	// Binaries lists names LookPath resolves. A nil map resolves
	// everything.
	Binaries map[string]bool
}

// FakeResult is one scripted command outcome.
type FakeResult struct {
	Output string
	Err    error
}

func (f *FakeRunner) Run(_ context.Context, opts execute.Options) (string, error) {
	line := opts.Command
	if len(opts.Args) > 0 {
		line += " " + strings.Join(opts.Args, " ")
	}
	var stdin string
	if opts.Stdin != nil {
		b, _ := io.ReadAll(opts.Stdin)
		stdin = string(b)
	}

	f.mu.Lock()
	f.Commands = append(f.Commands, line)
	f.Stdins = append(f.Stdins, stdin)
	f.mu.Unlock()

	var best string
	var result FakeResult
	for prefix, res := range f.Responses {
		if strings.HasPrefix(line, prefix) && len(prefix) > len(best) {
			best = prefix
			result = res
		}
	}
	if best == "" {
		return "", nil
	}
	return result.Output, result.Err
}

func (f *FakeRunner) LookPath(name string) (string, error) {
	if f.Binaries == nil {
		return "/usr/bin/" + name, nil
	}
	if f.Binaries[name] {
		return "/usr/bin/" + name, nil
	}
	return "", fmt.Errorf("%s: %w", name, exec.ErrNotFound)
}

// Ran reports whether any recorded command line starts with prefix.
func (f *FakeRunner) Ran(prefix string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, line := range f.Commands {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// Count returns how many recorded command lines start with prefix.
func (f *FakeRunner) Count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, line := range f.Commands {
		if strings.HasPrefix(line, prefix) {
			n++
		}
	}
	return n
}
