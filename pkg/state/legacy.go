// pkg/state/legacy.go

package state

import (
	"regexp"
	"strings"
)

// Installations made before record keeping existed carry their facts
// only in the unit file. ScrapeUnit recovers them from the unit text.

var (
	installDirRe = regexp.MustCompile(`\+force_install_dir\s+(\S+)`)
	betaRe       = regexp.MustCompile(`-beta\s+(\S+)`)
	userRe       = regexp.MustCompile(`(?m)^User=(\S+)`)
)

// ScrapeUnit reconstructs a partial Record from unit file text. The
// returned record has no InstalledAt and an AppID of zero; callers fill
// in what they know. Returns nil when the text holds no install
// directory.
func ScrapeUnit(service, unitText string) *Record {
	m := installDirRe.FindStringSubmatch(unitText)
	if m == nil {
		return nil
	}
	// the unit points steamcmd at the AppFiles subdirectory; the
	// working dir is its parent
	workingDir := strings.TrimSuffix(m[1], "/AppFiles")

	rec := &Record{Service: service, WorkingDir: workingDir}
	if bm := betaRe.FindStringSubmatch(unitText); bm != nil {
		rec.Branch = bm[1]
	}
	if um := userRe.FindStringSubmatch(unitText); um != nil {
		rec.User = um[1]
	}
	return rec
}
