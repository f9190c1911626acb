// pkg/platform/version.go

package platform

import (
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// parseMajorVersion extracts the leading major number from a VERSION_ID
// value such as "24.04", "12" or "v24". Unparseable input yields
// VersionUnknown rather than an error so classification always
// completes.
func parseMajorVersion(raw string) int {
	raw = strings.Trim(strings.TrimSpace(raw), `"'`)
	if raw == "" {
		return VersionUnknown
	}
	v, err := goversion.NewVersion(raw)
	if err != nil {
		return VersionUnknown
	}
	segments := v.Segments()
	if len(segments) == 0 {
		return VersionUnknown
	}
	return segments[0]
}
