// pkg/platform/platform.go

package platform

import (
	"os"
	"runtime"
	"strings"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Family is the coarse OS classification driving package-manager and
// firewall selection.
type Family string

const (
	FamilyDebian  Family = "debian"
	FamilyUbuntu  Family = "ubuntu"
	FamilyRHEL    Family = "rhel"
	FamilySUSE    Family = "suse"
	FamilyArch    Family = "arch"
	FamilyBSD     Family = "bsd"
	FamilyMacOS   Family = "macos"
	FamilyUnknown Family = "unknown"
)

// VersionUnknown is the major version reported when the release files
// carry no parseable version.
const VersionUnknown = 0

// HostProfile describes the host well enough to pick backends.
type HostProfile struct {
	Family       Family
	MajorVersion int
}

// DebianLike reports whether apt-style tooling applies.
func (p HostProfile) DebianLike() bool {
	return p.Family == FamilyDebian || p.Family == FamilyUbuntu
}

const osReleasePath = "/etc/os-release"

// Classify inspects the running host and returns its profile. It never
// fails: unrecognizable hosts come back as FamilyUnknown.
func Classify() HostProfile {
	switch runtime.GOOS {
	case "darwin":
		return HostProfile{Family: FamilyMacOS, MajorVersion: VersionUnknown}
	case "freebsd", "openbsd", "netbsd", "dragonfly":
		return HostProfile{Family: FamilyBSD, MajorVersion: VersionUnknown}
	case "linux":
		// fall through to os-release
	default:
		return HostProfile{Family: FamilyUnknown, MajorVersion: VersionUnknown}
	}

	content, err := os.ReadFile(osReleasePath)
	if err != nil {
		otelzap.L().Warn("Cannot read os-release, host family unknown",
			zap.String("path", osReleasePath), zap.Error(err))
		return HostProfile{Family: FamilyUnknown, MajorVersion: VersionUnknown}
	}
	return classifyOSRelease(string(content))
}

// familyByID maps os-release ID values to families. ID_LIKE tokens go
// through the same table.
var familyByID = map[string]Family{
	"debian":        FamilyDebian,
	"ubuntu":        FamilyUbuntu,
	"linuxmint":     FamilyUbuntu,
	"pop":           FamilyUbuntu,
	"rhel":          FamilyRHEL,
	"centos":        FamilyRHEL,
	"fedora":        FamilyRHEL,
	"rocky":         FamilyRHEL,
	"almalinux":     FamilyRHEL,
	"amzn":          FamilyRHEL,
	"opensuse":      FamilySUSE,
	"opensuse-leap": FamilySUSE,
	"sles":          FamilySUSE,
	"arch":          FamilyArch,
	"manjaro":       FamilyArch,
}

// likeOrder fixes the precedence when ID_LIKE lists several ancestors.
// Ubuntu derivatives list both "ubuntu" and "debian"; the more specific
// family wins.
var likeOrder = []string{"ubuntu", "debian", "rhel", "fedora", "centos", "opensuse", "sles", "arch"}

func classifyOSRelease(content string) HostProfile {
	fields := parseOSRelease(content)

	profile := HostProfile{Family: FamilyUnknown, MajorVersion: VersionUnknown}
	profile.MajorVersion = parseMajorVersion(fields["VERSION_ID"])

	if fam, ok := familyByID[strings.ToLower(fields["ID"])]; ok {
		profile.Family = fam
		return profile
	}

	like := strings.Fields(strings.ToLower(fields["ID_LIKE"]))
	for _, want := range likeOrder {
		for _, token := range like {
			if token == want {
				profile.Family = familyByID[want]
				return profile
			}
		}
	}
	return profile
}

// parseOSRelease reads the KEY=value lines of an os-release file,
// stripping surrounding quotes.
func parseOSRelease(content string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, `"'`)
		fields[strings.TrimSpace(key)] = value
	}
	return fields
}
