// pkg/pkgmgr/pkgmgr.go

// Package pkgmgr normalizes software installation across the package
// managers of the supported Linux families and FreeBSD.
package pkgmgr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/execute"
	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/platform"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Backend identifies the package manager driving an install.
type Backend string

const (
	BackendApt    Backend = "apt"
	BackendYum    Backend = "yum"
	BackendPacman Backend = "pacman"
	BackendZypper Backend = "zypper"
	BackendPkg    Backend = "pkg"
)

// ErrUnsupportedHost reports a host family no backend covers.
var ErrUnsupportedHost = cerr.New("no package manager backend for this host")

// InstallError carries the failing packages and the package manager's
// exit status.
type InstallError struct {
	Backend    Backend
	Packages   []string
	ExitStatus int
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("%s failed to install %s (exit status %d)",
		e.Backend, strings.Join(e.Packages, " "), e.ExitStatus)
}

// BackendFor maps a host profile to its package manager.
func BackendFor(profile platform.HostProfile) (Backend, error) {
	switch profile.Family {
	case platform.FamilyDebian, platform.FamilyUbuntu:
		return BackendApt, nil
	case platform.FamilyRHEL:
		return BackendYum, nil
	case platform.FamilyArch:
		return BackendPacman, nil
	case platform.FamilySUSE:
		return BackendZypper, nil
	case platform.FamilyBSD:
		return BackendPkg, nil
	default:
		return "", cerr.WithDetailf(ErrUnsupportedHost, "family %s", profile.Family)
	}
}

// Manager installs packages through the backend matching its host
// profile.
type Manager struct {
	profile platform.HostProfile
	backend Backend
	runner  execute.Runner

	// apt paths, overridable in tests
	keyringDir  string
	sourcesDir  string
	sourcesList string
}

// NewManager picks the backend for profile and returns a Manager, or
// ErrUnsupportedHost when the family has none.
func NewManager(profile platform.HostProfile, runner execute.Runner) (*Manager, error) {
	backend, err := BackendFor(profile)
	if err != nil {
		return nil, err
	}
	return &Manager{
		profile:     profile,
		backend:     backend,
		runner:      runner,
		keyringDir:  "/usr/share/keyrings",
		sourcesDir:  "/etc/apt/sources.list.d",
		sourcesList: "/etc/apt/sources.list",
	}, nil
}

// Backend returns the selected package manager.
func (m *Manager) Backend() Backend { return m.backend }

// Install installs the named packages non-interactively. It succeeds
// when the packages are already present.
func (m *Manager) Install(ctx context.Context, packages ...string) error {
	if len(packages) == 0 {
		return nil
	}
	log := otelzap.Ctx(ctx)
	log.Info("Installing packages",
		zap.String("backend", string(m.backend)),
		zap.Strings("packages", packages))

	opts := execute.Options{Capture: true, Timeout: 15 * time.Minute}
	switch m.backend {
	case BackendApt:
		opts.Command = "apt-get"
		opts.Args = append([]string{"install", "-y"}, packages...)
		opts.Env = []string{"DEBIAN_FRONTEND=noninteractive"}
	case BackendYum:
		opts.Command = "yum"
		opts.Args = append([]string{"install", "-y"}, packages...)
	case BackendPacman:
		opts.Command = "pacman"
		opts.Args = append([]string{"-S", "--noconfirm", "--needed"}, packages...)
	case BackendZypper:
		opts.Command = "zypper"
		opts.Args = append([]string{"--non-interactive", "install"}, packages...)
	case BackendPkg:
		opts.Command = "pkg"
		opts.Args = append([]string{"install", "-y"}, packages...)
	}

	if _, err := m.runner.Run(ctx, opts); err != nil {
		return &InstallError{
			Backend:    m.backend,
			Packages:   packages,
			ExitStatus: exitStatus(err),
		}
	}
	return nil
}

// Update refreshes the backend's package index where one exists.
func (m *Manager) Update(ctx context.Context) error {
	var opts execute.Options
	switch m.backend {
	case BackendApt:
		opts = execute.Options{
			Command: "apt-get", Args: []string{"update"},
			Env: []string{"DEBIAN_FRONTEND=noninteractive"}, Capture: true,
			Timeout: 10 * time.Minute,
		}
	case BackendPacman:
		opts = execute.Options{Command: "pacman", Args: []string{"-Sy"}, Capture: true, Timeout: 10 * time.Minute}
	case BackendZypper:
		opts = execute.Options{Command: "zypper", Args: []string{"--non-interactive", "refresh"}, Capture: true, Timeout: 10 * time.Minute}
	default:
		// yum and pkg refresh their metadata on install
		return nil
	}
	_, err := m.runner.Run(ctx, opts)
	return cerr.Wrap(err, "refreshing package index")
}

type exitCoder interface{ ExitCode() int }

func exitStatus(err error) int {
	var ec exitCoder
	if cerr.As(err, &ec) {
		return ec.ExitCode()
	}
	return -1
}
