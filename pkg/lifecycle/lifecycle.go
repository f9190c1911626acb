// pkg/lifecycle/lifecycle.go

package lifecycle

import (
	"context"
	"fmt"
	"os"

	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/execute"
	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/fetch"
	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/firewall"
	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/interaction"
	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/pkgmgr"
	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/platform"
	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/state"
	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/steam"
	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/systemd"
	cerr "github.com/cockroachdb/errors"
)

// ErrServiceBusy gates every lifecycle transition: nothing mutates
// while the supervised process is live.
var ErrServiceBusy = cerr.New("service is running; stop it before installing or uninstalling")

// DirectoryConflictError reports an override directory disagreeing
// with an existing registration.
type DirectoryConflictError struct {
	Registered string
	Override   string
}

func (e *DirectoryConflictError) Error() string {
	return fmt.Sprintf(
		"install directory conflict: service is registered at %s but %s was requested; uninstall first to move it",
		e.Registered, e.Override)
}

// packageManager is the slice of pkgmgr.Manager the lifecycle uses.
type packageManager interface {
	Install(ctx context.Context, packages ...string) error
	InstallSteamTooling(ctx context.Context, fetcher pkgmgr.Downloader) error
}

// firewallService is the slice of firewall.Service the lifecycle uses.
type firewallService interface {
	DetectActive(ctx context.Context) firewall.Backend
	EnsureActive(ctx context.Context) (firewall.Backend, error)
	Allow(ctx context.Context, backend firewall.Backend, rule firewall.Rule) error
}

// unitManager is the slice of systemd.Manager the lifecycle uses.
type unitManager interface {
	Install(ctx context.Context, spec systemd.ServiceSpec) error
	Remove(ctx context.Context, name string) error
	Exists(name string) bool
	ReadUnit(name string) (string, error)
	IsActive(ctx context.Context, unit string) (bool, error)
	Disable(ctx context.Context, unit string) error
	Stop(ctx context.Context, unit string) error
}

// contentClient is the slice of steam.Client the lifecycle uses.
type contentClient interface {
	Path() string
	UpdateArgs(dir string, appID int, branch string) []string
	FetchContent(ctx context.Context, user, dir string, appID int, branch string) error
	CheckAppUpdate(ctx context.Context, manifestPath string) (bool, error)
}

// downloader is satisfied by fetch.Client.
type downloader interface {
	Download(ctx context.Context, url, dest string, mode os.FileMode) error
}

// Installer drives the lifecycle state machine.
type Installer struct {
	cfg      Config
	profile  platform.HostProfile
	runner   execute.Runner
	packages packageManager
	firewall firewallService
	units    unitManager
	store    *state.Store
	fetcher  downloader
	prompter interaction.Prompter

	// newContentClient defers steamcmd lookup until after tooling
	// install, since steamcmd only exists from that point on.
	newContentClient func() (contentClient, error)
}

// NewInstaller wires an Installer against the live host.
func NewInstaller(cfg Config, profile platform.HostProfile, runner execute.Runner, prompter interaction.Prompter) (*Installer, error) {
	packages, err := pkgmgr.NewManager(profile, runner)
	if err != nil {
		return nil, err
	}
	return &Installer{
		cfg:      cfg,
		profile:  profile,
		runner:   runner,
		packages: packages,
		firewall: firewall.NewService(runner, packages),
		units:    systemd.NewManager(runner),
		store:    state.NewStore(),
		fetcher:  fetch.NewClient(),
		prompter: prompter,
		newContentClient: func() (contentClient, error) {
			return steam.NewClient(runner)
		},
	}, nil
}

// InstallationState is recomputed at the start of every run, never
// cached.
type InstallationState struct {
	ServiceActive bool
	Registered    bool
	WorkingDir    string
	Branch        string
}

// CurrentState probes the live registration. The structured state
// record is authoritative; units written before record keeping are
// scraped as a fallback.
func (in *Installer) CurrentState(ctx context.Context) (InstallationState, error) {
	var st InstallationState

	if in.units.Exists(in.cfg.ServiceName) {
		st.Registered = true

		active, err := in.units.IsActive(ctx, in.cfg.ServiceName)
		if err != nil {
			return st, err
		}
		st.ServiceActive = active

		rec, err := in.store.Load(in.cfg.ServiceName)
		if err != nil {
			return st, err
		}
		if rec == nil {
			unitText, err := in.units.ReadUnit(in.cfg.ServiceName)
			if err != nil {
				return st, err
			}
			rec = state.ScrapeUnit(in.cfg.ServiceName, unitText)
		}
		if rec != nil {
			st.WorkingDir = rec.WorkingDir
			st.Branch = rec.Branch
		}
	}
	return st, nil
}

// resolveDirectory applies the override rules: a registration's
// directory is authoritative, an override may only restate it.
func (in *Installer) resolveDirectory(st InstallationState) (string, error) {
	if st.Registered && st.WorkingDir != "" {
		if in.cfg.InstallDir != "" && in.cfg.InstallDir != st.WorkingDir {
			return "", &DirectoryConflictError{
				Registered: st.WorkingDir,
				Override:   in.cfg.InstallDir,
			}
		}
		return st.WorkingDir, nil
	}
	if in.cfg.InstallDir != "" {
		return in.cfg.InstallDir, nil
	}
	return in.cfg.DefaultDir, nil
}
