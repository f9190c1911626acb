// pkg/lifecycle/install.go

package lifecycle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/execute"
	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/firewall"
	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/state"
	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/systemd"
	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/vein_err"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Install converges the host to a working, registered server. Every
// mutating step is individually idempotent, so an interrupted run is
// recovered by running again.
func (in *Installer) Install(ctx context.Context) error {
	log := otelzap.Ctx(ctx)

	st, err := in.CurrentState(ctx)
	if err != nil {
		return err
	}
	if st.ServiceActive {
		return vein_err.NewExpectedError(ctx, ErrServiceBusy)
	}

	workingDir, err := in.resolveDirectory(st)
	if err != nil {
		return vein_err.NewExpectedError(ctx, err)
	}

	branch, err := in.resolveBranch(st)
	if err != nil {
		return err
	}

	// Network posture is only negotiated on a fresh install; an
	// existing registration already had its firewall decided.
	wantFirewall := false
	if !st.Registered {
		wantFirewall, err = in.prompter.Confirm("Install and enable a firewall if none is active?", true)
		if err != nil {
			return err
		}
	}

	log.Info("Installing server",
		zap.String("service", in.cfg.ServiceName),
		zap.String("dir", workingDir),
		zap.String("branch", displayBranch(branch)),
		zap.Bool("fresh", !st.Registered))

	if err := in.ensureUser(ctx); err != nil {
		return err
	}
	if err := in.packages.Install(ctx, in.basePackages()...); err != nil {
		return err
	}
	if wantFirewall {
		if _, err := in.firewall.EnsureActive(ctx); err != nil {
			return err
		}
	}
	if err := in.openGamePorts(ctx); err != nil {
		return err
	}
	if err := in.packages.InstallSteamTooling(ctx, in.fetcher); err != nil {
		return err
	}

	client, err := in.newContentClient()
	if err != nil {
		return err
	}

	appFiles := in.cfg.AppFilesDir(workingDir)
	if err := in.ensureDirectory(ctx, appFiles); err != nil {
		return err
	}
	if err := client.FetchContent(ctx, in.cfg.User, appFiles, in.cfg.AppID, branch); err != nil {
		return err
	}
	if err := in.ensureSteamclientLink(ctx, appFiles); err != nil {
		return err
	}

	spec := in.serviceSpec(client, appFiles, branch)
	if err := in.units.Install(ctx, spec); err != nil {
		return err
	}
	if err := in.store.Save(state.Record{
		Service:     in.cfg.ServiceName,
		WorkingDir:  workingDir,
		Branch:      branch,
		AppID:       in.cfg.AppID,
		User:        in.cfg.User,
		InstalledAt: time.Now().UTC(),
	}); err != nil {
		return err
	}

	if err := in.installConsole(ctx, workingDir); err != nil {
		return err
	}
	if err := in.ensureSettings(workingDir); err != nil {
		return err
	}
	if err := in.ensureBinSymlink(ctx, workingDir); err != nil {
		return err
	}
	if err := in.chownTree(ctx, workingDir); err != nil {
		return err
	}

	log.Info("Install complete",
		zap.String("service", in.cfg.ServiceName),
		zap.String("console", in.cfg.BinSymlink()))
	return nil
}

// resolveBranch treats the registered branch as the default and lets
// the operator switch. Branch names are not validated here; a bad name
// surfaces when the content tool rejects it.
func (in *Installer) resolveBranch(st InstallationState) (string, error) {
	if st.Branch != "" {
		keep, err := in.prompter.Confirm(
			fmt.Sprintf("Server currently tracks the %q branch. Keep it?", st.Branch), true)
		if err != nil {
			return "", err
		}
		if keep {
			return st.Branch, nil
		}
		return "", nil
	}

	experimental, err := in.prompter.Confirm("Track the experimental branch instead of stable?", false)
	if err != nil {
		return "", err
	}
	if experimental {
		return "experimental", nil
	}
	return "", nil
}

func displayBranch(branch string) string {
	if branch == "" {
		return "public"
	}
	return branch
}

// ensureUser creates the operating account when absent.
func (in *Installer) ensureUser(ctx context.Context) error {
	if _, err := in.runner.Run(ctx, execute.Options{
		Command: "id", Args: []string{in.cfg.User}, Capture: true,
	}); err == nil {
		return nil
	}
	otelzap.Ctx(ctx).Info("Creating operating account", zap.String("user", in.cfg.User))
	if _, err := in.runner.Run(ctx, execute.Options{
		Command: "useradd",
		Args:    []string{"-m", "-s", "/bin/bash", in.cfg.User},
		Capture: true,
	}); err != nil {
		return cerr.Wrapf(err, "creating user %s", in.cfg.User)
	}
	return nil
}

func (in *Installer) basePackages() []string {
	if in.profile.DebianLike() {
		return []string{"curl", "sudo", "python3", "python3-venv"}
	}
	return []string{"curl", "sudo", "python3"}
}

// openGamePorts allows the game and query ports on whatever firewall
// is active. No active firewall means nothing to open.
func (in *Installer) openGamePorts(ctx context.Context) error {
	backend := in.firewall.DetectActive(ctx)
	if backend == firewall.BackendNone {
		otelzap.Ctx(ctx).Info("No active firewall, skipping port rules")
		return nil
	}
	rules := []firewall.Rule{
		{Ports: []string{in.cfg.GamePort}, Proto: "udp",
			Comment: fmt.Sprintf("Allow %s game port from anywhere", in.cfg.Description)},
		{Ports: []string{in.cfg.QueryPort}, Proto: "udp",
			Comment: fmt.Sprintf("Allow %s Steam query port from anywhere", in.cfg.Description)},
	}
	for _, rule := range rules {
		if err := in.firewall.Allow(ctx, backend, rule); err != nil {
			return err
		}
	}
	return nil
}

func (in *Installer) ensureDirectory(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return cerr.Wrapf(err, "creating %s", dir)
	}
	return nil
}

// ensureSteamclientLink puts the Steam runtime library where the game
// binary expects it. The link is created only when absent.
func (in *Installer) ensureSteamclientLink(ctx context.Context, appFiles string) error {
	target := filepath.Join(in.cfg.HomeDir(), ".local", "share", "Steam",
		"steamcmd", "linux64", "steamclient.so")
	link := filepath.Join(appFiles, "linux64", "steamclient.so")

	if _, err := os.Lstat(link); err == nil {
		return nil
	}
	if _, err := os.Stat(target); err != nil {
		otelzap.Ctx(ctx).Warn("steamclient.so not found, skipping link",
			zap.String("target", target))
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(link), 0o755); err != nil {
		return cerr.Wrap(err, "creating steamclient link directory")
	}
	if err := os.Symlink(target, link); err != nil {
		return cerr.Wrap(err, "linking steamclient.so")
	}
	return nil
}

// serviceSpec renders the unit. ExecStartPre revalidates content on
// every start, so the unit itself carries the branch and directory in
// recoverable form.
func (in *Installer) serviceSpec(client contentClient, appFiles, branch string) systemd.ServiceSpec {
	pre := client.Path() + " " + strings.Join(client.UpdateArgs(appFiles, in.cfg.AppID, branch), " ")
	return systemd.ServiceSpec{
		Name:             in.cfg.ServiceName,
		Description:      in.cfg.Description,
		WorkingDirectory: appFiles,
		User:             in.cfg.User,
		Group:            in.cfg.User,
		ExecStartPre:     pre,
		ExecStart:        filepath.Join(appFiles, "VeinServer.sh"),
		RestartSec:       10,
		TimeoutStartSec:  900,
	}
}

// installConsole fetches the management console. It is the only
// post-install control surface, so failure here is fatal.
func (in *Installer) installConsole(ctx context.Context, workingDir string) error {
	console := in.cfg.ConsolePath(workingDir)
	if err := in.fetcher.Download(ctx, in.cfg.ConsoleURL, console, 0o755); err != nil {
		return cerr.Wrap(err, "fetching management console")
	}
	return nil
}

// ensureSettings creates the console settings file only when absent,
// preserving operator edits across re-installs.
func (in *Installer) ensureSettings(workingDir string) error {
	path := filepath.Join(workingDir, ".settings.ini")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	content := fmt.Sprintf("[vein]\ngame_port = %s\nquery_port = %s\n",
		in.cfg.GamePort, in.cfg.QueryPort)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return cerr.Wrap(err, "writing settings file")
	}
	return nil
}

// ensureBinSymlink exposes the console as a system command, created
// only when absent.
func (in *Installer) ensureBinSymlink(ctx context.Context, workingDir string) error {
	link := in.cfg.BinSymlink()
	if _, err := os.Lstat(link); err == nil {
		return nil
	}
	if err := os.Symlink(in.cfg.ConsolePath(workingDir), link); err != nil {
		return cerr.Wrap(err, "creating console symlink")
	}
	return nil
}

// chownTree hands the working directory to the operating account.
func (in *Installer) chownTree(ctx context.Context, workingDir string) error {
	owner := in.cfg.User + ":" + in.cfg.User
	if _, err := in.runner.Run(ctx, execute.Options{
		Command: "chown", Args: []string{"-R", owner, workingDir}, Capture: true,
	}); err != nil {
		return cerr.Wrapf(err, "chown %s", workingDir)
	}
	return nil
}
