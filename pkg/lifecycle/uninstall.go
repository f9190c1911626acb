// pkg/lifecycle/uninstall.go

package lifecycle

import (
	"context"
	"os"

	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/execute"
	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/vein_err"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// ErrUninstallDeclined aborts the uninstall before anything changes.
var ErrUninstallDeclined = cerr.New("uninstall cancelled by operator")

// Uninstall removes the server, its data and its registration. Both
// destructive-intent confirmations are collected up front; declining
// either leaves the host untouched. Firewall rules and installed
// packages are host-level state and stay.
func (in *Installer) Uninstall(ctx context.Context) error {
	log := otelzap.Ctx(ctx)

	st, err := in.CurrentState(ctx)
	if err != nil {
		return err
	}
	if st.ServiceActive {
		return vein_err.NewExpectedError(ctx, ErrServiceBusy)
	}

	workingDir := st.WorkingDir
	if workingDir == "" {
		workingDir = in.cfg.DefaultDir
	}

	removeBinaries, err := in.prompter.Confirm(
		"Remove the server binaries and installed content?", false)
	if err != nil {
		return err
	}
	if !removeBinaries {
		return vein_err.NewExpectedError(ctx, ErrUninstallDeclined)
	}
	removeData, err := in.prompter.Confirm(
		"Remove player and world data? This cannot be undone.", false)
	if err != nil {
		return err
	}
	if !removeData {
		return vein_err.NewExpectedError(ctx, ErrUninstallDeclined)
	}

	// Last chance to keep the world: the console knows how to archive
	// everything that matters.
	if _, err := os.Stat(in.cfg.ConsolePath(workingDir)); err == nil {
		backup, err := in.prompter.Confirm("Create a backup archive before removal?", true)
		if err != nil {
			return err
		}
		if backup {
			if err := in.runBackup(ctx, workingDir); err != nil {
				return err
			}
		}
	}

	log.Info("Uninstalling server",
		zap.String("service", in.cfg.ServiceName),
		zap.String("dir", workingDir))

	if st.Registered {
		if err := in.units.Disable(ctx, in.cfg.ServiceName); err != nil {
			log.Warn("Disabling unit failed, continuing", zap.Error(err))
		}
		if err := in.units.Stop(ctx, in.cfg.ServiceName); err != nil {
			log.Warn("Stopping unit failed, continuing", zap.Error(err))
		}
		if err := in.units.Remove(ctx, in.cfg.ServiceName); err != nil {
			return err
		}
	}
	if err := in.store.Remove(in.cfg.ServiceName); err != nil {
		return err
	}

	if err := os.RemoveAll(in.cfg.SaveDir()); err != nil {
		return cerr.Wrap(err, "removing save data")
	}
	if err := removeIfExists(in.cfg.BinSymlink()); err != nil {
		return err
	}
	if err := os.RemoveAll(workingDir); err != nil {
		return cerr.Wrapf(err, "removing %s", workingDir)
	}

	log.Info("Uninstall complete", zap.String("service", in.cfg.ServiceName))
	return nil
}

// runBackup invokes the management console's archive mode as the
// operating account.
func (in *Installer) runBackup(ctx context.Context, workingDir string) error {
	console := in.cfg.ConsolePath(workingDir)
	if _, err := in.runner.Run(ctx, execute.Options{
		Command: "sudo",
		Args:    []string{"-u", in.cfg.User, "python3", console, "--backup"},
	}); err != nil {
		return cerr.Wrap(err, "running backup")
	}
	return nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return cerr.Wrapf(err, "removing %s", path)
	}
	return nil
}
