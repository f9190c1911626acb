// pkg/systemd/systemctl.go

package systemd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/execute"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Systemctl exit codes, per systemctl(1). The query subcommands
// (is-active, is-enabled) report state through the exit code rather
// than failure.
const (
	ExitSuccess     = 0
	ExitGenericFail = 1
	ExitInactive    = 3
	ExitUnknown     = 4
	ExitNotLoaded   = 5
)

// Manager installs and drives service units.
type Manager struct {
	runner  execute.Runner
	unitDir string
}

// NewManager returns a Manager writing units under /etc/systemd/system.
func NewManager(runner execute.Runner) *Manager {
	return &Manager{runner: runner, unitDir: "/etc/systemd/system"}
}

// UnitPath returns where the unit file for spec lives.
func (m *Manager) UnitPath(name string) string {
	if !strings.HasSuffix(name, ".service") {
		name += ".service"
	}
	return filepath.Join(m.unitDir, name)
}

// Install writes the unit file, reloads systemd and enables the unit.
// The unit is NOT started; first runs need operator attention. An
// existing unit file is backed up before the overwrite.
func (m *Manager) Install(ctx context.Context, spec ServiceSpec) error {
	log := otelzap.Ctx(ctx)
	unitPath := m.UnitPath(spec.Name)

	if _, err := os.Stat(unitPath); err == nil {
		backupPath := fmt.Sprintf("%s.backup.%d", unitPath, time.Now().Unix())
		log.Info("Backing up existing unit file",
			zap.String("original", unitPath),
			zap.String("backup", backupPath))
		if err := copyFile(unitPath, backupPath); err != nil {
			log.Warn("Unit file backup failed, continuing", zap.Error(err))
		}
	}

	if err := os.WriteFile(unitPath, []byte(spec.Render()), 0o644); err != nil {
		return cerr.Wrapf(err, "writing unit file %s", unitPath)
	}

	if err := m.DaemonReload(ctx); err != nil {
		return err
	}
	if err := m.Enable(ctx, spec.Name); err != nil {
		return err
	}

	log.Info("Systemd unit installed", zap.String("unit", spec.UnitName()))
	return nil
}

// Remove disables the unit and deletes its file.
func (m *Manager) Remove(ctx context.Context, name string) error {
	log := otelzap.Ctx(ctx)

	if err := m.Disable(ctx, name); err != nil {
		log.Warn("Disabling unit failed, removing file anyway",
			zap.String("unit", name), zap.Error(err))
	}
	unitPath := m.UnitPath(name)
	if err := os.Remove(unitPath); err != nil && !os.IsNotExist(err) {
		return cerr.Wrapf(err, "removing unit file %s", unitPath)
	}
	return m.DaemonReload(ctx)
}

// ReadUnit returns the installed unit file text.
func (m *Manager) ReadUnit(name string) (string, error) {
	content, err := os.ReadFile(m.UnitPath(name))
	if err != nil {
		return "", cerr.Wrapf(err, "reading unit %s", name)
	}
	return string(content), nil
}

// Exists reports whether the unit file is installed.
func (m *Manager) Exists(name string) bool {
	_, err := os.Stat(m.UnitPath(name))
	return err == nil
}

func (m *Manager) DaemonReload(ctx context.Context) error {
	return m.run(ctx, "daemon-reload")
}

func (m *Manager) Enable(ctx context.Context, unit string) error {
	return m.run(ctx, "enable", unit)
}

func (m *Manager) Disable(ctx context.Context, unit string) error {
	return m.run(ctx, "disable", unit)
}

func (m *Manager) Start(ctx context.Context, unit string) error {
	return m.run(ctx, "start", unit)
}

func (m *Manager) Stop(ctx context.Context, unit string) error {
	return m.run(ctx, "stop", unit)
}

func (m *Manager) Restart(ctx context.Context, unit string) error {
	return m.run(ctx, "restart", unit)
}

func (m *Manager) run(ctx context.Context, args ...string) error {
	out, err := m.runner.Run(ctx, execute.Options{
		Command: "systemctl",
		Args:    args,
		Capture: true,
	})
	if err != nil {
		return cerr.Wrapf(err, "systemctl %s: %s", strings.Join(args, " "), out)
	}
	return nil
}

// IsActive reports whether the unit is running. Inactive and unknown
// units return false without an error: that is state, not failure.
func (m *Manager) IsActive(ctx context.Context, unit string) (bool, error) {
	out, err := m.runner.Run(ctx, execute.Options{
		Command: "systemctl",
		Args:    []string{"is-active", unit},
		Capture: true,
	})
	state := strings.TrimSpace(out)
	if state == "active" {
		return true, nil
	}
	if err != nil && state == "" {
		return false, cerr.Wrapf(err, "systemctl is-active %s", unit)
	}
	return false, nil
}

// IsEnabled reports whether the unit starts at boot.
func (m *Manager) IsEnabled(ctx context.Context, unit string) (bool, error) {
	out, _ := m.runner.Run(ctx, execute.Options{
		Command: "systemctl",
		Args:    []string{"is-enabled", unit},
		Capture: true,
	})
	return strings.TrimSpace(out) == "enabled", nil
}

// Diagnostics captures status and recent journal output for a unit,
// for error messages after a failed start.
func (m *Manager) Diagnostics(ctx context.Context, unit string) string {
	status, _ := m.runner.Run(ctx, execute.Options{
		Command: "systemctl",
		Args:    []string{"status", unit, "-l", "--no-pager"},
		Capture: true,
	})
	journal, _ := m.runner.Run(ctx, execute.Options{
		Command: "journalctl",
		Args:    []string{"-u", unit, "-n", "50", "--no-pager"},
		Capture: true,
	})
	return fmt.Sprintf("Status:\n%s\nRecent logs:\n%s", status, journal)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
