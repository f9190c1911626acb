// pkg/lifecycle/status.go

package lifecycle

import (
	"context"

	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/firewall"
	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/platform"
	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/steam"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Status is a read-only snapshot of the host and the installation.
type Status struct {
	Profile        platform.HostProfile
	FirewallActive firewall.Backend
	Installation   InstallationState

	// UpdateAvailable is nil when the check could not run, for
	// example when steamcmd or the local manifest is missing.
	UpdateAvailable *bool
}

// Status inspects the host without mutating anything.
func (in *Installer) Status(ctx context.Context) (Status, error) {
	st, err := in.CurrentState(ctx)
	if err != nil {
		return Status{}, err
	}

	status := Status{
		Profile:        in.profile,
		FirewallActive: in.firewall.DetectActive(ctx),
		Installation:   st,
	}

	if st.Registered && st.WorkingDir != "" {
		if outdated, err := in.checkUpdate(ctx, st.WorkingDir); err != nil {
			otelzap.Ctx(ctx).Debug("Update check unavailable", zap.Error(err))
		} else {
			status.UpdateAvailable = &outdated
		}
	}
	return status, nil
}

func (in *Installer) checkUpdate(ctx context.Context, workingDir string) (bool, error) {
	client, err := in.newContentClient()
	if err != nil {
		return false, err
	}
	manifest := steam.ManifestPath(in.cfg.AppFilesDir(workingDir), in.cfg.AppID)
	return client.CheckAppUpdate(ctx, manifest)
}
