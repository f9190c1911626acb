// cmd/root.go

// Package cmd holds the CLI command tree.
package cmd

import (
	"context"

	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/execute"
	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/interaction"
	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/lifecycle"
	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/platform"
	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/vein_io"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "veinserver",
	Short: "Install and manage the VEIN dedicated server",
	Long: `veinserver provisions a VEIN dedicated game server on this host:
it detects the distribution, installs steamcmd through the native package
manager, opens the game ports on whichever firewall is present, and
registers a systemd service. Running it again updates an existing install.`,
	SilenceUsage: true,
	// running with no subcommand installs, matching how operators
	// expect a one-shot provisioning script to behave
	RunE: installCmd.RunE,
}

func init() {
	rootCmd.PersistentFlags().String("dir", "",
		"install directory override (must match an existing registration)")

	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(statusCmd)
}

// Execute runs the CLI.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// newInstaller builds the lifecycle installer from the resolved
// configuration and the live host profile.
func newInstaller(rc *vein_io.RuntimeContext, cmd *cobra.Command) (*lifecycle.Installer, error) {
	dir, _ := cmd.Flags().GetString("dir")
	cfg := lifecycle.LoadConfig(dir)

	profile := platform.Classify()
	rc.Log.Debug("Host classified",
		zap.String("family", string(profile.Family)),
		zap.Int("major_version", profile.MajorVersion))

	return lifecycle.NewInstaller(cfg, profile, execute.NewRunner(), interaction.NewConsolePrompter())
}
