// cmd/install.go

package cmd

import (
	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/vein_cli"
	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/vein_io"
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install or update the dedicated server",
	Long: `Install provisions the server end to end: operating account,
packages, firewall rules, steamcmd, game content, systemd unit and the
management console. Every step is idempotent, so rerunning after a
failure or for an update is safe.`,
	RunE: vein_cli.Wrap(func(rc *vein_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		installer, err := newInstaller(rc, cmd)
		if err != nil {
			return err
		}
		return installer.Install(rc.Ctx)
	}),
}
