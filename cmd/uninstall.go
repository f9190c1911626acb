// cmd/uninstall.go

package cmd

import (
	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/vein_cli"
	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/vein_io"
	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the dedicated server and its data",
	Long: `Uninstall removes the server content, save data, service unit and
management console after explicit confirmation. Installed packages and
firewall rules are host-level state and are left in place.`,
	RunE: vein_cli.Wrap(func(rc *vein_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		installer, err := newInstaller(rc, cmd)
		if err != nil {
			return err
		}
		return installer.Uninstall(rc.Ctx)
	}),
}
