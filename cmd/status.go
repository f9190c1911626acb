// cmd/status.go

package cmd

import (
	"fmt"

	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/vein_cli"
	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/vein_io"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show host and installation status",
	RunE: vein_cli.Wrap(func(rc *vein_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		installer, err := newInstaller(rc, cmd)
		if err != nil {
			return err
		}
		st, err := installer.Status(rc.Ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Host:       %s (major version %d)\n", st.Profile.Family, st.Profile.MajorVersion)
		fmt.Fprintf(out, "Firewall:   %s\n", st.FirewallActive)

		if !st.Installation.Registered {
			fmt.Fprintln(out, "Server:     not installed")
			return nil
		}
		running := "stopped"
		if st.Installation.ServiceActive {
			running = "running"
		}
		branch := st.Installation.Branch
		if branch == "" {
			branch = "public"
		}
		fmt.Fprintf(out, "Server:     installed at %s (%s)\n", st.Installation.WorkingDir, running)
		fmt.Fprintf(out, "Branch:     %s\n", branch)
		switch {
		case st.UpdateAvailable == nil:
			fmt.Fprintln(out, "Update:     unknown")
		case *st.UpdateAvailable:
			fmt.Fprintln(out, "Update:     available")
		default:
			fmt.Fprintln(out, "Update:     up to date")
		}
		return nil
	}),
}
