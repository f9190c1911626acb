// pkg/vein_cli/wrap.go

// Package vein_cli adapts lifecycle operations into cobra commands.
package vein_cli

import (
	"fmt"
	"os"

	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/vein_err"
	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/vein_io"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Wrap turns a RuntimeContext-based handler into a cobra RunE, adding
// panic recovery, span lifecycle and expected-error handling. Expected
// operator errors print a plain message without a stack trace; the
// exit code stays non-zero either way.
func Wrap(fn func(rc *vein_io.RuntimeContext, cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		rc := vein_io.NewContext(cmd.Context(), cmd.Name())
		defer rc.End(&err)
		defer rc.HandlePanic(&err)

		err = fn(rc, cmd, args)
		if err != nil && vein_err.IsExpectedUserError(err) {
			fmt.Fprintln(os.Stderr, err.Error())
			rc.Log.Info("Command aborted by expected condition", zap.Error(err))
			// keep the message, drop the trace
			cmd.SilenceErrors = true
		}
		return err
	}
}
