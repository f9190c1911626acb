// pkg/vein_cli/wrap_test.go

package vein_cli

import (
	"context"
	"testing"

	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/vein_io"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWrapRecoversPanicBeforeOutcome(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	cmd := &cobra.Command{Use: "boom"}
	cmd.RunE = Wrap(func(rc *vein_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		panic("kaboom")
	})
	cmd.SetContext(context.Background())

	err := cmd.RunE(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")

	// recovery must land before the outcome is recorded
	assert.Equal(t, 1, logs.FilterMessage("Command failed").Len())
	assert.Equal(t, 0, logs.FilterMessage("Command completed").Len())
}

func TestWrapLogsSuccess(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	cmd := &cobra.Command{Use: "ok"}
	cmd.RunE = Wrap(func(rc *vein_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		return nil
	})
	cmd.SetContext(context.Background())

	require.NoError(t, cmd.RunE(cmd, nil))
	assert.Equal(t, 1, logs.FilterMessage("Command completed").Len())
}
