// pkg/systemd/systemd_test.go

package systemd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	spec := ServiceSpec{
		Name:             "vein-server",
		Description:      "VEIN Dedicated Server",
		WorkingDirectory: "/home/steam/VEIN/AppFiles",
		User:             "steam",
		Group:            "steam",
		ExecStartPre:     "/usr/games/steamcmd +force_install_dir /home/steam/VEIN/AppFiles +login anonymous +app_update 2131400 validate +quit",
		ExecStart:        "/home/steam/VEIN/AppFiles/VeinServer.sh",
		TimeoutStartSec:  900,
	}

	unit := spec.Render()
	assert.Contains(t, unit, "[Unit]\nDescription=VEIN Dedicated Server\n")
	assert.Contains(t, unit, "After=network-online.target")
	assert.Contains(t, unit, "User=steam\n")
	assert.Contains(t, unit, "Group=steam\n")
	assert.Contains(t, unit, "WorkingDirectory=/home/steam/VEIN/AppFiles\n")
	assert.Contains(t, unit, "ExecStartPre=/usr/games/steamcmd +force_install_dir")
	assert.Contains(t, unit, "ExecStart=/home/steam/VEIN/AppFiles/VeinServer.sh\n")
	assert.Contains(t, unit, "Restart=on-failure\n")
	assert.Contains(t, unit, "RestartSec=10\n")
	assert.Contains(t, unit, "TimeoutStartSec=900\n")
	assert.Contains(t, unit, "WantedBy=multi-user.target")
}

func TestRenderOmitsEmptyDirectives(t *testing.T) {
	unit := ServiceSpec{Name: "x", Description: "d", ExecStart: "/bin/true"}.Render()
	assert.NotContains(t, unit, "User=")
	assert.NotContains(t, unit, "WorkingDirectory=")
	assert.NotContains(t, unit, "ExecStartPre=")
}

func TestUnitName(t *testing.T) {
	assert.Equal(t, "vein-server.service", ServiceSpec{Name: "vein-server"}.UnitName())
	assert.Equal(t, "vein-server.service", ServiceSpec{Name: "vein-server.service"}.UnitName())
}

func TestInstallWritesEnablesDoesNotStart(t *testing.T) {
	dir := t.TempDir()
	runner := &testutil.FakeRunner{}
	m := &Manager{runner: runner, unitDir: dir}

	spec := ServiceSpec{Name: "vein-server", Description: "d", ExecStart: "/bin/true"}
	require.NoError(t, m.Install(context.Background(), spec))

	content, err := os.ReadFile(filepath.Join(dir, "vein-server.service"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "ExecStart=/bin/true")

	assert.True(t, runner.Ran("systemctl daemon-reload"))
	assert.True(t, runner.Ran("systemctl enable vein-server"))
	assert.False(t, runner.Ran("systemctl start"))
}

func TestInstallBacksUpExistingUnit(t *testing.T) {
	dir := t.TempDir()
	unitPath := filepath.Join(dir, "vein-server.service")
	require.NoError(t, os.WriteFile(unitPath, []byte("old unit\n"), 0o644))

	m := &Manager{runner: &testutil.FakeRunner{}, unitDir: dir}
	spec := ServiceSpec{Name: "vein-server", Description: "d", ExecStart: "/bin/true"}
	require.NoError(t, m.Install(context.Background(), spec))

	matches, err := filepath.Glob(unitPath + ".backup.*")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	backup, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Equal(t, "old unit\n", string(backup))
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	unitPath := filepath.Join(dir, "vein-server.service")
	require.NoError(t, os.WriteFile(unitPath, []byte("unit"), 0o644))

	runner := &testutil.FakeRunner{}
	m := &Manager{runner: runner, unitDir: dir}
	require.NoError(t, m.Remove(context.Background(), "vein-server"))

	assert.NoFileExists(t, unitPath)
	assert.True(t, runner.Ran("systemctl disable vein-server"))
	assert.True(t, runner.Ran("systemctl daemon-reload"))

	// removing again stays clean
	require.NoError(t, m.Remove(context.Background(), "vein-server"))
}

func TestIsActive(t *testing.T) {
	tests := []struct {
		name   string
		result testutil.FakeResult
		want   bool
	}{
		{"active", testutil.FakeResult{Output: "active"}, true},
		{"inactive", testutil.FakeResult{Output: "inactive", Err: errors.New("exit status 3")}, false},
		{"unknown unit", testutil.FakeResult{Output: "inactive", Err: errors.New("exit status 4")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &testutil.FakeRunner{Responses: map[string]testutil.FakeResult{
				"systemctl is-active": tt.result,
			}}
			m := &Manager{runner: runner, unitDir: t.TempDir()}
			got, err := m.IsActive(context.Background(), "vein-server")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	m := &Manager{runner: &testutil.FakeRunner{}, unitDir: dir}
	assert.False(t, m.Exists("vein-server"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "vein-server.service"), []byte("u"), 0o644))
	assert.True(t, m.Exists("vein-server"))
}
