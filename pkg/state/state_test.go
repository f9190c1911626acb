// pkg/state/state_test.go

package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	s := &Store{Dir: t.TempDir()}

	rec := Record{
		Service:     "vein-server",
		WorkingDir:  "/home/steam/VEIN",
		Branch:      "experimental",
		AppID:       2131400,
		User:        "steam",
		InstalledAt: time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.Save(rec))

	got, err := s.Load("vein-server")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec, *got)
}

func TestLoadMissingIsNil(t *testing.T) {
	s := &Store{Dir: t.TempDir()}
	got, err := s.Load("vein-server")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRemoveIdempotent(t *testing.T) {
	s := &Store{Dir: t.TempDir()}
	require.NoError(t, s.Save(Record{Service: "vein-server"}))
	require.NoError(t, s.Remove("vein-server"))
	require.NoError(t, s.Remove("vein-server"))

	got, err := s.Load("vein-server")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestScrapeUnit(t *testing.T) {
	unit := `[Unit]
Description=VEIN Dedicated Server

[Service]
Type=simple
User=steam
WorkingDirectory=/home/steam/VEIN/AppFiles
ExecStartPre=/usr/games/steamcmd +force_install_dir /home/steam/VEIN/AppFiles +login anonymous +app_update 2131400 -beta experimental validate +quit
ExecStart=/home/steam/VEIN/AppFiles/VeinServer.sh
`
	rec := ScrapeUnit("vein-server", unit)
	require.NotNil(t, rec)
	assert.Equal(t, "vein-server", rec.Service)
	assert.Equal(t, "/home/steam/VEIN", rec.WorkingDir)
	assert.Equal(t, "experimental", rec.Branch)
	assert.Equal(t, "steam", rec.User)
}

func TestScrapeUnitPublicBranch(t *testing.T) {
	unit := `ExecStartPre=/usr/games/steamcmd +force_install_dir /srv/vein/AppFiles +login anonymous +app_update 2131400 validate +quit`
	rec := ScrapeUnit("vein-server", unit)
	require.NotNil(t, rec)
	assert.Equal(t, "/srv/vein", rec.WorkingDir)
	assert.Empty(t, rec.Branch)
}

func TestScrapeUnitUnrelatedText(t *testing.T) {
	assert.Nil(t, ScrapeUnit("vein-server", "[Unit]\nDescription=something else\n"))
}
