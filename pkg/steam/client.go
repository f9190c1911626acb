// pkg/steam/client.go

package steam

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/execute"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// ErrContentFetch reports a failed steamcmd app_update run.
var ErrContentFetch = cerr.New("steamcmd content fetch failed")

// ErrSteamcmdNotFound reports that no steamcmd binary is installed.
var ErrSteamcmdNotFound = cerr.New("steamcmd not found")

// steamcmdPaths are the usual install locations checked before PATH.
var steamcmdPaths = []string{
	"/usr/games/steamcmd",
	"/usr/local/games/steamcmd",
	"/opt/steamcmd/steamcmd.sh",
}

// Locate finds the steamcmd binary.
func Locate(runner execute.Runner) (string, error) {
	for _, path := range steamcmdPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	if path, err := runner.LookPath("steamcmd"); err == nil {
		return path, nil
	}
	return "", ErrSteamcmdNotFound
}

// Client runs steamcmd operations for one app.
type Client struct {
	runner execute.Runner
	path   string
}

// NewClient locates steamcmd and returns a Client bound to it.
func NewClient(runner execute.Runner) (*Client, error) {
	path, err := Locate(runner)
	if err != nil {
		return nil, err
	}
	return &Client{runner: runner, path: path}, nil
}

// Path returns the steamcmd binary in use.
func (c *Client) Path() string { return c.path }

// UpdateArgs builds the steamcmd argument list that installs or
// updates an app into dir. The same list goes into the unit file's
// ExecStartPre so every service start validates the content.
func (c *Client) UpdateArgs(dir string, appID int, branch string) []string {
	args := []string{
		"+force_install_dir", dir,
		"+login", "anonymous",
		"+app_update", strconv.Itoa(appID),
	}
	if branch != "" {
		args = append(args, "-beta", branch)
	}
	return append(args, "validate", "+quit")
}

// FetchContent downloads or updates the app content into dir as the
// given system user. Downloads run into the tens of gigabytes, so the
// timeout is generous.
func (c *Client) FetchContent(ctx context.Context, user, dir string, appID int, branch string) error {
	log := otelzap.Ctx(ctx)
	log.Info("Fetching app content via steamcmd",
		zap.Int("app_id", appID),
		zap.String("dir", dir),
		zap.String("branch", branch))

	args := append([]string{"-u", user, c.path}, c.UpdateArgs(dir, appID, branch)...)
	out, err := c.runner.Run(ctx, execute.Options{
		Command: "sudo",
		Args:    args,
		Timeout: 4 * time.Hour,
	})
	if err != nil {
		return cerr.WithDetail(cerr.WithSecondaryError(ErrContentFetch, err), out)
	}
	return nil
}

// AppDetails queries Steam for the current metadata of an app. The
// returned manifest is the subtree under the app id, holding common,
// config and depots sections.
func (c *Client) AppDetails(ctx context.Context, appID int) (Manifest, error) {
	out, err := c.runner.Run(ctx, execute.Options{
		Command: c.path,
		Args: []string{
			"+login", "anonymous",
			"+app_info_update", "1",
			"+app_info_print", strconv.Itoa(appID),
			"+quit",
		},
		Capture: true,
		Timeout: 10 * time.Minute,
	})
	if err != nil {
		return nil, cerr.Wrap(err, "querying app details")
	}

	parsed := ParseManifest(out)
	details, ok := parsed.Section(strconv.Itoa(appID))
	if !ok {
		return nil, cerr.Newf("app %d not found in steamcmd output", appID)
	}
	return details, nil
}

// ManifestPath returns the .acf file steamcmd maintains for an
// installed app.
func ManifestPath(installDir string, appID int) string {
	return filepath.Join(installDir, "steamapps", fmt.Sprintf("appmanifest_%d.acf", appID))
}

// CheckAppUpdate reports whether the installed build at manifestPath
// lags the latest build of its branch.
func (c *Client) CheckAppUpdate(ctx context.Context, manifestPath string) (bool, error) {
	content, err := os.ReadFile(manifestPath)
	if err != nil {
		return false, cerr.Wrap(err, "reading app manifest")
	}

	local, ok := ParseManifest(string(content)).Section("AppState")
	if !ok {
		return false, cerr.Newf("invalid app manifest %s", manifestPath)
	}
	appIDStr, _ := local.Get("appid")
	appID, err := strconv.Atoi(appIDStr)
	if err != nil {
		return false, cerr.Newf("invalid appid in manifest %s", manifestPath)
	}
	buildID, _ := local.Get("buildid")

	branch := "public"
	if beta, ok := local.Get("MountedConfig", "BetaKey"); ok && beta != "" {
		branch = beta
	}

	details, err := c.AppDetails(ctx, appID)
	if err != nil {
		return false, err
	}
	latest, ok := details.Get("depots", "branches", branch, "buildid")
	if !ok {
		return false, cerr.Newf("branch %s not found for app %d", branch, appID)
	}
	return buildID != latest, nil
}
