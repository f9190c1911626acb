// pkg/pkgmgr/steam_tooling.go

package pkgmgr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/execute"
	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/platform"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const (
	steamRepoKeyURL  = "https://repo.steampowered.com/steam/archive/stable/steam.gpg"
	steamRepoLine    = "deb [arch=amd64,i386 signed-by=%s] https://repo.steampowered.com/steam/ stable steam"
	steamLicenseSeed = "steam steam/question select I AGREE\nsteam steam/license note ''\n"
)

// Downloader fetches a URL to a local file. fetch.Client satisfies it.
type Downloader interface {
	Download(ctx context.Context, url, dest string, mode os.FileMode) error
}

// InstallSteamTooling prepares the host repositories for steamcmd and
// installs it. On apt hosts that means the i386 architecture, the
// multiverse or non-free components, Valve's repository key and a
// preseeded license acceptance. Other backends install the package as
// published by their distribution.
func (m *Manager) InstallSteamTooling(ctx context.Context, fetcher Downloader) error {
	log := otelzap.Ctx(ctx)

	if m.backend != BackendApt {
		log.Info("Installing steamcmd from distribution repositories",
			zap.String("backend", string(m.backend)))
		return m.Install(ctx, "steamcmd")
	}

	if _, err := m.runner.Run(ctx, execute.Options{
		Command: "dpkg", Args: []string{"--add-architecture", "i386"}, Capture: true,
	}); err != nil {
		return cerr.Wrap(err, "enabling i386 architecture")
	}

	if err := m.enableSteamComponents(ctx); err != nil {
		return err
	}
	if err := m.installSteamRepoKey(ctx, fetcher); err != nil {
		return err
	}
	if err := m.preseedSteamLicense(ctx); err != nil {
		return err
	}
	if err := m.Update(ctx); err != nil {
		return err
	}
	return m.Install(ctx, "steamcmd")
}

// enableSteamComponents turns on the archive components carrying the
// Steam runtime: multiverse on Ubuntu, non-free on Debian plus
// non-free-firmware from Debian 13.
func (m *Manager) enableSteamComponents(ctx context.Context) error {
	log := otelzap.Ctx(ctx)

	if m.profile.Family == platform.FamilyUbuntu {
		if _, err := m.runner.Run(ctx, execute.Options{
			Command: "add-apt-repository", Args: []string{"-y", "multiverse"}, Capture: true,
		}); err != nil {
			return cerr.Wrap(err, "enabling multiverse component")
		}
		return nil
	}

	components := []string{"contrib", "non-free"}
	if m.profile.MajorVersion >= 13 {
		components = append(components, "non-free-firmware")
	}

	for _, component := range components {
		_, err := m.runner.Run(ctx, execute.Options{
			Command: "apt-add-repository",
			Args:    []string{"-y", "--component", component},
			Capture: true,
		})
		if err == nil {
			continue
		}
		log.Warn("apt-add-repository unavailable, appending to sources.list",
			zap.String("component", component), zap.Error(err))
		if ferr := m.appendComponentFallback(components); ferr != nil {
			return ferr
		}
		break
	}
	return nil
}

// appendComponentFallback adds a deb line carrying the wanted
// components for hosts without the software-properties tooling.
func (m *Manager) appendComponentFallback(components []string) error {
	line := fmt.Sprintf("deb http://deb.debian.org/debian %s main %s\n",
		debianCodename(m.profile.MajorVersion), strings.Join(components, " "))

	existing, err := os.ReadFile(m.sourcesList)
	if err != nil && !os.IsNotExist(err) {
		return cerr.Wrap(err, "reading sources.list")
	}
	if strings.Contains(string(existing), strings.TrimSpace(line)) {
		return nil
	}

	f, err := os.OpenFile(m.sourcesList, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return cerr.Wrap(err, "opening sources.list")
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return cerr.Wrap(err, "appending to sources.list")
	}
	return nil
}

func debianCodename(major int) string {
	switch major {
	case 11:
		return "bullseye"
	case 12:
		return "bookworm"
	case 13:
		return "trixie"
	default:
		return "stable"
	}
}

func (m *Manager) installSteamRepoKey(ctx context.Context, fetcher Downloader) error {
	keyPath := filepath.Join(m.keyringDir, "steam.gpg")
	if err := fetcher.Download(ctx, steamRepoKeyURL, keyPath, 0o644); err != nil {
		return cerr.Wrap(err, "fetching steam repository key")
	}

	listPath := filepath.Join(m.sourcesDir, "steam-stable.list")
	line := fmt.Sprintf(steamRepoLine, keyPath) + "\n"
	if err := os.WriteFile(listPath, []byte(line), 0o644); err != nil {
		return cerr.Wrap(err, "writing steam source list")
	}
	return nil
}

// preseedSteamLicense accepts the Steam license up front so apt never
// blocks on the debconf dialog.
func (m *Manager) preseedSteamLicense(ctx context.Context) error {
	_, err := m.runner.Run(ctx, execute.Options{
		Command: "debconf-set-selections",
		Stdin:   strings.NewReader(steamLicenseSeed),
		Capture: true,
		Timeout: time.Minute,
	})
	return cerr.Wrap(err, "preseeding steam license")
}
