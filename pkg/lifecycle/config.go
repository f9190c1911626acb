// pkg/lifecycle/config.go

// Package lifecycle orchestrates installing, updating and removing the
// managed game server.
package lifecycle

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds everything the lifecycle needs, resolved once at
// startup and immutable for the run.
type Config struct {
	ServiceName string
	Description string
	AppID       int
	User        string

	// InstallDir is the operator's override; empty means use the
	// registered directory or DefaultDir.
	InstallDir string
	DefaultDir string

	// BinDir receives the management symlink.
	BinDir string

	// ConsoleURL is where the management console script is fetched
	// from.
	ConsoleURL string

	GamePort  string
	QueryPort string
}

// Defaults for the VEIN dedicated server.
const (
	DefaultServiceName = "vein-server"
	DefaultDescription = "VEIN Dedicated Server"
	DefaultAppID       = 2131400
	DefaultUser        = "steam"
	DefaultGamePort    = "7777"
	DefaultQueryPort   = "27015"

	defaultConsoleURL = "https://raw.githubusercontent.com/BitsNBytes25/VEIN-Dedicated-Server/main/manage.py"
)

// LoadConfig resolves configuration from defaults and VEIN_-prefixed
// environment variables. installDir comes from the command line flag.
func LoadConfig(installDir string) Config {
	v := viper.New()
	v.SetEnvPrefix("VEIN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("service", DefaultServiceName)
	v.SetDefault("description", DefaultDescription)
	v.SetDefault("app_id", DefaultAppID)
	v.SetDefault("user", DefaultUser)
	v.SetDefault("bin_dir", "/usr/local/bin")
	v.SetDefault("console_url", defaultConsoleURL)
	v.SetDefault("game_port", DefaultGamePort)
	v.SetDefault("query_port", DefaultQueryPort)

	cfg := Config{
		ServiceName: v.GetString("service"),
		Description: v.GetString("description"),
		AppID:       v.GetInt("app_id"),
		User:        v.GetString("user"),
		InstallDir:  installDir,
		BinDir:      v.GetString("bin_dir"),
		ConsoleURL:  v.GetString("console_url"),
		GamePort:    v.GetString("game_port"),
		QueryPort:   v.GetString("query_port"),
	}
	cfg.DefaultDir = fmt.Sprintf("/home/%s/VEIN", cfg.User)
	return cfg
}

// AppFilesDir is where steamcmd puts the game content under a working
// directory.
func (c Config) AppFilesDir(workingDir string) string {
	return filepath.Join(workingDir, "AppFiles")
}

// HomeDir is the operating account's home.
func (c Config) HomeDir() string {
	return "/home/" + c.User
}

// SaveDir is where the game engine writes player and world data.
func (c Config) SaveDir() string {
	return filepath.Join(c.HomeDir(), ".config", "Epic", "Vein")
}

// ConsolePath is the installed management console script.
func (c Config) ConsolePath(workingDir string) string {
	return filepath.Join(workingDir, "manage.py")
}

// BinSymlink is the convenience command pointing at the console.
func (c Config) BinSymlink() string {
	return filepath.Join(c.BinDir, c.ServiceName)
}
