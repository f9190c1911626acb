// pkg/state/state.go

// Package state persists what an installation looked like so later
// runs can adopt it.
package state

import (
	"os"
	"path/filepath"
	"time"

	cerr "github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Record captures one installed server.
type Record struct {
	Service     string    `yaml:"service"`
	WorkingDir  string    `yaml:"working_dir"`
	Branch      string    `yaml:"branch,omitempty"`
	AppID       int       `yaml:"app_id"`
	User        string    `yaml:"user"`
	InstalledAt time.Time `yaml:"installed_at"`
}

// Store reads and writes records under a state directory, one YAML
// file per service.
type Store struct {
	Dir string
}

// NewStore returns a Store rooted at the default state directory.
func NewStore() *Store {
	return &Store{Dir: "/var/lib/vein-server"}
}

// Path returns the record file for a service.
func (s *Store) Path(service string) string {
	return filepath.Join(s.Dir, service+".yaml")
}

// Load reads the record for a service. A missing record returns
// (nil, nil): absence is a normal state, not an error.
func (s *Store) Load(service string) (*Record, error) {
	content, err := os.ReadFile(s.Path(service))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, cerr.Wrap(err, "reading state record")
	}
	var rec Record
	if err := yaml.Unmarshal(content, &rec); err != nil {
		return nil, cerr.Wrap(err, "parsing state record")
	}
	return &rec, nil
}

// Save writes the record, creating the state directory if needed.
func (s *Store) Save(rec Record) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return cerr.Wrap(err, "creating state directory")
	}
	content, err := yaml.Marshal(rec)
	if err != nil {
		return cerr.Wrap(err, "encoding state record")
	}
	if err := os.WriteFile(s.Path(rec.Service), content, 0o644); err != nil {
		return cerr.Wrap(err, "writing state record")
	}
	return nil
}

// Remove deletes the record. Removing an absent record succeeds.
func (s *Store) Remove(service string) error {
	if err := os.Remove(s.Path(service)); err != nil && !os.IsNotExist(err) {
		return cerr.Wrap(err, "removing state record")
	}
	return nil
}
