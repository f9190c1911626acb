// pkg/steam/manifest.go

// Package steam wraps steamcmd for content fetching and manifest
// inspection.
package steam

import (
	"regexp"
	"strings"
)

// Manifest is the tree form of Valve's KeyValues text format, as
// emitted by app_info_print and stored in appmanifest .acf files.
// Values are either string or Manifest.
type Manifest map[string]any

var (
	kvLineRe  = regexp.MustCompile(`^"([^"]*)"\s*"(.*)"$`)
	keyLineRe = regexp.MustCompile(`^"([^"]*)"$`)
)

// ParseManifest parses KeyValues text. Lines outside the format, such
// as steamcmd's own chatter around an app_info_print block, are
// ignored.
func ParseManifest(content string) Manifest {
	current := Manifest{}
	root := current
	var stack []Manifest
	var pendingKey string
	havePending := false

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "{":
			child := Manifest{}
			if havePending {
				current[pendingKey] = child
				havePending = false
			}
			stack = append(stack, current)
			current = child
		case line == "}":
			if len(stack) > 0 {
				current = stack[len(stack)-1]
				stack = stack[:len(stack)-1]
			}
		default:
			if m := kvLineRe.FindStringSubmatch(line); m != nil {
				current[m[1]] = m[2]
			} else if m := keyLineRe.FindStringSubmatch(line); m != nil {
				pendingKey = m[1]
				havePending = true
			}
		}
	}
	return root
}

// Section walks nested manifests by key path.
func (m Manifest) Section(path ...string) (Manifest, bool) {
	current := m
	for _, key := range path {
		child, ok := current[key].(Manifest)
		if !ok {
			return nil, false
		}
		current = child
	}
	return current, true
}

// Get returns the string value at a key path.
func (m Manifest) Get(path ...string) (string, bool) {
	if len(path) == 0 {
		return "", false
	}
	section := m
	if len(path) > 1 {
		var ok bool
		section, ok = m.Section(path[:len(path)-1]...)
		if !ok {
			return "", false
		}
	}
	v, ok := section[path[len(path)-1]].(string)
	return v, ok
}
