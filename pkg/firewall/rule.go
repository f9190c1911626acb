// pkg/firewall/rule.go

// Package firewall normalizes rule management across ufw, firewalld and
// raw iptables.
package firewall

import (
	"strings"

	cerr "github.com/cockroachdb/errors"
)

// ErrInvalidRule reports a rule that no backend could express.
var ErrInvalidRule = cerr.New("invalid firewall rule")

// Rule is a backend-neutral allow rule. Ports use "7777" or the range
// form "7000:7010". A rule with a Source and no Ports trusts the source
// entirely.
type Rule struct {
	Ports   []string
	Proto   string // "udp" or "tcp", default udp
	Source  string // CIDR or address, empty means any
	Zone    string // firewalld only, default "public"
	Comment string
}

// Trusted reports whether the rule whitelists a source outright rather
// than opening ports.
func (r Rule) Trusted() bool {
	return len(r.Ports) == 0 && r.Source != ""
}

// Validate checks the rule before any backend translation runs.
func (r Rule) Validate() error {
	if r.Trusted() {
		if r.Source == "any" {
			return cerr.WithDetail(ErrInvalidRule, "trusted rule cannot use source any")
		}
		return nil
	}
	if len(r.Ports) == 0 {
		return cerr.WithDetail(ErrInvalidRule, "rule needs ports or a trusted source")
	}
	if r.Zone == "trusted" {
		return cerr.WithDetail(ErrInvalidRule, "trusted zone rule cannot carry ports")
	}
	for _, p := range r.Ports {
		if p == "" || strings.Count(p, ":") > 1 || strings.Contains(p, ",") {
			return cerr.WithDetailf(ErrInvalidRule, "malformed port %q", p)
		}
	}
	switch r.Proto {
	case "", "udp", "tcp":
	default:
		return cerr.WithDetailf(ErrInvalidRule, "unsupported protocol %q", r.Proto)
	}
	return nil
}

func (r Rule) proto() string {
	if r.Proto == "" {
		return "udp"
	}
	return r.Proto
}

func (r Rule) zone() string {
	if r.Zone == "" {
		return "public"
	}
	return r.Zone
}
