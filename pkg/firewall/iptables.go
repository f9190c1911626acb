// pkg/firewall/iptables.go

package firewall

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/execute"
	cerr "github.com/cockroachdb/errors"
	"github.com/coreos/go-iptables/iptables"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// ruleAppender is the part of go-iptables Allow needs.
type ruleAppender interface {
	AppendUnique(table, chain string, rulespec ...string) error
}

func newHostIPT() (ruleAppender, error) {
	return iptables.New(iptables.IPFamily(iptables.ProtocolIPv4))
}

func (s *Service) allowIptables(ctx context.Context, rule Rule) error {
	ipt, err := s.newIPT()
	if err != nil {
		return cerr.Wrap(err, "opening iptables")
	}

	var spec []string
	if rule.Trusted() {
		spec = []string{"-s", rule.Source, "-j", "ACCEPT"}
	} else {
		spec = []string{"-p", rule.proto()}
		if rule.Source != "" {
			spec = append(spec, "-s", rule.Source)
		}
		if len(rule.Ports) == 1 && !strings.Contains(rule.Ports[0], ":") {
			spec = append(spec, "--dport", rule.Ports[0])
		} else {
			spec = append(spec, "-m", "multiport", "--dports", strings.Join(rule.Ports, ","))
		}
		spec = append(spec, "-j", "ACCEPT")
	}
	if rule.Comment != "" {
		spec = append(spec, "-m", "comment", "--comment", rule.Comment)
	}

	if err := ipt.AppendUnique("filter", "INPUT", spec...); err != nil {
		return cerr.Wrap(err, "appending iptables rule")
	}
	return s.persistIptables(ctx)
}

// persistIptables snapshots the live ruleset so it survives a reboot on
// hosts running iptables-persistent or netfilter-persistent. Hosts
// without either package keep the rule only until reboot.
func (s *Service) persistIptables(ctx context.Context) error {
	out, err := s.runner.Run(ctx, execute.Options{
		Command: "iptables-save", Capture: true,
	})
	if err != nil {
		otelzap.Ctx(ctx).Warn("iptables-save unavailable, rules not persisted", zap.Error(err))
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.rulesFile), 0o755); err != nil {
		return cerr.Wrap(err, "creating iptables rules directory")
	}
	if err := os.WriteFile(s.rulesFile, []byte(out+"\n"), 0o644); err != nil {
		return cerr.Wrap(err, "writing iptables rules file")
	}
	return nil
}
