// pkg/firewall/firewall.go

package firewall

import (
	"context"
	"os"
	"strings"

	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/execute"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Backend identifies the firewall frontend in charge of the host.
type Backend string

const (
	BackendFirewalld Backend = "firewalld"
	BackendUFW       Backend = "ufw"
	BackendIptables  Backend = "iptables"
	BackendNone      Backend = "none"
)

// ErrNoFirewallAvailable reports a host with no usable firewall
// tooling at all.
var ErrNoFirewallAvailable = cerr.New("no firewall tooling available")

// PackageInstaller is the slice of pkgmgr.Manager the firewall layer
// needs when it has to bring in ufw itself.
type PackageInstaller interface {
	Install(ctx context.Context, packages ...string) error
}

// Service detects and drives the host firewall.
type Service struct {
	runner   execute.Runner
	packages PackageInstaller

	// newIPT builds the raw-iptables handle, swapped out in tests.
	newIPT func() (ruleAppender, error)

	// rulesFile receives the iptables-save snapshot.
	rulesFile string

	// operatorAddr resolves the connecting operator's address for
	// anti-lockout rules. Empty means unknown.
	operatorAddr func() string
}

// NewService returns a Service using the host's tooling.
func NewService(runner execute.Runner, packages PackageInstaller) *Service {
	return &Service{
		runner:       runner,
		packages:     packages,
		newIPT:       newHostIPT,
		rulesFile:    "/etc/iptables/rules.v4",
		operatorAddr: sshClientAddr,
	}
}

// DetectActive returns the firewall currently enforcing rules.
// Preference order when several respond: firewalld, then ufw, then raw
// iptables.
func (s *Service) DetectActive(ctx context.Context) Backend {
	if out, err := s.runner.Run(ctx, execute.Options{
		Command: "firewall-cmd", Args: []string{"--state"}, Capture: true,
	}); err == nil && strings.TrimSpace(out) == "running" {
		return BackendFirewalld
	}

	if out, err := s.runner.Run(ctx, execute.Options{
		Command: "ufw", Args: []string{"status"}, Capture: true,
	}); err == nil && strings.Contains(out, "Status: active") {
		return BackendUFW
	}

	if _, err := s.runner.Run(ctx, execute.Options{
		Command: "iptables", Args: []string{"-L", "-n"}, Capture: true,
	}); err == nil {
		return BackendIptables
	}

	return BackendNone
}

// DetectAvailable returns the installed frontends whether or not they
// are enforcing, in preference order.
func (s *Service) DetectAvailable(ctx context.Context) []Backend {
	var available []Backend
	for _, probe := range []struct {
		backend Backend
		binary  string
	}{
		{BackendFirewalld, "firewall-cmd"},
		{BackendUFW, "ufw"},
		{BackendIptables, "iptables"},
	} {
		if _, err := s.runner.LookPath(probe.binary); err == nil {
			available = append(available, probe.backend)
		}
	}
	return available
}

// EnsureActive makes sure some firewall is enforcing. A host with an
// active frontend is left alone. Otherwise ufw is installed and
// enabled, with an anti-lockout rule for the operator's SSH source
// added first when that source is known.
func (s *Service) EnsureActive(ctx context.Context) (Backend, error) {
	log := otelzap.Ctx(ctx)

	if active := s.DetectActive(ctx); active != BackendNone {
		log.Info("Firewall already active", zap.String("backend", string(active)))
		return active, nil
	}

	log.Info("No active firewall, installing ufw")
	if err := s.packages.Install(ctx, "ufw"); err != nil {
		return BackendNone, cerr.Wrap(err, "installing ufw")
	}

	if addr := s.operatorAddr(); addr != "" {
		log.Info("Adding anti-lockout rule for operator", zap.String("source", addr))
		if _, err := s.runner.Run(ctx, execute.Options{
			Command: "ufw", Args: []string{"allow", "from", addr}, Capture: true,
		}); err != nil {
			return BackendNone, cerr.Wrap(err, "adding anti-lockout rule")
		}
	} else {
		log.Warn("Operator address unknown, skipping anti-lockout rule")
	}

	if _, err := s.runner.Run(ctx, execute.Options{
		Command: "ufw", Args: []string{"--force", "enable"}, Capture: true,
	}); err != nil {
		return BackendNone, cerr.Wrap(err, "enabling ufw")
	}
	if _, err := s.runner.Run(ctx, execute.Options{
		Command: "systemctl", Args: []string{"enable", "ufw"}, Capture: true,
	}); err != nil {
		return BackendNone, cerr.Wrap(err, "enabling ufw unit")
	}
	return BackendUFW, nil
}

// Allow applies the rule through the given backend.
func (s *Service) Allow(ctx context.Context, backend Backend, rule Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	otelzap.Ctx(ctx).Info("Applying firewall rule",
		zap.String("backend", string(backend)),
		zap.Strings("ports", rule.Ports),
		zap.String("proto", rule.proto()),
		zap.String("source", rule.Source))

	switch backend {
	case BackendUFW:
		return s.allowUFW(ctx, rule)
	case BackendFirewalld:
		return s.allowFirewalld(ctx, rule)
	case BackendIptables:
		return s.allowIptables(ctx, rule)
	default:
		return ErrNoFirewallAvailable
	}
}

func (s *Service) allowUFW(ctx context.Context, rule Rule) error {
	args := ufwArgs(rule)
	if _, err := s.runner.Run(ctx, execute.Options{
		Command: "ufw", Args: args, Capture: true,
	}); err != nil {
		return cerr.Wrap(err, "ufw allow")
	}
	return nil
}

// ufwArgs renders a rule as a single ufw invocation.
func ufwArgs(rule Rule) []string {
	var args []string
	switch {
	case rule.Trusted():
		args = []string{"allow", "from", rule.Source}
	case rule.Source != "":
		args = []string{"allow", "from", rule.Source, "to", "any", "port",
			strings.Join(rule.Ports, ","), "proto", rule.proto()}
	case len(rule.Ports) == 1:
		args = []string{"allow", rule.Ports[0] + "/" + rule.proto()}
	default:
		args = []string{"allow", "proto", rule.proto(), "to", "any", "port",
			strings.Join(rule.Ports, ",")}
	}
	if rule.Comment != "" {
		args = append(args, "comment", rule.Comment)
	}
	return args
}

func (s *Service) allowFirewalld(ctx context.Context, rule Rule) error {
	if rule.Trusted() {
		if _, err := s.runner.Run(ctx, execute.Options{
			Command: "firewall-cmd",
			Args:    []string{"--permanent", "--zone=trusted", "--add-source=" + rule.Source},
			Capture: true,
		}); err != nil {
			return cerr.Wrap(err, "firewalld add-source")
		}
		return s.reloadFirewalld(ctx)
	}

	// a restricted source binds to the zone before any port opens in it
	if rule.Source != "" && rule.Source != "any" {
		if _, err := s.runner.Run(ctx, execute.Options{
			Command: "firewall-cmd",
			Args:    []string{"--permanent", "--zone=" + rule.zone(), "--add-source=" + rule.Source},
			Capture: true,
		}); err != nil {
			return cerr.Wrap(err, "firewalld add-source")
		}
	}

	for _, port := range rule.Ports {
		// firewalld writes ranges with a hyphen
		port = strings.ReplaceAll(port, ":", "-")
		if _, err := s.runner.Run(ctx, execute.Options{
			Command: "firewall-cmd",
			Args: []string{"--permanent", "--zone=" + rule.zone(),
				"--add-port=" + port + "/" + rule.proto()},
			Capture: true,
		}); err != nil {
			return cerr.Wrapf(err, "firewalld add-port %s", port)
		}
	}
	return s.reloadFirewalld(ctx)
}

func (s *Service) reloadFirewalld(ctx context.Context) error {
	if _, err := s.runner.Run(ctx, execute.Options{
		Command: "firewall-cmd", Args: []string{"--reload"}, Capture: true,
	}); err != nil {
		return cerr.Wrap(err, "firewalld reload")
	}
	return nil
}

// sshClientAddr extracts the operator's source address from the SSH
// environment. Empty when the session is local.
func sshClientAddr() string {
	for _, env := range []string{"SSH_CONNECTION", "SSH_CLIENT"} {
		if v := os.Getenv(env); v != "" {
			fields := strings.Fields(v)
			if len(fields) > 0 {
				return fields[0]
			}
		}
	}
	return ""
}
