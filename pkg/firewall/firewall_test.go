// pkg/firewall/firewall_test.go

package firewall

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(runner *testutil.FakeRunner) *Service {
	return &Service{
		runner:       runner,
		packages:     &fakeInstaller{},
		newIPT:       func() (ruleAppender, error) { return &fakeIPT{}, nil },
		rulesFile:    filepath.Join("/nonexistent", "rules.v4"),
		operatorAddr: func() string { return "" },
	}
}

type fakeInstaller struct {
	installed [][]string
	err       error
}

func (f *fakeInstaller) Install(_ context.Context, packages ...string) error {
	f.installed = append(f.installed, packages)
	return f.err
}

type fakeIPT struct {
	appended [][]string
	err      error
}

func (f *fakeIPT) AppendUnique(table, chain string, rulespec ...string) error {
	f.appended = append(f.appended, append([]string{table, chain}, rulespec...))
	return f.err
}

func TestDetectActivePriority(t *testing.T) {
	tests := []struct {
		name      string
		responses map[string]testutil.FakeResult
		want      Backend
	}{
		{
			name: "firewalld wins over ufw",
			responses: map[string]testutil.FakeResult{
				"firewall-cmd --state": {Output: "running"},
				"ufw status":           {Output: "Status: active"},
			},
			want: BackendFirewalld,
		},
		{
			name: "ufw when firewalld not running",
			responses: map[string]testutil.FakeResult{
				"firewall-cmd --state": {Output: "not running", Err: errors.New("exit 252")},
				"ufw status":           {Output: "Status: active"},
			},
			want: BackendUFW,
		},
		{
			name: "inactive ufw falls through to iptables",
			responses: map[string]testutil.FakeResult{
				"firewall-cmd --state": {Err: errors.New("not found")},
				"ufw status":           {Output: "Status: inactive"},
				"iptables -L -n":       {Output: "Chain INPUT (policy ACCEPT)"},
			},
			want: BackendIptables,
		},
		{
			name: "nothing usable",
			responses: map[string]testutil.FakeResult{
				"firewall-cmd": {Err: errors.New("not found")},
				"ufw":          {Err: errors.New("not found")},
				"iptables":     {Err: errors.New("not found")},
			},
			want: BackendNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &testutil.FakeRunner{Responses: tt.responses}
			s := newTestService(runner)
			assert.Equal(t, tt.want, s.DetectActive(context.Background()))
		})
	}
}

func TestDetectAvailable(t *testing.T) {
	runner := &testutil.FakeRunner{Binaries: map[string]bool{
		"ufw":      true,
		"iptables": true,
	}}
	s := newTestService(runner)
	assert.Equal(t, []Backend{BackendUFW, BackendIptables}, s.DetectAvailable(context.Background()))
}

func TestEnsureActiveNoopWhenActive(t *testing.T) {
	runner := &testutil.FakeRunner{Responses: map[string]testutil.FakeResult{
		"firewall-cmd --state": {Output: "running"},
	}}
	installer := &fakeInstaller{}
	s := newTestService(runner)
	s.packages = installer

	backend, err := s.EnsureActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, BackendFirewalld, backend)
	assert.Empty(t, installer.installed)
	assert.False(t, runner.Ran("ufw --force enable"))
}

func TestEnsureActiveInstallsUFWWithAntiLockout(t *testing.T) {
	runner := &testutil.FakeRunner{Responses: map[string]testutil.FakeResult{
		"firewall-cmd --state": {Err: errors.New("not found")},
		"ufw status":           {Err: errors.New("not found")},
		"iptables -L -n":       {Err: errors.New("not found")},
	}}
	installer := &fakeInstaller{}
	s := newTestService(runner)
	s.packages = installer
	s.operatorAddr = func() string { return "198.51.100.7" }

	backend, err := s.EnsureActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, BackendUFW, backend)
	assert.Equal(t, [][]string{{"ufw"}}, installer.installed)

	// lockout protection lands before enable
	var allowIdx, enableIdx int
	for i, cmd := range runner.Commands {
		switch cmd {
		case "ufw allow from 198.51.100.7":
			allowIdx = i
		case "ufw --force enable":
			enableIdx = i
		}
	}
	assert.Less(t, allowIdx, enableIdx)
	assert.True(t, runner.Ran("systemctl enable ufw"))
}

func TestEnsureActiveSkipsAntiLockoutWhenLocal(t *testing.T) {
	runner := &testutil.FakeRunner{Responses: map[string]testutil.FakeResult{
		"firewall-cmd --state": {Err: errors.New("not found")},
		"ufw status":           {Err: errors.New("not found")},
		"iptables -L -n":       {Err: errors.New("not found")},
	}}
	s := newTestService(runner)

	_, err := s.EnsureActive(context.Background())
	require.NoError(t, err)
	assert.False(t, runner.Ran("ufw allow from"))
	assert.True(t, runner.Ran("ufw --force enable"))
}

func TestAllowUFW(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		want string
	}{
		{
			name: "single port",
			rule: Rule{Ports: []string{"7777"}, Proto: "udp"},
			want: "ufw allow 7777/udp",
		},
		{
			name: "multiple ports",
			rule: Rule{Ports: []string{"7777", "27015"}, Proto: "udp"},
			want: "ufw allow proto udp to any port 7777,27015",
		},
		{
			name: "port with source",
			rule: Rule{Ports: []string{"7777"}, Proto: "udp", Source: "203.0.113.0/24"},
			want: "ufw allow from 203.0.113.0/24 to any port 7777 proto udp",
		},
		{
			name: "trusted source",
			rule: Rule{Source: "203.0.113.9"},
			want: "ufw allow from 203.0.113.9",
		},
		{
			name: "comment carried through",
			rule: Rule{Ports: []string{"7777"}, Proto: "udp", Comment: "game port"},
			want: "ufw allow 7777/udp comment game port",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &testutil.FakeRunner{}
			s := newTestService(runner)
			require.NoError(t, s.Allow(context.Background(), BackendUFW, tt.rule))
			require.Len(t, runner.Commands, 1)
			assert.Equal(t, tt.want, runner.Commands[0])
		})
	}
}

func TestAllowFirewalldPerPortSingleReload(t *testing.T) {
	runner := &testutil.FakeRunner{}
	s := newTestService(runner)

	rule := Rule{Ports: []string{"7777", "7000:7010"}, Proto: "udp"}
	require.NoError(t, s.Allow(context.Background(), BackendFirewalld, rule))

	assert.True(t, runner.Ran("firewall-cmd --permanent --zone=public --add-port=7777/udp"))
	assert.True(t, runner.Ran("firewall-cmd --permanent --zone=public --add-port=7000-7010/udp"))
	assert.Equal(t, 1, runner.Count("firewall-cmd --reload"))
}

func TestAllowFirewalldPortWithSource(t *testing.T) {
	runner := &testutil.FakeRunner{}
	s := newTestService(runner)

	rule := Rule{Ports: []string{"8080"}, Proto: "tcp", Source: "10.0.0.5", Zone: "public"}
	require.NoError(t, s.Allow(context.Background(), BackendFirewalld, rule))

	// the source joins the zone before the port opens in it
	var sourceIdx, portIdx int
	for i, cmd := range runner.Commands {
		switch cmd {
		case "firewall-cmd --permanent --zone=public --add-source=10.0.0.5":
			sourceIdx = i
		case "firewall-cmd --permanent --zone=public --add-port=8080/tcp":
			portIdx = i
		}
	}
	assert.True(t, runner.Ran("firewall-cmd --permanent --zone=public --add-source=10.0.0.5"))
	assert.Less(t, sourceIdx, portIdx)
	assert.Equal(t, 1, runner.Count("firewall-cmd --reload"))
}

func TestAllowFirewalldTrusted(t *testing.T) {
	runner := &testutil.FakeRunner{}
	s := newTestService(runner)

	require.NoError(t, s.Allow(context.Background(), BackendFirewalld, Rule{Source: "203.0.113.9"}))
	assert.True(t, runner.Ran("firewall-cmd --permanent --zone=trusted --add-source=203.0.113.9"))
	assert.Equal(t, 1, runner.Count("firewall-cmd --reload"))
}

func TestAllowIptablesMultiport(t *testing.T) {
	runner := &testutil.FakeRunner{Responses: map[string]testutil.FakeResult{
		"iptables-save": {Err: errors.New("not found")},
	}}
	ipt := &fakeIPT{}
	s := newTestService(runner)
	s.newIPT = func() (ruleAppender, error) { return ipt, nil }

	rule := Rule{Ports: []string{"7777", "27015"}, Proto: "udp", Comment: "game"}
	require.NoError(t, s.Allow(context.Background(), BackendIptables, rule))

	require.Len(t, ipt.appended, 1)
	assert.Equal(t, []string{
		"filter", "INPUT",
		"-p", "udp", "-m", "multiport", "--dports", "7777,27015",
		"-j", "ACCEPT", "-m", "comment", "--comment", "game",
	}, ipt.appended[0])
}

func TestAllowIptablesPersists(t *testing.T) {
	dir := t.TempDir()
	runner := &testutil.FakeRunner{Responses: map[string]testutil.FakeResult{
		"iptables-save": {Output: "*filter\n-A INPUT -p udp --dport 7777 -j ACCEPT\nCOMMIT"},
	}}
	s := newTestService(runner)
	s.rulesFile = filepath.Join(dir, "rules.v4")

	require.NoError(t, s.Allow(context.Background(), BackendIptables, Rule{Ports: []string{"7777"}}))
	assert.FileExists(t, s.rulesFile)
}

func TestAllowRejectsInvalidRule(t *testing.T) {
	s := newTestService(&testutil.FakeRunner{})
	for _, rule := range []Rule{
		{},
		{Source: "any"},
		{Ports: []string{"7777"}, Proto: "icmp"},
		{Ports: []string{"70:80:90"}},
		{Ports: []string{"80,443"}},
		{Ports: []string{"7777"}, Zone: "trusted"},
	} {
		err := s.Allow(context.Background(), BackendUFW, rule)
		assert.ErrorIs(t, err, ErrInvalidRule)
	}
}

func TestAllowNoBackend(t *testing.T) {
	s := newTestService(&testutil.FakeRunner{})
	err := s.Allow(context.Background(), BackendNone, Rule{Ports: []string{"7777"}})
	assert.ErrorIs(t, err, ErrNoFirewallAvailable)
}
