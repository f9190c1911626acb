// pkg/systemd/service.go

// Package systemd renders unit files and drives systemctl.
package systemd

import (
	"fmt"
	"strings"
)

// ServiceSpec describes a long-running service unit.
type ServiceSpec struct {
	Name             string // unit name without the .service suffix
	Description      string
	WorkingDirectory string
	User             string
	Group            string
	ExecStartPre     string
	ExecStart        string
	RestartSec       int
	TimeoutStartSec  int
}

// UnitName returns the full unit file name.
func (s ServiceSpec) UnitName() string {
	if strings.HasSuffix(s.Name, ".service") {
		return s.Name
	}
	return s.Name + ".service"
}

// Render produces the unit file text.
func (s ServiceSpec) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[Unit]\nDescription=%s\n", s.Description)
	b.WriteString("Wants=network-online.target\nAfter=network-online.target\n\n")

	b.WriteString("[Service]\nType=simple\n")
	if s.User != "" {
		fmt.Fprintf(&b, "User=%s\n", s.User)
	}
	if s.Group != "" {
		fmt.Fprintf(&b, "Group=%s\n", s.Group)
	}
	if s.WorkingDirectory != "" {
		fmt.Fprintf(&b, "WorkingDirectory=%s\n", s.WorkingDirectory)
	}
	if s.ExecStartPre != "" {
		fmt.Fprintf(&b, "ExecStartPre=%s\n", s.ExecStartPre)
	}
	fmt.Fprintf(&b, "ExecStart=%s\n", s.ExecStart)
	b.WriteString("Restart=on-failure\n")
	fmt.Fprintf(&b, "RestartSec=%d\n", defaultInt(s.RestartSec, 10))
	fmt.Fprintf(&b, "TimeoutStartSec=%d\n", defaultInt(s.TimeoutStartSec, 600))

	b.WriteString("\n[Install]\nWantedBy=multi-user.target\n")
	return b.String()
}

func defaultInt(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
