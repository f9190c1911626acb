// pkg/interaction/prompt_test.go

package interaction

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPrompter(input string) (*ConsolePrompter, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &ConsolePrompter{
		In:               strings.NewReader(input),
		Out:              out,
		ForceInteractive: true,
	}, out
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		def   bool
		want  bool
	}{
		{"yes", "y\n", false, true},
		{"full yes", "yes\n", false, true},
		{"no", "n\n", true, false},
		{"empty takes default true", "\n", true, true},
		{"empty takes default false", "\n", false, false},
		{"garbage then yes", "maybe\ny\n", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newPrompter(tt.input)
			got, err := p.Confirm("Continue?", tt.def)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfirmRendersDefaultHint(t *testing.T) {
	p, out := newPrompter("\n")
	_, err := p.Confirm("Install firewall?", true)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "[Y/n]")

	p, out = newPrompter("\n")
	_, err = p.Confirm("Install firewall?", false)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "[y/N]")
}

func TestInput(t *testing.T) {
	p, _ := newPrompter("experimental\n")
	got, err := p.Input("Branch", "public")
	require.NoError(t, err)
	assert.Equal(t, "experimental", got)

	p, _ = newPrompter("\n")
	got, err = p.Input("Branch", "public")
	require.NoError(t, err)
	assert.Equal(t, "public", got)
}

func TestNonInteractiveReturnsDefaults(t *testing.T) {
	p := &ConsolePrompter{In: strings.NewReader("y\n"), Out: &bytes.Buffer{}}
	// without a TTY and without ForceInteractive the reader is ignored
	got, err := p.Confirm("Continue?", false)
	require.NoError(t, err)
	assert.False(t, got)
}
