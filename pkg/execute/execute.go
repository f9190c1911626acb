// pkg/execute/execute.go

package execute

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/telemetry"
	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/vein_err"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Options describes a single external command invocation.
type Options struct {
	Command string
	Args    []string
	Dir     string
	Env     []string  // appended to os.Environ
	Stdin   io.Reader // preseed input, e.g. debconf selections
	Timeout time.Duration
	Capture bool // return combined output instead of streaming it
	Retries int
	Delay   time.Duration
	Logger  *zap.Logger
}

// Runner executes external commands. Production code uses the host
// implementation from NewRunner; tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, opts Options) (string, error)
	LookPath(name string) (string, error)
}

// NewRunner returns a Runner backed by the host's exec facilities.
func NewRunner() Runner { return &hostRunner{} }

type hostRunner struct{}

func (hostRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func (r hostRunner) Run(ctx context.Context, opts Options) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = otelzap.Ctx(ctx).ZapLogger()
	}
	rc, cancel := context.WithTimeout(ctx, defaultTimeout(opts.Timeout))
	defer cancel()

	rc, span := telemetry.Start(rc, "execute.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("command", opts.Command),
		attribute.String("args", strings.Join(opts.Args, " ")),
	)

	cmdStr := buildCommandString(opts.Command, opts.Args...)
	logger.Debug("Starting execution", zap.String("command", cmdStr))

	var output string
	var err error

	for i := 1; i <= max(1, opts.Retries); i++ {
		cmd := exec.CommandContext(rc, opts.Command, opts.Args...)
		if opts.Dir != "" {
			cmd.Dir = opts.Dir
		}
		if len(opts.Env) > 0 {
			cmd.Env = append(os.Environ(), opts.Env...)
		}
		if opts.Stdin != nil {
			cmd.Stdin = opts.Stdin
		}

		var buf bytes.Buffer
		if opts.Capture {
			cmd.Stdout = &buf
			cmd.Stderr = &buf
		} else {
			cmd.Stdout = io.MultiWriter(os.Stdout, &buf)
			cmd.Stderr = io.MultiWriter(os.Stderr, &buf)
		}

		err = cmd.Run()
		output = buf.String()

		if err == nil {
			logger.Debug("Execution succeeded", zap.String("command", cmdStr))
			break
		}

		summary := vein_err.ExtractSummary(output, 2)
		span.RecordError(err)
		logger.Error("Execution failed",
			zap.Int("attempt", i),
			zap.String("command", cmdStr),
			zap.String("summary", summary),
			zap.Error(err),
		)

		if i < opts.Retries {
			select {
			case <-rc.Done():
				return output, rc.Err()
			case <-time.After(opts.Delay):
			}
		}
	}

	if err != nil {
		if rc.Err() == context.DeadlineExceeded {
			return output, cerr.Wrapf(err, "command %q timed out", opts.Command)
		}
		return output, cerr.Wrapf(err, "command %q failed", opts.Command)
	}
	return strings.TrimSpace(output), nil
}

// RunSimple executes a command, streaming its output, and returns only
// the error.
func RunSimple(ctx context.Context, r Runner, cmd string, args ...string) error {
	_, err := r.Run(ctx, Options{Command: cmd, Args: args})
	return err
}
