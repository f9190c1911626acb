// pkg/logger/logger.go

package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.Logger

// L returns the process-wide logger. Init or InitFallback must run first.
func L() *zap.Logger {
	return log
}

// Init sets up the global logger: human-readable console output teed with a
// JSON log file when a writable path exists, console only otherwise.
func Init() {
	path, err := findWritableLogPath()
	if err != nil {
		log = newConsoleLogger()
		zap.ReplaceGlobals(log)
		return
	}

	jsonCfg := zap.NewProductionEncoderConfig()
	jsonCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	jsonCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		log = newConsoleLogger()
		zap.ReplaceGlobals(log)
		return
	}

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig()), zapcore.Lock(os.Stderr), parseLogLevel(os.Getenv("LOG_LEVEL"))),
		zapcore.NewCore(zapcore.NewJSONEncoder(jsonCfg), zapcore.AddSync(file), zap.InfoLevel),
	)

	log = zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	zap.ReplaceGlobals(log)
}

// InitFallback guarantees a usable global logger even when Init was skipped.
func InitFallback() {
	if log != nil {
		return
	}
	log = newConsoleLogger()
	zap.ReplaceGlobals(log)
}

// Sync flushes buffered log entries. Safe to call on a nil logger.
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}

func newConsoleLogger() *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(consoleEncoderConfig()),
		zapcore.Lock(os.Stderr),
		parseLogLevel(os.Getenv("LOG_LEVEL")),
	)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg
}

func parseLogLevel(raw string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.Set(raw); err != nil {
		return zap.InfoLevel
	}
	return lvl
}

// findWritableLogPath prefers the system log directory and falls back to the
// invoking user's home. Errors if neither is writable.
func findWritableLogPath() (string, error) {
	candidates := []string{
		"/var/log/vein-server",
		filepath.Join(os.Getenv("HOME"), ".veinserver"),
	}
	for _, dir := range candidates {
		if err := os.MkdirAll(dir, 0700); err != nil {
			continue
		}
		path := filepath.Join(dir, "veinserver.log")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			continue
		}
		_ = f.Close()
		return path, nil
	}
	return "", os.ErrPermission
}
