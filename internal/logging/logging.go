// Package logging provides the single process-wide structured logger
// (spec.md §4.11, ambient logging) via go.uber.org/zap — the only logging
// library attested in the retrieved corpus (10gen-mongo-go-driver's
// examples/logger/zap integration). The REPL logs failed commands through
// here; connection retries, cancellation/kill attempts, and CSV
// column-widening do not log through this package.
package logging

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	logger *zap.SugaredLogger
)

func init() {
	Configure(Options{Level: "info", Timestamps: true})
}

// Options configures the process-wide logger, mirroring cliconfig.Logging.
type Options struct {
	Level      string // error|warn|info|debug|trace
	FilePath   string // empty means stderr
	Timestamps bool
}

// Configure (re)builds the process-wide logger. trace maps to zap's
// DebugLevel with an extra trace=true field, since zap has no trace level.
func Configure(opts Options) error {
	level, isTrace := levelFor(opts.Level)

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if !opts.Timestamps {
		encoderConfig.TimeKey = zapcore.OmitKey
	}

	sink, err := sinkFor(opts.FilePath)
	if err != nil {
		return err
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), sink, level)
	l := zap.New(core, zap.AddCaller())
	if isTrace {
		l = l.With(zap.Bool("trace", true))
	}

	mu.Lock()
	logger = l.Sugar()
	mu.Unlock()
	return nil
}

func levelFor(name string) (zapcore.Level, bool) {
	switch strings.ToLower(name) {
	case "error":
		return zapcore.ErrorLevel, false
	case "warn":
		return zapcore.WarnLevel, false
	case "trace":
		return zapcore.DebugLevel, true
	case "debug":
		return zapcore.DebugLevel, false
	default:
		return zapcore.InfoLevel, false
	}
}

func sinkFor(path string) (zapcore.WriteSyncer, error) {
	if path == "" {
		return zapcore.Lock(zapcore.AddSync(zapStderr)), nil
	}
	f, err := openLogFile(path)
	if err != nil {
		return nil, err
	}
	return zapcore.Lock(zapcore.AddSync(f)), nil
}

// L returns the process-wide sugared logger.
func L() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Debug(msg string, args ...any) { L().Debugw(msg, args...) }
func Info(msg string, args ...any)  { L().Infow(msg, args...) }
func Warn(msg string, args ...any)  { L().Warnw(msg, args...) }
func Error(msg string, args ...any) { L().Errorw(msg, args...) }
