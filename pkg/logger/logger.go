// Package logger owns the kaayjang-web process logger.
//
// main builds it from LOG_LEVEL and LOG_FORMAT before the server starts and
// stamps every entry with the service name and build version. Packages that
// receive a *zap.Logger through their constructors should keep doing so;
// Named is for code that runs before that wiring exists.
package logger

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Output encodings accepted by LOG_FORMAT.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

var (
	Log      *zap.Logger
	onceInit sync.Once
)

// Options selects how the process logger writes.
type Options struct {
	Level  zapcore.Level
	Format string
}

// Init builds the process logger once. Later calls are no-ops.
func Init(opts Options, meta ...zap.Field) error {
	onceInit.Do(func() {
		instance, err := configure(opts).Build(zap.AddCaller())
		if err != nil {
			return
		}
		Log = instance.With(meta...)
	})

	if Log == nil {
		return errors.New("logger not initialized")
	}

	return nil
}

// Named returns a child of the process logger, or a no-op logger when Init
// has not run yet (tests, early config errors).
func Named(component string) *zap.Logger {
	if Log == nil {
		return zap.NewNop()
	}
	return Log.Named(component)
}

// ParseLevel maps LOG_LEVEL values onto zap levels, defaulting to info.
func ParseLevel(s string) zapcore.Level {
	level, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// ParseFormat maps LOG_FORMAT values onto an encoding, defaulting to console.
func ParseFormat(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), FormatJSON) {
		return FormatJSON
	}
	return FormatConsole
}

func configure(opts Options) zap.Config {
	encoder := zap.NewProductionEncoderConfig()
	encoder.TimeKey = "timestamp"
	encoder.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder.EncodeCaller = zapcore.ShortCallerEncoder
	encoder.EncodeDuration = zapcore.SecondsDurationEncoder
	encoder.EncodeName = zapcore.FullNameEncoder

	format := ParseFormat(opts.Format)
	if format == FormatConsole {
		// colour codes would end up inside JSON strings
		encoder.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	return zap.Config{
		Level:            zap.NewAtomicLevelAt(opts.Level),
		Encoding:         format,
		EncoderConfig:    encoder,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
}
