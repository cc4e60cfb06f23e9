// Package logger - Structured logging for the pose services.
package logger

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config configures the logger.
type Config struct {
	// Level is a logrus level name.
	Level string `json:"level" yaml:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
	// File enables a rotating file sink in addition to stderr when not empty.
	File string `json:"file" yaml:"file"`
	// MaxSizeMB is the size at which the file is rotated.
	MaxSizeMB int `json:"max_size_mb" yaml:"max_size_mb" validate:"gte=0"`
	// MaxBackups is the number of rotated files kept.
	MaxBackups int `json:"max_backups" yaml:"max_backups" validate:"gte=0"`
	// MaxAgeDays is the number of days rotated files are kept.
	MaxAgeDays int `json:"max_age_days" yaml:"max_age_days" validate:"gte=0"`
	// NoColors disables terminal colours.
	NoColors bool `json:"no_colors" yaml:"no_colors"`
}

// DefaultConfig logs at info level to stderr only.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		MaxSizeMB:  100,
		MaxBackups: 3,
		MaxAgeDays: 7,
	}
}

// New creates a logger.
//
// Arguments:
//   - cfg: Level, colours and the optional rotating file sink.
//
// Returns:
//   - *logrus.Logger: The configured logger.
//   - error: An error if the level is unknown.
func New(cfg Config) (*logrus.Logger, error) {
	return NewWithOutput(cfg, os.Stderr)
}

// NewWithOutput creates a logger writing to out, plus the file sink when configured.
func NewWithOutput(cfg Config, out io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", cfg.Level)
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&formatter.Formatter{
		NoColors:        cfg.NoColors,
		TimestampFormat: "2006-01-02 15:04:05.000",
		HideKeys:        false,
		CallerFirst:     true,
		CustomCallerFormatter: func(f *runtime.Frame) string {
			s := strings.Split(f.Function, ".")
			funcName := s[len(s)-1]
			return fmt.Sprintf(" [%s:%d][%s()]", path.Base(f.File), f.Line, funcName)
		},
	})

	writers := []io.Writer{out}
	if cfg.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.File,
			LocalTime:  true,
			Compress:   true,
			MaxSize:    cfg.MaxSizeMB,
			MaxAge:     cfg.MaxAgeDays,
			MaxBackups: cfg.MaxBackups,
		})
	}

	logger.SetOutput(io.MultiWriter(writers...))
	logger.SetReportCaller(level >= logrus.DebugLevel)

	return logger, nil
}
