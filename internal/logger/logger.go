// Package logger configures the process-wide logrus logger.
package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls level and optional rotated file output.
type Config struct {
	Level      string `yaml:"level" default:"info" validate:"oneof=trace debug info warn warning error"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size" default:"20"` // MB
	MaxBackups int    `yaml:"max_backups" default:"5"`
	MaxAge     int    `yaml:"max_age" default:"30"` // days
	Compress   bool   `yaml:"compress"`
}

// Init sets up the standard logrus logger: text output to stdout and, when
// File is set, to a lumberjack-rotated file as well.
func Init(cfg Config) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}

	writers := []io.Writer{os.Stdout}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return err
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
	}

	logrus.SetOutput(io.MultiWriter(writers...))
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return nil
}

// Component returns an entry tagged with the component name.
func Component(name string) *logrus.Entry {
	return logrus.WithField("component", name)
}
