// Package logging configures the process-wide logger.
package logging

import (
	"fmt"
	"io"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Init parses and applies the log level, and optionally routes output to a
// rotated log file. An empty path keeps logging on stderr.
func Init(level string, path string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("failed parsing log level %s: %w", level, err)
	}

	if path != "" {
		rotated := &lumberjack.Logger{
			// Log file absolute path, os agnostic
			Filename:   filepath.ToSlash(path),
			MaxSize:    5, // MB
			MaxBackups: 10,
			MaxAge:     30, // days
			Compress:   true,
		}
		log.SetOutput(io.Writer(rotated))
	}

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(lvl)
	return nil
}
