// Package logging wires up structured application logging and the fiber
// access log, both writing through a rotating file on top of stdout.
package logging

import (
	"io"
	"os"
	"path/filepath"

	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds the zerolog.Logger used by every service and job component,
// and the fiber access-log middleware config, sharing one rotating writer.
func New(logDir string, debug bool) (zerolog.Logger, *fiberLogger.Config, error) {
	if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
		return zerolog.Logger{}, nil, err
	}

	logFile := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "vidsum.log"),
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}

	multiWriter := io.MultiWriter(os.Stdout, logFile)

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(multiWriter).Level(level).With().Timestamp().Logger()

	accessLogConfig := &fiberLogger.Config{
		Output:     multiWriter,
		Format:     "${time} | ${status} | ${latency} | ${method} | ${path} | reqid=${locals:requestid} | ${error}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}

	return logger, accessLogConfig, nil
}
