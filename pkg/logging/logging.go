package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// ConsoleLogger builds the process-wide logger writing to stderr.
func ConsoleLogger(level logrus.Level) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return logger
}

// JSONLogger is ConsoleLogger with machine-readable output, used in
// production deployments behind a log collector.
func JSONLogger(level logrus.Level) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.JSONFormatter{})
	return logger
}
