// Package logging configures the logrus logger the interpreter and driver
// share, the way the teacher's terminal.NewTerminalInterface configured
// its single *logrus.Logger and passed it down by constructor injection.
package logging

import "github.com/sirupsen/logrus"

// New builds the interpreter's default logger: text formatter with full
// timestamps, level driven by debug.
func New(debug bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if debug {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger
}
