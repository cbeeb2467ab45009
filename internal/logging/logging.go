// Package logging configures the process-wide structured logger.
//
// Configure is called once at startup and fixes the log level and output
// format for the lifetime of the process.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Configure builds the process logger. debug selects logrus.DebugLevel;
// otherwise the logger runs at logrus.InfoLevel. The returned logger
// writes to stderr with a timestamped text formatter.
func Configure(debug bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	if debug {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
	log.Debug("logging system initialized")
	return log
}
