/*
Example --
To log to the base logger
logging.Base().Info("vault unlocked")

To log from a component
log := logging.Component("pairing")
log.WithField("session", id).Debug("status check skipped")
*/

package logging

import (
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// Fields maps logrus fields
type Fields = logrus.Fields

var (
	baseLogger *logrus.Logger
	once       sync.Once
)

func base() *logrus.Logger {
	once.Do(func() {
		// By default, log to stderr (logrus's default), only warnings and above.
		baseLogger = logrus.New()
		baseLogger.SetLevel(logrus.WarnLevel)
	})
	return baseLogger
}

// Init configures the base logger level and format.
func Init(level string, json bool) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	l := base()
	l.SetLevel(lvl)
	if json {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// SetOutput redirects the base logger.
func SetOutput(w io.Writer) {
	base().SetOutput(w)
}

// Base returns the process-wide logger.
func Base() *logrus.Logger {
	return base()
}

// Component returns an entry tagged with the component name.
func Component(name string) *logrus.Entry {
	return base().WithField("component", name)
}
