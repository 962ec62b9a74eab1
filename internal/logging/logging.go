package logging

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex
)

// NewLogger returns a pre-configured logger for a specific component.
// Loggers are cached per component so repeated calls share configuration.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if entry, ok := loggers[component]; ok {
		return entry
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	level := logrus.InfoLevel
	if s := os.Getenv("WORKLOG_LOG_LEVEL"); s != "" {
		if parsed, err := logrus.ParseLevel(s); err == nil {
			level = parsed
		}
	}
	logger.SetLevel(level)

	entry := logger.WithField("component", component)
	loggers[component] = entry
	return entry
}
