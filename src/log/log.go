// Package log is the process-wide logging facade. It discards everything
// until the CLI installs a real logger with Set.
package log

import (
	"github.com/anchore/go-logger"
	"github.com/anchore/go-logger/adapter/discard"
)

var log logger.Logger = discard.New()

// Set replaces the active logger. Call once during startup.
func Set(l logger.Logger) {
	if l == nil {
		l = discard.New()
	}
	log = l
}

func Warnf(format string, args ...interface{})  { log.Warnf(format, args...) }
func Debugf(format string, args ...interface{}) { log.Debugf(format, args...) }

func Debug(args ...interface{}) { log.Debug(args...) }
