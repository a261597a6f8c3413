// Package gplog is the process-wide structured logging façade used
// throughout ddelivery-go. It is a thin wrapper around logrus, grounded on
// the "github.com/gopistolet/gopistolet/log" package's WithFields/Debug/
// Errorf/Fatalf surface (see other_examples/9244f406_gopistolet-smtp__mta-mta.go.go).
package gplog

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Fields is an alias for logrus.Fields so callers don't need to import
// logrus directly.
type Fields = logrus.Fields

var std = logrus.New()

func init() {
	std.SetOutput(os.Stderr)
	std.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// Init (re)configures the process-wide logger. Returning an error lets
// callers treat a bad log level as a fatal startup error, per SPEC_FULL.md
// §6's exit conditions.
func Init(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	std.SetLevel(lvl)
	return nil
}

// WithFields starts a structured log entry.
func WithFields(fields Fields) *logrus.Entry { return std.WithFields(fields) }

// WithField starts a structured log entry with a single field.
func WithField(key string, value interface{}) *logrus.Entry { return std.WithField(key, value) }

func Debugf(format string, args ...interface{}) { std.Debugf(format, args...) }
func Printf(format string, args ...interface{}) { std.Printf(format, args...) }
func Infof(format string, args ...interface{})  { std.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { std.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { std.Errorf(format, args...) }

// Fatalf logs at fatal level and terminates the process, mirroring
// logrus's (and gopistolet/log's) Fatalf semantics; used only for the
// startup failures SPEC_FULL.md §6 calls fatal.
func Fatalf(format string, args ...interface{}) { std.Fatalf(format, args...) }
