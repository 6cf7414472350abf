// Package logging centralizes logrus setup so every component logs
// through the same configured instance (storage/disk, storage/buffer,
// and txn already pull component-scoped entries off logrus's default
// logger). Grounded on the sirupsen/logrus field-per-component idiom
// already used throughout the storage and transaction packages.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Configure sets the process-wide logrus level and a text formatter
// suited to a terminal REPL session. An unrecognized level falls back
// to Info rather than failing startup.
func Configure(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// For returns a component-scoped entry, the same convention the
// storage/txn packages use directly against logrus.
func For(component string) *logrus.Entry {
	return logrus.WithField("component", component)
}
