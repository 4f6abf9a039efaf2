// Package logx holds the logger shared by the tilecanvas packages.
//
// Nothing is logged until SetLogger is called. The command line tool hands
// its configured logrus logger over at start up.
package logx

import (
	"io"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

var current atomic.Pointer[logrus.Logger]

func init() {
	current.Store(newDiscard())
}

func newDiscard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}

// SetLogger replaces the package logger. A nil logger restores the silent default.
func SetLogger(l *logrus.Logger) {
	if l == nil {
		l = newDiscard()
	}
	current.Store(l)
}

// L returns the current logger.
func L() *logrus.Logger {
	return current.Load()
}

// WithComponent returns an entry tagged with the component name.
func WithComponent(name string) *logrus.Entry {
	return L().WithField("component", name)
}
