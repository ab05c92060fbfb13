// Package logging provides pre-configured component loggers.
package logging

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu      sync.Mutex
	root    *logrus.Logger
	entries = make(map[string]*logrus.Entry)
)

func rootLogger() *logrus.Logger {
	if root != nil {
		return root
	}
	root = logrus.New()
	root.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level := logrus.InfoLevel
	if s := os.Getenv("ATTOGO_LOG_LEVEL"); s != "" {
		if lv, err := logrus.ParseLevel(s); err == nil {
			level = lv
		}
	}
	root.SetLevel(level)
	return root
}

// New returns a logger tagged with the component name. Loggers are shared
// per component.
func New(component string) *logrus.Entry {
	mu.Lock()
	defer mu.Unlock()

	if e, ok := entries[component]; ok {
		return e
	}
	e := rootLogger().WithField("component", component)
	entries[component] = e
	return e
}

// SetLevel adjusts the level of all component loggers. The ATTOGO_LOG_LEVEL
// environment variable wins over this, so a deployed config cannot silence
// ad-hoc debugging.
func SetLevel(level string) {
	mu.Lock()
	defer mu.Unlock()

	if os.Getenv("ATTOGO_LOG_LEVEL") != "" {
		return
	}
	if lv, err := logrus.ParseLevel(level); err == nil {
		rootLogger().SetLevel(lv)
	}
}
