// Package log writes the harness and browser runtime messages. Every
// line carries a category ("harness", "browser", "navigation",
// "console") that log_category_filter can select on.
package log

import (
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

type Logger struct {
	base     *logrus.Logger
	filter   *regexp.Regexp
	category *color.Color
}

// NewNullLogger drops everything.
func NewNullLogger() *Logger {
	base := logrus.New()
	base.SetOutput(io.Discard)
	return &Logger{base: base, category: plain()}
}

// New logs to out at level, keeping only categories matching filter.
// An empty level means info, an empty filter keeps every category.
// Categories are coloured when out is a terminal.
func New(out io.Writer, level, filter string) (*Logger, error) {
	base := logrus.New()
	base.SetOutput(out)
	tty := isTerminal(out)
	base.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
		ForceColors:     tty,
		DisableColors:   !tty,
	})
	if level != "" {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		base.SetLevel(lvl)
	}

	l := &Logger{base: base, category: plain()}
	if filter != "" {
		re, err := regexp.Compile(filter)
		if err != nil {
			return nil, fmt.Errorf("invalid log category filter %q: %w", filter, err)
		}
		l.filter = re
	}
	if tty {
		l.category = color.New(color.FgCyan, color.Bold)
		l.category.EnableColor()
	}
	return l, nil
}

func plain() *color.Color {
	c := color.New()
	c.DisableColor()
	return c
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (l *Logger) Debugf(category, msg string, args ...interface{}) {
	l.logf(logrus.DebugLevel, category, msg, args...)
}

func (l *Logger) Infof(category, msg string, args ...interface{}) {
	l.logf(logrus.InfoLevel, category, msg, args...)
}

func (l *Logger) Warnf(category, msg string, args ...interface{}) {
	l.logf(logrus.WarnLevel, category, msg, args...)
}

func (l *Logger) Errorf(category, msg string, args ...interface{}) {
	l.logf(logrus.ErrorLevel, category, msg, args...)
}

// Console forwards a page console message. Console errors are logged as
// warnings so they show in a run at the default level.
func (l *Logger) Console(project, msgType, text string) {
	level := logrus.DebugLevel
	if msgType == "error" {
		level = logrus.WarnLevel
	}
	l.logf(level, "console", "[%s] %s: %s", project, msgType, text)
}

func (l *Logger) logf(level logrus.Level, category, msg string, args ...interface{}) {
	if l == nil || !l.base.IsLevelEnabled(level) {
		return
	}
	if l.filter != nil && !l.filter.MatchString(category) {
		return
	}
	l.base.WithField("category", l.category.Sprint(category)).Logf(level, msg, args...)
}
