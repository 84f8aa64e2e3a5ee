package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Level is a leveled print logger. Call sites keep the Println/Printf shape
// while records go through logrus with a fixed level and scope.
type Level struct {
	entry *logrus.Entry
	level logrus.Level
}

func (l *Level) Println(args ...any) {
	l.entry.Logln(l.level, args...)
}

func (l *Level) Printf(format string, args ...any) {
	l.entry.Logf(l.level, strings.TrimSuffix(format, "\n"), args...)
}

// WithField returns a copy of the logger carrying an extra structured field.
func (l *Level) WithField(key string, value any) *Level {
	return &Level{entry: l.entry.WithField(key, value), level: l.level}
}

var (
	base = logrus.New()

	Info    = newLevel("app", logrus.InfoLevel)
	Warning = newLevel("app", logrus.WarnLevel)
	Error   = newLevel("app", logrus.ErrorLevel)
	HTTP    = newLevel("http", logrus.InfoLevel)
)

func newLevel(scope string, level logrus.Level) *Level {
	return &Level{entry: base.WithField("scope", scope), level: level}
}

// Setup configures the shared logger. LOG_LEVEL and LOG_FORMAT (text|json)
// are read from the environment.
func Setup() {
	SetupWithWriter(os.Stdout)
}

func SetupWithWriter(w io.Writer) {
	base.SetOutput(w)

	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		base.SetFormatter(&logrus.JSONFormatter{})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)
}
