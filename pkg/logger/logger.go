package logger

import (
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	InfoLogger  *logrus.Logger
	ErrorLogger *logrus.Logger
)

// InitLoggers sets up the application loggers. Info goes to stdout and a
// rotated file, errors go to stderr and their own rotated file.
func InitLoggers() {
	InfoLogger = newLogger(os.Stdout, "logs/info.log", logrus.InfoLevel)
	ErrorLogger = newLogger(os.Stderr, "logs/error.log", logrus.ErrorLevel)
}

func newLogger(console *os.File, file string, level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	l.SetOutput(console)
	l.AddHook(&fileHook{
		writer: &lumberjack.Logger{
			Filename:   file,
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		},
		formatter: &logrus.JSONFormatter{},
	})
	return l
}

type fileHook struct {
	writer    *lumberjack.Logger
	formatter logrus.Formatter
}

func (h *fileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *fileHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.writer.Write(line)
	return err
}
