package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	base   = newBase()
	baseMu sync.Mutex
)

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
	if os.Getenv("DEBUG") == "true" {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// Configure 设置全局日志级别和输出文件（file 为空时输出到标准输出）
func Configure(level, file string) error {
	baseMu.Lock()
	defer baseMu.Unlock()

	if level != "" {
		lvl, err := logrus.ParseLevel(strings.ToLower(level))
		if err != nil {
			return fmt.Errorf("无效的日志级别 %q: %w", level, err)
		}
		base.SetLevel(lvl)
	}

	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("打开日志文件失败: %w", err)
		}
		base.SetOutput(io.MultiWriter(os.Stdout, f))
	}
	return nil
}

// SetOutput 替换全局输出，测试中用于静默日志
func SetOutput(w io.Writer) {
	baseMu.Lock()
	defer baseMu.Unlock()
	base.SetOutput(w)
}

type Logger struct {
	name  string
	entry *logrus.Entry
}

func NewLogger(name string) *Logger {
	return &Logger{
		name:  name,
		entry: base.WithField("module", name),
	}
}

// With 返回附带额外字段的子日志器
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{name: l.name, entry: l.entry.WithField(key, value)}
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}
