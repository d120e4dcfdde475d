package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Options 日志配置
type Options struct {
	Level  string    // debug/info/warn/error
	Format string    // text/json
	Writer io.Writer // 默认 os.Stdout
}

// ParseLevel 解析日志级别
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// New 创建 logger，text 格式使用 tint 彩色输出，json 格式用于日志采集
func New(opts Options) (*slog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}

	var h slog.Handler
	switch strings.ToLower(opts.Format) {
	case "", "text":
		h = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.DateTime,
			NoColor:    w != os.Stdout,
		})
	case "json":
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	return slog.New(h), nil
}

// Setup 创建 logger 并设置为默认 logger
func Setup(opts Options) (*slog.Logger, error) {
	l, err := New(opts)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(l)
	return l, nil
}

// LogPanic logs a recovered panic with stack trace
func LogPanic(r any) {
	slog.Error("panic recovered", "panic", r, "stack", string(debug.Stack()))
}
