// Package log 提供基于 zerolog 的日志工具，支持 stderr 控制台输出和文件输出（lumberjack 轮转）.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/photovault/pkg/configs"
)

var (
	mu     sync.RWMutex
	logger *zerolog.Logger
)

// Init 根据配置构建全局 logger，可重复调用（例如命令行覆盖了配置之后）.
func Init(cfg configs.LogConfig, debug bool) {
	SetLevel(cfg.Level)

	var writers []io.Writer

	if cfg.Format == "json" {
		writers = append(writers, os.Stderr)
	} else {
		writers = append(writers, zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.Out = os.Stderr
			w.TimeFormat = time.Kitchen
		}))
	}

	if cfg.EnableFile {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
	}

	zctx := zerolog.New(io.MultiWriter(writers...)).With()
	if debug {
		zctx = zctx.Caller().Stack()

		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	l := zctx.Timestamp().Logger()

	mu.Lock()
	logger = &l
	mu.Unlock()

	log.Logger = l
}

// SetLevel 设置全局日志级别，非法级别回退为 info. 配置热重载时调用.
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		fmt.Fprintf(os.Stderr, "invalid log level %q, defaulting to info\n", level)

		lvl = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(lvl)
}

// Logger 返回全局 logger，未初始化时使用默认配置.
func Logger() *zerolog.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()

	if l != nil {
		return l
	}

	Init(configs.LogConfig{Level: configs.DefaultLogLevel, Format: configs.DefaultLogFormat}, false)

	mu.RLock()
	defer mu.RUnlock()

	return logger
}

// Ctx 返回附带当前 span 的 trace_id/span_id 的 logger.
func Ctx(ctx context.Context) zerolog.Logger {
	l := *Logger()

	span := trace.SpanFromContext(ctx)
	if sc := span.SpanContext(); sc.IsValid() {
		return l.With().
			Str("trace_id", sc.TraceID().String()).
			Str("span_id", sc.SpanID().String()).
			Logger()
	}

	return l
}

// GinWriter 把 Gin 文本行转发为 zerolog 事件.
type GinWriter struct {
	logger *zerolog.Logger
	level  zerolog.Level
}

// NewGinWriter 创建 GinWriter，用于 gin.DefaultWriter / gin.DefaultErrorWriter.
func NewGinWriter(logger *zerolog.Logger, level zerolog.Level) *GinWriter {
	return &GinWriter{logger: logger, level: level}
}

func (w *GinWriter) Write(p []byte) (n int, err error) {
	msg := strings.TrimSpace(string(p))
	if msg == "" {
		return len(p), nil
	}

	w.logger.WithLevel(w.level).Str("component", "gin").Msg(msg)

	return len(p), nil
}
