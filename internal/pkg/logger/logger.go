// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

var base zerolog.Logger

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	base = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// Init 设置服务级别的公共字段，由 bootstrap 在启动时调用一次。
func Init(serviceName string) {
	base = base.With().Str("service", serviceName).Logger()
}

// Logger 返回全局基础 logger。
func Logger() *zerolog.Logger {
	return &base
}

// Ctx 返回一个带追踪上下文的 logger。
// 如果 ctx 中存在有效的 Span，自动附加 trace_id/span_id 字段，
// 方便在日志系统里与 Jaeger 中的调用链互相关联。
func Ctx(ctx context.Context) *zerolog.Logger {
	span := trace.SpanContextFromContext(ctx)
	if !span.IsValid() {
		return &base
	}
	l := base.With().
		Str("trace_id", span.TraceID().String()).
		Str("span_id", span.SpanID().String()).
		Logger()
	return &l
}
