package logger

import (
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CorrelationIDHeader is echoed on every response so clients can report
// request ids back to us.
const CorrelationIDHeader = "X-Correlation-ID"

const correlationContextKey = "hovverCorrelationID"

var global *zap.Logger = zap.NewNop()

// Init builds the process logger, honoring LOG_LEVEL (debug/info/warn/error).
func Init() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	global = l
	return l, nil
}

// L returns the process logger (a no-op logger before Init).
func L() *zap.Logger {
	return global
}

// Middleware assigns a correlation id to each request, echoes it in the
// response header and logs the request on completion.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(CorrelationIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(correlationContextKey, id)
		c.Header(CorrelationIDHeader, id)

		start := time.Now()
		c.Next()

		global.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("correlation_id", id),
		)
	}
}

// CorrelationID extracts the request's correlation id from the gin context.
func CorrelationID(c *gin.Context) string {
	id, _ := c.Get(correlationContextKey)
	s, _ := id.(string)
	return s
}
