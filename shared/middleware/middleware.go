package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cloud-platform/cors-static/shared/config"
)

// RequestIDHeader 请求ID响应头
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// CORS 跨域中间件
// 为每个响应附加固定的跨域头，OPTIONS预检请求直接返回200和空响应体
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	headers := [][2]string{
		{"Access-Control-Allow-Origin", cfg.AllowOrigin},
		{"Access-Control-Allow-Methods", cfg.AllowMethods},
		{"Access-Control-Allow-Headers", cfg.AllowHeaders},
		{"X-Frame-Options", cfg.XFrameOptions},
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		for _, kv := range headers {
			if kv[1] != "" {
				h.Set(kv[0], kv[1])
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}

// RequestID 请求ID中间件
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(requestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}

// GetRequestID 获取当前请求的ID
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// AccessLog 访问日志中间件，按状态码选择日志级别
func AccessLog(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
			zap.String("request_id", GetRequestID(c)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.String()))
		}

		level := zapcore.InfoLevel
		switch {
		case status >= http.StatusInternalServerError:
			level = zapcore.ErrorLevel
		case status >= http.StatusBadRequest:
			level = zapcore.WarnLevel
		}

		if ce := log.Check(level, "HTTP请求"); ce != nil {
			ce.Write(fields...)
		}
	}
}

// Recovery 恢复中间件，panic转换为500响应
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered interface{}) {
		log.Error("服务器内部错误",
			zap.String("request_id", GetRequestID(c)),
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Stack("stack"),
		)

		c.String(http.StatusInternalServerError, "500 internal server error")
		c.Abort()
	})
}
