package middleware

import (
	"net/http"

	"socialchat/internal/logger"

	"github.com/felixge/httpsnoop"
	"go.uber.org/zap"
)

// RequestLogger 记录每个请求的方法、路径、状态码、耗时和响应字节数。
// Authorization 头部只记录是否存在。
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)

		authorization := "none"
		if r.Header.Get("Authorization") != "" {
			authorization = "Bearer [token]"
		}
		logger.Info("HTTP 请求",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", m.Code),
			zap.Duration("duration", m.Duration),
			zap.Int64("bytes", m.Written),
			zap.String("authorization", authorization),
			zap.String("remote", r.RemoteAddr),
		)
	})
}
