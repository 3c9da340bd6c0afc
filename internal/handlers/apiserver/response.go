package apiserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"socialchat/internal/apperr"
	"socialchat/internal/logger"
	"socialchat/internal/middleware"

	"go.uber.org/zap"
)

var (
	errInvalidBody = apperr.Validation("InvalidBody", "Invalid request body", "Request body must be valid JSON")
	errNoIdentity  = apperr.Auth("MissingCredential", "Authentication required", "Please log in to access this resource")
)

// writeJSONResponse 是一个辅助函数，用于将数据以 JSON 格式写入 HTTP 响应。
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	apperr.WriteBody(w, statusCode, data)
}

// writeError 把任意错误写成 {message, details}，5xx 会记录日志。
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperr.Write(w, err)
	if appErr.Status() >= http.StatusInternalServerError {
		logger.Error("请求处理失败",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("code", appErr.Code),
			zap.Error(err))
	}
}

// decodeJSON 解析请求体；空请求体按空对象处理。
func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errInvalidBody.With(err)
	}
	return nil
}

// currentUser 返回认证中间件写入的身份，路由配置错误时返回 401。
func currentUser(w http.ResponseWriter, r *http.Request) (*middleware.Identity, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, errNoIdentity)
		return nil, false
	}
	return identity, true
}

type messageResponse struct {
	Message string `json:"message"`
}
