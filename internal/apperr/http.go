package apperr

import (
	"encoding/json"
	"net/http"
)

// Write 把错误渲染为 {message, details} 响应。
func Write(w http.ResponseWriter, err error) *Error {
	appErr := From(err)
	WriteBody(w, appErr.Status(), appErr.Body())
	return appErr
}

// WriteBody writes an arbitrary JSON body with the given status code.
func WriteBody(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
