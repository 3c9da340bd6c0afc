// Package apperr 定义 API 统一的错误分类和 {message, details} 响应体。
package apperr

import (
	"errors"
	"net/http"
)

// Kind 是错误分类，决定 HTTP 状态码。
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindNotFound
	KindConflict
	KindStore
)

// Error is an application error that knows how to render itself to a client.
type Error struct {
	Kind    Kind   `json:"-"`
	Code    string `json:"-"` // 稳定的机器可读标识，例如 DuplicateRequest
	Message string `json:"message"`
	Details string `json:"details"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the error kind onto an HTTP status code.
// Conflict 按原有接口约定返回 400 而不是 409。
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Body 是写给客户端的响应体。
type Body struct {
	Message string `json:"message"`
	Details string `json:"details"`
}

// Body returns the client-facing envelope.
func (e *Error) Body() Body {
	return Body{Message: e.Message, Details: e.Details}
}

func newErr(kind Kind, code, message, details string) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Details: details}
}

func Validation(code, message, details string) *Error {
	return newErr(KindValidation, code, message, details)
}

func Auth(code, message, details string) *Error {
	return newErr(KindAuth, code, message, details)
}

func NotFound(code, message, details string) *Error {
	return newErr(KindNotFound, code, message, details)
}

func Conflict(code, message, details string) *Error {
	return newErr(KindConflict, code, message, details)
}

// Store 包装后端存储错误，details 为底层错误文本。
func Store(message string, err error) *Error {
	e := newErr(KindStore, "StoreError", message, "")
	if err != nil {
		e.Details = err.Error()
		e.Err = err
	}
	return e
}

// Internal 包装意外错误。details 不暴露底层错误。
func Internal(message string, err error) *Error {
	e := newErr(KindInternal, "InternalError", message, "Something went wrong")
	e.Err = err
	return e
}

// With 返回带有底层原因的副本，Code 不变，因此 errors.Is 仍然匹配原哨兵。
func (e *Error) With(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

// Is matches on Kind and Code so that copies made by With compare equal to the sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// From converts any error into an *Error; unknown errors become InternalError.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("Internal server error", err)
}

// WithDetails 返回 details 被替换的副本。
func (e *Error) WithDetails(details string) *Error {
	cp := *e
	cp.Details = details
	return &cp
}
