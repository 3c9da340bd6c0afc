package apiserver

import (
	"net/http"

	"socialchat/internal/middleware"
	"socialchat/internal/services"
)

// AuthHandler 封装了认证相关的 HTTP 处理器方法。
type AuthHandler struct {
	AuthService services.AuthService
}

// NewAuthHandler 创建一个新的 AuthHandler 实例。
func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{AuthService: authService}
}

// AuthResponse 是注册和登录成功后返回的结构体。
type AuthResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// Register 处理用户注册请求。
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.AuthService.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, AuthResponse{
		Token:    res.Token,
		UserID:   res.User.ID,
		Username: res.User.Username,
		Message:  "User registered successfully",
	})
}

// Login 处理用户登录请求。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.AuthService.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, AuthResponse{
		Token:    res.Token,
		UserID:   res.User.ID,
		Username: res.User.Username,
		Message:  "Login successful",
	})
}

// SignOut 吊销请求中携带的令牌（如果有）。不经过认证中间件。
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	token, err := middleware.BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		token = ""
	}
	if err := h.AuthService.SignOut(r.Context(), token); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, messageResponse{Message: "Successfully signed out"})
}
