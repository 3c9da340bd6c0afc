package apiserver

import (
	"fmt"
	"net/http"

	"socialchat/internal/models"
	"socialchat/internal/services"
)

// UserHandler 封装了用户相关的 HTTP 处理器方法。
type UserHandler struct {
	UserService services.UserService
}

// NewUserHandler 创建一个新的 UserHandler 实例。
func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{UserService: userService}
}

// ProfileResponse 是个人资料接口的响应。
type ProfileResponse struct {
	models.UserBasicInfo
	Message string `json:"message"`
}

// SearchResponse 是用户搜索接口的响应。
type SearchResponse struct {
	Users   []*services.SearchResult `json:"users"`
	Message string                   `json:"message"`
}

// GetMyProfileHandler 获取当前登录用户的个人资料。
func (h *UserHandler) GetMyProfileHandler(w http.ResponseWriter, r *http.Request) {
	me, ok := currentUser(w, r)
	if !ok {
		return
	}

	profile, err := h.UserService.GetProfile(r.Context(), me.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, ProfileResponse{UserBasicInfo: *profile, Message: "Profile fetched successfully"})
}

// UpdateMyProfileHandler 更新当前登录用户的用户名或邮箱。
func (h *UserHandler) UpdateMyProfileHandler(w http.ResponseWriter, r *http.Request) {
	me, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req services.ProfileUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	profile, err := h.UserService.UpdateProfile(r.Context(), me.ID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, ProfileResponse{UserBasicInfo: *profile, Message: "Profile updated successfully"})
}

// SearchUsersHandler 处理 GET /users/search?query=
func (h *UserHandler) SearchUsersHandler(w http.ResponseWriter, r *http.Request) {
	me, ok := currentUser(w, r)
	if !ok {
		return
	}

	users, err := h.UserService.Search(r.Context(), me.ID, r.URL.Query().Get("query"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, SearchResponse{
		Users:   users,
		Message: fmt.Sprintf("Found %d users", len(users)),
	})
}
