package apiserver

import (
	"fmt"
	"net/http"

	"socialchat/internal/models"
	"socialchat/internal/services"

	"github.com/gorilla/mux"
)

// FriendRequestHandler handles HTTP requests related to friend requests.
type FriendRequestHandler struct {
	friendService services.FriendRequestService
}

// NewFriendRequestHandler creates a new FriendRequestHandler.
func NewFriendRequestHandler(fs services.FriendRequestService) *FriendRequestHandler {
	return &FriendRequestHandler{friendService: fs}
}

// SendFriendRequestPayload is the expected JSON body for sending a friend request.
type SendFriendRequestPayload struct {
	ReceiverID string `json:"receiverId"`
}

// ResolveFriendRequestPayload 是处理好友请求的请求体。
type ResolveFriendRequestPayload struct {
	Status models.FriendRequestStatus `json:"status"`
}

type sendFriendRequestResponse struct {
	Message string                `json:"message"`
	Request *models.FriendRequest `json:"request"`
}

type resolveFriendRequestResponse struct {
	Message   string                     `json:"message"`
	Status    models.FriendRequestStatus `json:"status"`
	RequestID string                     `json:"requestId"`
}

type friendRequestsResponse struct {
	*services.FriendRequestLists
	Message string `json:"message"`
}

type friendsListResponse struct {
	Friends []*models.UserBasicInfo `json:"friends"`
	Message string                  `json:"message"`
}

// SendFriendRequestHandler handles POST /friends/request
func (h *FriendRequestHandler) SendFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	me, ok := currentUser(w, r)
	if !ok {
		return
	}

	var payload SendFriendRequestPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	request, err := h.friendService.Create(r.Context(), me.ID, payload.ReceiverID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, sendFriendRequestResponse{
		Message: "Friend request sent successfully",
		Request: request,
	})
}

// ResolveFriendRequestHandler handles PUT /friends/request/{id}
func (h *FriendRequestHandler) ResolveFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	me, ok := currentUser(w, r)
	if !ok {
		return
	}

	requestID := mux.Vars(r)["id"]
	var payload ResolveFriendRequestPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	if _, err := h.friendService.Resolve(r.Context(), requestID, me.ID, payload.Status); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, resolveFriendRequestResponse{
		Message:   fmt.Sprintf("Friend request %s", payload.Status),
		Status:    payload.Status,
		RequestID: requestID,
	})
}

// ListFriendRequestsHandler handles GET /friends/requests
func (h *FriendRequestHandler) ListFriendRequestsHandler(w http.ResponseWriter, r *http.Request) {
	me, ok := currentUser(w, r)
	if !ok {
		return
	}

	lists, err := h.friendService.List(r.Context(), me.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, friendRequestsResponse{
		FriendRequestLists: lists,
		Message:            "Friend requests fetched successfully",
	})
}

// ListFriendsHandler handles GET /friends/list
func (h *FriendRequestHandler) ListFriendsHandler(w http.ResponseWriter, r *http.Request) {
	me, ok := currentUser(w, r)
	if !ok {
		return
	}

	friends, err := h.friendService.GetFriendsList(r.Context(), me.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, friendsListResponse{
		Friends: friends,
		Message: fmt.Sprintf("Found %d friends", len(friends)),
	})
}
