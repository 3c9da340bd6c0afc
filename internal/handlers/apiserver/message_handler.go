package apiserver

import (
	"net/http"

	"socialchat/internal/services"

	"github.com/gorilla/mux"
)

// MessageHandler 处理一对一消息的持久化接口。
type MessageHandler struct {
	messageService services.MessageService
}

func NewMessageHandler(ms services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: ms}
}

// SendMessagePayload 是 POST /messages/send 的请求体。
type SendMessagePayload struct {
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
}

func (h *MessageHandler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	me, ok := currentUser(w, r)
	if !ok {
		return
	}

	var payload SendMessagePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	msg, err := h.messageService.Send(r.Context(), me.ID, payload.ReceiverID, payload.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, msg)
}

func (h *MessageHandler) ConversationHandler(w http.ResponseWriter, r *http.Request) {
	me, ok := currentUser(w, r)
	if !ok {
		return
	}

	messages, err := h.messageService.Conversation(r.Context(), me.ID, mux.Vars(r)["friendId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, messages)
}

func (h *MessageHandler) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	me, ok := currentUser(w, r)
	if !ok {
		return
	}

	if _, err := h.messageService.MarkRead(r.Context(), me.ID, mux.Vars(r)["friendId"]); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, messageResponse{Message: "Messages marked as read"})
}
