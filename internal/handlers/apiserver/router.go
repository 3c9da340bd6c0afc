package apiserver

import (
	"fmt"
	"net/http"

	"socialchat/internal/apperr"
	"socialchat/internal/config"
	"socialchat/internal/logger"
	"socialchat/internal/middleware"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// Handlers 汇总路由需要的全部 handler。
type Handlers struct {
	Auth     *AuthHandler
	Users    *UserHandler
	Friends  *FriendRequestHandler
	Messages *MessageHandler
}

// NewRouter 注册 REST 路由。prefix 下的 /auth/* 公开，其余路由都经过 gate。
func NewRouter(prefix string, h Handlers, gate *middleware.AuthGate) *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	api := r.PathPrefix(prefix).Subrouter()

	// 认证路由
	authRouter := api.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/register", h.Auth.Register).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", h.Auth.Login).Methods(http.MethodPost)
	authRouter.HandleFunc("/signout", h.Auth.SignOut).Methods(http.MethodPost)

	protected := api.NewRoute().Subrouter()
	protected.Use(gate.Middleware)

	// 用户路由
	protected.HandleFunc("/users/search", h.Users.SearchUsersHandler).Methods(http.MethodGet)
	protected.HandleFunc("/users/profile", h.Users.GetMyProfileHandler).Methods(http.MethodGet)
	protected.HandleFunc("/users/profile", h.Users.UpdateMyProfileHandler).Methods(http.MethodPut)

	// 好友路由
	protected.HandleFunc("/friends/request", h.Friends.SendFriendRequestHandler).Methods(http.MethodPost)
	protected.HandleFunc("/friends/request/{id}", h.Friends.ResolveFriendRequestHandler).Methods(http.MethodPut)
	protected.HandleFunc("/friends/requests", h.Friends.ListFriendRequestsHandler).Methods(http.MethodGet)
	protected.HandleFunc("/friends/list", h.Friends.ListFriendsHandler).Methods(http.MethodGet)

	// 消息路由
	protected.HandleFunc("/messages/send", h.Messages.SendMessageHandler).Methods(http.MethodPost)
	protected.HandleFunc("/messages/conversation/{friendId}", h.Messages.ConversationHandler).Methods(http.MethodGet)
	protected.HandleFunc("/messages/read/{friendId}", h.Messages.MarkReadHandler).Methods(http.MethodPut)

	return r
}

// Wrap 在路由外层套上请求日志、panic 恢复和 CORS。
func Wrap(next http.Handler, corsCfg config.CORSConfig) http.Handler {
	corsOptions := []handlers.CORSOption{
		handlers.AllowedOrigins(corsCfg.AllowedOrigins),
		handlers.AllowedMethods(corsCfg.AllowedMethods),
		handlers.AllowedHeaders(corsCfg.AllowedHeaders),
		handlers.ExposedHeaders(corsCfg.ExposedHeaders),
		handlers.MaxAge(corsCfg.MaxAge),
	}
	if corsCfg.AllowCredentials {
		corsOptions = append(corsOptions, handlers.AllowCredentials())
	}

	recovered := handlers.RecoveryHandler(handlers.RecoveryLogger(logger.PanicLogger{}))(next)
	return middleware.RequestLogger(handlers.CORS(corsOptions...)(recovered))
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusNotFound, apperr.Body{
		Message: "Not Found",
		Details: fmt.Sprintf("Cannot %s %s", r.Method, r.URL.Path),
	})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusMethodNotAllowed, apperr.Body{
		Message: "Method Not Allowed",
		Details: fmt.Sprintf("Cannot %s %s", r.Method, r.URL.Path),
	})
}
