package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"socialchat/internal/auth"
	"socialchat/internal/config"
	"socialchat/internal/handlers/apiserver"
	"socialchat/internal/handlers/chatserver"
	appKafka "socialchat/internal/kafka"
	"socialchat/internal/logger"
	"socialchat/internal/middleware"
	appRedis "socialchat/internal/redis"
	"socialchat/internal/relay"
	"socialchat/internal/services"
	"socialchat/internal/storage"
	"socialchat/internal/websocket"

	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}
	if err := logger.Init(cfg.Env, cfg.LogLevel); err != nil {
		log.Fatalf("无法初始化日志: %v", err)
	}
	defer logger.Sync()
	logger.Info("API 服务器配置加载成功", zap.String("env", cfg.Env), zap.String("relayMode", cfg.Relay.Mode))

	// 2. 初始化数据库连接
	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		logger.Fatal("无法初始化数据库", zap.Error(err))
	}
	if err := storage.AutoMigrateTables(db); err != nil {
		logger.Fatal("数据库表迁移失败", zap.Error(err))
	}
	logger.Info("数据库表迁移成功")

	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()

	// 3. Token 黑名单 (可选)
	var blacklist auth.TokenBlacklist
	if cfg.Redis.Enabled {
		redisClient, err := appRedis.NewClient(appCtx, cfg.Redis)
		if err != nil {
			logger.Fatal("无法连接到 Redis", zap.Error(err))
		}
		defer redisClient.Close()
		blacklist = appRedis.NewRedisTokenBlacklist(redisClient)
		logger.Info("成功连接到 Redis", zap.String("addr", cfg.Redis.Addr))
	} else {
		logger.Warn("Redis 已禁用，登出不会吊销令牌")
	}

	// 4. 初始化 Repositories
	userRepo := storage.NewGormUserRepository(db)
	friendReqRepo := storage.NewGormFriendRequestRepository(db)
	friendshipRepo := storage.NewGormFriendshipRepository(db)
	msgRepo := storage.NewGormMessageRepository(db)

	gate := middleware.NewAuthGate(cfg.Auth, blacklist, userRepo)

	// 5. 实时推送的发布方式
	var (
		publisher relay.Publisher
		fanout    *relay.Fanout
	)
	switch cfg.Relay.Mode {
	case config.RelayModeKafka:
		producer, err := appKafka.NewConfluentKafkaProducer(cfg.Kafka)
		if err != nil {
			logger.Fatal("无法创建 Kafka 生产者", zap.Error(err))
		}
		defer producer.Close()
		publisher = relay.NewKafkaPublisher(producer, cfg.Kafka.RelayTopic)
		logger.Info("实时事件经 Kafka 投递", zap.String("topic", cfg.Kafka.RelayTopic))
	case config.RelayModeLocal, "":
		// 投递目标在 socket 服务器创建后再加入
		fanout = relay.NewFanout()
		publisher = relay.NewLocalPublisher(fanout)
	default:
		logger.Fatal("未知的 RELAY.MODE", zap.String("mode", cfg.Relay.Mode))
	}

	// 6. 初始化 Services
	authService := services.NewAuthService(userRepo, blacklist, cfg.Auth)
	userService := services.NewUserService(userRepo, friendReqRepo, friendshipRepo, cfg.Search)
	friendReqService := services.NewFriendRequestService(db, userRepo, friendReqRepo, friendshipRepo, publisher)
	messageService := services.NewMessageService(msgRepo, userRepo, publisher)

	// 7. 设置 HTTP 路由
	r := apiserver.NewRouter(cfg.APIServer.Prefix, apiserver.Handlers{
		Auth:     apiserver.NewAuthHandler(authService),
		Users:    apiserver.NewUserHandler(userService),
		Friends:  apiserver.NewFriendRequestHandler(friendReqService),
		Messages: apiserver.NewMessageHandler(messageService),
	}, gate)

	// 7.1 local 模式下在同一端口挂载 WebSocket 和 socket.io
	if fanout != nil {
		events := chatserver.NewSocketEvents(publisher, messageService)

		hub := websocket.NewHub()
		go hub.Run(appCtx)
		sio := chatserver.NewSocketIOServer(appCtx, events, gate)
		fanout.Add(hub, sio)

		wsHandler := chatserver.NewWebSocketHandler(appCtx, hub, events, gate, cfg.WebSocket)
		r.HandleFunc(cfg.WebSocket.Path, wsHandler.ServeWS)
		r.PathPrefix(cfg.WebSocket.SocketIOPath).Handler(sio)

		go func() {
			if err := sio.Serve(); err != nil {
				logger.Error("socket.io 服务器错误", zap.Error(err))
			}
		}()
		defer sio.Close()
		logger.Info("实时推送挂载在 API 服务器上",
			zap.String("ws", cfg.WebSocket.Path),
			zap.String("socketio", cfg.WebSocket.SocketIOPath))
	}

	// 8. 启动 HTTP 服务器并实现优雅关闭
	serverAddr := fmt.Sprintf("%s:%s", cfg.APIServer.Host, cfg.APIServer.Port)
	srv := &http.Server{
		Addr:           serverAddr,
		Handler:        apiserver.Wrap(r, cfg.APIServer.CORS),
		ReadTimeout:    cfg.Server.ReadTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		IdleTimeout:    time.Second * 60,
	}
	if fanout == nil {
		// 长连接不在本进程时才设置写超时
		srv.WriteTimeout = cfg.Server.WriteTimeout
	}

	go func() {
		logger.Info("API 服务器启动", zap.String("addr", serverAddr), zap.String("prefix", cfg.APIServer.Prefix))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("API 服务器启动失败", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("收到关闭信号，正在关闭 API 服务器...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("API 服务器强制关闭", zap.Error(err))
	}
	cancelApp()
	logger.Info("API 服务器已成功关闭")
}
