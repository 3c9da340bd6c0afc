package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"socialchat/internal/auth"
	"socialchat/internal/config"
	"socialchat/internal/handlers/chatserver"
	appKafka "socialchat/internal/kafka"
	kafkahandlers "socialchat/internal/kafka/handlers"
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
	logger.Info("Chat 服务器配置加载成功")

	// 2. 初始化数据库连接 (认证查询用户、socket 发来的消息落库)
	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		logger.Fatal("无法初始化数据库", zap.Error(err))
	}

	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()

	var blacklist auth.TokenBlacklist
	if cfg.Redis.Enabled {
		redisClient, err := appRedis.NewClient(appCtx, cfg.Redis)
		if err != nil {
			logger.Fatal("无法连接到 Redis", zap.Error(err))
		}
		defer redisClient.Close()
		blacklist = appRedis.NewRedisTokenBlacklist(redisClient)
	}

	userRepo := storage.NewGormUserRepository(db)
	msgRepo := storage.NewGormMessageRepository(db)
	gate := middleware.NewAuthGate(cfg.Auth, blacklist, userRepo)

	// 3. 初始化 Kafka Producer。socket 事件也经 Kafka 发布，这样其他实例上的房间成员同样能收到
	kfkProducer, err := appKafka.NewConfluentKafkaProducer(cfg.Kafka)
	if err != nil {
		logger.Fatal("无法创建 Kafka 生产者", zap.Error(err))
	}
	defer kfkProducer.Close()
	publisher := relay.NewKafkaPublisher(kfkProducer, cfg.Kafka.RelayTopic)

	messageService := services.NewMessageService(msgRepo, userRepo, publisher)
	events := chatserver.NewSocketEvents(publisher, messageService)

	// 4. 初始化 WebSocket Hub 和 socket.io 服务器
	hub := websocket.NewHub()
	go hub.Run(appCtx)
	sio := chatserver.NewSocketIOServer(appCtx, events, gate)
	go func() {
		if err := sio.Serve(); err != nil {
			logger.Error("socket.io 服务器错误", zap.Error(err))
		}
	}()
	defer sio.Close()
	fanout := relay.NewFanout(hub, sio)

	// 5. 初始化 Kafka 消费者。每个实例使用自己的 group，所有实例都能收到全部事件
	consumer, err := appKafka.NewConfluentKafkaConsumer(cfg.Kafka)
	if err != nil {
		logger.Fatal("无法创建 Kafka 消费者", zap.Error(err))
	}
	defer consumer.Close()

	groupID := appKafka.InstanceGroupID(cfg.Kafka.ConsumerGroup)
	relayConsumer := kafkahandlers.NewRelayConsumer(fanout)

	var consumers sync.WaitGroup
	consumers.Add(1)
	go func() {
		defer consumers.Done()
		logger.Info("Kafka relay 消费者启动", zap.String("topic", cfg.Kafka.RelayTopic), zap.String("groupId", groupID))
		err := consumer.Consume(appCtx, []string{cfg.Kafka.RelayTopic}, groupID, relayConsumer.HandleMessage)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Kafka relay 消费者错误", zap.Error(err))
		}
		logger.Info("Kafka relay 消费者已停止")
	}()

	// 6. 配置 HTTP 服务器路由
	wsHandler := chatserver.NewWebSocketHandler(appCtx, hub, events, gate, cfg.WebSocket)
	mux := http.NewServeMux()
	mux.HandleFunc(cfg.WebSocket.Path, wsHandler.ServeWS)
	mux.Handle(cfg.WebSocket.SocketIOPath, sio)

	serverAddr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:           serverAddr,
		Handler:        mux,
		ReadTimeout:    cfg.Server.ReadTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		logger.Info("Chat 服务器启动",
			zap.String("addr", serverAddr),
			zap.String("ws", cfg.WebSocket.Path),
			zap.String("socketio", cfg.WebSocket.SocketIOPath))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Chat 服务器启动失败", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Chat 服务器准备关闭...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		logger.Error("Chat 服务器关闭失败", zap.Error(err))
	}

	cancelApp()
	consumers.Wait()
	logger.Info("Chat 服务器已优雅关闭")
}
