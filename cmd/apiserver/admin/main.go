package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"socialchat/internal/config"
	"socialchat/internal/models"
	"socialchat/internal/services"
	"socialchat/internal/storage"
)

func main() {
	// 简单命令行参数解析
	if len(os.Args) < 2 {
		fmt.Println("使用方法:")
		fmt.Println("  ./admin show-user <userID> - 显示用户信息")
		fmt.Println("  ./admin list-friends <userID> - 列出用户的好友")
		fmt.Println("  ./admin list-requests <userID> - 列出用户收到和发出的待处理好友请求")
		fmt.Println("  ./admin backfill-friendships - 为已接受但缺少好友关系的请求补建好友关系")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}
	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("无法连接数据库: %v", err)
	}

	// 创建存储层实例
	userRepo := storage.NewGormUserRepository(db)
	friendReqService := services.NewFriendRequestService(db, userRepo,
		storage.NewGormFriendRequestRepository(db), storage.NewGormFriendshipRepository(db), nil)

	ctx := context.Background()

	// 执行指定的命令
	switch os.Args[1] {
	case "show-user":
		showUser(ctx, userRepo, requireArg("需要指定用户ID"))

	case "list-friends":
		userID := requireArg("需要指定用户ID")
		friends, err := friendReqService.GetFriendsList(ctx, userID)
		if err != nil {
			log.Fatalf("获取好友列表失败: %v", err)
		}
		fmt.Printf("用户 %s 的好友 (%d 人):\n", userID, len(friends))
		fmt.Println("--------------------------------------")
		for i, f := range friends {
			fmt.Printf("#%d ID: %s, 用户名: %s, 邮箱: %s\n", i+1, f.ID, f.Username, f.Email)
		}

	case "list-requests":
		userID := requireArg("需要指定用户ID")
		lists, err := friendReqService.List(ctx, userID)
		if err != nil {
			log.Fatalf("获取好友请求失败: %v", err)
		}
		printRequests("收到的请求", lists.Received)
		printRequests("发出的请求", lists.Sent)

	case "backfill-friendships":
		if err := storage.AutoMigrateTables(db); err != nil {
			log.Fatalf("数据库表迁移失败: %v", err)
		}
		n, err := friendReqService.BackfillFriendships(ctx)
		if err != nil {
			log.Fatalf("补建好友关系失败: %v", err)
		}
		fmt.Printf("补建完成，处理了 %d 个已接受的请求\n", n)

	default:
		log.Fatalf("未知命令: %s", os.Args[1])
	}
}

func requireArg(msg string) string {
	if len(os.Args) < 3 {
		log.Fatal(msg)
	}
	return os.Args[2]
}

func showUser(ctx context.Context, repo storage.UserRepository, userID string) {
	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		log.Fatalf("查找用户失败: %v", err)
	}

	fmt.Printf("用户 %s 信息:\n", userID)
	fmt.Println("--------------------------------------")
	fmt.Printf("用户名: %s\n", user.Username)
	fmt.Printf("邮箱: %s\n", user.Email)
	fmt.Printf("注册时间: %s\n", user.CreatedAt.Format("2006-01-02 15:04:05"))
}

func printRequests(title string, requests []*models.FriendRequestView) {
	fmt.Printf("%s (%d 条):\n", title, len(requests))
	fmt.Println("--------------------------------------")
	for i, r := range requests {
		other := r.Sender
		if other == nil {
			other = r.Receiver
		}
		name := ""
		if other != nil {
			name = other.Username
		}
		fmt.Printf("#%d ID: %s, 对方: %s, 状态: %s, 时间: %s\n",
			i+1, r.ID, name, r.Status, r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
}
