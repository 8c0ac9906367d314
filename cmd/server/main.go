// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/config"
	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/guard"
	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/handler"
	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/middleware"
	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/model"
	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/pipeline"
	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/repository"
	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/service"
	"github.com/jeswinjoss/Velvet-ai-companion-app/pkg/database"
	"github.com/jeswinjoss/Velvet-ai-companion-app/pkg/es"
	"github.com/jeswinjoss/Velvet-ai-companion-app/pkg/imagegen"
	"github.com/jeswinjoss/Velvet-ai-companion-app/pkg/kafka"
	"github.com/jeswinjoss/Velvet-ai-companion-app/pkg/llm"
	"github.com/jeswinjoss/Velvet-ai-companion-app/pkg/log"
	"github.com/jeswinjoss/Velvet-ai-companion-app/pkg/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis、对象存储与 Elasticsearch
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)
	if err := es.InitES(cfg.Elasticsearch); err != nil {
		log.Errorf("es 初始化失败 %s", err)
		return
	}
	kafka.InitProducer(cfg.Kafka)

	if err := database.DB.AutoMigrate(&model.CharacterProfile{}, &model.UserProfile{}); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	// 4. 初始化 Repository
	profileRepo := repository.NewProfileRepository(database.DB)
	historyRepo := repository.NewHistoryRepository(database.RDB, cfg.History.MaxMessages)
	usageRepo := repository.NewUsageRepository(database.RDB)

	// 5. 初始化 Service (依赖注入)
	llmClient := llm.NewClient(cfg.LLM)
	imageClient := imagegen.NewClient(cfg.Image)
	usageGuard := guard.NewUsageGuard(usageRepo, cfg.Limits)
	executor := service.NewRequestExecutor(usageGuard, cfg.Retry, cfg.Limits)
	avatarService := service.NewAvatarService()
	profileService := service.NewProfileService(profileRepo, historyRepo, llmClient, avatarService)
	conversationService := service.NewConversationService(historyRepo)
	searchService := service.NewSearchService()
	chatService := service.NewChatService(usageGuard, executor, llmClient, historyRepo, profileRepo)

	// 6. 初始化头像生成管道 (Processor)
	processor := pipeline.NewAvatarProcessor(llmClient, imageClient, profileRepo, avatarService.FallbackURL)

	// 7. 启动后台 Kafka 消费者
	go kafka.StartConsumer(cfg.Kafka, processor)

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	// 添加我们自定义的日志中间件和 Gin 的 Recovery 中间件
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 9. 注册路由
	apiV1 := r.Group("/api/v1")
	{
		// 角色档案路由组
		profiles := apiV1.Group("/profiles")
		{
			profileHandler := handler.NewProfileHandler(profileService)
			profiles.POST("", profileHandler.CreateProfile)
			profiles.GET("", profileHandler.ListProfiles)
			profiles.GET("/random", profileHandler.GenerateRandomProfile)
			profiles.GET("/:id", profileHandler.GetProfile)
			profiles.DELETE("/:id", profileHandler.DeleteProfile)
		}

		// 聊天历史路由组
		conversations := apiV1.Group("/conversations")
		{
			conversationHandler := handler.NewConversationHandler(conversationService)
			conversations.GET("/:profileID", conversationHandler.GetHistory)
			conversations.DELETE("/:profileID", conversationHandler.ClearHistory)
			conversations.POST("/:profileID/messages/:messageID/reactions", conversationHandler.ToggleReaction)
			conversations.GET("/:profileID/search", handler.NewSearchHandler(searchService).SearchMessages)
		}

		// 用量状态路由
		apiV1.GET("/usage", handler.NewUsageHandler(usageGuard).GetStatus)
	}

	// Chat 路由 (WebSocket)
	r.GET("/ws/chat/:profileID", handler.NewChatHandler(chatService).Handle)

	// Prometheus 指标
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 关闭 HTTP 服务器
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	// Kafka 消费者随进程退出自然结束，无需显式关闭。
	log.Info("服务已优雅关闭")
}
