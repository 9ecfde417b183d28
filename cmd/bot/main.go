package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"pml_bot/internal/app"
	"pml_bot/internal/config"
	"pml_bot/internal/logger"
)

func main() {
	// 初始化logger
	logger.Init()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		logger.L().Fatalf("配置加载失败: %v", err)
	}

	// 初始化应用
	application, err := app.New(cfg)
	if err != nil {
		logger.L().Fatalf("应用初始化失败: %v", err)
	}

	// 监听退出信号
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 启动 Bot（阻塞直到 ctx 取消）
	application.Bot.Start(ctx)

	// 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := application.Close(shutdownCtx); err != nil {
		logger.L().Errorf("应用关闭失败: %v", err)
	}
	logger.L().Info("Bye")
}
