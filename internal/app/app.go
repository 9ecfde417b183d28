package app

import (
	"context"
	"fmt"

	"pml_bot/internal/config"
	"pml_bot/internal/logger"
	"pml_bot/internal/mongo"
	"pml_bot/internal/telegram"
)

// App 应用服务容器
// 负责管理所有服务的生命周期（初始化、运行、关闭）
type App struct {
	MongoDB *mongo.Client
	Bot     *telegram.Bot
}

// New 初始化应用及其所有服务
// 按顺序初始化各个服务，任何服务初始化失败都会返回错误
func New(cfg *config.Config) (*App, error) {
	app := &App{}

	// 初始化 MongoDB
	mongoClient, err := mongo.InitFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("init MongoDB failed: %w", err)
	}
	app.MongoDB = mongoClient
	logger.L().Info("MongoDB initialized successfully")

	// 初始化 Telegram Bot
	tgBot, err := telegram.InitFromConfig(cfg, mongoClient.Database())
	if err != nil {
		app.Close(context.Background()) // 清理已初始化的服务
		return nil, fmt.Errorf("init Telegram bot failed: %w", err)
	}
	app.Bot = tgBot

	return app, nil
}

// Close 优雅关闭所有服务
// 应该在应用退出时调用，确保资源正确释放
func (a *App) Close(ctx context.Context) error {
	if a.Bot != nil {
		a.Bot.Stop(ctx)
	}
	if a.MongoDB != nil {
		if err := a.MongoDB.Close(ctx); err != nil {
			return fmt.Errorf("close MongoDB failed: %w", err)
		}
	}
	return nil
}
