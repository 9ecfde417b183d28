package telegram

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"pml_bot/internal/config"
	"pml_bot/internal/logger"
	"pml_bot/internal/telegram/repository"
	"pml_bot/internal/telegram/service"

	"github.com/go-telegram/bot"
	"go.mongodb.org/mongo-driver/mongo"
)

// Bot PM 监控 Bot 服务
type Bot struct {
	bot      *bot.Bot
	cfg      *config.Config
	pool     *WorkerPool
	ownerIDs []int64

	// business connection 所属账号的用户 ID（用于区分入站/出站消息）
	connOwnerID atomic.Int64

	settingsService service.SettingsService
	relayService    service.RelayService
	deletionService service.DeletionService
	captureService  service.CaptureService

	monitoredRepo repository.MonitoredUserRepository
	dialogRepo    repository.DialogRepository
	tempRepo      repository.TempEntryRepository
	mapRepo       repository.MessageMapRepository
	contactRepo   repository.ContactRepository
}

// New 创建 Bot 实例
func New(cfg *config.Config, db *mongo.Database) (*Bot, error) {
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("telegram token cannot be empty")
	}

	// 创建 repositories
	monitoredRepo := repository.NewMongoMonitoredUserRepository(db)
	dialogRepo := repository.NewMongoDialogRepository(db)
	tempRepo := repository.NewMongoTempEntryRepository(db)
	mapRepo := repository.NewMongoMessageMapRepository(db)
	settingsRepo := repository.NewMongoSettingsRepository(db)
	contactRepo := repository.NewMongoContactRepository(db)

	pmlBot := &Bot{
		cfg:           cfg,
		ownerIDs:      cfg.BotOwnerIDs,
		pool:          NewWorkerPool(4, 256),
		monitoredRepo: monitoredRepo,
		dialogRepo:    dialogRepo,
		tempRepo:      tempRepo,
		mapRepo:       mapRepo,
		contactRepo:   contactRepo,
	}

	// 创建 bot 实例；非命令更新（business 消息、删除事件）走默认 handler
	b, err := bot.New(cfg.TelegramToken, bot.WithDefaultHandler(pmlBot.handleUpdate))
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	pmlBot.bot = b

	// 外部能力端口 + 服务装配
	port := newBotPort(b, contactRepo)
	cache := service.NewSettingsCache(settingsRepo, 3*time.Second)

	pmlBot.settingsService = service.NewSettingsService(
		settingsRepo, cache, monitoredRepo, dialogRepo, tempRepo, port)
	pmlBot.relayService = service.NewRelayService(
		cfg.LogGroupID, cache, monitoredRepo, dialogRepo, tempRepo, mapRepo, port)
	pmlBot.deletionService = service.NewDeletionService(
		cfg.LogGroupID, cache, mapRepo, contactRepo, port)
	pmlBot.captureService = service.NewCaptureService(cfg.LogGroupID, cache, port)

	// 注册命令 handlers
	pmlBot.registerHandlers()

	// 初始化数据库索引
	if err := pmlBot.ensureIndexes(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}

	if cfg.LogGroupID == 0 {
		logger.L().Warn("LOG_GROUP_ID is not configured; relay and capture will be inactive")
	}

	logger.L().Info("PM monitor bot initialized successfully")
	return pmlBot, nil
}

// InitFromConfig 从应用配置初始化 Bot
func InitFromConfig(cfg *config.Config, db *mongo.Database) (*Bot, error) {
	return New(cfg, db)
}

// Start 启动 Bot（阻塞式，应在 goroutine 中运行）
func (b *Bot) Start(ctx context.Context) {
	logger.L().Info("Starting PM monitor bot...")
	b.bot.Start(ctx)
	logger.L().Info("PM monitor bot stopped")
}

// Stop 停止 Bot 并等待在途事件处理完成
func (b *Bot) Stop(ctx context.Context) {
	logger.L().Info("Stopping PM monitor bot...")
	b.pool.Shutdown()
}

// isOwner 用户是否为配置的 Bot 管理员
func (b *Bot) isOwner(userID int64) bool {
	for _, id := range b.ownerIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// ensureIndexes 确保所有数据库索引存在
func (b *Bot) ensureIndexes(ctx context.Context) error {
	if err := b.monitoredRepo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to ensure monitored_users indexes: %w", err)
	}
	if err := b.dialogRepo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to ensure dialog_snapshot indexes: %w", err)
	}
	if err := b.tempRepo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to ensure temp_entries indexes: %w", err)
	}
	if err := b.mapRepo.EnsureIndexes(ctx, b.cfg.MapRetentionDays); err != nil {
		return fmt.Errorf("failed to ensure message_map indexes: %w", err)
	}
	if err := b.contactRepo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to ensure contacts indexes: %w", err)
	}

	logger.L().Debug("All indexes ensured")
	return nil
}
