package service

import (
	"context"
	"fmt"
	"time"

	"pml_bot/internal/logger"
	"pml_bot/internal/telegram/models"
	"pml_bot/internal/telegram/repository"
)

// RelayServiceImpl 私聊转发决策引擎实现
type RelayServiceImpl struct {
	relayTarget   int64 // 日志群组 ID，0 表示未配置
	settings      SettingsProvider
	monitoredRepo repository.MonitoredUserRepository
	dialogRepo    repository.DialogRepository
	tempRepo      repository.TempEntryRepository
	mapRepo       repository.MessageMapRepository
	relay         RelayPort
	locks         *contactLocks
	now           func() time.Time
}

// NewRelayService 创建转发决策服务
func NewRelayService(
	relayTarget int64,
	settings SettingsProvider,
	monitoredRepo repository.MonitoredUserRepository,
	dialogRepo repository.DialogRepository,
	tempRepo repository.TempEntryRepository,
	mapRepo repository.MessageMapRepository,
	relay RelayPort,
) *RelayServiceImpl {
	return &RelayServiceImpl{
		relayTarget:   relayTarget,
		settings:      settings,
		monitoredRepo: monitoredRepo,
		dialogRepo:    dialogRepo,
		tempRepo:      tempRepo,
		mapRepo:       mapRepo,
		relay:         relay,
		locks:         newContactLocks(),
		now:           time.Now,
	}
}

// HandleIncoming 处理一条入站私聊消息
//
// 判定顺序不可调换：永久名单优先于窗口逻辑，命中即短路——
// 名单上的联系人永不受过期影响。
func (s *RelayServiceImpl) HandleIncoming(ctx context.Context, msg *IncomingMessage) error {
	// 1. 非私聊、账号所有者自己发出的消息不处理
	if !msg.IsPrivate || msg.Outgoing || msg.SenderID == 0 {
		return nil
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if !settings.RelayEnabled || s.relayTarget == 0 {
		return nil
	}

	shouldRelay, err := s.shouldRelay(ctx, msg.SenderID, settings)
	if err != nil {
		return err
	}
	if !shouldRelay {
		return nil
	}

	// 转发属于单次事件的动作，失败只记日志，不阻塞后续事件
	loggedID, err := s.relay.Relay(ctx, s.relayTarget, msg)
	if err != nil {
		logger.L().Warnf("Relay failed for message %d in chat %d: %v", msg.MessageID, msg.ChatID, err)
		return nil
	}

	// 映射写入失败会破坏删除检测，必须向上传播
	if err := s.mapRepo.Record(ctx, &models.MessageMap{
		ChatID:          msg.ChatID,
		MessageID:       msg.MessageID,
		LoggedMessageID: loggedID,
	}); err != nil {
		logger.L().Errorf("Failed to record message mapping for %d/%d: %v", msg.ChatID, msg.MessageID, err)
		return err
	}

	logger.L().Debugf("Relayed message %d from user %d (logged as %d)", msg.MessageID, msg.SenderID, loggedID)
	return nil
}

// shouldRelay 判定发信人是否在监控范围内
func (s *RelayServiceImpl) shouldRelay(ctx context.Context, senderID int64, settings *models.Settings) (bool, error) {
	// 2. 永久监控名单
	monitored, err := s.monitoredRepo.List(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list monitored users: %w", err)
	}
	for _, id := range monitored {
		if id == senderID {
			return true, nil
		}
	}

	// 3. 新联系人观察窗口
	if settings.WindowMinutes <= 0 {
		return false, nil
	}

	// 同一联系人的清理-判定-写入序列必须串行
	unlock := s.locks.Lock(senderID)
	defer unlock()

	now := s.now()

	if err := s.tempRepo.PurgeExpired(ctx, now); err != nil {
		return false, err
	}

	live, err := s.tempRepo.Contains(ctx, senderID, now)
	if err != nil {
		return false, err
	}
	if live {
		// 窗口内的后续消息：继续转发，不刷新过期时间
		return true, nil
	}

	known, err := s.dialogRepo.Contains(ctx, senderID)
	if err != nil {
		return false, err
	}
	if known {
		// 快照中的联系人：窗口已消耗或启用时就已认识，不转发
		return false, nil
	}

	// 全新联系人的第一条消息：授予观察窗口并立即转发。
	// 同时登记进快照，窗口对每个联系人只授予一次——过期后
	// 按已知联系人处理，不再进入新的观察期。
	expiry := now.Add(settings.Window())
	if err := s.tempRepo.Upsert(ctx, senderID, expiry); err != nil {
		return false, err
	}
	if err := s.dialogRepo.Add(ctx, senderID); err != nil {
		return false, err
	}
	logger.L().Infof("New contact %d entered observation window until %s", senderID, expiry.Format(time.RFC3339))
	return true, nil
}
