package service

import (
	"context"
	"fmt"

	"pml_bot/internal/logger"
	"pml_bot/internal/telegram/repository"
)

// DeletionServiceImpl 删除事件对账实现
type DeletionServiceImpl struct {
	relayTarget int64
	settings    SettingsProvider
	mapRepo     repository.MessageMapRepository
	contactRepo repository.ContactRepository
	relay       RelayPort
}

// NewDeletionService 创建删除对账服务
func NewDeletionService(
	relayTarget int64,
	settings SettingsProvider,
	mapRepo repository.MessageMapRepository,
	contactRepo repository.ContactRepository,
	relay RelayPort,
) *DeletionServiceImpl {
	return &DeletionServiceImpl{
		relayTarget: relayTarget,
		settings:    settings,
		mapRepo:     mapRepo,
		contactRepo: contactRepo,
		relay:       relay,
	}
}

// HandleDeleted 处理一条删除事件
//
// 转发关闭或未配置目标时整个事件为 no-op，映射表保持原样，
// 等待转发重新启用后同一删除可以再次对账。
// 各消息 ID 相互独立处理，单条失败不影响其余。
func (s *DeletionServiceImpl) HandleDeleted(ctx context.Context, ev *DeletionEvent) error {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if !settings.RelayEnabled || s.relayTarget == 0 {
		return nil
	}

	for _, msgID := range ev.MessageIDs {
		s.reconcile(ctx, ev.ChatID, msgID)
	}
	return nil
}

// reconcile 对账单条消息：反查映射、发通知、清理映射
func (s *DeletionServiceImpl) reconcile(ctx context.Context, chatID int64, messageID int) {
	m, err := s.mapRepo.Lookup(ctx, chatID, messageID)
	if err != nil {
		logger.L().Errorf("Failed to lookup mapping for %d/%d: %v", chatID, messageID, err)
		return
	}
	if m == nil {
		// 未转发过的消息被删除，无事可做
		return
	}

	notice := fmt.Sprintf("🗑️ %s 删除了一条私聊消息", s.mention(ctx, chatID))
	if err := s.relay.Notify(ctx, s.relayTarget, notice, m.LoggedMessageID); err != nil {
		logger.L().Warnf("Delete notification failed for %d/%d: %v", chatID, messageID, err)
	}

	// 无论通知是否成功都移除映射：删除事件不会重投，
	// 留着映射只会造成将来重复通知
	if err := s.mapRepo.Remove(ctx, chatID, messageID); err != nil {
		logger.L().Errorf("Failed to remove mapping for %d/%d: %v", chatID, messageID, err)
	}
}

// mention 构造通知文案里的联系人标识
func (s *DeletionServiceImpl) mention(ctx context.Context, chatID int64) string {
	contact, err := s.contactRepo.GetByUserID(ctx, chatID)
	if err != nil || contact == nil {
		return fmt.Sprintf("ID %d", chatID)
	}
	return fmt.Sprintf("%s (ID: %d)", contact.DisplayName(), contact.UserID)
}
