package telegram

import (
	"context"
	"fmt"
	"time"

	"pml_bot/internal/logger"
	"pml_bot/internal/telegram/models"
	"pml_bot/internal/telegram/service"

	"github.com/go-telegram/bot"
	botModels "github.com/go-telegram/bot/models"
)

// handleUpdate 默认 handler：承接所有非命令更新
// business_message 与 deleted_business_messages 是两路独立事件流，
// 各自丢进工作池处理，互不阻塞。
func (b *Bot) handleUpdate(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	switch {
	case update.BusinessConnection != nil:
		b.connOwnerID.Store(update.BusinessConnection.User.ID)
		logger.L().Infof("Business connection from user %d (enabled=%v)",
			update.BusinessConnection.User.ID, update.BusinessConnection.IsEnabled)

	case update.BusinessMessage != nil:
		msg := b.toIncomingMessage(update.BusinessMessage)
		b.pool.Submit(EventTask{
			Name: fmt.Sprintf("business_message:%d/%d", msg.ChatID, msg.MessageID),
			Run:  func() { b.processMessage(msg) },
		})

	case update.DeletedBusinessMessages != nil:
		ev := &service.DeletionEvent{
			ChatID:     update.DeletedBusinessMessages.Chat.ID,
			MessageIDs: update.DeletedBusinessMessages.MessageIDs,
		}
		b.pool.Submit(EventTask{
			Name: fmt.Sprintf("deleted_messages:%d", ev.ChatID),
			Run:  func() { b.processDeletion(ev) },
		})
	}
}

// processMessage 处理一条私聊消息事件
func (b *Bot) processMessage(msg *service.IncomingMessage) {
	ctx := context.Background()

	if msg.Outgoing {
		// 出站消息只走手动捕获路径（触发词回复）
		if err := b.captureService.HandleOutgoing(ctx, msg); err != nil {
			logger.L().Errorf("Manual capture handling failed: %v", err)
		}
		return
	}

	// 先登记联系人，转发判定和快照都依赖这个目录
	if msg.IsPrivate && msg.SenderID != 0 {
		if err := b.contactRepo.Upsert(ctx, &models.Contact{
			UserID:     msg.SenderID,
			Username:   msg.SenderUsername,
			FirstName:  msg.SenderName,
			LastSeenAt: msg.SentAt,
		}); err != nil {
			logger.L().Errorf("Failed to upsert contact %d: %v", msg.SenderID, err)
		}
	}

	if err := b.relayService.HandleIncoming(ctx, msg); err != nil {
		logger.L().Errorf("Relay handling failed for %d/%d: %v", msg.ChatID, msg.MessageID, err)
	}

	if err := b.captureService.HandleIncoming(ctx, msg); err != nil {
		logger.L().Errorf("Auto capture handling failed for %d/%d: %v", msg.ChatID, msg.MessageID, err)
	}
}

// processDeletion 处理一条删除事件
func (b *Bot) processDeletion(ev *service.DeletionEvent) {
	if err := b.deletionService.HandleDeleted(context.Background(), ev); err != nil {
		logger.L().Errorf("Deletion handling failed for chat %d: %v", ev.ChatID, err)
	}
}

// toIncomingMessage 把 Bot API 消息转换为服务层事件
func (b *Bot) toIncomingMessage(m *botModels.Message) *service.IncomingMessage {
	msg := convertMessage(m)
	msg.Outgoing = m.From != nil && m.From.ID == b.businessOwnerID()
	if msg.Outgoing && m.ReplyToMessage != nil {
		reply := convertMessage(m.ReplyToMessage)
		reply.Outgoing = m.ReplyToMessage.From != nil && m.ReplyToMessage.From.ID == b.businessOwnerID()
		msg.ReplyTo = reply
	}
	return msg
}

// businessOwnerID business connection 所属账号的用户 ID
// 连接更新尚未到达时退回第一个配置的管理员 ID。
func (b *Bot) businessOwnerID() int64 {
	if id := b.connOwnerID.Load(); id != 0 {
		return id
	}
	if len(b.ownerIDs) > 0 {
		return b.ownerIDs[0]
	}
	return 0
}

// convertMessage 单条消息的字段映射（不处理回复链）
func convertMessage(m *botModels.Message) *service.IncomingMessage {
	msg := &service.IncomingMessage{
		ChatID:    m.Chat.ID,
		MessageID: m.ID,
		IsPrivate: m.Chat.Type == "private",
		Text:      m.Text,
		SentAt:    time.Unix(int64(m.Date), 0),
		Media:     extractMedia(m),
	}

	if m.From != nil {
		msg.SenderID = m.From.ID
		msg.SenderUsername = m.From.Username
		msg.SenderName = m.From.FirstName
		if m.From.LastName != "" {
			msg.SenderName += " " + m.From.LastName
		}
	}

	return msg
}

// extractMedia 提取消息携带的媒体
// 受保护内容（无法转发、无法另存）视为阅后即焚，是捕获的触发信号。
func extractMedia(m *botModels.Message) *service.MediaInfo {
	expiring := m.HasProtectedContent

	switch {
	case len(m.Photo) > 0:
		// 取最大尺寸
		largest := m.Photo[len(m.Photo)-1]
		return &service.MediaInfo{Kind: service.MediaKindPhoto, FileID: largest.FileID, Caption: m.Caption, Expiring: expiring}
	case m.Video != nil:
		return &service.MediaInfo{Kind: service.MediaKindVideo, FileID: m.Video.FileID, Caption: m.Caption, Expiring: expiring}
	case m.VideoNote != nil:
		return &service.MediaInfo{Kind: service.MediaKindVideoNote, FileID: m.VideoNote.FileID, Expiring: expiring}
	case m.Voice != nil:
		return &service.MediaInfo{Kind: service.MediaKindVoice, FileID: m.Voice.FileID, Caption: m.Caption, Expiring: expiring}
	}
	return nil
}
