package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pml_bot/internal/logger"

	"github.com/google/uuid"
)

// ErrNotEphemeral 目标消息不携带阅后即焚媒体
var ErrNotEphemeral = errors.New("message carries no expiring media")

// CaptureServiceImpl 阅后即焚媒体捕获实现
//
// 两条独立的触发路径汇入同一个捕获例程：
// 自动路径看全局开关，手动路径看触发词（无视开关）。
type CaptureServiceImpl struct {
	relayTarget int64
	settings    SettingsProvider
	media       MediaPort
}

// NewCaptureService 创建媒体捕获服务
func NewCaptureService(relayTarget int64, settings SettingsProvider, media MediaPort) *CaptureServiceImpl {
	return &CaptureServiceImpl{
		relayTarget: relayTarget,
		settings:    settings,
		media:       media,
	}
}

// HandleIncoming 自动路径
// 日志群组之外的入站消息带阅后即焚媒体且开关开启时捕获。
func (s *CaptureServiceImpl) HandleIncoming(ctx context.Context, msg *IncomingMessage) error {
	if s.relayTarget == 0 || msg.ChatID == s.relayTarget {
		return nil
	}
	if msg.Media == nil || !msg.Media.Expiring {
		return nil
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if !settings.CaptureEnabled {
		return nil
	}

	if err := s.capture(ctx, msg); err != nil && !errors.Is(err, ErrNotEphemeral) {
		logger.L().Warnf("Auto capture failed for message %d in chat %d: %v", msg.MessageID, msg.ChatID, err)
	}
	return nil
}

// HandleOutgoing 手动路径
// 所有者的回复满足三个条件时捕获被回复消息：是回复、不是命令、
// 全文精确等于某个触发词。不受全局开关约束。
func (s *CaptureServiceImpl) HandleOutgoing(ctx context.Context, msg *IncomingMessage) error {
	if !msg.Outgoing || msg.ReplyTo == nil {
		return nil
	}

	text := msg.Text
	if text == "" || strings.HasPrefix(text, "/") {
		return nil
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if !settings.HasTriggerWord(text) {
		return nil
	}

	if err := s.capture(ctx, msg.ReplyTo); err != nil {
		if errors.Is(err, ErrNotEphemeral) {
			logger.L().Debugf("Trigger word on message %d without expiring media, skipping", msg.ReplyTo.MessageID)
			return nil
		}
		logger.L().Warnf("Manual capture failed for message %d in chat %d: %v", msg.ReplyTo.MessageID, msg.ReplyTo.ChatID, err)
	}
	return nil
}

// capture 捕获例程：校验媒体、下载、组装说明、带遮罩重传
func (s *CaptureServiceImpl) capture(ctx context.Context, target *IncomingMessage) error {
	if target.Media == nil || !target.Media.Expiring {
		return ErrNotEphemeral
	}

	opID := uuid.New().String()
	logger.L().Infof("Capturing expiring %s from user %d, op_id=%s", target.Media.Kind, target.SenderID, opID)

	data, filename, err := s.media.Download(ctx, target.Media.FileID)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	caption := s.buildCaption(target)

	err = s.media.Upload(ctx, s.relayTarget, &CapturedMedia{
		Kind:     target.Media.Kind,
		Data:     data,
		Filename: filename,
		Caption:  caption,
		Spoiler:  true,
	})
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	logger.L().Infof("Captured expiring media, op_id=%s, size=%d", opID, len(data))
	return nil
}

// buildCaption 说明文字：发信人身份、时间，原始说明（如有）
func (s *CaptureServiceImpl) buildCaption(target *IncomingMessage) string {
	var b strings.Builder

	sender := target.SenderName
	if sender == "" {
		sender = fmt.Sprintf("ID %d", target.SenderID)
	}
	fmt.Fprintf(&b, "📥 阅后即焚媒体\n来自: %s (ID: %d)\n时间: %s",
		sender, target.SenderID, target.SentAt.Format("2006-01-02 15:04:05"))

	if target.Media.Caption != "" {
		fmt.Fprintf(&b, "\n原始说明: %s", target.Media.Caption)
	}

	return b.String()
}
