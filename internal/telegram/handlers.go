package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"pml_bot/internal/logger"

	"github.com/go-telegram/bot"
	botModels "github.com/go-telegram/bot/models"
)

// registerHandlers 注册所有命令处理器（异步执行，仅限 Owner）
func (b *Bot) registerHandlers() {
	ownerCmd := func(pattern string, matchType bot.MatchType, handler bot.HandlerFunc) {
		b.bot.RegisterHandler(bot.HandlerTypeMessageText, pattern, matchType,
			b.asyncHandler(b.RequireOwner(handler)))
	}

	// 转发开关与名单管理
	ownerCmd("/pml_on", bot.MatchTypeExact, b.handleRelayOn)
	ownerCmd("/pml_off", bot.MatchTypeExact, b.handleRelayOff)
	ownerCmd("/pml_add", bot.MatchTypePrefix, b.handleMonitorAdd)
	ownerCmd("/pml_del", bot.MatchTypePrefix, b.handleMonitorDel)
	ownerCmd("/pml_time", bot.MatchTypePrefix, b.handleWindow)
	ownerCmd("/pml_list", bot.MatchTypeExact, b.handleMonitorList)

	// 媒体捕获
	ownerCmd("/capture_on", bot.MatchTypeExact, b.handleCaptureOn)
	ownerCmd("/capture_off", bot.MatchTypeExact, b.handleCaptureOff)
	ownerCmd("/trigger_add", bot.MatchTypePrefix, b.handleTriggerAdd)
	ownerCmd("/trigger_del", bot.MatchTypePrefix, b.handleTriggerDel)
	ownerCmd("/trigger_list", bot.MatchTypeExact, b.handleTriggerList)

	ownerCmd("/status", bot.MatchTypeExact, b.handleStatus)

	logger.L().Debug("All command handlers registered")
}

// handleRelayOn 处理 /pml_on 命令
func (b *Bot) handleRelayOn(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	chatID := update.Message.Chat.ID

	changed, err := b.settingsService.SetRelayEnabled(ctx, true)
	if err != nil {
		b.sendErrorMessage(ctx, chatID, "启用失败: "+err.Error())
		return
	}
	if !changed {
		b.sendMessage(ctx, chatID, "转发已处于启用状态")
		return
	}

	b.sendSuccessMessage(ctx, chatID, "私聊转发已启用，当前对话快照已保存")
}

// handleRelayOff 处理 /pml_off 命令
func (b *Bot) handleRelayOff(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	chatID := update.Message.Chat.ID

	changed, err := b.settingsService.SetRelayEnabled(ctx, false)
	if err != nil {
		b.sendErrorMessage(ctx, chatID, "停用失败: "+err.Error())
		return
	}
	if !changed {
		b.sendMessage(ctx, chatID, "转发已处于停用状态")
		return
	}

	b.sendSuccessMessage(ctx, chatID, "私聊转发已停用")
}

// handleMonitorAdd 处理 /pml_add 命令（加入永久监控名单）
func (b *Bot) handleMonitorAdd(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	chatID := update.Message.Chat.ID

	userID, ok := b.resolveCommandTarget(ctx, update)
	if !ok {
		b.sendErrorMessage(ctx, chatID, "无法解析用户，请使用数字 ID 或已知联系人的 @username")
		return
	}

	changed, err := b.settingsService.AddMonitored(ctx, userID)
	if err != nil {
		b.sendErrorMessage(ctx, chatID, "添加失败: "+err.Error())
		return
	}
	if !changed {
		b.sendMessage(ctx, chatID, fmt.Sprintf("用户 %d 已在监控名单中", userID))
		return
	}

	b.sendSuccessMessage(ctx, chatID, fmt.Sprintf("用户 %d 已加入监控名单", userID))
}

// handleMonitorDel 处理 /pml_del 命令（移出永久监控名单）
func (b *Bot) handleMonitorDel(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	chatID := update.Message.Chat.ID

	userID, ok := b.resolveCommandTarget(ctx, update)
	if !ok {
		b.sendErrorMessage(ctx, chatID, "无法解析用户，请使用数字 ID 或已知联系人的 @username")
		return
	}

	changed, err := b.settingsService.RemoveMonitored(ctx, userID)
	if err != nil {
		b.sendErrorMessage(ctx, chatID, "移除失败: "+err.Error())
		return
	}
	if !changed {
		b.sendMessage(ctx, chatID, fmt.Sprintf("用户 %d 不在监控名单中", userID))
		return
	}

	b.sendSuccessMessage(ctx, chatID, fmt.Sprintf("用户 %d 已移出监控名单", userID))
}

// handleWindow 处理 /pml_time 命令（设置新联系人观察窗口）
func (b *Bot) handleWindow(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	chatID := update.Message.Chat.ID

	parts := strings.Fields(update.Message.Text)
	if len(parts) < 2 {
		b.sendErrorMessage(ctx, chatID, "用法: /pml_time <分钟>\n例如: /pml_time 60（0 表示关闭）")
		return
	}

	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 {
		b.sendErrorMessage(ctx, chatID, "无效的分钟数")
		return
	}

	if err := b.settingsService.SetObservationWindow(ctx, minutes); err != nil {
		b.sendErrorMessage(ctx, chatID, "设置失败: "+err.Error())
		return
	}

	if minutes == 0 {
		b.sendSuccessMessage(ctx, chatID, "新联系人临时监控已关闭")
		return
	}
	b.sendSuccessMessage(ctx, chatID, fmt.Sprintf("新联系人将被监控 %d 分钟", minutes))
}

// handleMonitorList 处理 /pml_list 命令
func (b *Bot) handleMonitorList(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	chatID := update.Message.Chat.ID

	statuses, err := b.settingsService.ListMonitored(ctx)
	if err != nil {
		b.sendErrorMessage(ctx, chatID, "查询失败: "+err.Error())
		return
	}

	if len(statuses) == 0 {
		b.sendMessage(ctx, chatID, "监控名单为空")
		return
	}

	var sb strings.Builder
	sb.WriteString("📋 监控名单:\n")
	for _, s := range statuses {
		if s.MinutesRemaining == nil {
			fmt.Fprintf(&sb, "• %d（永久）\n", s.UserID)
		} else {
			fmt.Fprintf(&sb, "• %d（剩余 %d 分钟）\n", s.UserID, *s.MinutesRemaining)
		}
	}
	b.sendMessage(ctx, chatID, sb.String())
}

// handleCaptureOn 处理 /capture_on 命令
func (b *Bot) handleCaptureOn(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	b.toggleCapture(ctx, update.Message.Chat.ID, true)
}

// handleCaptureOff 处理 /capture_off 命令
func (b *Bot) handleCaptureOff(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	b.toggleCapture(ctx, update.Message.Chat.ID, false)
}

func (b *Bot) toggleCapture(ctx context.Context, chatID int64, enabled bool) {
	changed, err := b.settingsService.SetCaptureEnabled(ctx, enabled)
	if err != nil {
		b.sendErrorMessage(ctx, chatID, "设置失败: "+err.Error())
		return
	}

	state := "停用"
	if enabled {
		state = "启用"
	}
	if !changed {
		b.sendMessage(ctx, chatID, "自动媒体捕获已处于"+state+"状态")
		return
	}
	b.sendSuccessMessage(ctx, chatID, "自动媒体捕获已"+state)
}

// handleTriggerAdd 处理 /trigger_add 命令
func (b *Bot) handleTriggerAdd(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	chatID := update.Message.Chat.ID

	parts := strings.Fields(update.Message.Text)
	if len(parts) < 2 {
		b.sendErrorMessage(ctx, chatID, "用法: /trigger_add <触发词>")
		return
	}
	word := parts[1]

	changed, err := b.settingsService.AddTriggerWord(ctx, word)
	if err != nil {
		b.sendErrorMessage(ctx, chatID, "添加失败: "+err.Error())
		return
	}
	if !changed {
		b.sendMessage(ctx, chatID, fmt.Sprintf("触发词 %q 已存在", word))
		return
	}

	b.sendSuccessMessage(ctx, chatID, fmt.Sprintf("触发词 %q 已添加", word))
}

// handleTriggerDel 处理 /trigger_del 命令
func (b *Bot) handleTriggerDel(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	chatID := update.Message.Chat.ID

	parts := strings.Fields(update.Message.Text)
	if len(parts) < 2 {
		b.sendErrorMessage(ctx, chatID, "用法: /trigger_del <触发词>")
		return
	}
	word := parts[1]

	changed, err := b.settingsService.RemoveTriggerWord(ctx, word)
	if err != nil {
		b.sendErrorMessage(ctx, chatID, "删除失败: "+err.Error())
		return
	}
	if !changed {
		b.sendMessage(ctx, chatID, fmt.Sprintf("触发词 %q 不存在", word))
		return
	}

	b.sendSuccessMessage(ctx, chatID, fmt.Sprintf("触发词 %q 已删除", word))
}

// handleTriggerList 处理 /trigger_list 命令
func (b *Bot) handleTriggerList(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	chatID := update.Message.Chat.ID

	words, err := b.settingsService.ListTriggerWords(ctx)
	if err != nil {
		b.sendErrorMessage(ctx, chatID, "查询失败: "+err.Error())
		return
	}

	if len(words) == 0 {
		b.sendMessage(ctx, chatID, "未配置触发词")
		return
	}
	b.sendMessage(ctx, chatID, "🔑 触发词: "+strings.Join(words, ", "))
}

// handleStatus 处理 /status 命令
func (b *Bot) handleStatus(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	chatID := update.Message.Chat.ID

	settings, err := b.settingsService.Status(ctx)
	if err != nil {
		b.sendErrorMessage(ctx, chatID, "查询失败: "+err.Error())
		return
	}

	onOff := func(v bool) string {
		if v {
			return "开"
		}
		return "关"
	}

	text := fmt.Sprintf(
		"📊 当前状态\n私聊转发: %s\n自动捕获: %s\n观察窗口: %d 分钟\n触发词数: %d\n日志群组: %d",
		onOff(settings.RelayEnabled), onOff(settings.CaptureEnabled),
		settings.WindowMinutes, len(settings.TriggerWords), b.cfg.LogGroupID,
	)
	b.sendMessage(ctx, chatID, text)
}

// resolveCommandTarget 解析命令的目标用户
// 无参数时取当前聊天 ID（与在目标私聊中直接执行命令的习惯一致）。
func (b *Bot) resolveCommandTarget(ctx context.Context, update *botModels.Update) (int64, bool) {
	parts := strings.Fields(update.Message.Text)
	if len(parts) < 2 {
		return update.Message.Chat.ID, true
	}

	userID, found, err := b.settingsService.ResolveContact(ctx, parts[1])
	if err != nil {
		logger.L().Errorf("Failed to resolve contact %q: %v", parts[1], err)
		return 0, false
	}
	return userID, found
}
