package telegram

import (
	"context"

	"pml_bot/internal/logger"

	"github.com/go-telegram/bot"
	botModels "github.com/go-telegram/bot/models"
)

// RequireOwner 中间件：仅允许配置的 Bot 管理员执行
// 监控命令全部归属账号所有者，不走数据库角色体系。
func (b *Bot) RequireOwner(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
		if update.Message == nil || update.Message.From == nil {
			return
		}

		if !b.isOwner(update.Message.From.ID) {
			logger.L().Warnf("Non-owner user %d attempted to use owner command", update.Message.From.ID)
			b.sendErrorMessage(ctx, update.Message.Chat.ID, "此命令仅限 Bot Owner 使用")
			return
		}

		next(ctx, botInstance, update)
	}
}

// asyncHandler 把命令 handler 的执行移交工作池
func (b *Bot) asyncHandler(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
		b.pool.Submit(EventTask{
			Name: "command",
			Run:  func() { next(ctx, botInstance, update) },
		})
	}
}
