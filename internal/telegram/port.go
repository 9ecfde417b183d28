package telegram

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"pml_bot/internal/telegram/repository"
	"pml_bot/internal/telegram/service"

	"github.com/go-telegram/bot"
	botModels "github.com/go-telegram/bot/models"
)

// botPort 基于 Bot API 实现服务层的外部能力端口
// （service.RelayPort / service.MediaPort / service.ContactDirectory）
type botPort struct {
	bot         *bot.Bot
	contactRepo repository.ContactRepository
	httpClient  *http.Client
}

func newBotPort(b *bot.Bot, contactRepo repository.ContactRepository) *botPort {
	return &botPort{
		bot:         b,
		contactRepo: contactRepo,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Relay 把原始消息静默转发到目标群组，返回副本的消息 ID
func (p *botPort) Relay(ctx context.Context, target int64, msg *service.IncomingMessage) (int, error) {
	forwarded, err := p.bot.ForwardMessage(ctx, &bot.ForwardMessageParams{
		ChatID:              target,
		FromChatID:          msg.ChatID,
		MessageID:           msg.MessageID,
		DisableNotification: true,
	})
	if err != nil {
		return 0, fmt.Errorf("forward message: %w", err)
	}
	return forwarded.ID, nil
}

// Notify 向目标群组发送文本通知
func (p *botPort) Notify(ctx context.Context, target int64, text string, replyTo int) error {
	params := &bot.SendMessageParams{
		ChatID: target,
		Text:   text,
	}
	if replyTo > 0 {
		params.ReplyParameters = &botModels.ReplyParameters{
			MessageID: replyTo,
		}
	}

	if _, err := p.bot.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	return nil
}

// Download 按 file_id 拉取原始字节
func (p *botPort) Download(ctx context.Context, fileID string) ([]byte, string, error) {
	file, err := p.bot.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, "", fmt.Errorf("get file: %w", err)
	}

	link := p.bot.FileDownloadLink(file)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build download request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download file: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read file body: %w", err)
	}

	filename := path.Base(file.FilePath)
	if filename == "." || filename == "/" {
		filename = fileID
	}
	return data, filename, nil
}

// Upload 把捕获的媒体发送到目标群组
// 照片/视频以遮罩（spoiler）形式发送；语音不支持遮罩，原样发送。
func (p *botPort) Upload(ctx context.Context, target int64, media *service.CapturedMedia) error {
	input := &botModels.InputFileUpload{
		Filename: media.Filename,
		Data:     bytes.NewReader(media.Data),
	}

	var err error
	switch media.Kind {
	case service.MediaKindPhoto:
		_, err = p.bot.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID:     target,
			Photo:      input,
			Caption:    media.Caption,
			HasSpoiler: media.Spoiler,
		})
	case service.MediaKindVideo, service.MediaKindVideoNote:
		// video note 以普通视频重传，否则无法附带说明和遮罩
		_, err = p.bot.SendVideo(ctx, &bot.SendVideoParams{
			ChatID:     target,
			Video:      input,
			Caption:    media.Caption,
			HasSpoiler: media.Spoiler,
		})
	case service.MediaKindVoice:
		_, err = p.bot.SendVoice(ctx, &bot.SendVoiceParams{
			ChatID:  target,
			Voice:   input,
			Caption: media.Caption,
		})
	default:
		return fmt.Errorf("unsupported media kind: %s", media.Kind)
	}

	if err != nil {
		return fmt.Errorf("upload %s: %w", media.Kind, err)
	}
	return nil
}

// Resolve 把 @username 解析为用户 ID（仅覆盖见过的联系人）
func (p *botPort) Resolve(ctx context.Context, identifier string) (int64, bool, error) {
	username := strings.TrimPrefix(identifier, "@")
	if username == "" {
		return 0, false, nil
	}
	return p.contactRepo.ResolveUsername(ctx, username)
}

// ListDialogIDs 列出当前已知的全部私聊对象 ID
func (p *botPort) ListDialogIDs(ctx context.Context) ([]int64, error) {
	return p.contactRepo.ListIDs(ctx)
}
