package service

import (
	"context"
	"time"

	"pml_bot/internal/telegram/models"
)

// MediaKind 媒体类型
type MediaKind string

const (
	MediaKindPhoto     MediaKind = "photo"
	MediaKindVideo     MediaKind = "video"
	MediaKindVideoNote MediaKind = "video_note"
	MediaKindVoice     MediaKind = "voice"
)

// MediaInfo 消息携带的媒体信息
type MediaInfo struct {
	Kind     MediaKind
	FileID   string // Bot API file_id，用于下载
	Caption  string
	Expiring bool // 是否为受保护/阅后即焚媒体（无法转发，需下载重传）
}

// IncomingMessage 私聊消息事件（telegram 层从 business_message 更新构造）
type IncomingMessage struct {
	SenderID       int64
	ChatID         int64
	MessageID      int
	IsPrivate      bool
	Outgoing       bool // 是否为账号所有者发出的消息
	Text           string
	SenderName     string
	SenderUsername string
	SentAt         time.Time
	Media          *MediaInfo
	ReplyTo        *IncomingMessage // 被回复的消息（仅一层）
}

// DeletionEvent 消息删除事件（telegram 层从 deleted_business_messages 构造）
type DeletionEvent struct {
	ChatID     int64
	MessageIDs []int
}

// RelayPort 消息转发/通知能力（由 telegram 层实现）
type RelayPort interface {
	// Relay 把原始消息复制到目标群组，返回副本的消息 ID
	Relay(ctx context.Context, target int64, msg *IncomingMessage) (int, error)

	// Notify 向目标群组发送文本通知，replyTo > 0 时回复指定消息
	Notify(ctx context.Context, target int64, text string, replyTo int) error
}

// CapturedMedia 待重传的媒体
type CapturedMedia struct {
	Kind     MediaKind
	Data     []byte
	Filename string
	Caption  string
	Spoiler  bool // 以遮罩（spoiler）形式发送，手动点开
}

// MediaPort 媒体下载/上传能力（由 telegram 层实现）
type MediaPort interface {
	// Download 按 file_id 拉取原始字节，返回数据和建议文件名
	Download(ctx context.Context, fileID string) ([]byte, string, error)

	// Upload 把捕获的媒体发送到目标群组
	Upload(ctx context.Context, target int64, media *CapturedMedia) error
}

// ContactDirectory 联系人目录能力
type ContactDirectory interface {
	// Resolve 把用户输入（数字 ID 或 @username）解析为用户 ID，found=false 表示无法解析
	Resolve(ctx context.Context, identifier string) (int64, bool, error)

	// ListDialogIDs 列出当前已知的全部私聊对象 ID（仅在启用转发时调用一次）
	ListDialogIDs(ctx context.Context) ([]int64, error)
}

// SettingsProvider 配置读取接口（repository 或其缓存包装均可满足）
type SettingsProvider interface {
	Get(ctx context.Context) (*models.Settings, error)
}

// RelayService 私聊转发决策引擎
type RelayService interface {
	// HandleIncoming 处理一条入站私聊消息：判定是否转发，
	// 转发成功后记录消息映射。转发失败只记日志，不向上传播。
	HandleIncoming(ctx context.Context, msg *IncomingMessage) error
}

// DeletionService 删除事件对账
type DeletionService interface {
	// HandleDeleted 处理一条删除事件：逐条反查映射、发出通知并清理映射。
	// 转发关闭或未配置目标时整个事件为 no-op（保留映射表）。
	HandleDeleted(ctx context.Context, ev *DeletionEvent) error
}

// CaptureService 阅后即焚媒体捕获
type CaptureService interface {
	// HandleIncoming 自动路径：开关开启且入站消息带阅后即焚媒体时捕获
	HandleIncoming(ctx context.Context, msg *IncomingMessage) error

	// HandleOutgoing 手动路径：所有者回复的全文精确命中触发词时捕获被回复消息，
	// 不受全局开关约束
	HandleOutgoing(ctx context.Context, msg *IncomingMessage) error
}

// MonitoredStatus 监控名单条目及剩余时长
type MonitoredStatus struct {
	UserID           int64
	MinutesRemaining *int // nil 表示永久监控
}

// SettingsService 命令层消费的配置操作
type SettingsService interface {
	// Status 读取当前全部开关与参数
	Status(ctx context.Context) (*models.Settings, error)

	// SetRelayEnabled 开关转发；启用时重建对话快照。返回状态是否发生变化
	SetRelayEnabled(ctx context.Context, enabled bool) (bool, error)

	// SetObservationWindow 设置新联系人观察窗口（分钟，0=禁用）
	SetObservationWindow(ctx context.Context, minutes int) error

	// AddMonitored 加入永久监控名单
	AddMonitored(ctx context.Context, userID int64) (bool, error)

	// RemoveMonitored 移出永久监控名单
	RemoveMonitored(ctx context.Context, userID int64) (bool, error)

	// ListMonitored 列出永久名单与未过期的临时条目
	ListMonitored(ctx context.Context) ([]MonitoredStatus, error)

	// SetCaptureEnabled 开关自动媒体捕获。返回状态是否发生变化
	SetCaptureEnabled(ctx context.Context, enabled bool) (bool, error)

	// AddTriggerWord 添加手动捕获触发词
	AddTriggerWord(ctx context.Context, word string) (bool, error)

	// RemoveTriggerWord 删除手动捕获触发词
	RemoveTriggerWord(ctx context.Context, word string) (bool, error)

	// ListTriggerWords 列出全部触发词
	ListTriggerWords(ctx context.Context) ([]string, error)

	// ResolveContact 解析用户输入的联系人标识，found=false 表示无法解析
	ResolveContact(ctx context.Context, identifier string) (int64, bool, error)
}
