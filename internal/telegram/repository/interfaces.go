package repository

import (
	"context"
	"time"

	"pml_bot/internal/telegram/models"
)

// MonitoredUserRepository 永久监控名单数据访问接口
type MonitoredUserRepository interface {
	// List 列出所有被监控的用户 ID
	List(ctx context.Context) ([]int64, error)

	// Add 将用户加入名单，返回是否产生了变更（幂等）
	Add(ctx context.Context, userID int64) (bool, error)

	// Remove 将用户移出名单，返回是否产生了变更（幂等）
	Remove(ctx context.Context, userID int64) (bool, error)

	// EnsureIndexes 确保索引存在
	EnsureIndexes(ctx context.Context) error
}

// DialogRepository 对话快照数据访问接口
type DialogRepository interface {
	// ReplaceAll 原子地清空并重建快照
	ReplaceAll(ctx context.Context, userIDs []int64) error

	// Add 将单个用户并入快照（幂等）
	// 授予观察窗口时登记，保证窗口对每个联系人只授予一次。
	Add(ctx context.Context, userID int64) error

	// Contains 用户是否在快照中
	Contains(ctx context.Context, userID int64) (bool, error)

	// EnsureIndexes 确保索引存在
	EnsureIndexes(ctx context.Context) error
}

// TempEntryRepository 临时监控条目数据访问接口
type TempEntryRepository interface {
	// PurgeExpired 删除所有 now 之前过期的条目
	PurgeExpired(ctx context.Context, now time.Time) error

	// Contains 用户是否存在未过期条目（单次过滤查询，不依赖先行清理）
	Contains(ctx context.Context, userID int64, now time.Time) (bool, error)

	// Upsert 写入条目，替换同一用户的既有记录
	Upsert(ctx context.Context, userID int64, expiresAt time.Time) error

	// ExpiryOf 返回用户条目的过期时间，不存在时返回 nil
	ExpiryOf(ctx context.Context, userID int64) (*time.Time, error)

	// ListLive 列出所有未过期条目
	ListLive(ctx context.Context, now time.Time) ([]*models.TempEntry, error)

	// EnsureIndexes 确保索引存在
	EnsureIndexes(ctx context.Context) error
}

// MessageMapRepository 消息映射数据访问接口
type MessageMapRepository interface {
	// Record 写入映射；(chat_id, message_id) 已存在时静默覆盖
	Record(ctx context.Context, m *models.MessageMap) error

	// Lookup 查询映射，不存在时返回 (nil, nil)
	Lookup(ctx context.Context, chatID int64, messageID int) (*models.MessageMap, error)

	// Remove 删除映射（不存在时为 no-op）
	Remove(ctx context.Context, chatID int64, messageID int) error

	// EnsureIndexes 确保索引存在；retentionDays 控制 TTL 索引的过期时间
	EnsureIndexes(ctx context.Context, retentionDays int) error
}

// SettingsRepository 功能开关数据访问接口
type SettingsRepository interface {
	// Get 读取配置，文档不存在时返回默认值
	Get(ctx context.Context) (*models.Settings, error)

	// SetRelayEnabled 设置转发开关
	SetRelayEnabled(ctx context.Context, enabled bool) error

	// SetCaptureEnabled 设置媒体捕获开关
	SetCaptureEnabled(ctx context.Context, enabled bool) error

	// SetWindowMinutes 设置新联系人观察窗口（分钟）
	SetWindowMinutes(ctx context.Context, minutes int) error

	// AddTriggerWord 添加触发词，返回是否产生了变更
	AddTriggerWord(ctx context.Context, word string) (bool, error)

	// RemoveTriggerWord 删除触发词，返回是否产生了变更
	RemoveTriggerWord(ctx context.Context, word string) (bool, error)
}

// ContactRepository 已见联系人数据访问接口
type ContactRepository interface {
	// Upsert 创建或更新联系人
	Upsert(ctx context.Context, contact *models.Contact) error

	// GetByUserID 查询联系人，不存在时返回 (nil, nil)
	GetByUserID(ctx context.Context, userID int64) (*models.Contact, error)

	// ResolveUsername 按 username 解析用户 ID，found=false 表示未知
	ResolveUsername(ctx context.Context, username string) (int64, bool, error)

	// ListIDs 列出所有已见联系人的用户 ID
	ListIDs(ctx context.Context) ([]int64, error)

	// EnsureIndexes 确保索引存在
	EnsureIndexes(ctx context.Context) error
}
