package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TempEntry 新联系人临时监控条目
//
// 新联系人首次来信时写入，带过期时间戳；过期后条目逻辑失效，
// 查询前必须先过滤或清理过期行。每个用户最多一条有效记录。
type TempEntry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    int64              `bson:"user_id"`    // Telegram 用户 ID（唯一）
	ExpiresAt time.Time          `bson:"expires_at"` // 过期时间
}

// Expired 条目在 now 时刻是否已过期
func (e *TempEntry) Expired(now time.Time) bool {
	return e.ExpiresAt.Before(now)
}

// MinutesRemaining 剩余监控分钟数（向上取整，已过期返回 0）
func (e *TempEntry) MinutesRemaining(now time.Time) int {
	if e.Expired(now) {
		return 0
	}
	remaining := e.ExpiresAt.Sub(now)
	minutes := int((remaining + time.Minute - 1) / time.Minute)
	return minutes
}
