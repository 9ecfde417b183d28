package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MonitoredUser 永久监控名单条目
// 出现在名单上的用户，其私聊消息始终转发到日志群组，不受时限约束
type MonitoredUser struct {
	ID      primitive.ObjectID `bson:"_id,omitempty"`
	UserID  int64              `bson:"user_id"`  // Telegram 用户 ID（唯一）
	AddedAt time.Time          `bson:"added_at"` // 加入名单时间
}
