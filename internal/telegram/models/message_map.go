package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageMap 原始消息与日志副本的对应关系（用于删除检测）
//
// 每条成功转发的消息写入一行；观察到对应的删除事件并完成通知后删除。
// created_at 上有 TTL 索引，超过保留期的行自动清理——上游对从未被
// 删除的消息不会发出任何事件，不能依赖删除事件来回收。
type MessageMap struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	ChatID          int64              `bson:"chat_id"`           // 原始私聊 ID
	MessageID       int                `bson:"message_id"`        // 原始消息 ID
	LoggedMessageID int                `bson:"logged_message_id"` // 日志群组中副本的消息 ID
	CreatedAt       time.Time          `bson:"created_at"`        // 创建时间（TTL索引）
}
