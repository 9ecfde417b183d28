package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Contact 已见过的私聊对象
//
// Bot API 无法枚举历史对话，所以每收到一条私聊消息就 upsert 一行，
// 作为对话快照的数据源，同时支持 @username 到 ID 的解析。
type Contact struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	UserID     int64              `bson:"user_id"`            // Telegram 用户 ID（唯一）
	Username   string             `bson:"username,omitempty"` // @username（可能为空）
	FirstName  string             `bson:"first_name"`         // 名字
	LastName   string             `bson:"last_name,omitempty"`
	LastSeenAt time.Time          `bson:"last_seen_at"` // 最后来信时间
}

// DisplayName 用于通知文案的联系人标识
func (c *Contact) DisplayName() string {
	name := c.FirstName
	if c.LastName != "" {
		name += " " + c.LastName
	}
	if name == "" && c.Username != "" {
		name = "@" + c.Username
	}
	return name
}
