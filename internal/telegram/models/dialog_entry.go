package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DialogEntry 对话快照条目
//
// 启用转发（/pml_on）时整表重置为当前已知私聊对象的快照，
// 之后不再同步更新——快照之外的发信人即视为"新联系人"。
type DialogEntry struct {
	ID      primitive.ObjectID `bson:"_id,omitempty"`
	UserID  int64              `bson:"user_id"`  // Telegram 用户 ID（唯一）
	SavedAt time.Time          `bson:"saved_at"` // 快照写入时间
}
