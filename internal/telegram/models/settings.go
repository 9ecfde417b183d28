package models

import (
	"time"
)

// SettingsDocID settings 集合中唯一文档的 _id
const SettingsDocID = "pml"

// Settings 监控功能的持久化开关与参数
//
// 单文档存储，进程内带失效缓存（见 service 包 SettingsCache），
// 每个事件都会读取，写入时缓存失效。
type Settings struct {
	DocID          string    `bson:"_id"`             // 固定为 SettingsDocID
	RelayEnabled   bool      `bson:"relay_enabled"`   // 是否启用私聊转发
	CaptureEnabled bool      `bson:"capture_enabled"` // 是否自动捕获阅后即焚媒体
	WindowMinutes  int       `bson:"window_minutes"`  // 新联系人观察窗口（分钟，0=禁用）
	TriggerWords   []string  `bson:"trigger_words"`   // 手动捕获触发词集合
	UpdatedAt      time.Time `bson:"updated_at"`      // 最后修改时间
}

// DefaultSettings 返回功能全部关闭的初始配置
func DefaultSettings() *Settings {
	return &Settings{
		DocID:     SettingsDocID,
		UpdatedAt: time.Now(),
	}
}

// Window 观察窗口时长
func (s *Settings) Window() time.Duration {
	return time.Duration(s.WindowMinutes) * time.Minute
}

// HasTriggerWord 文本是否精确等于某个触发词
func (s *Settings) HasTriggerWord(text string) bool {
	for _, w := range s.TriggerWords {
		if w == text {
			return true
		}
	}
	return false
}
