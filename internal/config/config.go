package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config 应用程序配置
type Config struct {
	TelegramToken    string  // Telegram Bot API Token
	BotOwnerIDs      []int64 // Bot 管理员 ID 列表（PM 监控命令仅限这些用户）
	MongoURI         string  // MongoDB 连接 URI
	MongoDBName      string  // MongoDB 数据库名称
	LogGroupID       int64   // PM 日志群组 ID（转发目标，0 表示未配置）
	MapRetentionDays int     // 消息映射保留天数（过期自动删除）
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	mongoDBName := os.Getenv("MONGO_DB_NAME")
	if mongoDBName == "" {
		mongoDBName = "pml_bot"
	}

	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDBName:   mongoDBName,
	}

	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	// 解析BOT_OWNER_IDS
	ownerIDsStr := os.Getenv("BOT_OWNER_IDS")
	if ownerIDsStr != "" {
		var err error
		cfg.BotOwnerIDs, err = parseOwnerIDs(ownerIDsStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse BOT_OWNER_IDS: %w", err)
		}
	}

	// 解析LOG_GROUP_ID（可选，未配置时转发功能不生效）
	logGroupStr := strings.TrimSpace(os.Getenv("LOG_GROUP_ID"))
	if logGroupStr != "" {
		logGroupID, err := strconv.ParseInt(logGroupStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse LOG_GROUP_ID: %w", err)
		}
		cfg.LogGroupID = logGroupID
	}

	// 解析MAP_RETENTION_DAYS（默认7天）
	retentionDaysStr := os.Getenv("MAP_RETENTION_DAYS")
	if retentionDaysStr == "" {
		cfg.MapRetentionDays = 7 // 默认保留7天
	} else {
		days, err := strconv.Atoi(retentionDaysStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse MAP_RETENTION_DAYS: %w", err)
		}
		if days < 1 {
			return nil, fmt.Errorf("MAP_RETENTION_DAYS must be >= 1, got %d", days)
		}
		cfg.MapRetentionDays = days
	}

	return cfg, nil
}

// parseOwnerIDs 解析逗号分隔的用户ID字符串
// 支持格式: "123456789" 或 "123456789,987654321"
func parseOwnerIDs(s string) ([]int64, error) {
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid owner ID %q: %w", part, err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}
