package repository

import (
	"context"
	"fmt"
	"time"

	"pml_bot/internal/telegram/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoMessageMapRepository 消息映射数据访问层
type MongoMessageMapRepository struct {
	collection *mongo.Collection
}

// NewMongoMessageMapRepository 创建消息映射 Repository
func NewMongoMessageMapRepository(db *mongo.Database) *MongoMessageMapRepository {
	return &MongoMessageMapRepository{
		collection: db.Collection("message_map"),
	}
}

// Record 写入映射
// 同一 (chat_id, message_id) 已存在时静默覆盖——正常流程不会出现，
// 但重复转发不能导致写入失败。
func (r *MongoMessageMapRepository) Record(ctx context.Context, m *models.MessageMap) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	filter := bson.M{
		"chat_id":    m.ChatID,
		"message_id": m.MessageID,
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, filter, m, opts); err != nil {
		return fmt.Errorf("failed to record message mapping: %w", err)
	}
	return nil
}

// Lookup 查询映射，不存在时返回 (nil, nil)
func (r *MongoMessageMapRepository) Lookup(ctx context.Context, chatID int64, messageID int) (*models.MessageMap, error) {
	filter := bson.M{
		"chat_id":    chatID,
		"message_id": messageID,
	}

	var m models.MessageMap
	err := r.collection.FindOne(ctx, filter).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lookup message mapping: %w", err)
	}
	return &m, nil
}

// Remove 删除映射（不存在时为 no-op）
func (r *MongoMessageMapRepository) Remove(ctx context.Context, chatID int64, messageID int) error {
	filter := bson.M{
		"chat_id":    chatID,
		"message_id": messageID,
	}

	if _, err := r.collection.DeleteOne(ctx, filter); err != nil {
		return fmt.Errorf("failed to remove message mapping: %w", err)
	}
	return nil
}

// EnsureIndexes 确保索引存在
func (r *MongoMessageMapRepository) EnsureIndexes(ctx context.Context, retentionDays int) error {
	indexes := []mongo.IndexModel{
		// 复合唯一索引（删除事件按原始消息反查）
		{
			Keys: bson.D{
				{Key: "chat_id", Value: 1},
				{Key: "message_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		// TTL 索引：上游对从未删除的消息不会有事件，按保留期自动回收
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(retentionDays) * 24 * 3600),
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes for message_map: %w", err)
	}

	return nil
}
