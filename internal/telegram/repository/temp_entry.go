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

// MongoTempEntryRepository 临时监控条目数据访问层
type MongoTempEntryRepository struct {
	collection *mongo.Collection
}

// NewMongoTempEntryRepository 创建临时监控条目 Repository
func NewMongoTempEntryRepository(db *mongo.Database) *MongoTempEntryRepository {
	return &MongoTempEntryRepository{
		collection: db.Collection("temp_entries"),
	}
}

// PurgeExpired 删除所有 now 之前过期的条目
func (r *MongoTempEntryRepository) PurgeExpired(ctx context.Context, now time.Time) error {
	filter := bson.M{"expires_at": bson.M{"$lt": now}}

	if _, err := r.collection.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("failed to purge expired temp entries: %w", err)
	}
	return nil
}

// Contains 用户是否存在未过期条目
//
// 过期判断放在查询条件里，一次往返完成，不依赖调用方先清理过期行。
func (r *MongoTempEntryRepository) Contains(ctx context.Context, userID int64, now time.Time) (bool, error) {
	filter := bson.M{
		"user_id":    userID,
		"expires_at": bson.M{"$gte": now},
	}

	err := r.collection.FindOne(ctx, filter).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query temp entry: %w", err)
	}
	return true, nil
}

// Upsert 写入条目，替换同一用户的既有记录（每个用户最多一条）
func (r *MongoTempEntryRepository) Upsert(ctx context.Context, userID int64, expiresAt time.Time) error {
	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$set": bson.M{
			"user_id":    userID,
			"expires_at": expiresAt,
		},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert temp entry: %w", err)
	}
	return nil
}

// ExpiryOf 返回用户条目的过期时间，不存在时返回 nil
func (r *MongoTempEntryRepository) ExpiryOf(ctx context.Context, userID int64) (*time.Time, error) {
	var entry models.TempEntry
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&entry)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query temp entry expiry: %w", err)
	}
	return &entry.ExpiresAt, nil
}

// ListLive 列出所有未过期条目
func (r *MongoTempEntryRepository) ListLive(ctx context.Context, now time.Time) ([]*models.TempEntry, error) {
	filter := bson.M{"expires_at": bson.M{"$gte": now}}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list temp entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*models.TempEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode temp entries: %w", err)
	}
	return entries, nil
}

// EnsureIndexes 确保索引存在
func (r *MongoTempEntryRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "expires_at", Value: 1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes for temp_entries: %w", err)
	}

	return nil
}
