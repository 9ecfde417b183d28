package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDialogRepository 对话快照数据访问层
type MongoDialogRepository struct {
	collection *mongo.Collection
}

// NewMongoDialogRepository 创建对话快照 Repository
func NewMongoDialogRepository(db *mongo.Database) *MongoDialogRepository {
	return &MongoDialogRepository{
		collection: db.Collection("dialog_snapshot"),
	}
}

// ReplaceAll 清空并重建快照
//
// 清空和重建合并为一次有序 BulkWrite，避免读取方观察到
// "已清空未重建"的中间状态跨越多个命令。
func (r *MongoDialogRepository) ReplaceAll(ctx context.Context, userIDs []int64) error {
	now := time.Now()

	writes := make([]mongo.WriteModel, 0, len(userIDs)+1)
	writes = append(writes, mongo.NewDeleteManyModel().SetFilter(bson.M{}))
	for _, uid := range userIDs {
		writes = append(writes, mongo.NewInsertOneModel().SetDocument(bson.M{
			"user_id":  uid,
			"saved_at": now,
		}))
	}

	opts := options.BulkWrite().SetOrdered(true)
	if _, err := r.collection.BulkWrite(ctx, writes, opts); err != nil {
		return fmt.Errorf("failed to replace dialog snapshot: %w", err)
	}
	return nil
}

// Add 将单个用户并入快照（幂等，已存在时为 no-op）
func (r *MongoDialogRepository) Add(ctx context.Context, userID int64) error {
	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"user_id":  userID,
			"saved_at": time.Now(),
		},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to add dialog entry: %w", err)
	}
	return nil
}

// Contains 用户是否在快照中
func (r *MongoDialogRepository) Contains(ctx context.Context, userID int64) (bool, error) {
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query dialog snapshot: %w", err)
	}
	return true, nil
}

// EnsureIndexes 确保索引存在
func (r *MongoDialogRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes for dialog_snapshot: %w", err)
	}

	return nil
}
