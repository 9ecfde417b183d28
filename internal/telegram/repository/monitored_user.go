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

// MongoMonitoredUserRepository 永久监控名单数据访问层
type MongoMonitoredUserRepository struct {
	collection *mongo.Collection
}

// NewMongoMonitoredUserRepository 创建监控名单 Repository
func NewMongoMonitoredUserRepository(db *mongo.Database) *MongoMonitoredUserRepository {
	return &MongoMonitoredUserRepository{
		collection: db.Collection("monitored_users"),
	}
}

// List 列出所有被监控的用户 ID
func (r *MongoMonitoredUserRepository) List(ctx context.Context) ([]int64, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list monitored users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []*models.MonitoredUser
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode monitored users: %w", err)
	}

	ids := make([]int64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.UserID)
	}
	return ids, nil
}

// Add 将用户加入名单（幂等，重复添加不产生变更）
func (r *MongoMonitoredUserRepository) Add(ctx context.Context, userID int64) (bool, error) {
	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"user_id":  userID,
			"added_at": time.Now(),
		},
	}

	opts := options.Update().SetUpsert(true)
	result, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return false, fmt.Errorf("failed to add monitored user: %w", err)
	}

	return result.UpsertedCount > 0, nil
}

// Remove 将用户移出名单（不存在时为 no-op）
func (r *MongoMonitoredUserRepository) Remove(ctx context.Context, userID int64) (bool, error) {
	result, err := r.collection.DeleteOne(ctx, bson.M{"user_id": userID})
	if err != nil {
		return false, fmt.Errorf("failed to remove monitored user: %w", err)
	}
	return result.DeletedCount > 0, nil
}

// EnsureIndexes 确保索引存在
func (r *MongoMonitoredUserRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes for monitored_users: %w", err)
	}

	return nil
}
