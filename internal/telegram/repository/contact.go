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

// MongoContactRepository 已见联系人数据访问层
type MongoContactRepository struct {
	collection *mongo.Collection
}

// NewMongoContactRepository 创建联系人 Repository
func NewMongoContactRepository(db *mongo.Database) *MongoContactRepository {
	return &MongoContactRepository{
		collection: db.Collection("contacts"),
	}
}

// Upsert 创建或更新联系人
func (r *MongoContactRepository) Upsert(ctx context.Context, contact *models.Contact) error {
	if contact.LastSeenAt.IsZero() {
		contact.LastSeenAt = time.Now()
	}

	filter := bson.M{"user_id": contact.UserID}
	update := bson.M{
		"$set": bson.M{
			"username":     contact.Username,
			"first_name":   contact.FirstName,
			"last_name":    contact.LastName,
			"last_seen_at": contact.LastSeenAt,
		},
		"$setOnInsert": bson.M{
			"user_id": contact.UserID,
		},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert contact: %w", err)
	}
	return nil
}

// GetByUserID 查询联系人，不存在时返回 (nil, nil)
func (r *MongoContactRepository) GetByUserID(ctx context.Context, userID int64) (*models.Contact, error) {
	var c models.Contact
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return &c, nil
}

// ResolveUsername 按 username 解析用户 ID
// 只覆盖见过的联系人；Bot API 不提供全局用户名解析
func (r *MongoContactRepository) ResolveUsername(ctx context.Context, username string) (int64, bool, error) {
	var c models.Contact
	err := r.collection.FindOne(ctx, bson.M{"username": username}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to resolve username: %w", err)
	}
	return c.UserID, true, nil
}

// ListIDs 列出所有已见联系人的用户 ID
func (r *MongoContactRepository) ListIDs(ctx context.Context) ([]int64, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer cursor.Close(ctx)

	var contacts []*models.Contact
	if err := cursor.All(ctx, &contacts); err != nil {
		return nil, fmt.Errorf("failed to decode contacts: %w", err)
	}

	ids := make([]int64, 0, len(contacts))
	for _, c := range contacts {
		ids = append(ids, c.UserID)
	}
	return ids, nil
}

// EnsureIndexes 确保索引存在
func (r *MongoContactRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "username", Value: 1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes for contacts: %w", err)
	}

	return nil
}
