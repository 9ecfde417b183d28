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

// MongoSettingsRepository 功能开关数据访问层（单文档）
type MongoSettingsRepository struct {
	collection *mongo.Collection
}

// NewMongoSettingsRepository 创建功能开关 Repository
func NewMongoSettingsRepository(db *mongo.Database) *MongoSettingsRepository {
	return &MongoSettingsRepository{
		collection: db.Collection("settings"),
	}
}

// Get 读取配置，文档不存在时返回默认值（全部关闭）
func (r *MongoSettingsRepository) Get(ctx context.Context) (*models.Settings, error) {
	var s models.Settings
	err := r.collection.FindOne(ctx, bson.M{"_id": models.SettingsDocID}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return models.DefaultSettings(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return &s, nil
}

// SetRelayEnabled 设置转发开关
func (r *MongoSettingsRepository) SetRelayEnabled(ctx context.Context, enabled bool) error {
	return r.setField(ctx, "relay_enabled", enabled)
}

// SetCaptureEnabled 设置媒体捕获开关
func (r *MongoSettingsRepository) SetCaptureEnabled(ctx context.Context, enabled bool) error {
	return r.setField(ctx, "capture_enabled", enabled)
}

// SetWindowMinutes 设置新联系人观察窗口（分钟）
func (r *MongoSettingsRepository) SetWindowMinutes(ctx context.Context, minutes int) error {
	return r.setField(ctx, "window_minutes", minutes)
}

// AddTriggerWord 添加触发词（$addToSet 保证唯一性）
//
// 变更判定靠先读后写：updated_at 与词集在同一条更新里无条件 $set
// 会让 ModifiedCount 失去"词集是否变化"的含义。单操作者写入，
// 读写间隙可以接受。
func (r *MongoSettingsRepository) AddTriggerWord(ctx context.Context, word string) (bool, error) {
	current, err := r.Get(ctx)
	if err != nil {
		return false, err
	}
	if current.HasTriggerWord(word) {
		return false, nil
	}

	filter := bson.M{"_id": models.SettingsDocID}
	update := bson.M{
		"$addToSet": bson.M{"trigger_words": word},
		"$set":      bson.M{"updated_at": time.Now()},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return false, fmt.Errorf("failed to add trigger word: %w", err)
	}
	return true, nil
}

// RemoveTriggerWord 删除触发词（变更判定同 AddTriggerWord）
func (r *MongoSettingsRepository) RemoveTriggerWord(ctx context.Context, word string) (bool, error) {
	current, err := r.Get(ctx)
	if err != nil {
		return false, err
	}
	if !current.HasTriggerWord(word) {
		return false, nil
	}

	filter := bson.M{"_id": models.SettingsDocID}
	update := bson.M{
		"$pull": bson.M{"trigger_words": word},
		"$set":  bson.M{"updated_at": time.Now()},
	}

	if _, err := r.collection.UpdateOne(ctx, filter, update); err != nil {
		return false, fmt.Errorf("failed to remove trigger word: %w", err)
	}
	return true, nil
}

// setField 更新单个配置字段（文档不存在时创建）
func (r *MongoSettingsRepository) setField(ctx context.Context, field string, value interface{}) error {
	filter := bson.M{"_id": models.SettingsDocID}
	update := bson.M{
		"$set": bson.M{
			field:        value,
			"updated_at": time.Now(),
		},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to set %s: %w", field, err)
	}
	return nil
}
