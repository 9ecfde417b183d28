package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoMonitoredUserRepositoryList(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		repo := &MongoMonitoredUserRepository{collection: mt.Coll}
		now := time.Now().UTC().Truncate(time.Second)
		mt.AddMockResponses(mtest.CreateCursorResponse(
			0,
			monitoredNamespace(mt),
			mtest.FirstBatch,
			bson.D{
				{Key: "user_id", Value: int64(1001)},
				{Key: "added_at", Value: now},
			},
			bson.D{
				{Key: "user_id", Value: int64(1002)},
				{Key: "added_at", Value: now},
			},
		))

		ids, err := repo.List(context.Background())
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(ids) != 2 {
			t.Fatalf("unexpected count: got %d, want %d", len(ids), 2)
		}
		if ids[0] != 1001 || ids[1] != 1002 {
			t.Fatalf("unexpected ids: %v", ids)
		}
	})

	mt.Run("empty", func(mt *mtest.T) {
		repo := &MongoMonitoredUserRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(
			0,
			monitoredNamespace(mt),
			mtest.FirstBatch,
		))

		ids, err := repo.List(context.Background())
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(ids) != 0 {
			t.Fatalf("expected empty list, got %v", ids)
		}
	})

	mt.Run("find error", func(mt *mtest.T) {
		repo := &MongoMonitoredUserRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    13,
			Name:    "Unauthorized",
			Message: "mock find error",
		}))

		_, err := repo.List(context.Background())
		if err == nil {
			t.Fatalf("expected error but got nil")
		}
		if !strings.Contains(err.Error(), "failed to list monitored users") {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestMongoMonitoredUserRepositoryAdd(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("inserted", func(mt *mtest.T) {
		repo := &MongoMonitoredUserRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
			bson.E{Key: "upserted", Value: bson.A{
				bson.D{
					{Key: "index", Value: int32(0)},
					{Key: "_id", Value: primitive.NewObjectID()},
				},
			}},
		))

		changed, err := repo.Add(context.Background(), 2001)
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if !changed {
			t.Fatalf("expected changed=true for new user")
		}
	})

	mt.Run("already present", func(mt *mtest.T) {
		repo := &MongoMonitoredUserRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
		))

		changed, err := repo.Add(context.Background(), 2001)
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if changed {
			t.Fatalf("expected changed=false for existing user")
		}
	})

	mt.Run("update error", func(mt *mtest.T) {
		repo := &MongoMonitoredUserRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    112,
			Name:    "WriteConflict",
			Message: "mock write conflict",
		}))

		_, err := repo.Add(context.Background(), 2002)
		if err == nil {
			t.Fatalf("expected error but got nil")
		}
		if !strings.Contains(err.Error(), "failed to add monitored user") {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestMongoMonitoredUserRepositoryRemove(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("removed", func(mt *mtest.T) {
		repo := &MongoMonitoredUserRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
		))

		changed, err := repo.Remove(context.Background(), 3001)
		if err != nil {
			t.Fatalf("Remove failed: %v", err)
		}
		if !changed {
			t.Fatalf("expected changed=true")
		}
	})

	mt.Run("not present", func(mt *mtest.T) {
		repo := &MongoMonitoredUserRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
		))

		changed, err := repo.Remove(context.Background(), 3002)
		if err != nil {
			t.Fatalf("Remove failed: %v", err)
		}
		if changed {
			t.Fatalf("expected changed=false for missing user")
		}
	})

	mt.Run("delete error", func(mt *mtest.T) {
		repo := &MongoMonitoredUserRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    89,
			Name:    "NetworkTimeout",
			Message: "mock timeout",
		}))

		_, err := repo.Remove(context.Background(), 3003)
		if err == nil {
			t.Fatalf("expected error but got nil")
		}
		if !strings.Contains(err.Error(), "failed to remove monitored user") {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestMongoMonitoredUserRepositoryEnsureIndexes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		repo := &MongoMonitoredUserRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		if err := repo.EnsureIndexes(context.Background()); err != nil {
			t.Fatalf("EnsureIndexes failed: %v", err)
		}
	})

	mt.Run("create indexes error", func(mt *mtest.T) {
		repo := &MongoMonitoredUserRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    85,
			Name:    "IndexOptionsConflict",
			Message: "mock index error",
		}))

		err := repo.EnsureIndexes(context.Background())
		if err == nil {
			t.Fatalf("expected error but got nil")
		}
		if !strings.Contains(err.Error(), "failed to create indexes") {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func monitoredNamespace(mt *mtest.T) string {
	return mt.DB.Name() + "." + mt.Coll.Name()
}
