package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoTempEntryRepositoryContains(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("live entry", func(mt *mtest.T) {
		repo := &MongoTempEntryRepository{collection: mt.Coll}
		now := time.Now().UTC().Truncate(time.Second)
		mt.AddMockResponses(mtest.CreateCursorResponse(
			0,
			tempNamespace(mt),
			mtest.FirstBatch,
			bson.D{
				{Key: "user_id", Value: int64(1001)},
				{Key: "expires_at", Value: now.Add(5 * time.Minute)},
			},
		))

		ok, err := repo.Contains(context.Background(), 1001, now)
		if err != nil {
			t.Fatalf("Contains failed: %v", err)
		}
		if !ok {
			t.Fatalf("expected live entry to be found")
		}
	})

	mt.Run("no live entry", func(mt *mtest.T) {
		repo := &MongoTempEntryRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(
			0,
			tempNamespace(mt),
			mtest.FirstBatch,
		))

		ok, err := repo.Contains(context.Background(), 1002, time.Now())
		if err != nil {
			t.Fatalf("Contains failed: %v", err)
		}
		if ok {
			t.Fatalf("expected no match")
		}
	})

	mt.Run("find error", func(mt *mtest.T) {
		repo := &MongoTempEntryRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Name:    "BadValue",
			Message: "mock find failure",
		}))

		_, err := repo.Contains(context.Background(), 1003, time.Now())
		if err == nil {
			t.Fatalf("expected error but got nil")
		}
		if !strings.Contains(err.Error(), "failed to query temp entry") {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestMongoTempEntryRepositoryUpsert(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		repo := &MongoTempEntryRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		if err := repo.Upsert(context.Background(), 2001, time.Now().Add(10*time.Minute)); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	})

	mt.Run("update error", func(mt *mtest.T) {
		repo := &MongoTempEntryRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    123,
			Name:    "WriteError",
			Message: "mock write failure",
		}))

		err := repo.Upsert(context.Background(), 2002, time.Now().Add(10*time.Minute))
		if err == nil {
			t.Fatalf("expected error but got nil")
		}
		if !strings.Contains(err.Error(), "failed to upsert temp entry") {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestMongoTempEntryRepositoryExpiryOf(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		repo := &MongoTempEntryRepository{collection: mt.Coll}
		expiry := time.Now().UTC().Truncate(time.Second).Add(7 * time.Minute)
		mt.AddMockResponses(mtest.CreateCursorResponse(
			0,
			tempNamespace(mt),
			mtest.FirstBatch,
			bson.D{
				{Key: "user_id", Value: int64(3001)},
				{Key: "expires_at", Value: expiry},
			},
		))

		got, err := repo.ExpiryOf(context.Background(), 3001)
		if err != nil {
			t.Fatalf("ExpiryOf failed: %v", err)
		}
		if got == nil {
			t.Fatalf("expected expiry but got nil")
		}
		if !got.Equal(expiry) {
			t.Fatalf("unexpected expiry: got %v, want %v", got, expiry)
		}
	})

	mt.Run("not found", func(mt *mtest.T) {
		repo := &MongoTempEntryRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(
			0,
			tempNamespace(mt),
			mtest.FirstBatch,
		))

		got, err := repo.ExpiryOf(context.Background(), 3002)
		if err != nil {
			t.Fatalf("ExpiryOf failed: %v", err)
		}
		if got != nil {
			t.Fatalf("expected nil expiry, got %v", got)
		}
	})
}

func TestMongoTempEntryRepositoryPurgeExpired(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		repo := &MongoTempEntryRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 3},
		))

		if err := repo.PurgeExpired(context.Background(), time.Now()); err != nil {
			t.Fatalf("PurgeExpired failed: %v", err)
		}
	})

	mt.Run("delete error", func(mt *mtest.T) {
		repo := &MongoTempEntryRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    89,
			Name:    "NetworkTimeout",
			Message: "mock timeout",
		}))

		err := repo.PurgeExpired(context.Background(), time.Now())
		if err == nil {
			t.Fatalf("expected error but got nil")
		}
		if !strings.Contains(err.Error(), "failed to purge expired temp entries") {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestMongoTempEntryRepositoryListLive(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		repo := &MongoTempEntryRepository{collection: mt.Coll}
		now := time.Now().UTC().Truncate(time.Second)
		mt.AddMockResponses(mtest.CreateCursorResponse(
			0,
			tempNamespace(mt),
			mtest.FirstBatch,
			bson.D{
				{Key: "user_id", Value: int64(4001)},
				{Key: "expires_at", Value: now.Add(3 * time.Minute)},
			},
			bson.D{
				{Key: "user_id", Value: int64(4002)},
				{Key: "expires_at", Value: now.Add(8 * time.Minute)},
			},
		))

		entries, err := repo.ListLive(context.Background(), now)
		if err != nil {
			t.Fatalf("ListLive failed: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("unexpected count: got %d, want %d", len(entries), 2)
		}
		if entries[0].UserID != 4001 {
			t.Fatalf("unexpected first entry: %+v", entries[0])
		}
	})

	mt.Run("find error", func(mt *mtest.T) {
		repo := &MongoTempEntryRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    13,
			Name:    "Unauthorized",
			Message: "mock find error",
		}))

		_, err := repo.ListLive(context.Background(), time.Now())
		if err == nil {
			t.Fatalf("expected error but got nil")
		}
		if !strings.Contains(err.Error(), "failed to list temp entries") {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestMongoTempEntryRepositoryEnsureIndexes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		repo := &MongoTempEntryRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		if err := repo.EnsureIndexes(context.Background()); err != nil {
			t.Fatalf("EnsureIndexes failed: %v", err)
		}
	})
}

func tempNamespace(mt *mtest.T) string {
	return mt.DB.Name() + "." + mt.Coll.Name()
}
