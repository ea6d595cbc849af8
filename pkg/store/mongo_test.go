package store

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/matzehuels/setlistgen/pkg/errors"
	"github.com/matzehuels/setlistgen/pkg/setlist"
)

const testNS = "setlistgen.setlists"

func setlistDoc(id, owner string, created time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: "Warmup " + id},
		{Key: "playlist_id", Value: "37i9dQZF1DXcBWIGoYBM5M"},
		{Key: "owner", Value: owner},
		{Key: "created_at", Value: created},
	}
}

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	mt.Run("save", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		s := NewMongoStoreFromCollection(mt.Coll)
		if err := s.Save(ctx, &setlist.Setlist{ID: "a", Owner: "spotify:dj"}); err != nil {
			mt.Errorf("Save: %v", err)
		}
	})

	mt.Run("save without id", func(mt *mtest.T) {
		s := NewMongoStoreFromCollection(mt.Coll)
		if err := s.Save(ctx, &setlist.Setlist{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
			mt.Errorf("err = %v", err)
		}
	})

	mt.Run("save write error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))
		s := NewMongoStoreFromCollection(mt.Coll)
		if err := s.Save(ctx, &setlist.Setlist{ID: "a"}); !errors.Is(err, errors.ErrCodeInternal) {
			mt.Errorf("err = %v", err)
		}
	})

	mt.Run("get", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch, setlistDoc("a", "spotify:dj", now)))
		s := NewMongoStoreFromCollection(mt.Coll)
		got, err := s.Get(ctx, "a")
		if err != nil {
			mt.Fatalf("Get: %v", err)
		}
		if got.ID != "a" || got.Owner != "spotify:dj" || !got.CreatedAt.Equal(now) {
			mt.Errorf("Get = %+v", got)
		}
	})

	mt.Run("get missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch))
		s := NewMongoStoreFromCollection(mt.Coll)
		if _, err := s.Get(ctx, "nope"); !errors.Is(err, errors.ErrCodeSetlistNotFound) {
			mt.Errorf("err = %v", err)
		}
	})

	mt.Run("list", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch,
			setlistDoc("b", "spotify:dj", now),
			setlistDoc("a", "spotify:dj", now.Add(-time.Hour)),
		))
		s := NewMongoStoreFromCollection(mt.Coll)
		list, err := s.List(ctx, "spotify:dj")
		if err != nil {
			mt.Fatalf("List: %v", err)
		}
		if len(list) != 2 || list[0].ID != "b" || list[1].ID != "a" {
			mt.Errorf("List = %+v", list)
		}
	})

	mt.Run("delete", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		s := NewMongoStoreFromCollection(mt.Coll)
		if err := s.Delete(ctx, "spotify:dj", "a"); err != nil {
			mt.Errorf("Delete: %v", err)
		}
	})

	mt.Run("delete missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		s := NewMongoStoreFromCollection(mt.Coll)
		if err := s.Delete(ctx, "spotify:dj", "a"); !errors.Is(err, errors.ErrCodeSetlistNotFound) {
			mt.Errorf("err = %v", err)
		}
	})

	mt.Run("close without client", func(mt *mtest.T) {
		if err := NewMongoStoreFromCollection(mt.Coll).Close(); err != nil {
			mt.Errorf("Close: %v", err)
		}
	})
}
