package mongodb

import (
	"context"
	"maternity-service/internal/app/models"
	"maternity-service/internal/pkg/exceptions"
	"maternity-service/internal/pkg/metrics"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"
)

var storedAt = time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)

func newMockStore(mt *mtest.T) *resourceMongoStore {
	s := newResourceMongoStore(mt.Coll, mt.DB.Collection("counters"), 2, zap.NewNop(), metrics.New())
	s.now = func() time.Time { return storedAt }
	return s
}

func observationDocument(id string, version int32, systolic float64) bson.D {
	return bson.D{
		{Key: "_id", Value: "Observation/" + id},
		{Key: "resourceType", Value: "Observation"},
		{Key: "id", Value: id},
		{Key: "meta", Value: bson.D{
			{Key: "versionId", Value: version},
			{Key: "lastUpdated", Value: primitive.NewDateTimeFromTime(storedAt)},
		}},
		{Key: "data", Value: bson.D{
			{Key: "status", Value: "final"},
			{Key: "subject", Value: bson.D{{Key: "reference", Value: "Patient/p1"}}},
			{Key: "valueQuantity", Value: bson.D{{Key: "value", Value: systolic}, {Key: "unit", Value: "mm[Hg]"}}},
			{Key: "category", Value: bson.A{bson.D{{Key: "text", Value: "vital-signs"}}}},
		}},
		{Key: "seq", Value: int64(1)},
	}
}

func TestResourceMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("Read Decodes Payload", func(mt *mtest.T) {
		s := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.resources", mtest.FirstBatch, observationDocument("obs-1", 2, 150)))

		resource, err := s.Read(ctx, "Observation", "obs-1")
		require.NoError(mt, err)
		assert.Equal(mt, "Observation", resource.ResourceType)
		assert.Equal(mt, "obs-1", resource.ID)
		assert.Equal(mt, 2, resource.Meta.VersionID)
		assert.True(mt, storedAt.Equal(resource.Meta.LastUpdated))
		assert.Equal(mt, "Patient/p1", resource.SubjectReference().String())

		value, ok := resource.Lookup("valueQuantity", "value")
		require.True(mt, ok)
		assert.Equal(mt, float64(150), value)

		category, ok := resource.Data["category"].([]interface{})
		require.True(mt, ok, "arrays come back as plain JSON arrays")
		assert.Len(mt, category, 1)
	})

	mt.Run("Read Missing", func(mt *mtest.T) {
		s := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.resources", mtest.FirstBatch))

		_, err := s.Read(ctx, "Observation", "missing")
		assert.True(mt, exceptions.IsKind(err, exceptions.KindNotFound))
	})

	mt.Run("Read Unknown Type Skips Database", func(mt *mtest.T) {
		s := newMockStore(mt)
		_, err := s.Read(ctx, "Widget", "1")
		assert.True(mt, exceptions.IsKind(err, exceptions.KindInvalidResourceType))
	})

	mt.Run("Driver Failure Is Dependency Unavailable", func(mt *mtest.T) {
		s := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad value", Name: "BadValue"}))

		_, err := s.Read(ctx, "Observation", "obs-1")
		assert.True(mt, exceptions.IsKind(err, exceptions.KindDependencyUnavailable))
	})

	mt.Run("Create Stamps Resource", func(mt *mtest.T) {
		s := newMockStore(mt)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{{Key: "_id", Value: "resources"}, {Key: "seq", Value: int64(7)}}}),
			mtest.CreateSuccessResponse(),
		)

		payload := models.NewResource("Patient", map[string]interface{}{"active": true})
		created, err := s.Create(ctx, "Patient", payload)
		require.NoError(mt, err)
		assert.NotEmpty(mt, created.ID)
		assert.Equal(mt, 1, created.Meta.VersionID)
		assert.Equal(mt, storedAt, created.Meta.LastUpdated)
	})

	mt.Run("Create Duplicate Active Flag Conflicts", func(mt *mtest.T) {
		s := newMockStore(mt)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{{Key: "_id", Value: "resources"}, {Key: "seq", Value: int64(8)}}}),
			mtest.CreateWriteErrorsResponse(mtest.WriteError{
				Index:   0,
				Code:    11000,
				Message: "E11000 duplicate key error collection: db.resources index: activeFlagKey_unique dup key: { activeFlagKey: \"Patient/p1|hypertension\" }",
			}),
		)

		flag := models.NewResource("Flag", map[string]interface{}{
			"status":  "active",
			"subject": map[string]interface{}{"reference": "Patient/p1"},
			"code":    map[string]interface{}{"coding": []interface{}{map[string]interface{}{"code": "hypertension"}}},
		})
		_, err := s.Create(ctx, "Flag", flag)
		require.Error(mt, err)
		assert.True(mt, exceptions.IsKind(err, exceptions.KindConflict))
	})

	mt.Run("Update Retries Lost Race", func(mt *mtest.T) {
		s := newMockStore(mt)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "db.resources", mtest.FirstBatch, observationDocument("obs-1", 1, 150)),
			bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 0}, {Key: "nModified", Value: 0}},
			mtest.CreateCursorResponse(0, "db.resources", mtest.FirstBatch, observationDocument("obs-1", 2, 150)),
			bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 1}, {Key: "nModified", Value: 1}},
		)

		updated, err := s.Update(ctx, "Observation", "obs-1", models.NewResource("Observation", map[string]interface{}{"status": "amended"}))
		require.NoError(mt, err)
		assert.Equal(mt, 3, updated.Meta.VersionID)
		assert.Equal(mt, "amended", updated.GetString("status"))
	})

	mt.Run("Update Gives Up After Retry Limit", func(mt *mtest.T) {
		s := newMockStore(mt)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "db.resources", mtest.FirstBatch, observationDocument("obs-1", 1, 150)),
			bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 0}, {Key: "nModified", Value: 0}},
			mtest.CreateCursorResponse(0, "db.resources", mtest.FirstBatch, observationDocument("obs-1", 2, 150)),
			bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 0}, {Key: "nModified", Value: 0}},
		)

		_, err := s.Update(ctx, "Observation", "obs-1", models.NewResource("Observation", nil))
		assert.True(mt, exceptions.IsKind(err, exceptions.KindConflict))
	})

	mt.Run("Delete Missing", func(mt *mtest.T) {
		s := newMockStore(mt)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 0}})

		err := s.Delete(ctx, "Observation", "missing")
		assert.True(mt, exceptions.IsKind(err, exceptions.KindNotFound))
	})

	mt.Run("Search Returns Sequence Order", func(mt *mtest.T) {
		s := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.resources", mtest.FirstBatch,
			observationDocument("obs-1", 1, 150),
			observationDocument("obs-2", 1, 120),
		))

		results, err := s.Search(ctx, "Observation", map[string]string{"patient": "p1"})
		require.NoError(mt, err)
		require.Len(mt, results, 2)
		assert.Equal(mt, "obs-1", results[0].ID)
		assert.Equal(mt, "obs-2", results[1].ID)
	})

	mt.Run("Search Matching Nothing Skips Database", func(mt *mtest.T) {
		s := newMockStore(mt)
		results, err := s.Search(ctx, "Observation", map[string]string{"date": "not-a-date"})
		require.NoError(mt, err)
		assert.Empty(mt, results)
	})
}

func TestResourceIndexes(t *testing.T) {
	indexes := ResourceIndexes()
	require.Len(t, indexes, 3)

	flagIndex := indexes[1]
	assert.Equal(t, bson.D{{Key: "activeFlagKey", Value: 1}}, flagIndex.Keys)
	require.NotNil(t, flagIndex.Options.Unique)
	assert.True(t, *flagIndex.Options.Unique)
	assert.Equal(t, bson.M{"activeFlagKey": bson.M{"$exists": true}}, flagIndex.Options.PartialFilterExpression)
}
