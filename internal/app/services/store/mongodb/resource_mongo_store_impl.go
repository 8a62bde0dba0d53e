package mongodb

import (
	"context"
	"errors"
	"maternity-service/internal/app/contracts"
	"maternity-service/internal/app/models"
	"maternity-service/internal/app/services/store"
	"maternity-service/internal/pkg/constvars"
	"maternity-service/internal/pkg/exceptions"
	"maternity-service/internal/pkg/metrics"
	"maternity-service/internal/pkg/search"
	"maternity-service/internal/pkg/utils"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	storeName            = "mongo"
	defaultRetryLimit    = 3
	sequenceCounterField = "seq"
)

type resourceMongoStore struct {
	Collection *mongo.Collection
	Counters   *mongo.Collection
	RetryLimit int
	Log        *zap.Logger
	Metrics    *metrics.Metrics
	now        func() time.Time
}

// NewResourceMongoStore keeps every partition in a single collection keyed
// by "<type>/<id>".
func NewResourceMongoStore(db *mongo.Client, dbName string, retryLimit int, logger *zap.Logger, m *metrics.Metrics) contracts.ResourceStore {
	database := db.Database(dbName)
	return newResourceMongoStore(
		database.Collection(constvars.MongoCollectionResources),
		database.Collection(constvars.MongoCollectionCounters),
		retryLimit,
		logger,
		m,
	)
}

func newResourceMongoStore(collection, counters *mongo.Collection, retryLimit int, logger *zap.Logger, m *metrics.Metrics) *resourceMongoStore {
	if retryLimit <= 0 {
		retryLimit = defaultRetryLimit
	}
	return &resourceMongoStore{
		Collection: collection,
		Counters:   counters,
		RetryLimit: retryLimit,
		Log:        logger,
		Metrics:    m,
		now:        time.Now,
	}
}

// stamp truncates to the millisecond precision of BSON datetimes so the
// returned resource equals what a later read yields.
func (s *resourceMongoStore) stamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func (s *resourceMongoStore) nextSequence(ctx context.Context) (int64, error) {
	var counter struct {
		Sequence int64 `bson:"seq"`
	}
	err := s.Counters.FindOneAndUpdate(
		ctx,
		bson.M{fieldKey: constvars.MongoCollectionResources},
		bson.M{"$inc": bson.M{sequenceCounterField: 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, exceptions.ErrMongoDBUpdateDocument(err)
	}
	return counter.Sequence, nil
}

func (s *resourceMongoStore) findStored(ctx context.Context, resourceType, id string) (*storedDocument, error) {
	var stored storedDocument
	err := s.Collection.FindOne(ctx, bson.M{fieldKey: documentKey(resourceType, id)}).Decode(&stored)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, exceptions.ErrResourceNotFound(nil, resourceType, id)
		}
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	return &stored, nil
}

func (s *resourceMongoStore) Create(ctx context.Context, resourceType string, payload *models.Resource) (result *models.Resource, err error) {
	started := time.Now()
	defer func() {
		s.Metrics.ObserveStoreOperation(storeName, constvars.ActionCreate, resourceType, store.Outcome(err), started)
	}()

	if err := store.CheckType(resourceType); err != nil {
		return nil, err
	}

	resource := store.PrepareCreate(resourceType, payload, s.stamp())
	sequence, err := s.nextSequence(ctx)
	if err != nil {
		return nil, err
	}
	document, err := toDocument(resource, sequence)
	if err != nil {
		return nil, exceptions.ErrCannotMarshalJSON(err)
	}

	_, err = s.Collection.InsertOne(ctx, document)
	if err != nil {
		return nil, s.writeError(err, document, exceptions.ErrMongoDBInsertDocument)
	}

	s.Log.Debug("resourceMongoStore.Create succeeded",
		zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
		zap.String(constvars.LoggingResourceTypeKey, resourceType),
		zap.String(constvars.LoggingResourceIDKey, resource.ID),
	)
	return resource, nil
}

func (s *resourceMongoStore) Read(ctx context.Context, resourceType, id string) (result *models.Resource, err error) {
	started := time.Now()
	defer func() {
		s.Metrics.ObserveStoreOperation(storeName, constvars.ActionRead, resourceType, store.Outcome(err), started)
	}()

	if err := store.CheckType(resourceType); err != nil {
		return nil, err
	}

	stored, err := s.findStored(ctx, resourceType, id)
	if err != nil {
		return nil, err
	}
	resource, err := stored.toResource()
	if err != nil {
		return nil, exceptions.ErrCannotParseJSON(err)
	}
	return resource, nil
}

// Update replaces the document with a compare-and-swap on meta.versionId.
// A lost race re-reads the current version and tries again.
func (s *resourceMongoStore) Update(ctx context.Context, resourceType, id string, payload *models.Resource) (result *models.Resource, err error) {
	started := time.Now()
	defer func() {
		s.Metrics.ObserveStoreOperation(storeName, constvars.ActionUpdate, resourceType, store.Outcome(err), started)
	}()

	if err := store.CheckType(resourceType); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < s.RetryLimit; attempt++ {
		stored, err := s.findStored(ctx, resourceType, id)
		if err != nil {
			return nil, err
		}
		current, err := stored.toResource()
		if err != nil {
			return nil, exceptions.ErrCannotParseJSON(err)
		}

		resource := store.PrepareUpdate(current, payload, s.stamp())
		document, err := toDocument(resource, stored.Sequence)
		if err != nil {
			return nil, exceptions.ErrCannotMarshalJSON(err)
		}

		filter := bson.M{
			fieldKey:       document.Key,
			fieldVersionID: current.Meta.VersionID,
		}
		replaced, err := s.Collection.ReplaceOne(ctx, filter, document)
		if err != nil {
			return nil, s.writeError(err, document, exceptions.ErrMongoDBUpdateDocument)
		}
		if replaced.MatchedCount == 1 {
			s.Log.Debug("resourceMongoStore.Update succeeded",
				zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
				zap.String(constvars.LoggingResourceTypeKey, resourceType),
				zap.String(constvars.LoggingResourceIDKey, id),
				zap.Int(constvars.LoggingVersionIDKey, resource.Meta.VersionID),
			)
			return resource, nil
		}

		s.Log.Debug("resourceMongoStore.Update lost version race, retrying",
			zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
			zap.String(constvars.LoggingResourceTypeKey, resourceType),
			zap.String(constvars.LoggingResourceIDKey, id),
			zap.Int("attempt", attempt+1),
		)
	}
	return nil, exceptions.ErrVersionConflict(nil, resourceType, id)
}

func (s *resourceMongoStore) Delete(ctx context.Context, resourceType, id string) (err error) {
	started := time.Now()
	defer func() {
		s.Metrics.ObserveStoreOperation(storeName, constvars.ActionDelete, resourceType, store.Outcome(err), started)
	}()

	if err := store.CheckType(resourceType); err != nil {
		return err
	}

	deleted, err := s.Collection.DeleteOne(ctx, bson.M{fieldKey: documentKey(resourceType, id)})
	if err != nil {
		return exceptions.ErrMongoDBDeleteDocument(err)
	}
	if deleted.DeletedCount == 0 {
		return exceptions.ErrResourceNotFound(nil, resourceType, id)
	}
	return nil
}

func (s *resourceMongoStore) Search(ctx context.Context, resourceType string, params map[string]string) (results []*models.Resource, err error) {
	started := time.Now()
	defer func() {
		s.Metrics.ObserveStoreOperation(storeName, constvars.ActionSearch, resourceType, store.Outcome(err), started)
	}()

	if err := store.CheckType(resourceType); err != nil {
		return nil, err
	}

	query := search.Translate(resourceType, params)
	results = make([]*models.Resource, 0)
	if query.MatchNothing || query.Count == 0 {
		return results, nil
	}

	findOptions := options.Find().SetSort(bson.D{{Key: fieldSequence, Value: 1}})
	if query.Count != search.NoLimit {
		findOptions.SetLimit(int64(query.Count))
	}

	cursor, err := s.Collection.Find(ctx, compileFilter(query), findOptions)
	if err != nil {
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var stored storedDocument
		if err := cursor.Decode(&stored); err != nil {
			return nil, exceptions.ErrMongoDBIterateDocuments(err)
		}
		resource, err := stored.toResource()
		if err != nil {
			return nil, exceptions.ErrCannotParseJSON(err)
		}
		results = append(results, resource)
	}
	if err := cursor.Err(); err != nil {
		return nil, exceptions.ErrMongoDBIterateDocuments(err)
	}

	s.Log.Debug("resourceMongoStore.Search succeeded",
		zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
		zap.String(constvars.LoggingResourceTypeKey, resourceType),
		zap.Any(constvars.LoggingQueryParamsKey, params),
		zap.Int(constvars.LoggingResponseLengthKey, len(results)),
	)
	return results, nil
}

// writeError maps duplicate keys onto the store conflicts and everything
// else onto the given driver failure.
func (s *resourceMongoStore) writeError(err error, document *resourceDocument, fallback func(error) *exceptions.CustomError) error {
	if !mongo.IsDuplicateKeyError(err) {
		return fallback(err)
	}
	if document.ActiveFlagKey != "" && strings.Contains(err.Error(), fieldActiveFlagKey) {
		return exceptions.ErrActiveFlagExists(err, document.ActiveFlagKey)
	}
	return exceptions.ErrResourceExists(err, document.ResourceType, document.ID)
}
