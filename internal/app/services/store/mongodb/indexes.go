package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ResourceIndexes lists the indexes the store relies on. The partial
// unique index on activeFlagKey is what keeps a single active Flag per
// subject and condition.
func ResourceIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: fieldResourceType, Value: 1}, {Key: fieldSequence, Value: 1}},
			Options: options.Index().SetName("resourceType_seq"),
		},
		{
			Keys: bson.D{{Key: fieldActiveFlagKey, Value: 1}},
			Options: options.Index().
				SetName("activeFlagKey_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{fieldActiveFlagKey: bson.M{"$exists": true}}),
		},
		{
			Keys:    bson.D{{Key: fieldSearch + ".$**", Value: 1}},
			Options: options.Index().SetName("search_wildcard"),
		},
	}
}

// EnsureIndexes creates the resource indexes and returns their names.
func EnsureIndexes(ctx context.Context, db *mongo.Database, collection string) ([]string, error) {
	return db.Collection(collection).Indexes().CreateMany(ctx, ResourceIndexes())
}
