// internal/database/indexes.go
package database

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func (m *MongoDB) CreateIndexes(ctx context.Context) error {
	m.logger.Debug("Creating database indexes")

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "kid", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	names, err := m.GetCollection(VerificationsCollection).Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return err
	}

	m.logger.Info("Verifications collection indexes created", zap.Strings("indexes", names))
	return nil
}
