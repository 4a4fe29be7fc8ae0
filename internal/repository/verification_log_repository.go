// internal/repository/verification_log_repository.go
package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"hcert-verifier/internal/models"
)

type verificationLogRepository struct {
	collection *mongo.Collection
}

func NewVerificationLogRepository(collection *mongo.Collection) VerificationLogRepository {
	return &verificationLogRepository{
		collection: collection,
	}
}

func (r *verificationLogRepository) Create(ctx context.Context, entry *models.VerificationLog) error {
	entry.ID = primitive.NewObjectID()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := r.collection.InsertOne(ctx, entry)
	return err
}

func (r *verificationLogRepository) GetStats(ctx context.Context, startDate, endDate *time.Time) ([]models.VerificationStats, error) {
	pipeline := []bson.M{
		{
			"$match": buildDateFilter(startDate, endDate),
		},
		{
			"$group": bson.M{
				"_id": bson.M{
					"mode":        "$mode",
					"valid":       "$valid",
					"reason_name": "$reason_name",
				},
				"total_calls":         bson.M{"$sum": 1},
				"avg_process_time_ms": bson.M{"$avg": "$process_time_ms"},
			},
		},
		{
			"$project": bson.M{
				"mode":                "$_id.mode",
				"valid":               "$_id.valid",
				"reason_name":         "$_id.reason_name",
				"total_calls":         1,
				"avg_process_time_ms": 1,
				"_id":                 0,
			},
		},
		{
			"$sort": bson.D{{Key: "total_calls", Value: -1}},
		},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var stats []models.VerificationStats
	if err = cursor.All(ctx, &stats); err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *verificationLogRepository) GetHistoryByKid(ctx context.Context, kid string, limit, skip int) ([]models.VerificationLog, error) {
	filter := bson.M{"kid": kid}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(skip))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var history []models.VerificationLog
	if err = cursor.All(ctx, &history); err != nil {
		return nil, err
	}

	return history, nil
}

func buildDateFilter(startDate, endDate *time.Time) bson.M {
	filter := bson.M{}

	if startDate != nil || endDate != nil {
		dateFilter := bson.M{}
		if startDate != nil {
			dateFilter["$gte"] = *startDate
		}
		if endDate != nil {
			dateFilter["$lte"] = *endDate
		}
		filter["created_at"] = dateFilter
	}

	return filter
}
