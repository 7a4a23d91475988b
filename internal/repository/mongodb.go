package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/XinghanGuo1019/AI/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTranscriptRepository implements TranscriptRepository using MongoDB.
type MongoTranscriptRepository struct {
	collection *mongo.Collection
}

// NewMongoTranscriptRepository creates a new MongoTranscriptRepository.
// collectionName defaults to "transcripts" if empty.
func NewMongoTranscriptRepository(db *mongo.Database, collectionName string) *MongoTranscriptRepository {
	if collectionName == "" {
		collectionName = "transcripts"
	}
	return &MongoTranscriptRepository{
		collection: db.Collection(collectionName),
	}
}

func (r *MongoTranscriptRepository) Save(ctx context.Context, t model.Transcript) error {
	filter := bson.M{"_id": t.ID}
	opts := options.Replace().SetUpsert(true)

	_, err := r.collection.ReplaceOne(ctx, filter, t, opts)
	if err != nil {
		return fmt.Errorf("repository: upsert transcript %q: %w", t.ID, err)
	}

	return nil
}

func (r *MongoTranscriptRepository) Load(ctx context.Context, id string) (*model.Transcript, error) {
	filter := bson.M{"_id": id}

	var t model.Transcript
	err := r.collection.FindOne(ctx, filter).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("repository: transcript %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("repository: find transcript %q: %w", id, err)
	}

	return &t, nil
}

func (r *MongoTranscriptRepository) Delete(ctx context.Context, id string) error {
	filter := bson.M{"_id": id}

	_, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("repository: delete transcript %q: %w", id, err)
	}

	return nil
}
