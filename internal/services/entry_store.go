package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/moodmirror/backend/internal/database"
	"github.com/moodmirror/backend/internal/models"
)

const moodEntriesCollection = "mood_entries"

// MoodEntryStore persists mood entries in MongoDB. It satisfies the
// submission workflow's Store interface.
type MoodEntryStore struct{}

// List returns the user's most recent entries, newest first, capped at limit.
func (s *MoodEntryStore) List(ctx context.Context, userID string, limit int64) ([]models.MoodEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	findOptions := options.Find()
	findOptions.SetSort(bson.M{"created_at": -1})
	findOptions.SetLimit(limit)

	cursor, err := database.DB.Collection(moodEntriesCollection).Find(ctx, bson.M{
		"user_id_string": userID,
	}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := make([]models.MoodEntry, 0, limit)
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Create inserts a new entry. The caller supplies created_at; the store only
// assigns the ID.
func (s *MoodEntryStore) Create(ctx context.Context, entry models.MoodEntry) (models.MoodEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if _, err := database.DB.Collection(moodEntriesCollection).InsertOne(ctx, entry); err != nil {
		return models.MoodEntry{}, err
	}
	return entry, nil
}
