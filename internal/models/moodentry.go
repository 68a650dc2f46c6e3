package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MoodEntry is one logged mood: a 1-5 score, the emoji derived from the score
// at write time, an optional journal note, and the AI reflection generated for
// it. Entries are created once and never mutated or deleted.
type MoodEntry struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UserIDString string             `bson:"user_id_string" json:"user_id,omitempty"`
	MoodScore    int                `bson:"mood_score" json:"mood_score"`
	MoodEmoji    string             `bson:"mood_emoji" json:"mood_emoji"`
	JournalEntry *string            `bson:"journal_entry,omitempty" json:"journal_entry,omitempty"`
	AIReflection string             `bson:"ai_reflection" json:"ai_reflection"`
}
