package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/moodmirror/backend/internal/database"
	"github.com/moodmirror/backend/internal/models"
)

const (
	// RecentEntriesKeyPrefix is the Redis key prefix for a user's cached
	// recent-entries list.
	RecentEntriesKeyPrefix = "recent_entries:"
	// RecentEntriesTTL bounds staleness if a replace is ever missed.
	RecentEntriesTTL = 24 * time.Hour
)

// RecentEntriesCache mirrors each user's recent list in Redis. It has
// single-writer semantics: only the reload following a successful submission
// or the initial load after authentication replaces a user's list.
type RecentEntriesCache struct{}

// Get returns the cached list and whether it was present. A miss or a decode
// problem is reported as absence, not as an error.
func (c *RecentEntriesCache) Get(ctx context.Context, userID string) ([]models.MoodEntry, bool) {
	val, err := database.RedisClient.Get(ctx, RecentEntriesKeyPrefix+userID).Result()
	if err != nil {
		return nil, false
	}
	var entries []models.MoodEntry
	if err := json.Unmarshal([]byte(val), &entries); err != nil {
		return nil, false
	}
	return entries, true
}

// Replace overwrites the user's cached list.
func (c *RecentEntriesCache) Replace(ctx context.Context, userID string, entries []models.MoodEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return database.RedisClient.Set(ctx, RecentEntriesKeyPrefix+userID, data, RecentEntriesTTL).Err()
}

// Global cache instance
var RecentEntries = &RecentEntriesCache{}
