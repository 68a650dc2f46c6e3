package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/moodmirror/backend/internal/database"
	"github.com/moodmirror/backend/internal/models"
)

// MoodEvent is the payload broadcast over Redis and WebSocket after a
// successful submission: the user's refreshed recent list.
type MoodEvent struct {
	Type      string             `json:"type"` // "entries_updated"
	UserID    string             `json:"user_id"`
	Entries   []models.MoodEntry `json:"entries"`
	Timestamp time.Time          `json:"timestamp"`
}

const moodChannelPrefix = "moods:user:"

// moodHub fans Redis events out to this instance's WebSocket connections.
type moodHub struct {
	mu          sync.Mutex
	subscribers map[string]map[chan MoodEvent]struct{}
}

var (
	hub          = &moodHub{subscribers: make(map[string]map[chan MoodEvent]struct{})}
	redisStarted sync.Once
)

// SubscribeMoodEvents registers a listener for one user's events. The
// returned unsubscribe must be called on connection teardown so events are
// not delivered to discarded state.
func SubscribeMoodEvents(userID string) (<-chan MoodEvent, func()) {
	ch := make(chan MoodEvent, 8)

	hub.mu.Lock()
	set, ok := hub.subscribers[userID]
	if !ok {
		set = make(map[chan MoodEvent]struct{})
		hub.subscribers[userID] = set
	}
	set[ch] = struct{}{}
	hub.mu.Unlock()

	unsubscribe := func() {
		hub.mu.Lock()
		if set, ok := hub.subscribers[userID]; ok {
			if _, present := set[ch]; present {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(hub.subscribers, userID)
			}
		}
		hub.mu.Unlock()
	}
	return ch, unsubscribe
}

func fanOutMoodEvent(event MoodEvent) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	for ch := range hub.subscribers[event.UserID] {
		select {
		case ch <- event:
		default:
			// Slow consumer; drop rather than block the subscriber loop.
		}
	}
}

// PublishMoodEvent publishes an event to Redis after a successful submission.
func PublishMoodEvent(ctx context.Context, event MoodEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return database.RedisClient.Publish(ctx, moodChannelPrefix+event.UserID, data).Err()
}

// StartMoodEventSubscriber ensures a single shared Redis listener per instance.
func StartMoodEventSubscriber(ctx context.Context) {
	redisStarted.Do(func() {
		go runMoodEventSubscriber(ctx)
	})
}

func runMoodEventSubscriber(ctx context.Context) {
	client := database.RedisClient
	if client == nil {
		log.Println("Redis client not initialized; mood event subscriber not started")
		return
	}

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := client.PSubscribe(ctx, moodChannelPrefix+"*")
			defer pubsub.Close()

			log.Println("✅ Mood event Redis subscriber started (pattern: moods:user:*)")

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					log.Printf("Redis subscriber error: %v", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var event MoodEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("failed to unmarshal mood event: %v", err)
					continue
				}

				fanOutMoodEvent(event)
			}
		}()
	}
}
