package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/moodmirror/backend/internal/handlers"
)

func SetupRoutes(r *chi.Mux) {
	// Auth routes
	r.Post("/api/auth/signup", handlers.Signup)
	r.Post("/api/auth/signin", handlers.Signin)
	r.Post("/api/auth/signout", handlers.Signout)
	r.Get("/api/auth/me", handlers.GetMe)

	// Mood scale
	r.Get("/api/moods/options", handlers.GetMoodOptions)

	// Draft workflow (select → compose → journal → submit, or cancel)
	r.Get("/api/moods/draft", handlers.GetDraft)
	r.Post("/api/moods/draft/mood", handlers.SelectMood)
	r.Post("/api/moods/draft/compose", handlers.ComposeMood)
	r.Put("/api/moods/draft/journal", handlers.UpdateJournal)
	r.Post("/api/moods/draft/submit", handlers.SubmitMood)
	r.Delete("/api/moods/draft", handlers.CancelDraft)

	// Entries and trend
	r.Get("/api/moods", handlers.GetMoodEntries)
	r.Get("/api/moods/trend", handlers.GetMoodTrend)

	// WebSocket endpoint for live entry-list updates
	r.Get("/ws/moods", handlers.MoodWebSocket)
}
