package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/moodmirror/backend/internal/models"
	"github.com/moodmirror/backend/internal/mood"
	"github.com/moodmirror/backend/internal/services"
	"github.com/moodmirror/backend/internal/trend"
	"github.com/moodmirror/backend/internal/workflow"
)

// DisplayLimit caps the entry-list view; the trend window uses
// workflow.RecentLimit.
const DisplayLimit = 3

var (
	drafts   *workflow.Manager
	trendLoc *time.Location
)

// InitMoodHandlers wires the draft manager and the trend timezone. Call once
// at startup before routes are served.
func InitMoodHandlers(m *workflow.Manager, loc *time.Location) {
	drafts = m
	trendLoc = loc
}

type SelectMoodRequest struct {
	Score int `json:"score"`
}

type JournalRequest struct {
	JournalText string `json:"journal_text"`
}

type DraftResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Draft   workflow.Draft `json:"draft"`
}

type EntriesResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message,omitempty"`
	Entries []models.MoodEntry `json:"entries"`
}

type TrendResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Trend   trend.Report `json:"trend"`
}

// draftStatus maps workflow errors onto HTTP status codes.
func draftStatus(err error) int {
	switch {
	case errors.Is(err, workflow.ErrInvalidScore),
		errors.Is(err, workflow.ErrNoMoodSelected),
		errors.Is(err, workflow.ErrJournalTooLong):
		return http.StatusBadRequest
	case errors.Is(err, workflow.ErrSubmitInFlight),
		errors.Is(err, workflow.ErrBadTransition):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// GetMoodOptions returns the fixed five-option mood scale.
func GetMoodOptions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"options": mood.Options(),
	})
}

// GetDraft returns the caller's current draft state.
func GetDraft(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	userID, ok := requireAuth(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(DraftResponse{Success: false, Message: "Authentication required"})
		return
	}
	json.NewEncoder(w).Encode(DraftResponse{Success: true, Draft: drafts.For(userID).Draft()})
}

// SelectMood records the picked score on the caller's draft.
func SelectMood(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	userID, ok := requireAuth(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(DraftResponse{Success: false, Message: "Authentication required"})
		return
	}

	var req SelectMoodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(DraftResponse{Success: false, Message: "Invalid request body"})
		return
	}

	wf := drafts.For(userID)
	if err := wf.SelectMood(req.Score); err != nil {
		w.WriteHeader(draftStatus(err))
		json.NewEncoder(w).Encode(DraftResponse{Success: false, Message: err.Error(), Draft: wf.Draft()})
		return
	}
	json.NewEncoder(w).Encode(DraftResponse{Success: true, Draft: wf.Draft()})
}

// ComposeMood opens the entry form for the selected mood.
func ComposeMood(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	userID, ok := requireAuth(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(DraftResponse{Success: false, Message: "Authentication required"})
		return
	}

	wf := drafts.For(userID)
	if err := wf.Compose(); err != nil {
		w.WriteHeader(draftStatus(err))
		json.NewEncoder(w).Encode(DraftResponse{Success: false, Message: err.Error(), Draft: wf.Draft()})
		return
	}
	json.NewEncoder(w).Encode(DraftResponse{Success: true, Draft: wf.Draft()})
}

// UpdateJournal replaces the draft's journal text.
func UpdateJournal(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	userID, ok := requireAuth(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(DraftResponse{Success: false, Message: "Authentication required"})
		return
	}

	var req JournalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(DraftResponse{Success: false, Message: "Invalid request body"})
		return
	}

	wf := drafts.For(userID)
	if err := wf.SetJournal(req.JournalText); err != nil {
		w.WriteHeader(draftStatus(err))
		json.NewEncoder(w).Encode(DraftResponse{Success: false, Message: err.Error(), Draft: wf.Draft()})
		return
	}
	json.NewEncoder(w).Encode(DraftResponse{Success: true, Draft: wf.Draft()})
}

// SubmitMood runs the save sequence and returns the refreshed recent list.
func SubmitMood(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	userID, ok := requireAuth(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(EntriesResponse{Success: false, Message: "Authentication required", Entries: []models.MoodEntry{}})
		return
	}

	wf := drafts.For(userID)
	entries, err := wf.Submit(r.Context())
	if err != nil {
		status := draftStatus(err)
		msg := err.Error()
		if status == http.StatusInternalServerError {
			msg = "Failed to save mood entry. Please try again."
		}
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(EntriesResponse{Success: false, Message: msg, Entries: []models.MoodEntry{}})
		return
	}

	// Mirror the refreshed list into the cache and notify live listeners.
	if err := services.RecentEntries.Replace(r.Context(), userID, entries); err != nil {
		log.Printf("failed to cache recent entries for user %s: %v", userID, err)
	}
	if err := services.PublishMoodEvent(r.Context(), services.MoodEvent{
		Type:    "entries_updated",
		UserID:  userID,
		Entries: entries,
	}); err != nil {
		log.Printf("failed to publish mood event for user %s: %v", userID, err)
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(EntriesResponse{
		Success: true,
		Message: "Your mood has been saved with AI reflection.",
		Entries: entries,
	})
}

// CancelDraft discards the caller's draft.
func CancelDraft(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	userID, ok := requireAuth(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(DraftResponse{Success: false, Message: "Authentication required"})
		return
	}

	wf := drafts.For(userID)
	if err := wf.Cancel(); err != nil {
		w.WriteHeader(draftStatus(err))
		json.NewEncoder(w).Encode(DraftResponse{Success: false, Message: err.Error(), Draft: wf.Draft()})
		return
	}
	json.NewEncoder(w).Encode(DraftResponse{Success: true, Draft: wf.Draft()})
}

// recentEntries returns the user's recent list, serving from the cache when
// possible and loading from the store otherwise.
func recentEntries(r *http.Request, userID string) []models.MoodEntry {
	if entries, ok := services.RecentEntries.Get(r.Context(), userID); ok {
		return entries
	}
	entries := drafts.For(userID).Load(r.Context())
	if err := services.RecentEntries.Replace(r.Context(), userID, entries); err != nil {
		log.Printf("failed to cache recent entries for user %s: %v", userID, err)
	}
	return entries
}

// GetMoodEntries returns the most recent entries, newest first. The display
// list shows 3 by default; limit may be raised up to the 7 the trend window
// keeps.
func GetMoodEntries(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	userID, ok := requireAuth(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(EntriesResponse{Success: false, Message: "Authentication required", Entries: []models.MoodEntry{}})
		return
	}

	limit := DisplayLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= workflow.RecentLimit {
			limit = parsed
		}
	}

	entries := recentEntries(r, userID)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	json.NewEncoder(w).Encode(EntriesResponse{Success: true, Entries: entries})
}

// GetMoodTrend serves the 7-day trend report for the caller.
func GetMoodTrend(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	userID, ok := requireAuth(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(TrendResponse{Success: false, Message: "Authentication required"})
		return
	}

	entries := recentEntries(r, userID)
	points := make([]trend.Entry, len(entries))
	for i, e := range entries {
		points[i] = trend.Entry{Score: e.MoodScore, CreatedAt: e.CreatedAt}
	}

	report := trend.Render(points, time.Now(), trendLoc)
	json.NewEncoder(w).Encode(TrendResponse{Success: true, Trend: report})
}
