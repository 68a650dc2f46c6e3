// Package workflow implements the mood submission flow: pick a score, write
// an optional journal note, generate a reflection, persist the entry, and
// reload the recent list. Each user has one draft at a time and one
// submission in flight at most.
package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/moodmirror/backend/internal/models"
	"github.com/moodmirror/backend/internal/mood"
	"github.com/moodmirror/backend/internal/reflection"
)

// State is the draft's position in the submission flow.
type State int

const (
	StateIdle State = iota
	StateMoodSelected
	StateComposing
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMoodSelected:
		return "mood_selected"
	case StateComposing:
		return "composing"
	case StateSubmitting:
		return "submitting"
	}
	return "unknown"
}

// MarshalJSON serializes the state name, not the ordinal.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

const (
	// MaxJournalLen matches the entry form's character cap.
	MaxJournalLen = 500
	// RecentLimit is how many entries the recent list and the trend window
	// fetch.
	RecentLimit = 7
)

var (
	ErrInvalidScore   = errors.New("mood score must be between 1 and 5")
	ErrNoMoodSelected = errors.New("no mood selected")
	ErrSubmitInFlight = errors.New("a submission is already in flight")
	ErrJournalTooLong = errors.New("journal entry exceeds 500 characters")
	ErrBadTransition  = errors.New("action not allowed in current state")
)

// Store is the persistence collaborator. Entries come back in descending
// created_at order.
type Store interface {
	List(ctx context.Context, userID string, limit int64) ([]models.MoodEntry, error)
	Create(ctx context.Context, entry models.MoodEntry) (models.MoodEntry, error)
}

// Generator is the reflection collaborator.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Draft is a snapshot of the in-progress submission.
type Draft struct {
	State        State  `json:"state"`
	SelectedMood int    `json:"selected_mood,omitempty"`
	JournalText  string `json:"journal_text,omitempty"`
	InFlight     bool   `json:"in_flight"`
}

// Workflow holds one user's draft and recent-entries cache. All methods are
// safe for concurrent use; external calls run outside the lock, with the
// submitting state rejecting a second save at the boundary.
type Workflow struct {
	store Store
	gen   Generator
	now   func() time.Time

	mu           sync.Mutex
	userID       string
	state        State
	selectedMood int
	journal      string
	recent       []models.MoodEntry
}

func New(userID string, store Store, gen Generator) *Workflow {
	return &Workflow{
		store:  store,
		gen:    gen,
		now:    time.Now,
		userID: userID,
	}
}

// SetClock overrides the timestamp source. Tests use this to pin created_at.
func (w *Workflow) SetClock(now func() time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.now = now
}

// Draft returns a snapshot of the current draft state.
func (w *Workflow) Draft() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Draft{
		State:        w.state,
		SelectedMood: w.selectedMood,
		JournalText:  w.journal,
		InFlight:     w.state == StateSubmitting,
	}
}

// Recent returns the cached recent-entries list, newest first.
func (w *Workflow) Recent() []models.MoodEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]models.MoodEntry, len(w.recent))
	copy(out, w.recent)
	return out
}

// Load fetches the authoritative recent list and replaces the cache. Called
// once after authentication; the only other writer is the reload step inside
// Submit. A fetch failure is logged and leaves the prior cache untouched.
func (w *Workflow) Load(ctx context.Context) []models.MoodEntry {
	entries, err := w.store.List(ctx, w.userID, RecentLimit)
	if err != nil {
		log.Printf("failed to load mood entries for user %s: %v", w.userID, err)
		return w.Recent()
	}
	w.mu.Lock()
	w.recent = entries
	w.mu.Unlock()
	return w.Recent()
}

// SelectMood records the picked score. Allowed while idle or re-picking
// before the entry form opens.
func (w *Workflow) SelectMood(score int) error {
	if !mood.ValidScore(score) {
		return ErrInvalidScore
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateIdle && w.state != StateMoodSelected {
		return ErrBadTransition
	}
	w.selectedMood = score
	w.state = StateMoodSelected
	return nil
}

// Compose opens the entry form for the selected mood.
func (w *Workflow) Compose() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateMoodSelected {
		return ErrBadTransition
	}
	w.state = StateComposing
	return nil
}

// SetJournal replaces the journal draft while composing.
func (w *Workflow) SetJournal(text string) error {
	if len([]rune(text)) > MaxJournalLen {
		return ErrJournalTooLong
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateComposing {
		return ErrBadTransition
	}
	w.journal = text
	return nil
}

// Cancel discards the draft. Not available while a submission is in flight.
func (w *Workflow) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateMoodSelected && w.state != StateComposing {
		return ErrBadTransition
	}
	w.resetLocked()
	return nil
}

func (w *Workflow) resetLocked() {
	w.state = StateIdle
	w.selectedMood = 0
	w.journal = ""
}

// Submit runs the save sequence: generate a reflection (falling back to the
// fixed encouraging text on any generation error), persist the entry, reload
// the recent list, and reset the draft. With no mood selected it performs no
// external calls and no transitions. On a persistence failure the draft is
// preserved so the user can retry without re-entering anything.
func (w *Workflow) Submit(ctx context.Context) ([]models.MoodEntry, error) {
	w.mu.Lock()
	if w.state == StateSubmitting {
		w.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if w.selectedMood == 0 {
		w.mu.Unlock()
		return nil, ErrNoMoodSelected
	}
	score := w.selectedMood
	journal := w.journal
	prevState := w.state
	now := w.now
	w.state = StateSubmitting
	w.mu.Unlock()

	text, err := w.gen.Generate(ctx, reflection.Prompt(mood.LabelFor(score), journal), reflection.MaxOutputTokens)
	if err != nil {
		log.Printf("reflection generation failed, using fallback: %v", err)
		text = reflection.Fallback
	}

	entry := models.MoodEntry{
		CreatedAt:    now(),
		UserIDString: w.userID,
		MoodScore:    score,
		MoodEmoji:    mood.EmojiFor(score),
		AIReflection: text,
	}
	if journal != "" {
		entry.JournalEntry = &journal
	}

	if _, err := w.store.Create(ctx, entry); err != nil {
		w.mu.Lock()
		w.state = prevState
		w.mu.Unlock()
		return nil, err
	}

	// Reconcile against the store rather than appending locally. A reload
	// failure leaves the prior cache in place and the submission still
	// succeeds.
	entries, err := w.store.List(ctx, w.userID, RecentLimit)
	w.mu.Lock()
	if err != nil {
		log.Printf("failed to reload mood entries for user %s: %v", w.userID, err)
	} else {
		w.recent = entries
	}
	w.resetLocked()
	out := make([]models.MoodEntry, len(w.recent))
	copy(out, w.recent)
	w.mu.Unlock()
	return out, nil
}

// Manager hands out one Workflow per user.
type Manager struct {
	store Store
	gen   Generator

	mu        sync.Mutex
	workflows map[string]*Workflow
}

func NewManager(store Store, gen Generator) *Manager {
	return &Manager{
		store:     store,
		gen:       gen,
		workflows: make(map[string]*Workflow),
	}
}

// For returns the user's workflow, creating it on first use.
func (m *Manager) For(userID string) *Workflow {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workflows[userID]
	if !ok {
		w = New(userID, m.store, m.gen)
		m.workflows[userID] = w
	}
	return w
}
