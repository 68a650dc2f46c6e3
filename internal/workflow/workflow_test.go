package workflow_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/moodmirror/backend/internal/models"
	"github.com/moodmirror/backend/internal/reflection"
	"github.com/moodmirror/backend/internal/workflow"
)

// fakeStore is an in-memory Store recording calls.
type fakeStore struct {
	mu        sync.Mutex
	entries   []models.MoodEntry
	createErr error
	listErr   error
	creates   int
	lists     int

	// blockCreate, when non-nil, is closed by the test to release a create
	// that is being held open to simulate an in-flight submission.
	blockCreate chan struct{}
}

func (s *fakeStore) Create(ctx context.Context, entry models.MoodEntry) (models.MoodEntry, error) {
	s.mu.Lock()
	s.creates++
	block := s.blockCreate
	s.mu.Unlock()

	if block != nil {
		<-block
	}
	if s.createErr != nil {
		return models.MoodEntry{}, s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return entry, nil
}

func (s *fakeStore) List(ctx context.Context, userID string, limit int64) ([]models.MoodEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.MoodEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.UserIDString == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeGenerator struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.text, nil
}

func newWorkflow(t *testing.T, store *fakeStore, gen *fakeGenerator) *workflow.Workflow {
	t.Helper()
	w := workflow.New("user-1", store, gen)
	w.SetClock(func() time.Time { return time.Date(2024, time.January, 7, 12, 0, 0, 0, time.UTC) })
	return w
}

func TestSubmitHappyPath(t *testing.T) {
	t.Parallel()
	store := &fakeStore{}
	gen := &fakeGenerator{text: "You showed up for yourself today."}
	w := newWorkflow(t, store, gen)

	if err := w.SelectMood(4); err != nil {
		t.Fatalf("select mood: %v", err)
	}
	if err := w.Compose(); err != nil {
		t.Fatalf("compose: %v", err)
	}
	if err := w.SetJournal("good walk in the park"); err != nil {
		t.Fatalf("set journal: %v", err)
	}

	recent, err := w.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if store.creates != 1 {
		t.Errorf("create calls = %d, want 1", store.creates)
	}
	if len(recent) != 1 {
		t.Fatalf("recent list length = %d, want 1", len(recent))
	}
	e := recent[0]
	if e.MoodScore != 4 || e.MoodEmoji != "😊" {
		t.Errorf("entry score/emoji = %d/%q", e.MoodScore, e.MoodEmoji)
	}
	if e.JournalEntry == nil || *e.JournalEntry != "good walk in the park" {
		t.Errorf("journal entry not persisted: %v", e.JournalEntry)
	}
	if e.AIReflection != "You showed up for yourself today." {
		t.Errorf("reflection = %q", e.AIReflection)
	}

	// Draft resets to idle after success.
	d := w.Draft()
	if d.State != workflow.StateIdle || d.SelectedMood != 0 || d.JournalText != "" || d.InFlight {
		t.Errorf("draft after submit = %+v, want empty idle", d)
	}
}

func TestSubmitWithoutMoodDoesNothing(t *testing.T) {
	t.Parallel()
	store := &fakeStore{}
	gen := &fakeGenerator{text: "x"}
	w := newWorkflow(t, store, gen)

	if _, err := w.Submit(context.Background()); !errors.Is(err, workflow.ErrNoMoodSelected) {
		t.Fatalf("expected ErrNoMoodSelected, got %v", err)
	}
	if gen.calls != 0 || store.creates != 0 || store.lists != 0 {
		t.Errorf("external calls made: gen=%d create=%d list=%d, want all 0", gen.calls, store.creates, store.lists)
	}
	if d := w.Draft(); d.State != workflow.StateIdle {
		t.Errorf("state = %v, want idle", d.State)
	}
}

func TestSubmitEmptyJournalStoredAsNil(t *testing.T) {
	t.Parallel()
	store := &fakeStore{}
	gen := &fakeGenerator{text: "x"}
	w := newWorkflow(t, store, gen)

	if err := w.SelectMood(3); err != nil {
		t.Fatalf("select mood: %v", err)
	}
	if _, err := w.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if store.entries[0].JournalEntry != nil {
		t.Errorf("empty journal should be stored as nil, got %q", *store.entries[0].JournalEntry)
	}
}

func TestSubmitGenerationFailureUsesFallback(t *testing.T) {
	t.Parallel()
	store := &fakeStore{}
	gen := &fakeGenerator{err: errors.New("model unavailable")}
	w := newWorkflow(t, store, gen)

	if err := w.SelectMood(2); err != nil {
		t.Fatalf("select mood: %v", err)
	}
	if _, err := w.Submit(context.Background()); err != nil {
		t.Fatalf("submit should succeed despite generation failure: %v", err)
	}
	if store.creates != 1 {
		t.Fatalf("create calls = %d, want exactly 1", store.creates)
	}
	if got := store.entries[0].AIReflection; got != reflection.Fallback {
		t.Errorf("reflection = %q, want the fixed fallback", got)
	}
}

func TestSubmitPersistenceFailurePreservesDraft(t *testing.T) {
	t.Parallel()
	store := &fakeStore{createErr: errors.New("write failed")}
	gen := &fakeGenerator{text: "x"}
	w := newWorkflow(t, store, gen)

	if err := w.SelectMood(5); err != nil {
		t.Fatalf("select mood: %v", err)
	}
	if err := w.Compose(); err != nil {
		t.Fatalf("compose: %v", err)
	}
	if err := w.SetJournal("keep this"); err != nil {
		t.Fatalf("set journal: %v", err)
	}

	before := w.Draft()
	if _, err := w.Submit(context.Background()); err == nil {
		t.Fatal("expected submit to fail")
	}

	after := w.Draft()
	if after.State != before.State || after.SelectedMood != 5 || after.JournalText != "keep this" {
		t.Errorf("draft changed across failed submit: before %+v, after %+v", before, after)
	}
	if after.InFlight {
		t.Error("in-flight flag not cleared after failure")
	}
	if store.lists != 0 {
		t.Errorf("reload ran after persistence failure: %d list calls", store.lists)
	}

	// The user can retry without re-entering anything.
	store.createErr = nil
	if _, err := w.Submit(context.Background()); err != nil {
		t.Fatalf("retry submit: %v", err)
	}
	if store.entries[0].JournalEntry == nil || *store.entries[0].JournalEntry != "keep this" {
		t.Error("retried submit lost the journal draft")
	}
}

func TestSubmitReloadFailureKeepsPriorList(t *testing.T) {
	t.Parallel()
	store := &fakeStore{}
	gen := &fakeGenerator{text: "x"}
	w := newWorkflow(t, store, gen)

	if err := w.SelectMood(3); err != nil {
		t.Fatalf("select mood: %v", err)
	}
	store.listErr = errors.New("read failed")
	recent, err := w.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit should succeed despite reload failure: %v", err)
	}
	if len(recent) != 0 {
		t.Errorf("recent list = %d entries, want prior (empty) cache", len(recent))
	}
	if d := w.Draft(); d.State != workflow.StateIdle {
		t.Errorf("draft not reset after successful persist: %+v", d)
	}
}

func TestDoubleSubmitIssuesOneCreate(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	store := &fakeStore{blockCreate: release}
	gen := &fakeGenerator{text: "x"}
	w := newWorkflow(t, store, gen)

	if err := w.SelectMood(5); err != nil {
		t.Fatalf("select mood: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := w.Submit(context.Background())
		done <- err
	}()

	// Wait until the first submission is holding the create call open.
	for {
		if d := w.Draft(); d.InFlight {
			break
		}
		time.Sleep(time.Millisecond)
	}

	// Second rapid tap is rejected at the boundary, not queued.
	if _, err := w.Submit(context.Background()); !errors.Is(err, workflow.ErrSubmitInFlight) {
		t.Fatalf("expected ErrSubmitInFlight, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if store.creates != 1 {
		t.Errorf("create calls = %d, want exactly 1", store.creates)
	}
}

func TestCancelDiscardsDraft(t *testing.T) {
	t.Parallel()
	w := newWorkflow(t, &fakeStore{}, &fakeGenerator{text: "x"})

	if err := w.Cancel(); !errors.Is(err, workflow.ErrBadTransition) {
		t.Fatalf("cancel from idle should fail, got %v", err)
	}

	if err := w.SelectMood(1); err != nil {
		t.Fatalf("select mood: %v", err)
	}
	if err := w.Compose(); err != nil {
		t.Fatalf("compose: %v", err)
	}
	if err := w.SetJournal("throwaway"); err != nil {
		t.Fatalf("set journal: %v", err)
	}
	if err := w.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if d := w.Draft(); d.State != workflow.StateIdle || d.SelectedMood != 0 || d.JournalText != "" {
		t.Errorf("draft after cancel = %+v, want empty idle", d)
	}
}

func TestTransitionGuards(t *testing.T) {
	t.Parallel()
	w := newWorkflow(t, &fakeStore{}, &fakeGenerator{text: "x"})

	if err := w.SelectMood(0); !errors.Is(err, workflow.ErrInvalidScore) {
		t.Errorf("SelectMood(0) = %v, want ErrInvalidScore", err)
	}
	if err := w.SelectMood(6); !errors.Is(err, workflow.ErrInvalidScore) {
		t.Errorf("SelectMood(6) = %v, want ErrInvalidScore", err)
	}
	if err := w.Compose(); !errors.Is(err, workflow.ErrBadTransition) {
		t.Errorf("Compose from idle = %v, want ErrBadTransition", err)
	}
	if err := w.SetJournal("hi"); !errors.Is(err, workflow.ErrBadTransition) {
		t.Errorf("SetJournal from idle = %v, want ErrBadTransition", err)
	}

	if err := w.SelectMood(2); err != nil {
		t.Fatalf("select mood: %v", err)
	}
	// Re-picking before the form opens is allowed.
	if err := w.SelectMood(4); err != nil {
		t.Errorf("re-select mood: %v", err)
	}
	if err := w.Compose(); err != nil {
		t.Fatalf("compose: %v", err)
	}

	long := make([]rune, workflow.MaxJournalLen+1)
	for i := range long {
		long[i] = 'a'
	}
	if err := w.SetJournal(string(long)); !errors.Is(err, workflow.ErrJournalTooLong) {
		t.Errorf("overlong journal = %v, want ErrJournalTooLong", err)
	}
}

func TestLoadReplacesCacheOnceAndKeepsOldOnError(t *testing.T) {
	t.Parallel()
	store := &fakeStore{}
	gen := &fakeGenerator{text: "x"}
	w := newWorkflow(t, store, gen)

	store.entries = []models.MoodEntry{{UserIDString: "user-1", MoodScore: 3, CreatedAt: time.Now()}}
	if got := w.Load(context.Background()); len(got) != 1 {
		t.Fatalf("load = %d entries, want 1", len(got))
	}

	store.listErr = errors.New("down")
	if got := w.Load(context.Background()); len(got) != 1 {
		t.Errorf("failed load should keep prior cache, got %d entries", len(got))
	}
}

func TestManagerReturnsSameWorkflowPerUser(t *testing.T) {
	t.Parallel()
	m := workflow.NewManager(&fakeStore{}, &fakeGenerator{text: "x"})
	a := m.For("user-a")
	if m.For("user-a") != a {
		t.Error("same user should get the same workflow")
	}
	if m.For("user-b") == a {
		t.Error("different users should get different workflows")
	}
}
