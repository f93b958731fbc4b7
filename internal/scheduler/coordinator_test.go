package scheduler

import (
	"testing"

	"eartrainer/internal/models"
)

type fakeHistoryStore struct {
	records []models.Completion
	err     error
}

func (f *fakeHistoryStore) RecordQuestion(seed int64, settings models.Settings, hadErrors bool) error {
	f.records = append(f.records, models.Completion{
		Question:  models.NextQuestion{Seed: seed, Settings: settings},
		HadErrors: hadErrors,
	})
	return f.err
}

func newTestCoordinator(mode Mode, history HistoryStore) *Coordinator {
	if history == nil {
		history = &fakeHistoryStore{}
	}
	return NewCoordinator(mode, newFakeMistakeStore(), &fakeWeaknessStore{}, history, 3, 3, 20, false, 1)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"random", ModeRandom, false},
		{"spaced", ModeSpaced, false},
		{"weakness", ModeWeakness, false},
		{"", ModeSpaced, false},
		{"fifo", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRandomModeAlwaysFresh(t *testing.T) {
	c := newTestCoordinator(ModeRandom, nil)
	for i := 0; i < 5; i++ {
		if q := c.NextQuestion(testSettings); q.Source != models.SourceFresh {
			t.Fatalf("got %v, want fresh", q.Source)
		}
	}
	if _, ok := c.ActiveReask(); ok {
		t.Error("random mode must never leave a re-ask in play")
	}
}

func TestEveryCompletionReachesHistory(t *testing.T) {
	history := &fakeHistoryStore{}
	c := newTestCoordinator(ModeRandom, history)

	c.RecordCompletion(freshCompletion(10, true))
	c.RecordCompletion(freshCompletion(11, false))

	if len(history.records) != 2 {
		t.Fatalf("history records = %d, want 2", len(history.records))
	}
	if history.records[0].Question.Seed != 10 || !history.records[0].HadErrors {
		t.Errorf("first record = %+v", history.records[0])
	}
	if history.records[1].Question.Seed != 11 || history.records[1].HadErrors {
		t.Errorf("second record = %+v", history.records[1])
	}
}

func TestInFlightReaskLifecycle(t *testing.T) {
	c := newTestCoordinator(ModeSpaced, nil)

	// Make seed 42 due, then draw it.
	c.RecordCompletion(freshCompletion(42, true))
	for i := 0; i < 3; i++ {
		c.RecordCompletion(freshCompletion(int64(100+i), false))
	}
	q := c.NextQuestion(testSettings)
	if q.Source != models.SourceQueuedReask {
		t.Fatalf("setup: got %v, want queued re-ask", q.Source)
	}
	if got, ok := c.ActiveReask(); !ok || got.Seed != 42 {
		t.Fatalf("ActiveReask() = %+v, %v", got, ok)
	}

	// A failing completion keeps the re-ask in play for the replay loop.
	c.RecordCompletion(models.Completion{Question: q, HadErrors: true})
	if _, ok := c.ActiveReask(); !ok {
		t.Error("failed re-ask must stay in play")
	}

	// A clean completion retires it.
	c.RecordCompletion(models.Completion{Question: q, HadErrors: false})
	if _, ok := c.ActiveReask(); ok {
		t.Error("clean completion must clear the in-flight re-ask")
	}
}

func TestSetModeClearsInFlightReask(t *testing.T) {
	c := newTestCoordinator(ModeSpaced, nil)
	c.RecordCompletion(freshCompletion(42, true))
	for i := 0; i < 3; i++ {
		c.RecordCompletion(freshCompletion(int64(100+i), false))
	}
	if q := c.NextQuestion(testSettings); q.Source != models.SourceQueuedReask {
		t.Fatalf("setup: got %v", q.Source)
	}

	c.SetMode(ModeRandom)
	if _, ok := c.ActiveReask(); ok {
		t.Error("mode switch must drop the in-flight re-ask")
	}
	if c.Mode() != ModeRandom {
		t.Errorf("Mode() = %v, want random", c.Mode())
	}
}

func TestObservabilityTracksQueue(t *testing.T) {
	c := newTestCoordinator(ModeSpaced, nil)

	obs := c.Observability()
	if obs.PendingCount != 0 || obs.HasDue {
		t.Fatalf("empty queue observability = %+v", obs)
	}

	c.RecordCompletion(freshCompletion(42, true))
	obs = c.Observability()
	if obs.PendingCount != 1 {
		t.Errorf("PendingCount = %d, want 1", obs.PendingCount)
	}
	if obs.HasDue {
		t.Error("fresh mistake must not be immediately due")
	}
	if obs.QuestionsUntilNextDue != 3 {
		t.Errorf("QuestionsUntilNextDue = %d, want 3", obs.QuestionsUntilNextDue)
	}
	if len(obs.Queue) != 1 || obs.Queue[0].Seed != 42 {
		t.Errorf("Queue = %+v", obs.Queue)
	}

	for i := 0; i < 3; i++ {
		c.RecordCompletion(freshCompletion(int64(100+i), false))
	}
	obs = c.Observability()
	if !obs.HasDue || obs.QuestionsUntilNextDue != 0 {
		t.Errorf("after clearance run: HasDue = %v, countdown = %d, want true, 0", obs.HasDue, obs.QuestionsUntilNextDue)
	}

	if err := c.ClearQueue(); err != nil {
		t.Fatalf("ClearQueue() error = %v", err)
	}
	if obs = c.Observability(); obs.PendingCount != 0 {
		t.Errorf("PendingCount after clear = %d, want 0", obs.PendingCount)
	}
}

// Switching strategies must republish the queue state from the new
// strategy's view, not leave the previous mode's snapshot behind.
func TestSetModeRefreshesObservability(t *testing.T) {
	c := newTestCoordinator(ModeSpaced, nil)
	c.RecordCompletion(freshCompletion(42, true))

	if obs := c.Observability(); obs.PendingCount != 1 {
		t.Fatalf("setup: PendingCount = %d, want 1", obs.PendingCount)
	}

	c.SetMode(ModeRandom)
	obs := c.Observability()
	if obs.PendingCount != 0 || obs.HasDue || len(obs.Queue) != 0 {
		t.Errorf("observability after switch to random = %+v, want empty view", obs)
	}

	// Switching back re-exposes the shared queue.
	c.SetMode(ModeSpaced)
	if obs = c.Observability(); obs.PendingCount != 1 {
		t.Errorf("PendingCount after switch back = %d, want 1", obs.PendingCount)
	}
}

func TestSharedQueueAcrossModes(t *testing.T) {
	c := newTestCoordinator(ModeSpaced, nil)
	c.RecordCompletion(freshCompletion(42, true))

	c.SetMode(ModeWeakness)
	for i := 0; i < 3; i++ {
		c.RecordCompletion(freshCompletion(int64(100+i), false))
	}

	// The mistake queued under spaced mode comes due under weakness mode.
	q := c.NextQuestion(testSettings)
	if q.Source != models.SourceQueuedReask || q.Seed != 42 {
		t.Errorf("got %+v, want queued re-ask of seed 42", q)
	}
}
