package repository

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"eartrainer/internal/database"
	"eartrainer/internal/models"
)

var repoSettings = models.Settings{
	KeyRoot:      0,
	ScaleName:    "major",
	NoteCount:    4,
	BPM:          90,
	LowestPitch:  48,
	HighestPitch: 72,
}

// testDB opens a throwaway SQLite database with the real migrations applied.
func testDB(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func TestMistakeRepositoryLifecycle(t *testing.T) {
	db := testDB(t)
	repo := NewMistakeRepository(db)

	id, err := repo.Insert(42, repoSettings, 3, 3)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if id == 0 {
		t.Fatal("Insert() returned zero id")
	}

	if err := repo.IncrementAllCounters(); err != nil {
		t.Fatalf("IncrementAllCounters() error = %v", err)
	}

	id2, err := repo.Insert(43, repoSettings, 3, 3)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := repo.IncrementCountersExcept(id2); err != nil {
		t.Fatalf("IncrementCountersExcept() error = %v", err)
	}

	mistakes, err := repo.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(mistakes) != 2 {
		t.Fatalf("LoadAll() = %d rows, want 2", len(mistakes))
	}
	// Oldest first.
	if mistakes[0].ID != id || mistakes[1].ID != id2 {
		t.Errorf("order = %d, %d, want %d, %d", mistakes[0].ID, mistakes[1].ID, id, id2)
	}
	if mistakes[0].QuestionsSince != 2 {
		t.Errorf("first QuestionsSince = %d, want 2", mistakes[0].QuestionsSince)
	}
	if mistakes[1].QuestionsSince != 0 {
		t.Errorf("excepted row QuestionsSince = %d, want 0", mistakes[1].QuestionsSince)
	}
	if mistakes[0].Seed != 42 || !mistakes[0].Settings.Equal(repoSettings) {
		t.Errorf("round-trip = %+v", mistakes[0])
	}

	if err := repo.Update(id, 6, 6, 1); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	mistakes, _ = repo.LoadAll()
	if m := mistakes[0]; m.MinDistance != 6 || m.CurrentDistance != 6 || m.QuestionsSince != 1 {
		t.Errorf("after Update = %+v", m)
	}

	if err := repo.Delete(id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if mistakes, _ = repo.LoadAll(); len(mistakes) != 1 {
		t.Fatalf("after Delete = %d rows, want 1", len(mistakes))
	}

	if err := repo.DeleteAll(); err != nil {
		t.Fatalf("DeleteAll() error = %v", err)
	}
	if mistakes, _ = repo.LoadAll(); len(mistakes) != 0 {
		t.Errorf("after DeleteAll = %d rows, want 0", len(mistakes))
	}
}

func TestSessionAndSequencePersistence(t *testing.T) {
	db := testDB(t)
	sessions := NewSessionRepository(db)

	session, err := sessions.CreateSession(repoSettings)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if !session.Settings.Equal(repoSettings) {
		t.Errorf("session settings = %+v", session.Settings)
	}

	gen := &models.NoteSequence{
		ID:        uuid.New(),
		SessionID: session.ID,
		Seed:      42,
		Settings:  repoSettings,
		BPM:       repoSettings.BPM,
		Notes: []models.Note{
			{Index: 0, Pitch: 60, StartBeat: 0, DurationBeats: 2},
			{Index: 1, Pitch: 64, StartBeat: 2, DurationBeats: 2},
		},
	}
	if err := sessions.InsertSequence(gen); err != nil {
		t.Fatalf("InsertSequence() error = %v", err)
	}
}

func TestAttemptRepositoryRoundTrip(t *testing.T) {
	db := testDB(t)
	sessions := NewSessionRepository(db)

	session, err := sessions.CreateSession(repoSettings)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	seq := &models.NoteSequence{
		ID:        uuid.New(),
		SessionID: session.ID,
		Seed:      1,
		Settings:  repoSettings,
		BPM:       repoSettings.BPM,
		Notes:     []models.Note{{Index: 0, Pitch: 60, StartBeat: 0, DurationBeats: 4}},
	}
	if err := sessions.InsertSequence(seq); err != nil {
		t.Fatalf("InsertSequence() error = %v", err)
	}

	attempts := NewAttemptRepository(db)
	degree := 1
	interval := 2
	descriptors := []models.AttemptDescriptor{
		{NoteIndex: 0, ExpectedPitch: 60, GuessedPitch: 60, ExpectedDegree: &degree, GuessedDegree: &degree, Correct: true},
		{NoteIndex: 1, ExpectedPitch: 62, GuessedPitch: 61, ExpectedInterval: &interval, Correct: false},
	}
	for _, d := range descriptors {
		if err := attempts.Insert(seq.ID, d); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	got, err := attempts.ListBySequence(seq.ID)
	if err != nil {
		t.Fatalf("ListBySequence() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListBySequence() = %d rows, want 2", len(got))
	}
	if got[0].GuessedDegree == nil || *got[0].GuessedDegree != 1 {
		t.Errorf("degree round-trip = %v", got[0].GuessedDegree)
	}
	if got[1].GuessedDegree != nil {
		t.Errorf("nil degree came back as %v", *got[1].GuessedDegree)
	}
	if got[1].ExpectedInterval == nil || *got[1].ExpectedInterval != 2 {
		t.Errorf("interval round-trip = %v", got[1].ExpectedInterval)
	}
	if got[1].Correct {
		t.Error("correct flag round-trip failed")
	}
}

func TestTopWeaknessesAggregation(t *testing.T) {
	db := testDB(t)
	history := NewHistoryRepository(db)

	// Seed 1: asked 3 times, failed twice. Seed 2: failed once. Seed 3: clean.
	records := []struct {
		seed      int64
		hadErrors bool
	}{
		{1, true}, {1, true}, {1, false},
		{2, true}, {2, false},
		{3, false}, {3, false},
	}
	for _, rec := range records {
		if err := history.RecordQuestion(rec.seed, repoSettings, rec.hadErrors); err != nil {
			t.Fatalf("RecordQuestion() error = %v", err)
		}
	}
	// Same seed, different key: must not leak into the C major aggregation.
	otherKey := repoSettings
	otherKey.KeyRoot = 7
	if err := history.RecordQuestion(1, otherKey, true); err != nil {
		t.Fatalf("RecordQuestion() error = %v", err)
	}

	entries, err := history.TopWeaknesses(repoSettings, 10, false)
	if err != nil {
		t.Fatalf("TopWeaknesses() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("TopWeaknesses() = %d entries, want 2 (clean seeds excluded)", len(entries))
	}
	if entries[0].Seed != 1 || entries[0].FailureCount != 2 || entries[0].TimesAsked != 3 {
		t.Errorf("top entry = %+v", entries[0])
	}
	if entries[1].Seed != 2 || entries[1].FailureCount != 1 {
		t.Errorf("second entry = %+v", entries[1])
	}

	if entries, err = history.TopWeaknesses(repoSettings, 1, false); err != nil || len(entries) != 1 {
		t.Errorf("limit 1: entries = %v, err = %v", entries, err)
	}
}

func TestTopWeaknessesExactMatchScoping(t *testing.T) {
	db := testDB(t)
	history := NewHistoryRepository(db)

	if err := history.RecordQuestion(1, repoSettings, true); err != nil {
		t.Fatal(err)
	}
	// Same key and scale, different note count.
	variant := repoSettings
	variant.NoteCount = 8
	if err := history.RecordQuestion(2, variant, true); err != nil {
		t.Fatal(err)
	}

	loose, err := history.TopWeaknesses(repoSettings, 10, false)
	if err != nil {
		t.Fatalf("TopWeaknesses() error = %v", err)
	}
	if len(loose) != 2 {
		t.Errorf("loose match = %d entries, want 2", len(loose))
	}

	exact, err := history.TopWeaknesses(repoSettings, 10, true)
	if err != nil {
		t.Fatalf("TopWeaknesses() error = %v", err)
	}
	if len(exact) != 1 || exact[0].Seed != 1 {
		t.Errorf("exact match = %+v, want only seed 1", exact)
	}
}
