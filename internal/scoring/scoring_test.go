package scoring

import (
	"testing"

	"eartrainer/internal/models"
)

var cMajor = models.Settings{
	KeyRoot:      0,
	ScaleName:    "major",
	NoteCount:    4,
	BPM:          90,
	LowestPitch:  48,
	HighestPitch: 72,
}

func TestDescriptorFirstNote(t *testing.T) {
	svc := NewService()

	d := svc.Descriptor(0, 60, 60, nil, nil, cMajor, true)

	if !d.Correct {
		t.Error("expected correct")
	}
	if d.ExpectedDegree == nil || *d.ExpectedDegree != 1 {
		t.Errorf("expected degree 1, got %v", d.ExpectedDegree)
	}
	if d.ExpectedInterval != nil {
		t.Errorf("first note must have no interval, got %v", *d.ExpectedInterval)
	}
	if d.GuessedInterval != nil {
		t.Errorf("first note must have no guessed interval, got %v", *d.GuessedInterval)
	}
}

// A chromatic wrong press: C major, expected 62 (D), guessed 61 (C#) after
// a correct 60.
func TestDescriptorWrongChromaticNote(t *testing.T) {
	svc := NewService()
	prev := uint8(60)

	d := svc.Descriptor(1, 62, 61, &prev, &prev, cMajor, false)

	if d.Correct {
		t.Error("expected incorrect")
	}
	if d.ExpectedDegree == nil || *d.ExpectedDegree != 2 {
		t.Errorf("expected degree 2, got %v", d.ExpectedDegree)
	}
	if d.GuessedDegree != nil {
		t.Errorf("C# has no degree in C major, got %d", *d.GuessedDegree)
	}
	if d.ExpectedInterval == nil || *d.ExpectedInterval != 2 {
		t.Errorf("expected interval 2, got %v", d.ExpectedInterval)
	}
	if d.GuessedInterval == nil || *d.GuessedInterval != 1 {
		t.Errorf("guessed interval 1, got %v", d.GuessedInterval)
	}
}

func TestDescriptorDownwardInterval(t *testing.T) {
	svc := NewService()
	prevExpected := uint8(67)
	prevGuessed := uint8(67)

	d := svc.Descriptor(2, 64, 64, &prevExpected, &prevGuessed, cMajor, true)

	if d.ExpectedInterval == nil || *d.ExpectedInterval != -3 {
		t.Errorf("expected interval -3, got %v", d.ExpectedInterval)
	}
	if d.NoteIndex != 2 {
		t.Errorf("note index = %d, want 2", d.NoteIndex)
	}
	if d.CreatedAt.IsZero() {
		t.Error("timestamp not set")
	}
}
