package melody

import (
	"testing"

	"eartrainer/internal/models"
	"eartrainer/internal/theory"
)

var cMajorSettings = models.Settings{
	KeyRoot:      0,
	ScaleName:    "major",
	NoteCount:    4,
	BPM:          90,
	LowestPitch:  48,
	HighestPitch: 72,
}

func TestGenerateIsDeterministic(t *testing.T) {
	g := NewGenerator()
	a, err := g.Generate(42, cMajorSettings)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	b, err := g.Generate(42, cMajorSettings)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(a.Notes) != len(b.Notes) {
		t.Fatalf("lengths differ: %d vs %d", len(a.Notes), len(b.Notes))
	}
	for i := range a.Notes {
		if a.Notes[i] != b.Notes[i] {
			t.Errorf("note %d differs: %+v vs %+v", i, a.Notes[i], b.Notes[i])
		}
	}
}

func TestGenerateDifferentSeedsDiffer(t *testing.T) {
	g := NewGenerator()
	var same int
	const trials = 20
	for seed := int64(0); seed < trials; seed++ {
		a, err := g.Generate(seed, cMajorSettings)
		if err != nil {
			t.Fatalf("Generate(%d) error = %v", seed, err)
		}
		b, err := g.Generate(seed+trials, cMajorSettings)
		if err != nil {
			t.Fatalf("Generate(%d) error = %v", seed+trials, err)
		}
		equal := true
		for i := range a.Notes {
			if a.Notes[i].Pitch != b.Notes[i].Pitch {
				equal = false
				break
			}
		}
		if equal {
			same++
		}
	}
	if same > trials/2 {
		t.Errorf("%d of %d seed pairs produced identical pitches", same, trials)
	}
}

func TestGeneratedNotesStayInKeyAndRange(t *testing.T) {
	g := NewGenerator()
	for seed := int64(0); seed < 50; seed++ {
		seq, err := g.Generate(seed, cMajorSettings)
		if err != nil {
			t.Fatalf("Generate(%d) error = %v", seed, err)
		}
		if len(seq.Notes) != cMajorSettings.NoteCount {
			t.Fatalf("seed %d: %d notes, want %d", seed, len(seq.Notes), cMajorSettings.NoteCount)
		}
		for _, n := range seq.Notes {
			if n.Pitch < cMajorSettings.LowestPitch || n.Pitch > cMajorSettings.HighestPitch {
				t.Errorf("seed %d: pitch %d outside range", seed, n.Pitch)
			}
			if _, ok := theory.ScaleDegree(cMajorSettings.KeyRoot, cMajorSettings.ScaleName, n.Pitch); !ok {
				t.Errorf("seed %d: pitch %s not in C major", seed, theory.NoteName(n.Pitch))
			}
		}
	}
}

func TestDurationsFillTheBar(t *testing.T) {
	g := NewGenerator()
	for _, count := range []int{1, 2, 4, 7, 8} {
		settings := cMajorSettings
		settings.NoteCount = count
		for seed := int64(0); seed < 20; seed++ {
			seq, err := g.Generate(seed, settings)
			if err != nil {
				t.Fatalf("count %d seed %d: %v", count, seed, err)
			}
			var total float64
			prevEnd := 0.0
			for _, n := range seq.Notes {
				if n.DurationBeats <= 0 {
					t.Fatalf("count %d seed %d: zero-length note %d", count, seed, n.Index)
				}
				if n.StartBeat != prevEnd {
					t.Fatalf("count %d seed %d: note %d starts at %v, want %v", count, seed, n.Index, n.StartBeat, prevEnd)
				}
				prevEnd = n.StartBeat + n.DurationBeats
				total += n.DurationBeats
			}
			// Grid durations are binary fractions, so the sum is exact.
			if total != BeatsPerBar {
				t.Errorf("count %d seed %d: durations sum to %v, want %v", count, seed, total, BeatsPerBar)
			}
		}
	}
}

func TestGenerateRejectsBadSettings(t *testing.T) {
	g := NewGenerator()
	tests := []struct {
		name   string
		mutate func(*models.Settings)
	}{
		{"unknown scale", func(s *models.Settings) { s.ScaleName = "klezmer" }},
		{"zero notes", func(s *models.Settings) { s.NoteCount = 0 }},
		{"zero bpm", func(s *models.Settings) { s.BPM = 0 }},
		{"negative bpm", func(s *models.Settings) { s.BPM = -90 }},
		{"empty range", func(s *models.Settings) { s.LowestPitch, s.HighestPitch = 60, 60 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := cMajorSettings
			tt.mutate(&settings)
			if _, err := g.Generate(1, settings); err == nil {
				t.Error("Generate() succeeded, want error")
			}
		})
	}
}
