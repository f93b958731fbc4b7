package models

import (
	"time"

	"github.com/google/uuid"
)

// Note is a single note of a question, positioned in beats within the bar.
type Note struct {
	Index         int     // 0-based position in the sequence
	Pitch         uint8   // MIDI note number
	StartBeat     float64 // offset from the start of the bar
	DurationBeats float64
}

// NoteSequence is an immutable generated question: the ordered notes plus the
// seed and settings snapshot that produced them. Durations always sum to
// exactly one bar.
type NoteSequence struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Seed      int64
	Settings  Settings
	BPM       int
	Notes     []Note
	CreatedAt time.Time
}

// Len returns the number of notes in the sequence.
func (s *NoteSequence) Len() int {
	return len(s.Notes)
}

// TotalBeats returns the summed duration of all notes.
func (s *NoteSequence) TotalBeats() float64 {
	total := 0.0
	for _, n := range s.Notes {
		total += n.DurationBeats
	}
	return total
}

// BeatDuration returns the wall-clock length of one beat at the sequence
// tempo.
func (s *NoteSequence) BeatDuration() time.Duration {
	return time.Duration(float64(time.Minute) / float64(s.BPM))
}
