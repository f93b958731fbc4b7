// Package scoring turns key-presses into attempt descriptors.
package scoring

import (
	"time"

	"eartrainer/internal/models"
	"eartrainer/internal/theory"
)

// Service computes attempt descriptors. It keeps no state and is safe to
// call concurrently; callers invoke it once per physical key-press, before
// mutating any session state.
type Service struct{}

// NewService creates a new scoring service.
func NewService() *Service {
	return &Service{}
}

// Descriptor builds the descriptor for one key-press. prevExpected and
// prevGuessed are the pitches of the previous correctly answered note; both
// are nil for the first note of a sequence, which leaves the interval fields
// unset.
func (s *Service) Descriptor(noteIndex int, expected, guessed uint8, prevExpected, prevGuessed *uint8, settings models.Settings, correct bool) models.AttemptDescriptor {
	d := models.AttemptDescriptor{
		NoteIndex:     noteIndex,
		ExpectedPitch: expected,
		GuessedPitch:  guessed,
		Correct:       correct,
		CreatedAt:     time.Now(),
	}

	if deg, ok := theory.ScaleDegree(settings.KeyRoot, settings.ScaleName, expected); ok {
		d.ExpectedDegree = &deg
	}
	if deg, ok := theory.ScaleDegree(settings.KeyRoot, settings.ScaleName, guessed); ok {
		d.GuessedDegree = &deg
	}

	if prevExpected != nil {
		iv := theory.Interval(*prevExpected, expected)
		d.ExpectedInterval = &iv
	}
	if prevGuessed != nil {
		iv := theory.Interval(*prevGuessed, guessed)
		d.GuessedInterval = &iv
	}

	return d
}
