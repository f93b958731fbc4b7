package models

import (
	"time"

	"github.com/google/uuid"
)

// AttemptDescriptor records a single physical key-press while a question was
// awaiting input. One row is produced per press, correct or not, before any
// engine state changes, so the row reflects exactly what the learner heard
// and played.
//
// Degree fields are nil when the pitch falls outside the active scale.
// Interval fields are nil for the first note of a sequence (no previous
// correct note to measure from).
type AttemptDescriptor struct {
	NoteIndex        int
	ExpectedPitch    uint8
	GuessedPitch     uint8
	ExpectedDegree   *int
	GuessedDegree    *int
	ExpectedInterval *int
	GuessedInterval  *int
	Correct          bool
	CreatedAt        time.Time
}

// TrainingSession groups the questions asked between program start and exit.
type TrainingSession struct {
	ID        uuid.UUID
	Settings  Settings
	StartedAt time.Time
}
