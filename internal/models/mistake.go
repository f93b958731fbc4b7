package models

import "time"

// QueuedMistake is one entry of the short-term reinforcement queue: a
// question the learner got wrong, waiting to be re-asked after a clearance
// distance of intervening fresh questions.
type QueuedMistake struct {
	ID       int64
	Seed     int64
	Settings Settings

	// MinDistance is the floor the spacing can never drop below. It grows
	// by a fixed step every time the re-ask fails.
	MinDistance int

	// CurrentDistance is the spacing currently in force. It normally equals
	// MinDistance; it can lag behind only for rows whose floor was raised
	// after they were persisted.
	CurrentDistance int

	// QuestionsSince counts completed questions since this entry was last
	// (re)queued.
	QuestionsSince int

	QueuedAt time.Time
}

// RemainingUntilDue returns how many more fresh questions must complete
// before this entry is due.
func (m QueuedMistake) RemainingUntilDue() int {
	remaining := m.CurrentDistance - m.QuestionsSince
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsDue reports whether the entry should be re-asked now.
func (m QueuedMistake) IsDue() bool {
	return m.RemainingUntilDue() == 0
}

// WeaknessEntry is an aggregate over question history: how often a seed was
// asked in the current key and how often its first full attempt had errors.
// Unlike QueuedMistake this is not a queue row; selection over weaknesses is
// weighted-random, not FIFO.
type WeaknessEntry struct {
	Seed         int64
	Settings     Settings
	TimesAsked   int
	FailureCount int
}

// Weight returns the selection weight for weighted-random draws. Monotonic
// in the failure count.
func (w WeaknessEntry) Weight() float64 {
	return float64(w.FailureCount)
}
