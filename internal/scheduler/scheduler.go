// Package scheduler decides whether the next question is freshly generated
// or a deliberate repeat of something the learner got wrong.
package scheduler

import "eartrainer/internal/models"

// MistakeStore is the persistence behind the reinforcement queue.
// *repository.MistakeRepository satisfies it.
type MistakeStore interface {
	LoadAll() ([]models.QueuedMistake, error)
	Insert(seed int64, settings models.Settings, minDistance, currentDistance int) (int64, error)
	Update(id int64, minDistance, currentDistance, questionsSince int) error
	Delete(id int64) error
	DeleteAll() error
	IncrementAllCounters() error
	IncrementCountersExcept(id int64) error
}

// WeaknessStore serves the long-run failure aggregation.
// *repository.HistoryRepository satisfies it.
type WeaknessStore interface {
	TopWeaknesses(settings models.Settings, limit int, matchExact bool) ([]models.WeaknessEntry, error)
}

// Strategy is the common contract of the three scheduling strategies.
type Strategy interface {
	// NextQuestion decides what the learner sees next.
	NextQuestion(settings models.Settings) models.NextQuestion

	// RecordCompletion reports how the last question went. Called exactly
	// once per question chain.
	RecordCompletion(c models.Completion)

	// PendingCount returns the number of queued mistakes.
	PendingCount() int

	// QuestionsUntilNextDue returns the smallest remaining-until-due
	// across the queue; false when the queue is empty.
	QuestionsUntilNextDue() (int, bool)

	// QueueSnapshot returns a copy of the queue in enqueue order.
	QueueSnapshot() []models.QueuedMistake

	// ClearQueue empties all reinforcement state. Historical weakness
	// data is unaffected.
	ClearQueue() error
}
