package scheduler

import "eartrainer/internal/models"

// RandomScheduler always asks a fresh question. It keeps no state.
type RandomScheduler struct{}

// NewRandomScheduler creates a new random scheduler.
func NewRandomScheduler() *RandomScheduler {
	return &RandomScheduler{}
}

func (s *RandomScheduler) NextQuestion(models.Settings) models.NextQuestion {
	return models.FreshQuestion()
}

func (s *RandomScheduler) RecordCompletion(models.Completion) {}

func (s *RandomScheduler) PendingCount() int { return 0 }

func (s *RandomScheduler) QuestionsUntilNextDue() (int, bool) { return 0, false }

func (s *RandomScheduler) QueueSnapshot() []models.QueuedMistake { return nil }

func (s *RandomScheduler) ClearQueue() error { return nil }
