package scheduler

import (
	"log"
	"sync"
	"time"

	"eartrainer/internal/models"
)

// Default spacing: a new mistake comes back after three fresh questions, and
// every failed re-ask pushes its floor three further out.
const (
	DefaultInitialDistance = 3
	DefaultDistanceStep    = 3
)

// SpacedMistakeScheduler owns the reinforcement queue: every question
// answered with at least one error is re-asked after a clearance distance of
// intervening questions, and the distance grows each time the re-ask fails.
//
// The store is the source of truth across runs; an in-process cache mirrors
// it and every mutation goes through both. Store write failures are logged
// and dropped so a flaky disk never stalls the practice loop.
type SpacedMistakeScheduler struct {
	mu    sync.Mutex
	store MistakeStore
	queue []models.QueuedMistake

	initialDistance int
	step            int
}

// NewSpacedMistakeScheduler creates the scheduler. initialDistance is the
// clearance floor for new entries; step is how much a failed re-ask raises
// the floor.
func NewSpacedMistakeScheduler(store MistakeStore, initialDistance, step int) *SpacedMistakeScheduler {
	if initialDistance <= 0 {
		initialDistance = DefaultInitialDistance
	}
	if step <= 0 {
		step = DefaultDistanceStep
	}
	return &SpacedMistakeScheduler{
		store:           store,
		initialDistance: initialDistance,
		step:            step,
	}
}

// Load rehydrates the cache from the store. Entries persisted with a floor
// below the configured one are normalized up; their current distance is left
// as stored, which is the only way current can end up below minimum. The
// success branch of resolveReask reconciles such rows instead of deleting
// them.
func (s *SpacedMistakeScheduler) Load() error {
	entries, err := s.store.LoadAll()
	if err != nil {
		return err
	}

	for i := range entries {
		if entries[i].MinDistance < s.initialDistance {
			entries[i].MinDistance = s.initialDistance
			if err := s.store.Update(entries[i].ID, entries[i].MinDistance, entries[i].CurrentDistance, entries[i].QuestionsSince); err != nil {
				log.Printf("Normalizing queued mistake %d failed: %v", entries[i].ID, err)
			}
		}
	}

	s.mu.Lock()
	s.queue = entries
	s.mu.Unlock()
	return nil
}

// NextQuestion returns the earliest due entry as a re-ask, or fresh when
// nothing is due. The scan is FIFO by enqueue time.
func (s *SpacedMistakeScheduler) NextQuestion(models.Settings) models.NextQuestion {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.queue {
		if m.IsDue() {
			return models.QueuedReask(m)
		}
	}
	return models.FreshQuestion()
}

// RecordCompletion updates the queue for one finished question.
func (s *SpacedMistakeScheduler) RecordCompletion(c models.Completion) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.Question.Source == models.SourceQueuedReask {
		s.resolveReask(c)
		return
	}
	s.recordFresh(c)
}

// recordFresh handles a fresh completion: every queued entry moves one
// question closer to due, and an imperfect answer enqueues a new entry.
func (s *SpacedMistakeScheduler) recordFresh(c models.Completion) {
	if err := s.store.IncrementAllCounters(); err != nil {
		log.Printf("Incrementing mistake counters failed: %v", err)
	}
	for i := range s.queue {
		s.queue[i].QuestionsSince++
	}

	if !c.HadErrors {
		return
	}

	id, err := s.store.Insert(c.Question.Seed, c.Question.Settings, s.initialDistance, s.initialDistance)
	if err != nil {
		log.Printf("Enqueueing mistake for seed %d failed: %v", c.Question.Seed, err)
		return
	}

	s.queue = append(s.queue, models.QueuedMistake{
		ID:              id,
		Seed:            c.Question.Seed,
		Settings:        c.Question.Settings,
		MinDistance:     s.initialDistance,
		CurrentDistance: s.initialDistance,
		QuestionsSince:  0,
		QueuedAt:        time.Now(),
	})
}

// resolveReask handles a completed re-ask: all other entries advance, then
// the target is removed, kept with a raised floor, or reconciled up to its
// floor per the success/failure rules.
func (s *SpacedMistakeScheduler) resolveReask(c models.Completion) {
	id := c.Question.MistakeID

	if err := s.store.IncrementCountersExcept(id); err != nil {
		log.Printf("Incrementing mistake counters failed: %v", err)
	}
	idx := -1
	for i := range s.queue {
		if s.queue[i].ID == id {
			idx = i
			continue
		}
		s.queue[i].QuestionsSince++
	}

	if idx < 0 {
		log.Printf("Completed re-ask %d not in queue; ignoring", id)
		return
	}
	m := &s.queue[idx]

	if c.HadErrors {
		// A failure never removes the entry; it pushes the spacing out
		// and restarts the wait.
		m.MinDistance += s.step
		m.CurrentDistance = m.MinDistance
		m.QuestionsSince = 0
		if err := s.store.Update(m.ID, m.MinDistance, m.CurrentDistance, m.QuestionsSince); err != nil {
			log.Printf("Updating queued mistake %d failed: %v", m.ID, err)
		}
		return
	}

	if m.CurrentDistance >= m.MinDistance {
		if err := s.store.Delete(m.ID); err != nil {
			log.Printf("Deleting queued mistake %d failed: %v", m.ID, err)
		}
		s.queue = append(s.queue[:idx], s.queue[idx+1:]...)
		return
	}

	// Normalized legacy row answered correctly while its spacing still
	// lagged the raised floor: bring it up and give it one more round.
	m.CurrentDistance = m.MinDistance
	m.QuestionsSince = 0
	if err := s.store.Update(m.ID, m.MinDistance, m.CurrentDistance, m.QuestionsSince); err != nil {
		log.Printf("Updating queued mistake %d failed: %v", m.ID, err)
	}
}

// PendingCount returns the number of queued mistakes.
func (s *SpacedMistakeScheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// QuestionsUntilNextDue returns the smallest remaining-until-due across the
// queue, or false when the queue is empty.
func (s *SpacedMistakeScheduler) QuestionsUntilNextDue() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return 0, false
	}
	min := s.queue[0].RemainingUntilDue()
	for _, m := range s.queue[1:] {
		if r := m.RemainingUntilDue(); r < min {
			min = r
		}
	}
	return min, true
}

// QueueSnapshot returns a copy of the queue in enqueue order.
func (s *SpacedMistakeScheduler) QueueSnapshot() []models.QueuedMistake {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make([]models.QueuedMistake, len(s.queue))
	copy(snapshot, s.queue)
	return snapshot
}

// ClearQueue drops every queued mistake, in the store and the cache.
func (s *SpacedMistakeScheduler) ClearQueue() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteAll(); err != nil {
		return err
	}
	s.queue = nil
	return nil
}
