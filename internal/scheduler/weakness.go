package scheduler

import (
	"log"
	"math/rand"
	"sync"

	"eartrainer/internal/models"
)

// DefaultWeaknessLimit caps the candidate set for weighted selection.
const DefaultWeaknessLimit = 20

// WeaknessFocusedScheduler composes the spaced scheduler with long-run
// weighted selection: a due re-ask always wins, otherwise a seed is drawn
// from historical weakness data with probability proportional to its failure
// count.
type WeaknessFocusedScheduler struct {
	spaced     *SpacedMistakeScheduler
	weaknesses WeaknessStore
	limit      int
	matchExact bool

	mu  sync.Mutex
	rng *rand.Rand
}

// NewWeaknessFocusedScheduler wraps the given spaced scheduler. matchExact
// narrows candidates from same-key to whole-settings equality.
func NewWeaknessFocusedScheduler(spaced *SpacedMistakeScheduler, weaknesses WeaknessStore, limit int, matchExact bool, seed int64) *WeaknessFocusedScheduler {
	if limit <= 0 {
		limit = DefaultWeaknessLimit
	}
	return &WeaknessFocusedScheduler{
		spaced:     spaced,
		weaknesses: weaknesses,
		limit:      limit,
		matchExact: matchExact,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// NextQuestion prefers a due short-term re-ask, then a weighted draw over
// the weakness candidates, then fresh.
func (s *WeaknessFocusedScheduler) NextQuestion(settings models.Settings) models.NextQuestion {
	if q := s.spaced.NextQuestion(settings); q.Source == models.SourceQueuedReask {
		return q
	}

	candidates, err := s.weaknesses.TopWeaknesses(settings, s.limit, s.matchExact)
	if err != nil {
		log.Printf("Loading weakness candidates failed: %v", err)
		return models.FreshQuestion()
	}
	if len(candidates) == 0 {
		return models.FreshQuestion()
	}

	chosen, ok := s.draw(candidates)
	if !ok {
		return models.FreshQuestion()
	}
	return models.WeaknessReask(chosen)
}

// draw performs weighted-random selection: a uniform value in [0, Σweight)
// and a cumulative walk, returning the first candidate whose running total
// exceeds the draw.
func (s *WeaknessFocusedScheduler) draw(candidates []models.WeaknessEntry) (models.WeaknessEntry, bool) {
	total := 0.0
	for _, c := range candidates {
		total += c.Weight()
	}
	if total <= 0 {
		return models.WeaknessEntry{}, false
	}

	s.mu.Lock()
	r := s.rng.Float64() * total
	s.mu.Unlock()

	cumulative := 0.0
	for _, c := range candidates {
		cumulative += c.Weight()
		if r < cumulative {
			return c, true
		}
	}
	// Floating point edge at the top of the range.
	return candidates[len(candidates)-1], true
}

// RecordCompletion translates a weakness re-ask to fresh bookkeeping and
// delegates, so the short-term queue stays consistent no matter which
// strategy picked the question.
func (s *WeaknessFocusedScheduler) RecordCompletion(c models.Completion) {
	if c.Question.Source == models.SourceWeaknessReask {
		c.Question.Source = models.SourceFresh
	}
	s.spaced.RecordCompletion(c)
}

func (s *WeaknessFocusedScheduler) PendingCount() int { return s.spaced.PendingCount() }

func (s *WeaknessFocusedScheduler) QuestionsUntilNextDue() (int, bool) {
	return s.spaced.QuestionsUntilNextDue()
}

func (s *WeaknessFocusedScheduler) QueueSnapshot() []models.QueuedMistake {
	return s.spaced.QueueSnapshot()
}

func (s *WeaknessFocusedScheduler) ClearQueue() error { return s.spaced.ClearQueue() }
