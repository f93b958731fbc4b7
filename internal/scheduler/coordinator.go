package scheduler

import (
	"fmt"
	"log"
	"sync"

	"eartrainer/internal/models"
)

// Mode selects the active scheduling strategy.
type Mode string

const (
	ModeRandom   Mode = "random"
	ModeSpaced   Mode = "spaced"
	ModeWeakness Mode = "weakness"
)

// ParseMode validates a mode string from configuration.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeRandom, ModeSpaced, ModeWeakness:
		return Mode(s), nil
	case "":
		return ModeSpaced, nil
	}
	return "", fmt.Errorf("unknown scheduler mode: %q", s)
}

// HistoryStore records completed questions for the weakness aggregation.
// *repository.HistoryRepository satisfies it.
type HistoryStore interface {
	RecordQuestion(seed int64, settings models.Settings, hadErrors bool) error
}

// Observability is the queue state republished after every mutating call,
// for display outside the scheduling core.
type Observability struct {
	PendingCount          int
	QuestionsUntilNextDue int
	HasDue                bool // an entry is due right now
	Queue                 []models.QueuedMistake
}

// Coordinator is the mode-switching facade over the three strategies. It
// also appends every completion to the question history, whichever strategy
// chose the question.
type Coordinator struct {
	mu sync.Mutex

	mode     Mode
	random   *RandomScheduler
	spaced   *SpacedMistakeScheduler
	weakness *WeaknessFocusedScheduler
	history  HistoryStore

	inFlight    models.NextQuestion
	hasInFlight bool
	obs         Observability
}

// NewCoordinator builds the coordinator and its strategies. The weakness
// strategy wraps the same spaced scheduler instance, so there is a single
// reinforcement queue regardless of mode.
func NewCoordinator(mode Mode, mistakes MistakeStore, weaknesses WeaknessStore, history HistoryStore, initialDistance, step, weaknessLimit int, matchExact bool, rngSeed int64) *Coordinator {
	spaced := NewSpacedMistakeScheduler(mistakes, initialDistance, step)
	return &Coordinator{
		mode:     mode,
		random:   NewRandomScheduler(),
		spaced:   spaced,
		weakness: NewWeaknessFocusedScheduler(spaced, weaknesses, weaknessLimit, matchExact, rngSeed),
		history:  history,
	}
}

// Load rehydrates the reinforcement queue from the store.
func (c *Coordinator) Load() error {
	if err := c.spaced.Load(); err != nil {
		return err
	}
	c.mu.Lock()
	c.refreshObservability()
	c.mu.Unlock()
	return nil
}

// Mode returns the active mode.
func (c *Coordinator) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SetMode swaps the active strategy. Any in-flight re-ask marker is cleared;
// a mode switch never leaves a stale re-ask reference behind. The published
// queue state is recomputed from the new strategy's view.
func (c *Coordinator) SetMode(mode Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = mode
	c.inFlight = models.NextQuestion{}
	c.hasInFlight = false
	c.refreshObservability()
}

// NextQuestion delegates to the active strategy and remembers the decision
// while it is in play.
func (c *Coordinator) NextQuestion(settings models.Settings) models.NextQuestion {
	c.mu.Lock()
	strategy := c.active()
	c.mu.Unlock()

	q := strategy.NextQuestion(settings)

	c.mu.Lock()
	c.inFlight = q
	c.hasInFlight = q.Source.IsReask()
	c.refreshObservability()
	c.mu.Unlock()
	return q
}

// RecordCompletion appends the question to history, delegates to the active
// strategy, and clears the in-flight marker unless the completion still had
// errors: a failing re-ask stays in play through its replay loop.
func (c *Coordinator) RecordCompletion(comp models.Completion) {
	if err := c.history.RecordQuestion(comp.Question.Seed, comp.Question.Settings, comp.HadErrors); err != nil {
		log.Printf("Recording question history failed: %v", err)
	}

	c.mu.Lock()
	strategy := c.active()
	c.mu.Unlock()

	strategy.RecordCompletion(comp)

	c.mu.Lock()
	if !comp.HadErrors {
		c.inFlight = models.NextQuestion{}
		c.hasInFlight = false
	}
	c.refreshObservability()
	c.mu.Unlock()
}

// ClearQueue empties the reinforcement queue directly on the spaced
// strategy. Weakness data is historical and untouched.
func (c *Coordinator) ClearQueue() error {
	err := c.spaced.ClearQueue()

	c.mu.Lock()
	c.refreshObservability()
	c.mu.Unlock()
	return err
}

// ActiveReask returns the re-ask currently in play, if any.
func (c *Coordinator) ActiveReask() (models.NextQuestion, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight, c.hasInFlight
}

// Observability returns the queue state computed after the last mutating
// call.
func (c *Coordinator) Observability() Observability {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.obs
}

// active returns the strategy for the current mode. Callers hold c.mu.
func (c *Coordinator) active() Strategy {
	switch c.mode {
	case ModeRandom:
		return c.random
	case ModeWeakness:
		return c.weakness
	}
	return c.spaced
}

// refreshObservability recomputes the published queue state. Callers hold
// c.mu. The random strategy exposes an empty queue; the spaced and weakness
// strategies share one.
func (c *Coordinator) refreshObservability() {
	strategy := c.active()
	due, ok := strategy.QuestionsUntilNextDue()
	c.obs = Observability{
		PendingCount:          strategy.PendingCount(),
		QuestionsUntilNextDue: due,
		HasDue:                ok && due == 0,
		Queue:                 strategy.QueueSnapshot(),
	}
}
