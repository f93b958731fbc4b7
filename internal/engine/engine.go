// Package engine drives one practice session: it asks the scheduler what to
// play, plays it, matches the learner's input note by note, and loops on the
// same question until it is answered perfectly.
package engine

import (
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"eartrainer/internal/models"
	"eartrainer/internal/scoring"
)

// Generator produces a note sequence for a seed/settings pair. It must be
// deterministic: the same pair always yields the same sequence.
type Generator interface {
	Generate(seed int64, settings models.Settings) (*models.NoteSequence, error)
}

// Playback plays a sequence and calls onComplete exactly once, from another
// goroutine, after the last note's off event. Implementations must never
// invoke onComplete synchronously from Play.
type Playback interface {
	Play(seq *models.NoteSequence, onComplete func()) error
}

// Scheduler is the coordinator surface the engine needs.
type Scheduler interface {
	NextQuestion(settings models.Settings) models.NextQuestion
	RecordCompletion(c models.Completion)
}

// AttemptStore persists key-press descriptors. Writes are fire-and-forget.
type AttemptStore interface {
	Insert(sequenceID uuid.UUID, d models.AttemptDescriptor) error
}

// SequenceStore persists generated sequences.
type SequenceStore interface {
	InsertSequence(seq *models.NoteSequence) error
}

// Phase is the engine's coarse state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseActive
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseActive:
		return "active"
	case PhaseCompleted:
		return "completed"
	}
	return "unknown"
}

// Callbacks are UI hooks. They run on engine goroutines with the engine
// locked and must return quickly without calling back into the engine.
type Callbacks struct {
	// OnQuestion fires when a question starts playing.
	OnQuestion func(seq *models.NoteSequence, source models.QuestionSource)
	// OnFeedback fires after a question is finished for good; perfect is
	// false when any attempt at this sequence had an error.
	OnFeedback func(perfect bool)
	// OnMistake fires when a wrong note is played, with the stuck index.
	OnMistake func(noteIndex int)
}

// Deps wires the engine's collaborators.
type Deps struct {
	Scheduler Scheduler
	Generator Generator
	Playback  Playback
	Scoring   *scoring.Service
	Attempts  AttemptStore
	Sequences SequenceStore

	// Settings is re-read for every fresh question, so mid-session
	// changes take effect on the next question.
	Settings func() models.Settings

	SessionID uuid.UUID
	Callbacks Callbacks

	// ReplayHotkey, when set, is a pitch that triggers a replay instead
	// of being matched.
	ReplayHotkey *uint8
}

// State is a snapshot of the session for display.
type State struct {
	Phase         Phase
	NoteIndex     int
	SequenceLen   int
	AwaitingInput bool // active and playback already finished
	ErrorIndex    int  // -1 when the learner is not stuck
	HadErrors     bool // sticky across replays of the same sequence
}

// Engine is the session state machine. All transitions are serialized by one
// mutex; input events, the playback-done callback and the delayed
// replay/advance action all arrive on independent goroutines.
type Engine struct {
	mu sync.Mutex

	scheduler Scheduler
	generator Generator
	playback  Playback
	scoring   *scoring.Service
	writer    *attemptWriter
	sequences SequenceStore
	settings  func() models.Settings
	callbacks Callbacks
	sessionID uuid.UUID
	hotkey    *uint8

	phase         Phase
	seq           *models.NoteSequence
	question      models.NextQuestion
	inputIndex    int
	playing       bool
	attemptErrors bool // reset at the start of every replay
	stickyErrors  bool // persists across replays of the same sequence
	errorIndex    int  // -1 when clear
	reported      bool

	held    map[uint8]struct{}
	pending func() // runs with mu held once the held set empties

	// delay schedules the post-completion action; replaced in tests.
	delay    func(d time.Duration, f func())
	randSeed func() int64
}

// New creates an idle engine.
func New(deps Deps) *Engine {
	e := &Engine{
		scheduler:  deps.Scheduler,
		generator:  deps.Generator,
		playback:   deps.Playback,
		scoring:    deps.Scoring,
		writer:     newAttemptWriter(deps.Attempts, attemptWriterBuffer),
		sequences:  deps.Sequences,
		settings:   deps.Settings,
		callbacks:  deps.Callbacks,
		sessionID:  deps.SessionID,
		hotkey:     deps.ReplayHotkey,
		errorIndex: -1,
		held:       make(map[uint8]struct{}),
		delay: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
		randSeed: rand.Int63,
	}
	return e
}

// Close stops the background attempt writer after draining it.
func (e *Engine) Close() {
	e.writer.Close()
}

// State returns a snapshot of the session.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := State{
		Phase:      e.phase,
		NoteIndex:  e.inputIndex,
		ErrorIndex: e.errorIndex,
		HadErrors:  e.stickyErrors,
	}
	if e.seq != nil {
		s.SequenceLen = e.seq.Len()
	}
	s.AwaitingInput = e.phase == PhaseActive && !e.playing
	return s
}

// PlayQuestion starts the next question. A nil seed lets the scheduler or a
// random draw choose; a non-nil seed forces that seed for a fresh question.
// On a setup failure the engine keeps its prior state.
func (e *Engine) PlayQuestion(seed *int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playQuestionLocked(seed)
}

func (e *Engine) playQuestionLocked(seed *int64) error {
	settings := e.settings()

	q := e.scheduler.NextQuestion(settings)
	if q.Source == models.SourceFresh {
		if seed != nil {
			q.Seed = *seed
		} else {
			q.Seed = e.randSeed()
		}
		q.Settings = settings
	}

	seq, err := e.generator.Generate(q.Seed, q.Settings)
	if err != nil {
		return fmt.Errorf("generate sequence (seed %d): %w", q.Seed, err)
	}
	seq.ID = uuid.New()
	seq.SessionID = e.sessionID
	seq.CreatedAt = time.Now()

	if err := e.sequences.InsertSequence(seq); err != nil {
		log.Printf("Persisting sequence %s failed: %v", seq.ID, err)
	}

	prev := e.snapshot()
	e.seq = seq
	e.question = q
	e.inputIndex = 0
	e.attemptErrors = false
	e.stickyErrors = false
	e.errorIndex = -1
	e.reported = false
	e.playing = true
	e.phase = PhaseActive

	seqID := seq.ID
	if err := e.playback.Play(seq, func() { e.playbackDone(seqID) }); err != nil {
		e.restore(prev)
		return fmt.Errorf("start playback: %w", err)
	}

	if cb := e.callbacks.OnQuestion; cb != nil {
		cb(seq, q.Source)
	}
	return nil
}

// sessionSnapshot captures the mutable session fields so a failed setup can
// roll back without a partial transition.
type sessionSnapshot struct {
	phase         Phase
	seq           *models.NoteSequence
	question      models.NextQuestion
	inputIndex    int
	playing       bool
	attemptErrors bool
	stickyErrors  bool
	errorIndex    int
	reported      bool
}

func (e *Engine) snapshot() sessionSnapshot {
	return sessionSnapshot{
		phase:         e.phase,
		seq:           e.seq,
		question:      e.question,
		inputIndex:    e.inputIndex,
		playing:       e.playing,
		attemptErrors: e.attemptErrors,
		stickyErrors:  e.stickyErrors,
		errorIndex:    e.errorIndex,
		reported:      e.reported,
	}
}

func (e *Engine) restore(s sessionSnapshot) {
	e.phase = s.phase
	e.seq = s.seq
	e.question = s.question
	e.inputIndex = s.inputIndex
	e.playing = s.playing
	e.attemptErrors = s.attemptErrors
	e.stickyErrors = s.stickyErrors
	e.errorIndex = s.errorIndex
	e.reported = s.reported
}

// HandleNoteOn processes a physical note-on. It always maintains the
// held-note set; matching happens only while a question is active.
func (e *Engine) HandleNoteOn(pitch uint8) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.held[pitch] = struct{}{}

	if e.hotkey != nil && pitch == *e.hotkey {
		e.replayLocked()
		return
	}

	if e.phase != PhaseActive || e.seq == nil || e.inputIndex >= e.seq.Len() {
		return
	}

	expected := e.seq.Notes[e.inputIndex].Pitch
	correct := pitch == expected

	// The descriptor is computed and queued before any state moves, so it
	// reflects exactly what the learner heard and played.
	var prevExpected, prevGuessed *uint8
	if e.inputIndex > 0 {
		// Advancing requires an exact match, so the previous correct
		// guess equals the previous expected pitch.
		prev := e.seq.Notes[e.inputIndex-1].Pitch
		prevExpected, prevGuessed = &prev, &prev
	}
	d := e.scoring.Descriptor(e.inputIndex, expected, pitch, prevExpected, prevGuessed, e.seq.Settings, correct)
	e.writer.enqueue(e.seq.ID, d)

	if !correct {
		e.errorIndex = e.inputIndex
		e.attemptErrors = true
		e.stickyErrors = true
		if cb := e.callbacks.OnMistake; cb != nil {
			cb(e.inputIndex)
		}
		return
	}

	e.errorIndex = -1
	e.inputIndex++
	if e.inputIndex == e.seq.Len() && !e.playing {
		e.completeLocked()
	}
	// With playback still sounding, completion is deferred to the
	// playback-done callback, which re-checks the index.
}

// HandleNoteOff removes the pitch from the held set and releases the
// pending post-completion action once the learner's hands are off the keys.
func (e *Engine) HandleNoteOff(pitch uint8) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.held, pitch)
	if len(e.held) == 0 && e.pending != nil {
		action := e.pending
		e.pending = nil
		action()
	}
}

// playbackDone is the playback collaborator's completion signal. The learner
// may already have finished playing, or still be mid-question; both orders
// are handled.
func (e *Engine) playbackDone(sequenceID uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.seq == nil || e.seq.ID != sequenceID || e.phase != PhaseActive {
		return
	}

	e.playing = false
	if e.inputIndex == e.seq.Len() {
		e.completeLocked()
	}
}

// completeLocked transitions to completed, reports to the scheduler once per
// question chain, and schedules the replay-or-advance action one beat out,
// gated on all keys being released.
func (e *Engine) completeLocked() {
	e.phase = PhaseCompleted

	if !e.reported {
		e.reported = true
		e.scheduler.RecordCompletion(models.Completion{
			Question:  e.question,
			HadErrors: e.attemptErrors,
		})
	}

	e.delay(e.seq.BeatDuration(), func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if len(e.held) == 0 {
			e.advanceOrReplayLocked()
		} else {
			e.pending = e.advanceOrReplayLocked
		}
	})
}

// advanceOrReplayLocked runs one beat after completion, once no keys are
// held: replay the identical sequence after an imperfect attempt, otherwise
// emit feedback and move to the next question.
func (e *Engine) advanceOrReplayLocked() {
	if e.phase != PhaseCompleted {
		return
	}

	if e.attemptErrors {
		e.replayLocked()
		return
	}

	if cb := e.callbacks.OnFeedback; cb != nil {
		cb(!e.stickyErrors)
	}
	if err := e.playQuestionLocked(nil); err != nil {
		log.Printf("Starting next question failed: %v", err)
	}
}

// replayLocked re-runs the current sequence from the top. The sticky error
// flag and the completion report guard survive; per-attempt state resets.
func (e *Engine) replayLocked() {
	if e.seq == nil {
		return
	}

	e.inputIndex = 0
	e.attemptErrors = false
	e.errorIndex = -1
	e.playing = true
	e.phase = PhaseActive

	seqID := e.seq.ID
	if err := e.playback.Play(e.seq, func() { e.playbackDone(seqID) }); err != nil {
		log.Printf("Replay playback failed: %v", err)
	}
}
