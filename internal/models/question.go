package models

// QuestionSource says where the next question comes from.
type QuestionSource int

const (
	// SourceFresh generates a brand-new sequence.
	SourceFresh QuestionSource = iota
	// SourceQueuedReask replays a live mistake-queue entry.
	SourceQueuedReask
	// SourceWeaknessReask replays a seed chosen from historical weakness
	// data. It has no queue row; for queue bookkeeping it behaves like a
	// fresh question.
	SourceWeaknessReask
)

func (s QuestionSource) String() string {
	switch s {
	case SourceFresh:
		return "fresh"
	case SourceQueuedReask:
		return "queued-reask"
	case SourceWeaknessReask:
		return "weakness-reask"
	}
	return "unknown"
}

// IsReask reports whether the learner is seeing a repeat.
func (s QuestionSource) IsReask() bool {
	return s != SourceFresh
}

// NextQuestion is the scheduler's decision for the upcoming question. For a
// fresh question Seed and Settings are filled in by the engine once it has
// picked them; for re-asks they carry the stored values.
type NextQuestion struct {
	Source    QuestionSource
	MistakeID int64 // valid only when Source == SourceQueuedReask
	Seed      int64
	Settings  Settings
}

// FreshQuestion builds the generate-a-new-sequence decision.
func FreshQuestion() NextQuestion {
	return NextQuestion{Source: SourceFresh}
}

// QueuedReask builds a re-ask of a live queue entry.
func QueuedReask(m QueuedMistake) NextQuestion {
	return NextQuestion{
		Source:    SourceQueuedReask,
		MistakeID: m.ID,
		Seed:      m.Seed,
		Settings:  m.Settings,
	}
}

// WeaknessReask builds a re-ask of a historically weak seed.
func WeaknessReask(w WeaknessEntry) NextQuestion {
	return NextQuestion{
		Source:   SourceWeaknessReask,
		Seed:     w.Seed,
		Settings: w.Settings,
	}
}

// Completion reports how a question went, exactly once per question chain
// (the initial attempt plus any replays of the same sequence). HadErrors
// reflects only the attempt that reached full completion.
type Completion struct {
	Question  NextQuestion
	HadErrors bool
}
