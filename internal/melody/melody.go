// Package melody generates the questions: short random-walk phrases over the
// configured key, one bar long.
package melody

import (
	"fmt"
	"math/rand"
	"sort"

	"eartrainer/internal/models"
	"eartrainer/internal/theory"
)

// BeatsPerBar fixes the phrase length; everything is 4/4.
const BeatsPerBar = 4.0

// Generator builds deterministic note sequences from a seed.
type Generator struct{}

// NewGenerator creates a new melody generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate builds the sequence for a seed/settings pair. The same pair
// always yields the same sequence, which is what makes re-asks possible.
// Note durations sum to exactly one bar.
func (g *Generator) Generate(seed int64, settings models.Settings) (*models.NoteSequence, error) {
	scale, ok := theory.ScaleByName(settings.ScaleName)
	if !ok {
		return nil, fmt.Errorf("unknown scale: %q", settings.ScaleName)
	}
	if settings.NoteCount < 1 {
		return nil, fmt.Errorf("note count must be positive, got %d", settings.NoteCount)
	}
	// A non-positive tempo would break every downstream beat-duration
	// calculation.
	if settings.BPM < 1 {
		return nil, fmt.Errorf("bpm must be positive, got %d", settings.BPM)
	}
	if settings.LowestPitch >= settings.HighestPitch {
		return nil, fmt.Errorf("empty pitch range %d-%d", settings.LowestPitch, settings.HighestPitch)
	}

	candidates := scaleTonesInRange(settings.KeyRoot, scale, settings.LowestPitch, settings.HighestPitch)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no %s scale tones between %s and %s",
			settings.ScaleName, theory.NoteName(settings.LowestPitch), theory.NoteName(settings.HighestPitch))
	}

	rng := rand.New(rand.NewSource(seed))
	pitches := randomWalk(rng, candidates, settings.NoteCount)
	durations := splitBar(rng, settings.NoteCount)

	notes := make([]models.Note, settings.NoteCount)
	start := 0.0
	for i := range notes {
		notes[i] = models.Note{
			Index:         i,
			Pitch:         pitches[i],
			StartBeat:     start,
			DurationBeats: durations[i],
		}
		start += durations[i]
	}

	return &models.NoteSequence{
		Seed:     seed,
		Settings: settings,
		BPM:      settings.BPM,
		Notes:    notes,
	}, nil
}

// scaleTonesInRange lists every pitch in [low, high] whose pitch class lies
// on the scale, ascending.
func scaleTonesInRange(keyRoot int, scale theory.Scale, low, high uint8) []uint8 {
	var tones []uint8
	for p := int(low); p <= int(high); p++ {
		if _, ok := theory.ScaleDegree(keyRoot, scale.Name, uint8(p)); ok {
			tones = append(tones, uint8(p))
		}
	}
	return tones
}

// maxWalkStep bounds melodic leaps to a fifth-ish span of scale tones.
const maxWalkStep = 4

// randomWalk picks count pitches from the candidates, moving at most
// maxWalkStep scale tones per step so phrases stay singable.
func randomWalk(rng *rand.Rand, candidates []uint8, count int) []uint8 {
	pitches := make([]uint8, count)
	pos := rng.Intn(len(candidates))
	pitches[0] = candidates[pos]

	for i := 1; i < count; i++ {
		lo := pos - maxWalkStep
		if lo < 0 {
			lo = 0
		}
		hi := pos + maxWalkStep
		if hi > len(candidates)-1 {
			hi = len(candidates) - 1
		}
		pos = lo + rng.Intn(hi-lo+1)
		pitches[i] = candidates[pos]
	}
	return pitches
}

// splitBar divides one bar into count durations on an eighth-note grid
// (sixteenths when the phrase is dense), summing exactly to BeatsPerBar.
func splitBar(rng *rand.Rand, count int) []float64 {
	subdivisions := 8
	for subdivisions < count {
		subdivisions *= 2
	}
	unit := BeatsPerBar / float64(subdivisions)

	// Choose count-1 distinct cut points on the grid, giving count gaps.
	cuts := rng.Perm(subdivisions - 1)[: count-1 : count-1]
	positions := make([]int, 0, count+1)
	positions = append(positions, 0)
	for _, c := range cuts {
		positions = append(positions, c+1)
	}
	positions = append(positions, subdivisions)
	sort.Ints(positions)

	durations := make([]float64, count)
	for i := 0; i < count; i++ {
		durations[i] = float64(positions[i+1]-positions[i]) * unit
	}
	return durations
}
