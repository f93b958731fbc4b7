package midiio

import (
	"fmt"
	"log"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"eartrainer/internal/models"
)

const (
	playbackChannel  = 0
	playbackVelocity = 80
)

// Player sends a sequence's notes to a MIDI output at the sequence tempo.
// It satisfies the engine's Playback contract: Play returns immediately and
// the completion callback fires exactly once, from the player goroutine,
// after the last note's off event.
type Player struct {
	mu  sync.Mutex
	drv *rtmididrv.Driver
	out drivers.Out
}

// NewPlayer opens the named MIDI output, or the first available one when
// name is empty.
func NewPlayer(name string) (*Player, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}

	outs, err := drv.Outs()
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("list outputs: %w", err)
	}

	var out drivers.Out
	for _, o := range outs {
		if name == "" || containsCI(o.String(), name) {
			out = o
			break
		}
	}
	if out == nil {
		drv.Close()
		return nil, fmt.Errorf("no MIDI output matching %q", name)
	}
	if err := out.Open(); err != nil {
		drv.Close()
		return nil, fmt.Errorf("open output %q: %w", out.String(), err)
	}

	log.Printf("MIDI output: %s", out.String())
	return &Player{drv: drv, out: out}, nil
}

// Close releases the output port and driver.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out != nil {
		_ = p.out.Close()
		p.out = nil
	}
	p.drv.Close()
}

// Play schedules the sequence's on/off events at its tempo and calls
// onComplete once after the final off.
func (p *Player) Play(seq *models.NoteSequence, onComplete func()) error {
	p.mu.Lock()
	out := p.out
	p.mu.Unlock()
	if out == nil {
		return fmt.Errorf("MIDI output closed")
	}

	beat := seq.BeatDuration()

	go func() {
		start := time.Now()
		for _, n := range seq.Notes {
			onAt := time.Duration(n.StartBeat * float64(beat))
			offAt := time.Duration((n.StartBeat + n.DurationBeats) * float64(beat))

			sleepUntil(start, onAt)
			if err := out.Send(midi.NoteOn(playbackChannel, n.Pitch, playbackVelocity)); err != nil {
				log.Printf("MIDI note on failed: %v", err)
			}

			sleepUntil(start, offAt)
			if err := out.Send(midi.NoteOff(playbackChannel, n.Pitch)); err != nil {
				log.Printf("MIDI note off failed: %v", err)
			}
		}
		onComplete()
	}()

	return nil
}

func sleepUntil(start time.Time, offset time.Duration) {
	if d := time.Until(start.Add(offset)); d > 0 {
		time.Sleep(d)
	}
}
