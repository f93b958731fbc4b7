// Package theory holds the small amount of music theory the trainer needs:
// scale tables, scale-degree lookup and semitone intervals.
package theory

import "fmt"

// Scale is a named set of semitone offsets from the key root, one octave.
type Scale struct {
	Name    string
	Offsets []int
}

var scales = map[string]Scale{
	"major":            {Name: "major", Offsets: []int{0, 2, 4, 5, 7, 9, 11}},
	"natural_minor":    {Name: "natural_minor", Offsets: []int{0, 2, 3, 5, 7, 8, 10}},
	"harmonic_minor":   {Name: "harmonic_minor", Offsets: []int{0, 2, 3, 5, 7, 8, 11}},
	"major_pentatonic": {Name: "major_pentatonic", Offsets: []int{0, 2, 4, 7, 9}},
	"minor_pentatonic": {Name: "minor_pentatonic", Offsets: []int{0, 3, 5, 7, 10}},
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// ScaleByName looks up a scale by its configuration name.
func ScaleByName(name string) (Scale, bool) {
	s, ok := scales[name]
	return s, ok
}

// ScaleNames returns the supported scale names.
func ScaleNames() []string {
	names := make([]string, 0, len(scales))
	for name := range scales {
		names = append(names, name)
	}
	return names
}

// ScaleDegree maps an absolute pitch to its 1-based degree in the given key.
// The second return is false when the pitch class does not lie exactly on
// one of the scale's offsets; chromatic notes never get a degree.
func ScaleDegree(keyRoot int, scaleName string, pitch uint8) (int, bool) {
	scale, ok := scales[scaleName]
	if !ok {
		return 0, false
	}
	pc := (int(pitch) - keyRoot%12 + 120) % 12
	for i, offset := range scale.Offsets {
		if pc == offset {
			return i + 1, true
		}
	}
	return 0, false
}

// Interval returns the signed semitone distance from prev to cur.
func Interval(prev, cur uint8) int {
	return int(cur) - int(prev)
}

// NoteName renders a MIDI pitch as name plus octave, e.g. 60 -> "C4".
func NoteName(pitch uint8) string {
	return fmt.Sprintf("%s%d", noteNames[pitch%12], int(pitch)/12-1)
}

// PitchClassName renders a pitch class 0-11 as its note name.
func PitchClassName(pc int) string {
	return noteNames[(pc%12+12)%12]
}
