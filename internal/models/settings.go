package models

import "encoding/json"

// Settings is the snapshot of generation parameters a question was (or will
// be) built from. Snapshots are stored alongside queue and history rows so a
// re-ask reproduces the exact question the learner failed.
type Settings struct {
	KeyRoot      int    `json:"key_root"`  // pitch class 0-11, 0 = C
	ScaleName    string `json:"scale"`     // see theory.ScaleByName
	NoteCount    int    `json:"notes"`     // notes per question
	BPM          int    `json:"bpm"`       // playback tempo
	LowestPitch  uint8  `json:"low_pitch"` // inclusive MIDI range
	HighestPitch uint8  `json:"high_pitch"`
}

// SameKey reports whether two snapshots share a key root and scale.
// This is the scope used when selecting weakness candidates.
func (s Settings) SameKey(other Settings) bool {
	return s.KeyRoot == other.KeyRoot && s.ScaleName == other.ScaleName
}

// Equal reports whether two snapshots match on every field.
func (s Settings) Equal(other Settings) bool {
	return s == other
}

// MarshalSettings encodes a snapshot for storage.
func MarshalSettings(s Settings) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// UnmarshalSettings decodes a stored snapshot.
func UnmarshalSettings(data string) (Settings, error) {
	var s Settings
	err := json.Unmarshal([]byte(data), &s)
	return s, err
}
