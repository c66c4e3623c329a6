package dispatch

import "math"

// PitchUnits is the number of pitch units in a semitone.
const PitchUnits = 128

const c0 = 8.1757989156 // frequency of MIDI note 0

// NoteFrequency returns the frequency of a note, in Hz. Note 69 is A4 (440Hz).
func NoteFrequency(note float64) float64 {
	return c0 * math.Pow(2, note/12)
}

// LinearFrequency returns the frequency of a linear pitch, expressed in
// 1/PitchUnits semitone.
func LinearFrequency(pitch int) float64 {
	return c0 * math.Pow(2, float64(pitch)/(12*PitchUnits))
}

// NoteLinear returns the linear pitch of a note.
func NoteLinear(note int) int {
	return note * PitchUnits
}
