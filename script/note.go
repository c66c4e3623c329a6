package script

import (
	"fmt"
	"strconv"
	"strings"
)

var noteNames = map[string]int{
	"C-": 0, "C#": 1, "D-": 2, "D#": 3, "E-": 4, "F-": 5,
	"F#": 6, "G-": 7, "G#": 8, "A-": 9, "A#": 10, "B-": 11,
	"DB": 1, "EB": 3, "GB": 6, "AB": 8, "BB": 10,
}

// ParseNote parses a note written tracker style ("C-4", "F#3", "Bb2") or as
// a plain number. C-4 is note 60 and A-4 note 69 (440Hz).
func ParseNote(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	if len(s) < 3 {
		return 0, fmt.Errorf("invalid note %q", s)
	}
	semi, ok := noteNames[strings.ToUpper(s[:2])]
	if !ok {
		return 0, fmt.Errorf("invalid note %q", s)
	}
	oct, err := strconv.Atoi(s[2:])
	if err != nil {
		return 0, fmt.Errorf("invalid note %q: octave: %w", s, err)
	}
	return (oct+1)*12 + semi, nil
}

// NoteName returns the tracker style name of a note.
func NoteName(note int) string {
	names := [12]string{"C-", "C#", "D-", "D#", "E-", "F-", "F#", "G-", "G#", "A-", "A#", "B-"}
	oct := note/12 - 1
	if note < 0 {
		oct = (note-11)/12 - 1
	}
	return names[((note%12)+12)%12] + strconv.Itoa(oct)
}
