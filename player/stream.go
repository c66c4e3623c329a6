// Package player plays songs on audio devices.
package player

import (
	"encoding/binary"
	"io"

	"github.com/1135975331/furnace/system"
)

// BytesPerFrame is the size of a stereo frame of signed 16-bit little endian
// samples.
const BytesPerFrame = 4

// Stream renders a song on the fly and exposes it as signed 16-bit little
// endian interleaved stereo PCM. The sequencer and the chips both run on the
// reading goroutine.
type Stream struct {
	sys      *system.System
	song     system.Song
	maxTicks int
	tick     int

	frames  []int16
	buf     []byte
	pending []byte
	done    bool
}

// NewStream returns a stream playing song on sys for at most maxTicks ticks
// (no limit if maxTicks <= 0).
func NewStream(sys *system.System, song system.Song, maxTicks int) *Stream {
	return &Stream{sys: sys, song: song, maxTicks: maxTicks}
}

// Ticks returns the number of ticks rendered so far.
func (s *Stream) Ticks() int { return s.tick }

// Read implements io.Reader. It returns io.EOF once the song has ended and
// every sample has been read.
func (s *Stream) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(s.pending) == 0 && !s.fill() {
			break
		}
		c := copy(p[n:], s.pending)
		s.pending = s.pending[c:]
		n += c
	}
	if n == 0 && s.done {
		return 0, io.EOF
	}
	return n, nil
}

// fill renders the next tick into pending.
func (s *Stream) fill() bool {
	if s.done {
		return false
	}
	if s.maxTicks > 0 && s.tick >= s.maxTicks {
		s.done = true
		return false
	}
	frames, more := s.sys.Step(s.song, s.frames)
	if !more {
		s.done = true
		return false
	}
	s.frames = frames
	s.tick++

	s.buf = s.buf[:0]
	for _, v := range frames {
		s.buf = binary.LittleEndian.AppendUint16(s.buf, uint16(v))
	}
	s.pending = s.buf
	return true
}
