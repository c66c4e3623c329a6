// Package reglog records the register writes applied to chip dispatchers,
// stores them as JSON and replays them.
package reglog

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/go-faster/jx"

	"github.com/1135975331/furnace/dispatch"
)

var ErrFormat = errors.New("invalid register log")

// MaxFrames bounds the length of a decoded log, about 3 days at 60 Hz.
const MaxFrames = 1 << 24

// Write is a register write applied during a frame. A frame is the audio
// rendered for one sequencer tick.
type Write struct {
	Frame int
	Chip  int
	Addr  uint16
	Val   uint8
}

// Log is a recording of register writes.
type Log struct {
	Chips     []string // chip ids, indexed by Write.Chip
	Rate      int      // output sample rate
	FrameLen  int      // samples per frame, rounded down
	Writes    []Write  // sorted by frame, then chip
	NumFrames int
}

// Frames splits the writes of chip by frame. The result has NumFrames
// entries.
func (l *Log) Frames(chip int) [][]dispatch.RegWrite {
	frames := make([][]dispatch.RegWrite, max(l.NumFrames, 0))
	for _, w := range l.Writes {
		if w.Chip != chip || w.Frame < 0 || w.Frame >= l.NumFrames {
			continue
		}
		frames[w.Frame] = append(frames[w.Frame], dispatch.RegWrite{Addr: w.Addr, Val: w.Val})
	}
	return frames
}

// Recorder collects the writes of several chips. Each chip is recorded by
// its own Track, which may live on its own goroutine.
type Recorder struct {
	mu     sync.Mutex
	tracks []*Track
}

// Track records the writes of a single chip.
type Track struct {
	chip   int
	frame  int
	writes []Write
}

// Track returns a new track recording chip.
func (r *Recorder) Track(chip int) *Track {
	t := &Track{chip: chip}
	r.mu.Lock()
	r.tracks = append(r.tracks, t)
	r.mu.Unlock()
	return t
}

// Capture records a write in the current frame. Pass it to
// Dispatcher.CaptureWrites.
func (t *Track) Capture(w dispatch.RegWrite) {
	t.writes = append(t.writes, Write{Frame: t.frame, Chip: t.chip, Addr: w.Addr, Val: w.Val})
}

// Advance moves to the next frame.
func (t *Track) Advance() { t.frame++ }

// Frame returns the current frame.
func (t *Track) Frame() int { return t.frame }

// Log merges the tracks into a log. Tracks must not be recording.
func (r *Recorder) Log(chips []string, rate, frameLen int) *Log {
	r.mu.Lock()
	defer r.mu.Unlock()

	l := &Log{Chips: chips, Rate: rate, FrameLen: frameLen}
	for _, t := range r.tracks {
		l.Writes = append(l.Writes, t.writes...)
		l.NumFrames = max(l.NumFrames, t.frame)
		if n := len(t.writes); n > 0 {
			// writes after the last Advance open a partial frame
			l.NumFrames = max(l.NumFrames, t.writes[n-1].Frame+1)
		}
	}
	slices.SortStableFunc(l.Writes, func(a, b Write) int {
		return cmp.Or(cmp.Compare(a.Frame, b.Frame), cmp.Compare(a.Chip, b.Chip))
	})
	return l
}

// Replay feeds the writes of chip to d, frame by frame, rendering FrameLen
// samples after each frame. fn receives the interleaved stereo output of each
// frame; the slice is reused.
func Replay(d dispatch.Dispatcher, l *Log, chip int, fn func(frame []int16) error) error {
	if l.FrameLen <= 0 {
		return fmt.Errorf("%w: frame length %d", ErrFormat, l.FrameLen)
	}
	buf := make([]int16, 2*l.FrameLen)
	for _, writes := range l.Frames(chip) {
		d.PokeList(writes)
		d.Acquire(buf, l.FrameLen)
		if err := fn(buf); err != nil {
			return err
		}
	}
	return nil
}

// Encode writes l as JSON. Writes are stored as [frame, chip, addr, val]
// arrays.
func Encode(w io.Writer, l *Log) error {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ObjStart()
	e.FieldStart("chips")
	e.ArrStart()
	for _, c := range l.Chips {
		e.Str(c)
	}
	e.ArrEnd()
	e.FieldStart("rate")
	e.Int(l.Rate)
	e.FieldStart("frameLen")
	e.Int(l.FrameLen)
	e.FieldStart("frames")
	e.Int(l.NumFrames)
	e.FieldStart("writes")
	e.ArrStart()
	for _, wr := range l.Writes {
		e.ArrStart()
		e.Int(wr.Frame)
		e.Int(wr.Chip)
		e.Int(int(wr.Addr))
		e.Int(int(wr.Val))
		e.ArrEnd()
	}
	e.ArrEnd()
	e.ObjEnd()

	if _, err := w.Write(e.Bytes()); err != nil {
		return fmt.Errorf("write register log: %w", err)
	}
	return nil
}

// Decode reads a log written by Encode. Unknown fields are skipped.
func Decode(r io.Reader) (*Log, error) {
	l := &Log{}
	d := jx.Decode(r, 4096)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "chips":
			return d.Arr(func(d *jx.Decoder) error {
				s, err := d.Str()
				l.Chips = append(l.Chips, s)
				return err
			})
		case "rate":
			v, err := d.Int()
			l.Rate = v
			return err
		case "frameLen":
			v, err := d.Int()
			l.FrameLen = v
			return err
		case "frames":
			v, err := d.Int()
			l.NumFrames = v
			return err
		case "writes":
			return d.Arr(func(d *jx.Decoder) error {
				w, err := decodeWrite(d)
				if err != nil {
					return err
				}
				l.Writes = append(l.Writes, w)
				return nil
			})
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	switch {
	case l.FrameLen <= 0:
		return nil, fmt.Errorf("%w: frame length %d", ErrFormat, l.FrameLen)
	case l.NumFrames < 0 || l.NumFrames > MaxFrames:
		return nil, fmt.Errorf("%w: %d frames", ErrFormat, l.NumFrames)
	}
	for _, w := range l.Writes {
		if w.Chip < 0 || w.Chip >= len(l.Chips) {
			return nil, fmt.Errorf("%w: write to chip %d, log has %d chips", ErrFormat, w.Chip, len(l.Chips))
		}
		if w.Frame < 0 || w.Frame >= l.NumFrames {
			return nil, fmt.Errorf("%w: write in frame %d, log has %d frames", ErrFormat, w.Frame, l.NumFrames)
		}
	}
	return l, nil
}

func decodeWrite(d *jx.Decoder) (Write, error) {
	var v [4]int
	n := 0
	err := d.Arr(func(d *jx.Decoder) error {
		if n == len(v) {
			return fmt.Errorf("write has more than %d fields", len(v))
		}
		x, err := d.Int()
		v[n] = x
		n++
		return err
	})
	switch {
	case err != nil:
		return Write{}, err
	case n != len(v):
		return Write{}, fmt.Errorf("write has %d fields, want %d", n, len(v))
	case v[2] < 0 || v[2] > 0xffff || v[3] < 0 || v[3] > 0xff:
		return Write{}, fmt.Errorf("write %v out of range", v)
	}
	return Write{Frame: v[0], Chip: v[1], Addr: uint16(v[2]), Val: uint8(v[3])}, nil
}
