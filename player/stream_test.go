package player

import (
	"context"
	"encoding/binary"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/1135975331/furnace/dispatch"
	"github.com/1135975331/furnace/emu/log"
	"github.com/1135975331/furnace/system"
)

func init() { log.Disable() }

type oneNote struct{ len int }

func (s oneNote) Events(t int) ([]system.Event, bool) {
	if t >= s.len {
		return nil, false
	}
	if t == 0 {
		return []system.Event{{Cmd: dispatch.Command{Cmd: dispatch.CmdNoteOn, Value: 57}}}, true
	}
	return nil, true
}

func newSystem(t *testing.T) *system.System {
	t.Helper()
	def, err := system.Preset("dummy")
	if err != nil {
		t.Fatal(err)
	}
	sys, err := system.New(def, nil, 44100)
	if err != nil {
		t.Fatal(err)
	}
	return sys
}

func TestStreamMatchesRender(t *testing.T) {
	var want []byte
	err := newSystem(t).Render(context.Background(), oneNote{len: 7}, 0, func(frames []int16) error {
		for _, v := range frames {
			want = binary.LittleEndian.AppendUint16(want, uint16(v))
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	s := NewStream(newSystem(t), oneNote{len: 7}, 0)
	// Odd sized reads straddle tick boundaries.
	var got []byte
	buf := make([]byte, 1001)
	for {
		n, err := s.Read(buf)
		got = append(got, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stream mismatch (-want +got):\n%s", diff)
	}
	if s.Ticks() != 7 {
		t.Errorf("Ticks() = %d, want 7", s.Ticks())
	}
	if len(got) != 7*735*BytesPerFrame {
		t.Errorf("read %d bytes, want %d", len(got), 7*735*BytesPerFrame)
	}
}

func TestStreamMaxTicks(t *testing.T) {
	s := NewStream(newSystem(t), oneNote{len: 100}, 3)
	b, err := io.ReadAll(s)
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 3*735*BytesPerFrame {
		t.Errorf("read %d bytes, want 3 ticks", len(b))
	}
	if n, err := s.Read(make([]byte, 16)); n != 0 || err != io.EOF {
		t.Errorf("Read after end = %d, %v", n, err)
	}
}
