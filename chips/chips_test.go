package chips

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/1135975331/furnace/dispatch"
	"github.com/1135975331/furnace/dispatch/macro"
	"github.com/1135975331/furnace/emu/log"
)

func init() {
	log.Disable()
}

func open(t *testing.T, c Chip) dispatch.Dispatcher {
	t.Helper()
	d, err := Open(c.ID, &dispatch.Bank{}, 0, 44100, dispatch.Config{})
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestOpenUnknown(t *testing.T) {
	if _, err := Open("ym2612", nil, 0, 44100, dispatch.Config{}); !errors.Is(err, ErrUnknownChip) {
		t.Errorf("Open(ym2612) error = %v, want ErrUnknownChip", err)
	}
	if _, err := Open("nes", nil, 0, 44100, dispatch.MustParseConfig("clockSel=9")); err == nil {
		t.Errorf("Open(nes, clockSel=9) succeeded")
	}
}

// Properties every dispatcher must have.
func TestConformance(t *testing.T) {
	for _, c := range All() {
		t.Run(c.ID, func(t *testing.T) {
			d := open(t, c)
			if d.Channels() != c.Channels {
				t.Fatalf("Channels() = %d, want %d", d.Channels(), c.Channels)
			}

			t.Run("sheet", func(t *testing.T) {
				for _, e := range d.RegisterSheet() {
					if int(e.Addr) >= d.RegisterPoolSize() {
						t.Errorf("register %s at %#x outside the %#x byte pool", e.Name, e.Addr, d.RegisterPoolSize())
					}
				}
			})

			t.Run("out of range", func(t *testing.T) {
				for _, ch := range []int{-1, d.Channels()} {
					if v := d.Dispatch(dispatch.Command{Cmd: dispatch.CmdNoteOn, Chan: ch, Value: 60}); v != 1 {
						t.Errorf("NoteOn(ch=%d) = %d, want 1", ch, v)
					}
					if v := d.Dispatch(dispatch.Command{Cmd: dispatch.CmdGetVolume, Chan: ch}); v != 0 {
						t.Errorf("GetVolume(ch=%d) = %d, want 0", ch, v)
					}
					if _, ok := d.ChanState(ch); ok {
						t.Errorf("ChanState(%d) found", ch)
					}
					if d.OscBuffer(ch) != nil {
						t.Errorf("OscBuffer(%d) not nil", ch)
					}
				}
				if v := d.Dispatch(dispatch.Command{Cmd: dispatch.CmdType(250)}); v != 1 {
					t.Errorf("unknown command = %d, want 1", v)
				}
			})

			t.Run("volume", func(t *testing.T) {
				volMax := d.Dispatch(dispatch.Command{Cmd: dispatch.CmdGetVolMax})
				for ch := range d.Channels() {
					d.Dispatch(dispatch.Command{Cmd: dispatch.CmdVolume, Chan: ch, Value: volMax / 2})
					d.Dispatch(dispatch.Command{Cmd: dispatch.CmdNoteOn, Chan: ch, Value: 60})
					if v := d.Dispatch(dispatch.Command{Cmd: dispatch.CmdGetVolume, Chan: ch}); v != volMax/2 {
						t.Errorf("GetVolume(ch=%d) = %d, want %d", ch, v, volMax/2)
					}
				}
			})

			t.Run("acquire zero", func(t *testing.T) {
				d.Tick(true)
				d.Acquire(nil, 0)
				for ch := range d.Channels() {
					if n := d.OscBuffer(ch).Needle(); n != 0 {
						t.Errorf("osc %d needle = %d after Acquire(0)", ch, n)
					}
				}
			})

			t.Run("reset", func(t *testing.T) {
				d.Acquire(make([]int16, 256), 128)
				d.Reset()
				var st1, st2 []dispatch.ChanState
				for ch := range d.Channels() {
					s, _ := d.ChanState(ch)
					st1 = append(st1, s)
				}
				pool1 := d.RegisterPool()
				d.Reset()
				for ch := range d.Channels() {
					s, _ := d.ChanState(ch)
					st2 = append(st2, s)
				}
				if diff := cmp.Diff(st1, st2); diff != "" {
					t.Errorf("channel state mismatch (-want +got):\n%s", diff)
				}
				if diff := cmp.Diff(pool1, d.RegisterPool()); diff != "" {
					t.Errorf("register pool mismatch (-want +got):\n%s", diff)
				}
			})

			t.Run("capture", func(t *testing.T) {
				var got []dispatch.RegWrite
				d.CaptureWrites(func(w dispatch.RegWrite) { got = append(got, w) })
				defer d.CaptureWrites(nil)
				d.Dispatch(dispatch.Command{Cmd: dispatch.CmdNoteOn, Value: 64})
				d.Tick(true)
				d.Acquire(make([]int16, 2), 1)
				if len(got) == 0 {
					t.Errorf("no register write captured")
				}
			})
		})
	}
}

func TestNotifyInsDeletion(t *testing.T) {
	for _, c := range All() {
		t.Run(c.ID, func(t *testing.T) {
			played := dispatch.NewInstrument("played")
			played.Macros[macro.Vol] = macro.Seq(8, 6, 4)
			selected := dispatch.NewInstrument("selected")
			kept := dispatch.NewInstrument("kept")
			bank := &dispatch.Bank{Instruments: []*dispatch.Instrument{played, selected, kept}}

			d, err := Open(c.ID, bank, 0, 44100, dispatch.Config{})
			if err != nil {
				t.Fatal(err)
			}
			if d.Channels() < 3 {
				t.Skipf("%d channels", d.Channels())
			}
			d.Dispatch(dispatch.Command{Cmd: dispatch.CmdInstrument, Chan: 0, Value: 0})
			d.Dispatch(dispatch.Command{Cmd: dispatch.CmdNoteOn, Chan: 0, Value: 60})
			d.Dispatch(dispatch.Command{Cmd: dispatch.CmdInstrument, Chan: 1, Value: 1})
			d.Dispatch(dispatch.Command{Cmd: dispatch.CmdInstrument, Chan: 2, Value: 2})
			d.Tick(true)

			d.NotifyInsDeletion(played)
			d.NotifyInsDeletion(selected)
			d.NotifyInsDeletion(nil)

			for ch, want := range []int{-1, -1, 2} {
				s, _ := d.ChanState(ch)
				if s.Ins != want {
					t.Errorf("chan %d: Ins = %d after deletion, want %d", ch, s.Ins, want)
				}
			}
			if s, _ := d.ChanState(0); !s.Active {
				t.Errorf("chan 0 stopped by instrument deletion")
			}
			if s, _ := d.ChanState(0); s.Macros[macro.Vol].Phase != macro.Idle {
				t.Errorf("chan 0 volume macro phase = %v, want %v", s.Macros[macro.Vol].Phase, macro.Idle)
			}

			// A new note must not re-arm the deleted instrument.
			d.Dispatch(dispatch.Command{Cmd: dispatch.CmdNoteOn, Chan: 0, Value: 62})
			if s, _ := d.ChanState(0); s.Macros[macro.Vol].Phase != macro.Idle {
				t.Errorf("chan 0 volume macro re-armed after deletion: phase %v", s.Macros[macro.Vol].Phase)
			}
		})
	}
}

func TestAllIsCopy(t *testing.T) {
	l := All()
	l[0].ID = "changed"
	if _, ok := ByID("changed"); ok {
		t.Errorf("All() exposes the registry")
	}
}
