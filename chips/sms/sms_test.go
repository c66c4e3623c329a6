package sms

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/1135975331/furnace/dispatch"
)

func newTestSMS(t *testing.T, flags string) *Dispatcher {
	t.Helper()
	d := New()
	if n := d.Init(nil, NumChannels, 44100, dispatch.MustParseConfig(flags)); n != NumChannels {
		t.Fatalf("Init(%q) returned %d channels", flags, n)
	}
	return d
}

func cmd(c dispatch.CmdType, ch, v, v2 int) dispatch.Command {
	return dispatch.Command{Cmd: c, Chan: ch, Value: v, Value2: v2}
}

func tickAndApply(d *Dispatcher) {
	d.Tick(true)
	d.Acquire(make([]int16, 2), 1)
}

func TestInitFlags(t *testing.T) {
	for _, tt := range []struct {
		flags  string
		want   int
		stereo bool
	}{
		{"", NumChannels, false},
		{"chipType=1", NumChannels, false},
		{"chipType=2", NumChannels, true},
		{"chipType=3", 0, false},
		{"clockSel=2", NumChannels, false},
		{"clockSel=7", 0, false},
	} {
		d := New()
		got := d.Init(nil, NumChannels, 44100, dispatch.MustParseConfig(tt.flags))
		if got != tt.want {
			t.Errorf("Init(%q) = %d, want %d", tt.flags, got, tt.want)
			continue
		}
		if got != 0 && d.IsStereo() != tt.stereo {
			t.Errorf("Init(%q): IsStereo() = %t, want %t", tt.flags, d.IsStereo(), tt.stereo)
		}
	}
}

func TestToneRegisters(t *testing.T) {
	d := newTestSMS(t, "")
	d.Dispatch(cmd(dispatch.CmdNoteOn, 0, 69, 0))
	d.Dispatch(cmd(dispatch.CmdVolume, 1, 10, 0))
	d.Dispatch(cmd(dispatch.CmdNoteOn, 1, 57, 0))
	tickAndApply(d)

	pool := d.RegisterPool()
	want := map[uint16]uint8{
		0x00: 254, // 3579545 / (32 * 440)
		0x01: 0,
		0x02: 0xfc, // 508
		0x03: 1,
		0x08: 0,
		0x09: 5,
		0x0a: 15,
		0x07: 0x03,
	}
	for addr, v := range want {
		if pool[addr] != v {
			t.Errorf("reg %#02x = %#02x, want %#02x", addr, pool[addr], v)
		}
	}
	if p := d.psg.Period(1); p != 508 {
		t.Errorf("core period of channel 1 = %d, want 508", p)
	}
	if a := d.psg.Attenuation(1); a != 5 {
		t.Errorf("core attenuation of channel 1 = %d, want 5", a)
	}
}

func TestNoPhaseReset(t *testing.T) {
	d := newTestSMS(t, "noPhaseReset=true")
	d.Dispatch(cmd(dispatch.CmdNoteOn, 0, 69, 0))
	tickAndApply(d)
	if v := d.RegisterPool()[regPhase]; v != 0 {
		t.Errorf("phase register = %#02x, want 0", v)
	}
}

func TestNoiseModes(t *testing.T) {
	d := newTestSMS(t, "")
	d.Dispatch(cmd(dispatch.CmdStdNoiseMode, chanNoise, noiseWhite, 0))
	d.Dispatch(cmd(dispatch.CmdNoteOn, chanNoise, 60, 0))
	tickAndApply(d)
	if v := d.RegisterPool()[regNoise]; v != 0x06 {
		t.Errorf("noise control = %#02x, want 0x06", v)
	}
	if v := d.psg.NoiseControl(); v != 0x06 {
		t.Errorf("core noise control = %#02x, want 0x06", v)
	}

	d.Dispatch(cmd(dispatch.CmdStdNoiseMode, chanNoise, noiseToneFreq, 0))
	d.Dispatch(cmd(dispatch.CmdNoteOn, chanNoise, 69, 0))
	tickAndApply(d)
	if v := d.RegisterPool()[regNoise]; v != 0x03 {
		t.Errorf("noise control = %#02x, want 0x03", v)
	}
	if p := d.psg.Period(2); p != 254 {
		t.Errorf("tone 2 period = %d, want 254", p)
	}
}

func TestNoiseReleasesTone2(t *testing.T) {
	for _, tt := range []struct {
		name string
		stop dispatch.Command
	}{
		{"note off", cmd(dispatch.CmdNoteOff, chanNoise, 0, 0)},
		{"mode change", cmd(dispatch.CmdStdNoiseMode, chanNoise, noiseWhite, 0)},
	} {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestSMS(t, "")
			d.Dispatch(cmd(dispatch.CmdNoteOn, 2, 69, 0))
			tickAndApply(d)
			if p := d.psg.Period(2); p != 254 {
				t.Fatalf("tone 2 period = %d, want 254", p)
			}

			d.Dispatch(cmd(dispatch.CmdStdNoiseMode, chanNoise, noiseToneFreq|noiseWhite, 0))
			d.Dispatch(cmd(dispatch.CmdNoteOn, chanNoise, 40, 0))
			tickAndApply(d)
			if p := d.psg.Period(2); p == 254 {
				t.Fatalf("tone 2 period still 254 while carrying noise")
			}

			d.Dispatch(tt.stop)
			for range 3 {
				tickAndApply(d)
			}
			if p := d.psg.Period(2); p != 254 {
				t.Errorf("tone 2 period = %d after noise left tone mode, want 254", p)
			}
		})
	}
}

func TestPokeResetsToneCache(t *testing.T) {
	d := newTestSMS(t, "")
	d.Dispatch(cmd(dispatch.CmdNoteOn, 0, 69, 0))
	tickAndApply(d)

	d.PokeList([]dispatch.RegWrite{{Addr: 0x00, Val: 0x10}, {Addr: 0x01, Val: 0x02}})
	d.Acquire(make([]int16, 2), 1)
	if p := d.psg.Period(0); p != 0x210 {
		t.Fatalf("poked period = %#x, want 0x210", p)
	}

	d.Dispatch(cmd(dispatch.CmdNoteOn, 0, 69, 0))
	tickAndApply(d)
	if p := d.psg.Period(0); p != 254 {
		t.Errorf("tone 0 period = %d after note, want 254", p)
	}
}

func TestGameGearPanning(t *testing.T) {
	d := newTestSMS(t, "chipType=2")
	d.Dispatch(cmd(dispatch.CmdPanning, 1, 0, 0xff))
	tickAndApply(d)

	if v := d.RegisterPool()[regStereo]; v != 0xdf {
		t.Errorf("stereo register = %#02x, want 0xdf", v)
	}
	if p := d.GetPan(1); p != 0x00ff {
		t.Errorf("GetPan(1) = %#04x, want 0x00ff", p)
	}
	if p := d.GetPan(0); p != 0xffff {
		t.Errorf("GetPan(0) = %#04x, want 0xffff", p)
	}
}

func peak(buf []int16) int {
	p := 0
	for _, s := range buf {
		p = max(p, int(s), -int(s))
	}
	return p
}

func TestToneProducesSound(t *testing.T) {
	d := newTestSMS(t, "")
	d.Dispatch(cmd(dispatch.CmdNoteOn, 0, 69, 0))
	d.Tick(true)

	buf := make([]int16, 2*4096)
	d.Acquire(buf, 4096)
	if peak(buf) < 1000 {
		t.Errorf("peak = %d, tone channel is silent", peak(buf))
	}
	if d.OscBuffer(0).Needle() != 4096 {
		t.Errorf("osc needle = %d, want 4096", d.OscBuffer(0).Needle())
	}
}

func TestMute(t *testing.T) {
	d := newTestSMS(t, "")
	d.Dispatch(cmd(dispatch.CmdNoteOn, 0, 69, 0))
	d.Tick(true)
	d.MuteChannel(0, true)

	buf := make([]int16, 2*2048)
	d.Acquire(buf, 2048)
	if p := peak(d.OscBuffer(0).Latest(make([]int16, 2048))); p != 0 {
		t.Errorf("muted oscilloscope peak = %d, want 0", p)
	}
	if p := peak(buf); p != 0 {
		t.Errorf("muted output peak = %d, want 0", p)
	}
	if st, _ := d.ChanState(0); !st.Active {
		t.Errorf("muting changed the channel active flag")
	}
}

func TestResetIdempotent(t *testing.T) {
	d := newTestSMS(t, "chipType=2")
	d.Dispatch(cmd(dispatch.CmdNoteOn, 0, 60, 0))
	d.Dispatch(cmd(dispatch.CmdPanning, 2, 0xff, 0))
	d.Tick(true)
	d.Acquire(make([]int16, 64), 32)

	snap := func() ([]dispatch.ChanState, []byte) {
		var st []dispatch.ChanState
		for ch := range NumChannels {
			s, _ := d.ChanState(ch)
			st = append(st, s)
		}
		return st, d.RegisterPool()
	}
	d.Reset()
	st1, pool1 := snap()
	d.Reset()
	st2, pool2 := snap()
	if diff := cmp.Diff(st1, st2); diff != "" {
		t.Errorf("channel state mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(pool1, pool2); diff != "" {
		t.Errorf("register pool mismatch (-want +got):\n%s", diff)
	}
	fresh := newTestSMS(t, "chipType=2")
	if diff := cmp.Diff(fresh.psg.State(), d.psg.State()); diff != "" {
		t.Errorf("core state mismatch (-want +got):\n%s", diff)
	}
}

func TestPoolRoundTrip(t *testing.T) {
	buf := make([]int16, 64)

	src := newTestSMS(t, "chipType=2")
	for ch, note := range []int{60, 64, 67, 50} {
		src.Dispatch(cmd(dispatch.CmdNoteOn, ch, note, 0))
		src.Dispatch(cmd(dispatch.CmdVolume, ch, 4+ch, 0))
	}
	src.Dispatch(cmd(dispatch.CmdPanning, 3, 0, 0x80))
	src.Tick(true)
	src.Acquire(buf, 32)

	dst := newTestSMS(t, "chipType=2")
	dst.PokeList(src.PoolWrites())
	dst.Acquire(buf, 32)

	if diff := cmp.Diff(src.RegisterPool(), dst.RegisterPool()); diff != "" {
		t.Errorf("register pool mismatch (-want +got):\n%s", diff)
	}
	for ch := range 3 {
		if src.psg.Period(ch) != dst.psg.Period(ch) {
			t.Errorf("channel %d period = %d, want %d", ch, dst.psg.Period(ch), src.psg.Period(ch))
		}
	}
}
