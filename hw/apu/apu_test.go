package apu

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/1135975331/furnace/hw/hwdefs"
)

type countingMem struct {
	reads []uint16
}

func (m *countingMem) Read8(addr uint16) uint8 {
	m.reads = append(m.reads, addr)
	return 0xAA
}

func newTestAPU(tb testing.TB, mem SampleMemory) *APU {
	tb.Helper()
	return New(NewMixer(hwdefs.ClockNTSC, 44100), mem)
}

// render runs the APU for nframes frames of n samples each, and returns all
// produced samples.
func render(a *APU, nframes, n int) []int16 {
	var out []int16
	buf := make([]int16, n)
	for range nframes {
		a.Run(uint32(a.Mixer().ClocksNeeded(n)))
		a.EndFrame()
		got := a.Mixer().ReadSamples(buf)
		out = append(out, buf[:got]...)
	}
	return out
}

func peak(samples []int16) int {
	p := 0
	for _, s := range samples {
		p = max(p, abs(int(s)))
	}
	return p
}

// startSquare plays a constant volume A4 on pulse 1.
func startSquare(a *APU) {
	a.Write(0x15, 0x01)
	a.Write(0x00, 0xBF) // duty 2, halt, constant volume 15
	a.Write(0x02, 0xFD)
	a.Write(0x03, 0x08)
}

func TestStatusLengthCounter(t *testing.T) {
	a := newTestAPU(t, nil)
	startSquare(a)
	a.Run(10)

	if got := a.Regs.Peek8(0x15); got&0x01 == 0 {
		t.Fatalf("status = %02x, want pulse1 length counter active", got)
	}

	a.Write(0x15, 0x00)
	if got := a.Regs.Peek8(0x15); got&0x1F != 0 {
		t.Errorf("status = %02x after disabling all channels, want 0", got)
	}
}

func TestLengthLoadIgnoredWhenDisabled(t *testing.T) {
	a := newTestAPU(t, nil)
	a.Write(0x00, 0xBF)
	a.Write(0x03, 0x08)
	a.Run(10)

	if got := a.Regs.Peek8(0x15); got&0x01 != 0 {
		t.Errorf("status = %02x, length counter must not load while disabled", got)
	}
}

func TestSquareProducesSound(t *testing.T) {
	a := newTestAPU(t, nil)
	startSquare(a)

	samples := render(a, 8, 200)
	if len(samples) != 8*200 {
		t.Fatalf("got %d samples, want %d", len(samples), 8*200)
	}
	if p := peak(samples); p < 1000 {
		t.Errorf("peak = %d, want an audible square wave", p)
	}
}

func TestMutedChannelIsSilent(t *testing.T) {
	a := newTestAPU(t, nil)
	a.Mixer().SetVolume(Square1, 0)
	startSquare(a)

	samples := render(a, 8, 200)
	if p := peak(samples); p != 0 {
		t.Errorf("peak = %d, want silence", p)
	}

	levels := make([]int16, 64)
	a.Mixer().ChannelLevels(Square1, levels)
	if diff := cmp.Diff(make([]int16, 64), levels); diff != "" {
		t.Errorf("ChannelLevels() of muted channel mismatch (-want +got):\n%s", diff)
	}
}

func TestChannelLevels(t *testing.T) {
	a := newTestAPU(t, nil)
	startSquare(a)
	render(a, 2, 200)

	levels := make([]int16, 200)
	a.Mixer().ChannelLevels(Square1, levels)

	var hi, lo int
	for _, l := range levels {
		switch l {
		case 15 << 11:
			hi++
		case 0:
			lo++
		default:
			t.Fatalf("unexpected level %d", l)
		}
	}
	if hi == 0 || lo == 0 {
		t.Errorf("levels high=%d low=%d, want a square wave", hi, lo)
	}
}

func TestDMCFetchesFromMemory(t *testing.T) {
	mem := &countingMem{}
	a := newTestAPU(t, mem)

	a.Write(0x10, 0x0F) // fastest rate, no loop
	a.Write(0x12, 0x01) // $C040
	a.Write(0x13, 0x01) // 17 bytes
	a.Write(0x15, 0x10)

	if len(mem.reads) != 1 || mem.reads[0] != 0xC040 {
		t.Fatalf("reads = %x, want first fetch at c040", mem.reads)
	}
	if addr, remaining := a.DMCPosition(); addr != 0xC041 || remaining != 16 {
		t.Errorf("DMCPosition() = (%04x, %d), want (c041, 16)", addr, remaining)
	}

	a.Run(9000)
	a.EndFrame()

	if len(mem.reads) != 17 {
		t.Errorf("got %d reads, want 17", len(mem.reads))
	}
	if got := a.Regs.Peek8(0x15); got&0x10 != 0 {
		t.Errorf("status = %02x, want DMC finished", got)
	}
	if a.Output(DPCM) == 0 {
		t.Errorf("DMC output level did not move")
	}
}

func TestDMCLoop(t *testing.T) {
	mem := &countingMem{}
	a := newTestAPU(t, mem)

	a.Write(0x10, 0x4F) // loop
	a.Write(0x13, 0x00) // 1 byte
	a.Write(0x15, 0x10)
	a.Run(9000)
	a.EndFrame()

	if got := a.Regs.Peek8(0x15); got&0x10 == 0 {
		t.Errorf("status = %02x, looping DMC must stay active", got)
	}
	if len(mem.reads) < 10 {
		t.Errorf("got %d reads, want the sample to loop", len(mem.reads))
	}
}

func TestStateRoundTrip(t *testing.T) {
	a := newTestAPU(t, nil)
	startSquare(a)
	a.Write(0x08, 0x81)
	a.Write(0x0A, 0x40)
	a.Write(0x0B, 0x10)
	render(a, 3, 200)

	want := a.State()

	b := newTestAPU(t, nil)
	b.SetState(want)
	if diff := cmp.Diff(want, b.State()); diff != "" {
		t.Errorf("State() mismatch (-want +got):\n%s", diff)
	}
}

func TestFrameCounterFiveStep(t *testing.T) {
	a := newTestAPU(t, nil)
	a.Write(0x15, 0x01)
	a.Write(0x00, 0x10) // no halt, constant volume 0
	a.Write(0x03, 0x18) // length index 3: 2
	a.Run(1)

	// Writing $80 clocks the half frame units immediately, twice brings the
	// length counter to 0.
	a.Write(0x17, 0x80)
	a.Write(0x17, 0x80)
	if got := a.Regs.Peek8(0x15); got&0x01 != 0 {
		t.Errorf("status = %02x, want length counter expired", got)
	}
}
