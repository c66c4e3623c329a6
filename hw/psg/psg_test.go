package psg

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/1135975331/furnace/hw/hwdefs"
)

func render(s *PSG, nframes, n int) []int16 {
	var out []int16
	buf := make([]int16, 2*n)
	for range nframes {
		s.Run(s.ClocksNeeded(n))
		s.EndFrame()
		got := s.ReadSamples(buf, n)
		out = append(out, buf[:2*got]...)
	}
	return out
}

func peak(samples []int16) int {
	p := 0
	for _, v := range samples {
		p = max(p, int(v), -int(v))
	}
	return p
}

func TestLogicalToneWrite(t *testing.T) {
	s := New(Sega, hwdefs.ClockSMSNTSC, 44100, false)
	s.Write(0x02, 0xFE)
	s.Write(0x03, 0x03)

	if got := s.Period(1); got != 0x3FE {
		t.Errorf("Period(1) = %03x, want 3fe", got)
	}
	// Only the high byte commits.
	s.Write(0x02, 0x01)
	if got := s.Period(1); got != 0x3FE {
		t.Errorf("Period(1) = %03x after low byte write, want 3fe", got)
	}
}

func TestRawPortLatchData(t *testing.T) {
	s := New(TI, hwdefs.ClockSMSNTSC, 44100, false)
	s.Write(0x0F, 0x8A) // latch ch0 tone, low nibble A
	s.Write(0x0F, 0x1C) // data 0x1C -> high 6 bits
	s.Write(0x0F, 0xD5) // latch ch2 volume 5

	if got := s.Period(0); got != 0x1CA {
		t.Errorf("Period(0) = %03x, want 1ca", got)
	}
	if got := s.Attenuation(2); got != 5 {
		t.Errorf("Attenuation(2) = %d, want 5", got)
	}
}

func TestToneProducesSound(t *testing.T) {
	s := New(Sega, hwdefs.ClockSMSNTSC, 44100, false)
	// ~440Hz: 3579545 / (32 * 440) = 254
	s.Write(0x00, 0xFE)
	s.Write(0x01, 0x00)
	s.Write(0x08, 0x00)

	samples := render(s, 8, 200)
	if p := peak(samples); p < 1000 {
		t.Errorf("peak = %d, want audible tone", p)
	}
}

func TestSilentByDefault(t *testing.T) {
	s := New(Sega, hwdefs.ClockSMSNTSC, 44100, false)
	s.Write(0x00, 0xFE)
	s.Write(0x01, 0x00)

	if p := peak(render(s, 4, 200)); p != 0 {
		t.Errorf("peak = %d, channels must power up attenuated", p)
	}
}

func TestMute(t *testing.T) {
	s := New(Sega, hwdefs.ClockSMSNTSC, 44100, false)
	s.SetMute(0, true)
	s.Write(0x00, 0xFE)
	s.Write(0x01, 0x00)
	s.Write(0x08, 0x00)

	if p := peak(render(s, 4, 200)); p != 0 {
		t.Errorf("peak = %d, want muted channel silent", p)
	}
	levels := make([]int16, 32)
	s.ChannelLevels(0, levels)
	if diff := cmp.Diff(make([]int16, 32), levels); diff != "" {
		t.Errorf("ChannelLevels() mismatch (-want +got):\n%s", diff)
	}
}

func TestGameGearStereo(t *testing.T) {
	s := New(Sega, hwdefs.ClockSMSNTSC, 44100, true)
	s.Write(0x0C, 0x01) // channel 0 right only
	s.Write(0x00, 0xFE)
	s.Write(0x01, 0x00)
	s.Write(0x08, 0x00)

	samples := render(s, 8, 200)
	var left, right []int16
	for i := 0; i < len(samples); i += 2 {
		left = append(left, samples[i])
		right = append(right, samples[i+1])
	}
	if p := peak(left); p != 0 {
		t.Errorf("left peak = %d, want silence", p)
	}
	if p := peak(right); p < 1000 {
		t.Errorf("right peak = %d, want audible tone", p)
	}
}

func TestNoiseLFSR(t *testing.T) {
	for _, v := range []Variant{Sega, TI} {
		t.Run(v.Name, func(t *testing.T) {
			s := New(v, hwdefs.ClockSMSNTSC, 44100, false)
			s.Write(0x06, 0x04) // white noise, fastest rate
			s.Write(0x0B, 0x00)

			seen := map[uint16]bool{}
			for range 2000 {
				s.tick()
				seen[s.noiseShift] = true
			}
			if len(seen) < 16 {
				t.Errorf("LFSR visited %d states, want white noise", len(seen))
			}
		})
	}
}

func TestStateRoundTrip(t *testing.T) {
	s := New(Sega, hwdefs.ClockSMSNTSC, 44100, true)
	s.Write(0x00, 0x10)
	s.Write(0x01, 0x01)
	s.Write(0x06, 0x05)
	s.Write(0x09, 0x07)
	s.Write(0x0C, 0xA5)
	render(s, 2, 100)

	want := s.State()
	other := New(Sega, hwdefs.ClockSMSNTSC, 44100, true)
	other.SetState(want)
	if diff := cmp.Diff(want, other.State()); diff != "" {
		t.Errorf("State() mismatch (-want +got):\n%s", diff)
	}
}
