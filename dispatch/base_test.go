package dispatch

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBaseDrain(t *testing.T) {
	b := newTestBase(nil)

	var captured, applied []RegWrite
	b.CaptureWrites(func(w RegWrite) { captured = append(captured, w) })

	b.Write(0x03, 0x10)
	b.WriteIfChanged(0x03, 0x10) // deduplicated
	b.WriteIfChanged(0x01, 0x22)
	b.Poke(0x03, 0x11)
	b.Poke(0x40, 0x99) // outside the pool, still applied

	b.Drain(func(addr uint16, val uint8) {
		applied = append(applied, RegWrite{addr, val})
	})

	want := []RegWrite{{0x03, 0x10}, {0x01, 0x22}, {0x03, 0x11}, {0x40, 0x99}}
	if diff := cmp.Diff(want, applied); diff != "" {
		t.Errorf("applied writes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, captured); diff != "" {
		t.Errorf("captured writes mismatch (-want +got):\n%s", diff)
	}

	pool := b.RegisterPool()
	if pool[0x03] != 0x11 || pool[0x01] != 0x22 {
		t.Errorf("pool = % x", pool)
	}

	wantPool := []RegWrite{{0x01, 0x22}, {0x03, 0x11}}
	if diff := cmp.Diff(wantPool, b.PoolWrites()); diff != "" {
		t.Errorf("PoolWrites mismatch (-want +got):\n%s", diff)
	}

	b.ForceIns()
	b.WriteIfChanged(0x01, 0x22)
	if b.Pending() != 1 {
		t.Errorf("WriteIfChanged after ForceIns was deduplicated")
	}
}

func TestBaseMute(t *testing.T) {
	b := newTestBase(nil)
	b.MuteChannel(1, true)
	b.MuteChannel(5, true) // ignored
	if b.Muted(0) || !b.Muted(1) || b.Muted(5) {
		t.Errorf("mute flags = %t %t %t", b.Muted(0), b.Muted(1), b.Muted(5))
	}
	if b.OscBuffer(2) != nil {
		t.Errorf("OscBuffer(2) should be nil on a 2 channel chip")
	}
}

func TestOscBufferLatest(t *testing.T) {
	var o OscBuffer
	for i := range 10 {
		o.Push(int16(i))
	}
	got := o.Latest(make([]int16, 4))
	if diff := cmp.Diff([]int16{6, 7, 8, 9}, got); diff != "" {
		t.Errorf("Latest mismatch (-want +got):\n%s", diff)
	}
	if o.Needle() != 10 {
		t.Errorf("Needle() = %d, want 10", o.Needle())
	}
}

func TestMapVelocity(t *testing.T) {
	b := newTestBase(nil)
	for _, tt := range []struct {
		vel  float64
		want int
	}{{0, 0}, {0.5, 8}, {1, 15}, {2, 15}} {
		if got := b.MapVelocity(0, tt.vel); got != tt.want {
			t.Errorf("MapVelocity(%v) = %d, want %d", tt.vel, got, tt.want)
		}
	}
}
