package hwio_test

import (
	"testing"

	"github.com/1135975331/furnace/hw/hwio"
)

// Unmapped
type openbus struct{}

func (ob *openbus) Read8(addr uint16, peek bool) uint8 {
	if peek {
		return 0xD4
	}
	return 0xD3
}
func (ob *openbus) Write8(addr uint16, val uint8) {}

type testTable struct {
	t   testing.TB
	Bus *hwio.Table

	// $00
	Reg0 hwio.Reg8 `hwio:"bank=0,offset=0x0,reset=0x77"`
	// $01
	Reg1 hwio.Reg8 `hwio:"bank=0,offset=0x1,rwmask=0xF0,rcb,reset=0x99"`
	// $02
	Reg2 hwio.Reg8 `hwio:"bank=0,offset=0x2,rwmask=0xF0,readonly,pcb=PeekReg2"`
	// $03
	Reg3 hwio.Reg8 `hwio:"bank=0,offset=0x3,wcb"`

	// $40-$4F
	DefaultDev hwio.Device `hwio:"bank=1,offset=0x0,size=0x10"`
	// $50-$5F
	DEV hwio.Device `hwio:"bank=1,offset=0x10,size=0x10,rcb,wcb"` // no peek-callback
	// $60-$6F
	RoDEV hwio.Device `hwio:"bank=1,offset=0x20,size=0x10,rcb,pcb,readonly"`
	// $70-$7F
	WoDEV hwio.Device `hwio:"bank=1,offset=0x30,size=0x10,wcb,writeonly"` // no peek-callback

	devval uint8
	writes []uint8
}

func newTestTable(tb testing.TB) *testTable {
	tbl := &testTable{t: tb}
	hwio.MustInitRegs(tbl)

	tbl.Bus = hwio.NewTable("regs", 0x80)
	tbl.Bus.MapBank(0x00, tbl, 0)
	tbl.Bus.MapBank(0x40, tbl, 1)
	tbl.Bus.Unmapped = &openbus{}
	return tbl
}

// $01
func (tbl *testTable) ReadREG1(val uint8) uint8 { return tbl.Reg1.Value + 1 }

// $02
func (tbl *testTable) PeekReg2(val uint8) uint8 { return 0x12 }

// $03
func (tbl *testTable) WriteREG3(old, val uint8) { tbl.writes = append(tbl.writes, old, val) }

// $50-5F
func (tbl *testTable) ReadDEV(addr uint16) uint8       { return 0xE1 }
func (tbl *testTable) WriteDEV(addr uint16, val uint8) { tbl.devval = uint8(addr) & val }

// $60-6F
func (tbl *testTable) ReadRODEV(addr uint16) uint8 { return 0xC5 }
func (tbl *testTable) PeekRODEV(addr uint16) uint8 { return 0xC8 }

// $70-7F
func (tbl *testTable) WriteWODEV(addr uint16, val uint8) { tbl.devval = uint8(addr) & ^val }

func (tbl *testTable) wantRead8(addr uint16, want uint8) {
	tbl.t.Helper()

	if got := tbl.Bus.Read8(addr, false); got != want {
		tbl.t.Errorf("Read8(%04X) = %02X, want %02X", addr, got, want)
	}
}

func (tbl *testTable) Write8(addr uint16, val uint8) {
	tbl.Bus.Write8(addr, val)
}

func (tbl *testTable) wantPeek8(addr uint16, want uint8) {
	tbl.t.Helper()

	if got := tbl.Bus.Peek8(addr); got != want {
		tbl.t.Errorf("Peek8(%04X) = %02X, want %02X", addr, got, want)
	}
}

func TestTableRegs(t *testing.T) {
	tbl := newTestTable(t)

	tbl.wantRead8(0x00, 0x77)

	// Reg1
	tbl.wantRead8(0x01, 0x9a)
	tbl.Write8(0x01, 0xff)
	tbl.wantRead8(0x01, 0xfa)
	tbl.Write8(0x01, 0xF0)
	tbl.wantRead8(0x01, 0xfa)
	tbl.Write8(0x01, 0x0F)
	tbl.wantRead8(0x01, 0x0A)

	// Reg2
	tbl.wantRead8(0x02, 0x00)
	tbl.wantPeek8(0x02, 0x12)
	tbl.Write8(0x02, 0x9b)
	tbl.wantRead8(0x02, 0x00)
	tbl.wantPeek8(0x02, 0x12)

	// Reg3
	tbl.Write8(0x03, 0x10)
	tbl.Write8(0x03, 0x20)
	if want := []uint8{0x00, 0x10, 0x10, 0x20}; string(tbl.writes) != string(want) {
		t.Errorf("Reg3 write callbacks = % x, want % x", tbl.writes, want)
	}
}

func TestTableUnmapped(t *testing.T) {
	tbl := newTestTable(t)
	tbl.wantRead8(0x20, 0xd3)
	tbl.wantPeek8(0x20, 0xd4)

	// out of table range
	tbl.wantRead8(0x1234, 0xd3)

	tbl.Bus.Unmapped = nil
	tbl.wantRead8(0x20, 0x00)
	tbl.Write8(0x20, 0xff) // must not panic
}

func TestTableMapDevice(t *testing.T) {
	tbl := newTestTable(t)

	tbl.Write8(0x40, 0xff)
	tbl.wantRead8(0x40, 0x00)
	tbl.wantPeek8(0x40, 0x00)

	tbl.wantRead8(0x50, 0xe1)
	tbl.wantPeek8(0x50, 0x00)
	tbl.Write8(0x5c, 0x27)
	if tbl.devval != 0x04 {
		t.Errorf("devval = %02X, want 0x04", tbl.devval)
	}

	tbl.wantRead8(0x60, 0xc5)
	tbl.wantPeek8(0x60, 0xc8)
	tbl.Write8(0x60, 0xff) // readonly
	if tbl.devval != 0x04 {
		t.Errorf("devval = %02X, want 0x04", tbl.devval)
	}

	tbl.wantRead8(0x70, 0x00) // writeonly
	tbl.wantPeek8(0x70, 0x00) // writeonly
	tbl.Write8(0x75, 0x0f)
	if tbl.devval != 0x70 {
		t.Errorf("devval = %02X, want 0x70", tbl.devval)
	}
}

func TestTableDoubleMapPanics(t *testing.T) {
	tbl := newTestTable(t)
	defer func() {
		if recover() == nil {
			t.Errorf("mapping an already mapped address should panic")
		}
	}()
	tbl.Bus.MapReg8(0x01, &hwio.Reg8{Name: "dup"})
}

func TestUnmapBank(t *testing.T) {
	t.Run("hwio.Reg8", func(t *testing.T) {
		tbl := newTestTable(t)

		tbl.wantRead8(0x01, 0x9a)
		tbl.Write8(0x01, 0xff)
		tbl.Bus.UnmapBank(0x00, tbl, 0)
		tbl.wantRead8(0x01, 0xd3) // openbus
		tbl.wantPeek8(0x01, 0xd4) // openbus
	})
	t.Run("hwio.Device", func(t *testing.T) {
		tbl := newTestTable(t)

		tbl.wantRead8(0x5F, 0xE1)
		tbl.Bus.UnmapBank(0x40, tbl, 1)
		tbl.wantRead8(0x5F, 0xd3) // openbus
		tbl.wantPeek8(0x5F, 0xd4) // openbus
	})
}

func TestUnmap(t *testing.T) {
	t.Run("partial", func(t *testing.T) {
		tbl := newTestTable(t)

		tbl.Bus.Unmap(0x00, 0x01)
		tbl.wantRead8(0x00, 0xd3)
		tbl.wantRead8(0x01, 0xd3)
		tbl.wantPeek8(0x02, 0x12)
	})
	t.Run("overshoot", func(t *testing.T) {
		tbl := newTestTable(t)

		tbl.Bus.Unmap(0x70, 0xFFFF)
		tbl.wantRead8(0x75, 0xD3)
		tbl.wantRead8(0x50, 0xE1)
	})
	t.Run("multiple", func(t *testing.T) {
		tbl := newTestTable(t)

		tbl.Bus.Unmap(0x41, 0x6F) // unmap 3 devices
		tbl.wantRead8(0x42, 0xD3) // openbus
		tbl.wantPeek8(0x53, 0xD4)
		tbl.wantRead8(0x64, 0xD3)
		if !tbl.Bus.Mapped(0x40) || tbl.Bus.Mapped(0x41) {
			t.Errorf("Mapped() does not reflect unmap")
		}
	})
}

func TestWrite16(t *testing.T) {
	tbl := newTestTable(t)
	hwio.Write16(tbl.Bus, 0x01, 0xABCD)
	// Reg1 keeps its low nibble and reads back +1, Reg2 is readonly.
	if got := hwio.Read16(tbl.Bus, 0x01); got != 0x00CA {
		t.Errorf("Read16 = %04x, want 00ca", got)
	}
}
