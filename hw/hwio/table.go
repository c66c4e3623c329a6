package hwio

import (
	"fmt"

	"github.com/1135975331/furnace/emu/log"
)

type BankIO8 interface {
	// Read8 reads a byte from the given address. If peek is true, the read
	// shouldn't have any side effects (debugging/tracing).
	Read8(addr uint16, peek bool) uint8
	Write8(addr uint16, val uint8)
}

// Write16 writes val as two consecutive registers, low byte first.
func Write16(b BankIO8, addr uint16, val uint16) {
	b.Write8(addr, Lo8(val))
	b.Write8(addr+1, Hi8(val))
}

func Read16(b BankIO8, addr uint16) uint16 {
	lo := b.Read8(addr, false)
	hi := b.Read8(addr+1, false)
	return uint16(hi)<<8 | uint16(lo)
}

// Table is the register file of a sound chip: a flat address space where
// each address is served by a register or a device.
type Table struct {
	Name string

	// Unmapped, if not nil, serves every access to an address nothing is
	// mapped at.
	Unmapped BankIO8

	table8 []BankIO8
}

// NewTable creates a register file covering addresses [0, size).
func NewTable(name string, size int) *Table {
	t := &Table{Name: name, table8: make([]BankIO8, size)}
	return t
}

// Size returns the number of addresses covered by the table.
func (t *Table) Size() int { return len(t.table8) }

func (t *Table) Reset() {
	clear(t.table8)
}

// MapBank maps a register bank, that is a structure containing multiple Reg8
// or Device fields. For this function to work, registers must have a struct
// tag "hwio", containing the following fields:
//
//	offset=0x12     Byte-offset within the register bank at which this
//	                register is mapped. There is no default value: if this
//	                option is missing, the register is assumed not to be
//	                part of the bank, and is ignored by this call.
//
//	bank=NN         Ordinal bank number (if not specified, default to zero).
//	                This option allows for a structure to expose multiple
//	                banks, as regs can be grouped by bank by specified the
//	                bank number.
func (t *Table) MapBank(addr uint16, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		switch r := reg.regPtr.(type) {
		case *Reg8:
			t.MapReg8(addr+reg.offset, r)
		case *Device:
			t.MapDevice(addr+reg.offset, r)
		default:
			panic(fmt.Errorf("invalid reg type: %T", r))
		}
	}
}

func (t *Table) UnmapBank(addr uint16, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		switch r := reg.regPtr.(type) {
		case *Reg8:
			t.Unmap(addr+reg.offset, addr+reg.offset)
		case *Device:
			t.Unmap(addr+reg.offset, addr+reg.offset+uint16(r.Size)-1)
		default:
			panic(fmt.Errorf("invalid reg type: %T", r))
		}
	}
}

func (t *Table) mapBus8(addr, size uint16, io BankIO8) {
	end := int(addr) + int(size)
	if end > len(t.table8) {
		panic(fmt.Errorf("%s: mapping [%04x-%04x] out of range (size %04x)", t.Name, addr, end-1, len(t.table8)))
	}
	for i := int(addr); i < end; i++ {
		if t.table8[i] != nil {
			panic(fmt.Errorf("%s: address %04x already mapped", t.Name, i))
		}
		t.table8[i] = io
	}
}

func (t *Table) MapReg8(addr uint16, io *Reg8) {
	t.mapBus8(addr, 1, io)
}

func (t *Table) MapDevice(addr uint16, io *Device) {
	log.ModHwIo.DebugZ("mapping device").
		Hex16("addr", addr).
		Hex16("size", uint16(io.Size)).
		String("dev", io.Name).
		String("bus", t.Name).
		End()

	t.mapBus8(addr, uint16(io.Size), io)
}

// Unmap removes whatever is mapped in the inclusive range [begin, end].
func (t *Table) Unmap(begin, end uint16) {
	for i := int(begin); i <= int(end) && i < len(t.table8); i++ {
		t.table8[i] = nil
	}
}

func (t *Table) search(addr uint16) BankIO8 {
	if int(addr) < len(t.table8) && t.table8[addr] != nil {
		return t.table8[addr]
	}
	return t.Unmapped
}

// Read8 searches in the table for the register mapped at the given address
// and forward the read to it.
func (t *Table) Read8(addr uint16, peek bool) uint8 {
	io := t.search(addr)
	if io == nil {
		if !peek {
			log.ModHwIo.DebugZ("unmapped Read8").
				String("name", t.Name).
				Hex16("addr", addr).
				End()
		}
		return 0
	}
	return io.Read8(addr, peek)
}

// Peek8 is a convenience function.
func (t *Table) Peek8(addr uint16) uint8 {
	return t.Read8(addr, true)
}

// Write8 forwards a write to the register mapped at addr.
func (t *Table) Write8(addr uint16, val uint8) {
	io := t.search(addr)
	if io == nil {
		log.ModHwIo.DebugZ("unmapped Write8").
			String("name", t.Name).
			Hex16("addr", addr).
			Hex8("val", val).
			End()
		return
	}
	io.Write8(addr, val)
}

// Mapped reports whether a register or device handles addr.
func (t *Table) Mapped(addr uint16) bool {
	return int(addr) < len(t.table8) && t.table8[addr] != nil
}
