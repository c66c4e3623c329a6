// Package psg emulates the SN76489 programmable sound generator found in the
// Sega Master System and Game Gear (and its TI ancestor): three square wave
// tone channels and one noise channel.
package psg

import (
	"math"

	"github.com/arl/blip"

	"github.com/1135975331/furnace/emu/log"
	"github.com/1135975331/furnace/hw/hwio"
)

// Variant describes the differences between chip revisions.
type Variant struct {
	Name           string
	LFSRBits       int    // 15 for TI, 16 for Sega
	WhiteNoiseTaps uint16 // tapped bits for white noise feedback
	ToneZero       uint16 // period used when a tone register holds 0
}

var (
	Sega = Variant{Name: "sega", LFSRBits: 16, WhiteNoiseTaps: 0x0009, ToneZero: 1}
	TI   = Variant{Name: "ti", LFSRBits: 15, WhiteNoiseTaps: 0x0003, ToneZero: 1024}
)

const (
	NumChannels  = 4
	NoiseChannel = 3
)

// RegsSize is the size of the logical register file.
const RegsSize = 0x10

// amplitude of each attenuation step, 2dB apart, 15 is silence.
var volumeTable [16]int16

func init() {
	for i := range 15 {
		volumeTable[i] = int16(math.Round(8000 * math.Pow(10, -2.0*float64(i)/20.0)))
	}
	volumeTable[15] = 0
}

// PSG is a SN76489 core. The chip itself only has a write-only data port
// (PORT) where latch and data bytes are written. Regs also exposes a logical
// register file where each parameter has its own address, which gets
// translated into port writes:
//
//	$00-$05  tone period of channel n, low byte at $00+2n then high 2 bits
//	         at $01+2n (the high byte write commits the period)
//	$06      noise control (bit 2: white noise, bits 0-1: rate)
//	$07      phase reset, bit n resets the counter of channel n
//	$08-$0B  attenuation of channel n (0: loudest, 15: silent)
//	$0C      Game Gear stereo (bit n+4: channel n left, bit n: right)
//	$0F      raw data port
type PSG struct {
	Regs *hwio.Table

	TONE0L hwio.Reg8 `hwio:"offset=0x00"`
	TONE0H hwio.Reg8 `hwio:"offset=0x01,rwmask=0x03,wcb"`
	TONE1L hwio.Reg8 `hwio:"offset=0x02"`
	TONE1H hwio.Reg8 `hwio:"offset=0x03,rwmask=0x03,wcb"`
	TONE2L hwio.Reg8 `hwio:"offset=0x04"`
	TONE2H hwio.Reg8 `hwio:"offset=0x05,rwmask=0x03,wcb"`
	NOISE  hwio.Reg8 `hwio:"offset=0x06,rwmask=0x07,wcb"`
	PHASE  hwio.Reg8 `hwio:"offset=0x07,wcb"`
	ATTEN0 hwio.Reg8 `hwio:"offset=0x08,rwmask=0x0f,reset=0x0f,wcb"`
	ATTEN1 hwio.Reg8 `hwio:"offset=0x09,rwmask=0x0f,reset=0x0f,wcb"`
	ATTEN2 hwio.Reg8 `hwio:"offset=0x0a,rwmask=0x0f,reset=0x0f,wcb"`
	ATTEN3 hwio.Reg8 `hwio:"offset=0x0b,rwmask=0x0f,reset=0x0f,wcb"`
	STEREO hwio.Reg8 `hwio:"offset=0x0c,reset=0xff,wcb"`
	PORT   hwio.Reg8 `hwio:"offset=0x0f,writeonly,wcb"`

	variant       Variant
	feedbackShift uint
	lfsrInitial   uint16

	toneReg     [3]uint16
	toneCounter [3]uint16
	toneOutput  [3]bool

	noiseReg     uint8
	noiseCounter uint16
	noiseShift   uint16
	noiseToggle  bool
	noiseOut     bool

	volume [NumChannels]uint8

	latchedChannel uint8
	latchedType    uint8 // 0: tone/noise, 1: volume
	stereo         uint8

	out output
}

// New creates a PSG clocked at clock Hz, producing samples at sampleRate.
// With stereo set, the Game Gear stereo register is honored.
func New(variant Variant, clock, sampleRate float64, stereo bool) *PSG {
	s := &PSG{
		variant:       variant,
		feedbackShift: uint(variant.LFSRBits - 1),
		lfsrInitial:   uint16(1) << uint(variant.LFSRBits-1),
	}
	s.out.init(clock/16, sampleRate, stereo)

	s.Regs = hwio.NewTable("psg", RegsSize)
	s.Regs.MapBank(0x00, s, 0)

	s.Reset()
	return s
}

// Variant returns the chip revision.
func (s *PSG) Variant() Variant { return s.variant }

// Stereo reports whether the PSG has separate left and right outputs.
func (s *PSG) Stereo() bool { return s.out.stereo }

// Write writes val to the logical register addr.
func (s *PSG) Write(addr uint16, val uint8) {
	s.Regs.Write8(addr, val)
}

// Reset resets all chip state to power-on defaults.
func (s *PSG) Reset() {
	s.toneReg = [3]uint16{}
	s.toneCounter = [3]uint16{}
	s.toneOutput = [3]bool{}
	s.noiseReg = 0
	s.noiseCounter = 0
	s.noiseShift = s.lfsrInitial
	s.noiseToggle = false
	s.noiseOut = false
	for i := range s.volume {
		s.volume[i] = 0x0F
	}
	s.latchedChannel = 0
	s.latchedType = 0
	s.stereo = 0xFF

	hwio.MustInitRegs(s)
	s.out.reset()
}

func (s *PSG) writeTone(ch uint8, lo, hi uint8) {
	period := uint16(hi&0x03)<<8 | uint16(lo)
	s.writePort(0x80 | ch<<5 | uint8(period&0x0F))
	s.writePort(uint8(period>>4) & 0x3F)
}

func (s *PSG) WriteTONE0H(_, val uint8) { s.writeTone(0, s.TONE0L.Value, val) }
func (s *PSG) WriteTONE1H(_, val uint8) { s.writeTone(1, s.TONE1L.Value, val) }
func (s *PSG) WriteTONE2H(_, val uint8) { s.writeTone(2, s.TONE2L.Value, val) }

func (s *PSG) WriteNOISE(_, val uint8) {
	s.writePort(0xE0 | val&0x07)
}

func (s *PSG) WritePHASE(_, val uint8) {
	for ch := range 3 {
		if hwio.GetBit8(val, uint(ch)) {
			s.toneCounter[ch] = s.toneReload(ch)
			s.toneOutput[ch] = true
		}
	}
	if hwio.GetBit8(val, NoiseChannel) {
		s.noiseCounter = 0
		s.noiseShift = s.lfsrInitial
	}
}

func (s *PSG) writeAtten(ch, val uint8) {
	s.writePort(0x90 | ch<<5 | val&0x0F)
}

func (s *PSG) WriteATTEN0(_, val uint8) { s.writeAtten(0, val) }
func (s *PSG) WriteATTEN1(_, val uint8) { s.writeAtten(1, val) }
func (s *PSG) WriteATTEN2(_, val uint8) { s.writeAtten(2, val) }
func (s *PSG) WriteATTEN3(_, val uint8) { s.writeAtten(3, val) }

func (s *PSG) WriteSTEREO(_, val uint8) {
	s.stereo = val
	s.out.update(s)
}

func (s *PSG) WritePORT(_, val uint8) {
	s.writePort(val)
}

// writePort handles a byte written to the chip data port.
func (s *PSG) writePort(value uint8) {
	log.ModSound.DebugZ("psg port write").Hex8("val", value).End()

	if value&0x80 != 0 {
		// LATCH/DATA byte: 1 CC T DDDD
		// CC = channel (0-2 tone, 3 noise)
		// T = type (0 = tone/noise, 1 = volume)
		// DDDD = data
		s.latchedChannel = (value >> 5) & 0x03
		s.latchedType = (value >> 4) & 0x01
		data := value & 0x0F

		switch {
		case s.latchedType == 1:
			s.volume[s.latchedChannel] = data
			s.out.update(s)
		case s.latchedChannel < 3:
			// Tone channel: update low 4 bits
			s.toneReg[s.latchedChannel] = (s.toneReg[s.latchedChannel] & 0x3F0) | uint16(data)
		default:
			s.noiseReg = data & 0x07
			s.noiseShift = s.lfsrInitial
		}
		return
	}

	// DATA byte: 0 X DDDDDD
	if s.latchedType != 0 {
		// Volume: data bytes update the low 4 bits too.
		s.volume[s.latchedChannel] = value & 0x0F
		s.out.update(s)
		return
	}
	if s.latchedChannel < 3 {
		data := uint16(value & 0x3F)
		s.toneReg[s.latchedChannel] = (s.toneReg[s.latchedChannel] & 0x0F) | (data << 4)
	} else {
		s.noiseReg = value & 0x07
		s.noiseShift = s.lfsrInitial
	}
}

func (s *PSG) toneReload(ch int) uint16 {
	if s.toneReg[ch] == 0 {
		return s.variant.ToneZero
	}
	return s.toneReg[ch]
}

// Period returns the 10-bit tone period of a tone channel.
func (s *PSG) Period(ch int) uint16 { return s.toneReg[ch] }

// Attenuation returns the 4-bit attenuation of a channel.
func (s *PSG) Attenuation(ch int) uint8 { return s.volume[ch] }

// NoiseControl returns the noise control register.
func (s *PSG) NoiseControl() uint8 { return s.noiseReg }

// tick advances the chip by one internal clock (16 input clocks).
func (s *PSG) tick() {
	for i := range 3 {
		if s.toneCounter[i] > 0 {
			s.toneCounter[i]--
		} else {
			s.toneCounter[i] = s.toneReload(i)
			s.toneOutput[i] = !s.toneOutput[i]
		}
	}

	if s.noiseCounter > 0 {
		s.noiseCounter--
		return
	}

	switch s.noiseReg & 0x03 {
	case 0:
		s.noiseCounter = 0x10
	case 1:
		s.noiseCounter = 0x20
	case 2:
		s.noiseCounter = 0x40
	case 3:
		// Use tone channel 2's frequency
		s.noiseCounter = s.toneReload(2)
	}

	s.noiseToggle = !s.noiseToggle

	// The LFSR only shifts on the rising edge, at half the counter rate.
	if s.noiseToggle {
		s.noiseOut = (s.noiseShift & 1) != 0

		var feedback uint16
		if s.noiseReg&0x04 != 0 {
			// White noise: parity of tapped bits
			tapped := s.noiseShift & s.variant.WhiteNoiseTaps
			tapped ^= tapped >> 8
			tapped ^= tapped >> 4
			tapped ^= tapped >> 2
			tapped ^= tapped >> 1
			feedback = (tapped & 1) << s.feedbackShift
		} else {
			// Periodic noise: feedback the output bit only
			feedback = (s.noiseShift & 1) << s.feedbackShift
		}

		s.noiseShift = (s.noiseShift >> 1) | feedback
	}
}

// level returns the current unipolar output of a channel.
func (s *PSG) level(ch int) int16 {
	var high bool
	if ch == NoiseChannel {
		high = s.noiseOut
	} else {
		high = s.toneOutput[ch]
	}
	if !high {
		return 0
	}
	return volumeTable[s.volume[ch]]
}

// Run advances the PSG by the given number of internal ticks (one tick is
// 16 input clocks).
func (s *PSG) Run(ticks int) {
	if s.out.time+uint32(ticks) > MaxFrameTicks {
		panic("frame overflow")
	}
	for range ticks {
		s.tick()
		s.out.time++
		s.out.update(s)
	}
}

// EndFrame closes the current frame, making its samples available.
func (s *PSG) EndFrame() uint32 {
	return s.out.endFrame()
}

// ClocksNeeded returns the number of ticks to run so that n more samples
// become available.
func (s *PSG) ClocksNeeded(n int) int {
	return s.out.left.ClocksNeeded(n)
}

// SamplesAvailable returns the number of samples ready to be read.
func (s *PSG) SamplesAvailable() int {
	return s.out.left.SamplesAvailable()
}

// MaxFrameSamples returns the maximum number of samples a single frame can
// produce.
func (s *PSG) MaxFrameSamples() int {
	return int(float64(MaxFrameTicks-1) * s.out.sampleRate / s.out.clockRate)
}

// ReadSamples reads at most n samples into out, interleaved stereo. Mono
// output is duplicated on both sides.
func (s *PSG) ReadSamples(out []int16, n int) int {
	n = min(n, len(out)/2)
	got := s.out.left.ReadSamples(out, n, blip.Stereo)
	if s.out.stereo {
		s.out.right.ReadSamples(out[1:], got, blip.Stereo)
	} else {
		for i := 0; i < got*2; i += 2 {
			out[i+1] = out[i]
		}
	}
	return got
}

// SetMute gates the output of a channel.
func (s *PSG) SetMute(ch int, mute bool) {
	s.out.muted[ch] = mute
	s.out.update(s)
}

// ChannelLevels fills dst with the output level of ch sampled at len(dst)
// evenly spaced instants over the last frame.
func (s *PSG) ChannelLevels(ch int, dst []int16) {
	s.out.channelLevels(ch, dst)
}
