// Package dispatch defines the interface between the tracker engine and the
// per-chip dispatchers, and the pieces they share: commands, channel state,
// the register write queue and oscilloscope buffers.
package dispatch

// Dispatcher drives one sound chip. Dispatch, Tick and the other control
// methods run on the sequencer goroutine, Acquire on the audio goroutine.
// Reset, Init and Quit require audio to be paused.
type Dispatcher interface {
	// Init configures the chip and returns the number of channels, or 0 if
	// the configuration is not supported.
	Init(parent Engine, channels, rate int, flags Config) int

	// Dispatch applies a command. Out of range channels and unknown
	// commands are ignored and return 1 (0 for queries).
	Dispatch(c Command) int

	// Tick runs once per sequencer tick. It advances macros and queues
	// the resulting register writes.
	Tick(sysTick bool)

	// Acquire applies the queued register writes and renders n stereo
	// frames into buf (len(buf) >= 2n, interleaved left/right).
	Acquire(buf []int16, n int)

	Reset()
	ForceIns()
	MuteChannel(ch int, mute bool)
	NotifyInsDeletion(ins *Instrument)

	RegisterPool() []byte
	RegisterPoolSize() int
	RegisterSheet() []SheetEntry
	ChanState(ch int) (ChanState, bool)
	OscBuffer(ch int) *OscBuffer

	// Poke queues a write bypassing the command layer.
	Poke(addr uint16, val uint8)
	PokeList(w []RegWrite)

	// CaptureWrites installs fn to be called, on the audio goroutine, for
	// every register write applied to the chip. nil removes it.
	CaptureWrites(fn func(RegWrite))

	GetPan(ch int) uint16
	MapVelocity(ch int, vel float64) int
	KeyOffAffectsArp(ch int) bool
	SamplePos(ch int) (sample, pos int)

	Channels() int
	Rate() int
	IsStereo() bool
	Quit()
}

// SheetEntry names a register of the chip.
type SheetEntry struct {
	Name string
	Addr uint16
}
