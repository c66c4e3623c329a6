// Package snapshot holds the serializable state of the chip cores.
package snapshot

type APU struct {
	Square1      APUSquare
	Square2      APUSquare
	Triangle     APUTriangle
	Noise        APUNoise
	DMC          APUDMC
	FrameCounter APUFrameCounter
	Mixer        APUMixer
}

type APUTimer struct {
	Timer      uint16
	Period     uint16
	LastOutput int8
}

type APULengthCounter struct {
	Enabled       bool
	Halt          bool
	NewHalt       bool
	Counter       uint8
	ReloadValue   uint8
	PreviousValue uint8
}

type APUEnvelope struct {
	LengthCounter APULengthCounter

	ConstVolume bool
	Volume      uint8
	Start       bool
	Divider     int8
	Counter     uint8
}

type APUSquare struct {
	Timer    APUTimer
	Envelope APUEnvelope

	Duty    uint8
	DutyPos uint8

	SweepEnabled      bool
	SweepPeriod       uint8
	SweepNegate       bool
	SweepShift        uint8
	ReloadSweep       bool
	SweepDivider      uint8
	SweepTargetPeriod uint32
	RealPeriod        uint16
}

type APUTriangle struct {
	Timer         APUTimer
	LengthCounter APULengthCounter

	LinearCounter       uint8
	LinearCounterReload uint8
	LinearReload        bool
	LinearCtrl          bool
	Pos                 uint8
}

type APUNoise struct {
	Timer    APUTimer
	Envelope APUEnvelope

	ShiftRegister uint16
	Mode          bool
}

type APUDMC struct {
	Timer APUTimer

	SampleAddr  uint16
	SampleLen   uint16
	CurrentAddr uint16
	Remaining   uint16
	OutputLevel uint8
	ReadBuf     uint8
	BitsLeft    uint8
	IRQEnabled  bool
	IRQ         bool
	Loop        bool
	BufEmpty    bool
	ShiftReg    uint8
	Silence     bool
}

type APUFrameCounter struct {
	PrevCycle  int32
	CurStep    uint32
	StepMode   uint32
	InhibitIRQ bool
	IRQ        bool
}

type APUMixer struct {
	ClockRate     float64
	SampleRate    float64
	CurrentOutput [5]int16
	Volumes       [5]float64
}

// PSG is the state of a SN76489 core.
type PSG struct {
	Tone    [3]PSGTone
	Noise   PSGNoise
	Latched uint8 // channel<<1 | type
	Stereo  uint8
}

type PSGTone struct {
	Period  uint16
	Counter uint16
	Atten   uint8
	Output  bool
}

type PSGNoise struct {
	Control uint8
	Counter uint16
	LFSR    uint16
	Atten   uint8
	Toggle  bool
	Output  bool
}
