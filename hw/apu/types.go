package apu

// Channel identifies one of the 2A03 sound generators.
type Channel uint8

const (
	Square1 Channel = iota
	Square2
	Triangle
	Noise
	DPCM

	NumChannels = 5
)

var channelNames = [NumChannels]string{"pulse1", "pulse2", "triangle", "noise", "dpcm"}

func (c Channel) String() string {
	if c < NumChannels {
		return channelNames[c]
	}
	return "unknown"
}

// SampleMemory is the address space the DMC fetches its delta samples from,
// that is $8000-$FFFF on the console.
type SampleMemory interface {
	Read8(addr uint16) uint8
}

type openBus struct{}

func (openBus) Read8(uint16) uint8 { return 0 }
