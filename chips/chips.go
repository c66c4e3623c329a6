// Package chips lists the available chip dispatchers.
package chips

import (
	"errors"
	"fmt"
	"slices"

	"github.com/1135975331/furnace/chips/dummy"
	"github.com/1135975331/furnace/chips/nes"
	"github.com/1135975331/furnace/chips/sms"
	"github.com/1135975331/furnace/dispatch"
)

var ErrUnknownChip = errors.New("unknown chip")

// Chip describes a chip dispatcher.
type Chip struct {
	ID       string
	Name     string
	Channels int // default channel count
	Stereo   bool
	New      func() dispatch.Dispatcher
}

var all = []Chip{
	{
		ID:       "dummy",
		Name:     "Dummy sawtooth generator",
		Channels: 8,
		New:      func() dispatch.Dispatcher { return dummy.New() },
	},
	{
		ID:       "nes",
		Name:     "Ricoh 2A03 (NES APU)",
		Channels: nes.NumChannels,
		New:      func() dispatch.Dispatcher { return nes.New() },
	},
	{
		ID:       "sms",
		Name:     "TI SN76489 (Sega Master System, Game Gear)",
		Channels: sms.NumChannels,
		Stereo:   true,
		New:      func() dispatch.Dispatcher { return sms.New() },
	},
}

// All returns every available chip.
func All() []Chip {
	return slices.Clone(all)
}

// ByID returns the chip with the given id.
func ByID(id string) (Chip, bool) {
	for _, c := range all {
		if c.ID == id {
			return c, true
		}
	}
	return Chip{}, false
}

// Open creates and initializes a dispatcher for chip id.
func Open(id string, eng dispatch.Engine, channels, rate int, flags dispatch.Config) (dispatch.Dispatcher, error) {
	c, ok := ByID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChip, id)
	}
	if channels <= 0 {
		channels = c.Channels
	}
	d := c.New()
	if d.Init(eng, channels, rate, flags) == 0 {
		return nil, fmt.Errorf("%s: unsupported configuration (channels=%d rate=%d flags=%q)", id, channels, rate, flags.Encode())
	}
	return d, nil
}
