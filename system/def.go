package system

import (
	"errors"
	"fmt"
	"slices"
)

var ErrUnknownSystem = errors.New("unknown system")

// ChipDef is a chip of a system.
type ChipDef struct {
	ID     string
	Volume float64 // linear gain, 1 is unity
	Pan    float64 // -1 left, 0 center, 1 right
	Flags  string  // chip flags, key=value lines
}

// Def describes a system: a fixed set of chips mixed together.
type Def struct {
	ID    string
	Name  string
	Chips []ChipDef
}

var presets = []Def{
	{
		ID:    "nes",
		Name:  "Nintendo Entertainment System",
		Chips: []ChipDef{{ID: "nes", Volume: 1}},
	},
	{
		ID:    "nes-pal",
		Name:  "Nintendo Entertainment System (PAL)",
		Chips: []ChipDef{{ID: "nes", Volume: 1, Flags: "clockSel=1"}},
	},
	{
		ID:    "sms",
		Name:  "Sega Master System",
		Chips: []ChipDef{{ID: "sms", Volume: 1}},
	},
	{
		ID:    "gamegear",
		Name:  "Sega Game Gear",
		Chips: []ChipDef{{ID: "sms", Volume: 1, Flags: "chipType=2"}},
	},
	{
		ID:   "nes+sms",
		Name: "NES + Sega Master System",
		Chips: []ChipDef{
			{ID: "nes", Volume: 0.8, Pan: -0.3},
			{ID: "sms", Volume: 0.8, Pan: 0.3},
		},
	},
	{
		ID:    "dummy",
		Name:  "Dummy system",
		Chips: []ChipDef{{ID: "dummy", Volume: 1}},
	},
}

// Presets returns the predefined systems.
func Presets() []Def {
	defs := make([]Def, len(presets))
	for i, d := range presets {
		defs[i] = d.Clone()
	}
	return defs
}

// Preset returns the predefined system with the given id.
func Preset(id string) (Def, error) {
	for _, d := range presets {
		if d.ID == id {
			return d.Clone(), nil
		}
	}
	return Def{}, fmt.Errorf("%w: %q", ErrUnknownSystem, id)
}

// Clone returns a deep copy of d.
func (d Def) Clone() Def {
	d.Chips = slices.Clone(d.Chips)
	return d
}

// gains returns the left and right gains of the chip.
func (c ChipDef) gains() (l, r float64) {
	pan := max(-1, min(1, c.Pan))
	return c.Volume * min(1, 1-pan), c.Volume * min(1, 1+pan)
}
