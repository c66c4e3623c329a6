// Package hwdefs holds constants shared between the chip cores and their
// dispatchers.
package hwdefs

const (
	SoftReset = true
	HardReset = false
)

// 2A03 CPU clock rates, in Hz.
const (
	ClockNTSC  = 1789773
	ClockPAL   = 1662607
	ClockDendy = 1773448
)

// SN76489 input clock rates, in Hz.
const (
	ClockSMSNTSC = 3579545
	ClockSMSPAL  = 3546893
	ClockSMSHalf = 1789772
)
