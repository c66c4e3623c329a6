// Package telemetry analyzes rendered audio and oscilloscope buffers: levels
// and dominant frequency.
package telemetry

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/1135975331/furnace/dispatch"
)

var ErrTooShort = errors.New("not enough samples")

// MinFFTSize is the smallest block DominantFrequency analyzes.
const MinFFTSize = 64

// MaxFFTSize is the largest block DominantFrequency analyzes.
const MaxFFTSize = 1 << 15

// Levels holds the peak and RMS levels of a block, relative to full scale.
type Levels struct {
	Peak float64
	RMS  float64
}

// DBFS returns the RMS level in dB relative to full scale.
func (l Levels) DBFS() float64 {
	if l.RMS <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(l.RMS)
}

func normalize(samples []int16) []float64 {
	x := make([]float64, len(samples))
	for i, s := range samples {
		x[i] = float64(s) / 32768
	}
	return x
}

// Measure returns the levels of samples.
func Measure(samples []int16) Levels {
	if len(samples) == 0 {
		return Levels{}
	}
	x := normalize(samples)
	sq := make([]float64, len(x))
	vecmath.MulBlock(sq, x, x)

	var l Levels
	var sum float64
	for i, v := range sq {
		sum += v
		l.Peak = max(l.Peak, math.Abs(x[i]))
	}
	l.RMS = math.Sqrt(sum / float64(len(sq)))
	return l
}

// hann returns a Hann window of n points.
func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// DominantFrequency returns the frequency, in Hz, of the strongest spectral
// peak of samples. It analyzes the last power of two samples, up to
// MaxFFTSize.
func DominantFrequency(samples []int16, rate int) (float64, error) {
	n := MaxFFTSize
	for n > len(samples) {
		n >>= 1
	}
	if n < MinFFTSize {
		return 0, fmt.Errorf("%w: %d", ErrTooShort, len(samples))
	}

	x := normalize(samples[len(samples)-n:])
	vecmath.MulBlockInPlace(x, hann(n))

	in := make([]complex128, n)
	for i, v := range x {
		in[i] = complex(v, 0)
	}
	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return 0, fmt.Errorf("fft plan: %w", err)
	}
	out := make([]complex128, n)
	if err := plan.Forward(out, in); err != nil {
		return 0, fmt.Errorf("fft: %w", err)
	}

	bins := n/2 + 1
	re := make([]float64, bins)
	im := make([]float64, bins)
	for i := range bins {
		re[i], im[i] = real(out[i]), imag(out[i])
	}
	pow := make([]float64, bins)
	vecmath.Power(pow, re, im)

	// Skip DC.
	best := 1
	for k := 2; k < bins; k++ {
		if pow[k] > pow[best] {
			best = k
		}
	}
	if pow[best] == 0 {
		return 0, nil
	}

	// Parabolic interpolation on the log magnitude.
	k := float64(best)
	if best > 1 && best < bins-1 {
		a := math.Log(pow[best-1] + 1e-30)
		b := math.Log(pow[best] + 1e-30)
		c := math.Log(pow[best+1] + 1e-30)
		if den := a - 2*b + c; den != 0 {
			k += 0.5 * (a - c) / den
		}
	}
	return k * float64(rate) / float64(n), nil
}

// Channel is a report on the recent output of a channel.
type Channel struct {
	Levels
	Freq float64 // 0 if unknown
}

// Scope analyzes the last n samples of an oscilloscope buffer.
func Scope(o *dispatch.OscBuffer, n int) Channel {
	n = min(n, int(o.Needle()), dispatch.OscBufferSize)
	samples := o.Latest(make([]int16, n))
	ch := Channel{Levels: Measure(samples)}
	if ch.Peak > 0 {
		if f, err := DominantFrequency(samples, o.Rate()); err == nil {
			ch.Freq = f
		}
	}
	return ch
}
