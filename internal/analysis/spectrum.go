package analysis

import (
	"errors"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

var ErrTooShort = errors.New("analysis: not enough samples")

// Spectrum returns the one-sided amplitude spectrum of evenly spaced
// samples. The mean is removed first so bin 0 carries no offset.
func Spectrum(samples []float64, dt float64) (freqs, power []float64, err error) {
	if len(samples) < 4 {
		return nil, nil, ErrTooShort
	}

	mean := stat.Mean(samples, nil)
	centred := make([]float64, len(samples))
	for i, v := range samples {
		centred[i] = v - mean
	}

	fft := fourier.NewFFT(len(centred))
	coeff := fft.Coefficients(nil, centred)

	freqs = make([]float64, len(coeff))
	power = make([]float64, len(coeff))
	for i, c := range coeff {
		freqs[i] = fft.Freq(i) / dt
		power[i] = cmplx.Abs(c)
	}
	return freqs, power, nil
}

// DominantFrequency is the strongest non-zero frequency in Hz.
func DominantFrequency(samples []float64, dt float64) (float64, error) {
	freqs, power, err := Spectrum(samples, dt)
	if err != nil {
		return 0, err
	}
	best := 1
	for i := 2; i < len(power); i++ {
		if power[i] > power[best] {
			best = i
		}
	}
	return freqs[best], nil
}

// OscillationSummary describes how a channel settles.
type OscillationSummary struct {
	// Amplitude is half the peak-to-peak range over the settled tail.
	Amplitude     float64
	Mean          float64
	StdDev        float64
	ZeroCrossings int
}

// Oscillation summarizes the last tail fraction of samples, tail in (0, 1].
func Oscillation(samples []float64, tail float64) (OscillationSummary, error) {
	if len(samples) < 2 {
		return OscillationSummary{}, ErrTooShort
	}
	if !(tail > 0) || tail > 1 {
		tail = 1
	}
	start := len(samples) - int(math.Ceil(float64(len(samples))*tail))
	settled := samples[start:]

	lo, hi := settled[0], settled[0]
	crossings := 0
	for i, v := range settled {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
		if i > 0 && (settled[i-1] < 0) != (v < 0) {
			crossings++
		}
	}

	mean, std := stat.MeanStdDev(settled, nil)
	if len(settled) < 2 {
		std = 0
	}
	return OscillationSummary{
		Amplitude:     (hi - lo) / 2,
		Mean:          mean,
		StdDev:        std,
		ZeroCrossings: crossings,
	}, nil
}
