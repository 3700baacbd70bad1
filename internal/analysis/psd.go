package analysis

import (
	"github.com/mjibson/go-dsp/spectral"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/stat"
)

// PSD estimates the power spectral density with Welch's method: Hann
// windowed segments of the largest power of two up to half the record,
// overlapping by half. It is smoother than Spectrum on noisy runs.
func PSD(samples []float64, dt float64) (freqs, pxx []float64, err error) {
	if len(samples) < 32 {
		return nil, nil, ErrTooShort
	}

	nfft := 16
	for nfft*2 <= len(samples)/2 {
		nfft *= 2
	}

	mean := stat.Mean(samples, nil)
	centred := make([]float64, len(samples))
	for i, v := range samples {
		centred[i] = v - mean
	}

	pxx, freqs = spectral.Pwelch(centred, 1/dt, &spectral.PwelchOptions{
		NFFT:     nfft,
		Noverlap: nfft / 2,
		Window:   window.Hann,
	})
	return freqs, pxx, nil
}

// PeakFrequency is the non-zero frequency with the most power in the Welch
// estimate.
func PeakFrequency(samples []float64, dt float64) (float64, error) {
	freqs, pxx, err := PSD(samples, dt)
	if err != nil {
		return 0, err
	}
	best := 1
	for i := 2; i < len(pxx); i++ {
		if pxx[i] > pxx[best] {
			best = i
		}
	}
	return freqs[best], nil
}
