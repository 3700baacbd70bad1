// Package analysis characterizes the motion of a stored run.
//
//   - [Spectrum] and [DominantFrequency]: where the pendulum's oscillation
//     energy sits, which exposes bang-bang chatter
//   - [PSD] and [PeakFrequency]: the same question answered with Welch's
//     averaged estimate, steadier on noisy or dropped-reading runs
//   - [Oscillation]: settled amplitude and zero crossings of a channel
//   - [NewPhasePortrait]: angle against angular velocity, drawn by
//     [PhasePortraitToASCII]
//
// Skipped ticks carry no reading and are left out of every analysis.
package analysis
