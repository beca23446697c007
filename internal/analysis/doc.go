// Package analysis provides frequency-domain inspection of rendered signals.
//
//   - [PowerSpectrum]: Hann-windowed magnitude spectrum
//   - [DominantFrequency]: strongest non-DC partial with parabolic
//     peak interpolation
//   - [Harmonics]: the strongest partials in descending order
package analysis
