// Package analysis provides frequency analysis of recorded result
// series, for spotting periodic loads such as thermal cycling or
// vibration resonances.
package analysis

import (
	"math"
	"math/cmplx"
)

// fft is a radix-2 Cooley-Tukey transform. Callers must pass a
// power-of-2 length; Spectrum handles the padding.
func fft(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		out := make([]complex128, n)
		for i, v := range data {
			out[i] = complex(v, 0)
		}
		return out
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	fe := fft(even)
	fo := fft(odd)

	out := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		out[k] = fe[k] + w*fo[k]
		out[k+n/2] = fe[k] - w*fo[k]
	}
	return out
}

// Spectrum returns the one-sided power spectrum of a uniformly sampled
// series and the matching frequency axis in Hz. The mean is removed so
// the DC bin does not swamp periodic content, and the series is
// zero-padded to the next power of 2.
func Spectrum(values []float64, dt float64) (freqs, power []float64) {
	if len(values) < 2 || dt <= 0 {
		return nil, nil
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	n := 1
	for n < len(values) {
		n *= 2
	}
	padded := make([]float64, n)
	for i, v := range values {
		padded[i] = v - mean
	}

	bins := fft(padded)
	half := n / 2
	freqs = make([]float64, half)
	power = make([]float64, half)
	for i := 0; i < half; i++ {
		freqs[i] = float64(i) / (float64(n) * dt)
		power[i] = cmplx.Abs(bins[i])
	}
	return freqs, power
}

// DominantFrequency returns the strongest non-DC frequency in Hz and
// its spectral magnitude. A flat series reports zero.
func DominantFrequency(values []float64, dt float64) (freq, magnitude float64) {
	freqs, power := Spectrum(values, dt)
	for i := 1; i < len(power); i++ {
		if power[i] > magnitude {
			magnitude = power[i]
			freq = freqs[i]
		}
	}
	return freq, magnitude
}
