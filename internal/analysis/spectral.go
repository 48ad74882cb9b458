// SPDX-License-Identifier: MIT
/*
Package analysis implements the per-frame analysis pipeline:
FFT-based frequency band extraction, adaptive-threshold beat detection
and a lock-protected rolling history shared with the renderer.

The producer side (SpectralAnalyzer, BeatDetector, Pipeline) is driven by
a single real-time context, once per incoming audio frame. The HistoryStore
is the only state shared with other goroutines.
*/
package analysis

import (
	"fmt"
	"math/cmplx"
	"strings"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"github.com/vanwars/kate-audio-experiments-sarah/pkg/bitint"
)

// BandEnergies holds the mean spectral magnitude of each frequency band
// for one frame. Values are non-negative and immutable once computed.
type BandEnergies struct {
	Bass   float64
	Mid    float64
	Treble float64
}

// BandLimits defines the boundary frequencies (Hz) of the three analysis
// bands. Bass covers [BassLow, BassHigh), mid [BassHigh, MidHigh) and
// treble [MidHigh, TrebleHigh).
type BandLimits struct {
	BassLow    float64
	BassHigh   float64
	MidHigh    float64
	TrebleHigh float64
}

// DefaultBandLimits returns the standard 20/250/4000/16000 Hz boundaries.
func DefaultBandLimits() BandLimits {
	return BandLimits{BassLow: 20, BassHigh: 250, MidHigh: 4000, TrebleHigh: 16000}
}

// WindowFunc selects the FFT window function.
type WindowFunc int

const (
	Hann WindowFunc = iota
	Hamming
	Blackman
	Rectangular
)

// ParseWindowFunc converts a name (case-insensitive) to a WindowFunc.
// Returns Hann and an error if the name is unknown.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(name) {
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "blackman":
		return Blackman, nil
	case "rectangular", "none":
		return Rectangular, nil
	default:
		return Hann, fmt.Errorf("unknown FFT window function name: %q", name)
	}
}

// Pre-allocated buffers for FFT calculations.
type spectralWorkspace struct {
	input     []float64    // Windowed input samples.
	coeffs    []complex128 // FFT complex output.
	magnitude []float64    // Magnitude spectrum.
	window    []float64    // Window coefficients.
}

// SpectralAnalyzer converts one raw frame into three band energies using a
// forward real FFT. All buffers are allocated once at construction; Compute
// reuses them and must therefore not be called concurrently. The pipeline
// is the single caller.
type SpectralAnalyzer struct {
	fftSize    int
	sampleRate float64
	limits     BandLimits
	fft        *fourier.FFT
	ws         spectralWorkspace
}

// NewSpectralAnalyzer creates an analyzer for frames of fftSize samples at
// the given sample rate. fftSize must be a power of 2 and sampleRate
// positive; the band limits must be strictly ascending.
func NewSpectralAnalyzer(fftSize int, sampleRate float64, limits BandLimits, windowType WindowFunc) (*SpectralAnalyzer, error) {
	if !bitint.IsPowerOfTwo(fftSize) {
		return nil, fmt.Errorf("fft size must be a power of 2, got %d", fftSize)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}
	if !(limits.BassLow < limits.BassHigh && limits.BassHigh < limits.MidHigh && limits.MidHigh < limits.TrebleHigh) {
		return nil, fmt.Errorf("band limits must be strictly ascending, got %+v", limits)
	}

	coeffs := make([]float64, fftSize)
	applyWindow(coeffs, windowType)

	// FFT output size for real input is N/2 + 1 complex values.
	magnitudeSize := fftSize/2 + 1

	return &SpectralAnalyzer{
		fftSize:    fftSize,
		sampleRate: sampleRate,
		limits:     limits,
		fft:        fourier.NewFFT(fftSize),
		ws: spectralWorkspace{
			input:     make([]float64, fftSize),
			coeffs:    make([]complex128, magnitudeSize),
			magnitude: make([]float64, magnitudeSize),
			window:    coeffs,
		},
	}, nil
}

// Compute derives the band energies for one frame. Each band is the
// arithmetic mean of the magnitudes whose bin frequency falls inside it;
// a band with no bins (degenerate fftSize/sampleRate combinations) has
// energy 0. Frames shorter than fftSize are zero-padded.
//
// Allocation-free; not safe for concurrent use (single-producer discipline).
func (a *SpectralAnalyzer) Compute(frame []float64) BandEnergies {
	frameLen := len(frame)
	for i := range a.fftSize {
		if i < frameLen {
			a.ws.input[i] = frame[i] * a.ws.window[i]
		} else {
			a.ws.input[i] = 0
		}
	}

	a.fft.Coefficients(a.ws.coeffs, a.ws.input)
	for i, c := range a.ws.coeffs {
		a.ws.magnitude[i] = cmplx.Abs(c)
	}

	var bassSum, midSum, trebleSum float64
	var bassN, midN, trebleN int
	for i, mag := range a.ws.magnitude {
		freq := a.BinFrequency(i)
		switch {
		case freq >= a.limits.BassLow && freq < a.limits.BassHigh:
			bassSum += mag
			bassN++
		case freq >= a.limits.BassHigh && freq < a.limits.MidHigh:
			midSum += mag
			midN++
		case freq >= a.limits.MidHigh && freq < a.limits.TrebleHigh:
			trebleSum += mag
			trebleN++
		}
	}

	return BandEnergies{
		Bass:   meanOrZero(bassSum, bassN),
		Mid:    meanOrZero(midSum, midN),
		Treble: meanOrZero(trebleSum, trebleN),
	}
}

// BinFrequency returns the center frequency (Hz) for an FFT bin index.
func (a *SpectralAnalyzer) BinFrequency(binIndex int) float64 {
	if binIndex < 0 || binIndex >= len(a.ws.coeffs) {
		return 0
	}
	return a.fft.Freq(binIndex) * a.sampleRate
}

// FFTSize returns the configured FFT size (number of points).
func (a *SpectralAnalyzer) FFTSize() int {
	return a.fftSize
}

// SampleRate returns the configured sample rate (Hz).
func (a *SpectralAnalyzer) SampleRate() float64 {
	return a.sampleRate
}

func meanOrZero(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// applyWindow fills coeffs with the selected window function.
// Rectangular leaves all coefficients at 1.
func applyWindow(coeffs []float64, windowType WindowFunc) {
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch windowType {
	case Hann:
		window.Hann(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case Rectangular:
		// Identity window.
	default:
		window.Hann(coeffs)
	}
}
