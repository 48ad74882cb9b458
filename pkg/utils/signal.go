// SPDX-License-Identifier: MIT
//
// Package utils provides test-signal generators and spectrum helpers for
// the analysis test suite.
package utils

import "math"

// GenerateSineWave returns a mono frame containing a pure sine at the
// given frequency, with peak amplitude 0.9.
func GenerateSineWave(size int, sampleRate, frequency float64) []float64 {
	frame := make([]float64, size)
	for i := range frame {
		t := float64(i) / sampleRate
		frame[i] = math.Sin(2*math.Pi*frequency*t) * 0.9
	}
	return frame
}

// GenerateComplexWave returns a mono frame containing a 440Hz fundamental
// plus two harmonics, useful for exercising all analysis bands at once.
func GenerateComplexWave(size int, sampleRate float64) []float64 {
	frame := make([]float64, size)
	for i := range frame {
		t := float64(i) / sampleRate
		frame[i] = math.Sin(2*math.Pi*440*t)*0.5 +
			math.Sin(2*math.Pi*880*t)*0.3 +
			math.Sin(2*math.Pi*1320*t)*0.2
	}
	return frame
}

// FindPeakBin returns the index of the largest magnitude within
// [startBin, endBin], clamped to the slice bounds.
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}
	if startBin < 0 {
		startBin = 0
	}
	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]
	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}
	return peakBin
}
