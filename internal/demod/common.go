// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package demod holds helpers shared by the AM, FM and Linear
// demodulators: the dB/voltage conversions and the noise-floor estimator
// they all use to drive AGC and SNR-based squelch.
package demod

import "math"

// DBToVoltage converts a decibel figure to a linear voltage ratio.
func DBToVoltage(db float64) float64 { return math.Pow(10, db/20) }

// VoltageToDB converts a linear voltage ratio to decibels.
func VoltageToDB(v float64) float64 { return 20 * math.Log10(v) }

// PowerToDB converts a linear power ratio to decibels.
func PowerToDB(p float64) float64 { return 10 * math.Log10(p) }

// ComputeN0 estimates the noise spectral density from a master filter's
// most recent spectrum, normalized to 0 dBFS. It averages the energy of
// bins outside [low, high] and then iterates once, dropping bins more
// than 3 dB above the running average, to exclude any signals sitting in
// the noise estimate.
func ComputeN0(spectrum []complex64, sampleRate, low, high float64) float64 {
	n := len(spectrum)
	if n == 0 {
		return math.NaN()
	}
	power := make([]float64, n)
	for i, c := range spectrum {
		r, im := float64(real(c)), float64(imag(c))
		power[i] = r*r + im*im
	}

	avgN := math.Inf(1)
	for iter := 0; iter < 2; iter++ {
		var newAvg float64
		var noiseBins int
		for k := 0; k < n; k++ {
			var f float64
			if k <= n/2 {
				f = float64(k) * sampleRate / float64(n)
			} else {
				f = float64(k-n) * sampleRate / float64(n)
			}
			if f >= low && f <= high {
				continue
			}
			s := power[k]
			if s < avgN*2 {
				newAvg += s
				noiseBins++
			}
		}
		if noiseBins == 0 {
			return math.NaN()
		}
		newAvg /= float64(noiseBins)
		avgN = newAvg
	}
	return avgN / (2 * float64(n) * sampleRate)
}
