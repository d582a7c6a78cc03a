// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package filter

import "math"

// computeNoiseGain returns the filter's gain (output/input) on uniform
// white noise: the sum of squared response magnitudes, scaled to undo
// the FFT/IFFT round-trip's 1/N^2 amplitude scaling and, for real and
// cross-conjugate outputs, the extra 1/sqrt(2) amplitude factor SetFilter
// applies for unity signal gain in those modes.
func computeNoiseGain(s *Slave, response []complex64) float64 {
	if response == nil {
		return math.NaN()
	}
	n := float64(s.master.N)
	var sum float64
	if s.master.inType == TypeReal && s.outType == TypeReal {
		for i := 0; i <= s.ndec/2; i++ {
			sum += cnrm(response[i])
		}
	} else {
		for i := 0; i < len(response); i++ {
			sum += cnrm(response[i])
		}
	}
	if s.outType == TypeReal || s.outType == TypeCrossConj {
		return 2 * n * sum
	}
	return n * sum
}

func cnrm(c complex64) float64 {
	r, i := float64(real(c)), float64(imag(c))
	return r*r + i*i
}

// SetFilter synthesizes a passband mask between low and high Hz (sample
// rate dsamprate after decimation), windows it with a Kaiser window of
// shape kaiserBeta, and installs it atomically as the slave's response.
func SetFilter(s *Slave, dsamprate, low, high, kaiserBeta float64) {
	mDec := (s.master.M-1)/s.decim + 1
	lDec := s.olen
	nDec := lDec + mDec - 1

	gain := 1.0 / float64(s.master.N)
	if s.outType == TypeReal || s.outType == TypeCrossConj {
		gain *= math.Sqrt2 / 2
	}

	var response []complex64
	switch s.outType {
	case TypeReal:
		response = make([]complex64, nDec/2+1)
		for n := 0; n <= nDec/2; n++ {
			f := float64(n) * dsamprate / float64(nDec)
			if f >= low && f <= high {
				response[n] = complex(float32(gain), 0)
			}
		}
		WindowRFilter(lDec, mDec, response, kaiserBeta)
	default:
		response = make([]complex64, nDec)
		for n := 0; n < nDec; n++ {
			var f float64
			if n <= nDec/2 {
				f = float64(n) * dsamprate / float64(nDec)
			} else {
				f = float64(n-nDec) * dsamprate / float64(nDec)
			}
			if f >= low && f <= high {
				response[n] = complex(float32(gain), 0)
			}
		}
		WindowFilter(lDec, mDec, response, kaiserBeta)
	}
	s.SetResponse(response)
}
