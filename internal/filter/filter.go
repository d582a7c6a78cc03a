// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package filter implements the overlap-save fast-convolution filter: a
// single input (master) feeding zero or more output (slave) filters that
// each carry their own frequency response and integer decimation ratio.
package filter

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/n5tnl/radiod/internal/fftx"
)

// Type describes whether a filter side carries real or complex samples,
// and for slave output sides, whether it uses the ISB cross-conjugate
// trick.
type Type int

const (
	TypeNone Type = iota
	TypeComplex
	TypeCrossConj
	TypeReal
)

// Master is the input side of a filter: it owns the overlap-save time
// buffer and the shared forward FFT of each block. Zero or more Slaves
// attach to it.
type Master struct {
	mu   sync.Mutex
	cond *sync.Cond

	inType Type
	L, M   int
	N      int

	fft fftx.Transformer

	// Time-domain overlap-save buffer, length N. The first M-1 samples
	// are the tail of the previous block; the user writes into the
	// last L positions between calls to Execute.
	bufC []complex64
	bufR []float32

	// Frequency-domain result of the most recent Execute. Length N for
	// complex input, N/2+1 for real input.
	fdomain []complex64

	blocknum uint64
}

// NewMaster creates the input side of a filter. L is the block size
// (ilen), M is the impulse response length; the FFT length is
// N = L + M - 1.
func NewMaster(L, M int, inType Type) *Master {
	n := L + M - 1
	m := &Master{
		inType: inType,
		L:      L,
		M:      M,
		N:      n,
		fft:    fftx.New(n),
	}
	m.cond = sync.NewCond(&m.mu)
	switch inType {
	case TypeReal:
		m.bufR = make([]float32, n)
		m.fdomain = make([]complex64, n/2+1)
	default:
		m.bufC = make([]complex64, n)
		m.fdomain = make([]complex64, n)
	}
	return m
}

// InputComplex returns the user-writable portion of the input buffer
// (length L) for a complex-input master. Panics if the master is real.
func (m *Master) InputComplex() []complex64 {
	if m.inType == TypeReal {
		panic("filter: InputComplex called on a real-input master")
	}
	return m.bufC[m.M-1:]
}

// InputReal returns the user-writable portion of the input buffer
// (length L) for a real-input master. Panics if the master is complex.
func (m *Master) InputReal() []float32 {
	if m.inType != TypeReal {
		panic("filter: InputReal called on a complex-input master")
	}
	return m.bufR[m.M-1:]
}

// Len returns the FFT length N = L + M - 1.
func (m *Master) Len() int { return m.N }

// Spectrum returns the frequency-domain result of the most recent
// Execute. Callers must only read it after a slave attached to this
// master has itself returned from Execute for the same block, which
// establishes the happens-before relationship with the writer.
func (m *Master) Spectrum() []complex64 { return m.fdomain }

// BlockSize returns L, the length of the user-writable input region.
func (m *Master) BlockSize() int { return m.L }

// Execute transforms the current input block to the frequency domain,
// wakes all attached slaves, then shifts the trailing M-1 samples to the
// front of the buffer for the next block (the overlap-save step).
func (m *Master) Execute() {
	switch m.inType {
	case TypeReal:
		m.fft.RealForward(m.fdomain, m.bufR)
	default:
		m.fft.Forward(m.fdomain, m.bufC)
	}

	m.mu.Lock()
	m.blocknum++
	m.cond.Broadcast()
	m.mu.Unlock()

	switch m.inType {
	case TypeReal:
		copy(m.bufR, m.bufR[m.L:m.L+m.M-1])
	default:
		copy(m.bufC, m.bufC[m.L:m.L+m.M-1])
	}
}

// Slave is an output side of a filter: it carries its own frequency
// response, decimation ratio and output type, and shares a Master's
// input spectrum.
type Slave struct {
	master  *Master
	outType Type
	decim   int
	olen    int
	ndec    int

	fft fftx.Transformer

	respMu sync.Mutex
	// response is the slave's frequency response, length ndec for
	// complex/cross-conj output, ndec/2+1 for real output.
	response  []complex64
	noiseGain float64

	fdomain []complex64 // scratch, filtered spectrum before inverse FFT

	outC []complex64
	outR []float32

	blocknum uint64
}

// NewSlave attaches a new output filter to master, sharing its input
// spectrum. decimate must divide master.Len() for a clean decimation;
// a non-dividing ratio still works but its Nyquist edge will not land
// on a bin boundary.
func NewSlave(master *Master, decimate int, outType Type) (*Slave, error) {
	if master == nil {
		return nil, fmt.Errorf("filter: NewSlave: master is nil")
	}
	if decimate <= 0 {
		return nil, fmt.Errorf("filter: NewSlave: decimate must be positive, got %d", decimate)
	}
	n := master.N
	ndec := n / decimate
	if ndec <= 0 {
		return nil, fmt.Errorf("filter: NewSlave: decimate %d too large for N=%d", decimate, n)
	}
	s := &Slave{
		master:    master,
		outType:   outType,
		decim:     decimate,
		ndec:      ndec,
		olen:      master.L / decimate,
		fft:       fftx.New(ndec),
		noiseGain: math.NaN(),
	}
	switch outType {
	case TypeReal:
		s.fdomain = make([]complex64, ndec/2+1)
		s.outR = make([]float32, ndec)
	default:
		s.fdomain = make([]complex64, ndec)
		s.outC = make([]complex64, ndec)
	}
	return s, nil
}

// OutputComplex returns the user-readable portion of the output buffer
// (length olen) for a complex or cross-conjugate slave.
func (s *Slave) OutputComplex() []complex64 {
	if s.outType == TypeReal {
		panic("filter: OutputComplex called on a real-output slave")
	}
	return s.outC[s.ndec-s.olen:]
}

// OutputReal returns the user-readable portion of the output buffer
// (length olen) for a real-output slave.
func (s *Slave) OutputReal() []float32 {
	if s.outType != TypeReal {
		panic("filter: OutputReal called on a complex-output slave")
	}
	return s.outR[s.ndec-s.olen:]
}

// Decimate returns the input/output sample rate ratio.
func (s *Slave) Decimate() int { return s.decim }

// OutLen returns olen, the length of the user-readable output region.
func (s *Slave) OutLen() int { return s.olen }

// SetResponse atomically installs a new frequency response, so a running
// Execute always sees a complete, consistent set of coefficients.
func (s *Slave) SetResponse(response []complex64) {
	s.respMu.Lock()
	s.response = response
	s.noiseGain = computeNoiseGain(s, response)
	s.respMu.Unlock()
}

// NoiseGain returns the filter's gain on uniform white noise, the ratio
// of output noise power to input noise power.
func (s *Slave) NoiseGain() float64 {
	s.respMu.Lock()
	defer s.respMu.Unlock()
	return s.noiseGain
}

// Execute blocks until the master has produced a block this slave has
// not yet consumed, multiplies the shared spectrum by this slave's
// response, and runs the inverse transform into the output buffer. It
// returns ctx.Err() if ctx is cancelled while waiting.
func (s *Slave) Execute(ctx context.Context) error {
	m := s.master

	m.mu.Lock()
	if s.blocknum == m.blocknum {
		done := make(chan struct{})
		stop := context.AfterFunc(ctx, func() {
			m.mu.Lock()
			m.cond.Broadcast()
			m.mu.Unlock()
			close(done)
		})
		for s.blocknum == m.blocknum && ctx.Err() == nil {
			m.cond.Wait()
		}
		stop()
		select {
		case <-done:
		default:
		}
	}
	if ctx.Err() != nil {
		m.mu.Unlock()
		return ctx.Err()
	}
	s.blocknum = m.blocknum
	m.mu.Unlock()

	s.mixSpectrum()

	switch s.outType {
	case TypeReal:
		s.fft.RealInverse(s.outR, s.fdomain)
	default:
		s.fft.Inverse(s.outC, s.fdomain)
	}
	return nil
}

// mixSpectrum multiplies the master's spectrum by this slave's response,
// filling s.fdomain ready for the inverse transform. It mirrors the
// original overlap-save convolution's frequency bin bookkeeping: DC and
// positive frequencies up to Nyquist always come from the master
// directly; negative frequencies are synthesized depending on whether
// the master's input and this slave's output are real or complex.
func (s *Slave) mixSpectrum() {
	m := s.master
	n, ndec := m.N, s.ndec

	s.respMu.Lock()
	resp := s.response
	if resp == nil {
		for i := range s.fdomain {
			s.fdomain[i] = 0
		}
		s.respMu.Unlock()
		return
	}

	for p := 0; p <= ndec/2; p++ {
		s.fdomain[p] = complex64(complex128(resp[p]) * complex128(m.fdomain[p]))
	}

	switch {
	case m.inType == TypeReal:
		if s.outType != TypeReal {
			for p, dn := 1, ndec-1; dn > ndec/2; p, dn = p+1, dn-1 {
				s.fdomain[dn] = complex64(complex128(resp[dn]) * conj128(complex128(m.fdomain[p])))
			}
		}
	default: // master complex input
		if s.outType != TypeReal {
			for p, dn := n-1, ndec-1; dn > ndec/2; p, dn = p-1, dn-1 {
				s.fdomain[dn] = complex64(complex128(resp[dn]) * complex128(m.fdomain[p]))
			}
		} else {
			for p, dn := 1, ndec-1; p < ndec/2; p, dn = p+1, dn-1 {
				n2 := n - p
				s.fdomain[p] += complex64(conj128(complex128(resp[dn]) * complex128(m.fdomain[n2])))
			}
		}
	}
	s.respMu.Unlock()

	if s.outType == TypeCrossConj {
		for p, dn := 1, ndec-1; p < ndec/2; p, dn = p+1, dn-1 {
			pos := complex128(s.fdomain[p])
			neg := complex128(s.fdomain[dn])
			s.fdomain[p] = complex64(pos + conj128(neg))
			s.fdomain[dn] = complex64(neg - conj128(pos))
		}
	}
}

func conj128(x complex128) complex128 { return complex(real(x), -imag(x)) }
