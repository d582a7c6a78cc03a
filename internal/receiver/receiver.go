// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package receiver wires every other internal package into the running
// daemon: it owns the multicast sockets, the shared mutable state
// (session, front-end status, correction, oscillators, filter), and the
// seven worker goroutines named in spec.md §5. There is no process-global
// singleton; main constructs one Receiver and calls Run.
package receiver

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/n5tnl/radiod/internal/config"
	"github.com/n5tnl/radiod/internal/demod/am"
	"github.com/n5tnl/radiod/internal/demod/fm"
	"github.com/n5tnl/radiod/internal/demod/linear"
	"github.com/n5tnl/radiod/internal/doppler"
	"github.com/n5tnl/radiod/internal/filter"
	"github.com/n5tnl/radiod/internal/frontend"
	"github.com/n5tnl/radiod/internal/logging"
	"github.com/n5tnl/radiod/internal/mcast"
	"github.com/n5tnl/radiod/internal/modetab"
	"github.com/n5tnl/radiod/internal/osc"
	"github.com/n5tnl/radiod/internal/pcm"
	"github.com/n5tnl/radiod/internal/pqueue"
	"github.com/n5tnl/radiod/internal/rtcpsr"
	"github.com/n5tnl/radiod/internal/rtpio"
	"github.com/n5tnl/radiod/internal/sampleproc"
	"github.com/n5tnl/radiod/internal/status"
	"github.com/n5tnl/radiod/internal/tlv"
	"github.com/n5tnl/radiod/internal/tunerstatus"
)

// Config is the frozen configuration a Receiver is built from, identical
// to config.Config; the separate name matches spec.md §3's "Receiver
// holds a Config and a State" realization.
type Config = config.Config

// DefaultSampleRate is the nominal I/Q input sample rate assumed until a
// tuner status update (internal/tunerstatus) reports the real one.
const DefaultSampleRate = 192000

// AudioDecimate is the default decimation ratio from the RF input rate to
// the demodulator's audio rate, used for every mode except wfm, which
// runs undecimated off the master's own rate.
const AudioDecimate = 4

// demodulator is the narrow interface every internal/demod/* adapter
// satisfies: run the decimate/detect/AGC loop until ctx is cancelled,
// produce the status records specific to that demodulator kind, and
// install a new filter response on the live slave without restarting.
type demodulator interface {
	run(ctx context.Context) error
	records() []tlv.Record
	setFilter(low, high, kaiserBeta float64)
}

// Receiver holds every piece of mutable state the seven worker
// goroutines share, plus the sockets and the Config they were built
// from (its KaiserBeta field is updated by Kaiser-β commands).
type Receiver struct {
	cfg    Config
	modes  *modetab.Table
	logger logging.Logger

	inputConn     *net.UDPConn
	pcmConn       *net.UDPConn
	rtcpConn      *net.UDPConn
	statusOutConn *net.UDPConn
	statusInConn  *net.UDPConn
	tunerCmdConn  *net.UDPConn

	session *rtpio.SessionState
	queue   *pqueue.Queue
	feState *frontend.Status
	corr    *frontend.Correction
	lo2     *osc.Oscillator
	doppOsc *osc.Oscillator

	master *filter.Master
	proc   *sampleproc.Processor

	dopplerTracker *doppler.Tracker

	outputSSRC uint32

	demodMu     sync.Mutex
	demod       demodulator
	demodCancel context.CancelFunc
	demodDone   chan struct{}
	currentMode string
	curEntry    modetab.Entry
	curLow      float64
	curHigh     float64
	pcmSession  *pcm.Session

	statusPub  *status.Publisher
	statusList *status.Listener
	rtcpSender *rtcpsr.Sender

	wg sync.WaitGroup
}

// New builds a Receiver from cfg: it opens the multicast sockets,
// constructs the shared oscillators/filter/correction state, installs
// the command listener's handlers, and selects cfg.Mode as the initial
// demodulator (without yet starting any goroutine; call Run for that).
func New(ctx context.Context, cfg Config, modes *modetab.Table, logger logging.Logger) (*Receiver, error) {
	if logger == nil {
		logger = logging.Discard
	}

	inputConn, err := mcast.ListenInput(ctx, cfg.InputGroup, nil)
	if err != nil {
		return nil, fmt.Errorf("receiver: input socket: %w", err)
	}
	pcmConn, err := mcast.DialOutput(cfg.OutputGroup, cfg.TTL)
	if err != nil {
		return nil, fmt.Errorf("receiver: pcm output socket: %w", err)
	}
	rtcpAddr, err := mcast.WithOffset(cfg.OutputGroup, 1)
	if err != nil {
		return nil, fmt.Errorf("receiver: rtcp address: %w", err)
	}
	rtcpConn, err := mcast.DialOutput(rtcpAddr, cfg.TTL)
	if err != nil {
		return nil, fmt.Errorf("receiver: rtcp socket: %w", err)
	}
	statusOutConn, err := mcast.DialOutput(cfg.StatusGroup, cfg.TTL)
	if err != nil {
		return nil, fmt.Errorf("receiver: status output socket: %w", err)
	}
	statusInConn, err := mcast.ListenInput(ctx, cfg.StatusGroup, nil)
	if err != nil {
		return nil, fmt.Errorf("receiver: status input socket: %w", err)
	}
	tunerCmdAddr, err := mcast.WithOffset(cfg.InputGroup, 1)
	if err != nil {
		return nil, fmt.Errorf("receiver: tuner command address: %w", err)
	}
	tunerCmdConn, err := mcast.DialOutput(tunerCmdAddr, cfg.TTL)
	if err != nil {
		return nil, fmt.Errorf("receiver: tuner command socket: %w", err)
	}

	ssrc := cfg.OutputSSRC
	if ssrc == 0 {
		ssrc = rand.Uint32()
	}

	r := &Receiver{
		cfg:    cfg,
		modes:  modes,
		logger: logger,

		inputConn:     inputConn,
		pcmConn:       pcmConn,
		rtcpConn:      rtcpConn,
		statusOutConn: statusOutConn,
		statusInConn:  statusInConn,
		tunerCmdConn:  tunerCmdConn,

		session: rtpio.NewSessionState(),
		queue:   pqueue.New(),
		feState: &frontend.Status{
			TunerFreqHz: cfg.Frequency,
			SampleRate:  DefaultSampleRate,
		},
		corr:       correctionPtr(frontend.NewCorrection()),
		lo2:        osc.New(),
		outputSSRC: ssrc,
	}
	r.lo2.Set(cfg.Shift/DefaultSampleRate, 0)

	r.master = filter.NewMaster(cfg.Blocksize, cfg.ImpulseLen, filter.TypeComplex)
	sampleOpts := []sampleproc.Option{sampleproc.WithLogger(logger)}
	if cfg.DopplerCommand != "" {
		r.doppOsc = osc.New()
		r.dopplerTracker = &doppler.Tracker{
			Command: cfg.DopplerCommand,
			Osc:     r.doppOsc,
			Freq:    func() float64 { return r.feState.ReceiverFreq() },
			Logger:  logger,
		}
		sampleOpts = append(sampleOpts, sampleproc.WithDoppler(r.doppOsc))
	}
	r.proc = sampleproc.New(r.queue, r.session, r.feState, r.corr, r.lo2, r.master, sampleOpts...)

	r.rtcpSender = rtcpsr.NewSender(r.rtcpConn, &pcmSourceAdapter{r})
	r.statusPub = status.NewPublisher(r.statusOutConn, status.SnapshotFunc(r.snapshot), status.WithPeriod(durationFromSeconds(cfg.UpdateInterval)))
	r.statusList = status.NewListener(status.WithErrorHook(func(t tlv.Type, err error) {
		r.logger.Printf("receiver: command type %d: %v", t, err)
	}))
	r.installHandlers()

	if err := r.SetDemodulator(ctx, cfg.Mode); err != nil {
		r.Close()
		return nil, fmt.Errorf("receiver: initial mode %q: %w", cfg.Mode, err)
	}

	return r, nil
}

// correctionPtr is a tiny helper so New can take the address of
// frontend.NewCorrection()'s result inline.
func correctionPtr(c frontend.Correction) *frontend.Correction { return &c }

func durationFromSeconds(s float64) time.Duration {
	if s <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(s * float64(time.Second))
}

// Close releases the Receiver's sockets. It does not stop any running
// goroutines; callers should cancel Run's context first.
func (r *Receiver) Close() {
	for _, c := range []*net.UDPConn{r.inputConn, r.pcmConn, r.rtcpConn, r.statusOutConn, r.statusInConn, r.tunerCmdConn} {
		if c != nil {
			c.Close()
		}
	}
}

// Run starts the RTP input loop, sample processor, status publisher,
// status listener, RTCP emitter, and (if configured) the Doppler
// tracker, then blocks until ctx is cancelled, at which point every
// goroutine is given the chance to observe cancellation at its natural
// suspension point and Run waits for all of them to return.
func (r *Receiver) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		r.Close()
		r.demodMu.Lock()
		if r.demodCancel != nil {
			r.demodCancel()
		}
		r.demodMu.Unlock()
		r.queue.Close()
	}()

	workers := []func(context.Context) error{
		r.runInput,
		r.runSampleProcessor,
		r.statusPub.Run,
		r.runStatusListener,
		r.rtcpSender.Run,
	}
	if r.dopplerTracker != nil {
		workers = append(workers, r.dopplerTracker.Run)
	}

	errs := make(chan error, len(workers))
	for _, w := range workers {
		r.wg.Add(1)
		go func(w func(context.Context) error) {
			defer r.wg.Done()
			errs <- w(ctx)
		}(w)
	}

	r.wg.Wait()
	close(errs)

	var first error
	for err := range errs {
		if err != nil && err != context.Canceled && first == nil {
			first = err
		}
	}
	return first
}

func (r *Receiver) runInput(ctx context.Context) error {
	buf := make([]byte, 65536)
	for {
		n, _, err := r.inputConn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.Printf("receiver: input read: %v", err)
			continue
		}
		hdr, _, perr := rtpio.ParseHeader(buf[:n])
		if perr != nil {
			r.logger.Printf("receiver: dropping malformed packet: %v", perr)
			continue
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		r.queue.Insert(&pqueue.Packet{Seq: hdr.SequenceNumber, Data: data})
	}
}

func (r *Receiver) runSampleProcessor(ctx context.Context) error {
	return r.proc.Run()
}

func (r *Receiver) runStatusListener(ctx context.Context) error {
	read := func(buf []byte) (int, error) {
		n, _, err := r.statusInConn.ReadFromUDP(buf)
		return n, err
	}
	err := r.statusList.Run(ctx, read, 4096)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// SendTunerCommand encodes cmd as the 24-byte little-endian tuner status
// structure and sends it to the input group's port+1, per spec.md §6.
func (r *Receiver) SendTunerCommand(cmd tunerstatus.Status) error {
	_, err := r.tunerCmdConn.Write(tunerstatus.Marshal(cmd))
	return err
}

// ApplyTunerStatus folds an inbound tuner status report into the
// front-end status, honoring tunerstatus.GainUnchanged sentinels.
func (r *Receiver) ApplyTunerStatus(s tunerstatus.Status) {
	r.feState.Set(func(fe *frontend.Status) {
		fe.TimestampNs = s.TimestampNs
		fe.TunerFreqHz = s.Frequency
		fe.SampleRate = float64(s.SampleRate)
		if s.LNAGain != tunerstatus.GainUnchanged {
			fe.LNAGain = s.LNAGain
		}
		if s.MixerGain != tunerstatus.GainUnchanged {
			fe.MixerGain = s.MixerGain
		}
		if s.IFGain != tunerstatus.GainUnchanged {
			fe.IFGain = s.IFGain
		}
	})
}

// snapshot builds the current status packet's records, combining the
// receiver-owned fields with whichever demodulator is currently active.
func (r *Receiver) snapshot() []tlv.Record {
	e := tlv.NewEncoder()
	e.Double(tlv.GPSTime, float64(time.Now().UnixNano()))

	fe := r.feState.Snapshot()
	e.Double(tlv.RadioFrequency, fe.TunerFreqHz)
	e.Double(tlv.SecondLOFrequency, fe.SecondLOHz)
	e.Byte(tlv.LNAGain, fe.LNAGain)
	e.Byte(tlv.MixerGain, fe.MixerGain)
	e.Byte(tlv.IFGain, fe.IFGain)
	e.Double(tlv.InputSampleRate, fe.SampleRate)

	stats := r.session.Snapshot()
	e.Int(tlv.InputPackets, stats.Packets)
	e.Int(tlv.InputDrops, stats.Drops)
	e.Int(tlv.InputDupes, stats.Dupes)

	r.demodMu.Lock()
	mode := r.currentMode
	low, high := r.curLow, r.curHigh
	d := r.demod
	pcmSess := r.pcmSession
	r.demodMu.Unlock()

	e.String(tlv.RadioMode, mode)
	e.Double(tlv.LowEdge, low)
	e.Double(tlv.HighEdge, high)
	e.Double(tlv.KaiserBeta, r.cfg.KaiserBeta)
	e.Int(tlv.FilterBlocksize, uint64(r.cfg.Blocksize))
	e.Int(tlv.FilterFIRLength, uint64(r.cfg.ImpulseLen))

	if pcmSess != nil {
		packets, _ := pcmSess.Counts()
		e.Int(tlv.OutputPackets, uint64(packets))
		e.Int(tlv.OutputSSRC, uint64(pcmSess.SSRC()))
	}

	records, _ := tlv.Decode(e.Bytes())
	if d != nil {
		records = append(records, d.records()...)
	}
	return records
}

// installHandlers registers the command listener's full recognized TLV
// surface, spec.md §4.8: receiver frequency, second LO, the three gain
// bytes, demodulator mode, filter edges, Kaiser β, and the ISB/PLL/
// square/flat option flags plus channel count. Filter-edge and
// Kaiser-beta commands re-synthesize the active demodulator's filter
// response in place via setFilter (internal/filter.SetFilter installs a
// new response atomically under its own response-mutex, so this never
// interrupts the running block loop). The option flags and channel
// count change a demodulator's filter output type or its decimation/
// channel topology, which filter.Slave and pcm.Session both fix at
// construction, so those commands go through the same cancel/wake/join/
// replace sequence as a mode switch, reusing every other field of the
// currently active mode table entry.
func (r *Receiver) installHandlers() {
	r.statusList.Handle(tlv.RadioFrequency, func(rec tlv.Record) error {
		r.feState.Set(func(fe *frontend.Status) { fe.TunerFreqHz = rec.Float64() })
		return nil
	})
	r.statusList.Handle(tlv.SecondLOFrequency, func(rec tlv.Record) error {
		hz := rec.Float64()
		fe := r.feState.Snapshot()
		if fe.SampleRate <= 0 {
			return fmt.Errorf("receiver: sample rate unknown, cannot set second LO")
		}
		if hz < -fe.SampleRate/2 || hz > fe.SampleRate/2 {
			// Out of second-LO range: retune the first LO instead, per
			// spec.md §8's boundary behavior, keeping the receiver
			// frequency (tuner freq - second LO) the same and resetting
			// the second LO to zero.
			newTunerFreq := fe.TunerFreqHz - hz
			cmd := tunerstatus.Status{
				Frequency:  newTunerFreq,
				SampleRate: uint32(fe.SampleRate),
				LNAGain:    tunerstatus.GainUnchanged,
				MixerGain:  tunerstatus.GainUnchanged,
				IFGain:     tunerstatus.GainUnchanged,
			}
			if err := r.SendTunerCommand(cmd); err != nil {
				return fmt.Errorf("receiver: retune first LO: %w", err)
			}
			r.feState.Set(func(s *frontend.Status) {
				s.TunerFreqHz = newTunerFreq
				s.SecondLOHz = 0
			})
			r.lo2.Set(0, 0)
			return nil
		}
		r.feState.Set(func(s *frontend.Status) { s.SecondLOHz = hz })
		r.lo2.Set(hz/fe.SampleRate, 0)
		return nil
	})
	r.statusList.Handle(tlv.LNAGain, func(rec tlv.Record) error {
		r.feState.Set(func(fe *frontend.Status) { fe.LNAGain = uint8(rec.Uint()) })
		return nil
	})
	r.statusList.Handle(tlv.MixerGain, func(rec tlv.Record) error {
		r.feState.Set(func(fe *frontend.Status) { fe.MixerGain = uint8(rec.Uint()) })
		return nil
	})
	r.statusList.Handle(tlv.IFGain, func(rec tlv.Record) error {
		r.feState.Set(func(fe *frontend.Status) { fe.IFGain = uint8(rec.Uint()) })
		return nil
	})
	r.statusList.Handle(tlv.DemodMode, func(rec tlv.Record) error {
		name := rec.String()
		return r.SetDemodulator(context.Background(), name)
	})
	r.statusList.Handle(tlv.LowEdge, func(rec tlv.Record) error {
		return r.updateFilter(rec.Float64(), math.NaN(), math.NaN())
	})
	r.statusList.Handle(tlv.HighEdge, func(rec tlv.Record) error {
		return r.updateFilter(math.NaN(), rec.Float64(), math.NaN())
	})
	r.statusList.Handle(tlv.KaiserBeta, func(rec tlv.Record) error {
		return r.updateFilter(math.NaN(), math.NaN(), rec.Float64())
	})
	r.statusList.Handle(tlv.IndependentSideband, func(rec tlv.Record) error {
		isb := rec.Uint() != 0
		return r.updateEntry(context.Background(), func(e *modetab.Entry) { e.ISB = isb })
	})
	r.statusList.Handle(tlv.PLLEnable, func(rec tlv.Record) error {
		pll := rec.Uint() != 0
		return r.updateEntry(context.Background(), func(e *modetab.Entry) { e.PLL = pll })
	})
	r.statusList.Handle(tlv.PLLSquare, func(rec tlv.Record) error {
		square := rec.Uint() != 0
		return r.updateEntry(context.Background(), func(e *modetab.Entry) {
			e.Square = square
			if square {
				e.PLL = true
			}
		})
	})
	r.statusList.Handle(tlv.FlatAudio, func(rec tlv.Record) error {
		flat := rec.Uint() != 0
		return r.updateEntry(context.Background(), func(e *modetab.Entry) { e.Flat = flat })
	})
	r.statusList.Handle(tlv.OutputChannels, func(rec tlv.Record) error {
		ch := int(rec.Uint())
		if ch != 1 && ch != 2 {
			return fmt.Errorf("receiver: channel count %d, must be 1 or 2", ch)
		}
		return r.updateEntry(context.Background(), func(e *modetab.Entry) { e.Channels = ch })
	})
}

// updateFilter overrides whichever of low, high, kaiserBeta are not NaN
// on the currently tracked filter edges, then re-synthesizes the active
// demodulator's filter response against the merged triple without
// interrupting its running block loop.
func (r *Receiver) updateFilter(low, high, kaiserBeta float64) error {
	r.demodMu.Lock()
	defer r.demodMu.Unlock()

	if !math.IsNaN(low) {
		r.curLow = low
		r.curEntry.Low = low
	}
	if !math.IsNaN(high) {
		r.curHigh = high
		r.curEntry.High = high
	}
	if !math.IsNaN(kaiserBeta) {
		r.cfg.KaiserBeta = kaiserBeta
	}
	if r.demod == nil {
		return nil
	}
	r.demod.setFilter(r.curLow, r.curHigh, r.cfg.KaiserBeta)
	return nil
}

// updateEntry applies mutate to a copy of the currently active mode
// table entry and switches to it via the same cancel/wake/join/replace
// sequence a named mode switch uses, for commands (ISB, PLL, square,
// flat, channel count) that change a demodulator's filter output type or
// decimation/channel topology and so cannot be altered on a live
// instance.
func (r *Receiver) updateEntry(ctx context.Context, mutate func(*modetab.Entry)) error {
	r.demodMu.Lock()
	defer r.demodMu.Unlock()

	entry := r.curEntry
	mutate(&entry)
	return r.switchEntryLocked(ctx, entry)
}

// SetDemodulator performs the cancel/wake/join/replace sequence spec.md
// §5 describes: it cancels the currently running demodulator's
// sub-context, waits for its goroutine to return, builds the
// replacement (a new filter.Slave attached to the shared master plus
// the chosen demod package's Demodulator), and starts it. Setting the
// mode to its own current value is a no-op: the running demodulator is
// kept, so receiver frequency, filter edges and shift are left as they
// are.
func (r *Receiver) SetDemodulator(ctx context.Context, name string) error {
	entry, ok := r.modes.Lookup(name)
	if !ok {
		return fmt.Errorf("receiver: unknown mode %q", name)
	}

	r.demodMu.Lock()
	defer r.demodMu.Unlock()
	if r.demod != nil && entry.Name == r.currentMode {
		return nil
	}
	return r.switchEntryLocked(ctx, entry)
}

// switchEntryLocked performs the cancel/wake/join/replace sequence for
// entry. Callers must hold demodMu.
func (r *Receiver) switchEntryLocked(ctx context.Context, entry modetab.Entry) error {
	if r.demodCancel != nil {
		r.demodCancel()
		<-r.demodDone
		r.demodCancel = nil
		r.demodDone = nil
	}

	d, pcmSess, err := r.buildDemod(entry)
	if err != nil {
		return err
	}

	dctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.demodCancel = cancel
	r.demodDone = done
	r.demod = d
	r.pcmSession = pcmSess
	r.currentMode = entry.Name
	r.curEntry = entry
	r.curLow, r.curHigh = entry.Low, entry.High

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer close(done)
		if err := d.run(dctx); err != nil && dctx.Err() == nil {
			r.logger.Printf("receiver: demodulator %q: %v", entry.Name, err)
		}
	}()
	return nil
}

// buildDemod constructs the filter.Slave and demod package instance for
// entry, plus a fresh pcm.Session matching its channel count.
func (r *Receiver) buildDemod(entry modetab.Entry) (demodulator, *pcm.Session, error) {
	rfRate := r.feState.Snapshot().SampleRate
	decimate := AudioDecimate
	if entry.Name == "wfm" {
		decimate = 1
	}

	pcmSess := pcm.NewSession(r.pcmConn, r.outputSSRC, entry.Channels == 2)

	switch entry.Demod {
	case modetab.KindAM:
		cfg := am.Config{
			RFSampleRate: rfRate,
			Decimate:     decimate,
			Low:          entry.Low,
			High:         entry.High,
			KaiserBeta:   r.cfg.KaiserBeta,
			Headroom:     0.1,
			RecoveryRate: entry.RecoveryRate,
			HangTime:     entry.HangTime,
		}
		d, err := am.New(r.master, cfg)
		if err != nil {
			return nil, nil, err
		}
		return &amAdapter{d: d, pcm: pcmSess}, pcmSess, nil

	case modetab.KindFM:
		cfg := fm.Config{
			RFSampleRate: rfRate,
			Decimate:     decimate,
			Low:          entry.Low,
			High:         entry.High,
			KaiserBeta:   r.cfg.KaiserBeta,
			Headroom:     0.1,
			Flat:         entry.Flat,
		}
		d, err := fm.New(r.master, cfg)
		if err != nil {
			return nil, nil, err
		}
		return &fmAdapter{d: d, pcm: pcmSess}, pcmSess, nil

	default: // modetab.KindLinear
		var shiftOsc *osc.Oscillator
		if entry.Shift != 0 {
			shiftOsc = osc.New()
			shiftOsc.Set(entry.Shift/(rfRate/float64(decimate)), 0)
		}
		cfg := linear.Config{
			RFSampleRate: rfRate,
			Decimate:     decimate,
			Low:          entry.Low,
			High:         entry.High,
			KaiserBeta:   r.cfg.KaiserBeta,
			Headroom:     0.1,
			RecoveryRate: entry.RecoveryRate,
			HangTime:     entry.HangTime,
			PLL:          entry.PLL,
			Square:       entry.Square,
			ISB:          entry.ISB,
			LoopBW:       5,
			Stereo:       entry.Channels == 2,
			ShiftOsc:     shiftOsc,
		}
		d, err := linear.New(r.master, cfg)
		if err != nil {
			return nil, nil, err
		}
		return &linearAdapter{d: d, pcm: pcmSess, stereo: cfg.Stereo}, pcmSess, nil
	}
}

// pcmSourceAdapter satisfies rtcpsr.Source against whichever pcm.Session
// is currently active, since the active session is replaced every time
// SetDemodulator runs but the Sender is only ever constructed once.
type pcmSourceAdapter struct{ r *Receiver }

func (a *pcmSourceAdapter) current() *pcm.Session {
	a.r.demodMu.Lock()
	defer a.r.demodMu.Unlock()
	return a.r.pcmSession
}

func (a *pcmSourceAdapter) SSRC() uint32 {
	if s := a.current(); s != nil {
		return s.SSRC()
	}
	return 0
}

func (a *pcmSourceAdapter) RTPTimestamp() uint32 {
	if s := a.current(); s != nil {
		return s.RTPTimestamp()
	}
	return 0
}

func (a *pcmSourceAdapter) Counts() (packets, octets uint32) {
	if s := a.current(); s != nil {
		return s.Counts()
	}
	return 0, 0
}
