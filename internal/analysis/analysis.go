// Package analysis runs a recorded file through the meter offline.
//
// The file is cut into fixed fragments and fed through dsp.ProcessBuffer
// exactly as a capture backend would deliver it, so the readings match what
// the live meter shows for the same audio. Alongside the needle statistics
// the raw signal RMS and peak are reported for comparison.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/tphakala/go-vumeter/internal/ballistics"
	"github.com/tphakala/go-vumeter/internal/capture"
	"github.com/tphakala/go-vumeter/internal/dsp"
	"github.com/tphakala/go-vumeter/internal/scale"
	"github.com/tphakala/go-vumeter/internal/simdops"
	"github.com/tphakala/go-vumeter/internal/wavio"
)

// ErrNoAudio indicates a file without audio frames, or one that ends
// before the warmup does. A trailing partial fragment counts as audio.
var ErrNoAudio = errors.New("no audio data")

// Options configures an analysis run.
type Options struct {
	// Fragment is the delivery period the file is cut into.
	Fragment time.Duration

	Reference  dsp.ReferenceOptions
	Range      dsp.Range
	Ballistics ballistics.Config

	// Table maps readings to needle angles. Nil uses the stock table.
	Table scale.Table

	// Warmup excludes the first readings from the statistics while the
	// needles travel up from rest.
	Warmup time.Duration

	// KeepTrace stores every reading in the report.
	KeepTrace bool
}

// DefaultOptions returns options for a monitor source on the wide range.
func DefaultOptions() Options {
	return Options{
		Fragment:   defaultFragment,
		Reference:  dsp.ReferenceOptions{DeviceType: dsp.DeviceMonitor},
		Range:      dsp.RangeWide,
		Ballistics: ballistics.DefaultConfig(),
	}
}

// Reading is the meter state after one fragment.
type Reading struct {
	Time       time.Duration
	Left       float32
	Right      float32
	LeftAngle  float32
	RightAngle float32
}

// ChannelStats summarizes one channel.
type ChannelStats struct {
	// Needle readings in VU dB.
	Mean   float64 `json:"mean_vu"`
	StdDev float64 `json:"stddev_vu"`
	Min    float64 `json:"min_vu"`
	Max    float64 `json:"max_vu"`
	Median float64 `json:"median_vu"`
	P95    float64 `json:"p95_vu"`

	// Needle angles in degrees at the mean and maximum readings.
	MeanAngle float32 `json:"mean_angle"`
	MaxAngle  float32 `json:"max_angle"`

	// Raw signal levels of the decoded samples.
	RMSDbfs  float64 `json:"rms_dbfs"`
	PeakDbfs float64 `json:"peak_dbfs"`
	DCOffset float64 `json:"dc_offset"`
}

// Report is the result of one analysis run.
type Report struct {
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`
	Duration   time.Duration `json:"duration"`
	Fragments  int           `json:"fragments"`

	// ReferenceDbfs is the level shown as 0 VU.
	ReferenceDbfs float64 `json:"reference_dbfs"`

	Left  ChannelStats `json:"left"`
	Right ChannelStats `json:"right"`

	Trace []Reading `json:"-"`
}

// AnalyzeFile analyzes the WAV file at path.
func AnalyzeFile(ctx context.Context, path string, opts Options) (*Report, error) {
	r, err := wavio.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	return Analyze(ctx, r, opts)
}

// Analyze reads r to the end.
func Analyze(ctx context.Context, r *wavio.Reader, opts Options) (*Report, error) {
	if opts.Fragment <= 0 {
		opts.Fragment = defaultFragment
	}
	if opts.Range == (dsp.Range{}) {
		opts.Range = dsp.RangeWide
	}
	if opts.Ballistics == (ballistics.Config{}) {
		opts.Ballistics = ballistics.DefaultConfig()
	}
	if err := opts.Range.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Ballistics.Validate(); err != nil {
		return nil, err
	}
	if opts.Table == nil {
		opts.Table = scale.DefaultTable()
	}

	info := r.Info()
	frames := capture.StreamConfig{SampleRate: info.SampleRate, Fragment: opts.Fragment}.FragmentFrames()
	warmup := int(opts.Warmup.Seconds() * float64(info.SampleRate) / float64(frames))

	var (
		state   dsp.State
		left    = ballistics.New(opts.Range.Min, opts.Ballistics)
		right   = ballistics.New(opts.Range.Min, opts.Ballistics)
		buf     = make([]float32, frames*info.Channels)
		sig     = newSignalStats(frames)
		vuL     []float64
		vuR     []float64
		trace   []Reading
		total   int
		elapsed time.Duration
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := r.Read(buf)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		data := buf[:n*info.Channels]
		l, rr := dsp.ProcessBuffer(data, n, info.Channels, float32(info.SampleRate),
			opts.Reference, left, right, &state, opts.Range.Min, opts.Range.Max)
		sig.add(data, n, info.Channels)

		elapsed += time.Duration(n) * time.Second / time.Duration(info.SampleRate)
		if total >= warmup {
			vuL = append(vuL, float64(l))
			vuR = append(vuR, float64(rr))
		}
		if opts.KeepTrace {
			trace = append(trace, Reading{
				Time:       elapsed,
				Left:       l,
				Right:      rr,
				LeftAngle:  opts.Table.Angle(l),
				RightAngle: opts.Table.Angle(rr),
			})
		}
		total++
	}

	if total == 0 {
		return nil, ErrNoAudio
	}
	if len(vuL) == 0 {
		return nil, fmt.Errorf("%w: warmup %v covers the whole file", ErrNoAudio, opts.Warmup)
	}

	report := &Report{
		SampleRate:    info.SampleRate,
		Channels:      info.Channels,
		Duration:      elapsed,
		Fragments:     total,
		ReferenceDbfs: opts.Reference.EffectiveReferenceDbfs(),
		Left:          summarize(vuL, opts.Table),
		Right:         summarize(vuR, opts.Table),
		Trace:         trace,
	}
	sig.fill(&report.Left, &report.Right)
	return report, nil
}

// summarize computes needle statistics. readings is sorted in place.
func summarize(readings []float64, table scale.Table) ChannelStats {
	mean, std := stat.MeanStdDev(readings, nil)
	if len(readings) < 2 {
		std = 0
	}

	slices.Sort(readings)
	s := ChannelStats{
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(readings),
		Max:    floats.Max(readings),
		Median: stat.Quantile(medianQuantile, stat.Empirical, readings, nil),
		P95:    stat.Quantile(upperQuantile, stat.Empirical, readings, nil),
	}
	s.MeanAngle = table.Angle(float32(s.Mean))
	s.MaxAngle = table.Angle(float32(s.Max))
	return s
}

// signalStats accumulates raw per-channel power, sum and peak.
type signalStats struct {
	l, r         []float64
	powL, powR   float64
	sumL, sumR   float64
	peakL, peakR float64
	n            int
}

func newSignalStats(frames int) *signalStats {
	return &signalStats{l: make([]float64, frames), r: make([]float64, frames)}
}

func (s *signalStats) add(data []float32, frames, channels int) {
	l, r := s.l[:frames], s.r[:frames]
	for i := range frames {
		l[i] = float64(data[i*channels])
		if channels > 1 {
			r[i] = float64(data[i*channels+1])
		} else {
			r[i] = l[i]
		}
	}

	ops := simdops.Float64Ops()
	s.powL += simdops.Power(l)
	s.powR += simdops.Power(r)
	s.sumL += ops.Sum(l)
	s.sumR += ops.Sum(r)
	s.peakL = max(s.peakL, math.Abs(floats.Max(l)), math.Abs(floats.Min(l)))
	s.peakR = max(s.peakR, math.Abs(floats.Max(r)), math.Abs(floats.Min(r)))
	s.n += frames
}

func (s *signalStats) fill(left, right *ChannelStats) {
	if s.n == 0 {
		return
	}
	n := float64(s.n)
	left.RMSDbfs = toDbfs(math.Sqrt(s.powL / n))
	right.RMSDbfs = toDbfs(math.Sqrt(s.powR / n))
	left.PeakDbfs = toDbfs(s.peakL)
	right.PeakDbfs = toDbfs(s.peakR)
	left.DCOffset = s.sumL / n
	right.DCOffset = s.sumR / n
}

func toDbfs(v float64) float64 {
	if !(v > 0) {
		return silenceDbfs
	}
	return 20 * math.Log10(v)
}
