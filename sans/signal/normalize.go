package signal

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-sans/internal/registry"
	"github.com/cwbudde/algo-sans/sans/frame"
	"github.com/cwbudde/algo-sans/sans/reduction"
)

// Instrument parameters naming the normalisation spectra.
const (
	MonitorSpectrumParam = "default-incident-monitor-spectrum"
	TimerSpectrumParam   = "default-incident-timer-spectrum"
)

// NoChannel is the channel ID reported by a normaliser that divides by a run
// property instead of a spectrum. It never collides with a pixel ID or with
// ComplementID.
const NoChannel = math.MinInt

// Mode enumerates the normalisation families.
type Mode int

const (
	ModeMonitor Mode = iota
	ModeTimer
	ModeCustom
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeMonitor:
		return "Monitor"
	case ModeTimer:
		return "Timer"
	case ModeCustom:
		return "Custom"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Normalizer divides a grouped frame by its normalisation. It returns the
// normalised frame and the ID of the channel used, or NoChannel when no
// channel was.
type Normalizer interface {
	Mode() Mode
	Normalize(f *frame.Frame) (*frame.Frame, int, error)
}

// ChannelNormalizer divides every other channel by the spectrum whose ID is
// given by an instrument parameter.
type ChannelNormalizer struct {
	mode  Mode
	param string
}

// Monitor normalises by the incident beam monitor.
func Monitor() ChannelNormalizer {
	return ChannelNormalizer{mode: ModeMonitor, param: MonitorSpectrumParam}
}

// Timer normalises by the timer (clock) spectrum.
func Timer() ChannelNormalizer {
	return ChannelNormalizer{mode: ModeTimer, param: TimerSpectrumParam}
}

// Mode implements Normalizer.
func (n ChannelNormalizer) Mode() Mode { return n.mode }

// Normalize implements Normalizer.
func (n ChannelNormalizer) Normalize(f *frame.Frame) (*frame.Frame, int, error) {
	v, err := f.Instrument.Param(n.param)
	if err != nil {
		return nil, NoChannel, fmt.Errorf("%w: instrument parameter %s", ErrMissingNormalisation, n.param)
	}

	id := int(v)
	ch := f.IndexOf(id)
	if ch < 0 {
		return nil, NoChannel, fmt.Errorf("%w: spectrum %d (%s) not in frame", ErrMissingNormalisation, id, n.param)
	}

	denom := f.Counts[ch]
	inv := make([]float64, len(denom))
	for j, d := range denom {
		if d == 0 {
			return nil, NoChannel, fmt.Errorf("%w: %s spectrum %d is zero in bin %d", ErrZeroNormalisation, n.mode, id, j)
		}
		inv[j] = 1 / d
	}

	out := f.Clone()
	for i := range out.Pixels {
		if i == ch {
			continue
		}

		num := f.Counts[i]
		vecmath.MulBlock(out.Counts[i], num, inv)

		for j := range num {
			r := out.Counts[i][j]
			vn, vd := f.Variances[i][j], f.Variances[ch][j]
			out.Variances[i][j] = inv[j]*inv[j]*vn + r*r*inv[j]*inv[j]*vd
		}
	}

	return out, id, nil
}

// RunNormalizer divides every channel by a scalar run property, such as
// accumulated proton charge or acquisition time.
type RunNormalizer struct {
	Property string
}

// Mode implements Normalizer.
func (n RunNormalizer) Mode() Mode { return ModeCustom }

// Normalize implements Normalizer.
func (n RunNormalizer) Normalize(f *frame.Frame) (*frame.Frame, int, error) {
	v, err := f.RunProperty(n.Property)
	if err != nil {
		return nil, NoChannel, fmt.Errorf("%w: run property %s", ErrMissingNormalisation, n.Property)
	}

	if v == 0 {
		return nil, NoChannel, fmt.Errorf("%w: run property %s", ErrZeroNormalisation, n.Property)
	}

	out := f.Clone()
	for i := range out.Pixels {
		for j := range out.Counts[i] {
			out.Counts[i][j] /= v
			out.Variances[i][j] /= v * v
		}
	}

	return out, NoChannel, nil
}

// Normalizers returns a registry of custom normalisers selectable through
// the NormaliseAlgorithm key: "charge" and "duration".
func Normalizers() *registry.Registry[Normalizer] {
	r := registry.New[Normalizer]("normalisation algorithm")
	r.MustRegister("charge", RunNormalizer{Property: "proton_charge"})
	r.MustRegister("duration", RunNormalizer{Property: DurationProperty})

	return r
}

// ResolveNormalizer picks the normaliser from cfg. TransmissionNormalisation
// selects Monitor ("Monitor") or Timer (any other value); otherwise
// NormaliseAlgorithm names an entry of custom.
func ResolveNormalizer(cfg *reduction.Config, custom *registry.Registry[Normalizer]) (Normalizer, error) {
	if cfg.Has(reduction.KeyTransmissionNormalisation) {
		v, err := cfg.String(reduction.KeyTransmissionNormalisation)
		if err != nil {
			return nil, err
		}

		if v == "Monitor" {
			return Monitor(), nil
		}

		return Timer(), nil
	}

	if cfg.Has(reduction.KeyNormaliseAlgorithm) {
		name, err := cfg.String(reduction.KeyNormaliseAlgorithm)
		if err != nil {
			return nil, err
		}

		n, err := custom.Resolve(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnknownAlgorithm, reduction.KeyNormaliseAlgorithm, err)
		}

		return n, nil
	}

	return nil, fmt.Errorf("%w: set %s or %s", ErrMissingNormalisation,
		reduction.KeyTransmissionNormalisation, reduction.KeyNormaliseAlgorithm)
}
