package governor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Engine drives the governor for every CPU it has been told about. One
// Engine typically exists per machine; each CPU's State within it is
// touched only by that CPU's own Select/Reflect calls and its own
// wake-timer callback.
type Engine struct {
	drv      *Driver
	platform Platform
	experts  [numExperts]Expert

	mu      sync.RWMutex
	states  []*State
	devices []*DeviceState

	logger   *slog.Logger
	metrics  *Metrics
	recorder Recorder
}

// Recorder observes every Select/Reflect round for inspection tooling. The
// concrete implementation (see internal/trace.Recorder) lives outside this
// package; a nil Recorder is always valid to pass around.
type Recorder interface {
	RecordSelect(cpu, stateIdx int, predictedUs uint64, attendees int, weights [numExperts]uint64, at time.Time)
	RecordReflect(cpu int, measuredUs uint64, at time.Time)
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithLogger overrides the engine's structured logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithMetrics attaches a Prometheus-backed Metrics recorder.
func WithMetrics(m *Metrics) Option { return func(e *Engine) { e.metrics = m } }

// WithRecorder attaches a round-history Recorder (see internal/trace).
func WithRecorder(r Recorder) Option { return func(e *Engine) { e.recorder = r } }

// NewEngine constructs an Engine over the given static driver description
// and platform collaborator, with experts registered in the fixed order
// Residency, Timer, Network.
func NewEngine(drv *Driver, pf Platform, opts ...Option) *Engine {
	e := &Engine{
		drv:      drv,
		platform: pf,
		logger:   slog.Default(),
	}
	e.experts[ExpertResidency] = residencyExpert{}
	e.experts[ExpertTimer] = timerExpert{}
	e.experts[ExpertNetwork] = networkExpert{}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics != nil {
		e.platform = &instrumentedPlatform{Platform: e.platform, metrics: e.metrics}
	}
	return e
}

// instrumentedPlatform wraps a Platform to record the park/unpark hint
// metric at the point the network expert emits it, without requiring
// every Platform implementation to know about Metrics.
type instrumentedPlatform struct {
	Platform
	metrics *Metrics
}

func (p *instrumentedPlatform) SetRunqueueOnline(cpu int, online bool) {
	p.metrics.observeParkHint(cpu, online)
	p.Platform.SetRunqueueOnline(cpu, online)
}

// EnableDevice registers cpu's hardware view and returns its freshly zeroed
// State, running every expert's Init. Equivalent to the host framework's
// enable_device(drv, dev) hook.
func (e *Engine) EnableDevice(dev *DeviceState) *State {
	e.mu.Lock()
	defer e.mu.Unlock()

	cpu := dev.CPU
	for len(e.states) <= cpu {
		e.states = append(e.states, nil)
		e.devices = append(e.devices, nil)
	}
	s := newState(cpu)
	e.states[cpu] = s
	e.devices[cpu] = dev
	for i := 0; i < numExperts; i++ {
		e.experts[i].Init(cpu, e.platform, s)
	}
	return s
}

func (e *Engine) state(cpu int) *State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if cpu < 0 || cpu >= len(e.states) {
		return nil
	}
	return e.states[cpu]
}

func (e *Engine) device(cpu int) *DeviceState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if cpu < 0 || cpu >= len(e.devices) {
		return nil
	}
	return e.devices[cpu]
}

// Select chooses the next idle state for cpu. It first runs the pending
// update from the last reflect, then queries every expert, fuses their
// predictions, and hands the result to the selector. Equivalent to the
// host framework's select(drv, dev) -> index hook.
func (e *Engine) Select(cpu int) int {
	s := e.state(cpu)
	dev := e.device(cpu)
	if s == nil || dev == nil {
		e.logf(cpu, ErrAllExpertsAbstained, "cpu not enabled")
		return fallbackStateIdx
	}

	if s.NeedsUpdate.Load() {
		e.update(s, dev)
		s.NeedsUpdate.Store(false)
	}

	s.NetworkActivity = false
	s.StrictLatency = false
	s.WokeByTimer.Store(false)
	s.WillWakeWithTimer = false

	e.platform.ResetTasksWoke(cpu)
	s.Total++
	s.NextTimerUs = uint64(e.platform.SleepLength(cpu).Microseconds())
	s.Attendees = 0

	prevNetworkPrediction := s.Predictions[ExpertNetwork]

	var sum, weightSum uint64
	for i := 0; i < numExperts; i++ {
		pred := e.experts[i].Select(s, e.platform, cpu)
		s.Predictions[i] = pred
		if pred != abstain {
			s.Attendees++
			sum += s.Weights[i] * uint64(pred)
			weightSum += s.Weights[i]
		}
	}

	if prevNetworkPrediction != abstain && s.Predictions[ExpertNetwork] == abstain {
		e.logf(cpu, ErrDistributionShift, "")
		e.metrics.observeDistributionShift(cpu)
	}

	if weightSum == 0 {
		e.logf(cpu, ErrAllExpertsAbstained, "")
		e.metrics.observeAllAbstained(cpu)
		return fallbackStateIdx
	}
	s.PredictedUs = sum / weightSum

	idx, exitLatencyUs := selectState(e.drv, dev, s)

	if s.NetworkActivity && !s.WillWakeWithTimer {
		yawnTimerInterval := int64(s.PredictedUs) - int64(exitLatencyUs)
		if yawnTimerInterval > 5 {
			e.armTimer(s, time.Duration(yawnTimerInterval)*time.Microsecond)
		}
	}

	e.metrics.observeSelect(cpu, s, idx)
	if e.recorder != nil {
		e.recorder.RecordSelect(cpu, idx, s.PredictedUs, s.Attendees, s.Weights, e.platform.Now())
	}
	return idx
}

// Reflect records the actually entered state and marks the round pending
// for update on the next Select. It must stay fast: it runs on the
// latency-critical idle-exit path and does no expert work (§4.8).
// Equivalent to the host framework's reflect(dev, index) hook.
func (e *Engine) Reflect(cpu int, index int) {
	s := e.state(cpu)
	if s == nil {
		return
	}
	s.LastStateIdx = index
	if s.TimerActive.Load() {
		e.cancelTimer(s)
		s.TimerActive.Store(false)
		s.Inmature++
	}
	s.NeedsUpdate.Store(true)
}

// armTimer starts the pre-emptive wake timer for s, firing in d. On
// expiry the callback may only touch TimerActive and WokeByTimer — it
// runs concurrently with the owning CPU's idle path, unlike the original
// same-CPU hrtimer interrupt, so both fields are atomics (see State).
func (e *Engine) armTimer(s *State, d time.Duration) {
	s.wakeTimer = time.AfterFunc(d, func() {
		s.TimerActive.Store(false)
		if !s.NeedsUpdate.Load() {
			s.WokeByTimer.Store(true)
		}
	})
	s.TimerActive.Store(true)
}

// cancelTimer stops a live wake timer. Cancellation is total: TimerActive
// is guaranteed false on return (I3).
func (e *Engine) cancelTimer(s *State) {
	if s.wakeTimer != nil {
		s.wakeTimer.Stop()
		s.wakeTimer = nil
	}
	s.TimerActive.Store(false)
}

// SetThresholds writes the deep/shallow inter-arrival thresholds across
// every enabled CPU, matching the original sysfs store handlers that loop
// over all online CPUs. Safe to call concurrently with Select/Reflect —
// the thresholds are atomics with no ordering guarantee beyond "whichever
// value wins."
func (e *Engine) SetThresholds(deepUs, shallowUs uint64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, s := range e.states {
		if s == nil {
			continue
		}
		s.DeepThresholdUs.Store(deepUs)
		s.ShallowThresholdUs.Store(shallowUs)
	}
}

// Thresholds returns cpu's current deep/shallow thresholds.
func (e *Engine) Thresholds(cpu int) (deepUs, shallowUs uint64, ok bool) {
	s := e.state(cpu)
	if s == nil {
		return 0, 0, false
	}
	return s.DeepThresholdUs.Load(), s.ShallowThresholdUs.Load(), true
}

// Snapshot returns a read-only copy of cpu's current state, for inspection
// tooling (debugapi, the `inspect` CLI subcommand).
func (e *Engine) Snapshot(cpu int) (StateSnapshot, bool) {
	s := e.state(cpu)
	if s == nil {
		return StateSnapshot{}, false
	}
	deep, shallow, _ := e.Thresholds(cpu)
	return StateSnapshot{
		CPU:               s.CPU,
		LastStateIdx:      s.LastStateIdx,
		NextTimerUs:       s.NextTimerUs,
		PredictedUs:       s.PredictedUs,
		MeasuredUs:        s.MeasuredUs,
		PendingUs:         s.PendingUs,
		Attendees:         s.Attendees,
		Total:             s.Total,
		Inmature:          s.Inmature,
		Weights:           s.Weights,
		NetworkActivity:   s.NetworkActivity,
		StrictLatency:     s.StrictLatency,
		WillWakeWithTimer: s.WillWakeWithTimer,
		TimerActive:       s.TimerActive.Load(),
		DeepThresholdUs:   deep,
		ShallowThresholdUs: shallow,
	}, true
}

// StateSnapshot is an immutable, JSON-friendly view of a State at a point
// in time.
type StateSnapshot struct {
	CPU                int       `json:"cpu"`
	LastStateIdx       int       `json:"last_state_idx"`
	NextTimerUs        uint64    `json:"next_timer_us"`
	PredictedUs        uint64    `json:"predicted_us"`
	MeasuredUs         uint64    `json:"measured_us"`
	PendingUs          uint64    `json:"pending_us"`
	Attendees          int       `json:"attendees"`
	Total              uint64    `json:"total"`
	Inmature           uint64    `json:"inmature"`
	Weights            [numExperts]uint64 `json:"weights"`
	NetworkActivity    bool      `json:"network_activity"`
	StrictLatency      bool      `json:"strict_latency"`
	WillWakeWithTimer  bool      `json:"will_wake_with_timer"`
	TimerActive        bool      `json:"timer_active"`
	DeepThresholdUs    uint64    `json:"deep_threshold_us"`
	ShallowThresholdUs uint64    `json:"shallow_threshold_us"`
}

// errorLevels maps each sentinel error to a log level: error for the
// all-abstained fallback (BUG-level in the original governor), warn for a
// weight collapse, info for a distribution shift, and debug for the
// frequent, expected events (zero normalizer, unusable measurement,
// spurious wake).
var errorLevels = map[error]slog.Level{
	ErrAllExpertsAbstained:  slog.LevelError,
	ErrWeightNormalizerZero: slog.LevelDebug,
	ErrWeightCollapse:       slog.LevelWarn,
	ErrUnusableMeasurement:  slog.LevelDebug,
	ErrSpuriousWake:         slog.LevelDebug,
	ErrDistributionShift:    slog.LevelInfo,
}

func (e *Engine) logf(cpu int, kind error, format string, args ...any) {
	if e.logger == nil {
		return
	}
	level, ok := errorLevels[kind]
	if !ok {
		level = slog.LevelDebug
	}
	msg := kind.Error()
	if format != "" {
		msg = fmt.Sprintf("%s: %s", msg, fmt.Sprintf(format, args...))
	}
	e.logger.Log(context.Background(), level, msg, "cpu", cpu)
}
