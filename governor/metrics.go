package governor

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics wires the engine's decisions into Prometheus. Collectors are
// built with prometheus.New*Vec and registered explicitly on the caller's
// Registerer, not through promauto.
// A nil *Metrics is valid everywhere it's used — Engine works unmetered.
type Metrics struct {
	chosenState       *prometheus.HistogramVec
	predictedUs       *prometheus.HistogramVec
	measuredUs        *prometheus.HistogramVec
	expertWeight      *prometheus.GaugeVec
	attendees         *prometheus.GaugeVec
	allAbstained      *prometheus.CounterVec
	distributionShift *prometheus.CounterVec
	parkHints         *prometheus.CounterVec
	unparkHints       *prometheus.CounterVec
}

// NewMetrics registers the governor's metrics on reg and returns a Metrics
// ready to pass to WithMetrics. Pass prometheus.NewRegistry() in tests to
// avoid colliding with the default global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		chosenState: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "yawn_chosen_state_index",
			Help:    "Idle state index chosen per select round.",
			Buckets: prometheus.LinearBuckets(0, 1, 8),
		}, []string{"cpu"}),
		predictedUs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "yawn_predicted_us",
			Help:    "Fused ensemble prediction of the next idle duration, in microseconds.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 12),
		}, []string{"cpu"}),
		measuredUs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "yawn_measured_us",
			Help:    "Exit-latency-adjusted measured residency fed back to the ensemble.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 12),
		}, []string{"cpu"}),
		expertWeight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "yawn_expert_weight",
			Help: "Current ensemble weight of each expert.",
		}, []string{"cpu", "expert"}),
		attendees: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "yawn_attendees",
			Help: "Number of non-abstaining experts in the last select round.",
		}, []string{"cpu"}),
		allAbstained: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yawn_all_experts_abstained_total",
			Help: "Rounds where every expert abstained and the fallback state was chosen.",
		}, []string{"cpu"}),
		distributionShift: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yawn_distribution_shift_total",
			Help: "Rounds where the network expert detected a workload distribution shift.",
		}, []string{"cpu"}),
		parkHints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yawn_park_hints_total",
			Help: "Sibling-CPU park (offline) hints emitted by the network expert.",
		}, []string{"cpu"}),
		unparkHints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yawn_unpark_hints_total",
			Help: "Sibling-CPU unpark (online) hints emitted by the network expert.",
		}, []string{"cpu"}),
	}
	reg.MustRegister(
		m.chosenState, m.predictedUs, m.measuredUs, m.expertWeight,
		m.attendees, m.allAbstained, m.distributionShift,
		m.parkHints, m.unparkHints,
	)
	return m
}

var expertNames = [numExperts]string{
	ExpertResidency: "residency",
	ExpertTimer:     "timer",
	ExpertNetwork:   "network",
}

func (m *Metrics) observeSelect(cpu int, s *State, idx int) {
	if m == nil {
		return
	}
	label := strconv.Itoa(cpu)
	m.chosenState.WithLabelValues(label).Observe(float64(idx))
	m.predictedUs.WithLabelValues(label).Observe(float64(s.PredictedUs))
	m.measuredUs.WithLabelValues(label).Observe(float64(s.MeasuredUs))
	m.attendees.WithLabelValues(label).Set(float64(s.Attendees))
	for i := 0; i < numExperts; i++ {
		m.expertWeight.WithLabelValues(label, expertNames[i]).Set(float64(s.Weights[i]))
	}
}

func (m *Metrics) observeAllAbstained(cpu int) {
	if m == nil {
		return
	}
	m.allAbstained.WithLabelValues(strconv.Itoa(cpu)).Inc()
}

func (m *Metrics) observeDistributionShift(cpu int) {
	if m == nil {
		return
	}
	m.distributionShift.WithLabelValues(strconv.Itoa(cpu)).Inc()
}

func (m *Metrics) observeParkHint(cpu int, online bool) {
	if m == nil {
		return
	}
	label := strconv.Itoa(cpu)
	if online {
		m.unparkHints.WithLabelValues(label).Inc()
	} else {
		m.parkHints.WithLabelValues(label).Inc()
	}
}
