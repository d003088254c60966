package session

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts decode outcomes per source. Optional; a nil Metrics in the
// session config disables counting entirely.
type Metrics struct {
	FramesDecoded  *prometheus.CounterVec
	DecodeFailures *prometheus.CounterVec
}

// NewMetrics creates the decode counters and registers them with reg when it
// is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FramesDecoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "camlog",
			Name:      "frames_decoded_total",
			Help:      "Log frames decoded successfully, by source name.",
		}, []string{"source"}),
		DecodeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "camlog",
			Name:      "frame_decode_failures_total",
			Help:      "Log frames that failed to decode, by source name.",
		}, []string{"source"}),
	}
	if reg != nil {
		reg.MustRegister(m.FramesDecoded, m.DecodeFailures)
	}
	return m
}
