package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder collects booking operation metrics.
type Recorder struct {
	Operations *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
}

// NewRecorder creates the collectors and registers them on reg. A nil reg
// leaves the collectors unregistered.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "calendar_booking_operations_total",
			Help: "Total number of booking operations by kind, operation and outcome",
		}, []string{"kind", "operation", "outcome"}),

		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "calendar_booking_operation_duration_seconds",
			Help:    "Duration of booking read-modify-write cycles",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind", "operation"}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{r.Operations, r.Duration} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

// ObserveOperation records one completed operation.
func (r *Recorder) ObserveOperation(kind, operation, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.Operations.WithLabelValues(kind, operation, outcome).Inc()
	r.Duration.WithLabelValues(kind, operation).Observe(elapsed.Seconds())
}

// WriteTextfile dumps every metric gathered by g to path in the text
// exposition format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
