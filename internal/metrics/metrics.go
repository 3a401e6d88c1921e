package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "familyplanner"

// Outcomes recorded for remote calls
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder instruments calls to the persistence backend and the size of the
// in-memory snapshot. A nil *Recorder records nothing.
type Recorder struct {
	remoteCalls    *prometheus.CounterVec
	remoteDuration *prometheus.HistogramVec
	snapshotSize   *prometheus.GaugeVec
}

// NewRecorder creates a recorder and registers its collectors with reg
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		remoteCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_calls_total",
			Help:      "Calls made to the persistence backend.",
		}, []string{"collection", "op", "outcome"}),
		remoteDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_call_duration_seconds",
			Help:      "Latency of calls to the persistence backend.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"collection", "op"}),
		snapshotSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_entities",
			Help:      "Entities currently held in the in-memory snapshot.",
		}, []string{"collection"}),
	}

	for _, c := range []prometheus.Collector{r.remoteCalls, r.remoteDuration, r.snapshotSize} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ObserveRemote records one backend call that started at start
func (r *Recorder) ObserveRemote(collection, op string, start time.Time, err error) {
	if r == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	r.remoteCalls.WithLabelValues(collection, op, outcome).Inc()
	r.remoteDuration.WithLabelValues(collection, op).Observe(time.Since(start).Seconds())
}

// SetSnapshotSize records how many entities of collection are cached
func (r *Recorder) SetSnapshotSize(collection string, n int) {
	if r == nil {
		return
	}
	r.snapshotSize.WithLabelValues(collection).Set(float64(n))
}
