package vigil

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a single engine counter or histogram.
type MetricID uint16

const (
	// MetricPairIssued counts access/refresh pairs minted for a session.
	MetricPairIssued MetricID = iota
	// MetricAuthenticateSuccess counts access tokens accepted by Authenticate.
	MetricAuthenticateSuccess
	// MetricAuthenticateFailure counts access tokens rejected by Authenticate.
	MetricAuthenticateFailure
	// MetricRefreshSuccess counts completed refresh exchanges.
	MetricRefreshSuccess
	// MetricRefreshFailure counts refresh exchanges rejected for any reason
	// other than replay or a still-valid access token.
	MetricRefreshFailure
	// MetricRefreshReplayBlocked counts refresh tokens presented again after
	// they were already exchanged or revoked.
	MetricRefreshReplayBlocked
	// MetricRefreshAccessStillValid counts refresh attempts rejected because
	// the attached access token had not expired yet.
	MetricRefreshAccessStillValid
	// MetricEmailVerificationRequest counts email verification tokens issued.
	MetricEmailVerificationRequest
	// MetricEmailVerificationSuccess counts accounts flipped to verified.
	MetricEmailVerificationSuccess
	// MetricEmailVerificationFailure counts rejected verification attempts.
	MetricEmailVerificationFailure
	// MetricPasswordResetRequest counts password reset tokens issued.
	MetricPasswordResetRequest
	// MetricPasswordResetSuccess counts completed password resets.
	MetricPasswordResetSuccess
	// MetricPasswordResetFailure counts rejected password reset attempts.
	MetricPasswordResetFailure
	// MetricTokenRevoked counts manual revocations through RevokeToken.
	MetricTokenRevoked
	// MetricSweepDeleted counts expired blacklist rows removed by sweeps.
	MetricSweepDeleted
	// MetricAuthenticateLatency is the Authenticate latency histogram.
	MetricAuthenticateLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

// paddedCounter keeps each counter on its own cache line.
type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds the engine's lock-free counters. A nil *Metrics is valid
// and counts nothing.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all counters and histograms.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to a counter. Safe on a nil or disabled receiver.
func (m *Metrics) Inc(id MetricID) {
	m.Add(id, 1)
}

// Add adds n to a counter. Safe on a nil or disabled receiver.
func (m *Metrics) Add(id MetricID, n uint64) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, n)
}

// Observe records an Authenticate latency sample.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || id != MetricAuthenticateLatency {
		return
	}
	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value reads a single counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and histogram under atomic loads. A
// disabled Metrics returns empty maps, never nil maps.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricAuthenticateLatency].buckets[i])
		}
		s.Histograms[MetricAuthenticateLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
