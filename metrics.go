package shopauth

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one counter or histogram in the in-process metrics
// system.
type MetricID uint16

const (
	// MetricLoginSuccess counts logins that granted a session directly.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts logins rejected by the backend.
	MetricLoginFailure
	// MetricLoginNetworkError counts logins that never reached the backend.
	MetricLoginNetworkError
	// MetricRegisterSuccess counts accepted registrations.
	MetricRegisterSuccess
	// MetricRegisterFailure counts rejected registrations.
	MetricRegisterFailure
	// MetricSecondFactorRequired counts logins that entered the two-factor
	// challenge.
	MetricSecondFactorRequired
	// MetricCodeDispatchFailed counts one-time code sends the backend did
	// not accept.
	MetricCodeDispatchFailed
	// MetricVerifySuccess counts successful code verifications.
	MetricVerifySuccess
	// MetricVerifyFailure counts rejected codes (attempt consumed).
	MetricVerifyFailure
	// MetricVerifyLockedOut counts challenges that hit the attempt ceiling.
	MetricVerifyLockedOut
	// MetricVerifyStale counts verify responses discarded because the
	// challenge was cancelled or superseded mid-flight.
	MetricVerifyStale
	// MetricVerifyNetworkError counts verify calls that never reached the
	// backend (attempt not consumed).
	MetricVerifyNetworkError
	// MetricLoginCancelled counts explicit challenge cancellations.
	MetricLoginCancelled
	// MetricCSRFCookieHit counts token requests served from the cookie jar.
	MetricCSRFCookieHit
	// MetricCSRFFetched counts tokens obtained from the fetch endpoint.
	MetricCSRFFetched
	// MetricCSRFTriggered counts tokens obtained via the trigger fallback.
	MetricCSRFTriggered
	// MetricCSRFUnavailable counts token requests where all three fallback
	// steps failed.
	MetricCSRFUnavailable
	// MetricSessionResumed counts successful session probes on startup.
	MetricSessionResumed
	// MetricSessionAnonymous counts session probes answered anonymous.
	MetricSessionAnonymous
	// MetricLogout counts logouts.
	MetricLogout
	// MetricTwoFactorEnabled counts successful 2FA enable operations.
	MetricTwoFactorEnabled
	// MetricTwoFactorDisabled counts successful 2FA disable operations.
	MetricTwoFactorDisabled
	// MetricVerifyLatency is the verify round-trip latency histogram.
	MetricVerifyLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds atomic counters and an optional verify-latency histogram.
// When disabled, all operations are no-ops.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a [Metrics] instance configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are active.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc adds one to the given counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a latency sample. Only MetricVerifyLatency has a
// histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricVerifyLatency {
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

// Snapshot copies all counters and histogram buckets.
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
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricVerifyLatency].buckets[i])
		}
		s.Histograms[MetricVerifyLatency] = buckets
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
