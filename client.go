package shopauth

import (
	"sync"
	"sync/atomic"

	"github.com/proshophq/shopauth/assertion"
	"github.com/proshophq/shopauth/session"
)

// Client is the authentication state machine for one operator context. All
// methods are safe for concurrent use; per-flow busy flags serialize each
// flow the way a disabled submit button would, without blocking the other
// flows.
type Client struct {
	config     *Config
	api        *apiClient
	csrf       *csrfProvider
	sessions   session.Store
	assertions *assertion.Manager
	audit      *auditDispatcher
	metrics    *Metrics

	// mu guards the pending challenge and its generation counter.
	mu         sync.Mutex
	pending    *pendingLogin
	generation uint64

	loginBusy  atomic.Bool
	verifyBusy atomic.Bool

	closed atomic.Bool
}

// Metrics exposes the client's counters for exporters. It is always
// non-nil; with metrics disabled every operation on it is a no-op.
func (c *Client) Metrics() *Metrics {
	return c.metrics
}

// MetricsSnapshot returns a point-in-time copy of all counters.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	return c.metrics.Snapshot()
}

// AuditDropped reports how many audit events were shed under backpressure.
func (c *Client) AuditDropped() uint64 {
	if c.audit == nil {
		return 0
	}
	return c.audit.Dropped()
}

// Close stops the audit dispatcher after draining queued events. The client
// must not be used after Close.
func (c *Client) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	if c.audit != nil {
		c.audit.Close()
	}
}
