package shopauth

import (
	"errors"
	"net/http"

	"github.com/proshophq/shopauth/assertion"
	"github.com/proshophq/shopauth/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles a Client. Configure it during initialization, call
// Build once, and discard it; a Builder is not safe for reuse.
type Builder struct {
	config Config
	redis  *redis.Client

	httpClient *http.Client
	store      session.Store
	auditSink  AuditSink

	built bool
}

// New returns a Builder seeded with defaults.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration tree. The config is cloned,
// so later mutation of cfg does not leak into the built Client.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithBaseURL sets the backend origin, overriding any configured value.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.API.BaseURL = baseURL
	return b
}

// WithHTTPClient supplies the underlying HTTP client. A cookie jar is
// attached on Build if the client has none.
func (b *Builder) WithHTTPClient(hc *http.Client) *Builder {
	b.httpClient = hc
	return b
}

// WithRedis backs the session store with Redis so a resumed session is
// visible across gateway replicas.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithSessionStore supplies an explicit session store, taking precedence
// over both Redis and the in-memory default.
func (b *Builder) WithSessionStore(store session.Store) *Builder {
	b.store = store
	return b
}

// WithAuditSink attaches a sink for authentication audit events and
// enables audit emission. Buffering is tuned through Config.Audit.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles counter collection.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the verification latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the Client.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// -------- TRANSPORT --------
	api, err := newAPIClient(cfg.API, b.httpClient)
	if err != nil {
		return nil, err
	}

	// -------- SESSION STORE --------
	store := b.store
	if store == nil {
		if b.redis != nil {
			store = session.NewRedisStore(
				b.redis,
				cfg.Session.RedisPrefix,
				cfg.Session.RedisKey,
				cfg.Session.TTL,
			)
		} else {
			store = session.NewMemoryStore()
		}
	}

	// -------- AUDIT --------
	// A supplied sink turns audit on; there is no reason to attach one
	// otherwise.
	if b.auditSink != nil {
		cfg.Audit.Enabled = true
	}

	client := &Client{
		config:   &cfg,
		api:      api,
		csrf:     newCSRFProvider(api, cfg.CSRF),
		sessions: store,
	}

	client.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	client.metrics = NewMetrics(cfg.Metrics)

	// -------- SESSION ASSERTIONS --------
	if cfg.Assertion.Enabled {
		am, err := assertion.NewManager(assertion.Config{
			TTL:           cfg.Assertion.TTL,
			SigningMethod: assertion.SigningMethod(cfg.Assertion.SigningMethod),
			PrivateKey:    cloneBytes(cfg.Assertion.PrivateKey),
			PublicKey:     cloneBytes(cfg.Assertion.PublicKey),
			Issuer:        cfg.Assertion.Issuer,
			Audience:      cfg.Assertion.Audience,
		})
		if err != nil {
			return nil, err
		}
		client.assertions = am
	}

	b.built = true

	return client, nil
}
