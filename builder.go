package vigil

import (
	"errors"
	"log/slog"

	"github.com/vigil-auth/vigil/mailer"
	"github.com/vigil-auth/vigil/revocation"
)

// Builder assembles an [Engine]. Builders are single-use: Build returns an
// error on the second call.
type Builder struct {
	config Config

	principals  PrincipalStore
	revocations revocation.Store
	mail        mailer.Mailer
	auditSink   AuditSink
	logger      *slog.Logger

	built bool
}

// New starts a builder with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

func (b *Builder) WithSecret(secret string) *Builder {
	b.config.JWT.Secret = secret
	return b
}

// WithPrincipalStore sets the account backend. Required.
func (b *Builder) WithPrincipalStore(store PrincipalStore) *Builder {
	b.principals = store
	return b
}

// WithRevocationStore sets the blacklist backend. Required.
func (b *Builder) WithRevocationStore(store revocation.Store) *Builder {
	b.revocations = store
	return b
}

// WithMailer sets the delivery transport for verification and reset
// emails. Ignored unless Config.Mail.Enabled is true.
func (b *Builder) WithMailer(m mailer.Mailer) *Builder {
	b.mail = m
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the logger for engine warnings and the slog audit
// fallback. Defaults to slog.Default.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and constructs the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	if b.principals == nil {
		return nil, errors.New("vigil: principal store is required")
	}
	if b.revocations == nil {
		return nil, errors.New("vigil: revocation store is required")
	}
	if err := b.config.validate(); err != nil {
		return nil, err
	}

	engine, err := newEngine(b)
	if err != nil {
		return nil, err
	}

	b.built = true
	return engine, nil
}
