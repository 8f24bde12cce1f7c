package vigil

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/vigil-auth/vigil/internal/audit"
	"github.com/vigil-auth/vigil/mailer"
	"github.com/vigil-auth/vigil/password"
	"github.com/vigil-auth/vigil/revocation"
	"github.com/vigil-auth/vigil/token"
)

// Engine is the credential subsystem's single entry point. Construct it
// through [New]; the zero value is not usable. All methods are safe for
// concurrent use.
type Engine struct {
	config      Config
	principals  PrincipalStore
	revocations revocation.Store
	codec       *token.Codec
	issuer      *token.Issuer
	hasher      *password.Argon2
	mail        mailer.Mailer
	audit       *audit.Dispatcher
	metrics     *Metrics
	logger      *slog.Logger
	now         func() time.Time

	sweepStop chan struct{}
	sweepWG   sync.WaitGroup
	closeOnce sync.Once
}

func newEngine(b *Builder) (*Engine, error) {
	cfg := b.config

	codec, err := token.NewCodec(token.Config{
		Secret:    cfg.JWT.Secret,
		Algorithm: cfg.JWT.SigningMethod,
	})
	if err != nil {
		return nil, err
	}

	issuer, err := token.NewIssuer(codec, token.TTLs{
		Access:            cfg.JWT.AccessTTL,
		Refresh:           cfg.JWT.RefreshTTL,
		EmailVerification: cfg.JWT.EmailVerificationTTL,
		PasswordReset:     cfg.JWT.PasswordResetTTL,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	mail := b.mail
	if mail == nil {
		mail = mailer.NoOp{}
	}

	sink := b.auditSink
	if sink == nil {
		sink = audit.NewSlogSink(logger)
	}

	e := &Engine{
		config:      cfg,
		principals:  b.principals,
		revocations: b.revocations,
		codec:       codec,
		issuer:      issuer,
		hasher:      hasher,
		mail:        mail,
		audit:       audit.NewDispatcher(cfg.Audit, sink),
		metrics:     NewMetrics(cfg.Metrics),
		logger:      logger,
		now:         time.Now,
	}

	if cfg.Revocation.SweepInterval > 0 {
		e.sweepStop = make(chan struct{})
		e.sweepWG.Add(1)
		go e.sweepLoop(cfg.Revocation.SweepInterval)
	}

	return e, nil
}

// Close stops the background sweeper and drains the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.closeOnce.Do(func() {
		if e.sweepStop != nil {
			close(e.sweepStop)
			e.sweepWG.Wait()
		}
		e.audit.Close()
	})
}

// Sweep removes expired blacklist entries and returns how many were
// deleted. Redis-backed stores prune via key TTLs and report zero.
func (e *Engine) Sweep(ctx context.Context) (int, error) {
	if e == nil {
		return 0, ErrEngineNotReady
	}
	deleted, err := e.revocations.Sweep(ctx, e.now())
	if err != nil {
		e.emitAudit(ctx, auditEventSweep, false, "", "", ErrStoreUnavailable, nil)
		return 0, withStatus(http.StatusInternalServerError, ErrStoreUnavailable)
	}
	e.metrics.Add(MetricSweepDeleted, uint64(deleted))
	e.emitAudit(ctx, auditEventSweep, true, "", "", nil, map[string]string{
		"deleted": strconv.Itoa(deleted),
	})
	return deleted, nil
}

func (e *Engine) sweepLoop(interval time.Duration) {
	defer e.sweepWG.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := e.Sweep(context.Background()); err != nil {
				e.warn("blacklist sweep failed", "error", err)
			}
		case <-e.sweepStop:
			return
		}
	}
}

// RevokeToken places a token on the blacklist ahead of its natural expiry.
// It accepts refresh, email verification, and password reset tokens;
// access tokens are stateless and cannot be revoked. Revoking an
// already-revoked token succeeds without changing the stored record.
func (e *Engine) RevokeToken(ctx context.Context, rawToken string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	cs, err := e.codec.Decode(rawToken)
	if err != nil {
		e.emitAudit(ctx, auditEventTokenRevoked, false, "", "", ErrTokenInvalid, nil)
		return ErrTokenInvalid
	}
	if cs.TokenPurpose() == token.PurposeAccess {
		e.emitAudit(ctx, auditEventTokenRevoked, false, cs.SubjectID(), string(token.PurposeAccess), ErrWrongTokenType, nil)
		return ErrWrongTokenType
	}

	if _, err := e.revocations.Revoke(ctx, rawToken, cs.TokenPurpose(), cs.Expiry(), true); err != nil {
		e.emitAudit(ctx, auditEventTokenRevoked, false, cs.SubjectID(), string(cs.TokenPurpose()), ErrStoreUnavailable, nil)
		return withStatus(http.StatusInternalServerError, ErrStoreUnavailable)
	}

	e.metrics.Inc(MetricTokenRevoked)
	e.emitAudit(ctx, auditEventTokenRevoked, true, cs.SubjectID(), string(cs.TokenPurpose()), nil, nil)
	return nil
}

// AuditDropped reports how many audit events were shed under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the engine counters for exporters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	subject string,
	purpose string,
	err error,
	metadata map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		Subject:   subject,
		Purpose:   purpose,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if err != nil {
		event.Error = err.Error()
	}

	e.audit.Emit(ctx, event)
}

func (e *Engine) warn(msg string, args ...any) {
	if e == nil || e.logger == nil {
		return
	}
	e.logger.Warn("vigil: "+msg, args...)
}

// resolvePrincipal adapts the caller's store to the subject strings
// carried in token claims. A subject that does not parse as an int64
// counts as not found, matching a deleted or foreign account.
func (e *Engine) resolvePrincipal(ctx context.Context, subject string) (Principal, bool, error) {
	id, err := parseSubject(subject)
	if err != nil {
		return Principal{}, false, nil
	}
	return e.principals.FindByID(ctx, id)
}
