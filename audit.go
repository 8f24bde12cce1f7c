package vigil

import (
	"io"
	"log/slog"

	"github.com/vigil-auth/vigil/internal/audit"
)

// AuditEvent is the structured record emitted for every security-relevant
// engine operation.
type AuditEvent = audit.Event

// AuditSink receives emitted audit events.
type AuditSink = audit.Sink

// NoOpSink drops audit events.
type NoOpSink = audit.NoOpSink

// ChannelSink buffers audit events in a channel for consumption by the
// caller.
type ChannelSink = audit.ChannelSink

// JSONWriterSink writes one JSON object per line to an io.Writer.
type JSONWriterSink = audit.JSONWriterSink

// SlogSink forwards audit events to a structured logger.
type SlogSink = audit.SlogSink

func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	return audit.NewSlogSink(logger)
}

const (
	auditEventPairIssued               = "pair_issued"
	auditEventAuthenticateSuccess      = "authenticate_success"
	auditEventAuthenticateFailure      = "authenticate_failure"
	auditEventRefreshSuccess           = "refresh_success"
	auditEventRefreshFailure           = "refresh_failure"
	auditEventRefreshReplayBlocked     = "refresh_replay_blocked"
	auditEventEmailVerificationRequest = "email_verification_request"
	auditEventEmailVerificationConfirm = "email_verification_confirm"
	auditEventPasswordResetRequest     = "password_reset_request"
	auditEventPasswordResetConfirm     = "password_reset_confirm"
	auditEventTokenRevoked             = "token_revoked"
	auditEventSweep                    = "revocation_sweep"
)
