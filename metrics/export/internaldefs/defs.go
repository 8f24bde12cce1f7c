package internaldefs

import (
	vigil "github.com/vigil-auth/vigil"
)

// CounterDef binds a MetricID to its exposition name and help text.
type CounterDef struct {
	ID   vigil.MetricID
	Name string
	Help string
}

// HistogramDef binds a histogram MetricID to its exposition name and help text.
type HistogramDef struct {
	ID   vigil.MetricID
	Name string
	Help string
}

// CounterDefs lists every engine counter in render order.
var CounterDefs = []CounterDef{
	{ID: vigil.MetricPairIssued, Name: "vigil_pair_issued_total", Help: "Access/refresh token pairs issued."},
	{ID: vigil.MetricAuthenticateSuccess, Name: "vigil_authenticate_success_total", Help: "Access tokens accepted."},
	{ID: vigil.MetricAuthenticateFailure, Name: "vigil_authenticate_failure_total", Help: "Access tokens rejected."},
	{ID: vigil.MetricRefreshSuccess, Name: "vigil_refresh_success_total", Help: "Completed refresh exchanges."},
	{ID: vigil.MetricRefreshFailure, Name: "vigil_refresh_failure_total", Help: "Rejected refresh exchanges."},
	{ID: vigil.MetricRefreshReplayBlocked, Name: "vigil_refresh_replay_blocked_total", Help: "Refresh tokens replayed after exchange or revocation."},
	{ID: vigil.MetricRefreshAccessStillValid, Name: "vigil_refresh_access_still_valid_total", Help: "Refresh attempts rejected while the access token was still valid."},
	{ID: vigil.MetricEmailVerificationRequest, Name: "vigil_email_verification_request_total", Help: "Email verification tokens issued."},
	{ID: vigil.MetricEmailVerificationSuccess, Name: "vigil_email_verification_success_total", Help: "Successful email verifications."},
	{ID: vigil.MetricEmailVerificationFailure, Name: "vigil_email_verification_failure_total", Help: "Failed email verifications."},
	{ID: vigil.MetricPasswordResetRequest, Name: "vigil_password_reset_request_total", Help: "Password reset tokens issued."},
	{ID: vigil.MetricPasswordResetSuccess, Name: "vigil_password_reset_success_total", Help: "Completed password resets."},
	{ID: vigil.MetricPasswordResetFailure, Name: "vigil_password_reset_failure_total", Help: "Failed password resets."},
	{ID: vigil.MetricTokenRevoked, Name: "vigil_token_revoked_total", Help: "Manual token revocations."},
	{ID: vigil.MetricSweepDeleted, Name: "vigil_sweep_deleted_total", Help: "Expired blacklist entries removed by sweeps."},
}

// HistogramDefs lists every engine histogram in render order.
var HistogramDefs = []HistogramDef{
	{ID: vigil.MetricAuthenticateLatency, Name: "vigil_authenticate_latency_seconds", Help: "Authenticate latency histogram."},
}

// HistogramBounds are the upper bucket bounds, as rendered in le labels.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// NormalizeBuckets pads or truncates a raw bucket slice to the fixed width.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to the cumulative form
// Prometheus histograms expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
