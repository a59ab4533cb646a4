package models

type MetricName string

// Counts
const (
	MetricName_PlaybackInfoResolved MetricName = "playback_info_resolved"
	MetricName_PlaybackInfoFailed   MetricName = "playback_info_failed"
	MetricName_CredentialSigned     MetricName = "credential_signed"
	MetricName_CredentialCacheHit   MetricName = "credential_cache_hit"
	MetricName_CredentialShared     MetricName = "credential_shared"
	MetricName_CredentialFailed     MetricName = "credential_failed"
	MetricName_TokenExchanged       MetricName = "token_exchanged"
	MetricName_TokenExchangeFailed  MetricName = "token_exchange_failed"
	MetricName_VerificationAccepted MetricName = "verification_accepted"
	MetricName_VerificationRejected MetricName = "verification_rejected"
	MetricName_GateCheckStarted     MetricName = "gate_check_started"
	MetricName_GateOpen             MetricName = "gate_open"
	MetricName_GateClosed           MetricName = "gate_closed"
	MetricName_GateStaleResult      MetricName = "gate_stale_result"
	MetricName_UploadRequested      MetricName = "upload_requested"
	MetricName_AssetReady           MetricName = "asset_ready"
)

// Distributions
const (
	MetricName_GateCheckDurationMs MetricName = "gate_check_duration_ms"
)
