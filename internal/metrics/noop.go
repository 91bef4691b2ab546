package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncRegistration is a no-op.
func (n *NoopRecorder) IncRegistration() {}

// IncRegistrationRateLimited is a no-op.
func (n *NoopRecorder) IncRegistrationRateLimited() {}

// IncEmailVerified is a no-op.
func (n *NoopRecorder) IncEmailVerified() {}

// IncAccountDeleted is a no-op.
func (n *NoopRecorder) IncAccountDeleted() {}

// IncWatchCreated is a no-op.
func (n *NoopRecorder) IncWatchCreated() {}

// IncWatchUpdated is a no-op.
func (n *NoopRecorder) IncWatchUpdated() {}

// IncWatchDeleted is a no-op.
func (n *NoopRecorder) IncWatchDeleted() {}

// IncQuotaRejected is a no-op.
func (n *NoopRecorder) IncQuotaRejected() {}

// IncAuthCacheHit is a no-op.
func (n *NoopRecorder) IncAuthCacheHit() {}

// IncAuthCacheMiss is a no-op.
func (n *NoopRecorder) IncAuthCacheMiss() {}

// IncAuthFailure is a no-op.
func (n *NoopRecorder) IncAuthFailure() {}
