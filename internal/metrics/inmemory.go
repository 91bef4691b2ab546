package metrics

import "sync/atomic"

// Snapshot captures current in-memory counters.
type Snapshot struct {
	Registrations            uint64
	RegistrationsRateLimited uint64
	EmailsVerified           uint64
	AccountsDeleted          uint64
	WatchesCreated           uint64
	WatchesUpdated           uint64
	WatchesDeleted           uint64
	QuotaRejections          uint64
	AuthCacheHits            uint64
	AuthCacheMisses          uint64
	AuthFailures             uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	registrations            uint64
	registrationsRateLimited uint64
	emailsVerified           uint64
	accountsDeleted          uint64
	watchesCreated           uint64
	watchesUpdated           uint64
	watchesDeleted           uint64
	quotaRejections          uint64
	authCacheHits            uint64
	authCacheMisses          uint64
	authFailures             uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		Registrations:            atomic.LoadUint64(&m.registrations),
		RegistrationsRateLimited: atomic.LoadUint64(&m.registrationsRateLimited),
		EmailsVerified:           atomic.LoadUint64(&m.emailsVerified),
		AccountsDeleted:          atomic.LoadUint64(&m.accountsDeleted),
		WatchesCreated:           atomic.LoadUint64(&m.watchesCreated),
		WatchesUpdated:           atomic.LoadUint64(&m.watchesUpdated),
		WatchesDeleted:           atomic.LoadUint64(&m.watchesDeleted),
		QuotaRejections:          atomic.LoadUint64(&m.quotaRejections),
		AuthCacheHits:            atomic.LoadUint64(&m.authCacheHits),
		AuthCacheMisses:          atomic.LoadUint64(&m.authCacheMisses),
		AuthFailures:             atomic.LoadUint64(&m.authFailures),
	}
}

// IncRegistration increments the registration counter.
func (m *InMemoryRecorder) IncRegistration() {
	atomic.AddUint64(&m.registrations, 1)
}

// IncRegistrationRateLimited increments the rate-limited registration counter.
func (m *InMemoryRecorder) IncRegistrationRateLimited() {
	atomic.AddUint64(&m.registrationsRateLimited, 1)
}

// IncEmailVerified increments the verified-email counter.
func (m *InMemoryRecorder) IncEmailVerified() {
	atomic.AddUint64(&m.emailsVerified, 1)
}

// IncAccountDeleted increments the deleted-account counter.
func (m *InMemoryRecorder) IncAccountDeleted() {
	atomic.AddUint64(&m.accountsDeleted, 1)
}

// IncWatchCreated increments the created-watch counter.
func (m *InMemoryRecorder) IncWatchCreated() {
	atomic.AddUint64(&m.watchesCreated, 1)
}

// IncWatchUpdated increments the updated-watch counter.
func (m *InMemoryRecorder) IncWatchUpdated() {
	atomic.AddUint64(&m.watchesUpdated, 1)
}

// IncWatchDeleted increments the deleted-watch counter.
func (m *InMemoryRecorder) IncWatchDeleted() {
	atomic.AddUint64(&m.watchesDeleted, 1)
}

// IncQuotaRejected increments the quota-rejection counter.
func (m *InMemoryRecorder) IncQuotaRejected() {
	atomic.AddUint64(&m.quotaRejections, 1)
}

// IncAuthCacheHit increments the auth cache hit counter.
func (m *InMemoryRecorder) IncAuthCacheHit() {
	atomic.AddUint64(&m.authCacheHits, 1)
}

// IncAuthCacheMiss increments the auth cache miss counter.
func (m *InMemoryRecorder) IncAuthCacheMiss() {
	atomic.AddUint64(&m.authCacheMisses, 1)
}

// IncAuthFailure increments the auth failure counter.
func (m *InMemoryRecorder) IncAuthFailure() {
	atomic.AddUint64(&m.authFailures, 1)
}
