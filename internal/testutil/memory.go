package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/arkforge/arkwatch/internal/cache"
	"github.com/arkforge/arkwatch/internal/model"
	"github.com/arkforge/arkwatch/internal/repository"
)

// MemoryStore is an in-memory stand-in for the Postgres repository.
// It returns the same sentinel errors, so services behave identically
// against it. Safe for concurrent use; the single mutex also serializes
// quota check-then-insert the way the row lock does in Postgres.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[string]*model.Account // keyed by account ID
	watches  map[string]*model.Watch   // keyed by watch ID
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]*model.Account),
		watches:  make(map[string]*model.Watch),
	}
}

func copyAccount(acc *model.Account) *model.Account {
	cp := *acc
	return &cp
}

func copyWatch(w *model.Watch) *model.Watch {
	cp := *w
	return &cp
}

// CreateAccount stores a new account, enforcing email uniqueness.
func (s *MemoryStore) CreateAccount(ctx context.Context, acc *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if existing.Email == acc.Email {
			return repository.ErrEmailExists
		}
	}

	s.accounts[acc.ID] = copyAccount(acc)
	return nil
}

// GetAccountByID returns the account or ErrAccountNotFound.
func (s *MemoryStore) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	return copyAccount(acc), nil
}

// GetAccountByEmail returns the account or ErrAccountNotFound.
func (s *MemoryStore) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, acc := range s.accounts {
		if acc.Email == email {
			return copyAccount(acc), nil
		}
	}
	return nil, repository.ErrAccountNotFound
}

// GetAccountsByKeyPrefix returns all accounts sharing a key prefix.
func (s *MemoryStore) GetAccountsByKeyPrefix(ctx context.Context, prefix string) ([]*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*model.Account
	for _, acc := range s.accounts {
		if acc.KeyPrefix == prefix {
			out = append(out, copyAccount(acc))
		}
	}
	return out, nil
}

// UpdateAccountFields applies a partial update with the same field
// whitelist as the repository.
func (s *MemoryStore) UpdateAccountFields(ctx context.Context, id string, fields map[string]string) error {
	if len(fields) == 0 {
		return repository.ErrNoFields
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return repository.ErrAccountNotFound
	}

	for k, v := range fields {
		switch k {
		case "name":
			acc.Name = v
		default:
			return repository.ErrNoFields
		}
	}
	acc.UpdatedAt = time.Now().UTC()
	return nil
}

// SetVerificationCode replaces the pending code for an unverified account.
func (s *MemoryStore) SetVerificationCode(ctx context.Context, id, codeHash string, expires time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok || acc.Verified {
		return repository.ErrAccountNotFound
	}

	acc.VerificationHash = &codeHash
	acc.VerificationExp = &expires
	acc.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkVerified flags the account verified and clears the pending code.
func (s *MemoryStore) MarkVerified(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return repository.ErrAccountNotFound
	}

	acc.Verified = true
	acc.VerificationHash = nil
	acc.VerificationExp = nil
	acc.UpdatedAt = time.Now().UTC()
	return nil
}

// IncrementRequestsCount bumps the per-account request counter.
func (s *MemoryStore) IncrementRequestsCount(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if acc, ok := s.accounts[id]; ok {
		acc.RequestsCount++
	}
	return nil
}

// DeleteAccountData removes the account and every watch it owns.
func (s *MemoryStore) DeleteAccountData(ctx context.Context, id string) (*repository.DeletionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return nil, repository.ErrAccountNotFound
	}

	var deleted int64
	for watchID, w := range s.watches {
		if w.OwnerID == id {
			delete(s.watches, watchID)
			deleted++
		}
	}
	delete(s.accounts, id)

	return &repository.DeletionResult{WatchesDeleted: deleted}, nil
}

// CreateWatchWithinQuota inserts a watch unless the owner is at its ceiling.
// The mutex makes count-then-insert atomic, mirroring the production row lock.
func (s *MemoryStore) CreateWatchWithinQuota(ctx context.Context, watch *model.Watch, maxWatches int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[watch.OwnerID]; !ok {
		return repository.ErrAccountNotFound
	}

	count := 0
	for _, w := range s.watches {
		if w.OwnerID == watch.OwnerID && w.DeletedAt == nil {
			count++
		}
	}
	if count >= maxWatches {
		return repository.ErrQuotaExceeded
	}

	s.watches[watch.ID] = copyWatch(watch)
	return nil
}

// GetWatch returns a live watch owned by ownerID, or ErrWatchNotFound.
func (s *MemoryStore) GetWatch(ctx context.Context, id, ownerID string) (*model.Watch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.watches[id]
	if !ok || w.OwnerID != ownerID || w.DeletedAt != nil {
		return nil, repository.ErrWatchNotFound
	}
	return copyWatch(w), nil
}

// ListWatchesByOwner returns live watches for an owner, newest first.
func (s *MemoryStore) ListWatchesByOwner(ctx context.Context, ownerID string, status model.WatchStatus) ([]*model.Watch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*model.Watch
	for _, w := range s.watches {
		if w.OwnerID != ownerID || w.DeletedAt != nil {
			continue
		}
		if status != "" && w.RawStatus != status {
			continue
		}
		out = append(out, copyWatch(w))
	}

	// Newest first, matching the repository ORDER BY
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.After(out[i].CreatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}

	return out, nil
}

// ListAllWatchesByOwner returns every watch for an owner, soft-deleted rows
// included, newest first.
func (s *MemoryStore) ListAllWatchesByOwner(ctx context.Context, ownerID string) ([]*model.Watch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*model.Watch
	for _, w := range s.watches {
		if w.OwnerID != ownerID {
			continue
		}
		out = append(out, copyWatch(w))
	}

	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.After(out[i].CreatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}

	return out, nil
}

// UpdateWatch replaces a live watch owned by its OwnerID.
func (s *MemoryStore) UpdateWatch(ctx context.Context, watch *model.Watch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.watches[watch.ID]
	if !ok || existing.OwnerID != watch.OwnerID || existing.DeletedAt != nil {
		return repository.ErrWatchNotFound
	}

	s.watches[watch.ID] = copyWatch(watch)
	return nil
}

// SoftDeleteWatch marks a watch deleted without removing the row.
func (s *MemoryStore) SoftDeleteWatch(ctx context.Context, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.watches[id]
	if !ok || w.OwnerID != ownerID || w.DeletedAt != nil {
		return repository.ErrWatchNotFound
	}

	now := time.Now().UTC()
	w.DeletedAt = &now
	w.UpdatedAt = now
	return nil
}

// CountWatches returns the number of live watches an owner holds.
// Test-only helper, not part of any store contract.
func (s *MemoryStore) CountWatches(ownerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, w := range s.watches {
		if w.OwnerID == ownerID && w.DeletedAt == nil {
			count++
		}
	}
	return count
}

// ============================================================================
// Rate limiter fake
// ============================================================================

type window struct {
	count   int64
	resetAt time.Time
}

// MemoryLimiter is an in-memory fixed-window limiter for tests.
// Now is injectable so tests can advance time past a window boundary.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window

	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
}

// NewMemoryLimiter creates an empty MemoryLimiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]*window),
		Now:     time.Now,
	}
}

func (l *MemoryLimiter) check(key string, limit int64, span time.Duration) *cache.WindowResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.Now()
	w, ok := l.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &window{resetAt: now.Add(span)}
		l.windows[key] = w
	}

	if w.count >= limit {
		return &cache.WindowResult{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: w.resetAt.Sub(now),
		}
	}

	w.count++
	return &cache.WindowResult{
		Allowed:   true,
		Remaining: limit - w.count,
	}
}

// AllowRegistration consumes a registration slot for an IP.
func (l *MemoryLimiter) AllowRegistration(ctx context.Context, ip string) (*cache.WindowResult, error) {
	return l.check("register:"+ip, cache.RegistrationLimit, cache.RegistrationWindow), nil
}

// AllowVerification consumes a verification attempt for an email.
func (l *MemoryLimiter) AllowVerification(ctx context.Context, email string) (*cache.WindowResult, error) {
	return l.check("verify:"+email, cache.VerifyLimit, cache.VerifyWindow), nil
}

// ResetVerification clears the verification window for an email.
func (l *MemoryLimiter) ResetVerification(ctx context.Context, email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, "verify:"+email)
	return nil
}

// ============================================================================
// Auth cache fake
// ============================================================================

// MemoryAuthCache is an in-memory auth context cache for tests.
// It keeps the same reverse index as the Redis implementation so
// InvalidateAccountAuth works the same way.
type MemoryAuthCache struct {
	mu       sync.Mutex
	contexts map[string]*model.AuthContext // cacheKey -> ctx
	index    map[string]string             // accountID -> cacheKey

	Invalidations []string // account IDs, in call order
}

// NewMemoryAuthCache creates an empty MemoryAuthCache.
func NewMemoryAuthCache() *MemoryAuthCache {
	return &MemoryAuthCache{
		contexts: make(map[string]*model.AuthContext),
		index:    make(map[string]string),
	}
}

// GetAuthContext returns a cached context or (nil, nil) on miss.
func (c *MemoryAuthCache) GetAuthContext(ctx context.Context, cacheKey string) (*model.AuthContext, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	auth, ok := c.contexts[cacheKey]
	if !ok {
		return nil, nil
	}
	cp := *auth
	return &cp, nil
}

// SetAuthContext caches a context and records the reverse index entry.
func (c *MemoryAuthCache) SetAuthContext(ctx context.Context, cacheKey string, auth *model.AuthContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cp := *auth
	c.contexts[cacheKey] = &cp
	c.index[auth.AccountID] = cacheKey
	return nil
}

// InvalidateAccountAuth drops the cached context for an account.
func (c *MemoryAuthCache) InvalidateAccountAuth(ctx context.Context, accountID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Invalidations = append(c.Invalidations, accountID)
	if key, ok := c.index[accountID]; ok {
		delete(c.contexts, key)
		delete(c.index, accountID)
	}
	return nil
}

// ============================================================================
// Mailer fake
// ============================================================================

// SentMail records one delivery made through the RecorderMailer.
type SentMail struct {
	Kind  string // "verification" or "welcome"
	Email string
	Name  string
	Code  string // verification code, empty for welcome mail
}

// RecorderMailer captures outbound mail for assertions.
// Tests read the verification code from here to drive the verify flow.
type RecorderMailer struct {
	mu   sync.Mutex
	Sent []SentMail
}

// NewRecorderMailer creates an empty RecorderMailer.
func NewRecorderMailer() *RecorderMailer {
	return &RecorderMailer{}
}

// SendVerificationCode records a verification delivery.
func (m *RecorderMailer) SendVerificationCode(ctx context.Context, email, name, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentMail{Kind: "verification", Email: email, Name: name, Code: code})
	return nil
}

// SendWelcome records a welcome delivery.
func (m *RecorderMailer) SendWelcome(ctx context.Context, email, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentMail{Kind: "welcome", Email: email, Name: name})
	return nil
}

// LastCode returns the most recently mailed verification code for an email.
func (m *RecorderMailer) LastCode(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.Sent) - 1; i >= 0; i-- {
		if m.Sent[i].Kind == "verification" && m.Sent[i].Email == email {
			return m.Sent[i].Code
		}
	}
	return ""
}
