package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkforge/arkwatch/internal/model"
	"github.com/arkforge/arkwatch/internal/testutil"
)

const testPolicyURL = "https://arkwatch.dev/privacy"

type gdprFixture struct {
	svc      *GDPRService
	accounts *AccountService
	watches  *WatchService
	store    *testutil.MemoryStore
	authInv  *testutil.MemoryAuthCache
	mail     *testutil.RecorderMailer
}

func newGDPRFixture(t *testing.T) *gdprFixture {
	t.Helper()
	store := testutil.NewMemoryStore()
	limiter := testutil.NewMemoryLimiter()
	authInv := testutil.NewMemoryAuthCache()
	mail := testutil.NewRecorderMailer()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &gdprFixture{
		svc:      NewGDPRService(store, store, authInv, testPolicyURL, logger, nil),
		accounts: NewAccountService(store, limiter, true, authInv, mail, logger, nil),
		watches:  NewWatchService(store, nil),
		store:    store,
		authInv:  authInv,
		mail:     mail,
	}
}

func (f *gdprFixture) register(t *testing.T, email, ip string) *RegisterResult {
	t.Helper()
	result, err := f.accounts.Register(context.Background(), RegisterInput{
		Email:           email,
		Name:            "Ada Lovelace",
		PrivacyAccepted: true,
		ClientIP:        ip,
	})
	require.NoError(t, err)
	return result
}

func TestExportData(t *testing.T) {
	f := newGDPRFixture(t)
	ctx := context.Background()

	result := f.register(t, "ada@example.com", "10.0.0.1")

	for i := 0; i < 2; i++ {
		_, err := f.watches.CreateWatch(ctx, CreateWatchInput{
			OwnerID: result.Account.ID,
			Tier:    result.Account.Tier,
			URL:     "https://example.com/status",
			Name:    "Status page",
		})
		require.NoError(t, err)
	}

	export, err := f.svc.ExportData(ctx, result.Account.ID)
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", export.Account.Email)
	assert.Len(t, export.Watches, 2)
	assert.Equal(t, testPolicyURL, export.PrivacyPolicy)
	assert.Contains(t, export.Message, "GDPR Art. 15")
}

func TestExportData_IncludesSoftDeletedWatches(t *testing.T) {
	f := newGDPRFixture(t)
	ctx := context.Background()

	result := f.register(t, "ada@example.com", "10.0.0.1")

	kept, err := f.watches.CreateWatch(ctx, CreateWatchInput{
		OwnerID: result.Account.ID,
		Tier:    result.Account.Tier,
		URL:     "https://example.com/status",
		Name:    "Status page",
	})
	require.NoError(t, err)

	removed, err := f.watches.CreateWatch(ctx, CreateWatchInput{
		OwnerID: result.Account.ID,
		Tier:    result.Account.Tier,
		URL:     "https://example.com/login",
		Name:    "Login page",
	})
	require.NoError(t, err)
	require.NoError(t, f.watches.DeleteWatch(ctx, removed.ID, result.Account.ID))

	// The regular listing hides the deleted watch
	live, err := f.watches.ListWatches(ctx, result.Account.ID, "")
	require.NoError(t, err)
	require.Len(t, live, 1)

	// The export still holds its personal data, flagged as deleted
	export, err := f.svc.ExportData(ctx, result.Account.ID)
	require.NoError(t, err)
	require.Len(t, export.Watches, 2)

	statuses := map[string]model.WatchStatus{}
	for _, w := range export.Watches {
		statuses[w.ID] = w.Status()
	}
	assert.Equal(t, model.WatchStatusActive, statuses[kept.ID])
	assert.Equal(t, model.WatchStatusDeleted, statuses[removed.ID])
}

func TestExportData_NoWatches(t *testing.T) {
	f := newGDPRFixture(t)

	result := f.register(t, "ada@example.com", "10.0.0.1")

	export, err := f.svc.ExportData(context.Background(), result.Account.ID)
	require.NoError(t, err)

	// Empty slice, not null, in the JSON
	assert.NotNil(t, export.Watches)
	assert.Len(t, export.Watches, 0)
}

func TestExportData_UnknownAccount(t *testing.T) {
	f := newGDPRFixture(t)

	_, err := f.svc.ExportData(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestDeleteAccount_Cascades(t *testing.T) {
	f := newGDPRFixture(t)
	ctx := context.Background()

	result := f.register(t, "ada@example.com", "10.0.0.1")

	for i := 0; i < 3; i++ {
		_, err := f.watches.CreateWatch(ctx, CreateWatchInput{
			OwnerID: result.Account.ID,
			Tier:    result.Account.Tier,
			URL:     "https://example.com/status",
			Name:    "Status page",
		})
		require.NoError(t, err)
	}

	receipt, err := f.svc.DeleteAccount(ctx, result.Account.ID)
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", receipt.Email)
	assert.Equal(t, int64(3), receipt.WatchesDeleted)

	// Account and watches are gone, not soft-deleted
	_, err = f.svc.ExportData(ctx, result.Account.ID)
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.Equal(t, 0, f.store.CountWatches(result.Account.ID))

	// The cached auth context was dropped so the key dies immediately
	assert.Contains(t, f.authInv.Invalidations, result.Account.ID)
}

func TestDeleteAccount_FreesEmailForReRegistration(t *testing.T) {
	f := newGDPRFixture(t)
	ctx := context.Background()

	result := f.register(t, "ada@example.com", "10.0.0.1")

	_, err := f.svc.DeleteAccount(ctx, result.Account.ID)
	require.NoError(t, err)

	// Hard delete leaves no shadow row claiming the address
	again := f.register(t, "ada@example.com", "10.0.0.2")
	assert.NotEqual(t, result.Account.ID, again.Account.ID)
}

func TestDeleteAccount_UnknownAccount(t *testing.T) {
	f := newGDPRFixture(t)

	_, err := f.svc.DeleteAccount(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestDeleteAccount_Idempotence(t *testing.T) {
	f := newGDPRFixture(t)
	ctx := context.Background()

	result := f.register(t, "ada@example.com", "10.0.0.1")

	_, err := f.svc.DeleteAccount(ctx, result.Account.ID)
	require.NoError(t, err)

	// A second delete of the same account reports not found
	_, err = f.svc.DeleteAccount(ctx, result.Account.ID)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}
