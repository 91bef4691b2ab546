//go:build integration

package repository_test

import (
	"errors"
	"testing"
	"time"

	"github.com/arkforge/arkwatch/internal/model"
	"github.com/arkforge/arkwatch/internal/repository"
	"github.com/arkforge/arkwatch/internal/testutil"
)

func TestIntegrationWatchRepository_CreateWithinQuota(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	acc := testutil.NewTestAccount(t, testutil.UniqueEmail("watch"))
	if err := repo.CreateAccount(ctx, acc); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	w := testutil.NewTestWatch(t, acc.ID)
	if err := repo.CreateWatchWithinQuota(ctx, w, 3); err != nil {
		t.Fatalf("CreateWatchWithinQuota failed: %v", err)
	}

	retrieved, err := repo.GetWatch(ctx, w.ID, acc.ID)
	if err != nil {
		t.Fatalf("GetWatch failed: %v", err)
	}
	if retrieved.URL != w.URL {
		t.Errorf("URL mismatch: got %q, want %q", retrieved.URL, w.URL)
	}
	if retrieved.Status() != model.WatchStatusActive {
		t.Errorf("Status = %q, want %q", retrieved.Status(), model.WatchStatusActive)
	}
}

func TestIntegrationWatchRepository_QuotaEnforced(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	acc := testutil.NewTestAccount(t, testutil.UniqueEmail("quota"))
	if err := repo.CreateAccount(ctx, acc); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		w := testutil.NewTestWatch(t, acc.ID)
		w.ID = testutil.UniqueID("watch")
		if err := repo.CreateWatchWithinQuota(ctx, w, 2); err != nil {
			t.Fatalf("CreateWatchWithinQuota %d failed: %v", i, err)
		}
	}

	over := testutil.NewTestWatch(t, acc.ID)
	over.ID = testutil.UniqueID("watch")
	if err := repo.CreateWatchWithinQuota(ctx, over, 2); !errors.Is(err, repository.ErrQuotaExceeded) {
		t.Errorf("Expected ErrQuotaExceeded, got: %v", err)
	}
}

func TestIntegrationWatchRepository_DeletedWatchFreesQuota(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	acc := testutil.NewTestAccount(t, testutil.UniqueEmail("requota"))
	if err := repo.CreateAccount(ctx, acc); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	w := testutil.NewTestWatch(t, acc.ID)
	if err := repo.CreateWatchWithinQuota(ctx, w, 1); err != nil {
		t.Fatalf("CreateWatchWithinQuota failed: %v", err)
	}
	if err := repo.SoftDeleteWatch(ctx, w.ID, acc.ID); err != nil {
		t.Fatalf("SoftDeleteWatch failed: %v", err)
	}

	replacement := testutil.NewTestWatch(t, acc.ID)
	replacement.ID = testutil.UniqueID("watch")
	if err := repo.CreateWatchWithinQuota(ctx, replacement, 1); err != nil {
		t.Errorf("CreateWatchWithinQuota after delete failed: %v", err)
	}
}

func TestIntegrationWatchRepository_CreateUnknownOwner(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	w := testutil.NewTestWatch(t, "missing-owner")
	if err := repo.CreateWatchWithinQuota(ctx, w, 3); !errors.Is(err, repository.ErrAccountNotFound) {
		t.Errorf("Expected ErrAccountNotFound, got: %v", err)
	}
}

func TestIntegrationWatchRepository_GetScopedToOwner(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	owner := testutil.NewTestAccount(t, testutil.UniqueEmail("owner"))
	if err := repo.CreateAccount(ctx, owner); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	other := testutil.NewTestAccount(t, testutil.UniqueEmail("other"))
	other.ID = testutil.UniqueID("acct")
	if err := repo.CreateAccount(ctx, other); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	w := testutil.NewTestWatch(t, owner.ID)
	if err := repo.CreateWatchWithinQuota(ctx, w, 3); err != nil {
		t.Fatalf("CreateWatchWithinQuota failed: %v", err)
	}

	if _, err := repo.GetWatch(ctx, w.ID, other.ID); !errors.Is(err, repository.ErrWatchNotFound) {
		t.Errorf("Expected ErrWatchNotFound for non-owner, got: %v", err)
	}
	if _, err := repo.GetWatch(ctx, "missing", owner.ID); !errors.Is(err, repository.ErrWatchNotFound) {
		t.Errorf("Expected ErrWatchNotFound for missing id, got: %v", err)
	}
}

func TestIntegrationWatchRepository_ListNewestFirst(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	acc := testutil.NewTestAccount(t, testutil.UniqueEmail("list"))
	if err := repo.CreateAccount(ctx, acc); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	ids := make([]string, 3)
	for i := range ids {
		w := testutil.NewTestWatch(t, acc.ID)
		w.ID = testutil.UniqueID("watch")
		w.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Second)
		ids[i] = w.ID
		if err := repo.CreateWatchWithinQuota(ctx, w, 10); err != nil {
			t.Fatalf("CreateWatchWithinQuota failed: %v", err)
		}
	}

	watches, err := repo.ListWatchesByOwner(ctx, acc.ID, "")
	if err != nil {
		t.Fatalf("ListWatchesByOwner failed: %v", err)
	}
	if len(watches) != 3 {
		t.Fatalf("got %d watches, want 3", len(watches))
	}
	if watches[0].ID != ids[2] {
		t.Errorf("first watch = %q, want newest %q", watches[0].ID, ids[2])
	}
}

func TestIntegrationWatchRepository_ListStatusFilter(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	acc := testutil.NewTestAccount(t, testutil.UniqueEmail("filter"))
	if err := repo.CreateAccount(ctx, acc); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	active := testutil.NewTestWatch(t, acc.ID)
	active.ID = testutil.UniqueID("watch")
	if err := repo.CreateWatchWithinQuota(ctx, active, 10); err != nil {
		t.Fatalf("CreateWatchWithinQuota failed: %v", err)
	}

	paused := testutil.NewTestWatch(t, acc.ID)
	paused.ID = testutil.UniqueID("watch")
	paused.RawStatus = model.WatchStatusPaused
	if err := repo.CreateWatchWithinQuota(ctx, paused, 10); err != nil {
		t.Fatalf("CreateWatchWithinQuota failed: %v", err)
	}

	got, err := repo.ListWatchesByOwner(ctx, acc.ID, model.WatchStatusPaused)
	if err != nil {
		t.Fatalf("ListWatchesByOwner failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != paused.ID {
		t.Errorf("paused filter returned %d watches, want the paused one", len(got))
	}
}

func TestIntegrationWatchRepository_Update(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	acc := testutil.NewTestAccount(t, testutil.UniqueEmail("updatew"))
	if err := repo.CreateAccount(ctx, acc); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	w := testutil.NewTestWatch(t, acc.ID)
	if err := repo.CreateWatchWithinQuota(ctx, w, 3); err != nil {
		t.Fatalf("CreateWatchWithinQuota failed: %v", err)
	}

	w.Name = "Renamed"
	w.CheckInterval = 7200
	w.RawStatus = model.WatchStatusPaused
	if err := repo.UpdateWatch(ctx, w); err != nil {
		t.Fatalf("UpdateWatch failed: %v", err)
	}

	retrieved, err := repo.GetWatch(ctx, w.ID, acc.ID)
	if err != nil {
		t.Fatalf("GetWatch failed: %v", err)
	}
	if retrieved.Name != "Renamed" {
		t.Errorf("Name = %q, want %q", retrieved.Name, "Renamed")
	}
	if retrieved.CheckInterval != 7200 {
		t.Errorf("CheckInterval = %d, want 7200", retrieved.CheckInterval)
	}
	if retrieved.Status() != model.WatchStatusPaused {
		t.Errorf("Status = %q, want %q", retrieved.Status(), model.WatchStatusPaused)
	}
}

func TestIntegrationWatchRepository_SoftDelete(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	acc := testutil.NewTestAccount(t, testutil.UniqueEmail("softdel"))
	if err := repo.CreateAccount(ctx, acc); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	w := testutil.NewTestWatch(t, acc.ID)
	if err := repo.CreateWatchWithinQuota(ctx, w, 3); err != nil {
		t.Fatalf("CreateWatchWithinQuota failed: %v", err)
	}

	if err := repo.SoftDeleteWatch(ctx, w.ID, acc.ID); err != nil {
		t.Fatalf("SoftDeleteWatch failed: %v", err)
	}

	if _, err := repo.GetWatch(ctx, w.ID, acc.ID); !errors.Is(err, repository.ErrWatchNotFound) {
		t.Errorf("Expected ErrWatchNotFound after delete, got: %v", err)
	}

	// Repeat delete is not found
	if err := repo.SoftDeleteWatch(ctx, w.ID, acc.ID); !errors.Is(err, repository.ErrWatchNotFound) {
		t.Errorf("Expected ErrWatchNotFound on repeat delete, got: %v", err)
	}
}

func TestIntegrationWatchRepository_ListAllIncludesSoftDeleted(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	acc := testutil.NewTestAccount(t, testutil.UniqueEmail("listall"))
	if err := repo.CreateAccount(ctx, acc); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	kept := testutil.NewTestWatch(t, acc.ID)
	if err := repo.CreateWatchWithinQuota(ctx, kept, 3); err != nil {
		t.Fatalf("CreateWatchWithinQuota failed: %v", err)
	}

	removed := testutil.NewTestWatch(t, acc.ID)
	removed.ID = testutil.UniqueID("watch")
	if err := repo.CreateWatchWithinQuota(ctx, removed, 3); err != nil {
		t.Fatalf("CreateWatchWithinQuota failed: %v", err)
	}
	if err := repo.SoftDeleteWatch(ctx, removed.ID, acc.ID); err != nil {
		t.Fatalf("SoftDeleteWatch failed: %v", err)
	}

	live, err := repo.ListWatchesByOwner(ctx, acc.ID, "")
	if err != nil {
		t.Fatalf("ListWatchesByOwner failed: %v", err)
	}
	if len(live) != 1 {
		t.Fatalf("Expected 1 live watch, got %d", len(live))
	}

	all, err := repo.ListAllWatchesByOwner(ctx, acc.ID)
	if err != nil {
		t.Fatalf("ListAllWatchesByOwner failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 watches including deleted, got %d", len(all))
	}

	statuses := map[string]model.WatchStatus{}
	for _, w := range all {
		statuses[w.ID] = w.Status()
	}
	if statuses[kept.ID] != model.WatchStatusActive {
		t.Errorf("Status = %q, want %q", statuses[kept.ID], model.WatchStatusActive)
	}
	if statuses[removed.ID] != model.WatchStatusDeleted {
		t.Errorf("Status = %q, want %q", statuses[removed.ID], model.WatchStatusDeleted)
	}
}
