package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkforge/arkwatch/internal/model"
)

func TestCreateWatchEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	authCtx, _ := f.register(t, "ada@example.com")

	rec := f.do(t, http.MethodPost, "/api/v1/watches",
		`{"url":"https://example.com/status","name":"Status page"}`, authCtx)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["id"])
	assert.Equal(t, "https://example.com/status", body["url"])
	assert.Equal(t, "active", body["status"])

	// Free tier floor applies to the default interval
	floor := model.LimitsForTier(model.TierFree).CheckIntervalMin
	assert.Equal(t, float64(floor), body["check_interval"])
}

func TestCreateWatchEndpoint_InvalidURL(t *testing.T) {
	f := newAPIFixture(t)
	authCtx, _ := f.register(t, "ada@example.com")

	rec := f.do(t, http.MethodPost, "/api/v1/watches",
		`{"url":"ftp://example.com","name":"Status page"}`, authCtx)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_URL", decodeBody(t, rec)["code"])
}

func TestCreateWatchEndpoint_QuotaExceeded(t *testing.T) {
	f := newAPIFixture(t)
	authCtx, _ := f.register(t, "ada@example.com")

	max := model.LimitsForTier(model.TierFree).MaxWatches
	for i := 0; i < max; i++ {
		rec := f.do(t, http.MethodPost, "/api/v1/watches",
			`{"url":"https://example.com/status","name":"Status page"}`, authCtx)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := f.do(t, http.MethodPost, "/api/v1/watches",
		`{"url":"https://example.com/status","name":"Status page"}`, authCtx)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "QUOTA_EXCEEDED", decodeBody(t, rec)["code"])
}

func TestListWatchesEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	authCtx, _ := f.register(t, "ada@example.com")

	rec := f.do(t, http.MethodPost, "/api/v1/watches",
		`{"url":"https://example.com/a","name":"A"}`, authCtx)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/v1/watches",
		`{"url":"https://example.com/b","name":"B"}`, authCtx)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/watches", "", authCtx)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(2), body["count"])
	assert.Len(t, body["data"], 2)
}

func TestListWatchesEndpoint_OwnerScoped(t *testing.T) {
	f := newAPIFixture(t)
	ada, _ := f.register(t, "ada@example.com")
	grace, _ := f.register(t, "grace@example.com")

	rec := f.do(t, http.MethodPost, "/api/v1/watches",
		`{"url":"https://example.com/a","name":"A"}`, ada)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/watches", "", grace)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decodeBody(t, rec)["count"])
}

func TestGetWatchEndpoint_NotOwnedLooksAbsent(t *testing.T) {
	f := newAPIFixture(t)
	ada, _ := f.register(t, "ada@example.com")
	grace, _ := f.register(t, "grace@example.com")

	rec := f.do(t, http.MethodPost, "/api/v1/watches",
		`{"url":"https://example.com/a","name":"A"}`, ada)
	require.Equal(t, http.StatusOK, rec.Code)
	watchID := decodeBody(t, rec)["id"].(string)

	// Owner sees it
	rec = f.do(t, http.MethodGet, "/api/v1/watches/"+watchID, "", ada)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Anyone else gets the same 404 as for a missing id
	rec = f.do(t, http.MethodGet, "/api/v1/watches/"+watchID, "", grace)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "WATCH_NOT_FOUND", decodeBody(t, rec)["code"])

	rec = f.do(t, http.MethodGet, "/api/v1/watches/does-not-exist", "", grace)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "WATCH_NOT_FOUND", decodeBody(t, rec)["code"])
}

func TestUpdateWatchEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	authCtx, _ := f.register(t, "ada@example.com")

	rec := f.do(t, http.MethodPost, "/api/v1/watches",
		`{"url":"https://example.com/a","name":"A"}`, authCtx)
	require.Equal(t, http.StatusOK, rec.Code)
	watchID := decodeBody(t, rec)["id"].(string)

	rec = f.do(t, http.MethodPatch, "/api/v1/watches/"+watchID,
		`{"name":"Renamed","status":"paused"}`, authCtx)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Renamed", body["name"])
	assert.Equal(t, "paused", body["status"])
	// URL untouched by the partial update
	assert.Equal(t, "https://example.com/a", body["url"])
}

func TestUpdateWatchEndpoint_URLImmutable(t *testing.T) {
	f := newAPIFixture(t)
	authCtx, _ := f.register(t, "ada@example.com")

	rec := f.do(t, http.MethodPost, "/api/v1/watches",
		`{"url":"https://example.com/a","name":"A"}`, authCtx)
	require.Equal(t, http.StatusOK, rec.Code)
	watchID := decodeBody(t, rec)["id"].(string)

	// A client-supplied url is ignored; the stored URL never changes
	rec = f.do(t, http.MethodPatch, "/api/v1/watches/"+watchID,
		`{"url":"https://evil.example.com/b","name":"Renamed"}`, authCtx)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Renamed", body["name"])
	assert.Equal(t, "https://example.com/a", body["url"])
}

func TestUpdateWatchEndpoint_InvalidStatus(t *testing.T) {
	f := newAPIFixture(t)
	authCtx, _ := f.register(t, "ada@example.com")

	rec := f.do(t, http.MethodPost, "/api/v1/watches",
		`{"url":"https://example.com/a","name":"A"}`, authCtx)
	require.Equal(t, http.StatusOK, rec.Code)
	watchID := decodeBody(t, rec)["id"].(string)

	rec = f.do(t, http.MethodPatch, "/api/v1/watches/"+watchID,
		`{"status":"deleted"}`, authCtx)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_STATUS", decodeBody(t, rec)["code"])
}

func TestDeleteWatchEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	authCtx, _ := f.register(t, "ada@example.com")

	rec := f.do(t, http.MethodPost, "/api/v1/watches",
		`{"url":"https://example.com/a","name":"A"}`, authCtx)
	require.Equal(t, http.StatusOK, rec.Code)
	watchID := decodeBody(t, rec)["id"].(string)

	rec = f.do(t, http.MethodDelete, "/api/v1/watches/"+watchID, "", authCtx)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "deleted", decodeBody(t, rec)["status"])

	// Gone afterwards
	rec = f.do(t, http.MethodGet, "/api/v1/watches/"+watchID, "", authCtx)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
