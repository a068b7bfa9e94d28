package httpadapter_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wildfire-geo-service/internal/adapter/httpadapter"
	"github.com/couchcryptid/wildfire-geo-service/internal/domain"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type fakeService struct {
	createErr   error
	created     string
	listLimit   int
	listOffset  int
	gotID       string
	getErr      error
	addressByID map[string]domain.Address
}

func (f *fakeService) Create(_ context.Context, text string) (domain.Address, error) {
	f.created = text
	if f.createErr != nil {
		return domain.Address{}, f.createErr
	}
	return sampleAddress("a-1", text), nil
}

func (f *fakeService) List(_ context.Context, limit, offset int) (domain.Page, error) {
	f.listLimit, f.listOffset = limit, offset
	return domain.Page{
		Items:  []domain.Address{sampleAddress("a-1", "1 Main St")},
		Total:  41,
		Limit:  limit,
		Offset: offset,
	}, nil
}

func (f *fakeService) Get(_ context.Context, id string) (domain.Address, error) {
	f.gotID = id
	if f.getErr != nil {
		return domain.Address{}, f.getErr
	}
	a, ok := f.addressByID[id]
	if !ok {
		return domain.Address{}, fmt.Errorf("address %s: %w", id, domain.ErrNotFound)
	}
	return a, nil
}

type fakeRefresher struct {
	updated int
	err     error
}

func (f *fakeRefresher) RefreshStale(context.Context) (int, error) { return f.updated, f.err }

func sampleAddress(id, text string) domain.Address {
	lat, lng := 34.05, -118.24
	fetched := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	return domain.Address{
		ID:                id,
		Address:           text,
		AddressNormalized: strings.ToLower(text),
		Latitude:          &lat,
		Longitude:         &lng,
		GeocodeRaw:        json.RawMessage(`{"secret":"raw"}`),
		WildfireData: domain.WildfireData{
			Count:     1,
			Records:   []domain.FireDetection{{"latitude": "34.1", "longitude": "-118.2"}},
			BBox:      "-118.340000,33.950000,-118.140000,34.150000",
			RangeDays: domain.DefaultRangeDays,
		},
		WildfireFetchedAt: &fetched,
		CreatedAt:         fetched,
		UpdatedAt:         fetched,
	}
}

func newTestServer(svc *fakeService, refresher httpadapter.RefreshRunner, readyErr error) *httpadapter.Server {
	logger := slog.New(slog.DiscardHandler)
	return httpadapter.NewServer(":0", svc, refresher, &mockReadiness{err: readyErr}, logger)
}

func do(srv http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthzReturns200(t *testing.T) {
	rec := do(newTestServer(&fakeService{}, nil, nil), http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := do(newTestServer(&fakeService{}, nil, nil), http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decode(t, rec)["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := do(newTestServer(&fakeService{}, nil, errors.New("not ready yet")), http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(newTestServer(&fakeService{}, nil, nil), http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestCreateAddress(t *testing.T) {
	svc := &fakeService{}
	rec := do(newTestServer(svc, nil, nil), http.MethodPost, "/addresses", `{"address":"1 Main St, Los Angeles"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "1 Main St, Los Angeles", svc.created)

	body := decode(t, rec)
	assert.Equal(t, "a-1", body["id"])
	assert.InDelta(t, 34.05, body["latitude"], 1e-9)
	assert.Contains(t, body, "wildfireData")
	assert.Contains(t, body, "wildfireFetchedAt")
	assert.NotContains(t, body, "geocodeRaw")
	assert.NotContains(t, body, "addressNormalized")
}

func TestCreateAddress_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"missing field", `{}`, "Address is required"},
		{"empty", `{"address":""}`, "Address is required"},
		{"too short", `{"address":"abc"}`, "address must be between 5 and 200 characters"},
		{"too long", `{"address":"` + strings.Repeat("x", 201) + `"}`, "address must be between 5 and 200 characters"},
		{"malformed json", `{"address":`, "Address is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			rec := do(newTestServer(svc, nil, nil), http.MethodPost, "/addresses", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tt.message, body["message"])
			assert.Equal(t, "/addresses", body["path"])
			assert.InDelta(t, 400, body["statusCode"], 0)
			assert.Empty(t, svc.created, "service not called")
		})
	}
}

func TestCreateAddress_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid", fmt.Errorf("%w: address is required", domain.ErrInvalidInput), http.StatusBadRequest},
		{"unresolvable", fmt.Errorf("geocode address: %w", domain.ErrUnresolvable), http.StatusUnprocessableEntity},
		{"upstream down", fmt.Errorf("geocode address: %w", domain.ErrUpstreamUnavailable), http.StatusBadGateway},
		{"unexpected upstream", domain.ErrUnexpectedUpstream, http.StatusBadGateway},
		{"configuration", domain.ErrConfiguration, http.StatusInternalServerError},
		{"internal", fmt.Errorf("%w: persist address: boom", domain.ErrInternal), http.StatusInternalServerError},
		{"unclassified", errors.New("mystery"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{createErr: tt.err}
			rec := do(newTestServer(svc, nil, nil), http.MethodPost, "/addresses", `{"address":"1 Main St"}`)

			assert.Equal(t, tt.status, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, http.StatusText(tt.status), body["error"])
			assert.NotContains(t, body["message"], "boom")
		})
	}
}

func TestListAddresses(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", 20, 0},
		{"explicit", "?limit=5&offset=10", 5, 10},
		{"limit clamped", "?limit=500", 100, 0},
		{"zero limit", "?limit=0", 20, 0},
		{"negative limit", "?limit=-4", 20, 0},
		{"negative offset", "?offset=-3", 20, 0},
		{"garbage", "?limit=abc&offset=xyz", 20, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			rec := do(newTestServer(svc, nil, nil), http.MethodGet, "/addresses"+tt.query, "")

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantLimit, svc.listLimit)
			assert.Equal(t, tt.wantOffset, svc.listOffset)

			body := decode(t, rec)
			assert.InDelta(t, 41, body["total"], 0)
			items, ok := body["items"].([]any)
			require.True(t, ok)
			require.Len(t, items, 1)
			item := items[0].(map[string]any)
			assert.Equal(t, "a-1", item["id"])
			assert.NotContains(t, item, "wildfireData", "summary view only")
		})
	}
}

func TestGetAddress(t *testing.T) {
	svc := &fakeService{addressByID: map[string]domain.Address{"a-1": sampleAddress("a-1", "1 Main St")}}
	srv := newTestServer(svc, nil, nil)

	rec := do(srv, http.MethodGet, "/addresses/a-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "1 Main St", body["address"])
	wd, ok := body["wildfireData"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 1, wd["count"], 0)
	assert.InDelta(t, 7, wd["rangeDays"], 0)

	rec = do(srv, http.MethodGet, "/addresses/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Address not found", decode(t, rec)["message"])
}

func TestRefreshRoute(t *testing.T) {
	t.Run("reports updated count", func(t *testing.T) {
		rec := do(newTestServer(&fakeService{}, &fakeRefresher{updated: 3}, nil), http.MethodPost, "/addresses/refresh", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.InDelta(t, 3, decode(t, rec)["updated"], 0)
	})

	t.Run("overlap is a conflict", func(t *testing.T) {
		err := fmt.Errorf("%w: refresh already running", domain.ErrConflict)
		rec := do(newTestServer(&fakeService{}, &fakeRefresher{err: err}, nil), http.MethodPost, "/addresses/refresh", "")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("not registered without a refresher", func(t *testing.T) {
		rec := do(newTestServer(&fakeService{}, nil, nil), http.MethodPost, "/addresses/refresh", "")
		assert.NotEqual(t, http.StatusOK, rec.Code)
	})
}

func TestAllReady(t *testing.T) {
	ok := &mockReadiness{}
	bad := &mockReadiness{err: errors.New("store down")}

	require.NoError(t, httpadapter.AllReady(ok, ok).CheckReadiness(context.Background()))
	assert.EqualError(t, httpadapter.AllReady(ok, bad).CheckReadiness(context.Background()), "store down")
}
