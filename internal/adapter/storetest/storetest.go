// Package storetest is a conformance suite for domain.AddressStore
// implementations.
package storetest

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wildfire-geo-service/internal/domain"
)

// Factory returns an empty store. Cleanup is the factory's job.
type Factory func(t *testing.T) domain.AddressStore

var base = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

// NewAddress builds a valid, unsaved record with coordinates, created at
// base+offset.
func NewAddress(text string, offset time.Duration) domain.Address {
	lat, lng := 34.0522, -118.2437
	created := base.Add(offset)
	return domain.Address{
		Address:           text,
		AddressNormalized: domain.NormalizeAddress(text),
		Latitude:          &lat,
		Longitude:         &lng,
		GeocodeRaw:        json.RawMessage(`{"status":"OK","results":[]}`),
		WildfireData:      domain.EmptyWildfireData(),
		CreatedAt:         created,
		UpdatedAt:         created,
	}
}

// Run executes every conformance case against fresh stores.
func Run(t *testing.T, newStore Factory) {
	t.Run("CreateAndFind", func(t *testing.T) { testCreateAndFind(t, newStore(t)) })
	t.Run("CreateConflict", func(t *testing.T) { testCreateConflict(t, newStore(t)) })
	t.Run("CreateInvalid", func(t *testing.T) { testCreateInvalid(t, newStore(t)) })
	t.Run("FindNotFound", func(t *testing.T) { testFindNotFound(t, newStore(t)) })
	t.Run("FindPage", func(t *testing.T) { testFindPage(t, newStore(t)) })
	t.Run("FindStale", func(t *testing.T) { testFindStale(t, newStore(t)) })
	t.Run("Save", func(t *testing.T) { testSave(t, newStore(t)) })
}

func testCreateAndFind(t *testing.T, s domain.AddressStore) {
	ctx := context.Background()
	in := NewAddress("1600 Amphitheatre Pkwy", 0)

	created, err := s.Create(ctx, in)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	_, err = uuid.Parse(created.ID)
	require.NoError(t, err, "ids are UUIDs")

	byID, err := s.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assertSameRecord(t, created, byID)
	assert.Equal(t, "1600 Amphitheatre Pkwy", byID.Address)
	assert.Equal(t, "1600 amphitheatre pkwy", byID.AddressNormalized)
	assert.JSONEq(t, `{"status":"OK","results":[]}`, string(byID.GeocodeRaw))
	assert.Nil(t, byID.WildfireFetchedAt)
	assert.Equal(t, 0, byID.WildfireData.Count)
	assert.NotNil(t, byID.WildfireData.Records)
	assert.Equal(t, domain.DefaultRangeDays, byID.WildfireData.RangeDays)

	byText, err := s.FindByNormalizedText(ctx, "1600 amphitheatre pkwy")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byText.ID)
}

func testCreateConflict(t *testing.T, s domain.AddressStore) {
	ctx := context.Background()

	_, err := s.Create(ctx, NewAddress("10 Downing St", 0))
	require.NoError(t, err)

	_, err = s.Create(ctx, NewAddress("  10 DOWNING st ", time.Minute))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, total, err := s.FindPage(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func testCreateInvalid(t *testing.T, s domain.AddressStore) {
	in := NewAddress("10 Downing St", 0)
	in.AddressNormalized = ""

	_, err := s.Create(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func testFindNotFound(t *testing.T, s domain.AddressStore) {
	ctx := context.Background()

	_, err := s.FindByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.FindByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.FindByNormalizedText(ctx, "nowhere")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testFindPage(t *testing.T, s domain.AddressStore) {
	ctx := context.Background()
	for i := range 5 {
		_, err := s.Create(ctx, NewAddress(fmt.Sprintf("%d Main St", i), time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	page, total, err := s.FindPage(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, "4 Main St", page[0].Address, "newest first")
	assert.Equal(t, "3 Main St", page[1].Address)

	page, _, err = s.FindPage(ctx, 2, 4)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "0 Main St", page[0].Address)

	page, total, err = s.FindPage(ctx, 10, 50)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Empty(t, page)
}

func testFindStale(t *testing.T, s domain.AddressStore) {
	ctx := context.Background()
	now := base.Add(72 * time.Hour)
	staleBefore := now.Add(-24 * time.Hour)

	create := func(text string, offset time.Duration, fetchedAt *time.Time, withCoords bool) domain.Address {
		in := NewAddress(text, offset)
		if !withCoords {
			in.Latitude, in.Longitude = nil, nil
		}
		a, err := s.Create(ctx, in)
		require.NoError(t, err)
		if fetchedAt != nil {
			a.WildfireFetchedAt = fetchedAt
			a.UpdatedAt = *fetchedAt
			require.NoError(t, s.Save(ctx, a))
		}
		return a
	}
	at := func(d time.Duration) *time.Time {
		v := now.Add(-d)
		return &v
	}

	fresh := create("fresh", 0, at(time.Hour), true)
	oldest := create("oldest", time.Minute, at(60*time.Hour), true)
	older := create("older", 2*time.Minute, at(30*time.Hour), true)
	neverLate := create("never late", 4*time.Minute, nil, true)
	neverEarly := create("never early", 3*time.Minute, nil, true)
	create("no coordinates", 5*time.Minute, nil, false)

	got, err := s.FindStale(ctx, staleBefore, 10)
	require.NoError(t, err)

	ids := make([]string, len(got))
	for i, a := range got {
		ids[i] = a.ID
	}
	assert.Equal(t, []string{neverEarly.ID, neverLate.ID, oldest.ID, older.ID}, ids)
	assert.NotContains(t, ids, fresh.ID)

	limited, err := s.FindStale(ctx, staleBefore, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, neverEarly.ID, limited[0].ID)
	assert.Equal(t, neverLate.ID, limited[1].ID)
}

func testSave(t *testing.T, s domain.AddressStore) {
	ctx := context.Background()
	created, err := s.Create(ctx, NewAddress("221B Baker St", 0))
	require.NoError(t, err)

	fetchedAt := base.Add(time.Hour)
	created.WildfireData = domain.WildfireData{
		Count:     1,
		Records:   []domain.FireDetection{{"latitude": "34.1", "longitude": "-118.2", "acq_date": "2024-07-01"}},
		BBox:      "-118.343700,33.952200,-118.143700,34.152200",
		RangeDays: domain.DefaultRangeDays,
		Source:    "VIIRS_SNPP_NRT",
	}
	created.WildfireFetchedAt = &fetchedAt
	created.UpdatedAt = fetchedAt
	require.NoError(t, s.Save(ctx, created))

	got, err := s.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.WildfireData, got.WildfireData)
	require.NotNil(t, got.WildfireFetchedAt)
	assert.True(t, fetchedAt.Equal(*got.WildfireFetchedAt))
	assert.True(t, fetchedAt.Equal(got.UpdatedAt))
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))

	missing := created
	missing.ID = uuid.NewString()
	assert.ErrorIs(t, s.Save(ctx, missing), domain.ErrNotFound)
}

func assertSameRecord(t *testing.T, want, got domain.Address) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Address, got.Address)
	assert.Equal(t, want.AddressNormalized, got.AddressNormalized)
	require.NotNil(t, got.Latitude)
	require.NotNil(t, got.Longitude)
	assert.InDelta(t, *want.Latitude, *got.Latitude, 1e-9)
	assert.InDelta(t, *want.Longitude, *got.Longitude, 1e-9)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at %v != %v", want.CreatedAt, got.CreatedAt)
}
