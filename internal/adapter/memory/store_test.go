package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wildfire-geo-service/internal/adapter/storetest"
	"github.com/couchcryptid/wildfire-geo-service/internal/domain"
)

func TestStore_Conformance(t *testing.T) {
	storetest.Run(t, func(*testing.T) domain.AddressStore { return New() })
}

func TestStore_ReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()

	created, err := s.Create(ctx, storetest.NewAddress("1 Main St", 0))
	require.NoError(t, err)

	*created.Latitude = 0
	created.WildfireData.Records = append(created.WildfireData.Records, domain.FireDetection{"latitude": "1"})

	got, err := s.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.InDelta(t, 34.0522, *got.Latitude, 1e-9)
	assert.Empty(t, got.WildfireData.Records)
}

func TestStore_CheckReadiness(t *testing.T) {
	assert.NoError(t, New().CheckReadiness(context.Background()))
}
