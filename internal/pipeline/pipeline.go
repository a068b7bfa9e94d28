// Package pipeline orchestrates address resolution, wildfire enrichment, and
// the periodic staleness refresh on top of the domain ports.
package pipeline

import (
	"context"

	"github.com/couchcryptid/wildfire-geo-service/internal/domain"
)

// EnrichmentPublisher announces a successful wildfire enrichment downstream.
type EnrichmentPublisher interface {
	PublishEnrichment(ctx context.Context, addr domain.Address) error
}

// BatchRunner runs one staleness refresh batch and reports how many
// addresses were updated.
type BatchRunner interface {
	RefreshStale(ctx context.Context) (int, error)
}
