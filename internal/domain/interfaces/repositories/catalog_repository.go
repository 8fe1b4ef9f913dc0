// Package repositories defines interfaces for data access layers.
package repositories

import (
	"context"

	"github.com/ochairo/runtimes/internal/domain/entities"
)

// CatalogRepository defines the interface for loading a distribution catalog
type CatalogRepository interface {
	// LoadCatalog returns the catalog records in declaration order.
	// Order is significant: it decides ties during selection.
	LoadCatalog(ctx context.Context) ([]entities.DistributionRecord, error)
}
