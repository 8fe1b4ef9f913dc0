// Package services defines interfaces for domain service contracts.
package services

import "github.com/ochairo/runtimes/internal/domain/entities"

// DistributionFinder selects a distribution for a target
type DistributionFinder interface {
	// Find returns the first record matching the request.
	// An empty version selects the default version.
	Find(targetTriple string, flavor entities.Flavor, version string) (entities.DistributionRecord, bool)

	// Records returns every record in catalog order
	Records() []entities.DistributionRecord

	// TargetTriples returns the distinct triples in lexical order
	TargetTriples() []string
}
