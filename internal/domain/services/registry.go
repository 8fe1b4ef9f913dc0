// Package services implements domain business logic and use cases.
package services

import (
	"slices"

	"github.com/ochairo/runtimes/internal/domain/entities"
	"github.com/ochairo/runtimes/internal/domain/interfaces/services"
)

// DefaultVersion is selected when a request does not name a version
const DefaultVersion = "3.9"

// Registry is an ordered, immutable collection of distribution records.
//
// Catalog order is part of the contract: when several records match a
// request, Find returns the one listed first. A Registry is never modified
// after NewRegistry returns and may be shared between goroutines.
type Registry struct {
	records []entities.DistributionRecord
}

var _ services.DistributionFinder = (*Registry)(nil)

// NewRegistry validates records and returns a registry holding a copy of them
func NewRegistry(records []entities.DistributionRecord) (*Registry, error) {
	for i, r := range records {
		if err := ValidateRecord(r); err != nil {
			return nil, &InvalidRecordError{
				Index:        i,
				TargetTriple: r.TargetTriple,
				Version:      r.Version,
				Err:          err,
			}
		}
	}

	return &Registry{records: slices.Clone(records)}, nil
}

// Find returns the first record whose version, target triple and linkage
// satisfy the request. An empty version is replaced with DefaultVersion.
func (r *Registry) Find(targetTriple string, flavor entities.Flavor, version string) (entities.DistributionRecord, bool) {
	if version == "" {
		version = DefaultVersion
	}

	for _, rec := range r.records {
		if rec.Version == version && rec.TargetTriple == targetTriple && flavor.Accepts(rec) {
			return rec, true
		}
	}

	return entities.DistributionRecord{}, false
}

// Records returns all records in catalog order
func (r *Registry) Records() []entities.DistributionRecord {
	return slices.Clone(r.records)
}

// TargetTriples returns the distinct target triples in lexical order
func (r *Registry) TargetTriples() []string {
	triples := make([]string, 0, len(r.records))
	for _, rec := range r.records {
		triples = append(triples, rec.TargetTriple)
	}
	slices.Sort(triples)
	return slices.Compact(triples)
}

// Versions returns the distinct versions in order of first appearance
func (r *Registry) Versions() []string {
	versions := make([]string, 0)
	for _, rec := range r.records {
		if !slices.Contains(versions, rec.Version) {
			versions = append(versions, rec.Version)
		}
	}
	return versions
}

// Len returns the number of records
func (r *Registry) Len() int {
	return len(r.records)
}
