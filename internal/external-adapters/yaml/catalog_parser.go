// Package yaml provides YAML-based catalog parsing and repository implementations.
package yaml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ochairo/runtimes/internal/domain/entities"
)

// yamlCatalog represents the raw manifest structure
type yamlCatalog struct {
	Distributions []yamlDistribution `yaml:"distributions"`
}

type yamlDistribution struct {
	Version          string       `yaml:"version"`
	TargetPlatform   string       `yaml:"target_platform"`
	FlavorCapability *bool        `yaml:"flavor_capability"`
	Location         yamlLocation `yaml:"location"`
}

type yamlLocation struct {
	URL    string `yaml:"url"`
	SHA256 string `yaml:"sha256"`
	Path   string `yaml:"path"`
}

// CatalogParser parses YAML distribution manifests
type CatalogParser struct{}

// NewCatalogParser creates a new YAML parser
func NewCatalogParser() *CatalogParser {
	return &CatalogParser{}
}

// ParseFile parses a YAML manifest file into distribution records
func (p *CatalogParser) ParseFile(filePath string) ([]entities.DistributionRecord, error) {
	//nolint:gosec // G304: filePath is the configured catalog manifest
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	return p.Parse(data)
}

// Parse parses YAML bytes into distribution records, preserving entry order.
// Unknown keys are rejected so typos do not silently drop data.
func (p *CatalogParser) Parse(data []byte) ([]entities.DistributionRecord, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var raw yamlCatalog
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	records := make([]entities.DistributionRecord, 0, len(raw.Distributions))
	for i, d := range raw.Distributions {
		rec, err := convertDistribution(d)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

func convertDistribution(d yamlDistribution) (entities.DistributionRecord, error) {
	if d.Version == "" {
		return entities.DistributionRecord{}, fmt.Errorf("version is required")
	}
	if d.TargetPlatform == "" {
		return entities.DistributionRecord{}, fmt.Errorf("target_platform is required")
	}
	if d.FlavorCapability == nil {
		return entities.DistributionRecord{}, fmt.Errorf("flavor_capability is required")
	}

	loc, err := convertLocation(d.Location)
	if err != nil {
		return entities.DistributionRecord{}, err
	}

	return entities.DistributionRecord{
		Version:                          d.Version,
		Location:                         loc,
		TargetTriple:                     d.TargetPlatform,
		SupportsPrebuiltExtensionModules: *d.FlavorCapability,
	}, nil
}

func convertLocation(yl yamlLocation) (entities.Location, error) {
	switch {
	case yl.URL != "" && yl.Path != "":
		return nil, fmt.Errorf("location must set either url or path, not both")
	case yl.URL != "":
		if yl.SHA256 == "" {
			return nil, fmt.Errorf("location with url requires sha256")
		}
		return entities.RemoteLocation{URL: yl.URL, SHA256: yl.SHA256}, nil
	case yl.Path != "":
		if yl.SHA256 != "" {
			return nil, fmt.Errorf("location with path must not set sha256")
		}
		return entities.LocalLocation{Path: yl.Path}, nil
	default:
		return nil, fmt.Errorf("location requires url or path")
	}
}
