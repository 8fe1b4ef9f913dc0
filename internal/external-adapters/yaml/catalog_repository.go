package yaml

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/ochairo/runtimes/internal/domain/entities"
	"github.com/ochairo/runtimes/internal/domain/interfaces"
	"github.com/ochairo/runtimes/internal/domain/interfaces/repositories"
	"github.com/ochairo/runtimes/internal/domain/services"
)

// SignatureVerifier checks a detached signature over manifest bytes
type SignatureVerifier interface {
	VerifyDetached(data, signature []byte) error
}

// FileCatalogRepository implements repositories.CatalogRepository using a
// manifest file on disk
type FileCatalogRepository struct {
	path          string
	signaturePath string
	verifier      SignatureVerifier
	parser        *CatalogParser
	logger        interfaces.Logger
}

var _ repositories.CatalogRepository = (*FileCatalogRepository)(nil)

// FileCatalogOption configures a FileCatalogRepository
type FileCatalogOption func(*FileCatalogRepository)

// WithSignature requires the manifest to carry a valid detached signature
func WithSignature(signaturePath string, verifier SignatureVerifier) FileCatalogOption {
	return func(r *FileCatalogRepository) {
		r.signaturePath = signaturePath
		r.verifier = verifier
	}
}

// WithLogger sets the repository logger
func WithLogger(logger interfaces.Logger) FileCatalogOption {
	return func(r *FileCatalogRepository) {
		r.logger = logger
	}
}

// NewFileCatalogRepository creates a repository reading the manifest at path
func NewFileCatalogRepository(path string, opts ...FileCatalogOption) *FileCatalogRepository {
	r := &FileCatalogRepository{
		path:   path,
		parser: NewCatalogParser(),
		logger: &interfaces.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadCatalog reads, optionally verifies, and parses the manifest
func (r *FileCatalogRepository) LoadCatalog(ctx context.Context) ([]entities.DistributionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	//nolint:gosec // G304: path is the configured catalog manifest
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", r.path, err)
	}

	if r.signaturePath != "" {
		if r.verifier == nil {
			return nil, fmt.Errorf("catalog signature %s configured without a verifier", r.signaturePath)
		}
		//nolint:gosec // G304: signaturePath is the configured signature file
		sig, err := os.ReadFile(r.signaturePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog signature: %w", err)
		}
		if err := r.verifier.VerifyDetached(data, sig); err != nil {
			return nil, fmt.Errorf("catalog %s: %w", r.path, err)
		}
		r.logger.Debug("catalog signature verified", interfaces.F("catalog", r.path))
	}

	records, err := r.parser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", r.path, err)
	}

	r.logger.Debug("catalog loaded", interfaces.F("catalog", r.path), interfaces.F("records", len(records)))
	return records, nil
}

// EmbeddedCatalogRepository implements repositories.CatalogRepository over
// manifest bytes compiled into the binary
type EmbeddedCatalogRepository struct {
	data   []byte
	parser *CatalogParser
}

var _ repositories.CatalogRepository = (*EmbeddedCatalogRepository)(nil)

// NewEmbeddedCatalogRepository creates a repository over data
func NewEmbeddedCatalogRepository(data []byte) *EmbeddedCatalogRepository {
	return &EmbeddedCatalogRepository{
		data:   bytes.Clone(data),
		parser: NewCatalogParser(),
	}
}

// LoadCatalog parses the embedded manifest
func (r *EmbeddedCatalogRepository) LoadCatalog(_ context.Context) ([]entities.DistributionRecord, error) {
	records, err := r.parser.Parse(r.data)
	if err != nil {
		return nil, fmt.Errorf("embedded catalog: %w", err)
	}
	return records, nil
}

// LoadRegistry loads a catalog from repo and builds a validated registry
func LoadRegistry(ctx context.Context, repo repositories.CatalogRepository) (*services.Registry, error) {
	records, err := repo.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	reg, err := services.NewRegistry(records)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	return reg, nil
}
