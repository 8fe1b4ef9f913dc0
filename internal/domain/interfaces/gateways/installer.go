// Package gateways defines interfaces for external service adapters.
package gateways

import (
	"context"

	"github.com/ochairo/runtimes/internal/domain/entities"
)

// ArchiveFetcher downloads a remote distribution archive
type ArchiveFetcher interface {
	// Fetch downloads loc into destDir and returns the archive path
	Fetch(ctx context.Context, loc entities.RemoteLocation, destDir string) (string, error)
}

// IntegrityVerifier checks a downloaded archive against its expected digest
type IntegrityVerifier interface {
	VerifyChecksum(ctx context.Context, filePath, expectedSum string) error
}

// ArchiveExtractor unpacks a distribution archive
type ArchiveExtractor interface {
	// Extract unpacks archivePath into destDir and returns the distribution root
	Extract(ctx context.Context, archivePath, destDir string) (string, error)
}

// InterpreterLocator finds the python executable in a materialized distribution
type InterpreterLocator interface {
	FindInterpreter(root, version string) (string, error)
}
