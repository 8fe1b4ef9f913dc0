// Package orchestrators coordinates complex workflows across multiple domain services.
package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/ochairo/runtimes/internal/domain/entities"
	"github.com/ochairo/runtimes/internal/domain/interfaces"
	"github.com/ochairo/runtimes/internal/domain/interfaces/gateways"
	"github.com/ochairo/runtimes/internal/domain/interfaces/services"
)

const (
	archiveDirName = "archive"
	distDirName    = "dist"

	// markerName is written last; its presence means the cache entry is complete
	markerName = ".complete"
)

// Request selects the distribution to install
type Request struct {
	TargetTriple string
	Flavor       entities.Flavor
	Version      string // empty selects the default version
}

// InstallOrchestratorConfig holds configuration for the orchestrator
type InstallOrchestratorConfig struct {
	CacheDir string
}

// InstallOrchestrator turns a catalog match into a distribution on disk
type InstallOrchestrator struct {
	finder    services.DistributionFinder
	fetcher   gateways.ArchiveFetcher
	verifier  gateways.IntegrityVerifier
	extractor gateways.ArchiveExtractor
	locator   gateways.InterpreterLocator
	logger    interfaces.Logger
	cacheDir  string

	installed *cache.Cache // sha256 -> entities.Artifact
	inflight  singleflight.Group
}

// NewInstallOrchestrator creates a new install orchestrator
func NewInstallOrchestrator(
	finder services.DistributionFinder,
	fetcher gateways.ArchiveFetcher,
	verifier gateways.IntegrityVerifier,
	extractor gateways.ArchiveExtractor,
	locator gateways.InterpreterLocator,
	logger interfaces.Logger,
	config InstallOrchestratorConfig,
) *InstallOrchestrator {
	cacheDir := config.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), "runtimes")
	}
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}

	return &InstallOrchestrator{
		finder:    finder,
		fetcher:   fetcher,
		verifier:  verifier,
		extractor: extractor,
		locator:   locator,
		logger:    logger,
		cacheDir:  cacheDir,
		installed: cache.New(cache.NoExpiration, 0),
	}
}

// Install materializes the distribution selected by req and returns where
// it lives on disk
func (o *InstallOrchestrator) Install(ctx context.Context, req Request) (*entities.Artifact, error) {
	record, ok := o.finder.Find(req.TargetTriple, req.Flavor, req.Version)
	if !ok {
		return nil, &NoDistributionError{
			TargetTriple: req.TargetTriple,
			Flavor:       req.Flavor,
			Version:      req.Version,
		}
	}

	o.logger.Debug("selected distribution",
		interfaces.F("version", record.Version),
		interfaces.F("target", record.TargetTriple),
		interfaces.F("linkage", record.Linkage()),
		interfaces.F("location", record.Location.String()),
	)

	var (
		artifact *entities.Artifact
		err      error
	)
	switch loc := record.Location.(type) {
	case entities.LocalLocation:
		artifact, err = o.installLocal(record, req.Flavor, loc)
	case entities.RemoteLocation:
		artifact, err = o.installRemote(ctx, record, req.Flavor, loc)
	default:
		err = fmt.Errorf("unsupported location type %T", record.Location)
	}
	if err != nil {
		return nil, err
	}

	o.locateInterpreter(artifact)
	return artifact, nil
}

// locateInterpreter fills artifact.Interpreter; a miss is only logged
func (o *InstallOrchestrator) locateInterpreter(artifact *entities.Artifact) {
	if o.locator == nil || artifact.Interpreter != "" {
		return
	}
	interpreter, err := o.locator.FindInterpreter(artifact.Path, artifact.Version)
	if err != nil {
		o.logger.Warn("no interpreter in distribution",
			interfaces.F("path", artifact.Path),
			interfaces.F("error", err.Error()),
		)
		return
	}
	artifact.Interpreter = interpreter
}

func (o *InstallOrchestrator) installLocal(record entities.DistributionRecord, flavor entities.Flavor, loc entities.LocalLocation) (*entities.Artifact, error) {
	info, err := os.Stat(loc.Path)
	if err != nil {
		return nil, fmt.Errorf("local distribution unavailable: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("local distribution %s is not a directory", loc.Path)
	}

	return &entities.Artifact{
		Version:      record.Version,
		TargetTriple: record.TargetTriple,
		Flavor:       flavor,
		Path:         loc.Path,
	}, nil
}

func (o *InstallOrchestrator) installRemote(ctx context.Context, record entities.DistributionRecord, flavor entities.Flavor, loc entities.RemoteLocation) (*entities.Artifact, error) {
	if cached, ok := o.installed.Get(loc.SHA256); ok {
		artifact := cached.(entities.Artifact)
		artifact.Flavor = flavor
		artifact.Cached = true
		return &artifact, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Concurrent installs of one archive share a single download. It runs
	// detached from any one caller; each caller only stops waiting on its
	// own cancellation.
	ch := o.inflight.DoChan(loc.SHA256, func() (interface{}, error) {
		artifact, err := o.materialize(context.WithoutCancel(ctx), record, loc)
		if err != nil {
			return nil, err
		}
		o.installed.SetDefault(loc.SHA256, artifact)
		return artifact, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}

	artifact := res.Val.(entities.Artifact)
	artifact.Flavor = flavor
	return &artifact, nil
}

// materialize makes <cache>/<sha256>/ hold a verified, extracted archive
func (o *InstallOrchestrator) materialize(ctx context.Context, record entities.DistributionRecord, loc entities.RemoteLocation) (entities.Artifact, error) {
	entryDir := filepath.Join(o.cacheDir, loc.SHA256)
	artifact := entities.Artifact{
		Version:      record.Version,
		TargetTriple: record.TargetTriple,
		SHA256:       loc.SHA256,
	}

	if root, archive, ok := readMarker(entryDir); ok {
		o.logger.Debug("reusing cached distribution", interfaces.F("dir", entryDir))
		artifact.Path = root
		artifact.ArchivePath = archive
		artifact.Cached = true
		return artifact, nil
	}

	// Anything here without a marker is left over from an interrupted install
	if err := os.RemoveAll(entryDir); err != nil {
		return artifact, fmt.Errorf("failed to clear cache entry: %w", err)
	}

	o.logger.Info("installing distribution",
		interfaces.F("version", record.Version),
		interfaces.F("target", record.TargetTriple),
	)

	archive, err := o.fetcher.Fetch(ctx, loc, filepath.Join(entryDir, archiveDirName))
	if err != nil {
		return artifact, fmt.Errorf("failed to download distribution: %w", err)
	}

	if err := o.verifier.VerifyChecksum(ctx, archive, loc.SHA256); err != nil {
		_ = os.RemoveAll(entryDir)
		return artifact, fmt.Errorf("failed to verify %s: %w", filepath.Base(archive), err)
	}

	root, err := o.extractor.Extract(ctx, archive, filepath.Join(entryDir, distDirName))
	if err != nil {
		_ = os.RemoveAll(entryDir)
		return artifact, fmt.Errorf("failed to extract distribution: %w", err)
	}

	if err := writeMarker(entryDir, root, archive); err != nil {
		return artifact, err
	}

	artifact.Path = root
	artifact.ArchivePath = archive
	return artifact, nil
}

// The marker records the distribution root and archive relative to the entry
func writeMarker(entryDir, root, archive string) error {
	relRoot, err := filepath.Rel(entryDir, root)
	if err != nil {
		return fmt.Errorf("failed to record cache entry: %w", err)
	}
	relArchive, err := filepath.Rel(entryDir, archive)
	if err != nil {
		return fmt.Errorf("failed to record cache entry: %w", err)
	}

	content := filepath.ToSlash(relRoot) + "\n" + filepath.ToSlash(relArchive) + "\n"
	if err := os.WriteFile(filepath.Join(entryDir, markerName), []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to record cache entry: %w", err)
	}
	return nil
}

func readMarker(entryDir string) (root, archive string, ok bool) {
	//nolint:gosec // G304: entryDir is derived from a validated sha256
	data, err := os.ReadFile(filepath.Join(entryDir, markerName))
	if err != nil {
		return "", "", false
	}

	relRoot, relArchive, found := strings.Cut(strings.TrimSpace(string(data)), "\n")
	if !found || relRoot == "" || relArchive == "" {
		return "", "", false
	}

	root = filepath.Join(entryDir, filepath.FromSlash(relRoot))
	if _, err := os.Stat(root); err != nil {
		return "", "", false
	}
	return root, filepath.Join(entryDir, filepath.FromSlash(relArchive)), true
}

// Forget drops the in-process memo; the on-disk cache is kept
func (o *InstallOrchestrator) Forget() {
	o.installed.Flush()
}

// IsNoDistribution reports whether err is a no-match failure
func IsNoDistribution(err error) bool {
	return errors.Is(err, ErrNoDistribution)
}
