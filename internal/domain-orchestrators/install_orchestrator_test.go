package orchestrators

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/runtimes/internal/domain/entities"
	"github.com/ochairo/runtimes/internal/domain/services"
)

const testSHA = "8b1b7ab7ec3e2f5db5e8ef5e3cd2e4c2d1c17ab2bbd4eea3a2d6a89a3c5b1d6e"

// Mock implementations for testing
type mockFetcher struct {
	calls atomic.Int32
	err   error
}

func (m *mockFetcher) Fetch(_ context.Context, _ entities.RemoteLocation, destDir string) (string, error) {
	m.calls.Add(1)
	if m.err != nil {
		return "", m.err
	}
	if err := os.MkdirAll(destDir, 0750); err != nil {
		return "", err
	}
	path := filepath.Join(destDir, "python.tar.zst")
	return path, os.WriteFile(path, []byte("archive"), 0600)
}

// blockingFetcher holds the download until release is closed and fails if
// its context was cancelled meanwhile
type blockingFetcher struct {
	mockFetcher
	enterOnce sync.Once
	entered   chan struct{}
	release   chan struct{}
}

func (m *blockingFetcher) Fetch(ctx context.Context, loc entities.RemoteLocation, destDir string) (string, error) {
	m.enterOnce.Do(func() { close(m.entered) })
	<-m.release
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return m.mockFetcher.Fetch(ctx, loc, destDir)
}

type mockVerifier struct {
	err error
}

func (m *mockVerifier) VerifyChecksum(_ context.Context, _, _ string) error {
	return m.err
}

type mockExtractor struct {
	err error
}

func (m *mockExtractor) Extract(_ context.Context, _, destDir string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	root := filepath.Join(destDir, "python")
	return root, os.MkdirAll(filepath.Join(root, "bin"), 0750)
}

type mockLocator struct{}

func (m *mockLocator) FindInterpreter(root, _ string) (string, error) {
	path := filepath.Join(root, "bin", "python3")
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		return "", err
	}
	return path, nil
}

func newTestRegistry(t *testing.T, localPath string) *services.Registry {
	t.Helper()
	reg, err := services.NewRegistry([]entities.DistributionRecord{
		{
			Version:                          "3.9",
			TargetTriple:                     entities.TripleX8664LinuxGNU,
			SupportsPrebuiltExtensionModules: true,
			Location: entities.RemoteLocation{
				URL:    "https://example.com/cpython-3.9-x86_64-unknown-linux-gnu.tar.zst",
				SHA256: testSHA,
			},
		},
		{
			Version:      "3.9",
			TargetTriple: entities.TripleX8664LinuxMusl,
			Location:     entities.LocalLocation{Path: localPath},
		},
	})
	require.NoError(t, err)
	return reg
}

type fixture struct {
	orch      *InstallOrchestrator
	fetcher   *mockFetcher
	verifier  *mockVerifier
	extractor *mockExtractor
	cacheDir  string
}

func newFixture(t *testing.T, localPath string) *fixture {
	t.Helper()
	f := &fixture{
		fetcher:   &mockFetcher{},
		verifier:  &mockVerifier{},
		extractor: &mockExtractor{},
		cacheDir:  t.TempDir(),
	}
	f.orch = f.rebuild(t, localPath)
	return f
}

// rebuild returns a fresh orchestrator sharing the fixture's cache and mocks
func (f *fixture) rebuild(t *testing.T, localPath string) *InstallOrchestrator {
	return NewInstallOrchestrator(
		newTestRegistry(t, localPath),
		f.fetcher,
		f.verifier,
		f.extractor,
		&mockLocator{},
		nil,
		InstallOrchestratorConfig{CacheDir: f.cacheDir},
	)
}

func TestInstall_NoDistribution(t *testing.T) {
	f := newFixture(t, t.TempDir())

	_, err := f.orch.Install(context.Background(), Request{
		TargetTriple: entities.TripleAarch64AppleDarwin,
		Flavor:       entities.FlavorStandalone,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoDistribution))
	assert.True(t, IsNoDistribution(err))

	var noDist *NoDistributionError
	require.True(t, errors.As(err, &noDist))
	assert.Equal(t, entities.TripleAarch64AppleDarwin, noDist.TargetTriple)
	assert.Equal(t,
		"no compatible distribution for aarch64-apple-darwin (flavor standalone, version 3.9)",
		err.Error())
	assert.Zero(t, f.fetcher.calls.Load())
}

func TestInstall_NoDistribution_FlavorMismatch(t *testing.T) {
	f := newFixture(t, t.TempDir())

	_, err := f.orch.Install(context.Background(), Request{
		TargetTriple: entities.TripleX8664LinuxGNU,
		Flavor:       entities.FlavorStandaloneStatic,
		Version:      "3.9",
	})
	require.ErrorIs(t, err, ErrNoDistribution)
	assert.Contains(t, err.Error(), "flavor standalone_static")
}

func TestInstall_Local(t *testing.T) {
	local := t.TempDir()
	f := newFixture(t, local)

	artifact, err := f.orch.Install(context.Background(), Request{
		TargetTriple: entities.TripleX8664LinuxMusl,
		Flavor:       entities.FlavorStandaloneStatic,
	})
	require.NoError(t, err)
	assert.Equal(t, local, artifact.Path)
	assert.Empty(t, artifact.Interpreter, "local tree has no bin directory")
	assert.Empty(t, artifact.ArchivePath)
	assert.Empty(t, artifact.SHA256)
	assert.Equal(t, entities.FlavorStandaloneStatic, artifact.Flavor)
	assert.Zero(t, f.fetcher.calls.Load())
}

func TestInstall_LocalMissing(t *testing.T) {
	f := newFixture(t, filepath.Join(t.TempDir(), "missing"))

	_, err := f.orch.Install(context.Background(), Request{
		TargetTriple: entities.TripleX8664LinuxMusl,
		Flavor:       entities.FlavorStandalone,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestInstall_Remote(t *testing.T) {
	f := newFixture(t, t.TempDir())
	req := Request{TargetTriple: entities.TripleX8664LinuxGNU, Flavor: entities.FlavorStandaloneDynamic}

	artifact, err := f.orch.Install(context.Background(), req)
	require.NoError(t, err)

	entryDir := filepath.Join(f.cacheDir, testSHA)
	assert.Equal(t, filepath.Join(entryDir, distDirName, "python"), artifact.Path)
	assert.Equal(t, filepath.Join(artifact.Path, "bin", "python3"), artifact.Interpreter)
	assert.Equal(t, filepath.Join(entryDir, archiveDirName, "python.tar.zst"), artifact.ArchivePath)
	assert.Equal(t, testSHA, artifact.SHA256)
	assert.Equal(t, "3.9", artifact.Version)
	assert.Equal(t, entities.FlavorStandaloneDynamic, artifact.Flavor)
	assert.False(t, artifact.Cached)
	assert.FileExists(t, filepath.Join(entryDir, markerName))

	t.Run("memoized in process", func(t *testing.T) {
		again, err := f.orch.Install(context.Background(), Request{TargetTriple: entities.TripleX8664LinuxGNU})
		require.NoError(t, err)
		assert.True(t, again.Cached)
		assert.Equal(t, artifact.Path, again.Path)
		assert.Equal(t, entities.FlavorStandalone, again.Flavor)
		assert.EqualValues(t, 1, f.fetcher.calls.Load())
	})

	t.Run("reused from disk", func(t *testing.T) {
		fresh := f.rebuild(t, t.TempDir())
		again, err := fresh.Install(context.Background(), req)
		require.NoError(t, err)
		assert.True(t, again.Cached)
		assert.Equal(t, artifact.Path, again.Path)
		assert.Equal(t, artifact.ArchivePath, again.ArchivePath)
		assert.EqualValues(t, 1, f.fetcher.calls.Load())
	})

	t.Run("forget keeps disk cache", func(t *testing.T) {
		f.orch.Forget()
		again, err := f.orch.Install(context.Background(), req)
		require.NoError(t, err)
		assert.True(t, again.Cached)
		assert.EqualValues(t, 1, f.fetcher.calls.Load())
	})
}

func TestInstall_RemoteIncompleteEntryIsReplaced(t *testing.T) {
	f := newFixture(t, t.TempDir())

	stale := filepath.Join(f.cacheDir, testSHA, archiveDirName, "partial")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0750))
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0600))

	artifact, err := f.orch.Install(context.Background(), Request{TargetTriple: entities.TripleX8664LinuxGNU})
	require.NoError(t, err)
	assert.False(t, artifact.Cached)
	assert.NoFileExists(t, stale)
	assert.EqualValues(t, 1, f.fetcher.calls.Load())
}

func TestInstall_RemoteFailures(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name      string
		configure func(*fixture)
		wantMsg   string
	}{
		{
			name:      "download",
			configure: func(f *fixture) { f.fetcher.err = boom },
			wantMsg:   "failed to download distribution",
		},
		{
			name:      "verify",
			configure: func(f *fixture) { f.verifier.err = boom },
			wantMsg:   "failed to verify python.tar.zst",
		},
		{
			name:      "extract",
			configure: func(f *fixture) { f.extractor.err = boom },
			wantMsg:   "failed to extract distribution",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, t.TempDir())
			tt.configure(f)

			_, err := f.orch.Install(context.Background(), Request{TargetTriple: entities.TripleX8664LinuxGNU})
			require.ErrorIs(t, err, boom)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.NoFileExists(t, filepath.Join(f.cacheDir, testSHA, markerName))

			// A failed install is not memoized
			f.fetcher.err, f.verifier.err, f.extractor.err = nil, nil, nil
			artifact, err := f.orch.Install(context.Background(), Request{TargetTriple: entities.TripleX8664LinuxGNU})
			require.NoError(t, err)
			assert.False(t, artifact.Cached)
		})
	}
}

func TestInstall_ConcurrentRemote(t *testing.T) {
	f := newFixture(t, t.TempDir())

	var wg sync.WaitGroup
	paths := make([]string, 8)
	errs := make([]error, 8)
	for i := range paths {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			artifact, err := f.orch.Install(context.Background(), Request{TargetTriple: entities.TripleX8664LinuxGNU})
			errs[i] = err
			if err == nil {
				paths[i] = artifact.Path
			}
		}(i)
	}
	wg.Wait()

	for i := range paths {
		require.NoError(t, errs[i])
		assert.Equal(t, paths[0], paths[i])
	}
	assert.EqualValues(t, 1, f.fetcher.calls.Load())
}

func TestInstall_SharedDownloadOutlivesCancelledCaller(t *testing.T) {
	fetcher := &blockingFetcher{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	orch := NewInstallOrchestrator(
		newTestRegistry(t, t.TempDir()),
		fetcher,
		&mockVerifier{},
		&mockExtractor{},
		&mockLocator{},
		nil,
		InstallOrchestratorConfig{CacheDir: t.TempDir()},
	)
	req := Request{TargetTriple: entities.TripleX8664LinuxGNU}

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := orch.Install(ctx, req)
		first <- err
	}()
	<-fetcher.entered

	second := make(chan error, 1)
	go func() {
		_, err := orch.Install(context.Background(), req)
		second <- err
	}()

	// The first caller gives up while the download is still running
	cancel()
	require.ErrorIs(t, <-first, context.Canceled)

	time.AfterFunc(50*time.Millisecond, func() { close(fetcher.release) })
	require.NoError(t, <-second)
	assert.EqualValues(t, 1, fetcher.calls.Load())
}

func TestInstall_CallerCancelledBeforeDownload(t *testing.T) {
	f := newFixture(t, t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.orch.Install(ctx, Request{TargetTriple: entities.TripleX8664LinuxGNU})
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.fetcher.calls.Load())
}
