// Package gateways provides adapter implementations used to install distributions.
package gateways

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/ochairo/runtimes/internal/domain/entities"
	"github.com/ochairo/runtimes/internal/domain/interfaces"
)

const (
	// DefaultDownloadTimeout bounds a single archive download
	DefaultDownloadTimeout = 5 * time.Minute

	userAgent = "runtimes/1.0"
)

// Downloader fetches distribution archives over HTTP(S)
type Downloader struct {
	httpClient *http.Client
	logger     interfaces.Logger
}

// DownloaderOption configures a Downloader
type DownloaderOption func(*Downloader)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) DownloaderOption {
	return func(d *Downloader) {
		d.httpClient = c
	}
}

// WithDownloadTimeout sets the overall timeout of the default HTTP client
func WithDownloadTimeout(timeout time.Duration) DownloaderOption {
	return func(d *Downloader) {
		if timeout > 0 {
			d.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithDownloadLogger sets the logger used for progress messages
func WithDownloadLogger(l interfaces.Logger) DownloaderOption {
	return func(d *Downloader) {
		d.logger = l
	}
}

// NewDownloader creates a new downloader
func NewDownloader(opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		httpClient: &http.Client{
			Timeout: DefaultDownloadTimeout, // Long timeout for large downloads
		},
		logger: &interfaces.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Fetch downloads loc into destDir and returns the archive path.
// The archive is written to a temporary file and renamed into place once
// the body has been fully received.
func (d *Downloader) Fetch(ctx context.Context, loc entities.RemoteLocation, destDir string) (string, error) {
	filename, err := ArchiveFilename(loc.URL)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(destDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	dest := filepath.Join(destDir, filename)
	if err := d.downloadFile(ctx, loc.URL, dest); err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}

	return dest, nil
}

// ArchiveFilename returns the final path element of an archive URL
func ArchiveFilename(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid archive URL %q: %w", rawURL, err)
	}

	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("archive URL %q has no file name", rawURL)
	}

	// Escaped slashes decode into the name and must not leave destDir
	if filepath.Base(name) != name {
		return "", fmt.Errorf("archive URL %q has invalid file name", rawURL)
	}

	return name, nil
}

// downloadFile downloads a file from URL to destination
func (d *Downloader) downloadFile(ctx context.Context, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	d.logger.Debug("downloading archive", interfaces.F("url", rawURL))

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	out, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	tmpPath := out.Name()

	written, err := io.Copy(out, resp.Body)
	if err != nil {
		_ = out.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to move download into place: %w", err)
	}

	d.logger.Info("downloaded archive",
		interfaces.F("file", filepath.Base(dest)),
		interfaces.F("bytes", written),
	)

	return nil
}
