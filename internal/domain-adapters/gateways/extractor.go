package gateways

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/ochairo/runtimes/internal/domain/interfaces"
)

// ErrUnsupportedArchive is returned for archive formats the extractor cannot read
var ErrUnsupportedArchive = errors.New("unsupported archive format")

// ErrEntryTooLarge is returned for archive entries above the per-file cap
var ErrEntryTooLarge = errors.New("archive entry too large")

// defaultMaxEntrySize caps a single extracted file (1GB) to stop decompression bombs
const defaultMaxEntrySize = 1 << 30

// Extractor unpacks distribution archives (.tar.zst, .tar.gz, .tgz, .tar)
type Extractor struct {
	logger       interfaces.Logger
	maxEntrySize int64
}

// NewExtractor creates an extractor; a nil logger discards warnings
func NewExtractor(logger interfaces.Logger) *Extractor {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &Extractor{logger: logger, maxEntrySize: defaultMaxEntrySize}
}

// Extract unpacks archivePath into destDir and returns the distribution root.
// Archives holding a single top-level directory (python/ for
// python-build-standalone) resolve to that directory.
func (e *Extractor) Extract(ctx context.Context, archivePath, destDir string) (string, error) {
	//nolint:gosec // G304: archivePath is a verified download
	file, err := os.Open(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer file.Close()

	var r io.Reader
	name := strings.ToLower(archivePath)
	switch {
	case strings.HasSuffix(name, ".tar.zst"), strings.HasSuffix(name, ".tzst"):
		zr, err := zstd.NewReader(file)
		if err != nil {
			return "", fmt.Errorf("failed to create zstd reader: %w", err)
		}
		defer zr.Close()
		r = zr
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		gzr, err := gzip.NewReader(file)
		if err != nil {
			return "", fmt.Errorf("failed to create gzip reader: %w", err)
		}
		//nolint:errcheck // Defer close on gzip reader
		defer gzr.Close()
		r = gzr
	case strings.HasSuffix(name, ".tar"):
		r = file
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedArchive, filepath.Base(archivePath))
	}

	if err := e.extractTar(ctx, tar.NewReader(r), destDir); err != nil {
		return "", err
	}

	// Many tarballs extract to a subdirectory (e.g., python/)
	entries, err := os.ReadDir(destDir)
	if err != nil {
		return "", fmt.Errorf("failed to read extracted directory: %w", err)
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(destDir, entries[0].Name()), nil
	}
	return destDir, nil
}

func (e *Extractor) extractTar(ctx context.Context, tr *tar.Reader, destDir string) error {
	if err := os.MkdirAll(destDir, 0750); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	// Collect symlinks for second pass (to handle cases where target doesn't exist yet)
	type symlinkInfo struct {
		target   string
		rel      string
		linkname string
	}
	var symlinks []symlinkInfo

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("tar read error: %w", err)
		}

		//nolint:gosec // G305: Path traversal validated by withinDir below
		target := filepath.Join(destDir, header.Name)
		if !withinDir(destDir, target) {
			return fmt.Errorf("invalid file path in archive: %s", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0750); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}

		case tar.TypeReg:
			if header.Size > e.maxEntrySize {
				return fmt.Errorf("%w: %s is %d bytes, limit %d", ErrEntryTooLarge, header.Name, header.Size, e.maxEntrySize)
			}
			if err := writeFile(tr, target, header); err != nil {
				return err
			}

		case tar.TypeSymlink:
			resolved := filepath.Join(filepath.Dir(target), header.Linkname)
			if filepath.IsAbs(header.Linkname) || !withinDir(destDir, resolved) {
				return fmt.Errorf("symlink escapes archive root: %s -> %s", header.Name, header.Linkname)
			}
			symlinks = append(symlinks, symlinkInfo{
				target:   target,
				linkname: header.Linkname,
			})

		default:
			e.logger.Warn("ignoring unsupported tar entry",
				interfaces.F("type", string(header.Typeflag)),
				interfaces.F("name", header.Name),
			)
		}
	}

	if len(symlinks) == 0 {
		e.logger.Debug("extracted archive", interfaces.F("dir", destDir))
		return nil
	}

	// Directory lookups go through root so an earlier link cannot redirect
	// them outside destDir
	root, err := os.OpenRoot(destDir)
	if err != nil {
		return fmt.Errorf("failed to open destination directory: %w", err)
	}
	//nolint:errcheck // Defer close on directory handle
	defer root.Close()

	// Second pass: create symlinks after all files exist
	for i := range symlinks {
		link := &symlinks[i]
		rel, err := filepath.Rel(destDir, link.target)
		if err != nil {
			return fmt.Errorf("invalid symlink path %s: %w", link.target, err)
		}
		link.rel = rel
		if err := mkdirAllIn(root, filepath.Dir(rel)); err != nil {
			return fmt.Errorf("failed to create directory for symlink %s: %w", rel, err)
		}
		if err := os.Symlink(link.linkname, link.target); err != nil {
			// Some tarballs ship broken links
			e.logger.Warn("failed to create symlink",
				interfaces.F("path", link.target),
				interfaces.F("target", link.linkname),
				interfaces.F("error", err.Error()),
			)
		}
	}

	// Links can chain through each other, so check them once all exist.
	// Dangling links are tolerated; links resolving outside root are not.
	for _, link := range symlinks {
		if _, err := root.Stat(link.rel); err != nil && !errors.Is(err, fs.ErrNotExist) {
			_ = os.Remove(link.target)
			return fmt.Errorf("symlink escapes archive root: %s -> %s: %w", link.rel, link.linkname, err)
		}
	}

	e.logger.Debug("extracted archive", interfaces.F("dir", destDir))
	return nil
}

func writeFile(r io.Reader, target string, header *tar.Header) error {
	if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	//nolint:gosec // G115: Integer overflow from tar header mode is acceptable
	out, err := os.OpenFile(target, os.O_CREATE|os.O_RDWR|os.O_TRUNC, os.FileMode(header.Mode).Perm())
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}

// mkdirAllIn creates dir and its parents beneath root
func mkdirAllIn(root *os.Root, dir string) error {
	if dir == "." {
		return nil
	}
	if err := mkdirAllIn(root, filepath.Dir(dir)); err != nil {
		return err
	}
	if err := root.Mkdir(dir, 0750); err != nil && !errors.Is(err, fs.ErrExist) {
		return err
	}
	info, err := root.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

// withinDir reports whether path is dir or below it
func withinDir(dir, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
