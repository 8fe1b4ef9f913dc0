package gateways

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrInterpreterNotFound is returned when a distribution holds no python executable
var ErrInterpreterNotFound = errors.New("python interpreter not found")

// ArtifactFinder locates files inside an extracted distribution
type ArtifactFinder struct{}

// NewArtifactFinder creates a new artifact finder
func NewArtifactFinder() *ArtifactFinder {
	return &ArtifactFinder{}
}

// FindInterpreter returns the python executable below root.
// Well-known layouts are tried first, then the tree is searched.
func (f *ArtifactFinder) FindInterpreter(root, version string) (string, error) {
	if _, err := os.Stat(root); err != nil {
		return "", fmt.Errorf("distribution root does not exist: %w", err)
	}

	if path, ok := f.FindByGlob(root, version); ok {
		return path, nil
	}
	return f.FindRecursive(root, version)
}

// interpreterNames lists executable names in preference order
func interpreterNames(version string) []string {
	names := make([]string, 0, 4)
	if version != "" {
		names = append(names, "python"+version)
	}
	return append(names, "python3", "python.exe", "python")
}

// FindByGlob checks the layouts used by standalone distributions:
// full archives keep the interpreter under install/, install_only
// archives at the top level.
func (f *ArtifactFinder) FindByGlob(root, version string) (string, bool) {
	for _, dir := range []string{"install/bin", "install", "bin", "."} {
		for _, name := range interpreterNames(version) {
			matches, err := filepath.Glob(filepath.Join(root, dir, name))
			if err != nil || len(matches) == 0 {
				continue
			}
			if isExecutableFile(matches[0]) {
				return matches[0], true
			}
		}
	}
	return "", false
}

// FindRecursive walks root for the first interpreter in lexical order
func (f *ArtifactFinder) FindRecursive(root, version string) (string, error) {
	wanted := make(map[string]int)
	for i, name := range interpreterNames(version) {
		wanted[name] = i
	}

	best, bestRank := "", len(wanted)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rank, ok := wanted[d.Name()]
		if ok && rank < bestRank && isExecutableFile(path) {
			best, bestRank = path, rank
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to search %s: %w", root, err)
	}

	if best == "" {
		return "", fmt.Errorf("%w in %s", ErrInterpreterNotFound, root)
	}
	return best, nil
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	// Windows executables carry no mode bits
	return info.Mode()&0111 != 0 || filepath.Ext(path) == ".exe"
}
