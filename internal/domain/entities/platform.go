package entities

import "slices"

// Supported target triples
const (
	TripleAarch64AppleDarwin = "aarch64-apple-darwin"
	TripleI686WindowsMSVC    = "i686-pc-windows-msvc"
	TripleX8664AppleDarwin   = "x86_64-apple-darwin"
	TripleX8664WindowsMSVC   = "x86_64-pc-windows-msvc"
	TripleX8664LinuxGNU      = "x86_64-unknown-linux-gnu"
	TripleX8664LinuxMusl     = "x86_64-unknown-linux-musl"
)

var knownTriples = []string{
	TripleAarch64AppleDarwin,
	TripleI686WindowsMSVC,
	TripleX8664AppleDarwin,
	TripleX8664WindowsMSVC,
	TripleX8664LinuxGNU,
	TripleX8664LinuxMusl,
}

// KnownTriples returns the supported target triples in lexical order
func KnownTriples() []string {
	return slices.Clone(knownTriples)
}

// IsKnownTriple reports whether triple is a supported target
func IsKnownTriple(triple string) bool {
	return slices.Contains(knownTriples, triple)
}

// HostTriple maps a Go GOOS/GOARCH pair to the preferred target triple.
// Linux maps to the glibc triple; musl must be requested explicitly.
func HostTriple(goos, goarch string) (string, bool) {
	switch goos + "/" + goarch {
	case "darwin/arm64":
		return TripleAarch64AppleDarwin, true
	case "darwin/amd64":
		return TripleX8664AppleDarwin, true
	case "windows/386":
		return TripleI686WindowsMSVC, true
	case "windows/amd64":
		return TripleX8664WindowsMSVC, true
	case "linux/amd64":
		return TripleX8664LinuxGNU, true
	default:
		return "", false
	}
}
