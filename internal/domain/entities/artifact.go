package entities

// Artifact is a distribution materialized on disk and ready to embed
type Artifact struct {
	Version      string
	TargetTriple string
	Flavor       Flavor
	Path         string // Root of the extracted (or local) distribution
	Interpreter  string // python executable below Path; empty when not found
	ArchivePath  string // Downloaded archive; empty for local distributions
	SHA256       string // Verified digest; empty for local distributions
	Cached       bool   // True when an earlier install was reused
}
