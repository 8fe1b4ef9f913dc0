// Package entities defines core domain models and data structures.
package entities

// DistributionRecord describes one pre-built standalone runtime distribution
type DistributionRecord struct {
	Version      string   // "major.minor", e.g. "3.9"
	Location     Location // Where the archive bytes live
	TargetTriple string   // e.g. "x86_64-unknown-linux-gnu"

	// SupportsPrebuiltExtensionModules is true when native extension modules
	// can be loaded against this build (shared linkage). Statically linked
	// builds report false.
	SupportsPrebuiltExtensionModules bool
}

// Linkage returns "dynamic" or "static" for display purposes
func (r DistributionRecord) Linkage() string {
	if r.SupportsPrebuiltExtensionModules {
		return "dynamic"
	}
	return "static"
}
