package entities

import (
	"fmt"
	"strings"
)

// Flavor is the requested linkage style used to filter distributions
type Flavor int

const (
	// FlavorStandalone accepts any distribution
	FlavorStandalone Flavor = iota
	// FlavorStandaloneStatic accepts only statically linked distributions
	FlavorStandaloneStatic
	// FlavorStandaloneDynamic accepts only distributions that can load
	// prebuilt extension modules
	FlavorStandaloneDynamic
)

// String returns the canonical name of the flavor
func (f Flavor) String() string {
	switch f {
	case FlavorStandalone:
		return "standalone"
	case FlavorStandaloneStatic:
		return "standalone_static"
	case FlavorStandaloneDynamic:
		return "standalone_dynamic"
	default:
		return fmt.Sprintf("Flavor(%d)", int(f))
	}
}

// Accepts reports whether the record satisfies the flavor
func (f Flavor) Accepts(r DistributionRecord) bool {
	switch f {
	case FlavorStandaloneStatic:
		return !r.SupportsPrebuiltExtensionModules
	case FlavorStandaloneDynamic:
		return r.SupportsPrebuiltExtensionModules
	default:
		return true
	}
}

// ParseFlavor converts a flavor name into a Flavor.
// Both "standalone_static" and "standalone-static" spellings are accepted.
func ParseFlavor(s string) (Flavor, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_") {
	case "standalone":
		return FlavorStandalone, nil
	case "standalone_static":
		return FlavorStandaloneStatic, nil
	case "standalone_dynamic":
		return FlavorStandaloneDynamic, nil
	default:
		return FlavorStandalone, fmt.Errorf("unknown flavor %q (want standalone, standalone_static or standalone_dynamic)", s)
	}
}
