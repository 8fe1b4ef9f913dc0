package orchestrators

import (
	"errors"
	"fmt"

	"github.com/ochairo/runtimes/internal/domain/entities"
	"github.com/ochairo/runtimes/internal/domain/services"
)

// ErrNoDistribution is matched by every NoDistributionError
var ErrNoDistribution = errors.New("no compatible distribution")

// NoDistributionError reports a request the catalog cannot satisfy
type NoDistributionError struct {
	TargetTriple string
	Flavor       entities.Flavor
	Version      string
}

func (e *NoDistributionError) Error() string {
	version := e.Version
	if version == "" {
		version = services.DefaultVersion
	}
	return fmt.Sprintf("no compatible distribution for %s (flavor %s, version %s)", e.TargetTriple, e.Flavor, version)
}

// Unwrap lets errors.Is match ErrNoDistribution
func (e *NoDistributionError) Unwrap() error {
	return ErrNoDistribution
}
