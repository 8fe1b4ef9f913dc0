package yaml

import (
	"context"
	_ "embed"
	"sync"

	"github.com/ochairo/runtimes/internal/domain/services"
)

//go:embed distributions.yml
var builtinManifest []byte

// BuiltinManifest returns a copy of the embedded catalog manifest
func BuiltinManifest() []byte {
	out := make([]byte, len(builtinManifest))
	copy(out, builtinManifest)
	return out
}

// BuiltinRegistry returns the registry for the embedded catalog.
// It is built on first call; every caller receives the same instance.
var BuiltinRegistry = sync.OnceValues(func() (*services.Registry, error) {
	return LoadRegistry(context.Background(), NewEmbeddedCatalogRepository(builtinManifest))
})
