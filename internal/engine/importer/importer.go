package importer

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Backend parses one family of model formats.
type Backend interface {
	Import(path string) (*Scene, error)
}

// Importer reads a model file into a post-processed scene.
type Importer interface {
	ReadFile(path string, steps PostProcess) (*Scene, error)
}

// Registry dispatches to backends by file extension.
type Registry struct {
	backends map[string]Backend
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

// Default returns a registry with the glTF and OBJ backends registered.
func Default() *Registry {
	r := NewRegistry()
	r.Register(&GLTF{}, ".gltf", ".glb")
	r.Register(&OBJ{}, ".obj")
	return r
}

// Register associates b with the given extensions (with leading dot).
func (r *Registry) Register(b Backend, exts ...string) {
	for _, ext := range exts {
		r.backends[strings.ToLower(ext)] = b
	}
}

// ReadFile parses path with the matching backend and applies steps.
func (r *Registry) ReadFile(path string, steps PostProcess) (*Scene, error) {
	ext := strings.ToLower(filepath.Ext(path))
	b, ok := r.backends[ext]
	if !ok {
		return nil, fmt.Errorf("%s: %w", ext, ErrUnknownFormat)
	}

	scene, err := b.Import(path)
	if err != nil {
		return nil, fmt.Errorf("importing %s: %w", path, err)
	}
	if scene.Root == nil {
		return scene, ErrNoRootNode
	}
	if len(scene.Meshes) == 0 {
		scene.Flags |= FlagIncomplete
	}

	Apply(scene, steps)
	return scene, nil
}
