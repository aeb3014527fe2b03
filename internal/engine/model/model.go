// Package model loads a model file through the importer and keeps its
// meshes uploaded to the device for drawing.
package model

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/modelview/internal/engine/gfx"
	"github.com/Faultbox/modelview/internal/engine/importer"
	"github.com/Faultbox/modelview/internal/engine/mesh"
	"github.com/Faultbox/modelview/internal/engine/texture"
	"github.com/Faultbox/modelview/internal/logger"
)

var (
	// ErrImport wraps every failure to obtain a usable scene.
	ErrImport = errors.New("model import failed")
	// ErrAlreadyLoaded is returned by Load on a model that already loaded.
	ErrAlreadyLoaded = errors.New("model already loaded")
)

// DefaultSteps are the post-processing steps requested from the importer.
const DefaultSteps = importer.Triangulate | importer.GenSmoothNormals | importer.FlipUVs | importer.CalcTangentSpace

// Options configures a Model.
type Options struct {
	Slots SlotTable
	Steps importer.PostProcess
}

// DefaultOptions returns the default slot table and post-processing steps.
func DefaultOptions() Options {
	return Options{Slots: DefaultSlots(), Steps: DefaultSteps}
}

// Model is a loaded model: its mesh buffers in traversal order and the
// texture cache they share.
type Model struct {
	dev  gfx.Device
	imp  importer.Importer
	opts Options

	meshes   []*mesh.Buffer
	textures *texture.Cache
	refs     map[string]mesh.TextureRef
	dir      string
	bounds   Bounds
	hasBound bool
	loaded   bool
	released bool
}

// New creates an empty model. Zero-valued options fall back to defaults.
func New(dev gfx.Device, imp importer.Importer, opts Options) *Model {
	if opts.Slots == nil {
		opts.Slots = DefaultSlots()
	}
	if opts.Steps == 0 {
		opts.Steps = DefaultSteps
	}
	return &Model{
		dev:  dev,
		imp:  imp,
		opts: opts,
		refs: make(map[string]mesh.TextureRef),
	}
}

// Load imports path and uploads every mesh reachable from the scene root.
// On failure the model stays empty and the error wraps ErrImport.
func (m *Model) Load(path string) error {
	if m.loaded {
		return ErrAlreadyLoaded
	}

	scene, err := m.imp.ReadFile(path, m.opts.Steps)
	if err == nil {
		switch {
		case scene == nil:
			err = importer.ErrIncompleteScene
		case scene.Flags&importer.FlagIncomplete != 0:
			err = importer.ErrIncompleteScene
		case scene.Root == nil:
			err = importer.ErrNoRootNode
		}
	}
	if err != nil {
		logger.Error("model import failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrImport, err)
	}

	for _, w := range scene.Warnings {
		logger.Warn("import warning", zap.String("path", path), zap.String("warning", w))
	}

	m.loaded = true
	m.dir = Directory(path)
	m.textures = texture.NewCache(m.dev, sceneSource{scene: scene, dir: texture.DirSource{Dir: m.dir}})

	m.walk(scene)
	m.bounds, m.hasBound = computeBounds(m.meshes)

	logger.Info("model loaded",
		zap.String("path", path),
		zap.Int("meshes", len(m.meshes)),
		zap.Int("textures", m.textures.Len()))
	return nil
}

// walk visits nodes depth-first, pre-order: a node's meshes, then its
// children in order. Nodes reached twice are skipped.
func (m *Model) walk(scene *importer.Scene) {
	stack := []*importer.Node{scene.Root}
	visited := make(map[*importer.Node]bool)

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[node] {
			logger.Warn("node visited twice, skipping", zap.String("node", node.Name))
			continue
		}
		visited[node] = true

		for _, idx := range node.Meshes {
			if idx < 0 || idx >= len(scene.Meshes) || scene.Meshes[idx] == nil {
				logger.Warn("node references missing mesh", zap.String("node", node.Name), zap.Int("mesh", idx))
				continue
			}
			buf, err := m.processMesh(scene, scene.Meshes[idx])
			if err != nil {
				logger.Warn("mesh skipped", zap.String("mesh", scene.Meshes[idx].Name), zap.Error(err))
				continue
			}
			m.meshes = append(m.meshes, buf)
		}

		for i := len(node.Children) - 1; i >= 0; i-- {
			if child := node.Children[i]; child != nil {
				stack = append(stack, child)
			}
		}
	}
}

func (m *Model) processMesh(scene *importer.Scene, src *importer.Mesh) (*mesh.Buffer, error) {
	hasNormals := src.HasNormals()
	hasUV := src.HasTexCoords()
	hasTangents := src.HasTangents()

	vertices := make([]mesh.Vertex, len(src.Positions))
	for i, p := range src.Positions {
		v := &vertices[i]
		v.Position = p
		if hasNormals {
			v.Normal = src.Normals[i]
		}
		if hasUV {
			v.TexCoords = src.TexCoords[i]
			if hasTangents {
				v.Tangent = src.Tangents[i]
				v.Bitangent = src.Bitangents[i]
			}
		}
	}

	var indices []uint32
	dropped := 0
	for _, face := range src.Faces {
		if !faceInRange(face, len(vertices)) {
			dropped++
			continue
		}
		indices = append(indices, face...)
	}
	if dropped > 0 {
		logger.Warn("dropped faces with out-of-range indices",
			zap.String("mesh", src.Name), zap.Int("faces", dropped))
	}

	var textures []mesh.TextureRef
	if src.MaterialIndex >= 0 && src.MaterialIndex < len(scene.Materials) {
		textures = m.resolveMaterial(scene.Materials[src.MaterialIndex])
	}

	buf, err := mesh.New(m.dev, vertices, indices, textures)
	if err != nil {
		for _, t := range textures {
			m.textures.Release(t.Path)
		}
		return nil, err
	}
	return buf, nil
}

func faceInRange(face []uint32, n int) bool {
	for _, idx := range face {
		if int(idx) >= n {
			return false
		}
	}
	return true
}

// resolveMaterial returns the material's textures for every slot in table
// order. A path seen before reuses its first TextureRef.
func (m *Model) resolveMaterial(mat *importer.Material) []mesh.TextureRef {
	if mat == nil {
		return nil
	}
	var refs []mesh.TextureRef
	for _, slot := range m.opts.Slots {
		for i := 0; i < mat.TextureCount(slot.Source); i++ {
			path := mat.Texture(slot.Source, i)
			if ref, ok := m.refs[path]; ok {
				m.textures.Acquire(path)
				refs = append(refs, ref)
				continue
			}
			ref := mesh.TextureRef{ID: m.textures.Acquire(path), Kind: slot.Kind, Path: path}
			m.refs[path] = ref
			refs = append(refs, ref)
		}
	}
	return refs
}

// Draw draws every mesh in traversal order with program.
func (m *Model) Draw(program gfx.Program) {
	m.DrawWith(program, nil)
}

// DrawWith is Draw with a hook run before each mesh is drawn, for per-mesh
// uniforms. A nil hook is skipped.
func (m *Model) DrawWith(program gfx.Program, before func(*mesh.Buffer)) {
	for _, b := range m.meshes {
		if before != nil {
			before(b)
		}
		b.Draw(m.dev, program)
	}
}

// Release frees all device buffers and drops the model's texture
// references. It is safe to call more than once.
func (m *Model) Release() {
	if m.released {
		return
	}
	m.released = true
	for _, b := range m.meshes {
		b.Release(m.dev)
		for _, t := range b.Textures {
			m.textures.Release(t.Path)
		}
	}
	m.meshes = nil
}

// Meshes returns the mesh buffers in draw order.
func (m *Model) Meshes() []*mesh.Buffer { return m.meshes }

// Directory returns the base directory textures are resolved against.
func (m *Model) Directory() string { return m.dir }

// TextureCount returns the number of distinct textures loaded.
func (m *Model) TextureCount() int {
	if m.textures == nil {
		return 0
	}
	return m.textures.Len()
}

// Bounds returns the model-space bounding box, false for an empty model.
func (m *Model) Bounds() (Bounds, bool) { return m.bounds, m.hasBound }

// Directory returns path up to its last '/' or '\'. A path with no
// separator is returned unchanged.
func Directory(path string) string {
	i := strings.LastIndexAny(path, `/\`)
	if i < 0 {
		return path
	}
	return path[:i]
}

// sceneSource serves "*N" references from the scene's embedded textures
// and everything else from the model directory.
type sceneSource struct {
	scene *importer.Scene
	dir   texture.DirSource
}

func (s sceneSource) Open(path string) ([]byte, string, error) {
	if tex, ok := s.scene.Embedded(path); ok {
		return tex.Data, tex.MimeType, nil
	}
	if _, ok := importer.ParseEmbeddedRef(path); ok {
		return nil, "", fmt.Errorf("embedded texture %s not found", path)
	}
	return s.dir.Open(path)
}
