// Package importer turns model files into an in-memory scene graph of nodes,
// meshes and materials. Parsing is delegated to third-party format
// libraries; this package only normalizes their output and runs the
// requested post-processing steps.
package importer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrUnknownFormat is returned for file extensions no backend handles.
	ErrUnknownFormat = errors.New("unknown model format")
	// ErrIncompleteScene is returned when a file parses but yields no meshes.
	ErrIncompleteScene = errors.New("incomplete scene")
	// ErrNoRootNode is returned when a scene has no root node.
	ErrNoRootNode = errors.New("scene has no root node")
	// ErrMissingPositions is returned for a mesh without vertex positions.
	ErrMissingPositions = errors.New("mesh has no positions")
)

// SceneFlags describe the state of an imported scene.
type SceneFlags uint32

const (
	// FlagIncomplete marks a scene that holds no usable geometry.
	FlagIncomplete SceneFlags = 1 << iota
)

// PostProcess selects processing steps applied after parsing.
type PostProcess uint32

const (
	Triangulate PostProcess = 1 << iota
	GenSmoothNormals
	FlipUVs
	CalcTangentSpace
)

// TextureType is a material texture slot as exposed by model formats.
type TextureType int

const (
	TextureDiffuse TextureType = iota
	TextureSpecular
	TextureAmbient
	TextureEmissive
	TextureHeight
	TextureNormals
	TextureShininess
	TextureOpacity
	TextureLightmap
	TextureUnknown
)

var textureTypeNames = []string{
	"diffuse", "specular", "ambient", "emissive", "height",
	"normals", "shininess", "opacity", "lightmap", "unknown",
}

func (t TextureType) String() string {
	if t < 0 || int(t) >= len(textureTypeNames) {
		return "invalid"
	}
	return textureTypeNames[t]
}

// ParseTextureType maps a slot name ("height", "normals", ...) to its type.
func ParseTextureType(name string) (TextureType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range textureTypeNames {
		if n == name {
			return TextureType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown texture slot %q", name)
}

// Scene is the root of an imported model.
type Scene struct {
	Flags     SceneFlags
	Root      *Node
	Meshes    []*Mesh
	Materials []*Material
	Textures  []*EmbeddedTexture
	Warnings  []string
}

func (s *Scene) warnf(format string, args ...any) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}

// Node is a scene-graph node. Meshes index into Scene.Meshes.
type Node struct {
	Name     string
	Meshes   []int
	Children []*Node
}

// Mesh is one primitive set with a single material. Optional channels are
// nil when the source does not provide them.
type Mesh struct {
	Name          string
	Positions     [][3]float32
	Normals       [][3]float32
	TexCoords     [][2]float32
	Tangents      [][3]float32
	Bitangents    [][3]float32
	Faces         [][]uint32
	MaterialIndex int
}

// HasNormals reports whether the mesh carries per-vertex normals.
func (m *Mesh) HasNormals() bool {
	return len(m.Normals) > 0 && len(m.Normals) == len(m.Positions)
}

// HasTexCoords reports whether the mesh carries a first UV channel.
func (m *Mesh) HasTexCoords() bool {
	return len(m.TexCoords) > 0 && len(m.TexCoords) == len(m.Positions)
}

// HasTangents reports whether tangents and bitangents are present.
func (m *Mesh) HasTangents() bool {
	return len(m.Tangents) == len(m.Positions) && len(m.Bitangents) == len(m.Positions) && len(m.Tangents) > 0
}

// Material lists texture file references per slot.
type Material struct {
	Name     string
	Textures map[TextureType][]string
}

// NewMaterial creates a material with no textures.
func NewMaterial(name string) *Material {
	return &Material{Name: name, Textures: make(map[TextureType][]string)}
}

// TextureCount returns how many textures are set in slot t.
func (m *Material) TextureCount(t TextureType) int {
	return len(m.Textures[t])
}

// Texture returns the i-th texture path of slot t.
func (m *Material) Texture(t TextureType, i int) string {
	return m.Textures[t][i]
}

func (m *Material) add(t TextureType, path string) {
	m.Textures[t] = append(m.Textures[t], path)
}

// EmbeddedTexture holds encoded image bytes stored inside a model file.
type EmbeddedTexture struct {
	Data     []byte
	MimeType string
}

// EmbeddedRef returns the texture path used to reference embedded texture i.
func EmbeddedRef(i int) string {
	return "*" + strconv.Itoa(i)
}

// ParseEmbeddedRef returns the embedded texture index of a "*N" path.
func ParseEmbeddedRef(path string) (int, bool) {
	if !strings.HasPrefix(path, "*") {
		return 0, false
	}
	i, err := strconv.Atoi(path[1:])
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// Embedded returns the embedded texture referenced by path, if any.
func (s *Scene) Embedded(path string) (*EmbeddedTexture, bool) {
	i, ok := ParseEmbeddedRef(path)
	if !ok || i >= len(s.Textures) {
		return nil, false
	}
	return s.Textures[i], true
}
