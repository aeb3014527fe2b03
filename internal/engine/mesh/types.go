// Package mesh provides the per-mesh GPU unit: vertex/index data, shared
// texture references, one-time upload and per-frame drawing.
package mesh

import (
	"strconv"
	"unsafe"

	"github.com/Faultbox/modelview/internal/engine/gfx"
)

// MaxBoneInfluence is the number of bone slots per vertex.
const MaxBoneInfluence = 4

// Vertex is the interleaved vertex record uploaded verbatim to the device.
// Field order and sizes are part of the shader contract; see Layout.
type Vertex struct {
	Position  [3]float32
	Normal    [3]float32
	TexCoords [2]float32
	Tangent   [3]float32
	Bitangent [3]float32
	BoneIDs   [MaxBoneInfluence]int32
	Weights   [MaxBoneInfluence]float32
}

// VertexSize is the byte stride of Vertex.
const VertexSize = int32(unsafe.Sizeof(Vertex{}))

// Attribute channel indices expected by the shader program.
const (
	AttribPosition uint32 = iota
	AttribNormal
	AttribTexCoords
	AttribTangent
	AttribBitangent
	AttribBoneIDs
	AttribWeights
)

// Layout is the fixed attribute declaration shared by every mesh.
var Layout = []gfx.Attribute{
	{Index: AttribPosition, Components: 3, Type: gfx.Float, Offset: unsafe.Offsetof(Vertex{}.Position)},
	{Index: AttribNormal, Components: 3, Type: gfx.Float, Offset: unsafe.Offsetof(Vertex{}.Normal)},
	{Index: AttribTexCoords, Components: 2, Type: gfx.Float, Offset: unsafe.Offsetof(Vertex{}.TexCoords)},
	{Index: AttribTangent, Components: 3, Type: gfx.Float, Offset: unsafe.Offsetof(Vertex{}.Tangent)},
	{Index: AttribBitangent, Components: 3, Type: gfx.Float, Offset: unsafe.Offsetof(Vertex{}.Bitangent)},
	{Index: AttribBoneIDs, Components: MaxBoneInfluence, Type: gfx.Int, Offset: unsafe.Offsetof(Vertex{}.BoneIDs), Integer: true},
	{Index: AttribWeights, Components: MaxBoneInfluence, Type: gfx.Float, Offset: unsafe.Offsetof(Vertex{}.Weights)},
}

// Kind is the semantic role of a texture.
type Kind int

const (
	KindDiffuse Kind = iota
	KindSpecular
	KindNormal
	KindHeight

	numKinds
)

// Kinds lists every kind in material resolution order.
var Kinds = []Kind{KindDiffuse, KindSpecular, KindNormal, KindHeight}

var kindNames = [numKinds]string{"diffuse", "specular", "normal", "height"}

// String returns the short kind name ("diffuse", ...).
func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return "unknown"
	}
	return kindNames[k]
}

// Label returns the sampler uniform prefix, e.g. "texture_diffuse".
func (k Kind) Label() string {
	return "texture_" + k.String()
}

// Uniform returns the sampler name for the n-th texture of this kind (1-based).
func (k Kind) Uniform(n int) string {
	return k.Label() + strconv.Itoa(n)
}

// ParseKind maps a short kind name back to a Kind.
func ParseKind(name string) (Kind, bool) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), true
		}
	}
	return 0, false
}

// TextureRef references a device texture. Refs with equal Path share the
// same handle.
type TextureRef struct {
	ID   gfx.Texture
	Kind Kind
	Path string
}
