package importer

import (
	"fmt"
	"net/url"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// GLTF imports glTF 2.0 files (.gltf and .glb). Each primitive becomes one
// Mesh; node transforms are not applied.
type GLTF struct{}

// Import implements Backend.
func (g *GLTF) Import(path string) (*Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	return g.convert(doc)
}

func (g *GLTF) convert(doc *gltf.Document) (*Scene, error) {
	s := &Scene{}

	images := make(map[int]string)
	for _, m := range doc.Materials {
		s.Materials = append(s.Materials, g.material(doc, s, m, images))
	}
	defaultMaterial := len(s.Materials)
	s.Materials = append(s.Materials, NewMaterial("DefaultMaterial"))

	// First scene mesh index for every glTF mesh
	meshStart := make([]int, len(doc.Meshes))
	for mi, m := range doc.Meshes {
		meshStart[mi] = len(s.Meshes)
		for pi, p := range m.Primitives {
			mesh, err := g.primitive(doc, s, p)
			if err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: %w", mi, pi, err)
			}
			mesh.Name = m.Name
			mesh.MaterialIndex = defaultMaterial
			if p.Material != nil && *p.Material < len(doc.Materials) {
				mesh.MaterialIndex = *p.Material
			}
			s.Meshes = append(s.Meshes, mesh)
		}
	}

	nodes := make([]*Node, len(doc.Nodes))
	for i, n := range doc.Nodes {
		nodes[i] = &Node{Name: n.Name}
		if n.Mesh != nil && *n.Mesh < len(doc.Meshes) {
			for pi := range doc.Meshes[*n.Mesh].Primitives {
				nodes[i].Meshes = append(nodes[i].Meshes, meshStart[*n.Mesh]+pi)
			}
		}
	}

	hasParent := make([]bool, len(doc.Nodes))
	for i, n := range doc.Nodes {
		for _, c := range n.Children {
			if c < 0 || c >= len(nodes) {
				s.warnf("node %d: child index %d out of range", i, c)
				continue
			}
			nodes[i].Children = append(nodes[i].Children, nodes[c])
			hasParent[c] = true
		}
	}

	var roots []*Node
	sceneIdx := 0
	if doc.Scene != nil {
		sceneIdx = *doc.Scene
	}
	if sceneIdx < len(doc.Scenes) {
		for _, ni := range doc.Scenes[sceneIdx].Nodes {
			if ni >= 0 && ni < len(nodes) {
				roots = append(roots, nodes[ni])
			}
		}
	} else {
		for i, n := range nodes {
			if !hasParent[i] {
				roots = append(roots, n)
			}
		}
	}

	switch {
	case len(roots) == 1:
		s.Root = roots[0]
	case len(roots) > 1:
		s.Root = &Node{Name: "ROOT", Children: roots}
	case len(s.Meshes) > 0:
		// Meshes without any node still render
		root := &Node{Name: "ROOT"}
		for i := range s.Meshes {
			root.Meshes = append(root.Meshes, i)
		}
		s.Root = root
	}

	return s, nil
}

// primitive converts one glTF primitive. Unreadable optional channels are
// dropped with a scene warning; positions and indices are required.
func (g *GLTF) primitive(doc *gltf.Document, s *Scene, p *gltf.Primitive) (*Mesh, error) {
	accessor := func(idx int) (*gltf.Accessor, error) {
		if idx < 0 || idx >= len(doc.Accessors) {
			return nil, fmt.Errorf("accessor %d out of range", idx)
		}
		return doc.Accessors[idx], nil
	}

	posIdx, ok := p.Attributes[gltf.POSITION]
	if !ok {
		return nil, ErrMissingPositions
	}
	acr, err := accessor(posIdx)
	if err != nil {
		return nil, err
	}
	m := &Mesh{}
	if m.Positions, err = modeler.ReadPosition(doc, acr, nil); err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}

	if idx, ok := p.Attributes[gltf.NORMAL]; ok {
		acr, err := accessor(idx)
		if err == nil {
			m.Normals, err = modeler.ReadNormal(doc, acr, nil)
		}
		if err != nil {
			m.Normals = nil
			s.warnf("primitive normals dropped: %v", err)
		}
	}
	if idx, ok := p.Attributes[gltf.TEXCOORD_0]; ok {
		acr, err := accessor(idx)
		if err == nil {
			m.TexCoords, err = modeler.ReadTextureCoord(doc, acr, nil)
		}
		if err != nil {
			m.TexCoords = nil
			s.warnf("primitive texture coordinates dropped: %v", err)
		}
	}
	if idx, ok := p.Attributes[gltf.TANGENT]; ok && m.HasNormals() {
		acr, err := accessor(idx)
		var tangents [][4]float32
		if err == nil {
			tangents, err = modeler.ReadTangent(doc, acr, nil)
		}
		switch {
		case err != nil:
			s.warnf("primitive tangents dropped: %v", err)
		case len(tangents) != len(m.Positions):
			s.warnf("primitive tangents dropped: %d tangents for %d vertices", len(tangents), len(m.Positions))
		default:
			m.Tangents, m.Bitangents = splitTangents(m.Normals, tangents)
		}
	}

	var indices []uint32
	if p.Indices != nil {
		acr, err := accessor(*p.Indices)
		if err != nil {
			return nil, err
		}
		if indices, err = modeler.ReadIndices(doc, acr, nil); err != nil {
			return nil, fmt.Errorf("read indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(m.Positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	m.Faces = primitiveFaces(p.Mode, indices)

	return m, nil
}

// splitTangents converts glTF vec4 tangents (w = handedness) into tangent
// and bitangent vectors.
func splitTangents(normals [][3]float32, tangents [][4]float32) (t, b [][3]float32) {
	t = make([][3]float32, len(tangents))
	b = make([][3]float32, len(tangents))
	for i, tg := range tangents {
		t[i] = [3]float32{tg[0], tg[1], tg[2]}
		bt := mgl32.Vec3(normals[i]).Cross(mgl32.Vec3(t[i])).Mul(tg[3])
		b[i] = bt
	}
	return t, b
}

func primitiveFaces(mode gltf.PrimitiveMode, idx []uint32) [][]uint32 {
	var faces [][]uint32
	switch mode {
	case gltf.PrimitivePoints:
		for _, i := range idx {
			faces = append(faces, []uint32{i})
		}
	case gltf.PrimitiveLines:
		for i := 0; i+1 < len(idx); i += 2 {
			faces = append(faces, []uint32{idx[i], idx[i+1]})
		}
	case gltf.PrimitiveLineStrip, gltf.PrimitiveLineLoop:
		for i := 0; i+1 < len(idx); i++ {
			faces = append(faces, []uint32{idx[i], idx[i+1]})
		}
		if mode == gltf.PrimitiveLineLoop && len(idx) > 2 {
			faces = append(faces, []uint32{idx[len(idx)-1], idx[0]})
		}
	case gltf.PrimitiveTriangleStrip:
		for i := 2; i < len(idx); i++ {
			if i%2 == 0 {
				faces = append(faces, []uint32{idx[i-2], idx[i-1], idx[i]})
			} else {
				faces = append(faces, []uint32{idx[i-1], idx[i-2], idx[i]})
			}
		}
	case gltf.PrimitiveTriangleFan:
		for i := 2; i < len(idx); i++ {
			faces = append(faces, []uint32{idx[0], idx[i-1], idx[i]})
		}
	default:
		for i := 0; i+2 < len(idx); i += 3 {
			faces = append(faces, []uint32{idx[i], idx[i+1], idx[i+2]})
		}
	}
	return faces
}

func (g *GLTF) material(doc *gltf.Document, s *Scene, m *gltf.Material, images map[int]string) *Material {
	mat := NewMaterial(m.Name)

	add := func(t TextureType, texIdx int) {
		if path, ok := g.texturePath(doc, s, texIdx, images); ok {
			mat.add(t, path)
		}
	}

	if pbr := m.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorTexture != nil {
			add(TextureDiffuse, pbr.BaseColorTexture.Index)
		}
		if pbr.MetallicRoughnessTexture != nil {
			add(TextureUnknown, pbr.MetallicRoughnessTexture.Index)
		}
	}
	if m.NormalTexture != nil && m.NormalTexture.Index != nil {
		add(TextureNormals, *m.NormalTexture.Index)
	}
	if m.OcclusionTexture != nil && m.OcclusionTexture.Index != nil {
		add(TextureLightmap, *m.OcclusionTexture.Index)
	}
	if m.EmissiveTexture != nil {
		add(TextureEmissive, m.EmissiveTexture.Index)
	}
	return mat
}

// texturePath resolves a glTF texture to a file path relative to the model,
// or to an embedded "*N" reference. Image results are memoized so shared
// images map to one path.
func (g *GLTF) texturePath(doc *gltf.Document, s *Scene, texIdx int, images map[int]string) (string, bool) {
	if texIdx < 0 || texIdx >= len(doc.Textures) || doc.Textures[texIdx].Source == nil {
		return "", false
	}
	imgIdx := *doc.Textures[texIdx].Source
	if path, ok := images[imgIdx]; ok {
		return path, true
	}
	if imgIdx < 0 || imgIdx >= len(doc.Images) {
		return "", false
	}
	img := doc.Images[imgIdx]

	var path string
	switch {
	case img.BufferView != nil:
		data, err := bufferViewData(doc, *img.BufferView)
		if err != nil {
			s.warnf("image %d: %v", imgIdx, err)
			return "", false
		}
		path = g.embed(s, data, img.MimeType)
	case img.IsEmbeddedResource():
		data, err := img.MarshalData()
		if err != nil {
			s.warnf("image %d: %v", imgIdx, err)
			return "", false
		}
		path = g.embed(s, data, img.MimeType)
	case img.URI != "":
		unescaped, err := url.PathUnescape(img.URI)
		if err != nil {
			unescaped = img.URI
		}
		path = unescaped
	default:
		return "", false
	}

	images[imgIdx] = path
	return path, true
}

func (g *GLTF) embed(s *Scene, data []byte, mime string) string {
	s.Textures = append(s.Textures, &EmbeddedTexture{Data: data, MimeType: mime})
	return EmbeddedRef(len(s.Textures) - 1)
}

func bufferViewData(doc *gltf.Document, idx int) ([]byte, error) {
	if idx < 0 || idx >= len(doc.BufferViews) {
		return nil, fmt.Errorf("buffer view %d out of range", idx)
	}
	bv := doc.BufferViews[idx]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
		return nil, fmt.Errorf("buffer %d out of range", bv.Buffer)
	}
	data := doc.Buffers[bv.Buffer].Data
	end := bv.ByteOffset + bv.ByteLength
	if end > len(data) {
		return nil, fmt.Errorf("buffer view %d exceeds buffer length", idx)
	}
	return data[bv.ByteOffset:end], nil
}
