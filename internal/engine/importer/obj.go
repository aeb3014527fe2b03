package importer

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/g3n/engine/loader/obj"
)

// mtlMaps lists the MTL texture statements the obj loader leaves out,
// keyed by lowercase statement name.
var mtlMaps = map[string]TextureType{
	"map_ks":   TextureSpecular,
	"map_bump": TextureHeight,
	"bump":     TextureHeight,
	"map_ka":   TextureAmbient,
	"norm":     TextureNormals,
	"map_d":    TextureOpacity,
}

type mtlTexture struct {
	slot TextureType
	path string
}

// OBJ imports Wavefront OBJ files with their MTL material library. Every
// object becomes a child node of the root with one mesh per material used.
type OBJ struct{}

type objCorner struct {
	v, vt, vn int
}

// Import implements Backend.
func (o *OBJ) Import(path string) (*Scene, error) {
	dec, err := obj.Decode(path, "")
	if err != nil {
		return nil, fmt.Errorf("decode obj: %w", err)
	}
	extra, err := readMTLMaps(mtlPath(path, dec.Matlib))
	s := o.convert(dec, extra)
	if err != nil && !os.IsNotExist(err) {
		s.warnf("mtl: %v", err)
	}
	return s, nil
}

// mtlPath resolves the material library the same way the obj loader does:
// the mtllib name next to the OBJ, else <name>.mtl.
func mtlPath(objPath, matlib string) string {
	if matlib != "" {
		p := filepath.Join(filepath.Dir(objPath), matlib)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return strings.TrimSuffix(objPath, ".obj") + ".mtl"
}

// readMTLMaps collects the texture statements of mtlMaps per material.
// The file name is the last field, so option flags such as -bm are skipped.
func readMTLMaps(path string) (map[string][]mtlTexture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	maps := make(map[string][]mtlTexture)
	current := ""
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		key := strings.ToLower(fields[0])
		if key == "newmtl" {
			current = fields[1]
			continue
		}
		if slot, ok := mtlMaps[key]; ok && current != "" {
			maps[current] = append(maps[current], mtlTexture{slot: slot, path: filepath.ToSlash(fields[len(fields)-1])})
		}
	}
	return maps, sc.Err()
}

// handledWarning reports whether w is the loader's complaint about a
// statement readMTLMaps reads.
func handledWarning(w string) bool {
	const marker = "field not supported: "
	i := strings.LastIndex(w, marker)
	if i < 0 {
		return false
	}
	_, ok := mtlMaps[strings.ToLower(w[i+len(marker):])]
	return ok
}

func (o *OBJ) convert(dec *obj.Decoder, extra map[string][]mtlTexture) *Scene {
	s := &Scene{}
	for _, w := range dec.Warnings {
		if !handledWarning(w) {
			s.Warnings = append(s.Warnings, w)
		}
	}

	// Materials sorted by name for a stable order
	names := make([]string, 0, len(dec.Materials))
	for name := range dec.Materials {
		names = append(names, name)
	}
	sort.Strings(names)

	matIndex := make(map[string]int, len(names))
	for _, name := range names {
		mat := NewMaterial(name)
		if kd := dec.Materials[name].MapKd; kd != "" {
			mat.add(TextureDiffuse, filepath.ToSlash(kd))
		}
		for _, t := range extra[name] {
			mat.add(t.slot, t.path)
		}
		matIndex[name] = len(s.Materials)
		s.Materials = append(s.Materials, mat)
	}
	defaultMaterial := len(s.Materials)
	s.Materials = append(s.Materials, NewMaterial("DefaultMaterial"))

	s.Root = &Node{Name: "ROOT"}
	for _, object := range dec.Objects {
		node := &Node{Name: object.Name}

		// Group faces by material in first-use order
		var order []string
		byMaterial := make(map[string][]obj.Face)
		for _, f := range object.Faces {
			if _, ok := byMaterial[f.Material]; !ok {
				order = append(order, f.Material)
			}
			byMaterial[f.Material] = append(byMaterial[f.Material], f)
		}

		for _, matName := range order {
			mesh := o.mesh(dec, s, byMaterial[matName])
			mesh.Name = object.Name
			mesh.MaterialIndex = defaultMaterial
			if idx, ok := matIndex[matName]; ok {
				mesh.MaterialIndex = idx
			}
			node.Meshes = append(node.Meshes, len(s.Meshes))
			s.Meshes = append(s.Meshes, mesh)
		}
		s.Root.Children = append(s.Root.Children, node)
	}
	return s
}

// mesh builds an indexed mesh, creating one vertex per distinct
// position/uv/normal corner.
func (o *OBJ) mesh(dec *obj.Decoder, s *Scene, faces []obj.Face) *Mesh {
	m := &Mesh{}
	numPos := len(dec.Vertices) / 3
	numUV := len(dec.Uvs) / 2
	numNorm := len(dec.Normals) / 3

	hasUV, hasNorm := true, true
	corners := make(map[objCorner]uint32)

	for _, f := range faces {
		face := make([]uint32, 0, len(f.Vertices))
		valid := true
		for i, v := range f.Vertices {
			if v < 0 || v >= numPos {
				valid = false
				break
			}
			c := objCorner{v: v, vt: -1, vn: -1}
			if i < len(f.Uvs) && f.Uvs[i] >= 0 && f.Uvs[i] < numUV {
				c.vt = f.Uvs[i]
			} else {
				hasUV = false
			}
			if i < len(f.Normals) && f.Normals[i] >= 0 && f.Normals[i] < numNorm {
				c.vn = f.Normals[i]
			} else {
				hasNorm = false
			}

			idx, ok := corners[c]
			if !ok {
				idx = uint32(len(m.Positions))
				corners[c] = idx
				m.Positions = append(m.Positions, [3]float32{dec.Vertices[3*v], dec.Vertices[3*v+1], dec.Vertices[3*v+2]})
				var uv [2]float32
				if c.vt >= 0 {
					uv = [2]float32{dec.Uvs[2*c.vt], dec.Uvs[2*c.vt+1]}
				}
				m.TexCoords = append(m.TexCoords, uv)
				var n [3]float32
				if c.vn >= 0 {
					n = [3]float32{dec.Normals[3*c.vn], dec.Normals[3*c.vn+1], dec.Normals[3*c.vn+2]}
				}
				m.Normals = append(m.Normals, n)
			}
			face = append(face, idx)
		}
		if !valid {
			s.warnf("object face references missing vertex, skipped")
			continue
		}
		m.Faces = append(m.Faces, face)
	}

	// Partial channels are treated as absent
	if !hasUV {
		m.TexCoords = nil
	}
	if !hasNorm {
		m.Normals = nil
	}
	return m
}
