package importer

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Apply runs the selected steps on every mesh of the scene in a fixed order:
// UV flip, triangulation, normal generation, tangent space.
func Apply(s *Scene, steps PostProcess) {
	for _, m := range s.Meshes {
		if steps&FlipUVs != 0 {
			flipUVs(m)
		}
		if steps&Triangulate != 0 {
			if dropped := triangulate(m); dropped > 0 {
				s.warnf("mesh %q: dropped %d point/line faces", m.Name, dropped)
			}
		}
		if steps&GenSmoothNormals != 0 && !m.HasNormals() {
			genSmoothNormals(m)
		}
		if steps&CalcTangentSpace != 0 && !m.HasTangents() {
			calcTangentSpace(m)
		}
	}
}

func flipUVs(m *Mesh) {
	for i := range m.TexCoords {
		m.TexCoords[i][1] = 1 - m.TexCoords[i][1]
	}
}

// triangulate fans polygons into triangles and drops faces with fewer than
// three indices. Returns the number of dropped faces.
func triangulate(m *Mesh) int {
	dropped := 0
	faces := make([][]uint32, 0, len(m.Faces))
	for _, f := range m.Faces {
		switch {
		case len(f) < 3:
			dropped++
		case len(f) == 3:
			faces = append(faces, f)
		default:
			for i := 1; i+1 < len(f); i++ {
				faces = append(faces, []uint32{f[0], f[i], f[i+1]})
			}
		}
	}
	m.Faces = faces
	return dropped
}

func inRange(f []uint32, n int) bool {
	for _, idx := range f {
		if int(idx) >= n {
			return false
		}
	}
	return true
}

// genSmoothNormals accumulates area-weighted face normals per vertex and
// then averages vertices sharing a position.
func genSmoothNormals(m *Mesh) {
	n := len(m.Positions)
	acc := make([]mgl32.Vec3, n)

	for _, f := range m.Faces {
		if len(f) < 3 || !inRange(f, n) {
			continue
		}
		v0 := mgl32.Vec3(m.Positions[f[0]])
		v1 := mgl32.Vec3(m.Positions[f[1]])
		v2 := mgl32.Vec3(m.Positions[f[2]])
		faceNormal := v1.Sub(v0).Cross(v2.Sub(v0))
		for _, idx := range f {
			acc[idx] = acc[idx].Add(faceNormal)
		}
	}

	// Group vertices by quantized position for O(n) lookup
	const epsilon float32 = 0.0001
	posMap := make(map[[3]int32][]int)
	for i, p := range m.Positions {
		key := [3]int32{int32(p[0] / epsilon), int32(p[1] / epsilon), int32(p[2] / epsilon)}
		posMap[key] = append(posMap[key], i)
	}

	m.Normals = make([][3]float32, n)
	for _, idxs := range posMap {
		var sum mgl32.Vec3
		for _, idx := range idxs {
			sum = sum.Add(acc[idx])
		}
		normal := safeNormalize(sum)
		for _, idx := range idxs {
			m.Normals[idx] = normal
		}
	}
}

// calcTangentSpace derives per-vertex tangents and bitangents from the first
// UV channel. Meshes without UVs or normals are left untouched.
func calcTangentSpace(m *Mesh) {
	if !m.HasTexCoords() || !m.HasNormals() {
		return
	}
	n := len(m.Positions)
	tan := make([]mgl32.Vec3, n)
	bit := make([]mgl32.Vec3, n)

	for _, f := range m.Faces {
		if len(f) != 3 || !inRange(f, n) {
			continue
		}
		p0, p1, p2 := mgl32.Vec3(m.Positions[f[0]]), mgl32.Vec3(m.Positions[f[1]]), mgl32.Vec3(m.Positions[f[2]])
		w0, w1, w2 := mgl32.Vec2(m.TexCoords[f[0]]), mgl32.Vec2(m.TexCoords[f[1]]), mgl32.Vec2(m.TexCoords[f[2]])

		e1, e2 := p1.Sub(p0), p2.Sub(p0)
		d1, d2 := w1.Sub(w0), w2.Sub(w0)

		det := d1[0]*d2[1] - d2[0]*d1[1]
		if det == 0 {
			continue
		}
		r := 1 / det
		t := e1.Mul(d2[1]).Sub(e2.Mul(d1[1])).Mul(r)
		b := e2.Mul(d1[0]).Sub(e1.Mul(d2[0])).Mul(r)

		for _, idx := range f {
			tan[idx] = tan[idx].Add(t)
			bit[idx] = bit[idx].Add(b)
		}
	}

	m.Tangents = make([][3]float32, n)
	m.Bitangents = make([][3]float32, n)
	for i := 0; i < n; i++ {
		normal := mgl32.Vec3(m.Normals[i])
		// Gram-Schmidt against the normal
		t := tan[i].Sub(normal.Mul(normal.Dot(tan[i])))
		b := bit[i].Sub(normal.Mul(normal.Dot(bit[i])))
		m.Tangents[i] = safeNormalize(t)
		m.Bitangents[i] = safeNormalize(b)
	}
}

func safeNormalize(v mgl32.Vec3) [3]float32 {
	if v.Len() < 1e-12 {
		return [3]float32{}
	}
	return v.Normalize()
}
