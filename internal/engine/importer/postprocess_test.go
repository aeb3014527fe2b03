package importer

import (
	"math"
	"testing"
)

func approx(a, b [3]float32) bool {
	for i := 0; i < 3; i++ {
		if math.Abs(float64(a[i]-b[i])) > 1e-5 {
			return false
		}
	}
	return true
}

func quad() *Mesh {
	return &Mesh{
		Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		TexCoords: [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		Faces:     [][]uint32{{0, 1, 2, 3}},
	}
}

func TestTriangulate(t *testing.T) {
	tests := []struct {
		name        string
		faces       [][]uint32
		wantFaces   [][]uint32
		wantDropped int
	}{
		{
			name:      "triangle untouched",
			faces:     [][]uint32{{0, 1, 2}},
			wantFaces: [][]uint32{{0, 1, 2}},
		},
		{
			name:      "quad fans",
			faces:     [][]uint32{{0, 1, 2, 3}},
			wantFaces: [][]uint32{{0, 1, 2}, {0, 2, 3}},
		},
		{
			name:      "pentagon fans",
			faces:     [][]uint32{{0, 1, 2, 3, 4}},
			wantFaces: [][]uint32{{0, 1, 2}, {0, 2, 3}, {0, 3, 4}},
		},
		{
			name:        "points and lines dropped",
			faces:       [][]uint32{{0}, {0, 1}, {0, 1, 2}},
			wantFaces:   [][]uint32{{0, 1, 2}},
			wantDropped: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Faces: tt.faces}
			dropped := triangulate(m)
			if dropped != tt.wantDropped {
				t.Errorf("dropped = %d, want %d", dropped, tt.wantDropped)
			}
			if len(m.Faces) != len(tt.wantFaces) {
				t.Fatalf("got %d faces, want %d", len(m.Faces), len(tt.wantFaces))
			}
			for i := range m.Faces {
				for j := range m.Faces[i] {
					if m.Faces[i][j] != tt.wantFaces[i][j] {
						t.Errorf("face %d = %v, want %v", i, m.Faces[i], tt.wantFaces[i])
						break
					}
				}
			}
		})
	}
}

func TestFlipUVs(t *testing.T) {
	m := &Mesh{TexCoords: [][2]float32{{0.25, 0.25}, {1, 0}}}
	flipUVs(m)
	if m.TexCoords[0] != [2]float32{0.25, 0.75} || m.TexCoords[1] != [2]float32{1, 1} {
		t.Errorf("unexpected flipped UVs %v", m.TexCoords)
	}
}

func TestGenSmoothNormals(t *testing.T) {
	m := quad()
	triangulate(m)
	genSmoothNormals(m)

	if !m.HasNormals() {
		t.Fatal("normals should be generated")
	}
	for i, n := range m.Normals {
		if !approx(n, [3]float32{0, 0, 1}) {
			t.Errorf("normal %d = %v, want +Z", i, n)
		}
	}
}

func TestGenSmoothNormalsSharedPosition(t *testing.T) {
	// Two triangles meeting at a ridge with duplicated vertices on the edge
	m := &Mesh{
		Positions: [][3]float32{
			{0, 0, 0}, {1, 0, 0}, {0, 1, 1},
			{0, 0, 0}, {0, 1, -1}, {1, 0, 0},
		},
		Faces: [][]uint32{{0, 1, 2}, {3, 4, 5}},
	}
	genSmoothNormals(m)

	// Vertex 0 and 3 share a position and must share a normal
	if m.Normals[0] != m.Normals[3] {
		t.Errorf("shared position normals differ: %v vs %v", m.Normals[0], m.Normals[3])
	}
}

func TestCalcTangentSpace(t *testing.T) {
	m := quad()
	triangulate(m)
	genSmoothNormals(m)
	calcTangentSpace(m)

	if !m.HasTangents() {
		t.Fatal("tangents should be generated")
	}
	for i := range m.Positions {
		if !approx(m.Tangents[i], [3]float32{1, 0, 0}) {
			t.Errorf("tangent %d = %v, want +X", i, m.Tangents[i])
		}
		if !approx(m.Bitangents[i], [3]float32{0, 1, 0}) {
			t.Errorf("bitangent %d = %v, want +Y", i, m.Bitangents[i])
		}
	}
}

func TestCalcTangentSpaceWithoutUVs(t *testing.T) {
	m := quad()
	m.TexCoords = nil
	triangulate(m)
	genSmoothNormals(m)
	calcTangentSpace(m)

	if m.Tangents != nil || m.Bitangents != nil {
		t.Error("meshes without UVs must not get tangents")
	}
}

func TestApplyKeepsExistingNormals(t *testing.T) {
	m := quad()
	m.Normals = [][3]float32{{0, 0, -1}, {0, 0, -1}, {0, 0, -1}, {0, 0, -1}}
	s := &Scene{Meshes: []*Mesh{m}}

	Apply(s, Triangulate|GenSmoothNormals)

	if m.Normals[0] != [3]float32{0, 0, -1} {
		t.Errorf("existing normals overwritten: %v", m.Normals[0])
	}
	if len(m.Faces) != 2 {
		t.Errorf("expected 2 triangles, got %d", len(m.Faces))
	}
}

func TestApplyRecordsDroppedFaces(t *testing.T) {
	m := &Mesh{Name: "lines", Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}}, Faces: [][]uint32{{0, 1}}}
	s := &Scene{Meshes: []*Mesh{m}}

	Apply(s, Triangulate)

	if len(m.Faces) != 0 {
		t.Errorf("line faces should be dropped, got %v", m.Faces)
	}
	if len(s.Warnings) != 1 {
		t.Errorf("expected one warning, got %v", s.Warnings)
	}
}
