package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const quadOBJ = `mtllib quad.mtl
o Quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
usemtl painted
f 1/1 2/2 3/3 4/4
`

const quadMTL = `newmtl painted
Kd 1 1 1
map_Kd textures/quad.png
`

func writeOBJ(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "quad.obj"), []byte(quadOBJ), 0644); err != nil {
		t.Fatalf("failed to write obj: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "quad.mtl"), []byte(quadMTL), 0644); err != nil {
		t.Fatalf("failed to write mtl: %v", err)
	}
	return filepath.Join(dir, "quad.obj")
}

func TestOBJImport(t *testing.T) {
	s, err := Default().ReadFile(writeOBJ(t), Triangulate|GenSmoothNormals)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if len(s.Root.Children) != 1 || s.Root.Children[0].Name != "Quad" {
		t.Fatalf("expected one object node 'Quad'")
	}
	if len(s.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(s.Meshes))
	}

	m := s.Meshes[0]
	if len(m.Positions) != 4 {
		t.Errorf("expected 4 vertices, got %d", len(m.Positions))
	}
	if len(m.Faces) != 2 {
		t.Errorf("expected quad triangulated to 2 faces, got %d", len(m.Faces))
	}
	if !m.HasTexCoords() {
		t.Error("expected texture coordinates")
	}
	if !m.HasNormals() {
		t.Error("expected generated normals")
	}

	mat := s.Materials[m.MaterialIndex]
	if mat.Name != "painted" {
		t.Errorf("material = %q, want painted", mat.Name)
	}
	if mat.TextureCount(TextureDiffuse) != 1 || mat.Texture(TextureDiffuse, 0) != "textures/quad.png" {
		t.Errorf("diffuse textures = %v", mat.Textures[TextureDiffuse])
	}
}

const mappedMTL = `newmtl painted
Kd 1 1 1
map_Kd diffuse.png
map_Ks specular.png
map_Bump -bm 0.5 maps/normal.png
map_Ka ao.png
norm tangent_normal.png
map_d alpha.png

newmtl plain
Kd 0.5 0.5 0.5
bump plain_bump.png
`

func TestOBJMaterialMaps(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "quad.obj"), []byte(quadOBJ), 0644); err != nil {
		t.Fatalf("failed to write obj: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "quad.mtl"), []byte(mappedMTL), 0644); err != nil {
		t.Fatalf("failed to write mtl: %v", err)
	}

	s, err := (&OBJ{}).Import(filepath.Join(dir, "quad.obj"))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	byName := make(map[string]*Material)
	for _, m := range s.Materials {
		byName[m.Name] = m
	}

	tests := []struct {
		material string
		slot     TextureType
		want     string
	}{
		{"painted", TextureDiffuse, "diffuse.png"},
		{"painted", TextureSpecular, "specular.png"},
		{"painted", TextureHeight, "maps/normal.png"},
		{"painted", TextureAmbient, "ao.png"},
		{"painted", TextureNormals, "tangent_normal.png"},
		{"painted", TextureOpacity, "alpha.png"},
		{"plain", TextureHeight, "plain_bump.png"},
	}

	for _, tt := range tests {
		t.Run(tt.material+"/"+tt.slot.String(), func(t *testing.T) {
			mat, ok := byName[tt.material]
			if !ok {
				t.Fatalf("material %q not imported", tt.material)
			}
			if mat.TextureCount(tt.slot) != 1 || mat.Texture(tt.slot, 0) != tt.want {
				t.Errorf("%s textures = %v, want [%s]", tt.slot, mat.Textures[tt.slot], tt.want)
			}
		})
	}

	for _, w := range s.Warnings {
		if strings.Contains(w, "map_Ks") || strings.Contains(w, "map_Bump") || strings.Contains(w, "map_Ka") {
			t.Errorf("unexpected warning for a read statement: %q", w)
		}
	}
}

func TestMTLMapsMissingFile(t *testing.T) {
	_, err := readMTLMaps(filepath.Join(t.TempDir(), "none.mtl"))
	if !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
