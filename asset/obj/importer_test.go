package obj

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/obj_scene_viewer/asset/diag"
	"github.com/mogaika/obj_scene_viewer/asset/mesh"
	"github.com/mogaika/obj_scene_viewer/asset/texture"
)

type fakeDecoder map[string]image.Image

func (d fakeDecoder) Decode(path string) (image.Image, error) {
	if img, ok := d[filepath.Base(path)]; ok {
		return img, nil
	}
	return nil, errors.Errorf("no such texture %q", path)
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func importString(t *testing.T, src string, mode VertexMode) (*Result, error) {
	t.Helper()
	return ImportReader(strings.NewReader(src), "model.obj", Options{
		VertexMode:  mode,
		Decoder:     fakeDecoder{},
		Diagnostics: diag.NewQuietList(),
	})
}

func assertLocalIndices(t *testing.T, meshes []*mesh.Mesh) {
	t.Helper()
	for _, m := range meshes {
		for _, idx := range m.Indices() {
			assert.Less(t, int(idx), len(m.Vertices()), "mesh %q", m.Name())
		}
	}
}

func ngon(n int) string {
	var b strings.Builder
	f := "f"
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "v %d %d 0\n", i, i*i)
		f += fmt.Sprintf(" %d", i+1)
	}
	return b.String() + f + "\n"
}

func TestFanTriangulation(t *testing.T) {
	for _, mode := range []VertexMode{SplitVertices, SliceRange} {
		for n := 3; n <= 8; n++ {
			res, err := importString(t, ngon(n), mode)
			require.NoError(t, err)
			require.Len(t, res.Meshes, 1)

			m := res.Meshes[0]
			require.Equal(t, n-2, m.TriangleCount(), "%d-gon, %v", n, mode)
			first := m.Indices()[0]
			for i := 0; i < m.TriangleCount(); i++ {
				tri := m.Triangle(i)
				assert.Equal(t, first, tri[0])
				assert.Equal(t, m.Vertices()[tri[1]], mgl32.Vec3{float32(i + 1), float32((i + 1) * (i + 1)), 0})
				assert.Equal(t, m.Vertices()[tri[2]], mgl32.Vec3{float32(i + 2), float32((i + 2) * (i + 2)), 0})
			}
		}
	}
}

func TestSingleTriangle(t *testing.T) {
	res, err := importString(t, "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n", SplitVertices)
	require.NoError(t, err)
	require.Len(t, res.Meshes, 1)
	m := res.Meshes[0]
	assert.Equal(t, 1, m.TriangleCount())
	assert.Len(t, m.Vertices(), 3)
	assert.Equal(t, "", m.Material().Name)
	for _, n := range m.Normals() {
		assert.InDelta(t, 1, n.Z(), 1e-6)
	}
	assert.Equal(t, 0, res.Diagnostics.Len())
}

func TestStoneQuad(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"stone.mtl": "newmtl stone\nKd 0.5 0.5 0.5\nNs 10\n",
		"quad.obj": `mtllib stone.mtl
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
usemtl stone
f 1 2 3 4
`,
	})
	res, err := Import(filepath.Join(dir, "quad.obj"), Options{Diagnostics: diag.NewQuietList()})
	require.NoError(t, err)
	require.Len(t, res.Meshes, 1)

	m := res.Meshes[0]
	assert.Equal(t, 2, m.TriangleCount())
	assert.Equal(t, "stone", m.Material().Name)
	assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0.5}, m.Material().Diffuse)
	assert.Equal(t, "stone", m.Name())
	assert.Equal(t, 1, res.Library.Len())
}

const twoMaterials = `mtllib lib.mtl
v 0 0 0
v 1 0 0
v 0 1 0
v 5 5 5
v 6 5 5
v 5 6 5
v 5 5 6
usemtl red
f 1 2 3
usemtl blue
f 4 5 6
f 4 6 7
`

func TestTwoMaterialsTwoMeshes(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"lib.mtl":   "newmtl red\nKd 1 0 0\nnewmtl blue\nKd 0 0 1\n",
		"model.obj": twoMaterials,
	})
	for _, mode := range []VertexMode{SplitVertices, SliceRange} {
		res, err := Import(filepath.Join(dir, "model.obj"), Options{VertexMode: mode, Diagnostics: diag.NewQuietList()})
		require.NoError(t, err)
		require.Len(t, res.Meshes, 2, "%v", mode)

		red, blue := res.Meshes[0], res.Meshes[1]
		assert.Equal(t, "red", red.Material().Name)
		assert.Equal(t, 1, red.TriangleCount())
		assert.Len(t, red.Vertices(), 3)
		assert.Equal(t, "blue", blue.Material().Name)
		assert.Equal(t, 2, blue.TriangleCount())
		assert.Len(t, blue.Vertices(), 4)
		for _, v := range blue.Vertices() {
			assert.True(t, v.X() >= 5, "%v leaked into blue mesh", v)
		}
		assertLocalIndices(t, res.Meshes)
	}
}

func TestFacesBeforeUseMaterial(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"lib.mtl": "newmtl red\n",
		"model.obj": `mtllib lib.mtl
o Floor
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
usemtl red
f 3 2 1
usemtl red
`,
	})
	res, err := Import(filepath.Join(dir, "model.obj"), Options{Diagnostics: diag.NewQuietList()})
	require.NoError(t, err)
	require.Len(t, res.Meshes, 2)
	assert.Equal(t, "", res.Meshes[0].Material().Name)
	assert.Equal(t, "Floor", res.Meshes[0].Name())
	assert.Equal(t, "red", res.Meshes[1].Material().Name)
	assert.Equal(t, "Floor", res.Meshes[1].Name())
}

// position 1 is used with two different texture coordinates
const sharedPosition = `v 0 0 0
v 1 0 0
v 0 1 0
v 1 1 0
vt 0 0
vt 1 0
vt 0 1
vt 0.5 0.5
f 1/1 2/2 3/3
f 1/4 3/3 4/2
`

func TestSplitVertices(t *testing.T) {
	res, err := importString(t, sharedPosition, SplitVertices)
	require.NoError(t, err)
	m := res.Meshes[0]
	assert.Len(t, m.Vertices(), 5)
	assertLocalIndices(t, res.Meshes)

	// every corner sees its own texture coordinate
	assert.Equal(t, mgl32.Vec2{0, 0}, m.TexCoords()[m.Triangle(0)[0]])
	assert.Equal(t, mgl32.Vec2{0.5, 0.5}, m.TexCoords()[m.Triangle(1)[0]])
	assert.Equal(t, m.Vertices()[m.Triangle(0)[0]], m.Vertices()[m.Triangle(1)[0]])
}

func TestSliceRangeLastWriteWins(t *testing.T) {
	res, err := importString(t, sharedPosition, SliceRange)
	require.NoError(t, err)
	m := res.Meshes[0]
	assert.Len(t, m.Vertices(), 4)
	assert.Equal(t, m.Triangle(0)[0], m.Triangle(1)[0])
	assert.Equal(t, mgl32.Vec2{0.5, 0.5}, m.TexCoords()[0])
}

func TestSliceRangeOffset(t *testing.T) {
	src := "v 9 9 9\nv 0 0 0\nv 1 0 0\nv 0 1 0\nf 2 3 4\n"
	res, err := importString(t, src, SliceRange)
	require.NoError(t, err)
	m := res.Meshes[0]
	assert.Equal(t, []uint32{0, 1, 2}, m.Indices())
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, m.Vertices()[0])
	assert.Nil(t, m.TexCoords())
}

func TestFileNormals(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nvn 0 0 2\nf 1//1 2//1 3//1\n"
	res, err := importString(t, src, SplitVertices)
	require.NoError(t, err)
	for _, n := range res.Meshes[0].Normals() {
		assert.Equal(t, mgl32.Vec3{0, 0, 1}, n)
	}
}

func TestNegativeIndices(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf -3 -2 -1\nv 5 5 5\nf -4 -3 -1\n"
	res, err := importString(t, src, SplitVertices)
	require.NoError(t, err)
	m := res.Meshes[0]
	require.Equal(t, 2, m.TriangleCount())
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, m.Vertices()[m.Triangle(1)[0]])
	assert.Equal(t, mgl32.Vec3{5, 5, 5}, m.Vertices()[m.Triangle(1)[2]])
}

func TestStructuralErrors(t *testing.T) {
	for _, src := range []string{
		"v 0 0 0\nf 1 2 3\n",
		"v 0 0 0\nv 0 0 0\nv 0 0 0\nf -4 1 2\n",
		"v 0 0 0\nv 0 0 0\nv 0 0 0\nvt 0 0\nf 1/1 2/2 3/1\n",
		"v 0 0 0\nv 0 0 0\nv 0 0 0\nf 1//1 2//1 3//1\n",
		"v 0 0 0\nv 0 0 0\nv 0 0 0\nusemtl nowhere\nf 1 2 3\n",
	} {
		res, err := importString(t, src, SplitVertices)
		assert.Nil(t, res, src)
		require.Error(t, err, src)
		assert.True(t, diag.IsKind(err, diag.StructuralError), "%q: %v", src, err)
	}
}

func TestMixedLayoutDropsFace(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nvt 0 0\nf 1 2 3\nf 1/1 2/1 3/1\n"
	res, err := importString(t, src, SplitVertices)
	require.NoError(t, err)
	require.Len(t, res.Meshes, 1)
	assert.Equal(t, 1, res.Meshes[0].TriangleCount())
	require.Equal(t, 1, res.Diagnostics.Count(diag.FormatError))
	assert.Equal(t, 6, res.Diagnostics.Of(diag.FormatError)[0].Line)
}

func TestEmptyFile(t *testing.T) {
	for _, src := range []string{"", "# nothing\n", "v 1 2 3\nvn 0 0 1\n", "usemtl nowhere\n"} {
		res, err := importString(t, src, SplitVertices)
		require.NoError(t, err, src)
		assert.Empty(t, res.Meshes, src)
	}
}

func TestTextures(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"lib.mtl": "newmtl wood\nmap_Kd wood.png\nnewmtl rock\nmap_Kd -s 2 2 1 rock.png\n",
		"model.obj": `mtllib lib.mtl
v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
usemtl wood
f 1/1 2/1 3/1
usemtl rock
f 1/1 2/1 3/1
`,
	})
	wood := image.NewRGBA(image.Rect(0, 0, 2, 2))
	diags := diag.NewQuietList()
	res, err := Import(filepath.Join(dir, "model.obj"), Options{
		Decoder:     fakeDecoder{"wood.png": wood},
		Diagnostics: diags,
	})
	require.NoError(t, err)
	require.Len(t, res.Meshes, 2)

	require.Len(t, res.Meshes[0].Textures(), 1)
	assert.Same(t, wood, res.Meshes[0].Textures()[0])

	require.Len(t, res.Meshes[1].Textures(), 1)
	assert.Equal(t, texture.Placeholder().Pix, res.Meshes[1].Textures()[0].(*image.RGBA).Pix)
	assert.True(t, res.Meshes[1].Material().HasTextureScale)
	assert.Equal(t, 1, diags.Count(diag.ResourceError))

	assert.NotNil(t, res.Meshes[0].Tangents())
}

func TestMissingLibrary(t *testing.T) {
	res, err := importString(t, "mtllib missing.mtl\nv 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n", SplitVertices)
	require.NoError(t, err)
	assert.Len(t, res.Meshes, 1)
	assert.Equal(t, 1, res.Diagnostics.Count(diag.ResourceError))

	_, err = importString(t, "mtllib missing.mtl\nv 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl a\nf 1 2 3\n", SplitVertices)
	assert.True(t, diag.IsKind(err, diag.StructuralError))
}

func TestMultipleLibrariesMerge(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.mtl":     "newmtl a\nNs 1\nnewmtl shared\nNs 1\n",
		"b.mtl":     "newmtl b\nnewmtl shared\nNs 2\n",
		"model.obj": "mtllib a.mtl\nmtllib b.mtl\nv 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl shared\nf 1 2 3\nusemtl a\nf 1 2 3\n",
	})
	diags := diag.NewQuietList()
	res, err := Import(filepath.Join(dir, "model.obj"), Options{Diagnostics: diags})
	require.NoError(t, err)
	require.Len(t, res.Meshes, 2)
	assert.Equal(t, float32(2), res.Meshes[0].Material().Shininess)
	assert.Equal(t, 1, diags.Count(diag.Warning))
}

func TestParseVertexMode(t *testing.T) {
	m, err := ParseVertexMode("")
	require.NoError(t, err)
	assert.Equal(t, SplitVertices, m)
	m, err = ParseVertexMode("slice")
	require.NoError(t, err)
	assert.Equal(t, SliceRange, m)
	_, err = ParseVertexMode("weld")
	assert.Error(t, err)
}
