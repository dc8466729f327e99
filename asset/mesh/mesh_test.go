package mesh

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rightTriangle = []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}

func TestAccumulateNormalsPointsUp(t *testing.T) {
	normals := AccumulateNormals(rightTriangle, []uint32{0, 1, 2})
	require.Len(t, normals, 3)
	for _, n := range normals {
		assert.Equal(t, float32(0), n.X())
		assert.Equal(t, float32(0), n.Y())
		assert.True(t, n.Z() > 0, "normal %v does not point along +Z", n)
	}
}

func TestNormalsAreRenormalized(t *testing.T) {
	m, err := New(Data{Vertices: rightTriangle, Indices: []uint32{0, 1, 2}})
	require.NoError(t, err)
	for _, n := range m.Normals() {
		assert.InDelta(t, 1, n.Len(), 1e-6)
		assert.InDelta(t, 1, n.Z(), 1e-6)
	}

	supplied := []mgl32.Vec3{{0, 0, 2}, {0, 3, 0}, {0, 0, 0}}
	m, err = New(Data{Vertices: rightTriangle, Indices: []uint32{0, 1, 2}, Normals: supplied})
	require.NoError(t, err)
	assert.Equal(t, []mgl32.Vec3{{0, 0, 1}, {0, 1, 0}, {0, 0, 0}}, m.Normals())
	// caller's slice is not touched
	assert.Equal(t, mgl32.Vec3{0, 0, 2}, supplied[0])
}

func TestSafeNormalizeKeepsZero(t *testing.T) {
	vs := []mgl32.Vec3{{0, 0, 0}, {3, 0, 4}}
	SafeNormalize(vs)
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, vs[0])
	assert.InDelta(t, 0.6, vs[1].X(), 1e-6)
	assert.InDelta(t, 0.8, vs[1].Z(), 1e-6)
	for _, v := range vs {
		for _, c := range v {
			assert.False(t, c != c, "NaN in %v", v)
		}
	}
}

func TestNewValidates(t *testing.T) {
	var tests = []struct {
		name string
		data Data
	}{
		{"index out of range", Data{Vertices: rightTriangle, Indices: []uint32{0, 1, 3}}},
		{"partial triangle", Data{Vertices: rightTriangle, Indices: []uint32{0, 1}}},
		{"normals length", Data{Vertices: rightTriangle, Indices: []uint32{0, 1, 2}, Normals: []mgl32.Vec3{{}}}},
		{"texcoords length", Data{Vertices: rightTriangle, Indices: []uint32{0, 1, 2}, TexCoords: []mgl32.Vec2{{}}}},
	}
	for _, test := range tests {
		_, err := New(test.data)
		assert.Error(t, err, test.name)
	}
}

func TestDefaultMaterial(t *testing.T) {
	m, err := New(Data{Vertices: rightTriangle, Indices: []uint32{0, 1, 2}})
	require.NoError(t, err)
	require.NotNil(t, m.Material())
	assert.Equal(t, "", m.Material().Name)
}

func TestTangentFrame(t *testing.T) {
	m, err := New(Data{
		Vertices:  rightTriangle,
		Indices:   []uint32{0, 1, 2},
		TexCoords: []mgl32.Vec2{{0, 0}, {1, 0}, {0, 1}},
	})
	require.NoError(t, err)
	for i := range rightTriangle {
		assert.InDelta(t, 1, m.Tangents()[i].X(), 1e-6)
		assert.InDelta(t, 1, m.Binormals()[i].Y(), 1e-6)
	}

	m, err = New(Data{Vertices: rightTriangle, Indices: []uint32{0, 1, 2}})
	require.NoError(t, err)
	assert.Nil(t, m.Tangents())
	assert.Nil(t, m.Binormals())
}

func TestBounds(t *testing.T) {
	min, max := Bounds([]mgl32.Vec3{{1, -2, 3}, {-1, 5, 0}, {0, 0, 9}})
	assert.Equal(t, mgl32.Vec3{-1, -2, 0}, min)
	assert.Equal(t, mgl32.Vec3{1, 5, 9}, max)

	min, max = Bounds(nil)
	assert.Equal(t, mgl32.Vec3{}, min)
	assert.Equal(t, mgl32.Vec3{}, max)
}

func assertIndicesInRange(t *testing.T, m *Mesh) {
	for _, idx := range m.Indices() {
		assert.Less(t, int(idx), len(m.Vertices()))
	}
}

func TestCube(t *testing.T) {
	outside := Cube(false)
	inside := Cube(true)
	assert.Equal(t, 12, outside.TriangleCount())
	assert.Equal(t, 8, len(outside.Vertices()))
	assertIndicesInRange(t, outside)

	o := outside.Triangle(0)
	i := inside.Triangle(0)
	assert.Equal(t, [3]uint32{o[0], o[2], o[1]}, i)
}

func TestSphere(t *testing.T) {
	s := Sphere(10, 20, nil)
	assert.Equal(t, (10-1)*20+2, len(s.Vertices()))
	assert.Equal(t, 2*20+(10-2)*20*2, s.TriangleCount())
	assertIndicesInRange(t, s)
	assert.Equal(t, "sphere", s.Material().Name)

	for _, v := range s.Vertices() {
		assert.InDelta(t, 1, v.Len(), 1e-5)
	}
}
