// Package mesh holds GPU-ready indexed triangle meshes.
package mesh

import (
	"image"
	"log"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/obj_scene_viewer/asset/mtl"
)

// Data is everything needed to build a Mesh. Indices are triangles,
// three per face, referencing Vertices.
type Data struct {
	Name      string
	Vertices  []mgl32.Vec3
	Indices   []uint32
	Normals   []mgl32.Vec3 // optional
	TexCoords []mgl32.Vec2 // optional
	Material  *mtl.Material
	Textures  []image.Image
}

// Mesh is immutable after New, except for the lazily computed normal and
// tangent frame arrays.
type Mesh struct {
	name      string
	vertices  []mgl32.Vec3
	indices   []uint32
	normals   []mgl32.Vec3
	texCoords []mgl32.Vec2
	tangents  []mgl32.Vec3
	binormals []mgl32.Vec3
	material  *mtl.Material
	textures  []image.Image
}

func New(d Data) (*Mesh, error) {
	if len(d.Indices)%3 != 0 {
		return nil, errors.Errorf("index count %d is not a multiple of 3", len(d.Indices))
	}
	for i, idx := range d.Indices {
		if int(idx) >= len(d.Vertices) {
			return nil, errors.Errorf("index %d at %d out of range [0,%d)", idx, i, len(d.Vertices))
		}
	}
	if d.Normals != nil && len(d.Normals) != len(d.Vertices) {
		return nil, errors.Errorf("%d normals for %d vertices", len(d.Normals), len(d.Vertices))
	}
	if d.TexCoords != nil && len(d.TexCoords) != len(d.Vertices) {
		return nil, errors.Errorf("%d texture coordinates for %d vertices", len(d.TexCoords), len(d.Vertices))
	}

	m := &Mesh{
		name:      d.Name,
		vertices:  d.Vertices,
		indices:   d.Indices,
		texCoords: d.TexCoords,
		material:  d.Material,
		textures:  d.Textures,
	}
	if m.material == nil {
		m.material = mtl.DefaultMaterial()
	}
	if d.Normals != nil {
		m.normals = make([]mgl32.Vec3, len(d.Normals))
		copy(m.normals, d.Normals)
		SafeNormalize(m.normals)
	}

	log.Printf("[mesh] Created mesh %q: %d vertices, %d triangles", m.name, len(m.vertices), m.TriangleCount())
	return m, nil
}

func (m *Mesh) Name() string             { return m.name }
func (m *Mesh) Vertices() []mgl32.Vec3   { return m.vertices }
func (m *Mesh) Indices() []uint32        { return m.indices }
func (m *Mesh) TexCoords() []mgl32.Vec2  { return m.texCoords }
func (m *Mesh) Material() *mtl.Material  { return m.material }
func (m *Mesh) Textures() []image.Image  { return m.textures }
func (m *Mesh) TriangleCount() int       { return len(m.indices) / 3 }
func (m *Mesh) HasTexCoords() bool       { return m.texCoords != nil }
func (m *Mesh) Triangle(i int) [3]uint32 { return [3]uint32{m.indices[i*3], m.indices[i*3+1], m.indices[i*3+2]} }

// Normals are the supplied normals renormalized, or the accumulated face
// normals of every vertex when none were supplied.
func (m *Mesh) Normals() []mgl32.Vec3 {
	if m.normals == nil {
		m.normals = AccumulateNormals(m.vertices, m.indices)
		SafeNormalize(m.normals)
	}
	return m.normals
}

// Tangents are nil for meshes without texture coordinates.
func (m *Mesh) Tangents() []mgl32.Vec3 {
	m.tangentFrame()
	return m.tangents
}

func (m *Mesh) Binormals() []mgl32.Vec3 {
	m.tangentFrame()
	return m.binormals
}

func (m *Mesh) tangentFrame() {
	if m.tangents != nil || m.texCoords == nil {
		return
	}
	m.tangents = make([]mgl32.Vec3, len(m.vertices))
	m.binormals = make([]mgl32.Vec3, len(m.vertices))
	for i := 0; i < m.TriangleCount(); i++ {
		t := m.Triangle(i)
		e1 := m.vertices[t[1]].Sub(m.vertices[t[0]])
		e2 := m.vertices[t[2]].Sub(m.vertices[t[0]])
		d1 := m.texCoords[t[1]].Sub(m.texCoords[t[0]])
		d2 := m.texCoords[t[2]].Sub(m.texCoords[t[0]])

		det := d1.X()*d2.Y() - d2.X()*d1.Y()
		if det == 0 {
			continue
		}
		r := 1 / det
		tangent := e1.Mul(d2.Y()).Sub(e2.Mul(d1.Y())).Mul(r)
		binormal := e2.Mul(d1.X()).Sub(e1.Mul(d2.X())).Mul(r)
		for _, v := range t {
			m.tangents[v] = m.tangents[v].Add(tangent)
			m.binormals[v] = m.binormals[v].Add(binormal)
		}
	}
	SafeNormalize(m.tangents)
	SafeNormalize(m.binormals)
}

// Bounds is the axis aligned bounding box of the vertices.
func (m *Mesh) Bounds() (min, max mgl32.Vec3) {
	return Bounds(m.vertices)
}

func Bounds(vertices []mgl32.Vec3) (min, max mgl32.Vec3) {
	if len(vertices) == 0 {
		return
	}
	min, max = vertices[0], vertices[0]
	for _, v := range vertices[1:] {
		for i := 0; i < 3; i++ {
			if v[i] < min[i] {
				min[i] = v[i]
			}
			if v[i] > max[i] {
				max[i] = v[i]
			}
		}
	}
	return
}

// AccumulateNormals sums the unweighted cross product normal of every
// triangle into each of its vertices. The result is not normalized.
func AccumulateNormals(vertices []mgl32.Vec3, indices []uint32) []mgl32.Vec3 {
	normals := make([]mgl32.Vec3, len(vertices))
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		n := vertices[b].Sub(vertices[a]).Cross(vertices[c].Sub(vertices[a]))
		normals[a] = normals[a].Add(n)
		normals[b] = normals[b].Add(n)
		normals[c] = normals[c].Add(n)
	}
	return normals
}

// SafeNormalize normalizes in place; zero length vectors are left as is.
func SafeNormalize(vs []mgl32.Vec3) {
	for i, v := range vs {
		if l := v.Len(); l != 0 {
			vs[i] = v.Mul(1 / l)
		}
	}
}
