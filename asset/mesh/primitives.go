package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/obj_scene_viewer/asset/mtl"
)

var cubeVertices = []mgl32.Vec3{
	{-1, -1, -1},
	{+1, -1, -1},
	{-1, +1, -1},
	{+1, +1, -1},
	{-1, -1, +1},
	{-1, +1, +1},
	{+1, -1, +1},
	{+1, +1, +1},
}

var cubeIndices = []uint32{
	1, 0, 2, 1, 2, 3, // back
	2, 0, 4, 2, 4, 5, // right
	1, 3, 7, 1, 7, 6, // left
	5, 4, 6, 5, 6, 7, // front
	0, 1, 4, 4, 1, 6, // bottom
	2, 5, 3, 5, 7, 3, // top
}

// Cube is the unit cube [-1,1]^3. With inside set the winding is flipped so
// faces are visible from within, as the skybox needs.
func Cube(inside bool) *Mesh {
	vertices := make([]mgl32.Vec3, len(cubeVertices))
	copy(vertices, cubeVertices)
	indices := make([]uint32, len(cubeIndices))
	copy(indices, cubeIndices)
	if inside {
		for i := 0; i < len(indices); i += 3 {
			indices[i+1], indices[i+2] = indices[i+2], indices[i+1]
		}
	}
	m, err := New(Data{Name: "cube", Vertices: vertices, Indices: indices})
	if err != nil {
		panic(err)
	}
	return m
}

func SphereMaterial() *mtl.Material {
	m := mtl.NewMaterial("sphere")
	m.Ambient = mgl32.Vec3{0.5, 0.5, 0.5}
	m.Diffuse = mgl32.Vec3{0.6, 0.6, 0.9}
	m.Specular = mgl32.Vec3{1, 1, 0.9}
	m.Shininess = 15
	return m
}

// Sphere is a unit UV sphere with nvert latitude bands and nhoriz segments.
func Sphere(nvert, nhoriz int, material *mtl.Material) *Mesh {
	if nvert < 2 {
		nvert = 2
	}
	if nhoriz < 3 {
		nhoriz = 3
	}
	if material == nil {
		material = SphereMaterial()
	}

	n := (nvert-1)*nhoriz + 2
	vertices := make([]mgl32.Vec3, n)
	texCoords := make([]mgl32.Vec2, n)
	vertices[0] = mgl32.Vec3{0, 1, 0}
	vertices[n-1] = mgl32.Vec3{0, -1, 0}

	vslice := math.Pi / float64(nvert)
	hslice := 2 * math.Pi / float64(nhoriz)
	for i := 0; i < nvert-1; i++ {
		y := math.Cos(float64(i+1) * vslice)
		r := math.Sin(float64(i+1) * vslice)
		for j := 0; j < nhoriz; j++ {
			v := 1 + i*nhoriz + j
			vertices[v] = mgl32.Vec3{
				float32(r * math.Cos(float64(j)*hslice)),
				float32(y),
				float32(r * math.Sin(float64(j)*hslice)),
			}
			texCoords[v] = mgl32.Vec2{float32(j) / float32(nhoriz), float32(i) / float32(nvert)}
		}
	}

	indices := make([]uint32, 0, 3*(2*nhoriz+(nvert-2)*nhoriz*2))
	tri := func(a, b, c int) {
		indices = append(indices, uint32(a), uint32(b), uint32(c))
	}

	lastrow := n - nhoriz - 2
	for i := 0; i < nhoriz-1; i++ {
		tri(0, i+2, i+1)
		tri(lastrow+i+2, n-1, lastrow+i+1)
	}
	tri(0, 1, nhoriz)
	tri(lastrow+1, n-1, n-2)

	for j := 1; j < nvert-1; j++ {
		lastrow := nhoriz*(j-1) + 1
		row := nhoriz*j + 1
		for i := 0; i < nhoriz-1; i++ {
			tri(row+i, lastrow+i, row+i+1)
			tri(row+i+1, lastrow+i, lastrow+i+1)
		}
		tri(row+nhoriz-1, lastrow+nhoriz-1, row)
		tri(row, lastrow+nhoriz-1, lastrow)
	}

	m, err := New(Data{
		Name:      "sphere",
		Vertices:  vertices,
		Indices:   indices,
		TexCoords: texCoords,
		Material:  material,
	})
	if err != nil {
		panic(err)
	}
	return m
}
