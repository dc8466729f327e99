package obj

import (
	"image"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/obj_scene_viewer/asset/diag"
	"github.com/mogaika/obj_scene_viewer/asset/mesh"
	"github.com/mogaika/obj_scene_viewer/asset/mtl"
	"github.com/mogaika/obj_scene_viewer/asset/texture"
)

// VertexMode selects how per-attribute face indices become a single vertex
// index space.
type VertexMode int

const (
	// SplitVertices gives every distinct (position, texcoord, normal)
	// combination of a sub-mesh its own vertex.
	SplitVertices VertexMode = iota
	// SliceRange keeps the position range [vmin, vmax] of a sub-mesh as its
	// vertex buffer. A position used with several texture coordinates keeps
	// the last one, and file normals are not used.
	SliceRange
)

func (m VertexMode) String() string {
	if m == SliceRange {
		return "slice"
	}
	return "split"
}

func ParseVertexMode(s string) (VertexMode, error) {
	switch s {
	case "", "split":
		return SplitVertices, nil
	case "slice":
		return SliceRange, nil
	}
	return SplitVertices, errors.Errorf("Unknown vertex mode %q", s)
}

type Options struct {
	VertexMode VertexMode
	// Decoder loads diffuse textures; nil reads files from disk
	Decoder texture.Decoder
	// Diagnostics receives every diagnostic; nil logs to the standard logger
	Diagnostics *diag.List
}

type Result struct {
	Meshes      []*mesh.Mesh
	Library     *mtl.Library
	Diagnostics *diag.List
}

func Import(path string, opts Options) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to open model %q", path)
	}
	defer f.Close()
	return ImportReader(f, path, opts)
}

type triangle struct {
	corners [3]Corner
	meshID  int
}

// group is everything following one usemtl; its index is the mesh id
type group struct {
	material string
	name     string
	line     int
	faces    int
}

type importer struct {
	file  string
	dir   string
	opts  Options
	diags *diag.List

	positions []mgl32.Vec3
	texCoords []mgl32.Vec2
	normals   []mgl32.Vec3

	library *mtl.Library
	layout  Layout
	faces   int

	objectName string
	groups     []group
	triangles  []triangle

	textures map[string]image.Image
}

// ImportReader imports an OBJ model read from r; file names the model for
// diagnostics and relative material library paths.
func ImportReader(r io.Reader, file string, opts Options) (*Result, error) {
	if opts.Decoder == nil {
		opts.Decoder = texture.FileDecoder{}
	}
	if opts.Diagnostics == nil {
		opts.Diagnostics = diag.NewList("obj")
	}

	imp := &importer{
		file:     file,
		dir:      filepath.Dir(file),
		opts:     opts,
		diags:    opts.Diagnostics,
		library:  mtl.NewLibrary(),
		groups:   []group{{}},
		textures: make(map[string]image.Image),
	}

	rd := NewReader(r, file, imp.diags)
	for rd.Next() {
		if err := imp.record(rd.Record()); err != nil {
			return nil, err
		}
	}
	if err := rd.Err(); err != nil {
		return nil, err
	}

	meshes, err := imp.build()
	if err != nil {
		log.Printf("[obj] Import of %q failed: %v", file, err)
		return nil, err
	}

	log.Printf("[obj] Imported %q: %d meshes, %d materials, %d diagnostics (%v vertices)",
		file, len(meshes), imp.library.Len(), imp.diags.Len(), opts.VertexMode)
	return &Result{
		Meshes:      meshes,
		Library:     imp.library,
		Diagnostics: imp.diags,
	}, nil
}

func (imp *importer) current() *group {
	return &imp.groups[len(imp.groups)-1]
}

func (imp *importer) record(rec *Record) error {
	switch rec.Kind {
	case Vertex:
		imp.positions = append(imp.positions, mgl32.Vec3{rec.Values[0], rec.Values[1], rec.Values[2]})
	case TexCoord:
		imp.texCoords = append(imp.texCoords, mgl32.Vec2{rec.Values[0], rec.Values[1]})
	case Normal:
		imp.normals = append(imp.normals, mgl32.Vec3{rec.Values[0], rec.Values[1], rec.Values[2]})
	case MaterialLib:
		for _, p := range rec.Paths {
			imp.loadLibrary(p, rec.Line)
		}
	case UseMaterial:
		imp.groups = append(imp.groups, group{
			material: rec.Name,
			name:     imp.objectName,
			line:     rec.Line,
		})
	case Object:
		imp.objectName = rec.Name
		if g := imp.current(); g.faces == 0 {
			g.name = rec.Name
		}
	case Face:
		return imp.face(rec)
	}
	return nil
}

func (imp *importer) loadLibrary(path string, line int) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(imp.dir, filepath.FromSlash(path))
	}
	lib, err := mtl.Load(path, imp.diags)
	if err != nil {
		imp.diags.Addf(diag.ResourceError, imp.file, line, "%v", err)
		return
	}
	for _, m := range lib.Materials {
		if _, exists := imp.library.Lookup(m.Name); exists {
			imp.diags.Addf(diag.Warning, imp.file, line, "material %q from %q replaces an earlier definition", m.Name, path)
		}
	}
	imp.library.Merge(lib)
}

// resolve turns a file index into a 1-based absolute one.
func resolve(i, count int) int {
	if i < 0 {
		return count + i + 1
	}
	return i
}

func (imp *importer) face(rec *Record) error {
	if imp.faces == 0 {
		imp.layout = rec.Layout
	} else if rec.Layout != imp.layout {
		imp.diags.Addf(diag.FormatError, imp.file, rec.Line,
			"face corners are %v, earlier faces are %v", rec.Layout, imp.layout)
		return nil
	}
	imp.faces++

	corners := make([]Corner, len(rec.Corners))
	for i, c := range rec.Corners {
		c.P = resolve(c.P, len(imp.positions))
		if c.P < 1 || c.P > len(imp.positions) {
			return diag.Structuralf(imp.file, rec.Line, "position index %d out of range [1,%d]", rec.Corners[i].P, len(imp.positions))
		}
		if c.T != 0 {
			c.T = resolve(c.T, len(imp.texCoords))
			if c.T < 1 || c.T > len(imp.texCoords) {
				return diag.Structuralf(imp.file, rec.Line, "texture index %d out of range [1,%d]", rec.Corners[i].T, len(imp.texCoords))
			}
		}
		if c.N != 0 {
			c.N = resolve(c.N, len(imp.normals))
			if c.N < 1 || c.N > len(imp.normals) {
				return diag.Structuralf(imp.file, rec.Line, "normal index %d out of range [1,%d]", rec.Corners[i].N, len(imp.normals))
			}
		}
		corners[i] = c
	}

	id := len(imp.groups) - 1
	for i := 1; i+1 < len(corners); i++ {
		imp.triangles = append(imp.triangles, triangle{
			corners: [3]Corner{corners[0], corners[i], corners[i+1]},
			meshID:  id,
		})
	}
	imp.groups[id].faces++
	return nil
}

func (imp *importer) build() ([]*mesh.Mesh, error) {
	var meshes []*mesh.Mesh
	// mesh ids only grow, so each run of equal ids is a whole sub-mesh
	for begin, end := 0, 0; begin < len(imp.triangles); begin = end {
		id := imp.triangles[begin].meshID
		for end = begin; end < len(imp.triangles) && imp.triangles[end].meshID == id; end++ {
		}
		g := &imp.groups[id]

		material, err := imp.material(id)
		if err != nil {
			return nil, err
		}

		tris := imp.triangles[begin:end]
		var data mesh.Data
		if imp.opts.VertexMode == SliceRange {
			data = imp.slice(tris)
		} else {
			data = imp.split(tris)
		}
		data.Name = g.name
		if data.Name == "" {
			data.Name = g.material
		}
		data.Material = material
		if material.Texture != "" {
			data.Textures = []image.Image{imp.texture(material.Texture, g.line)}
		}

		m, err := mesh.New(data)
		if err != nil {
			return nil, diag.Wrap(diag.StructuralError, imp.file, g.line, err, "Failed to construct mesh")
		}
		meshes = append(meshes, m)
	}
	return meshes, nil
}

func (imp *importer) material(id int) (*mtl.Material, error) {
	if id == 0 {
		return mtl.DefaultMaterial(), nil
	}
	g := &imp.groups[id]
	m, ok := imp.library.Lookup(g.material)
	if !ok {
		return nil, diag.Structuralf(imp.file, g.line, "material %q is not in any material library", g.material)
	}
	return m, nil
}

func (imp *importer) texture(path string, line int) image.Image {
	if img, ok := imp.textures[path]; ok {
		return img
	}
	img, err := imp.opts.Decoder.Decode(path)
	if err != nil {
		imp.diags.Addf(diag.ResourceError, imp.file, line, "%v, using placeholder", err)
		img = texture.Placeholder()
	}
	imp.textures[path] = img
	return img
}

func (imp *importer) split(tris []triangle) mesh.Data {
	var data mesh.Data
	slots := make(map[Corner]uint32)
	data.Indices = make([]uint32, 0, len(tris)*3)
	for _, t := range tris {
		for _, c := range t.corners {
			slot, ok := slots[c]
			if !ok {
				slot = uint32(len(data.Vertices))
				slots[c] = slot
				data.Vertices = append(data.Vertices, imp.positions[c.P-1])
				if imp.layout.HasTexCoord() {
					data.TexCoords = append(data.TexCoords, imp.texCoords[c.T-1])
				}
				if imp.layout.HasNormal() {
					data.Normals = append(data.Normals, imp.normals[c.N-1])
				}
			}
			data.Indices = append(data.Indices, slot)
		}
	}
	return data
}

func (imp *importer) slice(tris []triangle) mesh.Data {
	var data mesh.Data
	vmin, vmax := tris[0].corners[0].P, tris[0].corners[0].P
	hasTex := false
	for _, t := range tris {
		for _, c := range t.corners {
			if c.P < vmin {
				vmin = c.P
			}
			if c.P > vmax {
				vmax = c.P
			}
			if c.T != 0 {
				hasTex = true
			}
		}
	}

	data.Vertices = make([]mgl32.Vec3, vmax-vmin+1)
	copy(data.Vertices, imp.positions[vmin-1:vmax])
	if hasTex {
		data.TexCoords = make([]mgl32.Vec2, len(data.Vertices))
	}
	data.Indices = make([]uint32, 0, len(tris)*3)
	for _, t := range tris {
		for _, c := range t.corners {
			local := c.P - vmin
			data.Indices = append(data.Indices, uint32(local))
			if c.T != 0 {
				data.TexCoords[local] = imp.texCoords[c.T-1]
			}
		}
	}
	return data
}
