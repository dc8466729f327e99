// Package mtl parses Wavefront material libraries (*.mtl).
package mtl

import (
	"io"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/obj_scene_viewer/asset/diag"
	"github.com/mogaika/obj_scene_viewer/asset/token"
)

// illumination model values from this one up are environment mapped
const ReflectiveIllumination = 3

type Material struct {
	Name string

	Ambient  mgl32.Vec3 // Ka
	Diffuse  mgl32.Vec3 // Kd
	Specular mgl32.Vec3 // Ks

	Shininess float32 // Ns
	Opacity   float32 // d, or 1-Tr

	Illumination int

	// diffuse texture, already resolved against the library directory
	Texture string
	// set only by "map_Kd -s sx sy sz path"
	TextureScale    mgl32.Vec3
	HasTextureScale bool
}

func NewMaterial(name string) *Material {
	return &Material{
		Name:         name,
		Ambient:      mgl32.Vec3{1, 1, 1},
		Diffuse:      mgl32.Vec3{1, 1, 1},
		Specular:     mgl32.Vec3{1, 1, 1},
		Shininess:    10,
		Opacity:      1,
		TextureScale: mgl32.Vec3{1, 1, 1},
	}
}

// Light gray material for faces that appear before any usemtl.
func DefaultMaterial() *Material {
	m := NewMaterial("")
	m.Ambient = mgl32.Vec3{0.63, 0.63, 0.63}
	m.Diffuse = mgl32.Vec3{0.63, 0.63, 0.63}
	m.Specular = mgl32.Vec3{0.5, 0.5, 0.5}
	m.Shininess = 30
	return m
}

func (m *Material) Reflective() bool {
	return m.Illumination >= ReflectiveIllumination
}

func (m *Material) Alpha() float32 {
	return m.Opacity
}

type Library struct {
	Materials []*Material
	names     map[string]int
}

func NewLibrary() *Library {
	return &Library{names: make(map[string]int)}
}

// Add appends m; a later material with the same name takes over the name.
func (l *Library) Add(m *Material) (replaced bool) {
	_, replaced = l.names[m.Name]
	l.names[m.Name] = len(l.Materials)
	l.Materials = append(l.Materials, m)
	return replaced
}

func (l *Library) Lookup(name string) (*Material, bool) {
	if l == nil {
		return nil, false
	}
	i, ok := l.names[name]
	if !ok {
		return nil, false
	}
	return l.Materials[i], true
}

func (l *Library) Index(name string) (int, bool) {
	i, ok := l.names[name]
	return i, ok
}

func (l *Library) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Materials)
}

// Merge adds every material of other, in order.
func (l *Library) Merge(other *Library) {
	for _, m := range other.Materials {
		l.Add(m)
	}
}

func Load(path string, diags *diag.List) (*Library, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to open material library %q", path)
	}
	defer f.Close()
	return Parse(f, path, diags)
}

// Parse reads a material library. Malformed lines are recorded in diags and
// skipped; only read errors are returned.
func Parse(r io.Reader, file string, diags *diag.List) (*Library, error) {
	p := parser{
		lib:   NewLibrary(),
		file:  file,
		dir:   filepath.Dir(file),
		diags: diags,
	}

	s := token.NewScanner(r)
	for s.Scan() {
		line := s.Line()
		if err := s.LexErr(); err != nil {
			p.diags.Addf(diag.FormatError, file, line.Num, "%v", err)
			continue
		}
		p.line(line)
	}
	if err := s.Err(); err != nil {
		return nil, errors.Wrapf(err, "Failed to read %q", file)
	}
	p.flush()

	return p.lib, nil
}

type parser struct {
	lib     *Library
	current *Material
	// line of the newmtl that started current
	currentLine int
	file        string
	dir         string
	diags       *diag.List
}

func (p *parser) flush() {
	if p.current == nil {
		return
	}
	if p.lib.Add(p.current) {
		p.diags.Addf(diag.Warning, p.file, p.currentLine, "material %q redefined", p.current.Name)
	}
	p.current = nil
}

func (p *parser) formatError(line *token.Line, format string, a ...interface{}) {
	p.diags.Addf(diag.FormatError, p.file, line.Num, format, a...)
}

func floats(args []token.Token, n int) ([]float32, error) {
	if len(args) != n {
		return nil, errors.Errorf("expected %d values, got %d", n, len(args))
	}
	out := make([]float32, n)
	for i := range args {
		f, err := args[i].Float()
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func (p *parser) line(line *token.Line) {
	directive := line.Directive()
	args := line.Args()

	if directive == "newmtl" {
		if len(args) != 1 {
			p.formatError(line, "newmtl expects a single name, got %d values", len(args))
			return
		}
		p.flush()
		p.current = NewMaterial(args[0].Text)
		p.currentLine = line.Num
		return
	}

	switch directive {
	case "Ka", "Kd", "Ks", "Ns", "d", "Tr", "illum", "map_Kd":
	default:
		p.diags.Addf(diag.Warning, p.file, line.Num, "unsupported directive %q", directive)
		return
	}

	if p.current == nil {
		p.formatError(line, "%s before any newmtl", directive)
		return
	}
	m := p.current

	switch directive {
	case "Ka", "Kd", "Ks":
		v, err := floats(args, 3)
		if err != nil {
			p.formatError(line, "%s: %v", directive, err)
			return
		}
		c := mgl32.Vec3{v[0], v[1], v[2]}
		switch directive {
		case "Ka":
			m.Ambient = c
		case "Kd":
			m.Diffuse = c
		case "Ks":
			m.Specular = c
		}
	case "Ns", "d", "Tr":
		v, err := floats(args, 1)
		if err != nil {
			p.formatError(line, "%s: %v", directive, err)
			return
		}
		switch directive {
		case "Ns":
			m.Shininess = v[0]
		case "d":
			m.Opacity = v[0]
		case "Tr":
			m.Opacity = 1 - v[0]
		}
	case "illum":
		if len(args) != 1 {
			p.formatError(line, "illum expects 1 value, got %d", len(args))
			return
		}
		i, err := args[0].Int()
		if err != nil {
			p.formatError(line, "illum: %v", err)
			return
		}
		m.Illumination = i
	case "map_Kd":
		p.mapKd(line, m, args)
	}
}

func (p *parser) mapKd(line *token.Line, m *Material, args []token.Token) {
	if len(args) > 0 && args[0].Text == "-s" {
		if len(args) != 5 {
			p.formatError(line, "map_Kd -s expects 3 scale values and a path, got %d values", len(args)-1)
			return
		}
		v, err := floats(args[1:4], 3)
		if err != nil {
			p.formatError(line, "map_Kd -s: %v", err)
			return
		}
		m.TextureScale = mgl32.Vec3{v[0], v[1], v[2]}
		m.HasTextureScale = true
		m.Texture = p.resolve(args[4].Text)
		return
	}
	if len(args) != 1 {
		p.formatError(line, "map_Kd expects a path, got %d values", len(args))
		return
	}
	m.Texture = p.resolve(args[0].Text)
}

func (p *parser) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.dir, filepath.FromSlash(path))
}
