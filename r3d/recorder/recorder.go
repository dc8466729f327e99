// Package recorder provides an r3d.Device that records every call instead of
// drawing. Tests assert on its trace and headless runs use it in place of a
// GPU.
package recorder

import (
	"fmt"
	"image"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/obj_scene_viewer/asset/mesh"
	"github.com/mogaika/obj_scene_viewer/config"
	"github.com/mogaika/obj_scene_viewer/r3d"
	"github.com/mogaika/obj_scene_viewer/rendercontext"
)

type Texture struct {
	Name          string
	Width, Height int32
	Cube          bool
}

func (t *Texture) Size() (int32, int32) { return t.Width, t.Height }
func (t *Texture) IsCube() bool         { return t.Cube }

type VertexArray struct {
	Name  string
	Count int32
}

func (va *VertexArray) IndexCount() int32 { return va.Count }

type Target struct {
	Name  string
	depth *Texture
}

func (t *Target) TargetName() string { return t.Name }
func (t *Target) Depth() r3d.Texture { return t.depth }

type Program struct {
	kind     r3d.ProgramKind
	Uniforms map[string]interface{}
}

func (p *Program) Kind() r3d.ProgramKind { return p.kind }

func (p *Program) SetMat4(name string, m mgl32.Mat4) { p.Uniforms[name] = m }
func (p *Program) SetMat3(name string, m mgl32.Mat3) { p.Uniforms[name] = m }
func (p *Program) SetVec3(name string, v mgl32.Vec3) { p.Uniforms[name] = v }
func (p *Program) SetFloat(name string, f float32)   { p.Uniforms[name] = f }
func (p *Program) SetInt(name string, i int32)       { p.Uniforms[name] = i }
func (p *Program) SetTexture(name string, unit int32, t r3d.Texture) {
	p.Uniforms[name] = t
}

// Draw is one recorded draw call.
type Draw struct {
	Program  r3d.ProgramKind
	Mesh     string
	Target   string
	Uniforms map[string]interface{}
}

// Device records every call. Calls holds a readable trace, Draws the
// uniforms each draw saw.
type Device struct {
	Calls []string
	Draws []Draw

	Target      rendercontext.Target
	Viewport    rendercontext.Viewport
	DepthMask   bool
	PolygonMode config.RenderMode
	CullFace    config.CullMode

	// OnDraw runs inside every Draw
	OnDraw func(d Draw)
	// Fail makes Program and the Create calls fail with this error
	Fail error

	programs map[r3d.ProgramKind]*Program
	textures int
}

func NewDevice() *Device {
	return &Device{
		DepthMask: true,
		programs:  make(map[r3d.ProgramKind]*Program),
	}
}

func (d *Device) log(format string, a ...interface{}) {
	d.Calls = append(d.Calls, fmt.Sprintf(format, a...))
}

func targetName(t rendercontext.Target) string {
	if t == nil {
		return "screen"
	}
	return t.TargetName()
}

func (d *Device) BindTarget(t rendercontext.Target) {
	d.Target = t
	d.log("bind %s", targetName(t))
}

func (d *Device) SetViewport(v rendercontext.Viewport) {
	d.Viewport = v
	d.log("viewport %dx%d", v.Width, v.Height)
}

func (d *Device) UploadMesh(m *mesh.Mesh) (r3d.VertexArray, error) {
	if d.Fail != nil {
		return nil, d.Fail
	}
	d.log("upload %s", m.Name())
	return &VertexArray{Name: m.Name(), Count: int32(len(m.Indices()))}, nil
}

func (d *Device) newTexture(cube bool, w, h int32) *Texture {
	d.textures++
	return &Texture{Name: fmt.Sprintf("tex%d", d.textures), Width: w, Height: h, Cube: cube}
}

func (d *Device) CreateTexture2D(img image.Image) (r3d.Texture, error) {
	if d.Fail != nil {
		return nil, d.Fail
	}
	b := img.Bounds()
	t := d.newTexture(false, int32(b.Dx()), int32(b.Dy()))
	d.log("texture2d %s", t.Name)
	return t, nil
}

func (d *Device) CreateCubeMap(faces [6]image.Image) (r3d.Texture, error) {
	if d.Fail != nil {
		return nil, d.Fail
	}
	b := faces[0].Bounds()
	t := d.newTexture(true, int32(b.Dx()), int32(b.Dy()))
	d.log("cubemap %s", t.Name)
	return t, nil
}

func (d *Device) CreateCubeTexture(size int32) (r3d.Texture, error) {
	if d.Fail != nil {
		return nil, d.Fail
	}
	t := d.newTexture(true, size, size)
	d.log("cubetexture %s", t.Name)
	return t, nil
}

func (d *Device) CreateDepthTarget(size int32) (r3d.DepthTarget, error) {
	if d.Fail != nil {
		return nil, d.Fail
	}
	t := &Target{Name: "depth", depth: d.newTexture(false, size, size)}
	d.log("depthtarget %d", size)
	return t, nil
}

func (d *Device) CreateCubeFaceTarget(cube r3d.Texture, face int) (rendercontext.Target, error) {
	if d.Fail != nil {
		return nil, d.Fail
	}
	d.log("facetarget %d", face)
	return &Target{Name: fmt.Sprintf("face%d", face)}, nil
}

func (d *Device) Program(kind r3d.ProgramKind) (r3d.Program, error) {
	if d.Fail != nil {
		return nil, d.Fail
	}
	p, ok := d.programs[kind]
	if !ok {
		p = &Program{kind: kind, Uniforms: make(map[string]interface{})}
		d.programs[kind] = p
	}
	return p, nil
}

func (d *Device) Clear(color mgl32.Vec4) {
	d.log("clear %s", targetName(d.Target))
}

func (d *Device) SetDepthMask(write bool) {
	d.DepthMask = write
	d.log("depthmask %v", write)
}

func (d *Device) SetPolygonMode(mode config.RenderMode) {
	d.PolygonMode = mode
	d.log("polygonmode %v", mode)
}

func (d *Device) SetCullFace(mode config.CullMode) {
	d.CullFace = mode
	d.log("cullface %v", mode)
}

func (d *Device) Draw(p r3d.Program, va r3d.VertexArray) {
	prog := p.(*Program)
	draw := Draw{
		Program:  prog.kind,
		Mesh:     va.(*VertexArray).Name,
		Target:   targetName(d.Target),
		Uniforms: make(map[string]interface{}, len(prog.Uniforms)),
	}
	for k, v := range prog.Uniforms {
		draw.Uniforms[k] = v
	}
	d.Draws = append(d.Draws, draw)
	d.log("draw %v %s", draw.Program, draw.Mesh)
	if d.OnDraw != nil {
		d.OnDraw(draw)
	}
}

func (d *Device) Present() {
	d.log("present")
}

// DrawsInto returns the meshes drawn into target, in order.
func (d *Device) DrawsInto(target string) []string {
	var out []string
	for _, dr := range d.Draws {
		if dr.Target == target {
			out = append(out, dr.Mesh)
		}
	}
	return out
}

func (d *Device) Reset() {
	d.Calls = nil
	d.Draws = nil
}
