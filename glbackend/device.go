// Package glbackend draws r3d scenes with OpenGL 4.3 core.
package glbackend

import (
	"image"
	"log"
	"runtime"
	"unsafe"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/obj_scene_viewer/asset/mesh"
	"github.com/mogaika/obj_scene_viewer/asset/texture"
	"github.com/mogaika/obj_scene_viewer/config"
	"github.com/mogaika/obj_scene_viewer/r3d"
	"github.com/mogaika/obj_scene_viewer/rendercontext"
)

type Texture struct {
	Id            uint32
	Width, Height int32
	Cube          bool
}

func (t *Texture) Size() (int32, int32) { return t.Width, t.Height }
func (t *Texture) IsCube() bool         { return t.Cube }

func (t *Texture) target() uint32 {
	if t.Cube {
		return gl.TEXTURE_CUBE_MAP
	}
	return gl.TEXTURE_2D
}

type VertexArray struct {
	glVAO, glVBO, glEBO uint32
	count               int32
}

func (va *VertexArray) IndexCount() int32 { return va.count }

// Framebuffer is an off-screen render target.
type Framebuffer struct {
	Name  string
	glFBO uint32
	glRBO uint32
	depth *Texture
}

func (f *Framebuffer) TargetName() string { return f.Name }
func (f *Framebuffer) Depth() r3d.Texture { return f.depth }

type glMeshVertex struct {
	pos    mgl32.Vec3
	normal mgl32.Vec3
	uv     mgl32.Vec2
}

// Device implements r3d.Device on the current OpenGL context. All calls
// must come from the thread owning the context.
type Device struct {
	// OnPresent runs at the end of every frame, usually to swap buffers
	OnPresent func()

	programs     map[r3d.ProgramKind]*Program
	textures     []*Texture
	arrays       []*VertexArray
	framebuffers []*Framebuffer
}

func NewDevice(present func()) *Device {
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Enable(gl.TEXTURE_CUBE_MAP_SEAMLESS)
	gl.Enable(gl.CULL_FACE)

	return &Device{
		OnPresent: present,
		programs:  make(map[r3d.ProgramKind]*Program),
	}
}

func (d *Device) BindTarget(t rendercontext.Target) {
	if t == nil {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		return
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.(*Framebuffer).glFBO)
}

func (d *Device) SetViewport(v rendercontext.Viewport) {
	gl.Viewport(v.X, v.Y, v.Width, v.Height)
}

func (d *Device) UploadMesh(m *mesh.Mesh) (r3d.VertexArray, error) {
	positions := m.Vertices()
	indices := m.Indices()
	if len(positions) == 0 || len(indices) == 0 {
		return nil, errors.Errorf("mesh %q is empty", m.Name())
	}
	normals := m.Normals()
	uvs := m.TexCoords()

	vertices := make([]glMeshVertex, len(positions))
	for i, pos := range positions {
		vertices[i].pos = pos
		vertices[i].normal = normals[i]
		if uvs != nil {
			vertices[i].uv = uvs[i]
		}
	}

	va := &VertexArray{count: int32(len(indices))}

	var vertex glMeshVertex
	stride := int(unsafe.Sizeof(vertex))

	gl.GenVertexArrays(1, &va.glVAO)
	gl.BindVertexArray(va.glVAO)

	gl.GenBuffers(1, &va.glVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, va.glVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*stride, gl.Ptr(vertices), gl.STATIC_DRAW)

	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, int32(stride), unsafe.Offsetof(vertex.pos))
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, int32(stride), unsafe.Offsetof(vertex.normal))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, int32(stride), unsafe.Offsetof(vertex.uv))
	gl.EnableVertexAttribArray(2)

	gl.GenBuffers(1, &va.glEBO)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, va.glEBO)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, 4*len(indices), gl.Ptr(indices), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, 0)
	runtime.KeepAlive(vertices)

	d.arrays = append(d.arrays, va)
	return va, nil
}

// flipRows puts the bottom image row first, where texture coordinate v=0 is.
func flipRows(img *image.RGBA) []uint8 {
	h := img.Rect.Dy()
	row := img.Rect.Dx() * 4
	pixels := make([]uint8, row*h)
	for y := 0; y < h; y++ {
		copy(pixels[(h-1-y)*row:(h-y)*row], img.Pix[y*img.Stride:y*img.Stride+row])
	}
	return pixels
}

func (d *Device) newTexture(cube bool, w, h int32) *Texture {
	t := &Texture{Width: w, Height: h, Cube: cube}
	gl.GenTextures(1, &t.Id)
	d.textures = append(d.textures, t)
	return t
}

func (d *Device) CreateTexture2D(img image.Image) (r3d.Texture, error) {
	rgba := texture.RGBA(img)
	b := rgba.Bounds()
	if b.Empty() {
		return nil, errors.New("empty texture image")
	}
	pixels := flipRows(rgba)

	t := d.newTexture(false, int32(b.Dx()), int32(b.Dy()))
	gl.BindTexture(gl.TEXTURE_2D, t.Id)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, t.Width, t.Height,
		0, gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&pixels[0]))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	runtime.KeepAlive(pixels)
	return t, nil
}

func cubeParameters() {
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_R, gl.CLAMP_TO_EDGE)
}

func (d *Device) CreateCubeMap(faces [6]image.Image) (r3d.Texture, error) {
	b := faces[0].Bounds()
	t := d.newTexture(true, int32(b.Dx()), int32(b.Dy()))
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, t.Id)
	for i, face := range faces {
		rgba := texture.RGBA(face)
		if rgba.Rect.Dx() != b.Dx() || rgba.Rect.Dy() != b.Dy() {
			gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)
			return nil, errors.Errorf("cube face %d is %v, expected %v", i, rgba.Rect.Size(), b.Size())
		}
		gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(i), 0, gl.RGBA8, t.Width, t.Height,
			0, gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&rgba.Pix[0]))
		runtime.KeepAlive(rgba)
	}
	cubeParameters()
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)
	return t, nil
}

func (d *Device) CreateCubeTexture(size int32) (r3d.Texture, error) {
	t := d.newTexture(true, size, size)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, t.Id)
	for i := uint32(0); i < 6; i++ {
		gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+i, 0, gl.RGBA8, size, size,
			0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	}
	cubeParameters()
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)
	return t, nil
}

func (d *Device) CreateDepthTarget(size int32) (r3d.DepthTarget, error) {
	depth := d.newTexture(false, size, size)
	gl.BindTexture(gl.TEXTURE_2D, depth.Id)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT24, size, size, 0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_BORDER)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_BORDER)
	border := [4]float32{1, 1, 1, 1}
	gl.TexParameterfv(gl.TEXTURE_2D, gl.TEXTURE_BORDER_COLOR, &border[0])
	gl.BindTexture(gl.TEXTURE_2D, 0)

	f := &Framebuffer{Name: "shadow", depth: depth}
	gl.GenFramebuffers(1, &f.glFBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, f.glFBO)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, depth.Id, 0)
	gl.DrawBuffer(gl.NONE)
	gl.ReadBuffer(gl.NONE)
	if err := d.finishFramebuffer(f); err != nil {
		return nil, err
	}
	return f, nil
}

func (d *Device) CreateCubeFaceTarget(cube r3d.Texture, face int) (rendercontext.Target, error) {
	t := cube.(*Texture)
	if !t.Cube {
		return nil, errors.New("face target needs a cube texture")
	}

	f := &Framebuffer{Name: "environment face"}
	gl.GenRenderbuffers(1, &f.glRBO)
	gl.BindRenderbuffer(gl.RENDERBUFFER, f.glRBO)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH24_STENCIL8, t.Width, t.Height)
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)

	gl.GenFramebuffers(1, &f.glFBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, f.glFBO)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(face), t.Id, 0)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_STENCIL_ATTACHMENT, gl.RENDERBUFFER, f.glRBO)
	if err := d.finishFramebuffer(f); err != nil {
		return nil, err
	}
	return f, nil
}

// finishFramebuffer checks the bound framebuffer f and unbinds it.
func (d *Device) finishFramebuffer(f *Framebuffer) error {
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		gl.DeleteFramebuffers(1, &f.glFBO)
		if f.glRBO != 0 {
			gl.DeleteRenderbuffers(1, &f.glRBO)
		}
		return errors.Errorf("%s framebuffer incomplete: 0x%x", f.Name, status)
	}
	d.framebuffers = append(d.framebuffers, f)
	return nil
}

func (d *Device) Program(kind r3d.ProgramKind) (r3d.Program, error) {
	if p, ok := d.programs[kind]; ok {
		return p, nil
	}
	vertex, fragment, err := programSources(kind)
	if err != nil {
		return nil, err
	}
	p, err := LoadProgram(vertex, fragment)
	if err != nil {
		return nil, errors.Wrapf(err, "%v program", kind)
	}
	p.kind = kind
	d.programs[kind] = p
	log.Printf("[gl] Loaded %v program", kind)
	return p, nil
}

func (d *Device) Clear(color mgl32.Vec4) {
	gl.ClearColor(color[0], color[1], color[2], color[3])
	gl.ClearDepth(1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (d *Device) SetDepthMask(write bool) {
	gl.DepthMask(write)
}

var polygonModes = map[config.RenderMode]uint32{
	config.RenderFill:  gl.FILL,
	config.RenderPoint: gl.POINT,
	config.RenderLine:  gl.LINE,
}

func (d *Device) SetPolygonMode(mode config.RenderMode) {
	gl.PolygonMode(gl.FRONT_AND_BACK, polygonModes[mode])
}

func (d *Device) SetCullFace(mode config.CullMode) {
	if mode == config.CullFront {
		gl.CullFace(gl.FRONT)
	} else {
		gl.CullFace(gl.BACK)
	}
}

func (d *Device) Draw(p r3d.Program, va r3d.VertexArray) {
	vao := va.(*VertexArray)
	gl.UseProgram(p.(*Program).Id)
	gl.BindVertexArray(vao.glVAO)
	gl.DrawElements(gl.TRIANGLES, vao.count, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

func (d *Device) Present() {
	if d.OnPresent != nil {
		d.OnPresent()
	}
}

// Destroy releases every object the device created.
func (d *Device) Destroy() {
	for _, p := range d.programs {
		p.Delete()
	}
	d.programs = make(map[r3d.ProgramKind]*Program)
	for _, va := range d.arrays {
		gl.DeleteVertexArrays(1, &va.glVAO)
		gl.DeleteBuffers(1, &va.glVBO)
		gl.DeleteBuffers(1, &va.glEBO)
	}
	d.arrays = nil
	for _, f := range d.framebuffers {
		gl.DeleteFramebuffers(1, &f.glFBO)
		if f.glRBO != 0 {
			gl.DeleteRenderbuffers(1, &f.glRBO)
		}
	}
	d.framebuffers = nil
	for _, t := range d.textures {
		gl.DeleteTextures(1, &t.Id)
	}
	d.textures = nil
}
