package r3d

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/obj_scene_viewer/asset/mesh"
	"github.com/mogaika/obj_scene_viewer/config"
	"github.com/mogaika/obj_scene_viewer/rendercontext"
)

type ProgramKind int

const (
	ProgramFlat ProgramKind = iota
	ProgramPhong
	ProgramBlinn
	ProgramShadowReceiving
	ProgramEnvironment
	ProgramSkybox
	ProgramDepth
)

var programKindNames = [...]string{"flat", "phong", "blinn", "shadow", "environment", "skybox", "depth"}

func (k ProgramKind) String() string {
	if int(k) >= 0 && int(k) < len(programKindNames) {
		return programKindNames[k]
	}
	return "unknown"
}

// Program is a linked shader program. Setting a uniform the program does not
// declare is a no-op.
type Program interface {
	Kind() ProgramKind
	SetMat4(name string, m mgl32.Mat4)
	SetMat3(name string, m mgl32.Mat3)
	SetVec3(name string, v mgl32.Vec3)
	SetFloat(name string, f float32)
	SetInt(name string, i int32)
	// SetTexture binds t to texture unit and points the sampler name at it
	SetTexture(name string, unit int32, t Texture)
}

type Texture interface {
	Size() (width, height int32)
	IsCube() bool
}

// VertexArray is a mesh uploaded to the device.
type VertexArray interface {
	IndexCount() int32
}

// DepthTarget is a depth-only render target whose depth is sampled later.
type DepthTarget interface {
	rendercontext.Target
	Depth() Texture
}

// Device is the GPU. Only the render thread touches it.
type Device interface {
	rendercontext.Binder

	UploadMesh(m *mesh.Mesh) (VertexArray, error)
	CreateTexture2D(img image.Image) (Texture, error)
	// CreateCubeMap builds a cube texture from faces in +X -X +Y -Y +Z -Z order
	CreateCubeMap(faces [6]image.Image) (Texture, error)
	// CreateCubeTexture allocates an empty size x size color cube texture
	CreateCubeTexture(size int32) (Texture, error)
	CreateDepthTarget(size int32) (DepthTarget, error)
	// CreateCubeFaceTarget renders into one face of cube, face in +X -X +Y -Y +Z -Z order
	CreateCubeFaceTarget(cube Texture, face int) (rendercontext.Target, error)

	Program(kind ProgramKind) (Program, error)

	Clear(color mgl32.Vec4)
	SetDepthMask(write bool)
	SetPolygonMode(mode config.RenderMode)
	// SetCullFace enables face culling of the faces mode names
	SetCullFace(mode config.CullMode)
	Draw(p Program, va VertexArray)
	Present()
}
