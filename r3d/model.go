package r3d

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mogaika/obj_scene_viewer/asset/mesh"
	"github.com/mogaika/obj_scene_viewer/asset/mtl"
)

// Model is one mesh placed in the scene. Its buffers and textures are
// uploaded once, on creation, and live as long as the scene.
type Model struct {
	ID        uuid.UUID
	Name      string
	Mesh      *mesh.Mesh
	Transform mgl32.Mat4

	Visible        bool
	CastsShadow    bool
	ReceivesShadow bool
	// Reflected models are drawn into the environment map
	Reflected bool

	vao     VertexArray
	texture Texture
}

func NewModel(dev Device, name string, m *mesh.Mesh, transform mgl32.Mat4) (*Model, error) {
	vao, err := dev.UploadMesh(m)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to upload mesh of %q", name)
	}

	model := &Model{
		ID:             uuid.New(),
		Name:           name,
		Mesh:           m,
		Transform:      transform,
		Visible:        true,
		CastsShadow:    true,
		ReceivesShadow: true,
		Reflected:      true,
		vao:            vao,
	}

	if textures := m.Textures(); len(textures) != 0 {
		if model.texture, err = dev.CreateTexture2D(textures[0]); err != nil {
			return nil, errors.Wrapf(err, "Failed to upload texture of %q", name)
		}
	}
	return model, nil
}

func (m *Model) Material() *mtl.Material  { return m.Mesh.Material() }
func (m *Model) VertexArray() VertexArray { return m.vao }
func (m *Model) Texture() Texture         { return m.texture }

// Reflective models are environment mapped.
func (m *Model) Reflective() bool {
	return m.Material().Reflective()
}

// WorldBounds is the axis aligned box around the transformed mesh bounds.
func (m *Model) WorldBounds() (min, max mgl32.Vec3) {
	lo, hi := m.Mesh.Bounds()
	corners := make([]mgl32.Vec3, 0, 8)
	for i := 0; i < 8; i++ {
		c := lo
		if i&1 != 0 {
			c[0] = hi[0]
		}
		if i&2 != 0 {
			c[1] = hi[1]
		}
		if i&4 != 0 {
			c[2] = hi[2]
		}
		corners = append(corners, mgl32.TransformCoordinate(c, m.Transform))
	}
	return mesh.Bounds(corners)
}

func (m *Model) WorldCenter() mgl32.Vec3 {
	min, max := m.WorldBounds()
	return min.Add(max).Mul(0.5)
}
