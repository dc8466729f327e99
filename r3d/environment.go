package r3d

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/obj_scene_viewer/rendercontext"
)

type cubeFace struct {
	dir mgl32.Vec3
	up  mgl32.Vec3
}

// +X -X +Y -Y +Z -Z, with the up vectors cube map sampling expects
var cubeFaces = [6]cubeFace{
	{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, -1, 0}},
	{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, -1, 0}},
	{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}},
	{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{0, 0, -1}},
	{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, -1, 0}},
	{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, -1, 0}},
}

// FaceView is the view matrix rendering cube face from center.
func FaceView(center mgl32.Vec3, face int) mgl32.Mat4 {
	f := cubeFaces[face]
	return mgl32.LookAtV(center, center.Add(f.dir), f.up)
}

// EnvironmentPass renders the scene around a reflective model into a cube
// map, one face at a time.
type EnvironmentPass struct {
	Source *Model
	Size   int32
	Near   float32
	Far    float32

	cube  Texture
	faces [6]rendercontext.Target
}

func NewEnvironmentPass(dev Device, source *Model, size int32, near, far float32) (*EnvironmentPass, error) {
	cube, err := dev.CreateCubeTexture(size)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create environment cube map")
	}
	p := &EnvironmentPass{
		Source: source,
		Size:   size,
		Near:   near,
		Far:    far,
		cube:   cube,
	}
	for i := range p.faces {
		if p.faces[i], err = dev.CreateCubeFaceTarget(cube, i); err != nil {
			return nil, errors.Wrapf(err, "Failed to create environment face %d", i)
		}
	}
	return p, nil
}

// Projection is a symmetric frustum with a 90 degree field of view.
func (p *EnvironmentPass) Projection() mgl32.Mat4 {
	return mgl32.Frustum(-p.Near, p.Near, -p.Near, p.Near, p.Near, p.Far)
}

func (p *EnvironmentPass) Cube() Texture { return p.cube }

func (p *EnvironmentPass) Center() mgl32.Vec3 {
	return p.Source.WorldCenter()
}

func (p *EnvironmentPass) render(ctx *rendercontext.Context, d *drawer) error {
	if p.cube == nil {
		return errors.Wrap(ErrTargetNotAllocated, "environment pass")
	}
	if p.Source == nil {
		return errors.New("environment pass has no source model")
	}
	restore, err := ctx.Enter("environment")
	if err != nil {
		return err
	}
	defer restore()

	center := p.Center()
	ctx.Projection = p.Projection()
	for i, target := range p.faces {
		if target == nil {
			return errors.Wrapf(ErrTargetNotAllocated, "environment face %d", i)
		}
		ctx.View = FaceView(center, i)
		ctx.Bind(target, rendercontext.Viewport{Width: p.Size, Height: p.Size})
		d.dev.Clear(d.scene.ClearColor)

		if err := d.drawSkybox(); err != nil {
			return err
		}
		for _, m := range d.scene.Models {
			// the source and reflective models would sample the map being drawn
			if m == p.Source || !m.Visible || !m.Reflected || m.Reflective() {
				continue
			}
			if err := d.drawModel(m); err != nil {
				return err
			}
		}
	}
	return nil
}
