package r3d

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/obj_scene_viewer/rendercontext"
	"github.com/mogaika/obj_scene_viewer/utils"
)

// maps clip space [-1,1] to texture space [0,1]
var shadowBias = mgl32.Translate3D(0.5, 0.5, 0.5).Mul4(mgl32.Scale3D(0.5, 0.5, 0.5))

// ShadowPass renders scene depth from the light into a depth target that
// the main pass samples.
type ShadowPass struct {
	Light      *Light
	Projection mgl32.Mat4
	Size       int32

	target DepthTarget
	matrix mgl32.Mat4
}

func NewShadowPass(dev Device, light *Light, size int32, projection mgl32.Mat4) (*ShadowPass, error) {
	target, err := dev.CreateDepthTarget(size)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create shadow map")
	}
	return &ShadowPass{
		Light:      light,
		Projection: projection,
		Size:       size,
		target:     target,
		matrix:     mgl32.Ident4(),
	}, nil
}

// View looks from the light at the scene origin.
func (p *ShadowPass) View() mgl32.Mat4 {
	return utils.LookAt(p.Light.Position, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
}

// Matrix takes world positions to shadow map texture coordinates and depth.
// It is valid after the pass ran.
func (p *ShadowPass) Matrix() mgl32.Mat4 { return p.matrix }

func (p *ShadowPass) Map() Texture {
	if p.target == nil {
		return nil
	}
	return p.target.Depth()
}

func (p *ShadowPass) render(ctx *rendercontext.Context, d *drawer) error {
	if p.target == nil {
		return errors.Wrap(ErrTargetNotAllocated, "shadow pass")
	}
	restore, err := ctx.Enter("shadow")
	if err != nil {
		return err
	}
	defer restore()

	view := p.View()
	ctx.View = view
	ctx.Projection = p.Projection
	ctx.Bind(p.target, rendercontext.Viewport{Width: p.Size, Height: p.Size})
	d.dev.Clear(mgl32.Vec4{1, 1, 1, 1})

	for _, m := range d.scene.Models {
		if !m.Visible || !m.CastsShadow {
			continue
		}
		if err := d.draw(m, Shading{Kind: ProgramDepth}, m.Transform); err != nil {
			return err
		}
	}

	p.matrix = shadowBias.Mul4(p.Projection).Mul4(view)
	return nil
}
