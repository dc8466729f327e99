package r3d

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/obj_scene_viewer/rendercontext"
)

// Scene is everything the scheduler renders. It is owned by the render
// thread.
type Scene struct {
	Context    *rendercontext.Context
	ClearColor mgl32.Vec4

	Light       *Light
	LightMarker *Model
	Models      []*Model

	Shadow      *ShadowPass
	Environment *EnvironmentPass
	Skybox      *Skybox
}

func (sc *Scene) Add(models ...*Model) {
	sc.Models = append(sc.Models, models...)
}

func (sc *Scene) Model(name string) *Model {
	for _, m := range sc.Models {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// drawer issues the draw calls of one pass.
type drawer struct {
	dev      Device
	scene    *Scene
	programs map[ProgramKind]Program
	inputs   ShadingInputs
	draws    int
}

func (d *drawer) program(kind ProgramKind) (Program, error) {
	if p, ok := d.programs[kind]; ok {
		return p, nil
	}
	p, err := d.dev.Program(kind)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to get %v program", kind)
	}
	d.programs[kind] = p
	return p, nil
}

func (d *drawer) draw(m *Model, s Shading, transform mgl32.Mat4) error {
	p, err := d.program(s.Kind)
	if err != nil {
		return err
	}
	bindShading(p, s, d.scene.Context, d.scene.Light, transform)
	d.dev.Draw(p, m.VertexArray())
	d.draws++
	return nil
}

// drawModel draws m with the shading it selects for this frame.
func (d *drawer) drawModel(m *Model) error {
	return d.draw(m, SelectShading(m, d.inputs), m.Transform)
}

func (d *drawer) drawSkybox() error {
	sb := d.scene.Skybox
	if sb == nil {
		return nil
	}
	d.dev.SetDepthMask(false)
	defer d.dev.SetDepthMask(true)
	return d.draw(sb.Model, Shading{Kind: ProgramSkybox, Cube: sb.Cube}, sb.Model.Transform)
}
