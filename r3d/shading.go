package r3d

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/obj_scene_viewer/asset/mtl"
	"github.com/mogaika/obj_scene_viewer/rendercontext"
)

// Shading is what a draw call needs besides geometry. Kind picks the program,
// the other fields are the data that kind consumes.
type Shading struct {
	Kind     ProgramKind
	Material *mtl.Material
	Texture  Texture

	// ProgramShadowReceiving
	ShadowMap    Texture
	ShadowMatrix mgl32.Mat4

	// ProgramEnvironment and ProgramSkybox
	Cube Texture
}

// ShadingInputs are the per frame resources available to shading. A nil
// texture means the matching mode is unavailable this frame.
type ShadingInputs struct {
	Environment  Texture
	ShadowMap    Texture
	ShadowMatrix mgl32.Mat4
	Blinn        bool
}

// SelectShading picks, in order of preference: environment mapping for
// reflective materials, shadow receiving, Blinn-Phong or Phong for lit
// materials, and flat color for illumination model 0.
func SelectShading(m *Model, in ShadingInputs) Shading {
	material := m.Material()
	s := Shading{Material: material, Texture: m.Texture()}

	switch {
	case material.Reflective() && in.Environment != nil:
		s.Kind = ProgramEnvironment
		s.Cube = in.Environment
	case m.ReceivesShadow && in.ShadowMap != nil:
		s.Kind = ProgramShadowReceiving
		s.ShadowMap = in.ShadowMap
		s.ShadowMatrix = in.ShadowMatrix
	case material.Illumination >= 1 && in.Blinn:
		s.Kind = ProgramBlinn
	case material.Illumination >= 1:
		s.Kind = ProgramPhong
	default:
		s.Kind = ProgramFlat
	}
	return s
}

const (
	unitDiffuse int32 = 0
	unitExtra   int32 = 1
)

// bindShading uploads the uniforms s.Kind reads for drawing with transform.
func bindShading(p Program, s Shading, ctx *rendercontext.Context, light *Light, transform mgl32.Mat4) {
	vm := ctx.View.Mul4(transform)
	p.SetMat4("PVM", ctx.Projection.Mul4(vm))

	switch s.Kind {
	case ProgramDepth:
		return
	case ProgramSkybox:
		p.SetTexture("sampler_cube", unitDiffuse, s.Cube)
		return
	}

	p.SetMat4("M", transform)
	p.SetMat4("VM", vm)
	p.SetMat3("VMiT", vm.Mat3().Inv().Transpose())

	material := s.Material
	p.SetVec3("Ka", material.Ambient)
	p.SetVec3("Kd", material.Diffuse)
	p.SetVec3("Ks", material.Specular)
	p.SetFloat("Ns", material.Shininess)
	p.SetFloat("alpha", material.Alpha())

	if s.Texture != nil {
		p.SetInt("has_texture", 1)
		p.SetTexture("textureObject", unitDiffuse, s.Texture)
		p.SetVec3("texture_scale", material.TextureScale)
	} else {
		p.SetInt("has_texture", 0)
	}

	if light != nil {
		p.SetVec3("light_pos", light.ViewPosition(ctx.View))
		p.SetVec3("Ia", light.Ambient)
		p.SetVec3("Id", light.Diffuse)
		p.SetVec3("Is", light.Specular)
	}

	switch s.Kind {
	case ProgramShadowReceiving:
		p.SetMat4("shadow_matrix", s.ShadowMatrix)
		p.SetTexture("shadow_map", unitExtra, s.ShadowMap)
	case ProgramEnvironment:
		// rotates view space reflections back to world space
		p.SetMat3("VT", ctx.View.Mat3().Transpose())
		p.SetTexture("sampler_cube", unitExtra, s.Cube)
	}
}
