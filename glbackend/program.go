package glbackend

import (
	_ "embed"
	"log"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/obj_scene_viewer/r3d"
)

//go:embed shaders/model.vert
var modelVertexShader string

//go:embed shaders/lighting.glsl
var lightingShader string

//go:embed shaders/flat.frag
var flatFragmentShader string

//go:embed shaders/phong.frag
var phongFragmentShader string

//go:embed shaders/blinn.frag
var blinnFragmentShader string

//go:embed shaders/shadow.frag
var shadowFragmentShader string

//go:embed shaders/environment.frag
var environmentFragmentShader string

//go:embed shaders/skybox.vert
var skyboxVertexShader string

//go:embed shaders/skybox.frag
var skyboxFragmentShader string

//go:embed shaders/depth.vert
var depthVertexShader string

//go:embed shaders/depth.frag
var depthFragmentShader string

const glslVersion = "#version 430 core\n"

// lit fragment shaders share the material and light uniforms
func litFragment(main string) string {
	return glslVersion + lightingShader + "\n" + main
}

func programSources(kind r3d.ProgramKind) (vertex, fragment string, err error) {
	switch kind {
	case r3d.ProgramFlat:
		return modelVertexShader, litFragment(flatFragmentShader), nil
	case r3d.ProgramPhong:
		return modelVertexShader, litFragment(phongFragmentShader), nil
	case r3d.ProgramBlinn:
		return modelVertexShader, litFragment(blinnFragmentShader), nil
	case r3d.ProgramShadowReceiving:
		return modelVertexShader, litFragment(shadowFragmentShader), nil
	case r3d.ProgramEnvironment:
		return modelVertexShader, litFragment(environmentFragmentShader), nil
	case r3d.ProgramSkybox:
		return skyboxVertexShader, skyboxFragmentShader, nil
	case r3d.ProgramDepth:
		return depthVertexShader, depthFragmentShader, nil
	}
	return "", "", errors.Errorf("no shaders for program %v", kind)
}

type Program struct {
	Id                           uint32
	VertexShader, FragmentShader uint32

	kind      r3d.ProgramKind
	locations map[string]int32
}

func (p *Program) Delete() {
	gl.DetachShader(p.Id, p.VertexShader)
	gl.DetachShader(p.Id, p.FragmentShader)
	gl.DeleteProgram(p.Id)
	gl.DeleteShader(p.VertexShader)
	gl.DeleteShader(p.FragmentShader)
}

func (p *Program) Kind() r3d.ProgramKind { return p.kind }

func (p *Program) location(name string) int32 {
	if loc, ok := p.locations[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(p.Id, gl.Str(name+"\x00"))
	p.locations[name] = loc
	return loc
}

// uniforms go through the ProgramUniform family so the program does not
// need to be in use while they are set

func (p *Program) SetMat4(name string, m mgl32.Mat4) {
	if loc := p.location(name); loc >= 0 {
		gl.ProgramUniformMatrix4fv(p.Id, loc, 1, false, &m[0])
	}
}

func (p *Program) SetMat3(name string, m mgl32.Mat3) {
	if loc := p.location(name); loc >= 0 {
		gl.ProgramUniformMatrix3fv(p.Id, loc, 1, false, &m[0])
	}
}

func (p *Program) SetVec3(name string, v mgl32.Vec3) {
	if loc := p.location(name); loc >= 0 {
		gl.ProgramUniform3f(p.Id, loc, v[0], v[1], v[2])
	}
}

func (p *Program) SetFloat(name string, f float32) {
	if loc := p.location(name); loc >= 0 {
		gl.ProgramUniform1f(p.Id, loc, f)
	}
}

func (p *Program) SetInt(name string, i int32) {
	if loc := p.location(name); loc >= 0 {
		gl.ProgramUniform1i(p.Id, loc, i)
	}
}

func (p *Program) SetTexture(name string, unit int32, t r3d.Texture) {
	loc := p.location(name)
	if loc < 0 || t == nil {
		return
	}
	tex := t.(*Texture)
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(tex.target(), tex.Id)
	gl.ProgramUniform1i(p.Id, loc, unit)
}

func LoadProgram(vertexShaderText, fragmentShaderText string) (*Program, error) {
	p := &Program{locations: make(map[string]int32)}

	p.Id = gl.CreateProgram()

	if vs, err := LoadShader(gl.VERTEX_SHADER, vertexShaderText); err != nil {
		gl.DeleteProgram(p.Id)
		return nil, errors.Wrap(err, "vertex shader")
	} else {
		p.VertexShader = vs
	}

	if fs, err := LoadShader(gl.FRAGMENT_SHADER, fragmentShaderText); err != nil {
		gl.DeleteShader(p.VertexShader)
		gl.DeleteProgram(p.Id)
		return nil, errors.Wrap(err, "fragment shader")
	} else {
		p.FragmentShader = fs
	}

	gl.AttachShader(p.Id, p.VertexShader)
	gl.AttachShader(p.Id, p.FragmentShader)
	gl.LinkProgram(p.Id)

	var isLinked int32
	gl.GetProgramiv(p.Id, gl.LINK_STATUS, &isLinked)
	if isLinked == gl.FALSE {
		var logSize int32
		gl.GetProgramiv(p.Id, gl.INFO_LOG_LENGTH, &logSize)
		buf := make([]uint8, logSize+1)
		gl.GetProgramInfoLog(p.Id, int32(len(buf)), &logSize, &buf[0])
		errString := string(buf[:logSize])
		log.Printf("[gl] Failed to link program:\n%s", errString)

		p.Delete()
		return nil, errors.Errorf("failed to link program: %q", errString)
	}
	return p, nil
}

func LoadShader(xtype uint32, text string) (shader uint32, err error) {
	glShaderSource := func(handle uint32, source string) {
		csource, free := gl.Strs(source + "\x00")
		defer free()

		gl.ShaderSource(handle, 1, csource, nil)
	}

	shader = gl.CreateShader(xtype)
	glShaderSource(shader, text)
	gl.CompileShader(shader)

	var success int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &success)
	if success == gl.FALSE {
		var logSize int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logSize)
		buf := make([]uint8, logSize+1)
		gl.GetShaderInfoLog(shader, int32(len(buf)), &logSize, &buf[0])
		errString := string(buf[:logSize])
		log.Printf("[gl] Failed to compile shader:\n%s", errString)

		gl.DeleteShader(shader)
		return gl.INVALID_INDEX, errors.Errorf("failed to compile shader: %q", errString)
	}
	return shader, nil
}
