package r3d_test

import (
	"fmt"
	"image"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/obj_scene_viewer/asset/mesh"
	"github.com/mogaika/obj_scene_viewer/asset/mtl"
	"github.com/mogaika/obj_scene_viewer/config"
	"github.com/mogaika/obj_scene_viewer/r3d"
	"github.com/mogaika/obj_scene_viewer/r3d/recorder"
	"github.com/mogaika/obj_scene_viewer/rendercontext"
	"github.com/mogaika/obj_scene_viewer/utils"
)

var screen = rendercontext.Viewport{Width: 800, Height: 600}

func triangleMesh(t *testing.T, name string, illum int, offset float32) *mesh.Mesh {
	t.Helper()
	material := mtl.NewMaterial(name)
	material.Illumination = illum
	m, err := mesh.New(mesh.Data{
		Name:     name,
		Vertices: []mgl32.Vec3{{offset, 0, 0}, {offset + 1, 0, 0}, {offset, 1, 0}},
		Indices:  []uint32{0, 1, 2},
		Material: material,
	})
	require.NoError(t, err)
	return m
}

type fixture struct {
	dev    *recorder.Device
	scene  *r3d.Scene
	sched  *r3d.Scheduler
	floor  *r3d.Model
	mirror *r3d.Model
	teapot *r3d.Model
	lamp   *r3d.Model

	settings config.Settings
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{dev: recorder.NewDevice(), settings: config.DefaultSettings()}

	model := func(name string, illum int, offset float32) *r3d.Model {
		m, err := r3d.NewModel(f.dev, name, triangleMesh(t, name, illum, offset), mgl32.Translate3D(offset, 0, 0))
		require.NoError(t, err)
		return m
	}
	f.floor = model("floor", 2, 0)
	f.mirror = model("mirror", 3, 2)
	f.teapot = model("teapot", 2, -2)
	f.teapot.CastsShadow = false
	f.lamp = model("lamp", 0, 4)
	f.lamp.Reflected = false

	light := r3d.NewLight(mgl32.Vec3{0, 150, 0})
	shadow, err := r3d.NewShadowPass(f.dev, light, 1000, mgl32.Frustum(-1, 1, -1, 1, 1.5, 775))
	require.NoError(t, err)
	env, err := r3d.NewEnvironmentPass(f.dev, f.mirror, 400, 1, 20)
	require.NoError(t, err)

	var faces [6]image.Image
	for i := range faces {
		faces[i] = image.NewRGBA(image.Rect(0, 0, 4, 4))
	}
	skybox, err := r3d.NewSkybox(f.dev, faces, 100)
	require.NoError(t, err)

	f.scene = &r3d.Scene{
		Context: rendercontext.New(f.dev,
			mgl32.LookAtV(mgl32.Vec3{0, 2, 8}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}),
			mgl32.Frustum(-1, 1, -1, 1, 1.5, 1000),
			screen),
		ClearColor:  mgl32.Vec4{0.4, 0.4, 1, 1},
		Light:       light,
		Shadow:      shadow,
		Environment: env,
		Skybox:      skybox,
	}
	f.scene.Add(f.floor, f.mirror, f.teapot, f.lamp)

	f.sched = r3d.NewScheduler(f.dev, f.scene)
	f.sched.FailFast = false
	f.sched.Settings = func() config.Settings { return f.settings }
	f.dev.Reset()
	return f
}

func TestRenderFrameLeavesContextUntouched(t *testing.T) {
	for _, toggles := range []struct{ shadows, reflections bool }{
		{false, false}, {true, false}, {false, true}, {true, true},
	} {
		f := newFixture(t)
		f.settings.Shadows = toggles.shadows
		f.settings.Reflections = toggles.reflections
		ctx := f.scene.Context
		view, projection := ctx.View, ctx.Projection

		require.NoError(t, f.sched.RenderFrame())
		assert.True(t, utils.Mat4BitsEqual(view, ctx.View), "%+v", toggles)
		assert.True(t, utils.Mat4BitsEqual(projection, ctx.Projection), "%+v", toggles)
		assert.Equal(t, screen, ctx.Viewport)
		assert.Nil(t, ctx.Target)
		assert.Equal(t, "", ctx.Pass())
		assert.Nil(t, f.dev.Target)
		assert.Equal(t, screen, f.dev.Viewport)
		assert.Equal(t, r3d.StateIdle, f.sched.State())
	}
}

func targets(draws []recorder.Draw) []string {
	var out []string
	for _, d := range draws {
		if len(out) == 0 || out[len(out)-1] != d.Target {
			out = append(out, d.Target)
		}
	}
	return out
}

func TestPassOrder(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sched.RenderFrame())

	assert.Equal(t, []string{"depth", "face0", "face1", "face2", "face3", "face4", "face5", "screen"}, targets(f.dev.Draws))
	assert.Equal(t, "present", f.dev.Calls[len(f.dev.Calls)-1])

	stats := f.sched.Stats()
	assert.Equal(t, uint64(1), stats.Frame)
	assert.True(t, stats.Shadow)
	assert.True(t, stats.Environment)
	assert.Equal(t, 3, stats.ShadowDraws)
	// skybox, floor and teapot on each face
	assert.Equal(t, 6*3, stats.EnvironmentDraws)
	// skybox and four models
	assert.Equal(t, 5, stats.MainDraws)
}

func TestTogglesSkipPasses(t *testing.T) {
	f := newFixture(t)
	f.settings.Shadows = false
	f.settings.Reflections = false
	require.NoError(t, f.sched.RenderFrame())

	assert.Equal(t, []string{"screen"}, targets(f.dev.Draws))
	assert.False(t, f.sched.Stats().Shadow)
	assert.False(t, f.sched.Stats().Environment)
}

func TestShadowPassDrawsCastersFromLight(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sched.RenderFrame())

	assert.Equal(t, []string{"floor", "mirror", "lamp"}, f.dev.DrawsInto("depth"))

	shadow := f.scene.Shadow
	for _, d := range f.dev.Draws {
		if d.Target != "depth" {
			continue
		}
		assert.Equal(t, r3d.ProgramDepth, d.Program)
		m := f.scene.Model(d.Mesh)
		assert.Equal(t, shadow.Projection.Mul4(shadow.View().Mul4(m.Transform)), d.Uniforms["PVM"])
	}

	// the light looks straight at the origin: it lands in the middle of the map
	p := mgl32.TransformCoordinate(mgl32.Vec3{}, shadow.Matrix())
	assert.InDelta(t, 0.5, p.X(), 1e-5)
	assert.InDelta(t, 0.5, p.Y(), 1e-5)
	assert.True(t, p.Z() > 0 && p.Z() < 1)
}

func TestEnvironmentPassExcludesReflective(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sched.RenderFrame())

	env := f.scene.Environment
	for face := 0; face < 6; face++ {
		assert.Equal(t, []string{"cube", "floor", "teapot"}, f.dev.DrawsInto(fmt.Sprintf("face%d", face)))
	}
	for _, d := range f.dev.Draws {
		if d.Target == "face0" && d.Mesh == "floor" {
			want := env.Projection().Mul4(r3d.FaceView(env.Center(), 0).Mul4(f.floor.Transform))
			assert.Equal(t, want, d.Uniforms["PVM"])
		}
	}
}

func TestEnvironmentPassSkipsSource(t *testing.T) {
	f := newFixture(t)
	env, err := r3d.NewEnvironmentPass(f.dev, f.floor, 64, 1, 20)
	require.NoError(t, err)
	f.scene.Environment = env
	f.dev.Reset()
	require.NoError(t, f.sched.RenderFrame())

	for face := 0; face < 6; face++ {
		assert.Equal(t, []string{"cube", "teapot"}, f.dev.DrawsInto(fmt.Sprintf("face%d", face)))
	}
}

func TestRasterModes(t *testing.T) {
	f := newFixture(t)
	f.settings.RenderMode = config.RenderLine
	f.settings.CullMode = config.CullFront
	require.NoError(t, f.sched.RenderFrame())

	var raster []string
	for _, call := range f.dev.Calls {
		if strings.HasPrefix(call, "polygonmode") || strings.HasPrefix(call, "cullface") {
			raster = append(raster, call)
		}
	}
	// offscreen passes stay filled, the main pass follows the settings
	assert.Equal(t, []string{
		"polygonmode fill", "cullface back",
		"polygonmode line", "cullface front",
	}, raster)
	assert.Equal(t, config.RenderLine, f.dev.PolygonMode)
	assert.Equal(t, config.CullFront, f.dev.CullFace)

	f.settings.Shadows = false
	f.settings.Reflections = false
	for _, want := range []config.RenderMode{config.RenderFill, config.RenderPoint, config.RenderLine} {
		require.NoError(t, f.settings.Toggle("render_mode"))
		require.NoError(t, f.sched.RenderFrame())
		assert.Equal(t, want, f.dev.PolygonMode)
	}

	// unchanged modes are not sent again
	f.dev.Reset()
	require.NoError(t, f.sched.RenderFrame())
	for _, call := range f.dev.Calls {
		assert.False(t, strings.HasPrefix(call, "polygonmode"), call)
	}
}

func mainDraws(f *fixture) map[string]recorder.Draw {
	out := make(map[string]recorder.Draw)
	for _, d := range f.dev.Draws {
		if d.Target == "screen" {
			out[d.Mesh] = d
		}
	}
	return out
}

func TestMainPassShading(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sched.RenderFrame())
	draws := mainDraws(f)

	assert.Equal(t, r3d.ProgramSkybox, draws["cube"].Program)
	assert.Equal(t, r3d.ProgramEnvironment, draws["mirror"].Program)
	assert.Equal(t, f.scene.Environment.Cube(), draws["mirror"].Uniforms["sampler_cube"])
	assert.Equal(t, r3d.ProgramShadowReceiving, draws["floor"].Program)
	assert.Equal(t, f.scene.Shadow.Matrix(), draws["floor"].Uniforms["shadow_matrix"])
	assert.Equal(t, f.scene.Shadow.Map(), draws["floor"].Uniforms["shadow_map"])

	f.settings.Shadows = false
	f.settings.Reflections = false
	f.settings.Blinn = false
	f.dev.Reset()
	require.NoError(t, f.sched.RenderFrame())
	draws = mainDraws(f)
	assert.Equal(t, r3d.ProgramPhong, draws["mirror"].Program)
	assert.Equal(t, r3d.ProgramPhong, draws["floor"].Program)
	assert.Equal(t, r3d.ProgramFlat, draws["lamp"].Program)
}

func TestSkyboxDrawnWithoutDepthWrites(t *testing.T) {
	f := newFixture(t)
	f.settings.Shadows = false
	f.settings.Reflections = false
	require.NoError(t, f.sched.RenderFrame())

	assert.Equal(t, []string{
		"bind screen",
		"viewport 800x600",
		"polygonmode fill",
		"cullface back",
		"clear screen",
		"depthmask false",
		"draw skybox cube",
		"depthmask true",
		"draw blinn floor",
		"draw blinn mirror",
		"draw blinn teapot",
		"draw flat lamp",
		"bind screen",
		"viewport 800x600",
		"present",
	}, f.dev.Calls)
	assert.True(t, f.dev.DepthMask)
}

func TestRenderFrameIsNotReentrant(t *testing.T) {
	f := newFixture(t)
	var inner error
	f.dev.OnDraw = func(d recorder.Draw) {
		if inner == nil {
			inner = f.sched.RenderFrame()
		}
	}
	require.NoError(t, f.sched.RenderFrame())
	assert.True(t, errors.Is(inner, r3d.ErrFrameInFlight), "%v", inner)
	assert.Equal(t, r3d.StateIdle, f.sched.State())
}

func TestPassPanicRestoresContext(t *testing.T) {
	f := newFixture(t)
	ctx := f.scene.Context
	view, projection := ctx.View, ctx.Projection

	f.dev.OnDraw = func(d recorder.Draw) {
		if d.Target == "face3" {
			panic("device lost")
		}
	}
	assert.Panics(t, func() { f.sched.RenderFrame() })

	assert.True(t, utils.Mat4BitsEqual(view, ctx.View))
	assert.True(t, utils.Mat4BitsEqual(projection, ctx.Projection))
	assert.Nil(t, f.dev.Target)
	assert.Equal(t, screen, f.dev.Viewport)
	assert.Equal(t, r3d.StateIdle, f.sched.State())

	f.dev.OnDraw = nil
	assert.NoError(t, f.sched.RenderFrame())
}

func TestUnallocatedTarget(t *testing.T) {
	f := newFixture(t)
	f.scene.Shadow = &r3d.ShadowPass{Light: f.scene.Light, Projection: mgl32.Ident4(), Size: 16}

	err := f.sched.RenderFrame()
	assert.True(t, errors.Is(err, r3d.ErrTargetNotAllocated), "%v", err)
	assert.Equal(t, r3d.StateIdle, f.sched.State())
	assert.Equal(t, "", f.scene.Context.Pass())

	f.sched.FailFast = true
	assert.Panics(t, func() { f.sched.RenderFrame() })
	assert.Equal(t, r3d.StateIdle, f.sched.State())
}

func TestDeviceFailure(t *testing.T) {
	f := newFixture(t)
	f.dev.Fail = errors.New("out of memory")
	// programs are fetched lazily on the first frame
	err := f.sched.RenderFrame()
	assert.Error(t, err)
	assert.Nil(t, f.dev.Target)
	assert.Equal(t, screen, f.scene.Context.Viewport)
}
