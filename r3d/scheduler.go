package r3d

import (
	"log"
	"time"

	"github.com/pkg/errors"

	"github.com/mogaika/obj_scene_viewer/config"
)

var (
	ErrFrameInFlight      = errors.New("frame already in flight")
	ErrTargetNotAllocated = errors.New("render target not allocated")
)

type State int

const (
	StateIdle State = iota
	StateShadow
	StateEnvironment
	StateMain
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateShadow:
		return "shadow"
	case StateEnvironment:
		return "environment"
	case StateMain:
		return "main"
	}
	return "unknown"
}

type FrameStats struct {
	Frame uint64 `json:"frame"`

	Shadow      bool `json:"shadow"`
	Environment bool `json:"environment"`

	ShadowDraws      int `json:"shadow_draws"`
	EnvironmentDraws int `json:"environment_draws"`
	MainDraws        int `json:"main_draws"`

	Duration time.Duration `json:"duration"`
}

// Scheduler renders a frame as shadow pass, environment pass and main pass.
// Frames are strictly sequential; each pass puts the render context back the
// way it found it.
type Scheduler struct {
	Device Device
	Scene  *Scene

	// Settings provides the pass toggles for each frame
	Settings func() config.Settings
	// FailFast panics on pass errors instead of returning them
	FailFast bool

	state    State
	frame    uint64
	stats    FrameStats
	programs map[ProgramKind]Program
	raster   *rasterState
}

type rasterState struct {
	mode config.RenderMode
	cull config.CullMode
}

func NewScheduler(dev Device, scene *Scene) *Scheduler {
	return &Scheduler{
		Device:   dev,
		Scene:    scene,
		Settings: config.GetSettings,
		FailFast: config.GetSettings().Debug,
		programs: make(map[ProgramKind]Program),
	}
}

func (s *Scheduler) State() State { return s.state }

// Stats are the statistics of the last finished frame.
func (s *Scheduler) Stats() FrameStats { return s.stats }

// setRaster changes polygon and cull mode on the device when they differ
// from what the previous pass left.
func (s *Scheduler) setRaster(mode config.RenderMode, cull config.CullMode) {
	if s.raster != nil && s.raster.mode == mode && s.raster.cull == cull {
		return
	}
	s.Device.SetPolygonMode(mode)
	s.Device.SetCullFace(cull)
	s.raster = &rasterState{mode: mode, cull: cull}
}

func (s *Scheduler) fail(err error) error {
	if s.FailFast {
		panic(err)
	}
	return err
}

// RenderFrame renders and presents one frame. It is the only entry point of
// the driving loop and must not be called again before it returns.
func (s *Scheduler) RenderFrame() error {
	if s.state != StateIdle {
		return s.fail(errors.Wrapf(ErrFrameInFlight, "frame %d is in %v", s.frame, s.state))
	}
	defer func() { s.state = StateIdle }()

	start := time.Now()
	settings := s.Settings()
	s.frame++
	stats := FrameStats{Frame: s.frame}

	d := &drawer{
		dev:      s.Device,
		scene:    s.Scene,
		programs: s.programs,
		inputs:   ShadingInputs{Blinn: settings.Blinn},
	}
	ctx := s.Scene.Context

	if settings.Shadows && s.Scene.Shadow != nil {
		s.state = StateShadow
		// offscreen maps are always filled
		s.setRaster(config.RenderFill, config.CullBack)
		if err := s.Scene.Shadow.render(ctx, d); err != nil {
			return s.fail(errors.Wrapf(err, "frame %d", s.frame))
		}
		stats.Shadow = true
		stats.ShadowDraws = d.draws
		d.inputs.ShadowMap = s.Scene.Shadow.Map()
		d.inputs.ShadowMatrix = s.Scene.Shadow.Matrix()
	}

	if settings.Reflections && s.Scene.Environment != nil {
		s.state = StateEnvironment
		d.draws = 0
		s.setRaster(config.RenderFill, config.CullBack)
		if err := s.Scene.Environment.render(ctx, d); err != nil {
			return s.fail(errors.Wrapf(err, "frame %d", s.frame))
		}
		stats.Environment = true
		stats.EnvironmentDraws = d.draws
		d.inputs.Environment = s.Scene.Environment.Cube()
	}

	s.state = StateMain
	d.draws = 0
	if err := s.mainPass(d, settings); err != nil {
		return s.fail(errors.Wrapf(err, "frame %d", s.frame))
	}
	stats.MainDraws = d.draws
	s.Device.Present()

	stats.Duration = time.Since(start)
	s.stats = stats
	return nil
}

func (s *Scheduler) mainPass(d *drawer, settings config.Settings) error {
	ctx := s.Scene.Context
	restore, err := ctx.Enter("main")
	if err != nil {
		return err
	}
	defer restore()

	ctx.Bind(nil, ctx.Viewport)
	s.setRaster(settings.RenderMode, settings.CullMode)
	s.Device.Clear(s.Scene.ClearColor)

	if err := d.drawSkybox(); err != nil {
		return err
	}
	for _, m := range s.Scene.Models {
		if !m.Visible {
			continue
		}
		if err := d.drawModel(m); err != nil {
			return err
		}
	}
	if lm := s.Scene.LightMarker; lm != nil && lm.Visible && s.Scene.Light != nil {
		pos := s.Scene.Light.Position
		lm.Transform[12], lm.Transform[13], lm.Transform[14] = pos[0], pos[1], pos[2]
		if err := d.draw(lm, Shading{Kind: ProgramFlat, Material: lm.Material()}, lm.Transform); err != nil {
			return err
		}
	}
	return nil
}

// Run renders frames until next returns false, calling it before each frame.
func (s *Scheduler) Run(next func(dt time.Duration) bool) error {
	last := time.Now()
	for {
		now := time.Now()
		if !next(now.Sub(last)) {
			return nil
		}
		last = now
		if err := s.RenderFrame(); err != nil {
			log.Printf("[r3d] Frame failed: %v", err)
			return err
		}
	}
}
