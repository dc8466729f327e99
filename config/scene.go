package config

import (
	"io/ioutil"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mogaika/obj_scene_viewer/utils"
)

// Scene is the declarative description of everything the viewer shows.
// Demo scenes are data files, not code.
type Scene struct {
	Name        string         `yaml:"name"`
	Window      Window         `yaml:"window"`
	Projection  Frustum        `yaml:"projection"`
	Camera      Camera         `yaml:"camera"`
	Light       Light          `yaml:"light"`
	Shadows     ShadowMap      `yaml:"shadows"`
	Environment EnvironmentMap `yaml:"environment"`
	Skybox      *Skybox        `yaml:"skybox"`
	Models      []Model        `yaml:"models"`

	// directory the relative paths are resolved against
	BaseDir string `yaml:"-"`
}

type Window struct {
	Width      int        `yaml:"width"`
	Height     int        `yaml:"height"`
	Title      string     `yaml:"title"`
	ClearColor [4]float32 `yaml:"clear_color"`
}

type Frustum struct {
	Left   float32 `yaml:"left"`
	Right  float32 `yaml:"right"`
	Bottom float32 `yaml:"bottom"`
	Top    float32 `yaml:"top"`
	Near   float32 `yaml:"near"`
	Far    float32 `yaml:"far"`
}

func (f Frustum) IsZero() bool {
	return f == Frustum{}
}

func (f Frustum) Matrix() mgl32.Mat4 {
	return mgl32.Frustum(f.Left, f.Right, f.Bottom, f.Top, f.Near, f.Far)
}

type Camera struct {
	Target   mgl32.Vec3 `yaml:"target"`
	Distance float32    `yaml:"distance"`
	Pitch    float32    `yaml:"pitch"`
	Yaw      float32    `yaml:"yaw"`
	// full turns per minute, 0 keeps the camera still
	OrbitSpeed float32 `yaml:"orbit_speed"`
}

type Light struct {
	Position mgl32.Vec3  `yaml:"position"`
	Ambient  *mgl32.Vec3 `yaml:"ambient"`
	Diffuse  *mgl32.Vec3 `yaml:"diffuse"`
	Specular *mgl32.Vec3 `yaml:"specular"`
	Marker   bool        `yaml:"marker"`
}

type ShadowMap struct {
	Size    int32   `yaml:"size"`
	Frustum Frustum `yaml:"frustum"`
}

type EnvironmentMap struct {
	Size int32   `yaml:"size"`
	Near float32 `yaml:"near"`
	Far  float32 `yaml:"far"`
	// name of the reflective model the cube map is rendered from,
	// empty picks the first reflective model
	Source string `yaml:"source"`
}

type Skybox struct {
	Folder string  `yaml:"folder"`
	Format string  `yaml:"format"`
	Scale  float32 `yaml:"scale"`
}

type Model struct {
	Name       string      `yaml:"name"`
	File       string      `yaml:"file"`
	Position   mgl32.Vec3  `yaml:"position"`
	Scale      *mgl32.Vec3 `yaml:"scale"`
	Rotation   mgl32.Vec3  `yaml:"rotation"` // degrees
	VertexMode string      `yaml:"vertex_mode"`

	Visible        *bool `yaml:"visible"`
	CastsShadow    *bool `yaml:"casts_shadow"`
	ReceivesShadow *bool `yaml:"receives_shadow"`
	Reflected      *bool `yaml:"reflected"`
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func (m *Model) IsVisible() bool        { return boolOr(m.Visible, true) }
func (m *Model) IsShadowCaster() bool   { return boolOr(m.CastsShadow, true) }
func (m *Model) IsShadowReceiver() bool { return boolOr(m.ReceivesShadow, true) }
func (m *Model) IsReflected() bool      { return boolOr(m.Reflected, true) }

func (m *Model) ScaleOrOne() mgl32.Vec3 {
	if m.Scale == nil {
		return mgl32.Vec3{1, 1, 1}
	}
	return *m.Scale
}

// Transform is translate * scale * rotate(x, y, z).
func (m *Model) Transform() mgl32.Mat4 {
	s := m.ScaleOrOne()
	rot := utils.DegreeToRadiansV3(m.Rotation)
	r := mgl32.HomogRotate3DX(rot.X()).
		Mul4(mgl32.HomogRotate3DY(rot.Y())).
		Mul4(mgl32.HomogRotate3DZ(rot.Z()))
	return mgl32.Translate3D(m.Position.X(), m.Position.Y(), m.Position.Z()).
		Mul4(mgl32.Scale3D(s.X(), s.Y(), s.Z())).
		Mul4(r)
}

// Resolve returns path relative to the scene file directory.
func (s *Scene) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || s.BaseDir == "" {
		return path
	}
	return filepath.Join(s.BaseDir, path)
}

func LoadScene(path string) (*Scene, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot read scene %q", path)
	}
	s, err := ParseScene(data, filepath.Dir(path))
	if err != nil {
		return nil, errors.Wrapf(err, "Scene %q", path)
	}
	return s, nil
}

func ParseScene(data []byte, baseDir string) (*Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "Unmarshaling error")
	}
	s.BaseDir = baseDir
	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func vec3(v *mgl32.Vec3, def mgl32.Vec3) *mgl32.Vec3 {
	if v == nil {
		return &def
	}
	return v
}

func (s *Scene) applyDefaults() {
	if s.Window.Width == 0 {
		s.Window.Width = 800
	}
	if s.Window.Height == 0 {
		s.Window.Height = 600
	}
	if s.Window.Title == "" {
		s.Window.Title = s.Name
	}
	if s.Window.ClearColor == [4]float32{} {
		s.Window.ClearColor = [4]float32{0.4, 0.4, 1.0, 1.0}
	}
	if s.Projection.IsZero() {
		s.Projection = Frustum{-1, 1, -1, 1, 1.5, 1000}
	}
	if s.Camera.Distance == 0 {
		s.Camera.Distance = 5
	}
	s.Light.Ambient = vec3(s.Light.Ambient, mgl32.Vec3{0.2, 0.2, 0.2})
	s.Light.Diffuse = vec3(s.Light.Diffuse, mgl32.Vec3{1, 1, 1})
	s.Light.Specular = vec3(s.Light.Specular, mgl32.Vec3{1, 1, 1})
	if s.Shadows.Size == 0 {
		s.Shadows.Size = 1000
	}
	if s.Shadows.Frustum.IsZero() {
		s.Shadows.Frustum = Frustum{-1, 1, -1.4, 1.1, 1.5, 775}
	}
	if s.Environment.Size == 0 {
		s.Environment.Size = 400
	}
	if s.Environment.Near == 0 {
		s.Environment.Near = 1
	}
	if s.Environment.Far == 0 {
		s.Environment.Far = 20
	}
	if s.Skybox != nil {
		if s.Skybox.Format == "" {
			s.Skybox.Format = "bmp"
		}
		if s.Skybox.Scale == 0 {
			s.Skybox.Scale = 100
		}
	}
}

func (f Frustum) validate(what string) error {
	if f.Near <= 0 || f.Far <= f.Near {
		return errors.Errorf("%s: invalid depth range near=%v far=%v", what, f.Near, f.Far)
	}
	if f.Left == f.Right || f.Bottom == f.Top {
		return errors.Errorf("%s: degenerate frustum", what)
	}
	return nil
}

func (s *Scene) Validate() error {
	if err := s.Projection.validate("projection"); err != nil {
		return err
	}
	if err := s.Shadows.Frustum.validate("shadows.frustum"); err != nil {
		return err
	}
	if s.Shadows.Size < 0 || s.Environment.Size < 0 {
		return errors.Errorf("negative render target size")
	}
	if s.Environment.Near <= 0 || s.Environment.Far <= s.Environment.Near {
		return errors.Errorf("environment: invalid depth range near=%v far=%v", s.Environment.Near, s.Environment.Far)
	}
	if s.Skybox != nil && s.Skybox.Folder == "" {
		return errors.Errorf("skybox: folder is required")
	}
	for i := range s.Models {
		m := &s.Models[i]
		if m.File == "" {
			return errors.Errorf("models[%d] (%q): file is required", i, m.Name)
		}
		switch m.VertexMode {
		case "", "split", "slice":
		default:
			return errors.Errorf("models[%d] (%q): unknown vertex_mode %q", i, m.Name, m.VertexMode)
		}
	}
	return nil
}
