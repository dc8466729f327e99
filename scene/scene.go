// Package scene turns a scene description into renderable r3d objects.
package scene

import (
	"log"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/obj_scene_viewer/asset/diag"
	"github.com/mogaika/obj_scene_viewer/asset/mesh"
	"github.com/mogaika/obj_scene_viewer/asset/obj"
	"github.com/mogaika/obj_scene_viewer/asset/texture"
	"github.com/mogaika/obj_scene_viewer/config"
	"github.com/mogaika/obj_scene_viewer/r3d"
	"github.com/mogaika/obj_scene_viewer/rendercontext"
	"github.com/mogaika/obj_scene_viewer/status"
	"github.com/mogaika/obj_scene_viewer/utils"
)

type Options struct {
	// Decoder loads textures and skybox faces; nil reads files from disk
	Decoder texture.Decoder
	// Diagnostics receives the diagnostics of every import
	Diagnostics *diag.List
	// Viewport of the main pass, the window size when zero
	Viewport rendercontext.Viewport
	// VertexMode is used for models that do not set their own
	VertexMode obj.VertexMode
}

type Result struct {
	Scene     *r3d.Scene
	Camera    *r3d.OrbitController
	Inventory *Inventory
}

func (o *Options) decoder() texture.Decoder {
	if o.Decoder == nil {
		return texture.FileDecoder{}
	}
	return o.Decoder
}

type builder struct {
	desc  *config.Scene
	dev   r3d.Device
	opts  Options
	names utils.RandomNameGenerator

	scene *r3d.Scene
	inv   *Inventory
}

// Build imports every model of desc, uploads it to dev and sets up the
// light, the passes and the skybox. An import failure aborts the build.
func Build(desc *config.Scene, dev r3d.Device, opts Options) (*Result, error) {
	if opts.Diagnostics == nil {
		opts.Diagnostics = diag.NewList("scene")
	}
	if opts.Viewport == (rendercontext.Viewport{}) {
		opts.Viewport = rendercontext.Viewport{Width: int32(desc.Window.Width), Height: int32(desc.Window.Height)}
	}
	b := &builder{desc: desc, dev: dev, opts: opts}
	for i := range desc.Models {
		if desc.Models[i].Name != "" {
			b.names.Reserve(desc.Models[i].Name)
		}
	}
	return b.build()
}

func (b *builder) build() (*Result, error) {
	desc := b.desc
	camera := r3d.NewOrbitController(desc.Camera.Target, desc.Camera.Distance, desc.Camera.Pitch, desc.Camera.Yaw)
	camera.Speed = desc.Camera.OrbitSpeed

	b.scene = &r3d.Scene{
		Context:    rendercontext.New(b.dev, camera.GetViewMatrix(), desc.Projection.Matrix(), b.opts.Viewport),
		ClearColor: utils.ColorFloat(desc.Window.ClearColor).Vec4(),
		Light: &r3d.Light{
			Position: desc.Light.Position,
			Ambient:  *desc.Light.Ambient,
			Diffuse:  *desc.Light.Diffuse,
			Specular: *desc.Light.Specular,
		},
	}
	b.inv = &Inventory{Name: desc.Name, Light: desc.Light.Position}

	for i := range desc.Models {
		status.Progress(float32(i)/float32(len(desc.Models)), "Importing %s", desc.Models[i].File)
		if err := b.addModel(&desc.Models[i]); err != nil {
			status.Error("Failed to build scene: %v", err)
			return nil, err
		}
	}

	if desc.Light.Marker {
		marker, err := r3d.NewModel(b.dev, "light", mesh.Sphere(12, 24, mesh.SphereMaterial()), mgl32.Translate3D(desc.Light.Position.Elem()))
		if err != nil {
			return nil, errors.Wrap(err, "Failed to create light marker")
		}
		marker.CastsShadow = false
		marker.Reflected = false
		b.scene.LightMarker = marker
	}

	if err := b.addPasses(); err != nil {
		return nil, err
	}
	if err := b.addSkybox(); err != nil {
		return nil, err
	}

	b.inv.Diagnostics = append([]diag.Diagnostic(nil), b.opts.Diagnostics.Items...)
	status.Progress(1, "Scene %q ready: %d models, %d diagnostics", desc.Name, len(b.inv.Models), len(b.inv.Diagnostics))
	log.Printf("[scene] Built %q: %d models, %d materials, %d diagnostics",
		desc.Name, len(b.inv.Models), len(b.inv.Materials), len(b.inv.Diagnostics))

	return &Result{Scene: b.scene, Camera: camera, Inventory: b.inv}, nil
}

func (b *builder) addModel(entry *config.Model) error {
	name := entry.Name
	if name == "" {
		name = b.names.RandomName()
		log.Printf("[scene] Model %q is named %q", entry.File, name)
	}

	mode := b.opts.VertexMode
	if entry.VertexMode != "" {
		var err error
		if mode, err = obj.ParseVertexMode(entry.VertexMode); err != nil {
			return errors.Wrapf(err, "Model %q", name)
		}
	}
	file := b.desc.Resolve(entry.File)
	res, err := obj.Import(file, obj.Options{
		VertexMode:  mode,
		Decoder:     b.opts.decoder(),
		Diagnostics: b.opts.Diagnostics,
	})
	if err != nil {
		return errors.Wrapf(err, "Model %q", name)
	}
	if len(res.Meshes) == 0 {
		b.opts.Diagnostics.Addf(diag.Warning, file, 0, "model %q has no faces", name)
	}

	for _, m := range res.Library.Materials {
		b.inv.Materials = append(b.inv.Materials, MaterialEntry{File: file, Material: m})
	}

	transform := entry.Transform()
	for _, m := range res.Meshes {
		modelName := name
		if len(res.Meshes) > 1 {
			modelName = name + "." + meshName(m)
		}
		model, err := r3d.NewModel(b.dev, modelName, m, transform)
		if err != nil {
			return err
		}
		model.Visible = entry.IsVisible()
		model.CastsShadow = entry.IsShadowCaster()
		model.ReceivesShadow = entry.IsShadowReceiver()
		model.Reflected = entry.IsReflected()

		b.scene.Add(model)
		b.inv.Models = append(b.inv.Models, newModelEntry(file, model))
	}
	return nil
}

func meshName(m *mesh.Mesh) string {
	if m.Name() != "" {
		return m.Name()
	}
	return "default"
}

// environmentSource picks the model the environment map is rendered from.
func (b *builder) environmentSource() (*r3d.Model, error) {
	want := b.desc.Environment.Source
	for _, m := range b.scene.Models {
		if want == "" && m.Reflective() {
			return m, nil
		}
		if want != "" && (m.Name == want || strings.HasPrefix(m.Name, want+".")) {
			return m, nil
		}
	}
	if want != "" {
		return nil, errors.Errorf("Environment source model %q not found", want)
	}
	return nil, nil
}

func (b *builder) addPasses() error {
	desc := b.desc

	shadow, err := r3d.NewShadowPass(b.dev, b.scene.Light, desc.Shadows.Size, desc.Shadows.Frustum.Matrix())
	if err != nil {
		return err
	}
	b.scene.Shadow = shadow
	b.inv.Shadows = true

	source, err := b.environmentSource()
	if err != nil {
		return err
	}
	if source == nil {
		log.Printf("[scene] No reflective model, environment pass disabled")
		return nil
	}
	env, err := r3d.NewEnvironmentPass(b.dev, source, desc.Environment.Size, desc.Environment.Near, desc.Environment.Far)
	if err != nil {
		return err
	}
	b.scene.Environment = env
	b.inv.EnvironmentSource = source.Name
	return nil
}

func (b *builder) addSkybox() error {
	sb := b.desc.Skybox
	if sb == nil {
		return nil
	}
	folder := b.desc.Resolve(sb.Folder)
	faces, err := texture.LoadCube(b.opts.decoder(), folder, sb.Format)
	if err != nil {
		// the scene is still usable without a sky
		b.opts.Diagnostics.Addf(diag.ResourceError, filepath.Clean(folder), 0, "skybox: %v", err)
		return nil
	}
	skybox, err := r3d.NewSkybox(b.dev, faces, sb.Scale)
	if err != nil {
		return err
	}
	b.scene.Skybox = skybox
	b.inv.Skybox = true
	return nil
}
