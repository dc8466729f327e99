package r3d

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/obj_scene_viewer/asset/mesh"
)

// Skybox is an inside out cube around the origin sampling a cube map.
type Skybox struct {
	Model *Model
	Cube  Texture
}

func NewSkybox(dev Device, faces [6]image.Image, scale float32) (*Skybox, error) {
	cube, err := dev.CreateCubeMap(faces)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create skybox cube map")
	}
	model, err := NewModel(dev, "skybox", mesh.Cube(true), mgl32.Scale3D(scale, scale, scale))
	if err != nil {
		return nil, err
	}
	model.CastsShadow = false
	model.ReceivesShadow = false
	model.Reflected = false
	return &Skybox{Model: model, Cube: cube}, nil
}
