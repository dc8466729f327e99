package scene

import (
	"bytes"
	"image"
	"image/png"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/obj_scene_viewer/asset/mtl"
	"github.com/mogaika/obj_scene_viewer/r3d"
	"github.com/mogaika/obj_scene_viewer/utils/gltfutils"
)

type gltfExporter struct {
	doc       *gltf.Document
	materials map[*mtl.Material]uint32
	textures  map[image.Image]uint32
}

// ExportGLTF converts the visible models of sc into a glTF document, one
// node per model carrying its world transform. The light marker is left
// out.
func ExportGLTF(sc *r3d.Scene) (*gltf.Document, error) {
	e := &gltfExporter{
		doc:       gltfutils.NewDocument(),
		materials: make(map[*mtl.Material]uint32),
		textures:  make(map[image.Image]uint32),
	}
	for _, m := range sc.Models {
		if !m.Visible {
			continue
		}
		if err := e.model(m); err != nil {
			return nil, errors.Wrapf(err, "Failed to export %q", m.Name)
		}
	}
	return e.doc, nil
}

func (e *gltfExporter) model(m *r3d.Model) error {
	doc := e.doc
	msh := m.Mesh

	positions := make([][3]float32, len(msh.Vertices()))
	for i, v := range msh.Vertices() {
		positions[i] = v
	}
	normals := make([][3]float32, len(positions))
	for i, n := range msh.Normals() {
		normals[i] = n
	}

	attributes := map[string]uint32{
		"POSITION": modeler.WritePosition(doc, positions),
		"NORMAL":   modeler.WriteNormal(doc, normals),
	}
	if msh.HasTexCoords() {
		uvs := make([][2]float32, len(positions))
		for i, uv := range msh.TexCoords() {
			// glTF puts the texture origin at the top left
			uvs[i] = [2]float32{uv[0], 1 - uv[1]}
		}
		attributes["TEXCOORD_0"] = modeler.WriteTextureCoord(doc, uvs)
	}
	indices := modeler.WriteIndices(doc, msh.Indices())

	material, err := e.material(msh.Material(), msh.Textures())
	if err != nil {
		return err
	}

	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name: m.Name,
		Primitives: []*gltf.Primitive{
			&gltf.Primitive{
				Indices:    gltf.Index(indices),
				Attributes: attributes,
				Material:   gltf.Index(material),
			},
		},
	})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)))
	doc.Nodes = append(doc.Nodes, &gltf.Node{
		Name:   m.Name,
		Mesh:   gltf.Index(uint32(len(doc.Meshes) - 1)),
		Matrix: m.Transform,
	})
	return nil
}

func (e *gltfExporter) material(mat *mtl.Material, textures []image.Image) (uint32, error) {
	if id, ok := e.materials[mat]; ok {
		return id, nil
	}

	color := new([4]float32)
	*color = [4]float32{mat.Diffuse[0], mat.Diffuse[1], mat.Diffuse[2], mat.Alpha()}

	gltfMaterial := &gltf.Material{
		Name:        mat.Name,
		DoubleSided: true,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: color,
		},
	}
	if mat.Alpha() < 1 {
		gltfMaterial.AlphaMode = gltf.AlphaBlend
	}
	if len(textures) != 0 {
		tex, err := e.texture(mat.Name, textures[0])
		if err != nil {
			return 0, err
		}
		gltfMaterial.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: tex}
	}

	id := uint32(len(e.doc.Materials))
	e.doc.Materials = append(e.doc.Materials, gltfMaterial)
	e.materials[mat] = id
	return id, nil
}

func (e *gltfExporter) texture(name string, img image.Image) (uint32, error) {
	if id, ok := e.textures[img]; ok {
		return id, nil
	}
	doc := e.doc

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return 0, errors.Wrapf(err, "Unable to encode texture of %q", name)
	}
	imageIndex, err := modeler.WriteImage(doc, name+"_image", "image/png", &buf)
	if err != nil {
		return 0, errors.Wrapf(err, "Failed to write gltf image")
	}

	samplerIndex := uint32(len(doc.Samplers))
	doc.Samplers = append(doc.Samplers, &gltf.Sampler{
		Name:      name + "_sampler",
		MagFilter: gltf.MagLinear,
		MinFilter: gltf.MinLinearMipMapLinear,
		WrapS:     gltf.WrapRepeat,
		WrapT:     gltf.WrapRepeat,
	})

	id := uint32(len(doc.Textures))
	doc.Textures = append(doc.Textures, &gltf.Texture{
		Name:    name,
		Sampler: gltf.Index(samplerIndex),
		Source:  gltf.Index(imageIndex),
	})
	e.textures[img] = id
	return id, nil
}
