package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/mogaika/fbx/builders/bfbx73"

	"github.com/mogaika/obj_scene_viewer/asset/mtl"
	"github.com/mogaika/obj_scene_viewer/r3d"
	"github.com/mogaika/obj_scene_viewer/utils/fbxbuilder"
)

// ExportFBX converts the visible models of sc into an FBX document.
// Vertices are baked into world space, so every model sits at the origin.
// Textures are not exported.
func ExportFBX(sc *r3d.Scene, filename string) *fbxbuilder.FBXBuilder {
	f := fbxbuilder.NewFBXBuilder(filename)
	for _, m := range sc.Models {
		if !m.Visible {
			continue
		}
		modelId := exportFbxModel(f, m)
		materialId := exportFbxMaterial(f, m.Material())
		f.AddConnections(
			bfbx73.C("OO", materialId, modelId),
			bfbx73.C("OO", modelId, 0),
		)
	}
	return f
}

func exportFbxModel(f *fbxbuilder.FBXBuilder, m *r3d.Model) int64 {
	msh := m.Mesh
	normalMatrix := m.Transform.Mat3().Inv().Transpose()

	vertices := make([]float64, 0, len(msh.Vertices())*3)
	for _, v := range msh.Vertices() {
		w := mgl32.TransformCoordinate(v, m.Transform)
		vertices = append(vertices, float64(w[0]), float64(w[1]), float64(w[2]))
	}
	normals := make([]float64, 0, len(vertices))
	for _, n := range msh.Normals() {
		w := normalMatrix.Mul3x1(n)
		if w.Len() > 0 {
			w = w.Normalize()
		}
		normals = append(normals, float64(w[0]), float64(w[1]), float64(w[2]))
	}

	// the last corner of every polygon is stored as -(index)-1
	indexes := make([]int32, 0, len(msh.Indices()))
	uvindexes := make([]int32, 0, len(msh.Indices()))
	for i := 0; i < msh.TriangleCount(); i++ {
		t := msh.Triangle(i)
		indexes = append(indexes, int32(t[0]), int32(t[1]), -int32(t[2])-1)
		uvindexes = append(uvindexes, int32(t[0]), int32(t[1]), int32(t[2]))
	}

	geometryLayer := bfbx73.Layer(0).AddNodes(
		bfbx73.Version(100),
	)
	geometryId := f.GenerateId()
	geometry := bfbx73.Geometry(geometryId, "\x00\x01Geometry", "Mesh").AddNodes(
		bfbx73.Properties70().AddNodes(
			bfbx73.P("Color", "ColorRGB", "Color", "", float64(1), float64(1), float64(1)),
		),
		bfbx73.GeometryVersion(124),
		bfbx73.Vertices(vertices),
		bfbx73.PolygonVertexIndex(indexes),
		geometryLayer,
		bfbx73.LayerElementNormal(0).AddNodes(
			bfbx73.Version(101),
			bfbx73.Name(""),
			bfbx73.MappingInformationType("ByVertice"),
			bfbx73.ReferenceInformationType("Direct"),
			bfbx73.Normals(normals),
		),
	)
	geometryLayer.AddNode(
		bfbx73.LayerElement().AddNodes(
			bfbx73.Type("LayerElementNormal"),
			bfbx73.TypedIndex(0),
		),
	)

	if msh.HasTexCoords() {
		uv := make([]float64, 0, len(msh.TexCoords())*2)
		for _, t := range msh.TexCoords() {
			uv = append(uv, float64(t[0]), float64(t[1]))
		}
		geometry.AddNode(
			bfbx73.LayerElementUV(0).AddNodes(
				bfbx73.Version(101),
				bfbx73.Name(""),
				bfbx73.MappingInformationType("ByPolygonVertex"),
				bfbx73.ReferenceInformationType("IndexToDirect"),
				bfbx73.UV(uv),
				bfbx73.UVIndex(uvindexes),
			),
		)
		geometryLayer.AddNode(
			bfbx73.LayerElement().AddNodes(
				bfbx73.Type("LayerElementUV"),
				bfbx73.TypedIndex(0),
			),
		)
	}

	geometry.AddNode(
		bfbx73.LayerElementMaterial(0).AddNodes(
			bfbx73.Version(101),
			bfbx73.Name(""),
			bfbx73.MappingInformationType("AllSame"),
			bfbx73.ReferenceInformationType("IndexToDirect"),
			bfbx73.Materials([]int32{0}),
		),
	)
	geometryLayer.AddNode(
		bfbx73.LayerElement().AddNodes(
			bfbx73.Type("LayerElementMaterial"),
			bfbx73.TypedIndex(0),
		),
	)

	modelId := f.GenerateId()
	model := bfbx73.Model(modelId, m.Name+"\x00\x01Model", "Mesh").AddNodes(
		bfbx73.Version(232),
		bfbx73.Properties70().AddNodes(
			bfbx73.P("InheritType", "enum", "", "", int32(1)),
			bfbx73.P("DefaultAttributeIndex", "int", "Integer", "", int32(0)),
		),
		bfbx73.Shading(true),
		bfbx73.Culling("CullingOff"),
	)

	f.AddObjects(model, geometry)
	f.AddConnections(bfbx73.C("OO", geometryId, modelId))
	return modelId
}

func exportFbxMaterial(f *fbxbuilder.FBXBuilder, mat *mtl.Material) int64 {
	if id, ok := f.GetCached(mat); ok {
		return id
	}

	id := f.GenerateId()
	ka, kd, ks := mat.Ambient, mat.Diffuse, mat.Specular
	material := bfbx73.Material(id, mat.Name+"\x00\x01Material", "").AddNodes(
		bfbx73.Version(102),
		bfbx73.ShadingModel("phong"),
		bfbx73.MultiLayer(0),
		bfbx73.Properties70().AddNodes(
			bfbx73.P("AmbientColor", "Color", "", "A", float64(ka[0]), float64(ka[1]), float64(ka[2])),
			bfbx73.P("DiffuseColor", "Color", "", "A", float64(kd[0]), float64(kd[1]), float64(kd[2])),
			bfbx73.P("SpecularColor", "Color", "", "A", float64(ks[0]), float64(ks[1]), float64(ks[2])),
			bfbx73.P("Shininess", "double", "Number", "", float64(mat.Shininess)),
			bfbx73.P("Opacity", "double", "Number", "", float64(mat.Alpha())),
		),
	)
	f.AddObjects(material)
	f.AddCache(mat, id)
	return id
}
