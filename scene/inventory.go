package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/mogaika/obj_scene_viewer/asset/diag"
	"github.com/mogaika/obj_scene_viewer/asset/mtl"
	"github.com/mogaika/obj_scene_viewer/r3d"
)

// ModelEntry describes one model instance of a built scene.
type ModelEntry struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	File     string    `json:"file"`
	Mesh     string    `json:"mesh"`
	Material string    `json:"material"`

	Vertices   int  `json:"vertices"`
	Triangles  int  `json:"triangles"`
	Textured   bool `json:"textured"`
	Reflective bool `json:"reflective"`

	Visible        bool `json:"visible"`
	CastsShadow    bool `json:"casts_shadow"`
	ReceivesShadow bool `json:"receives_shadow"`
	Reflected      bool `json:"reflected"`

	BoundsMin mgl32.Vec3 `json:"bounds_min"`
	BoundsMax mgl32.Vec3 `json:"bounds_max"`
}

type MaterialEntry struct {
	File     string        `json:"file"`
	Material *mtl.Material `json:"material"`
}

// Inventory is an immutable snapshot of what was loaded. It is safe to share
// with other goroutines.
type Inventory struct {
	Name        string            `json:"name"`
	Models      []ModelEntry      `json:"models"`
	Materials   []MaterialEntry   `json:"materials"`
	Diagnostics []diag.Diagnostic `json:"diagnostics"`

	Light             mgl32.Vec3 `json:"light"`
	Shadows           bool       `json:"shadows"`
	EnvironmentSource string     `json:"environment_source,omitempty"`
	Skybox            bool       `json:"skybox"`
}

func (inv *Inventory) Model(id uuid.UUID) (*ModelEntry, bool) {
	for i := range inv.Models {
		if inv.Models[i].ID == id {
			return &inv.Models[i], true
		}
	}
	return nil, false
}

func newModelEntry(file string, m *r3d.Model) ModelEntry {
	min, max := m.WorldBounds()
	return ModelEntry{
		ID:             m.ID,
		Name:           m.Name,
		File:           file,
		Mesh:           m.Mesh.Name(),
		Material:       m.Material().Name,
		Vertices:       len(m.Mesh.Vertices()),
		Triangles:      m.Mesh.TriangleCount(),
		Textured:       m.Texture() != nil,
		Reflective:     m.Reflective(),
		Visible:        m.Visible,
		CastsShadow:    m.CastsShadow,
		ReceivesShadow: m.ReceivesShadow,
		Reflected:      m.Reflected,
		BoundsMin:      min,
		BoundsMax:      max,
	}
}
