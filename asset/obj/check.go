package obj

import (
	"image"
	"os"

	"github.com/mogaika/obj_scene_viewer/asset/diag"
	"github.com/mogaika/obj_scene_viewer/asset/texture"
)

// skipDecoder only checks that texture files exist.
type skipDecoder struct{}

func (skipDecoder) Decode(path string) (image.Image, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return texture.Placeholder(), nil
}

// Report summarizes the import of one file.
type Report struct {
	File        string            `json:"file"`
	Meshes      int               `json:"meshes"`
	Vertices    int               `json:"vertices"`
	Triangles   int               `json:"triangles"`
	Materials   int               `json:"materials"`
	Diagnostics []diag.Diagnostic `json:"diagnostics"`
	// Err is the fatal error that stopped the import, if any
	Err error `json:"-"`
}

func (r *Report) Failed() bool { return r.Err != nil }

// Check imports path and reports what came out of it. Without a Decoder in
// opts, texture files are only checked for existence.
func Check(path string, opts Options) *Report {
	diags := diag.NewQuietList()
	opts.Diagnostics = diags
	if opts.Decoder == nil {
		opts.Decoder = skipDecoder{}
	}

	r := &Report{File: path}
	res, err := Import(path, opts)
	r.Diagnostics = diags.Items
	if err != nil {
		r.Err = err
		return r
	}
	r.Meshes = len(res.Meshes)
	r.Materials = res.Library.Len()
	for _, m := range res.Meshes {
		r.Vertices += len(m.Vertices())
		r.Triangles += m.TriangleCount()
	}
	return r
}
