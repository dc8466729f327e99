package main

import (
	"log"
	"sort"

	"github.com/mogaika/obj_scene_viewer/asset/obj"
)

// parseCheck imports every file and logs what each one produced. It returns
// the number of files that failed to import.
func parseCheck(files []string, mode obj.VertexMode) int {
	sort.Strings(files)

	failed := 0
	for _, fname := range files {
		r := obj.Check(fname, obj.Options{VertexMode: mode})
		for _, d := range r.Diagnostics {
			log.Printf("  %v", d)
		}
		if r.Failed() {
			failed++
			log.Printf("FAIL %q: %v", fname, r.Err)
			continue
		}
		log.Printf("OK   %q: %d meshes, %d materials, %d vertices, %d triangles, %d diagnostics",
			fname, r.Meshes, r.Materials, r.Vertices, r.Triangles, len(r.Diagnostics))
	}
	if failed != 0 {
		log.Printf("%d of %d files failed", failed, len(files))
	}
	return failed
}
