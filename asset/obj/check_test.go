package obj

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/obj_scene_viewer/asset/diag"
)

func TestCheck(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"stone.mtl": "newmtl stone\nmap_Kd stone.png\nnewmtl moss\nmap_Kd moss.png\n",
		"stone.png": "not decoded",
		"wall.obj": `mtllib stone.mtl
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
usemtl stone
f 1/1 2/1 3/1 4/1
usemtl moss
f 1/1 3/1 4/1
q unknown
`,
		"broken.obj": "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 9\n",
	})

	r := Check(filepath.Join(dir, "wall.obj"), Options{})
	require.False(t, r.Failed(), "%v", r.Err)
	assert.Equal(t, 2, r.Meshes)
	assert.Equal(t, 2, r.Materials)
	assert.Equal(t, 3, r.Triangles)
	assert.Equal(t, 4+3, r.Vertices)

	kinds := make(map[diag.Kind]int)
	for _, d := range r.Diagnostics {
		kinds[d.Kind]++
	}
	// moss.png is missing, q is unknown
	assert.Equal(t, map[diag.Kind]int{diag.ResourceError: 1, diag.Warning: 1}, kinds)

	r = Check(filepath.Join(dir, "broken.obj"), Options{})
	assert.True(t, r.Failed())
	assert.True(t, diag.IsKind(r.Err, diag.StructuralError))

	r = Check(filepath.Join(dir, "missing.obj"), Options{})
	assert.True(t, r.Failed())
}
