package obj

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/obj_scene_viewer/asset/diag"
)

func TestParseLine(t *testing.T) {
	var tests = []struct {
		in     string
		kind   Kind
		values [3]float32
	}{
		{"v 1 2 3", Vertex, [3]float32{1, 2, 3}},
		{"vn 0 0 -1", Normal, [3]float32{0, 0, -1}},
		{"vt 0.25 0.75", TexCoord, [3]float32{0.25, 0.75, 0}},
		{"vt 0.25 0.75 0.0", TexCoord, [3]float32{0.25, 0.75, 0}},
		{"# comment", Ignored, [3]float32{}},
		{"", Ignored, [3]float32{}},
	}
	for _, test := range tests {
		rec, err := ParseLine(test.in, 7)
		require.NoError(t, err, test.in)
		assert.Equal(t, test.kind, rec.Kind, test.in)
		assert.Equal(t, test.values, rec.Values, test.in)
		assert.Equal(t, 7, rec.Line)
	}
}

func TestParseFaces(t *testing.T) {
	var tests = []struct {
		in      string
		layout  Layout
		corners []Corner
	}{
		{"f 1 2 3", LayoutP, []Corner{{1, 0, 0}, {2, 0, 0}, {3, 0, 0}}},
		{"f 1/4 2/5 3/6", LayoutPT, []Corner{{1, 4, 0}, {2, 5, 0}, {3, 6, 0}}},
		{"f 1//7 2//8 3//9", LayoutPN, []Corner{{1, 0, 7}, {2, 0, 8}, {3, 0, 9}}},
		{"f 1/1/1 2/2/2 3/3/3 4/4/4", LayoutPTN, []Corner{{1, 1, 1}, {2, 2, 2}, {3, 3, 3}, {4, 4, 4}}},
		{"f -3/-3 -2/-2 -1/-1", LayoutPT, []Corner{{-3, -3, 0}, {-2, -2, 0}, {-1, -1, 0}}},
	}
	for _, test := range tests {
		rec, err := ParseLine(test.in, 1)
		require.NoError(t, err, test.in)
		assert.Equal(t, Face, rec.Kind, test.in)
		assert.Equal(t, test.layout, rec.Layout, test.in)
		assert.Equal(t, test.corners, rec.Corners, test.in)
	}
}

func TestParseLineNames(t *testing.T) {
	rec, err := ParseLine("mtllib a.mtl sub/b.mtl", 1)
	require.NoError(t, err)
	assert.Equal(t, MaterialLib, rec.Kind)
	assert.Equal(t, []string{"a.mtl", "sub/b.mtl"}, rec.Paths)

	rec, err = ParseLine("usemtl 01_stone", 1)
	require.NoError(t, err)
	assert.Equal(t, UseMaterial, rec.Kind)
	assert.Equal(t, "01_stone", rec.Name)

	rec, err = ParseLine("g left wall", 1)
	require.NoError(t, err)
	assert.Equal(t, Object, rec.Kind)
	assert.Equal(t, "left wall", rec.Name)

	rec, err = ParseLine("curv 0 1 2", 1)
	require.NoError(t, err)
	assert.Equal(t, Ignored, rec.Kind)
	assert.Equal(t, "curv", rec.Name)
}

func TestParseLineFormatErrors(t *testing.T) {
	for _, in := range []string{
		"v 1 2",
		"v 1 2 3 4",
		"v 1 two 3",
		"vn 1 2",
		"vt 1",
		"vt 0.5 0.5 1.0",
		"vt 0.5 0.5 0 0",
		"f 1 2",
		"f 1/1 2 3",
		"f 1/1/1 2//2 3/3/3",
		"f 0 1 2",
		"f 1/2/3/4 2 3",
		"f 1/ 2/ 3/",
		"f 1.5 2 3",
		"f a b c",
		"usemtl",
		"usemtl a b",
		"mtllib",
	} {
		rec, err := ParseLine(in, 1)
		assert.Error(t, err, in)
		assert.Equal(t, Ignored, rec.Kind, in)
	}
}

func TestReadRecords(t *testing.T) {
	src := `# cube
o Cube
v 0 0 0
s off
vt 0 0
bevel on
f 1 1 1

usemtl x
`
	diags := diag.NewQuietList()
	records, err := ReadRecords(strings.NewReader(src), "cube.obj", diags)
	require.NoError(t, err)

	kinds := make([]Kind, len(records))
	for i := range records {
		kinds[i] = records[i].Kind
	}
	assert.Equal(t, []Kind{Object, Vertex, Ignored, TexCoord, Ignored, Face, UseMaterial}, kinds)
	assert.Equal(t, 9, records[len(records)-1].Line)

	// "s" is silent, "bevel" is not
	require.Equal(t, 1, diags.Len())
	assert.Equal(t, diag.Warning, diags.Items[0].Kind)
	assert.Equal(t, 6, diags.Items[0].Line)
}

func TestReadRecordsDropsMalformed(t *testing.T) {
	diags := diag.NewQuietList()
	records, err := ReadRecords(strings.NewReader("v 1 2 3\nv 1 2\nvt 0 0 0.0\nvt 0 0 1\n"), "m.obj", diags)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, Vertex, records[0].Kind)
	assert.Equal(t, TexCoord, records[1].Kind)

	require.Equal(t, 2, diags.Count(diag.FormatError))
	assert.Equal(t, 2, diags.Items[0].Line)
	assert.Equal(t, 4, diags.Items[1].Line)
}
