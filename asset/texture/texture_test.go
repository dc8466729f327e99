package texture

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func writeImage(t *testing.T, path string, w, h int, enc func(f *os.File, img image.Image) error) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Rect, image.NewUniform(color.RGBA{0, 0, 0, 255}), image.Point{}, draw.Src)
	img.SetRGBA(0, 0, color.RGBA{1, 2, 3, 255})
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, enc(f, img))
}

func pngEnc(f *os.File, img image.Image) error { return png.Encode(f, img) }
func bmpEnc(f *os.File, img image.Image) error { return bmp.Encode(f, img) }

func TestDecodeFormats(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "a.png"), 4, 2, pngEnc)
	writeImage(t, filepath.Join(dir, "a.bmp"), 4, 2, bmpEnc)

	for _, name := range []string{"a.png", "a.bmp"} {
		img, err := FileDecoder{}.Decode(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Equal(t, image.Pt(4, 2), img.Bounds().Size(), name)
		r, g, b, _ := img.At(0, 0).RGBA()
		assert.Equal(t, []uint32{1, 2, 3}, []uint32{r >> 8, g >> 8, b >> 8}, name)
	}
}

func TestDecodeErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Decode(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)

	junk := filepath.Join(dir, "junk.png")
	require.NoError(t, os.WriteFile(junk, []byte("not an image"), 0644))
	_, err = Decode(junk)
	assert.Error(t, err)
}

func TestPlaceholder(t *testing.T) {
	p := Placeholder()
	assert.Equal(t, color.RGBA{0xff, 0, 0xff, 0xff}, p.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{0, 0, 0, 0xff}, p.RGBAAt(placeholderCell, 0))
	assert.Same(t, p, RGBA(p))
}

func TestRGBAConverts(t *testing.T) {
	gray := image.NewGray(image.Rect(2, 2, 4, 4))
	gray.SetGray(2, 2, color.Gray{200})
	rgba := RGBA(gray)
	assert.Equal(t, image.Rect(0, 0, 2, 2), rgba.Rect)
	assert.Equal(t, color.RGBA{200, 200, 200, 255}, rgba.RGBAAt(0, 0))
}

func TestLoadCube(t *testing.T) {
	dir := t.TempDir()
	for _, name := range CubeFaceNames {
		writeImage(t, filepath.Join(dir, name+".bmp"), 2, 2, bmpEnc)
	}
	faces, err := LoadCube(FileDecoder{}, dir, "bmp")
	require.NoError(t, err)
	for _, f := range faces {
		assert.NotNil(t, f)
	}

	require.NoError(t, os.Remove(filepath.Join(dir, "top.bmp")))
	_, err = LoadCube(FileDecoder{}, dir, "bmp")
	assert.Error(t, err)
}
