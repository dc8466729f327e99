// Package texture decodes image files used as mesh and skybox textures.
package texture

import (
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
)

type Decoder interface {
	Decode(path string) (image.Image, error)
}

// FileDecoder reads bmp, png and jpeg files from disk.
type FileDecoder struct{}

func (FileDecoder) Decode(path string) (image.Image, error) {
	return Decode(path)
}

func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to open texture %q", path)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to decode texture %q", path)
	}
	return img, nil
}

const placeholderCell = 8

// Placeholder is a magenta and black checker substituted for textures that
// cannot be loaded.
func Placeholder() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, placeholderCell*8, placeholderCell*8))
	magenta := color.RGBA{0xff, 0x00, 0xff, 0xff}
	black := color.RGBA{0x00, 0x00, 0x00, 0xff}
	for y := 0; y < img.Rect.Dy(); y++ {
		for x := 0; x < img.Rect.Dx(); x++ {
			if (x/placeholderCell+y/placeholderCell)%2 == 0 {
				img.SetRGBA(x, y, magenta)
			} else {
				img.SetRGBA(x, y, black)
			}
		}
	}
	return img
}

// RGBA converts img into tightly packed 8-bit RGBA, as texture upload wants.
func RGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == rgba.Rect.Dx()*4 && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Rect, img, b.Min, draw.Src)
	return rgba
}

// Cube face file names, in +X -X +Y -Y +Z -Z order.
var CubeFaceNames = [6]string{"right", "left", "top", "bottom", "back", "front"}

// LoadCube reads folder/<face>.<format> for every cube face.
func LoadCube(d Decoder, folder, format string) ([6]image.Image, error) {
	var faces [6]image.Image
	for i, name := range CubeFaceNames {
		img, err := d.Decode(filepath.Join(folder, name+"."+format))
		if err != nil {
			return faces, errors.Wrapf(err, "Cube face %s", name)
		}
		faces[i] = img
	}
	size := faces[0].Bounds().Size()
	for i, img := range faces {
		if img.Bounds().Size() != size || size.X != size.Y {
			return faces, errors.Errorf("Cube face %s is %v, expected square %v", CubeFaceNames[i], img.Bounds().Size(), size)
		}
	}
	return faces, nil
}
