package scene

import (
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/pbr-renderer/internal/config"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const checkerCell = 8

// DecodeImage reads an image file in any registered format and converts it
// to non-premultiplied RGBA8.
func DecodeImage(path string) (*image.NRGBA, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open texture %s", path)
	}
	defer file.Close()

	decoded, _, err := image.Decode(file)
	if err != nil {
		return nil, errors.Wrapf(err, "decode texture %s", path)
	}

	if nrgba, ok := decoded.(*image.NRGBA); ok && nrgba.Rect.Min == (image.Point{}) {
		return nrgba, nil
	}

	bounds := decoded.Bounds()
	converted := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(converted, converted.Bounds(), decoded, bounds.Min, draw.Src)
	return converted, nil
}

// LoadTexture decodes path. When path is one of the fallback textures and
// the file is absent, an equivalent texture is generated instead.
func LoadTexture(path string, fallbacks config.Fallbacks) (*image.NRGBA, error) {
	_, statErr := os.Stat(path)
	if !os.IsNotExist(statErr) {
		return DecodeImage(path)
	}

	switch path {
	case fallbacks.Default:
		return Checkerboard(8), nil
	case fallbacks.AO:
		return Solid(color.NRGBA{R: 255, G: 255, B: 255, A: 255}), nil
	case fallbacks.Normal:
		return Solid(color.NRGBA{R: 128, G: 128, B: 255, A: 255}), nil
	}
	return nil, errors.Wrapf(statErr, "texture %s", path)
}

// Checkerboard is cells x cells squares of alternating white and black.
func Checkerboard(cells int) *image.NRGBA {
	size := cells * checkerCell
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := color.NRGBA{A: 255}
			if (x/checkerCell+y/checkerCell)%2 == 0 {
				c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// Solid is a 1x1 image of c.
func Solid(c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, c)
	return img
}

// Pixels returns img's texels as tightly packed rows.
func Pixels(img *image.NRGBA) []byte {
	width, height := img.Rect.Dx(), img.Rect.Dy()
	rowBytes := width * 4
	if img.Stride == rowBytes && len(img.Pix) == rowBytes*height {
		return img.Pix
	}

	packed := make([]byte, 0, rowBytes*height)
	for y := 0; y < height; y++ {
		start := y * img.Stride
		packed = append(packed, img.Pix[start:start+rowBytes]...)
	}
	return packed
}

// Resize scales img to width x height with bilinear filtering.
func Resize(img *image.NRGBA, width, height int) *image.NRGBA {
	if img.Rect.Dx() == width && img.Rect.Dy() == height {
		return img
	}

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}
