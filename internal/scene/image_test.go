package scene

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/pbr-renderer/internal/config"
)

func writePNG(t *testing.T, path string, width, height int, c color.Color) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()
	require.NoError(t, png.Encode(file, img))
}

func TestDecodeImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "red.png")
	writePNG(t, path, 3, 2, color.RGBA{R: 255, A: 255})

	img, err := DecodeImage(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Rect)
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, img.NRGBAAt(2, 1))
	assert.Len(t, Pixels(img), 3*2*4)
}

func TestDecodeImageNotAnImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.png")
	require.NoError(t, os.WriteFile(path, []byte("not a png"), 0o644))

	_, err := DecodeImage(path)
	assert.Error(t, err)
}

func TestLoadTextureFallbacks(t *testing.T) {
	dir := t.TempDir()
	fallbacks := config.Fallbacks{
		Default: filepath.Join(dir, "checker.png"),
		AO:      filepath.Join(dir, "white.png"),
		Normal:  filepath.Join(dir, "normal.png"),
	}

	checker, err := LoadTexture(fallbacks.Default, fallbacks)
	require.NoError(t, err)
	assert.Equal(t, 64, checker.Rect.Dx())
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, checker.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{A: 255}, checker.NRGBAAt(checkerCell, 0))

	white, err := LoadTexture(fallbacks.AO, fallbacks)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, white.NRGBAAt(0, 0))

	normal, err := LoadTexture(fallbacks.Normal, fallbacks)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 128, G: 128, B: 255, A: 255}, normal.NRGBAAt(0, 0))

	_, err = LoadTexture(filepath.Join(dir, "missing.png"), fallbacks)
	assert.Error(t, err)
}

func TestLoadTexturePrefersFileOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checker.png")
	writePNG(t, path, 2, 2, color.RGBA{G: 255, A: 255})

	img, err := LoadTexture(path, config.Fallbacks{Default: path})
	require.NoError(t, err)
	assert.Equal(t, 2, img.Rect.Dx())
}

func TestPixelsPacksSubImage(t *testing.T) {
	img := Checkerboard(2)
	sub := img.SubImage(image.Rect(0, 0, 4, 3)).(*image.NRGBA)

	assert.Len(t, Pixels(sub), 4*3*4)
}

func TestResize(t *testing.T) {
	img := Solid(color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	assert.Same(t, img, Resize(img, 1, 1))
	scaled := Resize(img, 4, 4)
	assert.Equal(t, image.Rect(0, 0, 4, 4), scaled.Rect)
	corner := scaled.NRGBAAt(3, 3)
	assert.InDelta(t, 10, int(corner.R), 1)
	assert.InDelta(t, 30, int(corner.B), 1)
}

func TestDecodeAllKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i, size := range []int{1, 2, 3, 4} {
		path := filepath.Join(dir, string(rune('a'+i))+".png")
		writePNG(t, path, size, size, color.White)
		paths = append(paths, path)
	}

	images, err := DecodeAll(context.Background(), paths, config.Fallbacks{})
	require.NoError(t, err)
	for i, img := range images {
		assert.Equal(t, i+1, img.Rect.Dx())
	}
}

func TestDecodeAllBoundsWorkers(t *testing.T) {
	paths := make([]string, 12)
	for i := range paths {
		paths[i] = string(rune('a' + i))
	}

	var running, peak int32
	images, err := decodeAll(context.Background(), paths, 3, func(path string) (*image.NRGBA, error) {
		n := atomic.AddInt32(&running, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return Checkerboard(1), nil
	})

	require.NoError(t, err)
	assert.Len(t, images, len(paths))
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
	assert.Positive(t, atomic.LoadInt32(&peak))
}

func TestDecodeAllFails(t *testing.T) {
	_, err := DecodeAll(context.Background(), []string{filepath.Join(t.TempDir(), "gone.png")}, config.Fallbacks{})
	assert.Error(t, err)
}

func TestPackFaces(t *testing.T) {
	faces := make([]*image.NRGBA, CubeFaces)
	for i := range faces {
		faces[i] = Checkerboard(1)
	}
	faces[3] = Solid(color.NRGBA{A: 255})

	pixels, width, height, err := PackFaces(faces)
	require.NoError(t, err)
	assert.Equal(t, checkerCell, width)
	assert.Equal(t, checkerCell, height)
	assert.Len(t, pixels, width*height*4*CubeFaces)

	_, _, _, err = PackFaces(faces[:5])
	assert.Error(t, err)

	faces[0] = image.NewNRGBA(image.Rect(0, 0, 4, 2))
	_, _, _, err = PackFaces(faces)
	assert.Error(t, err)
}

func TestSkyboxVertices(t *testing.T) {
	vertices := SkyboxVertices()
	require.Len(t, vertices, 36)
	for _, vert := range vertices {
		for _, c := range vert.Pos {
			assert.Equal(t, float32(1), c*c)
		}
	}
}
