package scene

import (
	"context"
	"image"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/pbr-renderer/internal/config"
	"github.com/vkngwrapper/pbr-renderer/internal/memory"
	"github.com/vkngwrapper/pbr-renderer/internal/transfer"
	"golang.org/x/exp/slog"
)

// CubeFaces is the number of layers in a cube image, ordered +X, -X, +Y,
// -Y, +Z, -Z.
const CubeFaces = 6

type Cubemap struct {
	Image   *memory.Image
	Sampler core1_0.Sampler
}

// PackFaces lays the faces out as consecutive layers, scaling every face to
// the size of the first one.
func PackFaces(faces []*image.NRGBA) (pixels []byte, width, height int, err error) {
	if len(faces) != CubeFaces {
		return nil, 0, 0, errors.Newf("cubemap needs %d faces, got %d", CubeFaces, len(faces))
	}

	width, height = faces[0].Rect.Dx(), faces[0].Rect.Dy()
	if width != height {
		return nil, 0, 0, errors.Newf("cubemap faces must be square, first face is %dx%d", width, height)
	}

	pixels = make([]byte, 0, width*height*4*CubeFaces)
	for _, face := range faces {
		pixels = append(pixels, Pixels(Resize(face, width, height))...)
	}
	return pixels, width, height, nil
}

// NewCubemap decodes the six face images and uploads them as one cube
// compatible image without mipmaps.
func NewCubemap(ctx context.Context, xfer *transfer.Engine, alloc *memory.Allocator, faces [CubeFaces]string, maxAnisotropy float32, log *slog.Logger) (cube *Cubemap, err error) {
	decoded, err := DecodeAll(ctx, faces[:], config.Fallbacks{})
	if err != nil {
		return nil, errors.WithHint(err, "the skybox needs all six faces; check skybox_faces in the configuration")
	}

	pixels, width, height, err := PackFaces(decoded)
	if err != nil {
		return nil, err
	}

	cube = &Cubemap{}
	defer func() {
		if err != nil {
			cube.Destroy()
			cube = nil
		}
	}()

	cube.Image, err = xfer.UploadImage(alloc, transfer.ImageUpload{
		Pixels: pixels,
		Width:  width,
		Height: height,
		Layers: CubeFaces,
		Format: TextureFormat,
		Cube:   true,
	})
	if err != nil {
		return cube, errors.Wrap(err, "upload cubemap")
	}

	cube.Sampler, _, err = alloc.Device().CreateSampler(nil, SamplerInfo(core1_0.SamplerAddressModeClampToEdge, maxAnisotropy, 1))
	if err != nil {
		return cube, errors.Wrap(err, "create cubemap sampler")
	}

	log.Info("cubemap uploaded", slog.Int("size", width))
	return cube, nil
}

func (c *Cubemap) ImageInfo() core1_0.DescriptorImageInfo {
	return core1_0.DescriptorImageInfo{
		ImageView:   c.Image.View,
		Sampler:     c.Sampler,
		ImageLayout: core1_0.ImageLayoutShaderReadOnlyOptimal,
	}
}

func (c *Cubemap) Destroy() {
	if c == nil {
		return
	}
	if c.Sampler != nil {
		c.Sampler.Destroy(nil)
		c.Sampler = nil
	}
	c.Image.Destroy()
	c.Image = nil
}

// SkyboxVertices is a unit cube as 36 positions, two triangles per face.
func SkyboxVertices() []Vertex {
	positions := []float32{
		-1, 1, -1, -1, -1, -1, 1, -1, -1, 1, -1, -1, 1, 1, -1, -1, 1, -1,
		-1, -1, 1, -1, -1, -1, -1, 1, -1, -1, 1, -1, -1, 1, 1, -1, -1, 1,
		1, -1, -1, 1, -1, 1, 1, 1, 1, 1, 1, 1, 1, 1, -1, 1, -1, -1,
		-1, -1, 1, -1, 1, 1, 1, 1, 1, 1, 1, 1, 1, -1, 1, -1, -1, 1,
		-1, 1, -1, 1, 1, -1, 1, 1, 1, 1, 1, 1, -1, 1, 1, -1, 1, -1,
		-1, -1, -1, -1, -1, 1, 1, -1, -1, 1, -1, -1, -1, -1, 1, 1, -1, 1,
	}

	vertices := make([]Vertex, 0, len(positions)/3)
	for i := 0; i < len(positions); i += 3 {
		vertices = append(vertices, Vertex{Pos: mgl32.Vec3{positions[i], positions[i+1], positions[i+2]}})
	}
	return vertices
}
