package scene

import (
	"context"
	"image"
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/pbr-renderer/internal/config"
	"github.com/vkngwrapper/pbr-renderer/internal/memory"
	"github.com/vkngwrapper/pbr-renderer/internal/transfer"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"
)

// TextureFormat is used for every sampled texture.
const TextureFormat = core1_0.FormatR8G8B8A8SRGB

// DecodeAll decodes every path concurrently, one decoder per CPU. The result
// is in path order.
func DecodeAll(ctx context.Context, paths []string, fallbacks config.Fallbacks) ([]*image.NRGBA, error) {
	return decodeAll(ctx, paths, runtime.NumCPU(), func(path string) (*image.NRGBA, error) {
		return LoadTexture(path, fallbacks)
	})
}

func decodeAll(ctx context.Context, paths []string, limit int, decode func(path string) (*image.NRGBA, error)) ([]*image.NRGBA, error) {
	images := make([]*image.NRGBA, len(paths))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(limit)
	for i, path := range paths {
		i, path := i, path
		group.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			img, err := decode(path)
			if err != nil {
				return err
			}
			images[i] = img
			return nil
		})
	}

	return images, group.Wait()
}

// TextureSet is the model's textures, all sampled through one sampler.
type TextureSet struct {
	Images  []*memory.Image
	Sampler core1_0.Sampler
}

// NewTextureSet decodes paths in parallel, then uploads each with a full
// mip chain. Uploads are sequential since each one waits for the queue.
func NewTextureSet(ctx context.Context, xfer *transfer.Engine, alloc *memory.Allocator, paths []string, fallbacks config.Fallbacks, maxAnisotropy float32, log *slog.Logger) (set *TextureSet, err error) {
	decoded, err := DecodeAll(ctx, paths, fallbacks)
	if err != nil {
		return nil, err
	}

	set = &TextureSet{}
	defer func() {
		if err != nil {
			set.Destroy()
			set = nil
		}
	}()

	maxMip := 1
	for i, img := range decoded {
		width, height := img.Rect.Dx(), img.Rect.Dy()
		texture, err := xfer.UploadImage(alloc, transfer.ImageUpload{
			Pixels:    Pixels(img),
			Width:     width,
			Height:    height,
			Format:    TextureFormat,
			Mipmapped: true,
		})
		if err != nil {
			return set, errors.Wrapf(err, "upload texture %s", paths[i])
		}
		set.Images = append(set.Images, texture)

		if texture.MipLevels > maxMip {
			maxMip = texture.MipLevels
		}
		log.Debug("texture uploaded", slog.String("path", paths[i]), slog.Int("width", width), slog.Int("height", height), slog.Int("mips", texture.MipLevels))
	}

	set.Sampler, _, err = alloc.Device().CreateSampler(nil, SamplerInfo(core1_0.SamplerAddressModeRepeat, maxAnisotropy, maxMip))
	if err != nil {
		return set, errors.Wrap(err, "create texture sampler")
	}

	return set, nil
}

// SamplerInfo is a trilinear sampler. Anisotropy is enabled when
// maxAnisotropy exceeds 1.
func SamplerInfo(addressMode core1_0.SamplerAddressMode, maxAnisotropy float32, mipLevels int) core1_0.SamplerCreateInfo {
	return core1_0.SamplerCreateInfo{
		MagFilter:    core1_0.FilterLinear,
		MinFilter:    core1_0.FilterLinear,
		AddressModeU: addressMode,
		AddressModeV: addressMode,
		AddressModeW: addressMode,

		AnisotropyEnable: maxAnisotropy > 1,
		MaxAnisotropy:    maxAnisotropy,

		BorderColor: core1_0.BorderColorIntOpaqueBlack,

		MipmapMode: core1_0.SamplerMipmapModeLinear,
		MinLod:     0,
		MaxLod:     float32(mipLevels),
	}
}

// ImageInfos describes every texture for a combined image sampler array.
func (t *TextureSet) ImageInfos() []core1_0.DescriptorImageInfo {
	infos := make([]core1_0.DescriptorImageInfo, 0, len(t.Images))
	for _, img := range t.Images {
		infos = append(infos, core1_0.DescriptorImageInfo{
			ImageView:   img.View,
			Sampler:     t.Sampler,
			ImageLayout: core1_0.ImageLayoutShaderReadOnlyOptimal,
		})
	}
	return infos
}

func (t *TextureSet) Destroy() {
	if t == nil {
		return
	}
	if t.Sampler != nil {
		t.Sampler.Destroy(nil)
		t.Sampler = nil
	}
	for _, img := range t.Images {
		img.Destroy()
	}
	t.Images = nil
}
