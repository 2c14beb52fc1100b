package transfer

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
)

// ErrLinearBlitUnsupported is returned when a format cannot be blitted with
// a linear filter, which mipmap generation requires.
var ErrLinearBlitUnsupported = errors.New("format does not support linear blitting")

// MipLevels is the length of the full mip chain for a width x height image.
func MipLevels(width, height int) int {
	largest := width
	if height > largest {
		largest = height
	}
	if largest < 1 {
		return 1
	}
	return int(math.Floor(math.Log2(float64(largest)))) + 1
}

// MipBlit is one step of the mip chain: level Level-1 is blitted from
// Src into Dst at level Level.
type MipBlit struct {
	Level               int
	SrcWidth, SrcHeight int
	DstWidth, DstHeight int
}

// MipChain lists the blits that fill levels 1..mipLevels-1, halving each
// dimension and clamping at 1.
func MipChain(width, height, mipLevels int) []MipBlit {
	var chain []MipBlit

	mipWidth, mipHeight := width, height
	for i := 1; i < mipLevels; i++ {
		nextWidth, nextHeight := mipWidth, mipHeight
		if nextWidth > 1 {
			nextWidth /= 2
		}
		if nextHeight > 1 {
			nextHeight /= 2
		}

		chain = append(chain, MipBlit{
			Level:     i,
			SrcWidth:  mipWidth,
			SrcHeight: mipHeight,
			DstWidth:  nextWidth,
			DstHeight: nextHeight,
		})

		mipWidth, mipHeight = nextWidth, nextHeight
	}

	return chain
}

// GenerateMipmaps fills every level below 0 by successive linear blits. All
// levels must start in TransferDstOptimal; all of them end in
// ShaderReadOnlyOptimal.
func (e *Engine) GenerateMipmaps(image core1_0.Image, format core1_0.Format, width, height, mipLevels, layers int) error {
	properties := e.physicalDevice.FormatProperties(format)
	if (properties.OptimalTilingFeatures & core1_0.FormatFeatureSampledImageFilterLinear) == 0 {
		return errors.Wrapf(ErrLinearBlitUnsupported, "texture image format %s", format)
	}

	return e.Submit(func(cmd core1_0.CommandBuffer) error {
		barrier := core1_0.ImageMemoryBarrier{
			Image:               image,
			SrcQueueFamilyIndex: -1,
			DstQueueFamilyIndex: -1,
			SubresourceRange: core1_0.ImageSubresourceRange{
				AspectMask:     core1_0.ImageAspectColor,
				BaseArrayLayer: 0,
				LayerCount:     layers,
				LevelCount:     1,
			},
		}

		for _, blit := range MipChain(width, height, mipLevels) {
			barrier.SubresourceRange.BaseMipLevel = blit.Level - 1
			barrier.OldLayout = core1_0.ImageLayoutTransferDstOptimal
			barrier.NewLayout = core1_0.ImageLayoutTransferSrcOptimal
			barrier.SrcAccessMask = core1_0.AccessTransferWrite
			barrier.DstAccessMask = core1_0.AccessTransferRead

			err := cmd.CmdPipelineBarrier(core1_0.PipelineStageTransfer, core1_0.PipelineStageTransfer, 0, nil, nil, []core1_0.ImageMemoryBarrier{barrier})
			if err != nil {
				return err
			}

			err = cmd.CmdBlitImage(image, core1_0.ImageLayoutTransferSrcOptimal, image, core1_0.ImageLayoutTransferDstOptimal, []core1_0.ImageBlit{
				{
					SrcSubresource: core1_0.ImageSubresourceLayers{
						AspectMask:     core1_0.ImageAspectColor,
						MipLevel:       blit.Level - 1,
						BaseArrayLayer: 0,
						LayerCount:     layers,
					},
					SrcOffsets: [2]core1_0.Offset3D{
						{X: 0, Y: 0, Z: 0},
						{X: blit.SrcWidth, Y: blit.SrcHeight, Z: 1},
					},
					DstSubresource: core1_0.ImageSubresourceLayers{
						AspectMask:     core1_0.ImageAspectColor,
						MipLevel:       blit.Level,
						BaseArrayLayer: 0,
						LayerCount:     layers,
					},
					DstOffsets: [2]core1_0.Offset3D{
						{X: 0, Y: 0, Z: 0},
						{X: blit.DstWidth, Y: blit.DstHeight, Z: 1},
					},
				},
			}, core1_0.FilterLinear)
			if err != nil {
				return err
			}

			barrier.OldLayout = core1_0.ImageLayoutTransferSrcOptimal
			barrier.NewLayout = core1_0.ImageLayoutShaderReadOnlyOptimal
			barrier.SrcAccessMask = core1_0.AccessTransferRead
			barrier.DstAccessMask = core1_0.AccessShaderRead

			err = cmd.CmdPipelineBarrier(core1_0.PipelineStageTransfer, core1_0.PipelineStageFragmentShader, 0, nil, nil, []core1_0.ImageMemoryBarrier{barrier})
			if err != nil {
				return err
			}
		}

		// the last level is only ever written to
		final, err := Barrier(core1_0.ImageLayoutTransferDstOptimal, core1_0.ImageLayoutShaderReadOnlyOptimal)
		if err != nil {
			return err
		}
		barrier.SubresourceRange.BaseMipLevel = mipLevels - 1
		barrier.OldLayout = core1_0.ImageLayoutTransferDstOptimal
		barrier.NewLayout = core1_0.ImageLayoutShaderReadOnlyOptimal
		barrier.SrcAccessMask = final.SrcAccess
		barrier.DstAccessMask = final.DstAccess

		return cmd.CmdPipelineBarrier(final.SrcStage, final.DstStage, 0, nil, nil, []core1_0.ImageMemoryBarrier{barrier})
	})
}
