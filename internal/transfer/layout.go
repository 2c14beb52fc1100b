package transfer

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
)

// ErrUnsupportedTransition is returned for any layout pair outside the
// transition table.
var ErrUnsupportedTransition = errors.New("unsupported layout transition")

// BarrierConfig is the access and stage masks of one image layout transition.
type BarrierConfig struct {
	SrcAccess core1_0.AccessFlags
	DstAccess core1_0.AccessFlags
	SrcStage  core1_0.PipelineStageFlags
	DstStage  core1_0.PipelineStageFlags
}

type transition struct {
	from, to core1_0.ImageLayout
}

var transitions = map[transition]BarrierConfig{
	{core1_0.ImageLayoutUndefined, core1_0.ImageLayoutTransferDstOptimal}: {
		SrcAccess: 0,
		DstAccess: core1_0.AccessTransferWrite,
		SrcStage:  core1_0.PipelineStageTopOfPipe,
		DstStage:  core1_0.PipelineStageTransfer,
	},
	{core1_0.ImageLayoutTransferDstOptimal, core1_0.ImageLayoutShaderReadOnlyOptimal}: {
		SrcAccess: core1_0.AccessTransferWrite,
		DstAccess: core1_0.AccessShaderRead,
		SrcStage:  core1_0.PipelineStageTransfer,
		DstStage:  core1_0.PipelineStageFragmentShader,
	},
}

// Barrier looks up the barrier for an old -> new layout transition.
func Barrier(oldLayout, newLayout core1_0.ImageLayout) (BarrierConfig, error) {
	config, ok := transitions[transition{oldLayout, newLayout}]
	if !ok {
		return BarrierConfig{}, errors.Wrapf(ErrUnsupportedTransition, "%s -> %s", oldLayout, newLayout)
	}
	return config, nil
}

// TransitionImageLayout moves every mip level and layer of image from
// oldLayout to newLayout.
func (e *Engine) TransitionImageLayout(image core1_0.Image, oldLayout, newLayout core1_0.ImageLayout, mipLevels, layers int) error {
	barrier, err := Barrier(oldLayout, newLayout)
	if err != nil {
		return err
	}

	return e.Submit(func(cmd core1_0.CommandBuffer) error {
		return cmd.CmdPipelineBarrier(barrier.SrcStage, barrier.DstStage, 0, nil, nil, []core1_0.ImageMemoryBarrier{
			{
				OldLayout:           oldLayout,
				NewLayout:           newLayout,
				SrcQueueFamilyIndex: -1,
				DstQueueFamilyIndex: -1,
				Image:               image,
				SubresourceRange: core1_0.ImageSubresourceRange{
					AspectMask:     core1_0.ImageAspectColor,
					BaseMipLevel:   0,
					LevelCount:     mipLevels,
					BaseArrayLayer: 0,
					LayerCount:     layers,
				},
				SrcAccessMask: barrier.SrcAccess,
				DstAccessMask: barrier.DstAccess,
			},
		})
	})
}
