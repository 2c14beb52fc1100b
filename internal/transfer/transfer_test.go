package transfer

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/core1_0"
)

func TestMipLevels(t *testing.T) {
	assert.Equal(t, 7, MipLevels(100, 40))
	assert.Equal(t, 7, MipLevels(40, 100))
	assert.Equal(t, 1, MipLevels(1, 1))
	assert.Equal(t, 11, MipLevels(1024, 1024))
	assert.Equal(t, 11, MipLevels(1024, 1))
	assert.Equal(t, 1, MipLevels(0, 0))
}

func TestMipChain(t *testing.T) {
	chain := MipChain(100, 40, MipLevels(100, 40))
	require.Len(t, chain, 6)

	assert.Equal(t, MipBlit{Level: 1, SrcWidth: 100, SrcHeight: 40, DstWidth: 50, DstHeight: 20}, chain[0])
	assert.Equal(t, MipBlit{Level: 6, SrcWidth: 3, SrcHeight: 1, DstWidth: 1, DstHeight: 1}, chain[5])

	for i, blit := range chain {
		assert.Equal(t, i+1, blit.Level)
		assert.GreaterOrEqual(t, blit.DstWidth, 1)
		assert.GreaterOrEqual(t, blit.DstHeight, 1)
		if i > 0 {
			assert.Equal(t, chain[i-1].DstWidth, blit.SrcWidth)
			assert.Equal(t, chain[i-1].DstHeight, blit.SrcHeight)
		}
	}

	assert.Empty(t, MipChain(8, 8, 1))
}

func TestBarrierTable(t *testing.T) {
	upload, err := Barrier(core1_0.ImageLayoutUndefined, core1_0.ImageLayoutTransferDstOptimal)
	require.NoError(t, err)
	assert.Equal(t, BarrierConfig{
		SrcAccess: 0,
		DstAccess: core1_0.AccessTransferWrite,
		SrcStage:  core1_0.PipelineStageTopOfPipe,
		DstStage:  core1_0.PipelineStageTransfer,
	}, upload)

	sample, err := Barrier(core1_0.ImageLayoutTransferDstOptimal, core1_0.ImageLayoutShaderReadOnlyOptimal)
	require.NoError(t, err)
	assert.Equal(t, BarrierConfig{
		SrcAccess: core1_0.AccessTransferWrite,
		DstAccess: core1_0.AccessShaderRead,
		SrcStage:  core1_0.PipelineStageTransfer,
		DstStage:  core1_0.PipelineStageFragmentShader,
	}, sample)
}

func TestBarrierRejectsUnknownPairs(t *testing.T) {
	pairs := [][2]core1_0.ImageLayout{
		{core1_0.ImageLayoutUndefined, core1_0.ImageLayoutShaderReadOnlyOptimal},
		{core1_0.ImageLayoutShaderReadOnlyOptimal, core1_0.ImageLayoutTransferDstOptimal},
		{core1_0.ImageLayoutTransferDstOptimal, core1_0.ImageLayoutUndefined},
		{core1_0.ImageLayoutUndefined, core1_0.ImageLayoutDepthStencilAttachmentOptimal},
	}

	for _, pair := range pairs {
		_, err := Barrier(pair[0], pair[1])
		assert.True(t, errors.Is(err, ErrUnsupportedTransition), "%s -> %s", pair[0], pair[1])
	}
}

func TestEncode(t *testing.T) {
	raw := []byte{1, 2, 3}
	out, err := Encode(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, out)

	out, err = Encode([]uint32{1, 2})
	require.NoError(t, err)
	assert.Len(t, out, 8)

	out, err = Encode([]mgl32.Vec3{{1, 2, 3}})
	require.NoError(t, err)
	assert.Len(t, out, 12)

	_, err = Encode([]int{1})
	assert.Error(t, err)
}
