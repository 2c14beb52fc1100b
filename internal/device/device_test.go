package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
)

func TestMaxUsableSampleCount(t *testing.T) {
	all := core1_0.Samples1 | core1_0.Samples2 | core1_0.Samples4 | core1_0.Samples8 |
		core1_0.Samples16 | core1_0.Samples32 | core1_0.Samples64

	testCases := []struct {
		name         string
		color, depth core1_0.SampleCountFlags
		want         core1_0.SampleCountFlags
	}{
		{"everything", all, all, core1_0.Samples64},
		{"depth limits", all, core1_0.Samples1 | core1_0.Samples2 | core1_0.Samples4 | core1_0.Samples8, core1_0.Samples8},
		{"color limits", core1_0.Samples1 | core1_0.Samples4, all, core1_0.Samples4},
		{"disjoint above one", core1_0.Samples1 | core1_0.Samples2, core1_0.Samples1 | core1_0.Samples4, core1_0.Samples1},
		{"nothing", 0, 0, core1_0.Samples1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MaxUsableSampleCount(tc.color, tc.depth))
		})
	}
}

func intPtr(i int) *int { return &i }

func TestQueueFamilyIndices(t *testing.T) {
	var empty QueueFamilyIndices
	assert.False(t, empty.IsComplete())
	assert.Nil(t, empty.Unique())

	shared := QueueFamilyIndices{GraphicsFamily: intPtr(0), PresentFamily: intPtr(0)}
	assert.True(t, shared.IsComplete())
	assert.Equal(t, []int{0}, shared.Unique())

	split := QueueFamilyIndices{GraphicsFamily: intPtr(2), PresentFamily: intPtr(1)}
	assert.Equal(t, []int{2, 1}, split.Unique())
}

func TestSuitability(t *testing.T) {
	ok := Suitability{QueueFamilies: true, Extensions: true, SwapchainAdequate: true, SamplerAnisotropy: true}
	assert.True(t, ok.Suitable())
	assert.Empty(t, ok.Missing())

	noAniso := ok
	noAniso.SamplerAnisotropy = false
	assert.False(t, noAniso.Suitable())
	assert.Equal(t, "sampler anisotropy", noAniso.Missing())

	assert.Equal(t, "queue families, device extensions, surface formats/present modes, sampler anisotropy", Suitability{}.Missing())
}

func TestSwapchainSupportAdequate(t *testing.T) {
	assert.False(t, SwapchainSupport{}.Adequate())
	assert.False(t, SwapchainSupport{Formats: []khr_surface.Format{{}}}.Adequate())
	assert.True(t, SwapchainSupport{
		Formats:      []khr_surface.Format{{Format: core1_0.FormatB8G8R8A8SRGB}},
		PresentModes: []khr_surface.PresentMode{khr_surface.PresentModeFIFO},
	}.Adequate())
}
