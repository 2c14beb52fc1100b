// Package pipeline loads shaders and builds the descriptor set layouts,
// descriptor pool and graphics pipelines used to draw the scene.
package pipeline

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
)

// CullNone disables face culling.
const CullNone core1_0.CullModeFlags = 0

// DefaultMinSampleShading is the minimum fraction of samples shaded
// individually when sample shading is on.
const DefaultMinSampleShading = 0.2

// Spec describes one graphics pipeline. Viewport and scissor are always
// dynamic and blending is always off.
type Spec struct {
	Name           string
	VertexShader   string
	FragmentShader string

	VertexBindings   []core1_0.VertexInputBindingDescription
	VertexAttributes []core1_0.VertexInputAttributeDescription

	DepthCompareOp core1_0.CompareOp
	CullMode       core1_0.CullModeFlags
	FrontFace      core1_0.FrontFace

	Samples          core1_0.SampleCountFlags
	SampleShading    bool
	MinSampleShading float32
}

// PBRSpec is the opaque scene pipeline.
func PBRSpec(vertexShader, fragmentShader string, samples core1_0.SampleCountFlags, sampleShading bool) Spec {
	return Spec{
		Name:             "pbr",
		VertexShader:     vertexShader,
		FragmentShader:   fragmentShader,
		DepthCompareOp:   core1_0.CompareOpLess,
		CullMode:         CullNone,
		FrontFace:        core1_0.FrontFaceCounterClockwise,
		Samples:          samples,
		SampleShading:    sampleShading,
		MinSampleShading: DefaultMinSampleShading,
	}
}

// SkyboxSpec is drawn last; its depth is forced to the far plane, so it
// passes the depth test only where nothing else was drawn.
func SkyboxSpec(vertexShader, fragmentShader string, samples core1_0.SampleCountFlags, sampleShading bool) Spec {
	spec := PBRSpec(vertexShader, fragmentShader, samples, sampleShading)
	spec.Name = "skybox"
	spec.DepthCompareOp = core1_0.CompareOpLessOrEqual
	return spec
}

type Pipeline struct {
	Handle core1_0.Pipeline
	Layout core1_0.PipelineLayout
}

func (p *Pipeline) Destroy() {
	if p == nil {
		return
	}
	if p.Handle != nil {
		p.Handle.Destroy(nil)
		p.Handle = nil
	}
	if p.Layout != nil {
		p.Layout.Destroy(nil)
		p.Layout = nil
	}
}

// CreateInfo fills in the fixed-function state for spec. Shader stages,
// layout and render pass are supplied by the caller.
func CreateInfo(spec Spec, stages []core1_0.PipelineShaderStageCreateInfo, layout core1_0.PipelineLayout, renderPass core1_0.RenderPass) core1_0.GraphicsPipelineCreateInfo {
	samples := spec.Samples
	if samples == 0 {
		samples = core1_0.Samples1
	}

	minSampleShading := spec.MinSampleShading
	if !spec.SampleShading {
		minSampleShading = 1.0
	}

	return core1_0.GraphicsPipelineCreateInfo{
		Stages: stages,
		VertexInputState: &core1_0.PipelineVertexInputStateCreateInfo{
			VertexBindingDescriptions:   spec.VertexBindings,
			VertexAttributeDescriptions: spec.VertexAttributes,
		},
		InputAssemblyState: &core1_0.PipelineInputAssemblyStateCreateInfo{
			Topology:               core1_0.PrimitiveTopologyTriangleList,
			PrimitiveRestartEnable: false,
		},
		// one viewport and one scissor, both set while recording
		ViewportState: &core1_0.PipelineViewportStateCreateInfo{
			Viewports: []core1_0.Viewport{{MaxDepth: 1}},
			Scissors:  []core1_0.Rect2D{{}},
		},
		RasterizationState: &core1_0.PipelineRasterizationStateCreateInfo{
			DepthClampEnable:        false,
			RasterizerDiscardEnable: false,

			PolygonMode: core1_0.PolygonModeFill,
			CullMode:    spec.CullMode,
			FrontFace:   spec.FrontFace,

			DepthBiasEnable: false,

			LineWidth: 1.0,
		},
		MultisampleState: &core1_0.PipelineMultisampleStateCreateInfo{
			SampleShadingEnable:  spec.SampleShading,
			RasterizationSamples: samples,
			MinSampleShading:     minSampleShading,
		},
		DepthStencilState: &core1_0.PipelineDepthStencilStateCreateInfo{
			DepthTestEnable:  true,
			DepthWriteEnable: true,
			DepthCompareOp:   spec.DepthCompareOp,
		},
		ColorBlendState: &core1_0.PipelineColorBlendStateCreateInfo{
			LogicOpEnabled: false,
			LogicOp:        core1_0.LogicOpCopy,

			BlendConstants: [4]float32{0, 0, 0, 0},
			Attachments: []core1_0.PipelineColorBlendAttachmentState{
				{
					BlendEnabled:   false,
					ColorWriteMask: core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
				},
			},
		},
		DynamicState: &core1_0.PipelineDynamicStateCreateInfo{
			DynamicStates: []core1_0.DynamicState{
				core1_0.DynamicStateViewport,
				core1_0.DynamicStateScissor,
			},
		},
		Layout:            layout,
		RenderPass:        renderPass,
		Subpass:           0,
		BasePipelineIndex: -1,
	}
}

// Build loads spec's shaders and creates the pipeline and its layout over
// setLayout. The shader modules are destroyed before Build returns.
func Build(device core1_0.Device, renderPass core1_0.RenderPass, setLayout core1_0.DescriptorSetLayout, spec Spec) (*Pipeline, error) {
	vertShader, err := LoadShader(device, spec.VertexShader)
	if err != nil {
		return nil, err
	}
	defer vertShader.Destroy(nil)

	fragShader, err := LoadShader(device, spec.FragmentShader)
	if err != nil {
		return nil, err
	}
	defer fragShader.Destroy(nil)

	stages := []core1_0.PipelineShaderStageCreateInfo{
		{
			Stage:  core1_0.StageVertex,
			Module: vertShader,
			Name:   "main",
		},
		{
			Stage:  core1_0.StageFragment,
			Module: fragShader,
			Name:   "main",
		},
	}

	p := &Pipeline{}
	p.Layout, _, err = device.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{
		SetLayouts: []core1_0.DescriptorSetLayout{setLayout},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create %s pipeline layout", spec.Name)
	}

	pipelines, _, err := device.CreateGraphicsPipelines(nil, nil, []core1_0.GraphicsPipelineCreateInfo{
		CreateInfo(spec, stages, p.Layout, renderPass),
	})
	if err != nil {
		p.Destroy()
		return nil, errors.Wrapf(err, "create %s pipeline", spec.Name)
	}
	p.Handle = pipelines[0]

	return p, nil
}
