package memory

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
)

type ImageSpec struct {
	Width, Height int
	MipLevels     int
	Layers        int
	Format        core1_0.Format
	Tiling        core1_0.ImageTiling
	Usage         core1_0.ImageUsageFlags
	Samples       core1_0.SampleCountFlags
	Flags         core1_0.ImageCreateFlags
	Properties    core1_0.MemoryPropertyFlags
}

func (s ImageSpec) withDefaults() ImageSpec {
	if s.MipLevels < 1 {
		s.MipLevels = 1
	}
	if s.Layers < 1 {
		s.Layers = 1
	}
	if s.Samples == 0 {
		s.Samples = core1_0.Samples1
	}
	return s
}

// Image owns an image handle, its memory, and optionally a view over it.
type Image struct {
	Handle core1_0.Image
	View   core1_0.ImageView
	Memory core1_0.DeviceMemory

	Format    core1_0.Format
	Width     int
	Height    int
	MipLevels int
	Layers    int
}

func (a *Allocator) CreateImage(spec ImageSpec) (*Image, error) {
	spec = spec.withDefaults()
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, errors.Newf("create image: invalid extent %dx%d", spec.Width, spec.Height)
	}

	handle, _, err := a.device.CreateImage(nil, core1_0.ImageCreateOptions{
		Flags:     spec.Flags,
		ImageType: core1_0.ImageType2D,
		Extent: core1_0.Extent3D{
			Width:  spec.Width,
			Height: spec.Height,
			Depth:  1,
		},
		MipLevels:     spec.MipLevels,
		ArrayLayers:   spec.Layers,
		Format:        spec.Format,
		Tiling:        spec.Tiling,
		InitialLayout: core1_0.ImageLayoutUndefined,
		Usage:         spec.Usage,
		SharingMode:   core1_0.SharingModeExclusive,
		Samples:       spec.Samples,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create image %dx%d %s", spec.Width, spec.Height, spec.Format)
	}

	image := &Image{
		Handle:    handle,
		Format:    spec.Format,
		Width:     spec.Width,
		Height:    spec.Height,
		MipLevels: spec.MipLevels,
		Layers:    spec.Layers,
	}

	image.Memory, err = a.allocate(handle.MemoryRequirements(), spec.Properties)
	if err != nil {
		image.Destroy()
		return nil, err
	}

	_, err = handle.BindImageMemory(image.Memory, 0)
	if err != nil {
		image.Destroy()
		return nil, errors.Wrap(err, "bind image memory")
	}

	return image, nil
}

// CreateView attaches a view covering every mip level and layer of img.
func (a *Allocator) CreateView(img *Image, viewType core1_0.ImageViewType, aspect core1_0.ImageAspectFlags) error {
	view, err := CreateImageView(a.device, img.Handle, img.Format, viewType, aspect, img.MipLevels, img.Layers)
	if err != nil {
		return err
	}
	img.View = view
	return nil
}

// CreateImageView creates a view over an image the caller may not own, such
// as a swapchain image.
func CreateImageView(device core1_0.Device, image core1_0.Image, format core1_0.Format, viewType core1_0.ImageViewType, aspect core1_0.ImageAspectFlags, mipLevels, layers int) (core1_0.ImageView, error) {
	imageView, _, err := device.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    image,
		ViewType: viewType,
		Format:   format,
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     mipLevels,
			BaseArrayLayer: 0,
			LayerCount:     layers,
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create %s image view", viewType)
	}
	return imageView, nil
}

// Destroy releases view, image and memory in that order. Calling it again is a no-op.
func (i *Image) Destroy() {
	if i == nil {
		return
	}
	if i.View != nil {
		i.View.Destroy(nil)
		i.View = nil
	}
	if i.Handle != nil {
		i.Handle.Destroy(nil)
		i.Handle = nil
	}
	if i.Memory != nil {
		i.Memory.Free(nil)
		i.Memory = nil
	}
}
