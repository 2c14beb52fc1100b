package transfer

import (
	"bytes"
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/pbr-renderer/internal/memory"
)

const stagingProperties = core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent

// Encode serializes fixed-size data the same way uploads lay it out in memory.
func Encode(data any) ([]byte, error) {
	if raw, ok := data.([]byte); ok {
		return raw, nil
	}

	buf := &bytes.Buffer{}
	err := binary.Write(buf, common.ByteOrder, data)
	if err != nil {
		return nil, errors.Wrap(err, "encode upload data")
	}
	return buf.Bytes(), nil
}

// UploadBuffer copies data into a new device-local buffer through a staging
// buffer. usage is extended with TransferDst.
func (e *Engine) UploadBuffer(alloc *memory.Allocator, data any, usage core1_0.BufferUsageFlags) (*memory.Buffer, error) {
	raw, err := Encode(data)
	if err != nil {
		return nil, err
	}

	staging, err := alloc.CreateBuffer(len(raw), core1_0.BufferUsageTransferSrc, stagingProperties)
	if err != nil {
		return nil, errors.Wrap(err, "create staging buffer")
	}
	defer staging.Destroy()

	err = staging.WriteBytes(0, raw)
	if err != nil {
		return nil, err
	}

	buffer, err := alloc.CreateBuffer(len(raw), core1_0.BufferUsageTransferDst|usage, core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		return nil, err
	}

	err = e.CopyBuffer(staging.Handle, buffer.Handle, len(raw))
	if err != nil {
		buffer.Destroy()
		return nil, err
	}

	return buffer, nil
}

// ImageUpload describes sampled image data: Layers images of Width x Height
// RGBA8 texels packed one after another.
type ImageUpload struct {
	Pixels        []byte
	Width, Height int
	Layers        int
	Format        core1_0.Format
	Mipmapped     bool
	Cube          bool
}

// UploadImage creates a sampled image with a view and fills it through a
// staging buffer. Mipmapped images get a full mip chain; all levels end in
// ShaderReadOnlyOptimal.
func (e *Engine) UploadImage(alloc *memory.Allocator, upload ImageUpload) (*memory.Image, error) {
	layers := upload.Layers
	if layers < 1 {
		layers = 1
	}
	if want := upload.Width * upload.Height * 4 * layers; len(upload.Pixels) != want {
		return nil, errors.Newf("upload image: have %d bytes of pixel data, want %d", len(upload.Pixels), want)
	}

	staging, err := alloc.CreateBuffer(len(upload.Pixels), core1_0.BufferUsageTransferSrc, stagingProperties)
	if err != nil {
		return nil, errors.Wrap(err, "create staging buffer")
	}
	defer staging.Destroy()

	err = staging.WriteBytes(0, upload.Pixels)
	if err != nil {
		return nil, err
	}

	spec := memory.ImageSpec{
		Width:      upload.Width,
		Height:     upload.Height,
		MipLevels:  1,
		Layers:     layers,
		Format:     upload.Format,
		Tiling:     core1_0.ImageTilingOptimal,
		Usage:      core1_0.ImageUsageTransferDst | core1_0.ImageUsageSampled,
		Properties: core1_0.MemoryPropertyDeviceLocal,
	}
	if upload.Mipmapped {
		spec.MipLevels = MipLevels(upload.Width, upload.Height)
		spec.Usage |= core1_0.ImageUsageTransferSrc
	}
	viewType := core1_0.ImageViewType2D
	if upload.Cube {
		spec.Flags |= core1_0.ImageCreateCubeCompatible
		viewType = core1_0.ImageViewTypeCube
	}

	image, err := alloc.CreateImage(spec)
	if err != nil {
		return nil, err
	}

	err = e.fillImage(staging, image, upload.Mipmapped)
	if err == nil {
		err = alloc.CreateView(image, viewType, core1_0.ImageAspectColor)
	}
	if err != nil {
		image.Destroy()
		return nil, err
	}

	return image, nil
}

func (e *Engine) fillImage(staging *memory.Buffer, image *memory.Image, mipmapped bool) error {
	err := e.TransitionImageLayout(image.Handle, core1_0.ImageLayoutUndefined, core1_0.ImageLayoutTransferDstOptimal, image.MipLevels, image.Layers)
	if err != nil {
		return err
	}

	err = e.CopyBufferToImage(staging.Handle, image.Handle, image.Width, image.Height, image.Layers)
	if err != nil {
		return err
	}

	if mipmapped {
		return e.GenerateMipmaps(image.Handle, image.Format, image.Width, image.Height, image.MipLevels, image.Layers)
	}

	return e.TransitionImageLayout(image.Handle, core1_0.ImageLayoutTransferDstOptimal, core1_0.ImageLayoutShaderReadOnlyOptimal, image.MipLevels, image.Layers)
}
