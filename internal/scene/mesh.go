package scene

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/pbr-renderer/internal/memory"
	"github.com/vkngwrapper/pbr-renderer/internal/transfer"
)

// Mesh is geometry in device-local buffers. A mesh without an index buffer
// is drawn as a plain vertex list.
type Mesh struct {
	Vertex      *memory.Buffer
	Index       *memory.Buffer
	VertexCount int
	IndexCount  int
}

func NewMesh(xfer *transfer.Engine, alloc *memory.Allocator, vertices []Vertex, indices []uint32) (*Mesh, error) {
	if len(vertices) == 0 {
		return nil, errors.New("mesh has no vertices")
	}

	mesh := &Mesh{VertexCount: len(vertices), IndexCount: len(indices)}

	var err error
	mesh.Vertex, err = xfer.UploadBuffer(alloc, vertices, core1_0.BufferUsageVertexBuffer)
	if err != nil {
		return nil, errors.Wrap(err, "upload vertex buffer")
	}

	if len(indices) > 0 {
		mesh.Index, err = xfer.UploadBuffer(alloc, indices, core1_0.BufferUsageIndexBuffer)
		if err != nil {
			mesh.Destroy()
			return nil, errors.Wrap(err, "upload index buffer")
		}
	}

	return mesh, nil
}

func (m *Mesh) Draw(cmd core1_0.CommandBuffer) {
	cmd.CmdBindVertexBuffers([]core1_0.Buffer{m.Vertex.Handle}, []int{0})

	if m.Index == nil {
		cmd.CmdDraw(m.VertexCount, 1, 0, 0)
		return
	}

	cmd.CmdBindIndexBuffer(m.Index.Handle, 0, core1_0.IndexTypeUInt32)
	cmd.CmdDrawIndexed(m.IndexCount, 1, 0, 0, 0)
}

func (m *Mesh) Destroy() {
	if m == nil {
		return
	}
	m.Index.Destroy()
	m.Index = nil
	m.Vertex.Destroy()
	m.Vertex = nil
}
