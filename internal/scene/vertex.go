package scene

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/core1_0"
)

type Vertex struct {
	Pos      mgl32.Vec3
	Normal   mgl32.Vec3
	TexCoord mgl32.Vec2
	Tangent  mgl32.Vec3
}

// VertexBindings describes the single interleaved vertex stream.
func VertexBindings() []core1_0.VertexInputBindingDescription {
	v := Vertex{}
	return []core1_0.VertexInputBindingDescription{
		{
			Binding:   0,
			Stride:    int(unsafe.Sizeof(v)),
			InputRate: core1_0.RateVertex,
		},
	}
}

func VertexAttributes() []core1_0.VertexInputAttributeDescription {
	v := Vertex{}
	return []core1_0.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   core1_0.FormatR32G32B32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.Pos)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   core1_0.FormatR32G32B32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.Normal)),
		},
		{
			Binding:  0,
			Location: 2,
			Format:   core1_0.FormatR32G32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.TexCoord)),
		},
		{
			Binding:  0,
			Location: 3,
			Format:   core1_0.FormatR32G32B32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.Tangent)),
		},
	}
}

type vertexKey struct {
	pos      mgl32.Vec3
	normal   mgl32.Vec3
	texCoord mgl32.Vec2
}

// Deduplicate collapses vertices with equal position, normal and texture
// coordinate. Indexing the returned vertices with the returned indices
// reproduces stream.
func Deduplicate(stream []Vertex) ([]Vertex, []uint32) {
	uniqueVertices := make(map[vertexKey]uint32, len(stream))
	vertices := make([]Vertex, 0, len(stream))
	indices := make([]uint32, 0, len(stream))

	for _, vert := range stream {
		key := vertexKey{pos: vert.Pos, normal: vert.Normal, texCoord: vert.TexCoord}
		index, exists := uniqueVertices[key]
		if !exists {
			index = uint32(len(vertices))
			vertices = append(vertices, vert)
			uniqueVertices[key] = index
		}
		indices = append(indices, index)
	}

	return vertices, indices
}

// GenerateTangents accumulates per-triangle tangents into each vertex and
// orthogonalizes the result against the vertex normal.
func GenerateTangents(vertices []Vertex, indices []uint32) {
	accumulated := make([]mgl32.Vec3, len(vertices))

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		v0, v1, v2 := vertices[i0], vertices[i1], vertices[i2]

		edge1 := v1.Pos.Sub(v0.Pos)
		edge2 := v2.Pos.Sub(v0.Pos)
		deltaUV1 := v1.TexCoord.Sub(v0.TexCoord)
		deltaUV2 := v2.TexCoord.Sub(v0.TexCoord)

		det := deltaUV1.X()*deltaUV2.Y() - deltaUV2.X()*deltaUV1.Y()
		if mgl32.Abs(det) < 1e-12 {
			continue
		}

		tangent := edge1.Mul(deltaUV2.Y()).Sub(edge2.Mul(deltaUV1.Y())).Mul(1 / det)
		accumulated[i0] = accumulated[i0].Add(tangent)
		accumulated[i1] = accumulated[i1].Add(tangent)
		accumulated[i2] = accumulated[i2].Add(tangent)
	}

	for i := range vertices {
		vertices[i].Tangent = orthogonalTangent(vertices[i].Normal, accumulated[i])
	}
}

func orthogonalTangent(normal, tangent mgl32.Vec3) mgl32.Vec3 {
	t := tangent.Sub(normal.Mul(normal.Dot(tangent)))
	if t.Len() > 1e-6 {
		return t.Normalize()
	}

	// degenerate UVs: any unit vector perpendicular to the normal
	axis := mgl32.Vec3{1, 0, 0}
	if mgl32.Abs(normal.X()) > 0.9 {
		axis = mgl32.Vec3{0, 1, 0}
	}
	t = axis.Sub(normal.Mul(normal.Dot(axis)))
	if t.Len() < 1e-6 {
		return axis
	}
	return t.Normalize()
}
