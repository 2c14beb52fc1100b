package scene

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVertexLayout(t *testing.T) {
	bindings := VertexBindings()
	require.Len(t, bindings, 1)
	assert.Equal(t, 44, bindings[0].Stride)

	var offsets []int
	for i, attr := range VertexAttributes() {
		assert.Equal(t, i, attr.Location)
		offsets = append(offsets, attr.Offset)
	}
	assert.Equal(t, []int{0, 12, 24, 32}, offsets)
}

func TestDeduplicateReproducesStream(t *testing.T) {
	pool := []Vertex{
		{Pos: mgl32.Vec3{0, 0, 0}, TexCoord: mgl32.Vec2{0, 0}},
		{Pos: mgl32.Vec3{1, 0, 0}, TexCoord: mgl32.Vec2{1, 0}},
		{Pos: mgl32.Vec3{1, 0, 0}, TexCoord: mgl32.Vec2{0, 1}},
		{Pos: mgl32.Vec3{1, 0, 0}, Normal: mgl32.Vec3{0, 0, 1}, TexCoord: mgl32.Vec2{1, 0}},
		{Pos: mgl32.Vec3{0, 1, 0}},
		{Pos: mgl32.Vec3{0, 1, 0}, Normal: mgl32.Vec3{0, 1, 0}},
	}

	rnd := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		stream := make([]Vertex, 3*(1+rnd.Intn(40)))
		distinct := map[Vertex]bool{}
		for i := range stream {
			stream[i] = pool[rnd.Intn(len(pool))]
			distinct[stream[i]] = true
		}

		vertices, indices := Deduplicate(stream)
		require.Len(t, indices, len(stream))
		assert.Len(t, vertices, len(distinct))
		for i, index := range indices {
			assert.Equal(t, stream[i], vertices[index])
		}
	}
}

func TestDeduplicateIgnoresTangent(t *testing.T) {
	a := Vertex{Pos: mgl32.Vec3{1, 2, 3}, Tangent: mgl32.Vec3{1, 0, 0}}
	b := Vertex{Pos: mgl32.Vec3{1, 2, 3}, Tangent: mgl32.Vec3{0, 1, 0}}

	vertices, indices := Deduplicate([]Vertex{a, b, a})
	assert.Equal(t, []Vertex{a}, vertices)
	assert.Equal(t, []uint32{0, 0, 0}, indices)
}

func TestGenerateTangents(t *testing.T) {
	up := mgl32.Vec3{0, 0, 1}
	vertices := []Vertex{
		{Pos: mgl32.Vec3{0, 0, 0}, Normal: up, TexCoord: mgl32.Vec2{0, 0}},
		{Pos: mgl32.Vec3{1, 0, 0}, Normal: up, TexCoord: mgl32.Vec2{1, 0}},
		{Pos: mgl32.Vec3{1, 1, 0}, Normal: up, TexCoord: mgl32.Vec2{1, 1}},
		{Pos: mgl32.Vec3{0, 1, 0}, Normal: up, TexCoord: mgl32.Vec2{0, 1}},
	}
	indices := []uint32{0, 1, 2, 0, 2, 3}

	GenerateTangents(vertices, indices)
	for _, vert := range vertices {
		assert.True(t, vert.Tangent.ApproxEqual(mgl32.Vec3{1, 0, 0}), "tangent %v", vert.Tangent)
	}
}

func TestGenerateTangentsDegenerateUVs(t *testing.T) {
	normal := mgl32.Vec3{1, 0, 0}
	vertices := []Vertex{
		{Pos: mgl32.Vec3{0, 0, 0}, Normal: normal},
		{Pos: mgl32.Vec3{0, 1, 0}, Normal: normal},
		{Pos: mgl32.Vec3{0, 0, 1}, Normal: normal},
	}

	GenerateTangents(vertices, []uint32{0, 1, 2})
	for _, vert := range vertices {
		assert.InDelta(t, 1, vert.Tangent.Len(), 1e-5)
		assert.InDelta(t, 0, vert.Tangent.Dot(normal), 1e-5)
	}
}
