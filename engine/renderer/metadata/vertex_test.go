package metadata

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapCycle(t *testing.T) {
	cases := []struct {
		in, want float32
	}{
		{0, 0},
		{0.25, 0.25},
		{0.999, 0.999},
		{1, 0},
		{1.5, 0.5},
		{-0.25, 0.75},
		{float32(math.NaN()), 0},
		{float32(math.Inf(1)), 0},
		{float32(math.Inf(-1)), 0},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, WrapCycle(c.in), 1e-6, "WrapCycle(%v)", c.in)
	}

	for _, in := range []float32{-1e-9, -1e-12, -math.SmallestNonzeroFloat32} {
		got := WrapCycle(in)
		assert.GreaterOrEqual(t, got, float32(0), "WrapCycle(%v)", in)
		assert.Less(t, got, float32(1), "WrapCycle(%v)", in)
	}
}

func TestTriangleVerticesShape(t *testing.T) {
	for _, cycle := range []float32{0, 0.1, 0.25, 0.5, 0.9} {
		vs := TriangleVertices(cycle)
		require.Len(t, vs, int(TriangleVertexCount))
		for _, v := range vs {
			assert.InDelta(t, triangleRadius, v.Position.Len(), 1e-5)
			for ch := 0; ch < 3; ch++ {
				assert.GreaterOrEqual(t, v.Color[ch], float32(0))
				assert.LessOrEqual(t, v.Color[ch], float32(1))
			}
		}
	}
}

func TestTriangleVerticesPhase(t *testing.T) {
	start := TriangleVertices(0)
	assert.InDelta(t, 0, start[0].Position.X(), 1e-6)
	assert.InDelta(t, triangleRadius, start[0].Position.Y(), 1e-6)

	// half a cycle is a half turn
	half := TriangleVertices(0.5)
	for i := range start {
		assert.InDelta(t, -start[i].Position.X(), half[i].Position.X(), 1e-5)
		assert.InDelta(t, -start[i].Position.Y(), half[i].Position.Y(), 1e-5)
	}

	// the animation is periodic
	again := TriangleVertices(1)
	for i := range start {
		assert.InDelta(t, start[i].Position.X(), again[i].Position.X(), 1e-5)
		assert.InDelta(t, start[i].Color[0], again[i].Color[0], 1e-5)
	}
}

func TestVerticesBytesLayout(t *testing.T) {
	vs := []Vertex{
		{Position: [2]float32{1, 2}, Color: [3]float32{0.25, 0.5, 0.75}},
		{Position: [2]float32{-1, -2}, Color: [3]float32{1, 0, 0}},
	}
	data := VerticesBytes(vs)
	require.Len(t, data, 2*int(VertexStride))

	read := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
	}
	assert.Equal(t, float32(1), read(0))
	assert.Equal(t, float32(2), read(4))
	assert.Equal(t, float32(0.25), read(int(VertexColorOffset)))
	assert.Equal(t, float32(0.75), read(int(VertexColorOffset)+8))
	assert.Equal(t, float32(-1), read(int(VertexStride)))
	assert.Equal(t, float32(1), read(int(VertexStride+VertexColorOffset)))
}

func TestTriangleDataFitsBuffer(t *testing.T) {
	assert.Equal(t, TriangleDataSize, uint64(len(VerticesBytes(TriangleVertices(0.3)))))
}

func TestExtent(t *testing.T) {
	assert.True(t, NewExtent(0, 600).Degenerate())
	assert.True(t, NewExtent(800, 0).Degenerate())
	assert.False(t, NewExtent(800, 600).Degenerate())
	assert.Equal(t, "800x600", NewExtent(800, 600).String())
}
