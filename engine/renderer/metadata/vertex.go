package metadata

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

/** @brief Number of vertices drawn every frame. */
const TriangleVertexCount uint32 = 3

/** @brief Size in bytes of one packed Vertex. */
const VertexStride uint32 = 5 * 4

/** @brief Byte offset of Vertex.Color inside a packed vertex. */
const VertexColorOffset uint32 = 2 * 4

/** @brief Size in bytes of the per-frame vertex data. */
const TriangleDataSize = uint64(TriangleVertexCount * VertexStride)

// Distance of every vertex from the origin, in normalized device coordinates.
const triangleRadius float32 = 0.6

/**
 * @brief A vertex as consumed by the triangle pipeline: location 0 is a
 * vec2 position, location 1 a vec3 color.
 */
type Vertex struct {
	Position mgl32.Vec2
	Color    mgl32.Vec3
}

// WrapCycle folds any value into [0,1). NaN and infinities map to 0.
func WrapCycle(cycle float32) float32 {
	c := float64(cycle)
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return 0
	}
	// A tiny negative input rounds up to 1 once narrowed.
	w := float32(c - math.Floor(c))
	if w >= 1 {
		return 0
	}
	return w
}

/**
 * @brief Builds the animated triangle for the given phase. The triangle
 * makes one full turn around the origin per cycle while its colors rotate
 * through the RGB channels.
 */
func TriangleVertices(cycle float32) []Vertex {
	phase := WrapCycle(cycle)
	rotation := mgl32.Rotate2D(2 * math.Pi * phase)

	vertices := make([]Vertex, TriangleVertexCount)
	for i := range vertices {
		// counter-clockwise, first vertex pointing up
		angle := float32(math.Pi/2) + float32(i)*2*math.Pi/3
		base := mgl32.Vec2{
			triangleRadius * float32(math.Cos(float64(angle))),
			triangleRadius * float32(math.Sin(float64(angle))),
		}
		vertices[i].Position = rotation.Mul2x1(base)
		for ch := 0; ch < 3; ch++ {
			shift := float64(phase) + float64(i+ch)/3
			vertices[i].Color[ch] = float32(0.5 + 0.5*math.Cos(2*math.Pi*shift))
		}
	}
	return vertices
}

/**
 * @brief Packs vertices into the little-endian layout described by
 * VertexStride and VertexColorOffset.
 */
func VerticesBytes(vertices []Vertex) []byte {
	out := make([]byte, len(vertices)*int(VertexStride))
	for i, v := range vertices {
		off := i * int(VertexStride)
		binary.LittleEndian.PutUint32(out[off:], math.Float32bits(v.Position[0]))
		binary.LittleEndian.PutUint32(out[off+4:], math.Float32bits(v.Position[1]))
		for ch := 0; ch < 3; ch++ {
			binary.LittleEndian.PutUint32(out[off+int(VertexColorOffset)+ch*4:], math.Float32bits(v.Color[ch]))
		}
	}
	return out
}
