// Package scene holds the geometry and uniform layouts shared by the demos.
// Uniform structs use blank fields for std140 padding so they can be written
// with renderer.UniformArena.WriteElement as they are.
package scene

import (
	"encoding/binary"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/vkdemos/engine/renderer"
	md "github.com/spaghettifunk/vkdemos/engine/renderer/metadata"
)

// Vertex is a position and a normal.
type Vertex struct {
	Pos    mgl32.Vec3
	Normal mgl32.Vec3
}

const VertexStride = 24

// VertexAttributes match `layout(location = 0) in vec3 pos; layout(location = 1) in vec3 normal;`.
var VertexAttributes = []md.VertexAttribute{
	{Location: 0, Format: md.VERTEX_FORMAT_FLOAT3, Offset: 0},
	{Location: 1, Format: md.VERTEX_FORMAT_FLOAT3, Offset: 12},
}

// QuadVertex is a clip space position and a texture coordinate.
type QuadVertex struct {
	Pos      mgl32.Vec2
	TexCoord mgl32.Vec2
}

const QuadVertexStride = 16

var QuadVertexAttributes = []md.VertexAttribute{
	{Location: 0, Format: md.VERTEX_FORMAT_FLOAT2, Offset: 0},
	{Location: 1, Format: md.VERTEX_FORMAT_FLOAT2, Offset: 8},
}

// PerCamera is the view and projection of the eye.
type PerCamera struct {
	View mgl32.Mat4
	Proj mgl32.Mat4
}

// PerObject is the dynamic uniform element of one drawn object.
type PerObject struct {
	Model mgl32.Mat4
	Color mgl32.Vec3
	_     float32
}

// PointLight mirrors the std140 layout of the GLSL struct: every vec3 padded
// to 16 bytes, then the three attenuation terms.
type PointLight struct {
	Position  mgl32.Vec3
	_         float32
	Ambient   mgl32.Vec3
	_         float32
	Diffuse   mgl32.Vec3
	_         float32
	Specular  mgl32.Vec3
	_         float32
	Constant  float32
	Linear    float32
	Quadratic float32
	_         float32
}

// Object is a model matrix and a color, the CPU side of PerObject.
type Object struct {
	Model mgl32.Mat4
	Color mgl32.Vec3
}

func (o Object) Uniform(transform mgl32.Mat4) PerObject {
	return PerObject{Model: o.Model.Mul4(transform), Color: o.Color}
}

// Encode packs vertices little endian, the layout the vertex attributes describe.
func Encode[T any](vertices []T) []byte {
	out, err := binary.Append(nil, binary.LittleEndian, vertices)
	if err != nil {
		// Only fixed size vertex types are declared in this package.
		panic(err)
	}
	return out
}

var cubeVertices = []Vertex{
	// front face
	{mgl32.Vec3{-1, -1, 1}, mgl32.Vec3{0, 0, 1}},
	{mgl32.Vec3{1, -1, 1}, mgl32.Vec3{0, 0, 1}},
	{mgl32.Vec3{1, 1, 1}, mgl32.Vec3{0, 0, 1}},
	{mgl32.Vec3{-1, 1, 1}, mgl32.Vec3{0, 0, 1}},
	// back face
	{mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{0, 0, -1}},
	{mgl32.Vec3{-1, 1, -1}, mgl32.Vec3{0, 0, -1}},
	{mgl32.Vec3{1, 1, -1}, mgl32.Vec3{0, 0, -1}},
	{mgl32.Vec3{1, -1, -1}, mgl32.Vec3{0, 0, -1}},
	// right face
	{mgl32.Vec3{1, -1, 1}, mgl32.Vec3{1, 0, 0}},
	{mgl32.Vec3{1, -1, -1}, mgl32.Vec3{1, 0, 0}},
	{mgl32.Vec3{1, 1, -1}, mgl32.Vec3{1, 0, 0}},
	{mgl32.Vec3{1, 1, 1}, mgl32.Vec3{1, 0, 0}},
	// left face
	{mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{-1, 0, 0}},
	{mgl32.Vec3{-1, -1, 1}, mgl32.Vec3{-1, 0, 0}},
	{mgl32.Vec3{-1, 1, 1}, mgl32.Vec3{-1, 0, 0}},
	{mgl32.Vec3{-1, 1, -1}, mgl32.Vec3{-1, 0, 0}},
	// top face
	{mgl32.Vec3{-1, 1, 1}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{1, 1, 1}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{1, 1, -1}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{-1, 1, -1}, mgl32.Vec3{0, 1, 0}},
	// bottom face
	{mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{0, -1, 0}},
	{mgl32.Vec3{1, -1, -1}, mgl32.Vec3{0, -1, 0}},
	{mgl32.Vec3{1, -1, 1}, mgl32.Vec3{0, -1, 0}},
	{mgl32.Vec3{-1, -1, 1}, mgl32.Vec3{0, -1, 0}},
}

// Cube is a 2x2x2 cube centred on the origin, 24 vertices and 36 indices.
func Cube() renderer.MeshDesc {
	indices := make([]uint16, 0, 36)
	for face := uint16(0); face < 6; face++ {
		b := face * 4
		indices = append(indices, b, b+1, b+2, b+2, b+3, b)
	}
	return renderer.MeshDesc{
		Name:         "cube",
		Vertices:     Encode(cubeVertices),
		VertexStride: VertexStride,
		Indices:      indices,
	}
}

// Floor is a 20x20 plane at y = 0 facing up.
func Floor() renderer.MeshDesc {
	up := mgl32.Vec3{0, 1, 0}
	return renderer.MeshDesc{
		Name: "floor",
		Vertices: Encode([]Vertex{
			{mgl32.Vec3{-10, 0, 10}, up},
			{mgl32.Vec3{10, 0, 10}, up},
			{mgl32.Vec3{10, 0, -10}, up},
			{mgl32.Vec3{-10, 0, -10}, up},
		}),
		VertexStride: VertexStride,
		Indices:      []uint16{0, 1, 2, 2, 3, 0},
	}
}

// Quad covers the whole render target. (0, 0) is the bottom left texel.
func Quad() renderer.MeshDesc {
	return renderer.MeshDesc{
		Name: "quad",
		Vertices: Encode([]QuadVertex{
			{mgl32.Vec2{-1, 1}, mgl32.Vec2{0, 1}},
			{mgl32.Vec2{1, 1}, mgl32.Vec2{1, 1}},
			{mgl32.Vec2{1, -1}, mgl32.Vec2{1, 0}},
			{mgl32.Vec2{-1, -1}, mgl32.Vec2{0, 0}},
		}),
		VertexStride: QuadVertexStride,
		Indices:      []uint16{0, 1, 2, 2, 3, 0},
	}
}

// GraphicsQueue is the single queue every demo renders and presents on.
func GraphicsQueue() []md.QueueRequirement {
	return []md.QueueRequirement{{
		Capabilities: md.QUEUE_CAPABILITY_GRAPHICS | md.QUEUE_CAPABILITY_PRESENT,
		Count:        1,
		Priorities:   []float32{1.0},
	}}
}
