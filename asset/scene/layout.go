package scene

import (
	"encoding/binary"
	"math"

	"github.com/achilleasa/lumen/types"
)

// Byte sizes of the std430 layouts consumed by the traversal kernel. Field
// order and padding must match the kernel structs exactly.
const (
	BvhNodeSize       = 48
	TriangleSize      = 64
	BvhInstanceSize   = 144
	LightInstanceSize = 48
	BufferSizesSize   = 16
)

func putFloat(buf []byte, v float32) {
	binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
}

func putInt(buf []byte, v int32) {
	binary.LittleEndian.PutUint32(buf, uint32(v))
}

// vec3 followed by a float pad.
func putVec3(buf []byte, v types.Vec3) {
	putFloat(buf[0:4], v[0])
	putFloat(buf[4:8], v[1])
	putFloat(buf[8:12], v[2])
	putFloat(buf[12:16], 0)
}

func putVec4(buf []byte, v types.Vec4) {
	for i := 0; i < 4; i++ {
		putFloat(buf[i*4:], v[i])
	}
}

func putMat4(buf []byte, m types.Mat4) {
	for i := 0; i < 16; i++ {
		putFloat(buf[i*4:], m[i])
	}
}

// Encode node into buf which must be at least BvhNodeSize bytes long.
func (n *BvhNode) PutStd430(buf []byte) {
	putVec3(buf[0:16], n.Min)
	putVec3(buf[16:32], n.Max)
	putInt(buf[32:36], n.Left)
	putInt(buf[36:40], n.Right)
	putInt(buf[40:44], n.FirstTriangle)
	putInt(buf[44:48], n.TriangleCount)
}

// Encode triangle into buf which must be at least TriangleSize bytes long.
func (t *Triangle) PutStd430(buf []byte) {
	putVec4(buf[0:16], t.V0)
	putVec4(buf[16:32], t.V1)
	putVec4(buf[32:48], t.V2)
	putVec4(buf[48:64], t.Centroid)
}

// Encode instance into buf which must be at least BvhInstanceSize bytes long.
func (in *BvhInstance) PutStd430(buf []byte) {
	putMat4(buf[0:64], in.ModelMatrix)
	putMat4(buf[64:128], in.InverseModelMatrix)
	putInt(buf[128:132], in.BvhRootNodeIndex)
	putInt(buf[132:136], in.TriangleOffset)
	putInt(buf[136:140], in.TriangleCount)
	putInt(buf[140:144], 0)
}

// Encode light into buf which must be at least LightInstanceSize bytes long.
func (l *LightInstance) PutStd430(buf []byte) {
	putVec3(buf[0:16], l.Position)
	putVec3(buf[16:32], l.Color)
	putFloat(buf[32:36], l.Intensity)
	putFloat(buf[36:40], l.Radius)
	putFloat(buf[40:44], 0)
	putFloat(buf[44:48], 0)
}

// Encode buffer sizes into buf which must be at least BufferSizesSize bytes long.
func (s *BufferSizes) PutStd430(buf []byte) {
	putInt(buf[0:4], s.BvhNodes)
	putInt(buf[4:8], s.Triangles)
	putInt(buf[8:12], s.Instances)
	putInt(buf[12:16], s.Lights)
}

// Encode a node list into a contiguous byte buffer.
func EncodeBvhNodes(nodes []BvhNode) []byte {
	buf := make([]byte, len(nodes)*BvhNodeSize)
	for i := range nodes {
		nodes[i].PutStd430(buf[i*BvhNodeSize:])
	}
	return buf
}

// Encode a triangle list into a contiguous byte buffer.
func EncodeTriangles(tris []Triangle) []byte {
	buf := make([]byte, len(tris)*TriangleSize)
	for i := range tris {
		tris[i].PutStd430(buf[i*TriangleSize:])
	}
	return buf
}

// Encode an instance list into a contiguous byte buffer.
func EncodeBvhInstances(instances []BvhInstance) []byte {
	buf := make([]byte, len(instances)*BvhInstanceSize)
	for i := range instances {
		instances[i].PutStd430(buf[i*BvhInstanceSize:])
	}
	return buf
}

// Encode a light list into a contiguous byte buffer.
func EncodeLights(lights []LightInstance) []byte {
	buf := make([]byte, len(lights)*LightInstanceSize)
	for i := range lights {
		lights[i].PutStd430(buf[i*LightInstanceSize:])
	}
	return buf
}

// Encode the buffer sizes push constant block.
func (s BufferSizes) Encode() []byte {
	buf := make([]byte, BufferSizesSize)
	s.PutStd430(buf)
	return buf
}
