package scene

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/achilleasa/lumen/types"
	"github.com/olekukonko/tablewriter"
)

// ModelInfo records where a compiled model lives inside the global buffers.
type ModelInfo struct {
	Name string

	// Global index of the model BVH root node.
	BvhRootNodeIndex int32

	// Global offset of the first model triangle and the model triangle count.
	BvhTriangleIndex int32
	TriangleCount    int32

	// Global offset of the first model node and the model node count.
	BvhNodeIndex int32
	NodeCount    int32

	// Model-space bounding box.
	BBox [2]types.Vec3
}

// A Scene holds the global BVH node and triangle buffers shared by all
// compiled models. The buffers are append-only.
type Scene struct {
	BvhNodeList  []BvhNode
	TriangleList []Triangle
	Models       []ModelInfo
}

// Find a model by name.
func (sc *Scene) LookupModel(name string) (ModelInfo, bool) {
	for _, m := range sc.Models {
		if m.Name == name {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// Get the element counts of the scene buffers. Instance and light counts are
// filled in by the frame that owns them.
func (sc *Scene) BufferSizes() BufferSizes {
	return BufferSizes{
		BvhNodes:  int32(len(sc.BvhNodeList)),
		Triangles: int32(len(sc.TriangleList)),
	}
}

// Build a tabular representation of scene statistics.
func (sc *Scene) Stats() string {
	nodeBytes := len(sc.BvhNodeList) * BvhNodeSize
	triBytes := len(sc.TriangleList) * TriangleSize

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Asset Type", "Asset", "Count", "Size"})
	table.Append([]string{"Geometry", "---", " ", fmtSize(nodeBytes + triBytes)})
	table.Append([]string{"", "BVH nodes", fmt.Sprint(len(sc.BvhNodeList)), fmtSize(nodeBytes)})
	table.Append([]string{"", "Triangles", fmt.Sprint(len(sc.TriangleList)), fmtSize(triBytes)})
	table.Append([]string{" ", " ", " ", " "})
	table.Append([]string{"Models", "---", fmt.Sprint(len(sc.Models)), " "})
	for _, m := range sc.Models {
		table.Append([]string{
			"",
			m.Name,
			fmt.Sprintf("%d nodes / %d tris", m.NodeCount, m.TriangleCount),
			fmtSize(int(m.NodeCount)*BvhNodeSize + int(m.TriangleCount)*TriangleSize),
		})
	}
	table.SetFooter([]string{"Total", " ", " ", strings.TrimLeft(fmtSize(nodeBytes+triBytes), " ")})

	table.Render()
	return buf.String()
}

// Format a byte count with the appropriate byte/kb/mb unit.
func fmtSize(totalBytes int) string {
	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", totalBytes)
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", float32(totalBytes)/1e3)
	}
	return fmt.Sprintf("%5.1f mb", float32(totalBytes)/1e6)
}
