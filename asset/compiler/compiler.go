package compiler

import (
	"errors"
	"fmt"
	"time"

	"github.com/achilleasa/lumen/asset/compiler/bvh"
	"github.com/achilleasa/lumen/asset/mesh"
	"github.com/achilleasa/lumen/asset/scene"
	"github.com/achilleasa/lumen/log"
	"github.com/achilleasa/lumen/types"
)

var (
	ErrDuplicateModel   = errors.New("compiler: duplicate model name")
	ErrAlreadyMerged    = errors.New("compiler: model already merged")
	ErrCapacityExceeded = errors.New("compiler: global buffer capacity exceeded")
)

type Options struct {
	// Options passed to the BVH builder for each model.
	Build bvh.Options

	// Maximum number of nodes and triangles that the global buffers can
	// hold. A value of 0 disables the limit.
	NodeCapacity     int
	TriangleCapacity int

	// If set, BVH validation failures abort AddMesh. Otherwise they are
	// logged and the model is merged anyway.
	StrictValidation bool

	// If set, models retain their local node and triangle lists after
	// they are merged into the global buffers.
	KeepLocal bool
}

// Get the default compiler options.
func DefaultOptions() Options {
	return Options{
		Build:     bvh.DefaultOptions(),
		KeepLocal: true,
	}
}

// A Model couples a mesh with its BVH. After a merge, BvhRootNodeIndex and
// BvhTriangleIndex locate the model inside the global buffers.
type Model struct {
	Name string

	Vertices []types.Vec3
	Indices  []uint32

	// Local BVH as produced by the builder. Leaf triangle indices are
	// relative to Triangles.
	Nodes     []scene.BvhNode
	Triangles []scene.Triangle
	LocalRoot int32

	// Global root node index and global offset of the first triangle.
	// Both are -1 until the model is merged.
	BvhRootNodeIndex int32
	BvhTriangleIndex int32

	// Global offset of the first model node.
	BvhNodeIndex int32

	TriangleCount int32
	NodeCount     int32

	// Model-space bounding box.
	BBox [2]types.Vec3

	Stats bvh.Stats

	merged bool
}

// Returns true if the model has been merged into the global buffers.
func (m *Model) Merged() bool {
	return m.merged
}

// Get the model entry recorded in the compiled scene.
func (m *Model) Info() scene.ModelInfo {
	return scene.ModelInfo{
		Name:             m.Name,
		BvhRootNodeIndex: m.BvhRootNodeIndex,
		BvhTriangleIndex: m.BvhTriangleIndex,
		TriangleCount:    m.TriangleCount,
		BvhNodeIndex:     m.BvhNodeIndex,
		NodeCount:        m.NodeCount,
		BBox:             m.BBox,
	}
}

// The Compiler builds per-model BVH trees and appends them to a pair of
// global node/triangle buffers.
type Compiler struct {
	opts   Options
	logger log.Logger

	scene  *scene.Scene
	models map[string]*Model
}

// Create a new compiler.
func New(opts Options) *Compiler {
	return &Compiler{
		opts:   opts,
		logger: log.New("scene compiler"),
		scene:  &scene.Scene{},
		models: make(map[string]*Model),
	}
}

// Build a BVH for a mesh, validate it and merge it into the global buffers.
func (c *Compiler) AddMesh(name string, vertices []types.Vec3, indices []uint32) (*Model, error) {
	if _, exists := c.models[name]; exists {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateModel, name)
	}

	tris, err := bvh.ExtractTriangles(vertices, indices)
	if err != nil {
		return nil, fmt.Errorf("compiler: model %q: %w", name, err)
	}

	c.logger.Infof(`building BVH tree for "%s" (%d triangles)`, name, len(tris))
	tree, err := bvh.Build(tris, c.opts.Build)
	if err != nil {
		return nil, fmt.Errorf("compiler: model %q: %w", name, err)
	}

	if err = tree.Validate(); err != nil {
		if c.opts.StrictValidation {
			return nil, fmt.Errorf("compiler: model %q: %w", name, err)
		}
		c.logger.Warningf("BVH validation failed for %q: %s", name, err.Error())
	}

	m := &Model{
		Name:             name,
		Vertices:         vertices,
		Indices:          indices,
		Nodes:            tree.Nodes,
		Triangles:        tree.Triangles,
		LocalRoot:        tree.Root,
		BvhRootNodeIndex: scene.InvalidIndex,
		BvhTriangleIndex: scene.InvalidIndex,
		BvhNodeIndex:     scene.InvalidIndex,
		TriangleCount:    int32(len(tree.Triangles)),
		NodeCount:        int32(len(tree.Nodes)),
		BBox:             tree.Nodes[tree.Root].BBox(),
		Stats:            tree.Stats,
	}

	if err = c.Merge(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Append the local BVH of a model to the global buffers. Child indices are
// offset by the current global node count; leaf triangle indices stay
// relative to the model triangle range. The model local arrays are not
// modified. Capacity is checked before anything is written.
func (c *Compiler) Merge(m *Model) error {
	if m.Merged() {
		return fmt.Errorf("%w: %q", ErrAlreadyMerged, m.Name)
	}
	if existing, exists := c.models[m.Name]; exists && existing != m {
		return fmt.Errorf("%w: %q", ErrDuplicateModel, m.Name)
	}
	if len(m.Nodes) == 0 || len(m.Triangles) == 0 || m.LocalRoot < 0 || int(m.LocalRoot) >= len(m.Nodes) {
		return fmt.Errorf("compiler: model %q: %w", m.Name, bvh.ErrEmptyInput)
	}

	sc := c.scene
	if c.opts.NodeCapacity > 0 && len(sc.BvhNodeList)+len(m.Nodes) > c.opts.NodeCapacity {
		return fmt.Errorf("%w: model %q needs %d nodes; %d of %d in use", ErrCapacityExceeded, m.Name, len(m.Nodes), len(sc.BvhNodeList), c.opts.NodeCapacity)
	}
	if c.opts.TriangleCapacity > 0 && len(sc.TriangleList)+len(m.Triangles) > c.opts.TriangleCapacity {
		return fmt.Errorf("%w: model %q needs %d triangles; %d of %d in use", ErrCapacityExceeded, m.Name, len(m.Triangles), len(sc.TriangleList), c.opts.TriangleCapacity)
	}

	nodeBase := int32(len(sc.BvhNodeList))
	triBase := int32(len(sc.TriangleList))
	for _, node := range m.Nodes {
		node.OffsetChildNodes(nodeBase)
		sc.BvhNodeList = append(sc.BvhNodeList, node)
	}
	sc.TriangleList = append(sc.TriangleList, m.Triangles...)

	m.BvhNodeIndex = nodeBase
	m.BvhRootNodeIndex = nodeBase + m.LocalRoot
	m.BvhTriangleIndex = triBase
	m.NodeCount = int32(len(m.Nodes))
	m.TriangleCount = int32(len(m.Triangles))
	m.merged = true
	sc.Models = append(sc.Models, m.Info())
	c.models[m.Name] = m

	if !c.opts.KeepLocal {
		m.Nodes = nil
		m.Triangles = nil
	}

	c.logger.Debugf(
		"merged %q: root node %d, nodes [%d, %d), triangles [%d, %d)",
		m.Name, m.BvhRootNodeIndex, nodeBase, nodeBase+m.NodeCount, triBase, triBase+m.TriangleCount,
	)
	return nil
}

// Lookup a compiled model by name.
func (c *Compiler) Model(name string) (*Model, bool) {
	m, exists := c.models[name]
	return m, exists
}

// Lookup the global buffer location of a compiled model.
func (c *Compiler) LookupModel(name string) (scene.ModelInfo, bool) {
	m, exists := c.models[name]
	if !exists {
		return scene.ModelInfo{}, false
	}
	return m.Info(), true
}

// Get the compiled scene holding the global buffers.
func (c *Compiler) Scene() *scene.Scene {
	return c.scene
}

// Compile a set of meshes into a scene. Meshes are merged in order.
func Compile(meshes []*mesh.Mesh, opts Options) (*scene.Scene, error) {
	c := New(opts)

	start := time.Now()
	c.logger.Noticef("compiling %d meshes", len(meshes))
	for _, m := range meshes {
		if _, err := c.AddMesh(m.Name, m.Vertices, m.Indices); err != nil {
			return nil, err
		}
	}
	c.logger.Noticef("compiled scene in %d ms", time.Since(start).Nanoseconds()/1e6)

	return c.Scene(), nil
}

// Validate the subtree of every model in a compiled scene against the model
// node and triangle ranges.
func ValidateScene(sc *scene.Scene) error {
	for _, m := range sc.Models {
		err := bvh.ValidateSpan(sc.BvhNodeList, sc.TriangleList, m.BvhRootNodeIndex, bvh.Span{
			NodeOffset:     m.BvhNodeIndex,
			NodeCount:      m.NodeCount,
			TriangleOffset: m.BvhTriangleIndex,
			TriangleCount:  m.TriangleCount,
		})
		if err != nil {
			return fmt.Errorf("model %q: %w", m.Name, err)
		}
	}
	return nil
}
