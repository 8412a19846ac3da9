package bvh

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/achilleasa/lumen/asset/scene"
	"github.com/achilleasa/lumen/log"
	"github.com/achilleasa/lumen/types"
)

const (
	// The root index reported for trees that could not be built.
	InvalidNode = scene.InvalidIndex

	DefaultMaxLeafSize   = 2
	DefaultParallelDepth = 3
)

type Options struct {
	// Ranges with at most this many triangles become leaves.
	MaxLeafSize int

	// The strategy used for partitioning triangle ranges. Defaults to
	// ObjectMedian if not specified.
	Strategy SplitStrategy

	// Child subtrees are built concurrently while the recursion depth is
	// below this value. A value of 0 disables concurrent builds.
	ParallelDepth int
}

// Get the default build options.
func DefaultOptions() Options {
	return Options{
		MaxLeafSize:   DefaultMaxLeafSize,
		Strategy:      ObjectMedian,
		ParallelDepth: DefaultParallelDepth,
	}
}

type Stats struct {
	Nodes    int
	Leaves   int
	MaxDepth int

	// The largest triangle count stored in a single leaf.
	MaxLeafSize int

	// Leaves exceeding the configured max leaf size because their range
	// could not be split.
	OversizedLeaves int

	BuildTime time.Duration
}

// A Tree is the output of a single Build call. Leaf FirstTriangle values
// index the reordered Triangles list.
type Tree struct {
	Nodes     []scene.BvhNode
	Triangles []scene.Triangle
	Root      int32

	// Maps each input triangle index to its position in Triangles.
	TriangleMap []int32

	Stats Stats
}

// Validate the tree.
func (t *Tree) Validate() error {
	return Validate(t.Nodes, t.Triangles, t.Root)
}

type builder struct {
	opts Options
	tris []scene.Triangle

	// Triangle index permutation. Split strategies reorder sub-ranges of
	// this list; the triangle list itself is never touched while building.
	triIdx []int32

	// Pre-sized node arena. Slots are claimed via nodeCount and written by
	// index so concurrent subtree builds never resize the backing store.
	nodes     []scene.BvhNode
	nodeCount atomic.Int32

	leaves    atomic.Int32
	oversized atomic.Int32
	maxDepth  atomic.Int32
	maxLeaf   atomic.Int32
}

var logger = log.New("bvh builder")

// Build a BVH over a triangle list. The input list is not modified; the
// returned tree holds a reordered copy whose order matches the leaf ranges.
func Build(tris []scene.Triangle, opts Options) (*Tree, error) {
	if opts.MaxLeafSize <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLeafSize, opts.MaxLeafSize)
	}
	if len(tris) == 0 {
		return nil, ErrEmptyInput
	}
	if opts.Strategy == nil {
		opts.Strategy = ObjectMedian
	}
	if opts.ParallelDepth < 0 {
		opts.ParallelDepth = 0
	}

	b := &builder{
		opts:   opts,
		tris:   tris,
		triIdx: make([]int32, len(tris)),
		nodes:  make([]scene.BvhNode, 2*len(tris)),
	}
	for i := range b.triIdx {
		b.triIdx[i] = int32(i)
	}

	start := time.Now()
	root := b.subdivide(0, len(tris), 0)
	tree := b.finalize(root)
	tree.Stats.BuildTime = time.Since(start)

	logger.Debugf(
		"built BVH for %d triangles using %s in %d ms; nodes: %d, leaves: %d, maxDepth: %d, oversized leaves: %d",
		len(tris), opts.Strategy, tree.Stats.BuildTime.Nanoseconds()/1e6,
		tree.Stats.Nodes, tree.Stats.Leaves, tree.Stats.MaxDepth, tree.Stats.OversizedLeaves,
	)
	return tree, nil
}

// Build the subtree for triIdx[first:first+count] and return its node index.
func (b *builder) subdivide(first, count, depth int) int32 {
	atomicMax(&b.maxDepth, int32(depth))

	nodeIndex := b.nodeCount.Add(1) - 1
	node := scene.NewBvhNode()
	bounds := b.rangeBBox(first, count)
	node.SetBBox(bounds)

	if count <= b.opts.MaxLeafSize {
		b.nodes[nodeIndex] = b.makeLeaf(node, first, count, false)
		return nodeIndex
	}

	mid, ok := b.opts.Strategy.Split(b.tris, b.triIdx, first, count, bounds)
	if !ok || mid <= first || mid >= first+count {
		b.nodes[nodeIndex] = b.makeLeaf(node, first, count, true)
		return nodeIndex
	}

	var left, right int32
	if depth < b.opts.ParallelDepth {
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			left = b.subdivide(first, mid-first, depth+1)
		}()
		right = b.subdivide(mid, first+count-mid, depth+1)
		wg.Wait()
	} else {
		left = b.subdivide(first, mid-first, depth+1)
		right = b.subdivide(mid, first+count-mid, depth+1)
	}

	node.SetChildNodes(left, right)
	b.nodes[nodeIndex] = node
	return nodeIndex
}

func (b *builder) makeLeaf(node scene.BvhNode, first, count int, oversized bool) scene.BvhNode {
	node.SetTriangles(int32(first), int32(count))
	b.leaves.Add(1)
	atomicMax(&b.maxLeaf, int32(count))
	if oversized {
		b.oversized.Add(1)
	}
	return node
}

// Calculate the AABB enclosing the vertices of a triangle range.
func (b *builder) rangeBBox(first, count int) [2]types.Vec3 {
	bbox := types.EmptyBBox()
	for _, triIndex := range b.triIdx[first : first+count] {
		triBBox := b.tris[triIndex].BBox()
		bbox[0] = types.MinVec3(bbox[0], triBBox[0])
		bbox[1] = types.MaxVec3(bbox[1], triBBox[1])
	}
	return bbox
}

// Trim the node arena, reorder triangles to match the leaf ranges and remap
// leaf triangle indices.
func (b *builder) finalize(root int32) *Tree {
	nodeCount := int(b.nodeCount.Load())
	nodes := b.nodes[:nodeCount:nodeCount]

	tris := make([]scene.Triangle, len(b.tris))
	triMap := make([]int32, len(b.tris))
	for newIndex, oldIndex := range b.triIdx {
		tris[newIndex] = b.tris[oldIndex]
		triMap[oldIndex] = int32(newIndex)
	}

	for i := range nodes {
		if nodes[i].IsLeaf() {
			nodes[i].FirstTriangle = triMap[b.triIdx[nodes[i].FirstTriangle]]
		}
	}

	return &Tree{
		Nodes:       nodes,
		Triangles:   tris,
		Root:        root,
		TriangleMap: triMap,
		Stats: Stats{
			Nodes:           nodeCount,
			Leaves:          int(b.leaves.Load()),
			MaxDepth:        int(b.maxDepth.Load()),
			MaxLeafSize:     int(b.maxLeaf.Load()),
			OversizedLeaves: int(b.oversized.Load()),
		},
	}
}

func atomicMax(v *atomic.Int32, candidate int32) {
	for {
		cur := v.Load()
		if candidate <= cur || v.CompareAndSwap(cur, candidate) {
			return
		}
	}
}
