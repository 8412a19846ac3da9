package bvh

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/achilleasa/lumen/asset/scene"
	"github.com/achilleasa/lumen/types"
)

type Axis uint8

const (
	XAxis Axis = iota
	YAxis
	ZAxis
)

// Number of centroid bins evaluated per axis by the SAH strategy.
const sahBinCount = 12

var (
	// Split the vertex bounds of a range at the midpoint of its longest
	// axis using an in-place two-pointer partition on triangle centroids.
	ObjectMedian SplitStrategy = objectMedian{}

	// Split the centroid bounds of a range at the midpoint of its longest
	// axis using a stable partition. Falls back to a median split when all
	// centroids end up on the same side.
	CentroidMedian SplitStrategy = centroidMedian{}

	// Pick the binned split with the lowest surface area heuristic score:
	// left count * left area + right count * right area.
	SurfaceAreaHeuristic SplitStrategy = surfaceAreaHeuristic{}
)

// A SplitStrategy partitions a range of triangle indices.
type SplitStrategy interface {
	fmt.Stringer

	// Reorder triIdx[first:first+count] in place so that triangles
	// assigned to the left child precede those assigned to the right child
	// and return the absolute index of the first right-side entry. bounds
	// is the vertex AABB of the range. If ok is false the range is kept as
	// a single leaf.
	Split(tris []scene.Triangle, triIdx []int32, first, count int, bounds [2]types.Vec3) (mid int, ok bool)
}

// Lookup a split strategy by name.
func ParseStrategy(name string) (SplitStrategy, error) {
	for _, s := range []SplitStrategy{ObjectMedian, CentroidMedian, SurfaceAreaHeuristic} {
		if strings.EqualFold(s.String(), name) {
			return s, nil
		}
	}
	return nil, fmt.Errorf("bvh: unknown split strategy %q; supported strategies: %s, %s, %s",
		name, ObjectMedian, CentroidMedian, SurfaceAreaHeuristic)
}

type objectMedian struct{}

func (objectMedian) String() string { return "object-median" }

func (objectMedian) Split(tris []scene.Triangle, triIdx []int32, first, count int, bounds [2]types.Vec3) (int, bool) {
	axis := longestAxis(bounds[1].Sub(bounds[0]))
	splitPos := (bounds[0][axis] + bounds[1][axis]) * 0.5

	mid := partition(triIdx, first, count, func(triIndex int32) bool {
		return tris[triIndex].Centroid[axis] < splitPos
	})
	return mid, mid != first && mid != first+count
}

type centroidMedian struct{}

func (centroidMedian) String() string { return "centroid-median" }

func (centroidMedian) Split(tris []scene.Triangle, triIdx []int32, first, count int, _ [2]types.Vec3) (int, bool) {
	if count < 2 {
		return first, false
	}

	cbounds := centroidBBox(tris, triIdx[first:first+count])
	extent := cbounds[1].Sub(cbounds[0])
	var axis Axis
	switch {
	case extent[0] > extent[1] && extent[0] > extent[2]:
		axis = XAxis
	case extent[1] > extent[2]:
		axis = YAxis
	default:
		axis = ZAxis
	}
	splitPos := (cbounds[0][axis] + cbounds[1][axis]) * 0.5

	// Stable partition: left entries keep their relative order, followed
	// by the right entries in their relative order.
	window := triIdx[first : first+count]
	right := make([]int32, 0, count)
	leftCount := 0
	for _, triIndex := range window {
		if tris[triIndex].Centroid[axis] < splitPos {
			window[leftCount] = triIndex
			leftCount++
		} else {
			right = append(right, triIndex)
		}
	}
	copy(window[leftCount:], right)

	if leftCount != 0 && leftCount != count {
		return first + leftCount, true
	}

	// Median split; ties keep input order.
	sort.SliceStable(window, func(i, j int) bool {
		return tris[window[i]].Centroid[axis] < tris[window[j]].Centroid[axis]
	})
	return first + count/2, true
}

type surfaceAreaHeuristic struct{}

func (surfaceAreaHeuristic) String() string { return "sah" }

type sahBin struct {
	count int
	bbox  [2]types.Vec3
}

func (surfaceAreaHeuristic) Split(tris []scene.Triangle, triIdx []int32, first, count int, bounds [2]types.Vec3) (int, bool) {
	window := triIdx[first : first+count]
	cbounds := centroidBBox(tris, window)

	bestScore := float32(count) * halfArea(bounds)
	bestAxis, bestBin := -1, 0

	for axis := 0; axis < 3; axis++ {
		cmin, cmax := cbounds[0][axis], cbounds[1][axis]
		if cmax-cmin <= 0 {
			continue
		}

		var bins [sahBinCount]sahBin
		for i := range bins {
			bins[i].bbox = types.EmptyBBox()
		}
		scale := float32(sahBinCount) / (cmax - cmin)
		for _, triIndex := range window {
			b := &bins[binIndex(tris[triIndex].Centroid[axis], cmin, scale)]
			b.count++
			triBBox := tris[triIndex].BBox()
			b.bbox[0] = types.MinVec3(b.bbox[0], triBBox[0])
			b.bbox[1] = types.MaxVec3(b.bbox[1], triBBox[1])
		}

		// Sweep from the right to accumulate right-side scores and then
		// from the left to score each split plane.
		var rightScore [sahBinCount]float32
		rbox, rcount := types.EmptyBBox(), 0
		for i := sahBinCount - 1; i > 0; i-- {
			rcount += bins[i].count
			rbox = growBBox(rbox, bins[i].bbox)
			rightScore[i] = float32(rcount) * halfArea(rbox)
		}

		lbox, lcount := types.EmptyBBox(), 0
		for i := 0; i < sahBinCount-1; i++ {
			lcount += bins[i].count
			lbox = growBBox(lbox, bins[i].bbox)
			if lcount == 0 || lcount == count {
				continue
			}
			if score := float32(lcount)*halfArea(lbox) + rightScore[i+1]; score < bestScore {
				bestScore = score
				bestAxis = axis
				bestBin = i
			}
		}
	}

	// No split improves on keeping the range as a leaf.
	if bestAxis == -1 {
		return first, false
	}

	cmin := cbounds[0][bestAxis]
	scale := float32(sahBinCount) / (cbounds[1][bestAxis] - cmin)
	mid := partition(triIdx, first, count, func(triIndex int32) bool {
		return binIndex(tris[triIndex].Centroid[bestAxis], cmin, scale) <= bestBin
	})
	return mid, mid != first && mid != first+count
}

// Hoare-style two-pointer partition. Entries matching isLeft are moved to
// the front of the range; returns the absolute index of the first entry
// that does not match.
func partition(triIdx []int32, first, count int, isLeft func(int32) bool) int {
	i, j := first, first+count-1
	for i <= j {
		if isLeft(triIdx[i]) {
			i++
		} else {
			triIdx[i], triIdx[j] = triIdx[j], triIdx[i]
			j--
		}
	}
	return i
}

// Select the axis with the largest extent. An x/y tie selects x; any tie with
// z selects z.
func longestAxis(extent types.Vec3) Axis {
	if extent[1] > extent[0] {
		if extent[1] > extent[2] {
			return YAxis
		}
		return ZAxis
	}
	if extent[0] > extent[2] {
		return XAxis
	}
	return ZAxis
}

func centroidBBox(tris []scene.Triangle, window []int32) [2]types.Vec3 {
	bbox := types.EmptyBBox()
	for _, triIndex := range window {
		c := tris[triIndex].Centroid.Vec3()
		bbox[0] = types.MinVec3(bbox[0], c)
		bbox[1] = types.MaxVec3(bbox[1], c)
	}
	return bbox
}

func binIndex(v, min, scale float32) int {
	b := int((v - min) * scale)
	if b >= sahBinCount {
		b = sahBinCount - 1
	} else if b < 0 {
		b = 0
	}
	return b
}

func growBBox(a, b [2]types.Vec3) [2]types.Vec3 {
	return [2]types.Vec3{types.MinVec3(a[0], b[0]), types.MaxVec3(a[1], b[1])}
}

// Half the surface area of a box. Empty boxes score 0.
func halfArea(bbox [2]types.Vec3) float32 {
	side := bbox[1].Sub(bbox[0])
	if side[0] < 0 || side[1] < 0 || side[2] < 0 {
		return 0
	}
	area := side[0]*side[1] + side[1]*side[2] + side[0]*side[2]
	if math.IsInf(float64(area), 0) {
		return math.MaxFloat32
	}
	return area
}
