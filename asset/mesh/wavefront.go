package mesh

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/lumen/asset"
	"github.com/achilleasa/lumen/log"
	"github.com/achilleasa/lumen/types"
)

type wavefrontReader struct {
	logger log.Logger

	// The mesh being assembled.
	mesh *Mesh

	// Parsed vertex positions. Faces reference this list.
	vertexList []types.Vec3

	// Maps a position to its slot in the mesh vertex list so that
	// vertices shared by several faces are only emitted once.
	vertexToIndex map[types.Vec3]uint32

	// An error stack that provides additional error information when
	// obj files include other files via "call".
	errStack []string
}

func newWavefrontReader(name string) *wavefrontReader {
	return &wavefrontReader{
		logger:        log.New("wavefront reader"),
		mesh:          &Mesh{Name: name},
		vertexList:    make([]types.Vec3, 0),
		vertexToIndex: make(map[types.Vec3]uint32),
		errStack:      make([]string, 0),
	}
}

// Read a wavefront obj resource into a single mesh. Only vertex positions and
// faces are used; normals, uvs, groups and materials are skipped. Quad faces
// are split into two triangles.
func ReadWavefront(res *asset.Resource) (*Mesh, error) {
	r := newWavefrontReader(res.Name())

	r.logger.Noticef(`parsing mesh from "%s"`, res.Path())
	start := time.Now()

	if err := r.parse(res); err != nil {
		return nil, err
	}

	r.logger.Infof(
		"parsed mesh %q (%d vertices, %d triangles) in %d ms",
		r.mesh.Name, len(r.mesh.Vertices), r.mesh.TriangleCount(), time.Since(start).Nanoseconds()/1e6,
	)
	return r.mesh, nil
}

// Generate an error message that also includes any data in the error stack.
func (r *wavefrontReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)
	return fmt.Errorf("%s", strings.Trim(
		fmt.Sprintf("[%s: %d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n")),
		"\n",
	))
}

func (r *wavefrontReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

func (r *wavefrontReader) popFrame() {
	r.errStack = r.errStack[1:]
}

func (r *wavefrontReader) parse(res *asset.Resource) error {
	var lineNum int = 0

	// Positive face indices are relative to the file that defines them.
	relVertexOffset := len(r.vertexList)

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "call":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "call"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [call]", res.Path(), lineNum))
			incRes, err := asset.NewResource(lineTokens[1], res)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err)
			}
			err = r.parse(incRes)
			incRes.Close()
			if err != nil {
				return err
			}
			r.popFrame()
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err)
			}
			r.vertexList = append(r.vertexList, v)
		case "f":
			if err := r.parseFace(lineTokens, relVertexOffset); err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err)
			}
		}
	}

	return scanner.Err()
}

// Parse face definition. Each face argument may use any of the v, v/vt,
// v//vn or v/vt/vn forms; only the vertex index is used. Indices start from
// 1 and may be negative to indicate an offset off the end of the vertex list.
func (r *wavefrontReader) parseFace(lineTokens []string, relVertexOffset int) error {
	if len(lineTokens) < 4 || len(lineTokens) > 5 {
		return fmt.Errorf(`unsupported syntax for "f"; expected 3 arguments for triangular face or 4 arguments for a quad face; got %d. Select the triangulation option in your exporter`, len(lineTokens)-1)
	}

	var faceIndices [4]uint32
	for arg := 0; arg < len(lineTokens)-1; arg++ {
		vTokens := strings.Split(lineTokens[arg+1], "/")
		if vTokens[0] == "" {
			return fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		vOffset, err := selectFaceCoordIndex(vTokens[0], len(r.vertexList), relVertexOffset)
		if err != nil {
			return fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}
		faceIndices[arg] = r.emitVertex(r.vertexList[vOffset])
	}

	r.mesh.Indices = append(r.mesh.Indices, faceIndices[0], faceIndices[1], faceIndices[2])
	if len(lineTokens) == 5 {
		r.mesh.Indices = append(r.mesh.Indices, faceIndices[0], faceIndices[2], faceIndices[3])
	}
	return nil
}

// Get the mesh vertex slot for a position, appending it if not seen before.
func (r *wavefrontReader) emitVertex(v types.Vec3) uint32 {
	if index, exists := r.vertexToIndex[v]; exists {
		return index
	}
	index := uint32(len(r.mesh.Vertices))
	r.mesh.Vertices = append(r.mesh.Vertices, v)
	r.vertexToIndex[v] = index
	return index
}

// Given an index for a face coord calculate the proper offset into the coord
// list. Wavefront format can also use negative indices to reference elements
// from the end of the coord list.
func selectFaceCoordIndex(indexToken string, coordListLen int, relOffset int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int = 0
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = relOffset + int(index-1)
	}
	if vOffset < 0 || vOffset >= coordListLen {
		return -1, fmt.Errorf("index out of bounds")
	}
	return vOffset, nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}
