package engine

import "github.com/achilleasa/lumen/types"

// A scene object places a compiled model (or a light) in the world.
type Object struct {
	Name string

	// Name of the compiled model rendered by this object. Pure lights
	// leave it empty.
	Model string

	// Local transform relative to the parent.
	Position types.Vec3
	Rotation types.Quat
	Scale    types.Vec3

	// Optional parent object. The parent chain must be acyclic.
	Parent *Object

	// Light emission. Only used when IsLight is set.
	IsLight   bool
	Color     types.Vec3
	Intensity float32
	Radius    float32

	// Visible is updated by frustum culling. AlwaysVisible objects are
	// synced even when culled.
	Visible       bool
	AlwaysVisible bool

	// World space bounds computed during the last cull pass.
	WorldBounds [2]types.Vec3

	// Slot of the object's instance record; -1 until the object is
	// registered with an instance manager.
	BvhInstanceIndex int
}

// Create a new object with an identity transform.
func NewObject(name, model string) *Object {
	return &Object{
		Name:             name,
		Model:            model,
		Rotation:         types.QuatIdent(),
		Scale:            types.Vec3{1, 1, 1},
		Color:            types.Vec3{1, 1, 1},
		Intensity:        1,
		Visible:          true,
		WorldBounds:      types.EmptyBBox(),
		BvhInstanceIndex: -1,
	}
}

// Create a new point light.
func NewLight(name string, position, color types.Vec3, intensity, radius float32) *Object {
	obj := NewObject(name, "")
	obj.Position = position
	obj.IsLight = true
	obj.Color = color
	obj.Intensity = intensity
	obj.Radius = radius
	return obj
}

// Set the rotation from euler angles (degrees) applied in X, Y, Z order.
func (o *Object) SetRotationEuler(degrees types.Vec3) {
	o.Rotation = types.QuatFromEuler(degrees)
}

// Returns true if the object has been assigned an instance slot.
func (o *Object) Registered() bool {
	return o.BvhInstanceIndex >= 0
}

// Calculate the world transform: parent * T * R * S.
func (o *Object) ModelMatrix() types.Mat4 {
	model := types.Translate4(o.Position).Mul4(o.Rotation.Mat4()).Mul4(types.Scale4(o.Scale))
	if o.Parent != nil {
		model = o.Parent.ModelMatrix().Mul4(model)
	}
	return model
}

// Get the world position of the object origin.
func (o *Object) WorldPosition() types.Vec3 {
	return o.ModelMatrix().Translation()
}

// Transform a bounding box and return the box enclosing its 8 corners.
func TransformBBox(bbox [2]types.Vec3, m types.Mat4) [2]types.Vec3 {
	out := types.EmptyBBox()
	for corner := 0; corner < 8; corner++ {
		p := types.Vec3{
			bbox[corner&1][0],
			bbox[(corner>>1)&1][1],
			bbox[(corner>>2)&1][2],
		}
		p = m.TransformPoint(p)
		out[0] = types.MinVec3(out[0], p)
		out[1] = types.MaxVec3(out[1], p)
	}
	return out
}
