package engine

import "github.com/achilleasa/lumen/asset/scene"

// Append a light record for every light object to dst, in object order.
// Light positions are expressed in world space.
func CollectLights(objects []*Object, dst []scene.LightInstance) []scene.LightInstance {
	for _, obj := range objects {
		if !obj.IsLight {
			continue
		}
		dst = append(dst, scene.LightInstance{
			Position:  obj.WorldPosition(),
			Color:     obj.Color,
			Intensity: obj.Intensity,
			Radius:    obj.Radius,
		})
	}
	return dst
}
