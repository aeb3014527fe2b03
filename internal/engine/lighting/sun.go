// Package lighting provides the directional light used to shade models.
package lighting

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Sun is a directional light placed by angles in degrees: Azimuth rotates
// around the Y axis, Elevation is measured up from the horizon.
type Sun struct {
	Azimuth   float32 `yaml:"azimuth"`
	Elevation float32 `yaml:"elevation"`
}

// DefaultSun lights the model from the front right and above.
func DefaultSun() Sun {
	return Sun{Azimuth: 35, Elevation: 55}
}

// ToSun returns the unit vector pointing from the scene towards the sun.
func (s Sun) ToSun() mgl32.Vec3 {
	az := float64(mgl32.DegToRad(s.Azimuth))
	el := float64(mgl32.DegToRad(s.Elevation))
	return mgl32.Vec3{
		float32(math.Cos(el) * math.Sin(az)),
		float32(math.Sin(el)),
		float32(math.Cos(el) * math.Cos(az)),
	}
}

// Direction returns the direction light travels, the negation of ToSun.
func (s Sun) Direction() mgl32.Vec3 {
	return s.ToSun().Mul(-1)
}
