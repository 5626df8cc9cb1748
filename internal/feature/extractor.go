// Package feature derives named scalar features (joint angles, limb distances,
// wrist velocities) from smoothed pose landmarks.
package feature

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/letsfight/internal/body"
)

// Feature names.
const (
	LeftElbowAngle         = "left_elbow_angle"
	RightElbowAngle        = "right_elbow_angle"
	LeftWristShoulderDist  = "left_wrist_shoulder_dist"
	RightWristShoulderDist = "right_wrist_shoulder_dist"
	LeftWristHipDist       = "left_wrist_hip_dist"
	RightWristHipDist      = "right_wrist_hip_dist"
	LeftWristVelocity      = "left_wrist_velocity"
	RightWristVelocity     = "right_wrist_velocity"
)

// Names lists every feature produced by Extract.
var Names = []string{
	LeftElbowAngle,
	RightElbowAngle,
	LeftWristShoulderDist,
	RightWristShoulderDist,
	LeftWristHipDist,
	RightWristHipDist,
	LeftWristVelocity,
	RightWristVelocity,
}

// Vector maps feature names to values for one frame.
type Vector map[string]float64

// Get returns the named feature, or def if it is missing or NaN.
func (v Vector) Get(name string, def float64) float64 {
	if val, ok := v[name]; ok && !math.IsNaN(val) {
		return val
	}
	return def
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// Angle returns the angle ABC at vertex b in degrees, in [0, 180].
// Returns 0 if either arm of the angle has zero length.
func Angle(a, b, c r3.Vec) float64 {
	ba := r3.Sub(a, b)
	bc := r3.Sub(c, b)

	mag := r3.Norm(ba) * r3.Norm(bc)
	if mag == 0 {
		return 0
	}

	cosine := r3.Dot(ba, bc) / mag
	cosine = math.Max(-1, math.Min(1, cosine))

	return math.Acos(cosine) * 180 / math.Pi
}

// Extractor computes feature vectors and remembers the last frame for velocities.
// It must only be used by one stream, one frame at a time.
type Extractor struct {
	previous *body.Pose
}

// NewExtractor creates a new Extractor with no previous frame.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract computes the feature vector of a smoothed pose.
// dt is the time since the previous frame; values <= 0 mean one frame (1.0).
// The first call after construction or Reset reports zero wrist velocity.
func (e *Extractor) Extract(p *body.Pose, dt float64) Vector {
	if dt <= 0 {
		dt = 1.0
	}

	pt := func(idx int) r3.Vec { return p.Points[idx].Vec() }
	hip := p.HipCenter()

	v := Vector{
		LeftElbowAngle:         Angle(pt(body.LeftShoulder), pt(body.LeftElbow), pt(body.LeftWrist)),
		RightElbowAngle:        Angle(pt(body.RightShoulder), pt(body.RightElbow), pt(body.RightWrist)),
		LeftWristShoulderDist:  Distance(pt(body.LeftWrist), pt(body.LeftShoulder)),
		RightWristShoulderDist: Distance(pt(body.RightWrist), pt(body.RightShoulder)),
		LeftWristHipDist:       Distance(pt(body.LeftWrist), hip),
		RightWristHipDist:      Distance(pt(body.RightWrist), hip),
		LeftWristVelocity:      0,
		RightWristVelocity:     0,
	}

	if e.previous != nil {
		prev := func(idx int) r3.Vec { return e.previous.Points[idx].Vec() }
		v[LeftWristVelocity] = Distance(pt(body.LeftWrist), prev(body.LeftWrist)) / dt
		v[RightWristVelocity] = Distance(pt(body.RightWrist), prev(body.RightWrist)) / dt
	}

	e.previous = p.Clone()

	return v
}

// Reset forgets the previous frame.
func (e *Extractor) Reset() {
	e.previous = nil
}
