// Package body models a 33-point body pose and maps it into a
// camera-independent frame.
package body

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Pose landmark indices following the MediaPipe BlazePose convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	Nose           = 0
	LeftEyeInner   = 1
	LeftEye        = 2
	LeftEyeOuter   = 3
	RightEyeInner  = 4
	RightEye       = 5
	RightEyeOuter  = 6
	LeftEar        = 7
	RightEar       = 8
	MouthLeft      = 9
	MouthRight     = 10
	LeftShoulder   = 11
	RightShoulder  = 12
	LeftElbow      = 13
	RightElbow     = 14
	LeftWrist      = 15
	RightWrist     = 16
	LeftPinky      = 17
	RightPinky     = 18
	LeftIndex      = 19
	RightIndex     = 20
	LeftThumb      = 21
	RightThumb     = 22
	LeftHip        = 23
	RightHip       = 24
	LeftKnee       = 25
	RightKnee      = 26
	LeftAnkle      = 27
	RightAnkle     = 28
	LeftHeel       = 29
	RightHeel      = 30
	LeftFootIndex  = 31
	RightFootIndex = 32
	NumLandmarks   = 33
)

// minTorsoSize is the torso length below which a pose is treated as degenerate.
const minTorsoSize = 1e-6

// ErrLandmarkCount is returned when a landmark sequence does not have exactly NumLandmarks points.
var ErrLandmarkCount = errors.New("wrong landmark count")

// Landmark is a single estimated body joint with a visibility confidence in [0,1].
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Vec returns the landmark position as a 3D vector.
func (l Landmark) Vec() r3.Vec {
	return r3.Vec{X: l.X, Y: l.Y, Z: l.Z}
}

// Pose represents the 33 body landmarks of one video frame.
type Pose struct {
	Points [NumLandmarks]Landmark `json:"landmarks"`
	Score  float64                `json:"score"`
}

// NewPose builds a Pose from an ordered landmark slice.
// The slice must hold exactly NumLandmarks entries in detector order.
func NewPose(points []Landmark) (*Pose, error) {
	if len(points) != NumLandmarks {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrLandmarkCount, len(points), NumLandmarks)
	}

	p := &Pose{}
	copy(p.Points[:], points)
	return p, nil
}

// HipCenter returns the midpoint of the left and right hips.
func (p *Pose) HipCenter() r3.Vec {
	return midpoint(p.Points[LeftHip], p.Points[RightHip])
}

// ShoulderCenter returns the midpoint of the left and right shoulders.
func (p *Pose) ShoulderCenter() r3.Vec {
	return midpoint(p.Points[LeftShoulder], p.Points[RightShoulder])
}

// TorsoSize returns the distance between the hip center and the shoulder center.
func (p *Pose) TorsoSize() float64 {
	return r3.Norm(r3.Sub(p.ShoulderCenter(), p.HipCenter()))
}

func midpoint(a, b Landmark) r3.Vec {
	return r3.Scale(0.5, r3.Add(a.Vec(), b.Vec()))
}

// Normalize maps the pose into a body-centered frame.
// The hip center becomes the origin and the torso length becomes 1.0.
// Degenerate poses (torso shorter than 1e-6) are only translated.
// Visibility is copied unchanged. Returns a new Pose.
func (p *Pose) Normalize() *Pose {
	if p == nil {
		return nil
	}

	origin := p.HipCenter()

	scale := 1.0
	if torso := p.TorsoSize(); torso >= minTorsoSize {
		scale = 1.0 / torso
	}

	normalized := &Pose{Score: p.Score}
	for i, l := range p.Points {
		v := r3.Scale(scale, r3.Sub(l.Vec(), origin))
		normalized.Points[i] = Landmark{
			X:          v.X,
			Y:          v.Y,
			Z:          v.Z,
			Visibility: l.Visibility,
		}
	}

	return normalized
}

// Clone returns a copy of the pose.
func (p *Pose) Clone() *Pose {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
