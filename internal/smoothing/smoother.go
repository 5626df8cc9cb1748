// Package smoothing suppresses landmark jitter across frames with an exponential moving average.
package smoothing

import (
	"errors"
	"fmt"

	"github.com/ayusman/letsfight/internal/body"
)

// DefaultAlpha is the smoothing factor used when none is configured.
const DefaultAlpha = 0.5

// ErrInvalidAlpha is returned when the smoothing factor is outside (0, 1].
var ErrInvalidAlpha = errors.New("alpha must be in (0, 1]")

// Smoother applies per-landmark EMA smoothing to normalized poses.
// Lower alpha favors smoothness over responsiveness.
//
// A Smoother holds the previous smoothed frame and must only be used by
// one stream, one frame at a time.
type Smoother struct {
	alpha    float64
	previous *body.Pose
}

// NewSmoother creates a Smoother with the given smoothing factor.
func NewSmoother(alpha float64) (*Smoother, error) {
	if !(alpha > 0 && alpha <= 1) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidAlpha, alpha)
	}
	return &Smoother{alpha: alpha}, nil
}

// Alpha returns the smoothing factor.
func (s *Smoother) Alpha() float64 {
	return s.alpha
}

// Smooth blends the pose with the previous smoothed frame and returns the result.
// The first call after construction or Reset returns a copy of the input.
// Visibility always comes from the current frame.
//
// Smooth panics on a nil pose.
func (s *Smoother) Smooth(current *body.Pose) *body.Pose {
	if current == nil {
		panic("smoothing: nil pose")
	}

	if s.previous == nil {
		s.previous = current.Clone()
		return current.Clone()
	}

	a := s.alpha
	smoothed := &body.Pose{Score: current.Score}
	for i, c := range current.Points {
		p := s.previous.Points[i]
		smoothed.Points[i] = body.Landmark{
			X:          a*c.X + (1-a)*p.X,
			Y:          a*c.Y + (1-a)*p.Y,
			Z:          a*c.Z + (1-a)*p.Z,
			Visibility: c.Visibility,
		}
	}

	s.previous = smoothed.Clone()
	return smoothed
}

// Previous returns a copy of the stored smoothed frame, or nil before the first call.
func (s *Smoother) Previous() *body.Pose {
	return s.previous.Clone()
}

// Reset clears the stored frame so the next call starts a new stream.
func (s *Smoother) Reset() {
	s.previous = nil
}
