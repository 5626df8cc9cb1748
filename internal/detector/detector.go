// Package detector turns camera frames into body poses.
package detector

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/letsfight/internal/body"
)

// Detector defines the interface for body pose detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the detected body pose.
	// Returns a nil pose and nil error if no body is visible.
	Detect(frame *gocv.Mat) (*body.Pose, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for pose detection.
type Config struct {
	// ModelComplexity selects the pose model (0, 1 or 2).
	ModelComplexity int

	// SmoothLandmarks enables the detector's own landmark filtering.
	SmoothLandmarks bool

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		ModelComplexity: 1,
		SmoothLandmarks: true,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}
