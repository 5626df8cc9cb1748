package detector

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/letsfight/internal/body"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	pose     *body.Pose
	sequence []*body.Pose
	index    int
	err      error
	mu       sync.Mutex
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetPose sets the pose that will be returned by every Detect call.
func (m *MockDetector) SetPose(pose *body.Pose) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pose = pose
	m.sequence = nil
	m.index = 0
}

// SetSequence makes Detect return the given poses in order, one per call.
// Nil entries simulate frames without a detected body. Once the sequence
// is exhausted Detect returns no pose.
func (m *MockDetector) SetSequence(poses []*body.Pose) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = poses
	m.index = 0
	m.pose = nil
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the pre-configured pose or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (*body.Pose, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	if m.sequence != nil {
		if m.index >= len(m.sequence) {
			return nil, nil
		}
		p := m.sequence[m.index]
		m.index++
		return p.Clone(), nil
	}

	return m.pose.Clone(), nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}
