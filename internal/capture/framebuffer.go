package capture

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// FrameBuffer holds the most recent frame as JPEG so that viewers never
// compete with the recognition loop for the device.
type FrameBuffer struct {
	mu   sync.RWMutex
	jpeg []byte
	seq  uint64
}

// NewFrameBuffer creates an empty FrameBuffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

// Update encodes frame as JPEG and makes it the latest frame.
func (b *FrameBuffer) Update(frame *gocv.Mat) error {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	b.Set(buf.GetBytes())
	return nil
}

// Set stores an already encoded JPEG as the latest frame.
func (b *FrameBuffer) Set(jpeg []byte) {
	data := make([]byte, len(jpeg))
	copy(data, jpeg)

	b.mu.Lock()
	b.jpeg = data
	b.seq++
	b.mu.Unlock()
}

// Latest returns the latest JPEG and its sequence number.
// The sequence is 0 until the first frame arrives. The returned slice
// must not be modified.
func (b *FrameBuffer) Latest() ([]byte, uint64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.jpeg, b.seq
}
