// Package app runs the capture loop: camera frames go through pose detection
// and the recognition pipeline, and results are recorded and published.
package app

import (
	"log"
	"sync"
	"time"

	"github.com/ayusman/letsfight/internal/action"
	"github.com/ayusman/letsfight/internal/body"
	"github.com/ayusman/letsfight/internal/capture"
	"github.com/ayusman/letsfight/internal/config"
	"github.com/ayusman/letsfight/internal/detector"
	"github.com/ayusman/letsfight/internal/pipeline"
	"github.com/ayusman/letsfight/internal/store"
)

// frameFlushInterval is how many processed frames are counted in memory
// before the session row is updated.
const frameFlushInterval = 30

// Config holds configuration options for the application.
// Nil Camera and Detector select the real device and MediaPipe.
type Config struct {
	Settings config.Settings
	Store    *store.Store
	Camera   capture.Camera
	Detector detector.Detector
	Frames   *capture.FrameBuffer
}

// Update is published for every frame with a detected body.
type Update struct {
	Frame  int64
	Time   time.Time
	Raw    *body.Pose
	Output pipeline.Output
}

// Subscriber receives updates on the capture goroutine and must not block.
type Subscriber func(Update)

// App orchestrates capture, recognition, persistence and publishing.
type App struct {
	config   Config
	camera   capture.Camera
	detector detector.Detector
	pipeline *pipeline.Pipeline

	mu          sync.RWMutex
	enabled     bool
	resumed     bool // set on re-enable, cleared by the capture goroutine
	stopCh      chan struct{}
	doneCh      chan struct{}
	subscribers []Subscriber
	last        action.Result
	session     *store.Session

	// Owned by the capture goroutine.
	frame         int64
	gaps          int
	sinceLast     int
	pendingFrames int64
}

// New creates a new App. It fails if the pipeline settings are invalid.
func New(cfg Config) (*App, error) {
	p, err := pipeline.New(cfg.Settings.Pipeline)
	if err != nil {
		return nil, err
	}

	a := &App{
		config:   cfg,
		camera:   cfg.Camera,
		detector: cfg.Detector,
		pipeline: p,
		last:     p.Stable(),
	}

	if a.camera == nil {
		a.camera = capture.NewCamera(cfg.Settings.CameraID, cfg.Settings.FPS)
	}

	if a.detector == nil {
		// Try MediaPipe first, fall back to mock detector
		if mp, err := detector.NewMediaPipeDetector(cfg.Settings.Detector); err == nil {
			a.detector = mp
			log.Println("Using MediaPipe pose detection")
		} else {
			log.Printf("MediaPipe not available (%v), using mock detector", err)
			a.detector = detector.NewMockDetector()
		}
	}

	return a, nil
}

// SetEnabled enables or disables recognition. Frames are not read while
// disabled, and tracking restarts from scratch when recognition resumes.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if enabled && !a.enabled {
		a.resumed = true
	}
	a.enabled = enabled
}

// IsEnabled returns whether recognition is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Subscribe registers fn to receive every Update.
func (a *App) Subscribe(fn Subscriber) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.subscribers = append(a.subscribers, fn)
}

// Last returns the most recently reported action.
func (a *App) Last() action.Result {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

// Session returns the session being recorded, or nil.
func (a *App) Session() *store.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}

// Running reports whether the capture loop is active.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stopCh != nil
}

// Start opens the camera, begins a session and starts the capture loop.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}

	if a.config.Store != nil {
		sess := &store.Session{}
		if err := a.config.Store.Sessions().Create(sess); err != nil {
			log.Printf("Failed to create session: %v", err)
		} else {
			a.session = sess
			log.Printf("Recording session %s", sess.ID)
		}
	}

	a.pipeline.Reset()
	a.last = a.pipeline.Stable()
	a.frame, a.gaps, a.sinceLast, a.pendingFrames = 0, 0, 0, 0

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.run(a.stopCh, a.doneCh)

	log.Println("Capture loop started")
	return nil
}

// Stop halts the capture loop, ends the session and releases the camera.
// The detector stays open so the loop can be restarted.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.mu.Unlock()

	if stopCh == nil {
		return
	}

	close(stopCh)
	<-doneCh

	a.flushFrames()

	a.mu.Lock()
	sess := a.session
	a.session = nil
	a.mu.Unlock()

	if sess != nil && a.config.Store != nil {
		if err := a.config.Store.Sessions().End(sess.ID); err != nil {
			log.Printf("Error ending session: %v", err)
		}
	}

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	log.Println("Capture loop stopped")
}

// Close stops the loop and releases the detector.
func (a *App) Close() error {
	a.Stop()
	return a.detector.Close()
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Detector returns the pose detector.
func (a *App) Detector() detector.Detector {
	return a.detector
}

// Pipeline returns the recognition pipeline. It must not be used while running.
func (a *App) Pipeline() *pipeline.Pipeline {
	return a.pipeline
}
