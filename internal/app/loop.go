package app

import (
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/letsfight/internal/body"
	"github.com/ayusman/letsfight/internal/store"
)

// run is the capture loop. It reads one frame per tick while enabled.
func (a *App) run(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	fps := a.camera.FPS()
	if fps <= 0 {
		fps = a.config.Settings.FPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.camera.ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			a.step(frame, time.Now())
			frame.Close()
		}
	}
}

// step runs detection and recognition on one frame.
func (a *App) step(frame *gocv.Mat, now time.Time) {
	if a.config.Frames != nil {
		if err := a.config.Frames.Update(frame); err != nil {
			log.Printf("Error buffering frame: %v", err)
		}
	}

	pose, err := a.detector.Detect(frame)
	if err != nil {
		log.Printf("Error detecting pose: %v", err)
		pose = nil
	}

	a.handlePose(pose, now)
}

// handlePose advances the pipeline by one frame. A nil pose is a gap:
// nothing is classified, and after GapResetFrames consecutive gaps the
// tracking state is dropped so a returning body is not blended with the old one.
func (a *App) handlePose(pose *body.Pose, now time.Time) {
	if a.takeResumed() {
		// Frames were not read while disabled; the last tracked one is stale.
		a.pipeline.ResetTracking()
		a.gaps = 0
		a.sinceLast = 0
	}

	a.frame++
	a.sinceLast++

	if pose == nil {
		a.gaps++
		if a.gaps == a.config.Settings.GapResetFrames {
			a.pipeline.ResetTracking()
			log.Printf("No body for %d frames, tracking reset", a.gaps)
		}
		return
	}

	// Velocities are per frame; frames lost to short gaps widen dt.
	dt := float64(a.sinceLast)
	if a.gaps >= a.config.Settings.GapResetFrames {
		dt = 1
	}
	a.gaps = 0
	a.sinceLast = 0

	out := a.pipeline.ProcessDelta(pose, dt)

	a.mu.Lock()
	changed := out.Action != a.last.Action
	a.last = out.Result
	subscribers := a.subscribers
	sess := a.session
	a.mu.Unlock()

	if changed {
		log.Printf("Action: %s (%.2f)", out.Action, out.Confidence)
		a.recordEvent(sess, string(out.Action), out.Confidence)
	}

	a.pendingFrames++
	if a.pendingFrames >= frameFlushInterval {
		a.flushFrames()
	}

	u := Update{
		Frame:  a.frame,
		Time:   now,
		Raw:    pose,
		Output: out,
	}
	for _, fn := range subscribers {
		fn(u)
	}
}

// takeResumed reports whether recognition was re-enabled since the last call.
func (a *App) takeResumed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	r := a.resumed
	a.resumed = false
	return r
}

func (a *App) recordEvent(sess *store.Session, act string, confidence float64) {
	if sess == nil || a.config.Store == nil {
		return
	}

	e := &store.Event{
		SessionID:  sess.ID,
		Action:     act,
		Confidence: confidence,
		Frame:      a.frame,
	}
	if err := a.config.Store.Events().Create(e); err != nil {
		log.Printf("Error recording event: %v", err)
	}
}

// flushFrames adds the processed-frame count to the session row.
func (a *App) flushFrames() {
	if a.pendingFrames == 0 {
		return
	}

	a.mu.RLock()
	sess := a.session
	a.mu.RUnlock()

	if sess != nil && a.config.Store != nil {
		if err := a.config.Store.Sessions().IncrementFrames(sess.ID, a.pendingFrames); err != nil {
			log.Printf("Error updating session frames: %v", err)
			return
		}
	}
	a.pendingFrames = 0
}
