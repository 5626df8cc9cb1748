// Package action classifies feature vectors into debounced boxing actions.
package action

import (
	"math"

	"github.com/ayusman/letsfight/internal/feature"
)

// Action is a recognized boxing action label.
type Action string

const (
	// Idle means no recognized action; the body is resting or moving freely.
	Idle Action = "IDLE"
	// Jab is a fast straight punch with an extended elbow.
	Jab Action = "JAB"
	// Guard is a sustained pose with both fists held near the shoulders.
	Guard Action = "GUARD"
)

// Result is the classifier output for one frame.
type Result struct {
	Action     Action  `json:"action"`
	Confidence float64 `json:"confidence"`
}

// State is the cross-frame bookkeeping of a Classifier.
type State struct {
	GuardFrames       int     // Consecutive guard-pose frames
	JabCooldown       int     // Frames left before another jab may fire
	ConsecutiveFrames int     // Run length of the current raw candidate
	PotentialAction   Action  // Last raw, undebounced candidate
	StableAction      Action  // Reported action
	StableConfidence  float64 // Reported confidence
}

func initialState() State {
	return State{
		PotentialAction: Idle,
		StableAction:    Idle,
	}
}

// Classifier is a rule-based temporal classifier.
//
// Rules are checked in order JAB, GUARD, IDLE. JAB is reported the frame it
// fires; GUARD and IDLE must persist for DebounceFrames frames before they
// replace the reported action.
//
// A Classifier must only be used by one stream, one frame at a time.
type Classifier struct {
	config       Config
	state        State
	leftHistory  *History
	rightHistory *History
}

// NewClassifier creates a Classifier with the given thresholds.
func NewClassifier(config Config) *Classifier {
	return NewClassifierWithState(config, initialState())
}

// NewClassifierWithState creates a Classifier starting from the given counters.
// Empty action fields default to IDLE.
func NewClassifierWithState(config Config, state State) *Classifier {
	if state.PotentialAction == "" {
		state.PotentialAction = Idle
	}
	if state.StableAction == "" {
		state.StableAction = Idle
	}

	return &Classifier{
		config:       config,
		state:        state,
		leftHistory:  NewHistory(config.HistorySize),
		rightHistory: NewHistory(config.HistorySize),
	}
}

// Classify consumes one frame's features and returns the stable action.
// Missing velocities count as 0; missing distances count as MissingDistance.
func (c *Classifier) Classify(v feature.Vector) Result {
	cfg := c.config

	lVel := v.Get(feature.LeftWristVelocity, 0)
	rVel := v.Get(feature.RightWristVelocity, 0)
	lAngle := v.Get(feature.LeftElbowAngle, 0)
	rAngle := v.Get(feature.RightElbowAngle, 0)
	lDist := v.Get(feature.LeftWristShoulderDist, cfg.MissingDistance)
	rDist := v.Get(feature.RightWristShoulderDist, cfg.MissingDistance)

	c.leftHistory.Push(lVel)
	c.rightHistory.Push(rVel)

	if c.state.JabCooldown > 0 {
		c.state.JabCooldown--
	}

	potential := Idle
	var confidence float64

	burst := func(vel float64) bool { return vel > cfg.JabVelocity }
	leftJab := c.leftHistory.Any(burst) && lAngle > cfg.JabElbowAngle
	rightJab := c.rightHistory.Any(burst) && rAngle > cfg.JabElbowAngle

	if (leftJab || rightJab) && c.state.JabCooldown == 0 {
		potential = Jab
		c.state.JabCooldown = cfg.JabCooldown
		c.state.GuardFrames = 0

		// Only the average is clamped; velScore alone may exceed 1.
		velScore := math.Max(lVel, rVel) / cfg.JabVelocity
		angleScore := math.Max(lAngle, rAngle) / 180.0
		confidence = clamp01((velScore + angleScore) / 2.0)
	} else {
		guardPose := lDist < cfg.GuardDistance &&
			rDist < cfg.GuardDistance &&
			lVel < cfg.GuardVelocity &&
			rVel < cfg.GuardVelocity

		if guardPose {
			c.state.GuardFrames++
		} else {
			c.state.GuardFrames = 0
		}

		if c.state.GuardFrames >= cfg.GuardPersistence {
			potential = Guard
			confidence = math.Min(1.0, float64(c.state.GuardFrames)/float64(cfg.GuardFullConfidence))
		}
	}

	if potential == Idle {
		avgVel := (lVel + rVel) / 2.0
		confidence = math.Max(0, 1.0-avgVel*cfg.IdleVelocityGain)
	}

	if potential == c.state.PotentialAction {
		c.state.ConsecutiveFrames++
	} else {
		c.state.ConsecutiveFrames = 1
		c.state.PotentialAction = potential
	}

	if potential == Jab || c.state.ConsecutiveFrames >= cfg.DebounceFrames {
		c.state.StableAction = potential
		c.state.StableConfidence = confidence
	}

	return c.Stable()
}

// Stable returns the currently reported action without consuming a frame.
func (c *Classifier) Stable() Result {
	return Result{
		Action:     c.state.StableAction,
		Confidence: c.state.StableConfidence,
	}
}

// State returns a snapshot of the classifier counters.
func (c *Classifier) State() State {
	return c.state
}

// GuardFrames returns the current guard streak length.
func (c *Classifier) GuardFrames() int {
	return c.state.GuardFrames
}

// JabCooldown returns the frames left before another jab may fire.
func (c *Classifier) JabCooldown() int {
	return c.state.JabCooldown
}

// PotentialAction returns the last raw, undebounced candidate.
func (c *Classifier) PotentialAction() Action {
	return c.state.PotentialAction
}

// VelocityHistory returns the buffered left and right wrist velocities, oldest first.
func (c *Classifier) VelocityHistory() (left, right []float64) {
	return c.leftHistory.Values(), c.rightHistory.Values()
}

// Config returns the classifier thresholds.
func (c *Classifier) Config() Config {
	return c.config
}

// Reset restores the initial state and clears the velocity histories.
func (c *Classifier) Reset() {
	c.state = initialState()
	c.leftHistory.Clear()
	c.rightHistory.Clear()
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
