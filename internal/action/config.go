package action

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned when a classifier Config fails validation.
var ErrInvalidConfig = errors.New("invalid classifier config")

// Config holds the hand-tuned classifier thresholds.
// Distances and velocities are in normalized torso units (per frame when dt = 1).
type Config struct {
	// Jab
	JabVelocity   float64 // A wrist sample above this counts as a burst
	JabElbowAngle float64 // Elbow angle (degrees) above which the arm is extended
	JabCooldown   int     // Frames after a jab before another may fire
	HistorySize   int     // Velocity samples kept per wrist for burst detection

	// Guard
	GuardDistance       float64 // Max wrist-to-shoulder distance for a guard pose
	GuardVelocity       float64 // Max wrist velocity for a guard pose
	GuardPersistence    int     // Consecutive guard frames before GUARD fires
	GuardFullConfidence int     // Guard streak length at which confidence reaches 1.0

	// Idle
	IdleVelocityGain float64 // Idle confidence is 1 - gain * average wrist velocity

	// Stabilization
	DebounceFrames int // Frames a GUARD/IDLE candidate must persist before it is reported

	// Defaults for missing features
	MissingDistance float64 // Stand-in distance that always fails the guard check
}

// DefaultConfig returns the tuned classifier thresholds.
func DefaultConfig() Config {
	return Config{
		JabVelocity:   0.35,
		JabElbowAngle: 145.0,
		JabCooldown:   15,
		HistorySize:   5,

		GuardDistance:       0.65,
		GuardVelocity:       0.12,
		GuardPersistence:    5,
		GuardFullConfidence: 10,

		IdleVelocityGain: 2.0,

		DebounceFrames: 2,

		MissingDistance: 100,
	}
}

// Validate checks that the thresholds are usable.
func (c Config) Validate() error {
	switch {
	case c.JabVelocity <= 0:
		return fmt.Errorf("%w: jab velocity must be positive", ErrInvalidConfig)
	case c.JabElbowAngle < 0 || c.JabElbowAngle > 180:
		return fmt.Errorf("%w: jab elbow angle must be within [0, 180]", ErrInvalidConfig)
	case c.JabCooldown < 0:
		return fmt.Errorf("%w: jab cooldown must not be negative", ErrInvalidConfig)
	case c.HistorySize < 1:
		return fmt.Errorf("%w: history size must be at least 1", ErrInvalidConfig)
	case c.GuardDistance <= 0:
		return fmt.Errorf("%w: guard distance must be positive", ErrInvalidConfig)
	case c.GuardVelocity <= 0:
		return fmt.Errorf("%w: guard velocity must be positive", ErrInvalidConfig)
	case c.GuardPersistence < 1:
		return fmt.Errorf("%w: guard persistence must be at least 1", ErrInvalidConfig)
	case c.GuardFullConfidence < 1:
		return fmt.Errorf("%w: guard full confidence must be at least 1", ErrInvalidConfig)
	case c.IdleVelocityGain < 0:
		return fmt.Errorf("%w: idle velocity gain must not be negative", ErrInvalidConfig)
	case c.DebounceFrames < 1:
		return fmt.Errorf("%w: debounce frames must be at least 1", ErrInvalidConfig)
	case c.MissingDistance <= c.GuardDistance:
		return fmt.Errorf("%w: missing distance must exceed guard distance", ErrInvalidConfig)
	}
	return nil
}
