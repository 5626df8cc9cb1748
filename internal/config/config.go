// Package config loads runtime settings from an optional JSON file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ayusman/letsfight/internal/detector"
	"github.com/ayusman/letsfight/internal/pipeline"
	"github.com/ayusman/letsfight/internal/smoothing"
)

// Defaults for the application shell.
const (
	DefaultAddr           = "localhost:8765"
	DefaultCameraID       = 0
	DefaultFPS            = 30
	DefaultGapResetFrames = 15
	DefaultDBName         = "letsfight.db"
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Settings is the effective configuration of a running instance.
type Settings struct {
	Pipeline       pipeline.Config
	Detector       detector.Config
	CameraID       int
	FPS            int
	GapResetFrames int
	Addr           string
	DBPath         string
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Pipeline:       pipeline.DefaultConfig(),
		Detector:       detector.DefaultConfig(),
		CameraID:       DefaultCameraID,
		FPS:            DefaultFPS,
		GapResetFrames: DefaultGapResetFrames,
		Addr:           DefaultAddr,
		DBPath:         DefaultDBPath(),
	}
}

// DefaultDBPath returns ~/.letsfight/letsfight.db, or a relative path if the
// home directory is unknown.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultDBName
	}
	return filepath.Join(home, ".letsfight", DefaultDBName)
}

// Validate checks the settings of every component.
func (s Settings) Validate() error {
	if !(s.Pipeline.Alpha > 0 && s.Pipeline.Alpha <= 1) {
		return fmt.Errorf("%w: got %v", smoothing.ErrInvalidAlpha, s.Pipeline.Alpha)
	}
	if err := s.Pipeline.Action.Validate(); err != nil {
		return err
	}
	if s.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", s.FPS)
	}
	if s.GapResetFrames < 1 {
		return fmt.Errorf("gap_reset_frames must be at least 1, got %d", s.GapResetFrames)
	}
	if s.CameraID < 0 {
		return fmt.Errorf("camera_id must be non-negative, got %d", s.CameraID)
	}
	if s.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	for name, v := range map[string]float64{
		"min_detection_confidence": s.Detector.MinConfidence,
		"min_tracking_confidence":  s.Detector.MinTrackingConf,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %f", name, v)
		}
	}
	if c := s.Detector.ModelComplexity; c < 0 || c > 2 {
		return fmt.Errorf("model_complexity must be 0, 1 or 2, got %d", c)
	}
	return nil
}

// File is the on-disk configuration. Every field is optional; nil fields
// keep their defaults, so partial files are safe.
type File struct {
	// Smoothing
	Alpha *float64 `json:"alpha,omitempty"`

	// Jab
	JabVelocity   *float64 `json:"jab_velocity,omitempty"`
	JabElbowAngle *float64 `json:"jab_elbow_angle,omitempty"`
	JabCooldown   *int     `json:"jab_cooldown,omitempty"`
	HistorySize   *int     `json:"history_size,omitempty"`

	// Guard
	GuardDistance       *float64 `json:"guard_distance,omitempty"`
	GuardVelocity       *float64 `json:"guard_velocity,omitempty"`
	GuardPersistence    *int     `json:"guard_persistence,omitempty"`
	GuardFullConfidence *int     `json:"guard_full_confidence,omitempty"`

	// Idle and stabilization
	IdleVelocityGain *float64 `json:"idle_velocity_gain,omitempty"`
	DebounceFrames   *int     `json:"debounce_frames,omitempty"`

	// Detector
	ModelComplexity        *int     `json:"model_complexity,omitempty"`
	SmoothLandmarks        *bool    `json:"smooth_landmarks,omitempty"`
	MinDetectionConfidence *float64 `json:"min_detection_confidence,omitempty"`
	MinTrackingConfidence  *float64 `json:"min_tracking_confidence,omitempty"`

	// Application
	CameraID       *int    `json:"camera_id,omitempty"`
	FPS            *int    `json:"fps,omitempty"`
	GapResetFrames *int    `json:"gap_reset_frames,omitempty"`
	Addr           *string `json:"addr,omitempty"`
	DBPath         *string `json:"db_path,omitempty"`
}

// Load reads a File from a JSON path.
// The path must have a .json extension and the file must be under 1MB.
func Load(path string) (*File, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	f := &File{}
	if err := json.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return f, nil
}

// Apply overlays the fields set in f onto s.
func (f *File) Apply(s *Settings) {
	if f == nil {
		return
	}

	setFloat(&s.Pipeline.Alpha, f.Alpha)

	a := &s.Pipeline.Action
	setFloat(&a.JabVelocity, f.JabVelocity)
	setFloat(&a.JabElbowAngle, f.JabElbowAngle)
	setInt(&a.JabCooldown, f.JabCooldown)
	setInt(&a.HistorySize, f.HistorySize)
	setFloat(&a.GuardDistance, f.GuardDistance)
	setFloat(&a.GuardVelocity, f.GuardVelocity)
	setInt(&a.GuardPersistence, f.GuardPersistence)
	setInt(&a.GuardFullConfidence, f.GuardFullConfidence)
	setFloat(&a.IdleVelocityGain, f.IdleVelocityGain)
	setInt(&a.DebounceFrames, f.DebounceFrames)

	d := &s.Detector
	setInt(&d.ModelComplexity, f.ModelComplexity)
	if f.SmoothLandmarks != nil {
		d.SmoothLandmarks = *f.SmoothLandmarks
	}
	setFloat(&d.MinConfidence, f.MinDetectionConfidence)
	setFloat(&d.MinTrackingConf, f.MinTrackingConfidence)

	setInt(&s.CameraID, f.CameraID)
	setInt(&s.FPS, f.FPS)
	setInt(&s.GapResetFrames, f.GapResetFrames)
	setString(&s.Addr, f.Addr)
	setString(&s.DBPath, f.DBPath)
}

// Snapshot returns a File with every field set from s. Loading the
// encoded snapshot reproduces s.
func Snapshot(s Settings) *File {
	a := s.Pipeline.Action
	d := s.Detector
	return &File{
		Alpha: &s.Pipeline.Alpha,

		JabVelocity:   &a.JabVelocity,
		JabElbowAngle: &a.JabElbowAngle,
		JabCooldown:   &a.JabCooldown,
		HistorySize:   &a.HistorySize,

		GuardDistance:       &a.GuardDistance,
		GuardVelocity:       &a.GuardVelocity,
		GuardPersistence:    &a.GuardPersistence,
		GuardFullConfidence: &a.GuardFullConfidence,

		IdleVelocityGain: &a.IdleVelocityGain,
		DebounceFrames:   &a.DebounceFrames,

		ModelComplexity:        &d.ModelComplexity,
		SmoothLandmarks:        &d.SmoothLandmarks,
		MinDetectionConfidence: &d.MinConfidence,
		MinTrackingConfidence:  &d.MinTrackingConf,

		CameraID:       &s.CameraID,
		FPS:            &s.FPS,
		GapResetFrames: &s.GapResetFrames,
		Addr:           &s.Addr,
		DBPath:         &s.DBPath,
	}
}

// LoadSettings returns the defaults overlaid with the file at path.
// An empty path yields the defaults.
func LoadSettings(path string) (Settings, error) {
	s := Default()
	if path != "" {
		f, err := Load(path)
		if err != nil {
			return s, err
		}
		f.Apply(&s)
	}

	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("invalid configuration: %w", err)
	}
	return s, nil
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
