// Package pipeline chains normalization, smoothing, feature extraction and
// classification into a single per-frame call.
package pipeline

import (
	"fmt"

	"github.com/ayusman/letsfight/internal/action"
	"github.com/ayusman/letsfight/internal/body"
	"github.com/ayusman/letsfight/internal/feature"
	"github.com/ayusman/letsfight/internal/smoothing"
)

// Config holds the tunables of every stage.
type Config struct {
	Alpha  float64
	Action action.Config
}

// DefaultConfig returns the tuned pipeline configuration.
func DefaultConfig() Config {
	return Config{
		Alpha:  smoothing.DefaultAlpha,
		Action: action.DefaultConfig(),
	}
}

// Output is the result of processing one frame.
type Output struct {
	action.Result
	Landmarks *body.Pose // Smoothed, normalized landmarks
	Features  feature.Vector
}

// Pipeline runs Normalize, Smooth, Extract and Classify in order.
// It owns the state of one stream and is not safe for concurrent use.
type Pipeline struct {
	config     Config
	smoother   *smoothing.Smoother
	extractor  *feature.Extractor
	classifier *action.Classifier
}

// New creates a Pipeline, validating every stage's configuration.
func New(cfg Config) (*Pipeline, error) {
	smoother, err := smoothing.NewSmoother(cfg.Alpha)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	if err := cfg.Action.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	return &Pipeline{
		config:     cfg,
		smoother:   smoother,
		extractor:  feature.NewExtractor(),
		classifier: action.NewClassifier(cfg.Action),
	}, nil
}

// Process consumes one raw frame, treating the time since the previous
// frame as one frame unit.
func (p *Pipeline) Process(raw *body.Pose) Output {
	return p.ProcessDelta(raw, 1.0)
}

// ProcessDelta consumes one raw frame captured dt frame units after the previous one.
func (p *Pipeline) ProcessDelta(raw *body.Pose, dt float64) Output {
	smoothed := p.smoother.Smooth(raw.Normalize())
	features := p.extractor.Extract(smoothed, dt)
	result := p.classifier.Classify(features)

	return Output{
		Result:    result,
		Landmarks: smoothed,
		Features:  features,
	}
}

// ResetTracking forgets the previous frame so a reappearing body is not
// blended with, or measured against, a stale one. Classifier counters are kept.
func (p *Pipeline) ResetTracking() {
	p.smoother.Reset()
	p.extractor.Reset()
}

// Reset returns every stage to its initial state.
func (p *Pipeline) Reset() {
	p.ResetTracking()
	p.classifier.Reset()
}

// Stable returns the currently reported action.
func (p *Pipeline) Stable() action.Result {
	return p.classifier.Stable()
}

// Classifier exposes the classifier for inspection.
func (p *Pipeline) Classifier() *action.Classifier {
	return p.classifier
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.config
}
