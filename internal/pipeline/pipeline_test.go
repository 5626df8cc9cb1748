package pipeline

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ayusman/letsfight/internal/action"
	"github.com/ayusman/letsfight/internal/body"
	"github.com/ayusman/letsfight/internal/feature"
	"github.com/ayusman/letsfight/internal/smoothing"
)

func mustNew(t *testing.T) *Pipeline {
	t.Helper()
	p, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

func guardPose() *body.Pose {
	p := body.GuardPose()
	return &p
}

func jabPose() *body.Pose {
	p := body.JabPose()
	return &p
}

func TestNew(t *testing.T) {
	t.Run("rejects invalid alpha", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Alpha = 0
		if _, err := New(cfg); !errors.Is(err, smoothing.ErrInvalidAlpha) {
			t.Errorf("expected ErrInvalidAlpha, got %v", err)
		}
	})

	t.Run("rejects invalid classifier config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Action.DebounceFrames = 0
		if _, err := New(cfg); !errors.Is(err, action.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("starts idle", func(t *testing.T) {
		p := mustNew(t)
		if got := p.Stable(); got.Action != action.Idle || got.Confidence != 0 {
			t.Errorf("Stable() = %+v, want IDLE with 0 confidence", got)
		}
	})
}

func TestPipeline_GuardThenJab(t *testing.T) {
	p := mustNew(t)

	// Guard needs 5 persistent frames plus one frame of debounce.
	for frame := 1; frame <= 10; frame++ {
		out := p.Process(guardPose())
		switch {
		case frame <= 5 && out.Action != action.Idle:
			t.Errorf("frame %d action = %s, want IDLE while the guard builds", frame, out.Action)
		case frame >= 6 && out.Action != action.Guard:
			t.Errorf("frame %d action = %s, want GUARD", frame, out.Action)
		}
	}
	if got := p.Stable(); got.Confidence != 1.0 {
		t.Errorf("guard confidence after 10 frames = %f, want 1.0", got.Confidence)
	}

	// The smoothed right arm takes a few frames to straighten past the
	// elbow threshold; the velocity burst from the first frame stays in history.
	var jabbed bool
	for frame := 1; frame <= 5; frame++ {
		out := p.Process(jabPose())
		if out.Action == action.Jab {
			jabbed = true
			if out.Confidence < 0 || out.Confidence > 1 {
				t.Errorf("jab confidence %f out of range", out.Confidence)
			}
			break
		}
	}
	if !jabbed {
		t.Fatal("expected a JAB within five frames of extending the arm")
	}

	// Holding the extended arm still settles back to IDLE.
	var out Output
	for frame := 0; frame < 30; frame++ {
		out = p.Process(jabPose())
	}
	if out.Action != action.Idle {
		t.Errorf("held arm action = %s, want IDLE", out.Action)
	}
}

func TestPipeline_Output(t *testing.T) {
	p := mustNew(t)
	raw := guardPose()
	before := raw.Clone()

	out := p.Process(raw)

	// The first frame passes through the smoother unchanged.
	if diff := cmp.Diff(raw.Normalize(), out.Landmarks, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("landmarks mismatch (-want +got):\n%s", diff)
	}
	for _, name := range feature.Names {
		if _, ok := out.Features[name]; !ok {
			t.Errorf("missing feature %q", name)
		}
	}
	if diff := cmp.Diff(before, raw); diff != "" {
		t.Errorf("raw pose was mutated:\n%s", diff)
	}
}

func TestPipeline_FramingInvariance(t *testing.T) {
	shift := func(src *body.Pose, dx, dy, scale float64) *body.Pose {
		out := src.Clone()
		for i := range out.Points {
			out.Points[i].X = out.Points[i].X*scale + dx
			out.Points[i].Y = out.Points[i].Y*scale + dy
			out.Points[i].Z *= scale
		}
		return out
	}

	near := mustNew(t)
	far := mustNew(t)

	frames := []*body.Pose{guardPose(), guardPose(), jabPose(), jabPose(), guardPose()}
	for i, f := range frames {
		a := near.Process(f)
		b := far.Process(shift(f, 0.2, -0.1, 0.5))

		if diff := cmp.Diff(a, b, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
			t.Errorf("frame %d differs with camera framing (-near +far):\n%s", i, diff)
		}
	}
}

func TestPipeline_ResetTracking(t *testing.T) {
	p := mustNew(t)
	for i := 0; i < 10; i++ {
		p.Process(guardPose())
	}

	p.ResetTracking()
	out := p.Process(jabPose())

	if out.Features[feature.RightWristVelocity] != 0 {
		t.Errorf("velocity after reset = %f, want 0", out.Features[feature.RightWristVelocity])
	}
	if diff := cmp.Diff(jabPose().Normalize(), out.Landmarks, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("first frame after reset should not be blended (-want +got):\n%s", diff)
	}
	if got := p.Classifier().GuardFrames(); got != 0 {
		t.Errorf("guard streak = %d, want 0 once the pose changes", got)
	}
}

func TestPipeline_Reset(t *testing.T) {
	p := mustNew(t)
	for i := 0; i < 10; i++ {
		p.Process(guardPose())
	}

	p.Reset()

	if got := p.Stable(); got.Action != action.Idle || got.Confidence != 0 {
		t.Errorf("Stable() after reset = %+v, want IDLE with 0 confidence", got)
	}
	if got := p.Classifier().GuardFrames(); got != 0 {
		t.Errorf("guard streak after reset = %d, want 0", got)
	}
}

func TestPipeline_ProcessDelta(t *testing.T) {
	a := mustNew(t)
	b := mustNew(t)

	a.Process(guardPose())
	b.Process(guardPose())

	slow := a.ProcessDelta(jabPose(), 1.0)
	fast := b.ProcessDelta(jabPose(), 0.5)

	want := 2 * slow.Features[feature.RightWristVelocity]
	got := fast.Features[feature.RightWristVelocity]
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(1e-9, 0)); diff != "" {
		t.Errorf("velocity at half dt (-want +got):\n%s", diff)
	}
}
