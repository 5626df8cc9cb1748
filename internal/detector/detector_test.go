package detector

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ayusman/letsfight/internal/body"
)

func TestParseResponse(t *testing.T) {
	t.Run("null pose means no body", func(t *testing.T) {
		pose, err := parseResponse([]byte(`{"pose": null}` + "\n"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if pose != nil {
			t.Errorf("expected nil pose, got %+v", pose)
		}
	})

	t.Run("short landmark list is a contract violation", func(t *testing.T) {
		_, err := parseResponse([]byte(`{"pose": {"landmarks": [{"x":1,"y":2,"z":3,"visibility":1}], "score": 0.9}}`))
		if !errors.Is(err, body.ErrLandmarkCount) {
			t.Errorf("expected ErrLandmarkCount, got %v", err)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		if _, err := parseResponse([]byte("not json")); err == nil {
			t.Error("expected error for invalid JSON")
		}
	})
}

func TestRoundTrip(t *testing.T) {
	t.Run("frames the payload and returns the reply line", func(t *testing.T) {
		var sent bytes.Buffer
		reply := bufio.NewReader(strings.NewReader(`{"pose": null}` + "\n" + `{"pose": null}` + "\n"))

		line, err := roundTrip(&sent, reply, []byte{0xFF, 0xD8, 0xFF})
		if err != nil {
			t.Fatalf("roundTrip() error = %v", err)
		}
		if string(line) != `{"pose": null}`+"\n" {
			t.Errorf("line = %q, want the first reply only", line)
		}

		data := sent.Bytes()
		if len(data) != 7 {
			t.Fatalf("wrote %d bytes, want 4 header + 3 payload", len(data))
		}
		if n := binary.BigEndian.Uint32(data[:4]); n != 3 {
			t.Errorf("length header = %d, want 3", n)
		}
		if !bytes.Equal(data[4:], []byte{0xFF, 0xD8, 0xFF}) {
			t.Errorf("payload = %x", data[4:])
		}
	})

	t.Run("closed service", func(t *testing.T) {
		var sent bytes.Buffer
		_, err := roundTrip(&sent, bufio.NewReader(strings.NewReader("")), []byte{1})
		if !errors.Is(err, io.EOF) {
			t.Errorf("expected io.EOF, got %v", err)
		}
	})
}

func TestLocate(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "scripts"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "scripts", "pose_service.py"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	got, err := filepath.EvalSymlinks(locate(poseServiceScript))
	if err != nil {
		t.Fatalf("locate() returned an unusable path: %v", err)
	}
	want, _ := filepath.EvalSymlinks(filepath.Join(dir, "scripts", "pose_service.py"))
	if got != want {
		t.Errorf("locate() = %q, want %q", got, want)
	}

	if got := locate("scripts/missing.py"); got != "" {
		t.Errorf("locate() for a missing file = %q, want empty", got)
	}
}

func TestMockDetector(t *testing.T) {
	t.Run("returns no pose by default", func(t *testing.T) {
		mock := NewMockDetector()

		pose, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if pose != nil {
			t.Errorf("expected nil pose, got %v", pose)
		}
	})

	t.Run("returns configured pose", func(t *testing.T) {
		mock := NewMockDetector()
		guard := body.GuardPose()
		mock.SetPose(&guard)

		pose, err := mock.Detect(nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if pose == nil || pose.Points[body.LeftWrist] != guard.Points[body.LeftWrist] {
			t.Errorf("expected guard pose, got %v", pose)
		}
	})

	t.Run("plays back a sequence", func(t *testing.T) {
		mock := NewMockDetector()
		guard := body.GuardPose()
		jab := body.JabPose()
		mock.SetSequence([]*body.Pose{&guard, nil, &jab})

		first, _ := mock.Detect(nil)
		gap, _ := mock.Detect(nil)
		third, _ := mock.Detect(nil)
		done, _ := mock.Detect(nil)

		if first == nil || first.Points[body.RightWrist] != guard.Points[body.RightWrist] {
			t.Error("expected guard pose first")
		}
		if gap != nil {
			t.Error("expected gap second")
		}
		if third == nil || third.Points[body.RightWrist] != jab.Points[body.RightWrist] {
			t.Error("expected jab pose third")
		}
		if done != nil {
			t.Error("expected no pose after the sequence ends")
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		pose, err := mock.Detect(nil)

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if pose != nil {
			t.Errorf("expected nil pose when error is set, got %v", pose)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
	})
}
