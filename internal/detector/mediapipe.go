package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/letsfight/internal/body"
)

const (
	poseServiceScript = "scripts/pose_service.py"
	venvPython        = "venv/bin/python"
	idleShutdown      = 30 * time.Second
)

// MediaPipeDetector implements Detector using a Python MediaPipe Pose subprocess.
//
// Frames are written to the helper's stdin as a 4-byte big-endian length
// followed by JPEG bytes. The helper answers with one JSON line per frame.
type MediaPipeDetector struct {
	config     Config
	scriptPath string
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stdout     *bufio.Reader
	mu         sync.Mutex
	started    bool
	idleTimer  *time.Timer
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is started lazily on first detection and stopped
// after 30 seconds without frames.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	scriptPath := locate(poseServiceScript)
	if scriptPath == "" {
		return nil, fmt.Errorf("%s not found", filepath.Base(poseServiceScript))
	}

	return &MediaPipeDetector{
		config:     config,
		scriptPath: scriptPath,
	}, nil
}

// Detect analyzes a frame and returns the detected pose, or nil if no body is visible.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) (*body.Pose, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.start(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	line, err := roundTrip(d.stdin, d.stdout, buf.GetBytes())
	if err != nil {
		// The stream is out of step with the service; restart on the next frame.
		d.stop()
		return nil, err
	}
	d.resetIdleTimer()

	return parseResponse(line)
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stop()
}

// roundTrip sends one length-prefixed frame and reads the reply line.
func roundTrip(w io.Writer, r *bufio.Reader, jpeg []byte) ([]byte, error) {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(jpeg)))

	if _, err := w.Write(header[:]); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := w.Write(jpeg); err != nil {
		return nil, fmt.Errorf("write frame: %w", err)
	}

	line, err := r.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return line, nil
}

func (d *MediaPipeDetector) args() []string {
	return []string{
		d.scriptPath,
		"--model-complexity", strconv.Itoa(d.config.ModelComplexity),
		"--smooth-landmarks=" + strconv.FormatBool(d.config.SmoothLandmarks),
		"--min-detection-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(d.config.MinTrackingConf, 'f', -1, 64),
	}
}

func (d *MediaPipeDetector) start() error {
	if d.started {
		return nil
	}

	python := locate(venvPython)
	if python == "" {
		python = "python3"
	}

	cmd := exec.Command(python, d.args()...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start pose service: %w", err)
	}

	d.cmd = cmd
	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true

	return nil
}

// stop closes stdin, which ends the service's read loop, and waits for it.
func (d *MediaPipeDetector) stop() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	d.stdin.Close()
	err := d.cmd.Wait()

	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(idleShutdown, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.stop()
	})
}

// locate resolves rel against the working directory, its parent, the
// executable's directory and ~/.letsfight, returning the first that exists.
func locate(rel string) string {
	dirs := []string{".", ".."}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".letsfight"))
	}

	for _, dir := range dirs {
		path := filepath.Join(dir, rel)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}
	return ""
}

// jsonResponse is one line written by the pose service.
type jsonResponse struct {
	Pose *jsonPose `json:"pose"`
}

type jsonPose struct {
	Landmarks []body.Landmark `json:"landmarks"`
	Score     float64         `json:"score"`
}

// parseResponse decodes a pose service line. A null pose means no body was detected.
func parseResponse(line []byte) (*body.Pose, error) {
	var resp jsonResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if resp.Pose == nil || len(resp.Pose.Landmarks) == 0 {
		return nil, nil
	}

	pose, err := body.NewPose(resp.Pose.Landmarks)
	if err != nil {
		return nil, fmt.Errorf("pose service: %w", err)
	}
	pose.Score = resp.Pose.Score

	return pose, nil
}
