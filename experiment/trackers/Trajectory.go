package trackers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/samuelfneumann/gowarehouse/environment/warehouse"
	ts "github.com/samuelfneumann/gowarehouse/timestep"
)

// Frame is a single recorded timestep of a trajectory
type Frame struct {
	Episode int `json:"episode"`
	warehouse.Snapshot
}

// Trajectory records the post-step state of an environment on every
// timestep as zstd-compressed JSON lines, one Frame per line. Frames
// are written as they are tracked; Save flushes and closes the file.
type Trajectory struct {
	env     Snapshotter
	episode int

	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
	err error
}

// NewTrajectory returns a new Trajectory tracker of env writing to the
// file at path
func NewTrajectory(path string, env Snapshotter) (*Trajectory, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("newTrajectory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("newTrajectory: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("newTrajectory: %w", err)
	}

	return &Trajectory{
		env:     env,
		episode: -1,
		f:       f,
		enc:     enc,
		w:       bufio.NewWriterSize(enc, 64*1024),
	}, nil
}

// Track writes the environment's current state. Write errors are
// returned by Save, and no further frames are written after an error.
func (t *Trajectory) Track(step ts.TimeStep) {
	if t.err != nil || t.w == nil {
		return
	}
	if step.First() {
		t.episode++
	}

	b, err := json.Marshal(Frame{Episode: t.episode, Snapshot: t.env.Snapshot()})
	if err != nil {
		t.err = err
		return
	}
	if _, err := t.w.Write(b); err != nil {
		t.err = err
		return
	}
	t.err = t.w.WriteByte('\n')
}

// Save flushes all recorded frames and closes the file. No frames can
// be tracked after Save is called.
func (t *Trajectory) Save() error {
	if t.w == nil {
		return t.err
	}

	if err := t.w.Flush(); err != nil && t.err == nil {
		t.err = err
	}
	if err := t.enc.Close(); err != nil && t.err == nil {
		t.err = err
	}
	if err := t.f.Close(); err != nil && t.err == nil {
		t.err = err
	}
	t.w, t.enc, t.f = nil, nil, nil

	if t.err != nil {
		return fmt.Errorf("save: %w", t.err)
	}
	return nil
}

// ReadTrajectory returns all frames recorded by a Trajectory at path
func ReadTrajectory(path string) ([]Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("readTrajectory: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("readTrajectory: %w", err)
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	var frames []Frame
	for sc.Scan() {
		var frame Frame
		if err := json.Unmarshal(sc.Bytes(), &frame); err != nil {
			return nil, fmt.Errorf("readTrajectory: frame %v: %w", len(frames),
				err)
		}
		frames = append(frames, frame)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("readTrajectory: %w", err)
	}
	return frames, nil
}
