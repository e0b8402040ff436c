package render

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/samuelfneumann/gowarehouse/environment/warehouse"
	"github.com/samuelfneumann/gowarehouse/experiment/trackers"
	ts "github.com/samuelfneumann/gowarehouse/timestep"
	"github.com/samuelfneumann/gowarehouse/utils/floatutils"
	"gonum.org/v1/gonum/spatial/r1"
)

// Colours of the PNG frames
var (
	Floor      = color.RGBA{R: 235, G: 235, B: 235, A: 255}
	WallShade  = color.RGBA{R: 60, G: 60, B: 60, A: 255}
	ZoneShade  = color.RGBA{R: 170, G: 200, B: 240, A: 255}
	PickupFill = color.RGBA{R: 60, G: 170, B: 80, A: 255}
	DroneEmpty = color.RGBA{R: 40, G: 90, B: 200, A: 255}
	DroneFull  = color.RGBA{R: 230, G: 170, B: 20, A: 255}
	RewardBar  = color.RGBA{R: 200, G: 60, B: 60, A: 255}
)

// Draw draws a snapshot with square cells of cell pixels. Below the
// grid, a bar of height cell/2 shows the last reward normalized over
// rewards.
func Draw(s warehouse.Snapshot, cell int, rewards r1.Interval) image.Image {
	size := float64(cell)
	bar := barHeight(cell)

	dc := gg.NewContext(s.Width*cell, s.Height*cell+bar)
	dc.SetColor(Floor)
	dc.Clear()

	for _, z := range s.Zones {
		dc.DrawRectangle(float64(z.X1)*size, float64(z.Y1)*size,
			float64(z.X2-z.X1+1)*size, float64(z.Y2-z.Y1+1)*size)
	}
	dc.SetColor(ZoneShade)
	dc.Fill()

	for _, w := range s.Walls {
		dc.DrawRectangle(float64(w.X)*size, float64(w.Y)*size, size, size)
	}
	dc.SetColor(WallShade)
	dc.Fill()

	inset := size / 4
	for _, p := range s.Pickups {
		dc.DrawRectangle(float64(p.X)*size+inset, float64(p.Y)*size+inset,
			size-2*inset, size-2*inset)
	}
	dc.SetColor(PickupFill)
	dc.Fill()

	dc.DrawCircle(float64(s.Drone.X)*size+size/2,
		float64(s.Drone.Y)*size+size/2, size*0.4)
	if s.Holding {
		dc.SetColor(DroneFull)
	} else {
		dc.SetColor(DroneEmpty)
	}
	dc.Fill()

	length := floatutils.Normalize(s.Reward, rewards) * float64(s.Width*cell)
	if length > 0 {
		dc.DrawRectangle(0, float64(s.Height*cell), length, float64(bar))
		dc.SetColor(RewardBar)
		dc.Fill()
	}

	return dc.Image()
}

func barHeight(cell int) int {
	if cell < 2 {
		return 1
	}
	return cell / 2
}

// SavePNG draws a snapshot and saves it as a PNG image
func SavePNG(path string, s warehouse.Snapshot, cell int,
	rewards r1.Interval) error {
	if err := gg.SavePNG(path, Draw(s, cell, rewards)); err != nil {
		return fmt.Errorf("savePNG: %w", err)
	}
	return nil
}

// Frames is a Tracker which saves a PNG frame of the environment after
// every timestep. Frames are numbered in the order they are tracked.
type Frames struct {
	dir     string
	env     trackers.Snapshotter
	cell    int
	rewards r1.Interval

	count int
	err   error
}

// NewFrames returns a new Frames Tracker saving frames in dir. The
// reward bar of each frame is normalized over rewards.
func NewFrames(dir string, env trackers.Snapshotter, cell int,
	rewards r1.Interval) (*Frames, error) {
	if cell < 1 {
		return nil, fmt.Errorf("newFrames: cell size must be positive")
	}
	return &Frames{dir: dir, env: env, cell: cell, rewards: rewards}, nil
}

// Track saves the current frame of the environment. After the first
// failure, no more frames are saved.
func (f *Frames) Track(ts.TimeStep) {
	if f.err != nil {
		return
	}
	path := filepath.Join(f.dir, fmt.Sprintf("frame_%06d.png", f.count))
	f.err = SavePNG(path, f.env.Snapshot(), f.cell, f.rewards)
	f.count++
}

// Count returns the number of frames tracked
func (f *Frames) Count() int {
	return f.count
}

// Save returns the first error encountered while saving frames
func (f *Frames) Save() error {
	if f.err != nil {
		return fmt.Errorf("save: %w", f.err)
	}
	return nil
}
