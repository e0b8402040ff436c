// Package render draws warehouse snapshots for people to look at:
// coloured text grids for the terminal, PNG frames, and HTML charts of
// episodic returns.
package render

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/logrusorgru/aurora"
	"github.com/samuelfneumann/gowarehouse/environment/warehouse"
	"github.com/samuelfneumann/gowarehouse/experiment/trackers"
	ts "github.com/samuelfneumann/gowarehouse/timestep"
)

// Cell glyphs of the text grid. Pickups are drawn with the upper case
// first letter of their item type and delivery zones with the lower
// case letter.
const (
	DroneGlyph = '@'
	WallGlyph  = '#'
	OpenGlyph  = '.'
)

// Grid returns the text grid of a snapshot, preceded by a status line.
// If colours is false, no escape sequences are written.
func Grid(s warehouse.Snapshot, colours bool) string {
	au := aurora.NewAurora(colours)

	walls := make(map[warehouse.Position]bool, len(s.Walls))
	for _, p := range s.Walls {
		walls[p] = true
	}
	pickups := make(map[warehouse.Position]warehouse.ItemType, len(s.Pickups))
	for t, p := range s.Pickups {
		pickups[p] = t
	}

	var b strings.Builder
	fmt.Fprintf(&b, "step %d | deliveries %d | reward %.2f", s.Step,
		s.Deliveries, s.Reward)
	if s.Holding {
		fmt.Fprintf(&b, " | holding %v", s.Held)
	}
	b.WriteByte('\n')

	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			p := warehouse.Position{X: x, Y: y}

			switch t, isPickup := pickups[p]; {
			case p == s.Drone:
				if s.Holding {
					b.WriteString(au.Bold(au.Yellow(string(DroneGlyph))).String())
				} else {
					b.WriteString(au.Bold(au.Cyan(string(DroneGlyph))).String())
				}

			case isPickup:
				b.WriteString(au.Green(glyph(t, true)).String())

			case walls[p]:
				b.WriteString(au.Red(string(WallGlyph)).String())

			default:
				if z, ok := zoneAt(s, x, y); ok {
					b.WriteString(au.Blue(glyph(z.Accepts, false)).String())
				} else {
					b.WriteRune(OpenGlyph)
				}
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// glyph returns the letter an item type is drawn with
func glyph(t warehouse.ItemType, upper bool) string {
	r := '?'
	for _, first := range string(t) {
		r = first
		break
	}
	if upper {
		return string(unicode.ToUpper(r))
	}
	return string(unicode.ToLower(r))
}

// zoneAt returns the zone containing (x, y) with the smallest accepted
// item type, so that overlapping zones are always drawn the same way
func zoneAt(s warehouse.Snapshot, x, y int) (warehouse.Zone, bool) {
	var (
		found warehouse.Zone
		ok    bool
	)
	for _, z := range s.Zones {
		if z.Contains(x, y) && (!ok || z.Accepts < found.Accepts) {
			found, ok = z, true
		}
	}
	return found, ok
}

// Terminal is a Tracker which draws the environment after every
// timestep
type Terminal struct {
	env     trackers.Snapshotter
	out     io.Writer
	colours bool
}

// NewTerminal returns a new Terminal drawing env to out
func NewTerminal(out io.Writer, env trackers.Snapshotter,
	colours bool) *Terminal {
	return &Terminal{env: env, out: out, colours: colours}
}

// Track draws the current snapshot of the environment
func (t *Terminal) Track(step ts.TimeStep) {
	fmt.Fprintln(t.out, Grid(t.env.Snapshot(), t.colours))
}

// Save implements the Tracker interface. Frames are written as they are
// tracked, so there is nothing to save.
func (t *Terminal) Save() error {
	return nil
}
