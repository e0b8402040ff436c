package warehouse

import (
	"fmt"
	"math"
	"sort"
)

// ItemType identifies a category of item. Each item type has a single
// pickup location and a single delivery zone.
type ItemType string

// Position is a cell (x, y) on the grid. The x coordinate increases to
// the right and the y coordinate increases downwards.
type Position struct {
	X, Y int
}

// Add returns the position p translated by d
func (p Position) Add(d Position) Position {
	return Position{p.X + d.X, p.Y + d.Y}
}

// Manhattan returns the L1 distance between the cell p and the
// (possibly fractional) point (x, y)
func (p Position) Manhattan(x, y float64) float64 {
	return math.Abs(float64(p.X)-x) + math.Abs(float64(p.Y)-y)
}

func (p Position) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// Rect is an axis-aligned rectangle of grid cells with inclusive
// corners (X1, Y1) and (X2, Y2), where X1 <= X2 and Y1 <= Y2.
type Rect struct {
	X1, Y1, X2, Y2 int
}

// Contains returns whether cell (x, y) lies within the rectangle
func (r Rect) Contains(x, y int) bool {
	return r.X1 <= x && x <= r.X2 && r.Y1 <= y && y <= r.Y2
}

// Center returns the centre point of the rectangle, which need not lie
// on a cell
func (r Rect) Center() (x, y float64) {
	return float64(r.X1+r.X2) / 2, float64(r.Y1+r.Y2) / 2
}

// Zone is a delivery zone, accepting deliveries of a single item type
type Zone struct {
	Rect
	Accepts ItemType
}

// GridOracle answers queries about a static grid. Implementations must
// be pure: queries never mutate the grid.
type GridOracle interface {
	Dims() (width, height int)
	InBounds(x, y int) bool

	// Blocked returns true if (x, y) is out of bounds or an obstacle
	Blocked(x, y int) bool

	Pickup(t ItemType) (Position, bool)
	Zone(t ItemType) (Zone, bool)
}

// Map is a GridOracle over a static tile grid with walls, one pickup
// location per item type, and one delivery zone per item type.
type Map struct {
	width, height int
	walls         []bool // Row major
	pickups       map[ItemType]Position
	zones         map[ItemType]Zone
}

// NewMap returns a new Map of the given width and height. Pickups and
// delivery zones must lie within the grid and pickups may not be placed
// on walls.
func NewMap(width, height int, walls []Position,
	pickups map[ItemType]Position, zones map[ItemType]Zone) (*Map, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("newMap: %w: illegal dimensions (%d, %d)",
			ErrConfiguration, width, height)
	}

	m := &Map{
		width:   width,
		height:  height,
		walls:   make([]bool, width*height),
		pickups: make(map[ItemType]Position, len(pickups)),
		zones:   make(map[ItemType]Zone, len(zones)),
	}

	for _, w := range walls {
		if !m.InBounds(w.X, w.Y) {
			return nil, fmt.Errorf("newMap: %w: wall %v out of bounds",
				ErrConfiguration, w)
		}
		m.walls[m.index(w.X, w.Y)] = true
	}

	for t, p := range pickups {
		if m.Blocked(p.X, p.Y) {
			return nil, fmt.Errorf("newMap: %w: pickup for item %v at %v "+
				"is blocked", ErrConfiguration, t, p)
		}
		m.pickups[t] = p
	}

	for t, z := range zones {
		if z.X1 > z.X2 || z.Y1 > z.Y2 {
			return nil, fmt.Errorf("newMap: %w: zone for item %v has "+
				"inverted corners %+v", ErrConfiguration, t, z.Rect)
		}
		if !m.InBounds(z.X1, z.Y1) || !m.InBounds(z.X2, z.Y2) {
			return nil, fmt.Errorf("newMap: %w: zone for item %v out of "+
				"bounds", ErrConfiguration, t)
		}
		if !m.hasOpenCell(z.Rect) {
			return nil, fmt.Errorf("newMap: %w: zone for item %v lies "+
				"entirely on walls", ErrConfiguration, t)
		}
		if z.Accepts == "" {
			z.Accepts = t
		}
		m.zones[t] = z
	}

	return m, nil
}

// Dims returns the width and height of the grid
func (m *Map) Dims() (width, height int) {
	return m.width, m.height
}

// InBounds returns whether (x, y) is a cell on the grid
func (m *Map) InBounds(x, y int) bool {
	return 0 <= x && x < m.width && 0 <= y && y < m.height
}

// Blocked returns whether (x, y) is out of bounds or a wall
func (m *Map) Blocked(x, y int) bool {
	if !m.InBounds(x, y) {
		return true
	}
	return m.walls[m.index(x, y)]
}

// Pickup returns the pickup location of items of type t
func (m *Map) Pickup(t ItemType) (Position, bool) {
	p, ok := m.pickups[t]
	return p, ok
}

// Zone returns the delivery zone of items of type t
func (m *Map) Zone(t ItemType) (Zone, bool) {
	z, ok := m.zones[t]
	return z, ok
}

// ZoneAt returns the zones containing cell (x, y), ordered by item type
func (m *Map) ZoneAt(x, y int) []Zone {
	return zonesAt(m, m.ItemTypes(), x, y)
}

// ItemTypes returns the item types with a pickup location, sorted
func (m *Map) ItemTypes() []ItemType {
	types := make([]ItemType, 0, len(m.pickups))
	for t := range m.pickups {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// hasOpenCell returns whether some cell of r is not a wall
func (m *Map) hasOpenCell(r Rect) bool {
	for y := r.Y1; y <= r.Y2; y++ {
		for x := r.X1; x <= r.X2; x++ {
			if !m.Blocked(x, y) {
				return true
			}
		}
	}
	return false
}

func (m *Map) index(x, y int) int {
	return y*m.width + x
}

func (m *Map) String() string {
	return fmt.Sprintf("Map | Dims: (%d, %d)  |  Pickups: %v  |  Zones: %v",
		m.width, m.height, m.pickups, m.zones)
}

// zonesAt returns the zones of the argument item types on grid which
// contain cell (x, y)
func zonesAt(grid GridOracle, types []ItemType, x, y int) []Zone {
	var zones []Zone
	for _, t := range types {
		if z, ok := grid.Zone(t); ok && z.Contains(x, y) {
			zones = append(zones, z)
		}
	}
	return zones
}

// walls returns every blocked cell of grid in row-major order
func walls(grid GridOracle) []Position {
	w, h := grid.Dims()
	var cells []Position
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if grid.Blocked(x, y) {
				cells = append(cells, Position{x, y})
			}
		}
	}
	return cells
}
