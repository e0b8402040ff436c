package warehouse

import (
	"fmt"
	"math"

	env "github.com/samuelfneumann/gowarehouse/environment"
	"gonum.org/v1/gonum/mat"
)

// Sensing directions of the obstacle features, in observation order
var sensing = [...]Position{
	{0, -1}, // North
	{0, 1},  // South
	{1, 0},  // East
	{-1, 0}, // West
}

// Encoder converts the state of an Episode into a fixed-length
// observation vector with every feature in [0, 1]:
//
//	[x, y, held one-hot, pickup (x, y) per type, zone centre (x, y) per
//	type, blocked N, S, E, W]
//
// Coordinates are divided by the size of their dimension minus one.
// The obstacle features are 1.0 if the neighbouring cell is blocked and
// 0.0 otherwise, and are only present if obstacle sensing is enabled.
type Encoder struct {
	grid          GridOracle
	items         []ItemType
	index         map[ItemType]int
	obstacles     bool
	width, height int
	spec          env.Spec
}

// NewEncoder returns a new Encoder for the argument item types, with
// an observation specification derived from the number of item types
func NewEncoder(grid GridOracle, items []ItemType,
	obstacleSensing bool) (*Encoder, error) {
	return NewDeclaredEncoder(grid, items, obstacleSensing,
		ObservationDims(len(items), obstacleSensing))
}

// NewDeclaredEncoder returns a new Encoder whose observation
// specification has the declared length dims. The length of the
// encoding is checked against the specification; a mismatch is a
// configuration error.
func NewDeclaredEncoder(grid GridOracle, items []ItemType,
	obstacleSensing bool, dims int) (*Encoder, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("newDeclaredEncoder: %w: observation length "+
			"%v must be positive", ErrConfiguration, dims)
	}
	width, height := grid.Dims()

	index := make(map[ItemType]int, len(items))
	for i, t := range items {
		if _, ok := grid.Pickup(t); !ok {
			return nil, fmt.Errorf("newDeclaredEncoder: %w: item type %v has "+
				"no pickup location", ErrConfiguration, t)
		}
		if _, ok := grid.Zone(t); !ok {
			return nil, fmt.Errorf("newDeclaredEncoder: %w: item type %v has "+
				"no delivery zone", ErrConfiguration, t)
		}
		index[t] = i
	}

	e := &Encoder{
		grid:      grid,
		items:     append([]ItemType(nil), items...),
		index:     index,
		obstacles: obstacleSensing,
		width:     width,
		height:    height,
		spec:      observationSpec(dims),
	}

	probe := e.Encode(newDrone(Position{}))
	if !e.spec.Contains(probe) {
		return nil, fmt.Errorf("newDeclaredEncoder: %w: observation of "+
			"length %v does not match observation spec of length %v",
			ErrConfiguration, probe.Len(), e.spec.Shape.Len())
	}

	return e, nil
}

// ObservationDims returns the length of observations for n item types
func ObservationDims(n int, obstacleSensing bool) int {
	dims := 2 + n + 4*n
	if obstacleSensing {
		dims += len(sensing)
	}
	return dims
}

// Len returns the length of observation vectors
func (e *Encoder) Len() int {
	return ObservationDims(len(e.items), e.obstacles)
}

// Spec returns the observation specification
func (e *Encoder) Spec() env.Spec {
	return e.spec
}

func observationSpec(dims int) env.Spec {
	shape := mat.NewVecDense(dims, nil)
	lowerBound := mat.NewVecDense(dims, nil)
	upper := make([]float64, dims)
	for i := range upper {
		upper[i] = 1.0
	}
	upperBound := mat.NewVecDense(dims, upper)

	return env.NewSpec(shape, env.Observation, lowerBound, upperBound,
		env.Continuous)
}

// Encode returns the observation of the drone on the encoder's grid
func (e *Encoder) Encode(d *Drone) *mat.VecDense {
	obs := make([]float64, 0, e.Len())

	obs = append(obs, norm(float64(d.X), e.width), norm(float64(d.Y), e.height))

	held := make([]float64, len(e.items))
	if t, ok := d.Held(); ok {
		held[e.index[t]] = 1.0
	}
	obs = append(obs, held...)

	for _, t := range e.items {
		p, _ := e.grid.Pickup(t)
		obs = append(obs, norm(float64(p.X), e.width),
			norm(float64(p.Y), e.height))
	}

	for _, t := range e.items {
		z, _ := e.grid.Zone(t)
		x, y := z.Center()
		obs = append(obs, norm(x, e.width), norm(y, e.height))
	}

	if e.obstacles {
		for _, dir := range sensing {
			next := d.Add(dir)
			if e.grid.Blocked(next.X, next.Y) {
				obs = append(obs, 1.0)
			} else {
				obs = append(obs, 0.0)
			}
		}
	}

	return mat.NewVecDense(len(obs), obs)
}

// Features is a decoded observation
type Features struct {
	Drone   Position
	Held    ItemType
	Holding bool

	// Pickups and ZoneCenters are ordered as the encoder's item types
	Pickups     []Position
	ZoneCenters [][2]float64

	// Blocked holds the obstacle features in N, S, E, W order. It is
	// nil if obstacle sensing is disabled.
	Blocked []bool
}

// Decode inverts Encode, recovering grid coordinates from an
// observation vector
func (e *Encoder) Decode(obs mat.Vector) (Features, error) {
	if obs.Len() != e.Len() {
		return Features{}, fmt.Errorf("decode: %w: observation length %v, "+
			"want %v", ErrConfiguration, obs.Len(), e.Len())
	}

	var f Features
	i := 0
	f.Drone = Position{
		X: cell(obs.AtVec(i), e.width),
		Y: cell(obs.AtVec(i+1), e.height),
	}
	i += 2

	for j, t := range e.items {
		if obs.AtVec(i+j) == 1.0 {
			f.Held, f.Holding = t, true
		}
	}
	i += len(e.items)

	for range e.items {
		f.Pickups = append(f.Pickups, Position{
			X: cell(obs.AtVec(i), e.width),
			Y: cell(obs.AtVec(i+1), e.height),
		})
		i += 2
	}

	for range e.items {
		f.ZoneCenters = append(f.ZoneCenters, [2]float64{
			obs.AtVec(i) * float64(e.width-1),
			obs.AtVec(i+1) * float64(e.height-1),
		})
		i += 2
	}

	if e.obstacles {
		for range sensing {
			f.Blocked = append(f.Blocked, obs.AtVec(i) == 1.0)
			i++
		}
	}

	return f, nil
}

// Items returns the item types in observation order
func (e *Encoder) Items() []ItemType {
	return append([]ItemType(nil), e.items...)
}

// norm normalizes v by the size of its dimension
func norm(v float64, size int) float64 {
	if size <= 1 {
		return 0.0
	}
	return v / float64(size-1)
}

func cell(v float64, size int) int {
	return int(math.Round(v * float64(size-1)))
}
