// Package envconfig provides configuration structs for configuring
// warehouse environments with their maps, rewards, and tasks.
// Configurations are read from YAML and validated against a JSON schema
// before use.
package envconfig

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/samuelfneumann/gowarehouse/environment"
	"github.com/samuelfneumann/gowarehouse/environment/warehouse"
	ts "github.com/samuelfneumann/gowarehouse/timestep"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gonum.org/v1/gonum/spatial/r1"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON string

// schema validates raw configuration documents
var schema = jsonschema.MustCompileString("warehouse.schema.json", schemaJSON)

// Map cell characters
const (
	Wall byte = '#'
	Open byte = '.'
)

// Config implements a specific configuration of a warehouse
// environment and its delivery task
type Config struct {
	Map           MapConfig     `yaml:"map"`
	Start         [2]int        `yaml:"start"`
	Jitter        int           `yaml:"jitter"`
	Items         []string      `yaml:"items"`
	Layout        LayoutConfig  `yaml:"layout"`
	Rewards       RewardsConfig `yaml:"rewards"`
	StepLimit     int           `yaml:"step_limit"`
	MaxDeliveries int           `yaml:"max_deliveries"`
	Discount      float64       `yaml:"discount"`
}

// MapConfig describes a grid. Each row is a string of Wall and Open
// characters, and all rows have the same length.
type MapConfig struct {
	Rows    []string              `yaml:"rows"`
	Pickups map[string][2]int     `yaml:"pickups"`
	Zones   map[string]ZoneConfig `yaml:"zones"`
}

// ZoneConfig describes a delivery zone as an inclusive rectangle
// (x1, y1, x2, y2). If Accepts is empty, the zone accepts the item type
// it is keyed by.
type ZoneConfig struct {
	Rect    [4]int `yaml:"rect"`
	Accepts string `yaml:"accepts,omitempty"`
}

// LayoutConfig describes the landmarks used for reward shaping
type LayoutConfig struct {
	RowThreshold    int    `yaml:"row_threshold"`
	Entrance        [2]int `yaml:"entrance"`
	Barriers        []int  `yaml:"barriers"`
	RespawnDelay    int    `yaml:"respawn_delay"`
	ObstacleSensing bool   `yaml:"obstacle_sensing"`

	// ObservationDims is the declared observation length, derived from
	// the item types if 0
	ObservationDims int `yaml:"observation_dims,omitempty"`
}

// RewardsConfig holds the reward values of the delivery task
type RewardsConfig struct {
	Step             float64 `yaml:"step"`
	Collision        float64 `yaml:"collision"`
	Shaping          float64 `yaml:"shaping"`
	Pickup           float64 `yaml:"pickup"`
	RejectedPickup   float64 `yaml:"rejected_pickup"`
	EntryBonus       float64 `yaml:"entry_bonus"`
	EntryDecrement   float64 `yaml:"entry_decrement"`
	Delivery         float64 `yaml:"delivery"`
	Exit             float64 `yaml:"exit"`
	Barrier          float64 `yaml:"barrier"`
	InsideMaxPenalty float64 `yaml:"inside_max_penalty"`
}

// baselineRows is the baseline warehouse. Shelves fill the storage
// area in the top rows, and a wall with a three cell gap separates it
// from the delivery area below.
var baselineRows = []string{
	"................",
	"................",
	".....########...",
	"................",
	"................",
	"................",
	".....########...",
	"................",
	"................",
	"#########...####",
	"................",
	"................",
	"................",
	"................",
	"................",
	"................",
}

// Default returns the configuration of the baseline warehouse with a
// single item type
func Default() Config {
	return Config{
		Map: MapConfig{
			Rows: append([]string(nil), baselineRows...),
			Pickups: map[string][2]int{
				"A": {3, 4},
				"B": {14, 1},
			},
			Zones: map[string]ZoneConfig{
				"A": {Rect: [4]int{7, 14, 10, 15}},
				"B": {Rect: [4]int{12, 14, 14, 15}},
			},
		},
		Start:         [2]int{14, 4},
		Items:         []string{"A"},
		Layout:        defaultLayout(),
		Rewards:       defaultRewards(),
		StepLimit:     200,
		MaxDeliveries: warehouse.DefaultMaxDeliveries,
		Discount:      0.99,
	}
}

func defaultLayout() LayoutConfig {
	l := warehouse.DefaultLayout()
	return LayoutConfig{
		RowThreshold:    l.RowThreshold,
		Entrance:        [2]int{l.Entrance.X, l.Entrance.Y},
		Barriers:        l.Barriers,
		RespawnDelay:    l.RespawnDelay,
		ObstacleSensing: l.ObstacleSensing,
	}
}

func defaultRewards() RewardsConfig {
	r := warehouse.DefaultRewards()
	return RewardsConfig{
		Step:             r.Step,
		Collision:        r.Collision,
		Shaping:          r.Shaping,
		Pickup:           r.Pickup,
		RejectedPickup:   r.RejectedPickup,
		EntryBonus:       r.EntryBonus,
		EntryDecrement:   r.EntryDecrement,
		Delivery:         r.Delivery,
		Exit:             r.Exit,
		Barrier:          r.Barrier,
		InsideMaxPenalty: r.InsideMaxPenalty,
	}
}

// Load reads a Config from the YAML file at path. Fields missing from
// the file other than the map, start, and items take their default
// values.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load: %w", err)
	}
	return Parse(raw)
}

// Parse reads a Config from a YAML document
func Parse(raw []byte) (Config, error) {
	if err := validateSchema(raw); err != nil {
		return Config{}, fmt.Errorf("parse: %w", err)
	}

	c := Default()
	c.Map = MapConfig{}
	c.Items = nil
	c.Layout.Barriers = nil
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Config{}, fmt.Errorf("parse: %w", err)
	}
	if c.Layout.Barriers == nil {
		c.Layout.Barriers = defaultLayout().Barriers
	}

	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("parse: %w", err)
	}
	return c, nil
}

// validateSchema validates a raw YAML document against the JSON schema
func validateSchema(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %v", warehouse.ErrConfiguration, err)
	}

	// The schema validator expects values as decoded by encoding/json
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", warehouse.ErrConfiguration, err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", warehouse.ErrConfiguration, err)
	}
	return nil
}

// Validate checks the parts of a Config which cannot be checked by the
// schema. Map contents are validated when the map is built.
func (c Config) Validate() error {
	if len(c.Map.Rows) == 0 {
		return fmt.Errorf("validate: %w: empty map", warehouse.ErrConfiguration)
	}
	width := len(c.Map.Rows[0])
	for y, row := range c.Map.Rows {
		if len(row) != width {
			return fmt.Errorf("validate: %w: row %v has length %v, want %v",
				warehouse.ErrConfiguration, y, len(row), width)
		}
		for x := 0; x < len(row); x++ {
			if row[x] != Wall && row[x] != Open {
				return fmt.Errorf("validate: %w: unknown cell %q at (%v, %v)",
					warehouse.ErrConfiguration, row[x], x, y)
			}
		}
	}

	if len(c.Items) == 0 {
		return fmt.Errorf("validate: %w: no item types",
			warehouse.ErrConfiguration)
	}

	unit := r1.Interval{Min: 0, Max: 1}
	if c.Discount < unit.Min || c.Discount > unit.Max {
		return fmt.Errorf("validate: %w: discount %v outside of [%v, %v]",
			warehouse.ErrConfiguration, c.Discount, unit.Min, unit.Max)
	}
	if c.Jitter < 0 {
		return fmt.Errorf("validate: %w: negative jitter %v",
			warehouse.ErrConfiguration, c.Jitter)
	}
	return nil
}

// Save writes the Config to path as YAML
func (c Config) Save(path string) error {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

// Grid returns the map described by the Config
func (c Config) Grid() (*warehouse.Map, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("grid: %w", err)
	}

	height := len(c.Map.Rows)
	width := len(c.Map.Rows[0])

	var walls []warehouse.Position
	for y, row := range c.Map.Rows {
		for x := 0; x < len(row); x++ {
			if row[x] == Wall {
				walls = append(walls, warehouse.Position{X: x, Y: y})
			}
		}
	}

	pickups := make(map[warehouse.ItemType]warehouse.Position,
		len(c.Map.Pickups))
	for t, p := range c.Map.Pickups {
		pickups[warehouse.ItemType(t)] = warehouse.Position{X: p[0], Y: p[1]}
	}

	zones := make(map[warehouse.ItemType]warehouse.Zone, len(c.Map.Zones))
	for t, z := range c.Map.Zones {
		zones[warehouse.ItemType(t)] = warehouse.Zone{
			Rect: warehouse.Rect{
				X1: z.Rect[0], Y1: z.Rect[1], X2: z.Rect[2], Y2: z.Rect[3],
			},
			Accepts: warehouse.ItemType(z.Accepts),
		}
	}

	m, err := warehouse.NewMap(width, height, walls, pickups, zones)
	if err != nil {
		return nil, fmt.Errorf("grid: %w", err)
	}
	return m, nil
}

// WarehouseLayout returns the warehouse.Layout described by the Config
func (c Config) WarehouseLayout() warehouse.Layout {
	items := make([]warehouse.ItemType, len(c.Items))
	for i, t := range c.Items {
		items[i] = warehouse.ItemType(t)
	}

	return warehouse.Layout{
		Items:        items,
		RowThreshold: c.Layout.RowThreshold,
		Entrance: warehouse.Position{
			X: c.Layout.Entrance[0],
			Y: c.Layout.Entrance[1],
		},
		Barriers:        append([]int(nil), c.Layout.Barriers...),
		RespawnDelay:    c.Layout.RespawnDelay,
		ObstacleSensing: c.Layout.ObstacleSensing,
		ObservationDims: c.Layout.ObservationDims,
	}
}

// WarehouseRewards returns the warehouse.Rewards described by the Config
func (c Config) WarehouseRewards() warehouse.Rewards {
	r := c.Rewards
	return warehouse.Rewards{
		Step:             r.Step,
		Collision:        r.Collision,
		Shaping:          r.Shaping,
		Pickup:           r.Pickup,
		RejectedPickup:   r.RejectedPickup,
		EntryBonus:       r.EntryBonus,
		EntryDecrement:   r.EntryDecrement,
		Delivery:         r.Delivery,
		Exit:             r.Exit,
		Barrier:          r.Barrier,
		InsideMaxPenalty: r.InsideMaxPenalty,
	}
}

// Create returns the environment described by the Config as well as
// the first timestep of the environment. Starting positions are jittered
// using seed.
func (c Config) Create(seed uint64) (*warehouse.Warehouse, ts.TimeStep,
	error) {
	grid, err := c.Grid()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
	}

	start := warehouse.Position{X: c.Start[0], Y: c.Start[1]}
	var s environment.Starter
	if c.Jitter == 0 {
		if grid.Blocked(start.X, start.Y) {
			return nil, ts.TimeStep{}, fmt.Errorf("create: %w: start %v is "+
				"blocked", warehouse.ErrConfiguration, start)
		}
		s = environment.NewSingleStart([]float64{
			float64(start.X), float64(start.Y),
		})
	} else {
		s, err = warehouse.NewJitterStart(start, c.Jitter, grid, seed)
		if err != nil {
			return nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
		}
	}

	task, err := warehouse.NewDeliver(s, c.WarehouseRewards(), c.StepLimit,
		c.MaxDeliveries)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
	}

	w, step, err := warehouse.New(task, grid, c.WarehouseLayout(), c.Discount)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
	}
	return w, step, nil
}
