package warehouse

// DefaultRespawnDelay is the number of steps an item is absent from its
// pickup location after being picked up
const DefaultRespawnDelay int = 10

// Respawner keeps a countdown timer per item type. A timer of 0 means
// the item is present at its pickup location, while a positive timer
// counts the steps until it reappears.
type Respawner struct {
	delay  int
	types  []ItemType
	timers map[ItemType]int
}

// NewRespawner returns a Respawner for the argument item types, all of
// which start present
func NewRespawner(types []ItemType, delay int) *Respawner {
	r := &Respawner{
		delay:  delay,
		types:  append([]ItemType(nil), types...),
		timers: make(map[ItemType]int, len(types)),
	}
	r.Reset()
	return r
}

// Reset makes every item present
func (r *Respawner) Reset() {
	for _, t := range r.types {
		r.timers[t] = 0
	}
}

// Live returns whether an item of type t is present at its pickup
// location
func (r *Respawner) Live(t ItemType) bool {
	timer, ok := r.timers[t]
	return ok && timer == 0
}

// Consume removes the item of type t and starts its timer
func (r *Respawner) Consume(t ItemType) {
	r.timers[t] = r.delay
}

// Remaining returns the steps left until t reappears
func (r *Respawner) Remaining(t ItemType) int {
	return r.timers[t]
}

// Tick counts every running timer down by one and returns the item
// types which reappeared on this tick, in the Respawner's type order.
func (r *Respawner) Tick() []ItemType {
	var respawned []ItemType
	for _, t := range r.types {
		if r.timers[t] > 0 {
			r.timers[t]--
			if r.timers[t] == 0 {
				respawned = append(respawned, t)
			}
		}
	}
	return respawned
}
