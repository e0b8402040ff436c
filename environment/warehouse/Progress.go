package warehouse

// Progress holds the one-shot bonus flags of a single carry/delivery
// cycle. A fresh Progress is built on every pickup and every episode
// reset; it is never zeroed field by field.
type Progress struct {
	// EnteredDeliveryArea is set the first time the drone is in the
	// delivery area while holding an item, and cleared on delivery
	EnteredDeliveryArea bool

	// ExitedDeliveryArea is set when the exit bonus is paid
	ExitedDeliveryArea bool

	// ExitedBarrier[i] is set when the bonus for crossing barrier i is paid
	ExitedBarrier []bool

	// EntryBonusRemaining is the entry bonus paid on the next step spent
	// in the delivery area while holding an item
	EntryBonusRemaining float64

	// InsidePenalty is the penalty charged for each step spent in the
	// delivery area without an item after a delivery
	InsidePenalty float64
}

func newProgress(barriers int, entryBonus float64) Progress {
	return Progress{
		ExitedBarrier:       make([]bool, barriers),
		EntryBonusRemaining: entryBonus,
	}
}
