package search

import "busroot.app/internal/models"

// TimingSlots lays out the schedule grid for a bus: every ordered stop pair in
// the forward direction, then every pair in the backward direction. A slot is
// marked scheduled when a timing exists for exactly that pair.
func TimingSlots(bus models.Bus) []models.TimingSlot {
	stops := bus.Route.Stops()
	slots := make([]models.TimingSlot, 0, len(stops)*(len(stops)-1))

	for i := 0; i < len(stops)-1; i++ {
		for j := i + 1; j < len(stops); j++ {
			slots = append(slots, slotFor(bus.Timings, stops[i], stops[j], true))
		}
	}
	for i := len(stops) - 1; i > 0; i-- {
		for j := i - 1; j >= 0; j-- {
			slots = append(slots, slotFor(bus.Timings, stops[i], stops[j], false))
		}
	}
	return slots
}

func slotFor(timings []models.Timing, from, to string, forward bool) models.TimingSlot {
	slot := models.TimingSlot{Start: from, End: to, Forward: forward}
	for _, timing := range timings {
		if timing.Start == from && timing.End == to {
			slot.Time = timing.Time
			slot.Scheduled = true
			break
		}
	}
	return slot
}
