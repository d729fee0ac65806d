package model

import "sort"

// seedWarmStart hints a greedy first-fit assignment: every instance
// takes the earliest slot that keeps the attendee conflict-free and
// respects the daily-repeat rule. Size bounds are deliberately ignored;
// the backend keeps the hint only if it happens to satisfy the full
// model and drops it otherwise. Must run after the activation literals
// exist so the hint can switch them on.
func seedWarmStart(state *planState, horizon Horizon) {
	slots := horizon.Slots()
	for a, curriculum := range state.curricula {
		occupied := make([]bool, slots)
		courseOnDay := make(map[[2]int]bool)

		courses := make([]int, 0, len(curriculum))
		for course := range curriculum {
			courses = append(courses, course)
		}
		sort.Ints(courses)

		for _, course := range courses {
			for instance := 0; instance < curriculum[course]; instance++ {
				for slot := 0; slot < slots; slot++ {
					day := horizon.Slot(slot).Day
					if occupied[slot] || courseOnDay[[2]int{course, day}] {
						continue
					}
					occupied[slot] = true
					courseOnDay[[2]int{course, day}] = true
					state.model.SetHint(state.indexer.variable(a, course, instance, slot), true)
					state.model.SetHint(state.active[course][slot], true)
					break
				}
			}
		}
	}
}
