package habit

import "time"

// CurrentStreak counts consecutive completed days ending at and including
// today, walking backward one day at a time and stopping at the first gap.
//
// If today itself is not marked complete the streak is 0 no matter how long
// the run before it is. That is the documented contract: the streak only
// counts once today is part of the unbroken run.
func CurrentStreak(completions map[string]bool, today time.Time) int {
	streak := 0
	for day := today; completions[Key(day)]; day = day.AddDate(0, 0, -1) {
		streak++
	}
	return streak
}
