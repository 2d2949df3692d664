package progress

import (
	"sort"
	"time"
)

// FoldRules parameterizes the replayable fold over a snapshot log.
type FoldRules struct {
	// Streak switches the fold to calendar-day streak accounting.
	Streak bool
	// MinQualifying discards positive contributions below the threshold
	// (team tracklog guard). Zero disables it.
	MinQualifying float64
	// MemberCap caps each positive contribution before summing (team
	// challenges). Zero disables it.
	MemberCap float64
}

// FoldResult is the materialized view derived from a snapshot log.
type FoldResult struct {
	Progress       float64
	Streak         int
	LastActivityAt *time.Time
}

// Fold replays snapshots in occurredAt order and derives the materialized
// progress. It is a pure function of the log: replaying the same log twice
// yields identical results, which is the basis for audit and dispute
// resolution. Wall-clock processing order never matters, only occurredAt.
func Fold(snapshots []Snapshot, rules FoldRules) FoldResult {
	ordered := make([]Snapshot, len(snapshots))
	copy(ordered, snapshots)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].OccurredAt.Equal(ordered[j].OccurredAt) {
			return ordered[i].OccurredAt.Before(ordered[j].OccurredAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	var result FoldResult
	lastDay := int64(-1)
	for _, s := range ordered {
		amount := s.Amount
		if amount > 0 {
			if rules.MinQualifying > 0 && amount < rules.MinQualifying {
				continue
			}
			if rules.MemberCap > 0 && amount > rules.MemberCap {
				amount = rules.MemberCap
			}
		}

		result.Progress += amount
		if result.Progress < 0 {
			result.Progress = 0
		}

		occurred := s.OccurredAt
		result.LastActivityAt = &occurred

		if rules.Streak && amount > 0 {
			day := calendarDay(s.OccurredAt)
			switch {
			case lastDay < 0, day > lastDay+1:
				result.Streak = 1
			case day == lastDay+1:
				result.Streak++
			}
			// Same-day contributions update progress but never the streak.
			if day > lastDay {
				lastDay = day
			}
		}
	}

	return result
}

// DecayStreak zeroes a streak whose last qualifying day is more than one
// calendar day behind now. Applied at aggregation time, never inside Fold,
// so the fold itself stays a pure function of the log.
func DecayStreak(streak int, lastActivityAt *time.Time, now time.Time) int {
	if streak == 0 || lastActivityAt == nil {
		return 0
	}
	if calendarDay(now) > calendarDay(*lastActivityAt)+1 {
		return 0
	}
	return streak
}

func calendarDay(t time.Time) int64 {
	return t.UTC().Unix() / 86400
}
