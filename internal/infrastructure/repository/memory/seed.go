package memory

import (
	"time"

	"github.com/fitarena/challenge-engine/internal/domain/challenge"
)

const (
	ChallengeIDSpringDistance = "chl-spring-distance-2026"
	ChallengeIDClubRelay      = "chl-club-relay-2026"
	ChallengeIDMorningStreak  = "chl-morning-streak-2026"
)

// SeedChallenges provides demo challenges for memory mode so the API is
// explorable without a database.
func SeedChallenges() []challenge.Challenge {
	created := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	return []challenge.Challenge{
		{
			ID:              ChallengeIDSpringDistance,
			Name:            "Spring Distance Dash",
			Description:     "Run or walk 100 km before the season opener.",
			Category:        challenge.CategoryIndividual,
			Type:            challenge.TypeDistance,
			Difficulty:      challenge.DifficultyModerate,
			Visibility:      challenge.VisibilityPublic,
			TargetValue:     100,
			TargetUnit:      "km",
			StartDate:       time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			EndDate:         time.Date(2026, 5, 31, 23, 59, 59, 0, time.UTC),
			MaxParticipants: 500,
			AdmissionPolicy: challenge.AdmissionOpen,
			Status:          challenge.StatusPublished,
			CreatedBy:       "seed",
			CreatedAt:       created,
			UpdatedAt:       created,
		},
		{
			ID:              ChallengeIDClubRelay,
			Name:            "Inter-Club Relay",
			Description:     "Club squads race to a shared 1000 km target.",
			Category:        challenge.CategoryTeam,
			Type:            challenge.TypeDistance,
			Difficulty:      challenge.DifficultyHard,
			Visibility:      challenge.VisibilityInviteOnly,
			TargetValue:     1000,
			TargetUnit:      "km",
			StartDate:       time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
			EndDate:         time.Date(2026, 6, 30, 23, 59, 59, 0, time.UTC),
			MaxTeams:        8,
			MaxTeamMembers:  10,
			AdmissionPolicy: challenge.AdmissionOpen,

			MaxIndividualContribution: 25,
			MinTracklogDistance:       1,

			Status:    challenge.StatusPublished,
			CreatedBy: "seed",
			CreatedAt: created,
			UpdatedAt: created,
		},
		{
			ID:              ChallengeIDMorningStreak,
			Name:            "Morning Mover Streak",
			Description:     "Log a workout every day for 30 days straight.",
			Category:        challenge.CategoryIndividual,
			Type:            challenge.TypeStreak,
			Difficulty:      challenge.DifficultyEasy,
			Visibility:      challenge.VisibilityPublic,
			TargetValue:     30,
			TargetUnit:      "sessions",
			StartDate:       time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			EndDate:         time.Date(2026, 4, 30, 23, 59, 59, 0, time.UTC),
			MaxParticipants: 1000,
			AdmissionPolicy: challenge.AdmissionOpen,
			Status:          challenge.StatusPublished,
			CreatedBy:       "seed",
			CreatedAt:       created,
			UpdatedAt:       created,
		},
	}
}
