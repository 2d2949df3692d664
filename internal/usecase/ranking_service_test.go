package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/fitarena/challenge-engine/internal/domain/challenge"
	"github.com/fitarena/challenge-engine/internal/domain/participant"
	"github.com/fitarena/challenge-engine/internal/domain/progress"
	"github.com/fitarena/challenge-engine/internal/domain/team"
	"github.com/fitarena/challenge-engine/internal/platform/cache"
	"github.com/fitarena/challenge-engine/internal/platform/logging"
)

func rankedParticipant(id, userID string, progressValue float64, joinedAt time.Time, status participant.Status) participant.Participant {
	return participant.Participant{
		ID:              id,
		ChallengeID:     "ch-1",
		UserID:          userID,
		Status:          status,
		JoinedAt:        joinedAt,
		CurrentProgress: progressValue,
	}
}

func TestRankingIndividualOrderAndTies(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	participants := newStubParticipantRepo(
		rankedParticipant("p-1", "user-1", 40, base, participant.StatusActive),
		rankedParticipant("p-2", "user-2", 55, base.Add(time.Hour), participant.StatusCompleted),
		// Same score as p-1 but joined later: shares the rank, sorts after.
		rankedParticipant("p-3", "user-3", 40, base.Add(2*time.Hour), participant.StatusActive),
		// Pending and terminal non-finishers never rank.
		rankedParticipant("p-4", "user-4", 99, base, participant.StatusPending),
		rankedParticipant("p-5", "user-5", 99, base, participant.StatusDropped),
		rankedParticipant("p-6", "user-6", 99, base, participant.StatusDisqualified),
	)
	svc := NewRankingService(newStubChallengeRepo(activeIndividualChallenge()), participants, newStubTeamRepo(), newStubProgressRepo(), cache.NewStore(time.Minute), logging.NewNop())

	board, err := svc.Rank(context.Background(), "ch-1")
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(board.Entries) != 3 {
		t.Fatalf("expected 3 ranked entries, got %+v", board.Entries)
	}

	if board.Entries[0].UserID != "user-2" || board.Entries[0].Rank != 1 || !board.Entries[0].Completed {
		t.Fatalf("unexpected leader: %+v", board.Entries[0])
	}
	if board.Entries[1].UserID != "user-1" || board.Entries[1].Rank != 2 {
		t.Fatalf("unexpected second entry: %+v", board.Entries[1])
	}
	if board.Entries[2].UserID != "user-3" || board.Entries[2].Rank != 2 {
		t.Fatalf("tied score must share the dense rank: %+v", board.Entries[2])
	}
}

func TestRankingStreakChallengeRanksByStreak(t *testing.T) {
	t.Parallel()

	ch := activeIndividualChallenge()
	ch.Type = challenge.TypeStreak
	ch.TargetValue = 30

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	low := rankedParticipant("p-1", "user-1", 500, base, participant.StatusActive)
	low.CurrentStreak = 3
	high := rankedParticipant("p-2", "user-2", 10, base, participant.StatusActive)
	high.CurrentStreak = 9

	svc := NewRankingService(newStubChallengeRepo(ch), newStubParticipantRepo(low, high), newStubTeamRepo(), newStubProgressRepo(), cache.NewStore(time.Minute), logging.NewNop())

	board, err := svc.Rank(context.Background(), "ch-1")
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if board.Entries[0].UserID != "user-2" || board.Entries[0].Score != 9 {
		t.Fatalf("streak challenge must rank by streak: %+v", board.Entries)
	}
}

func TestRankingTeamBoardFoldsCappedContributions(t *testing.T) {
	t.Parallel()

	ch := activeTeamChallenge()
	ch.MaxIndividualContribution = 10

	teams := newStubTeamRepo(
		team.Team{ID: "t-1", ChallengeID: "ch-1", ClubID: "club-1", Name: "Alpha", CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		team.Team{ID: "t-2", ChallengeID: "ch-1", ClubID: "club-2", Name: "Beta", CreatedAt: time.Date(2026, 3, 1, 1, 0, 0, 0, time.UTC)},
	)
	occurred := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	snapshots := newStubProgressRepo(
		// 25 caps to 10; plus 5 = 15 for Alpha.
		progress.Snapshot{ID: "s-1", ChallengeID: "ch-1", ParticipantID: "p-1", TeamID: "t-1", UserID: "u-1", Amount: 25, Unit: "km", OccurredAt: occurred},
		progress.Snapshot{ID: "s-2", ChallengeID: "ch-1", ParticipantID: "p-2", TeamID: "t-1", UserID: "u-2", Amount: 5, Unit: "km", OccurredAt: occurred},
		progress.Snapshot{ID: "s-3", ChallengeID: "ch-1", ParticipantID: "p-3", TeamID: "t-2", UserID: "u-3", Amount: 8, Unit: "km", OccurredAt: occurred},
	)
	svc := NewRankingService(newStubChallengeRepo(ch), newStubParticipantRepo(), teams, snapshots, cache.NewStore(time.Minute), logging.NewNop())

	board, err := svc.Rank(context.Background(), "ch-1")
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if !board.Team || len(board.Entries) != 2 {
		t.Fatalf("unexpected board: %+v", board)
	}
	if board.Entries[0].TeamName != "Alpha" || board.Entries[0].Score != 15 {
		t.Fatalf("unexpected leading team: %+v", board.Entries[0])
	}
	if board.Entries[1].TeamName != "Beta" || board.Entries[1].Score != 8 {
		t.Fatalf("unexpected second team: %+v", board.Entries[1])
	}
}

func TestRankingCachesUntilInvalidated(t *testing.T) {
	t.Parallel()

	participants := newStubParticipantRepo(
		rankedParticipant("p-1", "user-1", 10, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), participant.StatusActive),
	)
	svc := NewRankingService(newStubChallengeRepo(activeIndividualChallenge()), participants, newStubTeamRepo(), newStubProgressRepo(), cache.NewStore(time.Minute), logging.NewNop())

	first, err := svc.Rank(context.Background(), "ch-1")
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	_ = participants.UpdateProgress(context.Background(), "p-1", 75, 0, time.Now())

	cached, _ := svc.Rank(context.Background(), "ch-1")
	if cached.Entries[0].Score != first.Entries[0].Score {
		t.Fatalf("expected cached board, got score %v", cached.Entries[0].Score)
	}

	svc.Invalidate(context.Background(), "ch-1")
	fresh, _ := svc.Rank(context.Background(), "ch-1")
	if fresh.Entries[0].Score != 75 {
		t.Fatalf("expected recomputed board after invalidation, got %v", fresh.Entries[0].Score)
	}
}

func TestRankingStats(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	participants := newStubParticipantRepo(
		rankedParticipant("p-1", "user-1", 100, base, participant.StatusCompleted),
		rankedParticipant("p-2", "user-2", 50, base, participant.StatusActive),
		rankedParticipant("p-3", "user-3", 10, base, participant.StatusDropped),
		rankedParticipant("p-4", "user-4", 5, base, participant.StatusDisqualified),
		// Never admitted, never counted.
		rankedParticipant("p-5", "user-5", 0, base, participant.StatusPending),
		rankedParticipant("p-6", "user-6", 0, base, participant.StatusRejected),
	)
	svc := NewRankingService(newStubChallengeRepo(activeIndividualChallenge()), participants, newStubTeamRepo(), newStubProgressRepo(), cache.NewStore(time.Minute), logging.NewNop())

	stats, err := svc.Stats(context.Background(), "ch-1")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Participants != 4 || stats.Completed != 1 || stats.Dropped != 1 || stats.Disqualified != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.CompletionRate != 0.25 {
		t.Fatalf("completion rate = %v, want 0.25", stats.CompletionRate)
	}
}

func TestRankingResults(t *testing.T) {
	t.Parallel()

	// Results are served for running challenges too: the live standing.
	runner := rankedParticipant("p-1", "user-1", 40, time.Now(), participant.StatusActive)
	svc := NewRankingService(newStubChallengeRepo(activeIndividualChallenge()), newStubParticipantRepo(runner), newStubTeamRepo(), newStubProgressRepo(), cache.NewStore(time.Minute), logging.NewNop())

	live, err := svc.Results(context.Background(), "ch-1")
	if err != nil {
		t.Fatalf("Results for running challenge: %v", err)
	}
	if live.Status != challenge.StatusActive {
		t.Fatalf("unexpected status: %+v", live)
	}
	if len(live.Participants) != 1 || live.Participants[0].ID != "p-1" {
		t.Fatalf("expected participant records in results: %+v", live)
	}
	if len(live.Leaderboard.Entries) != 1 {
		t.Fatalf("unexpected leaderboard: %+v", live.Leaderboard)
	}

	done := activeIndividualChallenge()
	done.ID = "ch-2"
	done.Status = challenge.StatusCompleted
	finisher := rankedParticipant("p-2", "user-2", 100, time.Now(), participant.StatusCompleted)
	finisher.ChallengeID = "ch-2"
	svc = NewRankingService(newStubChallengeRepo(done), newStubParticipantRepo(finisher), newStubTeamRepo(), newStubProgressRepo(), cache.NewStore(time.Minute), logging.NewNop())

	results, err := svc.Results(context.Background(), "ch-2")
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if results.Status != challenge.StatusCompleted || len(results.Leaderboard.Entries) != 1 {
		t.Fatalf("unexpected results: %+v", results)
	}
	if len(results.Participants) != 1 || results.Participants[0].ID != "p-2" {
		t.Fatalf("expected participant records in results: %+v", results)
	}
}
