package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fitarena/challenge-engine/internal/domain/challenge"
	"github.com/fitarena/challenge-engine/internal/domain/participant"
	"github.com/fitarena/challenge-engine/internal/domain/progress"
	"github.com/fitarena/challenge-engine/internal/domain/team"
	"github.com/fitarena/challenge-engine/internal/platform/cache"
	"github.com/fitarena/challenge-engine/internal/platform/logging"
)

// RankingService derives leaderboards and completion stats from the
// participant state and the snapshot log. Rankings are computed on read and
// cached; they are never stored.
type RankingService struct {
	challengeRepo   challenge.Repository
	participantRepo participant.Repository
	teamRepo        team.Repository
	progressRepo    progress.Repository
	leaderboards    *cache.Store
	logger          *logging.Logger
	now             func() time.Time
}

func NewRankingService(
	challengeRepo challenge.Repository,
	participantRepo participant.Repository,
	teamRepo team.Repository,
	progressRepo progress.Repository,
	leaderboards *cache.Store,
	logger *logging.Logger,
) *RankingService {
	if leaderboards == nil {
		leaderboards = cache.NewStore(30 * time.Second)
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &RankingService{
		challengeRepo:   challengeRepo,
		participantRepo: participantRepo,
		teamRepo:        teamRepo,
		progressRepo:    progressRepo,
		leaderboards:    leaderboards,
		logger:          logger,
		now:             time.Now,
	}
}

type RankedEntry struct {
	Rank            int     `json:"rank"`
	ParticipantID   string  `json:"participant_id,omitempty"`
	UserID          string  `json:"user_id,omitempty"`
	TeamID          string  `json:"team_id,omitempty"`
	TeamName        string  `json:"team_name,omitempty"`
	Score           float64 `json:"score"`
	ProgressPercent float64 `json:"progress_percent"`
	Completed       bool    `json:"completed"`
}

type Leaderboard struct {
	ChallengeID string        `json:"challenge_id"`
	Team        bool          `json:"team"`
	GeneratedAt time.Time     `json:"generated_at"`
	Entries     []RankedEntry `json:"entries"`
}

// Rank computes the current leaderboard. Individual challenges rank
// participants, team challenges rank teams by the capped fold of their
// members' snapshots. Only active and completed participants count; ties
// share a dense rank and break by earliest join, then ID.
func (s *RankingService) Rank(ctx context.Context, challengeID string) (Leaderboard, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RankingService.Rank")
	defer span.End()

	challengeID = strings.TrimSpace(challengeID)
	if challengeID == "" {
		return Leaderboard{}, fmt.Errorf("%w: challenge id is required", ErrInvalidInput)
	}

	value, err := s.leaderboards.GetOrLoad(ctx, "leaderboard:"+challengeID, func(ctx context.Context) (any, error) {
		return s.compute(ctx, challengeID)
	})
	if err != nil {
		return Leaderboard{}, err
	}

	board, ok := value.(Leaderboard)
	if !ok {
		return Leaderboard{}, fmt.Errorf("unexpected leaderboard cache entry for challenge=%s", challengeID)
	}

	return board, nil
}

// Invalidate drops the cached leaderboard so the next read recomputes it.
func (s *RankingService) Invalidate(ctx context.Context, challengeID string) {
	s.leaderboards.Delete(ctx, "leaderboard:"+challengeID)
}

func (s *RankingService) compute(ctx context.Context, challengeID string) (Leaderboard, error) {
	ch, exists, err := s.challengeRepo.GetByID(ctx, challengeID)
	if err != nil {
		return Leaderboard{}, fmt.Errorf("get challenge: %w", err)
	}
	if !exists {
		return Leaderboard{}, fmt.Errorf("%w: challenge=%s", ErrNotFound, challengeID)
	}

	if ch.IsTeam() {
		return s.computeTeams(ctx, ch)
	}
	return s.computeIndividuals(ctx, ch)
}

func (s *RankingService) computeIndividuals(ctx context.Context, ch challenge.Challenge) (Leaderboard, error) {
	participants, err := s.participantRepo.ListByChallenge(ctx, ch.ID)
	if err != nil {
		return Leaderboard{}, fmt.Errorf("list participants: %w", err)
	}

	type scored struct {
		p     participant.Participant
		score float64
	}
	ranked := make([]scored, 0, len(participants))
	for _, p := range participants {
		if p.Status != participant.StatusActive && p.Status != participant.StatusCompleted {
			continue
		}
		score := p.CurrentProgress
		if ch.Type == challenge.TypeStreak {
			score = float64(p.CurrentStreak)
		}
		ranked = append(ranked, scored{p: p, score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		if !ranked[i].p.JoinedAt.Equal(ranked[j].p.JoinedAt) {
			return ranked[i].p.JoinedAt.Before(ranked[j].p.JoinedAt)
		}
		return ranked[i].p.ID < ranked[j].p.ID
	})

	board := Leaderboard{ChallengeID: ch.ID, GeneratedAt: s.now(), Entries: make([]RankedEntry, 0, len(ranked))}
	rank := 0
	var lastScore float64
	for i, entry := range ranked {
		if i == 0 || entry.score != lastScore {
			rank++
			lastScore = entry.score
		}
		board.Entries = append(board.Entries, RankedEntry{
			Rank:            rank,
			ParticipantID:   entry.p.ID,
			UserID:          entry.p.UserID,
			Score:           entry.score,
			ProgressPercent: scorePercent(ch, entry.score),
			Completed:       entry.p.Status == participant.StatusCompleted,
		})
	}

	return board, nil
}

func (s *RankingService) computeTeams(ctx context.Context, ch challenge.Challenge) (Leaderboard, error) {
	teams, err := s.teamRepo.ListByChallenge(ctx, ch.ID)
	if err != nil {
		return Leaderboard{}, fmt.Errorf("list teams: %w", err)
	}

	rules := progress.FoldRules{
		Streak:        ch.Type == challenge.TypeStreak,
		MinQualifying: ch.MinTracklogDistance,
		MemberCap:     ch.MaxIndividualContribution,
	}

	type scored struct {
		t       team.Team
		score   float64
		created time.Time
	}
	ranked := make([]scored, 0, len(teams))
	for _, t := range teams {
		log, err := s.progressRepo.ListByTeam(ctx, t.ID)
		if err != nil {
			return Leaderboard{}, fmt.Errorf("list snapshots for team %s: %w", t.ID, err)
		}
		ranked = append(ranked, scored{t: t, score: progress.Fold(log, rules).Progress, created: t.CreatedAt})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		if !ranked[i].created.Equal(ranked[j].created) {
			return ranked[i].created.Before(ranked[j].created)
		}
		return ranked[i].t.ID < ranked[j].t.ID
	})

	board := Leaderboard{ChallengeID: ch.ID, Team: true, GeneratedAt: s.now(), Entries: make([]RankedEntry, 0, len(ranked))}
	rank := 0
	var lastScore float64
	for i, entry := range ranked {
		if i == 0 || entry.score != lastScore {
			rank++
			lastScore = entry.score
		}
		board.Entries = append(board.Entries, RankedEntry{
			Rank:            rank,
			TeamID:          entry.t.ID,
			TeamName:        entry.t.Name,
			Score:           entry.score,
			ProgressPercent: scorePercent(ch, entry.score),
			Completed:       entry.score >= ch.TargetValue && ch.TargetValue > 0,
		})
	}

	return board, nil
}

type CompletionStats struct {
	ChallengeID    string  `json:"challenge_id"`
	Participants   int     `json:"participants"`
	Completed      int     `json:"completed"`
	Dropped        int     `json:"dropped"`
	Disqualified   int     `json:"disqualified"`
	CompletionRate float64 `json:"completion_rate"`
}

// Stats summarizes participant outcomes. Pending and rejected requests are
// excluded: they never entered the challenge.
func (s *RankingService) Stats(ctx context.Context, challengeID string) (CompletionStats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RankingService.Stats")
	defer span.End()

	challengeID = strings.TrimSpace(challengeID)
	if challengeID == "" {
		return CompletionStats{}, fmt.Errorf("%w: challenge id is required", ErrInvalidInput)
	}

	if _, exists, err := s.challengeRepo.GetByID(ctx, challengeID); err != nil {
		return CompletionStats{}, fmt.Errorf("get challenge: %w", err)
	} else if !exists {
		return CompletionStats{}, fmt.Errorf("%w: challenge=%s", ErrNotFound, challengeID)
	}

	participants, err := s.participantRepo.ListByChallenge(ctx, challengeID)
	if err != nil {
		return CompletionStats{}, fmt.Errorf("list participants: %w", err)
	}

	stats := CompletionStats{ChallengeID: challengeID}
	for _, p := range participants {
		switch p.Status {
		case participant.StatusActive:
			stats.Participants++
		case participant.StatusCompleted:
			stats.Participants++
			stats.Completed++
		case participant.StatusDropped:
			stats.Participants++
			stats.Dropped++
		case participant.StatusDisqualified:
			stats.Participants++
			stats.Disqualified++
		}
	}
	if stats.Participants > 0 {
		stats.CompletionRate = float64(stats.Completed) / float64(stats.Participants)
	}

	return stats, nil
}

type ChallengeResults struct {
	ChallengeID  string                    `json:"challenge_id"`
	Status       challenge.Status          `json:"status"`
	Participants []participant.Participant `json:"participants"`
	Leaderboard  Leaderboard               `json:"leaderboard"`
	Stats        CompletionStats           `json:"stats"`
}

// Results returns the participant records, current leaderboard, and summary
// stats for a challenge. Running challenges report their live standing;
// finished ones report the final standing.
func (s *RankingService) Results(ctx context.Context, challengeID string) (ChallengeResults, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RankingService.Results")
	defer span.End()

	ch, exists, err := s.challengeRepo.GetByID(ctx, strings.TrimSpace(challengeID))
	if err != nil {
		return ChallengeResults{}, fmt.Errorf("get challenge: %w", err)
	}
	if !exists {
		return ChallengeResults{}, fmt.Errorf("%w: challenge=%s", ErrNotFound, challengeID)
	}

	participants, err := s.participantRepo.ListByChallenge(ctx, ch.ID)
	if err != nil {
		return ChallengeResults{}, fmt.Errorf("list participants: %w", err)
	}
	board, err := s.Rank(ctx, ch.ID)
	if err != nil {
		return ChallengeResults{}, err
	}
	stats, err := s.Stats(ctx, ch.ID)
	if err != nil {
		return ChallengeResults{}, err
	}

	return ChallengeResults{
		ChallengeID:  ch.ID,
		Status:       ch.Status,
		Participants: participants,
		Leaderboard:  board,
		Stats:        stats,
	}, nil
}

func scorePercent(ch challenge.Challenge, score float64) float64 {
	if ch.TargetValue <= 0 {
		return 0
	}
	percent := score / ch.TargetValue * 100
	if percent > 100 {
		percent = 100
	}
	return percent
}
