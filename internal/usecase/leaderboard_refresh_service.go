package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/fitarena/challenge-engine/internal/domain/challenge"
	"github.com/fitarena/challenge-engine/internal/domain/participant"
	"github.com/fitarena/challenge-engine/internal/domain/progress"
	"github.com/fitarena/challenge-engine/internal/platform/logging"
)

const (
	refreshStatusSuccess = "success"
	refreshStatusFailed  = "failed"
	refreshStatusSkipped = "skipped"
)

type RefreshInput struct {
	// ChallengeID narrows the sweep to one challenge; empty refreshes every
	// active challenge.
	ChallengeID string
	MaxWorkers  int
}

type RefreshResult struct {
	ChallengeCount int                 `json:"challenge_count"`
	SuccessCount   int                 `json:"success_count"`
	FailedCount    int                 `json:"failed_count"`
	SkippedCount   int                 `json:"skipped_count"`
	WorkerCount    int                 `json:"worker_count"`
	Tasks          []RefreshTaskResult `json:"tasks"`
}

type RefreshTaskResult struct {
	ChallengeID    string `json:"challenge_id"`
	Status         string `json:"status"`
	Participants   int    `json:"participants"`
	StreaksDecayed int    `json:"streaks_decayed"`
	DurationMs     int64  `json:"duration_ms"`
	Message        string `json:"message,omitempty"`
}

// LeaderboardRefreshService is the periodic aggregation sweep: it applies
// streak decay to idle participants of active challenges and rebuilds the
// cached leaderboards. Runs from the internal jobs endpoint and the
// in-process scheduler.
type LeaderboardRefreshService struct {
	challengeRepo   challenge.Repository
	participantRepo participant.Repository
	progressRepo    progress.Repository
	ranking         *RankingService
	logger          *logging.Logger
	now             func() time.Time
}

func NewLeaderboardRefreshService(
	challengeRepo challenge.Repository,
	participantRepo participant.Repository,
	progressRepo progress.Repository,
	ranking *RankingService,
	logger *logging.Logger,
) *LeaderboardRefreshService {
	if logger == nil {
		logger = logging.Default()
	}

	return &LeaderboardRefreshService{
		challengeRepo:   challengeRepo,
		participantRepo: participantRepo,
		progressRepo:    progressRepo,
		ranking:         ranking,
		logger:          logger,
		now:             time.Now,
	}
}

func (s *LeaderboardRefreshService) Refresh(ctx context.Context, input RefreshInput) (RefreshResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardRefreshService.Refresh")
	defer span.End()

	targets, err := s.resolveTargets(ctx, input.ChallengeID)
	if err != nil {
		return RefreshResult{}, err
	}

	workerCount := normalizeRefreshWorkerCount(input.MaxWorkers, len(targets))
	result := RefreshResult{
		ChallengeCount: len(targets),
		WorkerCount:    workerCount,
		Tasks:          make([]RefreshTaskResult, 0, len(targets)),
	}
	if len(targets) == 0 {
		return result, nil
	}

	rows := make(chan RefreshTaskResult, len(targets))

	var successCount atomic.Int32
	var failedCount atomic.Int32
	var skippedCount atomic.Int32

	workerPool, err := ants.NewPool(workerCount)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer workerPool.Release()

	var workers sync.WaitGroup
	for _, target := range targets {
		target := target
		workers.Add(1)
		if err := workerPool.Submit(func() {
			defer workers.Done()

			start := time.Now()
			row := s.refreshChallenge(ctx, target)
			row.DurationMs = time.Since(start).Milliseconds()

			switch row.Status {
			case refreshStatusSuccess:
				successCount.Add(1)
			case refreshStatusSkipped:
				skippedCount.Add(1)
			default:
				failedCount.Add(1)
			}

			rows <- row
		}); err != nil {
			workers.Done()
			return RefreshResult{}, fmt.Errorf("submit refresh task: %w", err)
		}
	}

	workers.Wait()
	close(rows)

	for row := range rows {
		result.Tasks = append(result.Tasks, row)
	}
	sort.SliceStable(result.Tasks, func(i, j int) bool {
		return result.Tasks[i].ChallengeID < result.Tasks[j].ChallengeID
	})

	result.SuccessCount = int(successCount.Load())
	result.FailedCount = int(failedCount.Load())
	result.SkippedCount = int(skippedCount.Load())
	return result, nil
}

func (s *LeaderboardRefreshService) refreshChallenge(ctx context.Context, ch challenge.Challenge) RefreshTaskResult {
	row := RefreshTaskResult{ChallengeID: ch.ID}

	participants, err := s.participantRepo.ListByChallenge(ctx, ch.ID)
	if err != nil {
		row.Status = refreshStatusFailed
		row.Message = fmt.Sprintf("list participants: %v", err)
		return row
	}

	now := s.now()
	for _, p := range participants {
		if p.Status != participant.StatusActive {
			continue
		}
		row.Participants++

		if ch.Type != challenge.TypeStreak || p.CurrentStreak == 0 {
			continue
		}
		decayed := progress.DecayStreak(p.CurrentStreak, p.LastActivityAt, now)
		if decayed == p.CurrentStreak {
			continue
		}

		lastActivity := now
		if p.LastActivityAt != nil {
			lastActivity = *p.LastActivityAt
		}
		if err := s.participantRepo.UpdateProgress(ctx, p.ID, p.CurrentProgress, decayed, lastActivity); err != nil {
			row.Status = refreshStatusFailed
			row.Message = fmt.Sprintf("decay streak participant=%s: %v", p.ID, err)
			return row
		}
		row.StreaksDecayed++
	}

	if row.Participants == 0 {
		row.Status = refreshStatusSkipped
		row.Message = "no active participants"
		return row
	}

	s.ranking.Invalidate(ctx, ch.ID)
	if _, err := s.ranking.Rank(ctx, ch.ID); err != nil {
		row.Status = refreshStatusFailed
		row.Message = fmt.Sprintf("rebuild leaderboard: %v", err)
		return row
	}

	row.Status = refreshStatusSuccess
	return row
}

func (s *LeaderboardRefreshService) resolveTargets(ctx context.Context, challengeID string) ([]challenge.Challenge, error) {
	if challengeID != "" {
		ch, exists, err := s.challengeRepo.GetByID(ctx, challengeID)
		if err != nil {
			return nil, fmt.Errorf("get challenge: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: challenge=%s", ErrNotFound, challengeID)
		}
		return []challenge.Challenge{ch}, nil
	}

	active, err := s.challengeRepo.ListByStatus(ctx, challenge.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("list active challenges: %w", err)
	}
	return active, nil
}

func normalizeRefreshWorkerCount(value int, taskCount int) int {
	if taskCount <= 0 {
		return 1
	}
	if value <= 0 {
		value = 4
	}
	if value > taskCount {
		value = taskCount
	}
	return value
}
