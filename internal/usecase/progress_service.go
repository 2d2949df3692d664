package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/fitarena/challenge-engine/internal/domain/challenge"
	"github.com/fitarena/challenge-engine/internal/domain/participant"
	"github.com/fitarena/challenge-engine/internal/domain/progress"
	"github.com/fitarena/challenge-engine/internal/domain/user"
	idgen "github.com/fitarena/challenge-engine/internal/platform/id"
	"github.com/fitarena/challenge-engine/internal/platform/logging"
	"github.com/fitarena/challenge-engine/internal/platform/resilience"
)

const replayTolerance = 1e-9

// ProgressService folds activity contributions into the append-only
// snapshot log and keeps the materialized participant progress in sync.
type ProgressService struct {
	challengeRepo   challenge.Repository
	participantRepo participant.Repository
	progressRepo    progress.Repository
	idGen           idgen.Generator
	logger          *logging.Logger
	// writeLocks serializes progress application per participant.
	writeLocks *resilience.KeyedMutex
	now        func() time.Time
}

func NewProgressService(
	challengeRepo challenge.Repository,
	participantRepo participant.Repository,
	progressRepo progress.Repository,
	idGen idgen.Generator,
	logger *logging.Logger,
) *ProgressService {
	if logger == nil {
		logger = logging.Default()
	}

	return &ProgressService{
		challengeRepo:   challengeRepo,
		participantRepo: participantRepo,
		progressRepo:    progressRepo,
		idGen:           idGen,
		logger:          logger,
		writeLocks:      resilience.NewKeyedMutex(),
		now:             time.Now,
	}
}

type ApplyContributionInput struct {
	ChallengeID      string
	UserID           string
	Amount           float64
	Unit             string
	OccurredAt       time.Time
	SourceActivityID string
	// Note documents administrative corrections; required for negative
	// amounts.
	Note string
}

type UpdatedProgress struct {
	ParticipantID   string
	Progress        float64
	Streak          int
	ProgressPercent float64
	Completed       bool
	// Discarded marks sub-threshold team contributions that were dropped
	// without being stored.
	Discarded bool
}

// ApplyContribution appends one snapshot and re-materializes the
// participant's progress from the log. Contributions below the team
// tracklog threshold are discarded outright; they are neither counted nor
// stored as qualifying events.
func (s *ProgressService) ApplyContribution(ctx context.Context, actor user.Principal, input ApplyContributionInput) (UpdatedProgress, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProgressService.ApplyContribution")
	defer span.End()

	if !actor.Can(user.CapProgressIngest) {
		return UpdatedProgress{}, fmt.Errorf("%w: progress:ingest capability required", ErrForbidden)
	}
	if input.Amount == 0 {
		return UpdatedProgress{}, fmt.Errorf("%w: contribution amount must be non-zero", ErrInvalidInput)
	}
	if input.OccurredAt.IsZero() {
		return UpdatedProgress{}, fmt.Errorf("%w: contribution occurred at is required", ErrInvalidInput)
	}
	if input.Amount < 0 {
		if !actor.Can(user.CapChallengeManage) {
			return UpdatedProgress{}, fmt.Errorf("%w: corrections require challenge:manage", ErrForbidden)
		}
		if strings.TrimSpace(input.Note) == "" {
			return UpdatedProgress{}, fmt.Errorf("%w: corrections require a note", ErrInvalidInput)
		}
	}

	ch, exists, err := s.challengeRepo.GetByID(ctx, strings.TrimSpace(input.ChallengeID))
	if err != nil {
		return UpdatedProgress{}, fmt.Errorf("get challenge: %w", err)
	}
	if !exists {
		return UpdatedProgress{}, fmt.Errorf("%w: challenge=%s", ErrNotFound, input.ChallengeID)
	}
	if ch.Status != challenge.StatusActive {
		return UpdatedProgress{}, fmt.Errorf("%w: challenge status=%s", ErrChallengeNotJoinable, ch.Status)
	}
	if !strings.EqualFold(strings.TrimSpace(input.Unit), ch.TargetUnit) {
		return UpdatedProgress{}, fmt.Errorf("%w: unit %q does not match challenge unit %q", ErrInvalidInput, input.Unit, ch.TargetUnit)
	}

	p, exists, err := s.participantRepo.GetOpenByChallengeAndUser(ctx, ch.ID, strings.TrimSpace(input.UserID))
	if err != nil {
		return UpdatedProgress{}, fmt.Errorf("get open participant: %w", err)
	}
	if !exists {
		return UpdatedProgress{}, fmt.Errorf("%w: no open participation for challenge=%s user=%s", ErrNotFound, ch.ID, input.UserID)
	}
	if p.Status != participant.StatusActive {
		return UpdatedProgress{}, fmt.Errorf("%w: participant status=%s", participant.ErrIllegalTransition, p.Status)
	}

	if ch.IsTeam() && input.Amount > 0 && ch.MinTracklogDistance > 0 && input.Amount < ch.MinTracklogDistance {
		s.logger.DebugContext(ctx, "contribution below tracklog threshold discarded",
			"challenge_id", ch.ID,
			"participant_id", p.ID,
			"amount", input.Amount,
		)
		return UpdatedProgress{ParticipantID: p.ID, Progress: p.CurrentProgress, Streak: p.CurrentStreak, Discarded: true}, nil
	}

	unlock := s.writeLocks.Lock("progress:" + p.ID)
	defer unlock()

	id, err := s.idGen.NewID()
	if err != nil {
		return UpdatedProgress{}, fmt.Errorf("generate snapshot id: %w", err)
	}

	snapshot := progress.Snapshot{
		ID:               id,
		ChallengeID:      ch.ID,
		ParticipantID:    p.ID,
		TeamID:           p.TeamID,
		UserID:           p.UserID,
		Amount:           input.Amount,
		Unit:             ch.TargetUnit,
		OccurredAt:       input.OccurredAt,
		SourceActivityID: strings.TrimSpace(input.SourceActivityID),
		Note:             strings.TrimSpace(input.Note),
		CreatedAt:        s.now(),
	}
	if err := snapshot.Validate(); err != nil {
		return UpdatedProgress{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.progressRepo.Append(ctx, snapshot); err != nil {
		return UpdatedProgress{}, fmt.Errorf("append snapshot: %w", err)
	}

	log, err := s.progressRepo.ListByParticipant(ctx, p.ID)
	if err != nil {
		return UpdatedProgress{}, fmt.Errorf("list snapshots: %w", err)
	}

	folded := progress.Fold(log, s.foldRules(ch))
	streak := progress.DecayStreak(folded.Streak, folded.LastActivityAt, s.now())

	lastActivity := snapshot.OccurredAt
	if folded.LastActivityAt != nil {
		lastActivity = *folded.LastActivityAt
	}
	if err := s.participantRepo.UpdateProgress(ctx, p.ID, folded.Progress, streak, lastActivity); err != nil {
		return UpdatedProgress{}, fmt.Errorf("update participant progress: %w", err)
	}

	result := UpdatedProgress{
		ParticipantID:   p.ID,
		Progress:        folded.Progress,
		Streak:          streak,
		ProgressPercent: progressPercent(ch, folded.Progress, streak),
	}

	score := folded.Progress
	if ch.Type == challenge.TypeStreak {
		score = float64(streak)
	}
	if score >= ch.TargetValue {
		completedAt := s.now()
		if err := participant.Transition(p.Status, participant.StatusCompleted); err == nil {
			swapped, err := s.participantRepo.UpdateStatus(ctx, p.ID, p.Status, participant.StatusCompleted, "", "", &completedAt)
			if err != nil {
				return UpdatedProgress{}, fmt.Errorf("complete participant: %w", err)
			}
			result.Completed = swapped
			if swapped {
				s.logger.InfoContext(ctx, "participant completed challenge",
					"challenge_id", ch.ID,
					"participant_id", p.ID,
					"score", score,
				)
			}
		}
	}

	return result, nil
}

type ReplayMismatch struct {
	ParticipantID string  `json:"participant_id"`
	Stored        float64 `json:"stored"`
	Replayed      float64 `json:"replayed"`
}

type ReplayReport struct {
	ChallengeID string           `json:"challenge_id"`
	Checked     int              `json:"checked"`
	Mismatches  []ReplayMismatch `json:"mismatches,omitempty"`
}

// Replay re-derives every participant's progress from the snapshot log and
// compares it to the stored materialized value. Any divergence is reported
// as progress.ErrReplayInconsistency: the log is the source of truth and a
// mismatch means corruption or a bug, so the engine alerts instead of
// silently overwriting either side.
func (s *ProgressService) Replay(ctx context.Context, actor user.Principal, challengeID string, maxWorkers int) (ReplayReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProgressService.Replay")
	defer span.End()

	if !actor.Can(user.CapChallengeManage) && !actor.Can(user.CapProgressIngest) {
		return ReplayReport{}, fmt.Errorf("%w: replay requires challenge:manage or progress:ingest", ErrForbidden)
	}

	ch, exists, err := s.challengeRepo.GetByID(ctx, strings.TrimSpace(challengeID))
	if err != nil {
		return ReplayReport{}, fmt.Errorf("get challenge: %w", err)
	}
	if !exists {
		return ReplayReport{}, fmt.Errorf("%w: challenge=%s", ErrNotFound, challengeID)
	}

	participants, err := s.participantRepo.ListByChallenge(ctx, ch.ID)
	if err != nil {
		return ReplayReport{}, fmt.Errorf("list participants: %w", err)
	}

	if maxWorkers < 1 {
		maxWorkers = 4
	}

	report := ReplayReport{ChallengeID: ch.ID}
	var mu sync.Mutex

	workers := pool.New().WithMaxGoroutines(maxWorkers).WithErrors()
	for _, p := range participants {
		if p.Status != participant.StatusActive && p.Status != participant.StatusCompleted {
			continue
		}
		workers.Go(func() error {
			log, err := s.progressRepo.ListByParticipant(ctx, p.ID)
			if err != nil {
				return fmt.Errorf("list snapshots for participant %s: %w", p.ID, err)
			}

			folded := progress.Fold(log, s.foldRules(ch))

			mu.Lock()
			defer mu.Unlock()
			report.Checked++
			if math.Abs(folded.Progress-p.CurrentProgress) > replayTolerance {
				report.Mismatches = append(report.Mismatches, ReplayMismatch{
					ParticipantID: p.ID,
					Stored:        p.CurrentProgress,
					Replayed:      folded.Progress,
				})
			}
			return nil
		})
	}
	if err := workers.Wait(); err != nil {
		return report, fmt.Errorf("replay challenge %s: %w", ch.ID, err)
	}

	if len(report.Mismatches) > 0 {
		sort.Slice(report.Mismatches, func(i, j int) bool {
			return report.Mismatches[i].ParticipantID < report.Mismatches[j].ParticipantID
		})
		s.logger.ErrorContext(ctx, "progress replay mismatch detected",
			"challenge_id", ch.ID,
			"checked", report.Checked,
			"mismatches", len(report.Mismatches),
		)
		return report, fmt.Errorf("%w: challenge=%s mismatches=%d", progress.ErrReplayInconsistency, ch.ID, len(report.Mismatches))
	}

	return report, nil
}

// TeamProgress folds all member snapshots of a team with the challenge's
// contribution caps applied.
func (s *ProgressService) TeamProgress(ctx context.Context, ch challenge.Challenge, teamID string) (float64, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProgressService.TeamProgress")
	defer span.End()

	log, err := s.progressRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return 0, fmt.Errorf("list team snapshots: %w", err)
	}

	return progress.Fold(log, s.foldRules(ch)).Progress, nil
}

func (s *ProgressService) foldRules(ch challenge.Challenge) progress.FoldRules {
	rules := progress.FoldRules{Streak: ch.Type == challenge.TypeStreak}
	if ch.IsTeam() {
		rules.MinQualifying = ch.MinTracklogDistance
		rules.MemberCap = ch.MaxIndividualContribution
	}
	return rules
}

func progressPercent(ch challenge.Challenge, progressValue float64, streak int) float64 {
	score := progressValue
	if ch.Type == challenge.TypeStreak {
		score = float64(streak)
	}
	if ch.TargetValue <= 0 {
		return 0
	}
	percent := score / ch.TargetValue * 100
	if percent > 100 {
		percent = 100
	}
	return percent
}
