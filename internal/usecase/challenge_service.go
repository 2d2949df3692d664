package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fitarena/challenge-engine/internal/domain/challenge"
	"github.com/fitarena/challenge-engine/internal/domain/user"
	idgen "github.com/fitarena/challenge-engine/internal/platform/id"
	"github.com/fitarena/challenge-engine/internal/platform/logging"
)

// ChallengeService owns the challenge lifecycle: creation in draft and the
// operator-driven status transitions.
type ChallengeService struct {
	challengeRepo challenge.Repository
	publisher     EventPublisher
	idGen         idgen.Generator
	logger        *logging.Logger
	now           func() time.Time
}

func NewChallengeService(
	challengeRepo challenge.Repository,
	publisher EventPublisher,
	idGen idgen.Generator,
	logger *logging.Logger,
) *ChallengeService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &ChallengeService{
		challengeRepo: challengeRepo,
		publisher:     publisher,
		idGen:         idGen,
		logger:        logger,
		now:           time.Now,
	}
}

type CreateChallengeInput struct {
	Name            string
	Description     string
	ClubID          string
	Category        challenge.Category
	Type            challenge.Type
	Difficulty      challenge.Difficulty
	Visibility      challenge.Visibility
	TargetValue     float64
	TargetUnit      string
	StartDate       time.Time
	EndDate         time.Time
	MaxParticipants int
	MaxTeams        int
	MaxTeamMembers  int
	AdmissionPolicy challenge.AdmissionPolicy
	Password        string

	MaxIndividualContribution float64
	MinTracklogDistance       float64
}

func (s *ChallengeService) Create(ctx context.Context, principal user.Principal, input CreateChallengeInput) (challenge.Challenge, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ChallengeService.Create")
	defer span.End()

	if !principal.Can(user.CapChallengeManage) {
		return challenge.Challenge{}, fmt.Errorf("%w: challenge:manage capability required", ErrForbidden)
	}

	id, err := s.idGen.NewID()
	if err != nil {
		return challenge.Challenge{}, fmt.Errorf("generate challenge id: %w", err)
	}

	now := s.now()
	ch := challenge.Challenge{
		ID:                        id,
		Name:                      strings.TrimSpace(input.Name),
		Description:               strings.TrimSpace(input.Description),
		ClubID:                    strings.TrimSpace(input.ClubID),
		Category:                  input.Category,
		Type:                      input.Type,
		Difficulty:                input.Difficulty,
		Visibility:                input.Visibility,
		TargetValue:               input.TargetValue,
		TargetUnit:                strings.TrimSpace(input.TargetUnit),
		StartDate:                 input.StartDate,
		EndDate:                   input.EndDate,
		MaxParticipants:           input.MaxParticipants,
		MaxTeams:                  input.MaxTeams,
		MaxTeamMembers:            input.MaxTeamMembers,
		AdmissionPolicy:           input.AdmissionPolicy,
		MaxIndividualContribution: input.MaxIndividualContribution,
		MinTracklogDistance:       input.MinTracklogDistance,
		Status:                    challenge.StatusDraft,
		CreatedBy:                 principal.UserID,
		CreatedAt:                 now,
		UpdatedAt:                 now,
	}
	if input.AdmissionPolicy == challenge.AdmissionPassword {
		if strings.TrimSpace(input.Password) == "" {
			return challenge.Challenge{}, fmt.Errorf("%w: password admission policy requires a password", ErrInvalidInput)
		}
		ch.PasswordHash = challenge.HashPassword(input.Password)
	}

	if err := ch.Validate(); err != nil {
		return challenge.Challenge{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.challengeRepo.Create(ctx, ch); err != nil {
		return challenge.Challenge{}, fmt.Errorf("create challenge: %w", err)
	}

	s.logger.InfoContext(ctx, "challenge created",
		"challenge_id", ch.ID,
		"category", ch.Category,
		"type", ch.Type,
	)

	return ch, nil
}

func (s *ChallengeService) Get(ctx context.Context, challengeID string) (challenge.Challenge, challenge.Phase, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ChallengeService.Get")
	defer span.End()

	challengeID = strings.TrimSpace(challengeID)
	if challengeID == "" {
		return challenge.Challenge{}, "", fmt.Errorf("%w: challenge id is required", ErrInvalidInput)
	}

	ch, exists, err := s.challengeRepo.GetByID(ctx, challengeID)
	if err != nil {
		return challenge.Challenge{}, "", fmt.Errorf("get challenge: %w", err)
	}
	if !exists {
		return challenge.Challenge{}, "", fmt.Errorf("%w: challenge=%s", ErrNotFound, challengeID)
	}

	return ch, ch.PhaseNow(s.now()), nil
}

func (s *ChallengeService) List(ctx context.Context) ([]challenge.Challenge, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ChallengeService.List")
	defer span.End()

	challenges, err := s.challengeRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}

	return challenges, nil
}

// ChangeStatus applies one operator-driven lifecycle transition. The
// admission snapshot freezes on the transition to active so later capacity
// or password edits never affect already-admitted participants.
func (s *ChallengeService) ChangeStatus(ctx context.Context, principal user.Principal, challengeID string, next challenge.Status) (challenge.Challenge, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ChallengeService.ChangeStatus")
	defer span.End()

	if !principal.Can(user.CapChallengeManage) {
		return challenge.Challenge{}, fmt.Errorf("%w: challenge:manage capability required", ErrForbidden)
	}

	ch, _, err := s.Get(ctx, challengeID)
	if err != nil {
		return challenge.Challenge{}, err
	}

	if err := challenge.Transition(ch.Status, next); err != nil {
		return challenge.Challenge{}, err
	}

	var frozen *challenge.AdmissionSnapshot
	if next == challenge.StatusActive && ch.FrozenAdmission == nil {
		snapshot := ch.EffectiveAdmission()
		snapshot.FrozenAt = s.now()
		frozen = &snapshot
	}

	swapped, err := s.challengeRepo.UpdateStatus(ctx, ch.ID, ch.Status, next, frozen)
	if err != nil {
		return challenge.Challenge{}, fmt.Errorf("update challenge status: %w", err)
	}
	if !swapped {
		return challenge.Challenge{}, fmt.Errorf("%w: challenge status changed concurrently", challenge.ErrIllegalTransition)
	}

	s.logger.InfoContext(ctx, "challenge status changed",
		"challenge_id", ch.ID,
		"from", ch.Status,
		"to", next,
		"actor", principal.UserID,
	)

	previous := ch.Status
	ch.Status = next
	if frozen != nil {
		ch.FrozenAdmission = frozen
	}

	if next == challenge.StatusActive && previous != challenge.StatusPaused {
		payload := map[string]any{
			"challenge_id": ch.ID,
			"name":         ch.Name,
			"starts_at":    ch.StartDate,
			"ends_at":      ch.EndDate,
		}
		if err := s.publisher.Publish(ctx, EventChallengeActivated, payload, ch.ID); err != nil {
			s.logger.WarnContext(ctx, "publish challenge activated event failed", "challenge_id", ch.ID, "error", err)
		}
	}

	return ch, nil
}
