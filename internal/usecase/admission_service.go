package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fitarena/challenge-engine/internal/domain/challenge"
	"github.com/fitarena/challenge-engine/internal/domain/invitation"
	"github.com/fitarena/challenge-engine/internal/domain/participant"
	"github.com/fitarena/challenge-engine/internal/domain/team"
	"github.com/fitarena/challenge-engine/internal/domain/user"
	idgen "github.com/fitarena/challenge-engine/internal/platform/id"
	"github.com/fitarena/challenge-engine/internal/platform/logging"
	"github.com/fitarena/challenge-engine/internal/platform/resilience"
)

// Decision is the outcome of evaluating a join request. Rejections are
// returned as errors with stable reason codes, not decisions.
type Decision string

const (
	DecisionAutoApprove     Decision = "auto_approve"
	DecisionPendingApproval Decision = "pending_approval"
)

// AdmissionService evaluates join requests and applies participant status
// transitions (admission decisions, self-drop, operator outcomes).
type AdmissionService struct {
	challengeRepo   challenge.Repository
	participantRepo participant.Repository
	teamRepo        team.Repository
	invitationRepo  invitation.Repository
	publisher       EventPublisher
	idGen           idgen.Generator
	logger          *logging.Logger
	// joinLocks serializes admissions per challenge so two requests cannot
	// both pass a capacity check only one can satisfy. The repository's
	// commit-time capacity swap guards cross-process races.
	joinLocks *resilience.KeyedMutex
	now       func() time.Time
}

func NewAdmissionService(
	challengeRepo challenge.Repository,
	participantRepo participant.Repository,
	teamRepo team.Repository,
	invitationRepo invitation.Repository,
	publisher EventPublisher,
	idGen idgen.Generator,
	logger *logging.Logger,
) *AdmissionService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &AdmissionService{
		challengeRepo:   challengeRepo,
		participantRepo: participantRepo,
		teamRepo:        teamRepo,
		invitationRepo:  invitationRepo,
		publisher:       publisher,
		idGen:           idGen,
		logger:          logger,
		joinLocks:       resilience.NewKeyedMutex(),
		now:             time.Now,
	}
}

type JoinInput struct {
	ChallengeID string
	Password    string
	// TeamName names the club team created on the club's first join of a
	// team challenge. Ignored when the team already exists.
	TeamName string
}

type JoinResult struct {
	Participant      participant.Participant
	RequiresApproval bool
}

// EvaluateJoin runs the admission rules in their fixed order: challenge
// state, capacity, invite-only visibility, password, approval policy. The
// ordering is load-bearing; capacity and state short-circuit before the
// password check so a closed or full challenge never leaks password
// validity, and a rejected join is never partially processed.
func (s *AdmissionService) EvaluateJoin(ctx context.Context, ch challenge.Challenge, requester user.Principal, suppliedPassword string) (Decision, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdmissionService.EvaluateJoin")
	defer span.End()

	if ch.Status != challenge.StatusPublished && ch.Status != challenge.StatusActive {
		return "", fmt.Errorf("%w: status=%s", ErrChallengeNotJoinable, ch.Status)
	}

	adm := ch.EffectiveAdmission()

	if err := s.checkCapacity(ctx, ch, adm, requester); err != nil {
		return "", err
	}

	if ch.Visibility == challenge.VisibilityInviteOnly {
		accepted, err := s.invitationRepo.HasAccepted(ctx, ch.ID, requester.ClubID)
		if err != nil {
			return "", fmt.Errorf("check accepted invitation: %w", err)
		}
		if !accepted {
			return "", fmt.Errorf("%w: club=%s", ErrInvitationRequired, requester.ClubID)
		}
	}

	if adm.Policy == challenge.AdmissionPassword {
		if !challenge.VerifyPassword(adm.PasswordHash, suppliedPassword) {
			return "", ErrBadPassword
		}
		return DecisionAutoApprove, nil
	}

	if adm.Policy == challenge.AdmissionApprovalRequired {
		return DecisionPendingApproval, nil
	}

	return DecisionAutoApprove, nil
}

func (s *AdmissionService) checkCapacity(ctx context.Context, ch challenge.Challenge, adm challenge.AdmissionSnapshot, requester user.Principal) error {
	if !ch.IsTeam() {
		count, err := s.participantRepo.CountOpenByChallenge(ctx, ch.ID)
		if err != nil {
			return fmt.Errorf("count participants: %w", err)
		}
		if adm.MaxParticipants > 0 && count >= adm.MaxParticipants {
			return fmt.Errorf("%w: %d/%d participants", ErrChallengeFull, count, adm.MaxParticipants)
		}
		return nil
	}

	clubTeam, exists, err := s.teamRepo.GetByChallengeAndClub(ctx, ch.ID, requester.ClubID)
	if err != nil {
		return fmt.Errorf("get club team: %w", err)
	}
	if !exists {
		teamCount, err := s.teamRepo.CountByChallenge(ctx, ch.ID)
		if err != nil {
			return fmt.Errorf("count teams: %w", err)
		}
		if adm.MaxTeams > 0 && teamCount >= adm.MaxTeams {
			return fmt.Errorf("%w: %d/%d teams", ErrChallengeFull, teamCount, adm.MaxTeams)
		}
		return nil
	}

	if adm.MaxTeamMembers > 0 && len(clubTeam.MemberIDs) >= adm.MaxTeamMembers {
		return fmt.Errorf("%w: team %s has %d/%d members", ErrChallengeFull, clubTeam.ID, len(clubTeam.MemberIDs), adm.MaxTeamMembers)
	}

	return nil
}

// Join runs the admission evaluation and, on success, commits the
// participant record. The whole operation is serialized per challenge and
// the final insert re-checks capacity atomically; losing that race yields
// participant.ErrCapacityRaceLost, which callers may retry once.
func (s *AdmissionService) Join(ctx context.Context, requester user.Principal, input JoinInput) (JoinResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdmissionService.Join")
	defer span.End()

	challengeID := strings.TrimSpace(input.ChallengeID)
	if challengeID == "" {
		return JoinResult{}, fmt.Errorf("%w: challenge id is required", ErrInvalidInput)
	}

	unlock := s.joinLocks.Lock("join:" + challengeID)
	defer unlock()

	ch, exists, err := s.challengeRepo.GetByID(ctx, challengeID)
	if err != nil {
		return JoinResult{}, fmt.Errorf("get challenge: %w", err)
	}
	if !exists {
		return JoinResult{}, fmt.Errorf("%w: challenge=%s", ErrNotFound, challengeID)
	}

	if _, open, err := s.participantRepo.GetOpenByChallengeAndUser(ctx, ch.ID, requester.UserID); err != nil {
		return JoinResult{}, fmt.Errorf("get open participant: %w", err)
	} else if open {
		return JoinResult{}, fmt.Errorf("%w: challenge=%s user=%s", ErrAlreadyJoined, ch.ID, requester.UserID)
	}

	decision, err := s.EvaluateJoin(ctx, ch, requester, input.Password)
	if err != nil {
		return JoinResult{}, err
	}

	adm := ch.EffectiveAdmission()

	var teamID string
	if ch.IsTeam() {
		teamID, err = s.placeInTeam(ctx, ch, adm, requester, input.TeamName)
		if err != nil {
			return JoinResult{}, err
		}
	}

	status := participant.StatusActive
	if decision == DecisionPendingApproval {
		status = participant.StatusPending
	}

	id, err := s.idGen.NewID()
	if err != nil {
		return JoinResult{}, fmt.Errorf("generate participant id: %w", err)
	}

	now := s.now()
	p := participant.Participant{
		ID:          id,
		ChallengeID: ch.ID,
		UserID:      requester.UserID,
		TeamID:      teamID,
		Status:      status,
		JoinedAt:    now,
		UpdatedAt:   now,
	}

	capacity := adm.MaxParticipants
	if ch.IsTeam() {
		capacity = adm.MaxTeams * adm.MaxTeamMembers
	}
	if err := s.participantRepo.CreateWithinCapacity(ctx, p, capacity); err != nil {
		if teamID != "" {
			if rbErr := s.teamRepo.RemoveMember(ctx, teamID, requester.UserID); rbErr != nil {
				s.logger.ErrorContext(ctx, "rollback team member after failed join", "team_id", teamID, "user_id", requester.UserID, "error", rbErr)
			}
		}
		return JoinResult{}, err
	}

	s.logger.InfoContext(ctx, "join request admitted",
		"challenge_id", ch.ID,
		"user_id", requester.UserID,
		"decision", decision,
	)

	if status == participant.StatusActive {
		s.publishAdmitted(ctx, p)
	}

	return JoinResult{Participant: p, RequiresApproval: decision == DecisionPendingApproval}, nil
}

func (s *AdmissionService) placeInTeam(ctx context.Context, ch challenge.Challenge, adm challenge.AdmissionSnapshot, requester user.Principal, teamName string) (string, error) {
	if strings.TrimSpace(requester.ClubID) == "" {
		return "", fmt.Errorf("%w: team challenges require a club affiliation", ErrInvalidInput)
	}

	clubTeam, exists, err := s.teamRepo.GetByChallengeAndClub(ctx, ch.ID, requester.ClubID)
	if err != nil {
		return "", fmt.Errorf("get club team: %w", err)
	}
	if !exists {
		id, err := s.idGen.NewID()
		if err != nil {
			return "", fmt.Errorf("generate team id: %w", err)
		}
		name := strings.TrimSpace(teamName)
		if name == "" {
			name = "Club " + requester.ClubID
		}
		now := s.now()
		clubTeam = team.Team{
			ID:          id,
			ChallengeID: ch.ID,
			ClubID:      requester.ClubID,
			Name:        name,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.teamRepo.Create(ctx, clubTeam); err != nil {
			return "", fmt.Errorf("create team: %w", err)
		}
	}

	if err := s.teamRepo.AddMember(ctx, clubTeam.ID, requester.UserID, adm.MaxTeamMembers); err != nil {
		if errors.Is(err, team.ErrTeamFull) {
			return "", fmt.Errorf("%w: team %s roster", ErrChallengeFull, clubTeam.ID)
		}
		return "", fmt.Errorf("add team member: %w", err)
	}

	return clubTeam.ID, nil
}

// Approve moves a pending participant to active after an operator decision.
func (s *AdmissionService) Approve(ctx context.Context, operator user.Principal, challengeID, userID string) (participant.Participant, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdmissionService.Approve")
	defer span.End()

	if !operator.Can(user.CapChallengeManage) {
		return participant.Participant{}, fmt.Errorf("%w: challenge:manage capability required", ErrForbidden)
	}

	p, err := s.openParticipant(ctx, challengeID, userID)
	if err != nil {
		return participant.Participant{}, err
	}

	updated, err := s.transitionParticipant(ctx, p, participant.StatusActive, operator.UserID, "", nil)
	if err != nil {
		return participant.Participant{}, err
	}

	s.publishAdmitted(ctx, updated)

	return updated, nil
}

// Reject terminates a pending participant. The reason is mandatory: it is
// stored for audit and surfaced to the user.
func (s *AdmissionService) Reject(ctx context.Context, operator user.Principal, challengeID, userID, reason string) (participant.Participant, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdmissionService.Reject")
	defer span.End()

	if !operator.Can(user.CapChallengeManage) {
		return participant.Participant{}, fmt.Errorf("%w: challenge:manage capability required", ErrForbidden)
	}
	if strings.TrimSpace(reason) == "" {
		return participant.Participant{}, fmt.Errorf("%w: rejection reason is required", ErrInvalidInput)
	}

	p, err := s.openParticipant(ctx, challengeID, userID)
	if err != nil {
		return participant.Participant{}, err
	}

	return s.transitionParticipant(ctx, p, participant.StatusRejected, operator.UserID, strings.TrimSpace(reason), nil)
}

// Leave drops the caller's own active participation.
func (s *AdmissionService) Leave(ctx context.Context, requester user.Principal, challengeID string) (participant.Participant, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdmissionService.Leave")
	defer span.End()

	p, err := s.openParticipant(ctx, challengeID, requester.UserID)
	if err != nil {
		return participant.Participant{}, err
	}

	return s.transitionParticipant(ctx, p, participant.StatusDropped, requester.UserID, "left challenge", nil)
}

// Complete applies a manual completion. The completion threshold must be
// met: progress against target for value-based types, streak length for
// streak challenges. An unmet threshold fails with ErrThresholdNotMet.
func (s *AdmissionService) Complete(ctx context.Context, operator user.Principal, challengeID, userID string) (participant.Participant, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdmissionService.Complete")
	defer span.End()

	if !operator.Can(user.CapChallengeManage) {
		return participant.Participant{}, fmt.Errorf("%w: challenge:manage capability required", ErrForbidden)
	}

	ch, exists, err := s.challengeRepo.GetByID(ctx, strings.TrimSpace(challengeID))
	if err != nil {
		return participant.Participant{}, fmt.Errorf("get challenge: %w", err)
	}
	if !exists {
		return participant.Participant{}, fmt.Errorf("%w: challenge=%s", ErrNotFound, challengeID)
	}

	p, err := s.openParticipant(ctx, ch.ID, userID)
	if err != nil {
		return participant.Participant{}, err
	}

	score := p.CurrentProgress
	if ch.Type == challenge.TypeStreak {
		score = float64(p.CurrentStreak)
	}
	if score < ch.TargetValue {
		return participant.Participant{}, fmt.Errorf("%w: %v/%v", participant.ErrThresholdNotMet, score, ch.TargetValue)
	}

	completedAt := s.now()
	return s.transitionParticipant(ctx, p, participant.StatusCompleted, operator.UserID, "", &completedAt)
}

// Disqualify terminates an active participant for rule violations.
func (s *AdmissionService) Disqualify(ctx context.Context, operator user.Principal, challengeID, userID, reason string) (participant.Participant, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdmissionService.Disqualify")
	defer span.End()

	if !operator.Can(user.CapChallengeManage) {
		return participant.Participant{}, fmt.Errorf("%w: challenge:manage capability required", ErrForbidden)
	}
	if strings.TrimSpace(reason) == "" {
		return participant.Participant{}, fmt.Errorf("%w: disqualification reason is required", ErrInvalidInput)
	}

	p, err := s.openParticipant(ctx, challengeID, userID)
	if err != nil {
		return participant.Participant{}, err
	}

	return s.transitionParticipant(ctx, p, participant.StatusDisqualified, operator.UserID, strings.TrimSpace(reason), nil)
}

func (s *AdmissionService) ListParticipants(ctx context.Context, challengeID string) ([]participant.Participant, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdmissionService.ListParticipants")
	defer span.End()

	challengeID = strings.TrimSpace(challengeID)
	if challengeID == "" {
		return nil, fmt.Errorf("%w: challenge id is required", ErrInvalidInput)
	}

	items, err := s.participantRepo.ListByChallenge(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}

	return items, nil
}

func (s *AdmissionService) openParticipant(ctx context.Context, challengeID, userID string) (participant.Participant, error) {
	challengeID = strings.TrimSpace(challengeID)
	userID = strings.TrimSpace(userID)
	if challengeID == "" || userID == "" {
		return participant.Participant{}, fmt.Errorf("%w: challenge id and user id are required", ErrInvalidInput)
	}

	p, exists, err := s.participantRepo.GetOpenByChallengeAndUser(ctx, challengeID, userID)
	if err != nil {
		return participant.Participant{}, fmt.Errorf("get open participant: %w", err)
	}
	if !exists {
		return participant.Participant{}, fmt.Errorf("%w: no open participation for challenge=%s user=%s", ErrNotFound, challengeID, userID)
	}

	return p, nil
}

func (s *AdmissionService) transitionParticipant(ctx context.Context, p participant.Participant, next participant.Status, decidedBy, reason string, completedAt *time.Time) (participant.Participant, error) {
	if err := participant.Transition(p.Status, next); err != nil {
		return participant.Participant{}, err
	}

	swapped, err := s.participantRepo.UpdateStatus(ctx, p.ID, p.Status, next, decidedBy, reason, completedAt)
	if err != nil {
		return participant.Participant{}, fmt.Errorf("update participant status: %w", err)
	}
	if !swapped {
		return participant.Participant{}, fmt.Errorf("%w: participant status changed concurrently", participant.ErrIllegalTransition)
	}

	s.logger.InfoContext(ctx, "participant status changed",
		"participant_id", p.ID,
		"challenge_id", p.ChallengeID,
		"from", p.Status,
		"to", next,
		"actor", decidedBy,
	)

	p.Status = next
	p.DecidedBy = decidedBy
	p.DecisionReason = reason
	p.CompletedAt = completedAt

	return p, nil
}

func (s *AdmissionService) publishAdmitted(ctx context.Context, p participant.Participant) {
	payload := map[string]any{
		"challenge_id":   p.ChallengeID,
		"participant_id": p.ID,
		"user_id":        p.UserID,
	}
	if err := s.publisher.Publish(ctx, EventParticipantAdmitted, payload, p.ID); err != nil {
		s.logger.WarnContext(ctx, "publish admission granted event failed", "participant_id", p.ID, "error", err)
	}
}
