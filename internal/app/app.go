package app

import (
	"context"
	"fmt"
	"net/http"

	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/fitarena/challenge-engine/internal/config"
	"github.com/fitarena/challenge-engine/internal/domain/challenge"
	"github.com/fitarena/challenge-engine/internal/domain/invitation"
	"github.com/fitarena/challenge-engine/internal/domain/participant"
	"github.com/fitarena/challenge-engine/internal/domain/progress"
	"github.com/fitarena/challenge-engine/internal/domain/team"
	"github.com/fitarena/challenge-engine/internal/infrastructure/account/clubauth"
	"github.com/fitarena/challenge-engine/internal/infrastructure/notification"
	cacherepo "github.com/fitarena/challenge-engine/internal/infrastructure/repository/cache"
	"github.com/fitarena/challenge-engine/internal/infrastructure/repository/memory"
	"github.com/fitarena/challenge-engine/internal/infrastructure/repository/postgres"
	"github.com/fitarena/challenge-engine/internal/interfaces/httpapi"
	basecache "github.com/fitarena/challenge-engine/internal/platform/cache"
	idgen "github.com/fitarena/challenge-engine/internal/platform/id"
	"github.com/fitarena/challenge-engine/internal/platform/logging"
	"github.com/fitarena/challenge-engine/internal/usecase"
)

// Services bundles the engine use cases so cmd/api can reach the refresh
// service for the leaderboard scheduler without re-wiring repositories.
type Services struct {
	Challenge  *usecase.ChallengeService
	Admission  *usecase.AdmissionService
	Progress   *usecase.ProgressService
	Ranking    *usecase.RankingService
	Invitation *usecase.InvitationService
	Refresh    *usecase.LeaderboardRefreshService
}

type repositories struct {
	challenges   challenge.Repository
	participants participant.Repository
	teams        team.Repository
	invitations  invitation.Repository
	progress     progress.Repository
}

// NewHTTPServer wires repositories, services, and the HTTP surface into a
// ready-to-run server. DB_URL selects the persistence backend: empty runs
// the in-memory repositories with demo seed data, anything else connects
// to Postgres.
func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, *Services, error) {
	if logger == nil {
		logger = logging.Default()
	}

	repos, err := buildRepositories(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	if cfg.CacheEnabled {
		store := basecache.NewStore(cfg.CacheTTL)
		repos.challenges = cacherepo.NewChallengeRepository(repos.challenges, store)
		repos.invitations = cacherepo.NewInvitationRepository(repos.invitations, store)
		logger.Info("read-through cache enabled", "ttl", cfg.CacheTTL.String())
	}

	services := buildServices(cfg, repos, logger)

	verifier := clubauth.NewClient(
		&http.Client{Timeout: cfg.ClubAuthTimeout},
		cfg.ClubAuthBaseURL,
		cfg.ClubAuthIntrospectPath,
		cfg.ClubAuthAdminKey,
		clubauth.CircuitBreakerConfig{
			Enabled:          cfg.ClubAuthCircuitEnabled,
			FailureThreshold: cfg.ClubAuthCircuitFailureCount,
			OpenTimeout:      cfg.ClubAuthCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.ClubAuthCircuitHalfOpenMaxReq,
		},
		logger,
	)

	handler := httpapi.NewHandler(
		services.Challenge,
		services.Admission,
		services.Progress,
		services.Ranking,
		services.Invitation,
		services.Refresh,
		logger,
	)
	router := httpapi.NewRouter(handler, verifier, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, services, nil
}

func buildServices(cfg config.Config, repos repositories, logger *logging.Logger) *Services {
	publisher := buildPublisher(cfg, logger)
	ids := idgen.NewRandomGenerator()

	rankingSvc := usecase.NewRankingService(
		repos.challenges,
		repos.participants,
		repos.teams,
		repos.progress,
		basecache.NewStore(cfg.CacheTTL),
		logger,
	)

	return &Services{
		Challenge: usecase.NewChallengeService(repos.challenges, publisher, ids, logger),
		Admission: usecase.NewAdmissionService(
			repos.challenges,
			repos.participants,
			repos.teams,
			repos.invitations,
			publisher,
			ids,
			logger,
		),
		Progress:   usecase.NewProgressService(repos.challenges, repos.participants, repos.progress, ids, logger),
		Ranking:    rankingSvc,
		Invitation: usecase.NewInvitationService(repos.challenges, repos.invitations, ids, logger),
		Refresh: usecase.NewLeaderboardRefreshService(
			repos.challenges,
			repos.participants,
			repos.progress,
			rankingSvc,
			logger,
		),
	}
}

func buildPublisher(cfg config.Config, logger *logging.Logger) usecase.EventPublisher {
	if !cfg.NotifyEnabled {
		logger.Info("event publishing disabled", "reason", "NOTIFY_ENABLED=false")
		return usecase.NopPublisher{}
	}

	return notification.NewQStashPublisher(notification.QStashPublisherConfig{
		BaseURL:       cfg.NotifyQueueBaseURL,
		Token:         cfg.NotifyQueueToken,
		TargetBaseURL: cfg.NotifyTargetBaseURL,
		Retries:       cfg.NotifyRetries,
		Timeout:       cfg.NotifyTimeout,
	}, logger)
}

func buildRepositories(cfg config.Config, logger *logging.Logger) (repositories, error) {
	if cfg.DBURL == "" {
		logger.Info("using in-memory repositories", "reason", "DB_URL empty")
		return seedMemoryRepositories()
	}

	db, err := otelsqlx.Open("postgres", normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary),
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
	)
	if err != nil {
		return repositories{}, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return repositories{}, fmt.Errorf("ping postgres: %w", err)
	}

	logger.Info("postgres connected", "database", dbNameFromURL(cfg.DBURL))

	return repositories{
		challenges:   postgres.NewChallengeRepository(db),
		participants: postgres.NewParticipantRepository(db),
		teams:        postgres.NewTeamRepository(db),
		invitations:  postgres.NewInvitationRepository(db),
		progress:     postgres.NewProgressRepository(db),
	}, nil
}

func seedMemoryRepositories() (repositories, error) {
	challengeRepo := memory.NewChallengeRepository()
	for _, ch := range memory.SeedChallenges() {
		if err := challengeRepo.Create(context.Background(), ch); err != nil {
			return repositories{}, fmt.Errorf("seed challenge %s: %w", ch.ID, err)
		}
	}

	return repositories{
		challenges:   challengeRepo,
		participants: memory.NewParticipantRepository(),
		teams:        memory.NewTeamRepository(),
		invitations:  memory.NewInvitationRepository(),
		progress:     memory.NewProgressRepository(),
	}, nil
}
