package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fitarena/challenge-engine/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                  string
	ServiceName             string
	ServiceVersion          string
	HTTPAddr                string
	DBURL                   string
	DBDisablePreparedBinary bool

	CacheEnabled bool
	CacheTTL     time.Duration

	CORSAllowedOrigins []string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration

	PprofEnabled bool
	PprofAddr    string

	ClubAuthBaseURL               string
	ClubAuthIntrospectPath        string
	ClubAuthAdminKey              string
	ClubAuthTimeout               time.Duration
	ClubAuthCircuitEnabled        bool
	ClubAuthCircuitFailureCount   int
	ClubAuthCircuitOpenTimeout    time.Duration
	ClubAuthCircuitHalfOpenMaxReq int

	UptraceEnabled bool
	UptraceDSN     string

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration

	NotifyEnabled       bool
	NotifyQueueBaseURL  string
	NotifyQueueToken    string
	NotifyTargetBaseURL string
	NotifyRetries       int
	NotifyTimeout       time.Duration

	InternalJobToken           string
	LeaderboardRefreshInterval time.Duration

	LogLevel logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	refreshInterval, err := time.ParseDuration(getEnv("LEADERBOARD_REFRESH_INTERVAL", "5m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LEADERBOARD_REFRESH_INTERVAL: %w", err)
	}
	if refreshInterval <= 0 {
		return Config{}, fmt.Errorf("LEADERBOARD_REFRESH_INTERVAL must be > 0")
	}

	notifyEnabled, err := strconv.ParseBool(getEnv("NOTIFY_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse NOTIFY_ENABLED: %w", err)
	}
	notifyRetries, err := getEnvAsInt("NOTIFY_RETRIES", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse NOTIFY_RETRIES: %w", err)
	}
	if notifyRetries < 0 {
		return Config{}, fmt.Errorf("NOTIFY_RETRIES must be >= 0")
	}
	notifyTimeout, err := time.ParseDuration(getEnv("NOTIFY_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse NOTIFY_TIMEOUT: %w", err)
	}
	if notifyTimeout <= 0 {
		return Config{}, fmt.Errorf("NOTIFY_TIMEOUT must be > 0")
	}
	notifyQueueBaseURL := strings.TrimSpace(getEnv("NOTIFY_QUEUE_BASE_URL", "https://qstash.upstash.io"))
	notifyQueueToken := strings.TrimSpace(getEnv("NOTIFY_QUEUE_TOKEN", ""))
	notifyTargetBaseURL := strings.TrimSpace(getEnv("NOTIFY_TARGET_BASE_URL", ""))
	if notifyEnabled {
		if notifyQueueToken == "" {
			return Config{}, fmt.Errorf("NOTIFY_QUEUE_TOKEN is required when NOTIFY_ENABLED=true")
		}
		if notifyTargetBaseURL == "" {
			return Config{}, fmt.Errorf("NOTIFY_TARGET_BASE_URL is required when NOTIFY_ENABLED=true")
		}
	}

	cfg := Config{
		AppEnv:                 appEnv,
		ServiceName:            getEnv("APP_SERVICE_NAME", "challenge-engine-api"),
		ServiceVersion:         getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:               getEnv("APP_HTTP_ADDR", ":8080"),
		DBURL:                  getEnv("DB_URL", ""),
		CORSAllowedOrigins:     splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		PprofEnabled:           pprofEnabled,
		PprofAddr:              pprofAddr,
		ClubAuthBaseURL:        getEnv("CLUB_AUTH_BASE_URL", "http://localhost:8081"),
		ClubAuthIntrospectPath: getEnv("CLUB_AUTH_INTROSPECT_PATH", "/v1/auth/introspect"),
		ClubAuthAdminKey:       getEnv("CLUB_AUTH_ADMIN_KEY", ""),
		UptraceEnabled:         uptraceEnabled,
		UptraceDSN:             uptraceDSN,

		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,

		NotifyEnabled:       notifyEnabled,
		NotifyQueueBaseURL:  notifyQueueBaseURL,
		NotifyQueueToken:    notifyQueueToken,
		NotifyTargetBaseURL: notifyTargetBaseURL,
		NotifyRetries:       notifyRetries,
		NotifyTimeout:       notifyTimeout,

		InternalJobToken:           strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
		LeaderboardRefreshInterval: refreshInterval,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}
	cfg.DBDisablePreparedBinary = dbDisablePreparedBinary

	cacheEnabled, err := strconv.ParseBool(getEnv("CACHE_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_ENABLED: %w", err)
	}
	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_TTL: %w", err)
	}
	if cacheTTL <= 0 {
		return Config{}, fmt.Errorf("CACHE_TTL must be > 0")
	}
	cfg.CacheEnabled = cacheEnabled
	cfg.CacheTTL = cacheTTL

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	clubAuthTimeout, err := time.ParseDuration(getEnv("CLUB_AUTH_TIMEOUT", "3s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CLUB_AUTH_TIMEOUT: %w", err)
	}

	clubAuthCircuitEnabled, err := strconv.ParseBool(getEnv("CLUB_AUTH_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CLUB_AUTH_CIRCUIT_ENABLED: %w", err)
	}

	clubAuthCircuitFailureCount, err := getEnvAsInt("CLUB_AUTH_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse CLUB_AUTH_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if clubAuthCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("CLUB_AUTH_CIRCUIT_FAILURE_COUNT must be >= 1")
	}

	clubAuthCircuitOpenTimeout, err := time.ParseDuration(getEnv("CLUB_AUTH_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CLUB_AUTH_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if clubAuthCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("CLUB_AUTH_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}

	clubAuthCircuitHalfOpenMaxReq, err := getEnvAsInt("CLUB_AUTH_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse CLUB_AUTH_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if clubAuthCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("CLUB_AUTH_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	cfg.ReadTimeout = readTimeout
	cfg.WriteTimeout = writeTimeout
	cfg.ClubAuthTimeout = clubAuthTimeout
	cfg.ClubAuthCircuitEnabled = clubAuthCircuitEnabled
	cfg.ClubAuthCircuitFailureCount = clubAuthCircuitFailureCount
	cfg.ClubAuthCircuitOpenTimeout = clubAuthCircuitOpenTimeout
	cfg.ClubAuthCircuitHalfOpenMaxReq = clubAuthCircuitHalfOpenMaxReq
	cfg.LogLevel = parseLogLevel(getEnv("APP_LOG_LEVEL", "info"))

	return cfg, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
