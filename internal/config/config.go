package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/creator-league/internal/platform/logging"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	LogLevel           logging.Level
	CORSAllowedOrigins []string
	SwaggerEnabled     bool

	StoreDriver string
	DBURL       string
	SeedEnabled bool
	// ReadCacheTTL bounds competition and challenge reads cached in front of
	// postgres.
	ReadCacheTTL time.Duration

	SuperAdminUsername string
	SuperAdminPassword string
	PasswordHashCost   int
	SessionTTL         time.Duration
	LeaderboardTTL     time.Duration
	LeaderboardWorkers int

	AvatarBaseURL string
	AvatarStyle   string

	CoachEnabled             bool
	CoachBaseURL             string
	CoachAPIKey              string
	CoachModel               string
	CoachTimeout             time.Duration
	CoachCircuitEnabled      bool
	CoachCircuitFailureCount int
	CoachCircuitOpenTimeout  time.Duration
	CoachCircuitHalfOpenMax  int

	StatusSweepEnabled  bool
	StatusSweepInterval time.Duration
	StatusSweepWorkers  int

	UptraceEnabled         bool
	UptraceDSN             string
	UptraceLogsEnabled     bool
	PyroscopeEnabled       bool
	PyroscopeServerAddress string
	PyroscopeAppName       string
	PyroscopeAuthToken     string
	PyroscopeUploadRate    time.Duration
	PprofEnabled           bool
	PprofAddr              string
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	swaggerDefault := "true"
	if appEnv == EnvProd {
		swaggerDefault = "false"
	}
	swaggerEnabled, err := strconv.ParseBool(getEnv("SWAGGER_ENABLED", swaggerDefault))
	if err != nil {
		return Config{}, fmt.Errorf("parse SWAGGER_ENABLED: %w", err)
	}

	readTimeout, err := getEnvAsDuration("APP_READ_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}
	writeTimeout, err := getEnvAsDuration("APP_WRITE_TIMEOUT", "15s")
	if err != nil {
		return Config{}, err
	}

	storeDriver := strings.ToLower(strings.TrimSpace(getEnv("STORE_DRIVER", StoreMemory)))
	if storeDriver != StoreMemory && storeDriver != StorePostgres {
		return Config{}, fmt.Errorf("invalid STORE_DRIVER %q: valid values are %s, %s", storeDriver, StoreMemory, StorePostgres)
	}
	dbURL := strings.TrimSpace(getEnv("DB_URL", ""))
	if storeDriver == StorePostgres && dbURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required when STORE_DRIVER=postgres")
	}
	seedEnabled, err := strconv.ParseBool(getEnv("SEED_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SEED_ENABLED: %w", err)
	}

	readCacheTTL, err := getEnvAsDuration("STORE_READ_CACHE_TTL", "10s")
	if err != nil {
		return Config{}, err
	}

	superAdminUsername := strings.TrimSpace(getEnv("SUPER_ADMIN_USERNAME", ""))
	superAdminPassword := getEnv("SUPER_ADMIN_PASSWORD", "")
	if superAdminUsername != "" && superAdminPassword == "" {
		return Config{}, fmt.Errorf("SUPER_ADMIN_PASSWORD is required when SUPER_ADMIN_USERNAME is set")
	}

	hashCost, err := getEnvAsInt("PASSWORD_HASH_COST", 10)
	if err != nil {
		return Config{}, fmt.Errorf("parse PASSWORD_HASH_COST: %w", err)
	}
	if hashCost < 4 || hashCost > 31 {
		return Config{}, fmt.Errorf("PASSWORD_HASH_COST must be within [4,31]")
	}
	sessionTTL, err := getEnvAsDuration("SESSION_TTL", "12h")
	if err != nil {
		return Config{}, err
	}
	leaderboardTTL, err := getEnvAsDuration("LEADERBOARD_CACHE_TTL", "30s")
	if err != nil {
		return Config{}, err
	}
	leaderboardWorkers, err := getEnvAsInt("LEADERBOARD_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse LEADERBOARD_WORKERS: %w", err)
	}
	if leaderboardWorkers < 1 {
		return Config{}, fmt.Errorf("LEADERBOARD_WORKERS must be >= 1")
	}

	coachEnabled, err := strconv.ParseBool(getEnv("COACH_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse COACH_ENABLED: %w", err)
	}
	coachAPIKey := strings.TrimSpace(getEnv("COACH_API_KEY", ""))
	if coachEnabled && coachAPIKey == "" {
		return Config{}, fmt.Errorf("COACH_API_KEY is required when COACH_ENABLED=true")
	}
	coachTimeout, err := getEnvAsDuration("COACH_TIMEOUT", "15s")
	if err != nil {
		return Config{}, err
	}
	coachCircuitEnabled, err := strconv.ParseBool(getEnv("COACH_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse COACH_CIRCUIT_ENABLED: %w", err)
	}
	coachCircuitFailureCount, err := getEnvAsInt("COACH_CIRCUIT_FAILURE_COUNT", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse COACH_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if coachCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("COACH_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	coachCircuitOpenTimeout, err := getEnvAsDuration("COACH_CIRCUIT_OPEN_TIMEOUT", "30s")
	if err != nil {
		return Config{}, err
	}
	coachCircuitHalfOpenMax, err := getEnvAsInt("COACH_CIRCUIT_HALF_OPEN_MAX_REQ", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse COACH_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if coachCircuitHalfOpenMax < 1 {
		return Config{}, fmt.Errorf("COACH_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	statusSweepEnabled, err := strconv.ParseBool(getEnv("STATUS_SWEEP_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse STATUS_SWEEP_ENABLED: %w", err)
	}
	statusSweepInterval, err := getEnvAsDuration("STATUS_SWEEP_INTERVAL", "15m")
	if err != nil {
		return Config{}, err
	}
	statusSweepWorkers, err := getEnvAsInt("STATUS_SWEEP_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse STATUS_SWEEP_WORKERS: %w", err)
	}
	if statusSweepWorkers < 1 {
		return Config{}, fmt.Errorf("STATUS_SWEEP_WORKERS must be >= 1")
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
	uptraceLogsEnabled, err := strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := getEnvAsDuration("PYROSCOPE_UPLOAD_RATE", "15s")
	if err != nil {
		return Config{}, err
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	cfg := Config{
		AppEnv:                   appEnv,
		ServiceName:              getEnv("APP_SERVICE_NAME", "creator-league-api"),
		ServiceVersion:           getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                 getEnv("APP_HTTP_ADDR", ":8080"),
		ReadTimeout:              readTimeout,
		WriteTimeout:             writeTimeout,
		LogLevel:                 logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
		CORSAllowedOrigins:       splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		SwaggerEnabled:           swaggerEnabled,
		StoreDriver:              storeDriver,
		DBURL:                    dbURL,
		SeedEnabled:              seedEnabled,
		ReadCacheTTL:             readCacheTTL,
		SuperAdminUsername:       superAdminUsername,
		SuperAdminPassword:       superAdminPassword,
		PasswordHashCost:         hashCost,
		SessionTTL:               sessionTTL,
		LeaderboardTTL:           leaderboardTTL,
		LeaderboardWorkers:       leaderboardWorkers,
		AvatarBaseURL:            strings.TrimSpace(getEnv("AVATAR_BASE_URL", "https://api.dicebear.com/7.x")),
		AvatarStyle:              strings.TrimSpace(getEnv("AVATAR_STYLE", "adventurer")),
		CoachEnabled:             coachEnabled,
		CoachBaseURL:             strings.TrimSpace(getEnv("COACH_BASE_URL", "https://generativelanguage.googleapis.com/v1beta")),
		CoachAPIKey:              coachAPIKey,
		CoachModel:               strings.TrimSpace(getEnv("COACH_MODEL", "gemini-2.5-flash")),
		CoachTimeout:             coachTimeout,
		CoachCircuitEnabled:      coachCircuitEnabled,
		CoachCircuitFailureCount: coachCircuitFailureCount,
		CoachCircuitOpenTimeout:  coachCircuitOpenTimeout,
		CoachCircuitHalfOpenMax:  coachCircuitHalfOpenMax,
		StatusSweepEnabled:       statusSweepEnabled,
		StatusSweepInterval:      statusSweepInterval,
		StatusSweepWorkers:       statusSweepWorkers,
		UptraceEnabled:           uptraceEnabled,
		UptraceDSN:               uptraceDSN,
		UptraceLogsEnabled:       uptraceLogsEnabled,
		PyroscopeEnabled:         pyroscopeEnabled,
		PyroscopeServerAddress:   pyroscopeServerAddress,
		PyroscopeAuthToken:       strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeUploadRate:      pyroscopeUploadRate,
		PprofEnabled:             pprofEnabled,
		PprofAddr:                pprofAddr,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	return cfg, nil
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

// getEnvAsDuration parses a positive duration.
func getEnvAsDuration(key, fallback string) (time.Duration, error) {
	out, err := time.ParseDuration(strings.TrimSpace(getEnv(key, fallback)))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
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

	for _, item := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			return strings.Trim(strings.TrimSpace(parts[1]), "\"'")
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
