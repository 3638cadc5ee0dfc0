package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fantadynasty/transfer-market/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                      string
	ServiceName                 string
	ServiceVersion              string
	HTTPAddr                    string
	DBURL                       string
	DBDisablePreparedBinary     bool
	CacheEnabled                bool
	CacheTTL                    time.Duration
	CORSAllowedOrigins          []string
	ReadTimeout                 time.Duration
	WriteTimeout                time.Duration
	PprofEnabled                bool
	PprofAddr                   string
	TribunaBaseURL              string
	TribunaIntrospectPath       string
	TribunaTimeout              time.Duration
	TribunaCacheTTL             time.Duration
	TribunaCircuitEnabled       bool
	TribunaCircuitFailureCount  int
	TribunaCircuitOpenTimeout   time.Duration
	TribunaCircuitHalfOpenMax   int
	UptraceEnabled              bool
	UptraceDSN                  string
	UptraceLogsEnabled          bool
	BetterStackEnabled          bool
	BetterStackEndpoint         string
	BetterStackToken            string
	BetterStackTimeout          time.Duration
	BetterStackMinLevel         logging.Level
	PyroscopeEnabled            bool
	PyroscopeServerAddress      string
	PyroscopeAppName            string
	PyroscopeAuthToken          string
	PyroscopeBasicAuthUser      string
	PyroscopeBasicAuthPassword  string
	PyroscopeUploadRate         time.Duration
	WebhookEnabled              bool
	WebhookBaseURL              string
	WebhookToken                string
	WebhookRetries              int
	WebhookTimeout              time.Duration
	WebhookCircuitEnabled       bool
	WebhookCircuitFailureCount  int
	WebhookCircuitOpenTimeout   time.Duration
	WebhookCircuitHalfOpenMax   int
	AuctionTimer                time.Duration
	AuctionAntiSnipeThreshold   time.Duration
	AuctionAntiSnipeExtension   time.Duration
	ExpirySweepInterval         time.Duration
	ExpiryPoolSize              int
	LogLevel                    logging.Level
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
	uptraceLogsEnabled, err := strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
	}

	betterStackEnabled, err := strconv.ParseBool(getEnv("BETTERSTACK_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse BETTERSTACK_ENABLED: %w", err)
	}
	betterStackEndpoint := strings.TrimSpace(getEnv("BETTERSTACK_ENDPOINT", ""))
	if betterStackEnabled && betterStackEndpoint == "" {
		return Config{}, fmt.Errorf("BETTERSTACK_ENDPOINT is required when BETTERSTACK_ENABLED=true")
	}
	betterStackTimeout, err := time.ParseDuration(getEnv("BETTERSTACK_TIMEOUT", "3s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse BETTERSTACK_TIMEOUT: %w", err)
	}
	if betterStackTimeout <= 0 {
		return Config{}, fmt.Errorf("BETTERSTACK_TIMEOUT must be > 0")
	}
	betterStackMinLevel := parseLogLevel(getEnv("BETTERSTACK_MIN_LEVEL", "error"))

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofAddr == "" {
		pprofAddr = ":6060"
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

	webhookEnabled, err := strconv.ParseBool(getEnv("WEBHOOK_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse WEBHOOK_ENABLED: %w", err)
	}
	webhookBaseURL := strings.TrimSpace(getEnv("WEBHOOK_BASE_URL", ""))
	webhookToken := strings.TrimSpace(getEnv("WEBHOOK_TOKEN", ""))
	if webhookEnabled {
		if webhookBaseURL == "" {
			return Config{}, fmt.Errorf("WEBHOOK_BASE_URL is required when WEBHOOK_ENABLED=true")
		}
		if webhookToken == "" {
			return Config{}, fmt.Errorf("WEBHOOK_TOKEN is required when WEBHOOK_ENABLED=true")
		}
	}
	webhookRetries, err := getEnvAsInt("WEBHOOK_RETRIES", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse WEBHOOK_RETRIES: %w", err)
	}
	if webhookRetries < 0 {
		return Config{}, fmt.Errorf("WEBHOOK_RETRIES must be >= 0")
	}
	webhookTimeout, err := time.ParseDuration(getEnv("WEBHOOK_TIMEOUT", "5s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse WEBHOOK_TIMEOUT: %w", err)
	}
	if webhookTimeout <= 0 {
		return Config{}, fmt.Errorf("WEBHOOK_TIMEOUT must be > 0")
	}
	webhookCircuitEnabled, err := strconv.ParseBool(getEnv("WEBHOOK_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse WEBHOOK_CIRCUIT_ENABLED: %w", err)
	}
	webhookCircuitFailureCount, err := getEnvAsInt("WEBHOOK_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse WEBHOOK_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if webhookCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("WEBHOOK_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	webhookCircuitOpenTimeout, err := time.ParseDuration(getEnv("WEBHOOK_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse WEBHOOK_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if webhookCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("WEBHOOK_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	webhookCircuitHalfOpenMax, err := getEnvAsInt("WEBHOOK_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse WEBHOOK_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if webhookCircuitHalfOpenMax < 1 {
		return Config{}, fmt.Errorf("WEBHOOK_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	auctionTimer, err := time.ParseDuration(getEnv("AUCTION_TIMER", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse AUCTION_TIMER: %w", err)
	}
	if auctionTimer <= 0 {
		return Config{}, fmt.Errorf("AUCTION_TIMER must be > 0")
	}
	antiSnipeThreshold, err := time.ParseDuration(getEnv("AUCTION_ANTI_SNIPE_THRESHOLD", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse AUCTION_ANTI_SNIPE_THRESHOLD: %w", err)
	}
	if antiSnipeThreshold <= 0 {
		return Config{}, fmt.Errorf("AUCTION_ANTI_SNIPE_THRESHOLD must be > 0")
	}
	// Unless overridden, a snipe-window bid restarts the full auction timer.
	antiSnipeExtension, err := time.ParseDuration(getEnv("AUCTION_ANTI_SNIPE_EXTENSION", auctionTimer.String()))
	if err != nil {
		return Config{}, fmt.Errorf("parse AUCTION_ANTI_SNIPE_EXTENSION: %w", err)
	}
	if antiSnipeExtension <= 0 {
		return Config{}, fmt.Errorf("AUCTION_ANTI_SNIPE_EXTENSION must be > 0")
	}
	expirySweepInterval, err := time.ParseDuration(getEnv("EXPIRY_SWEEP_INTERVAL", "1s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse EXPIRY_SWEEP_INTERVAL: %w", err)
	}
	if expirySweepInterval <= 0 {
		return Config{}, fmt.Errorf("EXPIRY_SWEEP_INTERVAL must be > 0")
	}
	expiryPoolSize, err := getEnvAsInt("EXPIRY_POOL_SIZE", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse EXPIRY_POOL_SIZE: %w", err)
	}
	if expiryPoolSize < 1 {
		return Config{}, fmt.Errorf("EXPIRY_POOL_SIZE must be >= 1")
	}

	cfg := Config{
		AppEnv:                     appEnv,
		ServiceName:                getEnv("APP_SERVICE_NAME", "transfer-market-api"),
		ServiceVersion:             getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                   getEnv("APP_HTTP_ADDR", ":8080"),
		DBURL:                      getEnv("DB_URL", ""),
		CORSAllowedOrigins:         splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		PprofEnabled:               pprofEnabled,
		PprofAddr:                  pprofAddr,
		TribunaBaseURL:             getEnv("TRIBUNA_BASE_URL", "http://localhost:8081"),
		TribunaIntrospectPath:      getEnv("TRIBUNA_INTROSPECT_PATH", "/v1/auth/introspect"),
		UptraceEnabled:             uptraceEnabled,
		UptraceDSN:                 uptraceDSN,
		UptraceLogsEnabled:         uptraceLogsEnabled,
		BetterStackEnabled:         betterStackEnabled,
		BetterStackEndpoint:        betterStackEndpoint,
		BetterStackToken:           strings.TrimSpace(getEnv("BETTERSTACK_TOKEN", "")),
		BetterStackTimeout:         betterStackTimeout,
		BetterStackMinLevel:        betterStackMinLevel,
		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,
		WebhookEnabled:             webhookEnabled,
		WebhookBaseURL:             webhookBaseURL,
		WebhookToken:               webhookToken,
		WebhookRetries:             webhookRetries,
		WebhookTimeout:             webhookTimeout,
		WebhookCircuitEnabled:      webhookCircuitEnabled,
		WebhookCircuitFailureCount: webhookCircuitFailureCount,
		WebhookCircuitOpenTimeout:  webhookCircuitOpenTimeout,
		WebhookCircuitHalfOpenMax:  webhookCircuitHalfOpenMax,
		AuctionTimer:               auctionTimer,
		AuctionAntiSnipeThreshold:  antiSnipeThreshold,
		AuctionAntiSnipeExtension:  antiSnipeExtension,
		ExpirySweepInterval:        expirySweepInterval,
		ExpiryPoolSize:             expiryPoolSize,
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

	tribunaTimeout, err := time.ParseDuration(getEnv("TRIBUNA_TIMEOUT", "3s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse TRIBUNA_TIMEOUT: %w", err)
	}

	tribunaCacheTTL, err := time.ParseDuration(getEnv("TRIBUNA_CACHE_TTL", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse TRIBUNA_CACHE_TTL: %w", err)
	}
	if tribunaCacheTTL <= 0 {
		return Config{}, fmt.Errorf("TRIBUNA_CACHE_TTL must be > 0")
	}

	tribunaCircuitEnabled, err := strconv.ParseBool(getEnv("TRIBUNA_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse TRIBUNA_CIRCUIT_ENABLED: %w", err)
	}

	tribunaCircuitFailureCount, err := getEnvAsInt("TRIBUNA_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse TRIBUNA_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if tribunaCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("TRIBUNA_CIRCUIT_FAILURE_COUNT must be >= 1")
	}

	tribunaCircuitOpenTimeout, err := time.ParseDuration(getEnv("TRIBUNA_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse TRIBUNA_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if tribunaCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("TRIBUNA_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}

	tribunaCircuitHalfOpenMax, err := getEnvAsInt("TRIBUNA_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse TRIBUNA_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if tribunaCircuitHalfOpenMax < 1 {
		return Config{}, fmt.Errorf("TRIBUNA_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	logLevel := parseLogLevel(getEnv("APP_LOG_LEVEL", "info"))

	cfg.ReadTimeout = readTimeout
	cfg.WriteTimeout = writeTimeout
	cfg.TribunaTimeout = tribunaTimeout
	cfg.TribunaCacheTTL = tribunaCacheTTL
	cfg.TribunaCircuitEnabled = tribunaCircuitEnabled
	cfg.TribunaCircuitFailureCount = tribunaCircuitFailureCount
	cfg.TribunaCircuitOpenTimeout = tribunaCircuitOpenTimeout
	cfg.TribunaCircuitHalfOpenMax = tribunaCircuitHalfOpenMax
	cfg.LogLevel = logLevel

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
