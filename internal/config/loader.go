package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "ilmihal.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	return load(yamlPath, CLIFlags{})
}

// LoadWithCLI loads defaults < YAML < ENV < CLI flags and returns the
// resolved YAML path alongside the config.
func LoadWithCLI(flags CLIFlags) (*Config, string, error) {
	path := DefaultConfigFile
	if flags.ConfigPath != nil && *flags.ConfigPath != "" {
		path = *flags.ConfigPath
	}
	cfg, err := load(path, flags)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func load(yamlPath string, flags CLIFlags) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)
	applyCLI(&cfg, flags)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: operator-supplied config path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "ILMIHAL_PORT")
	setString(&cfg.Server.CORSOrigin, "ILMIHAL_CORS_ORIGIN")
	setDuration(&cfg.Server.IdempotencyTTL, "ILMIHAL_IDEMPOTENCY_TTL")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "ILMIHAL_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "ILMIHAL_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "ILMIHAL_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "ILMIHAL_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "ILMIHAL_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REDIS_DB")
	setString(&cfg.LiteLLM.URL, "LITELLM_URL")
	setString(&cfg.LiteLLM.MasterKey, "LITELLM_MASTER_KEY")
	setString(&cfg.LiteLLM.Model, "ILMIHAL_CHAT_MODEL")
	setDuration(&cfg.LiteLLM.Timeout, "ILMIHAL_CHAT_TIMEOUT")
	setString(&cfg.Logging.Level, "ILMIHAL_LOG_LEVEL")
	setString(&cfg.Logging.Service, "ILMIHAL_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "ILMIHAL_LOG_ASYNC")
	setInt(&cfg.Breaker.MaxFailures, "ILMIHAL_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "ILMIHAL_BREAKER_TIMEOUT")
	setFloat64(&cfg.Rate.RequestsPerSecond, "ILMIHAL_RATE_RPS")
	setInt(&cfg.Rate.Burst, "ILMIHAL_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "ILMIHAL_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "ILMIHAL_RATE_MAX_IDLE_TIME")

	// Cache
	setDuration(&cfg.Cache.TTL, "ILMIHAL_CACHE_TTL")
	setInt64(&cfg.Cache.L1MaxSizeMB, "ILMIHAL_CACHE_L1_SIZE_MB")
	setString(&cfg.Cache.L2Bucket, "ILMIHAL_CACHE_L2_BUCKET")

	// Chat
	setInt64(&cfg.Chat.FreeQuestions, "ILMIHAL_CHAT_FREE_QUESTIONS")
	setDuration(&cfg.Chat.Window, "ILMIHAL_CHAT_WINDOW")
	setString(&cfg.Chat.CounterBackend, "ILMIHAL_CHAT_COUNTER_BACKEND")
	setString(&cfg.Chat.CounterBucket, "ILMIHAL_CHAT_COUNTER_BUCKET")
	setString(&cfg.Chat.SystemPrompt, "ILMIHAL_CHAT_SYSTEM_PROMPT")

	// Import
	setInt(&cfg.Import.MaxChunkChars, "ILMIHAL_IMPORT_MAX_CHUNK_CHARS")
	setInt64(&cfg.Import.MaxUploadMB, "ILMIHAL_IMPORT_MAX_UPLOAD_MB")

	// MCP
	setBool(&cfg.MCP.Enabled, "ILMIHAL_MCP_ENABLED")
	setString(&cfg.MCP.Addr, "ILMIHAL_MCP_ADDR")
	setString(&cfg.MCP.APIKey, "ILMIHAL_MCP_API_KEY")

	// OpenTelemetry
	setString(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.OTEL.Insecure, "OTEL_EXPORTER_OTLP_INSECURE")
	setFloat64(&cfg.OTEL.SampleRatio, "ILMIHAL_OTEL_SAMPLE_RATIO")

	// Notifications
	setProvider(cfg, "slack", "webhook_url", "ILMIHAL_NOTIFY_SLACK_WEBHOOK")
	setProvider(cfg, "email", "host", "ILMIHAL_NOTIFY_SMTP_HOST")
	setProvider(cfg, "email", "port", "ILMIHAL_NOTIFY_SMTP_PORT")
	setProvider(cfg, "email", "from", "ILMIHAL_NOTIFY_SMTP_FROM")
	setProvider(cfg, "email", "password", "ILMIHAL_NOTIFY_SMTP_PASSWORD")
	setProvider(cfg, "email", "to", "ILMIHAL_NOTIFY_EMAIL_TO")
}

// setProvider sets one notifier setting, creating the provider entry.
func setProvider(cfg *Config, provider, key, env string) {
	v := os.Getenv(env)
	if v == "" {
		return
	}
	if cfg.Notify.Providers == nil {
		cfg.Notify.Providers = make(map[string]map[string]string)
	}
	if cfg.Notify.Providers[provider] == nil {
		cfg.Notify.Providers[provider] = make(map[string]string)
	}
	cfg.Notify.Providers[provider][key] = v
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.NATS.URL == "" {
		return errors.New("nats.url is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Postgres.MinConns > cfg.Postgres.MaxConns {
		return errors.New("postgres.min_conns must be <= max_conns")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.RequestsPerSecond <= 0 {
		return errors.New("rate.requests_per_second must be > 0")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	if cfg.Cache.TTL < 0 {
		return errors.New("cache.ttl must be >= 0")
	}
	if cfg.Chat.FreeQuestions < 1 {
		return errors.New("chat.free_questions must be >= 1")
	}
	if cfg.Chat.Window <= 0 {
		return errors.New("chat.window must be > 0")
	}
	switch cfg.Chat.CounterBackend {
	case "nats":
		if cfg.Chat.CounterBucket == "" {
			return errors.New("chat.counter_bucket is required for the nats backend")
		}
	case "redis":
		if cfg.Redis.Addr == "" {
			return errors.New("redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("chat.counter_backend must be nats or redis, got %q", cfg.Chat.CounterBackend)
	}
	if cfg.Import.MaxChunkChars < 200 {
		return errors.New("import.max_chunk_chars must be >= 200")
	}
	if cfg.MCP.Enabled && cfg.MCP.Addr == "" {
		return errors.New("mcp.addr is required when mcp is enabled")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
