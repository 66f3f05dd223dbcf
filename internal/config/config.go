package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// State backends.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Sources
	SourcesFile       string        // optional YAML file with unfiltered/filtered sources
	SourcesUnfiltered string        // multi-line "url # note" list, used with or without the file
	SourcesFiltered   string        // same, for sources that go through the keyword filter
	IncludeKeywords   []string      // newline or comma separated
	ExcludeKeywords   []string      // newline or comma separated
	EmptyInclude      string        // "accept" | "reject"
	BlacklistFold     bool          // true => case-insensitive blacklist
	SourceConcurrency int           // sources fetched at once (default: 1)
	SourceTimeout     time.Duration // per-source fetch bound (default: 2m)
	FetchRate         float64       // requests per second per host (0 = unlimited)
	FetchBurst        int
	UserAgent         string

	// Ledger
	Retention        time.Duration // from JOBWATCH_RETENTION_DAYS (default: 7 days)
	CycleInterval    time.Duration // sleep between cycles (default: 20m)
	MarkerGCInterval time.Duration // interval to drop markers of removed sources (default: 24h)
	StateBackend     string        // "file" | "redis" | "memory"
	StateFile        string        // path of the JSON ledger when StateBackend is "file"
	StateKey         string        // instance name appended to the Redis key

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	// Notifications (empty token => log sink)
	TelegramToken   string
	PostingsChatID  int64
	CompaniesChatID int64
	OperatorChatID  int64
	NotifyAttempts  int           // tries per message, including the first (default: 3)
	NotifyTimeout   time.Duration // per-attempt deadline (default: 30s)
	NotifyRate      float64       // messages per second (default: 1)

	AllowedHosts []string // optional, restrict /api to specific Host headers
	AllowedCIDRS []string // optional, restrict access to specific IP (e.g. "1.2.3.4, 5.6.7.8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
}

func Load() *Config {
	loadDotEnv(getenv("JOBWATCH_ENV_FILE", ".env"))

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("JOBWATCH_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("JOBWATCH_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("JOBWATCH_LOG_LEVEL", "info"),
		PrettyLog: mustBool("JOBWATCH_PRETTY_LOG", false),

		// Sources
		SourcesFile:       getenv("JOBWATCH_SOURCES_FILE", ""),
		SourcesUnfiltered: getenv("JOBWATCH_SOURCES_UNFILTERED", ""),
		SourcesFiltered:   getenv("JOBWATCH_SOURCES_FILTERED", ""),
		IncludeKeywords:   splitKeywords(getenv("JOBWATCH_INCLUDE_KEYWORDS", "")),
		ExcludeKeywords:   splitKeywords(getenv("JOBWATCH_EXCLUDE_KEYWORDS", "")),
		EmptyInclude:      strings.ToLower(getenv("JOBWATCH_EMPTY_INCLUDE", "accept")),
		BlacklistFold:     strings.EqualFold(getenv("JOBWATCH_BLACKLIST_MATCH", "exact"), "fold"),
		SourceConcurrency: getenvInt("JOBWATCH_SOURCE_CONCURRENCY", 1),
		SourceTimeout:     mustDuration("JOBWATCH_SOURCE_TIMEOUT", 2*time.Minute),
		FetchRate:         getenvFloat("JOBWATCH_FETCH_RATE", 1),
		FetchBurst:        getenvInt("JOBWATCH_FETCH_BURST", 1),
		UserAgent:         getenv("JOBWATCH_USER_AGENT", "jobwatch/1.0 (+https://github.com/MrSnakeDoc/jobwatch)"),

		// Ledger
		Retention:        time.Duration(getenvInt("JOBWATCH_RETENTION_DAYS", 7)) * 24 * time.Hour,
		CycleInterval:    mustDuration("JOBWATCH_CYCLE_INTERVAL", 20*time.Minute),
		MarkerGCInterval: mustDuration("JOBWATCH_MARKER_GC_INTERVAL", 24*time.Hour),
		StateBackend:     strings.ToLower(getenv("JOBWATCH_STATE_BACKEND", BackendFile)),
		StateFile:        getenv("JOBWATCH_STATE_FILE", "/data/state.json"),
		StateKey:         getenv("JOBWATCH_STATE_KEY", "default"),

		// Redis settings
		RedisAddr:             getenv("JOBWATCH_REDIS_ADDR", ""),
		RedisUser:             getenv("JOBWATCH_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("JOBWATCH_REDIS_PASSWORD_REQUIRED", true),
		RedisPassword:         getenv("JOBWATCH_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("JOBWATCH_REDIS_DB", 0),
		RedisDT:               mustDuration("JOBWATCH_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("JOBWATCH_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("JOBWATCH_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("JOBWATCH_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("JOBWATCH_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("JOBWATCH_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("JOBWATCH_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("JOBWATCH_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("JOBWATCH_REDIS_WARN_THRESHOLD", 3),

		// Notifications
		TelegramToken:  getenv("JOBWATCH_TELEGRAM_TOKEN", ""),
		NotifyAttempts: getenvInt("JOBWATCH_NOTIFY_ATTEMPTS", 3),
		NotifyTimeout:  mustDuration("JOBWATCH_NOTIFY_TIMEOUT", 30*time.Second),
		NotifyRate:     getenvFloat("JOBWATCH_NOTIFY_RATE", 1),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("JOBWATCH_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("JOBWATCH_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("JOBWATCH_TRUST_PROXY", false),
	}

	if cfg.TelegramToken != "" {
		cfg.PostingsChatID = requireEnvInt64("JOBWATCH_POSTINGS_CHAT_ID")
		cfg.CompaniesChatID = requireEnvInt64("JOBWATCH_COMPANIES_CHAT_ID")
		cfg.OperatorChatID = requireEnvInt64("JOBWATCH_OPERATOR_CHAT_ID")
	}

	switch cfg.StateBackend {
	case BackendFile, BackendMemory:
	case BackendRedis:
		cfg.RedisAddr = requireEnv("JOBWATCH_REDIS_ADDR")
		// Validate Redis password configuration
		if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
			panic("❌ FATAL: JOBWATCH_REDIS_PASSWORD is required when JOBWATCH_REDIS_PASSWORD_REQUIRED=true")
		}
	default:
		panic(fmt.Sprintf("❌ FATAL: Invalid JOBWATCH_STATE_BACKEND %q (want file, redis or memory)", cfg.StateBackend))
	}

	if cfg.EmptyInclude != "accept" && cfg.EmptyInclude != "reject" {
		panic(fmt.Sprintf("❌ FATAL: Invalid JOBWATCH_EMPTY_INCLUDE %q (want accept or reject)", cfg.EmptyInclude))
	}

	if cfg.Retention <= 0 {
		panic("❌ FATAL: JOBWATCH_RETENTION_DAYS must be > 0")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.TelegramToken != "" {
			cfgCopy.TelegramToken = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// loadDotEnv reads KEY=VALUE pairs from path. Variables already present in
// the environment win. A missing file is fine.
func loadDotEnv(path string) {
	if path == "" {
		return
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(fmt.Sprintf("❌ FATAL: Failed to read env file %s: %v", path, err))
	}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func requireEnvInt64(key string) int64 {
	v := requireEnv(key)
	i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

// splitKeywords accepts one keyword per line or a comma separated list.
func splitKeywords(s string) []string {
	return splitAndTrim(strings.ReplaceAll(s, "\n", ","))
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
