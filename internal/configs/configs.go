package config

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

type Config struct {
	AppEnv                 string
	AppURL                 string
	Workers                int
	QueueSize              int
	PollIntervalSeconds    int
	PollBatchSize          int
	DatabaseDriver         string
	DatabaseDSN            string
	MaxOpenConns           int
	MaxIdleConns           int
	ConnMaxLifetimeMinutes int
	Environment            string
	Environments           map[string]string
	TableName              string
	RestoreTargetStatus    int
	StrictTransitions      bool
	RateLimit              int
	RedisAddr              string
	RedisSlotKey           string
	RedisRateLimitPrefix   string
	ShutdownTimeoutSeconds int
}

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Load reads configuration from the environment once at startup. Invalid
// values are fatal: a half-configured engine must not come up.
func Load() Config {
	appHost := getEnv("APP_HOST", "127.0.0.1")
	appPort := getEnv("APP_PORT", "8080")
	redisHost := getEnv("REDIS_HOST", "127.0.0.1")
	redisPort := getEnv("REDIS_PORT", "6379")

	cfg := Config{
		AppEnv:                 getEnv("APP_ENV", "development"),
		AppURL:                 fmt.Sprintf("%s:%s", appHost, appPort),
		Workers:                getEnvAsInt("TASK_WORKERS", 5),
		QueueSize:              getEnvAsInt("TASK_QUEUE_SIZE", 10),
		PollIntervalSeconds:    getEnvAsInt("TASK_POLL_INTERVAL_SECONDS", 5),
		PollBatchSize:          getEnvAsInt("TASK_POLL_BATCH_SIZE", 10),
		DatabaseDriver:         getEnv("DATABASE_DRIVER", "postgres"),
		DatabaseDSN:            getEnv("DATABASE_DSN", "host=127.0.0.1 port=5432 dbname=harvestq sslmode=disable"),
		MaxOpenConns:           getEnvAsInt("DATABASE_MAX_OPEN_CONNS", 10),
		MaxIdleConns:           getEnvAsInt("DATABASE_MAX_IDLE_CONNS", 5),
		ConnMaxLifetimeMinutes: getEnvAsInt("DATABASE_CONN_MAX_LIFETIME_MINUTES", 30),
		Environment:            getEnv("TASK_ENV", "playground"),
		RestoreTargetStatus:    getEnvAsInt("TASK_RESTORE_STATUS", 0),
		StrictTransitions:      getEnv("TASK_STRICT_TRANSITIONS", "false") == "true",
		RateLimit:              getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),
		RedisAddr:              fmt.Sprintf("%s:%s", redisHost, redisPort),
		RedisSlotKey:           getEnv("REDIS_SLOT_KEY", "harvest_download_slots"),
		RedisRateLimitPrefix:   getEnv("REDIS_RATE_LIMIT_PREFIX", "harvest_ratelimit"),
		ShutdownTimeoutSeconds: getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 20),
	}

	environments, err := ParseEnvironments(getEnv("TASK_ENVIRONMENTS",
		"playground=harvest_tasks_playground,production=harvest_tasks"))
	if err != nil {
		log.Fatalf("invalid TASK_ENVIRONMENTS: %v", err)
	}
	cfg.Environments = environments

	table, err := ResolveTable(environments, cfg.Environment)
	if err != nil {
		log.Fatalf("invalid TASK_ENV: %v", err)
	}
	cfg.TableName = table

	validate(cfg)
	return cfg
}

// ParseEnvironments parses a "name=table,name=table" environment map. Every
// table name must be a plain SQL identifier; it is interpolated into query
// table positions, never as a bound parameter.
func ParseEnvironments(raw string) (map[string]string, error) {
	environments := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, table, ok := strings.Cut(pair, "=")
		name, table = strings.TrimSpace(name), strings.TrimSpace(table)
		if !ok || name == "" || table == "" {
			return nil, fmt.Errorf("malformed entry %q, want name=table", pair)
		}
		if !tableNamePattern.MatchString(table) {
			return nil, fmt.Errorf("unsafe table name %q for environment %q", table, name)
		}
		environments[name] = table
	}
	if len(environments) == 0 {
		return nil, fmt.Errorf("no environments defined")
	}
	return environments, nil
}

// ResolveTable maps an environment name to its table, failing with the list
// of known names when the environment is unknown.
func ResolveTable(environments map[string]string, name string) (string, error) {
	if table, ok := environments[name]; ok {
		return table, nil
	}

	known := make([]string, 0, len(environments))
	for k := range environments {
		known = append(known, k)
	}
	sort.Strings(known)
	return "", fmt.Errorf("unknown environment %q, known environments: %s", name, strings.Join(known, ", "))
}

func validate(cfg Config) {
	if cfg.AppURL == "" {
		log.Fatal("APP_URL must not be empty (e.g. 127.0.0.1:8080)")
	}
	if cfg.Workers <= 0 {
		log.Fatal("TASK_WORKERS must be greater than 0")
	}
	if cfg.QueueSize <= 0 {
		log.Fatal("TASK_QUEUE_SIZE must be greater than 0")
	}
	if cfg.PollIntervalSeconds <= 0 {
		log.Fatal("TASK_POLL_INTERVAL_SECONDS must be greater than 0")
	}
	if cfg.PollBatchSize <= 0 {
		log.Fatal("TASK_POLL_BATCH_SIZE must be greater than 0")
	}
	if cfg.DatabaseDriver != "postgres" && cfg.DatabaseDriver != "sqlite" {
		log.Fatalf("DATABASE_DRIVER must be postgres or sqlite, got %q", cfg.DatabaseDriver)
	}
	if cfg.DatabaseDSN == "" {
		log.Fatal("DATABASE_DSN must not be empty")
	}
	if cfg.MaxOpenConns <= 0 || cfg.MaxIdleConns < 0 {
		log.Fatal("database pool bounds must be positive")
	}
	if cfg.RateLimit <= 0 {
		log.Fatal("RATE_LIMIT_PER_MINUTE must be greater than 0")
	}
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("invalid integer value for %s", key)
		}
		return i
	}
	return defaultVal
}
