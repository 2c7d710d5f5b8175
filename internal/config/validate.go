package config

import (
	"fmt"
	"strings"
)

// problems collects every configuration error so one run reports them all.
type problems []string

func (p *problems) addf(format string, args ...any) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

func (p *problems) check(ok bool, format string, args ...any) {
	if !ok {
		p.addf(format, args...)
	}
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var p problems

	c.validateServer(&p)
	c.validateStore(&p)
	c.validateSync(&p)
	c.validateExport(&p)
	c.validateHTTP(&p)
	c.validateLogging(&p)

	if len(p) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(p, "\n  - "))
	}
	return nil
}

func (c *Config) validateServer(p *problems) {
	p.check(c.Server.Port > 0 && c.Server.Port <= 65535, "SERVER_PORT (%d) must be 1-65535", c.Server.Port)
	p.check(c.Server.ReadTimeout >= 0, "SERVER_READ_TIMEOUT must be non-negative")
	p.check(c.Server.ShutdownTimeout > 0, "SERVER_SHUTDOWN_TIMEOUT must be positive")
}

func (c *Config) validateStore(p *problems) {
	switch strings.ToLower(c.Store.Backend) {
	case StoreMemory:
	case StorePostgres:
		db := c.Database
		p.check(db.URL != "", "DATABASE_URL is required when STORE_BACKEND=postgres")
		p.check(db.MaxConns > 0, "DB_MAX_CONNS must be positive")
		p.check(db.MinConns >= 0, "DB_MIN_CONNS must be non-negative")
		p.check(db.MaxConns >= db.MinConns, "DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", db.MaxConns, db.MinConns)
	case StoreRedis:
		p.check(c.Redis.URL != "", "REDIS_URL is required when STORE_BACKEND=redis")
		p.check(c.Redis.PoolSize > 0, "REDIS_POOL_SIZE must be positive")
	default:
		p.addf("STORE_BACKEND (%q) must be one of: memory, postgres, redis", c.Store.Backend)
	}
	p.check(c.Store.ActivityBufferSize > 0, "ACTIVITY_BUFFER_SIZE must be positive")
}

func (c *Config) validateSync(p *problems) {
	u := c.Sync.URL
	p.check(u == "" || strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://"), "SYNC_URL must be an http(s) URL")
	p.check(c.Sync.Timeout > 0, "SYNC_TIMEOUT must be positive")
	p.check(c.Sync.RetryMax >= 0, "SYNC_RETRY_MAX must be non-negative")
}

func (c *Config) validateExport(p *problems) {
	p.check(c.Export.MaxConcurrent > 0, "EXPORT_MAX_CONCURRENT must be positive")
	p.check(c.Export.MaxWaitTime > 0, "EXPORT_MAX_WAIT_TIME must be positive")
	switch strings.ToUpper(c.Export.DefaultMode) {
	case "FULL", "PARTIAL":
	default:
		p.addf("EXPORT_DEFAULT_MODE (%q) must be FULL or PARTIAL", c.Export.DefaultMode)
	}
	p.check(c.Upload.MaxFileSize > 0, "UPLOAD_MAX_FILE_SIZE must be positive")
}

// validateHTTP covers the API surface: rate limit, auth and metrics route.
func (c *Config) validateHTTP(p *problems) {
	p.check(!c.Rate.Enabled || c.Rate.RequestsPerMinute > 0,
		"RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	p.check(!c.Security.RequireAPIKey || len(c.Security.APIKeys) > 0,
		"REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
	p.check(!c.Metrics.Enabled || strings.HasPrefix(c.Metrics.Path, "/"), "METRICS_PATH must start with /")
}

func (c *Config) validateLogging(p *problems) {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		p.addf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		p.addf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format)
	}
}

// String renders the config for startup logs with credentials masked.
func (c *Config) String() string {
	sections := []string{
		fmt.Sprintf("Server: {Host: %q, Port: %d}", c.Server.Host, c.Server.Port),
		fmt.Sprintf("Store: {Backend: %q}", c.Store.Backend),
		fmt.Sprintf("Database: {URL: %s, MaxConns: %d, MinConns: %d}", mask(c.Database.URL), c.Database.MaxConns, c.Database.MinConns),
		fmt.Sprintf("Redis: {URL: %s}", mask(c.Redis.URL)),
		fmt.Sprintf("Sync: {URL: %q, Token: %s, Timeout: %s, RetryMax: %d}", c.Sync.URL, mask(c.Sync.Token), c.Sync.Timeout, c.Sync.RetryMax),
		fmt.Sprintf("Export: {MaxConcurrent: %d, DefaultMode: %q}", c.Export.MaxConcurrent, c.Export.DefaultMode),
		fmt.Sprintf("Rate: {Enabled: %v, RequestsPerMinute: %d}", c.Rate.Enabled, c.Rate.RequestsPerMinute),
		fmt.Sprintf("Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format),
	}
	return "Config{" + strings.Join(sections, ", ") + "}"
}

func mask(s string) string {
	if s == "" {
		return "[UNSET]"
	}
	return "[MASKED]"
}
