package config

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the hub server configuration. Values are resolved in order:
// built-in defaults, then the TOML file named by HUB_CONFIG_FILE, then HUB_*
// environment variables.
type Config struct {
	DatabaseURL string `toml:"database_url"` // HUB_DATABASE_URL (required)
	HTTPAddr    string `toml:"http_addr"`    // HUB_HTTP_ADDR (default ":8080")
	NATSURL     string `toml:"nats_url"`     // HUB_NATS_URL (optional, empty = no bus)
	AuthToken   string `toml:"auth_token"`   // HUB_AUTH_TOKEN (optional, empty = auth disabled)

	// IngestSubject is the NATS subject consumed for wire events when
	// NATSURL is set.
	IngestSubject string `toml:"ingest_subject"` // HUB_INGEST_SUBJECT (default "network.incoming.>")

	DefaultPageSize int           `toml:"default_page_size"` // HUB_DEFAULT_PAGE_SIZE (default 10)
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`  // HUB_SHUTDOWN_TIMEOUT (default 10s)

	// NodeQuietAfter is how long a node may send nothing before it is
	// reported quiet. Zero disables the check.
	NodeQuietAfter time.Duration `toml:"node_quiet_after"` // HUB_NODE_QUIET_AFTER (default 24h)

	LogLevel  string `toml:"log_level"`  // HUB_LOG_LEVEL (debug, info, warn, error; default info)
	LogFormat string `toml:"log_format"` // HUB_LOG_FORMAT (text or json; default text)

	Archive Archive `toml:"archive"`
}

// Archive configures periodic event log snapshots to S3.
type Archive struct {
	Interval   time.Duration `toml:"interval"`    // HUB_ARCHIVE_INTERVAL (default 1h; 0 = disabled)
	S3Bucket   string        `toml:"s3_bucket"`   // HUB_ARCHIVE_S3_BUCKET (enables archiving when set)
	S3Endpoint string        `toml:"s3_endpoint"` // HUB_ARCHIVE_S3_ENDPOINT (custom endpoint for MinIO)
	S3Region   string        `toml:"s3_region"`   // HUB_ARCHIVE_S3_REGION (default "us-east-1")
	S3Key      string        `toml:"s3_key"`      // HUB_ARCHIVE_S3_KEY (default "nethub/event_log.jsonl")
}

// Enabled reports whether archiving should run.
func (a Archive) Enabled() bool {
	return a.S3Bucket != "" && a.Interval > 0
}

func defaults() *Config {
	return &Config{
		HTTPAddr:        ":8080",
		IngestSubject:   "network.incoming.>",
		DefaultPageSize: 10,
		ShutdownTimeout: 10 * time.Second,
		NodeQuietAfter:  24 * time.Hour,
		LogLevel:        "info",
		LogFormat:       "text",
		Archive: Archive{
			Interval: time.Hour,
			S3Region: "us-east-1",
			S3Key:    "nethub/event_log.jsonl",
		},
	}
}

// Load reads HUB_CONFIG_FILE (if set) and the environment.
func Load() (*Config, error) {
	c := defaults()
	if path := os.Getenv("HUB_CONFIG_FILE"); path != "" {
		if err := c.decodeFile(path); err != nil {
			return nil, err
		}
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) decodeFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.DatabaseURL = envOrDefault("HUB_DATABASE_URL", c.DatabaseURL)
	c.HTTPAddr = envOrDefault("HUB_HTTP_ADDR", c.HTTPAddr)
	c.NATSURL = envOrDefault("HUB_NATS_URL", c.NATSURL)
	c.AuthToken = envOrDefault("HUB_AUTH_TOKEN", c.AuthToken)
	c.IngestSubject = envOrDefault("HUB_INGEST_SUBJECT", c.IngestSubject)
	c.LogLevel = envOrDefault("HUB_LOG_LEVEL", c.LogLevel)
	c.LogFormat = envOrDefault("HUB_LOG_FORMAT", c.LogFormat)
	c.Archive.S3Bucket = envOrDefault("HUB_ARCHIVE_S3_BUCKET", c.Archive.S3Bucket)
	c.Archive.S3Endpoint = envOrDefault("HUB_ARCHIVE_S3_ENDPOINT", c.Archive.S3Endpoint)
	c.Archive.S3Region = envOrDefault("HUB_ARCHIVE_S3_REGION", c.Archive.S3Region)
	c.Archive.S3Key = envOrDefault("HUB_ARCHIVE_S3_KEY", c.Archive.S3Key)

	if s := os.Getenv("HUB_DEFAULT_PAGE_SIZE"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("HUB_DEFAULT_PAGE_SIZE: %w", err)
		}
		c.DefaultPageSize = n
	}
	for key, dst := range map[string]*time.Duration{
		"HUB_SHUTDOWN_TIMEOUT": &c.ShutdownTimeout,
		"HUB_NODE_QUIET_AFTER": &c.NodeQuietAfter,
		"HUB_ARCHIVE_INTERVAL": &c.Archive.Interval,
	} {
		if s := os.Getenv(key); s != "" {
			d, err := time.ParseDuration(s)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = d
		}
	}
	return nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("HUB_DATABASE_URL is required")
	}
	if c.DefaultPageSize <= 0 {
		return fmt.Errorf("default page size must be positive, got %d", c.DefaultPageSize)
	}
	if c.NodeQuietAfter < 0 {
		return fmt.Errorf("node quiet threshold must not be negative, got %s", c.NodeQuietAfter)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return l, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
