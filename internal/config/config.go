package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	StopWordsFile string // path to the newline-delimited stop word list
	SeedFile      string // path to a bookmarks seed yaml (optional, empty = no import)

	// Tokenizer / tagger
	ContentTags     []string // tags whose text is worth auto-tagging
	MinTagWeight    float64  // discard tags with normalized weight below this
	DocumentIndexes []string // path suffixes treated as directory indexes

	// Fetcher
	FetchTimeout      time.Duration // hard deadline for one content fetch
	FetchMaxBodyBytes int64         // cap on fetched body size
	FetchMaxRedirects int           // redirect budget per fetch

	// Search
	SearchPerPage  int           // default page size
	SearchCacheTTL time.Duration // TTL for cached generic-phase results

	// Redis
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // initial wait between retries (grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts
}

// DefaultContentTags lists the content-bearing HTML tags whose text feeds the
// auto-tagger. Navigation, boilerplate and chrome deliberately stay out.
var DefaultContentTags = []string{
	"title", "h1", "h2", "h3", "h4", "h5", "h6", "p",
	"blockquote", "code", "pre",
	"li", "dt", "dd",
}

// DefaultDocumentIndexes lists path suffixes stripped during URL
// normalization ("/index.html" and "/" name the same resource).
var DefaultDocumentIndexes = []string{
	"/index.html", "/index.htm", "/index.php", "/default.htm", "/default.html",
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("IMIIMI_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("IMIIMI_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("IMIIMI_LOG_LEVEL", "info"),
		PrettyLog: mustBool("IMIIMI_PRETTY_LOG", false),

		// Corpus files
		StopWordsFile: getenv("IMIIMI_STOP_WORDS_FILE", "corpus/stop_words.txt"),
		SeedFile:      getenv("IMIIMI_SEED_FILE", ""),

		// Tokenizer / tagger
		ContentTags:     DefaultContentTags,
		MinTagWeight:    mustFloat("IMIIMI_MIN_TAG_WEIGHT", 0.125),
		DocumentIndexes: DefaultDocumentIndexes,

		// Fetcher
		FetchTimeout:      mustDuration("IMIIMI_FETCH_TIMEOUT", 10*time.Second),
		FetchMaxBodyBytes: int64(getenvInt("IMIIMI_FETCH_MAX_BODY_BYTES", 2<<20)),
		FetchMaxRedirects: getenvInt("IMIIMI_FETCH_MAX_REDIRECTS", 5),

		// Search
		SearchPerPage:  getenvInt("IMIIMI_SEARCH_PER_PAGE", 5),
		SearchCacheTTL: mustDuration("IMIIMI_SEARCH_CACHE_TTL", time.Hour),

		// Redis settings
		RedisAddr:           requireEnv("IMIIMI_REDIS_ADDR"),
		RedisUser:           getenv("IMIIMI_REDIS_USERNAME", "default"),
		RedisPassword:       getenv("IMIIMI_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("IMIIMI_REDIS_DB", 0),
		RedisDT:             mustDuration("IMIIMI_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("IMIIMI_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("IMIIMI_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("IMIIMI_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("IMIIMI_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("IMIIMI_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("IMIIMI_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("IMIIMI_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("IMIIMI_REDIS_WARN_THRESHOLD", 3),
	}

	if tags := getenv("IMIIMI_CONTENT_TAGS", ""); tags != "" {
		cfg.ContentTags = splitAndTrim(tags)
	}
	if indexes := getenv("IMIIMI_DOCUMENT_INDEXES", ""); indexes != "" {
		cfg.DocumentIndexes = splitAndTrim(indexes)
	}
	if cfg.MinTagWeight < 0 || cfg.MinTagWeight > 1 {
		panic(fmt.Sprintf("IMIIMI_MIN_TAG_WEIGHT must be in [0, 1], got %v", cfg.MinTagWeight))
	}

	return cfg
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
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func mustFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
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

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.Trim(strings.TrimSpace(part), `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
