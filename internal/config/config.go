package config

import (
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/sharefastly/sharefastly.github.io/internal/auth"
	"github.com/sharefastly/sharefastly.github.io/internal/naming"
	"github.com/sharefastly/sharefastly.github.io/internal/remote"
	"github.com/sharefastly/sharefastly.github.io/internal/state"
	"github.com/sharefastly/sharefastly.github.io/internal/syncer"
)

// Config holds all environment-based configuration for sharefastly.
type Config struct {
	// Repository directory that stores the shared files.
	Owner  string `env:"GITHUB_OWNER"`
	Repo   string `env:"GITHUB_REPO"`
	Dir    string `env:"GITHUB_DIR" envDefault:"files"`
	Branch string `env:"GITHUB_BRANCH" envDefault:"main"`

	// GitHubToken takes precedence. GitHubTokenASCII holds the token as
	// comma-separated character codes, the format older deployments used.
	GitHubToken      string `env:"GITHUB_TOKEN"`
	GitHubTokenASCII string `env:"GITHUB_TOKEN_ASCII"`
	APIURL           string `env:"GITHUB_API_URL" envDefault:"https://api.github.com/"`

	// Bcrypt hash of the delete password. Deletes are refused when empty.
	DeletePasswordHash string `env:"DELETE_PASSWORD_HASH"`

	// API keys for write access over HTTP and MCP.
	APIKeys    string `env:"API_KEYS"`
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8090"`

	UploadConcurrency int           `env:"UPLOAD_CONCURRENCY" envDefault:"3"`
	UploadMaxRetries  int           `env:"UPLOAD_MAX_RETRIES" envDefault:"3"`
	UploadRetryBase   time.Duration `env:"UPLOAD_RETRY_BASE" envDefault:"2s"`
	SettleDelay       time.Duration `env:"SETTLE_DELAY" envDefault:"1s"`

	// Interval of the background refresh in serve mode. Zero disables it.
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" envDefault:"0"`

	// Local state database. Defaults to ~/.sharefastly/state.db.
	StatePath string `env:"STATE_PATH"`

	// IANA zone used to stamp new names. Empty means the local zone.
	Timezone string `env:"TIMEZONE"`

	// Environment controls log format
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	location *time.Location
	token    string
}

// warnInsecureEnvFile checks whether the .env file (if present) has
// overly permissive permissions. On Unix systems, group or world
// readable files risk exposing credentials to other users.
func warnInsecureEnvFile() {
	if runtime.GOOS == "windows" {
		return
	}

	info, err := os.Stat(".env")
	if err != nil {
		return // file does not exist, nothing to check
	}

	mode := info.Mode().Perm()
	if mode&0o077 != 0 {
		log.Printf("WARNING: .env file has insecure permissions %04o; recommended 0600", mode)
	}
}

// Load reads configuration from environment variables.
// It first attempts to load a .env file if present, then parses env vars.
func Load() (*Config, error) {
	_ = godotenv.Load()

	warnInsecureEnvFile()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	if cfg.StatePath == "" {
		p, err := state.DefaultPath()
		if err != nil {
			return nil, err
		}

		cfg.StatePath = p
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Owner == "" {
		return fmt.Errorf("GITHUB_OWNER is required")
	}

	if c.Repo == "" {
		return fmt.Errorf("GITHUB_REPO is required")
	}

	if c.UploadConcurrency < 1 {
		return fmt.Errorf("UPLOAD_CONCURRENCY must be at least 1")
	}

	if c.UploadMaxRetries < 0 {
		return fmt.Errorf("UPLOAD_MAX_RETRIES must not be negative")
	}

	if c.UploadRetryBase < 0 || c.SettleDelay < 0 || c.RefreshInterval < 0 {
		return fmt.Errorf("durations must not be negative")
	}

	token, err := decodeToken(c.GitHubToken, c.GitHubTokenASCII)
	if err != nil {
		return err
	}

	c.token = token

	loc, err := loadLocation(c.Timezone)
	if err != nil {
		return err
	}

	c.location = loc

	if _, err := c.ParseAPIKeys(); err != nil {
		return err
	}

	return nil
}

// decodeToken prefers the plain token and otherwise decodes the ASCII
// form, e.g. "103,104,112" for "ghp".
func decodeToken(plain, ascii string) (string, error) {
	if plain != "" || ascii == "" {
		return plain, nil
	}

	var b strings.Builder

	for i, part := range strings.Split(ascii, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0x20 || n > 0x7e {
			return "", fmt.Errorf("GITHUB_TOKEN_ASCII: invalid character code at position %d", i+1)
		}

		b.WriteByte(byte(n))
	}

	return b.String(), nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}

	return loc, nil
}

// IsProduction returns true when the environment is set to production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Token returns the resolved GitHub token, possibly empty.
func (c *Config) Token() string {
	return c.token
}

// Location returns the zone new names are stamped in.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}

	return c.location
}

// Source identifies the remote directory, e.g. "acme/share/files@main".
// It keys cached listings.
func (c *Config) Source() string {
	return fmt.Sprintf("%s/%s/%s@%s", c.Owner, c.Repo, strings.Trim(c.Dir, "/"), c.Branch)
}

// Remote returns the contents client configuration.
func (c *Config) Remote() remote.Config {
	return remote.Config{
		Owner:   c.Owner,
		Repo:    c.Repo,
		Dir:     c.Dir,
		Branch:  c.Branch,
		Token:   c.Token(),
		BaseURL: c.APIURL,
	}
}

// Codec returns the name codec for the configured zone.
func (c *Config) Codec() naming.Codec {
	return naming.Codec{Location: c.Location()}
}

// SyncOptions returns controller options with the configured tuning.
func (c *Config) SyncOptions() syncer.Options {
	opts := syncer.DefaultOptions()
	opts.Concurrency = c.UploadConcurrency
	opts.MaxRetries = c.UploadMaxRetries
	opts.RetryBase = c.UploadRetryBase
	opts.SettleDelay = c.SettleDelay

	return opts
}

// APIKeyEntry holds a pre-configured API key and its associated user
// identity parsed from API_KEYS.
type APIKeyEntry struct {
	UserID string
	Key    string
}

// ParseAPIKeys parses the API_KEYS string.
// Format: "user1:sf_key1,user2:sf_key2"
func (c *Config) ParseAPIKeys() ([]APIKeyEntry, error) {
	if c.APIKeys == "" {
		return nil, nil
	}

	seenUsers := make(map[string]struct{})

	var entries []APIKeyEntry

	for _, pair := range strings.Split(c.APIKeys, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		idx := strings.Index(pair, ":")
		if idx < 0 {
			return nil, fmt.Errorf("invalid API key entry (missing ':')")
		}

		userID := pair[:idx]

		key := pair[idx+1:]
		if userID == "" || key == "" {
			return nil, fmt.Errorf("empty user or key in entry %d", len(entries)+1)
		}

		if !strings.HasPrefix(key, auth.APIKeyPrefix) {
			return nil, fmt.Errorf("API key must start with %q prefix in entry %d", auth.APIKeyPrefix, len(entries)+1)
		}

		if len(key) < auth.APIKeyMinLen {
			return nil, fmt.Errorf("API key too short in entry %d (minimum %d characters)", len(entries)+1, auth.APIKeyMinLen)
		}

		suffix := key[len(auth.APIKeyPrefix):]
		if _, err := hex.DecodeString(suffix); err != nil {
			return nil, fmt.Errorf("API key contains non-hex characters after %q prefix in entry %d", auth.APIKeyPrefix, len(entries)+1)
		}

		if _, dup := seenUsers[userID]; dup {
			return nil, fmt.Errorf("duplicate user_id %q in API_KEYS", userID)
		}

		seenUsers[userID] = struct{}{}
		entries = append(entries, APIKeyEntry{UserID: userID, Key: key})
	}

	return entries, nil
}

// KeyStore builds an auth store holding the configured API keys.
func (c *Config) KeyStore() (*auth.Store, error) {
	entries, err := c.ParseAPIKeys()
	if err != nil {
		return nil, err
	}

	store := auth.NewStore()
	for _, e := range entries {
		store.RegisterAPIKey(e.UserID, e.Key)
	}

	return store, nil
}
