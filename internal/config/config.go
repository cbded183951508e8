package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

// DefaultPath is read when no explicit config file is given. It is optional.
const DefaultPath = "config.yaml"

// CredentialsConfig points at the directory holding the provider key files
type CredentialsConfig struct {
	Dir string `yaml:"dir" validate:"required"`
}

// IEXConfig represents IEX Cloud API configuration
type IEXConfig struct {
	BaseURL           string        `yaml:"base_url" validate:"required,url"`
	RequestsPerSecond float64       `yaml:"requests_per_second" validate:"gt=0"`
	Timeout           time.Duration `yaml:"timeout" validate:"gt=0"`
	MaxRetries        int           `yaml:"max_retries" validate:"gte=0,lte=10"`
	BatchSize         int           `yaml:"batch_size" validate:"min=1,max=100"`
}

// TradierConfig represents Tradier API configuration
type TradierConfig struct {
	BaseURL            string        `yaml:"base_url" validate:"required,url"`
	RequestsPerSecond  float64       `yaml:"requests_per_second" validate:"gt=0"`
	Timeout            time.Duration `yaml:"timeout" validate:"gt=0"`
	MaxRetries         int           `yaml:"max_retries" validate:"gte=0,lte=10"`
	RateLimitThreshold int           `yaml:"rate_limit_threshold" validate:"gte=0"`
	RateLimitPause     time.Duration `yaml:"rate_limit_pause" validate:"gte=0"`
}

// OCCConfig represents the OCC information memo feed
type OCCConfig struct {
	FeedURL    string        `yaml:"feed_url" validate:"required,url"`
	Timeout    time.Duration `yaml:"timeout" validate:"gt=0"`
	MaxRetries int           `yaml:"max_retries" validate:"gte=0,lte=10"`
}

// FeesConfig is the commission model applied to every conversion
type FeesConfig struct {
	PerContractCost  string `yaml:"per_contract_cost" validate:"required,numeric"`
	ActionsPerCollar int    `yaml:"actions_per_collar" validate:"min=1"`
}

// PerContract returns PerContractCost as a decimal.
func (f FeesConfig) PerContract() decimal.Decimal {
	d, err := decimal.NewFromString(f.PerContractCost)
	if err != nil {
		return decimal.Zero
	}
	return d
}

type ScanConfig struct {
	Concurrency   int      `yaml:"concurrency" validate:"min=1,max=64"`
	StrictPairing bool     `yaml:"strict_pairing"`
	MaxResults    int      `yaml:"max_results" validate:"gte=0"` // 0 = show all
	Tickers       []string `yaml:"tickers"`                      // empty = whole dividend calendar
	ShowProgress  bool     `yaml:"show_progress"`
}

type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" validate:"required_if=Enabled true"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	LogLevel   string `yaml:"log_level" validate:"oneof=error warn info debug verbose"`
	LogFile    string `yaml:"log_file" validate:"required"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"min=1"`
	MaxBackups int    `yaml:"max_backups" validate:"gte=0"`
}

// CSVConfig represents CSV export configuration
type CSVConfig struct {
	Directory      string `yaml:"directory"`
	FilenameFormat string `yaml:"filename_format" validate:"required"`
}

// AuditConfig represents the per-run audit trail
type AuditConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Directory      string `yaml:"directory" validate:"required_if=Enabled true"`
	FilenameFormat string `yaml:"filename_format" validate:"required"`
}

type ServerConfig struct {
	Port string `yaml:"port" validate:"required,numeric"`
}

type Config struct {
	Credentials CredentialsConfig `yaml:"credentials"`
	IEX         IEXConfig         `yaml:"iex"`
	Tradier     TradierConfig     `yaml:"tradier"`
	OCC         OCCConfig         `yaml:"occ"`
	Fees        FeesConfig        `yaml:"fees"`
	Scan        ScanConfig        `yaml:"scan"`
	Cache       CacheConfig       `yaml:"cache"`
	Logging     LoggingConfig     `yaml:"logging"`
	CSV         CSVConfig         `yaml:"csv"`
	Audit       AuditConfig       `yaml:"audit"`
	Server      ServerConfig      `yaml:"server"`
}

// Defaults builds a config from environment variables, falling back to
// built-in values.
func Defaults() *Config {
	return &Config{
		Credentials: CredentialsConfig{
			Dir: getEnv("CREDENTIALS_DIR", "."),
		},
		IEX: IEXConfig{
			BaseURL:           getEnv("IEX_BASE_URL", "https://cloud.iexapis.com/stable"),
			RequestsPerSecond: getEnvFloat("IEX_REQUESTS_PER_SECOND", 10),
			Timeout:           getEnvDuration("IEX_TIMEOUT", 30*time.Second),
			MaxRetries:        getEnvInt("IEX_MAX_RETRIES", 3),
			BatchSize:         getEnvInt("IEX_BATCH_SIZE", 100),
		},
		Tradier: TradierConfig{
			BaseURL:            getEnv("TRADIER_BASE_URL", "https://api.tradier.com"),
			RequestsPerSecond:  getEnvFloat("TRADIER_REQUESTS_PER_SECOND", 2),
			Timeout:            getEnvDuration("TRADIER_TIMEOUT", 30*time.Second),
			MaxRetries:         getEnvInt("TRADIER_MAX_RETRIES", 3),
			RateLimitThreshold: getEnvInt("TRADIER_RATE_LIMIT_THRESHOLD", 20),
			RateLimitPause:     getEnvDuration("TRADIER_RATE_LIMIT_PAUSE", time.Second),
		},
		OCC: OCCConfig{
			FeedURL:    getEnv("OCC_FEED_URL", "https://infomemo.theocc.com/infomemo-rss"),
			Timeout:    getEnvDuration("OCC_TIMEOUT", 30*time.Second),
			MaxRetries: getEnvInt("OCC_MAX_RETRIES", 2),
		},
		Fees: FeesConfig{
			PerContractCost:  getEnv("FEES_PER_CONTRACT", "1"),
			ActionsPerCollar: getEnvInt("FEES_ACTIONS_PER_COLLAR", 4),
		},
		Scan: ScanConfig{
			Concurrency:   getEnvInt("SCAN_CONCURRENCY", 4),
			StrictPairing: getEnvBool("SCAN_STRICT_PAIRING", false),
			MaxResults:    getEnvInt("MAX_RESULTS", 0),
			Tickers:       getEnvStringSlice("SCAN_TICKERS", nil),
			ShowProgress:  getEnvBool("SCAN_SHOW_PROGRESS", true),
		},
		Cache: CacheConfig{
			Enabled: getEnvBool("CACHE_ENABLED", true),
			Path:    getEnv("CACHE_PATH", "divvyarb.db"),
		},
		Logging: LoggingConfig{
			LogLevel:   getEnv("LOG_LEVEL", "info"),
			LogFile:    getEnv("LOG_FILE", "divvyarb.log"),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		},
		CSV: CSVConfig{
			Directory:      getEnv("CSV_DIR", "."),
			FilenameFormat: getEnv("CSV_FILENAME_FORMAT", "{date}_divvyarb_{run_id}.csv"),
		},
		Audit: AuditConfig{
			Enabled:        getEnvBool("AUDIT_ENABLED", true),
			Directory:      getEnv("AUDIT_DIR", "audits"),
			FilenameFormat: getEnv("AUDIT_FILENAME_FORMAT", "{date}_{run_id}.json"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
	}
}

// Load returns the environment defaults overlaid with the YAML file at path.
// An empty path reads DefaultPath when it exists; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// Keys absent from the file keep their default.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints declared in struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}

// FormatFilename expands the {date} and {run_id} placeholders of a
// configured file name template.
func FormatFilename(format string, date time.Time, runID string) string {
	result := format
	result = strings.ReplaceAll(result, "{date}", date.Format("2006-01-02"))
	result = strings.ReplaceAll(result, "{run_id}", runID)
	return result
}
