package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults
const (
	DefaultPort             = 3318
	DefaultDatabaseType     = "sqlite"
	DefaultTokenTTL         = 30 * 24 * time.Hour
	DefaultAcceptancePeriod = 7 * 24 * time.Hour
	DefaultWorkers          = 2
	DefaultTimeZone         = "America/New_York"
	DefaultSiteURL          = "http://localhost:3318"
)

type Config struct {
	Port         int    `yaml:"port"`
	DatabaseURL  string `yaml:"database_url"`
	DatabaseType string `yaml:"database_type"`
	AdminKeySalt string `yaml:"admin_key_salt"`
	JWTSecret    string `yaml:"jwt_secret"`

	TokenTTL         time.Duration `yaml:"token_ttl"`
	AcceptancePeriod time.Duration `yaml:"acceptance_period"`
	SiteURL          string        `yaml:"site_url"`
	Workers          int           `yaml:"workers"`
	TimeZone         string        `yaml:"time_zone"`

	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// Location is the configured election time zone, UTC if it cannot be loaded.
func (c Config) Location() *time.Location {
	if c.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseFlags builds the configuration. Command-line flags win over environment
// variables, which win over the YAML config file, which wins over defaults.
// A .env file is loaded into the environment first when present.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var configFile, envFile string
	var tokenTTL, acceptance string

	fs := flag.NewFlagSet("board-elections", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&configFile, "c", "", "YAML config file")
	fs.StringVar(&envFile, "env-file", "", "dotenv file (default .env if present)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.AdminKeySalt, "admin-salt", "", "Admin key salt (prefer env)")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", "", "Member token signing secret (prefer env)")

	fs.StringVar(&tokenTTL, "token-ttl", "", "Member token lifetime, e.g. 720h")
	fs.StringVar(&acceptance, "acceptance-period", "", "Time after nominations close to accept or decline, e.g. 168h")
	fs.StringVar(&cfg.SiteURL, "site-url", "", "Public site URL used in notices")
	fs.IntVar(&cfg.Workers, "workers", 0, "Notification workers")
	fs.StringVar(&cfg.TimeZone, "tz", "", "Election time zone")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := loadDotEnv(envFile); err != nil {
		return Config{}, err
	}

	var err error
	if tokenTTL != "" {
		if cfg.TokenTTL, err = time.ParseDuration(tokenTTL); err != nil {
			return Config{}, fmt.Errorf("invalid -token-ttl: %w", err)
		}
	}
	if acceptance != "" {
		if cfg.AcceptancePeriod, err = time.ParseDuration(acceptance); err != nil {
			return Config{}, fmt.Errorf("invalid -acceptance-period: %w", err)
		}
	}

	// Fall back to environment variables
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if configFile == "" {
		configFile = os.Getenv("CONFIG_FILE")
	}
	if configFile != "" {
		file, err := loadFile(configFile)
		if err != nil {
			return Config{}, err
		}
		merge(&cfg, file)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	if path == "" {
		path = os.Getenv("ENV_FILE")
	}
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
		return nil
	}
	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

func envString(dst *string, key string) {
	if *dst == "" {
		*dst = os.Getenv(key)
	}
}

func envInt(dst *int, key string) error {
	if *dst != 0 {
		return nil
	}
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid %s env variable", key)
	}
	*dst = n
	return nil
}

func envDuration(dst *time.Duration, key string) error {
	if *dst != 0 {
		return nil
	}
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid %s env variable: %w", key, err)
	}
	*dst = d
	return nil
}

func applyEnv(cfg *Config) error {
	if err := envInt(&cfg.Port, "PORT"); err != nil {
		return err
	}
	if err := envInt(&cfg.Workers, "WORKERS"); err != nil {
		return err
	}
	if err := envDuration(&cfg.TokenTTL, "TOKEN_TTL"); err != nil {
		return err
	}
	if err := envDuration(&cfg.AcceptancePeriod, "ACCEPTANCE_PERIOD"); err != nil {
		return err
	}
	envString(&cfg.DatabaseURL, "DATABASE_URL")
	envString(&cfg.DatabaseType, "DATABASE_TYPE")
	envString(&cfg.AdminKeySalt, "ADMIN_KEY_SALT")
	envString(&cfg.JWTSecret, "JWT_SECRET")
	envString(&cfg.SiteURL, "SITE_URL")
	envString(&cfg.TimeZone, "TIME_ZONE")
	envString(&cfg.S3.Bucket, "S3_BUCKET")
	envString(&cfg.S3.Region, "S3_REGION")
	envString(&cfg.S3.Endpoint, "S3_ENDPOINT")
	envString(&cfg.S3.AccessKey, "S3_ACCESS_KEY")
	envString(&cfg.S3.SecretKey, "S3_SECRET_KEY")
	return nil
}

func loadFile(path string) (Config, error) {
	var file Config
	f, err := os.Open(path)
	if err != nil {
		return file, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return file, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return file, nil
}

// merge fills fields of cfg that are still unset from file.
func merge(cfg *Config, file Config) {
	setInt := func(dst *int, v int) {
		if *dst == 0 {
			*dst = v
		}
	}
	setString := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	setDuration := func(dst *time.Duration, v time.Duration) {
		if *dst == 0 {
			*dst = v
		}
	}

	setInt(&cfg.Port, file.Port)
	setInt(&cfg.Workers, file.Workers)
	setString(&cfg.DatabaseURL, file.DatabaseURL)
	setString(&cfg.DatabaseType, file.DatabaseType)
	setString(&cfg.AdminKeySalt, file.AdminKeySalt)
	setString(&cfg.JWTSecret, file.JWTSecret)
	setString(&cfg.SiteURL, file.SiteURL)
	setString(&cfg.TimeZone, file.TimeZone)
	setDuration(&cfg.TokenTTL, file.TokenTTL)
	setDuration(&cfg.AcceptancePeriod, file.AcceptancePeriod)
	setString(&cfg.S3.Bucket, file.S3.Bucket)
	setString(&cfg.S3.Region, file.S3.Region)
	setString(&cfg.S3.Endpoint, file.S3.Endpoint)
	setString(&cfg.S3.AccessKey, file.S3.AccessKey)
	setString(&cfg.S3.SecretKey, file.S3.SecretKey)
}

func applyDefaults(cfg *Config) {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.DatabaseType == "" {
		cfg.DatabaseType = DefaultDatabaseType
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	if cfg.AcceptancePeriod == 0 {
		cfg.AcceptancePeriod = DefaultAcceptancePeriod
	}
	if cfg.Workers == 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.TimeZone == "" {
		cfg.TimeZone = DefaultTimeZone
	}
	if cfg.SiteURL == "" {
		cfg.SiteURL = DefaultSiteURL
	}
	if cfg.S3.Region == "" {
		cfg.S3.Region = "us-east-1"
	}
}

// Validate checks required settings.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database URL required (use -d or DATABASE_URL env)")
	}
	if c.DatabaseType != "sqlite" && c.DatabaseType != "postgres" {
		return fmt.Errorf("unsupported database type %q", c.DatabaseType)
	}
	// Secrets - MUST be provided
	if c.AdminKeySalt == "" {
		return errors.New("ADMIN_KEY_SALT required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET required")
	}
	if c.AcceptancePeriod < 0 || c.TokenTTL < 0 {
		return errors.New("durations must not be negative")
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("invalid time zone %q: %w", c.TimeZone, err)
	}
	return nil
}
