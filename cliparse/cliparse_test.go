// cliparse/cliparse_test.go
package cliparse

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setRequiredEnv() {
	os.Setenv("DATABASE_URL", "postgres://test")
	os.Setenv("ADMIN_KEY_SALT", "test-salt")
	os.Setenv("JWT_SECRET", "test-jwt")
}

func TestParseFlags_EnvVars(t *testing.T) {
	// Set env vars
	os.Setenv("PORT", "9000")
	os.Setenv("ACCEPTANCE_PERIOD", "72h")
	os.Setenv("S3_BUCKET", "photos")
	setRequiredEnv()
	defer os.Clearenv()

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.AcceptancePeriod != 72*time.Hour {
		t.Errorf("expected acceptance period 72h, got %v", cfg.AcceptancePeriod)
	}
	if cfg.S3.Bucket != "photos" || cfg.S3.Region != "us-east-1" {
		t.Errorf("unexpected S3 config %+v", cfg.S3)
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	setRequiredEnv()
	defer os.Clearenv()

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != DefaultPort {
		t.Errorf("expected default port, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("expected sqlite, got %s", cfg.DatabaseType)
	}
	if cfg.AcceptancePeriod != DefaultAcceptancePeriod || cfg.TokenTTL != DefaultTokenTTL {
		t.Errorf("unexpected durations %v %v", cfg.AcceptancePeriod, cfg.TokenTTL)
	}
	if cfg.Location().String() != "America/New_York" {
		t.Errorf("expected America/New_York, got %s", cfg.Location())
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	os.Setenv("PORT", "9000")
	defer os.Clearenv()

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "file:test.db", "-admin-salt", "s1", "-jwt-secret", "s2",
		"-acceptance-period", "48h", "-workers", "3"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.AcceptancePeriod != 48*time.Hour || cfg.Workers != 3 {
		t.Errorf("unexpected flags %+v", cfg)
	}
}

func TestParseFlags_ConfigFile(t *testing.T) {
	defer os.Clearenv()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
port: 7000
database_url: "file:elections.db"
admin_key_salt: from-file
jwt_secret: from-file
acceptance_period: 120h
time_zone: America/Chicago
s3:
  bucket: board-photos
  endpoint: http://minio:9000
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	os.Setenv("PORT", "9100")

	cfg, err := ParseFlags([]string{"-c", path})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 9100 {
		t.Errorf("env should override file: expected 9100, got %d", cfg.Port)
	}
	if cfg.DatabaseURL != "file:elections.db" || cfg.AdminKeySalt != "from-file" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.AcceptancePeriod != 120*time.Hour {
		t.Errorf("expected 120h, got %v", cfg.AcceptancePeriod)
	}
	if cfg.S3.Bucket != "board-photos" || cfg.S3.Endpoint != "http://minio:9000" {
		t.Errorf("unexpected S3 config %+v", cfg.S3)
	}
	if cfg.Location().String() != "America/Chicago" {
		t.Errorf("expected America/Chicago, got %s", cfg.Location())
	}
}

func TestParseFlags_EnvFile(t *testing.T) {
	defer os.Clearenv()
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("DATABASE_URL=file:dotenv.db\nADMIN_KEY_SALT=a\nJWT_SECRET=b\nWORKERS=5\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := ParseFlags([]string{"-env-file", path})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DatabaseURL != "file:dotenv.db" || cfg.Workers != 5 {
		t.Errorf("dotenv values not applied: %+v", cfg)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{"missing database", map[string]string{"ADMIN_KEY_SALT": "a", "JWT_SECRET": "b"}, nil},
		{"missing salt", map[string]string{"DATABASE_URL": "x", "JWT_SECRET": "b"}, nil},
		{"missing jwt secret", map[string]string{"DATABASE_URL": "x", "ADMIN_KEY_SALT": "a"}, nil},
		{"bad port", map[string]string{"PORT": "abc"}, nil},
		{"bad duration", nil, []string{"-acceptance-period", "a week"}},
		{"bad database type", map[string]string{"DATABASE_URL": "x", "ADMIN_KEY_SALT": "a", "JWT_SECRET": "b", "DATABASE_TYPE": "oracle"}, nil},
		{"bad time zone", map[string]string{"DATABASE_URL": "x", "ADMIN_KEY_SALT": "a", "JWT_SECRET": "b", "TIME_ZONE": "Mars/Olympus"}, nil},
		{"missing config file", nil, []string{"-c", "/nonexistent/config.yaml"}},
		{"missing env file", nil, []string{"-env-file", "/nonexistent/.env"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			defer os.Clearenv()
			for k, v := range tt.env {
				os.Setenv(k, v)
			}
			if _, err := ParseFlags(tt.args); err == nil {
				t.Error("expected error")
			}
		})
	}
}
