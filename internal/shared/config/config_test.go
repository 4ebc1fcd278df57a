package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, key := range []string{"PORT", "ENV", "SESSION_TTL", "MAX_UPLOAD_BYTES", "MAX_RESUMES", "EXPORT_ARCHIVE", "DATABASE_URL"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.Env != "dev" {
		t.Fatalf("expected env dev, got %s", cfg.Env)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("expected 24h session ttl, got %s", cfg.SessionTTL)
	}
	if cfg.MaxUploadBytes != 10<<20 {
		t.Fatalf("unexpected max upload bytes: %d", cfg.MaxUploadBytes)
	}
	if cfg.MaxResumes != 50 {
		t.Fatalf("unexpected max resumes: %d", cfg.MaxResumes)
	}
	if cfg.ExportArchive != "" {
		t.Fatalf("expected archive disabled, got %q", cfg.ExportArchive)
	}
}

func TestLoadOverridesAndInvalidValues(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ENV", "prod")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("MAX_RESUMES", "not-a-number")
	t.Setenv("EXPORT_ARCHIVE", "S3")
	t.Setenv("CORS_ALLOW_ORIGINS", " http://a.test , ,http://b.test")

	cfg := Load()
	if cfg.Env != "production" {
		t.Fatalf("expected production, got %s", cfg.Env)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Fatalf("expected 30m, got %s", cfg.SessionTTL)
	}
	if cfg.MaxResumes != 50 {
		t.Fatalf("expected fallback to default, got %d", cfg.MaxResumes)
	}
	if cfg.ExportArchive != "s3" {
		t.Fatalf("expected s3 archive, got %q", cfg.ExportArchive)
	}
	if len(cfg.CORSAllowOrigin) != 2 || cfg.CORSAllowOrigin[1] != "http://b.test" {
		t.Fatalf("unexpected origins: %v", cfg.CORSAllowOrigin)
	}
}

func TestLoadReadsDotEnvWithoutOverridingEnvironment(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	content := "PORT=9090\nLOG_LEVEL=debug\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("PORT", "7070")
	t.Setenv("LOG_LEVEL", "")
	os.Unsetenv("LOG_LEVEL")

	cfg := Load()
	if cfg.Port != "7070" {
		t.Fatalf("expected environment to win, got %s", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected LOG_LEVEL from .env, got %s", cfg.LogLevel)
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}
