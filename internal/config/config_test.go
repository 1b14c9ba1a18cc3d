package config

import (
	"os"
	"testing"
)

func TestConfigLoad_Defaults(t *testing.T) {
	_ = os.Unsetenv("PLAYDATES_STORE_DRIVER")
	_ = os.Unsetenv("PLAYDATES_HTTP_PORT")
	_ = os.Unsetenv("PLAYDATES_SQLITE_PATH")

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.StoreDriver != "sqlite" || cfg.HTTPPort != 8080 || cfg.SQLitePath != "playdates.db" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestConfigLoad_EnvOverride(t *testing.T) {
	_ = os.Setenv("PLAYDATES_HTTP_PORT", "9191")
	defer func() { _ = os.Unsetenv("PLAYDATES_HTTP_PORT") }()

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.HTTPPort != 9191 {
		t.Fatalf("http port env override failed, got %d", cfg.HTTPPort)
	}
}

func TestResolveDefaults_RejectsUnknownDriver(t *testing.T) {
	cfg := NewForTesting()
	cfg.StoreDriver = "dynamo"
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestResolveDefaults_PostgresRequiresDSN(t *testing.T) {
	cfg := NewForTesting()
	cfg.StoreDriver = "postgres"
	cfg.PostgresDSN = ""
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatalf("expected error when postgres DSN missing")
	}
}

func TestResolveDefaults_ProductionRequiresSecret(t *testing.T) {
	cfg := NewForTesting()
	cfg.Environment = EnvProduction
	cfg.JWTSecret = ""
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatalf("expected error when JWT secret missing in production")
	}
}
