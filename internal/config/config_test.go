package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("INTERNAL_BACKEND_TYPE", "")
	t.Setenv("LIBRARY_STORAGE_SPARQL_USERNAME", "")
	t.Setenv("LIBRARY_STORAGE_SPARQL_PASSWORD", "")
	t.Setenv("ENABLE_TIMING_LOGS", "")

	cfg := Load()
	if cfg.BackendType != BackendHTTP {
		t.Errorf("expected default backend type %q, got %q", BackendHTTP, cfg.BackendType)
	}
	if cfg.HasCredentials() {
		t.Error("expected HasCredentials to be false when no username/password are set")
	}
	if cfg.EnableTimingLogs {
		t.Error("expected EnableTimingLogs to default to false")
	}
}

func TestLoad_OverridesFromEnv(t *testing.T) {
	t.Setenv("INTERNAL_BACKEND_TYPE", "oxigraph-memory")
	t.Setenv("LIBRARY_STORAGE_SPARQL_USERNAME", "user")
	t.Setenv("LIBRARY_STORAGE_SPARQL_PASSWORD", "pass")
	t.Setenv("INTERNAL_OXIGRAPH_DB_PATH", "/tmp/querylib-db")
	t.Setenv("ENABLE_TIMING_LOGS", "true")

	cfg := Load()
	if cfg.BackendType != BackendOxigraphMemory {
		t.Errorf("expected overridden backend type %q, got %q", BackendOxigraphMemory, cfg.BackendType)
	}
	if !cfg.HasCredentials() {
		t.Error("expected HasCredentials to be true when both username and password are set")
	}
	if cfg.OxigraphDBPath != "/tmp/querylib-db" {
		t.Errorf("expected OxigraphDBPath to be read from env, got %q", cfg.OxigraphDBPath)
	}
	if !cfg.EnableTimingLogs {
		t.Error("expected EnableTimingLogs to be true when set to \"true\"")
	}
}

func TestHasCredentials_PartialIsFalse(t *testing.T) {
	cfg := Config{StorageSPARQLUsername: "user"}
	if cfg.HasCredentials() {
		t.Error("expected HasCredentials to be false when only a username is set")
	}
}
