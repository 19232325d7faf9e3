// Package config loads the environment knobs spec.md §6.5 recognizes,
// into a typed Config value. Grounded on the teacher's cmd/*/main.go style
// of explicit typed locals (flag.Int("port", ...) into a local var) rather
// than a global singleton — extended here to os.Getenv since these are
// environment knobs, not CLI flags (spec.md §9 "pass a Context value
// explicitly down the call chain" / "global singletons" design note).
package config

import "os"

// BackendType selects the default executor family (spec.md §6.5
// INTERNAL_BACKEND_TYPE).
type BackendType string

const (
	BackendHTTP           BackendType = "http"
	BackendOxigraphMemory BackendType = "oxigraph-memory"
)

// Config is the set of environment knobs spec.md §6.5 recognizes.
type Config struct {
	BackendType BackendType

	StorageSPARQLEndpoint       string
	StorageSPARQLUpdateEndpoint string
	StorageSPARQLUsername       string
	StorageSPARQLPassword       string

	OxigraphDBPath string

	EnableTimingLogs bool
}

// Load reads Config from the process environment.
func Load() Config {
	return Config{
		BackendType: BackendType(getenvDefault("INTERNAL_BACKEND_TYPE", string(BackendHTTP))),

		StorageSPARQLEndpoint:       os.Getenv("LIBRARY_STORAGE_SPARQL_ENDPOINT"),
		StorageSPARQLUpdateEndpoint: os.Getenv("LIBRARY_STORAGE_SPARQL_UPDATE_ENDPOINT"),
		StorageSPARQLUsername:       os.Getenv("LIBRARY_STORAGE_SPARQL_USERNAME"),
		StorageSPARQLPassword:       os.Getenv("LIBRARY_STORAGE_SPARQL_PASSWORD"),

		OxigraphDBPath: os.Getenv("INTERNAL_OXIGRAPH_DB_PATH"),

		EnableTimingLogs: os.Getenv("ENABLE_TIMING_LOGS") == "true",
	}
}

// HasCredentials reports whether both a username and password were
// configured for the HTTP storage endpoint.
func (c Config) HasCredentials() bool {
	return c.StorageSPARQLUsername != "" && c.StorageSPARQLPassword != ""
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
