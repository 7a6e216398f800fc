package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"STORE_BACKEND", "REDIS_URI", "PORT", "ALLOWED_ORIGINS", "ENV"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.StoreBackend != BackendRedis {
		t.Errorf("StoreBackend = %q, want %q", cfg.StoreBackend, BackendRedis)
	}
	if cfg.RedisURI != "redis://localhost:6379/0" {
		t.Errorf("RedisURI = %q", cfg.RedisURI)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.IsProduction() {
		t.Error("default environment must not be production")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STORE_BACKEND", " Memory ")
	t.Setenv("REDIS_URI", "redis://cache:6380/1")
	t.Setenv("PORT", "9000")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com ,")
	t.Setenv("ENV", "Production")

	cfg := Load()
	if cfg.StoreBackend != BackendMemory {
		t.Errorf("StoreBackend = %q, want %q", cfg.StoreBackend, BackendMemory)
	}
	if cfg.RedisURI != "redis://cache:6380/1" {
		t.Errorf("RedisURI = %q", cfg.RedisURI)
	}
	if cfg.Port != "9000" {
		t.Errorf("Port = %q", cfg.Port)
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if len(cfg.AllowedOrigins) != len(want) {
		t.Fatalf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	for i := range want {
		if cfg.AllowedOrigins[i] != want[i] {
			t.Errorf("AllowedOrigins[%d] = %q, want %q", i, cfg.AllowedOrigins[i], want[i])
		}
	}
	if !cfg.IsProduction() {
		t.Error("ENV=Production must report production")
	}
}

func TestUnknownBackendFallsBackToRedis(t *testing.T) {
	t.Setenv("STORE_BACKEND", "postgres")
	if cfg := Load(); cfg.StoreBackend != BackendRedis {
		t.Errorf("StoreBackend = %q, want %q", cfg.StoreBackend, BackendRedis)
	}
}
