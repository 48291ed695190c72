package config

import "testing"

func TestLoadServerDefaults(t *testing.T) {
	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.MinPlayers != 3 || cfg.MaxPlayers != 10 {
		t.Fatalf("player bounds = %d..%d, want 3..10", cfg.MinPlayers, cfg.MaxPlayers)
	}
	if cfg.MaxConcurrentGames != 8 {
		t.Fatalf("MaxConcurrentGames = %d, want 8", cfg.MaxConcurrentGames)
	}
	if cfg.PostgresDSN != "" {
		t.Fatalf("PostgresDSN = %q, want empty", cfg.PostgresDSN)
	}
}

func TestLoadServerParseTypes(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("MAX_CONCURRENT_GAMES", "2")
	t.Setenv("POSTGRES_DSN", "postgres://localhost:5432/arena?sslmode=disable")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.MaxConcurrentGames != 2 {
		t.Fatalf("MaxConcurrentGames = %d, want 2", cfg.MaxConcurrentGames)
	}
	if cfg.PostgresDSN == "" {
		t.Fatal("PostgresDSN not parsed")
	}
}
