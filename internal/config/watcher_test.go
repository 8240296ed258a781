package config

import "testing"

func TestLoadWatcherDefaults(t *testing.T) {
	t.Setenv("WATCH_PLAYER_TOKEN", "tok")

	cfg, err := LoadWatcher()
	if err != nil {
		t.Fatalf("LoadWatcher() error = %v", err)
	}
	if cfg.WSURL != "ws://localhost:8080/api/ws" {
		t.Fatalf("WSURL = %q, want ws://localhost:8080/api/ws", cfg.WSURL)
	}
	if cfg.APIURL != "http://localhost:8080" {
		t.Fatalf("APIURL = %q", cfg.APIURL)
	}
}

func TestLoadWatcherRequiresToken(t *testing.T) {
	t.Setenv("WATCH_PLAYER_TOKEN", "")

	if _, err := LoadWatcher(); err == nil {
		t.Fatal("LoadWatcher() expected error, got nil")
	}
}
