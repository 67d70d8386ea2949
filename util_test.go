package main

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"contexto/internal/game"
	"contexto/internal/types"
)

func TestDirExists(t *testing.T) {
	dir := t.TempDir()
	if !dirExists(dir) {
		t.Errorf("Expected dirExists to return true for existing dir")
	}
	if dirExists(dir + "-notfound") {
		t.Errorf("Expected dirExists to return false for non-existent dir")
	}
	file := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if dirExists(file) || !fileExists(file) || fileExists(dir) {
		t.Errorf("dirExists/fileExists confused a file and a directory")
	}
}

func TestFormatUptime(t *testing.T) {
	cases := []struct {
		dur      time.Duration
		expected string
	}{
		{time.Second * 5, "5 seconds"},
		{time.Second * 65, "1 minute, 5 seconds"},
		{time.Second * 3665, "1 hour, 1 minute, 5 seconds"},
		{time.Second * 3600, "1 hour, 0 minutes, 0 seconds"},
		{time.Second * 1, "1 second"},
	}
	for _, c := range cases {
		got := formatUptime(c.dur)
		if got != c.expected {
			t.Errorf("formatUptime(%v) = %q, want %q", c.dur, got, c.expected)
		}
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_DURATION", "2s")
	if got := getEnvDuration("TEST_DURATION", time.Second); got != 2*time.Second {
		t.Errorf("getEnvDuration = %v, want 2s", got)
	}
	t.Setenv("TEST_DURATION", "notaduration")
	if got := getEnvDuration("TEST_DURATION", 3*time.Second); got != 3*time.Second {
		t.Errorf("getEnvDuration fallback = %v, want 3s", got)
	}

	t.Setenv("TEST_INT", " 42 ")
	if got := getEnvInt("TEST_INT", 1); got != 42 {
		t.Errorf("getEnvInt = %d, want 42", got)
	}
	t.Setenv("TEST_INT", "forty")
	if got := getEnvInt("TEST_INT", 7); got != 7 {
		t.Errorf("getEnvInt fallback = %d, want 7", got)
	}

	t.Setenv("TEST_BOOL", "false")
	if getEnvBool("TEST_BOOL", true) {
		t.Error("getEnvBool = true, want false")
	}
	t.Setenv("TEST_BOOL", "maybe")
	if !getEnvBool("TEST_BOOL", true) {
		t.Error("getEnvBool fallback = false, want true")
	}

	if got := getEnvString("TEST_UNSET_STRING", "dflt"); got != "dflt" {
		t.Errorf("getEnvString fallback = %q", got)
	}

	t.Setenv("TEST_LIST", " NOUN, ,ADJ ,")
	if got := getEnvList("TEST_LIST", nil); !slices.Equal(got, []string{"NOUN", "ADJ"}) {
		t.Errorf("getEnvList = %q", got)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("TIER_VERY_CLOSE", "60")
	t.Setenv("PREFERRED_POS", "NOUN,ADJ")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")

	cfg := loadConfig()
	if !cfg.IsProduction {
		t.Error("ENV=production not detected")
	}
	if cfg.SessionStore != "memory" {
		t.Errorf("SessionStore = %q, want memory fallback", cfg.SessionStore)
	}
	if cfg.Thresholds.VeryClose != 5 {
		t.Errorf("non-ascending thresholds accepted: %+v", cfg.Thresholds)
	}
	if len(cfg.PreferredPOS) != 2 || len(cfg.CORSOrigins) != 2 {
		t.Errorf("lists = %v, %v", cfg.PreferredPOS, cfg.CORSOrigins)
	}
	if cfg.Port != "8080" || cfg.SessionTTL != 2*time.Hour {
		t.Errorf("defaults = port %q ttl %v", cfg.Port, cfg.SessionTTL)
	}

	t.Setenv("SESSION_STORE", "sqlite")
	t.Setenv("SESSION_DB_PATH", "/tmp/contexto.db")
	cfg = loadConfig()
	if cfg.SessionStore != "sqlite" || cfg.SessionDBPath != "/tmp/contexto.db" {
		t.Errorf("sqlite store = %q at %q", cfg.SessionStore, cfg.SessionDBPath)
	}
}

func TestLoadOracleFromFiles(t *testing.T) {
	dir := t.TempDir()
	vec := filepath.Join(dir, "model.vec")
	dict := filepath.Join(dir, "dict.txt")
	black := filepath.Join(dir, "black.txt")
	for path, content := range map[string]string{
		vec:   testVec,
		dict:  "кошка\nсобака\nстол\n",
		black: "# no furniture\nстол\n",
	} {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := testConfig()
	cfg.EmbeddingsPath = vec
	cfg.DictionaryPath = dict
	cfg.BlacklistPath = black
	cfg.MinWordLength = 3
	cfg.PreferredPOS = []string{"NOUN"}

	o, err := loadOracle(cfg)
	if err != nil {
		t.Fatalf("loadOracle: %v", err)
	}
	if o.Targets() != 2 {
		t.Errorf("Targets = %d, want 2", o.Targets())
	}

	cfg.EmbeddingsPath = filepath.Join(dir, "missing.vec")
	if _, err := loadOracle(cfg); err == nil {
		t.Error("missing embeddings file accepted")
	}
}

func TestRunSweeper(t *testing.T) {
	repo := game.NewMemoryRepository(0, quietLog())
	stale := &types.Session{ID: "stale", TargetWord: "кот", UpdatedAt: time.Now().Add(-time.Hour)}
	_ = repo.Put(context.Background(), stale)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		runSweeper(ctx, repo, 5*time.Millisecond, time.Minute)
		close(done)
	}()

	deadline := time.After(time.Second)
	for repo.Len() != 0 {
		select {
		case <-deadline:
			t.Fatal("sweeper did not remove the stale session")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}
