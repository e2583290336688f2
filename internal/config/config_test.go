package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTestYAML(t *testing.T, dir, content string) {
	t.Helper()
	path := filepath.Join(dir, DefaultConfigFile)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write test yaml: %v", err)
	}
}

func TestLoad_FullConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TEST_BOT_TOKEN", "123:abc")

	writeTestYAML(t, dir, `
telegram:
  token_env: TEST_BOT_TOKEN
  collector: scripts/collector.py
  python_path: /usr/bin/python3
  session_dir: .chanrelay/session
scan:
  interval: 90s
  winddown: 10s
  channel_limit: 25
  site_timeout: 15s
storage:
  state_path: custom-state.json
  blacklist_path: custom.db
  max_ledger_entries: 5000
publish:
  signature: "via relay"
  send_rate: 0.5
  resolve_retries: 4
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Telegram.Token != "123:abc" {
		t.Errorf("token = %q, want 123:abc", cfg.Telegram.Token)
	}
	if cfg.Telegram.Collector != "scripts/collector.py" {
		t.Errorf("collector = %q", cfg.Telegram.Collector)
	}
	if cfg.Telegram.PythonPath != "/usr/bin/python3" {
		t.Errorf("python_path = %q", cfg.Telegram.PythonPath)
	}
	if cfg.Telegram.SessionDir != ".chanrelay/session" {
		t.Errorf("session_dir = %q", cfg.Telegram.SessionDir)
	}

	if cfg.Scan.Interval.Duration != 90*time.Second {
		t.Errorf("interval = %v, want 90s", cfg.Scan.Interval.Duration)
	}
	if cfg.Scan.Winddown.Duration != 10*time.Second {
		t.Errorf("winddown = %v, want 10s", cfg.Scan.Winddown.Duration)
	}
	if cfg.Scan.ChannelLimit != 25 {
		t.Errorf("channel_limit = %d, want 25", cfg.Scan.ChannelLimit)
	}
	if cfg.Scan.SiteTimeout.Duration != 15*time.Second {
		t.Errorf("site_timeout = %v, want 15s", cfg.Scan.SiteTimeout.Duration)
	}

	if cfg.Storage.StatePath != "custom-state.json" {
		t.Errorf("state_path = %q", cfg.Storage.StatePath)
	}
	if cfg.Storage.BlacklistPath != "custom.db" {
		t.Errorf("blacklist_path = %q", cfg.Storage.BlacklistPath)
	}
	if cfg.Storage.MaxLedgerEntries != 5000 {
		t.Errorf("max_ledger_entries = %d, want 5000", cfg.Storage.MaxLedgerEntries)
	}

	if cfg.Publish.Signature != "via relay" {
		t.Errorf("signature = %q", cfg.Publish.Signature)
	}
	if cfg.Publish.SendRate != 0.5 {
		t.Errorf("send_rate = %v, want 0.5", cfg.Publish.SendRate)
	}
	if cfg.Publish.ResolveRetries != 4 {
		t.Errorf("resolve_retries = %d, want 4", cfg.Publish.ResolveRetries)
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	dir := t.TempDir()
	writeTestYAML(t, dir, `
telegram:
  collector: collector.py
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Telegram.TokenEnv != DefaultTokenEnv {
		t.Errorf("token_env = %q, want %q", cfg.Telegram.TokenEnv, DefaultTokenEnv)
	}
	if cfg.Telegram.PythonPath != "python3" {
		t.Errorf("python_path = %q, want python3", cfg.Telegram.PythonPath)
	}
	if cfg.Scan.Interval.Duration != DefaultInterval {
		t.Errorf("interval = %v, want %v", cfg.Scan.Interval.Duration, DefaultInterval)
	}
	if cfg.Scan.Winddown.Duration != DefaultWinddown {
		t.Errorf("winddown = %v, want %v", cfg.Scan.Winddown.Duration, DefaultWinddown)
	}
	if cfg.Scan.ChannelLimit != DefaultChannelLimit {
		t.Errorf("channel_limit = %d, want %d", cfg.Scan.ChannelLimit, DefaultChannelLimit)
	}
	if want := filepath.Join(dir, DefaultStateFile); cfg.Storage.StatePath != want {
		t.Errorf("state_path = %q, want %q", cfg.Storage.StatePath, want)
	}
	if want := filepath.Join(dir, DefaultDBFile); cfg.Storage.BlacklistPath != want {
		t.Errorf("blacklist_path = %q, want %q", cfg.Storage.BlacklistPath, want)
	}
	if cfg.Storage.MaxLedgerEntries != 0 {
		t.Errorf("max_ledger_entries = %d, want 0 (unlimited)", cfg.Storage.MaxLedgerEntries)
	}
	if cfg.Publish.SendRate != DefaultSendRate {
		t.Errorf("send_rate = %v, want %v", cfg.Publish.SendRate, DefaultSendRate)
	}
	if cfg.Publish.ResolveRetries != DefaultResolveRetries {
		t.Errorf("resolve_retries = %d, want %d", cfg.Publish.ResolveRetries, DefaultResolveRetries)
	}
}

func TestLoad_IntervalTooShort(t *testing.T) {
	dir := t.TempDir()
	writeTestYAML(t, dir, `
scan:
  interval: 100ms
`)

	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected error for sub-second interval")
	}
	if want := "scan.interval"; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want containing %q", err, want)
	}
}

func TestLoad_NegativeLedgerCap(t *testing.T) {
	dir := t.TempDir()
	writeTestYAML(t, dir, `
storage:
  max_ledger_entries: -1
`)

	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected error for negative cap")
	}
	if want := "max_ledger_entries"; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want containing %q", err, want)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	dir := t.TempDir()
	writeTestYAML(t, dir, `
scan:
  interval: soon
`)

	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected error for invalid duration")
	}
	if want := "parse duration"; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want containing %q", err, want)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(t.TempDir())
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if want := "read config"; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want containing %q", err, want)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	writeTestYAML(t, dir, `{{{invalid`)

	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected error for malformed yaml")
	}
	if want := "parse config"; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want containing %q", err, want)
	}
}

func TestLoad_EmptyDir(t *testing.T) {
	_, err := Load("")
	if err == nil {
		t.Fatal("expected error for empty dir")
	}
	if want := "config dir is required"; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want containing %q", err, want)
	}
}

func TestLoad_TokenEnvMissing(t *testing.T) {
	dir := t.TempDir()
	writeTestYAML(t, dir, `
telegram:
  token_env: CHANRELAY_NONEXISTENT_VAR_12345
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "" {
		t.Errorf("token = %q, want empty", cfg.Telegram.Token)
	}
}
