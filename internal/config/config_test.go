package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SettleMS != 300 || cfg.DelayMS != 1500 {
		t.Errorf("timing defaults = %d, %d", cfg.SettleMS, cfg.DelayMS)
	}
	if got := cfg.HeartbeatInterval(); got != 30*time.Second {
		t.Errorf("heartbeat = %v", got)
	}
	sched := cfg.ReconnectSchedule()
	if len(sched) != 7 || sched[0] != 5*time.Second || sched[6] != 10*time.Minute {
		t.Errorf("schedule = %v", sched)
	}
}

func TestLoadOverridesAndRoster(t *testing.T) {
	path := writeConfig(t, `{
		"server_url": "wss://game.test:5334/ws",
		"delay_ms": 800,
		"bots": [
			{"enabled": true, "name": "bot-1", "username": "u1", "password": "inline"},
			{"enabled": false, "name": "bot-2", "username": "u2", "endpoint": "wss://other.test/ws"}
		]
	}`)
	t.Setenv("TCBOT_PASSWORD_BOT_2", "from-env")
	t.Setenv("TELEGRAM_TOKEN", "tok")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Delay() != 800*time.Millisecond {
		t.Errorf("delay = %v", cfg.Delay())
	}
	if cfg.TelegramToken != "tok" {
		t.Errorf("token = %q", cfg.TelegramToken)
	}

	if cfg.Bots[0].Password != "inline" {
		t.Errorf("inline password replaced: %q", cfg.Bots[0].Password)
	}
	if cfg.Bots[0].Endpoint != "wss://game.test:5334/ws" {
		t.Errorf("endpoint default = %q", cfg.Bots[0].Endpoint)
	}
	if cfg.Bots[1].Password != "from-env" {
		t.Errorf("env password = %q", cfg.Bots[1].Password)
	}
	if cfg.Bots[1].Endpoint != "wss://other.test/ws" {
		t.Errorf("endpoint override = %q", cfg.Bots[1].Endpoint)
	}

	enabled := cfg.Enabled()
	if len(enabled) != 1 || enabled[0].Name != "bot-1" {
		t.Errorf("enabled = %v", enabled)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file must error")
	}
	if _, err := Load(writeConfig(t, `{not json`)); err == nil {
		t.Error("malformed file must error")
	}
	if _, err := Load(writeConfig(t, `{"bots":[{"enabled":true}]}`)); err == nil {
		t.Error("nameless bot must error")
	}
}
