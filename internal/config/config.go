// Package config loads the operator configuration: endpoints, timing
// knobs and the bot roster. Secrets come from the environment, never from
// the file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// BotConfig is one roster entry.
type BotConfig struct {
	Enabled  bool   `json:"enabled"`
	Name     string `json:"name"`
	Username string `json:"username"`
	// Password is filled from TCBOT_PASSWORD_<NAME> when empty.
	Password string `json:"password"`
	// Endpoint overrides the global server URL for this bot.
	Endpoint string `json:"endpoint"`
}

type Config struct {
	ServerURL string `json:"server_url"`
	AgentURL  string `json:"agent_url"`
	TraceDir  string `json:"trace_dir"`
	LogLevel  string `json:"log_level"`

	ReconnectScheduleMS []int `json:"reconnect_schedule_ms"`
	HeartbeatIntervalMS int   `json:"heartbeat_interval_ms"`
	SettleMS            int   `json:"settle_ms"`
	DelayMS             int   `json:"delay_ms"`

	RandomPick bool  `json:"random_pick"`
	AdminChat  int64 `json:"admin_chat"`

	Bots []BotConfig `json:"bots"`

	// TelegramToken comes from TELEGRAM_TOKEN; the front-end is disabled
	// when unset.
	TelegramToken string `json:"-"`
}

// Defaults mirrors the values the production deployment ran with.
func Defaults() Config {
	return Config{
		ServerURL:           "wss://game.example.com:5334/ws",
		AgentURL:            "ws://127.0.0.1:8089/",
		TraceDir:            "traces",
		LogLevel:            "info",
		ReconnectScheduleMS: []int{5000, 10000, 30000, 60000, 180000, 300000, 600000},
		HeartbeatIntervalMS: 30000,
		SettleMS:            300,
		DelayMS:             1500,
	}
}

// Load reads the configuration file over the defaults and resolves
// secrets from the environment.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	for i := range cfg.Bots {
		b := &cfg.Bots[i]
		if b.Name == "" {
			return nil, fmt.Errorf("bot %d has no name", i)
		}
		if b.Password == "" {
			b.Password = os.Getenv("TCBOT_PASSWORD_" + envKey(b.Name))
		}
		if b.Endpoint == "" {
			b.Endpoint = cfg.ServerURL
		}
	}
	return &cfg, nil
}

// ReconnectSchedule converts the millisecond schedule, falling back to the
// defaults when the file cleared it.
func (c *Config) ReconnectSchedule() []time.Duration {
	ms := c.ReconnectScheduleMS
	if len(ms) == 0 {
		ms = Defaults().ReconnectScheduleMS
	}
	out := make([]time.Duration, len(ms))
	for i, v := range ms {
		out[i] = time.Duration(v) * time.Millisecond
	}
	return out
}

func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatIntervalMS) * time.Millisecond
}

func (c *Config) Settle() time.Duration {
	return time.Duration(c.SettleMS) * time.Millisecond
}

func (c *Config) Delay() time.Duration {
	return time.Duration(c.DelayMS) * time.Millisecond
}

// Enabled returns the roster entries that should be started.
func (c *Config) Enabled() []BotConfig {
	var out []BotConfig
	for _, b := range c.Bots {
		if b.Enabled {
			out = append(out, b)
		}
	}
	return out
}

func envKey(name string) string {
	key := strings.ToUpper(name)
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, key)
}
