package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Session struct {
		Name              string `yaml:"name"`
		StartCountdown    string `yaml:"start_countdown"`
		NextCountdown     string `yaml:"next_countdown"`
		StatsTick         string `yaml:"stats_tick"`
		DisconnectTimeout string `yaml:"disconnect_timeout"`
		SweepInterval     string `yaml:"sweep_interval"`
		TopN              int    `yaml:"top_n"`
		ShowFullRoster    bool   `yaml:"show_full_roster"`
	} `yaml:"session"`
	Scoring struct {
		Base          int   `yaml:"base"`
		RankBonusMax  int   `yaml:"rank_bonus_max"`
		RankBonusStep int   `yaml:"rank_bonus_step"`
		RankBonusMin  int   `yaml:"rank_bonus_min"`
		TimeBonusMax  int   `yaml:"time_bonus_max"`
		TimeBonusMin  int   `yaml:"time_bonus_min"`
		PerfectMs     int64 `yaml:"perfect_ms"`
	} `yaml:"scoring"`
	Questions struct {
		Path  string `yaml:"path"`
		SetID string `yaml:"set_id"`
	} `yaml:"questions"`
	Records struct {
		Dir string `yaml:"dir"`
		TTL string `yaml:"ttl"`
	} `yaml:"records"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Duration parses a duration string or returns the fallback if empty or
// malformed.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
