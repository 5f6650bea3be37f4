package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/park285/nuclear-chess/internal/game"
	"github.com/park285/nuclear-chess/internal/obslog"
	"gopkg.in/yaml.v3"
)

const cfgFile = "nuclear-chess/config.yaml"

var ErrInvalidConfig = errors.New("config: invalid")

type AppConfig struct {
	SkillLevel      int   `yaml:"skill_level"`
	NodeBudgets     []int `yaml:"node_budgets"`
	HumanPlaysBlack bool  `yaml:"human_plays_black"`

	UpdateInterval time.Duration `yaml:"update_interval"`
	ClockInterval  time.Duration `yaml:"clock_interval"`

	RedisURL    string `yaml:"redis_url"`
	DatabaseURL string `yaml:"database_url"`
	MirrorAddr  string `yaml:"mirror_addr"`
	KeypadURL   string `yaml:"keypad_url"`
	MessagesDir string `yaml:"messages_dir"`

	Log obslog.Config `yaml:"log"`

	// Path is the file the config was read from, if any.
	Path string `yaml:"-"`
}

func Default() AppConfig {
	return AppConfig{
		SkillLevel:     0,
		NodeBudgets:    append([]int(nil), game.DefaultNodeBudgets...),
		UpdateInterval: 50 * time.Millisecond,
		ClockInterval:  time.Second,
		Log:            obslog.DefaultConfig(),
	}
}

// Load reads defaults, then the YAML file (CHESS_CONFIG, else the XDG
// config search path), then environment overrides.
func Load() (*AppConfig, error) {
	cfg := Default()

	path := strings.TrimSpace(os.Getenv("CHESS_CONFIG"))
	if path == "" {
		if p, err := xdg.SearchConfigFile(cfgFile); err == nil {
			path = p
		}
	}
	if path != "" {
		if err := readFile(path, &cfg); err != nil {
			return nil, err
		}
		cfg.Path = path
	}

	applyEnv(&cfg)
	obslog.ApplyEnv(&cfg.Log)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readFile(path string, cfg *AppConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv("CHESS_SKILL_LEVEL")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SkillLevel = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("CHESS_NODE_BUDGETS")); v != "" {
		var budgets []int
		for _, p := range strings.Split(v, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				budgets = nil
				break
			}
			budgets = append(budgets, n)
		}
		if len(budgets) > 0 {
			cfg.NodeBudgets = budgets
		}
	}
	if v := strings.TrimSpace(os.Getenv("CHESS_HUMAN_PLAYS_BLACK")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.HumanPlaysBlack = b
		}
	}
	if v := strings.TrimSpace(os.Getenv("CHESS_UPDATE_INTERVAL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.UpdateInterval = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("CHESS_CLOCK_INTERVAL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.ClockInterval = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		cfg.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		cfg.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("MIRROR_ADDR")); v != "" {
		cfg.MirrorAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("KEYPAD_URL")); v != "" {
		cfg.KeypadURL = v
	}
	if v := strings.TrimSpace(os.Getenv("CHESS_MESSAGES_DIR")); v != "" {
		cfg.MessagesDir = v
	}
}

func (c *AppConfig) Validate() error {
	if err := game.ValidateBudgets(c.NodeBudgets); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.SkillLevel < 0 || c.SkillLevel >= len(c.NodeBudgets) {
		return fmt.Errorf("%w: skill_level %d outside 0..%d", ErrInvalidConfig, c.SkillLevel, len(c.NodeBudgets)-1)
	}
	if c.UpdateInterval <= 0 || c.ClockInterval <= 0 {
		return fmt.Errorf("%w: intervals must be positive", ErrInvalidConfig)
	}
	return nil
}

// Save writes c to its source file, or to the XDG config home.
func (c *AppConfig) Save() error {
	path := c.Path
	if path == "" {
		p, err := xdg.ConfigFile(cfgFile)
		if err != nil {
			return fmt.Errorf("resolve config path: %w", err)
		}
		path = p
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	c.Path = path
	return nil
}
