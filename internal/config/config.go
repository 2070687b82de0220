// Package config provides Viper-based configuration loading for the
// simulation core and its hosts.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// MapConfig holds map generation settings.
type MapConfig struct {
	// Width and Height are the tile dimensions shared by every floor.
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
	// Floors is the number of stacked layers.
	Floors int `mapstructure:"floors"`
	// WallDensity is the probability a generated tile is a wall.
	WallDensity float64 `mapstructure:"wall_density"`
	// PlazaSize is the side length of the spawn plaza.
	PlazaSize int `mapstructure:"plaza_size"`
	// StairMinDistance is the minimum Chebyshev distance from the plaza
	// center to the stairwell.
	StairMinDistance int `mapstructure:"stair_min_distance"`
	// EnemyMinDistance is the minimum Manhattan distance from the plaza
	// center to an enemy spawn.
	EnemyMinDistance int `mapstructure:"enemy_min_distance"`
}

// RulesConfig holds the locked gameplay numbers.
//
// AttackDamage, ClimbCost, and DamageEventTTLMs are validated but not read
// by the simulation packages: the engine resolves attacks with a fixed
// damage of 1 and the world uses a fixed 1500 ms damage-event TTL. The AI
// planner reads AttackRange, while the engine's attack resolution uses a
// fixed range of 1.
type RulesConfig struct {
	// AttackCost is the AP price of a melee attack.
	AttackCost float64 `mapstructure:"attack_cost"`
	// AttackDamage is the hit points removed per landed attack.
	AttackDamage int `mapstructure:"attack_damage"`
	// AttackRange is the maximum Manhattan distance of a melee attack.
	AttackRange int `mapstructure:"attack_range"`
	// ClimbCost is the AP price of using a stairwell.
	ClimbCost float64 `mapstructure:"climb_cost"`
	// DecisionSeconds is the length of the planning window.
	DecisionSeconds float64 `mapstructure:"decision_seconds"`
	// StepDelayMs paces per-step animation between execution mutations.
	StepDelayMs int `mapstructure:"step_delay_ms"`
	// DamageEventTTLMs is how long damage events stay relevant.
	DamageEventTTLMs int `mapstructure:"damage_event_ttl_ms"`
}

// AIConfig holds enemy planner tuning.
type AIConfig struct {
	// ConeVision restricts enemy sight to a facing cone.
	ConeVision bool `mapstructure:"cone_vision"`
	// ConeDotThreshold is the minimum facing dot product inside the cone.
	ConeDotThreshold float64 `mapstructure:"cone_dot_threshold"`
	// WanderAttempts is how many random deltas a wandering enemy tries.
	WanderAttempts int `mapstructure:"wander_attempts"`
	// DefaultNoiseLevel is the audible radius of units without an
	// explicit noise level.
	DefaultNoiseLevel int `mapstructure:"default_noise_level"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	Map     MapConfig     `mapstructure:"map"`
	Rules   RulesConfig   `mapstructure:"rules"`
	AI      AIConfig      `mapstructure:"ai"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: returns nil if the configuration is valid, or an error
// describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateMap(c.Map); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateRules(c.Rules); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateAI(c.AI); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateMap(m MapConfig) error {
	var errs []string
	if m.Width < 5 || m.Height < 5 {
		errs = append(errs, fmt.Sprintf("map dimensions must be at least 5x5, got %dx%d", m.Width, m.Height))
	}
	if m.Floors < 1 {
		errs = append(errs, fmt.Sprintf("map.floors must be >= 1, got %d", m.Floors))
	}
	if m.WallDensity < 0 || m.WallDensity >= 1 {
		errs = append(errs, fmt.Sprintf("map.wall_density must be in [0,1), got %g", m.WallDensity))
	}
	if m.PlazaSize < 1 {
		errs = append(errs, fmt.Sprintf("map.plaza_size must be >= 1, got %d", m.PlazaSize))
	}
	if m.StairMinDistance < 0 {
		errs = append(errs, "map.stair_min_distance must not be negative")
	}
	if m.EnemyMinDistance < 0 {
		errs = append(errs, "map.enemy_min_distance must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateRules(r RulesConfig) error {
	var errs []string
	if r.AttackCost < 0 {
		errs = append(errs, "rules.attack_cost must not be negative")
	}
	if r.AttackDamage < 1 {
		errs = append(errs, fmt.Sprintf("rules.attack_damage must be >= 1, got %d", r.AttackDamage))
	}
	if r.AttackRange < 1 {
		errs = append(errs, fmt.Sprintf("rules.attack_range must be >= 1, got %d", r.AttackRange))
	}
	if r.ClimbCost < 0 {
		errs = append(errs, "rules.climb_cost must not be negative")
	}
	if r.DecisionSeconds <= 0 {
		errs = append(errs, fmt.Sprintf("rules.decision_seconds must be > 0, got %g", r.DecisionSeconds))
	}
	if r.StepDelayMs < 0 {
		errs = append(errs, "rules.step_delay_ms must not be negative")
	}
	if r.DamageEventTTLMs < 0 {
		errs = append(errs, "rules.damage_event_ttl_ms must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateAI(a AIConfig) error {
	var errs []string
	if a.ConeDotThreshold < -1 || a.ConeDotThreshold > 1 {
		errs = append(errs, fmt.Sprintf("ai.cone_dot_threshold must be in [-1,1], got %g", a.ConeDotThreshold))
	}
	if a.WanderAttempts < 1 {
		errs = append(errs, fmt.Sprintf("ai.wander_attempts must be >= 1, got %d", a.WanderAttempts))
	}
	if a.DefaultNoiseLevel < 0 {
		errs = append(errs, "ai.default_noise_level must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment
// variable overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with GRIDFALL_ prefix
	v.SetEnvPrefix("GRIDFALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil.
// Postcondition: returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the shipped tuning without touching the filesystem.
//
// Postcondition: the returned Config validates.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Unmarshal of in-memory defaults cannot fail.
	_ = v.Unmarshal(&cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("map.width", 20)
	v.SetDefault("map.height", 20)
	v.SetDefault("map.floors", 2)
	v.SetDefault("map.wall_density", 0.2)
	v.SetDefault("map.plaza_size", 5)
	v.SetDefault("map.stair_min_distance", 5)
	v.SetDefault("map.enemy_min_distance", 6)

	v.SetDefault("rules.attack_cost", 3.0)
	v.SetDefault("rules.attack_damage", 1)
	v.SetDefault("rules.attack_range", 1)
	v.SetDefault("rules.climb_cost", 3.0)
	v.SetDefault("rules.decision_seconds", 5.0)
	v.SetDefault("rules.step_delay_ms", 300)
	v.SetDefault("rules.damage_event_ttl_ms", 1500)

	v.SetDefault("ai.cone_vision", false)
	v.SetDefault("ai.cone_dot_threshold", 0.3)
	v.SetDefault("ai.wander_attempts", 3)
	v.SetDefault("ai.default_noise_level", 3)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
