// Package config resolves stepwise settings from defaults, an optional YAML
// file, and STEPWISE_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/stepwise/internal/completion"
	"github.com/abhisek/stepwise/internal/content"
)

// Config holds all stepwise settings.
type Config struct {
	// DBPath is the SQLite database file. Default: XDG data dir.
	DBPath string `yaml:"db_path"`

	// ContentDir holds module documents (*.json, *.yaml).
	ContentDir string `yaml:"content_dir"`

	// Learner is the learner id used by the CLI. Default: $USER.
	Learner string `yaml:"learner"`

	Log        LogConfig        `yaml:"log"`
	Redis      RedisConfig      `yaml:"redis"`
	Completion CompletionConfig `yaml:"completion"`
	Quiz       QuizConfig       `yaml:"quiz"`

	// WriteQueue is the capacity of the background persistence queue.
	WriteQueue int `yaml:"write_queue"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Mode  string `yaml:"mode"`  // Default: "dev"
	Level string `yaml:"level"` // Default: "info"
	File  string `yaml:"file"`  // Default: stderr; the TUI picks a file next to the DB
}

// RedisConfig enables the Redis quiz session cache when Addr is set.
type RedisConfig struct {
	Addr        string        `yaml:"addr"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	TTL         time.Duration `yaml:"ttl"`          // Default: 7 days
	DialTimeout time.Duration `yaml:"dial_timeout"` // Default: 5s
}

// CompletionConfig sets delayed completion timing.
type CompletionConfig struct {
	// TimeUnit is the length of one delay unit. Default: 1s.
	TimeUnit   time.Duration `yaml:"time_unit"`
	PhotoUnits int           `yaml:"photo_units"` // Default: 3
	VideoUnits int           `yaml:"video_units"` // Default: 5
	EmbedUnits int           `yaml:"embed_units"` // Default: 3

	// FeedbackProbability is the chance of a section feedback prompt after
	// a completion. Default: 0.30.
	FeedbackProbability float64 `yaml:"feedback_probability"`
}

// QuizConfig holds quiz defaults.
type QuizConfig struct {
	// DefaultPassingScore applies to quiz sections that set none. Default: 70.
	DefaultPassingScore int `yaml:"default_passing_score"`
}

// DefaultConfig returns a Config with sensible defaults. DBPath is resolved
// separately by DefaultDBPath.
func DefaultConfig() Config {
	learner := os.Getenv("USER")
	if learner == "" {
		learner = "learner"
	}
	return Config{
		ContentDir: "modules",
		Learner:    learner,
		Log: LogConfig{
			Mode:  "dev",
			Level: "info",
		},
		Redis: RedisConfig{
			TTL:         7 * 24 * time.Hour,
			DialTimeout: 5 * time.Second,
		},
		Completion: CompletionConfig{
			TimeUnit:            time.Second,
			PhotoUnits:          completion.PhotoDelayUnits,
			VideoUnits:          completion.VideoDelayUnits,
			EmbedUnits:          completion.EmbedDelayUnits,
			FeedbackProbability: completion.DefaultFeedbackProbability,
		},
		Quiz: QuizConfig{
			DefaultPassingScore: content.DefaultPassingScore,
		},
		WriteQueue: 64,
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty), and environment variables.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.overlayEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv builds a Config from environment variables, falling back to
// defaults for unset values.
func FromEnv() (Config, error) {
	return Load("")
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file %s not found", path)
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) overlayEnv() error {
	if v := os.Getenv("STEPWISE_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("STEPWISE_CONTENT_DIR"); v != "" {
		c.ContentDir = v
	}
	if v := os.Getenv("STEPWISE_LEARNER"); v != "" {
		c.Learner = v
	}

	if v := os.Getenv("STEPWISE_LOG_MODE"); v != "" {
		c.Log.Mode = v
	}
	if v := os.Getenv("STEPWISE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("STEPWISE_LOG_FILE"); v != "" {
		c.Log.File = v
	}

	if v := os.Getenv("STEPWISE_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("STEPWISE_REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if err := envInt("STEPWISE_REDIS_DB", &c.Redis.DB); err != nil {
		return err
	}
	if err := envDuration("STEPWISE_REDIS_TTL", &c.Redis.TTL); err != nil {
		return err
	}

	if err := envDuration("STEPWISE_TIME_UNIT", &c.Completion.TimeUnit); err != nil {
		return err
	}
	if v := os.Getenv("STEPWISE_FEEDBACK_PROBABILITY"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("STEPWISE_FEEDBACK_PROBABILITY: %w", err)
		}
		c.Completion.FeedbackProbability = p
	}
	if err := envInt("STEPWISE_PASSING_SCORE", &c.Quiz.DefaultPassingScore); err != nil {
		return err
	}
	return nil
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Completion.TimeUnit < 0 {
		return fmt.Errorf("completion time unit must be >= 0, got %s", c.Completion.TimeUnit)
	}
	if c.Completion.PhotoUnits < 0 || c.Completion.VideoUnits < 0 || c.Completion.EmbedUnits < 0 {
		return fmt.Errorf("completion delay units must be >= 0")
	}
	if p := c.Completion.FeedbackProbability; p < 0 || p > 1 {
		return fmt.Errorf("feedback probability must be in [0, 1], got %v", p)
	}
	if s := c.Quiz.DefaultPassingScore; s < 1 || s > 100 {
		return fmt.Errorf("default passing score must be in [1, 100], got %d", s)
	}
	if c.WriteQueue < 1 {
		return fmt.Errorf("write queue must be >= 1, got %d", c.WriteQueue)
	}
	return nil
}

// Policies returns the completion policies for the configured timing.
func (c Config) Policies() completion.Policies {
	p := completion.DefaultPolicies(c.Completion.TimeUnit)
	unit := c.Completion.TimeUnit
	p[content.TypePhoto] = completion.Policy{Trigger: completion.Delayed, Delay: time.Duration(c.Completion.PhotoUnits) * unit}
	p[content.TypeVideo] = completion.Policy{Trigger: completion.Delayed, Delay: time.Duration(c.Completion.VideoUnits) * unit}
	p[content.TypeEmbed] = completion.Policy{Trigger: completion.Delayed, Delay: time.Duration(c.Completion.EmbedUnits) * unit}
	return p
}

// ResolveDBPath returns DBPath, or DefaultDBPath when unset, and makes sure
// its directory exists.
func (c Config) ResolveDBPath() (string, error) {
	if c.DBPath != "" {
		return c.DBPath, ensureDir(c.DBPath)
	}
	return DefaultDBPath()
}

// DefaultDBPath resolves the database file path:
// $XDG_DATA_HOME/stepwise/stepwise.db, else ~/.local/share/stepwise/stepwise.db.
func DefaultDBPath() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "stepwise", "stepwise.db")
	return p, ensureDir(p)
}

// ensureDir creates the parent directory of path if it doesn't exist.
func ensureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
