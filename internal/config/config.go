package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/peterkuimelis/ddzrogue/internal/game"
	"github.com/peterkuimelis/ddzrogue/internal/log"
)

// Config is the runtime configuration shared by every command.
type Config struct {
	LogLevel         string  `mapstructure:"log_level"`
	DBPath           string  `mapstructure:"db_path"`
	LevelsFile       string  `mapstructure:"levels_file"`
	Seed             int64   `mapstructure:"seed"`
	Slot             string  `mapstructure:"slot"`
	TimeLimitSeconds int     `mapstructure:"time_limit_seconds"`
	Web              WebConf `mapstructure:"web"`
	MCP              MCPConf `mapstructure:"mcp"`
}

type WebConf struct {
	Port   int `mapstructure:"port"`
	TickMS int `mapstructure:"tick_ms"`
}

type MCPConf struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("db_path", defaultDBPath())
	v.SetDefault("levels_file", "")
	v.SetDefault("seed", 0)
	v.SetDefault("slot", "default")
	v.SetDefault("time_limit_seconds", 30)
	v.SetDefault("web.port", 8080)
	v.SetDefault("web.tick_ms", 1000)
	v.SetDefault("mcp.name", "ddz")
	v.SetDefault("mcp.version", "0.1.0")
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "ddz.db"
	}
	return filepath.Join(home, ".ddz", "ddz.db")
}

func newViper(configFile string) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("ddz")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("ddz")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".ddz"))
		}
	}
	return v
}

// Load reads configFile, or ddz.yaml from the working directory or ~/.ddz
// when configFile is empty. DDZ_* environment variables override the file.
// A missing default file is not an error; a missing explicit file is.
func Load(configFile string) (*Config, error) {
	v := newViper(configFile)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.TimeLimitSeconds <= 0 {
		return nil, fmt.Errorf("time_limit_seconds must be positive, got %d", cfg.TimeLimitSeconds)
	}
	if cfg.Slot == "" {
		cfg.Slot = "default"
	}
	return &cfg, nil
}

// Watch re-reads configFile whenever it changes and hands the new config to
// onChange. Decode errors are logged and the old config stays in effect.
func Watch(configFile string, onChange func(*Config)) error {
	v := newViper(configFile)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := decode(v)
		if err != nil {
			log.Warn("config reload %s: %v", e.Name, err)
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

// Levels returns the level table: the override file when set, otherwise the
// embedded default.
func (c *Config) Levels() (*game.LevelTable, error) {
	if c.LevelsFile == "" {
		return game.DefaultLevels(), nil
	}
	t, err := game.LoadLevelTable(c.LevelsFile)
	if err != nil {
		return nil, fmt.Errorf("load levels %s: %w", c.LevelsFile, err)
	}
	return t, nil
}

// EngineConfig builds the engine collaborators described by c.
func (c *Config) EngineConfig(logger log.EventLogger) (game.Config, error) {
	levels, err := c.Levels()
	if err != nil {
		return game.Config{}, err
	}
	return game.Config{
		Levels:    levels,
		Logger:    logger,
		Seed:      c.Seed,
		TimeLimit: time.Duration(c.TimeLimitSeconds) * time.Second,
	}, nil
}

// Tick is the timer polling interval of the web front-end.
func (c *Config) Tick() time.Duration {
	if c.Web.TickMS <= 0 {
		return time.Second
	}
	return time.Duration(c.Web.TickMS) * time.Millisecond
}
