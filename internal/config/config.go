package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/tbburden/internal/utils"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	dirName     = ".tbburden"
	envPrefix   = "TBBURDEN"
	DefaultData = "TB_Burden_Country.csv"
)

// Global configuration structure.
type Global struct {
	DataPath       string  `mapstructure:"data_path" yaml:"data_path"`
	SheetName      string  `mapstructure:"sheet_name" yaml:"sheet_name"`
	PlotsDir       string  `mapstructure:"plots_dir" yaml:"plots_dir"`
	RenderPlots    bool    `mapstructure:"render_plots" yaml:"render_plots"`
	Seed           int64   `mapstructure:"seed" yaml:"seed"`
	KMeansRestarts int     `mapstructure:"kmeans_restarts" yaml:"kmeans_restarts"`
	CooksThreshold float64 `mapstructure:"cooks_threshold" yaml:"cooks_threshold"`
	TopN           int     `mapstructure:"top_n" yaml:"top_n"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("data_path", DefaultData)
	v.SetDefault("sheet_name", "")
	v.SetDefault("plots_dir", "plots")
	v.SetDefault("render_plots", true)
	v.SetDefault("seed", 42)
	v.SetDefault("kmeans_restarts", 25)
	v.SetDefault("cooks_threshold", 1.0)
	v.SetDefault("top_n", 10)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// Path returns the config file in use: cfgFile when set, otherwise
// ~/.tbburden/config.yaml.
func Path(cfgFile string) (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName, "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.tbburden/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path, err := Path(cfgFile)
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (applied by the caller) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	defaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		// A named file that does not exist yet is created by Save.
		if _, err := os.Stat(cfgFile); err == nil {
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
			}
		}
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, dirName))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects settings the analysis cannot run with.
func (c *Global) Validate() error {
	switch {
	case c.DataPath == "":
		return fmt.Errorf("data_path must not be empty")
	case c.KMeansRestarts < 1:
		return fmt.Errorf("kmeans_restarts must be >= 1, got %d", c.KMeansRestarts)
	case c.CooksThreshold <= 0:
		return fmt.Errorf("cooks_threshold must be > 0, got %g", c.CooksThreshold)
	case c.TopN < 1:
		return fmt.Errorf("top_n must be >= 1, got %d", c.TopN)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// Keys lists the settable configuration keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var setters = map[string]func(c *Global, val string) error{
	"data_path":  func(c *Global, val string) error { c.DataPath = val; return nil },
	"sheet_name": func(c *Global, val string) error { c.SheetName = val; return nil },
	"plots_dir":  func(c *Global, val string) error { c.PlotsDir = val; return nil },
	"log_level":  func(c *Global, val string) error { c.LogLevel = val; return nil },
	"log_format": func(c *Global, val string) error { c.LogFormat = val; return nil },
	"render_plots": func(c *Global, val string) error {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return err
		}
		c.RenderPlots = b
		return nil
	},
	"seed": func(c *Global, val string) error {
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return err
		}
		c.Seed = n
		return nil
	},
	"kmeans_restarts": func(c *Global, val string) error {
		n, err := strconv.Atoi(val)
		if err != nil {
			return err
		}
		c.KMeansRestarts = n
		return nil
	},
	"cooks_threshold": func(c *Global, val string) error {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return err
		}
		c.CooksThreshold = f
		return nil
	},
	"top_n": func(c *Global, val string) error {
		n, err := strconv.Atoi(val)
		if err != nil {
			return err
		}
		c.TopN = n
		return nil
	},
}

// Set assigns one key from its string form and re-validates the result.
func (c *Global) Set(key, val string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
	next := *c
	if err := set(&next, val); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}
