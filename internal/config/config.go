// Package config loads chunksplit settings from defaults, an optional config
// file, CHUNKSPLIT_* environment variables and command-line flags, in that
// order of precedence (flags win).
package config

import (
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/olehluchkiv/chunksplit/internal/chunkgraph"
	"github.com/olehluchkiv/chunksplit/internal/logging"
	"github.com/olehluchkiv/chunksplit/internal/partition"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "CHUNKSPLIT"

// DefaultPartName is the part name template matching partition.DefaultPartName.
const DefaultPartName = "[name]-part-[n]"

// ErrInvalid is returned for settings that fail validation.
var ErrInvalid = errors.New("invalid configuration")

// Config holds every setting.
type Config struct {
	MaxModulesPerChunk int      `mapstructure:"max-modules-per-chunk"`
	MaxModulesPerEntry int      `mapstructure:"max-modules-per-entry"`
	PartName           string   `mapstructure:"part-name"`
	Only               []string `mapstructure:"only"`
	OverwriteParents   bool     `mapstructure:"overwrite-parents"`

	IncludeStdlib bool   `mapstructure:"include-stdlib"`
	Filter        string `mapstructure:"filter"`

	Log LogConfig `mapstructure:"log"`

	Port      int  `mapstructure:"port"`
	NoBrowser bool `mapstructure:"no-browser"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		MaxModulesPerChunk: partition.DefaultMaxModulesPerChunk,
		MaxModulesPerEntry: partition.DefaultMaxModulesPerEntry,
		PartName:           DefaultPartName,
		Log:                LogConfig{Level: "info", Format: "json"},
		Port:               8080,
	}
}

// flagKeys maps flag names to config keys where they differ.
var flagKeys = map[string]string{
	"log-level":  "log.level",
	"log-format": "log.format",
	"log-file":   "log.file",
}

// LoadOptions selects the sources Load reads.
type LoadOptions struct {
	ConfigFile string         // YAML, TOML or JSON, chosen by extension; optional
	Flags      *pflag.FlagSet // flags that were set override every other source
}

// Load builds and validates a Config.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()

	d := Default()
	v.SetDefault("max-modules-per-chunk", d.MaxModulesPerChunk)
	v.SetDefault("max-modules-per-entry", d.MaxModulesPerEntry)
	v.SetDefault("part-name", d.PartName)
	v.SetDefault("only", d.Only)
	v.SetDefault("overwrite-parents", d.OverwriteParents)
	v.SetDefault("include-stdlib", d.IncludeStdlib)
	v.SetDefault("filter", d.Filter)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("port", d.Port)
	v.SetDefault("no-browser", d.NoBrowser)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", opts.ConfigFile, err)
		}
	}

	if opts.Flags != nil {
		var bindErr error
		opts.Flags.VisitAll(func(f *pflag.Flag) {
			key, ok := flagKeys[f.Name]
			if !ok {
				key = f.Name
			}
			if !isKnownKey(key) {
				return
			}
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, fmt.Errorf("binding flags: %w", bindErr)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func isKnownKey(key string) bool {
	switch key {
	case "max-modules-per-chunk", "max-modules-per-entry", "part-name", "only",
		"overwrite-parents", "include-stdlib", "filter",
		"log.level", "log.format", "log.file", "port", "no-browser":
		return true
	}
	return false
}

// Validate checks every setting before any graph is loaded.
func (c Config) Validate() error {
	if err := c.PartitionOptions().Validate(); err != nil {
		return err
	}
	if c.PartName != "" && !strings.Contains(c.PartName, "[n]") {
		return fmt.Errorf("%w: part-name %q must contain [n] so parts of one chunk get distinct names", ErrInvalid, c.PartName)
	}
	for _, pattern := range c.Only {
		if _, err := path.Match(pattern, ""); err != nil {
			return fmt.Errorf("%w: only pattern %q: %w", ErrInvalid, pattern, err)
		}
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "json", "text":
	default:
		return fmt.Errorf("%w: unknown log format %q (valid: json, text)", ErrInvalid, c.Log.Format)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalid, c.Port)
	}
	return nil
}

// PartitionOptions converts the settings into partitioner options.
func (c Config) PartitionOptions() partition.Options {
	opts := partition.Options{
		MaxModulesPerChunk: c.MaxModulesPerChunk,
		MaxModulesPerEntry: c.MaxModulesPerEntry,
		OverwriteParents:   c.OverwriteParents,
		PartName:           partition.DefaultPartName,
	}
	if c.PartName != "" && c.PartName != DefaultPartName {
		opts.PartName = TemplatePartName(c.PartName)
	}
	if len(c.Only) > 0 {
		opts.Filter = MatchChunks(c.Only)
	}
	return opts
}

// TemplatePartName names parts by substituting [name] with the source chunk
// name, [n] with the 1-based part number and [id] with the source chunk id.
// Parts of anonymous chunks stay anonymous.
func TemplatePartName(template string) partition.PartNameFunc {
	return func(source *chunkgraph.Chunk, index int) string {
		if source.Name == "" {
			return ""
		}
		return strings.NewReplacer(
			"[name]", source.Name,
			"[n]", strconv.Itoa(index+1),
			"[id]", strconv.Itoa(int(source.ID())),
		).Replace(template)
	}
}

// MatchChunks accepts chunks whose name matches any of the path.Match
// patterns. Anonymous chunks are matched as "#<id>".
func MatchChunks(patterns []string) partition.FilterFunc {
	return func(c *chunkgraph.Chunk) bool {
		name := c.String()
		for _, p := range patterns {
			if ok, _ := path.Match(p, name); ok {
				return true
			}
		}
		return false
	}
}
