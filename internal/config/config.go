package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override (OMPCFG_OUTPUT_DIR, ...).
const EnvPrefix = "OMPCFG"

// Renderer names accepted in render.order.
var KnownRenderers = []string{"graphviz", "dot", "raster", "text"}

// Config holds all application configuration.
type Config struct {
	Directive DirectiveConfig `mapstructure:"directive"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Output    OutputConfig    `mapstructure:"output"`
	Render    RenderConfig    `mapstructure:"render"`
	Hardware  HardwareConfig  `mapstructure:"hardware"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Batch     BatchConfig     `mapstructure:"batch"`
	Graph     GraphConfig     `mapstructure:"graph"`
	Vector    VectorConfig    `mapstructure:"vector"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Log       LogConfig       `mapstructure:"log"`
	Health    HealthConfig    `mapstructure:"health"`
}

type DirectiveConfig struct {
	// Extensions selects candidate source files, e.g. [".c"].
	Extensions []string `mapstructure:"extensions"`
}

type DiscoveryConfig struct {
	Include []string `mapstructure:"include"`
	Exclude []string `mapstructure:"exclude"`
}

type OutputConfig struct {
	Dir    string `mapstructure:"dir"`
	Suffix string `mapstructure:"suffix"`
}

type RenderConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Order     []string `mapstructure:"order"`
	DotBinary string   `mapstructure:"dot_binary"`
	Format    string   `mapstructure:"format"`
}

type HardwareConfig struct {
	Cores  int    `mapstructure:"cores"`
	Arch   string `mapstructure:"arch"`
	Memory string `mapstructure:"memory"`
}

type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type BatchConfig struct {
	Workers     int  `mapstructure:"workers"`
	Incremental bool `mapstructure:"incremental"`
}

type GraphConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type VectorConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Collection string `mapstructure:"collection"`
}

type TemporalConfig struct {
	Host      string `mapstructure:"host"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type TracingConfig struct {
	OTLPEndpoint   string  `mapstructure:"otlp_endpoint"`
	SampleRate     float64 `mapstructure:"sample_rate"`
	ServiceName    string  `mapstructure:"service_name"`
	ServiceVersion string  `mapstructure:"service_version"`
	Environment    string  `mapstructure:"environment"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type HealthConfig struct {
	Addr string `mapstructure:"addr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("directive.extensions", []string{".c"})
	v.SetDefault("discovery.include", []string{"**"})
	v.SetDefault("discovery.exclude", []string{"**/.git/**"})
	v.SetDefault("output.dir", "output")
	v.SetDefault("output.suffix", "_cfg.dot")
	v.SetDefault("render.enabled", true)
	v.SetDefault("render.order", KnownRenderers)
	v.SetDefault("render.dot_binary", "dot")
	v.SetDefault("render.format", "png")
	v.SetDefault("hardware.cores", 8)
	v.SetDefault("hardware.arch", "x86_64")
	v.SetDefault("hardware.memory", "16GB")
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.path", ".ompcfg/cache.db")
	v.SetDefault("batch.workers", 4)
	v.SetDefault("batch.incremental", false)
	v.SetDefault("graph.uri", "")
	v.SetDefault("graph.username", "")
	v.SetDefault("graph.password", "")
	v.SetDefault("vector.host", "")
	v.SetDefault("vector.port", 6334)
	v.SetDefault("vector.collection", "omp_profiles")
	v.SetDefault("temporal.host", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "ompcfg")
	v.SetDefault("tracing.otlp_endpoint", "")
	v.SetDefault("tracing.sample_rate", 1.0)
	v.SetDefault("tracing.service_name", "ompcfg")
	v.SetDefault("tracing.service_version", "0.1.0")
	v.SetDefault("tracing.environment", "development")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("health.addr", ":8081")
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return &cfg, nil
}

// Default returns the built-in configuration with environment overrides.
func Default() *Config {
	cfg, err := decode(newViper())
	if err != nil {
		// Defaults always decode; only a malformed environment value can fail.
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		return &Config{}
	}
	return cfg
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	if c.Batch.Workers <= 0 {
		warnings = append(warnings, fmt.Sprintf("batch workers %d is not positive, using 1", c.Batch.Workers))
	}

	for _, name := range c.Render.Order {
		if !isKnownRenderer(name) {
			warnings = append(warnings, fmt.Sprintf("unknown renderer '%s' in render.order", name))
		}
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		warnings = append(warnings, fmt.Sprintf("tracing sample_rate %.2f is outside range [0.0, 1.0]", c.Tracing.SampleRate))
	}

	if c.Output.Suffix == "" {
		warnings = append(warnings, "output suffix is empty, DOT files will overwrite their source stems")
	}

	if c.Graph.URI != "" && (c.Graph.Username == "" || c.Graph.Password == "") {
		warnings = append(warnings, fmt.Sprintf("graph uri '%s' is configured but credentials are empty", c.Graph.URI))
	}

	return warnings
}

func isKnownRenderer(name string) bool {
	for _, k := range KnownRenderers {
		if k == name {
			return true
		}
	}
	return false
}

// Load reads configuration from file and environment on top of the defaults.
// An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || os.IsNotExist(err) {
				return nil, fmt.Errorf("config file %s: %w", path, os.ErrNotExist)
			}
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	if warnings := cfg.Validate(); len(warnings) > 0 {
		for _, warning := range warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
		}
	}

	return cfg, nil
}
