// Package config holds the tunables of a docrows run. Values are layered by
// viper: defaults, then an optional YAML file, then DOCROWS_* environment
// variables, then explicitly set command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/spf13/viper"

	"github.com/gaurav-prasanna/docrows/core/chunk"
	"github.com/gaurav-prasanna/docrows/core/codeblock"
	"github.com/gaurav-prasanna/docrows/core/extract"
	"github.com/gaurav-prasanna/docrows/core/fetch"
	"github.com/gaurav-prasanna/docrows/core/render"
	"github.com/gaurav-prasanna/docrows/core/segment"
)

// AppName names the config file (docrows.yaml) and the env prefix (DOCROWS_).
const AppName = "docrows"

// Config is the full run configuration.
type Config struct {
	CategoryPrefix    string      `json:"category_prefix" mapstructure:"category_prefix"`
	ContentSelectors  []string    `json:"content_selectors" mapstructure:"content_selectors"`
	HeadingLevel      int         `json:"heading_level" mapstructure:"heading_level"`
	Code              CodeConfig  `json:"code" mapstructure:"code"`
	Chunk             ChunkConfig `json:"chunk" mapstructure:"chunk"`
	Fetch             FetchConfig `json:"fetch" mapstructure:"fetch"`
	Workers           int         `json:"workers" mapstructure:"workers"`
	WorkDir           string      `json:"work_dir" mapstructure:"work_dir"`
	KeepIntermediates bool        `json:"keep_intermediates" mapstructure:"keep_intermediates"`
	Embed             EmbedConfig `json:"embed" mapstructure:"embed"`
}

// CodeConfig tunes code block classification.
type CodeConfig struct {
	MinLines         int      `json:"min_lines" mapstructure:"min_lines"`
	Keywords         []string `json:"keywords" mapstructure:"keywords"`
	HighlightClasses []string `json:"highlight_classes" mapstructure:"highlight_classes"`
	// Inline fences kept code in place instead of listing it per chunk.
	Inline bool `json:"inline" mapstructure:"inline"`
}

// ChunkConfig selects the intermediate format variant.
type ChunkConfig struct {
	Kind         string `json:"kind" mapstructure:"kind"`
	HeaderFormat string `json:"header_format" mapstructure:"header_format"`
}

// FetchConfig tunes the HTTP fetcher.
type FetchConfig struct {
	Timeout   time.Duration `json:"timeout" mapstructure:"timeout"`
	UserAgent string        `json:"user_agent" mapstructure:"user_agent"`
}

// EmbedConfig points the embeddings renderer at an Ollama-compatible endpoint.
type EmbedConfig struct {
	URL   string `json:"url" mapstructure:"url"`
	Model string `json:"model" mapstructure:"model"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		CategoryPrefix:   "Kubernetes",
		ContentSelectors: append([]string(nil), extract.DefaultContentSelectors...),
		HeadingLevel:     segment.DefaultHeadingLevel,
		Code: CodeConfig{
			MinLines:         codeblock.DefaultMinLines,
			Keywords:         append([]string(nil), codeblock.DefaultKeywords...),
			HighlightClasses: append([]string(nil), codeblock.DefaultHighlightClasses...),
		},
		Chunk: ChunkConfig{
			Kind:         string(chunk.KindConcept),
			HeaderFormat: string(chunk.FormatNumberedConcept),
		},
		Fetch: FetchConfig{
			Timeout:   fetch.DefaultTimeout,
			UserAgent: fetch.DefaultUserAgent,
		},
		Workers: runtime.GOMAXPROCS(0),
		WorkDir: filepath.Join(os.TempDir(), AppName),
		Embed: EmbedConfig{
			URL: render.DefaultOllamaURL,
		},
	}
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.HeadingLevel < 1 || c.HeadingLevel > 6 {
		errs = append(errs, fmt.Errorf("heading_level must be 1..6, got %d", c.HeadingLevel))
	}
	if c.Code.MinLines < 1 {
		errs = append(errs, fmt.Errorf("code.min_lines must be at least 1, got %d", c.Code.MinLines))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.Fetch.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("fetch.timeout must be positive, got %s", c.Fetch.Timeout))
	}
	if _, err := chunk.ParseKind(c.Chunk.Kind); err != nil {
		errs = append(errs, fmt.Errorf("chunk.kind: %w", err))
	}
	if _, err := chunk.ParseHeaderFormat(c.Chunk.HeaderFormat); err != nil {
		errs = append(errs, fmt.Errorf("chunk.header_format: %w", err))
	}
	for _, sel := range c.ContentSelectors {
		if _, err := cascadia.Compile(sel); err != nil {
			errs = append(errs, fmt.Errorf("content_selectors: %q: %w", sel, err))
		}
	}

	return errors.Join(errs...)
}

// Classifier builds the code classifier described by the config.
func (c *Config) Classifier() codeblock.Classifier {
	return codeblock.KeywordClassifier{MinLines: c.Code.MinLines, Keywords: c.Code.Keywords}
}

// SetDefaults registers every key of Default with v so that env variables
// and flags bound later resolve against known keys.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("category_prefix", d.CategoryPrefix)
	v.SetDefault("content_selectors", d.ContentSelectors)
	v.SetDefault("heading_level", d.HeadingLevel)
	v.SetDefault("code.min_lines", d.Code.MinLines)
	v.SetDefault("code.keywords", d.Code.Keywords)
	v.SetDefault("code.highlight_classes", d.Code.HighlightClasses)
	v.SetDefault("code.inline", d.Code.Inline)
	v.SetDefault("chunk.kind", d.Chunk.Kind)
	v.SetDefault("chunk.header_format", d.Chunk.HeaderFormat)
	v.SetDefault("fetch.timeout", d.Fetch.Timeout)
	v.SetDefault("fetch.user_agent", d.Fetch.UserAgent)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("work_dir", d.WorkDir)
	v.SetDefault("keep_intermediates", d.KeepIntermediates)
	v.SetDefault("embed.url", d.Embed.URL)
	v.SetDefault("embed.model", d.Embed.Model)
}

// NewViper returns a viper instance with defaults, the config file (the given
// path, or docrows.yaml in ".", "./configs" or "$HOME/.docrows") and the
// DOCROWS_ environment applied. A missing default config file is not an error.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), "."+AppName))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	expandEnvVars(v)

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return v, nil
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnvVars expands ${VAR} and $VAR references in string config values.
// Unset variables are left as written.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		expanded := envPattern.ReplaceAllStringFunc(strVal, func(match string) string {
			name := strings.TrimPrefix(match, "$")
			name = strings.TrimSuffix(strings.TrimPrefix(name, "{"), "}")
			if envVal := os.Getenv(name); envVal != "" {
				return envVal
			}
			return match
		})
		if expanded != strVal {
			v.Set(key, expanded)
		}
	}
}
