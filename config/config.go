// Package config loads scholarcv settings from a YAML file overlaid with
// SCHOLARCV_* environment variables.
package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/ByLCY/scholarcv/binding"
	"github.com/ByLCY/scholarcv/cvdata"
	"github.com/ByLCY/scholarcv/layout"
)

// EnvPrefix prefixes every environment override. Nested keys use a double
// underscore: SCHOLARCV_SERVER__ADDR sets server.addr.
const EnvPrefix = "SCHOLARCV_"

// Config is the top-level configuration, corresponding to scholarcv.yaml.
type Config struct {
	// Data is a directory or base URL holding configs/.
	Data       string `yaml:"data" koanf:"data" validate:"required"`
	// Lang is optional; empty defers to the site's defaultLanguage.
	Lang       string `yaml:"lang" koanf:"lang" validate:"omitempty,oneof=en zh"`
	OutputName string `yaml:"output_name" koanf:"output_name" validate:"required"`
	Subline    string `yaml:"subline" koanf:"subline"`
	Fonts      Fonts  `yaml:"fonts" koanf:"fonts"`
	Watermark  string `yaml:"watermark" koanf:"watermark"`
	// LenientSections drops a failing section instead of aborting.
	LenientSections bool   `yaml:"lenient_sections" koanf:"lenient_sections"`
	Stamp           bool   `yaml:"stamp" koanf:"stamp"`
	MarginLeft      string `yaml:"margin_left" koanf:"margin_left"`
	MarginRight     string `yaml:"margin_right" koanf:"margin_right"`
	// LineHeight is a factor of the body size ("1.4x") or a length ("14pt").
	LineHeight string        `yaml:"line_height" koanf:"line_height"`
	Timeout    time.Duration `yaml:"timeout" koanf:"timeout" validate:"gte=0"`
	Server     Server        `yaml:"server" koanf:"server"`
}

// Fonts holds optional overrides for the four variants: a path, URL or
// embed:<variant>. Empty keeps the built-in Latin Modern face.
type Fonts struct {
	Regular    string `yaml:"regular" koanf:"regular"`
	Bold       string `yaml:"bold" koanf:"bold"`
	Italic     string `yaml:"italic" koanf:"italic"`
	BoldItalic string `yaml:"bold_italic" koanf:"bold_italic"`
}

// ByVariant returns the override for v.
func (f Fonts) ByVariant(v layout.Variant) string {
	switch v {
	case layout.Bold:
		return f.Bold
	case layout.Italic:
		return f.Italic
	case layout.BoldItalic:
		return f.BoldItalic
	default:
		return f.Regular
	}
}

// Server holds settings for `scholarcv serve`.
type Server struct {
	Addr            string `yaml:"addr" koanf:"addr" validate:"required"`
	AllowAllOrigins bool   `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Data:        ".",
		OutputName:  "cv_${lang}.pdf",
		MarginLeft:  "50pt",
		MarginRight: "50pt",
		Timeout:     15 * time.Second,
		Server:      Server{Addr: ":8080"},
	}
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides. A missing file keeps the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validate = validator.New()

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q rule (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return err
	}
	if err := checkPlaceholders("subline", c.Subline, cvdata.Info{}.Fields()); err != nil {
		return err
	}
	if err := checkPlaceholders("output_name", c.OutputName, map[string]any{"lang": "", "name": ""}); err != nil {
		return err
	}
	margin, err := c.Margin()
	if err != nil {
		return err
	}
	if _, err := c.Styles(layout.DefaultStyleSet()); err != nil {
		return err
	}
	if margin.Left+margin.Right >= layout.PageWidth {
		return fmt.Errorf("margins %s + %s leave no room on the page", c.MarginLeft, c.MarginRight)
	}
	return nil
}

// checkPlaceholders rejects ${key} references that the template can never
// resolve, since they would silently expand to nothing.
func checkPlaceholders(key, tmpl string, fields map[string]any) error {
	for _, path := range binding.Placeholders(tmpl) {
		if _, ok := fields[path]; !ok {
			known := make([]string, 0, len(fields))
			for k := range fields {
				known = append(known, k)
			}
			slices.Sort(known)
			return fmt.Errorf("%s: unknown placeholder ${%s} (known: %s)", key, path, strings.Join(known, ", "))
		}
	}
	return nil
}

// Margin converts the configured margins to points. Top and bottom stay at
// the layout default.
func (c *Config) Margin() (layout.Margin, error) {
	left, err := parseMargin("margin_left", c.MarginLeft)
	if err != nil {
		return layout.Margin{}, err
	}
	right, err := parseMargin("margin_right", c.MarginRight)
	if err != nil {
		return layout.Margin{}, err
	}
	return layout.Margin{Left: left, Right: right}, nil
}

func parseMargin(key, raw string) (float64, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	l, err := layout.ParseLength(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	v := l.ToPT()
	if v < 0 {
		return 0, fmt.Errorf("%s must be non-negative", key)
	}
	return v, nil
}

// Styles applies the configured line height to base.
func (c *Config) Styles(base layout.StyleSet) (layout.StyleSet, error) {
	if strings.TrimSpace(c.LineHeight) == "" {
		return base, nil
	}
	spec, err := layout.ParseLineHeight(c.LineHeight)
	if err != nil {
		return base, fmt.Errorf("invalid line_height %q: %w", c.LineHeight, err)
	}
	lh := spec.Resolve(base.BodySize)
	if lh <= 0 {
		return base, fmt.Errorf("line_height must be positive")
	}
	base.LineHeight = lh
	return base, nil
}
