package resolver

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const slugPlaceholder = "{slug}"

// Config controls how filter values map to collection handles.
type Config struct {
	StylePrefix    string `yaml:"style_prefix"`
	CategoryPrefix string `yaml:"category_prefix"`
	ThemePrefix    string `yaml:"theme_prefix"`
	// ArtistSchemes are handle templates, every scheme is queried.
	ArtistSchemes []string `yaml:"artist_schemes"`
}

func DefaultConfig() Config {
	return Config{
		StylePrefix:    "style-",
		CategoryPrefix: "category-",
		ThemePrefix:    "theme-",
		ArtistSchemes:  []string{"artist-{slug}", "{slug}"},
	}
}

func (c *Config) Validate() error {
	if len(c.ArtistSchemes) == 0 {
		return fmt.Errorf("at least one artist scheme is required")
	}
	for _, scheme := range c.ArtistSchemes {
		if !strings.Contains(scheme, slugPlaceholder) {
			return fmt.Errorf("artist scheme %q is missing %s", scheme, slugPlaceholder)
		}
	}
	return nil
}

// LoadConfig reads a yaml file, missing keys keep their default.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse resolver config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}
