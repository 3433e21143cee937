package composite

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Brand configures the branded panel and palette of the polaroid.
type Brand struct {
	Wordmark   string `yaml:"wordmark"`
	Subline    string `yaml:"subline"`
	Watermark  string `yaml:"watermark"`
	Background string `yaml:"background"` // hex, polaroid paper tone
	Accent     string `yaml:"accent"`     // hex, brand accent
}

// DefaultBrand returns the hotel's designed branding.
func DefaultBrand() Brand {
	return Brand{
		Wordmark:   "ZONAR",
		Subline:    "ZAGREB",
		Watermark:  "#ZonarMoments",
		Background: "#F7F5F2",
		Accent:     "#A7853F",
	}
}

// LoadBrand reads a brand yaml, layering it over the defaults so a partial
// file only overrides what it names. An empty path returns the defaults.
func LoadBrand(path string) (Brand, error) {
	brand := DefaultBrand()
	if path == "" {
		return brand, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return brand, fmt.Errorf("failed to read brand config: %w", err)
	}
	if err := yaml.Unmarshal(data, &brand); err != nil {
		return brand, fmt.Errorf("failed to parse brand config: %w", err)
	}
	return brand, nil
}

// hexRGB parses "#RRGGBB" into 0..1 components. Unparsable input falls back
// to black rather than failing a render.
func hexRGB(s string) (r, g, b float64) {
	if len(s) != 7 || s[0] != '#' {
		return 0, 0, 0
	}
	rv, err1 := strconv.ParseUint(s[1:3], 16, 8)
	gv, err2 := strconv.ParseUint(s[3:5], 16, 8)
	bv, err3 := strconv.ParseUint(s[5:7], 16, 8)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, 0, 0
	}
	return float64(rv) / 255, float64(gv) / 255, float64(bv) / 255
}
