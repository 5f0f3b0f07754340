package config

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"p9e.in/eicr/models"
)

// presetCatalog is the on-disk layout of RCD_PRESETS_FILE:
//
//	presets:
//	  - label: 30mA Type A RCBO
//	    bsStandard: BS EN 61009
//	    type: A
//	    rating: "30"
//	    ratingA: "32"
type presetCatalog struct {
	Presets []models.RCDPreset `yaml:"presets"`
}

// LoadPresets reads the RCD preset catalog. An empty path yields the
// built-in presets.
func LoadPresets(path string, logger *zap.Logger) ([]models.RCDPreset, error) {
	if path == "" {
		return append([]models.RCDPreset(nil), models.DefaultRCDPresets...), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preset catalog: %w", err)
	}
	return parsePresets(raw, path, logger)
}

func parsePresets(raw []byte, source string, logger *zap.Logger) ([]models.RCDPreset, error) {
	var cat presetCatalog
	if err := yaml.Unmarshal(raw, &cat); err != nil {
		return nil, fmt.Errorf("parse preset catalog %s: %w", source, err)
	}
	if len(cat.Presets) == 0 {
		return nil, fmt.Errorf("preset catalog %s has no presets", source)
	}

	seen := make(map[string]bool, len(cat.Presets))
	for _, p := range cat.Presets {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if seen[p.Label] {
			return nil, fmt.Errorf("%w: duplicate preset label %q", models.ErrInvalidValue, p.Label)
		}
		seen[p.Label] = true
	}

	if logger != nil {
		logger.Info("loaded rcd preset catalog", zap.String("file", source), zap.Int("presets", len(cat.Presets)))
	}
	return cat.Presets, nil
}
