// Package config defines the JSON configuration of the fgconv tool.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/MarineRoboticsGroup/go-factor-graph/factorgraph"
	"github.com/MarineRoboticsGroup/go-factor-graph/logging"
	"github.com/MarineRoboticsGroup/go-factor-graph/precision"
	"github.com/MarineRoboticsGroup/go-factor-graph/tum"
)

// Config is the full tool configuration. Fields missing from a file keep their Default value.
type Config struct {
	Precision precision.Policy `json:"precision"`
	Export    Export           `json:"export"`
	Log       Log              `json:"log"`

	// ConfigFilePath is the file the config was read from, if any.
	ConfigFilePath string `json:"-"`
}

// Export configures trajectory export.
type Export struct {
	UseGroundTruth bool `json:"use_ground_truth"`
	UsePoseIndex   bool `json:"use_pose_index"`
	// Dimension restricts input graphs to 2 or 3 dimensions. 0 accepts either.
	Dimension int `json:"dimension"`
}

// Log configures logging.
type Log struct {
	Level string `json:"level"`
	// File, when set, also writes logs to a rotated file.
	File      string `json:"file"`
	MaxSizeMB int    `json:"max_size_mb"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Precision: precision.Default(),
		Export: Export{
			UseGroundTruth: true,
			UsePoseIndex:   true,
		},
		Log: Log{
			Level:     "info",
			MaxSizeMB: 10,
		},
	}
}

// Read reads a config from the given file.
func Read(filePath string) (*Config, error) {
	//nolint:gosec
	buf, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(filePath, bytes.NewReader(buf))
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from.
func FromReader(originalPath string, r io.Reader) (*Config, error) {
	var attributes map[string]interface{}
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&attributes); err != nil {
		return nil, errors.Wrapf(err, "failed to decode Config from json")
	}

	cfg := Default()
	cfg.ConfigFilePath = originalPath
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		Result:      cfg,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, errors.Wrapf(err, "failed to decode Config")
	}
	if err := cfg.Validate("config"); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures all parts of the config are valid.
func (c *Config) Validate(path string) error {
	if err := c.Precision.Validate(); err != nil {
		return goutils.NewConfigValidationError(fmt.Sprintf("%s.precision", path), err)
	}
	switch factorgraph.Dimension(c.Export.Dimension) {
	case factorgraph.DimUnknown, factorgraph.Dim2, factorgraph.Dim3:
	default:
		return goutils.NewConfigValidationError(fmt.Sprintf("%s.export", path),
			errors.Errorf("dimension must be 0, 2 or 3, got %d", c.Export.Dimension))
	}
	if _, err := logging.LevelFromString(c.Log.Level); err != nil {
		return goutils.NewConfigValidationError(fmt.Sprintf("%s.log", path), err)
	}
	if c.Log.MaxSizeMB <= 0 {
		return goutils.NewConfigValidationError(fmt.Sprintf("%s.log", path),
			errors.Errorf("max_size_mb must be positive, got %d", c.Log.MaxSizeMB))
	}
	return nil
}

// Dimension returns the dimension input graphs are restricted to.
func (c *Config) Dimension() factorgraph.Dimension {
	return factorgraph.Dimension(c.Export.Dimension)
}

// LogLevel returns the configured log level. It is INFO when the level does not parse.
func (c *Config) LogLevel() logging.Level {
	level, err := logging.LevelFromString(c.Log.Level)
	if err != nil {
		return logging.INFO
	}
	return level
}

// ExportOptions returns the TUM export options described by the config.
func (c *Config) ExportOptions() tum.ExportOptions {
	return tum.ExportOptions{
		Policy:         c.Precision,
		UseGroundTruth: c.Export.UseGroundTruth,
		UsePoseIndex:   c.Export.UsePoseIndex,
	}
}
