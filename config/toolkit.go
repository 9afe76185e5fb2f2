package config

import (
	"fmt"

	validatorV10 "github.com/go-playground/validator/v10"

	"github.com/tonika/tonika-bus/bus"
	"github.com/tonika/tonika-bus/logging"
)

var validator = validatorV10.New()

// ToolkitConfig is the top-level configuration a host binds from file.
// The bus core never reads configuration itself; the host loads this and
// hands bus.Options to bus.New.
type ToolkitConfig struct {
	Logging logging.Config `mapstructure:"logging" json:"logging" yaml:"logging"`
	Bus     bus.Options    `mapstructure:"bus" json:"bus" yaml:"bus"`
}

// Validate checks the bound configuration.
func (c *ToolkitConfig) Validate() error {
	if err := validator.Struct(c); err != nil {
		return fmt.Errorf("toolkit config invalid: %w", err)
	}
	return nil
}

// LoadToolkit binds and validates the toolkit configuration.
func LoadToolkit(optsArr ...ConfigOptions) (*ToolkitConfig, error) {
	cfg, err := NewConfig(optsArr...)
	if err != nil {
		return nil, err
	}

	var tc ToolkitConfig
	if err := cfg.BindWithDefaults(&tc); err != nil {
		return nil, err
	}
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	return &tc, nil
}
