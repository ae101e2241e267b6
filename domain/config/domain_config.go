package config

import (
	"fmt"

	"careerflow/domain/core/valueobjects"
	"careerflow/domain/layout"
)

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Tree constraints
	MaxNodesPerTree int `yaml:"max_nodes_per_tree"`
	MaxLabelLength  int `yaml:"max_label_length"`

	// Base node
	BaseLabel string  `yaml:"base_label"`
	BaseX     float64 `yaml:"base_x"`
	BaseY     float64 `yaml:"base_y"`

	// Layout spacing per parent type
	Layout layout.Rules `yaml:"layout"`
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxNodesPerTree: 10000,
		MaxLabelLength:  200,

		BaseLabel: "Upload base cv here",
		BaseX:     100,
		BaseY:     400,

		Layout: layout.DefaultRules(),
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// More restrictive limits for production
	config.MaxNodesPerTree = 5000
	config.MaxLabelLength = 120

	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	config.MaxNodesPerTree = 100000
	config.MaxLabelLength = 1000

	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// BasePosition returns where the base node is created
func (c *DomainConfig) BasePosition() valueobjects.Position {
	return valueobjects.At(c.BaseX, c.BaseY)
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if c.MaxNodesPerTree < 1 {
		return fmt.Errorf("max nodes per tree must be positive, got %d", c.MaxNodesPerTree)
	}
	if c.MaxLabelLength < 0 {
		return fmt.Errorf("max label length cannot be negative, got %d", c.MaxLabelLength)
	}
	if _, err := valueobjects.NormalizeLabel(c.BaseLabel, 0); err != nil {
		return fmt.Errorf("base label: %w", err)
	}
	if _, err := valueobjects.NewPosition(c.BaseX, c.BaseY); err != nil {
		return fmt.Errorf("base position: %w", err)
	}
	for kind, rule := range c.Layout {
		if rule.YSpacing <= 0 {
			return fmt.Errorf("layout rule for %s: y spacing must be positive", kind)
		}
	}
	return nil
}
