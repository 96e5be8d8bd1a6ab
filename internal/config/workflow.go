package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	EnvQASampleThreshold = "FACTOTUM_QA_SAMPLE_THRESHOLD"
	EnvQASampleFraction  = "FACTOTUM_QA_SAMPLE_FRACTION"

	EnvRulesFile        = "FACTOTUM_RULES_FILE"
	EnvRulesConcurrency = "FACTOTUM_RULES_CONCURRENCY"

	EnvAuditInstall = "FACTOTUM_AUDIT_INSTALL_ON_STARTUP"
)

// QAConfig controls how extracted texts are sampled into QA groups.
// Scripts with at most SampleThreshold candidates are reviewed in full.
type QAConfig struct {
	SampleThreshold int     `toml:"sample_threshold"`
	SampleFraction  float64 `toml:"sample_fraction"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *QAConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *QAConfig) Merge(overlay *QAConfig) {
	if overlay.SampleThreshold != 0 {
		c.SampleThreshold = overlay.SampleThreshold
	}
	if overlay.SampleFraction != 0 {
		c.SampleFraction = overlay.SampleFraction
	}
}

func (c *QAConfig) loadDefaults() {
	if c.SampleThreshold == 0 {
		c.SampleThreshold = 100
	}
	if c.SampleFraction == 0 {
		c.SampleFraction = 0.2
	}
}

func (c *QAConfig) loadEnv() {
	if v := os.Getenv(EnvQASampleThreshold); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SampleThreshold = n
		}
	}
	if v := os.Getenv(EnvQASampleFraction); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.SampleFraction = f
		}
	}
}

func (c *QAConfig) validate() error {
	if c.SampleThreshold < 0 {
		return fmt.Errorf("invalid sample_threshold: %d", c.SampleThreshold)
	}
	if c.SampleFraction <= 0 || c.SampleFraction > 1 {
		return fmt.Errorf("invalid sample_fraction: %v", c.SampleFraction)
	}
	return nil
}

// RulesConfig locates the classification rule file and bounds rule application.
type RulesConfig struct {
	File        string `toml:"file"`
	Concurrency int    `toml:"concurrency"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *RulesConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *RulesConfig) Merge(overlay *RulesConfig) {
	if overlay.File != "" {
		c.File = overlay.File
	}
	if overlay.Concurrency != 0 {
		c.Concurrency = overlay.Concurrency
	}
}

func (c *RulesConfig) loadDefaults() {
	if c.File == "" {
		c.File = "rules.yaml"
	}
	if c.Concurrency == 0 {
		c.Concurrency = 8
	}
}

func (c *RulesConfig) loadEnv() {
	if v := os.Getenv(EnvRulesFile); v != "" {
		c.File = v
	}
	if v := os.Getenv(EnvRulesConcurrency); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Concurrency = n
		}
	}
}

func (c *RulesConfig) validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("invalid concurrency: %d", c.Concurrency)
	}
	return nil
}

// AuditConfig controls installation of the audit triggers.
type AuditConfig struct {
	InstallOnStartup bool `toml:"install_on_startup"`
}

// Finalize applies environment variable overrides.
func (c *AuditConfig) Finalize() {
	if v := os.Getenv(EnvAuditInstall); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.InstallOnStartup = b
		}
	}
}

// Merge overwrites fields from overlay. InstallOnStartup always applies.
func (c *AuditConfig) Merge(overlay *AuditConfig) {
	c.InstallOnStartup = overlay.InstallOnStartup
}
