package auth

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds OpenID Connect settings for bearer-token authentication.
// When Enabled is false, the actor is read from ActorHeader without verification.
type Config struct {
	Enabled     bool   `toml:"enabled"`
	Issuer      string `toml:"issuer"`
	ClientID    string `toml:"client_id"`
	ActorClaim  string `toml:"actor_claim"`
	ActorHeader string `toml:"actor_header"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Enabled     string
	Issuer      string
	ClientID    string
	ActorClaim  string
	ActorHeader string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. Enabled always applies.
func (c *Config) Merge(overlay *Config) {
	c.Enabled = overlay.Enabled
	if overlay.Issuer != "" {
		c.Issuer = overlay.Issuer
	}
	if overlay.ClientID != "" {
		c.ClientID = overlay.ClientID
	}
	if overlay.ActorClaim != "" {
		c.ActorClaim = overlay.ActorClaim
	}
	if overlay.ActorHeader != "" {
		c.ActorHeader = overlay.ActorHeader
	}
}

func (c *Config) loadDefaults() {
	if c.ActorClaim == "" {
		c.ActorClaim = "preferred_username"
	}
	if c.ActorHeader == "" {
		c.ActorHeader = "X-Factotum-Actor"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Enabled != "" {
		if v := os.Getenv(env.Enabled); v != "" {
			if enabled, err := strconv.ParseBool(v); err == nil {
				c.Enabled = enabled
			}
		}
	}
	if env.Issuer != "" {
		if v := os.Getenv(env.Issuer); v != "" {
			c.Issuer = v
		}
	}
	if env.ClientID != "" {
		if v := os.Getenv(env.ClientID); v != "" {
			c.ClientID = v
		}
	}
	if env.ActorClaim != "" {
		if v := os.Getenv(env.ActorClaim); v != "" {
			c.ActorClaim = v
		}
	}
	if env.ActorHeader != "" {
		if v := os.Getenv(env.ActorHeader); v != "" {
			c.ActorHeader = v
		}
	}
}

func (c *Config) validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Issuer == "" {
		return fmt.Errorf("issuer required when auth is enabled")
	}
	if c.ClientID == "" {
		return fmt.Errorf("client_id required when auth is enabled")
	}
	return nil
}
