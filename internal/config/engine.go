package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvEnginePatternsFile        = "MAILROOM_ENGINE_PATTERNS_FILE"
	EnvEngineReplyPenalty        = "MAILROOM_ENGINE_REPLY_PENALTY"
	EnvEngineReplyFloor          = "MAILROOM_ENGINE_REPLY_FLOOR"
	EnvEngineReviewThreshold     = "MAILROOM_ENGINE_REVIEW_THRESHOLD"
	EnvEngineSubjectShortCircuit = "MAILROOM_ENGINE_SUBJECT_SHORT_CIRCUIT"
	EnvEngineStateCacheTTL       = "MAILROOM_ENGINE_STATE_CACHE_TTL"
)

// EngineConfig tunes the classification engine and the workflow state
// definition cache. Finalize fills zero values with the production tuning.
type EngineConfig struct {
	// PatternsFile overrides the embedded pattern table when set.
	PatternsFile        string `toml:"patterns_file"`
	ReplyPenalty        int    `toml:"reply_penalty"`
	ReplyFloor          int    `toml:"reply_floor"`
	ReviewThreshold     int    `toml:"review_threshold"`
	SubjectShortCircuit int    `toml:"subject_short_circuit"`
	StateCacheTTL       string `toml:"state_cache_ttl"`
}

// StateCacheTTLDuration returns StateCacheTTL as a time.Duration.
func (c *EngineConfig) StateCacheTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.StateCacheTTL)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *EngineConfig) Finalize() error {
	c.applyDefaults()
	c.applyEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *EngineConfig) Merge(overlay *EngineConfig) {
	if overlay.PatternsFile != "" {
		c.PatternsFile = overlay.PatternsFile
	}
	if overlay.ReplyPenalty != 0 {
		c.ReplyPenalty = overlay.ReplyPenalty
	}
	if overlay.ReplyFloor != 0 {
		c.ReplyFloor = overlay.ReplyFloor
	}
	if overlay.ReviewThreshold != 0 {
		c.ReviewThreshold = overlay.ReviewThreshold
	}
	if overlay.SubjectShortCircuit != 0 {
		c.SubjectShortCircuit = overlay.SubjectShortCircuit
	}
	if overlay.StateCacheTTL != "" {
		c.StateCacheTTL = overlay.StateCacheTTL
	}
}

func (c *EngineConfig) applyDefaults() {
	if c.ReplyPenalty == 0 {
		c.ReplyPenalty = 15
	}
	if c.ReplyFloor == 0 {
		c.ReplyFloor = 40
	}
	if c.ReviewThreshold == 0 {
		c.ReviewThreshold = 60
	}
	if c.SubjectShortCircuit == 0 {
		c.SubjectShortCircuit = 85
	}
	if c.StateCacheTTL == "" {
		c.StateCacheTTL = "10m"
	}
}

func (c *EngineConfig) applyEnv() {
	if v := os.Getenv(EnvEnginePatternsFile); v != "" {
		c.PatternsFile = v
	}
	if v := os.Getenv(EnvEngineReplyPenalty); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ReplyPenalty = n
		}
	}
	if v := os.Getenv(EnvEngineReplyFloor); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ReplyFloor = n
		}
	}
	if v := os.Getenv(EnvEngineReviewThreshold); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ReviewThreshold = n
		}
	}
	if v := os.Getenv(EnvEngineSubjectShortCircuit); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SubjectShortCircuit = n
		}
	}
	if v := os.Getenv(EnvEngineStateCacheTTL); v != "" {
		c.StateCacheTTL = v
	}
}

func (c *EngineConfig) validate() error {
	if _, err := time.ParseDuration(c.StateCacheTTL); err != nil {
		return fmt.Errorf("invalid state_cache_ttl: %w", err)
	}
	for _, v := range []int{c.ReplyPenalty, c.ReplyFloor, c.ReviewThreshold, c.SubjectShortCircuit} {
		if v < 0 || v > 100 {
			return fmt.Errorf("engine thresholds must be within [0,100]")
		}
	}
	return nil
}
