//-------------------------------------------------------------------------
//
// pgEdge Box Office Warehouse
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package ratelimit paces and retries requests to upstream APIs.
package ratelimit

import "time"

// Config holds limiter, pacing and retry configuration for one source.
type Config struct {
	// RequestsPerSec caps the steady request rate; 0 disables the cap.
	RequestsPerSec float64
	Burst          int

	// PaceEvery pauses all callers for PaceCooldown after this many
	// requests; 0 disables pacing.
	PaceEvery    int
	PaceCooldown time.Duration

	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		RequestsPerSec:    20,
		Burst:             5,
		MaxRetries:        5,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

func applyDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.RequestsPerSec > 0 && cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = def.MaxBackoff
	}
	if cfg.BackoffMultiplier <= 0 {
		cfg.BackoffMultiplier = def.BackoffMultiplier
	}
	if cfg.PaceEvery < 0 {
		cfg.PaceEvery = 0
	}
	return cfg
}
