package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/docker/go-units"
)

const (
	// DefaultThrottleWindow is how long the Local backend waits before
	// writing, so that bursts of state changes (e.g., while a player drags a
	// slider) turn into a single write.
	DefaultThrottleWindow = time.Second
	// DefaultBridgeName is the global property a host shell uses to inject
	// its storage bridge.
	DefaultBridgeName = "digiviceStorage"
)

// ThrottleMode decides how the Local backend coalesces writes.
type ThrottleMode string

const (
	// ThrottlePerKey rate-limits each key separately, so writes to
	// different keys never overwrite each other.
	ThrottlePerKey ThrottleMode = "perKey"
	// ThrottleGlobal shares one rate limiter between all keys. Within a
	// window, only the last write persists, even if earlier writes were to
	// other keys.
	ThrottleGlobal ThrottleMode = "global"
)

// UnmarshalText lets caarlos0/env and yaml decode a ThrottleMode.
func (m *ThrottleMode) UnmarshalText(b []byte) error {
	switch ThrottleMode(b) {
	case ThrottlePerKey, ThrottleGlobal:
		*m = ThrottleMode(b)
		return nil
	case "":
		*m = ThrottlePerKey
		return nil
	default:
		return fmt.Errorf("unknown throttle mode %q: expected %q or %q", string(b), ThrottlePerKey, ThrottleGlobal)
	}
}

// ByteSize is a size in bytes that users write in human-readable form,
// e.g., "5MiB".
type ByteSize int64

// UnmarshalText parses sizes like "512KiB" or "5MB". Both decimal and binary
// suffixes are read as powers of 1024, which is how browsers describe their
// storage quotas.
func (s *ByteSize) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*s = 0
		return nil
	}
	n, err := units.RAMInBytes(string(b))
	if err != nil {
		return fmt.Errorf("can't parse %q as a size: %v", string(b), err)
	}
	if n < 0 {
		return fmt.Errorf("size must not be negative: %q", string(b))
	}
	*s = ByteSize(n)
	return nil
}

func (s ByteSize) String() string {
	return units.BytesSize(float64(s))
}

// Config contains settings for the storage layer
type Config struct {
	// Directory for BadgerDB. If empty, values are kept in memory and lost
	// on exit.
	StorageDirPath string `yaml:"storageDir" env:"DIGIVICE_STORAGE_DIR"`
	// TTL for each key in BadgerDB. Zero means keys never expire.
	KeyTTLDuration time.Duration `yaml:"keyTTL" env:"DIGIVICE_KEY_TTL"`
	// How often to garbage-collect the medium. Zero disables it.
	CleanupInterval time.Duration `yaml:"cleanupInterval" env:"DIGIVICE_CLEANUP_INTERVAL"`
	// Throttle window for the Local backend. Zero writes through.
	ThrottleWindow time.Duration `yaml:"throttleWindow" env:"DIGIVICE_THROTTLE_WINDOW"`
	ThrottleMode   ThrottleMode  `yaml:"throttleMode" env:"DIGIVICE_THROTTLE_MODE"`
	// Largest value the medium accepts. Zero means unlimited.
	MaxValueSize ByteSize `yaml:"maxValueSize" env:"DIGIVICE_MAX_VALUE_SIZE"`
	// Global property to probe for a host bridge
	BridgeName string `yaml:"bridgeName" env:"DIGIVICE_BRIDGE_NAME"`
}

// DefaultConfig returns the settings used when the user doesn't provide a
// storage section: an in-memory medium with a one-second per-key throttle.
func DefaultConfig() Config {
	return Config{
		ThrottleWindow: DefaultThrottleWindow,
		ThrottleMode:   ThrottlePerKey,
		BridgeName:     DefaultBridgeName,
	}
}

// UnmarshalYAML parses a user-provided storage section. A missing
// throttleWindow means the default window, while "0s" turns throttling off.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	v := make(map[string]string)
	if err := unmarshal(&v); err != nil {
		return fmt.Errorf("can't parse the storage config: %v", err)
	}

	*c = DefaultConfig()
	c.StorageDirPath = v["storageDir"]

	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"keyTTL", &c.KeyTTLDuration},
		{"cleanupInterval", &c.CleanupInterval},
		{"throttleWindow", &c.ThrottleWindow},
	}
	for _, d := range durations {
		s, ok := v[d.name]
		if !ok {
			continue
		}
		pd, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("can't parse %v as a duration: %v", d.name, err)
		}
		*d.dst = pd
	}

	if err := c.ThrottleMode.UnmarshalText([]byte(v["throttleMode"])); err != nil {
		return err
	}
	if err := c.MaxValueSize.UnmarshalText([]byte(v["maxValueSize"])); err != nil {
		return err
	}
	if b, ok := v["bridgeName"]; ok {
		c.BridgeName = b
	}

	return nil
}

// CheckAndSetDefaults validates c and either returns a copy of c with default
// settings applied or returns an error due to an invalid configuration
func (c *Config) CheckAndSetDefaults() (Config, error) {
	n := *c
	if n.KeyTTLDuration < 0 || n.CleanupInterval < 0 || n.ThrottleWindow < 0 {
		return Config{}, errors.New("storage durations must not be negative")
	}
	if n.MaxValueSize < 0 {
		return Config{}, errors.New("maxValueSize must not be negative")
	}
	if n.ThrottleMode == "" {
		n.ThrottleMode = ThrottlePerKey
	}
	if n.ThrottleMode != ThrottlePerKey && n.ThrottleMode != ThrottleGlobal {
		return Config{}, fmt.Errorf("unknown throttle mode %q", n.ThrottleMode)
	}
	if n.BridgeName == "" {
		n.BridgeName = DefaultBridgeName
	}
	if n.CleanupInterval > 0 && n.StorageDirPath == "" {
		return Config{}, errors.New("cleanupInterval requires a storageDir")
	}
	return n, nil
}
