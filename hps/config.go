package hps

import (
	"fmt"
	"os"
	"time"

	"github.com/mcuadros/go-defaults"
	"gopkg.in/yaml.v3"
)

// Config holds the process-level configuration named in spec.md §6's CLI
// surface: the advertised name, the HTTP request deadline, and the MTU
// override. It is immutable once the peripheral starts, per spec.md §3's
// request_timeout lifecycle.
type Config struct {
	Name    string `yaml:"name" default:"Logbot-HPS"`
	Timeout int    `yaml:"timeout" default:"60"`
	MTU     int    `yaml:"mtu" default:"0"`
}

// DefaultConfig returns a Config populated with the struct-tag defaults,
// the same role github.com/mcuadros/go-defaults plays for
// _examples/srgg-blecli/internal/testutils fixtures, generalized here to
// runtime configuration.
func DefaultConfig() Config {
	c := Config{}
	defaults.SetDefaults(&c)
	return c
}

// LoadConfigFile decodes an optional YAML config file into a Config
// seeded with defaults. A missing path is not an error; callers pass an
// empty string when --config was not given.
func LoadConfigFile(path string) (Config, error) {
	c := DefaultConfig()
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("reading config file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("parsing config file %q: %w", path, err)
	}
	return c, nil
}

// RequestTimeout returns Timeout as a time.Duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// EffectiveChunkSize resolves spec.md §9's Open Question: the configured
// MTU override wins only when it is smaller than the link's usable payload
// (negotiatedMTU - MTUOverhead); otherwise chunk_size is derived from the
// link as negotiatedMTU - MTUOverhead. This follows
// original_source/src/config.rs's effective_mtu rule, but compares the
// override against the usable payload rather than the raw MTU, so it can
// never hand the central a chunk size the link cannot carry while still
// letting an operator force a smaller, more conservative one.
//
// Satisfies I1: the result is never below MinChunkSize; a smaller override
// or derived size is raised to MinChunkSize.
func (c Config) EffectiveChunkSize(negotiatedMTU int) uint32 {
	derived := negotiatedMTU - MTUOverhead
	size := derived
	if c.MTU > 0 && c.MTU < derived {
		size = c.MTU
	}
	if size < MinChunkSize {
		return MinChunkSize
	}
	return uint32(size)
}
