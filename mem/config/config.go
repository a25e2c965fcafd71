// Package config selects the process-wide allocator.
//
// A program builds its default allocator once at start-up and passes it to
// the container constructors that take one:
//
//	cfg := config.Default()
//	cfg.RegisterFlags(flag.CommandLine)
//	flag.Parse()
//
//	a, closeFn, err := cfg.Build(prometheus.DefaultRegisterer)
//	if err != nil {
//	    return err
//	}
//	defer closeFn()
//
//	v := vec.NewIn[Item](a)
package config

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"

	"github.com/joshuapare/memkit/mem/alloc"
	"github.com/joshuapare/memkit/mem/alloc/instrument"
)

// Backend names accepted by Config.Backend.
const (
	BackendHeap     = "heap"
	BackendMmap     = "mmap"
	BackendBump     = "bump"
	BackendMmapBump = "mmap-bump"
)

// Config describes the allocator backing containers that are not given one
// explicitly.
type Config struct {
	// Backend is one of heap, mmap, bump or mmap-bump.
	Backend string `yaml:"backend"`

	// Limit caps the bytes in use. Zero means no limit.
	Limit ByteSize `yaml:"limit"`

	// ArenaSize is the capacity of the bump arenas.
	ArenaSize ByteSize `yaml:"arena_size"`

	// Metrics wraps the allocator with prometheus instrumentation.
	Metrics bool `yaml:"metrics"`

	// Name labels the allocator's metrics.
	Name string `yaml:"name"`
}

// Default returns the configuration used when nothing is set: the Go heap,
// unlimited, uninstrumented.
func Default() Config {
	return Config{
		Backend:   BackendHeap,
		ArenaSize: 64 << 20,
		Name:      "default",
	}
}

// RegisterFlags registers the configuration flags on f, prefixed with "alloc.".
func (c *Config) RegisterFlags(f *flag.FlagSet) {
	f.StringVar(&c.Backend, "alloc.backend", c.Backend, "Allocator backend: heap, mmap, bump or mmap-bump.")
	f.Var(&c.Limit, "alloc.limit", "Maximum bytes in use (e.g. 256MB). 0 disables the limit.")
	f.Var(&c.ArenaSize, "alloc.arena-size", "Capacity of bump arenas (e.g. 64MB).")
	f.BoolVar(&c.Metrics, "alloc.metrics", c.Metrics, "Export allocator metrics.")
	f.StringVar(&c.Name, "alloc.name", c.Name, "Allocator name used as the metrics label.")
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendHeap, BackendMmap:
	case BackendBump, BackendMmapBump:
		if c.ArenaSize == 0 {
			return errors.New("config: arena_size must be set for bump backends")
		}
		if c.ArenaSize.Bytes() > math.MaxInt {
			return fmt.Errorf("config: arena_size %s too large", c.ArenaSize)
		}
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	if c.Metrics && strings.TrimSpace(c.Name) == "" {
		return errors.New("config: name must be set when metrics are enabled")
	}
	return nil
}

// Load reads a YAML configuration file. Fields missing from the file keep
// their Default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Build constructs the configured allocator. The returned close function
// releases backing memory (bump arenas) and must be called once every
// container using the allocator has been freed.
func (c *Config) Build(reg prometheus.Registerer) (alloc.Allocator, func() error, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}

	noop := func() error { return nil }
	var (
		a       alloc.Allocator
		closeFn = noop
	)
	switch c.Backend {
	case BackendHeap:
		a = alloc.Heap{}
	case BackendMmap:
		m, err := alloc.NewMmap()
		if err != nil {
			return nil, nil, fmt.Errorf("config: %w", err)
		}
		a = m
	case BackendBump:
		b, err := alloc.NewBump(int(c.ArenaSize))
		if err != nil {
			return nil, nil, fmt.Errorf("config: %w", err)
		}
		a, closeFn = b, b.Close
	case BackendMmapBump:
		b, err := alloc.NewMmapBump(int(c.ArenaSize))
		if err != nil {
			return nil, nil, fmt.Errorf("config: %w", err)
		}
		a, closeFn = b, b.Close
	}

	if c.Limit > 0 {
		limit := uintptr(math.MaxUint)
		if c.Limit.Bytes() < uint64(limit) {
			limit = uintptr(c.Limit)
		}
		a = alloc.NewLimit(a, limit)
	}
	if c.Metrics {
		a = instrument.New(a, c.Name, reg)
	}
	return a, closeFn, nil
}
