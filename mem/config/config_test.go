package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/joshuapare/memkit/mem/alloc"
	"github.com/joshuapare/memkit/mem/alloc/instrument"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// TestByteSize tests parsing and printing of human sizes.
func TestByteSize(t *testing.T) {
	var b ByteSize
	require.NoError(t, b.Set("64MB"))
	assert.Equal(t, uint64(64<<20), b.Bytes())
	assert.Equal(t, "64MB", b.String())

	require.NoError(t, b.Set("512"))
	assert.Equal(t, uint64(512), b.Bytes())

	assert.Error(t, b.Set("lots"))
}

// TestByteSize_YAML tests YAML round trips through the human form.
func TestByteSize_YAML(t *testing.T) {
	var cfg struct {
		Size ByteSize `yaml:"size"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("size: 2KB\n"), &cfg))
	assert.Equal(t, ByteSize(2048), cfg.Size)

	out, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	assert.Equal(t, "size: 2KB\n", string(out))
}

// TestLoad tests reading a file over the defaults.
func TestLoad(t *testing.T) {
	path := writeConfig(t, `
backend: bump
arena_size: 1MB
limit: 256KB
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendBump, cfg.Backend)
	assert.Equal(t, ByteSize(1<<20), cfg.ArenaSize)
	assert.Equal(t, ByteSize(256<<10), cfg.Limit)
	assert.Equal(t, "default", cfg.Name, "unset fields keep defaults")
}

// TestLoad_Errors tests missing files, bad YAML and invalid values.
func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "config: read")

	_, err = Load(writeConfig(t, "backend: [heap\n"))
	assert.ErrorContains(t, err, "config: parse")

	_, err = Load(writeConfig(t, "backend: pool\n"))
	assert.ErrorContains(t, err, `unknown backend "pool"`)

	_, err = Load(writeConfig(t, "arena_size: huge\n"))
	assert.ErrorContains(t, err, "invalid byte size")
}

// TestValidate tests the configuration checks.
func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Backend = BackendMmapBump
	cfg.ArenaSize = 0
	assert.ErrorContains(t, cfg.Validate(), "arena_size must be set")

	cfg = Default()
	cfg.Metrics = true
	cfg.Name = " "
	assert.ErrorContains(t, cfg.Validate(), "name must be set")
}

// TestRegisterFlags tests command-line configuration.
func TestRegisterFlags(t *testing.T) {
	cfg := Default()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg.RegisterFlags(fs)

	require.NoError(t, fs.Parse([]string{
		"-alloc.backend=mmap",
		"-alloc.limit=8MB",
		"-alloc.metrics",
		"-alloc.name=jobs",
	}))
	assert.Equal(t, BackendMmap, cfg.Backend)
	assert.Equal(t, ByteSize(8<<20), cfg.Limit)
	assert.True(t, cfg.Metrics)
	assert.Equal(t, "jobs", cfg.Name)
	assert.Equal(t, ByteSize(64<<20), cfg.ArenaSize)
}

// TestBuild tests the allocator built for each backend.
func TestBuild(t *testing.T) {
	t.Run("heap", func(t *testing.T) {
		cfg := Default()
		a, closeFn, err := cfg.Build(nil)
		require.NoError(t, err)
		assert.Equal(t, alloc.Heap{}, a)
		assert.NoError(t, closeFn())
	})

	t.Run("bump", func(t *testing.T) {
		cfg := Default()
		cfg.Backend = BackendBump
		cfg.ArenaSize = 4096
		a, closeFn, err := cfg.Build(nil)
		require.NoError(t, err)
		ba, ok := a.(*alloc.Bump)
		require.True(t, ok)
		assert.Equal(t, 4096, ba.Cap())
		assert.NoError(t, closeFn())
	})

	t.Run("mmap", func(t *testing.T) {
		cfg := Default()
		cfg.Backend = BackendMmap
		a, _, err := cfg.Build(nil)
		if err != nil {
			require.ErrorIs(t, err, alloc.ErrUnsupported)
			t.Skip("mmap not supported")
		}
		assert.IsType(t, &alloc.Mmap{}, a)
	})

	t.Run("limited and instrumented", func(t *testing.T) {
		cfg := Default()
		cfg.Limit = 1024
		cfg.Metrics = true
		cfg.Name = "build-test"
		reg := prometheus.NewRegistry()

		a, _, err := cfg.Build(reg)
		require.NoError(t, err)
		ia, ok := a.(*instrument.Allocator)
		require.True(t, ok)
		la, ok := ia.Inner().(*alloc.Limit)
		require.True(t, ok)
		assert.Equal(t, uintptr(1024), la.Max())

		l, err := alloc.ArrayOf[byte](2048)
		require.NoError(t, err)
		_, err = a.Allocate(l)
		assert.ErrorIs(t, err, alloc.ErrBudget)
		assert.Equal(t, uint64(1), ia.Stats().Failures)
	})

	t.Run("invalid", func(t *testing.T) {
		cfg := Config{Backend: "nope"}
		_, _, err := cfg.Build(nil)
		assert.Error(t, err)
	})
}
