package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigCommand(t *testing.T) {
	resetFlags(t)

	output, err := captureOutput(t, runConfig)
	if err != nil {
		t.Fatalf("runConfig() error = %v", err)
	}
	assertContains(t, output, []string{"backend: heap", "arena_size: 64MB", "name: default"})
}

func TestConfigCommand_JSON(t *testing.T) {
	resetFlags(t)
	jsonOut = true
	cfg.Limit = 1 << 20

	output, err := captureOutput(t, runConfig)
	if err != nil {
		t.Fatalf("runConfig() error = %v", err)
	}

	var view configView
	assertJSON(t, output, &view)
	if view.Limit != 1<<20 {
		t.Errorf("limit = %d, want %d", view.Limit, 1<<20)
	}
}

func TestConfigCommand_FileAndFlags(t *testing.T) {
	resetFlags(t)
	path := filepath.Join(t.TempDir(), "memkit.yaml")
	body := "backend: bump\narena_size: 1MB\nlimit: 512KB\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	rootCmd.SetArgs([]string{"config", "--config", path, "--alloc.limit", "2MB"})
	defer rootCmd.SetArgs(nil)

	output, err := captureOutput(t, rootCmd.Execute)
	if err != nil {
		t.Fatalf("Execute() error = %v\nOutput: %s", err, output)
	}

	// The file sets the backend; the flag overrides the file's limit.
	assertContains(t, output, []string{"backend: bump", "arena_size: 1MB", "limit: 2MB"})
	assertNotContains(t, output, []string{"limit: 512KB"})
}
