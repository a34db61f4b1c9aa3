package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mediaconv/internal/app"
	"mediaconv/internal/config"
	"mediaconv/internal/engine"
	"mediaconv/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	conv       *testsupport.Converter
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	cfg.Logging.Level = "error"
	base := testsupport.BaseDir(cfg)

	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("MEDIACONV_DATA_DIR", "")
	t.Setenv("MEDIACONV_FFMPEG", "")

	configPath := filepath.Join(base, "config.toml")
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	conv := testsupport.NewConverter(0)
	duration := 12.5
	prober := testsupport.Prober{Metadata: engine.Metadata{Duration: &duration, Thumbnail: []byte("thumb")}}
	prev := newEngine
	newEngine = func(*app.App) (engine.Converter, engine.Prober) { return conv, prober }
	t.Cleanup(func() { newEngine = prev })

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base, conv: conv}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
