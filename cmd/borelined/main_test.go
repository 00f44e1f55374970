package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"boreline/internal/config"
	"boreline/internal/daemonrun"
)

func TestCommandPassesOverridesToRun(t *testing.T) {
	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	if err := config.CreateSample(configPath); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}

	var gotCfg *config.Config
	var gotOpts daemonrun.Options
	cmd := newCommand(func(_ context.Context, cfg *config.Config, opts daemonrun.Options) error {
		gotCfg = cfg
		gotOpts = opts
		return nil
	})
	socket := filepath.Join(base, "d.sock")
	cmd.SetArgs([]string{"--config", configPath, "--socket", socket, "--log-level", "debug"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if gotCfg == nil {
		t.Fatal("expected run to receive a config")
	}
	if gotCfg.Paths.SocketPath != socket {
		t.Fatalf("expected socket override %q, got %q", socket, gotCfg.Paths.SocketPath)
	}
	if gotOpts.LogLevel != "debug" {
		t.Fatalf("expected log level override, got %q", gotOpts.LogLevel)
	}
}

func TestCommandRejectsInvalidConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := writeFile(configPath, "[bogus]\nkey = 1\n"); err != nil {
		t.Fatal(err)
	}
	called := false
	cmd := newCommand(func(context.Context, *config.Config, daemonrun.Options) error {
		called = true
		return nil
	})
	cmd.SetArgs([]string{"--config", configPath})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "load config") {
		t.Fatalf("expected load config error, got %v", err)
	}
	if called {
		t.Fatal("run must not be called with an invalid config")
	}
}

func TestCommandPrintsVersion(t *testing.T) {
	cmd := newCommand(func(context.Context, *config.Config, daemonrun.Options) error {
		t.Fatal("run must not be called for --version")
		return nil
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), "dev") {
		t.Fatalf("expected version in output, got %q", out.String())
	}
}

func writeFile(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0o644)
}
