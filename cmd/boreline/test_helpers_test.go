package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"boreline/internal/access"
	"boreline/internal/config"
	"boreline/internal/daemon"
	"boreline/internal/ipc"
	"boreline/internal/logging"
	"boreline/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	plant      *testsupport.Plant
	configPath string
}

// setupCLITestEnv serves a seeded plant over IPC. Actors: root (admin) and
// op1 (operator at station 1).
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	socket := filepath.Join(testsupport.ShortTempDir(t), "cli.sock")
	cfg := testsupport.NewConfig(t, testsupport.WithSocketPath(socket))
	cfg.API.Bind = ""
	configPath := writeTestConfig(t, cfg)

	plant := testsupport.NewPlant(t, testsupport.MustOpenStore(t, cfg))
	testsupport.NewActor(t, plant.Store, "op1", access.RoleOperator, 1)

	logger := logging.NewNop()
	d, err := daemon.New(cfg, plant.Store, plant.Engine, plant.Hub, logger, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	srv, err := ipc.NewServer(ctx, socket, d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping CLI IPC test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	return &cliTestEnv{cfg: cfg, plant: plant, configPath: configPath}
}

// setupDirectEnv writes a config whose socket nobody listens on, so every
// command falls back to the store.
func setupDirectEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	return &cliTestEnv{cfg: cfg, configPath: writeTestConfig(t, cfg)}
}

func writeTestConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()
	written := *cfg
	if written.API.Bind == "" {
		written.API.Bind = "127.0.0.1:0"
	}
	data, err := toml.Marshal(written)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, error) {
	t.Helper()
	t.Setenv("BORELINE_ACTOR", "")
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func mustRunCLI(t *testing.T, env *cliTestEnv, args ...string) string {
	t.Helper()
	out, err := runCLI(t, env, args...)
	if err != nil {
		t.Fatalf("boreline %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}
