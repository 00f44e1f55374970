package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupDirectEnv(t)

	out := mustRunCLI(t, env, "config", "validate")
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out = mustRunCLI(t, env, "config", "init", "--path", target)
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, err := runCLI(t, env, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
	mustRunCLI(t, env, "config", "init", "--path", target, "--overwrite")
}

func TestConfigShowMasksToken(t *testing.T) {
	env := setupDirectEnv(t)
	env.cfg.API.Token = "hunter2"
	env.configPath = writeTestConfig(t, env.cfg)

	out := mustRunCLI(t, env, "config", "show")
	requireContains(t, out, "********")
	if strings.Contains(out, "hunter2") {
		t.Fatalf("token leaked in output:\n%s", out)
	}
}
