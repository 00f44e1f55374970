package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"

	"boreline/internal/config"
	"boreline/internal/store"
)

// CheckNtfyFromConfig evaluates ntfy status from config and connectivity.
func CheckNtfyFromConfig(cfg *config.Config) Result {
	const name = "ntfy"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	check := CheckNtfy(context.Background(), cfg.Notifications.NtfyServer)
	if check.Passed {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (topic %s)", check.Detail, cfg.Notifications.NtfyTopic)}
	}
	return Result{Name: name, Detail: check.Detail}
}

// CheckDatabase opens the store read path and reports its schema version.
func CheckDatabase(ctx context.Context, cfg *config.Config) Result {
	const name = "Database"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	path := cfg.DatabasePath()
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (not created yet)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	st, err := store.OpenPath(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer st.Close()

	version, err := st.SchemaVersion(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (schema %s)", path, version)}
}
