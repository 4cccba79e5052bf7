package bootstrap

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/morezero/content-actions/pkg/actions"
)

const logPrefix = "bootstrap:loader"

// DefaultScopePath is where the default application set is registered.
const DefaultScopePath = "/Root"

// LoadSeedConfig loads seed config from file paths or environment.
// It tries paths in order: first any paths passed in, then ACTIONS_SEED_FILE env, then defaults.
// An explicit path (e.g. from "seed my.json") is tried before the env var.
func LoadSeedConfig(paths ...string) (*SeedConfig, error) {
	all := make([]string, 0, len(paths)+3)
	for _, p := range paths {
		if p != "" {
			all = append(all, p)
		}
	}
	if envPath := os.Getenv("ACTIONS_SEED_FILE"); envPath != "" {
		all = append(all, envPath)
	}
	all = append(all, "config/seed.json", "seed.json")

	for _, p := range all {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}

		var cfg SeedConfig
		if err := json.Unmarshal(data, &cfg); err != nil {
			slog.Warn(fmt.Sprintf("%s - Failed to parse seed file %s: %v", logPrefix, p, err))
			continue
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%s - invalid seed file %s: %w", logPrefix, p, err)
		}

		slog.Info(fmt.Sprintf("%s - Loaded seed config from %s", logPrefix, p))
		return &cfg, nil
	}

	slog.Info(fmt.Sprintf("%s - Using default seed config", logPrefix))
	return GetDefaultSeedConfig(), nil
}

var defaultDescriptions = map[string]string{
	actions.BrowseActionName:            "Open the content for viewing",
	actions.EditActionName:              "Edit the content",
	actions.CheckInActionName:           "Check in the pending changes",
	actions.CheckOutActionName:          "Check out the content for editing",
	actions.UndoCheckOutActionName:      "Discard the checkout",
	actions.ForceUndoCheckOutActionName: "Discard another user's checkout",
	actions.PublishActionName:           "Publish the current draft",
	actions.ApproveActionName:           "Approve the pending version",
	actions.RejectActionName:            "Reject the pending version",
	actions.DeleteActionName:            "Delete the content",
}

// applicationName maps a variant name to the operation name the legality
// gate checks, e.g. "CheckOutAction" to "CheckOut".
func applicationName(variant string) string {
	return strings.TrimSuffix(variant, "Action")
}

// GetDefaultSeedConfig returns one descriptor per built-in variant at
// DefaultScopePath. URLAction is left out because it needs a url parameter.
func GetDefaultSeedConfig() *SeedConfig {
	cfg := &SeedConfig{
		Name:        "content-actions-default",
		Version:     "1.0.0",
		Description: "Default application descriptors for the built-in actions",
	}
	for _, v := range actions.BuiltinVariants() {
		if v.Name == actions.URLActionName {
			continue
		}
		cfg.Applications = append(cfg.Applications, SeedApplication{
			ScopePath:   DefaultScopePath,
			Name:        applicationName(v.Name),
			ActionType:  v.Name,
			Description: defaultDescriptions[v.Name],
		})
	}
	return cfg
}
