package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vk/vaultboard/internal/ctxlog"
	"github.com/vk/vaultboard/internal/engine"
)

// Run executes the main application logic: build the engine for the
// configured vault, compute the requested widget surface, and print the
// results as JSON.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	eng, err := engine.New(ctx, a.config.VaultPath)
	if err != nil {
		return fmt.Errorf("failed to initialize widget engine: %w", err)
	}
	defer eng.Shutdown()

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(a.config.HealthcheckPort, eng.CacheStats)
	}

	diags := eng.Diagnostics()
	for _, le := range diags.LoadErrors {
		a.logger.Warn("Widget skipped due to load error.", "widget", le.ID, "error", le.Err)
	}

	var opts []engine.ComputeOption
	if a.config.Force {
		opts = append(opts, engine.WithForce())
	}

	var results []engine.WidgetResult
	if a.config.RecallPath != "" {
		a.logger.Debug("Computing recall widgets.", "path", a.config.RecallPath)
		results, err = eng.ComputeRecallWidgets(ctx, a.config.RecallPath, opts...)
	} else {
		a.logger.Debug("Computing ground widgets.")
		results, err = eng.ComputeGroundWidgets(ctx, opts...)
	}
	if err != nil {
		return fmt.Errorf("widget computation failed: %w", err)
	}

	enc := json.NewEncoder(a.outW)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	a.logger.Debug("App.Run method finished.", "widgets", len(results))
	return nil
}
