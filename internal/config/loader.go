package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vk/vaultboard/internal/ctxlog"
)

// WidgetsDir is the vault subdirectory scanned for widget definitions.
const WidgetsDir = "widgets"

// LoadedWidget is one successfully loaded widget definition.
type LoadedWidget struct {
	ID       string
	FilePath string
	Config   WidgetConfig
}

// LoadError records a widget definition that failed to load. The error
// message names the offending field so it is actionable.
type LoadError struct {
	ID  string
	Err error
}

// LoadResult is the outcome of scanning a vault's widgets directory.
// Per-widget errors are collected, not thrown: one misconfigured widget
// never blocks loading the others.
type LoadResult struct {
	HasWidgetsDir bool
	Widgets       []LoadedWidget
	Errors        []LoadError
}

// LoadWidgetConfigs scans <vaultPath>/widgets for *.yaml and *.yml files
// and loads each as a widget definition. A vault without a widgets
// directory is a normal, empty result, not an error.
func LoadWidgetConfigs(ctx context.Context, vaultPath string) (*LoadResult, error) {
	logger := ctxlog.FromContext(ctx)
	dir := filepath.Join(vaultPath, WidgetsDir)

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		logger.Debug("No widgets directory in vault.", "vault", vaultPath)
		return &LoadResult{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat widgets directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read widgets directory: %w", err)
	}

	result := &LoadResult{HasWidgetsDir: true}
	seenNames := make(map[string]string) // widget name -> file that claimed it
	seenIDs := make(map[string]string)   // widget id (slug) -> file that claimed it

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		fileID := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))

		cfg, err := loadWidgetFile(path)
		if err != nil {
			logger.Warn("Widget definition failed to load.", "file", entry.Name(), "error", err)
			result.Errors = append(result.Errors, LoadError{ID: fileID, Err: err})
			continue
		}

		if prev, dup := seenNames[cfg.Name]; dup {
			err := fmt.Errorf(`invalid "name" %q: already defined in %s`, cfg.Name, prev)
			logger.Warn("Widget definition failed to load.", "file", entry.Name(), "error", err)
			result.Errors = append(result.Errors, LoadError{ID: fileID, Err: err})
			continue
		}
		seenNames[cfg.Name] = entry.Name()

		// Distinct names can still collapse to one slug, and the id is what
		// keys the engine's lookups and cache entries, so id collisions are
		// rejected the same way as name collisions.
		id := Slugify(cfg.Name)
		if prev, dup := seenIDs[id]; dup {
			err := fmt.Errorf(`invalid "name" %q: id %q already defined in %s`, cfg.Name, id, prev)
			logger.Warn("Widget definition failed to load.", "file", entry.Name(), "error", err)
			result.Errors = append(result.Errors, LoadError{ID: fileID, Err: err})
			continue
		}
		seenIDs[id] = entry.Name()

		result.Widgets = append(result.Widgets, LoadedWidget{
			ID:       id,
			FilePath: path,
			Config:   cfg,
		})
	}

	logger.Debug("Widget configs loaded.",
		"vault", vaultPath,
		"widgets", len(result.Widgets),
		"errors", len(result.Errors),
	)
	return result, nil
}

// loadWidgetFile reads, parses and validates a single widget definition.
func loadWidgetFile(path string) (WidgetConfig, error) {
	var cfg WidgetConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read widget file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return cfg, fmt.Errorf("widget config file is empty")
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("YAML: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// validate checks a parsed config against the recognized option set. Every
// message names the field it refers to.
func validate(cfg *WidgetConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf(`"name" is required`)
	}

	switch cfg.Type {
	case TypeAggregate, TypeSimilarity:
	default:
		return fmt.Errorf(`invalid "type" %q: must be %q or %q`, cfg.Type, TypeAggregate, TypeSimilarity)
	}

	switch cfg.Location {
	case LocationGround, LocationRecall:
	case "":
		cfg.Location = LocationGround
	default:
		return fmt.Errorf(`invalid "location" %q: must be %q or %q`, cfg.Location, LocationGround, LocationRecall)
	}

	if strings.TrimSpace(cfg.Source.Pattern) == "" {
		return fmt.Errorf(`"source.pattern" must not be empty`)
	}

	switch cfg.Type {
	case TypeAggregate:
		if len(cfg.Fields) == 0 {
			return fmt.Errorf(`aggregate widget requires at least one "field"`)
		}
		for _, f := range cfg.Fields {
			hasAgg := f.Aggregator != ""
			hasExpr := f.Expr != ""
			if hasAgg == hasExpr {
				return fmt.Errorf(`"field" %q must declare exactly one of aggregator or expr`, f.Name)
			}
		}
	case TypeSimilarity:
		if len(cfg.Dimensions) == 0 {
			return fmt.Errorf(`similarity widget requires at least one "dimension"`)
		}
		for _, d := range cfg.Dimensions {
			if strings.TrimSpace(d) == "" {
				return fmt.Errorf(`"dimension" must not be empty`)
			}
		}
	}

	if cfg.Display.Type == "table" && len(cfg.Display.Columns) == 0 {
		return fmt.Errorf(`display type "table" requires at least one "column"`)
	}

	for _, e := range cfg.Editable {
		if strings.TrimSpace(e.Field) == "" {
			return fmt.Errorf(`editable entry requires a "field"`)
		}
	}

	return nil
}
