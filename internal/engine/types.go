package engine

import (
	"errors"

	"github.com/vk/vaultboard/internal/config"
)

// ErrUnknownWidget is returned when a widget id does not resolve to any
// loaded widget.
var ErrUnknownWidget = errors.New("unknown widget")

// WidgetResult is one computed widget, ready for a transport or UI layer.
// Data is an attribute map for aggregate widgets and a ranked []Match for
// similarity widgets.
type WidgetResult struct {
	WidgetID string                 `json:"widgetId"`
	Name     string                 `json:"name"`
	Type     config.WidgetType      `json:"type"`
	Location config.Location        `json:"location"`
	Display  config.Display         `json:"display"`
	Data     any                    `json:"data"`
	Editable []config.EditableField `json:"editable,omitempty"`
}

// Invalidation summarizes the effect of a file-change notification.
type Invalidation struct {
	InvalidatedWidgets      []string `json:"invalidatedWidgets"`
	TotalEntriesInvalidated int      `json:"totalEntriesInvalidated"`
}

// CacheStats exposes the current cache entry count.
type CacheStats struct {
	WidgetEntries int `json:"widgetEntries"`
}

// Diagnostics carries the non-fatal conditions collected at construction:
// per-widget load errors, include cycles, and includes naming unknown
// widgets. Affected widgets are excluded from results, never from this
// report.
type Diagnostics struct {
	LoadErrors      []config.LoadError
	CycleWidgets    []string
	Cycles          []string
	InvalidIncludes map[string][]string
}
