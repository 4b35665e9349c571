// Package config defines the widget configuration model and the YAML
// loader that discovers widget definitions inside a vault. Configs are
// loaded once per vault and are immutable after load.
package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// WidgetType selects the computation a widget performs.
type WidgetType string

const (
	TypeAggregate  WidgetType = "aggregate"
	TypeSimilarity WidgetType = "similarity"
)

// Location selects the surface a widget renders on: the global dashboard
// or the per-document recall panel.
type Location string

const (
	LocationGround Location = "ground"
	LocationRecall Location = "recall"
)

// Source selects the documents a widget computes over.
type Source struct {
	Pattern string `yaml:"pattern" json:"pattern"`
}

// Display describes how a widget's result should be rendered. Columns is
// required when Type is "table".
type Display struct {
	Type    string         `yaml:"type" json:"type"`
	Columns []string       `yaml:"columns,omitempty" json:"columns,omitempty"`
	Options map[string]any `yaml:"options,omitempty" json:"options,omitempty"`
}

// EditableField marks a front-matter field as editable from the widget,
// rendered with the given edit-widget kind.
type EditableField struct {
	Field  string `yaml:"field" json:"field"`
	Widget string `yaml:"widget" json:"widget"`
}

// FieldSpec is one declared field of an aggregate widget: either a
// registered aggregator applied to a front-matter attribute, or a computed
// expression. The two forms are mutually exclusive.
type FieldSpec struct {
	Name       string `yaml:"-" json:"name"`
	Aggregator string `yaml:"aggregator,omitempty" json:"aggregator,omitempty"`
	Attribute  string `yaml:"attribute,omitempty" json:"attribute,omitempty"`
	Expr       string `yaml:"expr,omitempty" json:"expr,omitempty"`
}

// FieldList preserves the declaration order of an aggregate widget's
// fields. Order matters: a computed expression may reference fields
// declared earlier in the same widget through the stats root.
type FieldList []FieldSpec

// UnmarshalYAML decodes a YAML mapping into an ordered field list. A scalar
// value is shorthand for an aggregator with no attribute, e.g.
// "total_notes: count".
func (f *FieldList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("fields must be a mapping of field name to spec")
	}

	out := make(FieldList, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		keyNode := value.Content[i]
		valNode := value.Content[i+1]

		spec := FieldSpec{Name: keyNode.Value}
		if valNode.Kind == yaml.ScalarNode {
			spec.Aggregator = valNode.Value
		} else if err := valNode.Decode(&spec); err != nil {
			return fmt.Errorf("field %q: %w", keyNode.Value, err)
		}
		spec.Name = keyNode.Value
		out = append(out, spec)
	}
	*f = out
	return nil
}

// WidgetConfig is one widget definition as loaded from a vault.
type WidgetConfig struct {
	Name       string          `yaml:"name" json:"name"`
	Type       WidgetType      `yaml:"type" json:"type"`
	Location   Location        `yaml:"location" json:"location"`
	Source     Source          `yaml:"source" json:"source"`
	Fields     FieldList       `yaml:"fields,omitempty" json:"fields,omitempty"`
	Dimensions []string        `yaml:"dimensions,omitempty" json:"dimensions,omitempty"`
	Limit      int             `yaml:"limit,omitempty" json:"limit,omitempty"`
	Display    Display         `yaml:"display" json:"display"`
	Editable   []EditableField `yaml:"editable,omitempty" json:"editable,omitempty"`
	Includes   []string        `yaml:"includes,omitempty" json:"includes,omitempty"`
}

// Slugify derives a widget id from its name: lowercased, with runs of
// non-alphanumeric characters collapsed to single dashes. Slugs are valid
// HCL identifiers so they can namespace included widget stats inside
// expressions.
func Slugify(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if isAlnum {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}

	s := b.String()
	if s == "" {
		return "widget"
	}
	// HCL identifiers cannot start with a digit.
	if s[0] >= '0' && s[0] <= '9' {
		s = "w-" + s
	}
	return s
}
