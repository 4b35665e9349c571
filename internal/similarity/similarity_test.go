package similarity

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/vaultboard/internal/config"
	"github.com/vk/vaultboard/internal/vault"
)

// memReader is an in-memory vault.Reader for tests.
type memReader struct {
	docs map[string]memDoc
}

type memDoc struct {
	attrs map[string]any
	body  string
}

func (m *memReader) Resolve(_ context.Context, pattern string) ([]string, error) {
	var paths []string
	for path := range m.docs {
		if vault.Match(pattern, path) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func (m *memReader) Attributes(_ context.Context, path string) (map[string]any, error) {
	doc, ok := m.docs[path]
	if !ok {
		return nil, fmt.Errorf("no such document: %s", path)
	}
	return doc.attrs, nil
}

func (m *memReader) Content(_ context.Context, path string) (string, error) {
	doc, ok := m.docs[path]
	if !ok {
		return "", fmt.Errorf("no such document: %s", path)
	}
	return doc.body, nil
}

func simWidget(limit int, dims ...string) config.WidgetConfig {
	return config.WidgetConfig{
		Name:       "Similar Notes",
		Type:       config.TypeSimilarity,
		Location:   config.LocationRecall,
		Source:     config.Source{Pattern: "notes/**/*.md"},
		Dimensions: dims,
		Limit:      limit,
	}
}

func TestComputeRanksByAttributeOverlap(t *testing.T) {
	reader := &memReader{docs: map[string]memDoc{
		"notes/target.md": {attrs: map[string]any{"genre": "sf", "rating": 8.0}},
		"notes/close.md":  {attrs: map[string]any{"genre": "sf", "rating": 8.0}},
		"notes/mid.md":    {attrs: map[string]any{"genre": "sf", "rating": 4.0}},
		"notes/far.md":    {attrs: map[string]any{"genre": "poetry", "rating": 1.0}},
	}}

	matches, deps, err := New(reader).Compute(context.Background(), simWidget(0, "genre", "rating"), "notes/target.md")
	require.NoError(t, err)

	require.Len(t, matches, 3)
	assert.Equal(t, "notes/close.md", matches[0].Path)
	assert.Equal(t, 1.0, matches[0].Score)
	assert.Equal(t, "notes/mid.md", matches[1].Path)
	assert.Equal(t, "notes/far.md", matches[2].Path)

	for _, m := range matches {
		assert.GreaterOrEqual(t, m.Score, 0.0)
		assert.LessOrEqual(t, m.Score, 1.0)
		assert.NotEqual(t, "notes/target.md", m.Path, "target must be excluded")
	}

	assert.Equal(t, []string{"notes/close.md", "notes/far.md", "notes/mid.md", "notes/target.md"}, deps)
}

func TestTiesBreakByPath(t *testing.T) {
	reader := &memReader{docs: map[string]memDoc{
		"notes/target.md": {attrs: map[string]any{"genre": "sf"}},
		"notes/b.md":      {attrs: map[string]any{"genre": "sf"}},
		"notes/a.md":      {attrs: map[string]any{"genre": "sf"}},
		"notes/c.md":      {attrs: map[string]any{"genre": "sf"}},
	}}

	c := New(reader)
	first, _, err := c.Compute(context.Background(), simWidget(0, "genre"), "notes/target.md")
	require.NoError(t, err)
	assert.Equal(t, []Match{
		{Path: "notes/a.md", Score: 1},
		{Path: "notes/b.md", Score: 1},
		{Path: "notes/c.md", Score: 1},
	}, first)

	for i := 0; i < 5; i++ {
		again, _, err := c.Compute(context.Background(), simWidget(0, "genre"), "notes/target.md")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestLimitTruncates(t *testing.T) {
	docs := map[string]memDoc{"notes/target.md": {attrs: map[string]any{"genre": "sf"}}}
	for i := 0; i < 20; i++ {
		docs[fmt.Sprintf("notes/n%02d.md", i)] = memDoc{attrs: map[string]any{"genre": "sf"}}
	}

	matches, _, err := New(&memReader{docs: docs}).Compute(context.Background(), simWidget(5, "genre"), "notes/target.md")
	require.NoError(t, err)
	assert.Len(t, matches, 5)

	// Default limit applies when the widget sets none.
	matches, _, err = New(&memReader{docs: docs}).Compute(context.Background(), simWidget(0, "genre"), "notes/target.md")
	require.NoError(t, err)
	assert.Len(t, matches, DefaultLimit)
}

func TestListDimensionsUseJaccard(t *testing.T) {
	reader := &memReader{docs: map[string]memDoc{
		"notes/target.md":  {attrs: map[string]any{"tags": []any{"sf", "classic"}}},
		"notes/half.md":    {attrs: map[string]any{"tags": []any{"sf", "modern"}}},
		"notes/none.md":    {attrs: map[string]any{"tags": []any{"cooking"}}},
		"notes/missing.md": {attrs: map[string]any{}},
	}}

	matches, _, err := New(reader).Compute(context.Background(), simWidget(0, "tags"), "notes/target.md")
	require.NoError(t, err)

	byPath := map[string]float64{}
	for _, m := range matches {
		byPath[m.Path] = m.Score
	}
	assert.InDelta(t, 1.0/3.0, byPath["notes/half.md"], 1e-9)
	assert.Equal(t, 0.0, byPath["notes/none.md"])
	assert.Equal(t, 0.0, byPath["notes/missing.md"], "missing dimension contributes zero")
}

func TestContentDimension(t *testing.T) {
	reader := &memReader{docs: map[string]memDoc{
		"notes/target.md": {body: "desert planet spice politics"},
		"notes/close.md":  {body: "desert planet spice war"},
		"notes/far.md":    {body: "sourdough hydration crumb"},
	}}

	matches, _, err := New(reader).Compute(context.Background(), simWidget(0, ContentDimension), "notes/target.md")
	require.NoError(t, err)

	require.Len(t, matches, 2)
	assert.Equal(t, "notes/close.md", matches[0].Path)
	assert.Greater(t, matches[0].Score, matches[1].Score)
	assert.Equal(t, 0.0, matches[1].Score)
}
