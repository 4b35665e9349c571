// Package similarity scores and ranks documents against a target document
// along a similarity widget's configured dimensions.
package similarity

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"lukechampine.com/blake3"

	"github.com/vk/vaultboard/internal/config"
	"github.com/vk/vaultboard/internal/ctxlog"
	"github.com/vk/vaultboard/internal/vault"
)

// ContentDimension compares body text instead of a front-matter attribute.
const ContentDimension = "content"

// DefaultLimit caps the ranked list when a widget does not set its own.
const DefaultLimit = 10

// Match is one ranked document: its vault-relative path and a similarity
// score in [0, 1].
type Match struct {
	Path  string  `json:"path"`
	Score float64 `json:"score"`
}

// Computer scores documents against each other. Tokenized body text is
// memoized by content fingerprint so repeated rankings over an unchanged
// vault do not re-tokenize every document.
type Computer struct {
	reader vault.Reader

	mu     sync.Mutex
	tokens map[[32]byte]map[string]struct{}
}

// New returns a Computer reading documents through the given Reader.
func New(reader vault.Reader) *Computer {
	return &Computer{
		reader: reader,
		tokens: make(map[[32]byte]map[string]struct{}),
	}
}

// Compute ranks every document matching the widget's source pattern against
// the target, excluding the target itself. The result is sorted by score
// descending with path ascending as the tiebreak, so output is stable
// across runs with identical input, and truncated to the widget's limit.
// The returned path set is every source path the computation depended on.
func (c *Computer) Compute(ctx context.Context, cfg config.WidgetConfig, targetPath string) ([]Match, []string, error) {
	logger := ctxlog.FromContext(ctx)

	paths, err := c.reader.Resolve(ctx, cfg.Source.Pattern)
	if err != nil {
		return nil, nil, fmt.Errorf("similarity source: %w", err)
	}

	target, err := c.document(ctx, targetPath, cfg.Dimensions)
	if err != nil {
		return nil, nil, err
	}

	deps := make([]string, 0, len(paths)+1)
	deps = append(deps, targetPath)

	matches := make([]Match, 0, len(paths))
	for _, path := range paths {
		if path == targetPath {
			continue
		}
		deps = append(deps, path)

		other, err := c.document(ctx, path, cfg.Dimensions)
		if err != nil {
			// A single unreadable document must not sink the ranking.
			logger.Warn("Skipping unreadable document in similarity ranking.", "path", path, "error", err)
			continue
		}
		matches = append(matches, Match{Path: path, Score: c.score(cfg.Dimensions, target, other)})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Path < matches[j].Path
	})

	limit := cfg.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}

	sort.Strings(deps)
	return matches, deps, nil
}

// document gathers everything one side of a comparison needs: front-matter
// attributes, plus the body token set when a content dimension is declared.
type document struct {
	attrs  map[string]any
	tokens map[string]struct{}
}

func (c *Computer) document(ctx context.Context, path string, dimensions []string) (*document, error) {
	attrs, err := c.reader.Attributes(ctx, path)
	if err != nil {
		return nil, err
	}
	doc := &document{attrs: attrs}

	for _, dim := range dimensions {
		if dim != ContentDimension {
			continue
		}
		body, err := c.reader.Content(ctx, path)
		if err != nil {
			return nil, err
		}
		doc.tokens = c.tokenize(body)
		break
	}
	return doc, nil
}

// tokenize returns the token set of a body, memoized by blake3 fingerprint.
func (c *Computer) tokenize(body string) map[string]struct{} {
	sum := blake3.Sum256([]byte(body))

	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.tokens[sum]; ok {
		return cached
	}

	set := make(map[string]struct{})
	for _, tok := range strings.FieldsFunc(strings.ToLower(body), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	}) {
		if len(tok) < 2 {
			continue
		}
		set[tok] = struct{}{}
	}
	c.tokens[sum] = set
	return set
}

// score averages the per-dimension similarities. A dimension missing on
// either side contributes zero but still counts, so documents sharing more
// declared dimensions rank higher.
func (c *Computer) score(dimensions []string, target, other *document) float64 {
	if len(dimensions) == 0 {
		return 0
	}
	total := 0.0
	for _, dim := range dimensions {
		if dim == ContentDimension {
			total += jaccard(target.tokens, other.tokens)
			continue
		}
		total += attributeSimilarity(target.attrs[dim], other.attrs[dim])
	}
	return total / float64(len(dimensions))
}

// attributeSimilarity compares two front-matter values on a [0, 1] scale.
func attributeSimilarity(a, b any) float64 {
	if a == nil || b == nil {
		return 0
	}

	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return 0
		}
		d := av - bv
		if d < 0 {
			d = -d
		}
		return 1 / (1 + d)
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0
		}
		if av == bv {
			return 1
		}
		return 0
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0
		}
		if strings.EqualFold(av, bv) {
			return 1
		}
		return 0
	case []any:
		bv, ok := b.([]any)
		if !ok {
			return 0
		}
		return jaccard(stringSet(av), stringSet(bv))
	default:
		return 0
	}
}

func stringSet(items []any) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[strings.ToLower(fmt.Sprint(item))] = struct{}{}
	}
	return set
}

// jaccard is |A ∩ B| / |A ∪ B|; two empty sets count as identical.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
