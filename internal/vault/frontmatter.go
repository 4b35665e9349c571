package vault

import (
	"bytes"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

var frontMatterFence = []byte("---")

// splitFrontMatter separates a document into its front-matter attributes
// and body text. Front-matter is a YAML block delimited by "---" lines at
// the very top of the document; anything else is all body.
func splitFrontMatter(data []byte) (map[string]any, string, error) {
	rest, ok := bytes.CutPrefix(data, frontMatterFence)
	if !ok || (len(rest) > 0 && rest[0] != '\n' && rest[0] != '\r') {
		return map[string]any{}, string(data), nil
	}

	idx := bytes.Index(rest, []byte("\n---"))
	if idx < 0 {
		// Unterminated fence: treat the whole document as body.
		return map[string]any{}, string(data), nil
	}

	block := rest[:idx]
	body := rest[idx+len("\n---"):]
	if cut, ok := bytes.CutPrefix(body, []byte("\r\n")); ok {
		body = cut
	} else if cut, ok := bytes.CutPrefix(body, []byte("\n")); ok {
		body = cut
	}

	raw := make(map[string]any)
	if err := yaml.Unmarshal(block, &raw); err != nil {
		return nil, "", fmt.Errorf("parse front-matter: %w", err)
	}

	return normalize(raw), string(body), nil
}

// normalize flattens YAML-specific types into the plain attribute model the
// engine computes over.
func normalize(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case time.Time:
		return t.Format(time.RFC3339)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	case map[string]any:
		return normalize(t)
	default:
		return v
	}
}
