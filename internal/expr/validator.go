package expr

import (
	"fmt"
	"strings"
)

// BlockedKeywords is the textual denylist scanned before any expression is
// parsed. The scan is a plain substring match: it is deliberately blunt (it
// over-blocks and is evadable) and is only the first line of defense. The
// structural guarantee comes from Compile, which only admits the two context
// roots and the fixed function table.
var BlockedKeywords = []string{
	"require",
	"import",
	"eval",
	"globalThis",
	"constructor",
	"__proto__",
	"Function",
	"fetch",
	"readFile",
	"writeFile",
	// child_process precedes process so the reported keyword is the most
	// specific match.
	"child_process",
	"process",
	"exec",
	"spawn",
	"setTimeout",
	"setInterval",
}

// SecurityError reports an expression rejected by the security validator.
// It carries the exact matched keyword and the original expression text so
// the failure is actionable and auditable.
type SecurityError struct {
	Keyword    string
	Expression string
}

func (e *SecurityError) Error() string {
	return fmt.Sprintf("expression rejected: blocked keyword %q in %q", e.Keyword, e.Expression)
}

// Validate scans an expression against the blocked-keyword list and returns
// a *SecurityError on the first match. Evaluation must never proceed past a
// validation failure.
func Validate(expression string) error {
	for _, kw := range BlockedKeywords {
		if strings.Contains(expression, kw) {
			return &SecurityError{Keyword: kw, Expression: expression}
		}
	}
	return nil
}
