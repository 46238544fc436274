// Package assertions decides pass/fail for a response against an expected
// status code and a small rule language stored in table cells.
//
// Two rule forms exist: a substring check (`... contains "text"`) and an
// equality check (`field == "value"`). Rules are parsed once into a tagged
// Rule value; malformed rules are a parse error, not a silent pass.
package assertions

import (
	"fmt"
	"strings"
)

// Kind tags the rule variant.
type Kind int

const (
	// KindContains passes when the operand appears in the response body.
	KindContains Kind = iota

	// KindEquals compares a named field. The status field is handled by the
	// status check; any other field falls back to a substring search over the
	// whole body. That search is intentionally not a structured field lookup
	// and is kept for compatibility with existing tables.
	KindEquals
)

// StatusField is the field name in an equality rule that refers to the
// response status code.
const StatusField = "status_code"

// Rule is one parsed assertion.
type Rule struct {
	Kind  Kind
	Field string // equality rules only
	Want  string
}

func trimOperand(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`)
}

// Parse turns a rule cell into a Rule. The empty string is a parse error;
// callers skip absent rules before parsing.
func Parse(rule string) (*Rule, error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return nil, fmt.Errorf("empty assertion rule")
	}

	if _, operand, found := strings.Cut(trimmed, "contains"); found {
		want := trimOperand(operand)
		if want == "" {
			return nil, fmt.Errorf("contains rule has no operand: %q", rule)
		}
		return &Rule{Kind: KindContains, Want: want}, nil
	}

	if field, operand, found := strings.Cut(trimmed, "=="); found {
		name := strings.TrimSpace(field)
		want := trimOperand(operand)
		if name == "" || want == "" {
			return nil, fmt.Errorf("equality rule needs a field and a value: %q", rule)
		}
		return &Rule{Kind: KindEquals, Field: name, Want: want}, nil
	}

	return nil, fmt.Errorf("unsupported assertion rule %q (expected contains or ==)", rule)
}

// Check applies the rule to a response body.
func (r *Rule) Check(body string) (bool, string) {
	switch r.Kind {
	case KindContains:
		if !strings.Contains(body, r.Want) {
			return false, fmt.Sprintf("body does not contain %q", r.Want)
		}
		return true, ""
	case KindEquals:
		if r.Field == StatusField {
			// Verified by the status check before rules run.
			return true, ""
		}
		if !strings.Contains(body, r.Want) {
			return false, fmt.Sprintf("field %s: %q not found in body", r.Field, r.Want)
		}
		return true, ""
	default:
		return false, fmt.Sprintf("unknown rule kind %d", r.Kind)
	}
}
