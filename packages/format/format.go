// Package format converts between table cell text and the shapes the rest of
// bittest works with: request headers and bodies typed into spreadsheet cells
// (often with sloppy JSON), response bodies going back into cells (pretty
// printed and truncated), and heterogeneous field values rendered for display.
package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultMaxBodyLength is the default truncation limit for response bodies
// written back into a table cell.
const DefaultMaxBodyLength = 2000

const truncationMarker = "...(truncated)"

var (
	singleQuoteRe  = regexp.MustCompile(`'`)
	trailingComma  = regexp.MustCompile(`,\s*([}\]])`)
	unquotedKeysRe = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
)

// RepairJSON attempts to turn almost-JSON from a table cell into valid JSON.
// It tries the raw text first, then a sequence of fixes: single quotes to
// double quotes, trailing commas removed, unquoted object keys quoted.
// Returns the repaired text and true on success, the original text and false
// otherwise.
func RepairJSON(s string) (string, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", false
	}
	if json.Valid([]byte(trimmed)) {
		return trimmed, true
	}

	fixed := singleQuoteRe.ReplaceAllString(trimmed, `"`)
	if json.Valid([]byte(fixed)) {
		return fixed, true
	}

	fixed = trailingComma.ReplaceAllString(fixed, "$1")
	if json.Valid([]byte(fixed)) {
		return fixed, true
	}

	fixed = unquotedKeysRe.ReplaceAllString(fixed, `$1"$2":`)
	if json.Valid([]byte(fixed)) {
		return fixed, true
	}

	return s, false
}

// ParseHeaders parses a headers cell into a map. The cell may hold a JSON
// object (possibly needing repair) or line-delimited "Key: Value" pairs.
func ParseHeaders(s string) map[string]string {
	headers := make(map[string]string)
	if strings.TrimSpace(s) == "" {
		return headers
	}

	if repaired, ok := RepairJSON(s); ok {
		var raw map[string]any
		if err := json.Unmarshal([]byte(repaired), &raw); err == nil {
			for k, v := range raw {
				headers[k] = ValueString(v)
			}
			return headers
		}
	}

	for _, line := range strings.Split(strings.TrimSpace(s), "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return headers
}

// ParseBody normalizes a body cell. If the cell holds JSON (after repair) the
// repaired text is returned with isJSON true so callers can set the content
// type; otherwise the cell text is passed through untouched.
func ParseBody(s string) (body string, isJSON bool) {
	if strings.TrimSpace(s) == "" {
		return "", false
	}
	if repaired, ok := RepairJSON(s); ok {
		return repaired, true
	}
	return s, false
}

// FormatBody prepares a response body for a table cell: JSON is pretty
// printed, anything longer than maxLen is truncated with a marker. A maxLen
// of zero or less means DefaultMaxBodyLength.
func FormatBody(body string, maxLen int) string {
	if body == "" {
		return ""
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxBodyLength
	}

	out := body
	if json.Valid([]byte(body)) {
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(body), "", "  "); err == nil {
			out = buf.String()
		}
	}

	if len(out) > maxLen {
		return out[:maxLen] + "\n" + truncationMarker
	}
	return out
}

// JoinURL joins a base URL and a path. Absolute paths (http/https) are
// returned as-is.
func JoinURL(base, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if base == "" {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// ValueString renders a heterogeneous table field value for display. Option
// lists become comma separated names, nested objects prefer their "text" or
// "name" member, numbers drop a trailing .0.
func ValueString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, ValueString(item))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		for _, key := range []string{"text", "name", "link"} {
			if s, ok := val[key].(string); ok && s != "" {
				return s
			}
		}
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// FormatDuration renders a duration for the run summary: sub-second values in
// milliseconds, under a minute in seconds, otherwise minutes and seconds.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	default:
		minutes := int(d.Minutes())
		seconds := d.Seconds() - float64(minutes)*60
		return fmt.Sprintf("%dm%.1fs", minutes, seconds)
	}
}

// SortedKeys returns the keys of a string map in sorted order, for stable
// display output.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
