package assertions

import (
	"fmt"
	"strconv"
)

// Validate checks an actual status and body against an optional expected
// status (string-encoded integer) and an optional rule string. An empty
// expected status or rule skips that check. The returned message names what
// went wrong; it is empty on pass.
func Validate(status int, body, expectedStatus, rule string) (bool, string) {
	if expectedStatus != "" {
		want, err := strconv.Atoi(expectedStatus)
		if err != nil {
			return false, fmt.Sprintf("expected status is not numeric: %q", expectedStatus)
		}
		if status != want {
			return false, fmt.Sprintf("status mismatch: expected %d, got %d", want, status)
		}
	}

	if rule != "" {
		parsed, err := Parse(rule)
		if err != nil {
			return false, fmt.Sprintf("invalid assertion rule: %v", err)
		}
		if ok, msg := parsed.Check(body); !ok {
			return false, msg
		}
	}

	return true, ""
}
