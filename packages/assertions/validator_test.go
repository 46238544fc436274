package assertions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_StatusMatch(t *testing.T) {
	ok, msg := Validate(200, `{"status": "ok"}`, "200", "")
	assert.True(t, ok)
	assert.Empty(t, msg)
}

func TestValidate_StatusMismatch(t *testing.T) {
	ok, msg := Validate(404, "", "200", "")
	assert.False(t, ok)
	assert.Equal(t, "status mismatch: expected 200, got 404", msg)
}

func TestValidate_NonNumericExpectedStatus(t *testing.T) {
	ok, msg := Validate(200, "", "abc", "")
	assert.False(t, ok)
	assert.Contains(t, msg, "not numeric")
}

func TestValidate_EmptyChecksPass(t *testing.T) {
	ok, msg := Validate(500, "anything", "", "")
	assert.True(t, ok)
	assert.Empty(t, msg)
}

func TestValidate_StatusAndRule(t *testing.T) {
	ok, _ := Validate(200, `{"result": "created"}`, "200", `contains "created"`)
	assert.True(t, ok)

	ok, msg := Validate(200, `{"result": "created"}`, "200", `contains "deleted"`)
	assert.False(t, ok)
	assert.Contains(t, msg, "deleted")
}

func TestValidate_StatusFailureShortCircuitsRule(t *testing.T) {
	ok, msg := Validate(500, `{"result": "created"}`, "200", `contains "created"`)
	assert.False(t, ok)
	assert.Contains(t, msg, "status mismatch")
}

func TestValidate_MalformedRule(t *testing.T) {
	ok, msg := Validate(200, "", "200", "no operator here")
	assert.False(t, ok)
	assert.Contains(t, msg, "invalid assertion rule")
}
