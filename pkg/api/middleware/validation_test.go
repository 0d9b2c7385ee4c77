package middleware

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateScript(t *testing.T) {
	v := NewValidator(DefaultValidatorConfig())

	assert.NoError(t, v.ValidateScript("echo hello"))
	assert.NoError(t, v.ValidateScript("rm -rf `pwd`"), "script content is opaque; only size matters")
	assert.Error(t, v.ValidateScript(""))
	assert.Error(t, v.ValidateScript(strings.Repeat("x", 1<<20+1)))
}

func TestValidateResumeURL(t *testing.T) {
	v := NewValidator(DefaultValidatorConfig())

	assert.NoError(t, v.ValidateResumeURL("https://callbacks.example.com/resume/1"))
	assert.NoError(t, v.ValidateResumeURL("http://localhost:8080/hook"))

	assert.Error(t, v.ValidateResumeURL(""))
	assert.Error(t, v.ValidateResumeURL("not a url"))
	assert.Error(t, v.ValidateResumeURL("ftp://example.com/x"))
	assert.Error(t, v.ValidateResumeURL("/relative/path"))
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Field: "script", Message: "script is required"}
	assert.Equal(t, "script: script is required", err.Error())
}
