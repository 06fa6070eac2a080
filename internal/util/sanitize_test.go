package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeForLog(t *testing.T) {
	assert.Equal(t, "", SanitizeForLog(""))
	assert.Equal(t, "one two", SanitizeForLog("one\ntwo"))
	assert.Equal(t, "one two", SanitizeForLog("one\r\ntwo"))
	assert.Equal(t, "tab here", SanitizeForLog("tab\there"))
	assert.Equal(t, "plain text", SanitizeForLog("plain text"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "abc", Truncate("abcdef", 3))
	assert.Equal(t, "", Truncate("", 5))
}
