package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	k1 := ObjectKey("report.pdf")
	k2 := ObjectKey("report.pdf")

	assert.True(t, strings.HasPrefix(k1, "vault/"))
	assert.True(t, strings.HasSuffix(k1, "_report.pdf"))
	// Same display name must never produce the same handle.
	assert.NotEqual(t, k1, k2)
}

func TestObjectKey_StripsPathComponents(t *testing.T) {
	k := ObjectKey("../../etc/passwd")
	assert.True(t, strings.HasSuffix(k, "_passwd"))
	assert.NotContains(t, k, "..")
}
