package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	e := New(CategoryInput, SeverityFatal, "source tree unreadable")
	assert.Equal(t, "input (fatal): source tree unreadable", e.Error())

	wrapped := Wrap(fmt.Errorf("open: permission denied"), CategoryExtract, SeverityFatal, "export extraction failed")
	assert.Contains(t, wrapped.Error(), "permission denied")
	assert.Equal(t, "open: permission denied", wrapped.Unwrap().Error())
}

func TestRetryability(t *testing.T) {
	assert.False(t, IsRetryable(fmt.Errorf("plain")))
	assert.False(t, IsRetryable(SourceTreeError("/x", fmt.Errorf("boom"))))
	assert.True(t, IsRetryable(PublishError("relver.decisions.core", fmt.Errorf("nats down"))))

	// Wrapping with %w must not hide retryability.
	err := fmt.Errorf("scan: %w", HistoryError("record", fmt.Errorf("db locked")))
	assert.True(t, IsRetryable(err))
	assert.Equal(t, CategoryStorage, CategoryOf(err))
}

func TestContextFields(t *testing.T) {
	e := ManifestWriteError("/a/.relver/manifest.json", fmt.Errorf("disk full"))
	assert.Equal(t, "/a/.relver/manifest.json", e.Context["path"])
	assert.Equal(t, CategoryManifest, e.Category)
	assert.False(t, e.Retryable)
}
