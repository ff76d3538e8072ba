package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	at := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	key := ObjectKey("u1", "blood test.pdf", at)
	assert.True(t, strings.HasPrefix(key, "reports/u1/2026-03-04/"))
	assert.True(t, strings.HasSuffix(key, "-blood test.pdf"))

	key = ObjectKey("u1", "../../etc/passwd", at)
	assert.True(t, strings.HasSuffix(key, "-passwd"))
	assert.NotContains(t, key, "..")

	key = ObjectKey("u1", "", at)
	assert.True(t, strings.HasSuffix(key, "-report"))
}

func TestEscapeKey(t *testing.T) {
	assert.Equal(t, "reports/u1/a%20b.pdf", escapeKey("reports/u1/a b.pdf"))
}

func TestNewS3ReportStoreRequiresBucket(t *testing.T) {
	_, err := NewS3ReportStore(context.Background(), S3Config{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestDisabledStore(t *testing.T) {
	_, err := Disabled{}.Save(context.Background(), Upload{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
