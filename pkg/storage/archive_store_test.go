package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalArchiveStoreRoundTrip(t *testing.T) {
	store, err := NewLocalArchiveStore(t.TempDir())
	require.NoError(t, err)

	ref, err := store.Store(context.Background(), "run-1", []byte("conclusion: success\n"))
	require.NoError(t, err)
	assert.FileExists(t, ref)

	got, err := store.Retrieve(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "conclusion: success\n", string(got))
}

func TestLocalArchiveStoreCreatesBaseDir(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "archive")
	_, err := NewLocalArchiveStore(base)
	require.NoError(t, err)
	assert.DirExists(t, base)
}

func TestS3ExtractKey(t *testing.T) {
	s := &S3ArchiveStore{bucket: "run-logs"}

	assert.Equal(t, "logs/2026/08/31/run-1.log", s.extractKey("s3://run-logs/logs/2026/08/31/run-1.log"))
	assert.Equal(t, "already/a/key.log", s.extractKey("already/a/key.log"))
}
