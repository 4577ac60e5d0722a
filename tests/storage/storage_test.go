package storage_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/medisupply/devis-api/internal/config"
	"github.com/medisupply/devis-api/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLocalStorage(t *testing.T) (*storage.LocalStorage, string) {
	t.Helper()
	tempDir := t.TempDir()
	ls, err := storage.NewLocalStorage(tempDir)
	require.NoError(t, err)
	return ls, tempDir
}

func TestNewLocalStorage_CreatesDirectory(t *testing.T) {
	basePath := filepath.Join(t.TempDir(), "exports")

	ls, err := storage.NewLocalStorage(basePath)
	require.NoError(t, err)
	assert.NotNil(t, ls)

	info, err := os.Stat(basePath)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLocalStorage_Upload(t *testing.T) {
	ls, _ := newLocalStorage(t)

	tests := []struct {
		name        string
		filename    string
		contentType string
		content     []byte
	}{
		{
			name:        "csv export",
			filename:    "DEV-202608-0001.csv",
			contentType: "text/csv",
			content:     []byte("Code;Designation;Quantite\nTST-001;Gants nitrile;10\n"),
		},
		{
			name:        "filename with spaces",
			filename:    "devis pharmacie du port.csv",
			contentType: "text/csv",
			content:     []byte("Code;Designation\n"),
		},
		{
			name:        "empty file",
			filename:    "empty.csv",
			contentType: "text/csv",
			content:     []byte{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storagePath, size, err := ls.Upload(context.Background(), tt.filename, tt.contentType, bytes.NewReader(tt.content))

			require.NoError(t, err)
			assert.NotEmpty(t, storagePath)
			assert.Equal(t, int64(len(tt.content)), size)
			assert.Equal(t, filepath.Ext(tt.filename), filepath.Ext(storagePath))
		})
	}
}

func TestLocalStorage_DownloadRoundtrip(t *testing.T) {
	ls, _ := newLocalStorage(t)

	content := []byte("Code;Designation;Quantite\nTST-001;Paracétamol 500mg;25\n")
	storagePath, _, err := ls.Upload(context.Background(), "DEV-202608-0002.csv", "text/csv", bytes.NewReader(content))
	require.NoError(t, err)

	reader, err := ls.Download(context.Background(), storagePath)
	require.NoError(t, err)
	defer reader.Close()

	downloaded, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, content, downloaded)
}

func TestLocalStorage_Download_FileNotFound(t *testing.T) {
	ls, _ := newLocalStorage(t)

	reader, err := ls.Download(context.Background(), "no/such/export.csv")

	assert.Error(t, err)
	assert.Nil(t, reader)
	assert.Contains(t, err.Error(), "file not found")
}

func TestLocalStorage_Delete(t *testing.T) {
	ls, tempDir := newLocalStorage(t)

	storagePath, _, err := ls.Upload(context.Background(), "stale.csv", "text/csv", bytes.NewReader([]byte("old export")))
	require.NoError(t, err)

	require.NoError(t, ls.Delete(context.Background(), storagePath))

	_, err = os.Stat(filepath.Join(tempDir, storagePath))
	assert.True(t, os.IsNotExist(err))

	// Deleting again is a no-op, not an error.
	assert.NoError(t, ls.Delete(context.Background(), storagePath))
}

func TestLocalStorage_UniqueStoragePaths(t *testing.T) {
	ls, _ := newLocalStorage(t)

	// Re-exporting the same quote must never overwrite an earlier snapshot.
	paths := make(map[string]bool)
	content := []byte("same quote, new export")

	for i := 0; i < 5; i++ {
		storagePath, _, err := ls.Upload(context.Background(), "DEV-202608-0003.csv", "text/csv", bytes.NewReader(content))
		require.NoError(t, err)

		assert.False(t, paths[storagePath], "storage path should be unique: %s", storagePath)
		paths[storagePath] = true
	}

	assert.Len(t, paths, 5)
}

func TestStorageInterfaceCompliance(t *testing.T) {
	var _ storage.Storage = (*storage.LocalStorage)(nil)
	var _ storage.Storage = (*storage.AzureBlobStorage)(nil)
}

func TestNewStorage_LocalMode(t *testing.T) {
	store, err := storage.NewStorage(&config.StorageConfig{
		Mode:          "local",
		LocalBasePath: t.TempDir(),
	}, zap.NewNop())

	require.NoError(t, err)
	assert.IsType(t, &storage.LocalStorage{}, store)
}

func TestNewStorage_CloudModeRequiresConnectionString(t *testing.T) {
	_, err := storage.NewStorage(&config.StorageConfig{Mode: "cloud"}, zap.NewNop())
	assert.Error(t, err)
}

func TestNewStorage_InvalidMode(t *testing.T) {
	_, err := storage.NewStorage(&config.StorageConfig{Mode: "ftp"}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported storage mode")
}
