package reliability

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GameDesignerMohamed/Agent-E-sub001/pkg/logger"
)

type memoryStore struct {
	objects map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (m *memoryStore) Upload(ctx context.Context, key string, body io.Reader, size int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[key] = data
	return nil
}

func (m *memoryStore) List(ctx context.Context, prefix string) ([]types.Object, error) {
	var out []types.Object
	for key, data := range m.objects {
		out = append(out, types.Object{
			Key:  aws.String(key),
			Size: aws.Int64(int64(len(data))),
		})
	}
	return out, nil
}

func (m *memoryStore) Delete(ctx context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func testService(t *testing.T, store ObjectStore) *BackupService {
	t.Helper()
	dataDir := t.TempDir()
	archivePath := filepath.Join(dataDir, "decisions.db")
	require.NoError(t, os.WriteFile(archivePath, bytes.Repeat([]byte("x"), 256), 0o644))
	return NewBackupService(store, archivePath, dataDir, logger.New(logger.Config{Level: "error"}))
}

func TestCreateAndUploadProducesArchive(t *testing.T) {
	store := newMemoryStore()
	s := testService(t, store)

	require.NoError(t, s.CreateAndUpload(context.Background()))
	require.Len(t, store.objects, 1)
	for key, data := range store.objects {
		assert.Contains(t, key, backupPrefix)
		assert.NotEmpty(t, data)
	}
}

func TestListBackupsNewestFirst(t *testing.T) {
	store := newMemoryStore()
	s := testService(t, store)

	store.objects[backupPrefix+"2026-08-01-000000.tar.gz"] = []byte("a")
	store.objects[backupPrefix+"2026-08-20-000000.tar.gz"] = []byte("b")
	store.objects["unrelated.txt"] = []byte("c")

	backups, err := s.ListBackups(context.Background())
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, backupPrefix+"2026-08-20-000000.tar.gz", backups[0].Filename)
}

func TestRotateKeepsNewestThree(t *testing.T) {
	store := newMemoryStore()
	s := testService(t, store)

	old := time.Now().AddDate(0, 0, -90)
	for i := 0; i < 5; i++ {
		name := backupPrefix + old.AddDate(0, 0, i).Format(timestampLayout) + ".tar.gz"
		store.objects[name] = []byte("x")
	}

	require.NoError(t, s.RotateOldBackups(context.Background(), 30))
	assert.Len(t, store.objects, 3)
}

func TestRotateZeroRetentionKeepsEverything(t *testing.T) {
	store := newMemoryStore()
	s := testService(t, store)

	old := time.Now().AddDate(0, 0, -90)
	for i := 0; i < 5; i++ {
		name := backupPrefix + old.AddDate(0, 0, i).Format(timestampLayout) + ".tar.gz"
		store.objects[name] = []byte("x")
	}

	require.NoError(t, s.RotateOldBackups(context.Background(), 0))
	assert.Len(t, store.objects, 5)
}
