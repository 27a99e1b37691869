package badger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", WithInMemory())
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "nested", "db")
	backend, err := OpenBackend(tmpDir)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	info, err := os.Stat(tmpDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenBackend_PathIsFile(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(tmpFile, []byte("x"), 0o644))

	_, err := OpenBackend(tmpFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a directory")
}

func TestOpenBackend_EmptyPath(t *testing.T) {
	_, err := OpenBackend("")
	assert.Error(t, err)
}

func TestBackend_UpdateCommits(t *testing.T) {
	backend, err := OpenBackend("", WithInMemory())
	require.NoError(t, err)
	defer backend.Close()

	require.NoError(t, backend.Update(func(tx *badger.Txn) error {
		return tx.Set([]byte("k"), []byte("v"))
	}))

	err = backend.View(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte("k"))
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		assert.Equal(t, []byte("v"), val)
		return err
	})
	require.NoError(t, err)
}

func TestBackend_UpdateDiscardsOnError(t *testing.T) {
	backend, err := OpenBackend("", WithInMemory())
	require.NoError(t, err)
	defer backend.Close()

	boom := errors.New("boom")
	err = backend.Update(func(tx *badger.Txn) error {
		if err := tx.Set([]byte("k"), []byte("v")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	err = backend.View(func(tx *badger.Txn) error {
		_, err := tx.Get([]byte("k"))
		return err
	})
	assert.ErrorIs(t, err, badger.ErrKeyNotFound)
}

func TestBackend_Sequence(t *testing.T) {
	backend, err := OpenBackend("", WithInMemory())
	require.NoError(t, err)
	defer backend.Close()

	seq, err := backend.Sequence([]byte("seq"))
	require.NoError(t, err)
	defer seq.Release()

	first, err := seq.Next()
	require.NoError(t, err)
	second, err := seq.Next()
	require.NoError(t, err)
	assert.Equal(t, first+1, second)
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", WithInMemory())
	require.NoError(t, err)

	assert.False(t, backend.IsClosed())
	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())
}

func TestKeys(t *testing.T) {
	assert.Equal(t, []byte("coll:f1gpt"), makeCollectionKey("f1gpt"))
	assert.Equal(t, []byte("doc:f1gpt\x00abc"), makeDocumentKey("f1gpt", "abc"))
	assert.NotEqual(t,
		makeDocumentPrefix("f1"),
		makeDocumentKey("f1gpt", "")[:len(makeDocumentPrefix("f1"))],
	)
}
