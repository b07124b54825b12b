package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeRawFile(dir string, content []byte) error {
	return os.WriteFile(filepath.Join(dir, snapshotFile), content, 0o644)
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, s.Save(NamespaceFileHash, "a.go", []byte("deadbeef")))

	v, ok := s.Load(NamespaceFileHash, "a.go")
	require.True(t, ok)
	require.Equal(t, "deadbeef", string(v))

	_, ok = s.Load(NamespaceFileHash, "missing.go")
	require.False(t, ok)
}

func TestStore_ReopenPersists(t *testing.T) {
	dir := t.TempDir()
	s1, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s1.Save(NamespaceMeta, MetaKeyRevision, []byte("rev1")))

	s2, err := Open(dir)
	require.NoError(t, err)
	v, ok := s2.Load(NamespaceMeta, MetaKeyRevision)
	require.True(t, ok)
	require.Equal(t, "rev1", string(v))
}

func TestStore_SaveManyAllOrNothing(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	err = s.SaveMany(NamespaceFileSymbols, []Entry{
		{Key: "a.go", Value: []byte("sym_a")},
		{Key: "b.go", Value: []byte("sym_b")},
	})
	require.NoError(t, err)

	va, _ := s.Load(NamespaceFileSymbols, "a.go")
	vb, _ := s.Load(NamespaceFileSymbols, "b.go")
	require.Equal(t, "sym_a", string(va))
	require.Equal(t, "sym_b", string(vb))
}

func TestStore_DeleteAndScan(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, s.Save(NamespaceFileHash, "a.go", []byte("1")))
	require.NoError(t, s.Save(NamespaceFileHash, "b.go", []byte("2")))

	entries := s.Scan(NamespaceFileHash)
	require.Len(t, entries, 2)

	require.NoError(t, s.Delete(NamespaceFileHash, "a.go"))
	entries = s.Scan(NamespaceFileHash)
	require.Len(t, entries, 1)
	require.Equal(t, "b.go", entries[0].Key)
}

func TestStore_CorruptSignatureRejected(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, writeRawFile(dir, []byte("not a valid store file")))

	_, err := Open(dir)
	require.Error(t, err)
}
