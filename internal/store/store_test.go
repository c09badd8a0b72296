package store

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/quake-watch-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "data", "earthquakes.json"), discardLogger())
}

func TestLoad_MissingFile(t *testing.T) {
	s := newTestStore(t)

	_, _, err := s.Load()
	require.Error(t, err)
	assert.Equal(t, domain.KindEmptyDataset, domain.KindOf(err))
}

func TestLoad_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "earthquakes.json")
	require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0o644))

	s := NewFileStore(path, discardLogger())
	_, _, err := s.Load()
	require.Error(t, err)
	assert.Equal(t, domain.KindCorruptData, domain.KindOf(err))
}

func TestSaveThenLoad_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	// Unknown keys and full precision must survive the round trip.
	doc := []byte(`{"type":"FeatureCollection","metadata":{"generated":1714143000000,"title":"USGS All Earthquakes, Past Day"},"features":[{"properties":{"mag":2.5,"place":"X","time":1714143000000,"url":"https://example.com/x","tsunami":0,"ids":",hv74,"},"geometry":{"type":"Point","coordinates":[-155.3,19.4,1.21]}}]}`)

	require.NoError(t, s.Save(doc))

	feed, raw, err := s.Load()
	require.NoError(t, err)
	assert.JSONEq(t, string(doc), string(raw))
	require.Len(t, feed.Features, 1)
	assert.Equal(t, "X", feed.Features[0].Properties.Place)
}

func TestSave_IndentsOutput(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save([]byte(`{"features":[]}`)))

	_, raw, err := s.Load()
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n")
}

func TestSave_CreatesDataDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "earthquakes.json")
	s := NewFileStore(path, discardLogger())

	require.NoError(t, s.Save([]byte(`{"features":[]}`)))

	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestSave_ReplacesPreviousContent(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save([]byte(`{"features":[{"properties":{"place":"old"}}]}`)))
	require.NoError(t, s.Save([]byte(`{"features":[{"properties":{"place":"new"}}]}`)))

	feed, _, err := s.Load()
	require.NoError(t, err)
	require.Len(t, feed.Features, 1)
	assert.Equal(t, "new", feed.Features[0].Properties.Place)
}

func TestSave_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(filepath.Join(dir, "earthquakes.json"), discardLogger())

	require.NoError(t, s.Save([]byte(`{"features":[]}`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "earthquakes.json", entries[0].Name())
}

func TestSave_RejectsInvalidJSON(t *testing.T) {
	s := newTestStore(t)
	err := s.Save([]byte("not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "indent feed")
}
