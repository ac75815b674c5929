package kvstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set("k", []byte(`{"a":1}`)))
	got, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), got)

	require.NoError(t, s.Delete("k"))
	_, err = s.Get("k")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent key is not an error.
	assert.NoError(t, s.Delete("k"))
}

func TestMemoryStoreCopiesBytes(t *testing.T) {
	s := NewMemoryStore()
	value := []byte("original")
	require.NoError(t, s.Set("k", value))

	value[0] = 'X'
	got, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got)

	got[0] = 'Y'
	again, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again)
}

func TestJSONHelpers(t *testing.T) {
	s := NewMemoryStore()
	type snapshot struct {
		Names []string `json:"names"`
	}

	require.NoError(t, SetJSON(s, "snap", snapshot{Names: []string{"a", "b"}}))

	var out snapshot
	require.NoError(t, GetJSON(s, "snap", &out))
	assert.Equal(t, []string{"a", "b"}, out.Names)

	assert.ErrorIs(t, GetJSON(s, "missing", &out), ErrNotFound)

	require.NoError(t, s.Set("bad", []byte("{not json")))
	assert.Error(t, GetJSON(s, "bad", &out))
}

func TestFileStoreRoundTrip(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Get("column-customization-devices")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set("column-customization-devices", []byte(`{"columnOrder":[]}`)))
	got, err := s.Get("column-customization-devices")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"columnOrder":[]}`), got)

	require.NoError(t, s.Delete("column-customization-devices"))
	_, err = s.Get("column-customization-devices")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, s.Delete("column-customization-devices"))
}

func TestFileStoreRejectsUnsafeKeys(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "a/b", "../escape", "a b", "a\x00b"} {
		assert.Error(t, s.Set(key, []byte("x")), "key %q", key)
		_, err := s.Get(key)
		assert.Error(t, err, "key %q", key)
	}
}

func TestFileStoreOverwriteIsAtomicReplacement(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Set("k", []byte("first")))
	require.NoError(t, s.Set("k", []byte("second")))

	got, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}
