package credentials

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeKey(t *testing.T, dir, name, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o600))
}

func TestLoadTrimsKey(t *testing.T) {
	dir := t.TempDir()
	writeKey(t, dir, IEXCloudFile, "sk_abc123\r\n")

	key, err := NewStore(dir).Load(IEXCloud)
	require.NoError(t, err)
	assert.Equal(t, "sk_abc123", key)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewStore(t.TempDir()).Load(Tradier)
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Contains(t, err.Error(), "Tradier")
}

func TestLoadWrongMarker(t *testing.T) {
	dir := t.TempDir()
	writeKey(t, dir, TradierFile, "abc123")

	_, err := NewStore(dir).Load(Tradier)
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestLoadAmbiguousDuplicate(t *testing.T) {
	dir := t.TempDir()
	writeKey(t, dir, IEXCloudFile, "sk_one")
	writeKey(t, dir, IEXCloudFile+".txt", "sk_two")

	_, err := NewStore(dir).Load(IEXCloud)
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Contains(t, err.Error(), "ambiguous")
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	writeKey(t, dir, IEXCloudFile, "sk_live")
	writeKey(t, dir, TradierFile, "Bearer tok\n")

	keys, err := NewStore(dir).LoadAll()
	require.NoError(t, err)
	assert.Equal(t, Keys{IEXCloud: "sk_live", TradierBearer: "Bearer tok"}, keys)
}

func TestLoadAllStopsAtFirstMissing(t *testing.T) {
	dir := t.TempDir()
	writeKey(t, dir, TradierFile, "Bearer tok")

	_, err := NewStore(dir).LoadAll()
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Contains(t, err.Error(), "IEX Cloud")
}
