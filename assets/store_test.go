package assets

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ABH36/Machine-test/apperr"
	"github.com/ABH36/Machine-test/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// smallest valid PNG header plus IHDR chunk
var pngHeader = []byte{
	0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A,
	0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x02, 0x00, 0x00, 0x00, 0x90, 0x77, 0x53, 0xDE,
}

func TestLocalStore_Upload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "/uploads/", zaptest.NewLogger(t))
	require.NoError(t, err)

	url, err := store.Upload(context.Background(), bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/"), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)

	_, err = os.Stat(filepath.Join(dir, strings.TrimPrefix(url, "/uploads/")))
	assert.NoError(t, err)
}

func TestLocalStore_Upload_Rejects(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/uploads", zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = store.Upload(context.Background(), strings.NewReader("plain text, not an image"))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = store.Upload(context.Background(), bytes.NewReader(nil))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	big := append(append([]byte{}, pngHeader...), make([]byte, MaxUploadSize)...)
	_, err = store.Upload(context.Background(), bytes.NewReader(big))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestNew_DisabledWithoutDir(t *testing.T) {
	store, err := New(config.AssetsConfig{}, zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = store.Upload(context.Background(), bytes.NewReader(pngHeader))
	assert.Equal(t, apperr.KindUpstreamUnavailable, apperr.KindOf(err))
}
