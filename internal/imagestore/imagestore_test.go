package imagestore

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*fileStore, string) {
	t.Helper()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	base := filepath.Join(t.TempDir(), "uploads")
	store := &fileStore{
		basePath: base,
		log:      log,
		now:      func() time.Time { return time.UnixMilli(1700000000000) },
	}
	return store, base
}

func TestSaveImagePlainBase64(t *testing.T) {
	store, base := newTestStore(t)

	data := base64.StdEncoding.EncodeToString([]byte("image-bytes"))
	path := store.SaveImage(data, "WB1", "signature", 0)

	require.Equal(t, filepath.Join("uploads", "WB1", "signature", "1700000000000_0.jpg"), path)

	written, err := os.ReadFile(filepath.Join(base, "WB1", "signature", "1700000000000_0.jpg"))
	require.NoError(t, err)
	require.Equal(t, []byte("image-bytes"), written)
}

func TestSaveImageDataURI(t *testing.T) {
	store, base := newTestStore(t)

	encoded := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	path := store.SaveImage("data:image/png;base64,"+encoded, "WB1", "pod", 2)

	require.Equal(t, filepath.Join("uploads", "WB1", "pod", "1700000000000_2.png"), path)

	_, err := os.Stat(filepath.Join(base, "WB1", "pod", "1700000000000_2.png"))
	require.NoError(t, err)
}

func TestSaveImageJpegExtensionNormalized(t *testing.T) {
	store, _ := newTestStore(t)

	encoded := base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))
	path := store.SaveImage("data:image/jpeg;base64,"+encoded, "WB1", "qc", 0)

	require.Equal(t, ".jpg", filepath.Ext(path))
}

func TestSaveImageFailuresYieldEmptyPath(t *testing.T) {
	store, _ := newTestStore(t)

	require.Empty(t, store.SaveImage("", "WB1", "qc", 0))
	require.Empty(t, store.SaveImage("   ", "WB1", "qc", 0))
	require.Empty(t, store.SaveImage("not-base64!!!", "WB1", "qc", 0))
	require.Empty(t, store.SaveImage("data:image/png;base64", "WB1", "qc", 0))
}

func TestSaveImagesKeepsPositions(t *testing.T) {
	store, _ := newTestStore(t)

	good := base64.StdEncoding.EncodeToString([]byte("ok"))
	paths := store.SaveImages([]string{good, "!!!", good}, "WB1", "dc")

	require.Len(t, paths, 3)
	require.NotEmpty(t, paths[0])
	require.Empty(t, paths[1])
	require.NotEmpty(t, paths[2])
	require.NotEqual(t, paths[0], paths[2])
}
