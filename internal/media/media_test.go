package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)

func TestSniff(t *testing.T) {
	ext, err := Sniff(pngBytes, 1024)
	require.NoError(t, err)
	assert.Equal(t, ".png", ext)

	ext, err = Sniff([]byte("GIF89a......"), 0)
	require.NoError(t, err)
	assert.Equal(t, ".gif", ext)

	_, err = Sniff([]byte("just some text"), 0)
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = Sniff(pngBytes, 8)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = Sniff(nil, 0)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestLocalStoreSaveDelete(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)

	img, err := store.Save(context.Background(), pngBytes)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(img.URL, "/uploads/products/product_"))
	assert.True(t, strings.HasSuffix(img.PublicID, ".png"))

	onDisk := filepath.Join(dir, filepath.FromSlash(img.PublicID))
	_, err = os.Stat(onDisk)
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), img.PublicID))
	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err))

	// second delete is quiet, traversal is not
	assert.NoError(t, store.Delete(context.Background(), img.PublicID))
	assert.Error(t, store.Delete(context.Background(), "../../etc/passwd"))
}

type fakeCloud struct {
	uploaded  uploader.UploadParams
	destroyed string
	fail      bool
}

func (f *fakeCloud) Upload(_ context.Context, _ interface{}, p uploader.UploadParams) (*uploader.UploadResult, error) {
	f.uploaded = p
	if f.fail {
		return &uploader.UploadResult{Error: api.ErrorResp{Message: "Invalid image file"}}, nil
	}
	return &uploader.UploadResult{SecureURL: "https://res.cloudinary.com/demo/" + p.PublicID, PublicID: p.Folder + "/" + p.PublicID}, nil
}

func (f *fakeCloud) Destroy(_ context.Context, p uploader.DestroyParams) (*uploader.DestroyResult, error) {
	f.destroyed = p.PublicID
	if f.fail {
		return nil, errors.New("network down")
	}
	return &uploader.DestroyResult{Result: "ok"}, nil
}

func TestCloudinaryStore(t *testing.T) {
	fc := &fakeCloud{}
	store := &CloudinaryStore{api: fc}

	img, err := store.Save(context.Background(), pngBytes)
	require.NoError(t, err)
	assert.Equal(t, cloudFolder, fc.uploaded.Folder)
	assert.Equal(t, cloudTransform, fc.uploaded.Transformation)
	assert.True(t, strings.HasPrefix(img.PublicID, cloudFolder+"/product_"))

	require.NoError(t, store.Delete(context.Background(), img.PublicID))
	assert.Equal(t, img.PublicID, fc.destroyed)

	fc.fail = true
	_, err = store.Save(context.Background(), pngBytes)
	assert.ErrorContains(t, err, "Invalid image file")
	assert.Error(t, store.Delete(context.Background(), "x"))

	_, err = store.Save(context.Background(), []byte("not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}
