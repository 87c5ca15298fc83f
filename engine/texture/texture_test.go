package texture

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceholderAlwaysPresent(t *testing.T) {
	r := NewRegistry()
	tex, ok := r.Get(PlaceholderID)
	require.True(t, ok, "placeholder must exist before any texture is loaded")
	assert.Equal(t, uint32(1), tex.Width)
	assert.Equal(t, uint32(1), tex.Height)
	assert.Equal(t, []byte{255, 255, 255, 255}, tex.Pixels)
}

func TestIDsMonotonicAndNeverZero(t *testing.T) {
	r := NewRegistry()
	var prev uint64
	for i := 0; i < 5; i++ {
		id, err := r.RegisterPixels(1, 1, []byte{0, 0, 0, 255})
		require.NoError(t, err)
		assert.NotZero(t, id)
		assert.Greater(t, id, prev)
		prev = id
	}
}

func TestRegisterDecodedImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	r := NewRegistry()
	id := r.Register(img)

	tex, ok := r.Get(id)
	require.True(t, ok)
	assert.Equal(t, uint32(4), tex.Width)
	assert.Equal(t, uint32(2), tex.Height)
	assert.Len(t, tex.Pixels, 4*4*2)
	assert.Equal(t, byte(255), tex.Pixels[0])
}

func TestRegisterPixelsRejectsBadLength(t *testing.T) {
	r := NewRegistry()
	_, err := r.RegisterPixels(2, 2, []byte{0, 0, 0})
	assert.Error(t, err)
}

func TestGetMissingID(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Get(42)
	assert.False(t, ok)
}

func TestLoadMissingFile(t *testing.T) {
	r := NewRegistry()
	_, err := r.Load("does/not/exist.png")
	assert.Error(t, err)
}

// fakeUploader records upload calls.
type fakeUploader struct {
	ids  []uint64
	fail bool
}

func (f *fakeUploader) RegisterTexture(id uint64, width, height uint32, pixels []byte) error {
	if f.fail {
		return assert.AnError
	}
	f.ids = append(f.ids, id)
	return nil
}

func TestUploadPushesPendingOnce(t *testing.T) {
	r := NewRegistry()
	id, err := r.RegisterPixels(1, 1, []byte{1, 2, 3, 255})
	require.NoError(t, err)

	up := &fakeUploader{}
	require.NoError(t, r.Upload(up))
	assert.ElementsMatch(t, []uint64{PlaceholderID, id}, up.ids)

	// A second upload with nothing new is a no-op.
	up.ids = nil
	require.NoError(t, r.Upload(up))
	assert.Empty(t, up.ids)

	// Newly registered textures are picked up by the next upload.
	id2, err := r.RegisterPixels(1, 1, []byte{9, 9, 9, 255})
	require.NoError(t, err)
	require.NoError(t, r.Upload(up))
	assert.Equal(t, []uint64{id2}, up.ids)
}

func TestUploadFailurePropagates(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Upload(&fakeUploader{fail: true}))
}
