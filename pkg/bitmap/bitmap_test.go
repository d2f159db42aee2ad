package bitmap

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func sample() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(0, 0, color.Black)
	img.Set(1, 0, color.White)
	img.Set(2, 1, color.RGBA{R: 0xff, A: 0xff})
	return img
}

func TestOpen(t *testing.T) {
	fs := afero.NewMemMapFs()

	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, sample()))
	require.NoError(t, afero.WriteFile(fs, "logo.bmp", buf.Bytes(), 0644))

	img, err := Open(fs, "logo.bmp")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())

	r, g, b, _ := img.At(2, 1).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Zero(t, g)
	assert.Zero(t, b)
}

func TestOpenErrors(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := Open(fs, "missing.bmp")
	assert.Error(t, err)

	require.NoError(t, afero.WriteFile(fs, "bad.bmp", []byte("not a bitmap"), 0644))
	_, err = Open(fs, "bad.bmp")
	assert.Error(t, err)
}

func TestSave(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, Save(fs, "out/frame.png", sample()))

	bs, err := afero.ReadFile(fs, "out/frame.png")
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(bs))
	require.NoError(t, err)
	assert.Equal(t, 3, img.Bounds().Dx())
}
