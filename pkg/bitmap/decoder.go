// Package bitmap loads the uncompressed BMP files the instruction language
// can blit and writes PNG previews of rendered frames.
package bitmap

import (
	"bytes"
	"image"
	"path"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"golang.org/x/image/bmp"
)

// MaxFileSize bounds what Open will read into memory.
const MaxFileSize = 8 << 20

// Open decodes a BMP file and returns it as an NRGBA image anchored at 0,0.
func Open(fs afero.Fs, name string) (image.Image, error) {
	info, err := fs.Stat(name)
	if err != nil {
		return nil, errors.Wrapf(err, "open bitmap %q", name)
	}
	if info.Size() > MaxFileSize {
		return nil, errors.Errorf("bitmap %q too large (%d bytes)", name, info.Size())
	}

	bs, err := afero.ReadFile(fs, name)
	if err != nil {
		return nil, errors.Wrapf(err, "read bitmap %q", name)
	}

	img, err := bmp.Decode(bytes.NewReader(bs))
	if err != nil {
		return nil, errors.Wrapf(err, "decode bitmap %q", name)
	}

	return imaging.Clone(img), nil
}

func parent(name string) string {
	dir := path.Dir(name)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}
