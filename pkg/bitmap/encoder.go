package bitmap

import (
	"bytes"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/spf13/afero"
)

func Encode(w io.Writer, src image.Image) error {
	return imaging.Encode(w, src, imaging.PNG)
}

// Save writes src as a PNG file, creating the parent directory if needed.
func Save(fs afero.Fs, path string, src image.Image) error {
	var buf bytes.Buffer
	if err := Encode(&buf, src); err != nil {
		return err
	}

	if dir := parent(path); dir != "" {
		if exists, err := afero.DirExists(fs, dir); err != nil {
			return err
		} else if !exists {
			if err2 := fs.MkdirAll(dir, 0755); err2 != nil {
				return err2
			}
		}
	}

	return afero.WriteFile(fs, path, buf.Bytes(), 0644)
}
