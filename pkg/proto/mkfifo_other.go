//go:build !unix

package proto

import (
	"github.com/pkg/errors"
)

func mkfifo(path string, _ uint32) error {
	return errors.Errorf("named pipes are not supported here: %s", path)
}
