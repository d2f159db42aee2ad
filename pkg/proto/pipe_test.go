//go:build unix

package proto

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipe(t *testing.T) {
	dir := t.TempDir()
	to := filepath.Join(dir, "EPD_to")
	from := filepath.Join(dir, "EPD_from")
	require.NoError(t, EnsureFifo(to))
	require.NoError(t, EnsureFifo(from))
	require.NoError(t, EnsureFifo(to))

	server, err := OpenPipe(to, from)
	require.NoError(t, err)
	defer server.Close()

	client, err := OpenPipe(from, to)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Write([]byte("<p=1:1>"))
	require.NoError(t, err)

	buf := make([]byte, 64)
	n, err := server.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "<p=1:1>", string(buf[:n]))

	require.NoError(t, client.SetReadDeadline(time.Now().Add(10*time.Millisecond)))
	_, err = client.Read(buf)
	assert.ErrorIs(t, err, os.ErrDeadlineExceeded)
}
