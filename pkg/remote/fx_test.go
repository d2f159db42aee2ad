package remote

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zaptest"

	"epaper/pkg/proto"
)

func TestRegister(t *testing.T) {
	srvConn, cliConn := net.Pipe()
	defer cliConn.Close()

	rec := &recorder{}
	srv := NewServer(func(context.Context) (proto.Conn, error) {
		return srvConn, nil
	}, rec)

	app := fxtest.New(t,
		fx.Supply(srv, zaptest.NewLogger(t)),
		fx.Invoke(Register),
	)
	done := app.Done()
	app.RequireStart()

	client := NewClient(cliConn, WithDrain(time.Millisecond))
	require.NoError(t, client.Send(context.Background(), "<P=1>"))
	require.NoError(t, client.Shutdown())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("app was not shut down")
	}
	app.RequireStop()
	assert.Equal(t, []string{"<P=1>"}, rec.Instrs())
}
