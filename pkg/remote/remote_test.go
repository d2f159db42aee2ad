package remote

import (
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"epaper/pkg/canvas"
	"epaper/pkg/device/virtual"
	"epaper/pkg/interp"
	"epaper/pkg/panel"
	"epaper/pkg/proto"
)

// tap records every token the server writes.
type tap struct {
	proto.Conn

	mu   sync.Mutex
	sent []string
}

func (t *tap) Write(p []byte) (int, error) {
	t.mu.Lock()
	t.sent = append(t.sent, string(p))
	t.mu.Unlock()
	return t.Conn.Write(p)
}

func (t *tap) Sent() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.sent...)
}

type recorder struct {
	mu     sync.Mutex
	instrs []string
	err    error
}

func (r *recorder) Execute(_ context.Context, instr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instrs = append(r.instrs, instr)
	return r.err
}

func (r *recorder) Instrs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.instrs...)
}

// serve starts a server on one end of a net.Pipe and returns the other end
// wrapped in a client.
func serve(t *testing.T, exec Executor, opts ...ClientOption) (*Client, *tap, <-chan error) {
	srvConn, cliConn := net.Pipe()
	tp := &tap{Conn: srvConn}

	srv := NewServer(func(context.Context) (proto.Conn, error) {
		return tp, nil
	}, exec, WithServerLogger(zaptest.NewLogger(t)), WithRetry(RetryPolicy{Interval: time.Millisecond, MaxAttempts: 1}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = cliConn.Close()
	})

	opts = append([]ClientOption{WithDrain(5 * time.Millisecond), WithClientLogger(zaptest.NewLogger(t))}, opts...)
	return NewClient(cliConn, opts...), tp, done
}

func TestParseStatus(t *testing.T) {
	assert.Equal(t, StatusOK, ParseStatus([]byte("<<START>><<OK>>")))
	assert.Equal(t, StatusMore, ParseStatus([]byte("<<START>><<MORE>>")))
	assert.Equal(t, StatusStart, ParseStatus([]byte("<<START>>")))
	assert.Equal(t, StatusExecution, ParseStatus([]byte("<<START>><<ERROR-1>>")))
	assert.Equal(t, StatusSyntax, ParseStatus([]byte("<<START>><<ERROR-2>>")))
	assert.Equal(t, StatusOverrun, ParseStatus([]byte("<<MORE>><<OVERRUN>>")))
	assert.Equal(t, StatusOverrun, ParseStatus([]byte("<<START>><<OVERRUN>>")))
	assert.Equal(t, StatusExecution, ParseStatus([]byte(ErrorToken(-1))))
	assert.Equal(t, StatusSyntax, ParseStatus([]byte("<<ERROR-2>>")))
	assert.Equal(t, StatusOverrun, ParseStatus([]byte(TokenOverrun)))
	assert.Equal(t, StatusUnknown, ParseStatus([]byte("<<HUH>>")))
}

func TestSendChunks(t *testing.T) {
	rec := &recorder{}
	var progress []int
	client, tp, _ := serve(t, rec, WithProgress(func(sent, total int) {
		assert.Equal(t, 700, total)
		progress = append(progress, sent)
	}))

	instr := "<t='" + strings.Repeat("x", 694) + "'>"
	require.Len(t, instr, 700)
	require.NoError(t, client.Send(context.Background(), instr))

	assert.Equal(t, []string{instr}, rec.Instrs())
	assert.Equal(t, []string{TokenMore, TokenMore, TokenStart, TokenOK}, tp.Sent())
	assert.Equal(t, []int{300, 600, 700}, progress)
}

func TestSendReplies(t *testing.T) {
	rec := &recorder{}
	client, _, _ := serve(t, rec)
	ctx := context.Background()

	rec.err = &interp.Error{Kind: interp.SyntaxError}
	assert.ErrorIs(t, client.Send(ctx, "<p=1:>"), ErrSyntax)

	rec.err = &interp.Error{Kind: interp.ExecutionError}
	assert.ErrorIs(t, client.Send(ctx, "<d=X>"), ErrExecution)

	rec.err = errors.New("panel on fire")
	assert.ErrorIs(t, client.Send(ctx, "<P=1>"), ErrExecution)

	rec.err = nil
	assert.NoError(t, client.Send(ctx, "<P=1>"))
	assert.Len(t, rec.Instrs(), 4)
}

func TestSendOverrun(t *testing.T) {
	rec := &recorder{}
	client, _, _ := serve(t, rec)
	ctx := context.Background()

	err := client.Send(ctx, "<"+strings.Repeat("x", interp.MaxInstruction))
	assert.ErrorIs(t, err, ErrOverrun)

	require.NoError(t, client.Send(ctx, "<p=1:1>"))
	assert.Equal(t, []string{"<p=1:1>"}, rec.Instrs())

	long := "<" + strings.Repeat(" ", interp.MaxInstruction-2) + ">"
	require.NoError(t, client.Send(ctx, long))
	assert.Len(t, rec.Instrs(), 2)
}

func TestSendIncomplete(t *testing.T) {
	rec := &recorder{}
	client, _, _ := serve(t, rec)
	ctx := context.Background()

	assert.ErrorIs(t, client.Send(ctx, "<p=1:1"), ErrIncomplete)
	require.NoError(t, client.Send(ctx, "<p=2:2>"))
	assert.Equal(t, []string{"<p=2:2>"}, rec.Instrs())
}

func TestShutdown(t *testing.T) {
	client, _, done := serve(t, &recorder{})

	require.NoError(t, client.Shutdown())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("server did not stop")
	}
}

// reply answers each chunk read from conn with the next canned reply,
// written in a single write.
func reply(conn net.Conn, replies ...string) {
	buf := make([]byte, ReadSize)
	for _, r := range replies {
		if _, err := conn.Read(buf); err != nil {
			return
		}
		if _, err := conn.Write([]byte(r)); err != nil {
			return
		}
	}
}

func TestSendCoalescedReplies(t *testing.T) {
	tests := []struct {
		reply string
		err   error
	}{
		{TokenStart + ErrorToken(-2), ErrSyntax},
		{TokenStart + ErrorToken(-1), ErrExecution},
		{TokenStart + TokenOverrun, ErrOverrun},
		{TokenStart + TokenOK, nil},
	}

	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			srvConn, cliConn := net.Pipe()
			defer srvConn.Close()
			defer cliConn.Close()

			go reply(srvConn, tt.reply)

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			err := NewClient(cliConn, WithDrain(0)).Send(ctx, "<p=1:>")
			if tt.err == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestSendAfterCancel(t *testing.T) {
	srvConn, cliConn := net.Pipe()
	defer srvConn.Close()
	defer cliConn.Close()

	client := NewClient(cliConn, WithDrain(0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	go reply(srvConn, TokenStart)
	assert.ErrorIs(t, client.Send(ctx, "<P=1>"), context.Canceled)

	go reply(srvConn, TokenOK)
	assert.NoError(t, client.Send(context.Background(), "<P=1>"))
}

func TestSendCancel(t *testing.T) {
	srvConn, cliConn := net.Pipe()
	defer srvConn.Close()
	defer cliConn.Close()

	go func() {
		buf := make([]byte, ReadSize)
		_, _ = srvConn.Read(buf)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := NewClient(cliConn, WithDrain(0)).Send(ctx, "<P=1>")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReconnect(t *testing.T) {
	conns := make(chan proto.Conn, 2)
	clients := make(chan net.Conn, 2)
	for i := 0; i < 2; i++ {
		s, c := net.Pipe()
		conns <- s
		clients <- c
	}

	rec := &recorder{}
	srv := NewServer(func(ctx context.Context) (proto.Conn, error) {
		select {
		case c := <-conns:
			return c, nil
		default:
			return nil, errors.New("no more channels")
		}
	}, rec, WithServerLogger(zaptest.NewLogger(t)), WithRetry(RetryPolicy{Interval: time.Millisecond, MaxAttempts: 3}))

	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(context.Background())
	}()

	first := <-clients
	require.NoError(t, first.Close())

	second := NewClient(<-clients, WithDrain(time.Millisecond))
	require.NoError(t, second.Send(context.Background(), "<P=2>"))
	assert.Equal(t, []string{"<P=2>"}, rec.Instrs())

	require.NoError(t, second.Shutdown())
	assert.NoError(t, <-done)
}

func TestServeGivesUp(t *testing.T) {
	calls := 0
	srv := NewServer(func(context.Context) (proto.Conn, error) {
		calls++
		return nil, errors.New("no such pipe")
	}, &recorder{}, WithRetry(RetryPolicy{Interval: time.Millisecond, MaxAttempts: 2}))

	assert.Error(t, srv.Serve(context.Background()))
	assert.Equal(t, 2, calls)
}

// render runs instr through a full server and interpreter using the given
// chunk size and returns the resulting canvas.
func render(t *testing.T, instr string, chunk int) *canvas.Canvas {
	logger := zaptest.NewLogger(t)
	c := canvas.New(64, 32)
	p := panel.New(virtual.Mock(64, 32, logger), panel.WithPollInterval(time.Millisecond))
	sess, err := interp.New(c, p, interp.WithLogger(logger))
	require.NoError(t, err)

	client, _, _ := serve(t, sess, WithChunkSize(chunk))
	require.NoError(t, client.Send(context.Background(), instr))
	return c
}

func TestChunkingIsTransparent(t *testing.T) {
	instr := "<p=2:2,d=B,l=40:20:0:1,p=10:4,d=C,P=3,p=30:10,C=5:1>"

	whole := render(t, instr, len(instr))
	bytewise := render(t, instr, 1)

	assert.True(t, whole.Primary().Equal(bytewise.Primary()))
	assert.True(t, whole.Accent().Equal(bytewise.Accent()))
	assert.Positive(t, whole.Accent().Count())
}

func TestRetryPolicy(t *testing.T) {
	p := RetryPolicy{Interval: time.Millisecond, MaxInterval: 4 * time.Millisecond, Multiplier: 2}
	assert.Equal(t, 2*time.Millisecond, p.next(time.Millisecond))
	assert.Equal(t, 4*time.Millisecond, p.next(3*time.Millisecond))

	calls := 0
	p.MaxAttempts = 3
	err := p.Do(context.Background(), zaptest.NewLogger(t), func(context.Context) error {
		calls++
		return errors.New("nope")
	})
	assert.Error(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = p.Do(context.Background(), zaptest.NewLogger(t), func(context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("nope")
		}
		return nil
	})
	assert.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.MaxAttempts = 0
	err = p.Do(ctx, zaptest.NewLogger(t), func(context.Context) error {
		return errors.New("nope")
	})
	assert.ErrorIs(t, err, context.Canceled)
}
