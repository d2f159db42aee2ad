package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"epaper/pkg/interp"
	"epaper/pkg/proto"
	"epaper/pkg/remote"
)

var readPipe = flag.StringP("read", "r", "./EPD_from", "pipe replies are read from")
var writePipe = flag.StringP("write", "w", "./EPD_to", "pipe instructions are written to")
var text = flag.StringP("text", "T", "", "instruction to send")
var file = flag.StringP("file", "F", "", "file holding the instruction to send")
var closeServer = flag.Bool("close", false, "ask the server to stop")
var runClockFace = flag.Bool("clock", false, "draw an analog clock every minute")
var progress = flag.Bool("progress", false, "show transfer progress")
var debug = flag.BoolP("debug", "d", false, "set debug")

func main() {
	flag.Parse()

	newLogger := zap.NewProduction
	if *debug {
		newLogger = zap.NewDevelopment
	}
	logger, err := newLogger()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.With(zap.Error(err)).Error("failed")
		os.Exit(1)
	}
}

func run(logger *zap.Logger) error {
	if *text == "" && *file == "" && !*closeServer && !*runClockFace {
		flag.Usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := proto.OpenPipe(*readPipe, *writePipe)
	if err != nil {
		return err
	}

	opts := []remote.ClientOption{remote.WithClientLogger(logger)}
	if *progress {
		opts = append(opts, remote.WithProgress(newProgress().update))
	}

	client := remote.NewClient(conn, opts...)
	defer client.Close()

	if *text != "" {
		if err := client.Send(ctx, *text); err != nil {
			return err
		}
	}

	if *file != "" {
		instr, err := interp.ReadScript(afero.NewOsFs(), *file)
		if err != nil {
			return err
		}
		if err := client.Send(ctx, instr); err != nil {
			return err
		}
	}

	if *runClockFace {
		if err := runClock(ctx, client, logger); err != nil {
			return err
		}
	}

	if *closeServer {
		return client.Shutdown()
	}
	return nil
}

// transfer shows one bar per instruction.
type transfer struct {
	bar  *progressbar.ProgressBar
	last int
}

func newProgress() *transfer {
	return &transfer{}
}

func (t *transfer) update(sent, total int) {
	if t.bar == nil || sent <= t.last {
		t.bar = progressbar.DefaultBytes(int64(total), "sending")
	}
	t.last = sent
	_ = t.bar.Set(sent)
}
