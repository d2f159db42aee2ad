package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"epaper/pkg/canvas"
	"epaper/pkg/interp"
	"epaper/pkg/panel"
	"epaper/pkg/proto"
	"epaper/pkg/remote"
)

var text = flag.StringP("text", "T", "", "instruction to execute")
var file = flag.StringP("file", "F", "", "file holding the instruction to execute")
var pipe = flag.BoolP("pipe", "P", false, "serve instructions from a remote program")
var readPipe = flag.StringP("read", "r", "./EPD_to", "pipe the server reads instructions from")
var writePipe = flag.StringP("write", "w", "./EPD_from", "pipe the server writes replies to")
var serialName = flag.String("serial", "", "serve over the serial port matching this name instead of pipes")
var baudRate = flag.Int("baud", 115200, "serial baud rate")
var mkfifo = flag.Bool("mkfifo", false, "create missing pipes")
var device = flag.String("device", "epd", "panel to drive: epd, mock, term or png")
var snapshotDir = flag.String("snapshot-dir", ".", "where the png device writes frames")
var spiPort = flag.String("spi", "", "SPI port name, empty for the first one")
var busyTimeout = flag.Duration("busy-timeout", 30*time.Second, "how long to wait for the panel, 0 waits forever")
var stayAwake = flag.Bool("stay-awake", false, "do not put the panel to sleep after an instruction")
var debug = flag.BoolP("debug", "d", false, "set debug")

func main() {
	flag.Parse()

	logger, err := newLogger()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	switch {
	case *pipe:
		err = serve(logger)
	case *text != "" || *file != "":
		err = local(logger)
	default:
		flag.Usage()
		os.Exit(1)
	}

	if err != nil {
		logger.With(zap.Error(err)).Error("failed")
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	if *debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newSession(dev proto.Panel, logger *zap.Logger) (*interp.Session, error) {
	p := panel.New(dev, panel.WithTimeout(*busyTimeout), panel.WithLogger(logger))
	return interp.New(canvas.New(dev.Size()), p, interp.WithLogger(logger))
}

func local(logger *zap.Logger) error {
	instr := *text
	if *file != "" {
		var err error
		if instr, err = interp.ReadScript(afero.NewOsFs(), *file); err != nil {
			return err
		}
	}

	dev, err := openDevice(logger)
	if err != nil {
		return err
	}

	sess, err := newSession(dev, logger)
	if err != nil {
		_ = dev.Close()
		return err
	}

	ctx := context.Background()
	execErr := sess.Execute(ctx, instr)
	if execErr != nil {
		execErr = fmt.Errorf("code %d: %w", interp.CodeOf(execErr), execErr)
	}

	if *stayAwake {
		if err := dev.Close(); err != nil && execErr == nil {
			return err
		}
		return execErr
	}
	if err := sess.Panel().Close(ctx); err != nil && execErr == nil {
		return err
	}
	return execErr
}

func serve(logger *zap.Logger) error {
	app := fx.New(
		fx.Supply(logger),
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx")}
		}),
		fx.Provide(
			openDevice,
			provideSession,
			provideServer,
		),
		fx.Invoke(
			remote.Register,
		),
	)
	if err := app.Err(); err != nil {
		return err
	}

	app.Run()
	return nil
}

func provideSession(dev proto.Panel, lifecycle fx.Lifecycle, logger *zap.Logger) (*interp.Session, error) {
	sess, err := newSession(dev, logger)
	if err != nil {
		return nil, err
	}

	lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if *stayAwake {
				return dev.Close()
			}
			return sess.Panel().Close(ctx)
		},
	})
	return sess, nil
}

func provideServer(sess *interp.Session, logger *zap.Logger) *remote.Server {
	opts := []remote.ServerOption{
		remote.WithServerLogger(logger),
	}
	if !*stayAwake {
		opts = append(opts, remote.WithIdle(sess.Panel().Sleep))
	}

	return remote.NewServer(opener(logger), sess, opts...)
}

func opener(logger *zap.Logger) remote.Opener {
	if *serialName != "" {
		return func(context.Context) (proto.Conn, error) {
			s := proto.NewSerial(*serialName)
			if err := s.Open(&proto.Options{BaudRate: *baudRate}); err != nil {
				return nil, err
			}
			return s, nil
		}
	}

	return func(context.Context) (proto.Conn, error) {
		if *mkfifo {
			for _, path := range []string{*readPipe, *writePipe} {
				if err := proto.EnsureFifo(path); err != nil {
					return nil, err
				}
			}
		}

		logger.With(zap.String("read", *readPipe), zap.String("write", *writePipe)).Info("open-pipes")
		return proto.OpenPipe(*readPipe, *writePipe)
	}
}
