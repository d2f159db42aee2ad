// Package epd7in5b drives the Waveshare 7.5" tri-color (B) panel over SPI.
package epd7in5b

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"epaper/pkg/canvas"
	"epaper/pkg/proto"
)

const (
	Width  = 640
	Height = 384
)

const (
	PanelSetting        = 0x00
	PowerSetting        = 0x01
	PowerOff            = 0x02
	PowerOn             = 0x04
	BoosterSoftStart    = 0x06
	DeepSleep           = 0x07
	DataStart           = 0x10
	DisplayRefresh      = 0x12
	PLLControl          = 0x30
	VCOMDataInterval    = 0x50
	TCONSetting         = 0x60
	TCONResolution      = 0x61
	SPIFlashControl     = 0x65
	GetStatus           = 0x71
	VCMDCSetting        = 0x82
	FlashMode           = 0xe5
	DeepSleepCheckValue = 0xa5
)

// Border values for VCOMDataInterval.
const (
	BorderBlack  = 0x17
	BorderWhite  = 0x77
	BorderAccent = 0x97
)

type Pins struct {
	RST  string
	DC   string
	CS   string
	BUSY string
}

// DefaultPins is the Waveshare HAT wiring. CS is left to the SPI driver.
var DefaultPins = Pins{
	RST:  "GPIO17",
	DC:   "GPIO25",
	BUSY: "GPIO24",
}

type Config struct {
	Port         string
	Frequency    physic.Frequency
	Pins         Pins
	PollInterval time.Duration
	BusyTimeout  time.Duration
}

var DefaultConfig = Config{
	Frequency:    4 * physic.MegaHertz,
	Pins:         DefaultPins,
	PollInterval: 10 * time.Millisecond,
}

type outPin interface {
	Out(l gpio.Level) error
}

type inPin interface {
	Read() gpio.Level
}

type txConn interface {
	Tx(w, r []byte) error
}

// Open brings up the periph host, the SPI port and the control pins.
func Open(cfg Config, logger *zap.Logger) (*EPD, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "periph host init")
	}

	port, err := spireg.Open(cfg.Port)
	if err != nil {
		return nil, errors.Wrap(err, "open spi")
	}

	conn, err := port.Connect(cfg.Frequency, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, errors.Wrap(err, "connect spi")
	}

	pin := func(name string) (gpio.PinIO, error) {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, errors.Errorf("gpio %s not found", name)
		}
		return p, nil
	}

	var rst, dc, busy gpio.PinIO
	if rst, err = pin(cfg.Pins.RST); err != nil {
		_ = port.Close()
		return nil, err
	}
	if dc, err = pin(cfg.Pins.DC); err != nil {
		_ = port.Close()
		return nil, err
	}
	if busy, err = pin(cfg.Pins.BUSY); err != nil {
		_ = port.Close()
		return nil, err
	}
	if err = busy.In(gpio.PullUp, gpio.NoEdge); err != nil {
		_ = port.Close()
		return nil, errors.Wrap(err, "busy pin")
	}

	dev := New(conn, rst, dc, busy, logger)
	dev.closer = port
	dev.interval = cfg.PollInterval
	dev.timeout = cfg.BusyTimeout

	if cfg.Pins.CS != "" {
		cs, err := pin(cfg.Pins.CS)
		if err != nil {
			_ = port.Close()
			return nil, err
		}
		dev.cs = cs
	}

	return dev, nil
}

func New(conn txConn, rst, dc outPin, busy inPin, logger *zap.Logger) *EPD {
	return &EPD{
		conn:     conn,
		rst:      rst,
		dc:       dc,
		busy:     busy,
		logger:   logger,
		interval: DefaultConfig.PollInterval,
		delay:    sleepCtx,
	}
}

type EPD struct {
	conn   txConn
	closer interface{ Close() error }
	rst    outPin
	dc     outPin
	cs     outPin
	busy   inPin
	logger *zap.Logger

	interval time.Duration
	timeout  time.Duration
	delay    func(ctx context.Context, d time.Duration) error
}

var _ proto.Panel = (*EPD)(nil)

func (e *EPD) Size() (int, int) {
	return Width, Height
}

func (e *EPD) reset(ctx context.Context) error {
	for _, l := range []gpio.Level{gpio.High, gpio.Low, gpio.High} {
		if err := e.rst.Out(l); err != nil {
			return errors.Wrap(err, "reset")
		}
		if err := e.delay(ctx, 200*time.Millisecond); err != nil {
			return err
		}
	}
	return nil
}

func (e *EPD) Init(ctx context.Context) error {
	if err := e.reset(ctx); err != nil {
		return err
	}

	steps := []struct {
		cmd  byte
		data []byte
	}{
		{PowerSetting, []byte{0x37, 0x00}},
		{PanelSetting, []byte{0xcf, 0x08}},
		{PLLControl, []byte{0x3a}},
		{VCMDCSetting, []byte{0x10}},
		{BoosterSoftStart, []byte{0xc7, 0xcc, 0x15}},
		{VCOMDataInterval, []byte{BorderWhite}},
		{TCONSetting, []byte{0x22}},
		{SPIFlashControl, []byte{0x00}},
		{TCONResolution, []byte{Width >> 8, Width & 0xff, Height >> 8, Height & 0xff}},
		{FlashMode, []byte{0x03}},
	}

	for _, s := range steps {
		if err := e.sendCMD(s.cmd, s.data...); err != nil {
			return err
		}
	}

	e.logger.Info("init")
	return nil
}

// Busy reports the BUSY line, which the controller pulls low while working.
func (e *EPD) Busy() bool {
	if err := e.sendCMD(GetStatus); err != nil {
		e.logger.With(zap.Error(err)).Warn("get-status")
	}
	return e.busy.Read() == gpio.Low
}

func (e *EPD) waitIdle(ctx context.Context) error {
	return proto.WaitIdle(ctx, e, e.interval, e.timeout)
}

func (e *EPD) PushFrame(ctx context.Context, frame []byte) error {
	if len(frame) != canvas.FrameSize(Width, Height) {
		return errors.Errorf("frame size %d, expected %d", len(frame), canvas.FrameSize(Width, Height))
	}

	if err := e.sendCMD(DataStart); err != nil {
		return err
	}
	if err := e.sendData(frame); err != nil {
		return err
	}

	return e.refresh(ctx)
}

func (e *EPD) Clear(ctx context.Context) error {
	frame := make([]byte, canvas.FrameSize(Width, Height))
	for i := range frame {
		frame[i] = canvas.CodeWhite<<4 | canvas.CodeWhite
	}
	return e.PushFrame(ctx, frame)
}

func (e *EPD) refresh(ctx context.Context) error {
	if err := e.sendCMD(PowerOn); err != nil {
		return err
	}
	if err := e.waitIdle(ctx); err != nil {
		return err
	}

	if err := e.sendCMD(DisplayRefresh); err != nil {
		return err
	}
	if err := e.delay(ctx, 100*time.Millisecond); err != nil {
		return err
	}
	return e.waitIdle(ctx)
}

func (e *EPD) SetBorder(_ context.Context, c canvas.Color) error {
	v := byte(BorderWhite)
	switch c {
	case canvas.Black:
		v = BorderBlack
	case canvas.Accent:
		v = BorderAccent
	}

	e.logger.With(zap.Stringer("color", c)).Info("set-border")
	return e.sendCMD(VCOMDataInterval, v)
}

func (e *EPD) Sleep(ctx context.Context) error {
	if err := e.sendCMD(PowerOff); err != nil {
		return err
	}
	if err := e.waitIdle(ctx); err != nil {
		return err
	}

	e.logger.Info("sleep")
	return e.sendCMD(DeepSleep, DeepSleepCheckValue)
}

func (e *EPD) Close() error {
	if e.closer == nil {
		return nil
	}
	return e.closer.Close()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
