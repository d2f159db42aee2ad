package main

import (
	"github.com/gdamore/tcell/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"epaper/pkg/device/epd7in5b"
	"epaper/pkg/device/virtual"
	"epaper/pkg/proto"
)

func openDevice(logger *zap.Logger) (proto.Panel, error) {
	switch *device {
	case "epd":
		cfg := epd7in5b.DefaultConfig
		cfg.Port = *spiPort
		cfg.BusyTimeout = *busyTimeout
		return epd7in5b.Open(cfg, logger)

	case "mock":
		return virtual.Mock(epd7in5b.Width, epd7in5b.Height, logger), nil

	case "term":
		screen, err := tcell.NewScreen()
		if err != nil {
			return nil, errors.Wrap(err, "terminal")
		}
		if err := screen.Init(); err != nil {
			return nil, errors.Wrap(err, "terminal")
		}
		return virtual.NewTerminal(screen, epd7in5b.Width, epd7in5b.Height, logger), nil

	case "png":
		return virtual.NewSnapshot(*snapshotDir, epd7in5b.Width, epd7in5b.Height, logger)
	}

	return nil, errors.Errorf("unknown device %q", *device)
}
