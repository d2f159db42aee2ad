package epd7in5b

import (
	"fmt"
	"time"

	"github.com/inhies/go-bytesize"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
)

// maxTx is the largest single transfer spidev accepts by default.
const maxTx = 4096

func (e *EPD) sendCMD(code byte, data ...byte) error {
	if err := e.dc.Out(gpio.Low); err != nil {
		return err
	}
	if err := e.tx([]byte{code}); err != nil {
		return fmt.Errorf("command %#02x: %w", code, err)
	}

	if len(data) == 0 {
		return nil
	}
	return e.sendData(data)
}

func (e *EPD) sendData(data []byte) error {
	if err := e.dc.Out(gpio.High); err != nil {
		return err
	}

	start := time.Now()
	for _, chunk := range lo.Chunk(data, maxTx) {
		if err := e.tx(chunk); err != nil {
			return err
		}
	}

	if len(data) > 16 {
		e.logger.With(
			zap.String("sent", bytesize.New(float64(len(data))).String()),
			zap.String("cost", time.Since(start).String()),
		).Debug("transfer")
	}

	return nil
}

func (e *EPD) tx(bs []byte) error {
	if e.cs != nil {
		if err := e.cs.Out(gpio.Low); err != nil {
			return err
		}
		defer func() {
			_ = e.cs.Out(gpio.High)
		}()
	}
	return e.conn.Tx(bs, nil)
}
