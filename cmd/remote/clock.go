package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"epaper/pkg/remote"
)

// Hand end points for a face centred on (150, 150). Index 0 is one o'clock
// for hours and five past for minutes.
var hourPos = [12][2]int{
	{185, 85}, {215, 110}, {220, 150}, {215, 190}, {185, 215}, {150, 225},
	{115, 215}, {85, 190}, {70, 150}, {85, 110}, {115, 85}, {150, 75},
}

var minutePos = [12][2]int{
	{200, 55}, {240, 100}, {250, 150}, {240, 200}, {200, 245}, {150, 255},
	{100, 245}, {60, 200}, {50, 150}, {60, 100}, {100, 55}, {150, 45},
}

// between moves from table[i] towards table[i+1] by part/whole.
func between(table [12][2]int, i, part, whole int) (int, int) {
	from, to := table[i], table[(i+1)%12]
	dx := float64(to[0]-from[0]) / float64(whole) * float64(part)
	dy := float64(to[1]-from[1]) / float64(whole) * float64(part)
	return from[0] + int(dx), from[1] + int(dy)
}

func hourHand(t time.Time) (int, int) {
	h := t.Hour()
	if h > 12 {
		h -= 12
	}
	i := 11
	if h != 0 {
		i = h - 1
	}
	return between(hourPos, i, t.Minute(), 60)
}

func minuteHand(t time.Time) (int, int) {
	i := 11
	if m := t.Minute() / 5; m != 0 {
		i = m - 1
	}
	return between(minutePos, i, t.Minute()%5, 5)
}

// clock drifts the face and the caption a little on every redraw.
type clock struct {
	xoff int
	toff int
}

func (c *clock) instruction(t time.Time) string {
	hx, hy := hourHand(t)
	mx, my := minuteHand(t)
	cx := 150 + c.xoff

	caption := fmt.Sprintf("%02d:%02d:%02d,  %.3s %3d %.3s %d ",
		t.Hour(), t.Minute(), t.Second(), t.Weekday(), t.Day(), t.Month(), t.Year())

	return fmt.Sprintf("<!=c,m=n,r=0,p=%d:150,d=b,C=120:5,"+
		"p=%d:150,d=c,l=%d:%d:0:3,"+
		"p=%d:150,l=%d:%d:0:2,"+
		"d=c,p=85:%d,Q=550:%d:5,"+
		"f='font24',p=90:%d,d=b,t='%s'>",
		cx,
		cx, hx+c.xoff, hy,
		cx, mx+c.xoff, my,
		310+c.toff, 315+c.toff,
		280+c.toff, caption)
}

func (c *clock) advance() {
	c.xoff += 50
	if c.xoff >= 400 {
		c.xoff = 0
	}
	c.toff += 24
	if c.toff > 60 {
		c.toff = 0
	}
}

// runClock redraws the clock once a minute until ctx is done.
func runClock(ctx context.Context, client *remote.Client, logger *zap.Logger) error {
	c := &clock{}
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		now := time.Now()
		if err := client.Send(ctx, c.instruction(now)); err != nil {
			return err
		}
		logger.With(zap.Time("at", now)).Info("clock")
		c.advance()

		for minute := now.Minute(); time.Now().Minute() == minute; {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	}
}
