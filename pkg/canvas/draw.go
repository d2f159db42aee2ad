package canvas

import (
	"go.uber.org/zap"
)

func (c *Canvas) outOfBounds(op string, pts ...int) bool {
	for i := 0; i+1 < len(pts); i += 2 {
		if !c.contains(pts[i], pts[i+1]) {
			c.logger.With(zap.String("op", op), zap.Ints("at", pts)).Warn("out-of-bounds")
			return true
		}
	}
	return false
}

// dot paints a size×size square around (x, y), clipping at the edges.
func (c *Canvas) dot(x, y int, col Color, size int) {
	if size <= 1 {
		c.SetPixel(x, y, col)
		return
	}
	lo := -(size - 1) / 2
	hi := size / 2
	if x+hi < 0 || y+hi < 0 || x+lo >= c.Width() || y+lo >= c.Height() {
		return
	}
	for dy := lo; dy <= hi; dy++ {
		for dx := lo; dx <= hi; dx++ {
			c.SetPixel(x+dx, y+dy, col)
		}
	}
}

func (c *Canvas) DrawPoint(x, y int, col Color, size int) {
	if c.outOfBounds("point", x, y) {
		return
	}
	c.dot(x, y, col, size)
}

// DrawLine walks from the lexicographically smaller endpoint so both
// directions plot the same pixels.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int, fg, bg Color, style LineStyle, size int) {
	if c.outOfBounds("line", x0, y0, x1, y1) {
		return
	}
	if x1 < x0 || (x1 == x0 && y1 < y0) {
		x0, y0, x1, y1 = x1, y1, x0, y0
	}

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy

	x, y := x0, y0
	for n := 1; ; n++ {
		col := fg
		if style == Dotted && n%3 == 0 {
			col = bg
		}
		c.dot(x, y, col, size)

		if x == x1 && y == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

// hline clips the span to the canvas before painting it.
func (c *Canvas) hline(x0, x1, y int, col Color) {
	if y < 0 || y >= c.Height() {
		return
	}
	x0 = max(x0, 0)
	x1 = min(x1, c.Width()-1)
	for x := x0; x <= x1; x++ {
		c.SetPixel(x, y, col)
	}
}

func (c *Canvas) DrawRectangle(x0, y0, x1, y1 int, col Color, size int, filled bool) {
	if c.outOfBounds("rectangle", x0, y0, x1, y1) {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}

	if filled {
		for y := y0; y <= y1; y++ {
			c.hline(x0, x1, y, col)
		}
		return
	}

	c.DrawLine(x0, y0, x1, y0, col, col, Solid, size)
	c.DrawLine(x0, y0, x0, y1, col, col, Solid, size)
	c.DrawLine(x1, y1, x1, y0, col, col, Solid, size)
	c.DrawLine(x1, y1, x0, y1, col, col, Solid, size)
}

// DrawCircle uses the midpoint algorithm. Filled circles paint each octant
// span with single pixels and ignore size.
func (c *Canvas) DrawCircle(cx, cy, r int, col Color, size int, filled bool) {
	if c.outOfBounds("circle", cx, cy) {
		return
	}
	if r < 0 {
		return
	}

	x, y := 0, r
	e := 3 - 2*r
	for x <= y {
		if filled {
			c.hline(cx-y, cx+y, cy-x, col)
			c.hline(cx-y, cx+y, cy+x, col)
			c.hline(cx-x, cx+x, cy-y, col)
			c.hline(cx-x, cx+x, cy+y, col)
		} else {
			c.dot(cx+x, cy-y, col, size)
			c.dot(cx+y, cy-x, col, size)
			c.dot(cx+y, cy+x, col, size)
			c.dot(cx+x, cy+y, col, size)
			c.dot(cx-x, cy+y, col, size)
			c.dot(cx-y, cy+x, col, size)
			c.dot(cx-y, cy-x, col, size)
			c.dot(cx-x, cy-y, col, size)
		}

		if e < 0 {
			e += 4*x + 6
		} else {
			e += 4*(x-y) + 10
			y--
		}
		x++
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
