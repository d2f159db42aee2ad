package canvas

// Bitplane is a packed 1-bit-per-pixel ink layer, MSB first. A set bit is
// paper (white), a clear bit is ink.
type Bitplane struct {
	width  int
	height int
	stride int
	bits   []byte
}

func NewBitplane(width, height int) *Bitplane {
	stride := (width + 7) / 8
	p := &Bitplane{
		width:  width,
		height: height,
		stride: stride,
		bits:   make([]byte, stride*height),
	}
	p.Fill(false)
	return p
}

func (p *Bitplane) Width() int {
	return p.width
}

func (p *Bitplane) Height() int {
	return p.height
}

func (p *Bitplane) Stride() int {
	return p.stride
}

func (p *Bitplane) Bytes() []byte {
	return p.bits
}

func (p *Bitplane) Fill(ink bool) {
	v := byte(0xff)
	if ink {
		v = 0x00
	}
	for i := range p.bits {
		p.bits[i] = v
	}
}

func (p *Bitplane) Set(x, y int, ink bool) {
	if x < 0 || y < 0 || x >= p.width || y >= p.height {
		return
	}
	i := y*p.stride + x/8
	mask := byte(0x80) >> (x % 8)
	if ink {
		p.bits[i] &^= mask
	} else {
		p.bits[i] |= mask
	}
}

func (p *Bitplane) Ink(x, y int) bool {
	if x < 0 || y < 0 || x >= p.width || y >= p.height {
		return false
	}
	return p.bits[y*p.stride+x/8]&(0x80>>(x%8)) == 0
}

// Count returns the number of ink pixels.
func (p *Bitplane) Count() int {
	n := 0
	for y := 0; y < p.height; y++ {
		for x := 0; x < p.width; x++ {
			if p.Ink(x, y) {
				n++
			}
		}
	}
	return n
}

func (p *Bitplane) Equal(o *Bitplane) bool {
	if p.width != o.width || p.height != o.height {
		return false
	}
	for i := range p.bits {
		if p.bits[i] != o.bits[i] {
			return false
		}
	}
	return true
}
