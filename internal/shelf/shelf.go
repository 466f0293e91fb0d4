// Package shelf packs rectangles into fixed-size layers with a shelf
// allocator. Space is released for a whole packer at once.
package shelf

type shelf struct {
	y, height, x int
}

type layer struct {
	shelves []shelf
	next    int // y of the next shelf
}

// Packer allocates rects in layers of width x height cells.
type Packer struct {
	width, height int
	layers        []layer
	used          int
}

// New returns a packer with the given number of layers.
func New(width, height, layers int) *Packer {
	return &Packer{width: width, height: height, layers: make([]layer, layers)}
}

// Size returns the layer dimensions.
func (p *Packer) Size() (width, height int) { return p.width, p.height }

// Layers returns the layer count.
func (p *Packer) Layers() int { return len(p.layers) }

// Used returns the allocated area summed over all layers.
func (p *Packer) Used() int { return p.used }

// Fits reports whether a w x h rect fits in an empty layer.
func (p *Packer) Fits(w, h int) bool {
	return w > 0 && h > 0 && w <= p.width && h <= p.height
}

// Allocate places a w x h rect and returns its origin and layer. ok is
// false when no layer has room.
func (p *Packer) Allocate(w, h int) (x, y, l int, ok bool) {
	if !p.Fits(w, h) {
		return 0, 0, 0, false
	}
	for i := range p.layers {
		if x, y, ok := p.layers[i].place(w, h, p.width, p.height); ok {
			p.used += w * h
			return x, y, i, true
		}
	}
	return 0, 0, 0, false
}

// place puts the rect on the shortest shelf that fits, opening a new
// shelf when none does.
func (l *layer) place(w, h, width, height int) (x, y int, ok bool) {
	best := -1
	for i, s := range l.shelves {
		if s.height >= h && s.x+w <= width && (best < 0 || s.height < l.shelves[best].height) {
			best = i
		}
	}
	if best < 0 {
		if l.next+h > height {
			return 0, 0, false
		}
		l.shelves = append(l.shelves, shelf{y: l.next, height: h})
		l.next += h
		best = len(l.shelves) - 1
	}
	s := &l.shelves[best]
	x, y = s.x, s.y
	s.x += w
	return x, y, true
}

// Reset frees every allocation.
func (p *Packer) Reset() {
	for i := range p.layers {
		p.layers[i] = layer{}
	}
	p.used = 0
}
