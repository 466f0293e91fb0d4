// Package parallel splits render targets into tiles and runs per-tile
// work on a shared worker pool.
//
// Tiles are 64x64 pixels. Edge tiles are clipped to the target.
package parallel

import "image"

const (
	// TileWidth is the width of a tile in pixels.
	TileWidth = 64

	// TileHeight is the height of a tile in pixels.
	TileHeight = 64
)

// Tile is one cell of a tile grid.
type Tile struct {
	// X and Y are the tile column and row.
	X, Y int

	// Bounds is the pixel rect covered by the tile.
	Bounds image.Rectangle
}

// Tiles covers the pixel rect r with tiles aligned to the tile grid of
// the target origin. Tiles are listed row by row.
func Tiles(r image.Rectangle) []Tile {
	if r.Empty() {
		return nil
	}
	tx0 := floorDiv(r.Min.X, TileWidth)
	ty0 := floorDiv(r.Min.Y, TileHeight)
	tx1 := floorDiv(r.Max.X-1, TileWidth)
	ty1 := floorDiv(r.Max.Y-1, TileHeight)

	tiles := make([]Tile, 0, (tx1-tx0+1)*(ty1-ty0+1))
	for ty := ty0; ty <= ty1; ty++ {
		for tx := tx0; tx <= tx1; tx++ {
			b := image.Rect(tx*TileWidth, ty*TileHeight, (tx+1)*TileWidth, (ty+1)*TileHeight)
			tiles = append(tiles, Tile{X: tx, Y: ty, Bounds: b.Intersect(r)})
		}
	}
	return tiles
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}
