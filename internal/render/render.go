// Package render draws boards as PNG images.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/hailam/connectplay/internal/board"
)

//go:embed assets/*.svg
var assets embed.FS

const (
	// DefaultCellSize is the side of one grid cell in pixels.
	DefaultCellSize = 64

	// NoHighlight leaves every column unmarked.
	NoHighlight = -1

	renderScale = 3 // sprites are rasterized larger, then scaled down
	labelHeight = 20
)

var (
	frameColor     = color.RGBA{0x1d, 0x4e, 0xd8, 0xff}
	labelColor     = color.RGBA{0xff, 0xff, 0xff, 0xff}
	highlightColor = color.RGBA{0x40, 0x40, 0x40, 0x40} // premultiplied
)

// Options controls the drawing.
type Options struct {
	CellSize  int // pixels per cell, DefaultCellSize if <= 0
	Highlight int // 0-indexed column to mark, or NoHighlight
}

// DefaultOptions returns the options used when nil is passed.
func DefaultOptions() *Options {
	return &Options{CellSize: DefaultCellSize, Highlight: NoHighlight}
}

var tileFiles = map[board.Tile]string{
	board.Empty:      "assets/empty.svg",
	board.RedTile:    "assets/red.svg",
	board.YellowTile: "assets/yellow.svg",
}

var (
	spritesOnce sync.Once
	sprites     map[board.Tile]*image.RGBA
	spritesErr  error
)

// loadSprites rasterizes every tile SVG once.
func loadSprites() (map[board.Tile]*image.RGBA, error) {
	spritesOnce.Do(func() {
		sprites = make(map[board.Tile]*image.RGBA, len(tileFiles))
		size := DefaultCellSize * renderScale
		for tile, path := range tileFiles {
			data, err := assets.ReadFile(path)
			if err != nil {
				spritesErr = fmt.Errorf("read %s: %w", path, err)
				return
			}
			icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
			if err != nil {
				spritesErr = fmt.Errorf("parse %s: %w", path, err)
				return
			}
			icon.SetTarget(0, 0, float64(size), float64(size))

			rgba := image.NewRGBA(image.Rect(0, 0, size, size))
			scanner := rasterx.NewScannerGV(size, size, rgba, rgba.Bounds())
			raster := rasterx.NewDasher(size, size, scanner)
			icon.Draw(raster, 1.0)
			sprites[tile] = rgba
		}
	})
	return sprites, spritesErr
}

// Image draws b.
func Image(b board.Board, opts *Options) (*image.RGBA, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	cell := opts.CellSize
	if cell <= 0 {
		cell = DefaultCellSize
	}

	tiles, err := loadSprites()
	if err != nil {
		return nil, err
	}

	gridH := board.Rows * cell
	img := image.NewRGBA(image.Rect(0, 0, board.Cols*cell, gridH+labelHeight))
	xdraw.Draw(img, img.Bounds(), image.NewUniform(frameColor), image.Point{}, xdraw.Src)

	if col := opts.Highlight; col >= 0 && col < board.Cols {
		r := image.Rect(col*cell, 0, (col+1)*cell, gridH+labelHeight)
		xdraw.Draw(img, r, image.NewUniform(highlightColor), image.Point{}, xdraw.Over)
	}

	for row := 0; row < board.Rows; row++ {
		for col := 0; col < board.Cols; col++ {
			sprite := tiles[b.At(row, col)]
			y := (board.Rows - 1 - row) * cell
			dst := image.Rect(col*cell, y, (col+1)*cell, y+cell)
			xdraw.CatmullRom.Scale(img, dst, sprite, sprite.Bounds(), xdraw.Over, nil)
		}
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(labelColor),
		Face: basicfont.Face7x13,
	}
	for col := 0; col < board.Cols; col++ {
		label := fmt.Sprint(col + 1)
		w := d.MeasureString(label).Ceil()
		d.Dot = fixed.P(col*cell+(cell-w)/2, gridH+labelHeight-5)
		d.DrawString(label)
	}
	return img, nil
}

// PNG writes b to w as a PNG image.
func PNG(w io.Writer, b board.Board, opts *Options) error {
	img, err := Image(b, opts)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}
