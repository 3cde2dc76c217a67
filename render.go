package reveal

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// --- White pixel singleton (no sync.Once; documents are single-threaded) ---

var whitePixelImage *ebiten.Image

// ensureWhitePixel returns a lazily-initialized 1x1 white pixel image that
// every element box is drawn with.
func ensureWhitePixel() *ebiten.Image {
	if whitePixelImage == nil {
		whitePixelImage = ebiten.NewImage(1, 1)
		whitePixelImage.Fill(color.RGBA{R: 255, G: 255, B: 255, A: 255})
	}
	return whitePixelImage
}

// Draw renders the document into screen as seen through the viewport. Each
// element with a non-empty box is drawn as a rectangle in its Color, with
// the shown style applied: opacity multiplies down the tree, the transform
// moves, rotates, and scales the box around its center. Elements outside
// the viewport are skipped.
func (d *Document) Draw(screen *ebiten.Image) {
	if d.Background.A > 0 {
		screen.Fill(d.Background.toRGBA())
	}
	vp := d.viewport.Rect()
	view := identityTransform
	view[4], view[5] = -vp.X, -vp.Y

	var op ebiten.DrawImageOptions
	for _, c := range d.root.children {
		d.drawElement(screen, c, view, vp, 1, &op)
	}
}

func (d *Document) drawElement(screen *ebiten.Image, e *Element, view [6]float64, vp Rect, parentAlpha float64, op *ebiten.DrawImageOptions) {
	s := e.Computed()
	alpha := parentAlpha * s.Opacity
	if alpha <= 0 {
		return
	}
	if e.Width > 0 && e.Height > 0 {
		m := localMatrix(s.Transform, e.Bounds())
		if unitAABB(m).Intersects(vp) {
			op.GeoM.Reset()
			op.GeoM.Concat(affineGeoM(multiplyAffine(view, m)))
			op.ColorScale.Reset()
			a := float32(e.Color.A * alpha)
			op.ColorScale.Scale(float32(e.Color.R)*a, float32(e.Color.G)*a, float32(e.Color.B)*a, a)
			screen.DrawImage(ensureWhitePixel(), op)
		}
	}
	for _, c := range e.children {
		d.drawElement(screen, c, view, vp, alpha, op)
	}
}

func affineGeoM(t [6]float64) ebiten.GeoM {
	var m ebiten.GeoM
	m.SetElement(0, 0, t[0])
	m.SetElement(1, 0, t[1])
	m.SetElement(0, 1, t[2])
	m.SetElement(1, 1, t[3])
	m.SetElement(0, 2, t[4])
	m.SetElement(1, 2, t[5])
	return m
}

// toRGBA converts to an 8-bit premultiplied color.
func (c Color) toRGBA() color.RGBA {
	a := clamp01(c.A)
	return color.RGBA{
		R: uint8(clamp01(c.R)*a*255 + 0.5),
		G: uint8(clamp01(c.G)*a*255 + 0.5),
		B: uint8(clamp01(c.B)*a*255 + 0.5),
		A: uint8(a*255 + 0.5),
	}
}
