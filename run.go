package reveal

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// RunConfig configures Run.
type RunConfig struct {
	Title         string
	Width, Height int

	// ShowStats draws frame rate and engine counters in the top-left corner.
	ShowStats bool
	// Engine, when set, feeds the stats overlay.
	Engine *Engine
	// Update runs once per tick before the document steps.
	Update func() error
}

// maxStep caps a single document step so a stalled window does not fast
// forward every animation at once.
const maxStep = 250 * time.Millisecond

// Run opens a window and drives doc until the window closes. The document
// is stepped by the wall-clock time between updates, so an engine's frame
// rate governor sees the real update rate. The viewport follows the
// window size.
func Run(doc *Document, cfg RunConfig) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = int(doc.viewport.Width), int(doc.viewport.Height)
	}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(&game{doc: doc, cfg: cfg})
}

type game struct {
	doc   *Document
	cfg   RunConfig
	last  time.Time
	stats *statsOverlay
}

func (g *game) Update() error {
	if g.cfg.Update != nil {
		if err := g.cfg.Update(); err != nil {
			return err
		}
	}
	now := time.Now()
	dt := time.Second / time.Duration(ebiten.TPS())
	if !g.last.IsZero() {
		dt = min(now.Sub(g.last), maxStep)
	}
	g.last = now
	g.doc.Step(dt)
	if g.cfg.ShowStats {
		if g.stats == nil {
			g.stats = newStatsOverlay()
		}
		g.stats.update(dt, g.cfg.Engine)
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	g.doc.Draw(screen)
	if g.stats != nil {
		screen.DrawImage(g.stats.img, nil)
	}
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	vp := g.doc.viewport
	if float64(outsideWidth) != vp.Width || float64(outsideHeight) != vp.Height {
		vp.Resize(float64(outsideWidth), float64(outsideHeight))
	}
	return outsideWidth, outsideHeight
}

// statsOverlay is a small debug panel refreshed every ~0.5 seconds.
type statsOverlay struct {
	img   *ebiten.Image
	since time.Duration
}

func newStatsOverlay() *statsOverlay {
	// Room for six lines of ebitenutil's debug font.
	return &statsOverlay{img: ebiten.NewImage(220, 100), since: time.Second}
}

func (o *statsOverlay) update(dt time.Duration, e *Engine) {
	o.since += dt
	if o.since < 500*time.Millisecond {
		return
	}
	o.since = 0

	o.img.Clear()
	// Semi-transparent background for readability
	o.img.Fill(color.RGBA{0, 0, 0, 128})
	text := fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS())
	if e != nil && !e.Destroyed() {
		s := e.Stats()
		text += fmt.Sprintf("\ntracked: %d virtual: %d\nrevealed: %d/%d queued: %d\n%s %s degraded: %t",
			s.Tracked, s.Virtualized, s.Revealed, s.Registered, s.Queued, s.Detector, s.Tier, s.Degraded)
	}
	ebitenutil.DebugPrint(o.img, text)
}
