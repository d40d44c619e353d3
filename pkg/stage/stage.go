// Package stage is the Ebitengine front end: it renders the project's
// targets, feeds input to the engine, and drives one engine tick per
// frame. Headless runs skip Ebitengine entirely and pace the engine on
// a wall-clock ticker.
package stage

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"

	"github.com/zurustar/karakuri/pkg/engine"
	"github.com/zurustar/karakuri/pkg/target"
)

// Stage dimensions, in block-script coordinates (origin at the
// center, y pointing up).
const (
	ScreenWidth  = 480
	ScreenHeight = 360
)

var (
	backgroundColor = color.RGBA{0x00, 0x87, 0xC8, 0xFF}
	spriteColor     = color.RGBA{0xFF, 0x8C, 0x1A, 0xFF}
	glowColor       = color.RGBA{0xFF, 0xFF, 0x00, 0xFF}
	textColor       = color.White

	defaultFace = text.NewGoXFace(basicfont.Face7x13)
)

// Game implements ebiten.Game over a running engine.
type Game struct {
	ctx     context.Context
	engine  *engine.Engine
	started bool

	marker *ebiten.Image
	glow   *ebiten.Image
}

// NewGame wraps the engine for the Ebitengine loop. The context stops
// the loop when it is done.
func NewGame(ctx context.Context, eng *engine.Engine) *Game {
	marker := ebiten.NewImage(16, 16)
	marker.Fill(spriteColor)
	glow := ebiten.NewImage(22, 22)
	glow.Fill(glowColor)
	return &Game{
		ctx:    ctx,
		engine: eng,
		marker: marker,
		glow:   glow,
	}
}

// Update runs one engine tick per frame. The green flag fires on the
// first frame and again on space or a mouse click; Esc ends the run.
func (g *Game) Update() error {
	select {
	case <-g.ctx.Done():
		return ebiten.Termination
	default:
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	if !g.started {
		// Ebitengine is fully initialized by the first Update; start
		// the project here rather than before RunGame.
		g.started = true
		g.engine.GreenFlag()
	} else if inpututil.IsKeyJustPressed(ebiten.KeySpace) ||
		inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.engine.GreenFlag()
	}

	g.engine.Tick()
	return nil
}

// Draw renders the targets, glow outlines, speech bubbles, and a HUD
// line with the live thread count.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	glowing := make(map[*target.Target]bool)
	for _, entry := range g.engine.GlowingScripts() {
		glowing[entry.Target] = true
	}

	for _, tgt := range g.engine.Targets() {
		if tgt.IsStage || !tgt.Visible {
			continue
		}
		x, y := stageToScreen(tgt.X, tgt.Y)

		if glowing[tgt] {
			op := &ebiten.DrawImageOptions{}
			op.GeoM.Translate(-11, -11)
			op.GeoM.Translate(x, y)
			screen.DrawImage(g.glow, op)
		}

		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(-8, -8)
		// Direction 90 is the neutral heading (facing right).
		op.GeoM.Rotate((tgt.Direction - 90) * math.Pi / 180)
		op.GeoM.Translate(x, y)
		screen.DrawImage(g.marker, op)

		if tgt.SayText != "" {
			top := &text.DrawOptions{}
			top.GeoM.Translate(x+12, y-20)
			top.ColorScale.ScaleWithColor(textColor)
			text.Draw(screen, tgt.SayText, defaultFace, top)
		}
	}

	hud := fmt.Sprintf("threads: %d  tick: %d", len(g.engine.Threads()), g.engine.TickCount())
	top := &text.DrawOptions{}
	top.GeoM.Translate(4, 4)
	top.ColorScale.ScaleWithColor(textColor)
	text.Draw(screen, hud, defaultFace, top)
}

// Layout reports the fixed logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return ScreenWidth, ScreenHeight
}

// stageToScreen converts center-origin, y-up coordinates to screen
// pixels.
func stageToScreen(x, y float64) (float64, float64) {
	return ScreenWidth/2 + x, ScreenHeight/2 - y
}

// Run opens the window and drives the engine until Esc, window close,
// or context cancellation. The normal Ebitengine termination sentinel
// is not an error.
func Run(ctx context.Context, eng *engine.Engine, title string) error {
	ebiten.SetWindowSize(ScreenWidth*2, ScreenHeight*2)
	ebiten.SetWindowTitle(title)

	if err := ebiten.RunGame(NewGame(ctx, eng)); err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("game loop failed: %w", err)
	}
	return nil
}
