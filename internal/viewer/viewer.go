// Package viewer is the windowed host: it feeds keyboard and mouse state
// into the session's input bindings and draws the arena through the
// session camera.
package viewer

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/Versifine/rollcall/internal/config"
	"github.com/Versifine/rollcall/internal/input"
	"github.com/Versifine/rollcall/internal/mathx"
	"github.com/Versifine/rollcall/internal/sim"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// wheelNotch converts ebiten's wheel units to desktop scroll deltas.
	wheelNotch  = 120.0
	gridSpacing = 2.0
	flashTime   = 2 * time.Second
	lineHeight  = 15
)

var (
	backgroundColor = color.RGBA{R: 18, G: 22, B: 28, A: 255}
	gridColor       = color.RGBA{R: 50, G: 60, B: 70, A: 255}
	portalColor     = color.RGBA{R: 150, G: 90, B: 220, A: 255}
	fogColor        = color.RGBA{R: 120, G: 140, B: 160, A: 200}
	splashColor     = color.RGBA{R: 120, G: 200, B: 255, A: 220}
	emberColor      = color.RGBA{R: 255, G: 140, B: 40, A: 255}
	limbColor       = color.RGBA{R: 230, G: 230, B: 230, A: 255}
	hudColor        = color.RGBA{R: 220, G: 230, B: 220, A: 255}
	panelColor      = color.RGBA{R: 6, G: 10, B: 6, A: 200}
	agentPalette    = []color.RGBA{
		{R: 240, G: 200, B: 40, A: 255},
		{R: 60, G: 140, B: 240, A: 255},
		{R: 220, G: 80, B: 80, A: 255},
		{R: 90, G: 200, B: 110, A: 255},
		{R: 220, G: 120, B: 200, A: 255},
	}
)

type Game struct {
	ctx     context.Context
	session *sim.Session
	state   *input.State
	cfg     config.Config
	face    text.Face

	width, height int
	now           func() time.Time
	last          time.Time
	copyText      func(string) error
	flash         string
	flashUntil    time.Time
}

func New(ctx context.Context, session *sim.Session, state *input.State, cfg config.Config) *Game {
	g := &Game{
		ctx:      ctx,
		session:  session,
		state:    state,
		cfg:      cfg,
		face:     text.NewGoXFace(basicfont.Face7x13),
		width:    cfg.Host.Width,
		height:   cfg.Host.Height,
		now:      time.Now,
		copyText: clipboard.WriteAll,
	}
	g.last = g.now()
	return g
}

// Run opens the window and blocks until it is closed or ctx is done.
func Run(ctx context.Context, session *sim.Session, state *input.State, cfg config.Config) error {
	ebiten.SetWindowTitle(cfg.Host.Title)
	ebiten.SetWindowSize(cfg.Host.Width, cfg.Host.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	// The session keeps its own fixed-step accumulator, so one Update per
	// rendered frame is enough.
	ebiten.SetTPS(ebiten.SyncWithFPS)

	if err := ebiten.RunGame(New(ctx, session, state, cfg)); err != nil {
		return fmt.Errorf("run viewer: %w", err)
	}
	return nil
}

func (g *Game) Update() error {
	if g.ctx != nil && g.ctx.Err() != nil {
		return ebiten.Termination
	}
	g.readInput()

	now := g.now()
	dt := now.Sub(g.last).Seconds()
	g.last = now
	g.session.Frame(dt)

	if inpututil.IsKeyJustPressed(ebiten.KeyF2) {
		g.copySummary(now)
	}
	return nil
}

func (g *Game) readInput() {
	g.state.SetAxis2(input.Move, moveFromKeys(
		ebiten.IsKeyPressed(ebiten.KeyW),
		ebiten.IsKeyPressed(ebiten.KeyS),
		ebiten.IsKeyPressed(ebiten.KeyA),
		ebiten.IsKeyPressed(ebiten.KeyD),
	))
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.state.Press(input.Jump)
	}
	g.state.SetHold(input.PrimaryTarget, ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft))
	g.state.SetHold(input.SecondaryTarget, ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight))

	mx, my := ebiten.CursorPosition()
	g.state.SetAxis2(input.Pointer, mgl64.Vec2{float64(mx), float64(my)})

	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.state.Press(input.SwitchControl)
	}
	if _, wy := ebiten.Wheel(); wy != 0 {
		g.state.AddAxis1(input.Zoom, wy*wheelNotch)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		g.state.Press(input.ToggleCloseView)
	}
}

// moveFromKeys builds the WASD composite: +Y forward, +X right, clamped
// to unit length on diagonals.
func moveFromKeys(up, down, left, right bool) mgl64.Vec2 {
	var v mgl64.Vec2
	if up {
		v[1]++
	}
	if down {
		v[1]--
	}
	if right {
		v[0]++
	}
	if left {
		v[0]--
	}
	return mathx.ClampLength2(v, 1)
}

func (g *Game) copySummary(now time.Time) {
	summary := g.session.View().Summary()
	if err := g.copyText(summary); err != nil {
		slog.Warn("Copy state to clipboard failed", "error", err)
		g.flash = "clipboard unavailable"
	} else {
		g.flash = "state copied to clipboard"
	}
	g.flashUntil = now.Add(flashTime)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth > 0 && outsideHeight > 0 {
		g.width, g.height = outsideWidth, outsideHeight
	}
	g.session.SetViewport(float64(g.width), float64(g.height))
	return g.width, g.height
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)
	view := g.session.View()

	g.drawGrid(screen)
	for _, p := range view.Portals {
		g.drawRing(screen, p.Center, p.Radius, 2, portalColor)
	}
	g.drawCross(screen, mgl64.Vec3{view.Fog.X(), g.floorTop(), view.Fog.Z()}, fogColor)

	for i, a := range view.Agents {
		clr := agentColor(i)
		if i < len(view.Splashes) && view.Splashes[i].Active {
			g.drawRing(screen, view.Splashes[i].Position, 0.9, 1, splashColor)
		}
		g.drawAgent(screen, a.Position, mathx.Euler(0, a.Yaw, 0), clr, a.ID == view.Active)
		for _, l := range a.Limbs {
			g.drawDot(screen, l.Position, 0.12, limbColor)
		}
		g.drawDot(screen, a.Ember, 0.1, emberColor)
	}

	g.drawHUD(screen, hudLines(view))
	if g.flash != "" && g.now().Before(g.flashUntil) {
		g.drawText(screen, g.flash, 10, float64(g.height-lineHeight-8))
	}
}

func (g *Game) floorTop() float64 {
	return float64(g.cfg.Session.Arena.FloorY + 1)
}

func (g *Game) project(p mgl64.Vec3) (float32, float32, bool) {
	x, y, ok := g.session.Camera().WorldToScreen(p, float64(g.width), float64(g.height))
	return float32(x), float32(y), ok
}

// pixelRadius approximates the on-screen size of a world radius at p.
func (g *Game) pixelRadius(p mgl64.Vec3, r float64) (float32, float32, float32, bool) {
	cx, cy, ok := g.project(p)
	if !ok {
		return 0, 0, 0, false
	}
	ex, ey, ok := g.project(p.Add(g.session.Camera().Rotation().Rotate(mathx.Right).Mul(r)))
	if !ok {
		return 0, 0, 0, false
	}
	dx, dy := ex-cx, ey-cy
	return cx, cy, float32(mgl64.Vec2{float64(dx), float64(dy)}.Len()), true
}

func (g *Game) drawGrid(screen *ebiten.Image) {
	half := float64(g.cfg.Session.Arena.HalfExtent)
	if half <= 0 {
		return
	}
	y := g.floorTop()
	for v := -half; v <= half; v += gridSpacing {
		g.drawSegment(screen, mgl64.Vec3{v, y, -half}, mgl64.Vec3{v, y, half}, gridColor)
		g.drawSegment(screen, mgl64.Vec3{-half, y, v}, mgl64.Vec3{half, y, v}, gridColor)
	}
}

// drawSegment draws a-b in short pieces so the part in front of the
// camera still shows when the rest is behind it.
func (g *Game) drawSegment(screen *ebiten.Image, a, b mgl64.Vec3, clr color.Color) {
	pieces := int(math.Ceil(mathx.Distance(a, b) / gridSpacing))
	if pieces < 1 {
		pieces = 1
	}
	prev := a
	for i := 1; i <= pieces; i++ {
		next := mathx.Lerp(a, b, float64(i)/float64(pieces))
		x0, y0, ok0 := g.project(prev)
		x1, y1, ok1 := g.project(next)
		if ok0 && ok1 {
			vector.StrokeLine(screen, x0, y0, x1, y1, 1, clr, false)
		}
		prev = next
	}
}

func (g *Game) drawRing(screen *ebiten.Image, p mgl64.Vec3, r float64, width float32, clr color.Color) {
	cx, cy, pr, ok := g.pixelRadius(p, r)
	if !ok {
		return
	}
	vector.StrokeCircle(screen, cx, cy, pr, width, clr, true)
}

func (g *Game) drawDot(screen *ebiten.Image, p mgl64.Vec3, r float64, clr color.Color) {
	cx, cy, pr, ok := g.pixelRadius(p, r)
	if !ok {
		return
	}
	vector.FillCircle(screen, cx, cy, pr, clr, true)
}

func (g *Game) drawCross(screen *ebiten.Image, p mgl64.Vec3, clr color.Color) {
	x, y, ok := g.project(p)
	if !ok {
		return
	}
	vector.StrokeLine(screen, x-6, y-6, x+6, y+6, 2, clr, true)
	vector.StrokeLine(screen, x-6, y+6, x+6, y-6, 2, clr, true)
}

func (g *Game) drawAgent(screen *ebiten.Image, p mgl64.Vec3, heading mgl64.Quat, clr color.RGBA, active bool) {
	cx, cy, pr, ok := g.pixelRadius(p, 0.5)
	if !ok {
		return
	}
	vector.FillCircle(screen, cx, cy, pr, clr, true)
	if active {
		vector.StrokeCircle(screen, cx, cy, pr+3, 2, color.White, true)
	}
	g.drawSegment(screen, p, p.Add(heading.Rotate(mathx.Forward)), color.White)
}

func agentColor(i int) color.RGBA {
	return agentPalette[i%len(agentPalette)]
}

// hudLines is the text panel shown in the top-left corner.
func hudLines(v sim.View) []string {
	lines := []string{
		fmt.Sprintf("frame %d  t=%.1fs  active=%s  face=%s", v.Frame, v.Elapsed, v.Active, v.Face),
	}
	for _, a := range v.Agents {
		marker := " "
		if a.ID == v.Active {
			marker = ">"
		}
		lines = append(lines, fmt.Sprintf("%s %-8s %-10s (%.1f, %.1f, %.1f)", marker, a.ID, a.State, a.Position.X(), a.Position.Y(), a.Position.Z()))
	}
	view := "follow"
	if v.Camera.CloseView {
		view = "close"
	}
	lines = append(lines,
		fmt.Sprintf("camera %s  dist=%.1f [%.1f, %.1f]  teleports=%d", view, v.Camera.Distance, v.Camera.Min, v.Camera.Max, v.Teleports),
		"WASD move  Space jump  Tab switch  wheel zoom  C close view  F2 copy",
	)
	for _, e := range v.Events {
		lines = append(lines, "  "+e)
	}
	return lines
}

func (g *Game) drawHUD(screen *ebiten.Image, lines []string) {
	const padX, padY, charW = 6, 4, 7
	maxLen := 0
	for _, l := range lines {
		if len(l) > maxLen {
			maxLen = len(l)
		}
	}
	boxW := float32(maxLen*charW + padX*2)
	boxH := float32(len(lines)*lineHeight + padY*2)
	vector.FillRect(screen, 4, 4, boxW, boxH, panelColor, false)
	g.drawText(screen, strings.Join(lines, "\n"), 4+padX, 4+padY)
}

func (g *Game) drawText(screen *ebiten.Image, s string, x, y float64) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(hudColor)
	op.LineSpacing = lineHeight
	text.Draw(screen, s, g.face, op)
}
