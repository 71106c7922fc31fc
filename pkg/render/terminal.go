package render

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-flightsim/pkg/engine"
	"github.com/opd-ai/go-flightsim/pkg/flight"
	"github.com/opd-ai/go-flightsim/pkg/terrain"
)

// Terminal cells are roughly twice as tall as they are wide.
const cellAspect = 2.0

// hudRows is the number of rows reserved below the map.
const hudRows = 2

var (
	styleDefault  = tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite)
	styleWater    = styleDefault.Foreground(tcell.ColorBlue)
	styleLowland  = styleDefault.Foreground(tcell.ColorGreen)
	styleHills    = styleDefault.Foreground(tcell.ColorDarkGreen)
	styleUpland   = styleDefault.Foreground(tcell.ColorOlive)
	stylePeaks    = styleDefault.Foreground(tcell.ColorSilver)
	styleBorder   = styleDefault.Foreground(tcell.ColorRed)
	styleAircraft = styleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleCamera   = styleDefault.Foreground(tcell.ColorAqua)
	styleHUD      = styleDefault.Foreground(tcell.ColorLime).Bold(true)
	styleHelp     = styleDefault.Foreground(tcell.ColorGray)
	styleWarning  = styleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorRed).Bold(true)
)

// headingGlyphs are indexed by heading in 45 degree steps, clockwise from north.
var headingGlyphs = []rune{'↑', '↗', '→', '↘', '↓', '↙', '←', '↖'}

type cell struct {
	ch    rune
	style tcell.Style
}

// TerminalRenderer draws a top-down map centred on the aircraft with a
// telemetry line underneath. North (-Z) is up and east (-X) is right.
type TerminalRenderer struct {
	screen    tcell.Screen
	field     terrain.Field
	maxRadius float64

	width  int
	height int
	buffer [][]cell
	// scale is world units per terminal column.
	scale     float64
	centerPos mgl64.Vec2
}

// NewTerminalRenderer creates a renderer on an initialised screen. scale is
// the number of world units per column.
func NewTerminalRenderer(screen tcell.Screen, field terrain.Field, maxRadius, scale float64) *TerminalRenderer {
	if field == nil {
		field = terrain.Flat(0)
	}
	if scale <= 0 {
		scale = 25
	}
	r := &TerminalRenderer{
		screen:    screen,
		field:     field,
		maxRadius: maxRadius,
		scale:     scale,
	}
	r.resize()
	return r
}

func (r *TerminalRenderer) resize() {
	w, h := r.screen.Size()
	if w == r.width && h == r.height && r.buffer != nil {
		return
	}
	r.width, r.height = w, h
	r.buffer = make([][]cell, h)
	for i := range r.buffer {
		r.buffer[i] = make([]cell, w)
	}
}

// SetCenter sets the world (X, Z) position shown at the centre of the map.
func (r *TerminalRenderer) SetCenter(x, z float64) {
	r.centerPos = mgl64.Vec2{x, z}
}

func (r *TerminalRenderer) mapHeight() int {
	return max(r.height-hudRows, 0)
}

// worldToScreen converts world (X, Z) to a map cell.
func (r *TerminalRenderer) worldToScreen(x, z float64) (int, int) {
	sx := (r.centerPos.X()-x)/r.scale + float64(r.width)/2
	sy := (z-r.centerPos.Y())/(r.scale*cellAspect) + float64(r.mapHeight())/2
	return int(math.Floor(sx)), int(math.Floor(sy))
}

// screenToWorld returns the world (X, Z) at the centre of a map cell.
func (r *TerminalRenderer) screenToWorld(sx, sy int) (float64, float64) {
	x := r.centerPos.X() - (float64(sx)+0.5-float64(r.width)/2)*r.scale
	z := r.centerPos.Y() + (float64(sy)+0.5-float64(r.mapHeight())/2)*r.scale*cellAspect
	return x, z
}

// Clear implements engine.Renderer.
func (r *TerminalRenderer) Clear() {
	r.resize()
	for y := range r.buffer {
		for x := range r.buffer[y] {
			r.buffer[y][x] = cell{' ', styleDefault}
		}
	}
}

// RenderFrame implements engine.Renderer.
func (r *TerminalRenderer) RenderFrame(f engine.Frame) {
	pos := f.State.Position
	r.SetCenter(pos.X(), pos.Z())

	r.drawTerrain()

	if cx, cy := r.worldToScreen(f.Camera.Position.X(), f.Camera.Position.Z()); r.inMap(cx, cy) {
		r.set(cx, cy, 'c', styleCamera)
	}
	ax, ay := r.worldToScreen(pos.X(), pos.Z())
	r.set(ax, ay, headingGlyph(f.State.Heading), styleAircraft)

	r.drawHUD(f)
}

// Present implements engine.Renderer.
func (r *TerminalRenderer) Present() {
	for y := range r.buffer {
		for x, c := range r.buffer[y] {
			r.screen.SetContent(x, y, c.ch, nil, c.style)
		}
	}
	r.screen.Show()
}

func (r *TerminalRenderer) drawTerrain() {
	for sy := 0; sy < r.mapHeight(); sy++ {
		for sx := 0; sx < r.width; sx++ {
			x, z := r.screenToWorld(sx, sy)
			d := math.Hypot(x, z)
			switch {
			case r.maxRadius > 0 && math.Abs(d-r.maxRadius) <= r.scale:
				r.set(sx, sy, '#', styleBorder)
			case r.maxRadius > 0 && d > r.maxRadius:
				// outside the world
			default:
				ch, style := terrainGlyph(r.field.HeightAt(x, z))
				r.set(sx, sy, ch, style)
			}
		}
	}
}

func (r *TerminalRenderer) drawHUD(f engine.Frame) {
	y := r.mapHeight()
	t := f.Telemetry
	line := fmt.Sprintf("Speed: %d km/h  Altitude: %d m  Heading: %d°", t.Speed, t.Altitude, t.Heading)
	n := r.drawText(0, y, r.width, styleHUD, line)

	switch {
	case f.Mode == flight.ModeReset:
		r.drawText(n+2, y, r.width-n-2, styleWarning, " RESET ")
	case f.TerrainContact:
		r.drawText(n+2, y, r.width-n-2, styleWarning, " TERRAIN ")
	case f.BoundaryClamped:
		r.drawText(n+2, y, r.width-n-2, styleWarning, " BOUNDARY ")
	}

	r.drawText(0, y+1, r.width, styleHelp,
		"W/S pitch  A/D roll  Q/E yaw  R/F throttle  Space reset  Esc quit")
}

// drawText writes text at (x, y), truncated to maxWidth cells, and returns
// the number of cells written.
func (r *TerminalRenderer) drawText(x, y, maxWidth int, style tcell.Style, text string) int {
	n := 0
	for _, ch := range text {
		if n >= maxWidth {
			break
		}
		r.set(x+n, y, ch, style)
		n++
	}
	return n
}

func (r *TerminalRenderer) inMap(x, y int) bool {
	return x >= 0 && x < r.width && y >= 0 && y < r.mapHeight()
}

func (r *TerminalRenderer) set(x, y int, ch rune, style tcell.Style) {
	if y < 0 || y >= r.height || x < 0 || x >= r.width {
		return
	}
	r.buffer[y][x] = cell{ch, style}
}

// cellAt returns the buffered rune at (x, y).
func (r *TerminalRenderer) cellAt(x, y int) rune {
	if y < 0 || y >= r.height || x < 0 || x >= r.width {
		return 0
	}
	return r.buffer[y][x].ch
}

var bandGlyphs = map[terrain.Band]cell{
	terrain.Water:   {'~', styleWater},
	terrain.Lowland: {'.', styleLowland},
	terrain.Hills:   {':', styleHills},
	terrain.Upland:  {'+', styleUpland},
	terrain.Peaks:   {'^', stylePeaks},
}

func terrainGlyph(h float64) (rune, tcell.Style) {
	c := bandGlyphs[terrain.BandOf(h)]
	return c.ch, c.style
}

func headingGlyph(heading float64) rune {
	i := int(math.Round(heading/45)) % len(headingGlyphs)
	if i < 0 {
		i += len(headingGlyphs)
	}
	return headingGlyphs[i]
}

var _ engine.Renderer = (*TerminalRenderer)(nil)
