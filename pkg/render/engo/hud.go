package engo

import (
	"fmt"
	"image/color"
	"strings"
	"sync"
	"time"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-flightsim/pkg/engine"
)

const (
	maxNotices = 4
	noticeTTL  = 3 * time.Second
)

// Notice is a short-lived HUD message, e.g. a terrain contact warning.
type Notice struct {
	Message   string
	Timestamp time.Time
}

type hudEntity struct {
	ecs.BasicEntity
	common.RenderComponent
	common.SpaceComponent
}

// HUDSystem draws the telemetry line and recent notices in screen space.
type HUDSystem struct {
	font      *common.Font
	telemetry *hudEntity
	notices   *hudEntity

	mu           sync.Mutex
	telemetryTxt string
	noticeList   []Notice
	now          func() time.Time

	hudColor     color.Color
	warningColor color.Color
}

// NewHUDSystem creates a new HUD system
func NewHUDSystem() *HUDSystem {
	return &HUDSystem{
		now:          time.Now,
		hudColor:     color.RGBA{0, 255, 0, 255},
		warningColor: color.RGBA{255, 80, 80, 255},
	}
}

// Attach creates the HUD text entities in rs using font.
func (hud *HUDSystem) Attach(rs *common.RenderSystem, font *common.Font) {
	hud.font = font
	hud.telemetry = hud.newText(rs, 10, 10, hud.hudColor)
	hud.notices = hud.newText(rs, 10, 40, hud.warningColor)
}

func (hud *HUDSystem) newText(rs *common.RenderSystem, x, y float32, c color.Color) *hudEntity {
	e := &hudEntity{BasicEntity: ecs.NewBasic()}
	e.RenderComponent = common.RenderComponent{
		Drawable: common.Text{Font: hud.font, Text: " "},
		Color:    c,
	}
	e.RenderComponent.SetShader(common.HUDShader)
	e.RenderComponent.SetZIndex(1000)
	e.SpaceComponent = common.SpaceComponent{Position: engo.Point{X: x, Y: y}}
	rs.Add(&e.BasicEntity, &e.RenderComponent, &e.SpaceComponent)
	return e
}

// Remove satisfies the ecs.System interface
func (hud *HUDSystem) Remove(basic ecs.BasicEntity) {}

// Update refreshes the HUD text entities.
func (hud *HUDSystem) Update(dt float32) {
	telemetry, notices := hud.Lines()
	if hud.telemetry != nil {
		hud.telemetry.Drawable = common.Text{Font: hud.font, Text: orBlank(telemetry)}
	}
	if hud.notices != nil {
		hud.notices.Drawable = common.Text{Font: hud.font, Text: orBlank(notices)}
	}
}

// UpdateFrame records the telemetry of the latest frame.
func (hud *HUDSystem) UpdateFrame(f engine.Frame) {
	hud.mu.Lock()
	hud.telemetryTxt = TelemetryText(f)
	hud.mu.Unlock()
}

// AddNotice shows msg for a few seconds.
func (hud *HUDSystem) AddNotice(msg string) {
	hud.mu.Lock()
	defer hud.mu.Unlock()

	hud.noticeList = append(hud.noticeList, Notice{Message: msg, Timestamp: hud.now()})
	if len(hud.noticeList) > maxNotices {
		hud.noticeList = hud.noticeList[len(hud.noticeList)-maxNotices:]
	}
}

// Notices returns the notices that have not yet expired, oldest first.
func (hud *HUDSystem) Notices() []Notice {
	hud.mu.Lock()
	defer hud.mu.Unlock()
	hud.expireLocked()
	return append([]Notice(nil), hud.noticeList...)
}

// Lines returns the telemetry line and the joined notices.
func (hud *HUDSystem) Lines() (telemetry, notices string) {
	hud.mu.Lock()
	defer hud.mu.Unlock()
	hud.expireLocked()

	msgs := make([]string, len(hud.noticeList))
	for i, n := range hud.noticeList {
		msgs[i] = n.Message
	}
	return hud.telemetryTxt, strings.Join(msgs, "  ")
}

func (hud *HUDSystem) expireLocked() {
	now := hud.now()
	i := 0
	for i < len(hud.noticeList) && now.Sub(hud.noticeList[i].Timestamp) >= noticeTTL {
		i++
	}
	hud.noticeList = hud.noticeList[i:]
}

// TelemetryText formats the HUD line for a frame.
func TelemetryText(f engine.Frame) string {
	t := f.Telemetry
	return fmt.Sprintf("Speed: %d km/h  Altitude: %d m  Heading: %d°", t.Speed, t.Altitude, t.Heading)
}

// Text entities need at least one glyph to size their texture.
func orBlank(s string) string {
	if s == "" {
		return " "
	}
	return s
}
