// Package ui is the ebiten front end: it maps key presses to session
// operations, advances playback once per frame, and draws the scrolling
// chart.
package ui

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/yonetani/drumchart/pkg/chart"
	"github.com/yonetani/drumchart/pkg/session"
	"github.com/yonetani/drumchart/pkg/timeline"
)

const (
	screenWidth  = 1280
	screenHeight = 720

	staffTop     = 160
	laneSpacing  = 56
	hudTop       = 24
)

var (
	backgroundColor = color.RGBA{0x10, 0x14, 0x1C, 0xFF}
	staffColor      = color.RGBA{0x3C, 0x44, 0x52, 0xFF}
	nowLineColor    = color.RGBA{0xF0, 0xF0, 0xF0, 0xFF}
	measureColor    = color.RGBA{0xB4, 0xB4, 0xC8, 0xFF}
	beatColor       = color.RGBA{0x6E, 0x6E, 0x82, 0xFF}
	subBeatColor    = color.RGBA{0x37, 0x3C, 0x50, 0xFF}
	hudColor        = color.RGBA{0xDC, 0xDC, 0xDC, 0xFF}

	defaultFace = text.NewGoXFace(basicfont.Face7x13)
)

// noteKeys maps edit keys to drum voices; holding Shift toggles the ghost
// variant instead.
var noteKeys = map[ebiten.Key]chart.Voice{
	ebiten.KeyZ: chart.VoiceKick,
	ebiten.KeyX: chart.VoiceSnare,
	ebiten.KeyC: chart.VoiceSnareFlam,
	ebiten.KeyV: chart.VoiceTomYellow,
	ebiten.KeyB: chart.VoiceTomBlue,
	ebiten.KeyN: chart.VoiceTomGreen,
	ebiten.KeyF: chart.VoiceHihatFoot,
	ebiten.KeyG: chart.VoiceHihatClosed,
	ebiten.KeyH: chart.VoiceHihatOpen,
	ebiten.KeyJ: chart.VoiceRide,
	ebiten.KeyK: chart.VoiceCrash,
}

// Game implements ebiten.Game over a session.
type Game struct {
	sess  *session.Session
	sheet *spriteSheet
}

// NewGame wraps a session for display.
func NewGame(sess *session.Session) *Game {
	return &Game{
		sess:  sess,
		sheet: newSpriteSheet(),
	}
}

// Run opens the editor window and blocks until it closes.
func Run(sess *session.Session) error {
	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("drumchart")
	return ebiten.RunGame(NewGame(sess))
}

// Update handles at most the frame's pending input and, when playing,
// advances the transport position.
func (g *Game) Update() error {
	g.handleInput()
	g.sess.Advance(1.0 / float64(ebiten.TPS()))
	return nil
}

func (g *Game) handleInput() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		g.sess.TogglePlay()
	case inpututil.IsKeyJustPressed(ebiten.KeyRight):
		g.sess.SeekForward()
	case inpututil.IsKeyJustPressed(ebiten.KeyLeft):
		g.sess.SeekBackward()
	case inpututil.IsKeyJustPressed(ebiten.KeyHome):
		g.sess.Rewind()
	case inpututil.IsKeyJustPressed(ebiten.KeyUp):
		g.sess.ZoomIn()
	case inpututil.IsKeyJustPressed(ebiten.KeyDown):
		g.sess.ZoomOut()
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual):
		g.sess.SpeedUp()
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus):
		g.sess.SpeedDown()
	case inpututil.IsKeyJustPressed(ebiten.KeyRightBracket):
		g.sess.SubdivFiner()
	case inpututil.IsKeyJustPressed(ebiten.KeyLeftBracket):
		g.sess.SubdivCoarser()
	case inpututil.IsKeyJustPressed(ebiten.KeyM):
		g.sess.ToggleMetronome()
	case inpututil.IsKeyJustPressed(ebiten.KeyD):
		g.sess.ToggleDrumMute()
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		g.sess.ToggleSongMute()
	default:
		ghost := ebiten.IsKeyPressed(ebiten.KeyShiftLeft) || ebiten.IsKeyPressed(ebiten.KeyShiftRight)
		for key, voice := range noteKeys {
			if inpututil.IsKeyJustPressed(key) {
				strength := chart.Normal
				if ghost {
					strength = chart.Ghost
				}
				g.sess.ToggleNote(chart.Note{Voice: voice, Strength: strength})
				break
			}
		}
	}
}

// laneY returns the vertical center of a staff lane. Lane 0 (feet) renders
// at the bottom.
func laneY(lane int) int {
	return staffTop + (chart.NumLanes-1-lane)*laneSpacing
}

// Draw renders the staff, gridlines, notes, now line, and HUD.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	staffBottom := float32(laneY(0)) + laneSpacing/2
	for lane := 0; lane < chart.NumLanes; lane++ {
		y := float32(laneY(lane))
		vector.StrokeLine(screen, 0, y, screenWidth, y, 1, staffColor, false)
	}

	g.sess.VisibleGridlines(screenWidth, func(x int, kind timeline.LineKind) {
		var clr color.RGBA
		var width float32
		switch kind {
		case timeline.LineMeasure:
			clr, width = measureColor, 2
		case timeline.LineBeat:
			clr, width = beatColor, 1
		default:
			clr, width = subBeatColor, 1
		}
		vector.StrokeLine(screen, float32(x), staffTop-laneSpacing/2, float32(x), staffBottom, width, clr, false)
	})

	g.sess.VisibleNotes(screenWidth, func(x int, notes []chart.Note) {
		for _, n := range notes {
			sprite := g.sheet.sprite(n)
			op := &ebiten.DrawImageOptions{}
			op.GeoM.Translate(float64(x-cellSize/2), float64(laneY(n.Voice.Lane())-cellSize/2))
			screen.DrawImage(sprite, op)
		}
	})

	vector.StrokeLine(screen, session.OriginX, staffTop-laneSpacing, session.OriginX, staffBottom+laneSpacing/2, 2, nowLineColor, false)

	g.drawHUD(screen)
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	sig := g.sess.CurrentSig()
	state := "paused"
	if g.sess.State() == session.Playing {
		state = "playing"
	}
	flags := ""
	if g.sess.MetronomeOn() {
		flags += " [click]"
	}
	if g.sess.DrumMuted() {
		flags += " [drums off]"
	}
	if g.sess.SongMuted() {
		flags += " [song off]"
	}

	sec, _ := g.sess.Pos().Seconds()
	beats, _ := g.sess.Pos().Beats()
	line := fmt.Sprintf("%s  %.2fs  beat %.2f  %.1f BPM  %d/%s  speed %.1fx  zoom %.0fpx/s  grid 1/%d%s",
		state, sec.Float64(), beats.Float64(), g.sess.CurrentBPM(),
		sig.Count, sig.Unit, g.sess.Speed(), g.sess.Zoom(), g.sess.Subdiv(), flags)

	op := &text.DrawOptions{}
	op.GeoM.Translate(16, hudTop)
	op.ColorScale.ScaleWithColor(hudColor)
	text.Draw(screen, line, defaultFace, op)
}

// Layout reports the fixed logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}
