package ui

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/yonetani/drumchart/pkg/chart"
)

// Note heads are blitted from one generated sprite sheet: a row per voice,
// column 0 the normal hit, column 1 the ghost hit.
const (
	cellSize   = 20
	headRadius = 8
)

var voiceColors = map[chart.Voice]color.RGBA{
	chart.VoiceKick:        {0xE0, 0x7A, 0x1F, 0xFF},
	chart.VoiceSnare:       {0xD6, 0x3C, 0x3C, 0xFF},
	chart.VoiceSnareFlam:   {0xD6, 0x3C, 0x6E, 0xFF},
	chart.VoiceTomYellow:   {0xE6, 0xC8, 0x2E, 0xFF},
	chart.VoiceTomBlue:     {0x3C, 0x78, 0xD6, 0xFF},
	chart.VoiceTomGreen:    {0x3C, 0xB4, 0x50, 0xFF},
	chart.VoiceHihatFoot:   {0xB4, 0xA0, 0x2E, 0xFF},
	chart.VoiceHihatClosed: {0xE6, 0xC8, 0x2E, 0xFF},
	chart.VoiceHihatOpen:   {0xF0, 0xE0, 0x78, 0xFF},
	chart.VoiceRide:        {0x64, 0x96, 0xE6, 0xFF},
	chart.VoiceCrash:       {0x50, 0xC8, 0x64, 0xFF},
}

// cymbalVoices render as open rings instead of filled heads.
var cymbalVoices = map[chart.Voice]bool{
	chart.VoiceHihatClosed: true,
	chart.VoiceHihatOpen:   true,
	chart.VoiceRide:        true,
	chart.VoiceCrash:       true,
}

type spriteSheet struct {
	img *ebiten.Image
}

// newSpriteSheet renders every note head once.
func newSpriteSheet() *spriteSheet {
	voices := len(voiceColors)
	img := ebiten.NewImage(2*cellSize, voices*cellSize)

	for v, clr := range voiceColors {
		row := int(v)
		cy := float32(row*cellSize + cellSize/2)
		for col := 0; col < 2; col++ {
			cx := float32(col*cellSize + cellSize/2)
			r := float32(headRadius)
			if col == 1 {
				// Ghost hits draw smaller and dimmer.
				r = headRadius * 0.6
				clr.A = 0xA0
			}
			if cymbalVoices[v] {
				vector.StrokeCircle(img, cx, cy, r, 2, clr, true)
			} else {
				vector.DrawFilledCircle(img, cx, cy, r, clr, true)
			}
		}
	}
	return &spriteSheet{img: img}
}

// sprite returns the sheet region for one note, ready to blit.
func (s *spriteSheet) sprite(n chart.Note) *ebiten.Image {
	col := 0
	if n.Strength == chart.Ghost {
		col = 1
	}
	row := int(n.Voice)
	rect := image.Rect(col*cellSize, row*cellSize, (col+1)*cellSize, (row+1)*cellSize)
	return s.img.SubImage(rect).(*ebiten.Image)
}
