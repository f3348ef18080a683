// Package charts renders the run's PNG figures. Layout is computed by
// hand on a fixed canvas, bars scaled against the panel height and a
// value label drawn over each bar.
package charts

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/allibot/rtsbench/internal/models"
)

const (
	chartWidth  = 600
	chartHeight = 400
	padding     = 50
)

var (
	background = color.RGBA{R: 0x1a, G: 0x1a, B: 0x1a, A: 0xff}
	axisColor  = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	textColor  = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	barBlue    = color.RGBA{R: 0x4a, G: 0x90, B: 0xe2, A: 0xff}
	barRed     = color.RGBA{R: 0xe7, G: 0x4c, B: 0x3c, A: 0xff}
	barGray    = color.RGBA{R: 0x9a, G: 0x9a, B: 0x9a, A: 0xff}
)

type canvas struct {
	img *image.RGBA
}

func newCanvas(w, h int) *canvas {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	return &canvas{img: img}
}

func (c *canvas) fillRect(x0, y0, x1, y1 int, col color.Color) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	draw.Draw(c.img, image.Rect(x0, y0, x1, y1), image.NewUniform(col), image.Point{}, draw.Src)
}

func (c *canvas) hline(x0, x1, y int, col color.Color) { c.fillRect(x0, y, x1, y+1, col) }

func (c *canvas) vline(x, y0, y1 int, col color.Color) { c.fillRect(x, y0, x+1, y1, col) }

// text draws s with its baseline at y.
func (c *canvas) text(x, y int, s string, col color.Color) {
	d := font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func (c *canvas) textCentered(cx, y int, s string, col color.Color) {
	c.text(cx-textWidth(s)/2, y, s, col)
}

func textWidth(s string) int { return len(s) * basicfont.Face7x13.Advance }

func (c *canvas) save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create chart dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, c.img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// WinRateBar renders the per-opponent win rate. The y axis is fixed to
// 0..1 regardless of the observed rates.
func WinRateBar(summaries []models.OpponentSummary, path string) error {
	if len(summaries) == 0 {
		return errors.New("no summaries to chart")
	}

	c := newCanvas(chartWidth, chartHeight)
	c.textCentered(chartWidth/2, 30, "AlliBot win rate by opponent", textColor)

	plotH := chartHeight - 2*padding
	barWidth := (chartWidth - 2*padding) / len(summaries)
	baseY := chartHeight - padding

	for i, s := range summaries {
		barHeight := int(s.WinRate * float64(plotH))
		x := padding + i*barWidth
		y := baseY - barHeight
		c.fillRect(x+5, y, x+barWidth-5, baseY, barBlue)
		c.textCentered(x+barWidth/2, y-5, strconv.FormatFloat(s.WinRate, 'f', 2, 64), textColor)
		c.textCentered(x+barWidth/2, baseY+20, s.Opponent, textColor)
	}

	c.hline(padding, chartWidth-padding, baseY, axisColor)
	c.vline(padding, padding, baseY, axisColor)
	c.text(padding-45, padding+5, "1.0", textColor)
	c.text(padding-45, baseY+5, "0.0", textColor)

	return c.save(path)
}

// HeadToHead renders one opponent's match history as two stacked panels,
// per-match outcome on top and game length below. Records for other
// opponents are ignored.
func HeadToHead(opponent string, records []models.MatchRecord, path string) error {
	var matches []models.MatchRecord
	for _, rec := range records {
		if rec.Opponent == opponent {
			matches = append(matches, rec)
		}
	}
	if len(matches) == 0 {
		return fmt.Errorf("no matches against %s", opponent)
	}

	var wins, losses, ties int
	maxCycles := 1
	for _, rec := range matches {
		switch rec.Result {
		case models.OutcomeWin:
			wins++
		case models.OutcomeLoss:
			losses++
		default:
			ties++
		}
		if rec.Cycles > maxCycles {
			maxCycles = rec.Cycles
		}
	}
	winRate := float64(wins) / float64(max(len(matches), 1))

	const (
		width  = 600
		height = 520
		panelH = 180
	)
	c := newCanvas(width, height)
	title := fmt.Sprintf("AlliBot vs %s | W:%d L:%d T:%d | WinRate=%.2f",
		opponent, wins, losses, ties, winRate)
	c.textCentered(width/2, 30, title, textColor)

	slot := (width - 2*padding) / len(matches)
	if slot < 1 {
		slot = 1
	}

	// Outcome panel. Wins grow up from the midline, losses down, ties
	// sit on it.
	top := 60
	mid := top + panelH/2
	outH := panelH/2 - 10
	c.text(8, top+10, "outcome", textColor)
	c.text(8, mid-outH+5, "win", textColor)
	c.text(8, mid+4, "tie", textColor)
	c.text(8, mid+outH+5, "loss", textColor)
	for i, rec := range matches {
		x := padding + i*slot
		switch rec.Result {
		case models.OutcomeWin:
			c.fillRect(x+2, mid-outH, x+slot-2, mid, barBlue)
		case models.OutcomeLoss:
			c.fillRect(x+2, mid, x+slot-2, mid+outH, barRed)
		default:
			c.fillRect(x+2, mid-2, x+slot-2, mid+2, barGray)
		}
	}
	c.hline(padding, width-padding, mid, axisColor)

	// Cycles panel, scaled against the longest game.
	cycTop := top + panelH + 40
	cycBase := cycTop + panelH
	c.text(8, cycTop+10, "cycles", textColor)
	c.text(8, cycTop+24, strconv.Itoa(maxCycles), textColor)
	for i, rec := range matches {
		x := padding + i*slot
		h := rec.Cycles * (panelH - 10) / maxCycles
		c.fillRect(x+2, cycBase-h, x+slot-2, cycBase, barBlue)
	}
	c.hline(padding, width-padding, cycBase, axisColor)

	// Match index ticks, thinned when the run is long.
	stride := max(len(matches)/10, 1)
	for i := range matches {
		if i%stride != 0 {
			continue
		}
		x := padding + i*slot
		c.textCentered(x+slot/2, cycBase+20, strconv.Itoa(matches[i].Index), textColor)
	}

	return c.save(path)
}
