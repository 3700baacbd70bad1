package analysis

import (
	"strings"

	"github.com/san-kum/balancer/internal/storage"
)

type PhasePoint struct{ X, Y float64 }

// PhasePortrait is the pendulum trajectory in (angle, angular velocity).
type PhasePortrait struct {
	Points []PhasePoint
}

func NewPhasePortrait(ticks []storage.Tick) *PhasePortrait {
	p := &PhasePortrait{Points: make([]PhasePoint, 0, len(ticks))}
	for _, t := range ticks {
		if t.Skipped {
			continue
		}
		p.Points = append(p.Points, PhasePoint{X: t.Angle, Y: t.Omega})
	}
	return p
}

// Bounds returns the padded extent of the portrait.
func (p *PhasePortrait) Bounds() (minX, maxX, minY, maxY float64) {
	minX, maxX = p.Points[0].X, p.Points[0].X
	minY, maxY = p.Points[0].Y, p.Points[0].Y
	for _, pt := range p.Points {
		minX, maxX = min(minX, pt.X), max(maxX, pt.X)
		minY, maxY = min(minY, pt.Y), max(maxY, pt.Y)
	}

	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	return minX - rangeX*0.1, maxX + rangeX*0.1, minY - rangeY*0.1, maxY + rangeY*0.1
}

// PhasePortraitToASCII draws early points as '.', middle as 'o' and late
// as '•', over the axes where they are in view.
func PhasePortraitToASCII(p *PhasePortrait, width, height int) string {
	if p == nil || len(p.Points) == 0 {
		return ""
	}

	minX, maxX, minY, maxY := p.Bounds()
	rangeX, rangeY := maxX-minX, maxY-minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	toCell := func(x, y float64) (int, int) {
		col := int((x - minX) / rangeX * float64(width-1))
		row := height - 1 - int((y-minY)/rangeY*float64(height-1))
		return row, col
	}

	if minX <= 0 && maxX >= 0 {
		_, col := toCell(0, 0)
		for row := 0; row < height; row++ {
			canvas[row][col] = '│'
		}
	}
	if minY <= 0 && maxY >= 0 {
		row, _ := toCell(0, 0)
		for col := 0; col < width; col++ {
			if canvas[row][col] == '│' {
				canvas[row][col] = '┼'
			} else {
				canvas[row][col] = '─'
			}
		}
	}

	n := len(p.Points)
	for i, pt := range p.Points {
		row, col := toCell(pt.X, pt.Y)
		if row < 0 || row >= height || col < 0 || col >= width {
			continue
		}
		switch {
		case i < n/3:
			canvas[row][col] = '.'
		case i < 2*n/3:
			canvas[row][col] = 'o'
		default:
			canvas[row][col] = '•'
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
