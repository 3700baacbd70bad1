// Package plotting renders stored runs as terminal graphs and chart files.
package plotting

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/balancer/internal/storage"
)

var ErrNoData = errors.New("plotting: no data")

// Channel picks one column out of a tick.
type Channel struct {
	Name  string
	Label string
	Value func(storage.Tick) float64
}

var Channels = []Channel{
	{"pos", "actuator position", func(t storage.Tick) float64 { return t.Pos }},
	{"vel", "actuator velocity", func(t storage.Tick) float64 { return t.Vel }},
	{"angle", "pendulum angle", func(t storage.Tick) float64 { return t.Angle }},
	{"omega", "pendulum angular velocity", func(t storage.Tick) float64 { return t.Omega }},
	{"command", "actuator command", func(t storage.Tick) float64 { return t.Command }},
}

func ChannelByName(name string) (Channel, bool) {
	for _, c := range Channels {
		if c.Name == name {
			return c, true
		}
	}
	return Channel{}, false
}

// Series extracts a channel, leaving skipped ticks out.
func Series(ticks []storage.Tick, c Channel) (xs, ys []float64) {
	xs = make([]float64, 0, len(ticks))
	ys = make([]float64, 0, len(ticks))
	for _, t := range ticks {
		if t.Skipped {
			continue
		}
		xs = append(xs, t.Time)
		ys = append(ys, c.Value(t))
	}
	return xs, ys
}

// ASCII draws a channel as a terminal line graph.
func ASCII(ticks []storage.Tick, c Channel, width, height int) (string, error) {
	_, ys := Series(ticks, c)
	if len(ys) == 0 {
		return "", ErrNoData
	}
	return asciigraph.Plot(ys,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(c.Label),
	), nil
}

func limitedTicker(maxLabels int, labelFmt string) plot.Ticker {
	if maxLabels < 2 {
		maxLabels = 2
	}
	return plot.TickerFunc(func(min, max float64) []plot.Tick {
		if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
			return nil
		}
		if min == max {
			return []plot.Tick{{Value: min, Label: fmt.Sprintf(labelFmt, min)}}
		}
		step := (max - min) / float64(maxLabels-1)
		ticks := make([]plot.Tick, 0, maxLabels)
		for i := 0; i < maxLabels; i++ {
			v := min + float64(i)*step
			ticks = append(ticks, plot.Tick{Value: v, Label: fmt.Sprintf(labelFmt, v)})
		}
		return ticks
	})
}

// NewPlot builds a time plot with one line per channel.
func NewPlot(title string, ticks []storage.Tick, channels ...Channel) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time (s)"
	p.X.Tick.Marker = limitedTicker(10, "%.1f")
	p.Y.Tick.Marker = limitedTicker(8, "%.2f")
	p.Add(plotter.NewGrid())

	drawn := 0
	for i, c := range channels {
		xs, ys := Series(ticks, c)
		if len(xs) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(xs))
		for j := range xs {
			pts[j].X = xs[j]
			pts[j].Y = ys[j]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(c.Label, line)
		drawn++
	}
	if drawn == 0 {
		return nil, ErrNoData
	}
	if len(channels) == 1 {
		p.Y.Label.Text = channels[0].Label
	}
	return p, nil
}

// SavePNG renders p at the given size in inches.
func SavePNG(p *plot.Plot, widthIn, heightIn float64, filename string) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create directory: %w", err)
		}
	}
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch),
		vgimg.UseDPI(150),
	)
	p.Draw(draw.New(c))

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return bw.Flush()
}

// SaveRun writes one chart of a stored run with the given channels. The
// format follows the file extension: PNG at 150 DPI, or anything plot.Save
// understands (svg, pdf, eps).
func SaveRun(filename string, meta *storage.RunMetadata, ticks []storage.Tick, channels ...Channel) error {
	if len(channels) == 0 {
		channels = Channels
	}
	title := fmt.Sprintf("%s / %s", meta.Plant, meta.Policy)
	p, err := NewPlot(title, ticks, channels...)
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(filename), ".png") {
		return SavePNG(p, 8, 5, filename)
	}
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create directory: %w", err)
		}
	}
	return p.Save(8*vg.Inch, 5*vg.Inch, filename)
}
