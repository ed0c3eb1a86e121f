// Package chart renders one grouped bar chart per three-phase bus:
// harmonic order on the x axis, one bar per phase, individual
// harmonic distortion as a percentage of nominal voltage on the y
// axis, and a text box with each phase's THD.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/unbound-force/harmonics/internal/config"
	"github.com/unbound-force/harmonics/internal/harmonic"
	"github.com/unbound-force/harmonics/internal/model"
)

// Extension is the image file extension of rendered charts.
const Extension = ".jpg"

// ErrNoHarmonics is returned for a group whose nodes carry no
// harmonic readings.
var ErrNoHarmonics = errors.New("no harmonic orders to plot")

// plotAreaFraction approximates the share of the canvas width taken
// by the x axis, for the initial bar width estimate.
const plotAreaFraction = 0.85

// Renderer draws and saves distortion charts.
type Renderer struct {
	cfg    config.ChartConfig
	logger *log.Logger
}

// New returns a Renderer for cfg. A nil logger disables logging.
func New(cfg config.ChartConfig, logger *log.Logger) *Renderer {
	return &Renderer{cfg: cfg, logger: logger}
}

// Title returns the chart title for a bus. Underscores in bus names
// are shown as spaces.
func (r *Renderer) Title(bus string) string {
	name := strings.ReplaceAll(bus, "_", " ")
	if r.cfg.TitlePrefix == "" {
		return name
	}
	return r.cfg.TitlePrefix + " - " + name
}

// Filename returns the image file name for a bus, derived from the
// chart title.
func (r *Renderer) Filename(bus string) string {
	name := strings.NewReplacer("/", "-", `\`, "-").Replace(r.Title(bus))
	return name + Extension
}

// RenderAll writes one chart per phase group of stats into dir,
// creating dir if needed, and returns the written paths in group
// order.
func (r *Renderer) RenderAll(stats map[model.NodeName]model.HarmonicStats, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating chart directory %s: %w", dir, err)
	}

	var paths []string
	for _, g := range harmonic.GroupStats(stats) {
		p, err := r.Build(g, stats)
		if err != nil {
			return paths, fmt.Errorf("building chart for %s: %w", g.Bus, err)
		}
		path := filepath.Join(dir, r.Filename(g.Bus))
		if err := r.Save(p, path); err != nil {
			return paths, err
		}
		if r.logger != nil {
			r.logger.Info("wrote chart", "bus", g.Bus, "phases", len(g.Members), "path", path)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Build lays out the chart for one phase group. Only the phases
// present in the group are drawn; a harmonic order missing for one
// phase is drawn as zero.
func (r *Renderer) Build(g model.PhaseGroup, stats map[model.NodeName]model.HarmonicStats) (*plot.Plot, error) {
	member := make(map[model.NodeName]model.HarmonicStats, len(g.Members))
	for _, n := range g.Members {
		st, ok := stats[n]
		if !ok {
			return nil, fmt.Errorf("no statistics for node %s", n)
		}
		member[n] = st
	}
	orders := harmonic.Orders(member)
	if len(orders) == 0 {
		return nil, ErrNoHarmonics
	}

	p := plot.New()
	p.Title.Text = r.Title(g.Bus)
	if r.cfg.Subtitle != "" {
		p.Title.Text += "\n" + r.cfg.Subtitle
	}
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = r.cfg.XLabel
	p.Y.Label.Text = r.cfg.YLabel

	grid := plotter.NewGrid()
	grid.Vertical.Color = nil
	grid.Horizontal.Color = color.Black
	grid.Horizontal.Width = vg.Points(0.3)
	p.Add(grid)

	width := r.barWidth(len(orders))
	for i, phase := range model.Phases {
		node, ok := g.Member(phase)
		if !ok {
			continue
		}
		values := make(plotter.Values, len(orders))
		for j, h := range orders {
			values[j] = member[node].IHD[h] * 100
		}
		bars, err := plotter.NewBarChart(values, width)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node, err)
		}
		bars.Offset = vg.Length(i-1) * width
		bars.Color = plotutil.Color(i)
		bars.LineStyle.Width = 0
		ub := &unitBars{BarChart: bars, units: r.cfg.BarWidth, slot: i - 1}
		p.Add(ub)
		p.Legend.Add(phase.Label(), ub)
	}
	p.Legend.Top = true
	p.Legend.Left = true

	labels := make([]string, len(orders))
	for i, h := range orders {
		labels[i] = strconv.Itoa(h)
	}
	p.NominalX(labels...)

	box, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    []plotter.XY{{X: float64(len(orders)) - 0.5, Y: r.cfg.AxisMax}},
		Labels: []string{ThdText(g, stats)},
	})
	if err != nil {
		return nil, fmt.Errorf("building THD text box: %w", err)
	}
	for i := range box.TextStyle {
		box.TextStyle[i].XAlign = text.XRight
		box.TextStyle[i].YAlign = text.YTop
		box.TextStyle[i].Font.Size = vg.Points(11)
	}
	box.Offset = vg.Point{X: -vg.Points(6), Y: -vg.Points(6)}
	p.Add(box)

	p.X.Min = -0.5
	p.X.Max = float64(len(orders)) - 0.5
	p.Y.Min = r.cfg.AxisMin
	p.Y.Max = r.cfg.AxisMax
	p.Y.Tick.Marker = PercentTicks{Major: r.cfg.MajorStep, Minor: r.cfg.MinorStep}

	return p, nil
}

// barWidth estimates the drawing length of a bar before the data
// area is known. It only sizes glyph padding; unitBars sets the
// exact width when the chart is drawn.
func (r *Renderer) barWidth(n int) vg.Length {
	axis := vg.Length(r.cfg.WidthIn) * vg.Inch * plotAreaFraction
	return axis / vg.Length(n) * vg.Length(r.cfg.BarWidth)
}

// Save draws p at the configured size and DPI and writes it as JPEG.
func (r *Renderer) Save(p *plot.Plot, path string) error {
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(r.cfg.WidthIn)*vg.Inch, vg.Length(r.cfg.HeightIn)*vg.Inch),
		vgimg.UseDPI(r.cfg.DPI),
	)
	p.Draw(draw.New(c))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if _, err := (vgimg.JpegCanvas{Canvas: c}).WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// ThdText returns the text box contents: a heading line followed by
// one THD percentage per phase present in g, rounded to two places.
func ThdText(g model.PhaseGroup, stats map[model.NodeName]model.HarmonicStats) string {
	name := strings.ReplaceAll(g.Bus, "_", " ")
	lines := []string{"Total Harmonic Distortion"}
	for _, phase := range model.Phases {
		node, ok := g.Member(phase)
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s %s THD = %.2f%%", name, phase.Label(), stats[node].THD*100))
	}
	return strings.Join(lines, "\n")
}
