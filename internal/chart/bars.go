package chart

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// unitBars is a bar chart whose width is given in x-axis units. The
// drawing width is fixed only once the data area is known.
type unitBars struct {
	*plotter.BarChart

	// units is the bar width in x-axis units.
	units float64

	// slot is the bar's position within a group: -1, 0 or 1.
	slot int
}

// Plot implements plot.Plotter.
func (b *unitBars) Plot(c draw.Canvas, plt *plot.Plot) {
	if span := plt.X.Max - plt.X.Min; span > 0 {
		perUnit := (c.Max.X - c.Min.X) / vg.Length(span)
		b.Width = vg.Length(b.units) * perUnit
		b.Offset = vg.Length(b.slot) * b.Width
	}
	b.BarChart.Plot(c, plt)
}
